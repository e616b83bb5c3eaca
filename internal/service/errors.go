package service

import "errors"

var (
	ErrSessionInvalid     = errors.New("session token invalid")
	ErrSessionNotFound    = errors.New("session not found")
	ErrSessionConflict    = errors.New("session update conflict")
	ErrSessionStateBroken = errors.New("session state broken")

	ErrCartItemNotFound = errors.New("cart item not found")
	ErrQuantityInvalid  = errors.New("cart quantity invalid")

	ErrSubmissionInProgress = errors.New("order submission in progress")
	ErrOrderFailed          = errors.New("order submission failed")
	ErrPaymentUnavailable   = errors.New("online payment unavailable")
	ErrPaymentFailed        = errors.New("online payment failed")
	ErrPaymentMismatch      = errors.New("online payment order mismatch")

	ErrLoginRequired     = errors.New("login required")
	ErrLoginFailed       = errors.New("login failed")
	ErrRegisterFailed    = errors.New("register failed")
	ErrAdminNotShopper   = errors.New("admin account is not a shopper")
	ErrPasswordRequired  = errors.New("password required")
	ErrPasswordMismatch  = errors.New("password confirmation mismatch")
	ErrIdentityRequired  = errors.New("login identifier required")
	ErrEmailRequired     = errors.New("email required")
	ErrContactIncomplete = errors.New("contact form incomplete")

	ErrCaptchaRequired    = errors.New("captcha required")
	ErrCaptchaInvalid     = errors.New("captcha invalid")
	ErrCaptchaUnavailable = errors.New("captcha unavailable")
)
