package public

import (
	"errors"
	"strings"

	"github.com/primefix-storefront/internal/cart"
	"github.com/primefix-storefront/internal/checkout"
	"github.com/primefix-storefront/internal/http/response"
	"github.com/primefix-storefront/internal/i18n"
	"github.com/primefix-storefront/internal/service"
	"github.com/primefix-storefront/internal/upstream"

	"github.com/gin-gonic/gin"
)

// mappedHandlerError 定义业务错误到接口错误响应的映射关系。
type mappedHandlerError struct {
	target error
	code   int
	key    string
}

func concatMappedHandlerErrors(groups ...[]mappedHandlerError) []mappedHandlerError {
	total := 0
	for _, group := range groups {
		total += len(group)
	}
	result := make([]mappedHandlerError, 0, total)
	for _, group := range groups {
		result = append(result, group...)
	}
	return result
}

var sessionErrorRules = []mappedHandlerError{
	{target: service.ErrSessionInvalid, code: response.CodeUnauthorized, key: "error.session_invalid"},
	{target: service.ErrSessionNotFound, code: response.CodeUnauthorized, key: "error.session_invalid"},
	{target: service.ErrSessionConflict, code: response.CodeConflict, key: "error.session_conflict"},
}

var cartErrorRules = []mappedHandlerError{
	{target: cart.ErrInvalidProduct, code: response.CodeBadRequest, key: "error.product_invalid"},
	{target: cart.ErrInvalidPrice, code: response.CodeBadRequest, key: "error.product_price_invalid"},
	{target: service.ErrCartItemNotFound, code: response.CodeNotFound, key: "error.cart_item_not_found"},
	{target: service.ErrQuantityInvalid, code: response.CodeBadRequest, key: "error.quantity_invalid"},
}

var checkoutErrorRules = []mappedHandlerError{
	{target: checkout.ErrCartEmpty, code: response.CodeBadRequest, key: "error.cart_empty"},
	{target: checkout.ErrInvalidStage, code: response.CodeConflict, key: "error.checkout_stage"},
	{target: checkout.ErrPaymentMethodInvalid, code: response.CodeBadRequest, key: "error.payment_method_invalid"},
	{target: checkout.ErrPaymentRequired, code: response.CodeBadRequest, key: "error.payment_required"},
	{target: service.ErrPaymentUnavailable, code: response.CodeBadRequest, key: "error.payment_unavailable"},
	{target: checkout.ErrPaymentCaptured, code: response.CodeConflict, key: "error.payment_captured"},
	{target: service.ErrPaymentMismatch, code: response.CodeConflict, key: "error.payment_mismatch"},
	{target: service.ErrPaymentFailed, code: response.CodeUnprocessable, key: "error.payment_failed"},
	{target: service.ErrSubmissionInProgress, code: response.CodeTooManyRequests, key: "error.submission_in_progress"},
}

var accountErrorRules = []mappedHandlerError{
	{target: service.ErrLoginRequired, code: response.CodeUnauthorized, key: "error.unauthorized"},
	{target: service.ErrIdentityRequired, code: response.CodeBadRequest, key: "error.bad_request"},
	{target: service.ErrPasswordRequired, code: response.CodeBadRequest, key: "error.password_required"},
	{target: service.ErrPasswordMismatch, code: response.CodeBadRequest, key: "error.password_mismatch"},
	{target: service.ErrAdminNotShopper, code: response.CodeForbidden, key: "error.admin_not_shopper"},
	{target: service.ErrEmailRequired, code: response.CodeBadRequest, key: "error.email_required"},
	{target: service.ErrContactIncomplete, code: response.CodeBadRequest, key: "error.contact_incomplete"},
}

var captchaErrorRules = []mappedHandlerError{
	{target: service.ErrCaptchaRequired, code: response.CodeBadRequest, key: "error.captcha_required"},
	{target: service.ErrCaptchaInvalid, code: response.CodeBadRequest, key: "error.captcha_invalid"},
	{target: service.ErrCaptchaUnavailable, code: response.CodeNotFound, key: "error.captcha_unavailable"},
}

// serviceErrorRules 所有接口共用的映射表
var serviceErrorRules = concatMappedHandlerErrors(
	sessionErrorRules,
	cartErrorRules,
	checkoutErrorRules,
	accountErrorRules,
	captchaErrorRules,
)

// respondServiceError 按映射表返回错误；带后端提示的失败原样展示后端信息
func (h *Handler) respondServiceError(c *gin.Context, err error) {
	locale := i18n.ResolveLocale(c)
	switch {
	case errors.Is(err, checkout.ErrDetailsIncomplete):
		missing := strings.TrimPrefix(err.Error(), checkout.ErrDetailsIncomplete.Error())
		missing = strings.TrimLeft(missing, ": ")
		respondErrorWithMsg(c, response.CodeBadRequest, i18n.Sprintf(locale, "error.checkout_details", missing), nil)
		return
	case errors.Is(err, service.ErrOrderFailed):
		message := upstream.BackendMessage(err)
		if message == "" {
			message = i18n.T(locale, "error.upstream_unavailable")
		}
		respondErrorWithMsg(c, response.CodeUnprocessable, i18n.Sprintf(locale, "error.order_failed", message), err)
		return
	case errors.Is(err, service.ErrLoginFailed):
		h.respondBackendRejection(c, err, "error.login_failed")
		return
	case errors.Is(err, service.ErrRegisterFailed):
		h.respondBackendRejection(c, err, "error.register_failed")
		return
	}
	for _, rule := range serviceErrorRules {
		if errors.Is(err, rule.target) {
			respondError(c, rule.code, rule.key, nil)
			return
		}
	}
	switch {
	case errors.Is(err, upstream.ErrBackend):
		h.respondBackendRejection(c, err, "error.upstream_rejected")
	case errors.Is(err, upstream.ErrTransport):
		h.recordUpstreamFailure(err)
		respondError(c, response.CodeBadGateway, "error.upstream_unavailable", err)
	default:
		respondError(c, response.CodeInternal, "error.internal", err)
	}
}

// respondBackendRejection 后端明确拒绝：优先展示后端信息
func (h *Handler) respondBackendRejection(c *gin.Context, err error, fallbackKey string) {
	h.recordUpstreamFailure(err)
	if message := upstream.BackendMessage(err); message != "" {
		respondErrorWithMsg(c, response.CodeUnprocessable, message, nil)
		return
	}
	respondError(c, response.CodeUnprocessable, fallbackKey, nil)
}

func (h *Handler) recordUpstreamFailure(err error) {
	if h.Container == nil {
		return
	}
	switch {
	case errors.Is(err, upstream.ErrTransport):
		h.Metrics.UpstreamError("transport")
	case errors.Is(err, upstream.ErrBackend):
		h.Metrics.UpstreamError("backend")
	}
}
