package public

import (
	"errors"

	handlershared "github.com/primefix-storefront/internal/http/handlers/shared"
	"github.com/primefix-storefront/internal/http/response"
	"github.com/primefix-storefront/internal/service"
	"github.com/primefix-storefront/internal/upstream"

	"github.com/gin-gonic/gin"
)

// NewsletterRequest 订阅请求
type NewsletterRequest struct {
	Email string `json:"email"`
}

// ContactRequest 联系表单请求
type ContactRequest struct {
	Name           string                              `json:"name"`
	Email          string                              `json:"email"`
	Phone          string                              `json:"phone"`
	Subject        string                              `json:"subject"`
	Message        string                              `json:"message"`
	CaptchaPayload handlershared.CaptchaPayloadRequest `json:"captcha_payload"`
}

// SubscribeNewsletter 订阅邮件，后端提示原样返回
func (h *Handler) SubscribeNewsletter(c *gin.Context) {
	var req NewsletterRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, response.CodeBadRequest, "error.bad_request", err)
		return
	}
	message, err := h.MarketingService.Subscribe(c.Request.Context(), req.Email)
	if err != nil {
		h.respondMarketingError(c, message, err)
		return
	}
	response.SuccessWithMsg(c, message, gin.H{"subscribed": true})
}

// SubmitContact 提交联系表单
func (h *Handler) SubmitContact(c *gin.Context) {
	var req ContactRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, response.CodeBadRequest, "error.bad_request", err)
		return
	}
	message, err := h.MarketingService.Contact(c.Request.Context(), service.ContactRequest{
		Name:    req.Name,
		Email:   req.Email,
		Phone:   req.Phone,
		Subject: req.Subject,
		Message: req.Message,
		Captcha: req.CaptchaPayload.ToServicePayload(),
	})
	if err != nil {
		h.respondMarketingError(c, message, err)
		return
	}
	if message == "" {
		handlershared.RespondSuccessKey(c, "success.contact_sent", gin.H{"sent": true})
		return
	}
	response.SuccessWithMsg(c, message, gin.H{"sent": true})
}

func (h *Handler) respondMarketingError(c *gin.Context, message string, err error) {
	if message != "" && errors.Is(err, upstream.ErrBackend) {
		h.recordUpstreamFailure(err)
		respondErrorWithMsg(c, response.CodeUnprocessable, message, nil)
		return
	}
	h.respondServiceError(c, err)
}
