package public

import (
	"strings"

	handlershared "github.com/primefix-storefront/internal/http/handlers/shared"
	"github.com/primefix-storefront/internal/http/response"
	"github.com/primefix-storefront/internal/service"

	"github.com/gin-gonic/gin"
)

// LoginRequest 登录请求，identifier 可以是邮箱或用户名
type LoginRequest struct {
	Identifier string `json:"identifier"`
	Email      string `json:"email"`
	Password   string `json:"password"`
}

// RegisterRequest 注册请求
type RegisterRequest struct {
	Name           string                              `json:"name"`
	Email          string                              `json:"email"`
	Password       string                              `json:"password"`
	Phone          string                              `json:"phone"`
	CaptchaPayload handlershared.CaptchaPayloadRequest `json:"captcha_payload"`
}

// Login 登录，成功后用户信息写入会话
func (h *Handler) Login(c *gin.Context) {
	sid, ok := getSessionID(c)
	if !ok {
		return
	}
	var req LoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, response.CodeBadRequest, "error.bad_request", err)
		return
	}
	identifier := strings.TrimSpace(req.Identifier)
	if identifier == "" {
		identifier = req.Email
	}
	user, err := h.AccountService.Login(c.Request.Context(), sid, identifier, req.Password)
	if err != nil {
		h.respondServiceError(c, err)
		return
	}
	response.Success(c, gin.H{"user": user})
}

// Register 注册账户
func (h *Handler) Register(c *gin.Context) {
	var req RegisterRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, response.CodeBadRequest, "error.bad_request", err)
		return
	}
	message, err := h.AccountService.Register(c.Request.Context(), service.RegisterRequest{
		Name:     req.Name,
		Email:    req.Email,
		Password: req.Password,
		Phone:    req.Phone,
		Captcha:  req.CaptchaPayload.ToServicePayload(),
	})
	if err != nil {
		h.respondServiceError(c, err)
		return
	}
	response.SuccessWithMsg(c, message, gin.H{"registered": true})
}

// Logout 退出登录，购物车保留
func (h *Handler) Logout(c *gin.Context) {
	sid, ok := getSessionID(c)
	if !ok {
		return
	}
	if err := h.AccountService.Logout(c.Request.Context(), sid); err != nil {
		h.respondServiceError(c, err)
		return
	}
	handlershared.RespondSuccessKey(c, "success.logged_out", gin.H{"logged_out": true})
}

// GetCaptchaImage 获取图片验证码
func (h *Handler) GetCaptchaImage(c *gin.Context) {
	challenge, err := h.CaptchaService.GenerateImageChallenge()
	if err != nil {
		h.respondServiceError(c, err)
		return
	}
	response.Success(c, challenge)
}
