package public

import (
	handlershared "github.com/primefix-storefront/internal/http/handlers/shared"
	"github.com/primefix-storefront/internal/http/response"
	"github.com/primefix-storefront/internal/upstream"

	"github.com/gin-gonic/gin"
)

// ChangePasswordRequest 修改密码请求
type ChangePasswordRequest struct {
	Password        string `json:"password"`
	ConfirmPassword string `json:"confirm_password"`
}

// GetMe 当前用户
func (h *Handler) GetMe(c *gin.Context) {
	sid, ok := getSessionID(c)
	if !ok {
		return
	}
	user, err := h.AccountService.Me(c.Request.Context(), sid)
	if err != nil {
		h.respondServiceError(c, err)
		return
	}
	response.Success(c, user)
}

// UpdateProfile 更新个人资料
func (h *Handler) UpdateProfile(c *gin.Context) {
	sid, ok := getSessionID(c)
	if !ok {
		return
	}
	var req upstream.ProfileInput
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, response.CodeBadRequest, "error.bad_request", err)
		return
	}
	user, err := h.AccountService.UpdateProfile(c.Request.Context(), sid, req)
	if err != nil {
		h.respondServiceError(c, err)
		return
	}
	handlershared.RespondSuccessKey(c, "success.profile_updated", user)
}

// ChangePassword 修改密码
func (h *Handler) ChangePassword(c *gin.Context) {
	sid, ok := getSessionID(c)
	if !ok {
		return
	}
	var req ChangePasswordRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, response.CodeBadRequest, "error.bad_request", err)
		return
	}
	if err := h.AccountService.ChangePassword(c.Request.Context(), sid, req.Password, req.ConfirmPassword); err != nil {
		h.respondServiceError(c, err)
		return
	}
	handlershared.RespondSuccessKey(c, "success.password_changed", gin.H{"changed": true})
}

// ListMyOrders 订单历史
func (h *Handler) ListMyOrders(c *gin.Context) {
	sid, ok := getSessionID(c)
	if !ok {
		return
	}
	orders, err := h.AccountService.Orders(c.Request.Context(), sid)
	if err != nil {
		h.respondServiceError(c, err)
		return
	}
	response.Success(c, orders)
}
