package public

import (
	"github.com/primefix-storefront/internal/checkout"
	"github.com/primefix-storefront/internal/http/response"
	"github.com/primefix-storefront/internal/i18n"
	"github.com/primefix-storefront/internal/service"

	"github.com/gin-gonic/gin"
)

// PaymentMethodRequest 选择结算方式
type PaymentMethodRequest struct {
	PaymentMethod string `json:"payment_method" binding:"required"`
}

// PayPalApproveRequest 买家确认 PayPal 付款后回传的订单号
type PayPalApproveRequest struct {
	PayPalOrderID string `json:"paypal_order_id"`
}

// GetCheckout 结算进度、购物车与金额
func (h *Handler) GetCheckout(c *gin.Context) {
	sid, ok := getSessionID(c)
	if !ok {
		return
	}
	view, err := h.CheckoutService.View(c.Request.Context(), sid)
	if err != nil {
		h.respondServiceError(c, err)
		return
	}
	respondCheckoutView(c, view)
}

// SubmitCheckoutDetails 提交收货信息，进入选择支付阶段
func (h *Handler) SubmitCheckoutDetails(c *gin.Context) {
	sid, ok := getSessionID(c)
	if !ok {
		return
	}
	var req checkout.Details
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, response.CodeBadRequest, "error.bad_request", err)
		return
	}
	view, err := h.CheckoutService.SubmitDetails(c.Request.Context(), sid, req)
	if err != nil {
		h.respondServiceError(c, err)
		return
	}
	respondCheckoutView(c, view)
}

// ChoosePaymentMethod 选择结算方式
func (h *Handler) ChoosePaymentMethod(c *gin.Context) {
	sid, ok := getSessionID(c)
	if !ok {
		return
	}
	var req PaymentMethodRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, response.CodeBadRequest, "error.payment_method_invalid", nil)
		return
	}
	view, err := h.CheckoutService.ChoosePayment(c.Request.Context(), sid, checkout.PaymentMethod(req.PaymentMethod))
	if err != nil {
		h.respondServiceError(c, err)
		return
	}
	respondCheckoutView(c, view)
}

// BackCheckout 返回修改收货信息
func (h *Handler) BackCheckout(c *gin.Context) {
	sid, ok := getSessionID(c)
	if !ok {
		return
	}
	view, err := h.CheckoutService.Back(c.Request.Context(), sid)
	if err != nil {
		h.respondServiceError(c, err)
		return
	}
	respondCheckoutView(c, view)
}

// ResetCheckout 重新开始结算
func (h *Handler) ResetCheckout(c *gin.Context) {
	sid, ok := getSessionID(c)
	if !ok {
		return
	}
	view, err := h.CheckoutService.Reset(c.Request.Context(), sid)
	if err != nil {
		h.respondServiceError(c, err)
		return
	}
	respondCheckoutView(c, view)
}

// SubmitCheckout 货到付款下单
func (h *Handler) SubmitCheckout(c *gin.Context) {
	sid, ok := getSessionID(c)
	if !ok {
		return
	}
	result, err := h.CheckoutService.Submit(c.Request.Context(), sid)
	if err != nil {
		h.respondServiceError(c, err)
		return
	}
	response.SuccessWithMsg(c, i18n.T(i18n.ResolveLocale(c), "success.order_placed"), result)
}

// CreatePayPalOrder 创建 PayPal 订单并返回买家确认链接
func (h *Handler) CreatePayPalOrder(c *gin.Context) {
	sid, ok := getSessionID(c)
	if !ok {
		return
	}
	result, err := h.CheckoutService.CreatePayPalOrder(c.Request.Context(), sid)
	if err != nil {
		h.respondServiceError(c, err)
		return
	}
	response.Success(c, result)
}

// ApprovePayPal 捕获 PayPal 付款并下单
func (h *Handler) ApprovePayPal(c *gin.Context) {
	sid, ok := getSessionID(c)
	if !ok {
		return
	}
	var req PayPalApproveRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, response.CodeBadRequest, "error.bad_request", err)
		return
	}
	result, err := h.CheckoutService.ApprovePayPal(c.Request.Context(), sid, req.PayPalOrderID)
	if err != nil {
		h.respondServiceError(c, err)
		return
	}
	response.SuccessWithMsg(c, i18n.T(i18n.ResolveLocale(c), "success.order_placed"), result)
}

// respondCheckoutView 按请求语言渲染失败提示后返回结算视图
func respondCheckoutView(c *gin.Context, view *service.CheckoutView) {
	view.Notice = service.CheckoutNotice(i18n.ResolveLocale(c), view.State)
	response.Success(c, view)
}
