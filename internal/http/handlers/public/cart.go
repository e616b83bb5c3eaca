package public

import (
	"github.com/primefix-storefront/internal/http/response"
	"github.com/primefix-storefront/internal/models"

	"github.com/gin-gonic/gin"
)

// CartProductRequest 加购/收藏请求，商品数据来自商品列表接口
type CartProductRequest struct {
	Product models.Product `json:"product"`
}

// CartQuantityRequest 修改数量请求
type CartQuantityRequest struct {
	Quantity *int `json:"quantity"`
}

// GetCart 获取购物车
func (h *Handler) GetCart(c *gin.Context) {
	sid, ok := getSessionID(c)
	if !ok {
		return
	}
	view, err := h.CartService.View(c.Request.Context(), sid)
	if err != nil {
		h.respondServiceError(c, err)
		return
	}
	response.Success(c, view)
}

// AddCartItem 加入购物车，已存在时数量加一
func (h *Handler) AddCartItem(c *gin.Context) {
	sid, ok := getSessionID(c)
	if !ok {
		return
	}
	var req CartProductRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, response.CodeBadRequest, "error.product_invalid", err)
		return
	}
	view, err := h.CartService.Add(c.Request.Context(), sid, req.Product)
	if err != nil {
		h.respondServiceError(c, err)
		return
	}
	response.Success(c, view)
}

// UpdateCartItem 修改数量，数量小于 1 时移除
func (h *Handler) UpdateCartItem(c *gin.Context) {
	sid, ok := getSessionID(c)
	if !ok {
		return
	}
	productID, ok := parseProductIDParam(c)
	if !ok {
		return
	}
	var req CartQuantityRequest
	if err := c.ShouldBindJSON(&req); err != nil || req.Quantity == nil {
		respondError(c, response.CodeBadRequest, "error.quantity_invalid", err)
		return
	}
	view, err := h.CartService.UpdateQuantity(c.Request.Context(), sid, productID, *req.Quantity)
	if err != nil {
		h.respondServiceError(c, err)
		return
	}
	response.Success(c, view)
}

// RemoveCartItem 移除购物车项
func (h *Handler) RemoveCartItem(c *gin.Context) {
	sid, ok := getSessionID(c)
	if !ok {
		return
	}
	productID, ok := parseProductIDParam(c)
	if !ok {
		return
	}
	view, err := h.CartService.Remove(c.Request.Context(), sid, productID)
	if err != nil {
		h.respondServiceError(c, err)
		return
	}
	response.Success(c, view)
}

// GetWishlist 收藏夹
func (h *Handler) GetWishlist(c *gin.Context) {
	sid, ok := getSessionID(c)
	if !ok {
		return
	}
	view, err := h.CartService.Wishlist(c.Request.Context(), sid)
	if err != nil {
		h.respondServiceError(c, err)
		return
	}
	response.Success(c, view)
}

// ToggleWishlist 收藏/取消收藏
func (h *Handler) ToggleWishlist(c *gin.Context) {
	sid, ok := getSessionID(c)
	if !ok {
		return
	}
	var req CartProductRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, response.CodeBadRequest, "error.product_invalid", err)
		return
	}
	view, err := h.CartService.ToggleWishlist(c.Request.Context(), sid, req.Product)
	if err != nil {
		h.respondServiceError(c, err)
		return
	}
	response.Success(c, view)
}
