package public

import (
	"strings"

	handlershared "github.com/primefix-storefront/internal/http/handlers/shared"
	"github.com/primefix-storefront/internal/http/response"
	"github.com/primefix-storefront/internal/service"

	"github.com/gin-gonic/gin"
)

// GetHome 首页聚合数据
func (h *Handler) GetHome(c *gin.Context) {
	home, err := h.CatalogService.Home(c.Request.Context())
	if err != nil {
		h.respondServiceError(c, err)
		return
	}
	response.Success(c, home)
}

// ListProducts 商品列表
func (h *Handler) ListProducts(c *gin.Context) {
	page, limit := handlershared.ParsePagination(c)
	result, err := h.CatalogService.ListProducts(c.Request.Context(), service.ProductFilter{
		Search:   strings.TrimSpace(c.Query("search")),
		Category: strings.TrimSpace(c.Query("category")),
		Brand:    strings.TrimSpace(c.Query("brand")),
		Sort:     strings.TrimSpace(c.Query("sort")),
		Page:     page,
		Limit:    limit,
	})
	if err != nil {
		h.respondServiceError(c, err)
		return
	}
	response.SuccessWithPage(c, result.Items, response.NewPagination(result.Page, result.Limit, result.Total))
}

// ListCategories 分类树（已过滤排除分类）
func (h *Handler) ListCategories(c *gin.Context) {
	categories, err := h.CatalogService.ListCategories(c.Request.Context())
	if err != nil {
		h.respondServiceError(c, err)
		return
	}
	response.Success(c, categories)
}

// ListFooterCategories 页脚分类
func (h *Handler) ListFooterCategories(c *gin.Context) {
	categories, err := h.CatalogService.FooterCategories(c.Request.Context())
	if err != nil {
		h.respondServiceError(c, err)
		return
	}
	response.Success(c, categories)
}

// ListBrands 品牌列表
func (h *Handler) ListBrands(c *gin.Context) {
	brands, err := h.CatalogService.ListBrands(c.Request.Context())
	if err != nil {
		h.respondServiceError(c, err)
		return
	}
	response.Success(c, brands)
}
