package public

import (
	"context"
	"errors"

	"github.com/primefix-storefront/internal/constants"
	"github.com/primefix-storefront/internal/http/response"

	"github.com/gin-gonic/gin"
)

// SearchSubmitRequest 提交搜索请求
type SearchSubmitRequest struct {
	Query string `json:"query"`
}

// SuggestSearch 搜索联想。被更新查询取代的请求返回 stale=true；
// 匿名请求无法关联前后输入，不做取代判定
func (h *Handler) SuggestSearch(c *gin.Context) {
	sid := c.GetString(constants.ContextKeySessionID)
	result, err := h.SearchService.Suggest(c.Request.Context(), sid, c.Query("q"))
	if err != nil {
		if errors.Is(err, context.Canceled) {
			// 客户端已断开
			c.Abort()
			return
		}
		h.respondServiceError(c, err)
		return
	}
	response.Success(c, result)
}

// SubmitSearch 记录一次搜索并返回最近搜索
func (h *Handler) SubmitSearch(c *gin.Context) {
	sid, ok := getSessionID(c)
	if !ok {
		return
	}
	var req SearchSubmitRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, response.CodeBadRequest, "error.bad_request", err)
		return
	}
	recent, err := h.SearchService.Submit(c.Request.Context(), sid, req.Query)
	if err != nil {
		h.respondServiceError(c, err)
		return
	}
	response.Success(c, gin.H{"query": req.Query, "recent": recent})
}

// RecentSearches 最近搜索，匿名请求返回空列表
func (h *Handler) RecentSearches(c *gin.Context) {
	sid := c.GetString(constants.ContextKeySessionID)
	if sid == "" {
		response.Success(c, gin.H{"recent": []string{}})
		return
	}
	recent, err := h.SearchService.Recent(c.Request.Context(), sid)
	if err != nil {
		h.respondServiceError(c, err)
		return
	}
	response.Success(c, gin.H{"recent": recent})
}
