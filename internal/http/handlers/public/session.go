package public

import (
	"time"

	handlershared "github.com/primefix-storefront/internal/http/handlers/shared"
	"github.com/primefix-storefront/internal/http/response"
	"github.com/primefix-storefront/internal/models"

	"github.com/gin-gonic/gin"
)

// SessionResponse 会话令牌与概要
type SessionResponse struct {
	Token         string             `json:"token"`
	SessionID     string             `json:"session_id"`
	ExpiresAt     time.Time          `json:"expires_at"`
	CartCount     int                `json:"cart_count"`
	WishlistCount int                `json:"wishlist_count"`
	User          *models.UserRecord `json:"user"`
}

// IssueSession 为当前会话签发新令牌（会话中间件已保证会话存在）
func (h *Handler) IssueSession(c *gin.Context) {
	sid, ok := getSessionID(c)
	if !ok {
		return
	}
	token, err := h.SessionService.IssueToken(sid)
	if err != nil {
		respondError(c, response.CodeInternal, "error.internal", err)
		return
	}
	handlershared.WriteSessionToken(c, h.Config.Session, token)

	resp := SessionResponse{
		Token:     token.Token,
		SessionID: token.SessionID,
		ExpiresAt: token.ExpiresAt,
	}
	if sess := handlershared.CurrentSession(c); sess != nil {
		resp.CartCount = sess.Store.CartCount()
		resp.WishlistCount = sess.Store.WishlistCount()
		resp.User = sess.User
	}
	response.Success(c, resp)
}
