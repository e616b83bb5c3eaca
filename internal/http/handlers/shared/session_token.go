package shared

import (
	"net/http"
	"time"

	"github.com/primefix-storefront/internal/config"
	"github.com/primefix-storefront/internal/constants"
	"github.com/primefix-storefront/internal/service"

	"github.com/gin-gonic/gin"
)

// WriteSessionToken 通过 Cookie 与响应头下发会话令牌
func WriteSessionToken(c *gin.Context, cfg config.SessionConfig, token *service.SessionToken) {
	if c == nil || token == nil || token.Token == "" {
		return
	}
	maxAge := int(time.Until(token.ExpiresAt).Seconds())
	if maxAge < 0 {
		maxAge = 0
	}
	c.SetSameSite(http.SameSiteLaxMode)
	c.SetCookie(sessionCookieName(cfg), token.Token, maxAge, "/", "", cfg.SecureCookie, true)
	c.Header(constants.HeaderSessionToken, token.Token)
}

func sessionCookieName(cfg config.SessionConfig) string {
	if cfg.CookieName == "" {
		return "pf_session"
	}
	return cfg.CookieName
}

// ReadSessionToken 依次从 Authorization、X-Session-Token 与 Cookie 读取令牌
func ReadSessionToken(c *gin.Context, cfg config.SessionConfig) string {
	if header := c.GetHeader("Authorization"); len(header) > 7 && (header[:7] == "Bearer " || header[:7] == "bearer ") {
		return header[7:]
	}
	if token := c.GetHeader(constants.HeaderSessionToken); token != "" {
		return token
	}
	if token, err := c.Cookie(sessionCookieName(cfg)); err == nil {
		return token
	}
	return ""
}
