package shared

import (
	"github.com/primefix-storefront/internal/constants"
	"github.com/primefix-storefront/internal/http/response"
	"github.com/primefix-storefront/internal/service"

	"github.com/gin-gonic/gin"
)

// SessionID 读取会话中间件写入的会话 ID，缺失时直接返回错误响应。
func SessionID(c *gin.Context) (string, bool) {
	sid := c.GetString(constants.ContextKeySessionID)
	if sid == "" {
		RespondError(c, response.CodeUnauthorized, "error.session_invalid", nil)
		return "", false
	}
	return sid, true
}

// CurrentSession 读取会话中间件加载的会话快照
func CurrentSession(c *gin.Context) *service.ShopperSession {
	value, ok := c.Get(constants.ContextKeySession)
	if !ok {
		return nil
	}
	sess, _ := value.(*service.ShopperSession)
	return sess
}
