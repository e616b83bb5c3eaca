package shared

import (
	"github.com/primefix-storefront/internal/constants"
	"github.com/primefix-storefront/internal/http/response"
	"github.com/primefix-storefront/internal/i18n"
	"github.com/primefix-storefront/internal/logger"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// RequestLog 提供携带 request_id 与 session_id 的日志实例。
func RequestLog(c *gin.Context) *zap.SugaredLogger {
	if c == nil {
		return logger.S()
	}
	kv := make([]interface{}, 0, 4)
	if id := c.GetString(constants.ContextKeyRequestID); id != "" {
		kv = append(kv, "request_id", id)
	}
	if sid := c.GetString(constants.ContextKeySessionID); sid != "" {
		kv = append(kv, "session_id", sid)
	}
	if len(kv) == 0 {
		return logger.S()
	}
	return logger.SW(kv...)
}

// RespondError 返回国际化错误响应，并在有原始错误时记录日志。
func RespondError(c *gin.Context, code int, key string, err error) {
	RespondErrorWithMsg(c, code, i18n.T(i18n.ResolveLocale(c), key), err)
}

// RespondErrorWithMsg 返回自定义消息错误响应，并在有原始错误时记录日志。
// 5xx 记为 error，业务拒绝记为 warn
func RespondErrorWithMsg(c *gin.Context, code int, msg string, err error) {
	appErr := response.WrapError(code, msg, err)
	if err != nil {
		log := RequestLog(c)
		kv := []interface{}{"code", appErr.Code, "message", appErr.Message, "error", err}
		if appErr.ServerSide() {
			log.Errorw("handler_error", kv...)
		} else {
			log.Warnw("handler_rejected", kv...)
		}
	}
	response.Error(c, appErr.Code, appErr.Message)
}

// RespondSuccessKey 返回带国际化提示的成功响应
func RespondSuccessKey(c *gin.Context, key string, data interface{}) {
	response.SuccessWithMsg(c, i18n.T(i18n.ResolveLocale(c), key), data)
}
