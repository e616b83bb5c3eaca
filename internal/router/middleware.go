package router

import (
	"errors"
	"strconv"
	"strings"
	"time"

	"github.com/primefix-storefront/internal/authz"
	"github.com/primefix-storefront/internal/config"
	"github.com/primefix-storefront/internal/constants"
	handlershared "github.com/primefix-storefront/internal/http/handlers/shared"
	"github.com/primefix-storefront/internal/http/response"
	"github.com/primefix-storefront/internal/logger"
	"github.com/primefix-storefront/internal/metrics"
	"github.com/primefix-storefront/internal/models"
	"github.com/primefix-storefront/internal/service"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// CORSMiddleware 跨域中间件
func CORSMiddleware(cfg config.CORSConfig) gin.HandlerFunc {
	allowedOrigins := cfg.AllowedOrigins
	if len(allowedOrigins) == 0 {
		allowedOrigins = []string{"*"}
	}
	allowedMethods := cfg.AllowedMethods
	if len(allowedMethods) == 0 {
		allowedMethods = []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"}
	}
	allowedHeaders := cfg.AllowedHeaders
	if len(allowedHeaders) == 0 {
		allowedHeaders = []string{
			"Content-Type",
			"Authorization",
			"Accept-Language",
			constants.HeaderRequestID,
			constants.HeaderSessionToken,
		}
	}
	methodsHeader := strings.Join(allowedMethods, ", ")
	headersHeader := strings.Join(allowedHeaders, ", ")

	return func(c *gin.Context) {
		origin := c.GetHeader("Origin")
		allowedOrigin := resolveAllowedOrigin(origin, allowedOrigins, cfg.AllowCredentials)
		if allowedOrigin != "" {
			c.Writer.Header().Set("Access-Control-Allow-Origin", allowedOrigin)
			if allowedOrigin != "*" {
				c.Writer.Header().Add("Vary", "Origin")
			}
		}
		if cfg.AllowCredentials {
			c.Writer.Header().Set("Access-Control-Allow-Credentials", "true")
		}
		c.Writer.Header().Set("Access-Control-Allow-Headers", headersHeader)
		c.Writer.Header().Set("Access-Control-Allow-Methods", methodsHeader)
		// 令牌续期通过响应头下发，浏览器需要能读取
		c.Writer.Header().Set("Access-Control-Expose-Headers", constants.HeaderSessionToken+", "+constants.HeaderRequestID)
		if cfg.MaxAge > 0 {
			c.Writer.Header().Set("Access-Control-Max-Age", strconv.Itoa(cfg.MaxAge))
		}

		if c.Request.Method == "OPTIONS" {
			c.AbortWithStatus(204)
			return
		}

		c.Next()
	}
}

func resolveAllowedOrigin(origin string, allowedOrigins []string, allowCredentials bool) string {
	for _, allowed := range allowedOrigins {
		if allowed == "*" {
			if allowCredentials && origin != "" {
				return origin
			}
			return "*"
		}
	}
	if origin == "" {
		return ""
	}
	for _, allowed := range allowedOrigins {
		if strings.EqualFold(allowed, origin) {
			return origin
		}
	}
	return ""
}

// RequestIDMiddleware 请求 ID 中间件
func RequestIDMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		requestID := strings.TrimSpace(c.GetHeader(constants.HeaderRequestID))
		if requestID == "" {
			requestID = uuid.NewString()
		}
		c.Set(constants.ContextKeyRequestID, requestID)
		c.Writer.Header().Set(constants.HeaderRequestID, requestID)
		c.Next()
	}
}

// LoggerMiddleware 结构化请求日志中间件
func LoggerMiddleware(log *zap.Logger) gin.HandlerFunc {
	if log == nil {
		log = zap.L()
	}
	sugar := log.Sugar()
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		entry := sugar.With(
			"request_id", c.GetString(constants.ContextKeyRequestID),
			"session_id", c.GetString(constants.ContextKeySessionID),
			"method", c.Request.Method,
			"path", c.Request.URL.Path,
			"status", c.Writer.Status(),
			"latency_ms", time.Since(start).Milliseconds(),
			"client_ip", c.ClientIP(),
		)
		if len(c.Errors) > 0 {
			entry.Errorw("request", "errors", c.Errors.String())
			return
		}
		entry.Infow("request")
	}
}

// MetricsMiddleware 记录请求数与耗时，route 使用路由模板避免标签爆炸
func MetricsMiddleware(m *metrics.Metrics) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		m.ObserveRequest(c.Request.Method, c.FullPath(), c.Writer.Status(), time.Since(start))
	}
}

// SessionMiddleware 解析会话令牌并加载已有会话，剩余有效期过半时续期。
// 不创建会话：无令牌或会话失效的请求以匿名身份继续
func SessionMiddleware(sessions *service.SessionService, cfg config.SessionConfig) gin.HandlerFunc {
	return func(c *gin.Context) {
		raw := handlershared.ReadSessionToken(c, cfg)
		if raw == "" {
			c.Next()
			return
		}
		claims, err := sessions.ParseToken(raw)
		if err != nil {
			logger.Debugw("session_token_rejected", "error", err)
			c.Next()
			return
		}
		sess, err := sessions.Load(c.Request.Context(), claims.SessionID)
		switch {
		case err == nil:
			if sessions.NeedsRefresh(claims) {
				refreshSessionToken(c, sessions, cfg, sess.ID)
			}
			setSession(c, sess)
		case errors.Is(err, service.ErrSessionNotFound):
			logger.ForSession(claims.SessionID).Infow("session_expired")
		case errors.Is(err, service.ErrSessionStateBroken):
			logger.ForSession(claims.SessionID).Warnw("session_state_broken", "error", err)
		default:
			handlershared.RespondError(c, response.CodeInternal, "error.internal", err)
			c.Abort()
			return
		}
		c.Next()
	}
}

// RequireSessionMiddleware 读写购物状态的路由使用：请求尚无会话时创建并下发令牌
func RequireSessionMiddleware(sessions *service.SessionService, cfg config.SessionConfig) gin.HandlerFunc {
	return func(c *gin.Context) {
		if handlershared.CurrentSession(c) != nil {
			c.Next()
			return
		}
		sess, token, err := sessions.Create(c.Request.Context())
		if err != nil {
			handlershared.RespondError(c, response.CodeInternal, "error.internal", err)
			c.Abort()
			return
		}
		handlershared.WriteSessionToken(c, cfg, token)
		setSession(c, sess)
		c.Next()
	}
}

func setSession(c *gin.Context, sess *service.ShopperSession) {
	c.Set(constants.ContextKeySessionID, sess.ID)
	c.Set(constants.ContextKeySession, sess)
}

func refreshSessionToken(c *gin.Context, sessions *service.SessionService, cfg config.SessionConfig, sessionID string) {
	token, err := sessions.IssueToken(sessionID)
	if err != nil {
		logger.ForSession(sessionID).Warnw("session_token_refresh_failed", "error", err)
		return
	}
	handlershared.WriteSessionToken(c, cfg, token)
}

// ShopperAuthzMiddleware 按会话用户角色判定店面路由权限
func ShopperAuthzMiddleware(authzService *authz.Service) gin.HandlerFunc {
	return func(c *gin.Context) {
		if authzService == nil {
			logger.Errorw("shopper_authz_service_unavailable")
			handlershared.RespondError(c, response.CodeInternal, "error.internal", nil)
			c.Abort()
			return
		}

		var user *models.UserRecord
		if sess := handlershared.CurrentSession(c); sess != nil {
			user = sess.User
		}
		resource := c.FullPath()
		if strings.TrimSpace(resource) == "" {
			resource = c.Request.URL.Path
		}

		allowed, err := authzService.EnforceUser(user, resource, c.Request.Method)
		if err != nil {
			logger.Errorw("shopper_authz_enforce_failed",
				"method", c.Request.Method,
				"path", c.Request.URL.Path,
				"error", err,
			)
			handlershared.RespondError(c, response.CodeInternal, "error.internal", nil)
			c.Abort()
			return
		}
		if !allowed {
			logger.Warnw("shopper_authz_permission_denied",
				"subject", authz.SubjectForUser(user),
				"method", c.Request.Method,
				"resource", authz.NormalizeObject(resource),
			)
			if user == nil {
				handlershared.RespondError(c, response.CodeUnauthorized, "error.unauthorized", nil)
			} else {
				handlershared.RespondError(c, response.CodeForbidden, "error.forbidden", nil)
			}
			c.Abort()
			return
		}
		c.Next()
	}
}
