package router

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/primefix-storefront/internal/cache"
	"github.com/primefix-storefront/internal/config"
	publichandlers "github.com/primefix-storefront/internal/http/handlers/public"
	"github.com/primefix-storefront/internal/http/response"
	"github.com/primefix-storefront/internal/logger"
	"github.com/primefix-storefront/internal/provider"

	"github.com/gin-gonic/gin"
)

// SetupRouter 初始化路由
func SetupRouter(cfg *config.Config, c *provider.Container) *gin.Engine {
	log := logger.L
	if log == nil {
		log = logger.Init(cfg.Server.Mode, cfg.Log.ToLoggerOptions())
	}
	r := gin.New()

	h := publichandlers.New(c)
	redisPrefix := strings.TrimSpace(cfg.Redis.Prefix)
	if redisPrefix == "" {
		redisPrefix = "pf"
	}
	redisClient := cache.Client()
	loginRule := RateLimitRule{
		Prefix:        fmt.Sprintf("%s:rate:login", redisPrefix),
		WindowSeconds: cfg.Security.LoginRateLimit.WindowSeconds,
		MaxRequests:   cfg.Security.LoginRateLimit.MaxAttempts,
	}
	formRule := RateLimitRule{
		Prefix:        fmt.Sprintf("%s:rate:form", redisPrefix),
		WindowSeconds: cfg.Security.FormRateLimit.WindowSeconds,
		MaxRequests:   cfg.Security.FormRateLimit.MaxAttempts,
	}
	formLimit := RateLimitMiddleware(redisClient, formRule, KeyByIP)

	// 中间件
	r.Use(gin.Recovery())
	r.Use(RequestIDMiddleware())
	r.Use(LoggerMiddleware(log))
	r.Use(CORSMiddleware(cfg.CORS))
	if cfg.Metrics.Enabled && c.Metrics != nil {
		r.Use(MetricsMiddleware(c.Metrics))
		metricsPath := strings.TrimSpace(cfg.Metrics.Path)
		if metricsPath == "" {
			metricsPath = "/metrics"
		}
		r.GET(metricsPath, gin.WrapH(c.Metrics.Handler()))
	}

	r.GET("/healthz", healthHandler(c))

	apiV1 := r.Group("/api/v1")
	apiV1.Use(SessionMiddleware(c.SessionService, cfg.Session))
	apiV1.Use(ShopperAuthzMiddleware(c.AuthzService))
	{
		// 只读目录与搜索建议不需要会话
		catalog := apiV1.Group("/catalog")
		{
			catalog.GET("/home", h.GetHome)
			catalog.GET("/products", h.ListProducts)
			catalog.GET("/categories", h.ListCategories)
			catalog.GET("/categories/footer", h.ListFooterCategories)
			catalog.GET("/brands", h.ListBrands)
		}
		apiV1.GET("/search/suggest", h.SuggestSearch)
		apiV1.GET("/search/recent", h.RecentSearches)
		apiV1.GET("/captcha/image", h.GetCaptchaImage)
		apiV1.POST("/newsletter", formLimit, h.SubscribeNewsletter)
		apiV1.POST("/contacts", formLimit, h.SubmitContact)

		apiV1.GET("/me", h.GetMe)
		apiV1.PUT("/me/profile", h.UpdateProfile)
		apiV1.PUT("/me/password", h.ChangePassword)
		apiV1.GET("/me/orders", h.ListMyOrders)

		stateful := apiV1.Group("")
		stateful.Use(RequireSessionMiddleware(c.SessionService, cfg.Session))
		{
			stateful.POST("/session", h.IssueSession)
			stateful.POST("/search/submit", h.SubmitSearch)

			stateful.GET("/cart", h.GetCart)
			stateful.POST("/cart/items", h.AddCartItem)
			stateful.PUT("/cart/items/:product_id", h.UpdateCartItem)
			stateful.DELETE("/cart/items/:product_id", h.RemoveCartItem)
			stateful.GET("/wishlist", h.GetWishlist)
			stateful.POST("/wishlist/toggle", h.ToggleWishlist)

			stateful.GET("/checkout", h.GetCheckout)
			checkoutGroup := stateful.Group("/checkout")
			{
				checkoutGroup.POST("/details", h.SubmitCheckoutDetails)
				checkoutGroup.POST("/payment-method", h.ChoosePaymentMethod)
				checkoutGroup.POST("/back", h.BackCheckout)
				checkoutGroup.POST("/reset", h.ResetCheckout)
				checkoutGroup.POST("/submit", h.SubmitCheckout)
				checkoutGroup.POST("/paypal/orders", h.CreatePayPalOrder)
				checkoutGroup.POST("/paypal/approve", h.ApprovePayPal)
			}

			auth := stateful.Group("/auth")
			{
				auth.POST("/login", RateLimitMiddleware(redisClient, loginRule, KeyByIPAndJSONField("identifier")), h.Login)
				auth.POST("/register", formLimit, h.Register)
				auth.POST("/logout", h.Logout)
			}
		}
	}

	return r
}

// healthHandler 存活检查，Redis 不可达时标记为 degraded
func healthHandler(c *provider.Container) gin.HandlerFunc {
	return func(ctx *gin.Context) {
		status := "ok"
		redisStatus := "disabled"
		if cache.Enabled() {
			pingCtx, cancel := context.WithTimeout(ctx.Request.Context(), 2*time.Second)
			err := cache.Ping(pingCtx)
			cancel()
			if err != nil {
				status = "degraded"
				redisStatus = "unreachable"
			} else {
				redisStatus = "ok"
			}
		}
		response.Success(ctx, gin.H{
			"status": status,
			"redis":  redisStatus,
			"queue":  c.QueueClient.Enabled(),
			"paypal": c.PayPal != nil,
		})
	}
}
