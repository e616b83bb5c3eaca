package provider

import (
	"github.com/primefix-storefront/internal/authz"
	"github.com/primefix-storefront/internal/cache"
	"github.com/primefix-storefront/internal/config"
	"github.com/primefix-storefront/internal/logger"
	"github.com/primefix-storefront/internal/metrics"
	"github.com/primefix-storefront/internal/models"
	"github.com/primefix-storefront/internal/payment/paypal"
	"github.com/primefix-storefront/internal/queue"
	"github.com/primefix-storefront/internal/repository"
	"github.com/primefix-storefront/internal/service"
	"github.com/primefix-storefront/internal/upstream"
)

// Container 依赖注入容器
type Container struct {
	Config      *config.Config
	QueueClient *queue.Client
	Metrics     *metrics.Metrics

	// 外部接口
	Upstream *upstream.Client
	PayPal   *paypal.Client

	// Repositories
	SessionRepo repository.SessionRepository

	// Services
	AuthzService     *authz.Service
	SessionService   *service.SessionService
	CatalogService   *service.CatalogService
	SearchService    *service.SearchService
	CartService      *service.CartService
	CheckoutService  *service.CheckoutService
	CaptchaService   *service.CaptchaService
	AccountService   *service.AccountService
	MarketingService *service.MarketingService
}

// NewContainer 初始化容器
func NewContainer(cfg *config.Config) *Container {
	// 初始化缓存
	if err := cache.InitRedis(&cfg.Redis); err != nil {
		logger.Warnw("provider_init_redis_failed", "error", err)
	}

	// 初始化队列客户端
	var queueClient *queue.Client
	if cfg.Queue.Enabled {
		qc, err := queue.NewClient(&cfg.Queue)
		if err != nil {
			logger.Errorw("provider_init_queue_client_failed", "error", err)
		} else {
			queueClient = qc
		}
	}

	c := &Container{
		Config:      cfg,
		QueueClient: queueClient,
		Metrics:     metrics.New(),
		Upstream:    upstream.New(cfg.Upstream, nil),
	}
	c.initPayPal()

	// 1. 初始化 Repositories
	c.initRepositories()

	// 2. 初始化 Services
	c.initServices()

	return c
}

func (c *Container) initPayPal() {
	if !c.Config.PayPal.Enabled {
		return
	}
	client, err := paypal.NewClient(paypal.Config{
		ClientID:     c.Config.PayPal.ClientID,
		ClientSecret: c.Config.PayPal.ClientSecret,
		BaseURL:      c.Config.PayPal.BaseURL,
		ReturnURL:    c.Config.PayPal.ReturnURL,
		CancelURL:    c.Config.PayPal.CancelURL,
		BrandName:    c.Config.PayPal.BrandName,
	}, nil)
	if err != nil {
		// 配置不完整时退化为仅货到付款
		logger.Errorw("provider_init_paypal_failed", "error", err)
		return
	}
	c.PayPal = client
}

func (c *Container) initRepositories() {
	c.SessionRepo = repository.NewSessionRepository(models.DB)
}

func (c *Container) initServices() {
	authzService, err := authz.NewService(models.DB)
	if err != nil {
		logger.Errorw("provider_init_authz_failed", "error", err)
		panic(err)
	}
	c.AuthzService = authzService
	if err := c.AuthzService.BootstrapBuiltinRoles(); err != nil {
		logger.Errorw("provider_bootstrap_builtin_roles_failed", "error", err)
		panic(err)
	}

	var payments service.PaymentGateway
	if c.PayPal != nil {
		payments = c.PayPal
	}

	c.SessionService = service.NewSessionService(c.SessionRepo, c.Config.Session, c.Config.Catalog, c.Config.Search, c.Metrics)
	c.CatalogService = service.NewCatalogService(c.Upstream, c.Config.Catalog)
	c.SearchService = service.NewSearchService(c.SessionService, c.CatalogService, c.Config.Search, c.Metrics)
	c.CartService = service.NewCartService(c.SessionService)
	c.CheckoutService = service.NewCheckoutService(c.SessionService, c.Upstream, payments, c.QueueClient, c.Metrics, c.Config.Checkout)
	c.CaptchaService = service.NewCaptchaService(c.Config.Captcha)
	c.AccountService = service.NewAccountService(c.SessionService, c.Upstream, c.CaptchaService, c.Config.Catalog)
	c.MarketingService = service.NewMarketingService(c.Upstream, c.CaptchaService)
}
