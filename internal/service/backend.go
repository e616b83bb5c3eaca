package service

import (
	"context"

	"github.com/primefix-storefront/internal/models"
	"github.com/primefix-storefront/internal/payment/paypal"
	"github.com/primefix-storefront/internal/upstream"
)

// CatalogBackend 商品目录数据源
type CatalogBackend interface {
	ListCategories(ctx context.Context) ([]models.Category, error)
	ListBrands(ctx context.Context) ([]models.Brand, error)
	ListProducts(ctx context.Context, query upstream.ProductQuery) (models.ProductPage, error)
	SearchProducts(ctx context.Context, search string, limit int) ([]models.Product, error)
}

// AccountBackend 账户相关后端接口
type AccountBackend interface {
	Login(ctx context.Context, identifier, password string) (*models.UserRecord, error)
	Register(ctx context.Context, input upstream.RegisterInput) (string, error)
	UpdateUser(ctx context.Context, userID uint, fields interface{}) (*models.UserRecord, error)
	ListOrders(ctx context.Context, userID uint) ([]models.OrderSummary, error)
}

// OrderBackend 下单接口
type OrderBackend interface {
	CreateOrder(ctx context.Context, draft interface{}, idempotencyKey string) (string, error)
}

// MarketingBackend 订阅与联系表单接口
type MarketingBackend interface {
	Subscribe(ctx context.Context, email string) (string, error)
	SubmitContact(ctx context.Context, input upstream.ContactInput) (string, error)
}

// PaymentGateway 线上支付网关
type PaymentGateway interface {
	CreateOrder(ctx context.Context, input paypal.CreateInput) (*paypal.CreateResult, error)
	CaptureOrder(ctx context.Context, orderID string) (*paypal.CaptureResult, error)
}

var (
	_ CatalogBackend   = (*upstream.Client)(nil)
	_ AccountBackend   = (*upstream.Client)(nil)
	_ OrderBackend     = (*upstream.Client)(nil)
	_ MarketingBackend = (*upstream.Client)(nil)
	_ PaymentGateway   = (*paypal.Client)(nil)
)
