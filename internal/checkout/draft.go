package checkout

import (
	"time"

	"github.com/primefix-storefront/internal/models"
)

// OrderItemSource 草稿行项目来源（购物车行）
type OrderItemSource struct {
	ProductID uint
	Name      string
	UnitPrice models.Money
	Quantity  int
	ImageRef  string
	BrandName string
}

// OrderItem 下单接口中的行项目
type OrderItem struct {
	ID        uint         `json:"id"`
	Name      string       `json:"name"`
	Price     models.Money `json:"price"`
	Quantity  int          `json:"quantity"`
	Image     string       `json:"image,omitempty"`
	BrandName string       `json:"brand_name,omitempty"`
}

// PaymentDetails 线上支付确认信息
type PaymentDetails struct {
	Provider  string       `json:"provider"`
	OrderID   string       `json:"order_id"`
	CaptureID string       `json:"capture_id,omitempty"`
	Status    string       `json:"status"`
	Amount    models.Money `json:"amount"`
	Currency  string       `json:"currency"`
	PaidAt    *time.Time   `json:"paid_at,omitempty"`
}

// OrderDraft 提交到 POST /orders 的订单草稿，仅在提交时组装
type OrderDraft struct {
	Details
	PaymentMethod  PaymentMethod   `json:"paymentMethod"`
	UserID         *uint           `json:"user_id,omitempty"`
	Total          models.Money    `json:"total"`
	Items          []OrderItem     `json:"items"`
	PaymentDetails *PaymentDetails `json:"payment_details"`
	IdempotencyKey string          `json:"idempotency_key"`
}

func buildDraft(state State, sources []OrderItemSource, user *models.UserRecord, payment *PaymentDetails) OrderDraft {
	items := make([]OrderItem, 0, len(sources))
	total := models.Money{}
	for _, source := range sources {
		if source.Quantity <= 0 {
			continue
		}
		items = append(items, OrderItem{
			ID:        source.ProductID,
			Name:      source.Name,
			Price:     source.UnitPrice,
			Quantity:  source.Quantity,
			Image:     source.ImageRef,
			BrandName: source.BrandName,
		})
		total = total.Add(source.UnitPrice.Mul(source.Quantity))
	}
	draft := OrderDraft{
		Details:        state.Details,
		PaymentMethod:  state.PaymentMethod,
		Total:          total,
		Items:          items,
		PaymentDetails: payment,
		IdempotencyKey: state.IdempotencyKey,
	}
	if user != nil && user.ID != 0 {
		id := user.ID
		draft.UserID = &id
	}
	return draft
}
