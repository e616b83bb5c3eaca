package models

import "time"

// OrderSummary 用户订单历史条目
type OrderSummary struct {
	ID            uint       `json:"id"`
	OrderNo       string     `json:"order_no,omitempty"`
	Status        string     `json:"status"`
	Total         Money      `json:"total_amount"`
	PaymentMethod string     `json:"payment_method,omitempty"`
	ItemCount     int        `json:"item_count,omitempty"`
	CreatedAt     *time.Time `json:"created_at,omitempty"`
}
