package queue

import (
	"encoding/json"

	"github.com/primefix-storefront/internal/constants"

	"github.com/hibiken/asynq"
)

const (
	// TaskOrderPlaced 下单成功后的异步处理任务
	TaskOrderPlaced = constants.TaskOrderPlaced
)

// OrderPlacedPayload 下单成功任务载荷
type OrderPlacedPayload struct {
	OrderID        string `json:"order_id"`
	SessionID      string `json:"session_id"`
	UserID         uint   `json:"user_id"`
	PaymentMethod  string `json:"payment_method"`
	Total          string `json:"total"`
	IdempotencyKey string `json:"idempotency_key"`
}

// NewOrderPlacedTask 创建下单成功任务
func NewOrderPlacedTask(payload OrderPlacedPayload) (*asynq.Task, error) {
	body, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}
	return asynq.NewTask(TaskOrderPlaced, body), nil
}

// ParseOrderPlacedPayload 解析下单成功任务载荷
func ParseOrderPlacedPayload(body []byte) (OrderPlacedPayload, error) {
	var payload OrderPlacedPayload
	err := json.Unmarshal(body, &payload)
	return payload, err
}
