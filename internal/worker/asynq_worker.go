package worker

import (
	"context"

	"github.com/primefix-storefront/internal/cache"
	"github.com/primefix-storefront/internal/logger"
	"github.com/primefix-storefront/internal/provider"
	"github.com/primefix-storefront/internal/queue"

	"github.com/hibiken/asynq"
)

// Consumer 异步任务消费者
type Consumer struct {
	*provider.Container
}

// NewConsumer 创建消费者
func NewConsumer(c *provider.Container) *Consumer {
	return &Consumer{
		Container: c,
	}
}

// Register 注册消费者
func (c *Consumer) Register(mux *asynq.ServeMux) {
	if c == nil || mux == nil {
		logger.Debugw("worker_register_skip_nil", "consumer_nil", c == nil, "mux_nil", mux == nil)
		return
	}
	mux.HandleFunc(queue.TaskOrderPlaced, c.handleOrderPlaced)
}

// handleOrderPlaced 下单成功后清理该用户的订单历史缓存并记录审计日志
func (c *Consumer) handleOrderPlaced(ctx context.Context, task *asynq.Task) error {
	if c == nil || task == nil {
		logger.Debugw("worker_order_placed_skip_nil", "consumer_nil", c == nil, "task_nil", task == nil)
		return nil
	}
	payload, err := queue.ParseOrderPlacedPayload(task.Payload())
	if err != nil {
		logger.Warnw("worker_order_placed_unmarshal_failed", "error", err)
		return err
	}
	if payload.OrderID == "" {
		logger.Debugw("worker_order_placed_skip_invalid_payload", "session_id", payload.SessionID)
		return nil
	}
	log := logger.ForSession(payload.SessionID)
	if payload.UserID != 0 {
		if err := cache.InvalidateOrderHistory(ctx, payload.UserID); err != nil {
			log.Warnw("worker_order_placed_invalidate_history_failed",
				"order_id", payload.OrderID,
				"user_id", payload.UserID,
				"error", err,
			)
			return err
		}
	}
	log.Infow("worker_order_placed",
		"order_id", payload.OrderID,
		"user_id", payload.UserID,
		"payment_method", payload.PaymentMethod,
		"total", payload.Total,
		"idempotency_key", payload.IdempotencyKey,
	)
	return nil
}
