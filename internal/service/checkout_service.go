package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/primefix-storefront/internal/cache"
	"github.com/primefix-storefront/internal/cart"
	"github.com/primefix-storefront/internal/checkout"
	"github.com/primefix-storefront/internal/config"
	"github.com/primefix-storefront/internal/i18n"
	"github.com/primefix-storefront/internal/logger"
	"github.com/primefix-storefront/internal/metrics"
	"github.com/primefix-storefront/internal/models"
	"github.com/primefix-storefront/internal/payment/paypal"
	"github.com/primefix-storefront/internal/queue"
	"github.com/primefix-storefront/internal/upstream"

	"github.com/google/uuid"
)

const (
	defaultSubmitLockTTL  = 30 * time.Second
	defaultCurrency       = "USD"
	paymentProviderPayPal = "paypal"

	noticeOrderFailed     = "error.order_failed"
	noticePaymentFailed   = "error.payment_failed"
	noticePaymentMismatch = "error.payment_mismatch"
)

// CheckoutView 结算页视图，Notice 为按语言渲染的失败提示
type CheckoutView struct {
	State         checkout.State  `json:"state"`
	Notice        string          `json:"notice,omitempty"`
	Items         []cart.LineItem `json:"items"`
	Count         int             `json:"count"`
	Total         models.Money    `json:"total"`
	PayPalEnabled bool            `json:"paypal_enabled"`
}

// CheckoutResult 下单结果
type CheckoutResult struct {
	OrderID string         `json:"order_id"`
	State   checkout.State `json:"state"`
}

// CheckoutService 结算服务
type CheckoutService struct {
	sessions *SessionService
	orders   OrderBackend
	payments PaymentGateway
	queue    *queue.Client
	metrics  *metrics.Metrics
	currency string
	lockTTL  time.Duration

	localMu    sync.Mutex
	localLocks map[string]struct{}
}

// NewCheckoutService 创建结算服务，payments 为 nil 时不提供线上支付
func NewCheckoutService(sessions *SessionService, orders OrderBackend, payments PaymentGateway, queueClient *queue.Client, m *metrics.Metrics, cfg config.CheckoutConfig) *CheckoutService {
	currency := strings.ToUpper(strings.TrimSpace(cfg.Currency))
	if currency == "" {
		currency = defaultCurrency
	}
	lockTTL := defaultSubmitLockTTL
	if cfg.SubmitLockSeconds > 0 {
		lockTTL = time.Duration(cfg.SubmitLockSeconds) * time.Second
	}
	return &CheckoutService{
		sessions:   sessions,
		orders:     orders,
		payments:   payments,
		queue:      queueClient,
		metrics:    m,
		currency:   currency,
		lockTTL:    lockTTL,
		localLocks: make(map[string]struct{}),
	}
}

// View 获取结算进度；details 阶段用登录用户信息补全空白字段
func (s *CheckoutService) View(ctx context.Context, sessionID string) (*CheckoutView, error) {
	sess, err := s.sessions.Load(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	sess.Flow.Prefill(sess.User)
	return s.buildView(sess), nil
}

// SubmitDetails 提交收货信息，进入 payment 阶段
func (s *CheckoutService) SubmitDetails(ctx context.Context, sessionID string, details checkout.Details) (*CheckoutView, error) {
	sess, err := s.sessions.Mutate(ctx, sessionID, func(sess *ShopperSession) error {
		return sess.Flow.SubmitDetails(details, sess.Store.CartCount())
	})
	if err != nil {
		return nil, err
	}
	return s.buildView(sess), nil
}

// ChoosePayment 选择结算方式
func (s *CheckoutService) ChoosePayment(ctx context.Context, sessionID string, method checkout.PaymentMethod) (*CheckoutView, error) {
	if method.IsOnline() && s.payments == nil {
		return nil, ErrPaymentUnavailable
	}
	sess, err := s.sessions.Mutate(ctx, sessionID, func(sess *ShopperSession) error {
		return sess.Flow.ChoosePayment(method)
	})
	if err != nil {
		return nil, err
	}
	return s.buildView(sess), nil
}

// Back 返回修改收货信息
func (s *CheckoutService) Back(ctx context.Context, sessionID string) (*CheckoutView, error) {
	sess, err := s.sessions.Mutate(ctx, sessionID, func(sess *ShopperSession) error {
		return sess.Flow.Back()
	})
	if err != nil {
		return nil, err
	}
	return s.buildView(sess), nil
}

// Reset 重新开始结算
func (s *CheckoutService) Reset(ctx context.Context, sessionID string) (*CheckoutView, error) {
	sess, err := s.sessions.Mutate(ctx, sessionID, func(sess *ShopperSession) error {
		return sess.Flow.Reset()
	})
	if err != nil {
		return nil, err
	}
	return s.buildView(sess), nil
}

// Submit 以货到付款方式下单；线上支付需先走 ApprovePayPal
func (s *CheckoutService) Submit(ctx context.Context, sessionID string) (*CheckoutResult, error) {
	return s.placeOrder(ctx, sessionID, nil)
}

// CreatePayPalOrder 按购物车金额创建 PayPal 订单，返回买家确认链接
func (s *CheckoutService) CreatePayPalOrder(ctx context.Context, sessionID string) (*paypal.CreateResult, error) {
	if s.payments == nil {
		return nil, ErrPaymentUnavailable
	}
	sess, err := s.sessions.Load(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	state := sess.Flow.State()
	if state.Stage != checkout.StagePayment || !state.PaymentMethod.IsOnline() {
		return nil, checkout.ErrInvalidStage
	}
	if state.CapturedPayment != nil {
		return nil, checkout.ErrPaymentCaptured
	}
	if sess.Store.IsEmpty() {
		return nil, checkout.ErrCartEmpty
	}
	amount := sess.Store.Total()
	result, err := s.payments.CreateOrder(ctx, paypal.CreateInput{
		Reference:   state.IdempotencyKey,
		Amount:      amount.String(),
		Currency:    s.currency,
		Description: fmt.Sprintf("%d item(s)", sess.Store.CartCount()),
	})
	if err != nil {
		logger.ForSession(sessionID).Warnw("checkout_paypal_create_failed", "error", err)
		s.metrics.UpstreamError("paypal")
		return nil, fmt.Errorf("%w: %w", ErrPaymentFailed, err)
	}
	if _, err := s.sessions.Mutate(ctx, sessionID, func(sess *ShopperSession) error {
		return sess.Flow.AttachPayPalOrder(result.OrderID, amount)
	}); err != nil {
		return nil, err
	}
	logger.ForSession(sessionID).Infow("checkout_paypal_order_created", "paypal_order_id", result.OrderID, "amount", amount.String())
	return result, nil
}

// ApprovePayPal 捕获买家已确认的 PayPal 订单，成功后附带支付信息下单。
// 扣款结果先写入会话；下单失败后再次调用只重试下单，不会重复扣款
func (s *CheckoutService) ApprovePayPal(ctx context.Context, sessionID, paypalOrderID string) (*CheckoutResult, error) {
	if s.payments == nil {
		return nil, ErrPaymentUnavailable
	}
	paypalOrderID = strings.TrimSpace(paypalOrderID)
	sess, err := s.sessions.Load(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	state := sess.Flow.State()
	if state.Stage != checkout.StagePayment || !state.PaymentMethod.IsOnline() {
		return nil, checkout.ErrInvalidStage
	}
	if paypalOrderID == "" {
		paypalOrderID = state.PayPalOrderID
	}
	if paypalOrderID == "" || (state.PayPalOrderID != "" && state.PayPalOrderID != paypalOrderID) {
		return nil, ErrPaymentMismatch
	}
	log := logger.ForSession(sessionID)

	if captured := state.CapturedPayment; captured != nil {
		if captured.OrderID != paypalOrderID {
			return nil, ErrPaymentMismatch
		}
		log.Infow("checkout_paypal_capture_reused", "paypal_order_id", paypalOrderID, "capture_id", captured.CaptureID)
		return s.placeOrder(ctx, sessionID, captured)
	}
	if state.PayPalAmount != nil && !state.PayPalAmount.Equal(sess.Store.Total().Decimal) {
		log.Warnw("checkout_paypal_amount_changed",
			"paypal_order_id", paypalOrderID,
			"paypal_amount", state.PayPalAmount.String(),
			"cart_total", sess.Store.Total().String(),
		)
		s.recordFailure(ctx, sessionID, noticePaymentMismatch, "")
		return nil, ErrPaymentMismatch
	}

	capture, err := s.payments.CaptureOrder(ctx, paypalOrderID)
	if err == nil && !capture.Completed() {
		err = fmt.Errorf("%w: status %s", paypal.ErrNotCompleted, capture.Status)
	}
	if err != nil {
		log.Warnw("checkout_paypal_capture_failed", "paypal_order_id", paypalOrderID, "error", err)
		s.metrics.CheckoutSubmitted(string(checkout.PaymentMethodPayPal), "payment_failed")
		s.recordFailure(ctx, sessionID, noticePaymentFailed, "")
		return nil, fmt.Errorf("%w: %w", ErrPaymentFailed, err)
	}

	payment := buildPaymentDetails(capture, s.currency)
	if _, err := s.sessions.Mutate(ctx, sessionID, func(sess *ShopperSession) error {
		return sess.Flow.RecordCapture(*payment)
	}); err != nil {
		// 扣款已完成，保存失败时仍继续下单
		log.Errorw("checkout_paypal_capture_persist_failed",
			"paypal_order_id", paypalOrderID,
			"capture_id", payment.CaptureID,
			"error", err,
		)
	}
	return s.placeOrder(ctx, sessionID, payment)
}

// placeOrder 提交订单：会话级提交锁防止重复提交，网络请求在会话锁之外进行
func (s *CheckoutService) placeOrder(ctx context.Context, sessionID string, payment *checkout.PaymentDetails) (*CheckoutResult, error) {
	release, err := s.acquireSubmitLock(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	defer release()

	log := logger.ForSession(sessionID)
	var draft checkout.OrderDraft
	if _, err := s.sessions.Mutate(ctx, sessionID, func(sess *ShopperSession) error {
		var draftErr error
		draft, draftErr = sess.Flow.Draft(orderItemSources(sess.Store.Items()), sess.User, payment)
		return draftErr
	}); err != nil {
		return nil, err
	}
	if payment != nil && !payment.Amount.Equal(draft.Total.Decimal) {
		log.Warnw("checkout_payment_amount_mismatch",
			"paid", payment.Amount.String(),
			"total", draft.Total.String(),
			"paypal_order_id", payment.OrderID,
		)
		s.recordFailure(ctx, sessionID, noticePaymentMismatch, "")
		return nil, ErrPaymentMismatch
	}

	method := string(draft.PaymentMethod)
	orderID, err := s.orders.CreateOrder(ctx, draft, draft.IdempotencyKey)
	if err == nil && strings.TrimSpace(orderID) == "" {
		err = fmt.Errorf("%w: response missing order_id", upstream.ErrTransport)
	}
	if err != nil {
		log.Warnw("checkout_submit_failed",
			"payment_method", method,
			"idempotency_key", draft.IdempotencyKey,
			"error", err,
		)
		if errors.Is(err, upstream.ErrTransport) {
			s.metrics.UpstreamError("transport")
		}
		s.metrics.CheckoutSubmitted(method, "failed")
		s.recordFailure(ctx, sessionID, noticeOrderFailed, upstream.BackendMessage(err))
		return nil, fmt.Errorf("%w: %w", ErrOrderFailed, err)
	}

	updated, err := s.sessions.Mutate(ctx, sessionID, func(sess *ShopperSession) error {
		if confirmErr := sess.Flow.Confirm(orderID); confirmErr != nil {
			log.Warnw("checkout_confirm_stage_changed", "order_id", orderID, "error", confirmErr)
		}
		sess.Store.ClearCart()
		return nil
	})
	if err != nil {
		log.Errorw("checkout_confirm_persist_failed", "order_id", orderID, "error", err)
		return nil, err
	}
	s.metrics.CheckoutSubmitted(method, "success")
	log.Infow("checkout_order_placed",
		"order_id", orderID,
		"payment_method", method,
		"total", draft.Total.String(),
		"items", len(draft.Items),
	)

	if err := s.queue.EnqueueOrderPlaced(ctx, queue.OrderPlacedPayload{
		OrderID:        orderID,
		SessionID:      sessionID,
		UserID:         updated.UserID(),
		PaymentMethod:  method,
		Total:          draft.Total.String(),
		IdempotencyKey: draft.IdempotencyKey,
	}); err != nil {
		log.Warnw("checkout_enqueue_order_placed_failed", "order_id", orderID, "error", err)
	}
	if !s.queue.Enabled() {
		if err := cache.InvalidateOrderHistory(ctx, updated.UserID()); err != nil {
			log.Warnw("checkout_invalidate_order_history_failed", "order_id", orderID, "error", err)
		}
	}
	return &CheckoutResult{OrderID: orderID, State: updated.Flow.State()}, nil
}

// recordFailure 记录失败提示，保持 payment 阶段与购物车不变
func (s *CheckoutService) recordFailure(ctx context.Context, sessionID, key, detail string) {
	if _, err := s.sessions.Mutate(ctx, sessionID, func(sess *ShopperSession) error {
		sess.Flow.Fail(key, detail)
		return nil
	}); err != nil {
		logger.ForSession(sessionID).Warnw("checkout_record_failure_failed", "error", err)
	}
}

// acquireSubmitLock 启用 Redis 时使用分布式锁，否则退回进程内锁
func (s *CheckoutService) acquireSubmitLock(ctx context.Context, sessionID string) (func(), error) {
	token := uuid.NewString()
	ok, err := cache.AcquireSubmitLock(ctx, sessionID, token, s.lockTTL)
	switch {
	case err == nil && ok:
		return func() {
			if err := cache.ReleaseSubmitLock(context.Background(), sessionID, token); err != nil {
				logger.ForSession(sessionID).Warnw("checkout_release_submit_lock_failed", "error", err)
			}
		}, nil
	case err == nil:
		return nil, ErrSubmissionInProgress
	case !errors.Is(err, cache.ErrDisabled):
		logger.ForSession(sessionID).Warnw("checkout_submit_lock_redis_failed", "error", err)
	}

	s.localMu.Lock()
	defer s.localMu.Unlock()
	if _, held := s.localLocks[sessionID]; held {
		return nil, ErrSubmissionInProgress
	}
	s.localLocks[sessionID] = struct{}{}
	return func() {
		s.localMu.Lock()
		delete(s.localLocks, sessionID)
		s.localMu.Unlock()
	}, nil
}

// CheckoutNotice 按语言渲染结算失败提示；下单失败且后端未给出原因时使用通用文案
func CheckoutNotice(locale string, state checkout.State) string {
	switch state.MessageKey {
	case "":
		return state.Message
	case noticeOrderFailed:
		detail := state.Message
		if detail == "" {
			detail = i18n.T(locale, "error.upstream_unavailable")
		}
		return i18n.Sprintf(locale, noticeOrderFailed, detail)
	default:
		return i18n.T(locale, state.MessageKey)
	}
}

func (s *CheckoutService) buildView(sess *ShopperSession) *CheckoutView {
	state := sess.Flow.State()
	return &CheckoutView{
		State:         state,
		Notice:        CheckoutNotice(i18n.DefaultLocale, state),
		Items:         sess.Store.Items(),
		Count:         sess.Store.CartCount(),
		Total:         sess.Store.Total(),
		PayPalEnabled: s.payments != nil,
	}
}

func orderItemSources(items []cart.LineItem) []checkout.OrderItemSource {
	sources := make([]checkout.OrderItemSource, 0, len(items))
	for _, item := range items {
		sources = append(sources, checkout.OrderItemSource{
			ProductID: item.ProductID,
			Name:      item.Name,
			UnitPrice: item.UnitPrice,
			Quantity:  item.Quantity,
			ImageRef:  item.ImageRef,
			BrandName: item.BrandName,
		})
	}
	return sources
}

func buildPaymentDetails(capture *paypal.CaptureResult, fallbackCurrency string) *checkout.PaymentDetails {
	currency := strings.ToUpper(strings.TrimSpace(capture.Currency))
	if currency == "" {
		currency = fallbackCurrency
	}
	paidAt := capture.PaidAt
	if paidAt == nil {
		now := time.Now()
		paidAt = &now
	}
	return &checkout.PaymentDetails{
		Provider:  paymentProviderPayPal,
		OrderID:   capture.OrderID,
		CaptureID: capture.CaptureID,
		Status:    capture.Status,
		Amount:    models.NewMoneyFromString(capture.Amount),
		Currency:  currency,
		PaidAt:    paidAt,
	}
}
