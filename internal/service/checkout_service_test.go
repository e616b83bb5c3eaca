package service

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/primefix-storefront/internal/checkout"
	"github.com/primefix-storefront/internal/config"
	"github.com/primefix-storefront/internal/models"
	"github.com/primefix-storefront/internal/payment/paypal"
	"github.com/primefix-storefront/internal/upstream"
)

type orderBackendStub struct {
	mu      sync.Mutex
	orderID string
	err     error
	calls   int
	drafts  []checkout.OrderDraft
	keys    []string
	entered chan struct{}
	release chan struct{}
}

func (s *orderBackendStub) CreateOrder(_ context.Context, draft interface{}, idempotencyKey string) (string, error) {
	if s.entered != nil {
		s.entered <- struct{}{}
	}
	if s.release != nil {
		<-s.release
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.calls++
	if d, ok := draft.(checkout.OrderDraft); ok {
		s.drafts = append(s.drafts, d)
	}
	s.keys = append(s.keys, idempotencyKey)
	return s.orderID, s.err
}

type paymentGatewayStub struct {
	created    *paypal.CreateResult
	createErr  error
	captured   *paypal.CaptureResult
	captureErr error
	captureIDs []string
}

func (s *paymentGatewayStub) CreateOrder(_ context.Context, input paypal.CreateInput) (*paypal.CreateResult, error) {
	if s.createErr != nil {
		return nil, s.createErr
	}
	return s.created, nil
}

func (s *paymentGatewayStub) CaptureOrder(_ context.Context, orderID string) (*paypal.CaptureResult, error) {
	s.captureIDs = append(s.captureIDs, orderID)
	return s.captured, s.captureErr
}

func validCheckoutDetails() checkout.Details {
	return checkout.Details{
		Email:     "ada@example.com",
		FirstName: "Ada",
		LastName:  "Lovelace",
		Address:   "1 Analytical Way",
		City:      "London",
		ZipCode:   "N1",
		Phone:     "555-0100",
	}
}

type checkoutFixture struct {
	sessions *SessionService
	carts    *CartService
	svc      *CheckoutService
	orders   *orderBackendStub
	sid      string
}

func newCheckoutFixture(t *testing.T, payments PaymentGateway) *checkoutFixture {
	t.Helper()
	sessions := setupSessionService(t)
	orders := &orderBackendStub{orderID: "101"}
	fx := &checkoutFixture{
		sessions: sessions,
		carts:    NewCartService(sessions),
		svc:      NewCheckoutService(sessions, orders, payments, nil, nil, config.CheckoutConfig{Currency: "usd"}),
		orders:   orders,
		sid:      createTestSession(t, sessions),
	}
	return fx
}

// fillAndEnterPayment 两件 10.00 的商品加一件 15.00，然后进入 payment 阶段
func (fx *checkoutFixture) fillAndEnterPayment(t *testing.T) {
	t.Helper()
	ctx := context.Background()
	for _, product := range []models.Product{testProduct(1, "10.00"), testProduct(1, "10.00"), testProduct(2, "15.00")} {
		if _, err := fx.carts.Add(ctx, fx.sid, product); err != nil {
			t.Fatalf("add failed: %v", err)
		}
	}
	view, err := fx.svc.SubmitDetails(ctx, fx.sid, validCheckoutDetails())
	if err != nil {
		t.Fatalf("submit details failed: %v", err)
	}
	if view.State.Stage != checkout.StagePayment {
		t.Fatalf("stage want payment got %s", view.State.Stage)
	}
}

func TestCheckoutSubmitCashOnDeliverySuccess(t *testing.T) {
	fx := newCheckoutFixture(t, nil)
	fx.fillAndEnterPayment(t)
	ctx := context.Background()

	result, err := fx.svc.Submit(ctx, fx.sid)
	if err != nil {
		t.Fatalf("submit failed: %v", err)
	}
	if result.OrderID != "101" || result.State.Stage != checkout.StageConfirmed || result.State.OrderID != "101" {
		t.Fatalf("unexpected result: %+v", result)
	}
	if len(fx.orders.drafts) != 1 {
		t.Fatalf("drafts want 1 got %d", len(fx.orders.drafts))
	}
	draft := fx.orders.drafts[0]
	if draft.Total.String() != "35.00" || len(draft.Items) != 2 || draft.PaymentMethod != checkout.PaymentMethodCOD {
		t.Fatalf("unexpected draft: %+v", draft)
	}
	if draft.IdempotencyKey == "" || fx.orders.keys[0] != draft.IdempotencyKey {
		t.Fatalf("idempotency key must be sent in header and body")
	}
	if draft.PaymentDetails != nil {
		t.Fatalf("cash draft must not carry payment details")
	}

	cartView, err := fx.carts.View(ctx, fx.sid)
	if err != nil {
		t.Fatalf("view cart failed: %v", err)
	}
	if cartView.Count != 0 {
		t.Fatalf("cart should be cleared, count %d", cartView.Count)
	}

	if _, err := fx.svc.Submit(ctx, fx.sid); !errors.Is(err, checkout.ErrInvalidStage) {
		t.Fatalf("submit after confirm want ErrInvalidStage got %v", err)
	}
	view, err := fx.svc.Reset(ctx, fx.sid)
	if err != nil {
		t.Fatalf("reset failed: %v", err)
	}
	if view.State.Stage != checkout.StageDetails || view.State.IdempotencyKey != "" {
		t.Fatalf("reset should return to details with a fresh key: %+v", view.State)
	}
}

func TestCheckoutSubmitFailureKeepsCartAndKey(t *testing.T) {
	fx := newCheckoutFixture(t, nil)
	fx.fillAndEnterPayment(t)
	ctx := context.Background()
	fx.orders.err = &upstream.BackendError{Status: "error", Message: "Out of stock", HTTPStatus: 400}

	_, err := fx.svc.Submit(ctx, fx.sid)
	if !errors.Is(err, ErrOrderFailed) || !errors.Is(err, upstream.ErrBackend) {
		t.Fatalf("want ErrOrderFailed wrapping backend error got %v", err)
	}
	if msg := upstream.BackendMessage(err); msg != "Out of stock" {
		t.Fatalf("backend message want Out of stock got %q", msg)
	}
	view, err := fx.svc.View(ctx, fx.sid)
	if err != nil {
		t.Fatalf("view failed: %v", err)
	}
	if view.State.Stage != checkout.StagePayment || view.State.Message != "Out of stock" {
		t.Fatalf("failure should stay on payment with message: %+v", view.State)
	}
	if view.Notice != "Error placing order: Out of stock" {
		t.Fatalf("notice want backend reason got %q", view.Notice)
	}
	if view.Count != 3 {
		t.Fatalf("cart must be untouched, count %d", view.Count)
	}

	fx.orders.err = nil
	if _, err := fx.svc.Submit(ctx, fx.sid); err != nil {
		t.Fatalf("retry failed: %v", err)
	}
	if len(fx.orders.keys) != 2 || fx.orders.keys[0] != fx.orders.keys[1] {
		t.Fatalf("retry must reuse idempotency key: %v", fx.orders.keys)
	}
}

func TestCheckoutSubmitTransportFailureUsesGenericMessage(t *testing.T) {
	fx := newCheckoutFixture(t, nil)
	fx.fillAndEnterPayment(t)
	fx.orders.err = upstream.ErrTransport

	_, err := fx.svc.Submit(context.Background(), fx.sid)
	if !errors.Is(err, ErrOrderFailed) || !errors.Is(err, upstream.ErrTransport) {
		t.Fatalf("want ErrOrderFailed wrapping transport error got %v", err)
	}
	view, err := fx.svc.View(context.Background(), fx.sid)
	if err != nil {
		t.Fatalf("view failed: %v", err)
	}
	if view.State.Stage != checkout.StagePayment || view.State.MessageKey != "error.order_failed" {
		t.Fatalf("transport failure should stay on payment with a message key: %+v", view.State)
	}
	if view.Notice != "Error placing order: Something went wrong. Please try again." {
		t.Fatalf("notice want generic text got %q", view.Notice)
	}
	if notice := CheckoutNotice("zh-CN", view.State); notice != "下单失败：系统繁忙，请稍后重试" {
		t.Fatalf("zh-CN notice got %q", notice)
	}
}

func TestCheckoutRetryAfterCartChangeUsesNewKey(t *testing.T) {
	fx := newCheckoutFixture(t, nil)
	fx.fillAndEnterPayment(t)
	ctx := context.Background()
	fx.orders.err = upstream.ErrTransport
	if _, err := fx.svc.Submit(ctx, fx.sid); !errors.Is(err, ErrOrderFailed) {
		t.Fatalf("want ErrOrderFailed got %v", err)
	}
	if _, err := fx.carts.Add(ctx, fx.sid, testProduct(3, "4.00")); err != nil {
		t.Fatalf("add failed: %v", err)
	}
	fx.orders.err = nil
	if _, err := fx.svc.Submit(ctx, fx.sid); err != nil {
		t.Fatalf("retry failed: %v", err)
	}
	if len(fx.orders.keys) != 2 || fx.orders.keys[0] == fx.orders.keys[1] {
		t.Fatalf("changed order body must use a new idempotency key: %v", fx.orders.keys)
	}
	if fx.orders.drafts[1].Total.String() != "39.00" {
		t.Fatalf("retry total want 39.00 got %s", fx.orders.drafts[1].Total.String())
	}
}

func TestCheckoutSubmitMissingOrderIDFails(t *testing.T) {
	fx := newCheckoutFixture(t, nil)
	fx.fillAndEnterPayment(t)
	fx.orders.orderID = ""

	if _, err := fx.svc.Submit(context.Background(), fx.sid); !errors.Is(err, ErrOrderFailed) {
		t.Fatalf("want ErrOrderFailed got %v", err)
	}
	view, err := fx.svc.View(context.Background(), fx.sid)
	if err != nil {
		t.Fatalf("view failed: %v", err)
	}
	if view.Count != 3 {
		t.Fatalf("cart must be kept, count %d", view.Count)
	}
}

func TestCheckoutRejectsEmptyCartAndIncompleteDetails(t *testing.T) {
	fx := newCheckoutFixture(t, nil)
	ctx := context.Background()
	if _, err := fx.svc.SubmitDetails(ctx, fx.sid, validCheckoutDetails()); !errors.Is(err, checkout.ErrCartEmpty) {
		t.Fatalf("empty cart want ErrCartEmpty got %v", err)
	}
	if _, err := fx.carts.Add(ctx, fx.sid, testProduct(1, "1.00")); err != nil {
		t.Fatalf("add failed: %v", err)
	}
	details := validCheckoutDetails()
	details.City = "  "
	if _, err := fx.svc.SubmitDetails(ctx, fx.sid, details); !errors.Is(err, checkout.ErrDetailsIncomplete) {
		t.Fatalf("incomplete details want ErrDetailsIncomplete got %v", err)
	}
	if _, err := fx.svc.Submit(ctx, fx.sid); !errors.Is(err, checkout.ErrInvalidStage) {
		t.Fatalf("submit from details want ErrInvalidStage got %v", err)
	}
	if fx.orders.calls != 0 {
		t.Fatalf("backend must not be called, calls %d", fx.orders.calls)
	}
}

func TestCheckoutRejectsConcurrentSubmit(t *testing.T) {
	fx := newCheckoutFixture(t, nil)
	fx.fillAndEnterPayment(t)
	fx.orders.entered = make(chan struct{}, 1)
	fx.orders.release = make(chan struct{})

	done := make(chan error, 1)
	go func() {
		_, err := fx.svc.Submit(context.Background(), fx.sid)
		done <- err
	}()
	select {
	case <-fx.orders.entered:
	case <-time.After(5 * time.Second):
		t.Fatalf("first submit did not reach backend")
	}

	if _, err := fx.svc.Submit(context.Background(), fx.sid); !errors.Is(err, ErrSubmissionInProgress) {
		t.Fatalf("second submit want ErrSubmissionInProgress got %v", err)
	}
	close(fx.orders.release)
	if err := <-done; err != nil {
		t.Fatalf("first submit failed: %v", err)
	}
	if fx.orders.calls != 1 {
		t.Fatalf("backend calls want 1 got %d", fx.orders.calls)
	}
}

func TestCheckoutOnlinePaymentUnavailable(t *testing.T) {
	fx := newCheckoutFixture(t, nil)
	fx.fillAndEnterPayment(t)
	ctx := context.Background()
	if _, err := fx.svc.ChoosePayment(ctx, fx.sid, checkout.PaymentMethodPayPal); !errors.Is(err, ErrPaymentUnavailable) {
		t.Fatalf("want ErrPaymentUnavailable got %v", err)
	}
	if _, err := fx.svc.CreatePayPalOrder(ctx, fx.sid); !errors.Is(err, ErrPaymentUnavailable) {
		t.Fatalf("want ErrPaymentUnavailable got %v", err)
	}
	if _, err := fx.svc.ChoosePayment(ctx, fx.sid, checkout.PaymentMethod("bitcoin")); !errors.Is(err, checkout.ErrPaymentMethodInvalid) {
		t.Fatalf("want ErrPaymentMethodInvalid got %v", err)
	}
}

func TestCheckoutPayPalFlow(t *testing.T) {
	paidAt := time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC)
	gateway := &paymentGatewayStub{
		created: &paypal.CreateResult{OrderID: "PP-1", ApprovalURL: "https://paypal.test/approve", Status: "CREATED"},
		captured: &paypal.CaptureResult{
			OrderID:   "PP-1",
			CaptureID: "CAP-1",
			Status:    "COMPLETED",
			Amount:    "35.00",
			Currency:  "USD",
			PaidAt:    &paidAt,
		},
	}
	fx := newCheckoutFixture(t, gateway)
	fx.fillAndEnterPayment(t)
	ctx := context.Background()

	if _, err := fx.svc.ChoosePayment(ctx, fx.sid, checkout.PaymentMethodPayPal); err != nil {
		t.Fatalf("choose paypal failed: %v", err)
	}
	if _, err := fx.svc.Submit(ctx, fx.sid); !errors.Is(err, checkout.ErrPaymentRequired) {
		t.Fatalf("paypal submit without capture want ErrPaymentRequired got %v", err)
	}
	created, err := fx.svc.CreatePayPalOrder(ctx, fx.sid)
	if err != nil {
		t.Fatalf("create paypal order failed: %v", err)
	}
	if created.OrderID != "PP-1" {
		t.Fatalf("paypal order want PP-1 got %s", created.OrderID)
	}
	if _, err := fx.svc.ApprovePayPal(ctx, fx.sid, "PP-other"); !errors.Is(err, ErrPaymentMismatch) {
		t.Fatalf("mismatched order want ErrPaymentMismatch got %v", err)
	}

	result, err := fx.svc.ApprovePayPal(ctx, fx.sid, "PP-1")
	if err != nil {
		t.Fatalf("approve failed: %v", err)
	}
	if result.State.Stage != checkout.StageConfirmed {
		t.Fatalf("stage want confirmed got %s", result.State.Stage)
	}
	draft := fx.orders.drafts[0]
	if draft.PaymentDetails == nil {
		t.Fatalf("paypal draft must carry payment details")
	}
	if draft.PaymentDetails.Provider != "paypal" || draft.PaymentDetails.CaptureID != "CAP-1" || draft.PaymentDetails.Amount.String() != "35.00" {
		t.Fatalf("unexpected payment details: %+v", draft.PaymentDetails)
	}
	if len(gateway.captureIDs) != 1 || gateway.captureIDs[0] != "PP-1" {
		t.Fatalf("unexpected capture calls: %v", gateway.captureIDs)
	}
}

func TestCheckoutPayPalCaptureNotCompleted(t *testing.T) {
	gateway := &paymentGatewayStub{
		created:  &paypal.CreateResult{OrderID: "PP-2", ApprovalURL: "https://paypal.test/approve"},
		captured: &paypal.CaptureResult{OrderID: "PP-2", Status: "PENDING"},
	}
	fx := newCheckoutFixture(t, gateway)
	fx.fillAndEnterPayment(t)
	ctx := context.Background()
	if _, err := fx.svc.ChoosePayment(ctx, fx.sid, checkout.PaymentMethodPayPal); err != nil {
		t.Fatalf("choose paypal failed: %v", err)
	}
	if _, err := fx.svc.CreatePayPalOrder(ctx, fx.sid); err != nil {
		t.Fatalf("create paypal order failed: %v", err)
	}
	_, err := fx.svc.ApprovePayPal(ctx, fx.sid, "")
	if !errors.Is(err, ErrPaymentFailed) || !errors.Is(err, paypal.ErrNotCompleted) {
		t.Fatalf("want ErrPaymentFailed wrapping ErrNotCompleted got %v", err)
	}
	if fx.orders.calls != 0 {
		t.Fatalf("order must not be placed when capture is incomplete")
	}
	view, err := fx.svc.View(ctx, fx.sid)
	if err != nil {
		t.Fatalf("view failed: %v", err)
	}
	if view.State.Stage != checkout.StagePayment || view.Count != 3 {
		t.Fatalf("failed payment must keep payment stage and cart: %+v", view)
	}
}

func TestCheckoutViewPrefillsFromUser(t *testing.T) {
	fx := newCheckoutFixture(t, nil)
	if _, err := fx.sessions.Mutate(context.Background(), fx.sid, func(sess *ShopperSession) error {
		sess.User = &models.UserRecord{ID: 3, Name: "Grace Hopper", Email: "grace@example.com"}
		return nil
	}); err != nil {
		t.Fatalf("mutate failed: %v", err)
	}
	view, err := fx.svc.View(context.Background(), fx.sid)
	if err != nil {
		t.Fatalf("view failed: %v", err)
	}
	details := view.State.Details
	if details.Email != "grace@example.com" || details.FirstName != "Grace" || details.LastName != "Hopper" {
		t.Fatalf("unexpected prefill: %+v", details)
	}
	if view.PayPalEnabled {
		t.Fatalf("paypal should be disabled without gateway")
	}
}

func newPayPalGateway(orderID, amount string) *paymentGatewayStub {
	return &paymentGatewayStub{
		created: &paypal.CreateResult{OrderID: orderID, ApprovalURL: "https://paypal.test/approve", Status: "CREATED"},
		captured: &paypal.CaptureResult{
			OrderID:   orderID,
			CaptureID: "CAP-" + orderID,
			Status:    "COMPLETED",
			Amount:    amount,
			Currency:  "USD",
		},
	}
}

func (fx *checkoutFixture) startPayPal(t *testing.T) {
	t.Helper()
	ctx := context.Background()
	if _, err := fx.svc.ChoosePayment(ctx, fx.sid, checkout.PaymentMethodPayPal); err != nil {
		t.Fatalf("choose paypal failed: %v", err)
	}
	if _, err := fx.svc.CreatePayPalOrder(ctx, fx.sid); err != nil {
		t.Fatalf("create paypal order failed: %v", err)
	}
}

func TestCheckoutPayPalRetryReusesCapture(t *testing.T) {
	gateway := newPayPalGateway("PP-1", "35.00")
	fx := newCheckoutFixture(t, gateway)
	fx.fillAndEnterPayment(t)
	fx.startPayPal(t)
	ctx := context.Background()

	fx.orders.err = upstream.ErrTransport
	if _, err := fx.svc.ApprovePayPal(ctx, fx.sid, "PP-1"); !errors.Is(err, ErrOrderFailed) {
		t.Fatalf("want ErrOrderFailed got %v", err)
	}
	view, err := fx.svc.View(ctx, fx.sid)
	if err != nil {
		t.Fatalf("view failed: %v", err)
	}
	if view.State.Stage != checkout.StagePayment || view.State.CapturedPayment == nil || view.State.CapturedPayment.CaptureID != "CAP-PP-1" {
		t.Fatalf("captured payment should be kept on payment stage: %+v", view.State)
	}
	if _, err := fx.svc.ChoosePayment(ctx, fx.sid, checkout.PaymentMethodCOD); !errors.Is(err, checkout.ErrPaymentCaptured) {
		t.Fatalf("switching to cod after capture want ErrPaymentCaptured got %v", err)
	}

	// 再次扣款会被 PayPal 拒绝
	gateway.captureErr = errors.New("ORDER_ALREADY_CAPTURED")
	fx.orders.err = nil
	result, err := fx.svc.ApprovePayPal(ctx, fx.sid, "PP-1")
	if err != nil {
		t.Fatalf("retry failed: %v", err)
	}
	if result.State.Stage != checkout.StageConfirmed || result.State.CapturedPayment != nil {
		t.Fatalf("unexpected state after retry: %+v", result.State)
	}
	if len(gateway.captureIDs) != 1 {
		t.Fatalf("captures want 1 got %d", len(gateway.captureIDs))
	}
	if fx.orders.calls != 2 || fx.orders.keys[0] != fx.orders.keys[1] {
		t.Fatalf("orders want 2 with the same key got %d %v", fx.orders.calls, fx.orders.keys)
	}
	if details := fx.orders.drafts[1].PaymentDetails; details == nil || details.CaptureID != "CAP-PP-1" {
		t.Fatalf("retry must carry the stored capture: %+v", details)
	}
}

func TestCheckoutPayPalRejectsCartChangedBeforeCapture(t *testing.T) {
	gateway := newPayPalGateway("PP-1", "35.00")
	fx := newCheckoutFixture(t, gateway)
	fx.fillAndEnterPayment(t)
	fx.startPayPal(t)
	ctx := context.Background()

	if _, err := fx.carts.Add(ctx, fx.sid, testProduct(9, "500.00")); err != nil {
		t.Fatalf("add failed: %v", err)
	}
	if _, err := fx.svc.ApprovePayPal(ctx, fx.sid, "PP-1"); !errors.Is(err, ErrPaymentMismatch) {
		t.Fatalf("want ErrPaymentMismatch got %v", err)
	}
	if len(gateway.captureIDs) != 0 || fx.orders.calls != 0 {
		t.Fatalf("nothing should be captured or ordered, captures %d orders %d", len(gateway.captureIDs), fx.orders.calls)
	}
	view, err := fx.svc.View(ctx, fx.sid)
	if err != nil {
		t.Fatalf("view failed: %v", err)
	}
	if view.Notice != "Your cart no longer matches the approved payment" {
		t.Fatalf("unexpected notice %q", view.Notice)
	}

	// 新建 PayPal 订单后按新金额继续
	gateway.created = &paypal.CreateResult{OrderID: "PP-2", ApprovalURL: "https://paypal.test/approve"}
	gateway.captured = &paypal.CaptureResult{OrderID: "PP-2", CaptureID: "CAP-2", Status: "COMPLETED", Amount: "535.00", Currency: "USD"}
	if _, err := fx.svc.CreatePayPalOrder(ctx, fx.sid); err != nil {
		t.Fatalf("create paypal order failed: %v", err)
	}
	result, err := fx.svc.ApprovePayPal(ctx, fx.sid, "PP-2")
	if err != nil {
		t.Fatalf("approve failed: %v", err)
	}
	if result.State.Stage != checkout.StageConfirmed || fx.orders.drafts[0].Total.String() != "535.00" {
		t.Fatalf("unexpected result %+v total %s", result.State, fx.orders.drafts[0].Total.String())
	}
}

func TestCheckoutPayPalRejectsCartChangedAfterCapture(t *testing.T) {
	gateway := newPayPalGateway("PP-1", "35.00")
	fx := newCheckoutFixture(t, gateway)
	fx.fillAndEnterPayment(t)
	fx.startPayPal(t)
	ctx := context.Background()

	fx.orders.err = upstream.ErrTransport
	if _, err := fx.svc.ApprovePayPal(ctx, fx.sid, "PP-1"); !errors.Is(err, ErrOrderFailed) {
		t.Fatalf("want ErrOrderFailed got %v", err)
	}
	if _, err := fx.carts.Add(ctx, fx.sid, testProduct(9, "500.00")); err != nil {
		t.Fatalf("add failed: %v", err)
	}
	fx.orders.err = nil
	if _, err := fx.svc.ApprovePayPal(ctx, fx.sid, "PP-1"); !errors.Is(err, ErrPaymentMismatch) {
		t.Fatalf("want ErrPaymentMismatch got %v", err)
	}
	if fx.orders.calls != 1 {
		t.Fatalf("mismatched order must not reach the backend, calls %d", fx.orders.calls)
	}
	if _, err := fx.svc.CreatePayPalOrder(ctx, fx.sid); !errors.Is(err, checkout.ErrPaymentCaptured) {
		t.Fatalf("new paypal order after capture want ErrPaymentCaptured got %v", err)
	}

	if _, err := fx.carts.Remove(ctx, fx.sid, 9); err != nil {
		t.Fatalf("remove failed: %v", err)
	}
	result, err := fx.svc.ApprovePayPal(ctx, fx.sid, "PP-1")
	if err != nil {
		t.Fatalf("approve after restoring cart failed: %v", err)
	}
	if result.State.Stage != checkout.StageConfirmed || len(gateway.captureIDs) != 1 {
		t.Fatalf("unexpected result %+v captures %d", result.State, len(gateway.captureIDs))
	}
}
