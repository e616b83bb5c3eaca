// Package checkout 实现结算流程的状态机：填写信息 -> 选择支付 -> 已确认。
package checkout

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"sync"

	"github.com/google/uuid"
	"github.com/primefix-storefront/internal/models"
)

// Stage 结算阶段
type Stage string

const (
	StageDetails   Stage = "details"
	StagePayment   Stage = "payment"
	StageConfirmed Stage = "confirmed"
)

// PaymentMethod 结算方式
type PaymentMethod string

const (
	PaymentMethodCOD    PaymentMethod = "cod"
	PaymentMethodPayPal PaymentMethod = "paypal"
)

// Valid 是否为支持的结算方式
func (m PaymentMethod) Valid() bool {
	return m == PaymentMethodCOD || m == PaymentMethodPayPal
}

// IsOnline 是否需要第三方支付确认
func (m PaymentMethod) IsOnline() bool {
	return m == PaymentMethodPayPal
}

var (
	ErrDetailsIncomplete    = errors.New("checkout details incomplete")
	ErrCartEmpty            = errors.New("checkout cart empty")
	ErrInvalidStage         = errors.New("checkout stage invalid")
	ErrPaymentMethodInvalid = errors.New("checkout payment method invalid")
	ErrPaymentRequired      = errors.New("checkout payment confirmation required")
	ErrPaymentCaptured      = errors.New("checkout payment already captured")
)

// State 可序列化的结算进度，随会话快照一起持久化
type State struct {
	Stage          Stage         `json:"stage"`
	Details        Details       `json:"details"`
	PaymentMethod  PaymentMethod `json:"payment_method"`
	IdempotencyKey string        `json:"idempotency_key,omitempty"`
	OrderID        string        `json:"order_id,omitempty"`
	Message        string        `json:"message,omitempty"`
	MessageKey     string        `json:"message_key,omitempty"`
	PayPalOrderID  string        `json:"paypal_order_id,omitempty"`
	PayPalAmount   *models.Money `json:"paypal_amount,omitempty"`
	DraftDigest    string        `json:"draft_digest,omitempty"`

	// CapturedPayment 已扣款但尚未成功下单的支付，重试下单时直接复用
	CapturedPayment *PaymentDetails `json:"captured_payment,omitempty"`
}

// Flow 结算状态机，并发安全
type Flow struct {
	mu     sync.Mutex
	state  State
	newKey func() string
}

// NewFlow 创建处于 details 阶段的结算流程
func NewFlow() *Flow {
	return RestoreFlow(State{})
}

// RestoreFlow 从持久化状态恢复流程，非法阶段回退为 details
func RestoreFlow(state State) *Flow {
	switch state.Stage {
	case StageDetails, StagePayment, StageConfirmed:
	default:
		state.Stage = StageDetails
	}
	if !state.PaymentMethod.Valid() {
		state.PaymentMethod = PaymentMethodCOD
	}
	if state.Stage == StagePayment && state.IdempotencyKey == "" {
		state.IdempotencyKey = uuid.NewString()
	}
	return &Flow{
		state:  state,
		newKey: uuid.NewString,
	}
}

// State 返回当前状态副本
func (f *Flow) State() State {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.state
}

// Stage 当前阶段
func (f *Flow) Stage() Stage {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.state.Stage
}

// Prefill 用登录用户信息补全空白的邮箱与姓名，仅在 details 阶段生效
func (f *Flow) Prefill(user *models.UserRecord) {
	if user == nil {
		return
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.state.Stage != StageDetails {
		return
	}
	first, last := user.SplitName()
	if strings.TrimSpace(f.state.Details.Email) == "" {
		f.state.Details.Email = strings.TrimSpace(user.Email)
	}
	if strings.TrimSpace(f.state.Details.FirstName) == "" {
		f.state.Details.FirstName = first
	}
	if strings.TrimSpace(f.state.Details.LastName) == "" {
		f.state.Details.LastName = last
	}
	if strings.TrimSpace(f.state.Details.Phone) == "" {
		f.state.Details.Phone = strings.TrimSpace(user.Phone)
	}
}

// SubmitDetails 提交收货信息并进入 payment 阶段。
// 首次进入 payment 时生成幂等键；草稿内容变化时由 Draft 轮换
func (f *Flow) SubmitDetails(details Details, cartCount int) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.state.Stage == StageConfirmed {
		return ErrInvalidStage
	}
	if cartCount <= 0 {
		return ErrCartEmpty
	}
	details = details.Normalize()
	if missing := details.Missing(); len(missing) > 0 {
		return fmt.Errorf("%w: %s", ErrDetailsIncomplete, strings.Join(missing, ","))
	}
	f.state.Details = details
	f.state.Stage = StagePayment
	f.clearMessage()
	if f.state.IdempotencyKey == "" {
		f.state.IdempotencyKey = f.newKey()
	}
	return nil
}

// Back 从 payment 返回 details 以修改信息
func (f *Flow) Back() error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.state.Stage != StagePayment {
		return ErrInvalidStage
	}
	f.state.Stage = StageDetails
	return nil
}

// ChoosePayment 选择结算方式
func (f *Flow) ChoosePayment(method PaymentMethod) error {
	method = PaymentMethod(strings.ToLower(strings.TrimSpace(string(method))))
	if !method.Valid() {
		return ErrPaymentMethodInvalid
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.state.Stage == StageConfirmed {
		return ErrInvalidStage
	}
	if f.state.PaymentMethod != method {
		if f.state.CapturedPayment != nil {
			return ErrPaymentCaptured
		}
		f.state.PayPalOrderID = ""
		f.state.PayPalAmount = nil
	}
	f.state.PaymentMethod = method
	return nil
}

// AttachPayPalOrder 记录已创建的 PayPal 订单号及其金额
func (f *Flow) AttachPayPalOrder(orderID string, amount models.Money) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.state.Stage != StagePayment || f.state.PaymentMethod != PaymentMethodPayPal {
		return ErrInvalidStage
	}
	if f.state.CapturedPayment != nil {
		return ErrPaymentCaptured
	}
	f.state.PayPalOrderID = strings.TrimSpace(orderID)
	f.state.PayPalAmount = &amount
	return nil
}

// RecordCapture 记录已完成的扣款，下单成功前一直保留
func (f *Flow) RecordCapture(payment PaymentDetails) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.state.Stage != StagePayment || f.state.PaymentMethod != PaymentMethodPayPal {
		return ErrInvalidStage
	}
	f.state.CapturedPayment = &payment
	return nil
}

// Draft 组装订单草稿。线上支付必须附带支付确认信息。
// 草稿内容与上次提交不同时轮换幂等键，内容相同的重试沿用原键
func (f *Flow) Draft(items []OrderItemSource, user *models.UserRecord, payment *PaymentDetails) (OrderDraft, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.state.Stage != StagePayment {
		return OrderDraft{}, ErrInvalidStage
	}
	if len(items) == 0 {
		return OrderDraft{}, ErrCartEmpty
	}
	if f.state.PaymentMethod.IsOnline() && payment == nil {
		return OrderDraft{}, ErrPaymentRequired
	}
	draft := buildDraft(f.state, items, user, payment)
	digest, err := draftDigest(draft)
	if err != nil {
		return OrderDraft{}, err
	}
	if f.state.DraftDigest != "" && f.state.DraftDigest != digest {
		f.state.IdempotencyKey = f.newKey()
		draft.IdempotencyKey = f.state.IdempotencyKey
	}
	f.state.DraftDigest = digest
	return draft, nil
}

func draftDigest(draft OrderDraft) (string, error) {
	draft.IdempotencyKey = ""
	body, err := json.Marshal(draft)
	if err != nil {
		return "", err
	}
	sum := sha256.Sum256(body)
	return hex.EncodeToString(sum[:]), nil
}

// Confirm 下单成功：进入 confirmed 并记录后端订单号
func (f *Flow) Confirm(orderID string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.state.Stage != StagePayment {
		return ErrInvalidStage
	}
	f.state.Stage = StageConfirmed
	f.state.OrderID = strings.TrimSpace(orderID)
	f.clearMessage()
	f.state.PayPalOrderID = ""
	f.state.PayPalAmount = nil
	f.state.CapturedPayment = nil
	return nil
}

// Fail 下单失败：保持 payment 阶段并记录提示。
// key 为文案 key，detail 为后端返回的原因，可为空
func (f *Flow) Fail(key, detail string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.state.Stage != StagePayment {
		return
	}
	f.state.MessageKey = strings.TrimSpace(key)
	f.state.Message = strings.TrimSpace(detail)
}

func (f *Flow) clearMessage() {
	f.state.Message = ""
	f.state.MessageKey = ""
}

// Reset 重新开始结算，已填写的收货信息保留。
// 存在已扣款未下单的支付时拒绝重置
func (f *Flow) Reset() error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.state.CapturedPayment != nil && f.state.Stage != StageConfirmed {
		return ErrPaymentCaptured
	}
	f.state = State{
		Stage:         StageDetails,
		Details:       f.state.Details,
		PaymentMethod: PaymentMethodCOD,
	}
	return nil
}
