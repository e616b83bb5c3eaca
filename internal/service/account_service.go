package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/primefix-storefront/internal/cache"
	"github.com/primefix-storefront/internal/config"
	"github.com/primefix-storefront/internal/constants"
	"github.com/primefix-storefront/internal/logger"
	"github.com/primefix-storefront/internal/models"
	"github.com/primefix-storefront/internal/upstream"
)

const defaultOrderHistoryTTL = 2 * time.Minute

// RegisterRequest 注册请求
type RegisterRequest struct {
	Name     string
	Email    string
	Password string
	Phone    string
	Captcha  CaptchaVerifyPayload
}

// AccountService 账户服务：登录、注册、资料与订单历史
type AccountService struct {
	sessions   *SessionService
	backend    AccountBackend
	captcha    *CaptchaService
	historyTTL time.Duration
}

// NewAccountService 创建账户服务
func NewAccountService(sessions *SessionService, backend AccountBackend, captcha *CaptchaService, cfg config.CatalogConfig) *AccountService {
	ttl := defaultOrderHistoryTTL
	if cfg.OrderHistoryCacheTTL > 0 {
		ttl = time.Duration(cfg.OrderHistoryCacheTTL) * time.Second
	}
	return &AccountService{
		sessions:   sessions,
		backend:    backend,
		captcha:    captcha,
		historyTTL: ttl,
	}
}

// Login 登录并把用户记录写入会话；管理员账户不作为购物用户
func (s *AccountService) Login(ctx context.Context, sessionID, identifier, password string) (*models.UserRecord, error) {
	identifier = strings.TrimSpace(identifier)
	if identifier == "" {
		return nil, ErrIdentityRequired
	}
	if password == "" {
		return nil, ErrPasswordRequired
	}
	user, err := s.backend.Login(ctx, identifier, password)
	if err != nil {
		return nil, wrapBackendFailure(ErrLoginFailed, err)
	}
	if !user.IsShopper() {
		logger.ForSession(sessionID).Infow("account_login_rejected_admin", "user_id", user.ID)
		return nil, ErrAdminNotShopper
	}
	if _, err := s.sessions.Mutate(ctx, sessionID, func(sess *ShopperSession) error {
		sess.User = user
		sess.Flow.Prefill(user)
		return nil
	}); err != nil {
		return nil, err
	}
	logger.ForSession(sessionID).Infow("account_login_success", "user_id", user.ID)
	return user, nil
}

// Register 注册账户，返回后端提示信息
func (s *AccountService) Register(ctx context.Context, req RegisterRequest) (string, error) {
	input := upstream.RegisterInput{
		Name:     strings.TrimSpace(req.Name),
		Email:    strings.TrimSpace(req.Email),
		Password: req.Password,
		Phone:    strings.TrimSpace(req.Phone),
	}
	if input.Email == "" {
		return "", ErrEmailRequired
	}
	if input.Password == "" {
		return "", ErrPasswordRequired
	}
	if err := s.captcha.Verify(constants.CaptchaSceneRegister, req.Captcha); err != nil {
		return "", err
	}
	message, err := s.backend.Register(ctx, input)
	if err != nil {
		return "", wrapBackendFailure(ErrRegisterFailed, err)
	}
	return message, nil
}

// Logout 清除会话中的用户记录，购物车保留
func (s *AccountService) Logout(ctx context.Context, sessionID string) error {
	_, err := s.sessions.Mutate(ctx, sessionID, func(sess *ShopperSession) error {
		sess.User = nil
		return nil
	})
	return err
}

// Me 当前登录用户
func (s *AccountService) Me(ctx context.Context, sessionID string) (*models.UserRecord, error) {
	sess, err := s.sessions.Load(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	if sess.User == nil {
		return nil, ErrLoginRequired
	}
	return sess.User, nil
}

// UpdateProfile 更新资料并刷新会话中的用户记录
func (s *AccountService) UpdateProfile(ctx context.Context, sessionID string, input upstream.ProfileInput) (*models.UserRecord, error) {
	current, err := s.Me(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	input = trimProfileInput(input)
	updated, err := s.backend.UpdateUser(ctx, current.ID, input)
	if err != nil {
		return nil, err
	}
	if updated == nil {
		merged := mergeProfile(*current, input)
		updated = &merged
	}
	if _, err := s.sessions.Mutate(ctx, sessionID, func(sess *ShopperSession) error {
		sess.User = updated
		return nil
	}); err != nil {
		return nil, err
	}
	return updated, nil
}

// ChangePassword 修改密码，两次输入不一致时不请求后端
func (s *AccountService) ChangePassword(ctx context.Context, sessionID, password, confirm string) error {
	if password == "" {
		return ErrPasswordRequired
	}
	if password != confirm {
		return ErrPasswordMismatch
	}
	current, err := s.Me(ctx, sessionID)
	if err != nil {
		return err
	}
	_, err = s.backend.UpdateUser(ctx, current.ID, map[string]string{"password": password})
	return err
}

// Orders 订单历史，按用户缓存
func (s *AccountService) Orders(ctx context.Context, sessionID string) ([]models.OrderSummary, error) {
	current, err := s.Me(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	orders, hit, err := cache.GetOrderHistory(ctx, current.ID)
	if err != nil {
		logger.ForSession(sessionID).Warnw("account_order_history_cache_read_failed", "user_id", current.ID, "error", err)
	}
	if hit {
		return orders, nil
	}
	orders, err = s.backend.ListOrders(ctx, current.ID)
	if err != nil {
		return nil, err
	}
	if err := cache.SetOrderHistory(ctx, current.ID, orders, s.historyTTL); err != nil {
		logger.ForSession(sessionID).Warnw("account_order_history_cache_write_failed", "user_id", current.ID, "error", err)
	}
	return orders, nil
}

// wrapBackendFailure 业务失败包装为 sentinel（保留后端信息），网络失败原样返回
func wrapBackendFailure(sentinel error, err error) error {
	if errors.Is(err, upstream.ErrBackend) {
		return fmt.Errorf("%w: %w", sentinel, err)
	}
	return err
}

func trimProfileInput(input upstream.ProfileInput) upstream.ProfileInput {
	return upstream.ProfileInput{
		Name:    strings.TrimSpace(input.Name),
		Email:   strings.TrimSpace(input.Email),
		Phone:   strings.TrimSpace(input.Phone),
		Address: strings.TrimSpace(input.Address),
		City:    strings.TrimSpace(input.City),
		ZipCode: strings.TrimSpace(input.ZipCode),
	}
}

func mergeProfile(user models.UserRecord, input upstream.ProfileInput) models.UserRecord {
	if input.Name != "" {
		user.Name = input.Name
	}
	if input.Email != "" {
		user.Email = input.Email
	}
	if input.Phone != "" {
		user.Phone = input.Phone
	}
	if input.Address != "" {
		user.Address = input.Address
	}
	if input.City != "" {
		user.City = input.City
	}
	if input.ZipCode != "" {
		user.ZipCode = input.ZipCode
	}
	return user
}
