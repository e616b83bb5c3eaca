package service

import (
	"context"
	"errors"
	"testing"

	"github.com/primefix-storefront/internal/config"
	"github.com/primefix-storefront/internal/models"
	"github.com/primefix-storefront/internal/upstream"
)

type accountBackendStub struct {
	user        *models.UserRecord
	loginErr    error
	registerMsg string
	registerErr error
	updated     *models.UserRecord
	updateErr   error
	updates     []interface{}
	orders      []models.OrderSummary
	orderCalls  int
}

func (s *accountBackendStub) Login(context.Context, string, string) (*models.UserRecord, error) {
	return s.user, s.loginErr
}

func (s *accountBackendStub) Register(context.Context, upstream.RegisterInput) (string, error) {
	return s.registerMsg, s.registerErr
}

func (s *accountBackendStub) UpdateUser(_ context.Context, _ uint, fields interface{}) (*models.UserRecord, error) {
	s.updates = append(s.updates, fields)
	return s.updated, s.updateErr
}

func (s *accountBackendStub) ListOrders(context.Context, uint) ([]models.OrderSummary, error) {
	s.orderCalls++
	return s.orders, nil
}

func newTestAccountService(t *testing.T, backend *accountBackendStub) (*AccountService, string) {
	t.Helper()
	sessions := setupSessionService(t)
	svc := NewAccountService(sessions, backend, NewCaptchaService(config.CaptchaConfig{}), config.CatalogConfig{})
	return svc, createTestSession(t, sessions)
}

func TestAccountLoginStoresShopper(t *testing.T) {
	backend := &accountBackendStub{user: &models.UserRecord{ID: 5, Name: "Ada Lovelace", Email: "ada@example.com"}}
	svc, sid := newTestAccountService(t, backend)
	ctx := context.Background()

	if _, err := svc.Me(ctx, sid); !errors.Is(err, ErrLoginRequired) {
		t.Fatalf("guest want ErrLoginRequired got %v", err)
	}
	user, err := svc.Login(ctx, sid, " ada@example.com ", "secret")
	if err != nil {
		t.Fatalf("login failed: %v", err)
	}
	if user.ID != 5 {
		t.Fatalf("user id want 5 got %d", user.ID)
	}
	me, err := svc.Me(ctx, sid)
	if err != nil {
		t.Fatalf("me failed: %v", err)
	}
	if me.Email != "ada@example.com" {
		t.Fatalf("unexpected stored user: %+v", me)
	}

	if err := svc.Logout(ctx, sid); err != nil {
		t.Fatalf("logout failed: %v", err)
	}
	if _, err := svc.Me(ctx, sid); !errors.Is(err, ErrLoginRequired) {
		t.Fatalf("after logout want ErrLoginRequired got %v", err)
	}
}

func TestAccountLoginRejectsAdmin(t *testing.T) {
	backend := &accountBackendStub{user: &models.UserRecord{ID: 1, Name: "Root", Role: "Admin"}}
	svc, sid := newTestAccountService(t, backend)
	if _, err := svc.Login(context.Background(), sid, "root", "pw"); !errors.Is(err, ErrAdminNotShopper) {
		t.Fatalf("want ErrAdminNotShopper got %v", err)
	}
	if _, err := svc.Me(context.Background(), sid); !errors.Is(err, ErrLoginRequired) {
		t.Fatalf("admin must not be stored, got %v", err)
	}
}

func TestAccountLoginFailures(t *testing.T) {
	backend := &accountBackendStub{loginErr: &upstream.BackendError{Status: "error", Message: "Invalid credentials"}}
	svc, sid := newTestAccountService(t, backend)
	ctx := context.Background()

	if _, err := svc.Login(ctx, sid, "", "pw"); !errors.Is(err, ErrIdentityRequired) {
		t.Fatalf("want ErrIdentityRequired got %v", err)
	}
	if _, err := svc.Login(ctx, sid, "ada", ""); !errors.Is(err, ErrPasswordRequired) {
		t.Fatalf("want ErrPasswordRequired got %v", err)
	}
	_, err := svc.Login(ctx, sid, "ada", "pw")
	if !errors.Is(err, ErrLoginFailed) || upstream.BackendMessage(err) != "Invalid credentials" {
		t.Fatalf("want ErrLoginFailed with backend message got %v", err)
	}

	backend.loginErr = upstream.ErrTransport
	_, err = svc.Login(ctx, sid, "ada", "pw")
	if errors.Is(err, ErrLoginFailed) || !errors.Is(err, upstream.ErrTransport) {
		t.Fatalf("transport failure should not be a login failure, got %v", err)
	}
}

func TestAccountRegister(t *testing.T) {
	backend := &accountBackendStub{registerMsg: "Account created"}
	svc, _ := newTestAccountService(t, backend)
	ctx := context.Background()

	if _, err := svc.Register(ctx, RegisterRequest{Password: "pw"}); !errors.Is(err, ErrEmailRequired) {
		t.Fatalf("want ErrEmailRequired got %v", err)
	}
	msg, err := svc.Register(ctx, RegisterRequest{Name: "Ada", Email: "ada@example.com", Password: "pw"})
	if err != nil {
		t.Fatalf("register failed: %v", err)
	}
	if msg != "Account created" {
		t.Fatalf("message want Account created got %s", msg)
	}

	backend.registerErr = &upstream.BackendError{Status: "error", Message: "Email taken"}
	_, err = svc.Register(ctx, RegisterRequest{Email: "ada@example.com", Password: "pw"})
	if !errors.Is(err, ErrRegisterFailed) || upstream.BackendMessage(err) != "Email taken" {
		t.Fatalf("want ErrRegisterFailed with backend message got %v", err)
	}
}

func TestAccountChangePasswordMismatchIsLocal(t *testing.T) {
	backend := &accountBackendStub{user: &models.UserRecord{ID: 5, Name: "Ada"}}
	svc, sid := newTestAccountService(t, backend)
	ctx := context.Background()
	if _, err := svc.Login(ctx, sid, "ada", "pw"); err != nil {
		t.Fatalf("login failed: %v", err)
	}
	if err := svc.ChangePassword(ctx, sid, "new-pass", "other"); !errors.Is(err, ErrPasswordMismatch) {
		t.Fatalf("want ErrPasswordMismatch got %v", err)
	}
	if len(backend.updates) != 0 {
		t.Fatalf("mismatch must not reach backend")
	}
	if err := svc.ChangePassword(ctx, sid, "new-pass", "new-pass"); err != nil {
		t.Fatalf("change password failed: %v", err)
	}
	fields, ok := backend.updates[0].(map[string]string)
	if !ok || fields["password"] != "new-pass" || len(fields) != 1 {
		t.Fatalf("unexpected update payload: %#v", backend.updates[0])
	}
}

func TestAccountUpdateProfileRefreshesSession(t *testing.T) {
	backend := &accountBackendStub{user: &models.UserRecord{ID: 5, Name: "Ada", Email: "ada@example.com"}}
	svc, sid := newTestAccountService(t, backend)
	ctx := context.Background()
	if _, err := svc.Login(ctx, sid, "ada", "pw"); err != nil {
		t.Fatalf("login failed: %v", err)
	}

	updated, err := svc.UpdateProfile(ctx, sid, upstream.ProfileInput{City: " Paris "})
	if err != nil {
		t.Fatalf("update profile failed: %v", err)
	}
	if updated.City != "Paris" || updated.Email != "ada@example.com" {
		t.Fatalf("merged profile unexpected: %+v", updated)
	}

	backend.updated = &models.UserRecord{ID: 5, Name: "Ada L", Email: "ada@example.com", City: "Rome"}
	if _, err := svc.UpdateProfile(ctx, sid, upstream.ProfileInput{Name: "Ada L", City: "Rome"}); err != nil {
		t.Fatalf("update profile failed: %v", err)
	}
	me, err := svc.Me(ctx, sid)
	if err != nil {
		t.Fatalf("me failed: %v", err)
	}
	if me.Name != "Ada L" || me.City != "Rome" {
		t.Fatalf("session user not refreshed: %+v", me)
	}
}

func TestAccountOrdersRequireLogin(t *testing.T) {
	backend := &accountBackendStub{
		user:   &models.UserRecord{ID: 5, Name: "Ada"},
		orders: []models.OrderSummary{{ID: 1, Status: "pending", Total: models.NewMoneyFromString("35")}},
	}
	svc, sid := newTestAccountService(t, backend)
	ctx := context.Background()
	if _, err := svc.Orders(ctx, sid); !errors.Is(err, ErrLoginRequired) {
		t.Fatalf("guest want ErrLoginRequired got %v", err)
	}
	if _, err := svc.Login(ctx, sid, "ada", "pw"); err != nil {
		t.Fatalf("login failed: %v", err)
	}
	orders, err := svc.Orders(ctx, sid)
	if err != nil {
		t.Fatalf("orders failed: %v", err)
	}
	if len(orders) != 1 || orders[0].Total.String() != "35.00" || backend.orderCalls != 1 {
		t.Fatalf("unexpected orders: %+v", orders)
	}
}
