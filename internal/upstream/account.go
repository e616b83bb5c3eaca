package upstream

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"github.com/primefix-storefront/internal/models"
)

// RegisterInput 注册参数
type RegisterInput struct {
	Name     string `json:"name"`
	Email    string `json:"email"`
	Password string `json:"password"`
	Phone    string `json:"phone"`
}

// ProfileInput 资料更新参数，空字段不提交
type ProfileInput struct {
	Name    string `json:"name,omitempty"`
	Email   string `json:"email,omitempty"`
	Phone   string `json:"phone,omitempty"`
	Address string `json:"address,omitempty"`
	City    string `json:"city,omitempty"`
	ZipCode string `json:"zip_code,omitempty"`
}

// Login POST /login，type 固定为 user
func (c *Client) Login(ctx context.Context, identifier, password string) (*models.UserRecord, error) {
	envelope, err := c.do(ctx, http.MethodPost, "/login", requestOptions{body: map[string]string{
		"type":       "user",
		"identifier": strings.TrimSpace(identifier),
		"password":   password,
	}})
	if err != nil {
		return nil, err
	}
	var user models.UserRecord
	if err := decodeData(envelope, &user); err != nil {
		return nil, err
	}
	if user.ID == 0 {
		return nil, fmt.Errorf("%w: login response missing user", ErrTransport)
	}
	return &user, nil
}

// Register POST /register，返回后端提示信息
func (c *Client) Register(ctx context.Context, input RegisterInput) (string, error) {
	envelope, err := c.do(ctx, http.MethodPost, "/register", requestOptions{body: input})
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(envelope.Message), nil
}

// UpdateUser PUT /users/{id}，返回更新后的用户记录（后端未返回时为 nil）
func (c *Client) UpdateUser(ctx context.Context, userID uint, fields interface{}) (*models.UserRecord, error) {
	path := "/users/" + url.PathEscape(strconv.FormatUint(uint64(userID), 10))
	envelope, err := c.do(ctx, http.MethodPut, path, requestOptions{body: fields})
	if err != nil {
		return nil, err
	}
	var user models.UserRecord
	if err := decodeData(envelope, &user); err != nil {
		return nil, err
	}
	if user.ID == 0 {
		return nil, nil
	}
	return &user, nil
}

// ListOrders GET /orders?user_id=
func (c *Client) ListOrders(ctx context.Context, userID uint) ([]models.OrderSummary, error) {
	query := url.Values{}
	query.Set("user_id", strconv.FormatUint(uint64(userID), 10))
	envelope, err := c.do(ctx, http.MethodGet, "/orders", requestOptions{query: query})
	if err != nil {
		return nil, err
	}
	orders := make([]models.OrderSummary, 0)
	if err := decodeData(envelope, &orders); err != nil {
		return nil, err
	}
	return orders, nil
}

// CreateOrder POST /orders，幂等键同时放在请求头中。返回后端订单号
func (c *Client) CreateOrder(ctx context.Context, draft interface{}, idempotencyKey string) (string, error) {
	envelope, err := c.do(ctx, http.MethodPost, "/orders", requestOptions{
		body:           draft,
		idempotencyKey: idempotencyKey,
	})
	if err != nil {
		return "", err
	}
	return envelope.OrderIDString(), nil
}
