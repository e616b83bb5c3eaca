// Package paypal 封装结算页使用的 PayPal 订单创建与捕获接口。
package paypal

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"sync"
	"time"
)

var (
	ErrConfigInvalid   = errors.New("paypal config invalid")
	ErrAuthFailed      = errors.New("paypal auth failed")
	ErrRequestFailed   = errors.New("paypal request failed")
	ErrResponseInvalid = errors.New("paypal response invalid")
	ErrNotCompleted    = errors.New("paypal capture not completed")
)

const (
	defaultSandboxBaseURL = "https://api-m.sandbox.paypal.com"
	defaultTimeout        = 12 * time.Second
	tokenRefreshMargin    = time.Minute
)

// Config PayPal 接入配置
type Config struct {
	ClientID     string
	ClientSecret string
	BaseURL      string
	ReturnURL    string
	CancelURL    string
	BrandName    string
}

// CreateInput 创建订单输入
type CreateInput struct {
	Reference   string
	Amount      string
	Currency    string
	Description string
}

// CreateResult 创建订单返回
type CreateResult struct {
	OrderID     string `json:"paypal_order_id"`
	ApprovalURL string `json:"approval_url"`
	Status      string `json:"status"`
}

// CaptureResult 捕获订单返回
type CaptureResult struct {
	OrderID   string
	CaptureID string
	Status    string
	Amount    string
	Currency  string
	PaidAt    *time.Time
}

// Completed 捕获是否成功
func (r *CaptureResult) Completed() bool {
	return r != nil && strings.EqualFold(r.Status, "COMPLETED")
}

// Client PayPal REST 客户端，缓存 access token
type Client struct {
	cfg        Config
	httpClient *http.Client
	now        func() time.Time

	mu          sync.Mutex
	token       string
	tokenExpiry time.Time
}

// NewClient 创建客户端，httpClient 为空时使用默认超时客户端
func NewClient(cfg Config, httpClient *http.Client) (*Client, error) {
	cfg.normalize()
	if err := ValidateConfig(cfg); err != nil {
		return nil, err
	}
	if httpClient == nil {
		httpClient = &http.Client{Timeout: defaultTimeout}
	}
	return &Client{cfg: cfg, httpClient: httpClient, now: time.Now}, nil
}

// ValidateConfig 校验配置
func ValidateConfig(cfg Config) error {
	if cfg.ClientID == "" {
		return fmt.Errorf("%w: client_id is required", ErrConfigInvalid)
	}
	if cfg.ClientSecret == "" {
		return fmt.Errorf("%w: client_secret is required", ErrConfigInvalid)
	}
	for name, raw := range map[string]string{
		"base_url":   cfg.BaseURL,
		"return_url": cfg.ReturnURL,
		"cancel_url": cfg.CancelURL,
	} {
		if raw == "" {
			return fmt.Errorf("%w: %s is required", ErrConfigInvalid, name)
		}
		if _, err := url.ParseRequestURI(raw); err != nil {
			return fmt.Errorf("%w: %s is invalid", ErrConfigInvalid, name)
		}
	}
	return nil
}

// CreateOrder 按购物车金额创建 PayPal 订单并返回买家确认链接
func (c *Client) CreateOrder(ctx context.Context, input CreateInput) (*CreateResult, error) {
	amount := strings.TrimSpace(input.Amount)
	currency := strings.ToUpper(strings.TrimSpace(input.Currency))
	if amount == "" || currency == "" {
		return nil, fmt.Errorf("%w: amount and currency are required", ErrConfigInvalid)
	}
	unit := map[string]interface{}{
		"amount": map[string]string{
			"currency_code": currency,
			"value":         amount,
		},
	}
	if ref := strings.TrimSpace(input.Reference); ref != "" {
		unit["custom_id"] = ref
	}
	if desc := strings.TrimSpace(input.Description); desc != "" {
		unit["description"] = desc
	}
	appCtx := map[string]string{
		"return_url":          c.cfg.ReturnURL,
		"cancel_url":          c.cfg.CancelURL,
		"user_action":         "PAY_NOW",
		"shipping_preference": "NO_SHIPPING",
	}
	if c.cfg.BrandName != "" {
		appCtx["brand_name"] = c.cfg.BrandName
	}
	payload := map[string]interface{}{
		"intent":              "CAPTURE",
		"purchase_units":      []interface{}{unit},
		"application_context": appCtx,
	}

	raw, err := c.call(ctx, http.MethodPost, "/v2/checkout/orders", payload)
	if err != nil {
		return nil, err
	}
	result := &CreateResult{
		OrderID:     strings.TrimSpace(readString(raw, "id")),
		Status:      strings.TrimSpace(readString(raw, "status")),
		ApprovalURL: extractLinkByRel(raw, "approve"),
	}
	if result.OrderID == "" || result.ApprovalURL == "" {
		return nil, fmt.Errorf("%w: missing order id or approve url", ErrResponseInvalid)
	}
	return result, nil
}

// CaptureOrder 捕获买家已确认的订单
func (c *Client) CaptureOrder(ctx context.Context, orderID string) (*CaptureResult, error) {
	orderID = strings.TrimSpace(orderID)
	if orderID == "" {
		return nil, fmt.Errorf("%w: order id is empty", ErrConfigInvalid)
	}
	raw, err := c.call(ctx, http.MethodPost, "/v2/checkout/orders/"+url.PathEscape(orderID)+"/capture", map[string]interface{}{})
	if err != nil {
		return nil, err
	}

	result := &CaptureResult{
		OrderID: strings.TrimSpace(readString(raw, "id")),
		Status:  strings.TrimSpace(readString(raw, "status")),
	}
	if capture, ok := readValue(raw, "purchase_units", "0", "payments", "captures", "0").(map[string]interface{}); ok {
		result.CaptureID = strings.TrimSpace(readString(capture, "id"))
		if status := strings.TrimSpace(readString(capture, "status")); status != "" {
			result.Status = status
		}
		result.Amount = strings.TrimSpace(readString(capture, "amount", "value"))
		result.Currency = strings.TrimSpace(readString(capture, "amount", "currency_code"))
		if rawTime := strings.TrimSpace(readString(capture, "create_time")); rawTime != "" {
			if parsed, err := time.Parse(time.RFC3339, rawTime); err == nil {
				result.PaidAt = &parsed
			}
		}
	}
	if result.OrderID == "" {
		result.OrderID = orderID
	}
	if result.Status == "" {
		return nil, fmt.Errorf("%w: missing capture status", ErrResponseInvalid)
	}
	return result, nil
}

func (c *Client) call(ctx context.Context, method, endpoint string, payload interface{}) (map[string]interface{}, error) {
	token, err := c.accessToken(ctx)
	if err != nil {
		return nil, err
	}
	body, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("%w: marshal request failed", ErrRequestFailed)
	}
	req, err := http.NewRequestWithContext(ctx, method, c.cfg.BaseURL+endpoint, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("%w: build request failed", ErrRequestFailed)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")
	req.Header.Set("Authorization", "Bearer "+token)

	respBody, status, err := c.do(req)
	if err != nil {
		return nil, err
	}
	if status == http.StatusUnauthorized {
		c.resetToken()
	}
	if status < 200 || status >= 300 {
		return nil, fmt.Errorf("%w: %s %s status %d", ErrResponseInvalid, method, endpoint, status)
	}
	var raw map[string]interface{}
	if err := json.Unmarshal(respBody, &raw); err != nil {
		return nil, fmt.Errorf("%w: decode response failed", ErrResponseInvalid)
	}
	return raw, nil
}

func (c *Client) accessToken(ctx context.Context) (string, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.token != "" && c.now().Before(c.tokenExpiry) {
		return c.token, nil
	}

	values := url.Values{}
	values.Set("grant_type", "client_credentials")
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.cfg.BaseURL+"/v1/oauth2/token", strings.NewReader(values.Encode()))
	if err != nil {
		return "", fmt.Errorf("%w: build token request failed", ErrAuthFailed)
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	req.SetBasicAuth(c.cfg.ClientID, c.cfg.ClientSecret)

	body, status, err := c.do(req)
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrAuthFailed, err)
	}
	if status < 200 || status >= 300 {
		return "", fmt.Errorf("%w: token status %d", ErrAuthFailed, status)
	}
	var parsed struct {
		AccessToken string `json:"access_token"`
		ExpiresIn   int64  `json:"expires_in"`
	}
	if err := json.Unmarshal(body, &parsed); err != nil {
		return "", fmt.Errorf("%w: decode token response failed", ErrAuthFailed)
	}
	if strings.TrimSpace(parsed.AccessToken) == "" {
		return "", fmt.Errorf("%w: access_token is empty", ErrAuthFailed)
	}
	c.token = strings.TrimSpace(parsed.AccessToken)
	c.tokenExpiry = c.now().Add(time.Duration(parsed.ExpiresIn)*time.Second - tokenRefreshMargin)
	return c.token, nil
}

func (c *Client) resetToken() {
	c.mu.Lock()
	c.token = ""
	c.mu.Unlock()
}

func (c *Client) do(req *http.Request) ([]byte, int, error) {
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, 0, fmt.Errorf("%w: http request failed", ErrRequestFailed)
	}
	defer resp.Body.Close()
	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, resp.StatusCode, fmt.Errorf("%w: read response failed", ErrRequestFailed)
	}
	return body, resp.StatusCode, nil
}

func (c *Config) normalize() {
	c.ClientID = strings.TrimSpace(c.ClientID)
	c.ClientSecret = strings.TrimSpace(c.ClientSecret)
	c.BaseURL = strings.TrimRight(strings.TrimSpace(c.BaseURL), "/")
	if c.BaseURL == "" {
		c.BaseURL = defaultSandboxBaseURL
	}
	c.ReturnURL = strings.TrimSpace(c.ReturnURL)
	c.CancelURL = strings.TrimSpace(c.CancelURL)
	c.BrandName = strings.TrimSpace(c.BrandName)
}

func extractLinkByRel(raw map[string]interface{}, rel string) string {
	links, ok := raw["links"].([]interface{})
	if !ok {
		return ""
	}
	for _, item := range links {
		link, ok := item.(map[string]interface{})
		if !ok || !strings.EqualFold(strings.TrimSpace(readString(link, "rel")), rel) {
			continue
		}
		if href := strings.TrimSpace(readString(link, "href")); href != "" {
			return href
		}
	}
	return ""
}

func readValue(raw map[string]interface{}, path ...string) interface{} {
	var current interface{} = raw
	for _, seg := range path {
		if idx, err := strconv.Atoi(seg); err == nil {
			arr, ok := current.([]interface{})
			if !ok || idx < 0 || idx >= len(arr) {
				return nil
			}
			current = arr[idx]
			continue
		}
		next, ok := current.(map[string]interface{})
		if !ok {
			return nil
		}
		current = next[seg]
	}
	return current
}

func readString(raw map[string]interface{}, path ...string) string {
	value := readValue(raw, path...)
	if value == nil {
		return ""
	}
	if str, ok := value.(string); ok {
		return str
	}
	return fmt.Sprintf("%v", value)
}
