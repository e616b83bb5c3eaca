// Package upstream 是商城后端 REST API 的 JSON 客户端。
//
// 后端统一返回 {status, message, data, meta, order_id} 信封；
// status 不为 success 时返回 *BackendError（可用 errors.Is(err, ErrBackend) 判断），
// 网络或解码失败返回 ErrTransport。
package upstream

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/primefix-storefront/internal/config"
	"github.com/primefix-storefront/internal/constants"
	"github.com/primefix-storefront/internal/logger"
)

var (
	ErrTransport = errors.New("upstream transport failed")
	ErrBackend   = errors.New("upstream rejected request")
)

const (
	statusSuccess    = "success"
	defaultTimeout   = 10 * time.Second
	maxResponseBytes = 8 << 20
)

// BackendError 后端返回的业务失败
type BackendError struct {
	Status     string
	Message    string
	HTTPStatus int
}

func (e *BackendError) Error() string {
	if e.Message == "" {
		return fmt.Sprintf("upstream status %q (http %d)", e.Status, e.HTTPStatus)
	}
	return fmt.Sprintf("upstream status %q: %s", e.Status, e.Message)
}

// Unwrap 使 errors.Is(err, ErrBackend) 成立
func (e *BackendError) Unwrap() error {
	return ErrBackend
}

// BackendMessage 提取后端提供的提示信息，没有时返回空串
func BackendMessage(err error) string {
	var backendErr *BackendError
	if errors.As(err, &backendErr) {
		return strings.TrimSpace(backendErr.Message)
	}
	return ""
}

// Meta 分页元信息
type Meta struct {
	Total int64 `json:"total"`
	Page  int   `json:"page,omitempty"`
	Limit int   `json:"limit,omitempty"`
}

// Envelope 后端响应信封
type Envelope struct {
	Status  string          `json:"status"`
	Message string          `json:"message"`
	Data    json.RawMessage `json:"data"`
	Meta    *Meta           `json:"meta,omitempty"`
	OrderID json.RawMessage `json:"order_id,omitempty"`
}

// Succeeded 是否为成功响应
func (e *Envelope) Succeeded() bool {
	return strings.EqualFold(strings.TrimSpace(e.Status), statusSuccess)
}

// OrderIDString order_id 可能为数字或字符串，统一转为字符串
func (e *Envelope) OrderIDString() string {
	raw := bytes.TrimSpace(e.OrderID)
	if len(raw) == 0 || string(raw) == "null" {
		return ""
	}
	if raw[0] == '"' {
		var s string
		if err := json.Unmarshal(raw, &s); err == nil {
			return strings.TrimSpace(s)
		}
		return ""
	}
	return string(raw)
}

// Client 后端 REST 客户端
type Client struct {
	baseURL    string
	httpClient *http.Client
}

// New 按配置创建客户端，httpClient 为空时按 timeout_ms 创建
func New(cfg config.UpstreamConfig, httpClient *http.Client) *Client {
	if httpClient == nil {
		timeout := defaultTimeout
		if cfg.TimeoutMS > 0 {
			timeout = time.Duration(cfg.TimeoutMS) * time.Millisecond
		}
		httpClient = &http.Client{Timeout: timeout}
	}
	return &Client{
		baseURL:    strings.TrimRight(strings.TrimSpace(cfg.BaseURL), "/"),
		httpClient: httpClient,
	}
}

type requestOptions struct {
	query          url.Values
	body           interface{}
	idempotencyKey string
}

// do 发送请求并解析信封；非 success 状态返回 *BackendError
func (c *Client) do(ctx context.Context, method, path string, opts requestOptions) (*Envelope, error) {
	endpoint := c.baseURL + path
	if len(opts.query) > 0 {
		endpoint += "?" + opts.query.Encode()
	}

	var reader io.Reader
	if opts.body != nil {
		payload, err := json.Marshal(opts.body)
		if err != nil {
			return nil, fmt.Errorf("%w: marshal request failed: %v", ErrTransport, err)
		}
		reader = bytes.NewReader(payload)
	}
	req, err := http.NewRequestWithContext(ctx, method, endpoint, reader)
	if err != nil {
		return nil, fmt.Errorf("%w: build request failed: %v", ErrTransport, err)
	}
	req.Header.Set("Accept", "application/json")
	if reader != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if key := strings.TrimSpace(opts.idempotencyKey); key != "" {
		req.Header.Set(constants.HeaderIdempotencyKey, key)
	}

	started := time.Now()
	resp, err := c.httpClient.Do(req)
	if err != nil {
		logger.Warnw("upstream_request_failed",
			"method", method,
			"path", path,
			"error", err,
		)
		return nil, fmt.Errorf("%w: %s %s: %v", ErrTransport, method, path, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
	if err != nil {
		return nil, fmt.Errorf("%w: read response failed: %v", ErrTransport, err)
	}
	logger.Debugw("upstream_request_done",
		"method", method,
		"path", path,
		"http_status", resp.StatusCode,
		"latency_ms", time.Since(started).Milliseconds(),
	)

	var envelope Envelope
	if err := json.Unmarshal(body, &envelope); err != nil {
		logger.Warnw("upstream_response_invalid",
			"method", method,
			"path", path,
			"http_status", resp.StatusCode,
			"error", err,
		)
		return nil, fmt.Errorf("%w: decode response failed: %v", ErrTransport, err)
	}
	if !envelope.Succeeded() {
		return nil, &BackendError{
			Status:     envelope.Status,
			Message:    envelope.Message,
			HTTPStatus: resp.StatusCode,
		}
	}
	return &envelope, nil
}

// decodeData 将信封 data 解码到 target；data 缺失或为 null 时保持零值
func decodeData(envelope *Envelope, target interface{}) error {
	raw := bytes.TrimSpace(envelope.Data)
	if len(raw) == 0 || string(raw) == "null" {
		return nil
	}
	if err := json.Unmarshal(raw, target); err != nil {
		return fmt.Errorf("%w: decode data failed: %v", ErrTransport, err)
	}
	return nil
}
