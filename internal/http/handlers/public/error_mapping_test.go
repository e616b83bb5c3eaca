package public

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/primefix-storefront/internal/checkout"
	"github.com/primefix-storefront/internal/http/response"
	"github.com/primefix-storefront/internal/metrics"
	"github.com/primefix-storefront/internal/provider"
	"github.com/primefix-storefront/internal/service"
	"github.com/primefix-storefront/internal/upstream"

	"github.com/gin-gonic/gin"
)

func respondForTest(t *testing.T, err error) response.Response {
	t.Helper()
	gin.SetMode(gin.TestMode)
	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	c.Request = httptest.NewRequest("POST", "/api/v1/checkout/submit", nil)
	c.Request.Header.Set("Accept-Language", "en")

	h := New(&provider.Container{Metrics: metrics.New()})
	h.respondServiceError(c, err)

	var resp response.Response
	if decodeErr := json.Unmarshal(w.Body.Bytes(), &resp); decodeErr != nil {
		t.Fatalf("decode response failed: %v", decodeErr)
	}
	return resp
}

func TestRespondServiceErrorDetailsIncomplete(t *testing.T) {
	err := fmt.Errorf("%w: %s", checkout.ErrDetailsIncomplete, "email,city")
	resp := respondForTest(t, err)
	if resp.StatusCode != response.CodeBadRequest {
		t.Fatalf("status_code want %d got %d", response.CodeBadRequest, resp.StatusCode)
	}
	if resp.Msg != "Please fill in all required fields: email,city" {
		t.Fatalf("unexpected msg %q", resp.Msg)
	}
}

func TestRespondServiceErrorOrderFailedUsesBackendMessage(t *testing.T) {
	backendErr := &upstream.BackendError{Status: "error", Message: "Out of stock", HTTPStatus: 400}
	resp := respondForTest(t, fmt.Errorf("%w: %w", service.ErrOrderFailed, backendErr))
	if resp.StatusCode != response.CodeUnprocessable {
		t.Fatalf("status_code want %d got %d", response.CodeUnprocessable, resp.StatusCode)
	}
	if resp.Msg != "Error placing order: Out of stock" {
		t.Fatalf("unexpected msg %q", resp.Msg)
	}
}

func TestRespondServiceErrorOrderFailedTransport(t *testing.T) {
	resp := respondForTest(t, fmt.Errorf("%w: %w", service.ErrOrderFailed, upstream.ErrTransport))
	if !strings.HasPrefix(resp.Msg, "Error placing order: ") {
		t.Fatalf("unexpected msg %q", resp.Msg)
	}
	if strings.Contains(resp.Msg, "transport") {
		t.Fatalf("transport detail should not leak: %q", resp.Msg)
	}
}

func TestRespondServiceErrorRuleTable(t *testing.T) {
	cases := []struct {
		err  error
		code int
	}{
		{err: checkout.ErrCartEmpty, code: response.CodeBadRequest},
		{err: service.ErrLoginRequired, code: response.CodeUnauthorized},
		{err: service.ErrAdminNotShopper, code: response.CodeForbidden},
		{err: service.ErrSubmissionInProgress, code: response.CodeTooManyRequests},
		{err: upstream.ErrTransport, code: response.CodeBadGateway},
		{err: errors.New("boom"), code: response.CodeInternal},
	}
	for _, tc := range cases {
		resp := respondForTest(t, tc.err)
		if resp.StatusCode != tc.code {
			t.Fatalf("%v: status_code want %d got %d", tc.err, tc.code, resp.StatusCode)
		}
	}
}

func TestRespondServiceErrorBackendRejection(t *testing.T) {
	backendErr := &upstream.BackendError{Status: "error", Message: "Email taken"}
	resp := respondForTest(t, fmt.Errorf("%w: %w", service.ErrRegisterFailed, backendErr))
	if resp.StatusCode != response.CodeUnprocessable || resp.Msg != "Email taken" {
		t.Fatalf("unexpected response %+v", resp)
	}

	resp = respondForTest(t, fmt.Errorf("%w: %w", service.ErrLoginFailed, &upstream.BackendError{Status: "error"}))
	if resp.StatusCode != response.CodeUnprocessable || resp.Msg == "" {
		t.Fatalf("login failure without message should use fallback, got %+v", resp)
	}
}
