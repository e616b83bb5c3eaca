package shared

import (
	"encoding/json"
	"net/http/httptest"
	"testing"

	"github.com/primefix-storefront/internal/http/response"

	"github.com/gin-gonic/gin"
)

func TestParsePagination(t *testing.T) {
	gin.SetMode(gin.TestMode)
	cases := []struct {
		query     string
		wantPage  int
		wantLimit int
	}{
		{"", 1, 0},
		{"?page=3&limit=20", 3, 20},
		{"?page=-1&limit=5000", 1, 1000},
		{"?page=abc&limit=-4", 1, 0},
	}
	for _, tc := range cases {
		c, _ := gin.CreateTestContext(httptest.NewRecorder())
		c.Request = httptest.NewRequest("GET", "/products"+tc.query, nil)
		page, limit := ParsePagination(c)
		if page != tc.wantPage || limit != tc.wantLimit {
			t.Fatalf("%s want %d/%d got %d/%d", tc.query, tc.wantPage, tc.wantLimit, page, limit)
		}
	}
}

func TestSessionIDMissingResponds(t *testing.T) {
	gin.SetMode(gin.TestMode)
	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	c.Request = httptest.NewRequest("GET", "/cart", nil)

	if _, ok := SessionID(c); ok {
		t.Fatalf("missing session should fail")
	}
	var resp response.Response
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode failed: %v", err)
	}
	if resp.StatusCode != response.CodeUnauthorized {
		t.Fatalf("status code want %d got %d", response.CodeUnauthorized, resp.StatusCode)
	}
}
