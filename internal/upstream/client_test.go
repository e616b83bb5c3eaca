package upstream

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/primefix-storefront/internal/config"
)

func newTestClient(t *testing.T, handler http.HandlerFunc) *Client {
	t.Helper()
	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)
	return New(config.UpstreamConfig{BaseURL: server.URL + "/api/"}, server.Client())
}

func TestListProductsSendsFiltersAndReadsMeta(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/api/products" {
			t.Errorf("unexpected path %s", r.URL.Path)
		}
		q := r.URL.Query()
		if q.Get("category") != "phones" || q.Get("brand") != "acme" || q.Get("sort") != "newest" || q.Get("page") != "2" || q.Get("limit") != "12" {
			t.Errorf("unexpected query %s", r.URL.RawQuery)
		}
		_, _ = w.Write([]byte(`{"status":"success","data":[{"id":1,"name":"P1","price":"9.50","images":"[\"a.png\"]"},{"id":2,"name":"P2","price":3,"images":null}],"meta":{"total":42}}`))
	})
	page, err := client.ListProducts(context.Background(), ProductQuery{Category: "phones", Brand: "acme", Sort: "newest", Page: 2, Limit: 12})
	if err != nil {
		t.Fatalf("list products failed: %v", err)
	}
	if page.Total != 42 || len(page.Items) != 2 {
		t.Fatalf("unexpected page: %+v", page)
	}
	if page.Items[0].Price.String() != "9.50" || page.Items[0].PrimaryImage("ph") != "a.png" {
		t.Fatalf("unexpected first product: %+v", page.Items[0])
	}
	if page.Items[1].PrimaryImage("ph") != "ph" {
		t.Fatalf("missing images should fall back to placeholder")
	}
}

func TestBackendFailureCarriesMessage(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
		_, _ = w.Write([]byte(`{"status":"error","message":"Invalid credentials"}`))
	})
	_, err := client.Login(context.Background(), "jane", "bad")
	if !errors.Is(err, ErrBackend) {
		t.Fatalf("want ErrBackend got %v", err)
	}
	if BackendMessage(err) != "Invalid credentials" {
		t.Fatalf("backend message want Invalid credentials got %q", BackendMessage(err))
	}
}

func TestTransportFailure(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	baseURL := server.URL
	server.Close()
	client := New(config.UpstreamConfig{BaseURL: baseURL}, nil)
	_, err := client.ListCategories(context.Background())
	if !errors.Is(err, ErrTransport) {
		t.Fatalf("want ErrTransport got %v", err)
	}
	if BackendMessage(err) != "" {
		t.Fatalf("transport failures carry no backend message")
	}
}

func TestMalformedBodyIsTransportError(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`<html>gateway timeout</html>`))
	})
	if _, err := client.ListBrands(context.Background()); !errors.Is(err, ErrTransport) {
		t.Fatalf("want ErrTransport got %v", err)
	}
}

func TestLoginSendsUserType(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		var body map[string]string
		_ = json.NewDecoder(r.Body).Decode(&body)
		if body["type"] != "user" || body["identifier"] != "jane@example.com" || body["password"] != "pw" {
			t.Errorf("unexpected login body %v", body)
		}
		_, _ = w.Write([]byte(`{"status":"success","data":{"id":7,"name":"Jane Doe","email":"jane@example.com","role":"customer"}}`))
	})
	user, err := client.Login(context.Background(), " jane@example.com ", "pw")
	if err != nil {
		t.Fatalf("login failed: %v", err)
	}
	if user.ID != 7 || user.Name != "Jane Doe" {
		t.Fatalf("unexpected user %+v", user)
	}
}

func TestCreateOrderSendsIdempotencyKey(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost || r.URL.Path != "/api/orders" {
			t.Errorf("unexpected request %s %s", r.Method, r.URL.Path)
		}
		if r.Header.Get("Idempotency-Key") != "key-1" {
			t.Errorf("missing idempotency header")
		}
		_, _ = w.Write([]byte(`{"status":"success","order_id":1024}`))
	})
	orderID, err := client.CreateOrder(context.Background(), map[string]string{"idempotency_key": "key-1"}, "key-1")
	if err != nil {
		t.Fatalf("create order failed: %v", err)
	}
	if orderID != "1024" {
		t.Fatalf("order id want 1024 got %s", orderID)
	}
}

func TestOrderIDString(t *testing.T) {
	cases := map[string]string{
		`"PFX-9"`: "PFX-9",
		`77`:      "77",
		`null`:    "",
		``:        "",
	}
	for raw, want := range cases {
		envelope := Envelope{OrderID: json.RawMessage(raw)}
		if got := envelope.OrderIDString(); got != want {
			t.Fatalf("order id for %q want %q got %q", raw, want, got)
		}
	}
}

func TestSubscribeSurfacesMessageOnFailure(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"status":"info","message":"Already subscribed"}`))
	})
	message, err := client.Subscribe(context.Background(), "a@b.c")
	if !errors.Is(err, ErrBackend) {
		t.Fatalf("want ErrBackend got %v", err)
	}
	if message != "Already subscribed" {
		t.Fatalf("message want Already subscribed got %q", message)
	}
}

func TestListOrdersAndUpdateUser(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		switch {
		case r.Method == http.MethodGet && r.URL.Path == "/api/orders":
			if r.URL.Query().Get("user_id") != "7" {
				t.Errorf("unexpected user id %s", r.URL.Query().Get("user_id"))
			}
			_, _ = w.Write([]byte(`{"status":"success","data":[{"id":1,"status":"delivered","total_amount":"30.00"}]}`))
		case r.Method == http.MethodPut && r.URL.Path == "/api/users/7":
			_, _ = w.Write([]byte(`{"status":"success","data":{"id":7,"name":"Jane Roe"}}`))
		default:
			t.Errorf("unexpected request %s %s", r.Method, r.URL.Path)
		}
	})
	orders, err := client.ListOrders(context.Background(), 7)
	if err != nil {
		t.Fatalf("list orders failed: %v", err)
	}
	if len(orders) != 1 || orders[0].Total.String() != "30.00" {
		t.Fatalf("unexpected orders %+v", orders)
	}
	user, err := client.UpdateUser(context.Background(), 7, ProfileInput{Name: "Jane Roe"})
	if err != nil {
		t.Fatalf("update user failed: %v", err)
	}
	if user == nil || user.Name != "Jane Roe" {
		t.Fatalf("unexpected user %+v", user)
	}
}
