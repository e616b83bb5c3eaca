package service

import (
	"context"
	"testing"

	"github.com/primefix-storefront/internal/config"
	"github.com/primefix-storefront/internal/models"
	"github.com/primefix-storefront/internal/upstream"
)

func newTestSearchService(t *testing.T, backend *catalogBackendStub) (*SearchService, *SessionService) {
	t.Helper()
	sessions := setupSessionService(t)
	svc := NewSearchService(sessions, newTestCatalogService(backend), config.SearchConfig{
		DebounceMS:       1,
		ProductLimit:     6,
		CategoryLimit:    4,
		ExcludedKeywords: []string{"laptop", "macbook"},
	}, nil)
	return svc, sessions
}

func TestSearchSuggestFiltersAndMatches(t *testing.T) {
	backend := &catalogBackendStub{
		categories: sampleCategories(),
		products: []models.Product{
			{ID: 1, Name: "Printer Ink Black"},
			{ID: 2, Name: "MacBook Ink Skin"},
		},
	}
	svc, _ := newTestSearchService(t, backend)
	result, err := svc.Suggest(context.Background(), "sid", "ink")
	if err != nil {
		t.Fatalf("suggest failed: %v", err)
	}
	if result.Stale {
		t.Fatalf("single request should not be stale")
	}
	if len(result.Products) != 1 || result.Products[0].ID != 1 {
		t.Fatalf("unexpected products: %+v", result.Products)
	}
	if len(result.Categories) != 2 {
		t.Fatalf("categories want 2 got %+v", result.Categories)
	}
}

func TestSearchSuggestBlankQuerySkipsBackend(t *testing.T) {
	backend := &catalogBackendStub{}
	svc, _ := newTestSearchService(t, backend)
	result, err := svc.Suggest(context.Background(), "sid", "   ")
	if err != nil {
		t.Fatalf("suggest failed: %v", err)
	}
	if len(backend.searches) != 0 {
		t.Fatalf("blank query must not reach backend")
	}
	if result.Products == nil || len(result.Products) != 0 {
		t.Fatalf("blank query should return empty products")
	}
}

func TestSearchSuggestDiscardsSupersededResponse(t *testing.T) {
	backend := &catalogBackendStub{products: []models.Product{{ID: 1, Name: "Ink"}}}
	svc, sessions := newTestSearchService(t, backend)
	backend.onSearch = func() {
		sessions.Tracker("sid").Begin()
	}
	result, err := svc.Suggest(context.Background(), "sid", "ink")
	if err != nil {
		t.Fatalf("suggest failed: %v", err)
	}
	if !result.Stale {
		t.Fatalf("response arriving after a newer query must be stale")
	}
	if len(result.Products) != 0 {
		t.Fatalf("stale result must not carry products")
	}
}

func TestSearchSuggestBackendFailureDegradesToEmpty(t *testing.T) {
	backend := &catalogBackendStub{err: upstream.ErrTransport}
	svc, _ := newTestSearchService(t, backend)
	result, err := svc.Suggest(context.Background(), "sid", "ink")
	if err != nil {
		t.Fatalf("backend failure should not surface: %v", err)
	}
	if result.Stale || len(result.Products) != 0 || len(result.Categories) != 0 {
		t.Fatalf("unexpected result: %+v", result)
	}
}

func TestSearchSuggestCanceledContext(t *testing.T) {
	svc, _ := newTestSearchService(t, &catalogBackendStub{})
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if _, err := svc.Suggest(ctx, "sid", "ink"); err == nil {
		t.Fatalf("canceled context should return error")
	}
}

func TestSearchSubmitRecordsRecent(t *testing.T) {
	svc, sessions := newTestSearchService(t, &catalogBackendStub{})
	sid := createTestSession(t, sessions)
	ctx := context.Background()
	for _, term := range []string{"ink", "toner", "paper", "ink", "  ", "cable", "dock", "scanner"} {
		if _, err := svc.Submit(ctx, sid, term); err != nil {
			t.Fatalf("submit %q failed: %v", term, err)
		}
	}
	recent, err := svc.Recent(ctx, sid)
	if err != nil {
		t.Fatalf("recent failed: %v", err)
	}
	want := []string{"scanner", "dock", "cable", "ink", "paper"}
	if len(recent) != len(want) {
		t.Fatalf("recent want %v got %v", want, recent)
	}
	for i := range want {
		if recent[i] != want[i] {
			t.Fatalf("recent want %v got %v", want, recent)
		}
	}
}

func TestSearchSuggestWithoutSession(t *testing.T) {
	backend := &catalogBackendStub{products: []models.Product{{ID: 1, Name: "Ink"}}}
	svc, _ := newTestSearchService(t, backend)
	result, err := svc.Suggest(context.Background(), "", "ink")
	if err != nil {
		t.Fatalf("suggest failed: %v", err)
	}
	if result.Stale || len(result.Products) != 1 {
		t.Fatalf("anonymous suggest want one fresh product got %+v", result)
	}
}
