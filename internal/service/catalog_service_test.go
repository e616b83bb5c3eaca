package service

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/primefix-storefront/internal/config"
	"github.com/primefix-storefront/internal/models"
	"github.com/primefix-storefront/internal/upstream"
)

type catalogBackendStub struct {
	mu          sync.Mutex
	categories  []models.Category
	brands      []models.Brand
	products    []models.Product
	total       int64
	err         error
	queries     []upstream.ProductQuery
	searches    []string
	onSearch    func()
	categoryHit int
}

func (s *catalogBackendStub) ListCategories(context.Context) ([]models.Category, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.categoryHit++
	return s.categories, s.err
}

func (s *catalogBackendStub) ListBrands(context.Context) ([]models.Brand, error) {
	return s.brands, s.err
}

func (s *catalogBackendStub) ListProducts(_ context.Context, query upstream.ProductQuery) (models.ProductPage, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.queries = append(s.queries, query)
	if s.err != nil {
		return models.ProductPage{}, s.err
	}
	return models.ProductPage{Items: s.products, Total: s.total}, nil
}

func (s *catalogBackendStub) SearchProducts(ctx context.Context, search string, _ int) ([]models.Product, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	s.mu.Lock()
	s.searches = append(s.searches, search)
	hook := s.onSearch
	s.mu.Unlock()
	if hook != nil {
		hook()
	}
	if s.err != nil {
		return nil, s.err
	}
	return s.products, nil
}

func sampleCategories() []models.Category {
	return []models.Category{
		{ID: 1, Name: "Printers", Slug: "printers", Children: []models.Category{
			{ID: 11, Name: "Laser Printers", Slug: "laser"},
			{ID: 12, Name: "Chromebook Printers", Slug: "cb-printers"},
		}},
		{ID: 2, Name: "Laptops", Slug: "laptops"},
		{ID: 3, Name: "Ink", Slug: "ink"},
		{ID: 4, Name: "Ink Refills", Slug: "ink"},
		{ID: 5, Name: "Toner", Slug: "toner"},
		{ID: 6, Name: "Paper", Slug: "paper"},
		{ID: 7, Name: "Scanners", Slug: "scanners"},
		{ID: 8, Name: "Cables", Slug: "cables"},
	}
}

func newTestCatalogService(backend CatalogBackend) *CatalogService {
	return NewCatalogService(backend, config.CatalogConfig{
		ListLimit:        50,
		ExcludedKeywords: []string{"laptop", "chromebook"},
		PlaceholderImage: testPlaceholder,
	})
}

func TestCatalogListCategoriesFiltersExcluded(t *testing.T) {
	svc := newTestCatalogService(&catalogBackendStub{categories: sampleCategories()})
	categories, err := svc.ListCategories(context.Background())
	if err != nil {
		t.Fatalf("list categories failed: %v", err)
	}
	for _, category := range models.FlattenCategories(categories) {
		if category.Slug == "laptops" || category.Slug == "cb-printers" {
			t.Fatalf("excluded category leaked: %+v", category)
		}
	}
	if len(categories) != 7 || len(categories[0].Children) != 1 {
		t.Fatalf("unexpected categories: %+v", categories)
	}
}

func TestCatalogFooterCategoriesDedupAndLimit(t *testing.T) {
	svc := newTestCatalogService(&catalogBackendStub{categories: sampleCategories()})
	footer, err := svc.FooterCategories(context.Background())
	if err != nil {
		t.Fatalf("footer categories failed: %v", err)
	}
	want := []string{"printers", "laser", "ink", "toner", "paper", "scanners"}
	if len(footer) != len(want) {
		t.Fatalf("footer want %d got %d (%+v)", len(want), len(footer), footer)
	}
	for i, slug := range want {
		if footer[i].Slug != slug {
			t.Fatalf("footer[%d] want %s got %s", i, slug, footer[i].Slug)
		}
		if footer[i].Children != nil {
			t.Fatalf("footer entries should be flat")
		}
	}
}

func TestCatalogListProductsDefaults(t *testing.T) {
	backend := &catalogBackendStub{
		products: []models.Product{
			{ID: 1, Name: "Dock", Images: models.ImageList{"dock.jpg"}},
			{ID: 2, Name: "Cable"},
		},
		total: 12,
	}
	svc := newTestCatalogService(backend)
	page, err := svc.ListProducts(context.Background(), ProductFilter{Sort: "bogus", Search: "  dock "})
	if err != nil {
		t.Fatalf("list products failed: %v", err)
	}
	query := backend.queries[0]
	if query.Sort != "newest" || query.Page != 1 || query.Limit != 50 || query.Search != "dock" {
		t.Fatalf("unexpected query: %+v", query)
	}
	if page.Total != 12 || page.Page != 1 || page.Limit != 50 {
		t.Fatalf("unexpected page meta: %+v", page)
	}
	if page.Items[0].Thumbnail != "dock.jpg" || page.Items[1].Thumbnail != testPlaceholder {
		t.Fatalf("unexpected thumbnails: %s, %s", page.Items[0].Thumbnail, page.Items[1].Thumbnail)
	}

	if _, err := svc.ListProducts(context.Background(), ProductFilter{Sort: "PRICE_LOW", Page: 3}); err != nil {
		t.Fatalf("list products failed: %v", err)
	}
	if got := backend.queries[1]; got.Sort != "price_low" || got.Page != 3 {
		t.Fatalf("unexpected query: %+v", got)
	}
}

func TestCatalogHomeAggregates(t *testing.T) {
	backend := &catalogBackendStub{
		categories: sampleCategories(),
		brands:     []models.Brand{{ID: 1, Name: "HP"}},
		products:   []models.Product{{ID: 1, Name: "Dock"}},
		total:      1,
	}
	home, err := newTestCatalogService(backend).Home(context.Background())
	if err != nil {
		t.Fatalf("home failed: %v", err)
	}
	if len(home.Products) != 1 || home.Total != 1 || len(home.Brands) != 1 || len(home.Categories) != 7 {
		t.Fatalf("unexpected home view: %+v", home)
	}
}

func TestCatalogHomePropagatesError(t *testing.T) {
	backend := &catalogBackendStub{err: upstream.ErrTransport}
	if _, err := newTestCatalogService(backend).Home(context.Background()); !errors.Is(err, upstream.ErrTransport) {
		t.Fatalf("want ErrTransport got %v", err)
	}
}

func TestCatalogBrandsNeverNil(t *testing.T) {
	brands, err := newTestCatalogService(&catalogBackendStub{}).ListBrands(context.Background())
	if err != nil {
		t.Fatalf("list brands failed: %v", err)
	}
	if brands == nil {
		t.Fatalf("brands should be an empty slice")
	}
}
