package service

import (
	"context"
	"strings"
	"time"

	"github.com/primefix-storefront/internal/cache"
	"github.com/primefix-storefront/internal/config"
	"github.com/primefix-storefront/internal/constants"
	"github.com/primefix-storefront/internal/logger"
	"github.com/primefix-storefront/internal/models"
	"github.com/primefix-storefront/internal/upstream"

	"golang.org/x/sync/errgroup"
	"golang.org/x/sync/singleflight"
)

const (
	defaultCatalogCacheTTL     = 5 * time.Minute
	defaultCatalogListLimit    = 1000
	defaultFooterCategoryLimit = 6

	catalogKindCategories = "categories"
	catalogKindBrands     = "brands"
)

// ProductFilter 商品列表筛选
type ProductFilter struct {
	Search   string
	Category string
	Brand    string
	Sort     string
	Page     int
	Limit    int
}

// HomeView 首页数据
type HomeView struct {
	Products   []models.Product  `json:"products"`
	Total      int64             `json:"total"`
	Categories []models.Category `json:"categories"`
	Brands     []models.Brand    `json:"brands"`
}

// CatalogService 商品目录服务：分类与品牌走缓存，商品直接透传
type CatalogService struct {
	backend CatalogBackend
	cfg     config.CatalogConfig
	group   singleflight.Group
}

// NewCatalogService 创建目录服务
func NewCatalogService(backend CatalogBackend, cfg config.CatalogConfig) *CatalogService {
	return &CatalogService{backend: backend, cfg: cfg}
}

// Placeholder 商品占位图
func (s *CatalogService) Placeholder() string {
	if strings.TrimSpace(s.cfg.PlaceholderImage) == "" {
		return models.DefaultPlaceholderImage
	}
	return s.cfg.PlaceholderImage
}

// ListProducts 商品列表，排序默认 newest，页码默认 1
func (s *CatalogService) ListProducts(ctx context.Context, filter ProductFilter) (models.ProductPage, error) {
	query := upstream.ProductQuery{
		Search:   strings.TrimSpace(filter.Search),
		Category: strings.TrimSpace(filter.Category),
		Brand:    strings.TrimSpace(filter.Brand),
		Sort:     normalizeProductSort(filter.Sort),
		Page:     filter.Page,
		Limit:    filter.Limit,
	}
	if query.Page <= 0 {
		query.Page = 1
	}
	if query.Limit <= 0 {
		query.Limit = s.listLimit()
	}
	page, err := s.backend.ListProducts(ctx, query)
	if err != nil {
		return models.ProductPage{}, err
	}
	page.Items = s.decorate(page.Items)
	if page.Page == 0 {
		page.Page = query.Page
	}
	if page.Limit == 0 {
		page.Limit = query.Limit
	}
	return page, nil
}

// SearchProducts 搜索商品（供搜索建议使用）
func (s *CatalogService) SearchProducts(ctx context.Context, search string, limit int) ([]models.Product, error) {
	products, err := s.backend.SearchProducts(ctx, search, limit)
	if err != nil {
		return nil, err
	}
	return s.decorate(products), nil
}

// ListCategories 分类列表，过滤命中排除关键字的父子分类
func (s *CatalogService) ListCategories(ctx context.Context) ([]models.Category, error) {
	var categories []models.Category
	if err := s.cached(ctx, catalogKindCategories, &categories, func(ctx context.Context) (interface{}, error) {
		return s.backend.ListCategories(ctx)
	}); err != nil {
		return nil, err
	}
	return filterCategories(categories, s.cfg.ExcludedKeywords), nil
}

// FooterCategories 页脚分类：展开父子、按 slug 去重后取前若干个
func (s *CatalogService) FooterCategories(ctx context.Context) ([]models.Category, error) {
	categories, err := s.ListCategories(ctx)
	if err != nil {
		return nil, err
	}
	limit := s.cfg.FooterCategoryLimit
	if limit <= 0 {
		limit = defaultFooterCategoryLimit
	}
	seen := make(map[string]struct{})
	result := make([]models.Category, 0, limit)
	for _, category := range models.FlattenCategories(categories) {
		if len(result) >= limit {
			break
		}
		key := strings.ToLower(strings.TrimSpace(category.Slug))
		if key == "" {
			key = strings.ToLower(strings.TrimSpace(category.Name))
		}
		if _, ok := seen[key]; ok {
			continue
		}
		seen[key] = struct{}{}
		category.Children = nil
		result = append(result, category)
	}
	return result, nil
}

// ListBrands 品牌列表
func (s *CatalogService) ListBrands(ctx context.Context) ([]models.Brand, error) {
	var brands []models.Brand
	if err := s.cached(ctx, catalogKindBrands, &brands, func(ctx context.Context) (interface{}, error) {
		return s.backend.ListBrands(ctx)
	}); err != nil {
		return nil, err
	}
	if brands == nil {
		brands = make([]models.Brand, 0)
	}
	return brands, nil
}

// Home 并发获取首页所需的商品、分类与品牌
func (s *CatalogService) Home(ctx context.Context) (*HomeView, error) {
	view := &HomeView{}
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		page, err := s.ListProducts(gctx, ProductFilter{})
		if err != nil {
			return err
		}
		view.Products = page.Items
		view.Total = page.Total
		return nil
	})
	g.Go(func() error {
		categories, err := s.ListCategories(gctx)
		view.Categories = categories
		return err
	})
	g.Go(func() error {
		brands, err := s.ListBrands(gctx)
		view.Brands = brands
		return err
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return view, nil
}

// cached 先读 Redis，未命中时合并并发请求后回源并写回缓存
func (s *CatalogService) cached(ctx context.Context, kind string, dest interface{}, load func(ctx context.Context) (interface{}, error)) error {
	key := cache.CatalogKey(kind)
	hit, err := cache.GetJSON(ctx, key, dest)
	if err != nil {
		logger.Warnw("catalog_cache_read_failed", "kind", kind, "error", err)
	}
	if hit {
		return nil
	}
	value, err, shared := s.group.Do(key, func() (interface{}, error) {
		value, err := load(ctx)
		if err != nil {
			return nil, err
		}
		if err := cache.SetJSON(ctx, key, value, s.cacheTTL()); err != nil {
			logger.Warnw("catalog_cache_write_failed", "kind", kind, "error", err)
		}
		return value, nil
	})
	if err != nil {
		return err
	}
	logger.Debugw("catalog_loaded", "kind", kind, "shared", shared)
	return assignCatalogValue(value, dest)
}

func (s *CatalogService) cacheTTL() time.Duration {
	if s.cfg.CacheTTLSeconds <= 0 {
		return defaultCatalogCacheTTL
	}
	return time.Duration(s.cfg.CacheTTLSeconds) * time.Second
}

func (s *CatalogService) listLimit() int {
	if s.cfg.ListLimit <= 0 {
		return defaultCatalogListLimit
	}
	return s.cfg.ListLimit
}

func (s *CatalogService) decorate(products []models.Product) []models.Product {
	placeholder := s.Placeholder()
	result := make([]models.Product, 0, len(products))
	for _, product := range products {
		result = append(result, product.WithThumbnail(placeholder))
	}
	return result
}

func assignCatalogValue(value interface{}, dest interface{}) error {
	switch target := dest.(type) {
	case *[]models.Category:
		if list, ok := value.([]models.Category); ok {
			*target = list
		}
	case *[]models.Brand:
		if list, ok := value.([]models.Brand); ok {
			*target = list
		}
	}
	return nil
}

func filterCategories(categories []models.Category, keywords []string) []models.Category {
	result := make([]models.Category, 0, len(categories))
	for _, category := range categories {
		if category.Excluded(keywords) {
			continue
		}
		if len(category.Children) > 0 {
			category.Children = filterCategories(category.Children, keywords)
		}
		result = append(result, category)
	}
	return result
}

func normalizeProductSort(sort string) string {
	switch strings.ToLower(strings.TrimSpace(sort)) {
	case constants.ProductSortPriceAsc:
		return constants.ProductSortPriceAsc
	case constants.ProductSortPriceDesc:
		return constants.ProductSortPriceDesc
	case constants.ProductSortName:
		return constants.ProductSortName
	default:
		return constants.ProductSortNewest
	}
}
