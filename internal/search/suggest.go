package search

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/primefix-storefront/internal/models"
)

// ErrStale 结果已被更新的查询取代
var ErrStale = errors.New("search result superseded")

// ProductSearcher 商品搜索数据源
type ProductSearcher interface {
	SearchProducts(ctx context.Context, query string, limit int) ([]models.Product, error)
}

// CategorySource 分类数据源（通常已缓存）
type CategorySource interface {
	ListCategories(ctx context.Context) ([]models.Category, error)
}

// Options 建议参数
type Options struct {
	Delay            time.Duration
	ProductLimit     int
	CategoryLimit    int
	ExcludedKeywords []string
}

// Suggestions 搜索建议
type Suggestions struct {
	Query      string            `json:"query"`
	Products   []models.Product  `json:"products"`
	Categories []models.Category `json:"categories"`
}

// Suggester 防抖搜索建议
type Suggester struct {
	products   ProductSearcher
	categories CategorySource
	opts       Options
}

// NewSuggester 创建 Suggester
func NewSuggester(products ProductSearcher, categories CategorySource, opts Options) *Suggester {
	if opts.ProductLimit <= 0 {
		opts.ProductLimit = 6
	}
	if opts.CategoryLimit <= 0 {
		opts.CategoryLimit = 4
	}
	return &Suggester{products: products, categories: categories, opts: opts}
}

// Suggest 为 tracker 所属会话生成建议。
// 空查询直接返回空结果且不请求上游；防抖期间或请求返回时已有更新的查询则返回 ErrStale
func (s *Suggester) Suggest(ctx context.Context, tracker *Tracker, query string) (Suggestions, error) {
	seq := tracker.Begin()
	trimmed := strings.TrimSpace(query)
	if trimmed == "" {
		return EmptySuggestions(trimmed), nil
	}

	latest, err := tracker.Debounce(ctx, seq, s.opts.Delay)
	if err != nil {
		return Suggestions{}, err
	}
	if !latest {
		return Suggestions{}, ErrStale
	}

	products, err := s.products.SearchProducts(ctx, trimmed, s.opts.ProductLimit)
	if err != nil {
		return Suggestions{}, err
	}
	var categories []models.Category
	if s.categories != nil {
		categories, err = s.categories.ListCategories(ctx)
		if err != nil {
			return Suggestions{}, err
		}
	}
	if !tracker.IsLatest(seq) {
		return Suggestions{}, ErrStale
	}

	result := EmptySuggestions(trimmed)
	for _, product := range products {
		if product.NameContainsAny(s.opts.ExcludedKeywords) {
			continue
		}
		result.Products = append(result.Products, product)
	}
	result.Categories = MatchCategories(categories, trimmed, s.opts.CategoryLimit)
	return result, nil
}

// MatchCategories 展开父子分类后按名称子串匹配（不区分大小写），最多返回 limit 个
func MatchCategories(categories []models.Category, query string, limit int) []models.Category {
	matched := make([]models.Category, 0, limit)
	for _, category := range models.FlattenCategories(categories) {
		if len(matched) >= limit {
			break
		}
		if category.Matches(query) {
			category.Children = nil
			matched = append(matched, category)
		}
	}
	return matched
}

// EmptySuggestions 空建议（切片非 nil）
func EmptySuggestions(query string) Suggestions {
	return Suggestions{
		Query:      query,
		Products:   make([]models.Product, 0),
		Categories: make([]models.Category, 0),
	}
}
