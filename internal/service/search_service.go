package service

import (
	"context"
	"errors"
	"time"

	"github.com/primefix-storefront/internal/config"
	"github.com/primefix-storefront/internal/logger"
	"github.com/primefix-storefront/internal/metrics"
	"github.com/primefix-storefront/internal/search"
)

const defaultSearchDelay = 300 * time.Millisecond

// SuggestResult 搜索建议结果，Stale 表示已被更新的输入取代
type SuggestResult struct {
	search.Suggestions
	Stale bool `json:"stale"`
}

// SearchService 搜索建议与最近搜索
type SearchService struct {
	sessions  *SessionService
	suggester *search.Suggester
	metrics   *metrics.Metrics
}

// NewSearchService 创建搜索服务，商品与分类来自目录服务
func NewSearchService(sessions *SessionService, catalog *CatalogService, cfg config.SearchConfig, m *metrics.Metrics) *SearchService {
	delay := defaultSearchDelay
	if cfg.DebounceMS > 0 {
		delay = time.Duration(cfg.DebounceMS) * time.Millisecond
	}
	return &SearchService{
		sessions: sessions,
		suggester: search.NewSuggester(catalog, catalog, search.Options{
			Delay:            delay,
			ProductLimit:     cfg.ProductLimit,
			CategoryLimit:    cfg.CategoryLimit,
			ExcludedKeywords: cfg.ExcludedKeywords,
		}),
		metrics: m,
	}
}

// Suggest 防抖后查询建议。
// 被取代的请求返回 Stale；上游失败时降级为空建议。sessionID 为空时使用一次性序号
func (s *SearchService) Suggest(ctx context.Context, sessionID, query string) (*SuggestResult, error) {
	tracker := &search.Tracker{}
	if sessionID != "" {
		tracker = s.sessions.Tracker(sessionID)
	}
	suggestions, err := s.suggester.Suggest(ctx, tracker, query)
	switch {
	case err == nil:
		return &SuggestResult{Suggestions: suggestions}, nil
	case errors.Is(err, search.ErrStale):
		s.metrics.SearchDiscarded()
		return &SuggestResult{Suggestions: search.EmptySuggestions(query), Stale: true}, nil
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		return nil, err
	default:
		logger.ForSession(sessionID).Warnw("search_suggest_failed", "query", query, "error", err)
		return &SuggestResult{Suggestions: search.EmptySuggestions(query)}, nil
	}
}

// Submit 记录一次提交的搜索词，返回最新的最近搜索列表
func (s *SearchService) Submit(ctx context.Context, sessionID, term string) ([]string, error) {
	sess, err := s.sessions.Mutate(ctx, sessionID, func(sess *ShopperSession) error {
		sess.RecentSearches = search.RecordRecent(sess.RecentSearches, term, s.sessions.RecentLimit())
		return nil
	})
	if err != nil {
		return nil, err
	}
	return sess.RecentSearches, nil
}

// Recent 最近搜索，最新在前
func (s *SearchService) Recent(ctx context.Context, sessionID string) ([]string, error) {
	sess, err := s.sessions.Load(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	return sess.RecentSearches, nil
}
