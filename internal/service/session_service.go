package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/primefix-storefront/internal/cache"
	"github.com/primefix-storefront/internal/cart"
	"github.com/primefix-storefront/internal/checkout"
	"github.com/primefix-storefront/internal/config"
	"github.com/primefix-storefront/internal/logger"
	"github.com/primefix-storefront/internal/metrics"
	"github.com/primefix-storefront/internal/models"
	"github.com/primefix-storefront/internal/repository"
	"github.com/primefix-storefront/internal/search"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

const (
	defaultSessionTTL     = 30 * 24 * time.Hour
	sessionMutateAttempts = 3
	sessionPurgeBatch     = 500
	trackerIdleTTL        = 15 * time.Minute
)

// SessionState 持久化的会话状态
type SessionState struct {
	Cart           cart.Snapshot      `json:"cart"`
	RecentSearches []string           `json:"recent_searches"`
	User           *models.UserRecord `json:"user,omitempty"`
	Checkout       checkout.State     `json:"checkout"`
}

// ShopperSession 运行时会话，由快照恢复
type ShopperSession struct {
	ID             string
	Store          *cart.Store
	Flow           *checkout.Flow
	RecentSearches []string
	User           *models.UserRecord
	ExpiresAt      time.Time

	revision uint64
}

// State 导出可持久化状态
func (s *ShopperSession) State() SessionState {
	recent := make([]string, len(s.RecentSearches))
	copy(recent, s.RecentSearches)
	return SessionState{
		Cart:           s.Store.Snapshot(),
		RecentSearches: recent,
		User:           s.User,
		Checkout:       s.Flow.State(),
	}
}

// UserID 登录用户 ID，游客为 0
func (s *ShopperSession) UserID() uint {
	if s == nil || s.User == nil {
		return 0
	}
	return s.User.ID
}

// SessionClaims 会话令牌声明
type SessionClaims struct {
	SessionID string `json:"sid"`
	jwt.RegisteredClaims
}

// SessionToken 新签发的会话令牌
type SessionToken struct {
	Token     string    `json:"token"`
	SessionID string    `json:"session_id"`
	ExpiresAt time.Time `json:"expires_at"`
}

type trackerEntry struct {
	tracker  *search.Tracker
	lastUsed time.Time
}

type sessionLock struct {
	mu   sync.Mutex
	refs int
}

// SessionService 购物会话服务：签发令牌、加载快照、串行化变更并持久化
type SessionService struct {
	repo        repository.SessionRepository
	cfg         config.SessionConfig
	placeholder string
	recentLimit int
	metrics     *metrics.Metrics
	now         func() time.Time

	lockMu sync.Mutex
	locks  map[string]*sessionLock

	trackerMu sync.Mutex
	trackers  map[string]*trackerEntry
}

// NewSessionService 创建会话服务
func NewSessionService(repo repository.SessionRepository, cfg config.SessionConfig, catalogCfg config.CatalogConfig, searchCfg config.SearchConfig, m *metrics.Metrics) *SessionService {
	recentLimit := searchCfg.RecentLimit
	if recentLimit <= 0 {
		recentLimit = search.DefaultRecentLimit
	}
	return &SessionService{
		repo:        repo,
		cfg:         cfg,
		placeholder: catalogCfg.PlaceholderImage,
		recentLimit: recentLimit,
		metrics:     m,
		now:         time.Now,
		locks:       make(map[string]*sessionLock),
		trackers:    make(map[string]*trackerEntry),
	}
}

// TTL 会话有效期
func (s *SessionService) TTL() time.Duration {
	if s.cfg.TTLHours <= 0 {
		return defaultSessionTTL
	}
	return time.Duration(s.cfg.TTLHours) * time.Hour
}

// RecentLimit 最近搜索保留条数
func (s *SessionService) RecentLimit() int {
	return s.recentLimit
}

// Create 创建新会话并签发令牌
func (s *SessionService) Create(ctx context.Context) (*ShopperSession, *SessionToken, error) {
	now := s.now()
	sess := &ShopperSession{
		ID:             uuid.NewString(),
		Store:          cart.NewStore(s.placeholder),
		Flow:           checkout.NewFlow(),
		RecentSearches: []string{},
		ExpiresAt:      now.Add(s.TTL()),
	}
	payload, err := json.Marshal(sess.State())
	if err != nil {
		return nil, nil, err
	}
	record := &models.Session{
		ID:        sess.ID,
		Payload:   string(payload),
		ExpiresAt: sess.ExpiresAt,
	}
	if err := s.repo.Create(record); err != nil {
		return nil, nil, err
	}
	s.mirror(ctx, record)
	token, err := s.IssueToken(sess.ID)
	if err != nil {
		return nil, nil, err
	}
	logger.ForSession(sess.ID).Debugw("session_created", "expires_at", sess.ExpiresAt)
	return sess, token, nil
}

// IssueToken 为会话签发 HS256 令牌，有效期与会话 TTL 一致
func (s *SessionService) IssueToken(sessionID string) (*SessionToken, error) {
	now := s.now()
	expiresAt := now.Add(s.TTL())
	claims := SessionClaims{
		SessionID: sessionID,
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(expiresAt),
			IssuedAt:  jwt.NewNumericDate(now),
			NotBefore: jwt.NewNumericDate(now),
		},
	}
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(s.cfg.Secret))
	if err != nil {
		return nil, err
	}
	return &SessionToken{Token: signed, SessionID: sessionID, ExpiresAt: expiresAt}, nil
}

// ParseToken 解析会话令牌
func (s *SessionService) ParseToken(tokenString string) (*SessionClaims, error) {
	tokenString = strings.TrimSpace(tokenString)
	if tokenString == "" {
		return nil, ErrSessionInvalid
	}
	parser := jwt.NewParser(
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithTimeFunc(s.now),
	)
	claims := &SessionClaims{}
	token, err := parser.ParseWithClaims(tokenString, claims, func(token *jwt.Token) (interface{}, error) {
		return []byte(s.cfg.Secret), nil
	})
	if err != nil || !token.Valid || strings.TrimSpace(claims.SessionID) == "" {
		return nil, ErrSessionInvalid
	}
	return claims, nil
}

// NeedsRefresh 令牌剩余有效期不足一半时需要续签
func (s *SessionService) NeedsRefresh(claims *SessionClaims) bool {
	if claims == nil || claims.ExpiresAt == nil {
		return true
	}
	return claims.ExpiresAt.Time.Sub(s.now()) < s.TTL()/2
}

// Load 加载会话，优先读取缓存镜像
func (s *SessionService) Load(ctx context.Context, sessionID string) (*ShopperSession, error) {
	record, err := s.loadRecord(ctx, sessionID, true)
	if err != nil {
		return nil, err
	}
	return s.restore(record)
}

// Mutate 在会话锁内加载、变更并持久化会话。
// fn 返回错误时不写入；版本冲突（其他实例已写入）时重新加载后重试
func (s *SessionService) Mutate(ctx context.Context, sessionID string, fn func(sess *ShopperSession) error) (*ShopperSession, error) {
	unlock := s.lock(sessionID)
	defer unlock()

	useCache := true
	for attempt := 0; attempt < sessionMutateAttempts; attempt++ {
		record, err := s.loadRecord(ctx, sessionID, useCache)
		if err != nil {
			return nil, err
		}
		sess, err := s.restore(record)
		if err != nil {
			return nil, err
		}
		if err := fn(sess); err != nil {
			return sess, err
		}
		payload, err := json.Marshal(sess.State())
		if err != nil {
			return nil, err
		}
		sess.ExpiresAt = s.now().Add(s.TTL())
		record.UserID = sess.UserID()
		record.Payload = string(payload)
		record.ExpiresAt = sess.ExpiresAt
		err = s.repo.SaveSnapshot(record, sess.revision)
		if errors.Is(err, repository.ErrSessionRevisionConflict) {
			logger.ForSession(sessionID).Debugw("session_revision_conflict", "attempt", attempt+1, "revision", sess.revision)
			_ = cache.DelSessionSnapshot(ctx, sessionID)
			useCache = false
			continue
		}
		if err != nil {
			return nil, err
		}
		sess.revision = record.Revision
		s.mirror(ctx, record)
		return sess, nil
	}
	return nil, ErrSessionConflict
}

// Tracker 返回会话的搜索序号跟踪器
func (s *SessionService) Tracker(sessionID string) *search.Tracker {
	s.trackerMu.Lock()
	defer s.trackerMu.Unlock()
	entry, ok := s.trackers[sessionID]
	if !ok {
		entry = &trackerEntry{tracker: &search.Tracker{}}
		s.trackers[sessionID] = entry
	}
	entry.lastUsed = s.now()
	return entry.tracker
}

// PurgeExpired 清理过期会话与闲置的搜索跟踪器，返回删除的会话数
func (s *SessionService) PurgeExpired(ctx context.Context) (int64, error) {
	now := s.now()
	var total int64
	for {
		if err := ctx.Err(); err != nil {
			return total, err
		}
		deleted, err := s.repo.DeleteExpired(now, sessionPurgeBatch)
		if err != nil {
			return total, err
		}
		total += deleted
		if deleted < sessionPurgeBatch {
			break
		}
	}
	s.pruneTrackers(now)
	s.metrics.SessionsPurged(total)
	if active, err := s.repo.CountActive(now); err == nil {
		s.metrics.SetActiveSessions(active)
	} else {
		logger.Warnw("session_count_active_failed", "error", err)
	}
	return total, nil
}

func (s *SessionService) pruneTrackers(now time.Time) int {
	s.trackerMu.Lock()
	defer s.trackerMu.Unlock()
	pruned := 0
	for id, entry := range s.trackers {
		if now.Sub(entry.lastUsed) > trackerIdleTTL {
			delete(s.trackers, id)
			pruned++
		}
	}
	return pruned
}

func (s *SessionService) loadRecord(ctx context.Context, sessionID string, useCache bool) (*models.Session, error) {
	sessionID = strings.TrimSpace(sessionID)
	if sessionID == "" {
		return nil, ErrSessionNotFound
	}
	now := s.now()
	if useCache {
		snapshot, hit, err := cache.GetSessionSnapshot(ctx, sessionID)
		if err != nil {
			logger.ForSession(sessionID).Warnw("session_cache_read_failed", "error", err)
		}
		if hit {
			record := snapshot.ToModel()
			if !record.Expired(now) {
				return record, nil
			}
		}
	}
	record, err := s.repo.GetByID(sessionID)
	if err != nil {
		return nil, err
	}
	if record == nil || record.Expired(now) {
		return nil, ErrSessionNotFound
	}
	return record, nil
}

func (s *SessionService) restore(record *models.Session) (*ShopperSession, error) {
	var state SessionState
	if strings.TrimSpace(record.Payload) != "" {
		if err := json.Unmarshal([]byte(record.Payload), &state); err != nil {
			logger.ForSession(record.ID).Warnw("session_payload_decode_failed", "error", err)
			return nil, fmt.Errorf("%w: %v", ErrSessionStateBroken, err)
		}
	}
	return &ShopperSession{
		ID:             record.ID,
		Store:          cart.Restore(state.Cart, s.placeholder),
		Flow:           checkout.RestoreFlow(state.Checkout),
		RecentSearches: search.NormalizeRecent(state.RecentSearches, s.recentLimit),
		User:           state.User,
		ExpiresAt:      record.ExpiresAt,
		revision:       record.Revision,
	}, nil
}

func (s *SessionService) mirror(ctx context.Context, record *models.Session) {
	if err := cache.SetSessionSnapshot(ctx, cache.BuildSessionSnapshot(record)); err != nil {
		logger.ForSession(record.ID).Warnw("session_cache_write_failed", "error", err)
	}
}

// lock 获取会话级互斥锁，返回释放函数
func (s *SessionService) lock(sessionID string) func() {
	s.lockMu.Lock()
	entry, ok := s.locks[sessionID]
	if !ok {
		entry = &sessionLock{}
		s.locks[sessionID] = entry
	}
	entry.refs++
	s.lockMu.Unlock()

	entry.mu.Lock()
	return func() {
		entry.mu.Unlock()
		s.lockMu.Lock()
		entry.refs--
		if entry.refs == 0 {
			delete(s.locks, sessionID)
		}
		s.lockMu.Unlock()
	}
}
