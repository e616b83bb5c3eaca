package cache

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/primefix-storefront/internal/models"
)

// SessionSnapshot 会话快照的缓存镜像，Revision 与数据库一致时可直接使用
type SessionSnapshot struct {
	SessionID string    `json:"session_id"`
	UserID    uint      `json:"user_id"`
	Payload   string    `json:"payload"`
	Revision  uint64    `json:"revision"`
	ExpiresAt time.Time `json:"expires_at"`
}

// BuildSessionSnapshot 从会话模型构建缓存镜像
func BuildSessionSnapshot(session *models.Session) *SessionSnapshot {
	if session == nil {
		return nil
	}
	return &SessionSnapshot{
		SessionID: session.ID,
		UserID:    session.UserID,
		Payload:   session.Payload,
		Revision:  session.Revision,
		ExpiresAt: session.ExpiresAt,
	}
}

// ToModel 还原为会话模型
func (s *SessionSnapshot) ToModel() *models.Session {
	if s == nil {
		return nil
	}
	return &models.Session{
		ID:        s.SessionID,
		UserID:    s.UserID,
		Payload:   s.Payload,
		Revision:  s.Revision,
		ExpiresAt: s.ExpiresAt,
	}
}

func sessionSnapshotKey(sessionID string) string {
	return "session:" + strings.TrimSpace(sessionID)
}

func submitLockKey(sessionID string) string {
	return "checkout:submit:" + strings.TrimSpace(sessionID)
}

func orderHistoryKey(userID uint) string {
	return fmt.Sprintf("orders:user:%d", userID)
}

// CatalogKey 目录缓存 key
func CatalogKey(kind string) string {
	return "catalog:" + strings.TrimSpace(kind)
}

// GetSessionSnapshot 获取会话快照镜像
func GetSessionSnapshot(ctx context.Context, sessionID string) (*SessionSnapshot, bool, error) {
	if strings.TrimSpace(sessionID) == "" {
		return nil, false, nil
	}
	var snapshot SessionSnapshot
	hit, err := GetJSON(ctx, sessionSnapshotKey(sessionID), &snapshot)
	if err != nil || !hit {
		return nil, hit, err
	}
	return &snapshot, true, nil
}

// SetSessionSnapshot 写入会话快照镜像，过期时间跟随会话
func SetSessionSnapshot(ctx context.Context, snapshot *SessionSnapshot) error {
	if snapshot == nil || strings.TrimSpace(snapshot.SessionID) == "" {
		return nil
	}
	ttl := time.Until(snapshot.ExpiresAt)
	if ttl <= 0 {
		return DelSessionSnapshot(ctx, snapshot.SessionID)
	}
	return SetJSON(ctx, sessionSnapshotKey(snapshot.SessionID), snapshot, ttl)
}

// DelSessionSnapshot 删除会话快照镜像
func DelSessionSnapshot(ctx context.Context, sessionID string) error {
	if strings.TrimSpace(sessionID) == "" {
		return nil
	}
	return Del(ctx, sessionSnapshotKey(sessionID))
}

// AcquireSubmitLock 获取会话下单锁
func AcquireSubmitLock(ctx context.Context, sessionID, token string, ttl time.Duration) (bool, error) {
	return AcquireLock(ctx, submitLockKey(sessionID), token, ttl)
}

// ReleaseSubmitLock 释放会话下单锁
func ReleaseSubmitLock(ctx context.Context, sessionID, token string) error {
	return ReleaseLock(ctx, submitLockKey(sessionID), token)
}

// GetOrderHistory 获取用户订单历史缓存
func GetOrderHistory(ctx context.Context, userID uint) ([]models.OrderSummary, bool, error) {
	if userID == 0 {
		return nil, false, nil
	}
	var orders []models.OrderSummary
	hit, err := GetJSON(ctx, orderHistoryKey(userID), &orders)
	if err != nil || !hit {
		return nil, hit, err
	}
	return orders, true, nil
}

// SetOrderHistory 写入用户订单历史缓存
func SetOrderHistory(ctx context.Context, userID uint, orders []models.OrderSummary, ttl time.Duration) error {
	if userID == 0 {
		return nil
	}
	return SetJSON(ctx, orderHistoryKey(userID), orders, ttl)
}

// InvalidateOrderHistory 删除用户订单历史缓存
func InvalidateOrderHistory(ctx context.Context, userID uint) error {
	if userID == 0 {
		return nil
	}
	return Del(ctx, orderHistoryKey(userID))
}
