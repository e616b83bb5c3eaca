package repository

import (
	"errors"
	"time"

	"github.com/primefix-storefront/internal/models"

	"gorm.io/gorm"
)

// ErrSessionRevisionConflict 会话快照已被其他请求更新
var ErrSessionRevisionConflict = errors.New("session revision conflict")

// SessionRepository 会话快照数据访问接口
type SessionRepository interface {
	GetByID(id string) (*models.Session, error)
	Create(session *models.Session) error
	SaveSnapshot(session *models.Session, expectedRevision uint64) error
	DeleteByID(id string) error
	DeleteExpired(now time.Time, limit int) (int64, error)
	CountActive(now time.Time) (int64, error)
}

// GormSessionRepository GORM 实现
type GormSessionRepository struct {
	db *gorm.DB
}

// NewSessionRepository 创建会话仓库
func NewSessionRepository(db *gorm.DB) *GormSessionRepository {
	return &GormSessionRepository{db: db}
}

// GetByID 获取会话，不存在时返回 nil
func (r *GormSessionRepository) GetByID(id string) (*models.Session, error) {
	var session models.Session
	if err := r.db.Where("id = ?", id).First(&session).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &session, nil
}

// Create 创建会话
func (r *GormSessionRepository) Create(session *models.Session) error {
	return r.db.Create(session).Error
}

// SaveSnapshot 按版本号写入快照（乐观锁），成功后 session.Revision 自增
func (r *GormSessionRepository) SaveSnapshot(session *models.Session, expectedRevision uint64) error {
	if session == nil {
		return nil
	}
	now := time.Now()
	result := r.db.Model(&models.Session{}).
		Where("id = ? AND revision = ?", session.ID, expectedRevision).
		Updates(map[string]interface{}{
			"user_id":    session.UserID,
			"payload":    session.Payload,
			"revision":   expectedRevision + 1,
			"expires_at": session.ExpiresAt,
			"updated_at": now,
		})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return ErrSessionRevisionConflict
	}
	session.Revision = expectedRevision + 1
	session.UpdatedAt = now
	return nil
}

// DeleteByID 删除会话
func (r *GormSessionRepository) DeleteByID(id string) error {
	return r.db.Where("id = ?", id).Delete(&models.Session{}).Error
}

// DeleteExpired 分批清理过期会话，返回删除条数
func (r *GormSessionRepository) DeleteExpired(now time.Time, limit int) (int64, error) {
	if limit <= 0 {
		limit = 500
	}
	var ids []string
	if err := r.db.Model(&models.Session{}).
		Where("expires_at < ?", now).
		Order("expires_at asc").
		Limit(limit).
		Pluck("id", &ids).Error; err != nil {
		return 0, err
	}
	if len(ids) == 0 {
		return 0, nil
	}
	result := r.db.Where("id IN ?", ids).Delete(&models.Session{})
	return result.RowsAffected, result.Error
}

// CountActive 统计未过期会话数
func (r *GormSessionRepository) CountActive(now time.Time) (int64, error) {
	var count int64
	err := r.db.Model(&models.Session{}).Where("expires_at >= ?", now).Count(&count).Error
	return count, err
}
