package models

import "time"

// Session 购物会话快照表
// Payload 为序列化后的会话状态（购物车、收藏、最近搜索、登录用户、结算进度）
type Session struct {
	ID        string    `gorm:"primaryKey;type:varchar(64)" json:"id"`   // 会话 ID
	UserID    uint      `gorm:"index;not null;default:0" json:"user_id"` // 关联用户（0 表示游客）
	Payload   string    `gorm:"type:text" json:"-"`                      // 状态快照 JSON
	Revision  uint64    `gorm:"not null;default:0" json:"revision"`      // 写入版本号
	ExpiresAt time.Time `gorm:"index" json:"expires_at"`                 // 过期时间
	CreatedAt time.Time `gorm:"index" json:"created_at"`                 // 创建时间
	UpdatedAt time.Time `json:"updated_at"`                              // 更新时间
}

// TableName 指定表名
func (Session) TableName() string {
	return "storefront_sessions"
}

// Expired 判断会话是否已过期
func (s *Session) Expired(now time.Time) bool {
	if s == nil {
		return true
	}
	return !s.ExpiresAt.IsZero() && now.After(s.ExpiresAt)
}
