package gorm

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// ChatSession 会话表
// IsVisible=false 的会话是系统默认会话，用于不经过聊天界面的文件上传
type ChatSession struct {
	ID        string     `gorm:"primaryKey;column:id;type:varchar(64)"`
	UserID    string     `gorm:"column:user_id;type:varchar(64);not null;index"`
	Title     string     `gorm:"column:title;type:varchar(255)"`
	IsVisible bool       `gorm:"column:is_visible;not null"`
	StartedAt time.Time  `gorm:"column:started_at;autoCreateTime;index"`
	EndedAt   *time.Time `gorm:"column:ended_at"`
}

// TableName 设置表名
func (ChatSession) TableName() string {
	return "chat_sessions"
}

// BeforeCreate GORM钩子：创建前自动生成会话ID
func (s *ChatSession) BeforeCreate(tx *gorm.DB) error {
	if s.ID == "" {
		s.ID = uuid.New().String()
	}
	return nil
}
