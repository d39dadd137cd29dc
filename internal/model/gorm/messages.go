package gorm

import (
	"time"

	"gorm.io/gorm"
)

// Message 一问一答为一条记录
type Message struct {
	ID        uint64    `gorm:"primaryKey;column:id;autoIncrement"`
	SessionID string    `gorm:"column:session_id;type:varchar(64);not null;index"`
	Question  string    `gorm:"column:question;type:text;not null"`
	Answer    string    `gorm:"column:answer;type:text"`
	CreatedAt time.Time `gorm:"column:created_at;index"`
	EditedAt  time.Time `gorm:"column:edited_at"`
}

// TableName 设置表名
func (Message) TableName() string {
	return "messages"
}

// BeforeCreate 未编辑过的消息 edited_at 与 created_at 相同
func (m *Message) BeforeCreate(tx *gorm.DB) error {
	fillTimestamps(&m.CreatedAt, &m.EditedAt)
	return nil
}

func fillTimestamps(createdAt, editedAt *time.Time) {
	if createdAt.IsZero() {
		*createdAt = time.Now()
	}
	if editedAt.IsZero() {
		*editedAt = *createdAt
	}
}
