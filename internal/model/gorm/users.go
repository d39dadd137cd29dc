package gorm

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// AdminEmail 内置管理员账号，未接入认证前由前端使用它的 ID 发起会话
const AdminEmail = "admin@admin.com"

// User 用户表
type User struct {
	ID        string    `gorm:"primaryKey;column:id;type:varchar(64)"`
	Email     string    `gorm:"column:email;type:varchar(255);uniqueIndex;not null"`
	Name      string    `gorm:"column:name;type:varchar(128)"`
	CreatedAt time.Time `gorm:"column:created_at;autoCreateTime"`
}

// TableName 设置表名
func (User) TableName() string {
	return "users"
}

// BeforeCreate GORM钩子：创建前自动生成ID
func (u *User) BeforeCreate(tx *gorm.DB) error {
	if u.ID == "" {
		u.ID = uuid.New().String()
	}
	return nil
}
