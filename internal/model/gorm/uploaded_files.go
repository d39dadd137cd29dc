package gorm

import (
	"strconv"
	"time"

	"gorm.io/gorm"
)

// UploadedFile 上传文件登记表，ID 同时作为向量索引中的文档 ID
type UploadedFile struct {
	ID          uint64    `gorm:"primaryKey;column:id;autoIncrement"`
	SessionID   string    `gorm:"column:session_id;type:varchar(64);not null;index"`
	Name        string    `gorm:"column:name;type:varchar(255);not null"`
	StoragePath string    `gorm:"column:storage_path;type:varchar(512)"`
	CreatedAt   time.Time `gorm:"column:created_at"`
	EditedAt    time.Time `gorm:"column:edited_at"`
}

// TableName 设置表名
func (UploadedFile) TableName() string {
	return "uploaded_files"
}

// BeforeCreate 未编辑过的文件 edited_at 与 created_at 相同
func (f *UploadedFile) BeforeCreate(tx *gorm.DB) error {
	fillTimestamps(&f.CreatedAt, &f.EditedAt)
	return nil
}

// DocumentID 向量索引中使用的文档 ID
func (f *UploadedFile) DocumentID() string {
	return strconv.FormatUint(f.ID, 10)
}
