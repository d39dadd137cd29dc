package gorm

import (
	"context"
	"errors"

	"github.com/gogf/gf/v2/os/glog"
	"gorm.io/gorm"
)

// Migrate 数据库迁移，并确保管理员账号与系统默认会话存在
func Migrate(db *gorm.DB) error {
	ctx := context.Background()
	err := db.AutoMigrate(
		&User{},
		&ChatSession{},
		&Message{},
		&UploadedFile{},
	)
	if err != nil {
		glog.Error(ctx, "数据库迁移失败:", err)
		return err
	}

	if err := seed(db); err != nil {
		glog.Error(ctx, "初始化默认数据失败:", err)
		return err
	}
	glog.Info(ctx, "数据库迁移成功")
	return nil
}

func seed(db *gorm.DB) error {
	return db.Transaction(func(tx *gorm.DB) error {
		var admin User
		err := tx.Where("email = ?", AdminEmail).First(&admin).Error
		if errors.Is(err, gorm.ErrRecordNotFound) {
			admin = User{Email: AdminEmail, Name: "admin"}
			err = tx.Create(&admin).Error
		}
		if err != nil {
			return err
		}

		var count int64
		if err := tx.Model(&ChatSession{}).Where("is_visible = ?", false).Count(&count).Error; err != nil {
			return err
		}
		if count > 0 {
			return nil
		}
		return tx.Create(&ChatSession{UserID: admin.ID, Title: "system", IsVisible: false}).Error
	})
}
