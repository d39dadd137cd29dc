package dao

import (
	"context"
	"errors"
	"time"

	gormModel "github.com/Malowking/ragchat/internal/model/gorm"
	"github.com/gogf/gf/v2/frame/g"
	"gorm.io/gorm"
)

// SessionDAO 会话数据访问对象
type SessionDAO struct{}

var Session = &SessionDAO{}

// Create 创建可见会话，同时结束该用户最近一个未结束的会话
func (d *SessionDAO) Create(ctx context.Context, userID, title string) (*gormModel.ChatSession, error) {
	session := &gormModel.ChatSession{UserID: userID, Title: title, IsVisible: true}
	err := GetDB().WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var latest gormModel.ChatSession
		err := tx.Where("user_id = ? AND ended_at IS NULL", userID).Order("started_at DESC").First(&latest).Error
		switch {
		case err == nil:
			now := time.Now()
			if err := tx.Model(&latest).Update("ended_at", &now).Error; err != nil {
				return err
			}
		case !errors.Is(err, gorm.ErrRecordNotFound):
			return err
		}
		return tx.Create(session).Error
	})
	if err != nil {
		g.Log().Errorf(ctx, "创建会话失败: %v", err)
		return nil, err
	}
	return session, nil
}

// GetSystemSession 获取最新的系统默认会话ID，不存在时归属管理员创建一个
func (d *SessionDAO) GetSystemSession(ctx context.Context) (string, error) {
	var session gormModel.ChatSession
	err := GetDB().WithContext(ctx).Where("is_visible = ?", false).Order("started_at DESC").First(&session).Error
	if err == nil {
		return session.ID, nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		g.Log().Errorf(ctx, "查询系统会话失败: %v", err)
		return "", err
	}

	adminID, err := User.GetAdminID(ctx)
	if err != nil {
		return "", err
	}
	session = gormModel.ChatSession{UserID: adminID, Title: "system", IsVisible: false}
	if err := GetDB().WithContext(ctx).Create(&session).Error; err != nil {
		g.Log().Errorf(ctx, "创建系统会话失败: %v", err)
		return "", err
	}
	return session.ID, nil
}

// Get 根据ID获取会话，不存在时返回 nil
func (d *SessionDAO) Get(ctx context.Context, sessionID string) (*gormModel.ChatSession, error) {
	var session gormModel.ChatSession
	if err := GetDB().WithContext(ctx).Where("id = ?", sessionID).First(&session).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		g.Log().Errorf(ctx, "查询会话失败: %v", err)
		return nil, err
	}
	return &session, nil
}

// ListByUser 用户的可见会话，最新的在前
func (d *SessionDAO) ListByUser(ctx context.Context, userID string) ([]*gormModel.ChatSession, error) {
	var sessions []*gormModel.ChatSession
	err := GetDB().WithContext(ctx).
		Where("user_id = ? AND is_visible = ?", userID, true).
		Order("started_at DESC").
		Find(&sessions).Error
	if err != nil {
		g.Log().Errorf(ctx, "查询会话列表失败: %v", err)
		return nil, err
	}
	return sessions, nil
}

// Delete 在一个事务中删除会话及其消息和文件登记，返回被删除的文件登记
func (d *SessionDAO) Delete(ctx context.Context, sessionID string) ([]*gormModel.UploadedFile, error) {
	var files []*gormModel.UploadedFile
	err := GetDB().WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("session_id = ?", sessionID).Order("id").Find(&files).Error; err != nil {
			return err
		}
		if err := tx.Where("session_id = ?", sessionID).Delete(&gormModel.UploadedFile{}).Error; err != nil {
			return err
		}
		if err := tx.Where("session_id = ?", sessionID).Delete(&gormModel.Message{}).Error; err != nil {
			return err
		}
		return tx.Where("id = ?", sessionID).Delete(&gormModel.ChatSession{}).Error
	})
	if err != nil {
		g.Log().Errorf(ctx, "删除会话失败: %v", err)
		return nil, err
	}
	return files, nil
}
