package dao

import (
	"context"

	gormModel "github.com/Malowking/ragchat/internal/model/gorm"
	"github.com/gogf/gf/v2/frame/g"
)

// MessageDAO 消息数据访问对象
type MessageDAO struct{}

var Message = &MessageDAO{}

// Create 创建消息
func (d *MessageDAO) Create(ctx context.Context, message *gormModel.Message) error {
	if err := GetDB().WithContext(ctx).Create(message).Error; err != nil {
		g.Log().Errorf(ctx, "创建消息失败: %v", err)
		return err
	}
	return nil
}

// ListRecent 取最近 limit 条消息并按时间正序返回，limit<=0 表示全部
func (d *MessageDAO) ListRecent(ctx context.Context, sessionID string, limit int) ([]*gormModel.Message, error) {
	if limit <= 0 {
		return d.List(ctx, sessionID)
	}

	var messages []*gormModel.Message
	err := GetDB().WithContext(ctx).
		Where("session_id = ?", sessionID).
		Order("created_at DESC").Order("id DESC").
		Limit(limit).
		Find(&messages).Error
	if err != nil {
		g.Log().Errorf(ctx, "查询最近消息失败: %v", err)
		return nil, err
	}
	for i, j := 0, len(messages)-1; i < j; i, j = i+1, j-1 {
		messages[i], messages[j] = messages[j], messages[i]
	}
	return messages, nil
}

// List 会话的全部消息，按时间正序
func (d *MessageDAO) List(ctx context.Context, sessionID string) ([]*gormModel.Message, error) {
	var messages []*gormModel.Message
	err := GetDB().WithContext(ctx).
		Where("session_id = ?", sessionID).
		Order("created_at ASC").Order("id ASC").
		Find(&messages).Error
	if err != nil {
		g.Log().Errorf(ctx, "查询消息列表失败: %v", err)
		return nil, err
	}
	return messages, nil
}
