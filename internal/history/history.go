package history

import (
	"context"

	apperrors "github.com/Malowking/ragchat/core/errors"
	"github.com/Malowking/ragchat/internal/dao"
	gormModel "github.com/Malowking/ragchat/internal/model/gorm"
	"github.com/cloudwego/eino/schema"
)

// Role 历史轮次的发言方
type Role string

const (
	RoleHuman Role = "human"
	RoleAI    Role = "ai"
)

// Turn 一个带角色标记的历史轮次
type Turn struct {
	Role    Role   `json:"role"`
	Content string `json:"content"`
}

// Store 聊天历史来源
type Store interface {
	// GetHistory 最近 limit 条问答，按时间正序展开为轮次
	GetHistory(ctx context.Context, sessionID string, limit int) ([]Turn, error)
}

// Invalidator 会话写入新消息后清理缓存的历史
type Invalidator interface {
	Invalidate(ctx context.Context, sessionID string) error
}

// MessageLister 按会话读取最近消息
type MessageLister interface {
	ListRecent(ctx context.Context, sessionID string, limit int) ([]*gormModel.Message, error)
}

// Manager 基于消息表的聊天历史
type Manager struct {
	messages MessageLister
}

var _ Store = (*Manager)(nil)

// NewManager messages 为 nil 时使用 dao.Message
func NewManager(messages MessageLister) *Manager {
	if messages == nil {
		messages = dao.Message
	}
	return &Manager{messages: messages}
}

// GetHistory 实现 Store
func (h *Manager) GetHistory(ctx context.Context, sessionID string, limit int) ([]Turn, error) {
	if limit <= 0 {
		return nil, apperrors.Newf(apperrors.ErrInvalidParameter, "history limit must be positive, got %d", limit)
	}
	messages, err := h.messages.ListRecent(ctx, sessionID, limit)
	if err != nil {
		return nil, err
	}
	return Turns(messages), nil
}

// Turns 每条问答展开为 human 轮次加 ai 轮次，空回答不产生 ai 轮次
func Turns(messages []*gormModel.Message) []Turn {
	turns := make([]Turn, 0, 2*len(messages))
	for _, msg := range messages {
		if msg == nil {
			continue
		}
		turns = append(turns, Turn{Role: RoleHuman, Content: msg.Question})
		if msg.Answer != "" {
			turns = append(turns, Turn{Role: RoleAI, Content: msg.Answer})
		}
	}
	return turns
}

// ToSchemaMessages 转换为 eino 消息，供提示词模板的 chat_history 占位符使用
func ToSchemaMessages(turns []Turn) []*schema.Message {
	msgs := make([]*schema.Message, 0, len(turns))
	for _, turn := range turns {
		switch turn.Role {
		case RoleHuman:
			msgs = append(msgs, schema.UserMessage(turn.Content))
		case RoleAI:
			msgs = append(msgs, schema.AssistantMessage(turn.Content, nil))
		}
	}
	return msgs
}
