package modeltest

import (
	"context"
	"fmt"
	"sync"

	"github.com/cloudwego/eino/components/model"
	"github.com/cloudwego/eino/schema"
)

// ChatModel 可编排的对话模型替身，记录每次调用的输入
type ChatModel struct {
	// Reply 根据输入消息生成回复；为空时返回 Replies 中的下一条
	Reply   func(msgs []*schema.Message) (string, error)
	Replies []string

	mu    sync.Mutex
	calls [][]*schema.Message
}

var _ model.BaseChatModel = (*ChatModel)(nil)

// NewChatModel 按顺序返回固定回复
func NewChatModel(replies ...string) *ChatModel {
	return &ChatModel{Replies: replies}
}

func (m *ChatModel) Generate(ctx context.Context, input []*schema.Message, opts ...model.Option) (*schema.Message, error) {
	m.mu.Lock()
	idx := len(m.calls)
	copied := make([]*schema.Message, len(input))
	copy(copied, input)
	m.calls = append(m.calls, copied)
	m.mu.Unlock()

	if m.Reply != nil {
		content, err := m.Reply(input)
		if err != nil {
			return nil, err
		}
		return schema.AssistantMessage(content, nil), nil
	}
	if idx >= len(m.Replies) {
		return nil, fmt.Errorf("unexpected call #%d", idx+1)
	}
	return schema.AssistantMessage(m.Replies[idx], nil), nil
}

func (m *ChatModel) Stream(ctx context.Context, input []*schema.Message, opts ...model.Option) (*schema.StreamReader[*schema.Message], error) {
	msg, err := m.Generate(ctx, input, opts...)
	if err != nil {
		return nil, err
	}
	return schema.StreamReaderFromArray([]*schema.Message{msg}), nil
}

// Calls 返回每次调用收到的消息
func (m *ChatModel) Calls() [][]*schema.Message {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([][]*schema.Message, len(m.calls))
	copy(out, m.calls)
	return out
}
