package chat

import (
	"context"
	"fmt"
	"strings"

	apperrors "github.com/Malowking/ragchat/core/errors"
	coreModel "github.com/Malowking/ragchat/core/model"
	"github.com/cloudwego/eino/components/model"
	"github.com/cloudwego/eino/components/prompt"
	"github.com/cloudwego/eino/schema"
)

// AssistantPersona 回答阶段的系统人设
const AssistantPersona = "You are a helpful AI assistant. Use the following context to answer the user's question."

// Synthesizer 根据检索到的分块、聊天历史和原问题生成回答
type Synthesizer struct {
	model    model.BaseChatModel
	template prompt.ChatTemplate
}

// NewSynthesizer 创建回答生成器
func NewSynthesizer(cm model.BaseChatModel) (*Synthesizer, error) {
	if cm == nil {
		return nil, fmt.Errorf("chat model cannot be nil")
	}
	return &Synthesizer{
		model: cm,
		template: prompt.FromMessages(schema.FString,
			schema.SystemMessage(AssistantPersona),
			schema.SystemMessage("Context: {context}"),
			schema.MessagesPlaceholder("chat_history", true),
			schema.UserMessage("{input}"),
		),
	}, nil
}

// Synthesize 调用一次模型，原样返回模型输出
func (s *Synthesizer) Synthesize(ctx context.Context, question string, history []*schema.Message, docs []*schema.Document) (string, error) {
	msgs, err := s.template.Format(ctx, map[string]any{
		"context":      FormatContext(docs),
		"chat_history": history,
		"input":        question,
	})
	if err != nil {
		return "", apperrors.Wrap(apperrors.ErrChatFailed, err, "failed to format answer prompt")
	}
	return coreModel.Generate(ctx, s.model, "synthesize", msgs)
}

// FormatContext 分块正文以空行连接
func FormatContext(docs []*schema.Document) string {
	parts := make([]string, 0, len(docs))
	for _, doc := range docs {
		if doc != nil && doc.Content != "" {
			parts = append(parts, doc.Content)
		}
	}
	return strings.Join(parts, "\n\n")
}
