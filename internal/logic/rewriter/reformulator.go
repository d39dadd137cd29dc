package rewriter

import (
	"context"
	"fmt"
	"strings"

	apperrors "github.com/Malowking/ragchat/core/errors"
	coreModel "github.com/Malowking/ragchat/core/model"
	"github.com/cloudwego/eino/components/model"
	"github.com/cloudwego/eino/components/prompt"
	"github.com/cloudwego/eino/schema"
	"github.com/gogf/gf/v2/frame/g"
)

// ContextualizeSystemPrompt 只改写问题，不回答
const ContextualizeSystemPrompt = "Given a chat history and the latest user question " +
	"which might reference context in the chat history, " +
	"formulate a standalone question which can be understood " +
	"without the chat history. Do NOT answer the question, " +
	"just reformulate it if needed and otherwise return it as is."

// Reformulator 结合聊天历史把用户输入改写为独立问题
type Reformulator struct {
	model    model.BaseChatModel
	template prompt.ChatTemplate
}

// NewReformulator 创建改写器
func NewReformulator(cm model.BaseChatModel) (*Reformulator, error) {
	if cm == nil {
		return nil, fmt.Errorf("chat model cannot be nil")
	}
	return &Reformulator{
		model: cm,
		template: prompt.FromMessages(schema.FString,
			schema.SystemMessage(ContextualizeSystemPrompt),
			schema.MessagesPlaceholder("chat_history", true),
			schema.UserMessage("{input}"),
		),
	}, nil
}

// Reformulate 调用一次模型，失败直接返回错误，不重试也不回退到原问题
func (r *Reformulator) Reformulate(ctx context.Context, history []*schema.Message, input string) (string, error) {
	msgs, err := r.template.Format(ctx, map[string]any{
		"chat_history": history,
		"input":        input,
	})
	if err != nil {
		return "", apperrors.Wrap(apperrors.ErrRewriteFailed, err, "failed to format reformulation prompt")
	}

	standalone, err := coreModel.Generate(ctx, r.model, "reformulate", msgs)
	if err != nil {
		return "", err
	}
	standalone = strings.TrimSpace(standalone)
	if standalone == "" {
		return "", apperrors.New(apperrors.ErrLLMCallFailed, "reformulate: empty llm response")
	}

	g.Log().Debugf(ctx, "query reformulated: [%s] -> [%s]", input, standalone)
	return standalone, nil
}
