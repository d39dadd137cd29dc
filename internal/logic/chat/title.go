package chat

import (
	"context"
	"strings"

	coreModel "github.com/Malowking/ragchat/core/model"
	"github.com/cloudwego/eino/components/model"
	"github.com/cloudwego/eino/components/prompt"
	"github.com/cloudwego/eino/schema"
	"github.com/gogf/gf/v2/frame/g"
)

const (
	titlePrompt = "You are a helpful assistant tasked with naming chat session. \n" +
		"Given the user's input, generate a short, clear title (3-7 words) that summarizes the topic.\n\n" +
		"User Input:\n{user_input}\n\nTitle:"

	maxTitleWords = 7
	maxTitleRunes = 255
)

// TitleGenerator 为新会话生成标题
type TitleGenerator struct {
	model    model.BaseChatModel
	template prompt.ChatTemplate
}

// NewTitleGenerator cm 为 nil 时总是使用问题开头作为标题
func NewTitleGenerator(cm model.BaseChatModel) *TitleGenerator {
	return &TitleGenerator{
		model:    cm,
		template: prompt.FromMessages(schema.FString, schema.UserMessage(titlePrompt)),
	}
}

// Generate 调用一次模型生成标题，失败时退回问题的前几个词，不返回错误
func (t *TitleGenerator) Generate(ctx context.Context, question string) string {
	if t.model == nil {
		return fallbackTitle(question)
	}

	msgs, err := t.template.Format(ctx, map[string]any{"user_input": question})
	if err == nil {
		var title string
		title, err = coreModel.Generate(ctx, t.model, "title", msgs)
		if err == nil {
			if title = cleanTitle(title); title != "" {
				return title
			}
		}
	}
	if err != nil {
		g.Log().Warningf(ctx, "Failed to generate session title, using question prefix: %v", err)
	}
	return fallbackTitle(question)
}

// cleanTitle 去掉模型常见的引号、前缀和多余的行
func cleanTitle(title string) string {
	title = strings.TrimSpace(title)
	if i := strings.IndexByte(title, '\n'); i >= 0 {
		title = strings.TrimSpace(title[:i])
	}
	title = strings.TrimPrefix(title, "Title:")
	title = strings.Trim(strings.TrimSpace(title), `"'`)
	return truncateRunes(title, maxTitleRunes)
}

func fallbackTitle(question string) string {
	words := strings.Fields(question)
	if len(words) > maxTitleWords {
		words = words[:maxTitleWords]
	}
	title := strings.Join(words, " ")
	if title == "" {
		title = "New chat"
	}
	return truncateRunes(title, maxTitleRunes)
}

func truncateRunes(s string, n int) string {
	runes := []rune(s)
	if len(runes) <= n {
		return s
	}
	return string(runes[:n])
}
