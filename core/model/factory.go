package model

import (
	"context"
	"time"

	"github.com/Malowking/ragchat/core/config"
	apperrors "github.com/Malowking/ragchat/core/errors"
	embeddingOpenAI "github.com/cloudwego/eino-ext/components/embedding/openai"
	"github.com/cloudwego/eino-ext/components/model/openai"
	"github.com/cloudwego/eino-ext/components/model/qwen"
	"github.com/cloudwego/eino/components/embedding"
	einoModel "github.com/cloudwego/eino/components/model"
	"github.com/cloudwego/eino/schema"
	"github.com/gogf/gf/v2/frame/g"
)

const requestTimeout = 2 * time.Minute

// NewEmbedder 创建 OpenAI 兼容（含 Azure）的 embedding 客户端
func NewEmbedder(ctx context.Context, cfg *config.EmbeddingConfig) (embedding.Embedder, error) {
	if cfg == nil || cfg.Model == "" {
		return nil, apperrors.New(apperrors.ErrModelConfigInvalid, "embedding model not configured")
	}

	embCfg := &embeddingOpenAI.EmbeddingConfig{
		Timeout:    requestTimeout,
		APIKey:     cfg.APIKey,
		BaseURL:    cfg.BaseURL,
		Model:      cfg.Model,
		ByAzure:    cfg.ByAzure,
		APIVersion: cfg.APIVersion,
	}
	if cfg.Dimensions > 0 {
		dim := cfg.Dimensions
		embCfg.Dimensions = &dim
	}

	embedder, err := embeddingOpenAI.NewEmbedder(ctx, embCfg)
	if err != nil {
		return nil, apperrors.Wrap(apperrors.ErrModelConfigInvalid, err, "failed to create embedder")
	}
	g.Log().Infof(ctx, "Embedding model: %s (azure: %v)", cfg.Model, cfg.ByAzure)
	return embedder, nil
}

// NewChatModel 按 provider 创建对话模型
func NewChatModel(ctx context.Context, cfg *config.LLMConfig) (einoModel.BaseChatModel, error) {
	if cfg == nil || cfg.Model == "" {
		return nil, apperrors.New(apperrors.ErrModelConfigInvalid, "llm model not configured")
	}

	var (
		cm  einoModel.BaseChatModel
		err error
	)
	switch cfg.Provider {
	case config.ProviderOpenAI, "":
		cm, err = openai.NewChatModel(ctx, &openai.ChatModelConfig{
			APIKey:     cfg.APIKey,
			BaseURL:    cfg.BaseURL,
			Model:      cfg.Model,
			ByAzure:    cfg.ByAzure,
			APIVersion: cfg.APIVersion,
			Timeout:    requestTimeout,
		})
	case config.ProviderQwen:
		cm, err = qwen.NewChatModel(ctx, &qwen.ChatModelConfig{
			APIKey:  cfg.APIKey,
			BaseURL: cfg.BaseURL,
			Model:   cfg.Model,
			Timeout: requestTimeout,
		})
	default:
		return nil, apperrors.Newf(apperrors.ErrModelConfigInvalid, "unsupported llm provider: %s", cfg.Provider)
	}
	if err != nil {
		return nil, apperrors.Wrapf(apperrors.ErrModelConfigInvalid, err, "failed to create %s chat model", cfg.Provider)
	}

	g.Log().Infof(ctx, "Chat model: %s (%s)", cfg.Model, cfg.Provider)
	return cm, nil
}

// Generate 单次调用模型并返回文本，失败统一包装为 ErrLLMCallFailed
func Generate(ctx context.Context, cm einoModel.BaseChatModel, stage string, msgs []*schema.Message) (string, error) {
	resp, err := cm.Generate(ctx, msgs)
	if err != nil {
		return "", apperrors.Wrapf(apperrors.ErrLLMCallFailed, err, "%s: llm call failed", stage)
	}
	if resp == nil {
		return "", apperrors.Newf(apperrors.ErrLLMCallFailed, "%s: empty llm response", stage)
	}
	return resp.Content, nil
}
