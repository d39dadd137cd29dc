package chat

import (
	"context"
	"fmt"

	apperrors "github.com/Malowking/ragchat/core/errors"
	"github.com/cloudwego/eino/components/retriever"
	"github.com/cloudwego/eino/compose"
	"github.com/cloudwego/eino/schema"
	"github.com/gogf/gf/v2/frame/g"
)

// QueryReformulator 把依赖上下文的问题改写为独立问题
type QueryReformulator interface {
	Reformulate(ctx context.Context, history []*schema.Message, input string) (string, error)
}

// AnswerSynthesizer 基于上下文生成回答
type AnswerSynthesizer interface {
	Synthesize(ctx context.Context, question string, history []*schema.Message, docs []*schema.Document) (string, error)
}

// TurnInput 一轮对话的输入，History 是调用方传入的快照，链路内部不会修改
type TurnInput struct {
	Question string
	History  []*schema.Message
}

// TurnOutput 一轮对话的结果
type TurnOutput struct {
	StandaloneQuery string
	Context         []*schema.Document
	Answer          string
}

// reformulatedTurn 改写阶段交给检索阶段的数据
type reformulatedTurn struct {
	Question        string
	History         []*schema.Message
	StandaloneQuery string
}

// retrievedTurn 检索阶段交给回答阶段的数据
type retrievedTurn struct {
	Question        string
	History         []*schema.Message
	StandaloneQuery string
	Docs            []*schema.Document
}

// Chain 改写 -> 检索 -> 回答，三个阶段严格顺序执行，任一阶段失败则整轮失败
type Chain struct {
	runnable compose.Runnable[*TurnInput, *TurnOutput]
}

// NewChain 编排并编译对话链
func NewChain(ctx context.Context, reformulator QueryReformulator, ret retriever.Retriever, synthesizer AnswerSynthesizer) (*Chain, error) {
	if reformulator == nil || ret == nil || synthesizer == nil {
		return nil, fmt.Errorf("reformulator, retriever and synthesizer are required")
	}

	reformulate := func(ctx context.Context, in *TurnInput) (*reformulatedTurn, error) {
		standalone, err := reformulator.Reformulate(ctx, in.History, in.Question)
		if err != nil {
			return nil, err
		}
		return &reformulatedTurn{
			Question:        in.Question,
			History:         in.History,
			StandaloneQuery: standalone,
		}, nil
	}

	retrieve := func(ctx context.Context, in *reformulatedTurn) (*retrievedTurn, error) {
		docs, err := ret.Retrieve(ctx, in.StandaloneQuery)
		if err != nil {
			return nil, apperrors.Wrap(apperrors.ErrRetrievalFailed, err, "failed to retrieve context")
		}
		return &retrievedTurn{
			Question:        in.Question,
			History:         in.History,
			StandaloneQuery: in.StandaloneQuery,
			Docs:            docs,
		}, nil
	}

	synthesize := func(ctx context.Context, in *retrievedTurn) (*TurnOutput, error) {
		answer, err := synthesizer.Synthesize(ctx, in.Question, in.History, in.Docs)
		if err != nil {
			return nil, err
		}
		return &TurnOutput{
			StandaloneQuery: in.StandaloneQuery,
			Context:         in.Docs,
			Answer:          answer,
		}, nil
	}

	runnable, err := compose.NewChain[*TurnInput, *TurnOutput]().
		AppendLambda(compose.InvokableLambda(reformulate), compose.WithNodeName("reformulate")).
		AppendLambda(compose.InvokableLambda(retrieve), compose.WithNodeName("retrieve")).
		AppendLambda(compose.InvokableLambda(synthesize), compose.WithNodeName("synthesize")).
		Compile(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to compile chat chain: %w", err)
	}
	return &Chain{runnable: runnable}, nil
}

// Run 执行一轮对话
func (c *Chain) Run(ctx context.Context, in *TurnInput) (*TurnOutput, error) {
	if in == nil {
		return nil, apperrors.New(apperrors.ErrInvalidParameter, "turn input cannot be nil")
	}
	out, err := c.runnable.Invoke(ctx, in)
	if err != nil {
		return nil, err
	}
	g.Log().Debugf(ctx, "chat turn done, standalone query: %s, context chunks: %d", out.StandaloneQuery, len(out.Context))
	return out, nil
}
