package chat

import (
	"context"
	"errors"
	"sync"
	"testing"

	apperrors "github.com/Malowking/ragchat/core/errors"
	"github.com/cloudwego/eino/components/retriever"
	"github.com/cloudwego/eino/schema"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// stageRecorder 记录各阶段的调用顺序和收到的输入
type stageRecorder struct {
	mu     sync.Mutex
	stages []string

	standalone string
	docs       []*schema.Document
	answer     string

	reformulateErr error
	retrieveErr    error
	synthesizeErr  error

	gotQuery    string
	gotQuestion string
	gotHistory  []*schema.Message
	gotDocs     []*schema.Document
}

func (r *stageRecorder) record(stage string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.stages = append(r.stages, stage)
}

func (r *stageRecorder) Reformulate(ctx context.Context, history []*schema.Message, input string) (string, error) {
	r.record("reformulate")
	if r.reformulateErr != nil {
		return "", r.reformulateErr
	}
	return r.standalone, nil
}

func (r *stageRecorder) Retrieve(ctx context.Context, query string, opts ...retriever.Option) ([]*schema.Document, error) {
	r.record("retrieve")
	r.gotQuery = query
	if r.retrieveErr != nil {
		return nil, r.retrieveErr
	}
	return r.docs, nil
}

func (r *stageRecorder) Synthesize(ctx context.Context, question string, history []*schema.Message, docs []*schema.Document) (string, error) {
	r.record("synthesize")
	r.gotQuestion = question
	r.gotHistory = history
	r.gotDocs = docs
	if r.synthesizeErr != nil {
		return "", r.synthesizeErr
	}
	return r.answer, nil
}

func newRecorderChain(t *testing.T, r *stageRecorder) *Chain {
	t.Helper()
	c, err := NewChain(context.Background(), r, r, r)
	require.NoError(t, err)
	return c
}

func TestNewChainRequiresStages(t *testing.T) {
	_, err := NewChain(context.Background(), nil, nil, nil)
	assert.Error(t, err)
}

func TestChainRunsStagesInOrder(t *testing.T) {
	docs := []*schema.Document{{ID: "c1", Content: "X is a letter."}}
	r := &stageRecorder{
		standalone: "Tell me more about X",
		docs:       docs,
		answer:     "X is the 24th letter.",
	}
	c := newRecorderChain(t, r)

	history := []*schema.Message{schema.UserMessage("What is X?"), schema.AssistantMessage("X is a letter.", nil)}
	out, err := c.Run(context.Background(), &TurnInput{Question: "tell me more", History: history})
	require.NoError(t, err)

	assert.Equal(t, []string{"reformulate", "retrieve", "synthesize"}, r.stages)
	assert.Equal(t, "Tell me more about X", r.gotQuery)
	// 回答阶段使用原问题而不是改写后的问题
	assert.Equal(t, "tell me more", r.gotQuestion)
	assert.Equal(t, history, r.gotHistory)
	assert.Equal(t, docs, r.gotDocs)

	assert.Equal(t, "Tell me more about X", out.StandaloneQuery)
	assert.Equal(t, docs, out.Context)
	assert.Equal(t, "X is the 24th letter.", out.Answer)
}

func TestChainEmptyRetrievalStillAnswers(t *testing.T) {
	r := &stageRecorder{standalone: "q", answer: "I don't have enough context."}
	c := newRecorderChain(t, r)

	out, err := c.Run(context.Background(), &TurnInput{Question: "q"})
	require.NoError(t, err)
	assert.Empty(t, out.Context)
	assert.Equal(t, "I don't have enough context.", out.Answer)
	assert.Equal(t, []string{"reformulate", "retrieve", "synthesize"}, r.stages)
}

func TestChainAbortsOnStageFailure(t *testing.T) {
	llmErr := apperrors.Wrap(apperrors.ErrLLMCallFailed, errors.New("timeout"), "reformulate: llm call failed")

	tests := []struct {
		name       string
		recorder   *stageRecorder
		wantStages []string
		wantCode   apperrors.ErrCode
	}{
		{
			name:       "reformulate",
			recorder:   &stageRecorder{reformulateErr: llmErr},
			wantStages: []string{"reformulate"},
			wantCode:   apperrors.ErrLLMCallFailed,
		},
		{
			name:       "retrieve",
			recorder:   &stageRecorder{standalone: "q", retrieveErr: errors.New("index unavailable")},
			wantStages: []string{"reformulate", "retrieve"},
			wantCode:   apperrors.ErrRetrievalFailed,
		},
		{
			name:       "synthesize",
			recorder:   &stageRecorder{standalone: "q", synthesizeErr: apperrors.New(apperrors.ErrLLMCallFailed, "quota")},
			wantStages: []string{"reformulate", "retrieve", "synthesize"},
			wantCode:   apperrors.ErrLLMCallFailed,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := newRecorderChain(t, tt.recorder)
			out, err := c.Run(context.Background(), &TurnInput{Question: "q"})
			require.Error(t, err)
			assert.Nil(t, out)
			assert.True(t, apperrors.Is(err, tt.wantCode), "got %v", err)
			assert.Equal(t, tt.wantStages, tt.recorder.stages)
		})
	}
}

func TestChainRejectsNilInput(t *testing.T) {
	c := newRecorderChain(t, &stageRecorder{})
	_, err := c.Run(context.Background(), nil)
	assert.True(t, apperrors.Is(err, apperrors.ErrInvalidParameter))
}
