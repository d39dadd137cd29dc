package history

import (
	"context"
	"errors"
	"testing"

	apperrors "github.com/Malowking/ragchat/core/errors"
	gormModel "github.com/Malowking/ragchat/internal/model/gorm"
	"github.com/cloudwego/eino/schema"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeLister struct {
	messages  []*gormModel.Message
	err       error
	lastLimit int
}

func (f *fakeLister) ListRecent(ctx context.Context, sessionID string, limit int) ([]*gormModel.Message, error) {
	f.lastLimit = limit
	if f.err != nil {
		return nil, f.err
	}
	if limit > 0 && len(f.messages) > limit {
		return f.messages[len(f.messages)-limit:], nil
	}
	return f.messages, nil
}

func TestTurns(t *testing.T) {
	turns := Turns([]*gormModel.Message{
		{Question: "What is X?", Answer: "X is a letter."},
		{Question: "unanswered"},
		nil,
		{Question: "tell me more", Answer: "More about X."},
	})

	assert.Equal(t, []Turn{
		{Role: RoleHuman, Content: "What is X?"},
		{Role: RoleAI, Content: "X is a letter."},
		{Role: RoleHuman, Content: "unanswered"},
		{Role: RoleHuman, Content: "tell me more"},
		{Role: RoleAI, Content: "More about X."},
	}, turns)

	assert.Empty(t, Turns(nil))
}

func TestToSchemaMessages(t *testing.T) {
	msgs := ToSchemaMessages([]Turn{
		{Role: RoleHuman, Content: "hi"},
		{Role: RoleAI, Content: "hello"},
		{Role: "system", Content: "ignored"},
	})
	require.Len(t, msgs, 2)
	assert.Equal(t, schema.User, msgs[0].Role)
	assert.Equal(t, "hi", msgs[0].Content)
	assert.Equal(t, schema.Assistant, msgs[1].Role)
	assert.Equal(t, "hello", msgs[1].Content)
}

func TestManagerGetHistory(t *testing.T) {
	ctx := context.Background()
	lister := &fakeLister{messages: []*gormModel.Message{
		{Question: "q1", Answer: "a1"},
		{Question: "q2", Answer: "a2"},
		{Question: "q3", Answer: "a3"},
	}}
	m := NewManager(lister)

	turns, err := m.GetHistory(ctx, "s1", 2)
	require.NoError(t, err)
	assert.Equal(t, 2, lister.lastLimit)
	assert.Equal(t, []Turn{
		{Role: RoleHuman, Content: "q2"},
		{Role: RoleAI, Content: "a2"},
		{Role: RoleHuman, Content: "q3"},
		{Role: RoleAI, Content: "a3"},
	}, turns)

	t.Run("window must be bounded", func(t *testing.T) {
		lister.lastLimit = -1
		_, err := m.GetHistory(ctx, "s1", 0)
		assert.True(t, apperrors.Is(err, apperrors.ErrInvalidParameter))
		assert.Equal(t, -1, lister.lastLimit)
	})

	lister.err = errors.New("db down")
	_, err = m.GetHistory(ctx, "s1", 2)
	assert.Error(t, err)
}
