package gorm

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMessageBeforeCreateFillsTimestamps(t *testing.T) {
	m := &Message{SessionID: "s", Question: "q"}
	require.NoError(t, m.BeforeCreate(nil))
	assert.False(t, m.CreatedAt.IsZero())
	assert.Equal(t, m.CreatedAt, m.EditedAt)

	created := time.Date(2024, 1, 2, 3, 4, 5, 0, time.UTC)
	edited := created.Add(time.Hour)
	m = &Message{CreatedAt: created, EditedAt: edited}
	require.NoError(t, m.BeforeCreate(nil))
	assert.Equal(t, created, m.CreatedAt)
	assert.Equal(t, edited, m.EditedAt)
}

func TestUploadedFile(t *testing.T) {
	f := &UploadedFile{ID: 42, SessionID: "s", Name: "a.txt"}
	require.NoError(t, f.BeforeCreate(nil))
	assert.Equal(t, f.CreatedAt, f.EditedAt)
	assert.Equal(t, "42", f.DocumentID())
}

func TestBeforeCreateGeneratesIDs(t *testing.T) {
	s := &ChatSession{UserID: "u"}
	require.NoError(t, s.BeforeCreate(nil))
	assert.Len(t, s.ID, 36)

	kept := &ChatSession{ID: "fixed"}
	require.NoError(t, kept.BeforeCreate(nil))
	assert.Equal(t, "fixed", kept.ID)

	u := &User{Email: AdminEmail}
	require.NoError(t, u.BeforeCreate(nil))
	assert.NotEmpty(t, u.ID)
}

func TestTableNames(t *testing.T) {
	assert.Equal(t, "users", User{}.TableName())
	assert.Equal(t, "chat_sessions", ChatSession{}.TableName())
	assert.Equal(t, "messages", Message{}.TableName())
	assert.Equal(t, "uploaded_files", UploadedFile{}.TableName())
}
