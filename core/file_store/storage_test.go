package file_store

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/Malowking/ragchat/core/config"
	apperrors "github.com/Malowking/ragchat/core/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLocalStoreSaveAndDelete(t *testing.T) {
	ctx := context.Background()
	store, err := NewLocalStore(ctx, filepath.Join(t.TempDir(), "upload"))
	require.NoError(t, err)

	path, err := store.Save(ctx, "session-1", "7_notes.txt", strings.NewReader("hello"))
	require.NoError(t, err)
	assert.Equal(t, "7_notes.txt", filepath.Base(path))
	assert.Equal(t, "session-1", filepath.Base(filepath.Dir(path)))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "hello", string(data))

	require.NoError(t, store.Delete(ctx, path))
	_, err = os.Stat(path)
	assert.True(t, os.IsNotExist(err))

	// 重复删除不报错
	assert.NoError(t, store.Delete(ctx, path))
	assert.NoError(t, store.Delete(ctx, ""))
}

func TestLocalStoreStaysInsideBaseDir(t *testing.T) {
	ctx := context.Background()
	base := filepath.Join(t.TempDir(), "upload")
	store, err := NewLocalStore(ctx, base)
	require.NoError(t, err)

	path, err := store.Save(ctx, "../escape", "../../evil.txt", strings.NewReader("x"))
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(path, base+string(filepath.Separator)))
	assert.Equal(t, "evil.txt", filepath.Base(path))

	_, err = store.Save(ctx, "s", "..", strings.NewReader("x"))
	assert.True(t, apperrors.Is(err, apperrors.ErrInvalidParameter))

	outside := filepath.Join(t.TempDir(), "other.txt")
	require.NoError(t, os.WriteFile(outside, []byte("keep"), 0o644))
	err = store.Delete(ctx, outside)
	assert.True(t, apperrors.Is(err, apperrors.ErrInvalidParameter))
	assert.FileExists(t, outside)
}

func TestNewFileStore(t *testing.T) {
	ctx := context.Background()

	_, err := NewFileStore(ctx, nil)
	assert.Error(t, err)

	store, err := NewFileStore(ctx, &config.FileStoreConfig{Type: config.FileStoreLocal, LocalDir: t.TempDir()})
	require.NoError(t, err)
	assert.IsType(t, &LocalStore{}, store)

	_, err = NewFileStore(ctx, &config.FileStoreConfig{Type: "ftp", LocalDir: t.TempDir()})
	assert.True(t, apperrors.Is(err, apperrors.ErrInvalidParameter))

	_, err = NewFileStore(ctx, &config.FileStoreConfig{Type: config.FileStoreMinio, LocalDir: t.TempDir()})
	assert.True(t, apperrors.Is(err, apperrors.ErrInvalidParameter))
}
