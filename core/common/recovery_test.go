package common

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRecoverToError(t *testing.T) {
	ctx := context.Background()

	run := func(fn func() error) (err error) {
		defer RecoverToError(ctx, "test-task", &err)
		return fn()
	}

	t.Run("无panic时保留原错误", func(t *testing.T) {
		assert.NoError(t, run(func() error { return nil }))

		sentinel := errors.New("boom")
		assert.ErrorIs(t, run(func() error { return sentinel }), sentinel)
	})

	t.Run("panic被转换为错误", func(t *testing.T) {
		err := run(func() error { panic("kaboom") })
		require.Error(t, err)
		assert.Contains(t, err.Error(), "test-task")
		assert.Contains(t, err.Error(), "kaboom")
	})

	t.Run("errp为nil时不会再次panic", func(t *testing.T) {
		assert.NotPanics(t, func() {
			defer RecoverToError(ctx, "nil-errp", nil)
			panic("ignored")
		})
	})
}
