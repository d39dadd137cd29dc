package cmd

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"testing"
	"time"

	apperrors "github.com/Malowking/ragchat/core/errors"
	"github.com/gogf/gf/v2/errors/gcode"
	"github.com/gogf/gf/v2/errors/gerror"
	"github.com/gogf/gf/v2/frame/g"
	"github.com/gogf/gf/v2/net/ghttp"
	"github.com/gogf/gf/v2/util/guid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestErrorResponse(t *testing.T) {
	t.Run("chat failure hides the cause", func(t *testing.T) {
		cause := apperrors.Wrap(apperrors.ErrLLMCallFailed, errors.New("prompt: The capital of France is Paris."), "llm call failed")
		err := apperrors.Wrap(apperrors.ErrChatFailed, cause, "failed to process chat request")

		code, status, msg := errorResponse(err)
		assert.Equal(t, int(apperrors.ErrChatFailed), code.Code())
		assert.Equal(t, http.StatusInternalServerError, status)
		assert.Equal(t, "failed to process chat request", msg)
		assert.NotContains(t, msg, "Paris")
	})

	t.Run("ingestion failure names the file", func(t *testing.T) {
		err := apperrors.Wrapf(apperrors.ErrIndexWrite, errors.New("zip: not a valid zip file"), "failed to index %s", "broken.docx")
		code, status, msg := errorResponse(err)
		assert.Equal(t, int(apperrors.ErrIndexWrite), code.Code())
		assert.Equal(t, http.StatusInternalServerError, status)
		assert.Contains(t, msg, "broken.docx")
		assert.Contains(t, msg, "not a valid zip file")
	})

	t.Run("status follows the business code", func(t *testing.T) {
		_, status, _ := errorResponse(apperrors.New(apperrors.ErrUnsupportedFormat, "unsupported file type: .exe"))
		assert.Equal(t, http.StatusBadRequest, status)

		_, status, _ = errorResponse(fmt.Errorf("handler: %w", apperrors.New(apperrors.ErrSessionNotFound, "session not found")))
		assert.Equal(t, http.StatusNotFound, status)
	})

	t.Run("validation error", func(t *testing.T) {
		code, status, _ := errorResponse(gerror.NewCode(gcode.CodeValidationFailed, "question is required"))
		assert.Equal(t, gcode.CodeValidationFailed, code)
		assert.Equal(t, http.StatusBadRequest, status)
	})

	t.Run("plain error", func(t *testing.T) {
		code, status, msg := errorResponse(errors.New("boom"))
		assert.Equal(t, gcode.CodeInternalError, code)
		assert.Equal(t, http.StatusInternalServerError, status)
		assert.Equal(t, "boom", msg)
	})
}

func TestMiddlewareHandlerResponse(t *testing.T) {
	s := g.Server(guid.S())
	s.Group("/api", func(group *ghttp.RouterGroup) {
		group.Middleware(MiddlewareHandlerResponse)
		group.ALL("/ok", func(r *ghttp.Request) {})
		group.ALL("/chat-failed", func(r *ghttp.Request) {
			cause := apperrors.New(apperrors.ErrLLMCallFailed, "context: The capital of France is Paris.")
			r.SetError(apperrors.Wrap(apperrors.ErrChatFailed, cause, "failed to process chat request"))
		})
		group.ALL("/bad-format", func(r *ghttp.Request) {
			r.SetError(apperrors.New(apperrors.ErrUnsupportedFormat, "unsupported file type: .exe"))
		})
	})
	s.SetDumpRouterMap(false)
	require.NoError(t, s.Start())
	defer s.Shutdown()
	time.Sleep(100 * time.Millisecond)

	ctx := context.Background()
	client := g.Client()
	client.SetPrefix(fmt.Sprintf("http://127.0.0.1:%d/api", s.GetListenedPort()))

	tests := []struct {
		path       string
		wantStatus int
		wantBody   []string
		notInBody  string
	}{
		{"/ok", http.StatusOK, []string{`"code":0`}, ""},
		{"/chat-failed", http.StatusInternalServerError, []string{`"code":7003`, `"message":"failed to process chat request"`}, "Paris"},
		{"/bad-format", http.StatusBadRequest, []string{`"code":4010`, "unsupported file type: .exe"}, ""},
	}
	for _, tt := range tests {
		t.Run(tt.path, func(t *testing.T) {
			resp, err := client.Post(ctx, tt.path)
			require.NoError(t, err)
			defer resp.Close()

			assert.Equal(t, tt.wantStatus, resp.StatusCode)
			body := resp.ReadAllString()
			for _, want := range tt.wantBody {
				assert.Contains(t, body, want)
			}
			if tt.notInBody != "" {
				assert.NotContains(t, body, tt.notInBody)
			}
		})
	}
}
