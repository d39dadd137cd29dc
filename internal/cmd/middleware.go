package cmd

import (
	"net/http"
	"strings"

	apperrors "github.com/Malowking/ragchat/core/errors"
	"github.com/gogf/gf/v2/errors/gcode"
	"github.com/gogf/gf/v2/errors/gerror"
	"github.com/gogf/gf/v2/net/ghttp"
)

const (
	// 文档上传大小限制: 100MB
	maxDocumentUploadSize = 100 << 20
	// 对话附带文件大小限制: 10MB
	maxChatFileUploadSize = 10 << 20
)

// MiddlewareMultipartMaxMemory 根据不同的路由设置不同的文件上传大小限制
func MiddlewareMultipartMaxMemory(r *ghttp.Request) {
	contentType := r.Header.Get("Content-Type")
	if !strings.HasPrefix(contentType, "multipart/form-data") {
		r.Middleware.Next()
		return
	}

	var (
		limit int64
		msg   string
	)
	switch {
	case strings.HasPrefix(r.URL.Path, "/api/v1/upload-doc"):
		limit, msg = maxDocumentUploadSize, "File size exceeds the document upload limit (100MB)"
	case strings.HasPrefix(r.URL.Path, "/api/v1/chat"):
		limit, msg = maxChatFileUploadSize, "File size exceeds the chat upload limit (10MB)"
	}
	if limit > 0 {
		if err := r.ParseMultipartForm(limit); err != nil {
			r.Response.WriteHeader(http.StatusRequestEntityTooLarge)
			r.Response.WriteJson(ghttp.DefaultHandlerResponse{
				Code:    gcode.CodeInvalidParameter.Code(),
				Message: msg,
				Data:    nil,
			})
			return
		}
	}

	r.Middleware.Next()
}

// MiddlewareCORS 允许配置中的来源跨域访问，未配置时放开全部来源
func MiddlewareCORS(origins []string) ghttp.HandlerFunc {
	return func(r *ghttp.Request) {
		if len(origins) == 0 {
			r.Response.CORSDefault()
			r.Middleware.Next()
			return
		}
		opts := r.Response.DefaultCORSOptions()
		opts.AllowDomain = origins
		if origin := r.Header.Get("Origin"); origin != "" && r.Response.CORSAllowedOrigin(opts) {
			opts.AllowOrigin = origin
			r.Response.CORS(opts)
		}
		r.Middleware.Next()
	}
}

// MiddlewareHandlerResponse 统一包装响应体为 {code, message, data}
// 业务错误码映射为 HTTP 状态码，对话失败只返回固定提示
func MiddlewareHandlerResponse(r *ghttp.Request) {
	r.Middleware.Next()

	// 处理器已自行写出内容
	if r.Response.BufferLength() > 0 || r.Response.Writer.BytesWritten() > 0 {
		return
	}

	var (
		code gcode.Code = gcode.CodeOK
		msg  string
		res  = r.GetHandlerResponse()
	)
	switch err := r.GetError(); {
	case err != nil:
		var status int
		code, status, msg = errorResponse(err)
		r.Response.WriteHeader(status)
		res = nil
	case r.Response.Status == http.StatusNotFound:
		code = gcode.CodeNotFound
		msg = code.Message()
		r.SetError(gerror.NewCode(code, msg))
	case r.Response.Status > 0 && r.Response.Status != http.StatusOK:
		code = gcode.CodeUnknown
		msg = code.Message()
		r.SetError(gerror.NewCode(code, msg))
	default:
		msg = code.Message()
	}

	r.Response.WriteJson(ghttp.DefaultHandlerResponse{
		Code:    code.Code(),
		Message: msg,
		Data:    res,
	})
}

// errorResponse 把错误转换为响应码、HTTP 状态码和消息
func errorResponse(err error) (gcode.Code, int, string) {
	if appErr := apperrors.GetAppError(err); appErr != nil {
		if appErr.Code == apperrors.ErrChatFailed {
			return appErr.Code.GCode(), appErr.Code.HTTPStatusCode(), appErr.Message
		}
		return appErr.Code.GCode(), appErr.Code.HTTPStatusCode(), err.Error()
	}

	code := gerror.Code(err)
	switch code {
	case gcode.CodeNil:
		return gcode.CodeInternalError, http.StatusInternalServerError, err.Error()
	case gcode.CodeValidationFailed, gcode.CodeInvalidParameter, gcode.CodeMissingParameter:
		return code, http.StatusBadRequest, err.Error()
	default:
		return code, http.StatusInternalServerError, err.Error()
	}
}
