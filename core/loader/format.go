package loader

import (
	"path/filepath"
	"strings"

	apperrors "github.com/Malowking/ragchat/core/errors"
)

// Format 支持的文档格式
type Format string

const (
	FormatPDF  Format = "pdf"
	FormatDOC  Format = "doc"
	FormatDOCX Format = "docx"
	FormatHTML Format = "html"
	FormatCSV  Format = "csv"
	FormatJSON Format = "json"
	FormatTXT  Format = "txt"
)

// Formats 全部支持的格式，Dispatcher 构建时必须为每一项注册解析器
var Formats = []Format{FormatPDF, FormatDOC, FormatDOCX, FormatHTML, FormatCSV, FormatJSON, FormatTXT}

// FormatFromPath 根据文件扩展名识别格式，不在支持集合内时返回 ErrUnsupportedFormat
func FormatFromPath(path string) (Format, error) {
	ext := strings.ToLower(strings.TrimPrefix(filepath.Ext(path), "."))
	for _, f := range Formats {
		if string(f) == ext {
			return f, nil
		}
	}
	if ext == "" {
		return "", apperrors.Newf(apperrors.ErrUnsupportedFormat, "unsupported file type: %s has no extension", filepath.Base(path))
	}
	return "", apperrors.Newf(apperrors.ErrUnsupportedFormat, "unsupported file type: .%s", ext)
}
