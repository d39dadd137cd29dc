package common

import (
	"regexp"
	"strings"

	"golang.org/x/text/unicode/norm"
)

// CleanProfile 文本清洗配置
type CleanProfile int

const (
	ProfileCommon    CleanProfile = iota // 基础清理 + 非标准空格转换
	ProfileEmbedding                     // 向量化友好（标准化空格和换行）
	ProfileDatabase                      // 入库前清理（额外过滤私有区字符）
)

var (
	// 多个空格/制表符合并为一个空格
	spaceRe = regexp.MustCompile(`[ \t\f\v]+`)
	// 3 个及以上换行合并为段落分隔
	newlineRe = regexp.MustCompile(`\n{3,}`)
)

var zeroWidthRunes = map[rune]bool{
	'\u200B': true,
	'\u200C': true,
	'\u200D': true,
	'\uFEFF': true, // BOM
	'\u2060': true,
	'\u180E': true,
}

// CleanText 统一的文本清洗入口。非法 UTF-8 字节会被替换后继续处理
func CleanText(s string, profile CleanProfile) string {
	s = strings.ToValidUTF8(s, "\uFFFD")

	var b strings.Builder
	b.Grow(len(s))
	for _, r := range s {
		switch {
		case r == '\n' || r == '\t' || r == '\r':
			b.WriteRune(r)
		case r < 0x20 || r == 0x7F:
			// NULL 与其他控制字符
		case zeroWidthRunes[r]:
		case profile == ProfileDatabase && isPrivateUse(r):
		case isNonStandardSpace(r):
			b.WriteRune(' ')
		default:
			b.WriteRune(r)
		}
	}

	s = norm.NFC.String(b.String())
	if profile == ProfileEmbedding {
		s = normalizeWhitespace(s)
	}
	return s
}

// normalizeWhitespace 统一换行符，合并多余空白，保留段落分隔
func normalizeWhitespace(s string) string {
	s = strings.ReplaceAll(s, "\r\n", "\n")
	s = strings.ReplaceAll(s, "\r", "\n")
	s = spaceRe.ReplaceAllString(s, " ")
	s = newlineRe.ReplaceAllString(s, "\n\n")
	return strings.TrimSpace(s)
}

func isNonStandardSpace(r rune) bool {
	switch {
	case r == '\u00A0', r == '\u1680', r == '\u202F', r == '\u205F', r == '\u3000':
		return true
	case r >= '\u2000' && r <= '\u200A':
		return true
	}
	return false
}

// isPrivateUse U+E000..U+F8FF 以及 15、16 平面私有区
func isPrivateUse(r rune) bool {
	return (r >= 0xE000 && r <= 0xF8FF) ||
		(r >= 0xF0000 && r <= 0xFFFFD) ||
		(r >= 0x100000 && r <= 0x10FFFD)
}
