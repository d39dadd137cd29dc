package common

import (
	"regexp"
	"strings"
)

var (
	uuidWithHyphenRe    = regexp.MustCompile(`^[a-f0-9]{8}-[a-f0-9]{4}-[a-f0-9]{4}-[a-f0-9]{4}-[a-f0-9]{12}$`)
	uuidWithoutHyphenRe = regexp.MustCompile(`^[a-f0-9]{32}$`)
	collectionNameRe    = regexp.MustCompile(`^[a-zA-Z][a-zA-Z0-9_]*$`)
)

// SanitizeMilvusString 转义 Milvus 表达式中的特殊字符，防止表达式注入
func SanitizeMilvusString(s string) string {
	// 反斜杠必须先转义
	s = strings.ReplaceAll(s, `\`, `\\`)
	s = strings.ReplaceAll(s, `"`, `\"`)
	return s
}

// ValidateUUID 校验会话 ID 格式，支持带连字符和 32 位无连字符两种写法
func ValidateUUID(id string) bool {
	lower := strings.ToLower(id)
	return uuidWithHyphenRe.MatchString(lower) || uuidWithoutHyphenRe.MatchString(lower)
}

// ValidateCollectionName 集合名：1-255 字符，字母开头，只含字母、数字、下划线
func ValidateCollectionName(name string) bool {
	if len(name) == 0 || len(name) > 255 {
		return false
	}
	return collectionNameRe.MatchString(name)
}
