// Package modeltest 提供不依赖外部服务的 embedding 与对话模型替身，用于测试。
package modeltest

import (
	"context"
	"fmt"
	"hash/fnv"
	"math"
	"strings"
	"sync"
	"unicode"

	"github.com/cloudwego/eino/components/embedding"
)

// HashEmbedder 把文本按词哈希到固定维度的词袋向量，相同词越多余弦相似度越高
type HashEmbedder struct {
	Dim int
	// Err 非空时每次调用都返回该错误
	Err error

	mu    sync.Mutex
	calls int
}

var _ embedding.Embedder = (*HashEmbedder)(nil)

func NewHashEmbedder(dim int) *HashEmbedder {
	return &HashEmbedder{Dim: dim}
}

func (e *HashEmbedder) EmbedStrings(ctx context.Context, texts []string, opts ...embedding.Option) ([][]float64, error) {
	e.mu.Lock()
	e.calls++
	e.mu.Unlock()

	if e.Err != nil {
		return nil, e.Err
	}
	if e.Dim <= 0 {
		return nil, fmt.Errorf("invalid dimension %d", e.Dim)
	}

	out := make([][]float64, len(texts))
	for i, text := range texts {
		vec := make([]float64, e.Dim)
		for _, tok := range Tokenize(text) {
			h := fnv.New32a()
			_, _ = h.Write([]byte(tok))
			vec[h.Sum32()%uint32(e.Dim)]++
		}
		var norm float64
		for _, v := range vec {
			norm += v * v
		}
		if norm > 0 {
			norm = math.Sqrt(norm)
			for j := range vec {
				vec[j] /= norm
			}
		}
		out[i] = vec
	}
	return out, nil
}

// Calls 返回 EmbedStrings 被调用的次数
func (e *HashEmbedder) Calls() int {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.calls
}

// Tokenize 小写化并按非字母数字切词
func Tokenize(text string) []string {
	return strings.FieldsFunc(strings.ToLower(text), func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsNumber(r)
	})
}
