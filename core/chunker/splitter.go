package chunker

import (
	"context"
	"fmt"
	"strings"

	"github.com/cloudwego/eino/components/document"
	"github.com/cloudwego/eino/schema"
)

const (
	DefaultChunkSize    = 1000
	DefaultChunkOverlap = 100

	// MetaChunkIndex 分块在本次切分结果中的序号
	MetaChunkIndex = "chunk_index"
)

// DefaultSeparators 自然边界，按优先级排列：段落、换行、句子、空格
var DefaultSeparators = []string{"\n\n", "\n", ". ", " "}

// Config 分块参数，长度单位为字符（rune）
type Config struct {
	ChunkSize    int
	ChunkOverlap int
	Separators   []string
}

// Splitter 固定大小、带重叠的文本切分器
type Splitter struct {
	size       int
	overlap    int
	separators [][]rune
}

var _ document.Transformer = (*Splitter)(nil)

// NewSplitter 创建切分器，零值参数使用默认值
func NewSplitter(cfg *Config) (*Splitter, error) {
	if cfg == nil {
		cfg = &Config{}
	}
	size, overlap := cfg.ChunkSize, cfg.ChunkOverlap
	if size == 0 {
		size = DefaultChunkSize
	}
	if overlap == 0 && cfg.ChunkSize == 0 {
		overlap = DefaultChunkOverlap
	}
	if size < 0 || overlap < 0 {
		return nil, fmt.Errorf("chunk size and overlap must not be negative")
	}
	if overlap >= size {
		return nil, fmt.Errorf("chunk overlap (%d) must be smaller than chunk size (%d)", overlap, size)
	}

	seps := cfg.Separators
	if seps == nil {
		seps = DefaultSeparators
	}
	s := &Splitter{size: size, overlap: overlap}
	for _, sep := range seps {
		if sep != "" {
			s.separators = append(s.separators, []rune(sep))
		}
	}
	return s, nil
}

// Transform 实现 document.Transformer，每条输入记录独立切分，元数据复制到每个分块
func (s *Splitter) Transform(ctx context.Context, src []*schema.Document, opts ...document.TransformerOption) ([]*schema.Document, error) {
	var chunks []*schema.Document
	for _, doc := range src {
		if doc == nil {
			continue
		}
		for _, text := range s.SplitText(doc.Content) {
			meta := make(map[string]any, len(doc.MetaData)+1)
			for k, v := range doc.MetaData {
				meta[k] = v
			}
			meta[MetaChunkIndex] = len(chunks)

			chunk := &schema.Document{Content: text, MetaData: meta}
			if doc.ID != "" {
				chunk.ID = fmt.Sprintf("%s_%d", doc.ID, len(chunks))
			}
			chunks = append(chunks, chunk)
		}
	}
	return chunks, nil
}

// SplitText 切分单段文本。相邻分块恰好共享 overlap 个字符：
// 下一块从上一块末尾回退 overlap 处开始，分块内容不做裁剪。
func (s *Splitter) SplitText(text string) []string {
	runes := []rune(text)
	n := len(runes)

	var out []string
	start := 0
	for start < n {
		end := start + s.size
		if end >= n {
			end = n
		} else {
			end = s.boundary(runes, start, end)
		}

		if piece := string(runes[start:end]); strings.TrimSpace(piece) != "" {
			out = append(out, piece)
		}
		if end == n {
			break
		}
		start = end - s.overlap
	}
	return out
}

// boundary 在 (start+size/2, limit] 内寻找最靠后的自然边界，找不到时在硬上限处切分
func (s *Splitter) boundary(runes []rune, start, limit int) int {
	floor := start + s.size/2
	for _, sep := range s.separators {
		for i := limit - len(sep); i > floor-len(sep) && i >= start; i-- {
			if !hasPrefixAt(runes, i, sep) {
				continue
			}
			cut := i + len(sep)
			if cut > floor && cut-s.overlap > start {
				return cut
			}
			break
		}
	}
	return limit
}

func hasPrefixAt(runes []rune, i int, sep []rune) bool {
	if i < 0 || i+len(sep) > len(runes) {
		return false
	}
	for j, r := range sep {
		if runes[i+j] != r {
			return false
		}
	}
	return true
}
