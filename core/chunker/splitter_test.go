package chunker

import (
	"context"
	"strings"
	"testing"

	"github.com/cloudwego/eino/schema"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// noBoundaryText 生成不含任何分隔符的文本
func noBoundaryText(n int) string {
	const alphabet = "abcdefghijklmnopqrstuvwxyz0123456789"
	var b strings.Builder
	for i := 0; i < n; i++ {
		b.WriteByte(alphabet[(i*7+i/36)%len(alphabet)])
	}
	return b.String()
}

func expectedChunks(l, size, overlap int) int {
	if l <= size {
		return 1
	}
	step := size - overlap
	return (l - overlap + step - 1) / step
}

func newDefaultSplitter(t *testing.T) *Splitter {
	t.Helper()
	s, err := NewSplitter(&Config{})
	require.NoError(t, err)
	return s
}

func TestSplitTextChunkCount(t *testing.T) {
	s := newDefaultSplitter(t)
	for _, l := range []int{1, 99, 100, 101, 999, 1000, 1001, 1899, 1900, 1901, 2800, 2801, 10000} {
		chunks := s.SplitText(noBoundaryText(l))
		assert.Len(t, chunks, expectedChunks(l, 1000, 100), "length %d", l)
		for _, c := range chunks {
			assert.LessOrEqual(t, len([]rune(c)), 1000)
			assert.NotEmpty(t, c)
		}
	}
}

func TestSplitTextOverlap(t *testing.T) {
	s := newDefaultSplitter(t)
	inputs := map[string]string{
		"hard limit": noBoundaryText(4321),
		"sentences":  strings.Repeat("The capital of France is Paris. ", 150),
		"paragraphs": strings.Repeat(strings.Repeat("word ", 90)+"\n\n", 12),
	}
	for name, text := range inputs {
		t.Run(name, func(t *testing.T) {
			chunks := s.SplitText(text)
			require.Greater(t, len(chunks), 1)

			rebuilt := chunks[0]
			for i := 0; i+1 < len(chunks); i++ {
				cur, next := []rune(chunks[i]), []rune(chunks[i+1])
				require.GreaterOrEqual(t, len(cur), 100)
				assert.Equal(t, string(cur[len(cur)-100:]), string(next[:100]), "chunk %d tail vs chunk %d head", i, i+1)
				rebuilt += string(next[100:])
			}
			assert.Equal(t, text, rebuilt, "no content may be dropped")
		})
	}
}

func TestSplitTextPrefersNaturalBoundary(t *testing.T) {
	s := newDefaultSplitter(t)
	text := strings.Repeat("a", 700) + "\n\n" + strings.Repeat("b", 700)

	chunks := s.SplitText(text)
	require.Len(t, chunks, 2)
	assert.Equal(t, strings.Repeat("a", 700)+"\n\n", chunks[0])
	assert.True(t, strings.HasSuffix(chunks[1], strings.Repeat("b", 700)))
}

func TestSplitTextShortAndEmpty(t *testing.T) {
	s := newDefaultSplitter(t)

	assert.Equal(t, []string{"The capital of France is Paris."}, s.SplitText("The capital of France is Paris."))
	assert.Empty(t, s.SplitText(""))
	assert.Empty(t, s.SplitText(" \n\t "))
}

func TestSplitTextCountsRunes(t *testing.T) {
	s := newDefaultSplitter(t)
	chunks := s.SplitText(strings.Repeat("中", 2500))
	require.Len(t, chunks, 3)
	assert.Equal(t, 1000, len([]rune(chunks[0])))
}

func TestTransformPreservesMetadata(t *testing.T) {
	s := newDefaultSplitter(t)
	docs := []*schema.Document{
		{ID: "page", Content: noBoundaryText(1500), MetaData: map[string]any{"page": 1, "source": "a.pdf"}},
		{Content: "short page", MetaData: map[string]any{"page": 2, "source": "a.pdf"}},
		{Content: "   "},
	}

	chunks, err := s.Transform(context.Background(), docs)
	require.NoError(t, err)
	require.Len(t, chunks, 3)

	assert.Equal(t, 1, chunks[0].MetaData["page"])
	assert.Equal(t, 1, chunks[1].MetaData["page"])
	assert.Equal(t, 2, chunks[2].MetaData["page"])
	for i, c := range chunks {
		assert.Equal(t, "a.pdf", c.MetaData["source"])
		assert.Equal(t, i, c.MetaData[MetaChunkIndex])
	}
	assert.Equal(t, "page_0", chunks[0].ID)
	assert.Equal(t, "page_1", chunks[1].ID)
	assert.Empty(t, chunks[2].ID)

	// 源文档元数据不被修改
	assert.NotContains(t, docs[0].MetaData, MetaChunkIndex)
}

func TestNewSplitterValidation(t *testing.T) {
	_, err := NewSplitter(&Config{ChunkSize: 100, ChunkOverlap: 100})
	assert.Error(t, err)

	_, err = NewSplitter(&Config{ChunkSize: -1})
	assert.Error(t, err)

	s, err := NewSplitter(&Config{ChunkSize: 10, ChunkOverlap: 2})
	require.NoError(t, err)
	assert.Len(t, s.SplitText(noBoundaryText(26)), expectedChunks(26, 10, 2))
}
