package vector_store

import (
	"context"
	"fmt"

	apperrors "github.com/Malowking/ragchat/core/errors"
	"github.com/bytedance/sonic"
	"github.com/cloudwego/eino/components/embedding"
	"github.com/cloudwego/eino/schema"
	"github.com/google/uuid"
)

// embedTexts 一次调用 embedding 服务，并校验返回数量与维度
func embedTexts(ctx context.Context, embedder embedding.Embedder, texts []string) ([][]float32, error) {
	vectors, err := embedder.EmbedStrings(ctx, texts)
	if err != nil {
		return nil, apperrors.Wrap(apperrors.ErrEmbeddingFailed, err, "embedding request failed")
	}
	if len(vectors) != len(texts) {
		return nil, apperrors.Newf(apperrors.ErrEmbeddingFailed, "embedding returned %d vectors for %d texts", len(vectors), len(texts))
	}

	out := make([][]float32, len(vectors))
	for i, vec := range vectors {
		if len(vec) == 0 {
			return nil, apperrors.Newf(apperrors.ErrEmbeddingFailed, "empty vector returned for text %d", i)
		}
		if i > 0 && len(vec) != len(out[0]) {
			return nil, apperrors.Newf(apperrors.ErrEmbeddingFailed, "inconsistent vector dimension: %d vs %d", len(vec), len(out[0]))
		}
		out[i] = float64ToFloat32(vec)
	}
	return out, nil
}

func float64ToFloat32(f64 []float64) []float32 {
	f32 := make([]float32, len(f64))
	for i, v := range f64 {
		f32[i] = float32(v)
	}
	return f32
}

// prepareChunks 补全分块ID，并生成注入了 document_id 的元数据 JSON
func prepareChunks(documentID string, chunks []*schema.Document) (ids, texts []string, metas [][]byte, err error) {
	ids = make([]string, len(chunks))
	texts = make([]string, len(chunks))
	metas = make([][]byte, len(chunks))

	for i, chunk := range chunks {
		if chunk == nil {
			return nil, nil, nil, fmt.Errorf("chunk %d is nil", i)
		}
		if chunk.ID == "" {
			chunk.ID = uuid.New().String()
		}
		ids[i] = chunk.ID
		texts[i] = chunk.Content

		meta := make(map[string]any, len(chunk.MetaData)+1)
		for k, v := range chunk.MetaData {
			meta[k] = v
		}
		meta[MetaDocumentID] = documentID

		metas[i], err = sonic.Marshal(meta)
		if err != nil {
			return nil, nil, nil, fmt.Errorf("failed to marshal metadata of chunk %s: %w", chunk.ID, err)
		}
	}
	return ids, texts, metas, nil
}

// newResultDocument 由存储字段还原检索结果
func newResultDocument(id, text, documentID string, metadata []byte, score float64) *schema.Document {
	doc := &schema.Document{
		ID:       id,
		Content:  text,
		MetaData: make(map[string]any),
	}
	if len(metadata) > 0 {
		var meta map[string]any
		if err := sonic.Unmarshal(metadata, &meta); err == nil {
			for k, v := range meta {
				doc.MetaData[k] = v
			}
		}
	}
	doc.MetaData[MetaDocumentID] = documentID
	return doc.WithScore(score)
}

func truncateString(s string, maxLen int) string {
	if len(s) <= maxLen {
		return s
	}
	// 避免截断在多字节字符中间
	for maxLen > 0 && (s[maxLen]&0xC0) == 0x80 {
		maxLen--
	}
	return s[:maxLen]
}
