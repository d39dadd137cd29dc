package retriever

import (
	"context"
	"fmt"

	"github.com/Malowking/ragchat/core/vector_store"
	einoRetriever "github.com/cloudwego/eino/components/retriever"
	"github.com/cloudwego/eino/schema"
	"github.com/gogf/gf/v2/frame/g"
)

// Retriever 只读检索器，直接委托给向量索引的相似度搜索，不做重排和阈值过滤
type Retriever struct {
	store vector_store.VectorStore
	topK  int
}

var _ einoRetriever.Retriever = (*Retriever)(nil)

// NewRetriever topK 为默认返回条数，可通过 retriever.WithTopK 覆盖
func NewRetriever(store vector_store.VectorStore, topK int) (*Retriever, error) {
	if store == nil {
		return nil, fmt.Errorf("vector store cannot be nil")
	}
	if topK <= 0 {
		return nil, fmt.Errorf("topK must be positive, got %d", topK)
	}
	return &Retriever{store: store, topK: topK}, nil
}

// Retrieve 按相似度从高到低返回分块，空结果不是错误
func (r *Retriever) Retrieve(ctx context.Context, query string, opts ...einoRetriever.Option) ([]*schema.Document, error) {
	topK := r.topK
	options := einoRetriever.GetCommonOptions(&einoRetriever.Options{TopK: &topK}, opts...)
	if options.TopK != nil {
		topK = *options.TopK
	}

	docs, err := r.store.Search(ctx, query, topK)
	if err != nil {
		return nil, err
	}
	g.Log().Debugf(ctx, "query: %s, topK: %d, retrieved: %d", query, topK, len(docs))
	return docs, nil
}
