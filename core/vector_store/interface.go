package vector_store

import (
	"context"

	"github.com/cloudwego/eino/schema"
)

// MetaDocumentID 每条向量记录元数据中的文档ID键
const MetaDocumentID = "document_id"

// VectorStore 持久化的 embedding 索引，以文档ID为删除粒度
type VectorStore interface {
	// Upsert 对全部分块做 embedding 后一次性写入；任一环节失败则整体失败，不留下部分数据
	Upsert(ctx context.Context, documentID string, chunks []*schema.Document) error

	// DeleteByDocumentID 删除该文档的全部记录，返回删除条数；文档不存在时返回 0
	DeleteByDocumentID(ctx context.Context, documentID string) (int64, error)

	// Search 按相似度返回最相近的 k 条记录，结果带分数与原始元数据
	Search(ctx context.Context, query string, k int) ([]*schema.Document, error)

	// ListByDocumentID 返回该文档的全部记录
	ListByDocumentID(ctx context.Context, documentID string) ([]*schema.Document, error)

	Close(ctx context.Context) error
}
