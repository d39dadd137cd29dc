package vector_store

import (
	"context"
	"fmt"
	"strconv"

	"github.com/Malowking/ragchat/core/common"
	apperrors "github.com/Malowking/ragchat/core/errors"
	"github.com/cloudwego/eino/components/embedding"
	"github.com/cloudwego/eino/schema"
	"github.com/gogf/gf/v2/frame/g"
	"github.com/milvus-io/milvus/client/v2/column"
	"github.com/milvus-io/milvus/client/v2/entity"
	"github.com/milvus-io/milvus/client/v2/index"
	"github.com/milvus-io/milvus/client/v2/milvusclient"
)

const (
	milvusFieldID         = "id"
	milvusFieldText       = "text"
	milvusFieldVector     = "vector"
	milvusFieldDocumentID = "document_id"
	milvusFieldMetadata   = "metadata"

	milvusMaxTextBytes = 65535
)

// MilvusConfig Milvus 连接参数
type MilvusConfig struct {
	Address    string
	Database   string
	Collection string
	Dim        int
}

// MilvusStore Milvus向量数据库实现
type MilvusStore struct {
	client     *milvusclient.Client
	collection string
	dim        int
	embedder   embedding.Embedder
}

var _ VectorStore = (*MilvusStore)(nil)

// NewMilvusStore 连接 Milvus，确保数据库与集合存在并已加载
func NewMilvusStore(ctx context.Context, cfg *MilvusConfig, embedder embedding.Embedder) (*MilvusStore, error) {
	if cfg == nil || cfg.Address == "" {
		return nil, fmt.Errorf("milvus address is required")
	}
	if embedder == nil {
		return nil, fmt.Errorf("embedder cannot be nil")
	}
	if !common.ValidateCollectionName(cfg.Collection) {
		return nil, fmt.Errorf("invalid collection name: %q", cfg.Collection)
	}
	if cfg.Dim <= 0 {
		return nil, fmt.Errorf("milvus dim must be positive")
	}

	g.Log().Infof(ctx, "Connecting to Milvus at: %s, database: %s", cfg.Address, cfg.Database)
	client, err := milvusclient.New(ctx, &milvusclient.ClientConfig{
		Address: cfg.Address,
		DBName:  cfg.Database,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create milvus client (address: %s, database: %s): %w", cfg.Address, cfg.Database, err)
	}

	m := &MilvusStore{
		client:     client,
		collection: cfg.Collection,
		dim:        cfg.Dim,
		embedder:   embedder,
	}
	if err := m.ensureCollection(ctx); err != nil {
		_ = client.Close(ctx)
		return nil, err
	}
	return m, nil
}

// collectionFields 集合字段定义
func collectionFields(dim int) []*entity.Field {
	return []*entity.Field{
		{
			Name:        milvusFieldID,
			DataType:    entity.FieldTypeVarChar,
			TypeParams:  map[string]string{"max_length": "256"},
			PrimaryKey:  true,
			AutoID:      false,
			Description: "Chunk unique ID (primary key)",
		},
		{
			Name:        milvusFieldText,
			DataType:    entity.FieldTypeVarChar,
			TypeParams:  map[string]string{"max_length": strconv.Itoa(milvusMaxTextBytes)},
			Description: "Chunk content",
		},
		{
			Name:        milvusFieldVector,
			DataType:    entity.FieldTypeFloatVector,
			TypeParams:  map[string]string{"dim": strconv.Itoa(dim)},
			Description: "Chunk embedding vector",
		},
		{
			Name:        milvusFieldDocumentID,
			DataType:    entity.FieldTypeVarChar,
			TypeParams:  map[string]string{"max_length": "256"},
			Description: "Owning document ID",
		},
		{
			Name:        milvusFieldMetadata,
			DataType:    entity.FieldTypeJSON,
			Description: "Chunk metadata (JSON)",
		},
	}
}

func (m *MilvusStore) ensureCollection(ctx context.Context) error {
	has, err := m.client.HasCollection(ctx, milvusclient.NewHasCollectionOption(m.collection))
	if err != nil {
		return fmt.Errorf("failed to check if collection exists: %w", err)
	}

	if !has {
		collSchema := &entity.Schema{
			CollectionName: m.collection,
			Description:    "document chunks and their embeddings",
			AutoID:         false,
			Fields:         collectionFields(m.dim),
		}
		err = m.client.CreateCollection(ctx, milvusclient.NewCreateCollectionOption(m.collection, collSchema).WithIndexOptions(
			milvusclient.NewCreateIndexOption(m.collection, milvusFieldVector, index.NewHNSWIndex(entity.COSINE, 16, 200))))
		if err != nil {
			return fmt.Errorf("failed to create Milvus collection: %w", err)
		}
		g.Log().Infof(ctx, "Collection '%s' created with dimension %d", m.collection, m.dim)
	}

	loadTask, err := m.client.LoadCollection(ctx, milvusclient.NewLoadCollectionOption(m.collection))
	if err != nil {
		return fmt.Errorf("failed to load Milvus collection: %w", err)
	}
	if err := loadTask.Await(ctx); err != nil {
		return fmt.Errorf("failed to wait for Milvus collection load: %w", err)
	}
	return nil
}

func (m *MilvusStore) Upsert(ctx context.Context, documentID string, chunks []*schema.Document) error {
	if documentID == "" {
		return apperrors.New(apperrors.ErrIndexWrite, "document id cannot be empty")
	}
	if len(chunks) == 0 {
		return nil
	}

	ids, texts, metas, err := prepareChunks(documentID, chunks)
	if err != nil {
		return apperrors.Wrap(apperrors.ErrIndexWrite, err, "failed to prepare chunks")
	}
	vectors, err := embedTexts(ctx, m.embedder, texts)
	if err != nil {
		return err
	}
	if len(vectors[0]) != m.dim {
		return apperrors.Newf(apperrors.ErrIndexWrite, "embedding dimension %d does not match collection dimension %d", len(vectors[0]), m.dim)
	}

	documentIDs := make([]string, len(ids))
	for i := range ids {
		texts[i] = truncateString(texts[i], milvusMaxTextBytes)
		documentIDs[i] = documentID
	}

	// 单次插入请求，Milvus 侧要么全部写入要么失败
	columns := []column.Column{
		column.NewColumnVarChar(milvusFieldID, ids),
		column.NewColumnVarChar(milvusFieldText, texts),
		column.NewColumnFloatVector(milvusFieldVector, m.dim, vectors),
		column.NewColumnVarChar(milvusFieldDocumentID, documentIDs),
		column.NewColumnJSONBytes(milvusFieldMetadata, metas),
	}
	result, err := m.client.Insert(ctx, milvusclient.NewColumnBasedInsertOption(m.collection, columns...))
	if err != nil {
		return apperrors.Wrapf(apperrors.ErrIndexWrite, err, "failed to insert vectors for document %s", documentID)
	}

	g.Log().Infof(ctx, "Successfully inserted %d vectors into collection '%s'", result.InsertCount, m.collection)
	return nil
}

func (m *MilvusStore) DeleteByDocumentID(ctx context.Context, documentID string) (int64, error) {
	filterExpr := fmt.Sprintf(`%s == "%s"`, milvusFieldDocumentID, common.SanitizeMilvusString(documentID))

	result, err := m.client.Delete(ctx, milvusclient.NewDeleteOption(m.collection).WithExpr(filterExpr))
	if err != nil {
		return 0, apperrors.Wrapf(apperrors.ErrIndexDelete, err, "failed to delete document %s", documentID)
	}
	return result.DeleteCount, nil
}

func (m *MilvusStore) Search(ctx context.Context, query string, k int) ([]*schema.Document, error) {
	if k <= 0 {
		return []*schema.Document{}, nil
	}
	vectors, err := embedTexts(ctx, m.embedder, []string{query})
	if err != nil {
		return nil, err
	}

	searchOpt := milvusclient.NewSearchOption(m.collection, k, []entity.Vector{entity.FloatVector(vectors[0])}).
		WithANNSField(milvusFieldVector).
		WithOutputFields(milvusFieldID, milvusFieldText, milvusFieldDocumentID, milvusFieldMetadata).
		WithConsistencyLevel(entity.ClStrong)

	results, err := m.client.Search(ctx, searchOpt)
	if err != nil {
		return nil, apperrors.Wrap(apperrors.ErrVectorSearch, err, "search has error")
	}
	if len(results) == 0 {
		return []*schema.Document{}, nil
	}
	return convertColumns(results[0].Fields, results[0].Scores)
}

func (m *MilvusStore) ListByDocumentID(ctx context.Context, documentID string) ([]*schema.Document, error) {
	filterExpr := fmt.Sprintf(`%s == "%s"`, milvusFieldDocumentID, common.SanitizeMilvusString(documentID))

	rs, err := m.client.Query(ctx, milvusclient.NewQueryOption(m.collection).
		WithFilter(filterExpr).
		WithOutputFields(milvusFieldID, milvusFieldText, milvusFieldDocumentID, milvusFieldMetadata).
		WithConsistencyLevel(entity.ClStrong))
	if err != nil {
		return nil, apperrors.Wrapf(apperrors.ErrVectorSearch, err, "failed to list document %s", documentID)
	}
	return convertColumns(rs.Fields, nil)
}

func (m *MilvusStore) Close(ctx context.Context) error {
	return m.client.Close(ctx)
}

// convertColumns 把列式结果转换为文档
func convertColumns(columns []column.Column, scores []float32) ([]*schema.Document, error) {
	if len(columns) == 0 {
		return []*schema.Document{}, nil
	}

	byName := make(map[string]column.Column, len(columns))
	for _, col := range columns {
		byName[col.Name()] = col
	}

	getString := func(name string, i int) (string, error) {
		col, ok := byName[name]
		if !ok {
			return "", nil
		}
		val, err := col.Get(i)
		if err != nil {
			return "", fmt.Errorf("failed to get %s: %w", name, err)
		}
		str, _ := val.(string)
		return str, nil
	}

	n := columns[0].Len()
	docs := make([]*schema.Document, 0, n)
	for i := 0; i < n; i++ {
		id, err := getString(milvusFieldID, i)
		if err != nil {
			return nil, err
		}
		text, err := getString(milvusFieldText, i)
		if err != nil {
			return nil, err
		}
		documentID, err := getString(milvusFieldDocumentID, i)
		if err != nil {
			return nil, err
		}

		var metadata []byte
		if col, ok := byName[milvusFieldMetadata]; ok {
			if val, err := col.Get(i); err == nil {
				switch v := val.(type) {
				case []byte:
					metadata = v
				case string:
					metadata = []byte(v)
				}
			}
		}

		var score float64
		if i < len(scores) {
			score = float64(scores[i])
		}
		docs = append(docs, newResultDocument(id, text, documentID, metadata, score))
	}
	return docs, nil
}
