package vector_store

import (
	"context"

	"github.com/Malowking/ragchat/core/config"
	apperrors "github.com/Malowking/ragchat/core/errors"
	"github.com/cloudwego/eino/components/embedding"
	"github.com/gogf/gf/v2/frame/g"
)

// NewVectorStore 根据配置创建向量存储实例
func NewVectorStore(ctx context.Context, cfg *config.VectorStoreConfig, collection string, embedder embedding.Embedder) (VectorStore, error) {
	if cfg == nil {
		return nil, apperrors.New(apperrors.ErrInvalidParameter, "vector store config cannot be nil")
	}

	g.Log().Infof(ctx, "Initializing vector store with type: %s", cfg.Type)

	var (
		store VectorStore
		err   error
	)
	switch cfg.Type {
	case config.VectorStoreSQLite:
		store, err = NewSQLiteStore(ctx, cfg.SQLite.Path, collection, embedder)
	case config.VectorStoreMilvus:
		store, err = NewMilvusStore(ctx, &MilvusConfig{
			Address:    cfg.Milvus.Address,
			Database:   cfg.Milvus.Database,
			Collection: collection,
			Dim:        cfg.Milvus.Dim,
		}, embedder)
	case config.VectorStorePgvector:
		pg := cfg.Postgres
		store, err = NewPostgresStore(ctx, &PostgresConfig{
			Host:       pg.Host,
			Port:       pg.Port,
			User:       pg.User,
			Password:   pg.Password,
			Database:   pg.Database,
			SSLMode:    pg.SSLMode,
			Collection: collection,
			Dim:        pg.Dim,
		}, embedder)
	default:
		return nil, apperrors.Newf(apperrors.ErrInvalidParameter,
			"unsupported vector database type: %s. Supported types: sqlite, milvus, pgvector", cfg.Type)
	}
	if err != nil {
		return nil, apperrors.Wrapf(apperrors.ErrVectorStoreInit, err, "failed to initialize %s vector store", cfg.Type)
	}

	g.Log().Infof(ctx, "%s vector store initialized successfully", cfg.Type)
	return store, nil
}
