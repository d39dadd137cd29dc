package vector_store

import (
	"context"
	"fmt"
	"strings"

	"github.com/Malowking/ragchat/core/common"
	apperrors "github.com/Malowking/ragchat/core/errors"
	"github.com/cloudwego/eino/components/embedding"
	"github.com/cloudwego/eino/schema"
	"github.com/gogf/gf/v2/frame/g"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/pgvector/pgvector-go"
)

// PostgresConfig PostgreSQL + pgvector 连接参数
type PostgresConfig struct {
	Host       string
	Port       string
	User       string
	Password   string
	Database   string
	SSLMode    string
	Collection string
	Dim        int
}

// DSN 构建连接字符串（去掉空密码的 password= 参数）
func (c *PostgresConfig) DSN() string {
	sslMode := c.SSLMode
	if sslMode == "" {
		sslMode = "disable"
	}
	if c.Password != "" {
		return fmt.Sprintf("host=%s port=%s user=%s password=%s dbname=%s sslmode=%s",
			c.Host, c.Port, c.User, c.Password, c.Database, sslMode)
	}
	return fmt.Sprintf("host=%s port=%s user=%s dbname=%s sslmode=%s",
		c.Host, c.Port, c.User, c.Database, sslMode)
}

// PostgresStore PostgreSQL向量数据库实现，数据放在独立的 vectors schema 下
type PostgresStore struct {
	pool      *pgxpool.Pool
	schema    string
	tableName string
	dim       int
	embedder  embedding.Embedder
}

var _ VectorStore = (*PostgresStore)(nil)

// NewPostgresStore 建立连接池，确保扩展、schema 与表存在
func NewPostgresStore(ctx context.Context, cfg *PostgresConfig, embedder embedding.Embedder) (*PostgresStore, error) {
	if cfg == nil || cfg.Host == "" || cfg.User == "" || cfg.Database == "" {
		return nil, fmt.Errorf("postgres configuration is incomplete. Required: host, user, database")
	}
	if embedder == nil {
		return nil, fmt.Errorf("embedder cannot be nil")
	}
	if !common.ValidateCollectionName(cfg.Collection) {
		return nil, fmt.Errorf("invalid collection name: %q", cfg.Collection)
	}
	if cfg.Dim <= 0 {
		return nil, fmt.Errorf("pgvector dim must be positive")
	}

	g.Log().Infof(ctx, "Connecting to PostgreSQL at: %s:%s, database: %s", cfg.Host, cfg.Port, cfg.Database)
	pool, err := pgxpool.New(ctx, cfg.DSN())
	if err != nil {
		return nil, fmt.Errorf("failed to create postgres connection pool: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("failed to ping postgres: %w", err)
	}

	p := &PostgresStore{
		pool:      pool,
		schema:    "vectors",
		tableName: strings.ToLower(cfg.Collection),
		dim:       cfg.Dim,
		embedder:  embedder,
	}
	if err := p.ensureTable(ctx); err != nil {
		pool.Close()
		return nil, err
	}
	return p, nil
}

func (p *PostgresStore) fullTableName() string {
	return p.schema + "." + p.tableName
}

func (p *PostgresStore) ensureTable(ctx context.Context) error {
	var extensionExists bool
	err := p.pool.QueryRow(ctx, "SELECT EXISTS(SELECT 1 FROM pg_extension WHERE extname = 'vector')").Scan(&extensionExists)
	if err != nil {
		return fmt.Errorf("failed to check pgvector extension: %w", err)
	}
	if !extensionExists {
		g.Log().Infof(ctx, "pgvector extension not found, attempting to create...")
		if _, err = p.pool.Exec(ctx, "CREATE EXTENSION vector"); err != nil {
			return fmt.Errorf("failed to create pgvector extension: %w", err)
		}
	}

	statements := []string{
		fmt.Sprintf("CREATE SCHEMA IF NOT EXISTS %s", p.schema),
		fmt.Sprintf(`CREATE TABLE IF NOT EXISTS %s (
			id VARCHAR(255) PRIMARY KEY,
			text TEXT NOT NULL,
			vector vector(%d) NOT NULL,
			document_id VARCHAR(255) NOT NULL,
			metadata JSONB NOT NULL DEFAULT '{}'::jsonb,
			created_at TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP
		)`, p.fullTableName(), p.dim),
		fmt.Sprintf("CREATE INDEX IF NOT EXISTS idx_%s_document_id ON %s (document_id)", p.tableName, p.fullTableName()),
		fmt.Sprintf("CREATE INDEX IF NOT EXISTS idx_%s_vector ON %s USING hnsw (vector vector_cosine_ops)", p.tableName, p.fullTableName()),
	}
	for _, stmt := range statements {
		if _, err := p.pool.Exec(ctx, stmt); err != nil {
			return fmt.Errorf("failed to prepare table %s: %w", p.fullTableName(), err)
		}
	}

	g.Log().Infof(ctx, "Table '%s' ready with dimension %d", p.fullTableName(), p.dim)
	return nil
}

func (p *PostgresStore) Upsert(ctx context.Context, documentID string, chunks []*schema.Document) error {
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
	vectors, err := embedTexts(ctx, p.embedder, texts)
	if err != nil {
		return err
	}

	tx, err := p.pool.Begin(ctx)
	if err != nil {
		return apperrors.Wrap(apperrors.ErrIndexWrite, err, "failed to begin transaction")
	}
	defer tx.Rollback(ctx)

	insertSQL := fmt.Sprintf(`
		INSERT INTO %s (id, text, vector, document_id, metadata)
		VALUES ($1, $2, $3, $4, $5)
		ON CONFLICT (id) DO UPDATE SET text = EXCLUDED.text, vector = EXCLUDED.vector,
			document_id = EXCLUDED.document_id, metadata = EXCLUDED.metadata
	`, p.fullTableName())

	for i := range ids {
		_, err = tx.Exec(ctx, insertSQL, ids[i], texts[i], pgvector.NewVector(vectors[i]), documentID, metas[i])
		if err != nil {
			return apperrors.Wrapf(apperrors.ErrIndexWrite, err, "failed to insert vector for chunk %s", ids[i])
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return apperrors.Wrap(apperrors.ErrIndexWrite, err, "failed to commit transaction")
	}

	g.Log().Infof(ctx, "Successfully inserted %d vectors into table '%s'", len(ids), p.fullTableName())
	return nil
}

func (p *PostgresStore) DeleteByDocumentID(ctx context.Context, documentID string) (int64, error) {
	result, err := p.pool.Exec(ctx,
		fmt.Sprintf("DELETE FROM %s WHERE document_id = $1", p.fullTableName()), documentID)
	if err != nil {
		return 0, apperrors.Wrapf(apperrors.ErrIndexDelete, err, "failed to delete document %s", documentID)
	}
	return result.RowsAffected(), nil
}

func (p *PostgresStore) Search(ctx context.Context, query string, k int) ([]*schema.Document, error) {
	if k <= 0 {
		return []*schema.Document{}, nil
	}
	vectors, err := embedTexts(ctx, p.embedder, []string{query})
	if err != nil {
		return nil, err
	}

	// 余弦距离: 0=相同, 2=相反，转换为相似度
	searchSQL := fmt.Sprintf(`
		SELECT id, text, document_id, metadata, 1 - (vector <=> $1) AS similarity_score
		FROM %s
		ORDER BY vector <=> $1
		LIMIT $2
	`, p.fullTableName())

	rows, err := p.pool.Query(ctx, searchSQL, pgvector.NewVector(vectors[0]), k)
	if err != nil {
		return nil, apperrors.Wrap(apperrors.ErrVectorSearch, err, "failed to execute vector search")
	}
	defer rows.Close()

	docs := make([]*schema.Document, 0, k)
	for rows.Next() {
		var (
			id, text, documentID string
			metadata             []byte
			score                float64
		)
		if err := rows.Scan(&id, &text, &documentID, &metadata, &score); err != nil {
			return nil, apperrors.Wrap(apperrors.ErrVectorSearch, err, "failed to scan row")
		}
		docs = append(docs, newResultDocument(id, text, documentID, metadata, score))
	}
	if err := rows.Err(); err != nil {
		return nil, apperrors.Wrap(apperrors.ErrVectorSearch, err, "error iterating over rows")
	}
	return docs, nil
}

func (p *PostgresStore) ListByDocumentID(ctx context.Context, documentID string) ([]*schema.Document, error) {
	rows, err := p.pool.Query(ctx,
		fmt.Sprintf("SELECT id, text, metadata FROM %s WHERE document_id = $1 ORDER BY created_at, id", p.fullTableName()),
		documentID)
	if err != nil {
		return nil, apperrors.Wrapf(apperrors.ErrVectorSearch, err, "failed to list document %s", documentID)
	}
	defer rows.Close()

	var docs []*schema.Document
	for rows.Next() {
		var (
			id, text string
			metadata []byte
		)
		if err := rows.Scan(&id, &text, &metadata); err != nil {
			return nil, apperrors.Wrap(apperrors.ErrVectorSearch, err, "failed to scan row")
		}
		docs = append(docs, newResultDocument(id, text, documentID, metadata, 0))
	}
	if err := rows.Err(); err != nil {
		return nil, apperrors.Wrap(apperrors.ErrVectorSearch, err, "error iterating over rows")
	}
	return docs, nil
}

func (p *PostgresStore) Close(ctx context.Context) error {
	p.pool.Close()
	return nil
}
