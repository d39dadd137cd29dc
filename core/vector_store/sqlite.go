package vector_store

import (
	"context"
	"database/sql"
	"encoding/binary"
	"fmt"
	"math"
	"sort"
	"time"

	apperrors "github.com/Malowking/ragchat/core/errors"
	"github.com/cloudwego/eino/components/embedding"
	"github.com/cloudwego/eino/schema"
	"github.com/gogf/gf/v2/frame/g"
	"github.com/gogf/gf/v2/os/gfile"

	_ "modernc.org/sqlite" // SQLite driver
)

const sqliteSchema = `
CREATE TABLE IF NOT EXISTS embeddings (
	id          TEXT PRIMARY KEY,
	collection  TEXT NOT NULL,
	document_id TEXT NOT NULL,
	content     TEXT NOT NULL,
	metadata    TEXT NOT NULL DEFAULT '{}',
	vector      BLOB NOT NULL,
	dim         INTEGER NOT NULL,
	created_at  INTEGER NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_embeddings_document ON embeddings(collection, document_id);
`

// SQLiteStore 基于本地 SQLite 文件的向量索引，检索时在内存中计算余弦相似度
type SQLiteStore struct {
	db         *sql.DB
	collection string
	embedder   embedding.Embedder
}

var _ VectorStore = (*SQLiteStore)(nil)

// NewSQLiteStore 打开（或创建）数据库文件并初始化表结构
func NewSQLiteStore(ctx context.Context, path, collection string, embedder embedding.Embedder) (*SQLiteStore, error) {
	if embedder == nil {
		return nil, fmt.Errorf("embedder cannot be nil")
	}
	if collection == "" {
		return nil, fmt.Errorf("collection name cannot be empty")
	}
	if dir := gfile.Dir(path); dir != "" && dir != "." && !gfile.Exists(dir) {
		if err := gfile.Mkdir(dir); err != nil {
			return nil, fmt.Errorf("failed to create directory %s: %w", dir, err)
		}
	}

	db, err := sql.Open("sqlite", path+"?_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)")
	if err != nil {
		return nil, fmt.Errorf("failed to open sqlite database %s: %w", path, err)
	}
	// SQLite 单写者，串行化连接避免 SQLITE_BUSY
	db.SetMaxOpenConns(1)

	if _, err := db.ExecContext(ctx, sqliteSchema); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to initialize sqlite schema: %w", err)
	}

	g.Log().Infof(ctx, "SQLite vector store ready at %s, collection: %s", path, collection)
	return &SQLiteStore{db: db, collection: collection, embedder: embedder}, nil
}

func (s *SQLiteStore) Upsert(ctx context.Context, documentID string, chunks []*schema.Document) error {
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
	vectors, err := embedTexts(ctx, s.embedder, texts)
	if err != nil {
		return err
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return apperrors.Wrap(apperrors.ErrIndexWrite, err, "failed to begin transaction")
	}
	defer func() { _ = tx.Rollback() }()

	stmt, err := tx.PrepareContext(ctx, `
		INSERT OR REPLACE INTO embeddings (id, collection, document_id, content, metadata, vector, dim, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
	`)
	if err != nil {
		return apperrors.Wrap(apperrors.ErrIndexWrite, err, "failed to prepare insert")
	}
	defer stmt.Close()

	now := time.Now().Unix()
	for i := range ids {
		_, err = stmt.ExecContext(ctx, ids[i], s.collection, documentID, texts[i], string(metas[i]),
			encodeVector(vectors[i]), len(vectors[i]), now)
		if err != nil {
			return apperrors.Wrapf(apperrors.ErrIndexWrite, err, "failed to insert chunk %s", ids[i])
		}
	}

	if err := tx.Commit(); err != nil {
		return apperrors.Wrap(apperrors.ErrIndexWrite, err, "failed to commit transaction")
	}

	g.Log().Infof(ctx, "Successfully inserted %d vectors for document %s into collection '%s'", len(ids), documentID, s.collection)
	return nil
}

func (s *SQLiteStore) DeleteByDocumentID(ctx context.Context, documentID string) (int64, error) {
	result, err := s.db.ExecContext(ctx,
		`DELETE FROM embeddings WHERE collection = ? AND document_id = ?`, s.collection, documentID)
	if err != nil {
		return 0, apperrors.Wrapf(apperrors.ErrIndexDelete, err, "failed to delete document %s", documentID)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return 0, apperrors.Wrapf(apperrors.ErrIndexDelete, err, "failed to read affected rows for document %s", documentID)
	}
	return affected, nil
}

type scored struct {
	doc   *schema.Document
	score float64
}

func (s *SQLiteStore) Search(ctx context.Context, query string, k int) ([]*schema.Document, error) {
	if k <= 0 {
		return []*schema.Document{}, nil
	}
	vectors, err := embedTexts(ctx, s.embedder, []string{query})
	if err != nil {
		return nil, err
	}
	queryVec := vectors[0]

	rows, err := s.db.QueryContext(ctx, `
		SELECT id, document_id, content, metadata, vector, dim
		FROM embeddings WHERE collection = ? ORDER BY rowid
	`, s.collection)
	if err != nil {
		return nil, apperrors.Wrap(apperrors.ErrVectorSearch, err, "failed to query embeddings")
	}
	defer rows.Close()

	var candidates []scored
	for rows.Next() {
		var (
			id, documentID, content, metadata string
			blob                              []byte
			dim                               int
		)
		if err := rows.Scan(&id, &documentID, &content, &metadata, &blob, &dim); err != nil {
			return nil, apperrors.Wrap(apperrors.ErrVectorSearch, err, "failed to scan row")
		}
		if dim != len(queryVec) {
			return nil, apperrors.Newf(apperrors.ErrVectorSearch,
				"embedding dimension mismatch: stored %d, query %d", dim, len(queryVec))
		}
		score := cosineSimilarity(queryVec, decodeVector(blob))
		candidates = append(candidates, scored{
			doc:   newResultDocument(id, content, documentID, []byte(metadata), score),
			score: score,
		})
	}
	if err := rows.Err(); err != nil {
		return nil, apperrors.Wrap(apperrors.ErrVectorSearch, err, "error iterating over rows")
	}

	sort.SliceStable(candidates, func(i, j int) bool {
		return candidates[i].score > candidates[j].score
	})
	if len(candidates) > k {
		candidates = candidates[:k]
	}

	docs := make([]*schema.Document, len(candidates))
	for i, c := range candidates {
		docs[i] = c.doc
	}
	return docs, nil
}

func (s *SQLiteStore) ListByDocumentID(ctx context.Context, documentID string) ([]*schema.Document, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, content, metadata FROM embeddings
		WHERE collection = ? AND document_id = ? ORDER BY rowid
	`, s.collection, documentID)
	if err != nil {
		return nil, apperrors.Wrapf(apperrors.ErrVectorSearch, err, "failed to list document %s", documentID)
	}
	defer rows.Close()

	var docs []*schema.Document
	for rows.Next() {
		var id, content, metadata string
		if err := rows.Scan(&id, &content, &metadata); err != nil {
			return nil, apperrors.Wrap(apperrors.ErrVectorSearch, err, "failed to scan row")
		}
		docs = append(docs, newResultDocument(id, content, documentID, []byte(metadata), 0))
	}
	if err := rows.Err(); err != nil {
		return nil, apperrors.Wrap(apperrors.ErrVectorSearch, err, "error iterating over rows")
	}
	return docs, nil
}

func (s *SQLiteStore) Close(ctx context.Context) error {
	return s.db.Close()
}

// encodeVector 小端序 float32 编码
func encodeVector(vec []float32) []byte {
	buf := make([]byte, 4*len(vec))
	for i, v := range vec {
		binary.LittleEndian.PutUint32(buf[i*4:], math.Float32bits(v))
	}
	return buf
}

func decodeVector(buf []byte) []float32 {
	vec := make([]float32, len(buf)/4)
	for i := range vec {
		vec[i] = math.Float32frombits(binary.LittleEndian.Uint32(buf[i*4:]))
	}
	return vec
}

func cosineSimilarity(a, b []float32) float64 {
	if len(a) != len(b) {
		return 0
	}
	var dot, na, nb float64
	for i := range a {
		dot += float64(a[i]) * float64(b[i])
		na += float64(a[i]) * float64(a[i])
		nb += float64(b[i]) * float64(b[i])
	}
	if na == 0 || nb == 0 {
		return 0
	}
	return dot / (math.Sqrt(na) * math.Sqrt(nb))
}
