package indexer

import (
	"archive/zip"
	"bytes"
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync/atomic"
	"testing"

	"github.com/Malowking/ragchat/core/chunker"
	apperrors "github.com/Malowking/ragchat/core/errors"
	"github.com/Malowking/ragchat/core/loader"
	"github.com/Malowking/ragchat/core/model/modeltest"
	"github.com/Malowking/ragchat/core/vector_store"
	"github.com/cloudwego/eino/components/document"
	"github.com/cloudwego/eino/schema"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// spyStore 统计对向量索引的调用次数
type spyStore struct {
	vector_store.VectorStore
	upserts atomic.Int32
	deletes atomic.Int32
}

func (s *spyStore) Upsert(ctx context.Context, documentID string, chunks []*schema.Document) error {
	s.upserts.Add(1)
	return s.VectorStore.Upsert(ctx, documentID, chunks)
}

func (s *spyStore) DeleteByDocumentID(ctx context.Context, documentID string) (int64, error) {
	s.deletes.Add(1)
	return s.VectorStore.DeleteByDocumentID(ctx, documentID)
}

type testEnv struct {
	pipeline *Pipeline
	store    *spyStore
	embedder *modeltest.HashEmbedder
	dir      string
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	ctx := context.Background()
	dir := t.TempDir()

	embedder := modeltest.NewHashEmbedder(256)
	sqlite, err := vector_store.NewSQLiteStore(ctx, filepath.Join(dir, "vectors.db"), "first_rag", embedder)
	require.NoError(t, err)
	t.Cleanup(func() { _ = sqlite.Close(ctx) })

	dispatcher, err := loader.NewDispatcher(ctx, &loader.Config{JSONField: "body"})
	require.NoError(t, err)
	splitter, err := chunker.NewSplitter(&chunker.Config{ChunkSize: 1000, ChunkOverlap: 100})
	require.NoError(t, err)

	store := &spyStore{VectorStore: sqlite}
	p, err := NewPipeline(dispatcher, splitter, store)
	require.NoError(t, err)
	return &testEnv{pipeline: p, store: store, embedder: embedder, dir: dir}
}

func (e *testEnv) write(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(e.dir, name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func (e *testEnv) writeDocx(t *testing.T, name string, paragraphs ...string) string {
	t.Helper()
	path := filepath.Join(e.dir, name)
	f, err := os.Create(path)
	require.NoError(t, err)
	defer f.Close()

	zw := zip.NewWriter(f)
	w, err := zw.Create("word/document.xml")
	require.NoError(t, err)
	var body strings.Builder
	body.WriteString(`<?xml version="1.0" encoding="UTF-8" standalone="yes"?>`)
	body.WriteString(`<w:document xmlns:w="http://schemas.openxmlformats.org/wordprocessingml/2006/main"><w:body>`)
	for _, p := range paragraphs {
		body.WriteString(`<w:p><w:r><w:t>` + p + `</w:t></w:r></w:p>`)
	}
	body.WriteString(`</w:body></w:document>`)
	_, err = w.Write([]byte(body.String()))
	require.NoError(t, err)
	require.NoError(t, zw.Close())
	return path
}

// writePDF 生成只有一行文字的单页 PDF
func (e *testEnv) writePDF(t *testing.T, name, text string) string {
	t.Helper()
	content := "BT /F1 12 Tf 72 720 Td (" + text + ") Tj ET"

	objects := []string{
		"<< /Type /Catalog /Pages 2 0 R >>",
		"<< /Type /Pages /Kids [3 0 R] /Count 1 >>",
		"<< /Type /Page /Parent 2 0 R /MediaBox [0 0 612 792] /Resources << /Font << /F1 4 0 R >> >> /Contents 5 0 R >>",
		"<< /Type /Font /Subtype /Type1 /BaseFont /Helvetica /Encoding /WinAnsiEncoding >>",
		fmt.Sprintf("<< /Length %d >>\nstream\n%s\nendstream", len(content), content),
	}

	var buf bytes.Buffer
	buf.WriteString("%PDF-1.4\n")
	offsets := make([]int, len(objects))
	for i, obj := range objects {
		offsets[i] = buf.Len()
		fmt.Fprintf(&buf, "%d 0 obj\n%s\nendobj\n", i+1, obj)
	}
	xref := buf.Len()
	fmt.Fprintf(&buf, "xref\n0 %d\n0000000000 65535 f \n", len(objects)+1)
	for _, off := range offsets {
		fmt.Fprintf(&buf, "%010d 00000 n \n", off)
	}
	fmt.Fprintf(&buf, "trailer\n<< /Size %d /Root 1 0 R >>\nstartxref\n%d\n%%%%EOF\n", len(objects)+1, xref)

	path := filepath.Join(e.dir, name)
	require.NoError(t, os.WriteFile(path, buf.Bytes(), 0o644))
	return path
}

func documentIDs(docs []*schema.Document) []string {
	ids := make([]string, 0, len(docs))
	for _, d := range docs {
		id, _ := d.MetaData[vector_store.MetaDocumentID].(string)
		ids = append(ids, id)
	}
	return ids
}

func TestNewPipelineRequiresDependencies(t *testing.T) {
	_, err := NewPipeline(nil, nil, nil)
	assert.Error(t, err)
}

func TestIngestThenSearchForEachFormat(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv(t)

	tests := []struct {
		name  string
		path  func() string
		query string
	}{
		{
			name:  "txt",
			path:  func() string { return env.write(t, "notes.txt", "Octopuses have three hearts and blue blood.") },
			query: "octopuses hearts",
		},
		{
			name:  "csv",
			path:  func() string { return env.write(t, "planets.csv", "planet,moons\nJupiter,95\nMars,2\n") },
			query: "Jupiter moons",
		},
		{
			name: "json",
			path: func() string {
				return env.write(t, "faq.json", `[{"title":"t1","body":"Tomatoes are botanically fruits."}]`)
			},
			query: "tomatoes fruits",
		},
		{
			name: "html",
			path: func() string {
				return env.write(t, "page.html", "<html><body><p>Volcanoes erupt molten lava.</p></body></html>")
			},
			query: "volcanoes lava",
		},
		{
			name:  "docx",
			path:  func() string { return env.writeDocx(t, "memo.docx", "Glaciers carve valleys slowly.") },
			query: "glaciers valleys",
		},
		{
			name:  "pdf",
			path:  func() string { return env.writePDF(t, "atlas.pdf", "Mount Everest is the highest mountain.") },
			query: "highest mountain everest",
		},
		{
			name:  "doc",
			path:  func() string { return env.writeDocx(t, "legacy.doc", "Penguins cannot fly.") },
			query: "penguins fly",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			docID := "doc-" + tt.name
			require.True(t, env.pipeline.Ingest(ctx, tt.path(), docID))

			results, err := env.store.Search(ctx, tt.query, 10)
			require.NoError(t, err)
			assert.Contains(t, documentIDs(results), docID)
		})
	}
}

func TestIngestParisDocument(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv(t)

	path := env.write(t, "france.txt", "The capital of France is Paris.")
	require.True(t, env.pipeline.Ingest(ctx, path, "france"))
	require.True(t, env.pipeline.Ingest(ctx, env.write(t, "fruit.txt", "Bananas are yellow."), "fruit"))

	results, err := env.store.Search(ctx, "What is the capital of France?", 1)
	require.NoError(t, err)
	require.Len(t, results, 1)
	assert.Contains(t, results[0].Content, "Paris")
	assert.Equal(t, "france", results[0].MetaData[vector_store.MetaDocumentID])
	assert.Equal(t, "france.txt", filepath.Base(results[0].MetaData[loader.MetaSource].(string)))
}

func TestIngestPDFRecordsPageNumber(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv(t)

	path := env.writePDF(t, "france.pdf", "The capital of France is Paris.")
	require.NoError(t, env.pipeline.IngestE(ctx, path, "pdf-1"))

	chunks, err := env.store.ListByDocumentID(ctx, "pdf-1")
	require.NoError(t, err)
	require.Len(t, chunks, 1)
	assert.Contains(t, chunks[0].Content, "Paris")
	assert.EqualValues(t, 1, chunks[0].MetaData[loader.MetaPage])
	assert.Equal(t, string(loader.FormatPDF), chunks[0].MetaData[loader.MetaFormat])
	assert.Equal(t, "pdf-1", chunks[0].MetaData[vector_store.MetaDocumentID])
}

func TestIngestUnsupportedFormatDoesNotTouchIndex(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv(t)

	assert.False(t, env.pipeline.Ingest(ctx, "file.exe", "doc-exe"))
	assert.Equal(t, 0, env.embedder.Calls())
	assert.Equal(t, int32(0), env.store.upserts.Load())
	assert.Equal(t, int32(0), env.store.deletes.Load())

	err := env.pipeline.IngestE(ctx, "file.exe", "doc-exe")
	require.Error(t, err)
	assert.True(t, apperrors.Is(err, apperrors.ErrUnsupportedFormat))
}

func TestIngestFailuresAreContained(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv(t)

	t.Run("missing file", func(t *testing.T) {
		assert.False(t, env.pipeline.Ingest(ctx, filepath.Join(env.dir, "missing.txt"), "doc-missing"))
	})

	t.Run("corrupt file", func(t *testing.T) {
		path := env.write(t, "broken.docx", "not a zip archive")
		err := env.pipeline.IngestE(ctx, path, "doc-broken")
		require.Error(t, err)
		assert.True(t, apperrors.Is(err, apperrors.ErrDocumentParseFailed))
	})

	t.Run("empty document id", func(t *testing.T) {
		path := env.write(t, "ok.txt", "some text")
		err := env.pipeline.IngestE(ctx, path, "")
		assert.True(t, apperrors.Is(err, apperrors.ErrInvalidParameter))
	})

	t.Run("embedding failure writes nothing", func(t *testing.T) {
		path := env.write(t, "later.txt", "Saturn has rings.")
		env.embedder.Err = errors.New("quota exceeded")
		defer func() { env.embedder.Err = nil }()

		err := env.pipeline.IngestE(ctx, path, "doc-embed-fail")
		require.Error(t, err)
		assert.True(t, apperrors.Is(err, apperrors.ErrEmbeddingFailed))

		env.embedder.Err = nil
		records, err := env.store.ListByDocumentID(ctx, "doc-embed-fail")
		require.NoError(t, err)
		assert.Empty(t, records)
	})
}

type panicSplitter struct{}

func (panicSplitter) Transform(ctx context.Context, src []*schema.Document, opts ...document.TransformerOption) ([]*schema.Document, error) {
	panic("splitter exploded")
}

func TestIngestRecoversFromPanic(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv(t)

	dispatcher, err := loader.NewDispatcher(ctx, nil)
	require.NoError(t, err)
	p, err := NewPipeline(dispatcher, panicSplitter{}, env.store)
	require.NoError(t, err)

	path := env.write(t, "boom.txt", "content")
	assert.NotPanics(t, func() {
		assert.False(t, p.Ingest(ctx, path, "doc-panic"))
	})
	assert.Equal(t, int32(0), env.store.upserts.Load())
}

func TestReingestReplacesChunks(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv(t)

	// 无自然边界的 2500 字符：ceil((2500-100)/900) = 3 个分块
	path := env.write(t, "long.txt", strings.Repeat("x", 2500))
	require.True(t, env.pipeline.Ingest(ctx, path, "doc-long"))

	first, err := env.store.ListByDocumentID(ctx, "doc-long")
	require.NoError(t, err)
	assert.Len(t, first, 3)

	require.True(t, env.pipeline.Ingest(ctx, path, "doc-long"))
	second, err := env.store.ListByDocumentID(ctx, "doc-long")
	require.NoError(t, err)
	assert.Len(t, second, 3)

	for _, chunk := range second {
		assert.Equal(t, "doc-long", chunk.MetaData[vector_store.MetaDocumentID])
		assert.Contains(t, chunk.MetaData, chunker.MetaChunkIndex)
	}
}

func TestRemove(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv(t)

	require.True(t, env.pipeline.Ingest(ctx, env.write(t, "a.txt", "Comets have icy tails."), "doc-a"))
	require.True(t, env.pipeline.Ingest(ctx, env.write(t, "b.txt", "Comets orbit the sun."), "doc-b"))

	removed, err := env.pipeline.RemoveE(ctx, "doc-a")
	require.NoError(t, err)
	assert.Equal(t, int64(1), removed)

	results, err := env.store.Search(ctx, "comets", 10)
	require.NoError(t, err)
	assert.NotContains(t, documentIDs(results), "doc-a")
	assert.Contains(t, documentIDs(results), "doc-b")

	t.Run("second remove is a no-op", func(t *testing.T) {
		assert.True(t, env.pipeline.Remove(ctx, "doc-a"))
		removed, err := env.pipeline.RemoveE(ctx, "doc-a")
		require.NoError(t, err)
		assert.Equal(t, int64(0), removed)
	})

	t.Run("never indexed document", func(t *testing.T) {
		assert.True(t, env.pipeline.Remove(ctx, "doc-unknown"))
	})

	t.Run("empty document id", func(t *testing.T) {
		assert.False(t, env.pipeline.Remove(ctx, ""))
	})
}
