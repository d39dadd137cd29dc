package indexer

import (
	"context"
	"fmt"
	"path/filepath"
	"time"

	"github.com/Malowking/ragchat/core/common"
	apperrors "github.com/Malowking/ragchat/core/errors"
	"github.com/Malowking/ragchat/core/loader"
	"github.com/Malowking/ragchat/core/vector_store"
	"github.com/cloudwego/eino/components/document"
	"github.com/cloudwego/eino/schema"
	"github.com/gogf/gf/v2/frame/g"
	"github.com/google/uuid"
)

// DocumentLoader 读取本地文件并解析为原始记录
type DocumentLoader interface {
	Load(ctx context.Context, path string) ([]*schema.Document, error)
}

// Pipeline 文档入库流水线：解析 -> 清洗 -> 切分 -> 打标 -> 写入向量索引
// 也是向量索引唯一的写入方
type Pipeline struct {
	loader   DocumentLoader
	splitter document.Transformer
	store    vector_store.VectorStore
}

// NewPipeline 依赖全部由调用方注入
func NewPipeline(docLoader DocumentLoader, splitter document.Transformer, store vector_store.VectorStore) (*Pipeline, error) {
	if docLoader == nil || splitter == nil || store == nil {
		return nil, fmt.Errorf("loader, splitter and vector store are required")
	}
	return &Pipeline{
		loader:   docLoader,
		splitter: splitter,
		store:    store,
	}, nil
}

// indexContext 在流水线各步骤之间传递数据
type indexContext struct {
	ctx        context.Context
	path       string
	documentID string
	format     loader.Format
	records    []*schema.Document
	chunks     []*schema.Document
}

// Ingest 入库单个文件，任何失败都只记录日志并返回 false
func (p *Pipeline) Ingest(ctx context.Context, path, documentID string) bool {
	if err := p.IngestE(ctx, path, documentID); err != nil {
		g.Log().Errorf(ctx, "Failed to ingest %s (documentId=%s): %v", filepath.Base(path), documentID, err)
		return false
	}
	return true
}

// IngestE 与 Ingest 相同，但返回失败原因
func (p *Pipeline) IngestE(ctx context.Context, path, documentID string) (err error) {
	defer common.RecoverToError(ctx, "ingest "+filepath.Base(path), &err)

	if documentID == "" {
		return apperrors.New(apperrors.ErrInvalidParameter, "document id cannot be empty")
	}

	idxCtx := &indexContext{
		ctx:        ctx,
		path:       path,
		documentID: documentID,
	}

	pipeline := []struct {
		name string
		fn   func(*indexContext) error
	}{
		{"Validate format", p.stepValidateFormat},
		{"Load document", p.stepLoad},
		{"Clean text", p.stepClean},
		{"Split document", p.stepSplit},
		{"Tag chunks", p.stepTag},
		{"Clean old data", p.stepCleanOldData},
		{"Vectorize and store", p.stepVectorizeAndStore},
	}

	for _, step := range pipeline {
		start := time.Now()
		if err := step.fn(idxCtx); err != nil {
			return fmt.Errorf("%s failed: %w", step.name, err)
		}
		g.Log().Debugf(ctx, "Step done: %s, documentId=%s, elapsed=%s", step.name, documentID, time.Since(start))
	}

	g.Log().Infof(ctx, "Document indexed successfully, documentId=%s, file=%s, format=%s, chunks=%d",
		documentID, filepath.Base(path), idxCtx.format, len(idxCtx.chunks))
	return nil
}

// Remove 删除文档的全部向量记录，删除 0 条也算成功
func (p *Pipeline) Remove(ctx context.Context, documentID string) bool {
	removed, err := p.RemoveE(ctx, documentID)
	if err != nil {
		g.Log().Errorf(ctx, "Failed to remove vectors, documentId=%s, err=%v", documentID, err)
		return false
	}
	g.Log().Infof(ctx, "Removed %d vectors for documentId=%s", removed, documentID)
	return true
}

// RemoveE 与 Remove 相同，但返回删除条数和失败原因
func (p *Pipeline) RemoveE(ctx context.Context, documentID string) (removed int64, err error) {
	defer common.RecoverToError(ctx, "remove "+documentID, &err)

	if documentID == "" {
		return 0, apperrors.New(apperrors.ErrInvalidParameter, "document id cannot be empty")
	}
	return p.store.DeleteByDocumentID(ctx, documentID)
}

// stepValidateFormat 不支持的格式直接失败，不触碰向量索引
func (p *Pipeline) stepValidateFormat(idxCtx *indexContext) error {
	format, err := loader.FormatFromPath(idxCtx.path)
	if err != nil {
		return err
	}
	idxCtx.format = format
	return nil
}

func (p *Pipeline) stepLoad(idxCtx *indexContext) error {
	records, err := p.loader.Load(idxCtx.ctx, idxCtx.path)
	if err != nil {
		return err
	}
	if len(records) == 0 {
		return apperrors.Newf(apperrors.ErrDocumentParseFailed, "no content extracted from %s", filepath.Base(idxCtx.path))
	}
	idxCtx.records = records
	return nil
}

// stepClean 清理控制字符与零宽字符，统一空白
func (p *Pipeline) stepClean(idxCtx *indexContext) error {
	cleaned := make([]*schema.Document, 0, len(idxCtx.records))
	for _, record := range idxCtx.records {
		if record == nil {
			continue
		}
		record.Content = common.CleanText(record.Content, common.ProfileEmbedding)
		if record.Content != "" {
			cleaned = append(cleaned, record)
		}
	}
	if len(cleaned) == 0 {
		return apperrors.Newf(apperrors.ErrDocumentParseFailed, "no text left in %s after cleaning", filepath.Base(idxCtx.path))
	}
	idxCtx.records = cleaned
	return nil
}

func (p *Pipeline) stepSplit(idxCtx *indexContext) error {
	chunks, err := p.splitter.Transform(idxCtx.ctx, idxCtx.records)
	if err != nil {
		return apperrors.Wrap(apperrors.ErrDocumentParseFailed, err, "failed to split document")
	}
	if len(chunks) == 0 {
		return apperrors.Newf(apperrors.ErrDocumentParseFailed, "document %s produced no chunks", filepath.Base(idxCtx.path))
	}
	idxCtx.chunks = chunks
	return nil
}

// stepTag 每个分块写入所属文档 ID 并分配唯一 ID
func (p *Pipeline) stepTag(idxCtx *indexContext) error {
	for _, chunk := range idxCtx.chunks {
		if chunk.MetaData == nil {
			chunk.MetaData = make(map[string]any)
		}
		chunk.MetaData[vector_store.MetaDocumentID] = idxCtx.documentID
		chunk.ID = uuid.NewString()
	}
	return nil
}

// stepCleanOldData 同一文档重复入库时先清掉旧向量
func (p *Pipeline) stepCleanOldData(idxCtx *indexContext) error {
	removed, err := p.store.DeleteByDocumentID(idxCtx.ctx, idxCtx.documentID)
	if err != nil {
		return err
	}
	if removed > 0 {
		g.Log().Infof(idxCtx.ctx, "Replaced %d existing vectors for documentId=%s", removed, idxCtx.documentID)
	}
	return nil
}

func (p *Pipeline) stepVectorizeAndStore(idxCtx *indexContext) error {
	return p.store.Upsert(idxCtx.ctx, idxCtx.documentID, idxCtx.chunks)
}
