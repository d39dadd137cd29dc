package document

import (
	"context"
	"fmt"
	"io"
	"path/filepath"
	"strings"

	apperrors "github.com/Malowking/ragchat/core/errors"
	"github.com/Malowking/ragchat/core/file_store"
	"github.com/Malowking/ragchat/core/loader"
	gormModel "github.com/Malowking/ragchat/internal/model/gorm"
	"github.com/gogf/gf/v2/frame/g"
)

// FileRecords 上传文件登记表的读写
type FileRecords interface {
	Create(ctx context.Context, file *gormModel.UploadedFile) error
	UpdateStoragePath(ctx context.Context, id uint64, storagePath string) error
	Get(ctx context.Context, id uint64) (*gormModel.UploadedFile, error)
	ListBySession(ctx context.Context, sessionID string) ([]*gormModel.UploadedFile, error)
	Delete(ctx context.Context, id uint64) (bool, error)
}

// SystemSessions 提供上传时未指定会话所用的默认会话
type SystemSessions interface {
	GetSystemSession(ctx context.Context) (string, error)
}

// Indexer 文档入库与删除，由 indexer.Pipeline 实现
type Indexer interface {
	IngestE(ctx context.Context, path, documentID string) error
	RemoveE(ctx context.Context, documentID string) (int64, error)
}

// Service 文档上传、删除与列表
type Service struct {
	files    FileRecords
	sessions SystemSessions
	store    file_store.FileStore
	indexer  Indexer
}

// NewService 创建文档服务
func NewService(files FileRecords, sessions SystemSessions, store file_store.FileStore, indexer Indexer) (*Service, error) {
	if files == nil || sessions == nil || store == nil || indexer == nil {
		return nil, fmt.Errorf("file records, sessions, file store and indexer are required")
	}
	return &Service{files: files, sessions: sessions, store: store, indexer: indexer}, nil
}

// Upload 登记 -> 保存 -> 入库，入库失败时回滚登记记录与已保存的文件
func (s *Service) Upload(ctx context.Context, sessionID, fileName string, r io.Reader) (*gormModel.UploadedFile, error) {
	fileName = baseName(fileName)
	if fileName == "" || r == nil {
		return nil, apperrors.New(apperrors.ErrInvalidParameter, "file is required")
	}
	if _, err := loader.FormatFromPath(fileName); err != nil {
		return nil, err
	}

	if sessionID == "" {
		systemID, err := s.sessions.GetSystemSession(ctx)
		if err != nil {
			return nil, apperrors.Wrap(apperrors.ErrDatabaseQuery, err, "failed to get system session")
		}
		sessionID = systemID
	}

	file := &gormModel.UploadedFile{SessionID: sessionID, Name: fileName}
	if err := s.files.Create(ctx, file); err != nil {
		return nil, apperrors.Wrap(apperrors.ErrDatabaseInsert, err, "failed to save file record")
	}

	path, err := s.store.Save(ctx, sessionID, fmt.Sprintf("%d_%s", file.ID, fileName), r)
	if err != nil {
		s.rollback(ctx, file, "")
		return nil, err
	}
	if err := s.files.UpdateStoragePath(ctx, file.ID, path); err != nil {
		s.rollback(ctx, file, path)
		return nil, apperrors.Wrap(apperrors.ErrDatabaseInsert, err, "failed to save file record")
	}
	file.StoragePath = path

	if err := s.indexer.IngestE(ctx, path, file.DocumentID()); err != nil {
		g.Log().Errorf(ctx, "Failed to index %s (fileId=%d): %v", fileName, file.ID, err)
		s.rollback(ctx, file, path)
		return nil, apperrors.Wrapf(apperrors.ErrIndexWrite, err, "failed to index %s", fileName)
	}

	g.Log().Infof(ctx, "File %s uploaded and indexed, fileId=%d, sessionId=%s", fileName, file.ID, sessionID)
	return file, nil
}

// baseName 客户端文件名只保留最后一段，存储名的 ID 前缀不会被路径吞掉
func baseName(name string) string {
	name = filepath.Base(strings.ReplaceAll(strings.TrimSpace(name), "\\", "/"))
	if name == "." || name == ".." || name == "/" {
		return ""
	}
	return name
}

// rollback 尽力删除登记记录和文件，失败只记日志
func (s *Service) rollback(ctx context.Context, file *gormModel.UploadedFile, path string) {
	if _, err := s.files.Delete(ctx, file.ID); err != nil {
		g.Log().Errorf(ctx, "Rollback: failed to delete file record %d: %v", file.ID, err)
	}
	if path == "" {
		return
	}
	if err := s.store.Delete(ctx, path); err != nil {
		g.Log().Errorf(ctx, "Rollback: failed to delete stored file %s: %v", path, err)
	}
}

// Delete 先删向量再删登记记录，向量删除失败时保留记录以便重试
func (s *Service) Delete(ctx context.Context, fileID uint64) error {
	if fileID == 0 {
		return apperrors.New(apperrors.ErrInvalidParameter, "file id is required")
	}
	file, err := s.files.Get(ctx, fileID)
	if err != nil {
		return apperrors.Wrap(apperrors.ErrDatabaseQuery, err, "failed to load file record")
	}
	if file == nil {
		return apperrors.Newf(apperrors.ErrDocumentNotFound, "file not found: %d", fileID)
	}

	if _, err := s.indexer.RemoveE(ctx, file.DocumentID()); err != nil {
		return apperrors.Wrapf(apperrors.ErrIndexDelete, err, "failed to delete document %d from the index", fileID)
	}
	if _, err := s.files.Delete(ctx, fileID); err != nil {
		return apperrors.Wrap(apperrors.ErrDatabaseDelete, err, "failed to delete file record")
	}
	if err := s.store.Delete(ctx, file.StoragePath); err != nil {
		g.Log().Warningf(ctx, "File record %d deleted but stored file remains: %v", fileID, err)
	}

	g.Log().Infof(ctx, "Document %d deleted", fileID)
	return nil
}

// List 列出会话中的文件，会话为空时列出默认会话
func (s *Service) List(ctx context.Context, sessionID string) ([]*gormModel.UploadedFile, error) {
	if sessionID == "" {
		systemID, err := s.sessions.GetSystemSession(ctx)
		if err != nil {
			return nil, apperrors.Wrap(apperrors.ErrDatabaseQuery, err, "failed to get system session")
		}
		sessionID = systemID
	}
	files, err := s.files.ListBySession(ctx, sessionID)
	if err != nil {
		return nil, apperrors.Wrap(apperrors.ErrDatabaseQuery, err, "failed to list files")
	}
	return files, nil
}
