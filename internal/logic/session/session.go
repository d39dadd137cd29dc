package session

import (
	"context"
	"fmt"

	"github.com/Malowking/ragchat/core/common"
	apperrors "github.com/Malowking/ragchat/core/errors"
	"github.com/Malowking/ragchat/core/file_store"
	"github.com/Malowking/ragchat/internal/history"
	gormModel "github.com/Malowking/ragchat/internal/model/gorm"
	"github.com/gogf/gf/v2/frame/g"
)

// SessionRepo 会话读写
type SessionRepo interface {
	ListByUser(ctx context.Context, userID string) ([]*gormModel.ChatSession, error)
	Get(ctx context.Context, sessionID string) (*gormModel.ChatSession, error)
	Delete(ctx context.Context, sessionID string) ([]*gormModel.UploadedFile, error)
}

// MessageRepo 消息读取
type MessageRepo interface {
	List(ctx context.Context, sessionID string) ([]*gormModel.Message, error)
}

// UserRepo 用户读取
type UserRepo interface {
	GetAdminID(ctx context.Context) (string, error)
}

// DocumentRemover 删除文档在向量索引中的全部记录
type DocumentRemover interface {
	RemoveE(ctx context.Context, documentID string) (int64, error)
}

// Service 会话列表、消息列表与会话删除
type Service struct {
	sessions SessionRepo
	messages MessageRepo
	users    UserRepo
	remover  DocumentRemover
	files    file_store.FileStore
}

// NewService 创建会话服务
func NewService(sessions SessionRepo, messages MessageRepo, users UserRepo, remover DocumentRemover, files file_store.FileStore) (*Service, error) {
	if sessions == nil || messages == nil || users == nil || remover == nil || files == nil {
		return nil, fmt.Errorf("sessions, messages, users, remover and file store are required")
	}
	return &Service{sessions: sessions, messages: messages, users: users, remover: remover, files: files}, nil
}

// ListSessions 用户的可见会话，最新的在前
func (s *Service) ListSessions(ctx context.Context, userID string) ([]*gormModel.ChatSession, error) {
	if userID == "" {
		return nil, apperrors.New(apperrors.ErrInvalidParameter, "user id is required")
	}
	sessions, err := s.sessions.ListByUser(ctx, userID)
	if err != nil {
		return nil, apperrors.Wrap(apperrors.ErrDatabaseQuery, err, "failed to list sessions")
	}
	return sessions, nil
}

// ListMessages 会话的全部消息，展开为 human/ai 轮次
func (s *Service) ListMessages(ctx context.Context, sessionID string) ([]history.Turn, error) {
	if !common.ValidateUUID(sessionID) {
		return nil, apperrors.Newf(apperrors.ErrInvalidParameter, "invalid session id: %q", sessionID)
	}
	messages, err := s.messages.List(ctx, sessionID)
	if err != nil {
		return nil, apperrors.Wrap(apperrors.ErrDatabaseQuery, err, "failed to list messages")
	}
	return history.Turns(messages), nil
}

// DeleteSession 删除会话及其消息和文件，再逐个清理文件的向量与存储
// 向量清理失败不会中断其余文件，最后统一返回 ErrIndexDelete
func (s *Service) DeleteSession(ctx context.Context, sessionID string) error {
	if !common.ValidateUUID(sessionID) {
		return apperrors.Newf(apperrors.ErrInvalidParameter, "invalid session id: %q", sessionID)
	}
	existing, err := s.sessions.Get(ctx, sessionID)
	if err != nil {
		return apperrors.Wrap(apperrors.ErrDatabaseQuery, err, "failed to load session")
	}
	if existing == nil {
		return apperrors.Newf(apperrors.ErrSessionNotFound, "session not found: %s", sessionID)
	}

	files, err := s.sessions.Delete(ctx, sessionID)
	if err != nil {
		return apperrors.Wrap(apperrors.ErrDatabaseDelete, err, "failed to delete session")
	}

	var failed []string
	for _, file := range files {
		if _, err := s.remover.RemoveE(ctx, file.DocumentID()); err != nil {
			g.Log().Errorf(ctx, "Failed to remove vectors of file %d in session %s: %v", file.ID, sessionID, err)
			failed = append(failed, file.DocumentID())
			continue
		}
		if err := s.files.Delete(ctx, file.StoragePath); err != nil {
			g.Log().Warningf(ctx, "Stored file of %d remains after session delete: %v", file.ID, err)
		}
	}
	if len(failed) > 0 {
		return apperrors.Newf(apperrors.ErrIndexDelete, "session deleted but vectors of documents %v could not be removed", failed)
	}

	g.Log().Infof(ctx, "Session %s deleted with %d files", sessionID, len(files))
	return nil
}

// GetAdminUserID 内置管理员的用户ID
func (s *Service) GetAdminUserID(ctx context.Context) (string, error) {
	id, err := s.users.GetAdminID(ctx)
	if err != nil {
		return "", apperrors.Wrap(apperrors.ErrDatabaseQuery, err, "failed to get admin user")
	}
	if id == "" {
		return "", apperrors.New(apperrors.ErrNotFound, "admin user not found")
	}
	return id, nil
}
