package chat

import (
	"context"
	"fmt"
	"strings"

	"github.com/Malowking/ragchat/core/common"
	apperrors "github.com/Malowking/ragchat/core/errors"
	"github.com/Malowking/ragchat/internal/history"
	gormModel "github.com/Malowking/ragchat/internal/model/gorm"
	"github.com/cloudwego/eino/schema"
	"github.com/gogf/gf/v2/frame/g"
)

// SessionStore 会话读写
type SessionStore interface {
	Create(ctx context.Context, userID, title string) (*gormModel.ChatSession, error)
	Get(ctx context.Context, sessionID string) (*gormModel.ChatSession, error)
}

// MessageStore 消息写入
type MessageStore interface {
	Create(ctx context.Context, message *gormModel.Message) error
}

// AttachFunc 把附件归入已确定的会话，在对话链执行前调用
type AttachFunc func(ctx context.Context, sessionID string) error

// Request 一轮对话请求，SessionID 为空时新建会话
type Request struct {
	UserID    string
	SessionID string
	Question  string
	// Attach 可选，随问题一起提交的文件在此入库
	Attach AttachFunc
}

// Response 一轮对话结果
type Response struct {
	SessionID string
	Title     string
	Answer    string
	Sources   []*schema.Document
}

// Service 对话服务：会话管理、历史读取、执行对话链、成功后保存消息
type Service struct {
	chain        *Chain
	titles       *TitleGenerator
	history      history.Store
	sessions     SessionStore
	messages     MessageStore
	historyLimit int
}

// ServiceConfig Service 的依赖
type ServiceConfig struct {
	Chain        *Chain
	Titles       *TitleGenerator
	History      history.Store
	Sessions     SessionStore
	Messages     MessageStore
	HistoryLimit int
}

// NewService 创建对话服务
func NewService(cfg *ServiceConfig) (*Service, error) {
	if cfg == nil || cfg.Chain == nil || cfg.History == nil || cfg.Sessions == nil || cfg.Messages == nil {
		return nil, fmt.Errorf("chain, history, sessions and messages are required")
	}
	if cfg.HistoryLimit <= 0 {
		return nil, fmt.Errorf("history limit must be positive, got %d", cfg.HistoryLimit)
	}
	titles := cfg.Titles
	if titles == nil {
		titles = NewTitleGenerator(nil)
	}
	return &Service{
		chain:        cfg.Chain,
		titles:       titles,
		history:      cfg.History,
		sessions:     cfg.Sessions,
		messages:     cfg.Messages,
		historyLimit: cfg.HistoryLimit,
	}, nil
}

// Chat 执行一轮对话。对话链失败时不保存消息，返回的错误不包含文档内容
func (s *Service) Chat(ctx context.Context, req *Request) (*Response, error) {
	if req == nil || strings.TrimSpace(req.Question) == "" {
		return nil, apperrors.New(apperrors.ErrInvalidParameter, "question cannot be empty")
	}
	g.Log().Infof(ctx, "Session ID: %s, User Query: %s", req.SessionID, req.Question)

	resp := &Response{SessionID: req.SessionID}
	if err := s.ensureSession(ctx, req, resp); err != nil {
		return nil, err
	}
	if req.Attach != nil {
		if err := req.Attach(ctx, resp.SessionID); err != nil {
			return nil, err
		}
	}

	turns, err := s.history.GetHistory(ctx, resp.SessionID, s.historyLimit)
	if err != nil {
		return nil, apperrors.Wrap(apperrors.ErrDatabaseQuery, err, "failed to load chat history")
	}

	out, err := s.chain.Run(ctx, &TurnInput{
		Question: req.Question,
		History:  history.ToSchemaMessages(turns),
	})
	if err != nil {
		g.Log().Errorf(ctx, "Chat turn failed, sessionId=%s, err=%v", resp.SessionID, err)
		return nil, apperrors.Wrap(apperrors.ErrChatFailed, err, "failed to process chat request")
	}

	message := &gormModel.Message{
		SessionID: resp.SessionID,
		Question:  req.Question,
		Answer:    out.Answer,
	}
	if err := s.messages.Create(ctx, message); err != nil {
		return nil, apperrors.Wrap(apperrors.ErrDatabaseInsert, err, "failed to save message")
	}
	if inv, ok := s.history.(history.Invalidator); ok {
		if err := inv.Invalidate(ctx, resp.SessionID); err != nil {
			g.Log().Warningf(ctx, "Failed to invalidate history cache, sessionId=%s, err=%v", resp.SessionID, err)
		}
	}

	resp.Answer = out.Answer
	resp.Sources = out.Context
	return resp, nil
}

// ensureSession 没有会话ID时用生成的标题新建会话，有则校验其存在
func (s *Service) ensureSession(ctx context.Context, req *Request, resp *Response) error {
	if req.SessionID != "" {
		if !common.ValidateUUID(req.SessionID) {
			return apperrors.Newf(apperrors.ErrInvalidParameter, "invalid session id: %s", req.SessionID)
		}
		session, err := s.sessions.Get(ctx, req.SessionID)
		if err != nil {
			return apperrors.Wrap(apperrors.ErrDatabaseQuery, err, "failed to load session")
		}
		if session == nil {
			return apperrors.Newf(apperrors.ErrSessionNotFound, "session not found: %s", req.SessionID)
		}
		return nil
	}

	if req.UserID == "" {
		return apperrors.New(apperrors.ErrInvalidParameter, "user id is required to start a session")
	}
	resp.Title = s.titles.Generate(ctx, req.Question)
	session, err := s.sessions.Create(ctx, req.UserID, resp.Title)
	if err != nil {
		return apperrors.Wrap(apperrors.ErrDatabaseInsert, err, "failed to create session")
	}
	resp.SessionID = session.ID
	g.Log().Infof(ctx, "Chat session created with ID: %s", session.ID)
	return nil
}
