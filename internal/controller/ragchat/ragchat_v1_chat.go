package ragchat

import (
	"context"

	v1 "github.com/Malowking/ragchat/api/ragchat/v1"
	"github.com/Malowking/ragchat/internal/logic/chat"
	"github.com/cloudwego/eino/schema"
	"github.com/gogf/gf/v2/frame/g"
)

// Chat 一轮对话，附带文件时在会话确定后上传入库
func (c *ControllerV1) Chat(ctx context.Context, req *v1.ChatReq) (res *v1.ChatRes, err error) {
	g.Log().Infof(ctx, "Chat request received - SessionId: %s, UserId: %s, WithFile: %v", req.SessionId, req.UserId, req.File != nil)

	chatReq := &chat.Request{
		UserID:    req.UserId,
		SessionID: req.SessionId,
		Question:  req.Question,
	}
	if req.File != nil {
		// 会话确定之后再上传，新会话也能拥有该文件
		chatReq.Attach = func(ctx context.Context, sessionID string) error {
			_, err := c.uploadFile(ctx, sessionID, req.File)
			return err
		}
	}

	resp, err := c.chat.Chat(ctx, chatReq)
	if err != nil {
		return nil, err
	}

	return &v1.ChatRes{
		SessionId: resp.SessionID,
		Title:     resp.Title,
		Answer:    resp.Answer,
		Sources:   toSourceDocs(resp.Sources),
	}, nil
}

func toSourceDocs(docs []*schema.Document) []*v1.SourceDoc {
	out := make([]*v1.SourceDoc, 0, len(docs))
	for _, doc := range docs {
		if doc == nil {
			continue
		}
		out = append(out, &v1.SourceDoc{
			Id:       doc.ID,
			Content:  doc.Content,
			Score:    doc.Score(),
			MetaData: doc.MetaData,
		})
	}
	return out
}
