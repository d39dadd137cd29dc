package ragchat

import (
	"context"

	v1 "github.com/Malowking/ragchat/api/ragchat/v1"
	"github.com/gogf/gf/v2/os/gtime"
)

func (c *ControllerV1) Sessions(ctx context.Context, req *v1.SessionsReq) (res *v1.SessionsRes, err error) {
	sessions, err := c.sessions.ListSessions(ctx, req.UserId)
	if err != nil {
		return nil, err
	}
	res = &v1.SessionsRes{Data: make([]*v1.SessionInfo, 0, len(sessions))}
	for _, s := range sessions {
		info := &v1.SessionInfo{
			Id:        s.ID,
			Title:     s.Title,
			StartedAt: gtime.NewFromTime(s.StartedAt),
		}
		if s.EndedAt != nil {
			info.EndedAt = gtime.NewFromTime(*s.EndedAt)
		}
		res.Data = append(res.Data, info)
	}
	return res, nil
}

func (c *ControllerV1) Messages(ctx context.Context, req *v1.MessagesReq) (res *v1.MessagesRes, err error) {
	turns, err := c.sessions.ListMessages(ctx, req.SessionId)
	if err != nil {
		return nil, err
	}
	res = &v1.MessagesRes{Data: make([]*v1.MessageInfo, 0, len(turns))}
	for _, t := range turns {
		res.Data = append(res.Data, &v1.MessageInfo{Role: string(t.Role), Content: t.Content})
	}
	return res, nil
}

func (c *ControllerV1) DeleteSession(ctx context.Context, req *v1.DeleteSessionReq) (res *v1.DeleteSessionRes, err error) {
	if err = c.sessions.DeleteSession(ctx, req.SessionId); err != nil {
		return nil, err
	}
	return &v1.DeleteSessionRes{Message: "Session deleted"}, nil
}

func (c *ControllerV1) AdminUserId(ctx context.Context, req *v1.AdminUserIdReq) (res *v1.AdminUserIdRes, err error) {
	id, err := c.sessions.GetAdminUserID(ctx)
	if err != nil {
		return nil, err
	}
	return &v1.AdminUserIdRes{UserId: id}, nil
}
