package v1

import (
	"github.com/gogf/gf/v2/frame/g"
	"github.com/gogf/gf/v2/os/gtime"
)

type SessionsReq struct {
	g.Meta `path:"/v1/sessions" method:"get" tags:"sessions"`
	UserId string `p:"user_id" dc:"User ID" v:"required"`
}

type SessionsRes struct {
	g.Meta `mime:"application/json"`
	Data   []*SessionInfo `json:"data"`
}

type SessionInfo struct {
	Id        string      `json:"id"`
	Title     string      `json:"title"`
	StartedAt *gtime.Time `json:"started_at"`
	EndedAt   *gtime.Time `json:"ended_at,omitempty"`
}

type MessagesReq struct {
	g.Meta    `path:"/v1/messages" method:"get" tags:"sessions"`
	SessionId string `p:"session_id" dc:"Session ID" v:"required"`
}

type MessagesRes struct {
	g.Meta `mime:"application/json"`
	Data   []*MessageInfo `json:"data"`
}

// MessageInfo 按时间顺序展开的一条 human 或 ai 消息
type MessageInfo struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type DeleteSessionReq struct {
	g.Meta    `path:"/v1/session" method:"delete" tags:"sessions"`
	SessionId string `p:"session_id" dc:"Session ID" v:"required"`
}

type DeleteSessionRes struct {
	g.Meta  `mime:"application/json"`
	Message string `json:"message"`
}

type AdminUserIdReq struct {
	g.Meta `path:"/v1/users/admin_user_id" method:"get" tags:"users"`
}

type AdminUserIdRes struct {
	g.Meta `mime:"application/json"`
	UserId string `json:"user_id"`
}
