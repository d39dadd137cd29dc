package v1

import (
	"github.com/gogf/gf/v2/frame/g"
	"github.com/gogf/gf/v2/net/ghttp"
)

// ChatReq 一轮对话，session_id 为空时新建会话；可附带一个文件，先入库再回答
type ChatReq struct {
	g.Meta    `path:"/v1/chat" method:"post" tags:"chat"`
	Question  string            `p:"question" dc:"User question" v:"required"`
	SessionId string            `p:"session_id" dc:"Session ID, empty to start a new session"`
	UserId    string            `p:"user_id" dc:"User ID, required when starting a new session"`
	File      *ghttp.UploadFile `p:"file" type:"file" dc:"Optional file to index before answering"`
}

type ChatRes struct {
	g.Meta    `mime:"application/json"`
	SessionId string       `json:"session_id"`
	Title     string       `json:"title,omitempty" dc:"Generated title of a new session"`
	Answer    string       `json:"answer"`
	Sources   []*SourceDoc `json:"sources"`
}

// SourceDoc 回答所依据的分块
type SourceDoc struct {
	Id       string         `json:"id"`
	Content  string         `json:"content"`
	Score    float64        `json:"score"`
	MetaData map[string]any `json:"meta_data"`
}
