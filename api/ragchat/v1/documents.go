package v1

import (
	"github.com/gogf/gf/v2/frame/g"
	"github.com/gogf/gf/v2/net/ghttp"
	"github.com/gogf/gf/v2/os/gtime"
)

// UploadDocReq 上传并入库文档，session_id 为空时归入系统默认会话
type UploadDocReq struct {
	g.Meta    `path:"/v1/upload-doc" method:"post" mime:"multipart/form-data" tags:"documents"`
	File      *ghttp.UploadFile `p:"file" type:"file" dc:"Document to upload"`
	SessionId string            `p:"session_id" dc:"Owning session ID"`
}

type UploadDocRes struct {
	g.Meta  `mime:"application/json"`
	FileId  uint64 `json:"file_id"`
	Message string `json:"message"`
}

type ListDocsReq struct {
	g.Meta    `path:"/v1/list-docs" method:"get" tags:"documents"`
	SessionId string `p:"session_id" dc:"Session ID, empty for the system session"`
}

type ListDocsRes struct {
	g.Meta `mime:"application/json"`
	Data   []*DocumentInfo `json:"data"`
}

// DocumentInfo 已上传文件
type DocumentInfo struct {
	Id        uint64      `json:"id"`
	SessionId string      `json:"session_id"`
	Filename  string      `json:"filename"`
	CreatedAt *gtime.Time `json:"created_at"`
}

type DeleteDocReq struct {
	g.Meta `path:"/v1/delete-doc" method:"delete" tags:"documents"`
	FileId uint64 `p:"file_id" dc:"Uploaded file ID" v:"required|min:1"`
}

type DeleteDocRes struct {
	g.Meta  `mime:"application/json"`
	Message string `json:"message"`
}
