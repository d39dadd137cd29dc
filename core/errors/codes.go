package errors

import "github.com/gogf/gf/v2/errors/gcode"

// ErrCode 业务错误码类型
type ErrCode int

const (
	// 通用错误 1000-1999
	ErrInvalidParameter ErrCode = 1001 // 参数错误
	ErrInternalError    ErrCode = 1003 // 内部错误
	ErrNotFound         ErrCode = 1004 // 资源未找到

	// 模型相关 2000-2999
	ErrModelConfigInvalid ErrCode = 2002 // 模型配置无效
	ErrEmbeddingFailed    ErrCode = 2003 // Embedding失败
	ErrLLMCallFailed      ErrCode = 2004 // LLM调用失败

	// 文档相关 4000-4999
	ErrDocumentNotFound    ErrCode = 4001 // 文档未找到
	ErrDocumentParseFailed ErrCode = 4002 // 文档解析失败
	ErrFileUploadFailed    ErrCode = 4005 // 文件上传失败
	ErrFileDeleteFailed    ErrCode = 4006 // 文件删除失败
	ErrFileReadFailed      ErrCode = 4007 // 文件读取失败
	ErrUnsupportedFormat   ErrCode = 4010 // 不支持的文件格式

	// 向量库 5000-5999
	ErrVectorStoreInit ErrCode = 5001 // 向量库初始化失败
	ErrVectorSearch    ErrCode = 5002 // 向量搜索失败
	ErrIndexWrite      ErrCode = 5003 // 向量写入失败
	ErrIndexDelete     ErrCode = 5004 // 向量删除失败

	// 数据库相关 6000-6999
	ErrDatabaseQuery  ErrCode = 6001 // 数据库查询失败
	ErrDatabaseInsert ErrCode = 6002 // 数据库插入失败
	ErrDatabaseDelete ErrCode = 6004 // 数据库删除失败
	ErrDatabaseInit   ErrCode = 6005 // 数据库初始化失败

	// 对话相关 7000-7999
	ErrSessionNotFound ErrCode = 7001 // 会话未找到
	ErrChatFailed      ErrCode = 7003 // 聊天失败

	// 检索相关 9000-9999
	ErrRetrievalFailed ErrCode = 9001 // 检索失败
	ErrRewriteFailed   ErrCode = 9002 // 查询重写失败
)

// HTTPStatusCode 返回错误码对应的HTTP状态码
func (e ErrCode) HTTPStatusCode() int {
	switch e {
	case ErrInvalidParameter, ErrUnsupportedFormat:
		return 400
	case ErrNotFound, ErrDocumentNotFound, ErrSessionNotFound:
		return 404
	default:
		return 500
	}
}

// GCode 转换为 gf 的错误码，供响应中间件输出
func (e ErrCode) GCode() gcode.Code {
	return gcode.New(int(e), "", nil)
}
