package config

import "time"

// 向量库类型
const (
	VectorStoreSQLite   = "sqlite"
	VectorStoreMilvus   = "milvus"
	VectorStorePgvector = "pgvector"
)

// LLM 提供方
const (
	ProviderOpenAI = "openai"
	ProviderQwen   = "qwen"
)

// 文件存储类型
const (
	FileStoreLocal = "local"
	FileStoreMinio = "minio"
)

// Config 应用配置，启动时加载一次后只读
type Config struct {
	RAG         RAGConfig
	Embedding   EmbeddingConfig
	LLM         LLMConfig
	VectorStore VectorStoreConfig
	Database    DatabaseConfig
	FileStore   FileStoreConfig
	Redis       RedisConfig
	CORSOrigins []string
}

// RAGConfig 切分、检索与历史窗口参数
type RAGConfig struct {
	ChunkSize     int    // 分块大小（字符）
	ChunkOverlap  int    // 相邻分块重叠字符数
	RetrieverTopK int    // 检索返回数量
	HistoryLimit  int    // 对话历史窗口
	Collection    string // 向量集合名
	JSONField     string // JSON 文档中承载正文的字段
}

// EmbeddingConfig embedding 服务配置
type EmbeddingConfig struct {
	APIKey     string
	BaseURL    string
	Model      string
	ByAzure    bool
	APIVersion string
	Dimensions int
}

// LLMConfig 对话模型配置
type LLMConfig struct {
	Provider   string
	APIKey     string
	BaseURL    string
	Model      string
	ByAzure    bool
	APIVersion string
}

// VectorStoreConfig 向量库配置
type VectorStoreConfig struct {
	Type     string
	SQLite   SQLiteConfig
	Milvus   MilvusConfig
	Postgres PostgresConfig
}

type SQLiteConfig struct {
	Path string
}

type MilvusConfig struct {
	Address  string
	Database string
	Dim      int
}

type PostgresConfig struct {
	Host     string
	Port     string
	User     string
	Password string
	Database string
	SSLMode  string
	Dim      int
}

// DatabaseConfig 关系型数据库配置
type DatabaseConfig struct {
	Type    string // mysql 或 postgresql
	Host    string
	Port    string
	User    string
	Pass    string
	Name    string
	Charset string
}

// FileStoreConfig 上传文件存储配置
type FileStoreConfig struct {
	Type     string
	LocalDir string
	Minio    MinioConfig
}

type MinioConfig struct {
	Endpoint  string
	AccessKey string
	SecretKey string
	Bucket    string
	UseSSL    bool
}

// RedisConfig 对话历史缓存，Address 为空时不启用
type RedisConfig struct {
	Address    string
	Password   string
	DB         int
	HistoryTTL time.Duration
}
