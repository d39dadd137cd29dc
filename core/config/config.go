package config

import (
	"context"
	"strings"

	apperrors "github.com/Malowking/ragchat/core/errors"
	"github.com/gogf/gf/v2/frame/g"
	"github.com/gogf/gf/v2/os/gcfg"
	"github.com/gogf/gf/v2/os/genv"
)

// Load 从默认的 gf 配置读取并校验
func Load(ctx context.Context) (*Config, error) {
	return LoadFrom(ctx, g.Cfg())
}

// LoadFrom 从指定的 gcfg 实例读取配置，环境变量优先于配置文件
func LoadFrom(ctx context.Context, c *gcfg.Config) (*Config, error) {
	cfg := &Config{
		RAG: RAGConfig{
			ChunkSize:     c.MustGet(ctx, "rag.chunkSize", 1000).Int(),
			ChunkOverlap:  c.MustGet(ctx, "rag.chunkOverlap", 100).Int(),
			RetrieverTopK: envInt("SEARCH_VECTORSTORE_K", c.MustGet(ctx, "rag.retrieverTopK", 3).Int()),
			HistoryLimit:  envInt("MESSAGE_HISTORY_LIMIT", c.MustGet(ctx, "rag.historyLimit", 10).Int()),
			Collection:    c.MustGet(ctx, "rag.collection", "first_rag").String(),
			JSONField:     c.MustGet(ctx, "rag.jsonField", "body").String(),
		},
		Embedding: EmbeddingConfig{
			APIKey:     c.MustGet(ctx, "embedding.apiKey", "").String(),
			BaseURL:    c.MustGet(ctx, "embedding.baseURL", "").String(),
			Model:      c.MustGet(ctx, "embedding.model", "text-embedding-3-small").String(),
			ByAzure:    c.MustGet(ctx, "embedding.byAzure", false).Bool(),
			APIVersion: c.MustGet(ctx, "embedding.apiVersion", "").String(),
			Dimensions: c.MustGet(ctx, "embedding.dimensions", 0).Int(),
		},
		LLM: LLMConfig{
			Provider:   strings.ToLower(c.MustGet(ctx, "llm.provider", ProviderOpenAI).String()),
			APIKey:     c.MustGet(ctx, "llm.apiKey", "").String(),
			BaseURL:    c.MustGet(ctx, "llm.baseURL", "").String(),
			Model:      envString("AZURE_OPENAI_DEPLOYMENT_NAME", c.MustGet(ctx, "llm.model", "gpt-4o-mini").String()),
			ByAzure:    c.MustGet(ctx, "llm.byAzure", false).Bool(),
			APIVersion: c.MustGet(ctx, "llm.apiVersion", "").String(),
		},
		VectorStore: VectorStoreConfig{
			Type: strings.ToLower(c.MustGet(ctx, "vectorStore.type", VectorStoreSQLite).String()),
			SQLite: SQLiteConfig{
				Path: c.MustGet(ctx, "vectorStore.sqlite.path", "./data/vectors.db").String(),
			},
			Milvus: MilvusConfig{
				Address:  c.MustGet(ctx, "vectorStore.milvus.address", "").String(),
				Database: c.MustGet(ctx, "vectorStore.milvus.database", "default").String(),
				Dim:      c.MustGet(ctx, "vectorStore.milvus.dim", 1536).Int(),
			},
			Postgres: PostgresConfig{
				Host:     c.MustGet(ctx, "vectorStore.postgres.host", "").String(),
				Port:     c.MustGet(ctx, "vectorStore.postgres.port", "5432").String(),
				User:     c.MustGet(ctx, "vectorStore.postgres.user", "").String(),
				Password: c.MustGet(ctx, "vectorStore.postgres.password", "").String(),
				Database: c.MustGet(ctx, "vectorStore.postgres.database", "").String(),
				SSLMode:  c.MustGet(ctx, "vectorStore.postgres.sslmode", "disable").String(),
				Dim:      c.MustGet(ctx, "vectorStore.postgres.dim", 1536).Int(),
			},
		},
		Database: DatabaseConfig{
			Type:    c.MustGet(ctx, "database.type", "mysql").String(),
			Host:    c.MustGet(ctx, "database.host", "127.0.0.1").String(),
			Port:    c.MustGet(ctx, "database.port", "3306").String(),
			User:    c.MustGet(ctx, "database.user", "root").String(),
			Pass:    c.MustGet(ctx, "database.pass", "").String(),
			Name:    c.MustGet(ctx, "database.name", "ragchat").String(),
			Charset: c.MustGet(ctx, "database.charset", "utf8mb4").String(),
		},
		FileStore: FileStoreConfig{
			Type:     strings.ToLower(c.MustGet(ctx, "fileStore.type", FileStoreLocal).String()),
			LocalDir: c.MustGet(ctx, "fileStore.local.dir", "./upload").String(),
			Minio: MinioConfig{
				Endpoint:  c.MustGet(ctx, "fileStore.minio.endpoint", "").String(),
				AccessKey: c.MustGet(ctx, "fileStore.minio.accessKey", "").String(),
				SecretKey: c.MustGet(ctx, "fileStore.minio.secretKey", "").String(),
				Bucket:    c.MustGet(ctx, "fileStore.minio.bucket", "ragchat").String(),
				UseSSL:    c.MustGet(ctx, "fileStore.minio.useSSL", false).Bool(),
			},
		},
		Redis: RedisConfig{
			Address:    c.MustGet(ctx, "redis.address", "").String(),
			Password:   c.MustGet(ctx, "redis.password", "").String(),
			DB:         c.MustGet(ctx, "redis.db", 0).Int(),
			HistoryTTL: c.MustGet(ctx, "redis.historyTTL", "30m").Duration(),
		},
	}

	origins := envString("ALLOW_CORS_ORIGINS", c.MustGet(ctx, "server.corsOrigins", "").String())
	for _, o := range strings.Split(origins, ",") {
		if o = strings.TrimSpace(o); o != "" {
			cfg.CORSOrigins = append(cfg.CORSOrigins, o)
		}
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	if cfg.Embedding.APIKey == "" {
		g.Log().Warning(ctx, "embedding.apiKey is not set")
	}
	if cfg.LLM.APIKey == "" {
		g.Log().Warning(ctx, "llm.apiKey is not set")
	}
	return cfg, nil
}

// Validate 校验配置之间的约束
func (c *Config) Validate() error {
	var problems []string

	if c.RAG.ChunkSize <= 0 {
		problems = append(problems, "rag.chunkSize must be positive")
	}
	if c.RAG.ChunkOverlap < 0 || c.RAG.ChunkOverlap >= c.RAG.ChunkSize {
		problems = append(problems, "rag.chunkOverlap must be in [0, chunkSize)")
	}
	if c.RAG.RetrieverTopK <= 0 {
		problems = append(problems, "rag.retrieverTopK must be positive")
	}
	if c.RAG.HistoryLimit <= 0 {
		problems = append(problems, "rag.historyLimit must be positive")
	}
	if c.RAG.JSONField == "" {
		problems = append(problems, "rag.jsonField is required")
	}

	switch c.VectorStore.Type {
	case VectorStoreSQLite:
		if c.VectorStore.SQLite.Path == "" {
			problems = append(problems, "vectorStore.sqlite.path is required")
		}
	case VectorStoreMilvus:
		if c.VectorStore.Milvus.Address == "" {
			problems = append(problems, "vectorStore.milvus.address is required")
		}
	case VectorStorePgvector:
		pg := c.VectorStore.Postgres
		if pg.Host == "" || pg.User == "" || pg.Database == "" {
			problems = append(problems, "vectorStore.postgres requires host, user and database")
		}
	default:
		problems = append(problems, "unknown vectorStore.type: "+c.VectorStore.Type)
	}

	switch c.LLM.Provider {
	case ProviderOpenAI, ProviderQwen:
	default:
		problems = append(problems, "unknown llm.provider: "+c.LLM.Provider)
	}

	switch c.FileStore.Type {
	case FileStoreLocal:
	case FileStoreMinio:
		if c.FileStore.Minio.Endpoint == "" {
			problems = append(problems, "fileStore.minio.endpoint is required")
		}
	default:
		problems = append(problems, "unknown fileStore.type: "+c.FileStore.Type)
	}

	if c.Redis.Address != "" && c.Redis.HistoryTTL <= 0 {
		problems = append(problems, "redis.historyTTL must be positive")
	}

	if len(problems) > 0 {
		return apperrors.Newf(apperrors.ErrInvalidParameter, "invalid configuration:\n- %s", strings.Join(problems, "\n- "))
	}
	return nil
}

func envInt(key string, def int) int {
	if v := genv.Get(key); !v.IsEmpty() {
		return v.Int()
	}
	return def
}

func envString(key string, def string) string {
	if v := genv.Get(key); !v.IsEmpty() {
		return v.String()
	}
	return def
}
