package cmd

import (
	"context"

	"github.com/Malowking/ragchat/core/cache"
	"github.com/Malowking/ragchat/core/chunker"
	"github.com/Malowking/ragchat/core/config"
	"github.com/Malowking/ragchat/core/file_store"
	"github.com/Malowking/ragchat/core/indexer"
	"github.com/Malowking/ragchat/core/loader"
	coreModel "github.com/Malowking/ragchat/core/model"
	"github.com/Malowking/ragchat/core/retriever"
	"github.com/Malowking/ragchat/core/vector_store"
	internalCache "github.com/Malowking/ragchat/internal/cache"
	"github.com/Malowking/ragchat/internal/dao"
	"github.com/Malowking/ragchat/internal/history"
	"github.com/Malowking/ragchat/internal/logic/chat"
	"github.com/Malowking/ragchat/internal/logic/document"
	"github.com/Malowking/ragchat/internal/logic/rewriter"
	"github.com/Malowking/ragchat/internal/logic/session"
	"github.com/gogf/gf/v2/frame/g"
)

// application 启动时组装好的全部服务
type application struct {
	chat      *chat.Service
	documents *document.Service
	sessions  *session.Service
	vectors   vector_store.VectorStore
	closers   []func() error
}

// initApp initializes all components of the application
func initApp(ctx context.Context, cfg *config.Config) (app *application, err error) {
	var closers []func() error
	// Validate configuration before initializing components
	g.Log().Info(ctx, "Validating application configuration...")
	if err = cfg.Validate(); err != nil {
		return nil, err
	}

	if err = dao.InitDB(ctx, &cfg.Database); err != nil {
		return nil, err
	}
	defer func() {
		if err != nil {
			_ = dao.CloseDB()
		}
	}()

	fileStore, err := file_store.NewFileStore(ctx, &cfg.FileStore)
	if err != nil {
		return nil, err
	}

	embedder, err := coreModel.NewEmbedder(ctx, &cfg.Embedding)
	if err != nil {
		return nil, err
	}
	chatModel, err := coreModel.NewChatModel(ctx, &cfg.LLM)
	if err != nil {
		return nil, err
	}

	vectors, err := vector_store.NewVectorStore(ctx, &cfg.VectorStore, cfg.RAG.Collection, embedder)
	if err != nil {
		return nil, err
	}
	defer func() {
		if err != nil {
			_ = vectors.Close(ctx)
			for _, closeFn := range closers {
				_ = closeFn()
			}
		}
	}()

	// 入库流水线
	dispatcher, err := loader.NewDispatcher(ctx, &loader.Config{JSONField: cfg.RAG.JSONField})
	if err != nil {
		return nil, err
	}
	splitter, err := chunker.NewSplitter(&chunker.Config{ChunkSize: cfg.RAG.ChunkSize, ChunkOverlap: cfg.RAG.ChunkOverlap})
	if err != nil {
		return nil, err
	}
	pipeline, err := indexer.NewPipeline(dispatcher, splitter, vectors)
	if err != nil {
		return nil, err
	}

	// 对话链
	ret, err := retriever.NewRetriever(vectors, cfg.RAG.RetrieverTopK)
	if err != nil {
		return nil, err
	}
	reformulator, err := rewriter.NewReformulator(chatModel)
	if err != nil {
		return nil, err
	}
	synthesizer, err := chat.NewSynthesizer(chatModel)
	if err != nil {
		return nil, err
	}
	chain, err := chat.NewChain(ctx, reformulator, ret, synthesizer)
	if err != nil {
		return nil, err
	}

	var historyStore history.Store = history.NewManager(dao.Message)
	if cfg.Redis.Address != "" {
		rdb, err := cache.NewRedisClient(ctx, &cfg.Redis)
		if err != nil {
			return nil, err
		}
		closers = append(closers, rdb.Close)
		historyStore = internalCache.NewHistoryCache(historyStore, rdb, cfg.Redis.HistoryTTL)
	}

	chatSvc, err := chat.NewService(&chat.ServiceConfig{
		Chain:        chain,
		Titles:       chat.NewTitleGenerator(chatModel),
		History:      historyStore,
		Sessions:     dao.Session,
		Messages:     dao.Message,
		HistoryLimit: cfg.RAG.HistoryLimit,
	})
	if err != nil {
		return nil, err
	}
	documents, err := document.NewService(dao.File, dao.Session, fileStore, pipeline)
	if err != nil {
		return nil, err
	}
	sessions, err := session.NewService(dao.Session, dao.Message, dao.User, pipeline, fileStore)
	if err != nil {
		return nil, err
	}

	g.Log().Info(ctx, "All components initialized successfully")
	return &application{
		chat:      chatSvc,
		documents: documents,
		sessions:  sessions,
		vectors:   vectors,
		closers:   closers,
	}, nil
}

// Close 释放缓存、向量库与数据库连接
func (a *application) Close(ctx context.Context) {
	for _, closeFn := range a.closers {
		if err := closeFn(); err != nil {
			g.Log().Warningf(ctx, "Failed to close redis client: %v", err)
		}
	}
	if err := a.vectors.Close(ctx); err != nil {
		g.Log().Warningf(ctx, "Failed to close vector store: %v", err)
	}
	if err := dao.CloseDB(); err != nil {
		g.Log().Warningf(ctx, "Failed to close database: %v", err)
	}
}
