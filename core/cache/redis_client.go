package cache

import (
	"context"

	"github.com/Malowking/ragchat/core/config"
	"github.com/gogf/gf/v2/frame/g"
	"github.com/redis/go-redis/v9"
)

// NewRedisClient 创建 Redis 客户端并测试连接
func NewRedisClient(ctx context.Context, cfg *config.RedisConfig) (*redis.Client, error) {
	rdb := redis.NewClient(&redis.Options{
		Addr:         cfg.Address,
		Password:     cfg.Password,
		DB:           cfg.DB,
		MaxRetries:   3,
		PoolSize:     10,
		MinIdleConns: 2,
	})

	if err := rdb.Ping(ctx).Err(); err != nil {
		g.Log().Errorf(ctx, "Redis connection failed: %v", err)
		_ = rdb.Close()
		return nil, err
	}

	g.Log().Infof(ctx, "Redis initialized successfully: %s, DB: %d", cfg.Address, cfg.DB)
	return rdb, nil
}
