package cache

import (
	"context"
	"strconv"
	"time"

	"github.com/Malowking/ragchat/internal/history"
	"github.com/bytedance/sonic"
	"github.com/gogf/gf/v2/frame/g"
	"github.com/redis/go-redis/v9"
)

const (
	// Redis key前缀，每个会话一个 hash，field 为历史窗口大小
	historyKeyPrefix = "ragchat:history:"

	defaultHistoryTTL = 30 * time.Minute
)

// HistoryCache 对话历史的读缓存，Redis 不可用时直接读底层存储
type HistoryCache struct {
	next history.Store
	rdb  *redis.Client
	ttl  time.Duration
}

var (
	_ history.Store       = (*HistoryCache)(nil)
	_ history.Invalidator = (*HistoryCache)(nil)
)

// NewHistoryCache ttl<=0 时使用默认 30 分钟
func NewHistoryCache(next history.Store, rdb *redis.Client, ttl time.Duration) *HistoryCache {
	if ttl <= 0 {
		ttl = defaultHistoryTTL
	}
	return &HistoryCache{next: next, rdb: rdb, ttl: ttl}
}

func historyKey(sessionID string) string {
	return historyKeyPrefix + sessionID
}

// GetHistory 先读缓存，未命中时读底层存储并回写
func (c *HistoryCache) GetHistory(ctx context.Context, sessionID string, limit int) ([]history.Turn, error) {
	key, field := historyKey(sessionID), strconv.Itoa(limit)

	cached, err := c.rdb.HGet(ctx, key, field).Result()
	switch {
	case err == nil:
		var turns []history.Turn
		if err := sonic.Unmarshal([]byte(cached), &turns); err == nil {
			return turns, nil
		}
		g.Log().Warningf(ctx, "Corrupt history cache for session %s, reloading", sessionID)
	case err != redis.Nil:
		g.Log().Warningf(ctx, "读取历史缓存失败: %v", err)
	}

	turns, err := c.next.GetHistory(ctx, sessionID, limit)
	if err != nil {
		return nil, err
	}

	data, err := sonic.Marshal(turns)
	if err != nil {
		return turns, nil
	}
	pipe := c.rdb.TxPipeline()
	pipe.HSet(ctx, key, field, data)
	pipe.Expire(ctx, key, c.ttl)
	if _, err := pipe.Exec(ctx); err != nil {
		g.Log().Warningf(ctx, "写入历史缓存失败: %v", err)
	}
	return turns, nil
}

// Invalidate 会话有新消息后清掉缓存
func (c *HistoryCache) Invalidate(ctx context.Context, sessionID string) error {
	return c.rdb.Del(ctx, historyKey(sessionID)).Err()
}
