package redis

import (
	"context"
	"encoding/json"
	"strconv"
	"time"

	"brainspark-quiz-service/internal/domain"
	"github.com/redis/go-redis/v9"
)

const topperKeySet = "leaderboard:top:keys"

// TopperCache caches rendered leaderboard views between recomputations.
// Each limit gets its own key; the key set tracks them so a recompute can
// drop every cached view at once.
type TopperCache struct {
	client *redis.Client
	ttl    time.Duration
}

func NewTopperCache(client *redis.Client, ttl time.Duration) *TopperCache {
	return &TopperCache{client: client, ttl: ttl}
}

func (c *TopperCache) Get(ctx context.Context, limit int) ([]domain.TopperRow, bool) {
	raw, err := c.client.Get(ctx, c.key(limit)).Bytes()
	if err != nil {
		return nil, false
	}
	var rows []domain.TopperRow
	if err := json.Unmarshal(raw, &rows); err != nil {
		return nil, false
	}
	return rows, true
}

func (c *TopperCache) Set(ctx context.Context, limit int, rows []domain.TopperRow) {
	raw, err := json.Marshal(rows)
	if err != nil {
		return
	}
	// best-effort: a cache write failure just means the next read misses
	pipe := c.client.Pipeline()
	pipe.Set(ctx, c.key(limit), raw, c.ttl)
	pipe.SAdd(ctx, topperKeySet, c.key(limit))
	_, _ = pipe.Exec(ctx)
}

func (c *TopperCache) Invalidate(ctx context.Context) {
	keys, err := c.client.SMembers(ctx, topperKeySet).Result()
	if err != nil {
		return
	}
	keys = append(keys, topperKeySet)
	_ = c.client.Del(ctx, keys...).Err()
}

func (c *TopperCache) key(limit int) string {
	return "leaderboard:top:" + strconv.Itoa(limit)
}
