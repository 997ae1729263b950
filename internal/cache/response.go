package cache

import (
	"context"
	"errors"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog/log"
)

type RedisClient interface {
	Set(ctx context.Context, key string, value interface{}, expiration time.Duration) *redis.StatusCmd
	Get(ctx context.Context, key string) *redis.StringCmd
}

// ResponseCache keeps raw upstream bodies in Redis. Failures are logged and
// treated as misses so a broken cache never fails a request.
type ResponseCache struct {
	redis RedisClient
}

func NewResponseCache(client RedisClient) *ResponseCache {
	return &ResponseCache{redis: client}
}

func (c *ResponseCache) Load(ctx context.Context, key string) ([]byte, bool) {
	data, err := c.redis.Get(ctx, key).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, false
	}
	if err != nil {
		log.Warn().Err(err).Str("key", key).Msg("redis cache read error")
		return nil, false
	}
	return data, true
}

func (c *ResponseCache) Store(ctx context.Context, key string, body []byte, ttl time.Duration) {
	if err := c.redis.Set(ctx, key, body, ttl).Err(); err != nil {
		log.Warn().Err(err).Str("key", key).Msg("redis cache write error")
	}
}
