package cache

import (
	"context"
	"encoding/json"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

// Reference data keys
const (
	StatesKey = "locations:states"
	CitiesKey = "locations:cities"
)

// Cache is a Redis-backed read-through cache. A nil client (Redis disabled or unreachable) turns
// every method into a miss or a no-op so callers fall back to the database.
type Cache struct {
	client *redis.Client
	ttl    time.Duration
	logger *zap.Logger
}

// Connect dials Redis and pings it. On failure the returned Cache is still usable and degrades to
// misses; the error is returned for logging.
func Connect(ctx context.Context, addr, password string, db int, ttl time.Duration, logger *zap.Logger) (*Cache, error) {
	c := &Cache{ttl: ttl, logger: logger.Named("cache")}

	client := redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: password,
		DB:       db,
	})

	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	if err := client.Ping(ctx).Err(); err != nil {
		client.Close()
		return c, err
	}
	c.client = client
	return c, nil
}

// Disabled returns a Cache that never hits.
func Disabled(logger *zap.Logger) *Cache {
	return &Cache{logger: logger.Named("cache")}
}

func (c *Cache) Enabled() bool {
	return c != nil && c.client != nil
}

// GetJSON decodes key into dst and reports whether it was a hit.
func (c *Cache) GetJSON(ctx context.Context, key string, dst any) bool {
	if !c.Enabled() {
		return false
	}
	data, err := c.client.Get(ctx, key).Bytes()
	if err != nil {
		return false
	}
	if err := json.Unmarshal(data, dst); err != nil {
		c.logger.Warn("drop undecodable cache entry", zap.String("key", key), zap.Error(err))
		c.client.Del(ctx, key)
		return false
	}
	return true
}

// SetJSON stores value under key with the default TTL.
func (c *Cache) SetJSON(ctx context.Context, key string, value any) {
	if !c.Enabled() {
		return
	}
	data, err := json.Marshal(value)
	if err != nil {
		return
	}
	if err := c.client.Set(ctx, key, data, c.ttl).Err(); err != nil {
		c.logger.Warn("cache set failed", zap.String("key", key), zap.Error(err))
	}
}

// Invalidate removes keys.
func (c *Cache) Invalidate(ctx context.Context, keys ...string) {
	if !c.Enabled() || len(keys) == 0 {
		return
	}
	if err := c.client.Del(ctx, keys...).Err(); err != nil {
		c.logger.Warn("cache invalidate failed", zap.Strings("keys", keys), zap.Error(err))
	}
}

// Ping reports whether Redis answers. A disabled cache reports an error.
func (c *Cache) Ping(ctx context.Context) error {
	if !c.Enabled() {
		return redis.ErrClosed
	}
	return c.client.Ping(ctx).Err()
}

func (c *Cache) Close() error {
	if !c.Enabled() {
		return nil
	}
	return c.client.Close()
}
