package database

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/mdhaarishussain/Yuvshiksha/internal/config"
	"github.com/mdhaarishussain/Yuvshiksha/pkg/logger"
	"github.com/redis/go-redis/v9"
)

var Redis *redis.Client

// ErrCacheMiss is returned by RedisCache.Get when the key is absent.
var ErrCacheMiss = errors.New("cache miss")

func InitRedis() {
	Redis = redis.NewClient(&redis.Options{
		Addr:     config.AppConfig.RedisAddr,
		Password: config.AppConfig.RedisPassword,
		DB:       config.AppConfig.RedisDB,
	})

	if _, err := Redis.Ping(context.Background()).Result(); err != nil {
		logger.Warn().Err(err).Msg("Failed to connect to Redis. Caching and shared presence are disabled.")
		Redis = nil
		return
	}
	logger.Info().Str("addr", config.AppConfig.RedisAddr).Msg("Connected to Redis")
}

// RedisCache is a JSON value cache on top of a redis client.
type RedisCache struct {
	client *redis.Client
	prefix string
}

func NewRedisCache(client *redis.Client, prefix string) *RedisCache {
	return &RedisCache{client: client, prefix: prefix}
}

func (c *RedisCache) Set(ctx context.Context, key string, value interface{}, expiration time.Duration) error {
	data, err := json.Marshal(value)
	if err != nil {
		return err
	}
	return c.client.Set(ctx, c.prefix+key, data, expiration).Err()
}

func (c *RedisCache) Get(ctx context.Context, key string, dest interface{}) error {
	val, err := c.client.Get(ctx, c.prefix+key).Bytes()
	if errors.Is(err, redis.Nil) {
		return ErrCacheMiss
	}
	if err != nil {
		return err
	}
	return json.Unmarshal(val, dest)
}

func (c *RedisCache) Delete(ctx context.Context, key string) error {
	return c.client.Del(ctx, c.prefix+key).Err()
}

// CheckRateLimit is a fixed-window counter shared across instances.
func CheckRateLimit(ctx context.Context, client *redis.Client, key string, limit int, window time.Duration) (bool, error) {
	k := "rate_limit:" + key
	count, err := client.Incr(ctx, k).Result()
	if err != nil {
		return false, err
	}
	if count == 1 {
		client.Expire(ctx, k, window)
	}
	return count <= int64(limit), nil
}

// RedisLimiter applies CheckRateLimit per key so limits hold across instances.
type RedisLimiter struct {
	client *redis.Client
	limit  int
	window time.Duration
}

func NewRedisLimiter(client *redis.Client, limit int, window time.Duration) *RedisLimiter {
	return &RedisLimiter{client: client, limit: limit, window: window}
}

// Allow fails open when redis is unreachable.
func (l *RedisLimiter) Allow(key string) bool {
	ctx, cancel := context.WithTimeout(context.Background(), 500*time.Millisecond)
	defer cancel()

	ok, err := CheckRateLimit(ctx, l.client, key, l.limit, l.window)
	if err != nil {
		logger.Warn().Err(err).Str("key", key).Msg("Rate limit check failed")
		return true
	}
	return ok
}
