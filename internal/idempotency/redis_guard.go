package idempotency

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/redis/go-redis/v9"
)

// RedisGuard implements Guard with SET NX, sharing dedup state across
// replicas.
type RedisGuard struct {
	client *redis.Client
	log    *slog.Logger
}

// NewRedisGuard constructs a Redis-backed Guard.
func NewRedisGuard(client *redis.Client, log *slog.Logger) *RedisGuard {
	if log == nil {
		log = slog.Default()
	}

	return &RedisGuard{
		client: client,
		log:    log,
	}
}

// Acquire implements Guard.
func (g *RedisGuard) Acquire(ctx context.Context, key string, ttl time.Duration) (bool, error) {
	acquired, err := g.client.SetNX(ctx, guardKey(key), 1, ttl).Result()
	if err != nil {
		g.log.Error("failed to acquire dedup guard", slog.String("key", key), slog.Any("error", err))
		return false, err
	}

	return acquired, nil
}

func guardKey(key string) string {
	return fmt.Sprintf("dedup:%s", key)
}
