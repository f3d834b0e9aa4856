package flow

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/redis/go-redis/v9"
)

const flowKeyPattern = "user:flows:%d"

// RedisStorage persists open flows in Redis so wizards survive restarts.
// The key TTL doubles as the abandoned-flow timeout.
type RedisStorage struct {
	client *redis.Client
	ttl    time.Duration
	log    *slog.Logger
}

// NewRedisStorage initializes a Redis-backed Storage implementation.
func NewRedisStorage(client *redis.Client, ttl time.Duration, log *slog.Logger) *RedisStorage {
	if log == nil {
		log = slog.Default()
	}
	if ttl <= 0 {
		ttl = time.Hour
	}

	return &RedisStorage{
		client: client,
		ttl:    ttl,
		log:    log,
	}
}

// Get returns the stored record or ErrNotFound when absent.
func (s *RedisStorage) Get(ctx context.Context, userID int64) (*Record, error) {
	key := redisFlowKey(userID)

	data, err := s.client.Get(ctx, key).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, ErrNotFound
		}

		s.log.Error("failed to get flows from redis", "user_id", userID, "error", err)
		return nil, err
	}

	var record Record
	if err := json.Unmarshal([]byte(data), &record); err != nil {
		s.log.Error("failed to decode flow record", "user_id", userID, "error", err)
		return nil, err
	}

	return &record, nil
}

// Set saves the provided record, refreshing the abandoned-flow TTL.
func (s *RedisStorage) Set(ctx context.Context, userID int64, record *Record) error {
	record.UserID = userID
	record.UpdatedAt = time.Now().UTC()

	data, err := json.Marshal(record)
	if err != nil {
		s.log.Error("failed to encode flow record", "user_id", userID, "error", err)
		return err
	}

	key := redisFlowKey(userID)
	if err := s.client.Set(ctx, key, data, s.ttl).Err(); err != nil {
		s.log.Error("failed to save flows in redis", "user_id", userID, "error", err)
		return err
	}

	return nil
}

// Clear removes the stored record for the given user.
func (s *RedisStorage) Clear(ctx context.Context, userID int64) error {
	key := redisFlowKey(userID)
	if err := s.client.Del(ctx, key).Err(); err != nil {
		s.log.Error("failed to clear flows", "user_id", userID, "error", err)
		return err
	}

	return nil
}

func redisFlowKey(userID int64) string {
	return fmt.Sprintf(flowKeyPattern, userID)
}
