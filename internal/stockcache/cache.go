// Package stockcache provides Redis-backed caching of per-service stock
// counts shown on the catalog keyboard. Counts change only on purchase,
// upload, or removal, so a short TTL keeps the catalog render off the
// database hot path.
package stockcache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	redis "github.com/redis/go-redis/v9"
)

const countsKey = "stock:counts"

// Cache caches the service -> available count map.
type Cache struct {
	client *redis.Client
}

// NewCache constructs a stock count cache backed by the provided Redis client.
func NewCache(client *redis.Client) *Cache {
	return &Cache{client: client}
}

// Get fetches the cached counts if they exist. A nil map with nil error
// means a cache miss.
func (c *Cache) Get(ctx context.Context) (map[string]int64, error) {
	if c == nil || c.client == nil {
		return nil, nil
	}

	data, err := c.client.Get(ctx, countsKey).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, nil
		}
		return nil, fmt.Errorf("get cached stock counts: %w", err)
	}

	var counts map[string]int64
	if err := json.Unmarshal(data, &counts); err != nil {
		return nil, fmt.Errorf("decode cached stock counts: %w", err)
	}

	return counts, nil
}

// Set stores the counts in cache for the provided TTL.
func (c *Cache) Set(ctx context.Context, counts map[string]int64, ttl time.Duration) error {
	if c == nil || c.client == nil || counts == nil {
		return nil
	}

	payload, err := json.Marshal(counts)
	if err != nil {
		return fmt.Errorf("encode stock counts for cache: %w", err)
	}

	if err := c.client.Set(ctx, countsKey, payload, ttl).Err(); err != nil {
		return fmt.Errorf("set cached stock counts: %w", err)
	}

	return nil
}

// Invalidate removes the cached counts after any stock mutation.
func (c *Cache) Invalidate(ctx context.Context) error {
	if c == nil || c.client == nil {
		return nil
	}

	if err := c.client.Del(ctx, countsKey).Err(); err != nil {
		return fmt.Errorf("delete cached stock counts: %w", err)
	}

	return nil
}
