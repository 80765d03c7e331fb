// Package cache provides an optional Redis cache for the public
// committee listing. The cache is best-effort; Postgres stays the
// source of truth and any Redis failure falls through to it.
package cache

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"volunteerhub/api/internal/store"
)

const committeesKey = "volunteerhub:committees:active"

type CommitteeCache struct {
	client *redis.Client
	ttl    time.Duration
}

// NewCommitteeCache connects to Redis and verifies the connection.
func NewCommitteeCache(redisURL string, ttl time.Duration) (*CommitteeCache, error) {
	opts, err := redis.ParseURL(redisURL)
	if err != nil {
		return nil, fmt.Errorf("parse redis url: %w", err)
	}

	client := redis.NewClient(opts)
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("connect to redis: %w", err)
	}

	return &CommitteeCache{client: client, ttl: ttl}, nil
}

// NewCommitteeCacheWithClient builds a cache from an existing client.
func NewCommitteeCacheWithClient(client *redis.Client, ttl time.Duration) *CommitteeCache {
	return &CommitteeCache{client: client, ttl: ttl}
}

// Get returns the cached committee list and whether it was present.
func (c *CommitteeCache) Get(ctx context.Context) ([]store.Committee, bool) {
	payload, err := c.client.Get(ctx, committeesKey).Result()
	if err != nil {
		return nil, false
	}
	var items []store.Committee
	if err := json.Unmarshal([]byte(payload), &items); err != nil {
		return nil, false
	}
	return items, true
}

// Set stores the committee list with the configured TTL.
func (c *CommitteeCache) Set(ctx context.Context, items []store.Committee) error {
	payload, err := json.Marshal(items)
	if err != nil {
		return fmt.Errorf("marshal committees: %w", err)
	}
	if err := c.client.Set(ctx, committeesKey, payload, c.ttl).Err(); err != nil {
		return fmt.Errorf("cache committees: %w", err)
	}
	return nil
}

// Invalidate drops the cached listing.
func (c *CommitteeCache) Invalidate(ctx context.Context) error {
	return c.client.Del(ctx, committeesKey).Err()
}

func (c *CommitteeCache) Close() error {
	return c.client.Close()
}
