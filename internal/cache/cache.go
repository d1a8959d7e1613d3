// Package cache stores the latest campaign snapshot in Redis so replicas
// that did not run the refresh can serve the same data.
package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/ignite/campaign-insights/internal/source"
)

// DefaultKey is where the snapshot lives.
const DefaultKey = "campaign-insights:snapshot"

// ErrMiss is returned when no snapshot is cached.
var ErrMiss = errors.New("snapshot cache miss")

// SnapshotCache is a JSON snapshot under a single Redis key.
type SnapshotCache struct {
	client *redis.Client
	key    string
}

// NewSnapshotCache uses DefaultKey when key is empty.
func NewSnapshotCache(client *redis.Client, key string) *SnapshotCache {
	if key == "" {
		key = DefaultKey
	}
	return &SnapshotCache{client: client, key: key}
}

func (c *SnapshotCache) Get(ctx context.Context) (*source.Snapshot, error) {
	data, err := c.client.Get(ctx, c.key).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, ErrMiss
	}
	if err != nil {
		return nil, fmt.Errorf("redis get %s: %w", c.key, err)
	}

	var snap source.Snapshot
	if err := json.Unmarshal(data, &snap); err != nil {
		return nil, fmt.Errorf("decoding cached snapshot: %w", err)
	}
	return &snap, nil
}

// Put stores snap. A ttl of 0 keeps it until overwritten.
func (c *SnapshotCache) Put(ctx context.Context, snap *source.Snapshot, ttl time.Duration) error {
	data, err := json.Marshal(snap)
	if err != nil {
		return fmt.Errorf("encoding snapshot: %w", err)
	}
	if err := c.client.Set(ctx, c.key, data, ttl).Err(); err != nil {
		return fmt.Errorf("redis set %s: %w", c.key, err)
	}
	return nil
}

// Ping checks the Redis connection.
func (c *SnapshotCache) Ping(ctx context.Context) error {
	return c.client.Ping(ctx).Err()
}
