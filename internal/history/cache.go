package history

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/ignite/campaign-console/internal/mailapi"
)

const recentSendsKey = "campaign:recent_sends"

// Cache keeps the recent-sends list in Redis so the history view does
// not hit Postgres on every dashboard refresh.
type Cache struct {
	rdb *redis.Client
	ttl time.Duration
}

// NewCache creates a recent-sends cache with the given TTL.
func NewCache(rdb *redis.Client, ttl time.Duration) *Cache {
	if ttl <= 0 {
		ttl = 5 * time.Minute
	}
	return &Cache{rdb: rdb, ttl: ttl}
}

// GetRecent returns the cached list, or (nil, false, nil) on a miss.
func (c *Cache) GetRecent(ctx context.Context) ([]mailapi.SendRecord, bool, error) {
	raw, err := c.rdb.Get(ctx, recentSendsKey).Bytes()
	if err == redis.Nil {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("cache get: %w", err)
	}
	var records []mailapi.SendRecord
	if err := json.Unmarshal(raw, &records); err != nil {
		// A corrupt entry is treated as a miss and overwritten later.
		return nil, false, nil
	}
	return records, true, nil
}

// SetRecent stores the list under the cache TTL.
func (c *Cache) SetRecent(ctx context.Context, records []mailapi.SendRecord) error {
	raw, err := json.Marshal(records)
	if err != nil {
		return fmt.Errorf("cache marshal: %w", err)
	}
	if err := c.rdb.Set(ctx, recentSendsKey, raw, c.ttl).Err(); err != nil {
		return fmt.Errorf("cache set: %w", err)
	}
	return nil
}

// Invalidate drops the cached list, called after every completed send.
func (c *Cache) Invalidate(ctx context.Context) error {
	if err := c.rdb.Del(ctx, recentSendsKey).Err(); err != nil {
		return fmt.Errorf("cache del: %w", err)
	}
	return nil
}
