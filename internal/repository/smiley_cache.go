package repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/deppfellow/contentfilter/internal/filter"
	"github.com/redis/go-redis/v9"
)

// SmileyCacheKey holds the JSON snapshot of the full smiley list.
const SmileyCacheKey = "contentfilter:smileys"

// SmileyCache keeps the smiley list in Redis so every instance does not hit
// Postgres on each render.
type SmileyCache struct {
	rdb redis.Cmdable
	ttl time.Duration
}

func NewSmileyCache(rdb redis.Cmdable, ttl time.Duration) *SmileyCache {
	return &SmileyCache{rdb: rdb, ttl: ttl}
}

// Get returns the cached list. ok is false on a cache miss.
func (c *SmileyCache) Get(ctx context.Context) (list []filter.Smiley, ok bool, err error) {
	raw, err := c.rdb.Get(ctx, SmileyCacheKey).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("read smiley cache: %w", err)
	}

	if err := json.Unmarshal(raw, &list); err != nil {
		return nil, false, fmt.Errorf("decode smiley cache: %w", err)
	}
	return list, true, nil
}

func (c *SmileyCache) Set(ctx context.Context, list []filter.Smiley) error {
	raw, err := json.Marshal(list)
	if err != nil {
		return fmt.Errorf("encode smiley cache: %w", err)
	}
	if err := c.rdb.Set(ctx, SmileyCacheKey, raw, c.ttl).Err(); err != nil {
		return fmt.Errorf("write smiley cache: %w", err)
	}
	return nil
}

func (c *SmileyCache) Invalidate(ctx context.Context) error {
	if err := c.rdb.Del(ctx, SmileyCacheKey).Err(); err != nil {
		return fmt.Errorf("invalidate smiley cache: %w", err)
	}
	return nil
}
