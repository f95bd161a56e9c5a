package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/opsdesk/console-gateway/internal/domain"
)

// ObservationCache holds per-item observation logs for the duration of a
// session. The log is fetched once on first open and served from here
// until explicitly reloaded.
type ObservationCache interface {
	Get(ctx context.Context, kind, itemID string) ([]domain.Observation, bool, error)
	Put(ctx context.Context, kind, itemID string, entries []domain.Observation) error
	Invalidate(ctx context.Context, kind, itemID string) error
}

type observationCache struct {
	client *redis.Client
	ttl    time.Duration
}

// NewObservationCache builds a redis-backed cache with the given entry TTL.
func NewObservationCache(client *redis.Client, ttl time.Duration) ObservationCache {
	return &observationCache{client: client, ttl: ttl}
}

func observationKey(kind, itemID string) string {
	return fmt.Sprintf("obslog:%s:%s", kind, itemID)
}

func (c *observationCache) Get(ctx context.Context, kind, itemID string) ([]domain.Observation, bool, error) {
	raw, err := c.client.Get(ctx, observationKey(kind, itemID)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, err
	}
	var entries []domain.Observation
	if err := json.Unmarshal(raw, &entries); err != nil {
		return nil, false, err
	}
	return entries, true, nil
}

func (c *observationCache) Put(ctx context.Context, kind, itemID string, entries []domain.Observation) error {
	raw, err := json.Marshal(entries)
	if err != nil {
		return err
	}
	return c.client.Set(ctx, observationKey(kind, itemID), raw, c.ttl).Err()
}

func (c *observationCache) Invalidate(ctx context.Context, kind, itemID string) error {
	return c.client.Del(ctx, observationKey(kind, itemID)).Err()
}
