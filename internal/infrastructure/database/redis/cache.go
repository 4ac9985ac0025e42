package redis

import (
	"context"
	"encoding/json"
	"time"

	"github.com/google/uuid"
	goredis "github.com/redis/go-redis/v9"

	"github.com/meridiancap/riskradar/internal/application/dashboard"
	"github.com/meridiancap/riskradar/internal/infrastructure/monitoring/logging"
)

// StatsCache caches per-user dashboard aggregates.  Strictly best effort:
// every failure is logged and treated as a miss.
type StatsCache struct {
	client *Client
	ttl    time.Duration
	log    logging.Logger
}

// NewStatsCache builds the cache helper.
func NewStatsCache(client *Client, ttl time.Duration, log logging.Logger) *StatsCache {
	if ttl <= 0 {
		ttl = time.Minute
	}
	return &StatsCache{client: client, ttl: ttl, log: log}
}

func (c *StatsCache) statsKey(ownerID uuid.UUID) string {
	return c.client.key("dashboard", "stats", ownerID.String())
}

// GetStats returns the cached aggregate and whether it was present.
func (c *StatsCache) GetStats(ctx context.Context, ownerID uuid.UUID) (*dashboard.Stats, bool) {
	raw, err := c.client.rdb.Get(ctx, c.statsKey(ownerID)).Bytes()
	if err == goredis.Nil {
		return nil, false
	}
	if err != nil {
		c.log.Warn("Dashboard stats cache read failed", logging.Err(err))
		return nil, false
	}

	var stats dashboard.Stats
	if err := json.Unmarshal(raw, &stats); err != nil {
		c.log.Warn("Dashboard stats cache entry corrupt", logging.Err(err))
		return nil, false
	}
	return &stats, true
}

// SetStats stores the aggregate with the configured TTL.
func (c *StatsCache) SetStats(ctx context.Context, ownerID uuid.UUID, stats *dashboard.Stats) {
	raw, err := json.Marshal(stats)
	if err != nil {
		c.log.Warn("Dashboard stats cache encode failed", logging.Err(err))
		return
	}
	if err := c.client.rdb.Set(ctx, c.statsKey(ownerID), raw, c.ttl).Err(); err != nil {
		c.log.Warn("Dashboard stats cache write failed", logging.Err(err))
	}
}

// Invalidate drops the cached aggregate after a portfolio mutation.
func (c *StatsCache) Invalidate(ctx context.Context, ownerID uuid.UUID) {
	if err := c.client.rdb.Del(ctx, c.statsKey(ownerID)).Err(); err != nil {
		c.log.Warn("Dashboard stats cache invalidation failed", logging.Err(err))
	}
}
