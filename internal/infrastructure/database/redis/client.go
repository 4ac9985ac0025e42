// Package redis wraps the shared Redis client plus the run-lock and
// dashboard-cache helpers built on it.
package redis

import (
	"context"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/meridiancap/riskradar/internal/config"
	"github.com/meridiancap/riskradar/internal/infrastructure/monitoring/logging"
	"github.com/meridiancap/riskradar/pkg/errors"
)

// Client wraps a redis connection with the configured key prefix.
type Client struct {
	rdb    *redis.Client
	prefix string
	log    logging.Logger
	mu     sync.Mutex
	closed bool
}

// NewClient connects and verifies the Redis instance.
func NewClient(cfg config.RedisConfig, log logging.Logger) (*Client, error) {
	rdb := redis.NewClient(&redis.Options{
		Addr:        cfg.Addr,
		Password:    cfg.Password,
		DB:          cfg.DB,
		PoolSize:    cfg.PoolSize,
		DialTimeout: cfg.DialTimeout,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := rdb.Ping(ctx).Err(); err != nil {
		return nil, errors.Wrap(err, errors.CodeCacheError, "redis connection failed")
	}

	prefix := cfg.KeyPrefix
	if prefix == "" {
		prefix = "riskradar"
	}

	log.Info("Connected to Redis", logging.String("addr", cfg.Addr), logging.Int("db", cfg.DB))
	return &Client{rdb: rdb, prefix: prefix, log: log}, nil
}

// NewClientWithRedis wraps an existing redis client (for testing).
func NewClientWithRedis(rdb *redis.Client, prefix string, log logging.Logger) *Client {
	return &Client{rdb: rdb, prefix: prefix, log: log}
}

// key builds a namespaced key.
func (c *Client) key(parts ...string) string {
	k := c.prefix
	for _, p := range parts {
		k += ":" + p
	}
	return k
}

// HealthCheck verifies the connection is alive.
func (c *Client) HealthCheck(ctx context.Context) error {
	if err := c.rdb.Ping(ctx).Err(); err != nil {
		return errors.Wrap(err, errors.CodeCacheError, "redis health check failed")
	}
	return nil
}

// Close shuts the connection pool down.  Safe to call more than once.
func (c *Client) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return nil
	}
	c.closed = true
	if err := c.rdb.Close(); err != nil {
		c.log.Error("Failed to close Redis client", logging.Err(err))
		return err
	}
	c.log.Info("Closed Redis client")
	return nil
}
