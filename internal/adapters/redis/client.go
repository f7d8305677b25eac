package redis

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/amyangfei/redlock-go/v3/redlock"
	redis "github.com/go-redis/redis/v8"
	"go.uber.org/zap"

	"github.com/selivandex/fng-signal/internal/adapters/config"
	"github.com/selivandex/fng-signal/pkg/logger"
)

const connectTimeout = 5 * time.Second

// Client shares one Redis server between the sentiment cache and the
// redlock-based run locks. Every key is namespaced with the configured prefix.
type Client struct {
	cache   *redis.Client
	locks   *redlock.RedLock
	prefix  string
	lockTTL time.Duration
}

// New connects to Redis and fails fast when the server is unreachable
func New(ctx context.Context, cfg *config.RedisConfig) (*Client, error) {
	ctx, cancel := context.WithTimeout(ctx, connectTimeout)
	defer cancel()

	cache := redis.NewClient(&redis.Options{
		Addr:         cfg.Addr(),
		Password:     cfg.Password,
		DB:           cfg.DB,
		DialTimeout:  connectTimeout,
		ReadTimeout:  3 * time.Second,
		WriteTimeout: 3 * time.Second,
		PoolSize:     4,
	})
	if err := cache.Ping(ctx).Err(); err != nil {
		_ = cache.Close()
		return nil, fmt.Errorf("failed to connect to redis at %s: %w", cfg.Addr(), err)
	}

	// single node; redlock still gives us SET NX PX with owner-checked release
	locks, err := redlock.NewRedLock(ctx, []string{"tcp://" + cfg.Addr()})
	if err != nil {
		_ = cache.Close()
		return nil, fmt.Errorf("failed to create redlock manager: %w", err)
	}

	logger.Info("redis connected",
		zap.String("addr", cfg.Addr()),
		zap.Int("db", cfg.DB),
		zap.String("key_prefix", cfg.KeyPrefix),
	)

	return &Client{
		cache:   cache,
		locks:   locks,
		prefix:  cfg.KeyPrefix,
		lockTTL: cfg.LockTTL,
	}, nil
}

func (c *Client) key(name string) string {
	return c.prefix + name
}

// LockFactory returns run locks backed by this client
func (c *Client) LockFactory() LockFactory {
	return &redlockFactory{manager: c.locks, ping: c.Health, prefix: c.prefix, ttl: c.lockTTL}
}

// GetBytes reads a cached value; ok is false on a miss
func (c *Client) GetBytes(ctx context.Context, key string) ([]byte, bool, error) {
	value, err := c.cache.Get(ctx, c.key(key)).Bytes()
	switch {
	case errors.Is(err, redis.Nil):
		return nil, false, nil
	case err != nil:
		return nil, false, fmt.Errorf("redis get %s: %w", key, err)
	}
	return value, true, nil
}

// SetBytes caches value for ttl
func (c *Client) SetBytes(ctx context.Context, key string, value []byte, ttl time.Duration) error {
	if err := c.cache.Set(ctx, c.key(key), value, ttl).Err(); err != nil {
		return fmt.Errorf("redis set %s: %w", key, err)
	}
	return nil
}

// Health pings the server
func (c *Client) Health(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, 2*time.Second)
	defer cancel()
	return c.cache.Ping(ctx).Err()
}

// Close releases the cache connection pool
func (c *Client) Close() error {
	if err := c.cache.Close(); err != nil {
		return fmt.Errorf("failed to close redis client: %w", err)
	}
	return nil
}
