// AngelaMos | 2026
// redis.go

package core

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/carterperez-dev/templates/campus-market/internal/config"
)

const (
	defaultRedisPoolTimeout = 4 * time.Second
	defaultRedisIdleTime    = 5 * time.Minute
	defaultRedisOpTimeout   = 500 * time.Millisecond
	redisConnectTimeout     = 5 * time.Second
)

// Redis holds the client shared by the listing cache and the rate limiter.
// Both treat Redis as optional, so operations use short deadlines and fail
// fast instead of queueing behind a dead server.
type Redis struct {
	Client *redis.Client
}

func NewRedis(ctx context.Context, cfg config.RedisConfig) (*Redis, error) {
	opts, err := redisOptions(cfg)
	if err != nil {
		return nil, err
	}

	r := &Redis{Client: redis.NewClient(opts)}

	connectCtx, cancel := context.WithTimeout(ctx, redisConnectTimeout)
	defer cancel()

	if err := r.Client.Ping(connectCtx).Err(); err != nil {
		_ = r.Client.Close() //nolint:errcheck // cleanup on connection failure
		return nil, fmt.Errorf("connect redis: %w", err)
	}

	return r, nil
}

func redisOptions(cfg config.RedisConfig) (*redis.Options, error) {
	opts, err := redis.ParseURL(cfg.URL)
	if err != nil {
		return nil, fmt.Errorf("parse redis url: %w", err)
	}

	if cfg.PoolSize > 0 {
		opts.PoolSize = cfg.PoolSize
	}
	opts.MinIdleConns = cfg.MinIdleConns
	opts.PoolTimeout = orDefault(cfg.PoolTimeout, defaultRedisPoolTimeout)
	opts.ConnMaxIdleTime = orDefault(cfg.ConnMaxIdleTime, defaultRedisIdleTime)

	op := orDefault(cfg.OpTimeout, defaultRedisOpTimeout)
	opts.ReadTimeout = op
	opts.WriteTimeout = op
	opts.ContextTimeoutEnabled = true

	return opts, nil
}

func orDefault(d, fallback time.Duration) time.Duration {
	if d <= 0 {
		return fallback
	}
	return d
}

func (r *Redis) Close() error {
	if r.Client == nil {
		return nil
	}
	return r.Client.Close()
}

// Ping is the readiness check for the redis dependency.
func (r *Redis) Ping(ctx context.Context) error {
	pingCtx, cancel := context.WithTimeout(ctx, redisConnectTimeout)
	defer cancel()

	if err := r.Client.Ping(pingCtx).Err(); err != nil {
		return fmt.Errorf("redis ping failed: %w", err)
	}
	return nil
}

func (r *Redis) PoolStats() *redis.PoolStats {
	return r.Client.PoolStats()
}
