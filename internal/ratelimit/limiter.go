// Package ratelimit implements a fixed-window request limiter backed by redis.
package ratelimit

import (
	"context"
	"log/slog"
	"time"

	"github.com/redis/go-redis/v9"
)

const keyPrefix = "redblue:rl:"

// Limiter reports whether another request from a client is allowed
type Limiter interface {
	Allow(ctx context.Context, route, client string) bool
}

// Config holds limiter configuration. A zero Limit disables limiting.
type Config struct {
	Limit  int
	Window time.Duration
}

// DefaultConfig returns default limiter configuration
func DefaultConfig() Config {
	return Config{
		Limit:  30,
		Window: time.Minute,
	}
}

// RedisLimiter counts requests per (route, client) in fixed windows using INCR/EXPIRE
type RedisLimiter struct {
	client *redis.Client
	config Config
	logger *slog.Logger
}

// NewRedisLimiter creates a limiter on an existing client
func NewRedisLimiter(client *redis.Client, cfg Config, logger *slog.Logger) *RedisLimiter {
	return &RedisLimiter{
		client: client,
		config: cfg,
		logger: logger.With(slog.String("component", "ratelimit")),
	}
}

// Allow increments the window counter. Redis failures allow the request.
func (l *RedisLimiter) Allow(ctx context.Context, route, client string) bool {
	if l.config.Limit <= 0 {
		return true
	}

	key := keyPrefix + route + ":" + client
	count, err := l.client.Incr(ctx, key).Result()
	if err != nil {
		l.logger.Warn("rate limit check failed, allowing request",
			slog.String("route", route),
			slog.String("error", err.Error()),
		)
		return true
	}
	if count == 1 {
		// First hit opens the window
		if err := l.client.Expire(ctx, key, l.config.Window).Err(); err != nil {
			l.logger.Warn("failed to set rate limit window", slog.String("error", err.Error()))
		}
	}
	return count <= int64(l.config.Limit)
}

// Unlimited allows every request. Used when no redis is configured.
type Unlimited struct{}

// Allow always returns true
func (Unlimited) Allow(context.Context, string, string) bool { return true }
