package cache

import (
	"context"
	"fmt"
	"log"
	"os"
	"time"

	"github.com/go-redis/redis/v8"
)

// Client wraps the Redis connection used for rate limiting and intent
// history counters. Redis is optional: when REDIS_HOST is unset the
// platform runs with in-memory fallbacks.
type Client struct {
	rdb *redis.Client
}

// NewClient connects to Redis using environment configuration. Returns
// (nil, nil) when Redis is not configured.
func NewClient() (*Client, error) {
	host := os.Getenv("REDIS_HOST")
	if host == "" {
		return nil, nil
	}

	port := os.Getenv("REDIS_PORT")
	if port == "" {
		port = "6379"
	}

	rdb := redis.NewClient(&redis.Options{
		Addr:         fmt.Sprintf("%s:%s", host, port),
		Password:     os.Getenv("REDIS_PASSWORD"),
		DialTimeout:  5 * time.Second,
		ReadTimeout:  3 * time.Second,
		WriteTimeout: 3 * time.Second,
		PoolSize:     10,
		MinIdleConns: 5,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := rdb.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("failed to connect to redis: %w", err)
	}

	log.Printf("✅ Redis connected at %s:%s", host, port)
	return &Client{rdb: rdb}, nil
}

// Close closes the underlying connection.
func (c *Client) Close() error {
	if c == nil {
		return nil
	}
	return c.rdb.Close()
}

// RateLimitResult is the outcome of a limiter check.
type RateLimitResult struct {
	Allowed   bool  `json:"allowed"`
	Limit     int   `json:"limit"`
	Remaining int   `json:"remaining"`
	ResetAt   int64 `json:"reset_at"`
}

// CheckRateLimit applies a fixed-window counter (INCR + EXPIRE) for the
// given key. The first request in a window sets the TTL.
func (c *Client) CheckRateLimit(ctx context.Context, key string, window time.Duration, maxRequests int) (*RateLimitResult, error) {
	redisKey := fmt.Sprintf("ratelimit:%s", key)

	count, err := c.rdb.Incr(ctx, redisKey).Result()
	if err != nil {
		return nil, fmt.Errorf("rate limit incr failed: %w", err)
	}

	if count == 1 {
		if err := c.rdb.Expire(ctx, redisKey, window).Err(); err != nil {
			return nil, fmt.Errorf("rate limit expire failed: %w", err)
		}
	}

	ttl, err := c.rdb.TTL(ctx, redisKey).Result()
	if err != nil {
		ttl = window
	}

	remaining := maxRequests - int(count)
	if remaining < 0 {
		remaining = 0
	}

	return &RateLimitResult{
		Allowed:   count <= int64(maxRequests),
		Limit:     maxRequests,
		Remaining: remaining,
		ResetAt:   time.Now().Add(ttl).Unix(),
	}, nil
}

// IncrIntentCounter bumps a per-user intent outcome counter. Counters expire
// after 30 days so history reflects recent behavior.
func (c *Client) IncrIntentCounter(ctx context.Context, userID, intent, outcome string) error {
	key := fmt.Sprintf("intent:%s:%s:%s", userID, intent, outcome)
	if err := c.rdb.Incr(ctx, key).Err(); err != nil {
		return err
	}
	return c.rdb.Expire(ctx, key, 30*24*time.Hour).Err()
}

// GetIntentCounters returns (successes, failures) for a user+intent pair.
func (c *Client) GetIntentCounters(ctx context.Context, userID, intent string) (int, int, error) {
	succ, err := c.rdb.Get(ctx, fmt.Sprintf("intent:%s:%s:success", userID, intent)).Int()
	if err != nil && err != redis.Nil {
		return 0, 0, err
	}
	fail, err := c.rdb.Get(ctx, fmt.Sprintf("intent:%s:%s:failure", userID, intent)).Int()
	if err != nil && err != redis.Nil {
		return 0, 0, err
	}
	return succ, fail, nil
}
