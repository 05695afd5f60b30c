package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"

	"treeleads/platform/logger"
)

const (
	generationKey   = "pricing:generation"
	quoteKeyPattern = "pricing:quote:%d:%s:%s:%s"
)

// Cache stores resolved quotes. Keys embed a generation number so a single
// Invalidate call retires every cached quote at once.
type Cache interface {
	// Key builds the cache key for the current generation. An empty key disables caching for this lookup.
	Key(ctx context.Context, city, state, leadType string) string
	Get(ctx context.Context, key string) (Quote, bool)
	Set(ctx context.Context, key string, quote Quote)
	Invalidate(ctx context.Context) error
}

// NoopCache never stores anything.
type NoopCache struct{}

func (NoopCache) Key(context.Context, string, string, string) string { return "" }
func (NoopCache) Get(context.Context, string) (Quote, bool)          { return Quote{}, false }
func (NoopCache) Set(context.Context, string, Quote)                 {}
func (NoopCache) Invalidate(context.Context) error                   { return nil }

// RedisCache keeps quotes in Redis. Redis failures degrade to cache misses.
type RedisCache struct {
	client *redis.Client
	ttl    time.Duration
	log    *logger.Logger
}

// NewRedisCache creates a Redis-backed quote cache.
func NewRedisCache(client *redis.Client, ttl time.Duration, log *logger.Logger) *RedisCache {
	if ttl <= 0 {
		ttl = 10 * time.Minute
	}
	return &RedisCache{client: client, ttl: ttl, log: log}
}

// Key reads the current generation and composes the quote key.
func (c *RedisCache) Key(ctx context.Context, city, state, leadType string) string {
	gen, err := c.client.Get(ctx, generationKey).Int64()
	if err != nil && !errors.Is(err, redis.Nil) {
		c.warn("read generation", err)
		return ""
	}
	return quoteKey(gen, leadType, state, city)
}

func (c *RedisCache) Get(ctx context.Context, key string) (Quote, bool) {
	if key == "" {
		return Quote{}, false
	}
	raw, err := c.client.Get(ctx, key).Bytes()
	if err != nil {
		if !errors.Is(err, redis.Nil) {
			c.warn("get quote", err)
		}
		return Quote{}, false
	}
	var quote Quote
	if err := json.Unmarshal(raw, &quote); err != nil {
		c.warn("decode quote", err)
		return Quote{}, false
	}
	return quote, true
}

func (c *RedisCache) Set(ctx context.Context, key string, quote Quote) {
	if key == "" {
		return
	}
	raw, err := json.Marshal(quote)
	if err != nil {
		c.warn("encode quote", err)
		return
	}
	if err := c.client.Set(ctx, key, raw, c.ttl).Err(); err != nil {
		c.warn("set quote", err)
	}
}

// Invalidate bumps the generation. Old keys expire on their own.
func (c *RedisCache) Invalidate(ctx context.Context) error {
	if err := c.client.Incr(ctx, generationKey).Err(); err != nil {
		return fmt.Errorf("bump pricing cache generation: %w", err)
	}
	return nil
}

func (c *RedisCache) warn(op string, err error) {
	if c.log != nil {
		c.log.Warn("pricing cache degraded", "op", op, "error", err)
	}
}

// quoteKey escapes each part so a ':' inside a city or state cannot collide
// with another tuple.
func quoteKey(gen int64, leadType, state, city string) string {
	return fmt.Sprintf(quoteKeyPattern, gen,
		url.QueryEscape(leadType), url.QueryEscape(strings.ToLower(state)), url.QueryEscape(strings.ToLower(city)))
}
