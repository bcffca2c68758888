// Package cache wraps the Redis connection and the small set of key
// operations the service needs: expiring sets keyed under one namespace.
package cache

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"
)

// KeyPrefix namespaces every key this service writes.
const KeyPrefix = "clinicase"

const (
	dialTimeout = 5 * time.Second
	ioTimeout   = 3 * time.Second
)

// Cache is a Redis connection. The zero value is not usable; use Open.
type Cache struct {
	client *redis.Client
}

// ParseURL checks a redis:// or rediss:// URL and returns its client options.
func ParseURL(url string) (*redis.Options, error) {
	if url == "" {
		return nil, fmt.Errorf("cache URL is empty")
	}
	opts, err := redis.ParseURL(url)
	if err != nil {
		return nil, fmt.Errorf("invalid cache URL: %w", err)
	}
	return opts, nil
}

// Open connects to url and fails unless the server answers a PING.
func Open(ctx context.Context, url string) (*Cache, error) {
	opts, err := ParseURL(url)
	if err != nil {
		return nil, err
	}
	opts.DialTimeout = dialTimeout
	opts.ReadTimeout = ioTimeout
	opts.WriteTimeout = ioTimeout

	client := redis.NewClient(opts)
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("pinging cache: %w", err)
	}

	slog.Info("cache connected", "addr", opts.Addr, "db", opts.DB)
	return &Cache{client: client}, nil
}

// Key joins parts under KeyPrefix with colons.
func Key(parts ...string) string {
	return KeyPrefix + ":" + strings.Join(parts, ":")
}

// AddToSet adds members to the set at key and pushes its expiry to ttl from
// now, atomically.
func (c *Cache) AddToSet(ctx context.Context, key string, ttl time.Duration, members ...string) error {
	if c == nil || c.client == nil {
		return fmt.Errorf("cache is not connected")
	}
	if len(members) == 0 {
		return nil
	}

	args := make([]any, len(members))
	for i, m := range members {
		args[i] = m
	}
	pipe := c.client.TxPipeline()
	pipe.SAdd(ctx, key, args...)
	if ttl > 0 {
		pipe.Expire(ctx, key, ttl)
	}
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("add to %s: %w", key, err)
	}
	return nil
}

// SetMembers returns the members of the set at key. A missing key is an
// empty set.
func (c *Cache) SetMembers(ctx context.Context, key string) ([]string, error) {
	if c == nil || c.client == nil {
		return nil, fmt.Errorf("cache is not connected")
	}
	members, err := c.client.SMembers(ctx, key).Result()
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", key, err)
	}
	return members, nil
}

// TTL returns the remaining lifetime of key, or a negative duration when the
// key is missing or never expires.
func (c *Cache) TTL(ctx context.Context, key string) (time.Duration, error) {
	if c == nil || c.client == nil {
		return 0, fmt.Errorf("cache is not connected")
	}
	return c.client.TTL(ctx, key).Result()
}

func (c *Cache) Close() error {
	return c.client.Close()
}

// HealthCheck pings the server.
func (c *Cache) HealthCheck(ctx context.Context) error {
	return c.client.Ping(ctx).Err()
}
