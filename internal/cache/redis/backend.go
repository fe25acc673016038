// Package redis is the remote Cache backend, supporting native pattern
// deletion and shared state across processes (§4.9).
package redis

import (
	"context"
	"errors"
	"fmt"
	"time"

	goredis "github.com/redis/go-redis/v9"

	"vkp/internal/cache"
)

// Backend is a Cache backed by a Redis server.
type Backend struct {
	client *goredis.Client
}

var _ cache.Cache = (*Backend)(nil)

// New builds a Backend over addr (host:port).
func New(addr string) *Backend {
	return &Backend{client: goredis.NewClient(&goredis.Options{Addr: addr})}
}

// NewFromClient wraps an already-configured client, for tests against
// miniredis or a shared connection pool.
func NewFromClient(client *goredis.Client) *Backend {
	return &Backend{client: client}
}

func (b *Backend) Get(ctx context.Context, key string) (string, bool, error) {
	v, err := b.client.Get(ctx, key).Result()
	if errors.Is(err, goredis.Nil) {
		return "", false, nil
	}
	if err != nil {
		return "", false, fmt.Errorf("cache/redis: get %q: %w", key, err)
	}
	return v, true, nil
}

func (b *Backend) Put(ctx context.Context, key, value string, ttl time.Duration) error {
	if err := b.client.Set(ctx, key, value, ttl).Err(); err != nil {
		return fmt.Errorf("cache/redis: put %q: %w", key, err)
	}
	return nil
}

func (b *Backend) Delete(ctx context.Context, key string) error {
	if err := b.client.Del(ctx, key).Err(); err != nil {
		return fmt.Errorf("cache/redis: delete %q: %w", key, err)
	}
	return nil
}

// DeleteMatching deletes every key matching pattern using SCAN to avoid
// blocking the server the way KEYS would, and UNLINK for non-blocking
// reclamation on the server side.
func (b *Backend) DeleteMatching(ctx context.Context, pattern string) error {
	var cursor uint64
	for {
		keys, next, err := b.client.Scan(ctx, cursor, pattern, 256).Result()
		if err != nil {
			return fmt.Errorf("cache/redis: scan %q: %w", pattern, err)
		}
		if len(keys) > 0 {
			if err := b.client.Unlink(ctx, keys...).Err(); err != nil {
				return fmt.Errorf("cache/redis: unlink matches of %q: %w", pattern, err)
			}
		}
		cursor = next
		if cursor == 0 {
			break
		}
	}
	return nil
}

func (b *Backend) Stats(ctx context.Context) (cache.Stats, error) {
	size, err := b.client.DBSize(ctx).Result()
	if err != nil {
		return cache.Stats{}, fmt.Errorf("cache/redis: dbsize: %w", err)
	}
	return cache.Stats{Size: size, Backend: "redis"}, nil
}
