// Package memory is the in-process Cache backend (§4.9): a bounded,
// recency-ordered store evicting least-recently-used entries on
// overflow, with pattern deletion by linear scan.
package memory

import (
	"context"
	"sync"
	"time"

	"github.com/bmatcuk/doublestar/v4"
	lru "github.com/hashicorp/golang-lru/v2"

	"vkp/internal/cache"
)

type entry struct {
	value     string
	expiresAt time.Time
}

// Backend is an in-memory, LRU-bounded Cache backend. Every method
// takes the same mutex: the underlying lru.Cache is not safe for
// concurrent pattern-deletion scans otherwise (§5).
type Backend struct {
	mu     sync.Mutex
	lru    *lru.Cache[string, entry]
	hits   int64
	misses int64
}

var _ cache.Cache = (*Backend)(nil)

// New builds a Backend with the given maximum entry count.
func New(capacity int) (*Backend, error) {
	l, err := lru.New[string, entry](capacity)
	if err != nil {
		return nil, err
	}
	return &Backend{lru: l}, nil
}

func (b *Backend) Get(ctx context.Context, key string) (string, bool, error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	e, ok := b.lru.Get(key)
	if !ok || (!e.expiresAt.IsZero() && time.Now().After(e.expiresAt)) {
		if ok {
			b.lru.Remove(key)
		}
		b.misses++
		return "", false, nil
	}
	b.hits++
	return e.value, true, nil
}

func (b *Backend) Put(ctx context.Context, key, value string, ttl time.Duration) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	var expiresAt time.Time
	if ttl > 0 {
		expiresAt = time.Now().Add(ttl)
	}
	b.lru.Add(key, entry{value: value, expiresAt: expiresAt})
	return nil
}

func (b *Backend) Delete(ctx context.Context, key string) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.lru.Remove(key)
	return nil
}

// DeleteMatching scans every key and removes those matching pattern (a
// doublestar glob), since the map has no native index by pattern.
func (b *Backend) DeleteMatching(ctx context.Context, pattern string) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	for _, key := range b.lru.Keys() {
		matched, err := doublestar.Match(pattern, key)
		if err != nil {
			return err
		}
		if matched {
			b.lru.Remove(key)
		}
	}
	return nil
}

func (b *Backend) Stats(ctx context.Context) (cache.Stats, error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	return cache.Stats{
		Hits:    b.hits,
		Misses:  b.misses,
		Size:    int64(b.lru.Len()),
		Backend: "memory",
	}, nil
}
