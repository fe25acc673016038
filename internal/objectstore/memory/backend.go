// Package memory is an in-process objectstore.Backend backed by a map,
// used by tests and by the Puller's own test suite to simulate the
// remote namespace without a network dependency.
package memory

import (
	"context"
	"sort"
	"sync"

	"vkp/internal/objectstore"
)

// Backend is an in-memory objectstore.Backend.
type Backend struct {
	mu      sync.RWMutex
	objects map[string][]byte
	// unreachable, when true, makes every call fail as
	// objectstore.ErrUnreachable without touching objects — simulating an
	// absent bucket or missing credentials.
	unreachable bool
}

var _ objectstore.Backend = (*Backend)(nil)

// NewBackend creates an empty in-memory backend.
func NewBackend() *Backend {
	return &Backend{objects: make(map[string][]byte)}
}

// Put seeds an object, as a test fixture would.
func (b *Backend) Put(key string, data []byte) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.objects[key] = data
}

// SetUnreachable toggles the simulated offline-bucket condition.
func (b *Backend) SetUnreachable(v bool) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.unreachable = v
}

func (b *Backend) ListAll(ctx context.Context) ([]objectstore.ObjectInfo, error) {
	b.mu.RLock()
	defer b.mu.RUnlock()
	if b.unreachable {
		return nil, objectstore.ErrUnreachable
	}
	out := make([]objectstore.ObjectInfo, 0, len(b.objects))
	for k, v := range b.objects {
		out = append(out, objectstore.ObjectInfo{Key: k, Size: int64(len(v))})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Key < out[j].Key })
	return out, nil
}

func (b *Backend) Head(ctx context.Context, key string) (objectstore.ObjectInfo, error) {
	b.mu.RLock()
	defer b.mu.RUnlock()
	if b.unreachable {
		return objectstore.ObjectInfo{}, objectstore.ErrUnreachable
	}
	data, ok := b.objects[key]
	if !ok {
		return objectstore.ObjectInfo{}, objectstore.ErrNotFound
	}
	return objectstore.ObjectInfo{Key: key, Size: int64(len(data))}, nil
}

func (b *Backend) Get(ctx context.Context, key string) ([]byte, error) {
	b.mu.RLock()
	defer b.mu.RUnlock()
	if b.unreachable {
		return nil, objectstore.ErrUnreachable
	}
	data, ok := b.objects[key]
	if !ok {
		return nil, objectstore.ErrNotFound
	}
	out := make([]byte, len(data))
	copy(out, data)
	return out, nil
}

func (b *Backend) GetRange(ctx context.Context, key string, start int64) ([]byte, error) {
	b.mu.RLock()
	defer b.mu.RUnlock()
	if b.unreachable {
		return nil, objectstore.ErrUnreachable
	}
	data, ok := b.objects[key]
	if !ok {
		return nil, objectstore.ErrNotFound
	}
	if start < 0 || start > int64(len(data)) {
		return nil, objectstore.ErrNotFound
	}
	out := make([]byte, len(data)-int(start))
	copy(out, data[start:])
	return out, nil
}
