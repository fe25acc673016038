// Package memory is an in-process vectorindex.Adapter backed by a map,
// used by tests and by the in-memory-only deployment profile.
package memory

import (
	"context"
	"sync"

	"vkp/internal/vectorindex"
	"vkp/internal/vkp"
)

// Adapter is an in-memory vectorindex.Adapter.
type Adapter struct {
	mu          sync.RWMutex
	collections map[string]map[string]vkp.Chunk
}

var _ vectorindex.Adapter = (*Adapter)(nil)

// NewAdapter creates an empty in-memory adapter.
func NewAdapter() *Adapter {
	return &Adapter{collections: make(map[string]map[string]vkp.Chunk)}
}

func (a *Adapter) UpsertCollection(ctx context.Context, name string, chunks []vkp.Chunk) error {
	a.mu.Lock()
	defer a.mu.Unlock()

	points, ok := a.collections[name]
	if !ok {
		points = make(map[string]vkp.Chunk)
		a.collections[name] = points
	}
	for _, c := range chunks {
		points[c.ID] = c
	}
	return nil
}

func (a *Adapter) Remove(ctx context.Context, name string, ids []string) error {
	a.mu.Lock()
	defer a.mu.Unlock()

	points, ok := a.collections[name]
	if !ok {
		return nil
	}
	for _, id := range ids {
		delete(points, id)
	}
	return nil
}

// Points returns a snapshot of the chunks currently in a collection,
// for test assertions.
func (a *Adapter) Points(name string) []vkp.Chunk {
	a.mu.RLock()
	defer a.mu.RUnlock()

	points := a.collections[name]
	out := make([]vkp.Chunk, 0, len(points))
	for _, c := range points {
		out = append(out, c)
	}
	return out
}
