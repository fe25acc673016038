// Package memory provides an in-memory Registry implementation.
// Intended for tests and for the in-memory-only deployment profile;
// history is not persisted across restarts.
package memory

import (
	"context"
	"sort"
	"sync"
	"time"

	"vkp/internal/registry"
	"vkp/internal/vkp"
)

type row struct {
	version     string
	installedAt time.Time
	chunkCount  int
	checksum    string
	active      bool
}

// Store is an in-memory Registry implementation, mutex-guarded.
type Store struct {
	mu      sync.RWMutex
	entries map[vkp.Triple]map[string]*row
}

var _ registry.Registry = (*Store)(nil)

// NewStore creates an empty in-memory registry.
func NewStore() *Store {
	return &Store{entries: make(map[vkp.Triple]map[string]*row)}
}

func (s *Store) Register(ctx context.Context, triple vkp.Triple, version string, chunkCount int, checksum string) error {
	if err := vkp.ValidateVersion(version); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	byVersion, ok := s.entries[triple]
	if !ok {
		byVersion = make(map[string]*row)
		s.entries[triple] = byVersion
	}
	for _, r := range byVersion {
		r.active = false
	}
	if existing, ok := byVersion[version]; ok {
		existing.chunkCount = chunkCount
		existing.checksum = checksum
		existing.active = true
		return nil
	}
	byVersion[version] = &row{
		version:     version,
		installedAt: time.Now().UTC(),
		chunkCount:  chunkCount,
		checksum:    checksum,
		active:      true,
	}
	return nil
}

func (s *Store) Installed(ctx context.Context, triple vkp.Triple) (string, bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	for _, r := range s.entries[triple] {
		if r.active {
			return r.version, true, nil
		}
	}
	return "", false, nil
}

func (s *Store) History(ctx context.Context, triple vkp.Triple) ([]registry.Entry, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rows := s.entries[triple]
	out := make([]registry.Entry, 0, len(rows))
	for _, r := range rows {
		out = append(out, registry.Entry{
			Triple:      triple,
			Version:     r.version,
			InstalledAt: r.installedAt,
			ChunkCount:  r.chunkCount,
			Checksum:    r.checksum,
			Active:      r.active,
		})
	}
	sort.Slice(out, func(i, j int) bool {
		return out[i].InstalledAt.After(out[j].InstalledAt)
	})
	return out, nil
}

func (s *Store) Rollback(ctx context.Context, triple vkp.Triple, targetVersion string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	byVersion, ok := s.entries[triple]
	if !ok {
		return registry.ErrNotFound
	}
	target, ok := byVersion[targetVersion]
	if !ok {
		return registry.ErrNotFound
	}
	for _, r := range byVersion {
		r.active = false
	}
	target.active = true
	return nil
}

func (s *Store) Compare(v1, v2 string) (vkp.Order, error) {
	return vkp.CompareVersions(v1, v2)
}
