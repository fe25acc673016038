// Package registry implements the Version Registry (§4.5): the single
// source of truth for which version of a (subject, grade, semester)
// triple is installed at this edge node, and its install history.
package registry

import (
	"context"
	"errors"
	"time"

	"vkp/internal/vkp"
)

// ErrNotFound is returned by Rollback when no entry exists for the
// requested (triple, target_version).
var ErrNotFound = errors.New("registry: version not found")

// Entry is a single (triple, version) row in the registry.
type Entry struct {
	Triple      vkp.Triple
	Version     string
	InstalledAt time.Time
	ChunkCount  int
	Checksum    string
	Active      bool
}

// Registry is the Version Registry contract of §4.5. Every
// implementation must satisfy the atomicity property of §8: a failed
// call leaves the registry byte-identical to its pre-call state.
type Registry interface {
	// Register atomically clears the active flag on every entry for
	// triple, then upserts (triple, version) as active, preserving the
	// install timestamp across re-registration of an already-known
	// version. Rejects a malformed version with vkp.ErrMalformedVersion.
	Register(ctx context.Context, triple vkp.Triple, version string, chunkCount int, checksum string) error

	// Installed returns the version of the unique active entry for
	// triple, or ("", false) if none is active.
	Installed(ctx context.Context, triple vkp.Triple) (string, bool, error)

	// History returns every entry for triple, most-recent-first by
	// install timestamp.
	History(ctx context.Context, triple vkp.Triple) ([]Entry, error)

	// Rollback clears active across triple and sets it on target_version,
	// without touching any install timestamp. Returns ErrNotFound if no
	// (triple, target_version) entry exists.
	Rollback(ctx context.Context, triple vkp.Triple, targetVersion string) error

	// Compare is the tuple-lexicographic comparison of §4.5, exposed on
	// the interface so callers need not import internal/vkp directly.
	Compare(v1, v2 string) (vkp.Order, error)
}
