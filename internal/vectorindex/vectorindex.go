// Package vectorindex is the Vector Index Adapter (§4.8): idempotent
// ingestion of chunks into a per-(subject,grade,semester) collection.
package vectorindex

import (
	"context"
	"fmt"

	"vkp/internal/vkp"
)

// Adapter is the contract of §4.8.
type Adapter interface {
	// UpsertCollection idempotently upserts chunks into name, creating
	// the collection first if it does not exist. Re-upserting the same
	// chunk ID overwrites it.
	UpsertCollection(ctx context.Context, name string, chunks []vkp.Chunk) error

	// Remove deletes points by chunk ID from name. The spec permits (and
	// the Puller chooses) a union strategy where Remove is never called
	// on the install path — stale chunks linger until the next full
	// rebuild, since the Registry gates which version's chunks the query
	// plane references.
	Remove(ctx context.Context, name string, ids []string) error
}

// CollectionName renders the collection name of §4.8:
// "{subject}_grade{grade}_sem{semester}". Package vkp.Triple.CollectionName
// already implements this identically; this wrapper exists so callers
// that only have the three scalars need not construct a Triple.
func CollectionName(subject string, grade, semester int) string {
	t := vkp.Triple{Subject: subject, Grade: grade, Semester: semester}
	return t.CollectionName()
}

// ErrIngestFailed wraps a backend-specific ingestion failure so the
// Puller can classify it without depending on a concrete backend's
// error types.
type ErrIngestFailed struct {
	Collection string
	Err        error
}

func (e *ErrIngestFailed) Error() string {
	return fmt.Sprintf("vectorindex: ingest into %q failed: %v", e.Collection, e.Err)
}

func (e *ErrIngestFailed) Unwrap() error { return e.Err }
