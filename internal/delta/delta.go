// Package delta computes and applies chunk-level diffs between two
// versions of a package (§4.4 of the distribution-core specification),
// the mechanism that lets an edge node move from version V to V′ by
// transferring only the chunks that changed.
package delta

import (
	"errors"
	"fmt"

	"vkp/internal/codec"
	"vkp/internal/seal"
	"vkp/internal/vkp"
)

// Compatibility error kinds (§7): the delta path is abandoned and the
// caller (the Puller) falls back to a full fetch.
var (
	ErrIncompatibleDiff  = errors.New("delta: incompatible diff")
	ErrDeltaBaseMismatch = errors.New("delta: base mismatch")
)

// Diff computes the change set that takes old to new. Both packages must
// share a Triple and new.Version must compare greater than old.Version
// (§4.4); otherwise ErrIncompatibleDiff is returned.
//
// Chunks are classified by chunk_id: present only in new → added; present
// only in old → removed; present in both with differing text or vector →
// modified (metadata differences are ignored per §3); present in both
// with identical payload → omitted. Added and modified chunks both land
// in PresentChunks — the wire schema (§6) does not distinguish them, only
// the classification rationale does.
func Diff(old, new *vkp.Package) (*vkp.Delta, error) {
	if old.Triple != new.Triple {
		return nil, fmt.Errorf("%w: triple mismatch (%+v vs %+v)", ErrIncompatibleDiff, old.Triple, new.Triple)
	}
	cmp, err := vkp.CompareVersions(old.Version, new.Version)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrIncompatibleDiff, err)
	}
	if cmp != vkp.OrderLT {
		return nil, fmt.Errorf("%w: new.version (%s) must be greater than old.version (%s)", ErrIncompatibleDiff, new.Version, old.Version)
	}

	oldByID := make(map[string]vkp.Chunk, len(old.Chunks))
	for _, c := range old.Chunks {
		oldByID[c.ID] = c
	}
	newByID := make(map[string]vkp.Chunk, len(new.Chunks))
	for _, c := range new.Chunks {
		newByID[c.ID] = c
	}

	var present []vkp.Chunk
	for _, c := range new.Chunks {
		old, existed := oldByID[c.ID]
		if !existed {
			present = append(present, c) // added
			continue
		}
		if !old.Equal(c) {
			present = append(present, c) // modified
		}
	}

	var removed []string
	for _, c := range old.Chunks {
		if _, stillPresent := newByID[c.ID]; !stillPresent {
			removed = append(removed, c.ID)
		}
	}

	return &vkp.Delta{
		Triple:      new.Triple,
		Version:     new.Version,
		BaseVersion: old.Version,
		TargetProvenance: vkp.Provenance{
			CreatedAt:      new.CreatedAt,
			EmbeddingModel: new.EmbeddingModel,
			ChunkConfig:    new.ChunkConfig,
			SourceFiles:    new.SourceFiles,
			TotalChunks:    new.TotalChunks,
		},
		PresentChunks: present,
		RemovedIDs:    removed,
	}, nil
}

// Apply applies d to old, producing the package it was diffed against
// (§4.4, §8 property 5). old.Version must equal d.BaseVersion and the
// triples must match, otherwise ErrDeltaBaseMismatch is returned.
//
// The result lists old's surviving chunks in their original order, then
// the delta's new chunks in delta order; it reproduces the diffed package
// exactly only when that package has this order. A chunk whose only
// change was its metadata is not carried by the delta, so it keeps old's
// metadata.
func Apply(old *vkp.Package, d *vkp.Delta) (*vkp.Package, error) {
	if old.Triple != d.Triple {
		return nil, fmt.Errorf("%w: triple mismatch (%+v vs %+v)", ErrDeltaBaseMismatch, old.Triple, d.Triple)
	}
	if old.Version != d.BaseVersion {
		return nil, fmt.Errorf("%w: old.version (%s) != delta.base_version (%s)", ErrDeltaBaseMismatch, old.Version, d.BaseVersion)
	}

	byID := make(map[string]vkp.Chunk, len(old.Chunks))
	order := make([]string, 0, len(old.Chunks))
	for _, c := range old.Chunks {
		byID[c.ID] = c
		order = append(order, c.ID)
	}
	for _, id := range d.RemovedIDs {
		delete(byID, id)
	}
	// Rebuild order: keep surviving old chunks in their original order,
	// then append newly-added chunks in the delta's own order. A
	// "modified" chunk keeps its original position.
	var newOrder []string
	seen := make(map[string]bool, len(order))
	for _, id := range order {
		if _, ok := byID[id]; ok {
			newOrder = append(newOrder, id)
			seen[id] = true
		}
	}
	for _, c := range d.PresentChunks {
		byID[c.ID] = c
		if !seen[c.ID] {
			newOrder = append(newOrder, c.ID)
			seen[c.ID] = true
		}
	}

	chunks := make([]vkp.Chunk, len(newOrder))
	for i, id := range newOrder {
		chunks[i] = byID[id]
	}

	result := &vkp.Package{
		Triple:         d.Triple,
		Version:        d.Version,
		CreatedAt:      d.TargetProvenance.CreatedAt,
		EmbeddingModel: d.TargetProvenance.EmbeddingModel,
		ChunkConfig:    d.TargetProvenance.ChunkConfig,
		SourceFiles:    d.TargetProvenance.SourceFiles,
		Chunks:         chunks,
		TotalChunks:    len(chunks),
	}
	s, err := seal.Seal(result)
	if err != nil {
		return nil, fmt.Errorf("delta: apply: seal result: %w", err)
	}
	result.Checksum = s
	return result, nil
}

// SizeReduction reports the bandwidth saved by transferring a delta
// instead of a full package (§4.4's observability helper). It is not on
// the hot path — encode both forms and compare.
type SizeReduction struct {
	FullBytes  int
	DeltaBytes int
	Ratio      float64 // DeltaBytes / FullBytes
}

// Measure encodes new as a full package and the diff of old→new as a
// delta, and reports their relative sizes.
func Measure(old, new *vkp.Package) (SizeReduction, error) {
	d, err := Diff(old, new)
	if err != nil {
		return SizeReduction{}, err
	}
	fullBytes, err := codec.Encode(new, false)
	if err != nil {
		return SizeReduction{}, fmt.Errorf("delta: measure: encode full: %w", err)
	}
	deltaBytes, err := codec.EncodeDelta(d, false)
	if err != nil {
		return SizeReduction{}, fmt.Errorf("delta: measure: encode delta: %w", err)
	}
	sr := SizeReduction{FullBytes: len(fullBytes), DeltaBytes: len(deltaBytes)}
	if sr.FullBytes > 0 {
		sr.Ratio = float64(sr.DeltaBytes) / float64(sr.FullBytes)
	}
	return sr, nil
}
