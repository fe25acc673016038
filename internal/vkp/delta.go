package vkp

import "time"

// Provenance carries the provenance fields of a package that travel with
// a Delta's target metadata block (§3, §6).
type Provenance struct {
	CreatedAt      time.Time
	EmbeddingModel string
	ChunkConfig    ChunkConfig
	SourceFiles    []string
	TotalChunks    int
}

// Delta is a change set from a base version to a target version over a
// fixed identity triple (§3). It references chunks by value, never by
// pointer — the Package Model owns its Chunks exclusively.
type Delta struct {
	Triple
	Version         string
	BaseVersion     string
	TargetProvenance Provenance
	PresentChunks   []Chunk
	RemovedIDs      []string
}
