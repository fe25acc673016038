// Package codec implements the byte-exact, round-trip-guaranteed
// serialization of a Package to and from the wire schema of §6 of the
// distribution-core specification.
package codec

import (
	"bytes"
	"encoding/json"
	"fmt"
	"time"

	"vkp/internal/seal"
	"vkp/internal/vkp"
)

// CorruptPackage is returned by Decode when the input cannot be turned
// into a valid, sealed Package. Stage names the step that failed:
// "format" (JSON parse or §4.1 validation) or "seal" (§4.2 verification).
type CorruptPackage struct {
	Stage string
	Err   error
}

func (e *CorruptPackage) Error() string {
	return fmt.Sprintf("codec: corrupt package at %s stage: %v", e.Stage, e.Err)
}

func (e *CorruptPackage) Unwrap() error { return e.Err }

// wireChunk mirrors a single entry of the chunks[] array in §6.
type wireChunk struct {
	ChunkID   string            `json:"chunk_id"`
	Embedding []float64         `json:"embedding"`
	Metadata  map[string]string `json:"metadata,omitempty"`
	Text      string            `json:"text"`
}

// wirePackage mirrors the top-level package schema of §6. Field order in
// this struct is irrelevant to Go's encoder (it always sorts map keys,
// and for structs respects declaration order) — Encode builds the
// canonical form via internal/seal instead of marshaling this struct
// directly, so this type exists purely to give Decode a typed target.
type wirePackage struct {
	Checksum  string `json:"checksum"`
	ChunkCfg  struct {
		ChunkOverlap int `json:"chunk_overlap"`
		ChunkSize    int `json:"chunk_size"`
	} `json:"chunk_config"`
	Chunks         []wireChunk `json:"chunks"`
	CreatedAt      string      `json:"created_at"`
	EmbeddingModel string      `json:"embedding_model"`
	Grade          int         `json:"grade"`
	Semester       int         `json:"semester"`
	SourceFiles    []string    `json:"source_files"`
	Subject        string      `json:"subject"`
	TotalChunks    int         `json:"total_chunks"`
	Version        string      `json:"version"`
}

// Encode produces the canonical JSON encoding of pkg (§4.2, §6), the
// checksum field included this time, optionally indented for on-disk
// readability. The wire bytes always round-trip through Decode to an
// observationally equal Package (§8 property 3).
func Encode(pkg *vkp.Package, pretty bool) ([]byte, error) {
	canon, err := seal.Canonical(pkg)
	if err != nil {
		return nil, fmt.Errorf("codec: encode: %w", err)
	}
	// seal.Canonical strips "checksum"; put it back for the wire form.
	var m map[string]json.RawMessage
	if err := json.Unmarshal(canon, &m); err != nil {
		return nil, fmt.Errorf("codec: encode: rebuild canonical map: %w", err)
	}
	checksumJSON, err := json.Marshal(pkg.Checksum)
	if err != nil {
		return nil, fmt.Errorf("codec: encode: marshal checksum: %w", err)
	}
	m["checksum"] = checksumJSON

	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(m); err != nil {
		return nil, fmt.Errorf("codec: encode: %w", err)
	}
	out := bytes.TrimRight(buf.Bytes(), "\n")

	if !pretty {
		return out, nil
	}
	var pb bytes.Buffer
	if err := json.Indent(&pb, out, "", "  "); err != nil {
		return nil, fmt.Errorf("codec: encode: indent: %w", err)
	}
	return pb.Bytes(), nil
}

// Decode parses data into a Package, runs §4.1 validation, then verifies
// the seal (§4.2). Any failure yields a *CorruptPackage naming the
// failing stage; the registry and vector index are never touched on a
// Decode error (the caller's responsibility, per §4.7 step "Verify").
func Decode(data []byte) (*vkp.Package, error) {
	var w wirePackage
	if err := json.Unmarshal(data, &w); err != nil {
		return nil, &CorruptPackage{Stage: "format", Err: err}
	}

	createdAt, err := time.Parse(time.RFC3339Nano, w.CreatedAt)
	if err != nil {
		return nil, &CorruptPackage{Stage: "format", Err: fmt.Errorf("created_at: %w", err)}
	}

	pkg := &vkp.Package{
		Triple:         vkp.Triple{Subject: w.Subject, Grade: w.Grade, Semester: w.Semester},
		Version:        w.Version,
		CreatedAt:      createdAt,
		EmbeddingModel: w.EmbeddingModel,
		ChunkConfig:    vkp.ChunkConfig{ChunkSize: w.ChunkCfg.ChunkSize, ChunkOverlap: w.ChunkCfg.ChunkOverlap},
		SourceFiles:    w.SourceFiles,
		TotalChunks:    w.TotalChunks,
		Checksum:       w.Checksum,
	}
	pkg.Chunks = make([]vkp.Chunk, len(w.Chunks))
	for i, c := range w.Chunks {
		pkg.Chunks[i] = vkp.Chunk{ID: c.ChunkID, Text: c.Text, Vector: c.Embedding, Metadata: c.Metadata}
	}

	if err := vkp.Validate(pkg); err != nil {
		return nil, &CorruptPackage{Stage: "format", Err: err}
	}
	ok, err := seal.Verify(pkg)
	if err != nil {
		return nil, &CorruptPackage{Stage: "seal", Err: err}
	}
	if !ok {
		return nil, &CorruptPackage{Stage: "seal", Err: fmt.Errorf("checksum mismatch")}
	}
	return pkg, nil
}
