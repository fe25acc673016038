package codec

import (
	"bytes"
	"encoding/json"
	"fmt"
	"time"

	"vkp/internal/vkp"
)

type wireDeltaMetadata struct {
	ChunkConfig struct {
		ChunkOverlap int `json:"chunk_overlap"`
		ChunkSize    int `json:"chunk_size"`
	} `json:"chunk_config"`
	CreatedAt      string   `json:"created_at"`
	EmbeddingModel string   `json:"embedding_model"`
	SourceFiles    []string `json:"source_files"`
	TotalChunks    int      `json:"total_chunks"`
}

type wireDelta struct {
	AddedChunks     []wireChunk       `json:"added_chunks"`
	BaseVersion     string            `json:"base_version"`
	Grade           int               `json:"grade"`
	Metadata        wireDeltaMetadata `json:"metadata"`
	RemovedChunkIDs []string          `json:"removed_chunk_ids"`
	Semester        int               `json:"semester"`
	Subject         string            `json:"subject"`
	Version         string            `json:"version"`
}

// EncodeDelta renders d as the canonical JSON of the Delta schema in §6:
// sorted keys at every depth, checksum-free (a Delta carries no seal of
// its own), UTF-8 with no ASCII-escaping.
func EncodeDelta(d *vkp.Delta, pretty bool) ([]byte, error) {
	added := make([]any, len(d.PresentChunks))
	for i, c := range d.PresentChunks {
		cm := map[string]any{
			"chunk_id":  c.ID,
			"text":      c.Text,
			"embedding": c.Vector,
		}
		if len(c.Metadata) > 0 {
			meta := make(map[string]any, len(c.Metadata))
			for k, v := range c.Metadata {
				meta[k] = v
			}
			cm["metadata"] = meta
		} else {
			cm["metadata"] = map[string]any{}
		}
		added[i] = cm
	}

	removed := make([]any, len(d.RemovedIDs))
	for i, id := range d.RemovedIDs {
		removed[i] = id
	}
	sourceFiles := make([]any, len(d.TargetProvenance.SourceFiles))
	for i, s := range d.TargetProvenance.SourceFiles {
		sourceFiles[i] = s
	}

	m := map[string]any{
		"added_chunks": added,
		"base_version": d.BaseVersion,
		"grade":        d.Grade,
		"metadata": map[string]any{
			"chunk_config": map[string]any{
				"chunk_size":    d.TargetProvenance.ChunkConfig.ChunkSize,
				"chunk_overlap": d.TargetProvenance.ChunkConfig.ChunkOverlap,
			},
			"created_at":      d.TargetProvenance.CreatedAt.UTC().Format(time.RFC3339Nano),
			"embedding_model": d.TargetProvenance.EmbeddingModel,
			"source_files":    sourceFiles,
			"total_chunks":    d.TargetProvenance.TotalChunks,
		},
		"removed_chunk_ids": removed,
		"semester":          d.Semester,
		"subject":           d.Subject,
		"version":           d.Version,
	}

	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(m); err != nil {
		return nil, fmt.Errorf("codec: encode delta: %w", err)
	}
	out := bytes.TrimRight(buf.Bytes(), "\n")
	if !pretty {
		return out, nil
	}
	var pb bytes.Buffer
	if err := json.Indent(&pb, out, "", "  "); err != nil {
		return nil, fmt.Errorf("codec: encode delta: indent: %w", err)
	}
	return pb.Bytes(), nil
}

// DecodeDelta parses data into a Delta. Unlike Decode, there is no seal to
// verify: a Delta is an intermediate artifact, sealed only once Apply (§4.4)
// produces the resulting Package.
func DecodeDelta(data []byte) (*vkp.Delta, error) {
	var w wireDelta
	if err := json.Unmarshal(data, &w); err != nil {
		return nil, &CorruptPackage{Stage: "format", Err: err}
	}
	createdAt, err := time.Parse(time.RFC3339Nano, w.Metadata.CreatedAt)
	if err != nil {
		return nil, &CorruptPackage{Stage: "format", Err: fmt.Errorf("metadata.created_at: %w", err)}
	}

	d := &vkp.Delta{
		Triple:      vkp.Triple{Subject: w.Subject, Grade: w.Grade, Semester: w.Semester},
		Version:     w.Version,
		BaseVersion: w.BaseVersion,
		TargetProvenance: vkp.Provenance{
			CreatedAt:      createdAt,
			EmbeddingModel: w.Metadata.EmbeddingModel,
			ChunkConfig: vkp.ChunkConfig{
				ChunkSize:    w.Metadata.ChunkConfig.ChunkSize,
				ChunkOverlap: w.Metadata.ChunkConfig.ChunkOverlap,
			},
			SourceFiles: w.Metadata.SourceFiles,
			TotalChunks: w.Metadata.TotalChunks,
		},
		RemovedIDs: w.RemovedChunkIDs,
	}
	d.PresentChunks = make([]vkp.Chunk, len(w.AddedChunks))
	for i, c := range w.AddedChunks {
		d.PresentChunks[i] = vkp.Chunk{ID: c.ChunkID, Text: c.Text, Vector: c.Embedding, Metadata: c.Metadata}
	}
	for _, c := range d.PresentChunks {
		if err := vkp.ValidateChunk(c); err != nil {
			return nil, &CorruptPackage{Stage: "format", Err: err}
		}
	}
	return d, nil
}
