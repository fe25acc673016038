package seal

import (
	"encoding/json"
	"io"

	"vkp/internal/vkp"
)

// toMap renders pkg's fields into the mapping shape of the package JSON
// schema in §6. Chunk order within the slice is preserved — chunk order
// is part of a package's identity (§4.2), so it must not be sorted away
// even though every map's *keys* are.
func toMap(pkg *vkp.Package) map[string]any {
	chunks := make([]any, len(pkg.Chunks))
	for i, c := range pkg.Chunks {
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
		chunks[i] = cm
	}

	return map[string]any{
		"checksum": pkg.Checksum,
		"chunk_config": map[string]any{
			"chunk_size":    pkg.ChunkConfig.ChunkSize,
			"chunk_overlap": pkg.ChunkConfig.ChunkOverlap,
		},
		"chunks":          chunks,
		"created_at":      pkg.CreatedAt.UTC().Format(timeFormat),
		"embedding_model": pkg.EmbeddingModel,
		"grade":           pkg.Grade,
		"semester":        pkg.Semester,
		"source_files":    toAnySlice(pkg.SourceFiles),
		"subject":         pkg.Subject,
		"total_chunks":    pkg.TotalChunks,
		"version":         pkg.Version,
	}
}

const timeFormat = "2006-01-02T15:04:05.999999999Z07:00"

func toAnySlice(ss []string) []any {
	out := make([]any, len(ss))
	for i, s := range ss {
		out[i] = s
	}
	return out
}

// newCanonicalEncoder returns a json.Encoder configured to not escape
// HTML-sensitive characters, matching ensure_ascii=false for the
// already-UTF-8-preserving default behavior of encoding/json.
func newCanonicalEncoder(w io.Writer) *json.Encoder {
	enc := json.NewEncoder(w)
	enc.SetEscapeHTML(false)
	return enc
}
