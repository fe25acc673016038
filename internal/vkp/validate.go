package vkp

import (
	"fmt"
	"regexp"
)

var (
	versionPattern  = regexp.MustCompile(`^\d+\.\d+\.\d+$`)
	checksumPattern = regexp.MustCompile(`^sha256:[0-9a-f]{64}$`)
)

// Validate runs the eight ordered rules of §4.1 against pkg, returning the
// first offending rule as a wrapped sentinel error. It does not check that
// the checksum is numerically correct — that is the Sealer's job (§4.2);
// rule 8 here only checks the checksum's shape.
func Validate(pkg *Package) error {
	if !versionPattern.MatchString(pkg.Version) {
		return fmt.Errorf("%w: %q", ErrMalformedVersion, pkg.Version)
	}
	if pkg.Subject == "" {
		return fmt.Errorf("%w: subject is empty", ErrInvalidTriple)
	}
	if pkg.Grade < 1 || pkg.Grade > 12 {
		return fmt.Errorf("%w: grade %d out of range [1,12]", ErrInvalidTriple, pkg.Grade)
	}
	if pkg.Semester != 1 && pkg.Semester != 2 {
		return fmt.Errorf("%w: semester %d not in {1,2}", ErrInvalidTriple, pkg.Semester)
	}
	if pkg.CreatedAt.IsZero() {
		return fmt.Errorf("%w: created_at is zero", ErrMalformedTimestamp)
	}
	if pkg.ChunkConfig.ChunkSize <= 0 || pkg.ChunkConfig.ChunkOverlap < 0 {
		return fmt.Errorf("%w: chunk_size=%d chunk_overlap=%d",
			ErrMissingChunkConfig, pkg.ChunkConfig.ChunkSize, pkg.ChunkConfig.ChunkOverlap)
	}
	if len(pkg.Chunks) != pkg.TotalChunks {
		return fmt.Errorf("%w: got %d chunks, total_chunks=%d",
			ErrChunkCountMismatch, len(pkg.Chunks), pkg.TotalChunks)
	}
	for i, c := range pkg.Chunks {
		if err := validateChunk(c); err != nil {
			return fmt.Errorf("chunk[%d] (id=%q): %w", i, c.ID, err)
		}
	}
	if !checksumPattern.MatchString(pkg.Checksum) {
		return fmt.Errorf("%w: %q", ErrMalformedChecksum, pkg.Checksum)
	}
	return nil
}

// validateChunk checks a standalone Chunk against rule 7 of §4.1. The
// delta decoder (codec.DecodeDelta) reuses this to validate
// present_chunks outside a full Package, since a Delta carries Chunk
// values directly.
func validateChunk(c Chunk) error {
	if c.ID == "" {
		return fmt.Errorf("%w: chunk_id", ErrEmptyChunkField)
	}
	if c.Text == "" {
		return fmt.Errorf("%w: text", ErrEmptyChunkField)
	}
	if len(c.Vector) == 0 {
		return fmt.Errorf("%w: embedding", ErrEmptyChunkField)
	}
	return nil
}

// ValidateChunk exposes the per-chunk rule to other packages (codec's
// delta decoder validates present_chunks the same way a full Package does).
func ValidateChunk(c Chunk) error { return validateChunk(c) }

// ValidateVersion checks v against the MAJOR.MINOR.PATCH shape alone,
// independent of any Package (the Version Registry rejects a malformed
// version before it ever builds an Entry, per §4.5).
func ValidateVersion(v string) error {
	if !versionPattern.MatchString(v) {
		return fmt.Errorf("%w: %q", ErrMalformedVersion, v)
	}
	return nil
}
