// Package seal computes and verifies the content-addressed checksum that
// closes a Versioned Knowledge Package: a SHA-256 digest over the
// package's canonical form (§4.2 of the distribution-core specification).
package seal

import (
	"bytes"
	"crypto/sha256"
	"encoding/hex"
	"fmt"

	"vkp/internal/vkp"
)

// Prefix is prepended to every seal's hex digest.
const Prefix = "sha256:"

// Canonical renders pkg as the canonical form defined by §4.2: a mapping
// with the checksum field omitted, every key lexicographically sorted at
// every depth, UTF-8 JSON, no ASCII-escaping of non-ASCII text, and no
// trailing whitespace.
//
// Go's encoding/json already sorts map[string]any keys on encode, so
// building the canonical form as nested maps gets key-sorting for free;
// SetEscapeHTML(false) is the one explicit knob needed to match
// ensure_ascii=false (Go does not escape non-ASCII runes to begin with —
// only HTML-sensitive ASCII — so disabling that is the full equivalent).
func Canonical(pkg *vkp.Package) ([]byte, error) {
	m := toMap(pkg)
	delete(m, "checksum")

	var buf bytes.Buffer
	enc := newCanonicalEncoder(&buf)
	if err := enc.Encode(m); err != nil {
		return nil, fmt.Errorf("seal: encode canonical form: %w", err)
	}
	// json.Encoder.Encode appends a trailing newline; the canonical form
	// carries none.
	return bytes.TrimRight(buf.Bytes(), "\n"), nil
}

// Seal computes the seal of pkg: "sha256:" followed by the lower-hex
// SHA-256 digest of its canonical form. Sealing is deterministic —
// repeated calls on the same package yield byte-identical results (§8
// property 1) — and sensitive to any change in chunk text, vector
// elements, metadata, provenance, chunk order, or chunk_id (§8 property
// 2), since all of those flow into the canonical form.
//
// crypto/sha256 (standard library) is used deliberately: the wire format
// in §6 hard-codes the "sha256:" + hex digest shape, so no third-party
// hash library would change the contract — only add an unjustified
// dependency.
func Seal(pkg *vkp.Package) (string, error) {
	canon, err := Canonical(pkg)
	if err != nil {
		return "", err
	}
	sum := sha256.Sum256(canon)
	return Prefix + hex.EncodeToString(sum[:]), nil
}

// Verify reports whether pkg.Checksum matches the seal recomputed over
// pkg's own canonical form.
func Verify(pkg *vkp.Package) (bool, error) {
	want, err := Seal(pkg)
	if err != nil {
		return false, err
	}
	return want == pkg.Checksum, nil
}
