package objectstore

import (
	"fmt"
	"regexp"
	"strconv"

	"vkp/internal/vkp"
)

// fullKeyPattern and deltaKeyPattern match the remote namespace layout
// of §4.6/§6 exactly: "{subject}/kelas_{grade}/v{version}.vkp" and its
// ".delta.vkp" sibling. Semester is not encoded in the key (§4.6,
// §9): Enumerate defaults it to 1 for candidate filtering only, before
// any package body has been read (see internal/puller for the
// resolve-from-body step that corrects it).
var (
	fullKeyPattern  = regexp.MustCompile(`^([^/]+)/kelas_(\d+)/v(\d+\.\d+\.\d+)\.vkp$`)
	deltaKeyPattern = regexp.MustCompile(`^([^/]+)/kelas_(\d+)/v(\d+\.\d+\.\d+)\.delta\.vkp$`)
)

// ErrNotAPackageKey means a listed key does not match either the full
// or delta key pattern, so Enumerate ignores it.
var ErrNotAPackageKey = fmt.Errorf("objectstore: key does not match the package layout")

// Candidate is a parsed package key: identity, version, and whether it
// is the full or delta form.
type Candidate struct {
	Triple  vkp.Triple
	Version string
	Size    int64
	IsDelta bool
}

// FullKey renders the full-package key for triple/version (§6).
func FullKey(subject string, grade int, version string) string {
	return fmt.Sprintf("%s/kelas_%d/v%s.vkp", subject, grade, version)
}

// DeltaKey renders the delta key for triple/version (§6).
func DeltaKey(subject string, grade int, version string) string {
	return fmt.Sprintf("%s/kelas_%d/v%s.delta.vkp", subject, grade, version)
}

// ParseCandidate classifies a single listed key into a Candidate.
// Semester always defaults to 1 here; the Puller corrects it once the
// package body is decoded (the Open Question resolution in SPEC_FULL.md).
func ParseCandidate(info ObjectInfo) (Candidate, error) {
	if m := fullKeyPattern.FindStringSubmatch(info.Key); m != nil {
		grade, err := strconv.Atoi(m[2])
		if err != nil {
			return Candidate{}, fmt.Errorf("%w: %q: bad grade", ErrNotAPackageKey, info.Key)
		}
		return Candidate{
			Triple:  vkp.Triple{Subject: m[1], Grade: grade, Semester: 1},
			Version: m[3],
			Size:    info.Size,
			IsDelta: false,
		}, nil
	}
	if m := deltaKeyPattern.FindStringSubmatch(info.Key); m != nil {
		grade, err := strconv.Atoi(m[2])
		if err != nil {
			return Candidate{}, fmt.Errorf("%w: %q: bad grade", ErrNotAPackageKey, info.Key)
		}
		return Candidate{
			Triple:  vkp.Triple{Subject: m[1], Grade: grade, Semester: 1},
			Version: m[3],
			Size:    info.Size,
			IsDelta: true,
		}, nil
	}
	return Candidate{}, fmt.Errorf("%w: %q", ErrNotAPackageKey, info.Key)
}
