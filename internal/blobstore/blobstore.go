// Package blobstore is the local full-package blob cache (SPEC_FULL.md §3,
// design note §9 second-to-last bullet): it retains every full Package
// the Puller installs, zstd-compressed on disk, and loads the highest
// saved version per subject and grade, so the
// Puller's TryDelta step can apply a delta against a local copy instead of
// re-fetching the previous full package from the object store.
package blobstore

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"

	"github.com/klauspost/compress/zstd"

	"vkp/internal/codec"
	"vkp/internal/vkp"
)

// Store is a directory of zstd-compressed full packages, one file per
// (subject, grade, version) ever installed, laid out exactly as
// "persist_dir/blobs/{subject}/kelas_{grade}/v{version}.vkp.zst". The
// semester is not part of the path.
type Store struct {
	dir string
}

// New builds a Store rooted at persistDir/blobs.
func New(persistDir string) *Store {
	return &Store{dir: filepath.Join(persistDir, "blobs")}
}

func (s *Store) path(t vkp.Triple, version string) string {
	return filepath.Join(s.dir, t.Subject, "kelas_"+strconv.Itoa(t.Grade), "v"+version+".vkp.zst")
}

// Save persists pkg, compressed, at its triple/version path. Triples with
// multiple saved versions keep every file; Load picks the highest.
func (s *Store) Save(pkg *vkp.Package) error {
	data, err := codec.Encode(pkg, false)
	if err != nil {
		return fmt.Errorf("blobstore: encode %s v%s: %w", pkg.Triple.CollectionName(), pkg.Version, err)
	}

	path := s.path(pkg.Triple, pkg.Version)
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("blobstore: mkdir: %w", err)
	}

	dir := filepath.Dir(path)
	tmp, err := os.CreateTemp(dir, ".blob-*")
	if err != nil {
		return fmt.Errorf("blobstore: create temp: %w", err)
	}
	tmpPath := tmp.Name()
	cleanup := func() {
		tmp.Close()
		os.Remove(tmpPath)
	}

	enc, err := zstd.NewWriter(tmp)
	if err != nil {
		cleanup()
		return fmt.Errorf("blobstore: new zstd writer: %w", err)
	}
	if _, err := enc.Write(data); err != nil {
		enc.Close()
		cleanup()
		return fmt.Errorf("blobstore: compress: %w", err)
	}
	if err := enc.Close(); err != nil {
		cleanup()
		return fmt.Errorf("blobstore: close zstd writer: %w", err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("blobstore: close temp: %w", err)
	}
	if err := os.Rename(tmpPath, path); err != nil {
		return fmt.Errorf("blobstore: rename into place: %w", err)
	}
	return nil
}

// Load returns the highest-versioned full Package on disk for triple, or
// (nil, false, nil) if none has ever been saved.
func (s *Store) Load(triple vkp.Triple) (*vkp.Package, bool, error) {
	best, ok, err := s.latestVersion(triple)
	if err != nil {
		return nil, false, err
	}
	if !ok {
		return nil, false, nil
	}
	return s.LoadVersion(triple, best)
}

// LoadVersion returns the full Package saved for (triple, version).
func (s *Store) LoadVersion(triple vkp.Triple, version string) (*vkp.Package, bool, error) {
	path := s.path(triple, version)
	raw, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("blobstore: read %s: %w", path, err)
	}

	dec, err := zstd.NewReader(nil)
	if err != nil {
		return nil, false, fmt.Errorf("blobstore: new zstd reader: %w", err)
	}
	defer dec.Close()
	data, err := dec.DecodeAll(raw, nil)
	if err != nil {
		return nil, false, fmt.Errorf("blobstore: decompress %s: %w", path, err)
	}

	pkg, err := codec.Decode(data)
	if err != nil {
		return nil, false, fmt.Errorf("blobstore: decode %s: %w", path, err)
	}
	return pkg, true, nil
}

func (s *Store) latestVersion(triple vkp.Triple) (string, bool, error) {
	dir := filepath.Join(s.dir, triple.Subject, "kelas_"+strconv.Itoa(triple.Grade))
	entries, err := os.ReadDir(dir)
	if os.IsNotExist(err) {
		return "", false, nil
	}
	if err != nil {
		return "", false, fmt.Errorf("blobstore: list %s: %w", dir, err)
	}

	var best string
	for _, e := range entries {
		name := e.Name()
		const suffix = ".vkp.zst"
		if e.IsDir() || len(name) <= len(suffix)+1 || name[len(name)-len(suffix):] != suffix || name[0] != 'v' {
			continue
		}
		version := name[1 : len(name)-len(suffix)]
		if best == "" {
			best = version
			continue
		}
		cmp, err := vkp.CompareVersions(version, best)
		if err != nil {
			continue
		}
		if cmp == vkp.OrderGT {
			best = version
		}
	}
	if best == "" {
		return "", false, nil
	}
	return best, true, nil
}
