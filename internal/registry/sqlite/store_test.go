package sqlite

import (
	"path/filepath"
	"testing"

	"vkp/internal/registry"
	"vkp/internal/registry/registrytest"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()
	path := filepath.Join(t.TempDir(), "registry.db")
	s, err := NewStore(path)
	if err != nil {
		t.Fatalf("NewStore: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

func TestConformance(t *testing.T) {
	registrytest.TestRegistry(t, func(t *testing.T) registry.Registry {
		return newTestStore(t)
	})
}

func TestPragmas(t *testing.T) {
	s := newTestStore(t)

	var journalMode string
	if err := s.db.QueryRow("PRAGMA journal_mode").Scan(&journalMode); err != nil {
		t.Fatalf("query journal_mode: %v", err)
	}
	if journalMode != "wal" {
		t.Errorf("expected journal_mode=wal, got %q", journalMode)
	}
}

func TestUniqueConstraintRejectsDuplicateRow(t *testing.T) {
	s := newTestStore(t)
	ctx := t.Context()

	insert := `INSERT INTO vkp_versions
		(subject, grade, semester, version, installed_at, chunk_count, checksum, is_active)
		VALUES ('matematika', 10, 1, '1.0.0', '2026-01-01T00:00:00Z', 1, 'sha256:x', 1)`

	if _, err := s.db.ExecContext(ctx, insert); err != nil {
		t.Fatalf("first insert: %v", err)
	}
	if _, err := s.db.ExecContext(ctx, insert); err == nil {
		t.Fatal("expected the UNIQUE(subject,grade,semester,version) constraint to reject a duplicate row")
	}
}
