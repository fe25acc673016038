// Package sqlite is a SQLite-backed Registry implementation (§4.5),
// adapted from the transactional config-store idiom: one on-disk
// database, WAL journaling, every multi-statement operation wrapped in
// a transaction so a failure leaves the table untouched (§8 atomicity).
package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite"

	"vkp/internal/registry"
	"vkp/internal/vkp"
)

const timeFormat = time.RFC3339Nano

// installedAtFormat writes installed_at with a fixed-width fraction so
// that History's ORDER BY on the text column sorts chronologically.
const installedAtFormat = "2006-01-02T15:04:05.000000000Z07:00"

// Store is a SQLite-based Registry implementation.
type Store struct {
	db *sql.DB
}

var _ registry.Registry = (*Store)(nil)

// NewStore opens a SQLite database at path and runs migrations.
func NewStore(path string) (*Store, error) {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return nil, fmt.Errorf("create registry directory: %w", err)
		}
	}
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}

	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)

	if _, err := db.Exec("PRAGMA journal_mode = WAL"); err != nil {
		db.Close()
		return nil, fmt.Errorf("set journal_mode: %w", err)
	}

	if err := runMigrations(db); err != nil {
		db.Close()
		return nil, fmt.Errorf("run migrations: %w", err)
	}

	return &Store{db: db}, nil
}

// Close closes the underlying database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

func (s *Store) Register(ctx context.Context, triple vkp.Triple, version string, chunkCount int, checksum string) error {
	if err := vkp.ValidateVersion(version); err != nil {
		return err
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("registry: begin register: %w", err)
	}
	defer tx.Rollback()

	_, err = tx.ExecContext(ctx, `
		UPDATE vkp_versions SET is_active = 0
		WHERE subject = ? AND grade = ? AND semester = ?
	`, triple.Subject, triple.Grade, triple.Semester)
	if err != nil {
		return fmt.Errorf("registry: clear active for %+v: %w", triple, err)
	}

	var existingInstalledAt string
	err = tx.QueryRowContext(ctx, `
		SELECT installed_at FROM vkp_versions
		WHERE subject = ? AND grade = ? AND semester = ? AND version = ?
	`, triple.Subject, triple.Grade, triple.Semester, version).Scan(&existingInstalledAt)
	switch {
	case errors.Is(err, sql.ErrNoRows):
		_, err = tx.ExecContext(ctx, `
			INSERT INTO vkp_versions
				(subject, grade, semester, version, installed_at, chunk_count, checksum, is_active)
			VALUES (?, ?, ?, ?, ?, ?, ?, 1)
		`, triple.Subject, triple.Grade, triple.Semester, version,
			time.Now().UTC().Format(installedAtFormat), chunkCount, checksum)
		if err != nil {
			return fmt.Errorf("registry: insert %+v %s: %w", triple, version, err)
		}
	case err != nil:
		return fmt.Errorf("registry: lookup %+v %s: %w", triple, version, err)
	default:
		// Re-registering an already-known version: preserve installed_at.
		_, err = tx.ExecContext(ctx, `
			UPDATE vkp_versions SET chunk_count = ?, checksum = ?, is_active = 1
			WHERE subject = ? AND grade = ? AND semester = ? AND version = ?
		`, chunkCount, checksum, triple.Subject, triple.Grade, triple.Semester, version)
		if err != nil {
			return fmt.Errorf("registry: update %+v %s: %w", triple, version, err)
		}
	}

	return tx.Commit()
}

func (s *Store) Installed(ctx context.Context, triple vkp.Triple) (string, bool, error) {
	var version string
	err := s.db.QueryRowContext(ctx, `
		SELECT version FROM vkp_versions
		WHERE subject = ? AND grade = ? AND semester = ? AND is_active = 1
	`, triple.Subject, triple.Grade, triple.Semester).Scan(&version)
	if errors.Is(err, sql.ErrNoRows) {
		return "", false, nil
	}
	if err != nil {
		return "", false, fmt.Errorf("registry: installed %+v: %w", triple, err)
	}
	return version, true, nil
}

func (s *Store) History(ctx context.Context, triple vkp.Triple) ([]registry.Entry, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT version, installed_at, chunk_count, checksum, is_active
		FROM vkp_versions
		WHERE subject = ? AND grade = ? AND semester = ?
		ORDER BY installed_at DESC
	`, triple.Subject, triple.Grade, triple.Semester)
	if err != nil {
		return nil, fmt.Errorf("registry: history %+v: %w", triple, err)
	}
	defer rows.Close()

	var out []registry.Entry
	for rows.Next() {
		var e registry.Entry
		var installedAt string
		var active int
		if err := rows.Scan(&e.Version, &installedAt, &e.ChunkCount, &e.Checksum, &active); err != nil {
			return nil, fmt.Errorf("registry: scan history %+v: %w", triple, err)
		}
		e.Triple = triple
		e.Active = active != 0
		e.InstalledAt, err = time.Parse(timeFormat, installedAt)
		if err != nil {
			return nil, fmt.Errorf("registry: parse installed_at %q: %w", installedAt, err)
		}
		out = append(out, e)
	}
	return out, rows.Err()
}

func (s *Store) Rollback(ctx context.Context, triple vkp.Triple, targetVersion string) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("registry: begin rollback: %w", err)
	}
	defer tx.Rollback()

	var exists int
	err = tx.QueryRowContext(ctx, `
		SELECT count(*) FROM vkp_versions
		WHERE subject = ? AND grade = ? AND semester = ? AND version = ?
	`, triple.Subject, triple.Grade, triple.Semester, targetVersion).Scan(&exists)
	if err != nil {
		return fmt.Errorf("registry: rollback lookup %+v %s: %w", triple, targetVersion, err)
	}
	if exists == 0 {
		return registry.ErrNotFound
	}

	if _, err := tx.ExecContext(ctx, `
		UPDATE vkp_versions SET is_active = 0
		WHERE subject = ? AND grade = ? AND semester = ?
	`, triple.Subject, triple.Grade, triple.Semester); err != nil {
		return fmt.Errorf("registry: rollback clear active %+v: %w", triple, err)
	}

	if _, err := tx.ExecContext(ctx, `
		UPDATE vkp_versions SET is_active = 1
		WHERE subject = ? AND grade = ? AND semester = ? AND version = ?
	`, triple.Subject, triple.Grade, triple.Semester, targetVersion); err != nil {
		return fmt.Errorf("registry: rollback set active %+v %s: %w", triple, targetVersion, err)
	}

	return tx.Commit()
}

func (s *Store) Compare(v1, v2 string) (vkp.Order, error) {
	return vkp.CompareVersions(v1, v2)
}
