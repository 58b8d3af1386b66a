package metadata

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite" // SQLite driver

	apperrors "remitcli/internal/errors"
	"remitcli/pkg/contracts/domain"
)

// migrations are applied in order; the index plus one is the schema version.
var migrations = []string{
	`CREATE TABLE IF NOT EXISTS uploads (
		id          TEXT PRIMARY KEY,
		run_id      TEXT NOT NULL DEFAULT '',
		uploader    TEXT NOT NULL,
		label       TEXT NOT NULL DEFAULT '',
		backend     TEXT NOT NULL,
		object_name TEXT NOT NULL,
		row_count   INTEGER NOT NULL DEFAULT 0,
		uploaded_at INTEGER NOT NULL
	)`,
	`CREATE INDEX IF NOT EXISTS idx_uploads_uploaded_at ON uploads (uploaded_at DESC)`,
}

// SQLiteStore records uploads in a local SQLite database file.
type SQLiteStore struct {
	db   *sql.DB
	path string
}

// NewSQLiteStore opens (creating if needed) the database at path and brings
// its schema up to date.
func NewSQLiteStore(path string) (*SQLiteStore, error) {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0700); err != nil {
			return nil, apperrors.NewStorageError("creating metadata directory", err)
		}
	}

	db, err := sql.Open("sqlite", path+"?_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)")
	if err != nil {
		return nil, apperrors.NewStorageError("opening metadata database", err)
	}

	s := &SQLiteStore{db: db, path: path}
	if err := s.migrate(); err != nil {
		db.Close()
		return nil, apperrors.NewStorageError("running metadata migrations", err)
	}
	return s, nil
}

// Path returns the database file path.
func (s *SQLiteStore) Path() string {
	return s.path
}

// Close closes the database connection.
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

func (s *SQLiteStore) migrate() error {
	_, err := s.db.Exec(`
		CREATE TABLE IF NOT EXISTS schema_migrations (
			version INTEGER PRIMARY KEY,
			applied_at DATETIME DEFAULT CURRENT_TIMESTAMP
		)
	`)
	if err != nil {
		return fmt.Errorf("creating schema_migrations table: %w", err)
	}

	var current int
	if err := s.db.QueryRow("SELECT COALESCE(MAX(version), 0) FROM schema_migrations").Scan(&current); err != nil {
		return fmt.Errorf("reading schema version: %w", err)
	}

	for i := current; i < len(migrations); i++ {
		tx, err := s.db.Begin()
		if err != nil {
			return fmt.Errorf("beginning migration %d: %w", i+1, err)
		}
		if _, err := tx.Exec(migrations[i]); err != nil {
			tx.Rollback()
			return fmt.Errorf("applying migration %d: %w", i+1, err)
		}
		if _, err := tx.Exec("INSERT INTO schema_migrations (version) VALUES (?)", i+1); err != nil {
			tx.Rollback()
			return fmt.Errorf("recording migration %d: %w", i+1, err)
		}
		if err := tx.Commit(); err != nil {
			return fmt.Errorf("committing migration %d: %w", i+1, err)
		}
	}
	return nil
}

// Record inserts rec, replacing any record with the same ID.
func (s *SQLiteStore) Record(ctx context.Context, rec domain.UploadRecord) error {
	if err := validateRecord(rec); err != nil {
		return err
	}

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO uploads (id, run_id, uploader, label, backend, object_name, row_count, uploaded_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			run_id = excluded.run_id,
			uploader = excluded.uploader,
			label = excluded.label,
			backend = excluded.backend,
			object_name = excluded.object_name,
			row_count = excluded.row_count,
			uploaded_at = excluded.uploaded_at
	`, rec.ID, rec.RunID, rec.Uploader, rec.Label, rec.Backend, rec.ObjectName, rec.Rows, rec.UploadedAt.UnixNano())
	if err != nil {
		return apperrors.NewStorageError("recording upload", err).WithContext("object", rec.ObjectName)
	}
	return nil
}

// List returns up to limit records, newest first.
func (s *SQLiteStore) List(ctx context.Context, limit int) ([]domain.UploadRecord, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, run_id, uploader, label, backend, object_name, row_count, uploaded_at
		FROM uploads
		ORDER BY uploaded_at DESC, id
		LIMIT ?
	`, normalizeLimit(limit))
	if err != nil {
		return nil, apperrors.NewStorageError("querying uploads", err)
	}
	defer rows.Close()

	records := []domain.UploadRecord{}
	for rows.Next() {
		var (
			rec        domain.UploadRecord
			uploadedAt int64
		)
		if err := rows.Scan(&rec.ID, &rec.RunID, &rec.Uploader, &rec.Label, &rec.Backend,
			&rec.ObjectName, &rec.Rows, &uploadedAt); err != nil {
			return nil, apperrors.NewStorageError("scanning upload", err)
		}
		rec.UploadedAt = time.Unix(0, uploadedAt).UTC()
		records = append(records, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, apperrors.NewStorageError("iterating uploads", err)
	}
	return records, nil
}
