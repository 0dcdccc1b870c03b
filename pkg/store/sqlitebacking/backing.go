// Package sqlitebacking persists store payloads in a SQLite database.
package sqlitebacking

import (
	"context"
	"database/sql"
	_ "embed"
	"errors"
	"fmt"
	"time"

	"github.com/goliatone/go-reactive/pkg/store"
	_ "github.com/mattn/go-sqlite3"
)

//go:embed schema.sql
var schemaSQL string

// Backing is a store.Backing over one SQLite table, one row per ident.
type Backing struct {
	db *sql.DB
}

var _ store.Backing = (*Backing)(nil)

// Open creates or opens the database at path and applies the schema. It is
// idempotent.
func Open(path string) (*Backing, error) {
	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	// SQLite allows a single writer.
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)

	if err := applyPragmas(db); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to apply pragmas: %w", err)
	}
	if _, err := db.Exec(schemaSQL); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to apply schema: %w", err)
	}
	return &Backing{db: db}, nil
}

func applyPragmas(db *sql.DB) error {
	pragmas := []string{
		"PRAGMA journal_mode = WAL",
		"PRAGMA synchronous = NORMAL",
		"PRAGMA busy_timeout = 5000",
	}
	for _, pragma := range pragmas {
		if _, err := db.Exec(pragma); err != nil {
			return fmt.Errorf("failed to execute %q: %w", pragma, err)
		}
	}
	return nil
}

// Close closes the database connection.
func (b *Backing) Close() error {
	if b.db == nil {
		return nil
	}
	return b.db.Close()
}

// Read implements store.Backing.
func (b *Backing) Read(ctx context.Context, ident string) ([]byte, store.Meta, bool, error) {
	var (
		data       []byte
		snapshotID string
		updatedAt  int64
	)
	err := b.db.QueryRowContext(ctx,
		`SELECT data, snapshot_id, updated_at FROM reactive_stores WHERE ident = ?`, ident,
	).Scan(&data, &snapshotID, &updatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, store.Meta{}, false, nil
	}
	if err != nil {
		return nil, store.Meta{}, false, fmt.Errorf("read %q: %w", ident, err)
	}
	return data, store.Meta{
		SnapshotID: snapshotID,
		UpdatedAt:  time.UnixMilli(updatedAt).UTC(),
	}, true, nil
}

// Write implements store.Backing, replacing any previous payload.
func (b *Backing) Write(ctx context.Context, ident string, data []byte, meta store.Meta) (store.Meta, error) {
	if meta.UpdatedAt.IsZero() {
		meta.UpdatedAt = time.Now().UTC()
	}
	_, err := b.db.ExecContext(ctx, `
		INSERT INTO reactive_stores (ident, data, snapshot_id, updated_at)
		VALUES (?, ?, ?, ?)
		ON CONFLICT(ident) DO UPDATE SET
			data = excluded.data,
			snapshot_id = excluded.snapshot_id,
			updated_at = excluded.updated_at`,
		ident, data, meta.SnapshotID, meta.UpdatedAt.UnixMilli(),
	)
	if err != nil {
		return store.Meta{}, fmt.Errorf("write %q: %w", ident, err)
	}
	meta.UpdatedAt = time.UnixMilli(meta.UpdatedAt.UnixMilli()).UTC()
	return meta, nil
}

// Delete removes the payload stored under ident.
func (b *Backing) Delete(ctx context.Context, ident string) error {
	if _, err := b.db.ExecContext(ctx, `DELETE FROM reactive_stores WHERE ident = ?`, ident); err != nil {
		return fmt.Errorf("delete %q: %w", ident, err)
	}
	return nil
}
