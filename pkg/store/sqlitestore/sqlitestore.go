// Package sqlitestore keeps goalguard state in a SQLite key/value table.
package sqlitestore

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/adrg/xdg"
	_ "modernc.org/sqlite"

	"github.com/jmylchreest/goalguard/pkg/store"
)

// DefaultRelPath is the location of the database below the XDG data home.
const DefaultRelPath = "goalguard/state.db"

// DefaultPath returns $XDG_DATA_HOME/goalguard/state.db.
func DefaultPath() (string, error) {
	return xdg.DataFile(DefaultRelPath)
}

const migration = `
CREATE TABLE IF NOT EXISTS kv (
	key        TEXT PRIMARY KEY,
	value      TEXT NOT NULL,
	updated_at DATETIME NOT NULL
);
`

// Backend implements store.Backend using modernc.org/sqlite.
// Values are stored as JSON text.
type Backend struct {
	db *sql.DB
}

// Open opens (or creates) the database at dsn, enables WAL mode and
// creates the kv table.
func Open(ctx context.Context, dsn string) (*Backend, error) {
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("sqlite: open: %w", err)
	}
	for _, pragma := range []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA busy_timeout=5000",
		"PRAGMA synchronous=NORMAL",
	} {
		if _, err := db.ExecContext(ctx, pragma); err != nil {
			_ = db.Close()
			return nil, fmt.Errorf("sqlite: exec %s: %w", pragma, err)
		}
	}
	if _, err := db.ExecContext(ctx, migration); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("sqlite: migrate: %w", err)
	}
	return &Backend{db: db}, nil
}

// Load implements store.Backend.
func (b *Backend) Load(ctx context.Context, key string, dst any) (bool, error) {
	var value string
	err := b.db.QueryRowContext(ctx, `SELECT value FROM kv WHERE key = ?`, key).Scan(&value)
	if errors.Is(err, sql.ErrNoRows) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("sqlite: select %s: %w", key, err)
	}
	if err := json.Unmarshal([]byte(value), dst); err != nil {
		return true, fmt.Errorf("sqlite: decode %s: %w", key, err)
	}
	return true, nil
}

// Save implements store.Backend.
func (b *Backend) Save(ctx context.Context, key string, value any) error {
	data, err := json.Marshal(value)
	if err != nil {
		return fmt.Errorf("sqlite: encode %s: %w", key, err)
	}
	_, err = b.db.ExecContext(ctx,
		`INSERT INTO kv (key, value, updated_at) VALUES (?, ?, ?)
		 ON CONFLICT(key) DO UPDATE SET value = excluded.value, updated_at = excluded.updated_at`,
		key, string(data), time.Now().UTC(),
	)
	if err != nil {
		return fmt.Errorf("sqlite: upsert %s: %w", key, err)
	}
	return nil
}

// Close implements store.Backend.
func (b *Backend) Close() error {
	return b.db.Close()
}

// Name implements store.Backend.
func (b *Backend) Name() string { return "sqlite" }

var _ store.Backend = (*Backend)(nil)
