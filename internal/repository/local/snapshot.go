package local

import (
	"context"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/lovableswim/swim-api/pkg/database"
)

// snapshot persists collections as JSON documents in a single SQLite
// key/value table.
type snapshot struct {
	db *sqlx.DB
}

type snapshotRow struct {
	Key   string `db:"key"`
	Value string `db:"value"`
}

func openSnapshot(ctx context.Context, path string) (*snapshot, error) {
	raw, err := database.NewSQLite(path)
	if err != nil {
		return nil, err
	}
	db := sqlx.NewDb(raw, "sqlite")
	const ddl = `CREATE TABLE IF NOT EXISTS kv_store (
        key TEXT PRIMARY KEY,
        value TEXT NOT NULL,
        updated_at TEXT NOT NULL
    )`
	if _, err := db.ExecContext(ctx, ddl); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("create kv_store: %w", err)
	}
	return &snapshot{db: db}, nil
}

func (s *snapshot) load(ctx context.Context) (map[string][]byte, error) {
	var rows []snapshotRow
	if err := s.db.SelectContext(ctx, &rows, `SELECT key, value FROM kv_store`); err != nil {
		return nil, fmt.Errorf("load snapshot: %w", err)
	}
	out := make(map[string][]byte, len(rows))
	for _, row := range rows {
		out[row.Key] = []byte(row.Value)
	}
	return out, nil
}

func (s *snapshot) save(ctx context.Context, entries map[string][]byte) error {
	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin snapshot: %w", err)
	}
	now := time.Now().UTC().Format(time.RFC3339Nano)
	const query = `INSERT INTO kv_store (key, value, updated_at) VALUES (?, ?, ?)
        ON CONFLICT(key) DO UPDATE SET value = excluded.value, updated_at = excluded.updated_at`
	for key, value := range entries {
		if _, err := tx.ExecContext(ctx, query, key, string(value), now); err != nil {
			_ = tx.Rollback()
			return fmt.Errorf("save snapshot %s: %w", key, err)
		}
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit snapshot: %w", err)
	}
	return nil
}

func (s *snapshot) close() error {
	return s.db.Close()
}
