package dashboard

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	"go-insight/internal/database"
)

// ErrSnapshotNotFound indicates no snapshot exists yet for a key.
var ErrSnapshotNotFound = errors.New("snapshot not found")

// SnapshotStore persists a full dashboard list under a scoped key. The
// value is written whole or not at all; readers never observe a partial
// list.
type SnapshotStore interface {
	Load(ctx context.Context, key string) ([]Dashboard, error)
	Save(ctx context.Context, key string, dashboards []Dashboard) error
}

type SQLiteSnapshotStore struct {
	db *sql.DB
}

// NewSQLiteSnapshotStore creates the snapshot table if needed. This is the
// local key-value store the configuration stores write through to.
func NewSQLiteSnapshotStore(snapDB *database.SnapshotDB) (SnapshotStore, error) {
	schema := `
	CREATE TABLE IF NOT EXISTS dashboard_snapshots (
		key TEXT PRIMARY KEY,
		value TEXT NOT NULL,
		updated_at TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP
	);`
	if _, err := snapDB.DB.Exec(schema); err != nil {
		return nil, fmt.Errorf("create snapshot table: %w", err)
	}
	return &SQLiteSnapshotStore{db: snapDB.DB}, nil
}

func (s *SQLiteSnapshotStore) Load(ctx context.Context, key string) ([]Dashboard, error) {
	var value string
	err := s.db.QueryRowContext(ctx,
		`SELECT value FROM dashboard_snapshots WHERE key = ?`, key).Scan(&value)
	if err == sql.ErrNoRows {
		return nil, ErrSnapshotNotFound
	}
	if err != nil {
		return nil, err
	}

	var dashboards []Dashboard
	if err := json.Unmarshal([]byte(value), &dashboards); err != nil {
		return nil, fmt.Errorf("malformed snapshot for key %q: %w", key, err)
	}
	return dashboards, nil
}

func (s *SQLiteSnapshotStore) Save(ctx context.Context, key string, dashboards []Dashboard) error {
	value, err := json.Marshal(dashboards)
	if err != nil {
		return err
	}

	_, err = s.db.ExecContext(ctx, `
		INSERT INTO dashboard_snapshots (key, value, updated_at)
		VALUES (?, ?, CURRENT_TIMESTAMP)
		ON CONFLICT(key) DO UPDATE SET
			value = excluded.value,
			updated_at = CURRENT_TIMESTAMP
	`, key, string(value))
	return err
}
