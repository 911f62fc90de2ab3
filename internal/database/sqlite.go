package database

import (
	"context"
	"database/sql"
	"log"

	"go-insight/internal/config"

	"go.uber.org/fx"
	_ "modernc.org/sqlite"
)

type SnapshotDB struct {
	DB *sql.DB
}

// NewSnapshotDB opens the local SQLite database used for dashboard snapshots.
// This is the server-side stand-in for the browser's local key-value storage.
func NewSnapshotDB(lc fx.Lifecycle, cfg *config.Config) (*SnapshotDB, error) {
	db, err := sql.Open("sqlite", cfg.SnapshotPath)
	if err != nil {
		return nil, err
	}

	if _, err := db.Exec(`PRAGMA journal_mode = WAL;`); err != nil {
		db.Close()
		return nil, err
	}

	log.Printf("Opened snapshot store at %s", cfg.SnapshotPath)

	lc.Append(fx.Hook{
		OnStop: func(ctx context.Context) error {
			return db.Close()
		},
	})

	return &SnapshotDB{DB: db}, nil
}
