package storage

import (
	"context"
	"database/sql"
	"fmt"

	"market-terminal/src/logger"

	_ "modernc.org/sqlite"
)

var sqliteDialect = sqlDialect{
	name:   "sqlite",
	driver: "sqlite",
	schema: []string{
		`CREATE TABLE IF NOT EXISTS shared_cache (
			cache_key TEXT PRIMARY KEY,
			data TEXT NOT NULL,
			expires_at INTEGER NOT NULL
		)`,
		`CREATE INDEX IF NOT EXISTS idx_shared_cache_expires ON shared_cache(expires_at)`,
	},
	upsert:        `INSERT OR REPLACE INTO shared_cache (cache_key, data, expires_at) VALUES (?, ?, ?)`,
	selectFresh:   `SELECT data FROM shared_cache WHERE cache_key = ? AND expires_at > ?`,
	deleteExpired: `DELETE FROM shared_cache WHERE expires_at <= ?`,
}

// -----------------------------------------------------------------------------

// NewSQLiteStore opens a cache file that several processes on one host can
// share. WAL mode lets readers proceed while another process writes.
func NewSQLiteStore(path string, log *logger.Logger) (*SQLStore, error) {
	if path == "" {
		return nil, fmt.Errorf("database path cannot be empty for sqlite")
	}

	db, err := sql.Open(sqliteDialect.driver, path)
	if err != nil {
		return nil, err
	}

	// One connection so the per-connection PRAGMAs below apply to every query.
	db.SetMaxOpenConns(1)

	ctx := context.Background()

	// PRAGMA optimizations
	if _, err := db.ExecContext(ctx, "PRAGMA journal_mode = WAL;"); err != nil {
		log.Warning("Failed to set WAL mode: %v", err)
	}
	if _, err := db.ExecContext(ctx, "PRAGMA synchronous = NORMAL;"); err != nil {
		log.Warning("Failed to set synchronous mode: %v", err)
	}
	if _, err := db.ExecContext(ctx, "PRAGMA busy_timeout = 100;"); err != nil {
		log.Warning("Failed to set busy timeout: %v", err)
	}

	return newSQLStore(db, sqliteDialect, log), nil
}
