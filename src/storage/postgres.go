package storage

import (
	"database/sql"

	"market-terminal/src/logger"

	_ "github.com/lib/pq"
)

var postgresDialect = sqlDialect{
	name:   "postgres",
	driver: "postgres",
	schema: []string{
		`CREATE TABLE IF NOT EXISTS mdal_shared_cache (
			cache_key TEXT PRIMARY KEY,
			data TEXT NOT NULL,
			expires_at BIGINT NOT NULL
		)`,
		`CREATE INDEX IF NOT EXISTS idx_mdal_shared_cache_expires ON mdal_shared_cache(expires_at)`,
	},
	upsert: `INSERT INTO mdal_shared_cache (cache_key, data, expires_at) VALUES ($1, $2, $3)
		ON CONFLICT (cache_key) DO UPDATE SET
			data = excluded.data,
			expires_at = excluded.expires_at`,
	selectFresh:   `SELECT data FROM mdal_shared_cache WHERE cache_key = $1 AND expires_at > $2`,
	deleteExpired: `DELETE FROM mdal_shared_cache WHERE expires_at <= $1`,
}

// -----------------------------------------------------------------------------

// NewPostgresStore does not connect; sql.Open is lazy and the schema is
// created on first use.
func NewPostgresStore(dsn string, log *logger.Logger) (*SQLStore, error) {
	db, err := sql.Open(postgresDialect.driver, dsn)
	if err != nil {
		return nil, err
	}
	db.SetMaxOpenConns(10)
	db.SetMaxIdleConns(5)
	return newSQLStore(db, postgresDialect, log), nil
}
