package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"sync"
	"time"

	"market-terminal/src/logger"
	"market-terminal/src/models"
)

// sqlDialect carries the statements that differ between SQL backends.
type sqlDialect struct {
	name          string
	driver        string
	schema        []string
	upsert        string // key, data, expires_at (unix ms)
	selectFresh   string // key, now (unix ms)
	deleteExpired string // now (unix ms)
}

// -----------------------------------------------------------------------------
// SQLStore is a shared store on a SQL table with an expires_at column, for
// deployments that already run a database instead of Redis.
// -----------------------------------------------------------------------------

type SQLStore struct {
	DB      *sql.DB
	Logger  *logger.Logger
	dialect sqlDialect
	now     func() time.Time

	schemaMu    sync.Mutex
	schemaReady bool
}

// -----------------------------------------------------------------------------

func newSQLStore(db *sql.DB, dialect sqlDialect, log *logger.Logger) *SQLStore {
	return &SQLStore{
		DB:      db,
		Logger:  log,
		dialect: dialect,
		now:     time.Now,
	}
}

// -----------------------------------------------------------------------------

func (s *SQLStore) Name() string {
	return s.dialect.name
}

// -----------------------------------------------------------------------------

// ensureSchema creates the table on first use so the process can start while
// the database is still unreachable.
func (s *SQLStore) ensureSchema(ctx context.Context) error {
	s.schemaMu.Lock()
	defer s.schemaMu.Unlock()

	if s.schemaReady {
		return nil
	}
	for _, stmt := range s.dialect.schema {
		if _, err := s.DB.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("failed to create %s cache schema: %w", s.dialect.name, err)
		}
	}
	s.schemaReady = true
	s.Logger.Debug("%s cache schema ready", s.dialect.name)
	return nil
}

// -----------------------------------------------------------------------------

func (s *SQLStore) Get(ctx context.Context, fp models.MFingerprint, out any) (bool, error) {
	if err := s.ensureSchema(ctx); err != nil {
		return false, err
	}

	var data string
	err := s.DB.QueryRowContext(ctx, s.dialect.selectFresh, storageKey(fp), s.now().UnixMilli()).Scan(&data)
	if errors.Is(err, sql.ErrNoRows) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("%s get %s: %w", s.dialect.name, fp.Key(), err)
	}
	if err := decodeEnvelope([]byte(data), fp, out); err != nil {
		s.Logger.Debug("Corrupt row under %s, %v", storageKey(fp), err)
		return false, err
	}
	return true, nil
}

// -----------------------------------------------------------------------------

// Set upserts with expires_at = now + ttl.
func (s *SQLStore) Set(ctx context.Context, fp models.MFingerprint, payload any, ttl time.Duration) error {
	if err := s.ensureSchema(ctx); err != nil {
		return err
	}

	now := s.now()
	b, err := encodeEnvelope(fp, payload, now)
	if err != nil {
		return err
	}
	if _, err := s.DB.ExecContext(ctx, s.dialect.upsert, storageKey(fp), string(b), now.Add(ttl).UnixMilli()); err != nil {
		return fmt.Errorf("%s set %s: %w", s.dialect.name, fp.Key(), err)
	}
	return nil
}

// -----------------------------------------------------------------------------

func (s *SQLStore) Ping(ctx context.Context) error {
	return s.DB.PingContext(ctx)
}

// -----------------------------------------------------------------------------

// DeleteExpired removes rows past their expiry and returns how many.
func (s *SQLStore) DeleteExpired(ctx context.Context) (int64, error) {
	if err := s.ensureSchema(ctx); err != nil {
		return 0, err
	}
	result, err := s.DB.ExecContext(ctx, s.dialect.deleteExpired, s.now().UnixMilli())
	if err != nil {
		return 0, fmt.Errorf("failed to delete expired %s cache rows: %w", s.dialect.name, err)
	}
	return result.RowsAffected()
}

// -----------------------------------------------------------------------------

func (s *SQLStore) Close() error {
	if s.DB != nil {
		return s.DB.Close()
	}
	return nil
}
