// Package sqlite is the default persistent backend: one table of JSON blobs
// with expiry timestamps and one row per UTC day for the quota counter.
package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite" // Pure Go SQLite driver

	"github.com/Rajchodisetti/marketdata-gateway/internal/market"
	"github.com/Rajchodisetti/marketdata-gateway/internal/quota"
)

const schema = `
CREATE TABLE IF NOT EXISTS cache_entries (
	symbol     TEXT    NOT NULL,
	data_type  TEXT    NOT NULL,
	payload    TEXT    NOT NULL,
	expires_at INTEGER NOT NULL,
	updated_at INTEGER NOT NULL,
	PRIMARY KEY (symbol, data_type)
);
CREATE INDEX IF NOT EXISTS idx_cache_entries_expires ON cache_entries(expires_at);

CREATE TABLE IF NOT EXISTS api_usage (
	day  TEXT    PRIMARY KEY,
	used INTEGER NOT NULL DEFAULT 0
);
`

// Store implements cache.Store, cache.Sweeper, cache.Clearer and
// quota.Tracker on one database.
type Store struct {
	db    *sql.DB
	limit int
	now   func() time.Time
}

// Open opens (and creates) the database at path. ":memory:" gives a private
// in-memory database.
func Open(path string, dailyLimit int) (*Store, error) {
	dsn := ":memory:"
	if path != ":memory:" {
		if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
			return nil, fmt.Errorf("failed to create database directory: %w", err)
		}
		// Use WAL mode so readers do not block the writer
		dsn = path + "?_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)"
	}

	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	if path == ":memory:" {
		// every connection would otherwise see its own empty database
		db.SetMaxOpenConns(1)
	} else {
		db.SetMaxOpenConns(8)
		db.SetMaxIdleConns(2)
	}

	s, err := New(db, dailyLimit)
	if err != nil {
		db.Close()
		return nil, err
	}
	return s, nil
}

// New wraps an open database and applies the schema.
func New(db *sql.DB, dailyLimit int) (*Store, error) {
	if _, err := db.Exec(schema); err != nil {
		return nil, fmt.Errorf("failed to apply schema: %w", err)
	}
	return &Store{db: db, limit: dailyLimit, now: time.Now}, nil
}

// WithClock replaces the time source. Used by tests.
func (s *Store) WithClock(now func() time.Time) *Store {
	s.now = now
	return s
}

// Close closes the database connection
func (s *Store) Close() error {
	return s.db.Close()
}

// Get returns the payload only if expires_at > now.
func (s *Store) Get(ctx context.Context, symbol string, dt market.DataType) (json.RawMessage, bool, error) {
	var payload string
	err := s.db.QueryRowContext(ctx,
		`SELECT payload FROM cache_entries WHERE symbol = ? AND data_type = ? AND expires_at > ?`,
		symbol, string(dt), s.now().UnixMilli(),
	).Scan(&payload)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("failed to get %s/%s: %w", symbol, dt, err)
	}
	return json.RawMessage(payload), true, nil
}

// Set upserts the payload with expiration = now + ttl.
func (s *Store) Set(ctx context.Context, symbol string, dt market.DataType, payload json.RawMessage, ttl time.Duration) error {
	now := s.now()
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO cache_entries (symbol, data_type, payload, expires_at, updated_at)
		 VALUES (?, ?, ?, ?, ?)
		 ON CONFLICT(symbol, data_type) DO UPDATE SET
			payload = excluded.payload,
			expires_at = excluded.expires_at,
			updated_at = excluded.updated_at`,
		symbol, string(dt), string(payload), now.Add(ttl).UnixMilli(), now.UnixMilli(),
	)
	if err != nil {
		return fmt.Errorf("failed to store %s/%s: %w", symbol, dt, err)
	}
	return nil
}

// DeleteExpired removes all rows where expires_at <= now.
func (s *Store) DeleteExpired(ctx context.Context) (int64, error) {
	res, err := s.db.ExecContext(ctx, `DELETE FROM cache_entries WHERE expires_at <= ?`, s.now().UnixMilli())
	if err != nil {
		return 0, fmt.Errorf("failed to delete expired entries: %w", err)
	}
	return res.RowsAffected()
}

// Clear removes entries for symbol, all data types when dt is empty.
func (s *Store) Clear(ctx context.Context, symbol string, dt market.DataType) (int64, error) {
	var (
		res sql.Result
		err error
	)
	if dt == "" {
		res, err = s.db.ExecContext(ctx, `DELETE FROM cache_entries WHERE symbol = ?`, symbol)
	} else {
		res, err = s.db.ExecContext(ctx, `DELETE FROM cache_entries WHERE symbol = ? AND data_type = ?`, symbol, string(dt))
	}
	if err != nil {
		return 0, fmt.Errorf("failed to clear %s: %w", symbol, err)
	}
	return res.RowsAffected()
}

// TryConsume takes one unit of today's quota. The conditional UPDATE is a
// single atomic statement, so concurrent callers never overshoot the limit.
func (s *Store) TryConsume(ctx context.Context) (bool, error) {
	now := s.now()
	day := quota.Today(now)
	if _, err := s.db.ExecContext(ctx,
		`INSERT INTO api_usage (day, used) VALUES (?, 0) ON CONFLICT(day) DO NOTHING`, day,
	); err != nil {
		return false, fmt.Errorf("failed to open usage row: %w", err)
	}

	var used int
	err := s.db.QueryRowContext(ctx,
		`UPDATE api_usage SET used = used + 1 WHERE day = ? AND used < ? RETURNING used`, day, s.limit,
	).Scan(&used)
	if errors.Is(err, sql.ErrNoRows) {
		quota.Publish(quota.NewUsage(now, s.limit, s.limit))
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("failed to consume quota: %w", err)
	}
	quota.Publish(quota.NewUsage(now, used, s.limit))
	return true, nil
}

// Usage returns today's counter.
func (s *Store) Usage(ctx context.Context) (quota.Usage, error) {
	now := s.now()
	var used int
	err := s.db.QueryRowContext(ctx, `SELECT used FROM api_usage WHERE day = ?`, quota.Today(now)).Scan(&used)
	if err != nil && !errors.Is(err, sql.ErrNoRows) {
		return quota.Usage{}, fmt.Errorf("failed to read usage: %w", err)
	}
	return quota.NewUsage(now, used, s.limit), nil
}

// Stats counts fresh and expired rows.
func (s *Store) Stats(ctx context.Context) (fresh, expired int64, err error) {
	err = s.db.QueryRowContext(ctx,
		`SELECT
			COALESCE(SUM(CASE WHEN expires_at > ? THEN 1 ELSE 0 END), 0),
			COALESCE(SUM(CASE WHEN expires_at <= ? THEN 1 ELSE 0 END), 0)
		 FROM cache_entries`,
		s.now().UnixMilli(), s.now().UnixMilli(),
	).Scan(&fresh, &expired)
	if err != nil {
		return 0, 0, fmt.Errorf("failed to count entries: %w", err)
	}
	return fresh, expired, nil
}
