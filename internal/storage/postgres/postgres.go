// Package postgres backs the cache and the quota counter with a shared
// Postgres database through three stored functions, so several gateway
// deployments (or other clients of the same database) share one budget.
package postgres

import (
	"context"
	"database/sql"
	_ "embed"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	_ "github.com/lib/pq"

	"github.com/Rajchodisetti/marketdata-gateway/internal/market"
	"github.com/Rajchodisetti/marketdata-gateway/internal/quota"
)

//go:embed schema.sql
var schema string

// Store implements cache.Store, cache.Sweeper, cache.Clearer and
// quota.Tracker. Expiry and the day boundary are evaluated by the database.
type Store struct {
	db    *sql.DB
	limit int
	now   func() time.Time
}

// Open connects with a lib/pq DSN and pings the server.
func Open(ctx context.Context, dsn string, dailyLimit int) (*Store, error) {
	db, err := sql.Open("postgres", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	// Test connection
	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := db.PingContext(pingCtx); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	return New(db, dailyLimit), nil
}

// New wraps an open database.
func New(db *sql.DB, dailyLimit int) *Store {
	return &Store{db: db, limit: dailyLimit, now: time.Now}
}

// Migrate creates the tables and stored functions if missing.
func (s *Store) Migrate(ctx context.Context) error {
	if _, err := s.db.ExecContext(ctx, schema); err != nil {
		return fmt.Errorf("failed to apply schema: %w", err)
	}
	return nil
}

// Close closes the database connection
func (s *Store) Close() error {
	return s.db.Close()
}

// Get calls get_cached_stock_data, which returns NULL for absent or expired rows.
func (s *Store) Get(ctx context.Context, symbol string, dt market.DataType) (json.RawMessage, bool, error) {
	var payload sql.NullString
	err := s.db.QueryRowContext(ctx,
		`SELECT get_cached_stock_data($1, $2)::text`, symbol, string(dt),
	).Scan(&payload)
	if err != nil {
		return nil, false, fmt.Errorf("get_cached_stock_data %s/%s: %w", symbol, dt, err)
	}
	if !payload.Valid || payload.String == "" || payload.String == "null" {
		return nil, false, nil
	}
	return json.RawMessage(payload.String), true, nil
}

// Set calls set_cached_stock_data with the TTL in whole minutes.
func (s *Store) Set(ctx context.Context, symbol string, dt market.DataType, payload json.RawMessage, ttl time.Duration) error {
	mins, err := ttlMinutes(ttl)
	if err != nil {
		return fmt.Errorf("set %s/%s: %w", symbol, dt, err)
	}
	_, err = s.db.ExecContext(ctx,
		`SELECT set_cached_stock_data($1, $2, $3::jsonb, $4)`,
		symbol, string(dt), string(payload), mins,
	)
	if err != nil {
		return fmt.Errorf("set_cached_stock_data %s/%s: %w", symbol, dt, err)
	}
	return nil
}

// ttlMinutes truncates to whole minutes, so a stored entry never outlives
// ttl. Below one minute nothing could be stored.
func ttlMinutes(ttl time.Duration) (int, error) {
	if ttl < time.Minute {
		return 0, fmt.Errorf("ttl %s is below the one minute resolution", ttl)
	}
	return int(ttl / time.Minute), nil
}

// DeleteExpired removes rows whose expiry has passed.
func (s *Store) DeleteExpired(ctx context.Context) (int64, error) {
	res, err := s.db.ExecContext(ctx, `DELETE FROM stock_data_cache WHERE expires_at <= now()`)
	if err != nil {
		return 0, fmt.Errorf("failed to delete expired entries: %w", err)
	}
	return res.RowsAffected()
}

// Clear removes entries for symbol, all data types when dt is empty.
func (s *Store) Clear(ctx context.Context, symbol string, dt market.DataType) (int64, error) {
	res, err := s.db.ExecContext(ctx,
		`DELETE FROM stock_data_cache WHERE symbol = $1 AND ($2 = '' OR data_type = $2)`,
		symbol, string(dt),
	)
	if err != nil {
		return 0, fmt.Errorf("failed to clear %s: %w", symbol, err)
	}
	return res.RowsAffected()
}

// TryConsume calls consume_api_usage, which increments today's row only
// while used < limit and returns whether it did along with the counter.
// increment_api_usage wraps it for callers that only want the flag.
func (s *Store) TryConsume(ctx context.Context) (bool, error) {
	var (
		ok   bool
		used int
	)
	if err := s.db.QueryRowContext(ctx,
		`SELECT allowed, used_today FROM consume_api_usage($1)`, s.limit,
	).Scan(&ok, &used); err != nil {
		return false, fmt.Errorf("consume_api_usage: %w", err)
	}
	quota.Publish(quota.NewUsage(s.now(), used, s.limit))
	return ok, nil
}

// Usage reads today's row. The database decides what today is.
func (s *Store) Usage(ctx context.Context) (quota.Usage, error) {
	var (
		day  time.Time
		used int
	)
	err := s.db.QueryRowContext(ctx,
		`SELECT d, COALESCE((SELECT used FROM api_usage WHERE day = d), 0)
		 FROM (SELECT (now() AT TIME ZONE 'utc')::date AS d) t`,
	).Scan(&day, &used)
	if err != nil && !errors.Is(err, sql.ErrNoRows) {
		return quota.Usage{}, fmt.Errorf("failed to read usage: %w", err)
	}
	if day.IsZero() {
		day = s.now()
	}
	return quota.NewUsage(day, used, s.limit), nil
}
