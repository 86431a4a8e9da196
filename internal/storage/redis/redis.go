// Package redis backs the cache and the quota counter with Redis. Expiry is
// native key TTL; the quota check-and-increment is a Lua script.
package redis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/Rajchodisetti/marketdata-gateway/internal/market"
	"github.com/Rajchodisetti/marketdata-gateway/internal/quota"
)

// consumeScript increments KEYS[1] only while it is below ARGV[1] and
// answers {allowed, used}. The key outlives its day by ARGV[2] seconds so
// Usage can still read it.
var consumeScript = redis.NewScript(`
local used = tonumber(redis.call('GET', KEYS[1]) or '0')
if used >= tonumber(ARGV[1]) then
	return {0, used}
end
used = redis.call('INCR', KEYS[1])
redis.call('EXPIRE', KEYS[1], ARGV[2])
return {1, used}
`)

// Options configures the Redis connection
type Options struct {
	Addr     string
	Password string
	DB       int
	Prefix   string
}

// Store implements cache.Store, cache.Clearer and quota.Tracker.
type Store struct {
	client *redis.Client
	prefix string
	limit  int
	now    func() time.Time
}

// Open connects and pings the server.
func Open(ctx context.Context, opts Options, dailyLimit int) (*Store, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     opts.Addr,
		Password: opts.Password,
		DB:       opts.DB,
	})

	// Test connection
	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := client.Ping(pingCtx).Err(); err != nil {
		client.Close()
		return nil, fmt.Errorf("failed to connect to Redis: %w", err)
	}

	return New(client, opts.Prefix, dailyLimit), nil
}

// New wraps an existing client.
func New(client *redis.Client, prefix string, dailyLimit int) *Store {
	if prefix == "" {
		prefix = "mdg"
	}
	return &Store{client: client, prefix: prefix, limit: dailyLimit, now: time.Now}
}

// WithClock replaces the time source used for the quota day. Used by tests.
func (s *Store) WithClock(now func() time.Time) *Store {
	s.now = now
	return s
}

// Close closes the client
func (s *Store) Close() error {
	return s.client.Close()
}

func (s *Store) cacheKey(symbol string, dt market.DataType) string {
	return fmt.Sprintf("%s:cache:%s:%s", s.prefix, symbol, dt)
}

func (s *Store) quotaKey(day string) string {
	return fmt.Sprintf("%s:quota:%s", s.prefix, day)
}

// Get returns the payload while its key is alive.
func (s *Store) Get(ctx context.Context, symbol string, dt market.DataType) (json.RawMessage, bool, error) {
	data, err := s.client.Get(ctx, s.cacheKey(symbol, dt)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("redis get %s/%s: %w", symbol, dt, err)
	}
	return json.RawMessage(data), true, nil
}

// Set overwrites the payload with a fresh TTL.
func (s *Store) Set(ctx context.Context, symbol string, dt market.DataType, payload json.RawMessage, ttl time.Duration) error {
	if err := s.client.Set(ctx, s.cacheKey(symbol, dt), []byte(payload), ttl).Err(); err != nil {
		return fmt.Errorf("redis set %s/%s: %w", symbol, dt, err)
	}
	return nil
}

// Clear removes entries for symbol, all data types when dt is empty.
func (s *Store) Clear(ctx context.Context, symbol string, dt market.DataType) (int64, error) {
	if dt != "" {
		return s.client.Del(ctx, s.cacheKey(symbol, dt)).Result()
	}

	var keys []string
	iter := s.client.Scan(ctx, 0, fmt.Sprintf("%s:cache:%s:*", s.prefix, symbol), 100).Iterator()
	for iter.Next(ctx) {
		keys = append(keys, iter.Val())
	}
	if err := iter.Err(); err != nil {
		return 0, fmt.Errorf("redis scan %s: %w", symbol, err)
	}
	if len(keys) == 0 {
		return 0, nil
	}
	return s.client.Del(ctx, keys...).Result()
}

// TryConsume takes one unit of today's quota.
func (s *Store) TryConsume(ctx context.Context) (bool, error) {
	now := s.now()
	keep := int64(quota.NextMidnightUTC(now).Sub(now).Seconds()) + int64((24 * time.Hour).Seconds())
	res, err := consumeScript.Run(ctx, s.client, []string{s.quotaKey(quota.Today(now))}, s.limit, keep).Int64Slice()
	if err != nil {
		return false, fmt.Errorf("redis consume quota: %w", err)
	}
	if len(res) != 2 {
		return false, fmt.Errorf("redis consume quota: unexpected reply %v", res)
	}
	quota.Publish(quota.NewUsage(now, int(res[1]), s.limit))
	return res[0] == 1, nil
}

// Usage reads today's counter.
func (s *Store) Usage(ctx context.Context) (quota.Usage, error) {
	now := s.now()
	used, err := s.client.Get(ctx, s.quotaKey(quota.Today(now))).Int()
	if err != nil && !errors.Is(err, redis.Nil) {
		return quota.Usage{}, fmt.Errorf("redis read usage: %w", err)
	}
	return quota.NewUsage(now, used, s.limit), nil
}
