// Package cache holds the shared cache contract and its in-process
// implementations. Persistent backends live under internal/storage.
package cache

import (
	"context"
	"encoding/json"
	"sync"
	"time"

	"github.com/Rajchodisetti/marketdata-gateway/internal/market"
)

// Store is a keyed blob cache with per-entry expiry. Get returns an entry only
// while now < expiresAt; expired entries look exactly like absent ones. Set
// overwrites unconditionally.
type Store interface {
	Get(ctx context.Context, symbol string, dt market.DataType) (json.RawMessage, bool, error)
	Set(ctx context.Context, symbol string, dt market.DataType, payload json.RawMessage, ttl time.Duration) error
}

// Sweeper is implemented by stores that keep expired rows until purged.
type Sweeper interface {
	DeleteExpired(ctx context.Context) (int64, error)
}

// Clearer drops entries for a symbol. An empty data type clears all of them.
type Clearer interface {
	Clear(ctx context.Context, symbol string, dt market.DataType) (int64, error)
}

// Entry is one cached payload.
type Entry struct {
	Symbol    string          `json:"symbol"`
	DataType  market.DataType `json:"dataType"`
	Payload   json.RawMessage `json:"payload"`
	ExpiresAt time.Time       `json:"expiresAt"`
}

// Fresh reports whether the entry may still be served at now.
func (e Entry) Fresh(now time.Time) bool {
	return now.Before(e.ExpiresAt)
}

type key struct {
	symbol string
	dt     market.DataType
}

// Memory is a process-local Store. It backs tests and single-instance runs.
type Memory struct {
	mu      sync.RWMutex
	entries map[key]Entry
	now     func() time.Time
}

// NewMemory creates an empty memory store.
func NewMemory() *Memory {
	return &Memory{entries: make(map[key]Entry), now: time.Now}
}

// WithClock replaces the time source. Used by tests.
func (m *Memory) WithClock(now func() time.Time) *Memory {
	m.now = now
	return m
}

func (m *Memory) Get(_ context.Context, symbol string, dt market.DataType) (json.RawMessage, bool, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	e, ok := m.entries[key{symbol, dt}]
	if !ok || !e.Fresh(m.now()) {
		return nil, false, nil
	}
	out := make(json.RawMessage, len(e.Payload))
	copy(out, e.Payload)
	return out, true, nil
}

func (m *Memory) Set(_ context.Context, symbol string, dt market.DataType, payload json.RawMessage, ttl time.Duration) error {
	buf := make(json.RawMessage, len(payload))
	copy(buf, payload)

	m.mu.Lock()
	defer m.mu.Unlock()
	m.entries[key{symbol, dt}] = Entry{
		Symbol:    symbol,
		DataType:  dt,
		Payload:   buf,
		ExpiresAt: m.now().Add(ttl),
	}
	return nil
}

func (m *Memory) DeleteExpired(_ context.Context) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	now := m.now()
	var n int64
	for k, e := range m.entries {
		if !e.Fresh(now) {
			delete(m.entries, k)
			n++
		}
	}
	return n, nil
}

func (m *Memory) Clear(_ context.Context, symbol string, dt market.DataType) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	var n int64
	for k := range m.entries {
		if k.symbol == symbol && (dt == "" || k.dt == dt) {
			delete(m.entries, k)
			n++
		}
	}
	return n, nil
}

// Len returns the number of stored entries, fresh or not.
func (m *Memory) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.entries)
}
