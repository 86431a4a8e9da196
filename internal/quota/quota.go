// Package quota enforces the daily upstream call budget shared by every caller
// and every gateway instance using the same backend.
package quota

import (
	"context"
	"sync"
	"time"

	"github.com/Rajchodisetti/marketdata-gateway/internal/observ"
)

// DateLayout is the key format of a daily counter (UTC).
const DateLayout = "2006-01-02"

// Tracker consumes quota units. TryConsume increments today's counter iff
// used < limit, as one atomic step, and reports whether it did. A false
// result is not an error.
type Tracker interface {
	TryConsume(ctx context.Context) (bool, error)
	Usage(ctx context.Context) (Usage, error)
}

// Usage is a snapshot of today's counter.
type Usage struct {
	Date      string    `json:"date"`
	Used      int       `json:"used"`
	Limit     int       `json:"limit"`
	Remaining int       `json:"remaining"`
	ResetAt   time.Time `json:"resetAt"`
}

// NewUsage fills the derived fields of a snapshot.
func NewUsage(day time.Time, used, limit int) Usage {
	remaining := limit - used
	if remaining < 0 {
		remaining = 0
	}
	return Usage{
		Date:      day.UTC().Format(DateLayout),
		Used:      used,
		Limit:     limit,
		Remaining: remaining,
		ResetAt:   NextMidnightUTC(day),
	}
}

// Today returns the counter key for t.
func Today(t time.Time) string {
	return t.UTC().Format(DateLayout)
}

// NextMidnightUTC returns the start of the UTC day after t.
func NextMidnightUTC(t time.Time) time.Time {
	t = t.UTC()
	return time.Date(t.Year(), t.Month(), t.Day()+1, 0, 0, 0, 0, time.UTC)
}

// Memory is a process-local tracker. Counters of previous days are kept as
// read-only history.
type Memory struct {
	mu    sync.Mutex
	limit int
	used  map[string]int
	now   func() time.Time
}

// NewMemory creates a tracker with the given daily limit.
func NewMemory(limit int) *Memory {
	return &Memory{limit: limit, used: make(map[string]int), now: time.Now}
}

// WithClock replaces the time source. Used by tests.
func (m *Memory) WithClock(now func() time.Time) *Memory {
	m.now = now
	return m
}

func (m *Memory) TryConsume(_ context.Context) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	day := Today(m.now())
	if m.used[day] >= m.limit {
		observ.Log("quota_exhausted", map[string]any{
			"date":  day,
			"used":  m.used[day],
			"limit": m.limit,
		})
		return false, nil
	}
	m.used[day]++
	Publish(NewUsage(m.now(), m.used[day], m.limit))
	return true, nil
}

func (m *Memory) Usage(_ context.Context) (Usage, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	now := m.now()
	return NewUsage(now, m.used[Today(now)], m.limit), nil
}

// History returns the counter of a past or current day.
func (m *Memory) History(day string) int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.used[day]
}

// Publish exports today's counter as gauges for /health.
func Publish(u Usage) {
	observ.SetGauge("gateway_quota_used", float64(u.Used), nil)
	observ.SetGauge("gateway_quota_limit", float64(u.Limit), nil)
}
