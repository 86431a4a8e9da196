package cache

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Rajchodisetti/marketdata-gateway/internal/market"
)

type fakeClock struct{ t time.Time }

func (c *fakeClock) Now() time.Time { return c.t }

func (c *fakeClock) Advance(d time.Duration) { c.t = c.t.Add(d) }

func TestTTLFor(t *testing.T) {
	income, _ := market.FinancialsType(market.StatementIncome)
	daily, _ := market.TimeSeriesType(market.IntervalDaily, market.OutputCompact)

	assert.Equal(t, 5*time.Minute, TTLFor(market.DataQuote, 0))
	assert.Equal(t, 15*time.Minute, TTLFor(market.DataOverview, 0))
	assert.Equal(t, 24*time.Hour, TTLFor(income, time.Minute))
	assert.Equal(t, 60*time.Minute, TTLFor(daily, 0))
	assert.Equal(t, 6*time.Hour, TTLFor(daily, 6*time.Hour))
	assert.Equal(t, MinTimeSeriesTTL, TTLFor(daily, time.Minute))
	assert.Equal(t, MaxTimeSeriesTTL, TTLFor(daily, 72*time.Hour))
	assert.Equal(t, TTLNews, TTLFor(market.DataNews, 0))
}

func TestMemoryExpiresAtTTL(t *testing.T) {
	clock := &fakeClock{t: time.Date(2024, 1, 15, 10, 0, 0, 0, time.UTC)}
	store := NewMemory().WithClock(clock.Now)
	ctx := context.Background()

	require.NoError(t, store.Set(ctx, "AAPL", market.DataQuote, json.RawMessage(`{"price":"1"}`), TTLQuote))

	clock.Advance(TTLQuote - time.Second)
	got, ok, err := store.Get(ctx, "AAPL", market.DataQuote)
	require.NoError(t, err)
	require.True(t, ok)
	assert.JSONEq(t, `{"price":"1"}`, string(got))

	clock.Advance(time.Second)
	_, ok, err = store.Get(ctx, "AAPL", market.DataQuote)
	require.NoError(t, err)
	assert.False(t, ok, "entry must not be served at expiresAt")

	n, err := store.DeleteExpired(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(1), n)
	assert.Equal(t, 0, store.Len())
}

func TestMemorySetOverwrites(t *testing.T) {
	store := NewMemory()
	ctx := context.Background()

	require.NoError(t, store.Set(ctx, "MSFT", market.DataOverview, json.RawMessage(`{"v":1}`), time.Minute))
	require.NoError(t, store.Set(ctx, "MSFT", market.DataOverview, json.RawMessage(`{"v":2}`), time.Minute))

	got, ok, err := store.Get(ctx, "MSFT", market.DataOverview)
	require.NoError(t, err)
	require.True(t, ok)
	assert.JSONEq(t, `{"v":2}`, string(got))
}

func TestMemoryClear(t *testing.T) {
	store := NewMemory()
	ctx := context.Background()
	income, _ := market.FinancialsType(market.StatementIncome)

	require.NoError(t, store.Set(ctx, "AAPL", market.DataQuote, json.RawMessage(`{}`), time.Minute))
	require.NoError(t, store.Set(ctx, "AAPL", income, json.RawMessage(`{}`), time.Minute))
	require.NoError(t, store.Set(ctx, "MSFT", market.DataQuote, json.RawMessage(`{}`), time.Minute))

	n, err := store.Clear(ctx, "AAPL", market.DataQuote)
	require.NoError(t, err)
	assert.Equal(t, int64(1), n)

	n, err = store.Clear(ctx, "AAPL", "")
	require.NoError(t, err)
	assert.Equal(t, int64(1), n)
	assert.Equal(t, 1, store.Len())
}

func TestPriceCacheLazyExpiryAndSweep(t *testing.T) {
	clock := &fakeClock{t: time.Date(2024, 1, 15, 10, 0, 0, 0, time.UTC)}
	pc := NewPriceCache(time.Minute).WithClock(clock.Now)

	pc.Set("aapl", market.Quote{Symbol: "AAPL", Price: "175.50"})
	pc.Set("MSFT", market.Quote{Symbol: "MSFT", Price: "410.00"})

	q, ok := pc.Get("AAPL")
	require.True(t, ok)
	assert.Equal(t, "175.50", q.Price)

	clock.Advance(30 * time.Second)
	pc.Set("NVDA", market.Quote{Symbol: "NVDA"})
	clock.Advance(30 * time.Second)

	st := pc.Stats()
	assert.Equal(t, 3, st.Total)
	assert.Equal(t, 1, st.Fresh)
	assert.Equal(t, 2, st.Stale)

	_, ok = pc.Get("AAPL")
	assert.False(t, ok)
	assert.Equal(t, 2, pc.Stats().Total, "stale entry removed on read")

	assert.Equal(t, 1, pc.Sweep())
	assert.True(t, pc.Has("NVDA"))
	assert.Equal(t, 1, pc.Stats().Total)
}

func TestPriceCacheGetMany(t *testing.T) {
	pc := NewPriceCache(0)
	pc.Set("AAPL", market.Quote{Symbol: "AAPL"})

	found, missing := pc.GetMany([]string{"AAPL", "TSLA"})
	assert.Len(t, found, 1)
	assert.Equal(t, []string{"TSLA"}, missing)

	pc.Clear()
	assert.Equal(t, 0, pc.Stats().Total)
}
