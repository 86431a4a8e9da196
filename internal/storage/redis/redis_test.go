package redis

import (
	"context"
	"encoding/json"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Rajchodisetti/marketdata-gateway/internal/cache"
	"github.com/Rajchodisetti/marketdata-gateway/internal/market"
	"github.com/Rajchodisetti/marketdata-gateway/internal/observ"
	"github.com/Rajchodisetti/marketdata-gateway/internal/quota"
)

var (
	_ cache.Store   = (*Store)(nil)
	_ cache.Clearer = (*Store)(nil)
	_ quota.Tracker = (*Store)(nil)
)

func setupTestStore(t *testing.T, limit int) (*Store, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { client.Close() })
	return New(client, "test", limit), mr
}

func TestGetSetTTL(t *testing.T) {
	s, mr := setupTestStore(t, 25)
	ctx := context.Background()

	_, ok, err := s.Get(ctx, "AAPL", market.DataQuote)
	require.NoError(t, err)
	assert.False(t, ok)

	require.NoError(t, s.Set(ctx, "AAPL", market.DataQuote, json.RawMessage(`{"price":"1"}`), 5*time.Minute))
	assert.True(t, mr.Exists("test:cache:AAPL:quote"))

	mr.FastForward(4 * time.Minute)
	got, ok, err := s.Get(ctx, "AAPL", market.DataQuote)
	require.NoError(t, err)
	require.True(t, ok)
	assert.JSONEq(t, `{"price":"1"}`, string(got))

	mr.FastForward(time.Minute)
	_, ok, err = s.Get(ctx, "AAPL", market.DataQuote)
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestClear(t *testing.T) {
	s, _ := setupTestStore(t, 25)
	ctx := context.Background()

	for _, dt := range []market.DataType{market.DataQuote, market.DataOverview} {
		require.NoError(t, s.Set(ctx, "AAPL", dt, json.RawMessage(`{}`), time.Hour))
	}
	require.NoError(t, s.Set(ctx, "MSFT", market.DataQuote, json.RawMessage(`{}`), time.Hour))

	n, err := s.Clear(ctx, "AAPL", "")
	require.NoError(t, err)
	assert.Equal(t, int64(2), n)

	_, ok, err := s.Get(ctx, "MSFT", market.DataQuote)
	require.NoError(t, err)
	assert.True(t, ok)
}

func TestTryConsume(t *testing.T) {
	s, mr := setupTestStore(t, 2)
	day := time.Date(2024, 3, 1, 23, 0, 0, 0, time.UTC)
	s.WithClock(func() time.Time { return day })
	ctx := context.Background()

	for _, want := range []bool{true, true, false} {
		ok, err := s.TryConsume(ctx)
		require.NoError(t, err)
		assert.Equal(t, want, ok)
	}

	u, err := s.Usage(ctx)
	require.NoError(t, err)
	assert.Equal(t, 2, u.Used)
	assert.Equal(t, "2024-03-01", u.Date)

	// counter survives past midnight, then expires
	ttl := mr.TTL("test:quota:2024-03-01")
	assert.Equal(t, 25*time.Hour, ttl)

	day = day.Add(2 * time.Hour)
	ok, err := s.TryConsume(ctx)
	require.NoError(t, err)
	assert.True(t, ok)
}

func TestTryConsumePublishesCounter(t *testing.T) {
	observ.Reset()
	s, _ := setupTestStore(t, 2)
	ctx := context.Background()

	for _, want := range []float64{1, 2, 2} {
		_, err := s.TryConsume(ctx)
		require.NoError(t, err)
		used, ok := observ.GaugeValue("gateway_quota_used")
		require.True(t, ok)
		assert.Equal(t, want, used)
	}
}

func TestTryConsumeConcurrentExact(t *testing.T) {
	s, _ := setupTestStore(t, 5)

	var granted atomic.Int64
	var wg sync.WaitGroup
	for i := 0; i < 40; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			ok, err := s.TryConsume(context.Background())
			if assert.NoError(t, err) && ok {
				granted.Add(1)
			}
		}()
	}
	wg.Wait()
	assert.Equal(t, int64(5), granted.Load())
}
