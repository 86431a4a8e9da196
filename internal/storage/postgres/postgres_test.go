package postgres

import (
	"context"
	"encoding/json"
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Rajchodisetti/marketdata-gateway/internal/cache"
	"github.com/Rajchodisetti/marketdata-gateway/internal/market"
	"github.com/Rajchodisetti/marketdata-gateway/internal/quota"
)

var (
	_ cache.Store   = (*Store)(nil)
	_ cache.Sweeper = (*Store)(nil)
	_ cache.Clearer = (*Store)(nil)
	_ quota.Tracker = (*Store)(nil)
)

func TestTTLMinutes(t *testing.T) {
	tests := []struct {
		ttl  time.Duration
		want int
	}{
		{time.Minute, 1},
		{5 * time.Minute, 5},
		{5*time.Minute + 59*time.Second, 5},
		{24 * time.Hour, 1440},
	}
	for _, tt := range tests {
		got, err := ttlMinutes(tt.ttl)
		require.NoError(t, err, tt.ttl.String())
		assert.Equal(t, tt.want, got, tt.ttl.String())
	}

	for _, ttl := range []time.Duration{0, 30 * time.Second, 59 * time.Second} {
		_, err := ttlMinutes(ttl)
		assert.Error(t, err, ttl.String())
	}
}

func TestSchemaDefinesFunctions(t *testing.T) {
	for _, fn := range []string{"get_cached_stock_data", "set_cached_stock_data", "consume_api_usage", "increment_api_usage"} {
		assert.Contains(t, schema, "FUNCTION "+fn+"(")
	}
}

// TestLiveDatabase runs against a scratch database when one is provided.
func TestLiveDatabase(t *testing.T) {
	dsn := os.Getenv("GATEWAY_TEST_POSTGRES_DSN")
	if dsn == "" {
		t.Skip("Skipping Postgres test - GATEWAY_TEST_POSTGRES_DSN not set")
	}
	ctx := context.Background()

	s, err := Open(ctx, dsn, 2)
	require.NoError(t, err)
	defer s.Close()
	require.NoError(t, s.Migrate(ctx))
	_, err = s.db.ExecContext(ctx, `TRUNCATE stock_data_cache, api_usage`)
	require.NoError(t, err)

	t.Run("cache round trip", func(t *testing.T) {
		_, ok, err := s.Get(ctx, "AAPL", market.DataQuote)
		require.NoError(t, err)
		assert.False(t, ok)

		require.NoError(t, s.Set(ctx, "AAPL", market.DataQuote, json.RawMessage(`{"price":"1"}`), 5*time.Minute))
		got, ok, err := s.Get(ctx, "AAPL", market.DataQuote)
		require.NoError(t, err)
		require.True(t, ok)
		assert.JSONEq(t, `{"price":"1"}`, string(got))

		n, err := s.Clear(ctx, "AAPL", "")
		require.NoError(t, err)
		assert.Equal(t, int64(1), n)
	})

	t.Run("quota", func(t *testing.T) {
		for _, want := range []bool{true, true, false} {
			ok, err := s.TryConsume(ctx)
			require.NoError(t, err)
			assert.Equal(t, want, ok)
		}
		u, err := s.Usage(ctx)
		require.NoError(t, err)
		assert.Equal(t, 2, u.Used)
		assert.Equal(t, 0, u.Remaining)
	})
}
