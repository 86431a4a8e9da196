package upstream

import (
	"context"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Rajchodisetti/marketdata-gateway/internal/config"
	"github.com/Rajchodisetti/marketdata-gateway/internal/market"
)

func TestMockFailureInjection(t *testing.T) {
	m := NewMock()
	ctx := context.Background()

	m.FailNext(NewRateLimitError(FnGlobalQuote, "AAPL", "note"))
	_, err := m.Quote(ctx, "AAPL")
	assert.Equal(t, KindRateLimit, KindOf(err))

	q, err := m.Quote(ctx, "AAPL")
	require.NoError(t, err)
	assert.Equal(t, "206.80", q.Price)
	assert.Equal(t, "0.8289%", q.ChangePercent)
	assert.Equal(t, 2, m.Calls(FnGlobalQuote))

	m.FailAll(NewNetworkError(FnOverview, "", "down", nil))
	_, err = m.Overview(ctx, "AAPL")
	assert.Equal(t, KindNetwork, KindOf(err))
	m.FailAll(nil)
	_, err = m.Overview(ctx, "AAPL")
	assert.NoError(t, err)
	assert.Equal(t, 4, m.TotalCalls())
}

func TestMockSeriesAndFinancials(t *testing.T) {
	m := NewMock()
	ctx := context.Background()

	ts, err := m.TimeSeries(ctx, "AAPL", market.IntervalWeekly, market.OutputFull)
	require.NoError(t, err)
	assert.Len(t, ts.Points, 120)
	assert.Equal(t, 1, m.Calls(FnWeekly))

	f, err := m.Financials(ctx, "AAPL", market.StatementEarnings)
	require.NoError(t, err)
	assert.NotEmpty(t, f.AnnualEarnings)

	_, err = m.Quote(ctx, "UNKNOWN")
	assert.Equal(t, KindBadSymbol, KindOf(err))
}

func TestFactory(t *testing.T) {
	t.Setenv("QUOTES", "")

	p, err := New(config.Upstream{Provider: "mock"}, zerolog.Nop())
	require.NoError(t, err)
	assert.Equal(t, "mock", p.Name())

	_, err = New(config.Upstream{Provider: "alphavantage", APIKeyEnv: "ALPHA_VANTAGE_API_KEY"}, zerolog.Nop())
	assert.Error(t, err, "missing key must not fall back to mock")

	p, err = New(config.Upstream{Provider: "alphavantage", APIKey: "k"}, zerolog.Nop())
	require.NoError(t, err)
	assert.Equal(t, "alphavantage", p.Name())

	_, err = New(config.Upstream{Provider: "polygon"}, zerolog.Nop())
	assert.Error(t, err)

	t.Setenv("QUOTES", "mock")
	p, err = New(config.Upstream{Provider: "alphavantage"}, zerolog.Nop())
	require.NoError(t, err)
	assert.Equal(t, "mock", p.Name())
}
