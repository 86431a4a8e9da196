package upstream

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Rajchodisetti/marketdata-gateway/internal/market"
	"github.com/Rajchodisetti/marketdata-gateway/internal/stubs"
)

func newStubClient(t *testing.T) (*AlphaVantage, *stubs.AlphaVantage) {
	t.Helper()
	stub := stubs.NewAlphaVantage(stubs.DefaultFixtures(), "test-key", zerolog.Nop())
	srv := httptest.NewServer(stub.Router())
	t.Cleanup(srv.Close)

	av, err := NewAlphaVantage(AlphaVantageConfig{
		APIKey:  "test-key",
		BaseURL: srv.URL + "/query",
		Logger:  zerolog.Nop(),
	})
	require.NoError(t, err)
	return av, stub
}

func TestNewAlphaVantageRequiresKey(t *testing.T) {
	_, err := NewAlphaVantage(AlphaVantageConfig{})
	assert.Error(t, err)
}

func TestAlphaVantageQuote(t *testing.T) {
	av, stub := newStubClient(t)

	q, err := av.Quote(context.Background(), "AAPL")
	require.NoError(t, err)
	assert.Equal(t, "AAPL", q.Symbol)
	assert.Equal(t, "189.8400", q.Price)
	assert.Equal(t, "2024-01-02", q.LatestTradingDay)
	assert.Equal(t, 1, stub.Calls(FnGlobalQuote))
}

func TestAlphaVantageQuoteUnknownSymbol(t *testing.T) {
	av, _ := newStubClient(t)

	_, err := av.Quote(context.Background(), "NOPE")
	require.Error(t, err)
	assert.Equal(t, KindBadSymbol, KindOf(err))
}

func TestAlphaVantageInBandErrors(t *testing.T) {
	tests := []struct {
		name   string
		inject func(*stubs.AlphaVantage)
		want   Kind
	}{
		{"note", func(s *stubs.AlphaVantage) { s.InjectNote(1) }, KindRateLimit},
		{"information", func(s *stubs.AlphaVantage) { s.InjectInformation(1, "premium endpoint") }, KindRateLimit},
		{"http 429", func(s *stubs.AlphaVantage) { s.InjectStatus(1, http.StatusTooManyRequests) }, KindRateLimit},
		{"http 500", func(s *stubs.AlphaVantage) { s.InjectStatus(1, http.StatusInternalServerError) }, KindProvider},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			av, stub := newStubClient(t)
			tt.inject(stub)

			_, err := av.Financials(context.Background(), "AAPL", market.StatementIncome)
			require.Error(t, err)
			assert.Equal(t, tt.want, KindOf(err))

			// the next call is unaffected
			f, err := av.Financials(context.Background(), "AAPL", market.StatementIncome)
			require.NoError(t, err)
			assert.Len(t, f.AnnualReports, 5)
		})
	}
}

func TestAlphaVantageErrorMessage(t *testing.T) {
	av, _ := newStubClient(t)

	_, err := av.TimeSeries(context.Background(), "NOPE", market.IntervalDaily, market.OutputCompact)
	require.Error(t, err)
	assert.Equal(t, KindProvider, KindOf(err))
}

func TestAlphaVantageTimeSeriesSortedAscending(t *testing.T) {
	av, _ := newStubClient(t)

	ts, err := av.TimeSeries(context.Background(), "AAPL", market.IntervalDaily, market.OutputCompact)
	require.NoError(t, err)
	require.Len(t, ts.Points, 10)
	assert.Equal(t, "2024-01-03", ts.Points[0].Timestamp)
	assert.Equal(t, "2024-01-12", ts.Points[9].Timestamp)
	for i := 1; i < len(ts.Points); i++ {
		assert.Less(t, ts.Points[i-1].Timestamp, ts.Points[i].Timestamp)
	}
	assert.Equal(t, market.IntervalDaily, ts.Interval)
}

func TestAlphaVantageFinancials(t *testing.T) {
	av, _ := newStubClient(t)
	ctx := context.Background()

	f, err := av.Financials(ctx, "AAPL", market.StatementIncome)
	require.NoError(t, err)
	require.Len(t, f.AnnualReports, 5)
	// passed through in upstream order, newest first
	assert.Equal(t, "2024-09-30", f.AnnualReports[0]["fiscalDateEnding"])
	assert.Equal(t, "2020-09-30", f.AnnualReports[4]["fiscalDateEnding"])
	assert.Equal(t, "None", f.AnnualReports[0]["ebitda"])
	assert.Nil(t, f.AnnualEarnings)

	e, err := av.Financials(ctx, "AAPL", market.StatementEarnings)
	require.NoError(t, err)
	assert.Len(t, e.AnnualEarnings, 5)
	assert.Len(t, e.QuarterlyEarnings, 1)

	_, err = av.Financials(ctx, "NOPE", market.StatementBalance)
	assert.Equal(t, KindBadSymbol, KindOf(err))
}

func TestAlphaVantageOverview(t *testing.T) {
	av, _ := newStubClient(t)

	o, err := av.Overview(context.Background(), "AAPL")
	require.NoError(t, err)
	assert.Equal(t, "Apple Inc", o["Name"])

	_, err = av.Overview(context.Background(), "NOPE")
	assert.Equal(t, KindBadSymbol, KindOf(err))
}

func TestAlphaVantageNews(t *testing.T) {
	av, _ := newStubClient(t)

	articles, err := av.News(context.Background(), NewsRequest{Tickers: []string{"MSFT"}, Limit: 50})
	require.NoError(t, err)
	require.Len(t, articles, 1)

	a := articles[0]
	assert.Equal(t, a.URL, a.ID)
	assert.Equal(t, []string{"Financial Markets"}, a.Topics)
	require.Len(t, a.Tickers, 2)
	assert.InDelta(t, -0.12, a.Tickers[0].SentimentScore, 1e-9)
	assert.InDelta(t, -0.051, a.OverallSentimentScore, 1e-9)
}

func TestAlphaVantageWrongKey(t *testing.T) {
	stub := stubs.NewAlphaVantage(stubs.DefaultFixtures(), "right", zerolog.Nop())
	srv := httptest.NewServer(stub.Router())
	defer srv.Close()

	av, err := NewAlphaVantage(AlphaVantageConfig{APIKey: "wrong", BaseURL: srv.URL + "/query"})
	require.NoError(t, err)

	_, err = av.Quote(context.Background(), "AAPL")
	assert.Equal(t, KindProvider, KindOf(err))
}

func TestAlphaVantageCancelledContext(t *testing.T) {
	av, _ := newStubClient(t)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := av.Quote(ctx, "AAPL")
	require.Error(t, err)
	assert.Equal(t, KindNetwork, KindOf(err))
	assert.ErrorIs(t, err, context.Canceled)
}

func TestProviderHealthDegrades(t *testing.T) {
	ph := NewProviderHealth("test", zerolog.Nop())
	for i := 0; i < 5; i++ {
		ph.RecordError(assert.AnError)
	}
	assert.Equal(t, ProviderStatusFailed, ph.GetStatus())

	ph.RecordSuccess(0)
	// still inside the recovery window
	assert.Equal(t, ProviderStatusFailed, ph.GetStatus())
}
