package upstream

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/shopspring/decimal"

	"github.com/Rajchodisetti/marketdata-gateway/internal/market"
	"github.com/Rajchodisetti/marketdata-gateway/internal/synthetic"
)

// Mock provides deterministic upstream data for testing
type Mock struct {
	mu        sync.Mutex
	quotes    map[string]market.Quote
	gen       *synthetic.Generator
	latency   time.Duration
	failures  []error
	failAll   error
	calls     map[string]int
	lastNews  NewsRequest
	articles  []market.NewsArticle
	seriesLen int
}

// NewMock creates a mock provider with predefined quotes
func NewMock() *Mock {
	return &Mock{
		quotes: map[string]market.Quote{
			"AAPL": mockQuote("AAPL", "206.80", "205.10", "12500000"),
			"MSFT": mockQuote("MSFT", "415.30", "417.95", "9800000"),
			"NVDA": mockQuote("NVDA", "450.00", "441.20", "8200000"),
			"TSLA": mockQuote("TSLA", "248.50", "251.00", "15300000"),
		},
		gen:       synthetic.New(2024),
		calls:     make(map[string]int),
		seriesLen: 30,
		articles: []market.NewsArticle{
			{
				Title:                 "Apple expands services revenue",
				URL:                   "https://news.example.com/apple-services",
				TimePublished:         "20240102T150000",
				Source:                "Example Wire",
				SourceDomain:          "news.example.com",
				Topics:                []string{"Technology", "Earnings"},
				OverallSentimentScore: 0.31,
				OverallSentimentLabel: "Somewhat-Bullish",
				Tickers: []market.TickerSentiment{
					{Ticker: "AAPL", RelevanceScore: 0.9, SentimentScore: 0.35, SentimentLabel: "Bullish"},
				},
			},
			{
				Title:                 "Chipmakers slide on export rules",
				URL:                   "https://news.example.com/chip-exports",
				TimePublished:         "20240102T120000",
				Source:                "Example Wire",
				SourceDomain:          "news.example.com",
				Topics:                []string{"Technology"},
				OverallSentimentScore: -0.22,
				OverallSentimentLabel: "Somewhat-Bearish",
				Tickers: []market.TickerSentiment{
					{Ticker: "NVDA", RelevanceScore: 0.8, SentimentScore: -0.3, SentimentLabel: "Bearish"},
					{Ticker: "AMD", RelevanceScore: 0.5, SentimentScore: -0.1, SentimentLabel: "Neutral"},
				},
			},
		},
	}
}

func mockQuote(symbol, price, prevClose, volume string) market.Quote {
	p := decimal.RequireFromString(price)
	prev := decimal.RequireFromString(prevClose)
	change := p.Sub(prev)
	return market.Quote{
		Symbol:           symbol,
		Open:             prev.StringFixed(2),
		High:             decimal.Max(p, prev).Mul(decimal.RequireFromString("1.005")).StringFixed(2),
		Low:              decimal.Min(p, prev).Mul(decimal.RequireFromString("0.995")).StringFixed(2),
		Price:            p.StringFixed(2),
		Volume:           volume,
		LatestTradingDay: "2024-01-02",
		PreviousClose:    prev.StringFixed(2),
		Change:           change.StringFixed(2),
		ChangePercent:    change.Div(prev).Mul(decimal.NewFromInt(100)).StringFixed(4) + "%",
	}
}

// Name implements Provider
func (m *Mock) Name() string { return "mock" }

// SetLatency allows tests to control simulated latency
func (m *Mock) SetLatency(d time.Duration) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.latency = d
}

// FailNext queues errors returned by the next calls, one per call
func (m *Mock) FailNext(errs ...error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.failures = append(m.failures, errs...)
}

// FailAll makes every call fail with err until cleared with nil
func (m *Mock) FailAll(err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.failAll = err
}

// AddQuote allows tests to add custom quotes
func (m *Mock) AddQuote(q market.Quote) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.quotes[q.Symbol] = q
}

// SetArticles replaces the news feed
func (m *Mock) SetArticles(articles []market.NewsArticle) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.articles = articles
}

// Calls returns how many times fn was called
func (m *Mock) Calls(fn string) int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.calls[fn]
}

// TotalCalls returns the number of calls across all functions
func (m *Mock) TotalCalls() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	n := 0
	for _, c := range m.calls {
		n += c
	}
	return n
}

// LastNewsRequest returns the most recent news request
func (m *Mock) LastNewsRequest() NewsRequest {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.lastNews
}

// begin counts the call and applies latency and injected failures
func (m *Mock) begin(ctx context.Context, fn string) error {
	m.mu.Lock()
	m.calls[fn]++
	latency := m.latency
	var err error
	switch {
	case len(m.failures) > 0:
		err = m.failures[0]
		m.failures = m.failures[1:]
	case m.failAll != nil:
		err = m.failAll
	}
	m.mu.Unlock()

	if latency > 0 {
		t := time.NewTimer(latency)
		defer t.Stop()
		select {
		case <-ctx.Done():
			return NewNetworkError(fn, "", "request cancelled", ctx.Err())
		case <-t.C:
		}
	}
	return err
}

// Quote implements Provider
func (m *Mock) Quote(ctx context.Context, symbol string) (market.Quote, error) {
	if err := m.begin(ctx, FnGlobalQuote); err != nil {
		return market.Quote{}, err
	}
	m.mu.Lock()
	q, ok := m.quotes[symbol]
	m.mu.Unlock()
	if !ok {
		return market.Quote{}, NewBadSymbolError(FnGlobalQuote, symbol, "symbol not found in mock data")
	}
	return q, nil
}

// Overview implements Provider
func (m *Mock) Overview(ctx context.Context, symbol string) (market.Record, error) {
	if err := m.begin(ctx, FnOverview); err != nil {
		return nil, err
	}
	return m.gen.Overview(symbol), nil
}

// TimeSeries returns daily-spaced bars walking up from a fixed base
func (m *Mock) TimeSeries(ctx context.Context, symbol string, iv market.Interval, size market.OutputSize) (market.TimeSeries, error) {
	fn, _ := SeriesFunction(iv)
	if err := m.begin(ctx, fn); err != nil {
		return market.TimeSeries{}, err
	}

	n := m.seriesLen
	if size == market.OutputFull {
		n *= 4
	}
	start := time.Date(2024, 1, 2, 0, 0, 0, 0, time.UTC)
	base := decimal.NewFromInt(100)
	step := decimal.RequireFromString("0.5")

	points := make([]market.TimeSeriesPoint, n)
	for i := range points {
		open := base.Add(step.Mul(decimal.NewFromInt(int64(i))))
		closing := open.Add(step)
		points[i] = market.TimeSeriesPoint{
			Timestamp: start.AddDate(0, 0, i).Format("2006-01-02"),
			Open:      open.StringFixed(2),
			High:      closing.Add(step).StringFixed(2),
			Low:       open.Sub(step).StringFixed(2),
			Close:     closing.StringFixed(2),
			Volume:    fmt.Sprintf("%d", 1000000+i*1000),
		}
	}
	return market.TimeSeries{Symbol: symbol, Interval: iv, OutputSize: size, Points: points}, nil
}

// Financials implements Provider
func (m *Mock) Financials(ctx context.Context, symbol string, st market.Statement) (market.Financials, error) {
	if err := m.begin(ctx, StatementFunction(st)); err != nil {
		return market.Financials{}, err
	}
	return m.gen.Financials(symbol, st), nil
}

// News implements Provider
func (m *Mock) News(ctx context.Context, req NewsRequest) ([]market.NewsArticle, error) {
	if err := m.begin(ctx, FnNewsSentiment); err != nil {
		return nil, err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.lastNews = req
	out := make([]market.NewsArticle, len(m.articles))
	copy(out, m.articles)
	return out, nil
}
