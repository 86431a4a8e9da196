package gateway

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Rajchodisetti/marketdata-gateway/internal/market"
	"github.com/Rajchodisetti/marketdata-gateway/internal/upstream"
)

func article(id, published string, score float64, tickers ...string) market.NewsArticle {
	a := market.NewsArticle{
		ID:                    id,
		Title:                 "Story " + id,
		URL:                   "https://news.example.com/" + id,
		TimePublished:         published,
		OverallSentimentScore: score,
	}
	for _, t := range tickers {
		a.Tickers = append(a.Tickers, market.TickerSentiment{Ticker: t})
	}
	return a
}

func newsHarness(t *testing.T, articles ...market.NewsArticle) (*harness, *upstream.Mock) {
	t.Helper()
	mock := upstream.NewMock()
	mock.SetArticles(articles)
	return newHarness(mock, 25, testOptions()), mock
}

func TestNewsFromStubFeed(t *testing.T) {
	h := newStubHarness(t, 25, testOptions())

	res, err := h.gw.GetNews(context.Background(), market.DefaultNewsFilters())
	require.NoError(t, err)
	assert.Equal(t, SourceUpstream, res.Source)
	require.Len(t, res.Data.Articles, 2)
	assert.Equal(t, 2, res.Data.Total)
	assert.Equal(t, "20240102T143000", res.Data.Articles[0].TimePublished)
	assert.Equal(t, []market.TickerCount{{Ticker: "AAPL", Count: 2}, {Ticker: "MSFT", Count: 1}}, res.Data.Trending)
}

func TestNewsFeedCachedAcrossFilters(t *testing.T) {
	h, mock := newsHarness(t,
		article("a", "20240102T150000", 0.4, "AAPL"),
		article("b", "20240102T120000", -0.3, "NVDA"),
	)
	ctx := context.Background()

	_, err := h.gw.GetNews(ctx, market.DefaultNewsFilters())
	require.NoError(t, err)

	f := market.DefaultNewsFilters()
	f.SentimentMin = 0
	res, err := h.gw.GetNews(ctx, f)
	require.NoError(t, err)
	assert.Equal(t, SourceCache, res.Source)
	require.Len(t, res.Data.Articles, 1)
	assert.Equal(t, "a", res.Data.Articles[0].ID)
	assert.Equal(t, 1, mock.Calls(upstream.FnNewsSentiment))
}

func TestNewsSelectionIsPartOfKey(t *testing.T) {
	h, mock := newsHarness(t, article("a", "20240102T150000", 0.1, "AAPL"))
	ctx := context.Background()

	f := market.DefaultNewsFilters()
	f.Tickers = []string{"msft", "aapl", "AAPL"}
	f.Topics = []string{" Technology "}
	_, err := h.gw.GetNews(ctx, f)
	require.NoError(t, err)

	req := mock.LastNewsRequest()
	assert.Equal(t, []string{"AAPL", "MSFT"}, req.Tickers)
	assert.Equal(t, []string{"technology"}, req.Topics)
	assert.Equal(t, 200, req.Limit)

	_, ok, err := h.store.Get(ctx, "FEED:AAPL,MSFT|technology", market.DataNews)
	require.NoError(t, err)
	assert.True(t, ok)

	_, err = h.gw.GetNews(ctx, market.DefaultNewsFilters())
	require.NoError(t, err)
	assert.Equal(t, 2, mock.Calls(upstream.FnNewsSentiment))
}

func TestNewsRecencyWindow(t *testing.T) {
	h, _ := newsHarness(t,
		article("fresh", "20240102T150000", 0, "AAPL"),
		article("old", "20231220T090000", 0, "AAPL"),
		article("undated", "yesterday-ish", 0, "AAPL"),
		article("short", "20240102T1330", 0, "AAPL"),
	)

	f := market.DefaultNewsFilters()
	f.HoursAgo = 24
	res, err := h.gw.GetNews(context.Background(), f)
	require.NoError(t, err)

	var ids []string
	for _, a := range res.Data.Articles {
		ids = append(ids, a.ID)
	}
	assert.ElementsMatch(t, []string{"fresh", "short", "undated"}, ids)

	f.HoursAgo = 0
	res, err = h.gw.GetNews(context.Background(), f)
	require.NoError(t, err)
	assert.Equal(t, 4, res.Data.Total)
}

func TestNewsPaging(t *testing.T) {
	var articles []market.NewsArticle
	for i := 0; i < 7; i++ {
		articles = append(articles, article(fmt.Sprintf("n%d", i), fmt.Sprintf("20240102T0%d0000", i+1), 0, "AAPL"))
	}
	h, _ := newsHarness(t, articles...)
	ctx := context.Background()

	f := market.DefaultNewsFilters()
	f.Limit = 3
	f.Offset = 2
	res, err := h.gw.GetNews(ctx, f)
	require.NoError(t, err)
	assert.Equal(t, 7, res.Data.Total)
	require.Len(t, res.Data.Articles, 3)
	assert.Equal(t, "n4", res.Data.Articles[0].ID)
	assert.Equal(t, "n2", res.Data.Articles[2].ID)

	f.Offset = 10
	res, err = h.gw.GetNews(ctx, f)
	require.NoError(t, err)
	assert.NotNil(t, res.Data.Articles)
	assert.Empty(t, res.Data.Articles)
	assert.Equal(t, 7, res.Data.Total)
}

func TestNewsTrendingTopTen(t *testing.T) {
	var articles []market.NewsArticle
	tickers := []string{"A", "B", "C", "D", "E", "F", "G", "H", "I", "J", "K", "L"}
	for i, tk := range tickers {
		articles = append(articles, article(tk, "20240102T120000", 0, tk, "ZZ"))
		if i < 3 {
			articles = append(articles, article(tk+"2", "20240102T110000", 0, tk))
		}
	}
	h, _ := newsHarness(t, articles...)

	res, err := h.gw.GetNews(context.Background(), market.DefaultNewsFilters())
	require.NoError(t, err)
	require.Len(t, res.Data.Trending, 10)
	assert.Equal(t, market.TickerCount{Ticker: "ZZ", Count: 12}, res.Data.Trending[0])
	assert.Equal(t, market.TickerCount{Ticker: "A", Count: 2}, res.Data.Trending[1])
	assert.Equal(t, market.TickerCount{Ticker: "D", Count: 1}, res.Data.Trending[4])
}

func TestNewsFallbackIsEmpty(t *testing.T) {
	h, mock := newsHarness(t)
	mock.FailAll(upstream.NewRateLimitError(upstream.FnNewsSentiment, "", "slow down"))

	res, err := h.gw.GetNews(context.Background(), market.DefaultNewsFilters())
	require.NoError(t, err)
	assert.Equal(t, SourceNone, res.Source)
	assert.True(t, res.Fallback)
	assert.Zero(t, res.Data.Total)
	assert.NotNil(t, res.Data.Articles)
	assert.Empty(t, res.Data.Trending)
}

func TestNewsFilterValidation(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*market.NewsFilters)
	}{
		{"limit too large", func(f *market.NewsFilters) { f.Limit = 1001 }},
		{"negative limit", func(f *market.NewsFilters) { f.Limit = -1 }},
		{"negative offset", func(f *market.NewsFilters) { f.Offset = -5 }},
		{"min below range", func(f *market.NewsFilters) { f.SentimentMin = -1.5 }},
		{"max above range", func(f *market.NewsFilters) { f.SentimentMax = 2 }},
		{"min above max", func(f *market.NewsFilters) { f.SentimentMin, f.SentimentMax = 0.5, 0.1 }},
		{"negative hours", func(f *market.NewsFilters) { f.HoursAgo = -1 }},
	}
	h, mock := newsHarness(t)
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := market.DefaultNewsFilters()
			tt.mutate(&f)
			_, err := h.gw.GetNews(context.Background(), f)
			assert.ErrorIs(t, err, ErrInvalidInput)
		})
	}
	assert.Zero(t, mock.TotalCalls())
}

func TestNewsZeroLimitUsesDefault(t *testing.T) {
	f := market.DefaultNewsFilters()
	f.Limit = 0
	require.NoError(t, validateNewsFilters(&f))
	assert.Equal(t, 50, f.Limit)
}

func TestPublishedAtLayouts(t *testing.T) {
	ts, ok := publishedAt("20240102T143000")
	require.True(t, ok)
	assert.Equal(t, time.Date(2024, 1, 2, 14, 30, 0, 0, time.UTC), ts)

	_, ok = publishedAt("20240102T1430")
	assert.True(t, ok)

	_, ok = publishedAt("2024-01-02")
	assert.False(t, ok)
}
