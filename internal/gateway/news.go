package gateway

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/Rajchodisetti/marketdata-gateway/internal/cache"
	"github.com/Rajchodisetti/marketdata-gateway/internal/market"
	"github.com/Rajchodisetti/marketdata-gateway/internal/normalize"
	"github.com/Rajchodisetti/marketdata-gateway/internal/upstream"
)

const (
	publishedLayout      = "20060102T150405"
	publishedLayoutShort = "20060102T1504"
	maxNewsPage          = 1000
	trendingSize         = 10
)

// GetNews returns a filtered page of the news feed. The feed for a
// ticker/topic selection is cached as a whole; the recency window, the
// sentiment range and paging are applied per request on top of it. Callers
// start from market.DefaultNewsFilters.
func (g *Gateway) GetNews(ctx context.Context, f market.NewsFilters) (Result[market.NewsFeed], error) {
	if err := validateNewsFilters(&f); err != nil {
		return Result[market.NewsFeed]{}, invalid(err)
	}

	tickers := market.NormalizeSymbols(f.Tickers)
	sort.Strings(tickers)
	topics := normalizeTopics(f.Topics)

	res := fetch(ctx, g, request[[]market.NewsArticle]{
		key: feedKey(tickers, topics),
		dt:  market.DataNews,
		ttl: cache.TTLFor(market.DataNews, g.opts.NewsTTL),
		call: func(ctx context.Context) ([]market.NewsArticle, error) {
			return g.provider.News(ctx, upstream.NewsRequest{
				Tickers: tickers,
				Topics:  topics,
				Limit:   g.opts.NewsFetchLimit,
			})
		},
		normalize: normalize.News,
		fallback: func() ([]market.NewsArticle, Source) {
			return []market.NewsArticle{}, SourceNone
		},
	})

	return Result[market.NewsFeed]{
		Data:      filterFeed(res.Data, f, g.now()),
		FromCache: res.FromCache,
		Fallback:  res.Fallback,
		Source:    res.Source,
		Timestamp: res.Timestamp,
	}, nil
}

func validateNewsFilters(f *market.NewsFilters) error {
	if f.Limit == 0 {
		f.Limit = market.DefaultNewsFilters().Limit
	}
	if f.Limit < 0 || f.Limit > maxNewsPage {
		return fmt.Errorf("limit must be between 1 and %d", maxNewsPage)
	}
	if f.Offset < 0 {
		return fmt.Errorf("offset must not be negative")
	}
	if f.SentimentMin < -1 || f.SentimentMax > 1 || f.SentimentMin > f.SentimentMax {
		return fmt.Errorf("sentiment range must satisfy -1 <= min <= max <= 1")
	}
	if f.HoursAgo < 0 {
		return fmt.Errorf("hours_ago must not be negative")
	}
	return nil
}

func normalizeTopics(topics []string) []string {
	seen := make(map[string]bool, len(topics))
	out := make([]string, 0, len(topics))
	for _, t := range topics {
		t = strings.ToLower(strings.TrimSpace(t))
		if t == "" || seen[t] {
			continue
		}
		seen[t] = true
		out = append(out, t)
	}
	sort.Strings(out)
	return out
}

// feedKey names the cached feed of a selection.
func feedKey(tickers, topics []string) string {
	if len(tickers) == 0 && len(topics) == 0 {
		return "FEED"
	}
	return "FEED:" + strings.Join(tickers, ",") + "|" + strings.Join(topics, ",")
}

func publishedAt(s string) (time.Time, bool) {
	for _, layout := range []string{publishedLayout, publishedLayoutShort} {
		if t, err := time.Parse(layout, s); err == nil {
			return t, true
		}
	}
	return time.Time{}, false
}

// filterFeed applies the per-request filters, newest first. Articles with an
// unreadable timestamp are kept.
func filterFeed(articles []market.NewsArticle, f market.NewsFilters, now time.Time) market.NewsFeed {
	var cutoff time.Time
	if f.HoursAgo > 0 {
		cutoff = now.Add(-time.Duration(f.HoursAgo) * time.Hour)
	}

	kept := make([]market.NewsArticle, 0, len(articles))
	for _, a := range articles {
		if a.OverallSentimentScore < f.SentimentMin || a.OverallSentimentScore > f.SentimentMax {
			continue
		}
		if !cutoff.IsZero() {
			if t, ok := publishedAt(a.TimePublished); ok && t.Before(cutoff) {
				continue
			}
		}
		kept = append(kept, a)
	}
	sort.SliceStable(kept, func(i, j int) bool {
		return kept[i].TimePublished > kept[j].TimePublished
	})

	feed := market.NewsFeed{
		Total:    len(kept),
		Trending: trending(kept),
		Articles: []market.NewsArticle{},
	}
	if f.Offset < len(kept) {
		end := f.Offset + f.Limit
		if end > len(kept) {
			end = len(kept)
		}
		feed.Articles = kept[f.Offset:end]
	}
	return feed
}

// trending counts articles per mentioned ticker.
func trending(articles []market.NewsArticle) []market.TickerCount {
	counts := make(map[string]int)
	for _, a := range articles {
		for _, t := range a.Tickers {
			counts[t.Ticker]++
		}
	}

	out := make([]market.TickerCount, 0, len(counts))
	for ticker, n := range counts {
		out = append(out, market.TickerCount{Ticker: ticker, Count: n})
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Count != out[j].Count {
			return out[i].Count > out[j].Count
		}
		return out[i].Ticker < out[j].Ticker
	})
	if len(out) > trendingSize {
		out = out[:trendingSize]
	}
	return out
}
