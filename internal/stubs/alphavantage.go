// Package stubs serves a local stand-in for the Alpha Vantage query API.
// Responses are shaped like the real provider, including the in-band Note
// and Error Message bodies it returns with HTTP 200.
package stubs

import (
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"sync"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog"
)

// RateLimitNote is the body the provider returns when the per-minute limit
// is hit.
const RateLimitNote = "Thank you for using Alpha Vantage! Our standard API call frequency is 5 calls per minute and 25 calls per day."

const sentimentDefinition = "x <= -0.35: Bearish; -0.35 < x <= -0.15: Somewhat-Bearish; -0.15 < x < 0.15: Neutral; 0.15 <= x < 0.35: Somewhat_Bullish; x >= 0.35: Bullish"

// AlphaVantage is an http.Handler answering /query like the provider
type AlphaVantage struct {
	mu       sync.Mutex
	fixtures Fixtures
	apiKey   string
	calls    map[string]int
	injected []injected
	log      zerolog.Logger
}

type injected struct {
	status int
	body   map[string]any
}

// NewAlphaVantage creates a stub serving the given fixtures. An empty
// apiKey accepts any key.
func NewAlphaVantage(fixtures Fixtures, apiKey string, log zerolog.Logger) *AlphaVantage {
	return &AlphaVantage{
		fixtures: fixtures,
		apiKey:   apiKey,
		calls:    make(map[string]int),
		log:      log.With().Str("component", "av_stub").Logger(),
	}
}

// Router mounts the stub at /query with a /health check
func (s *AlphaVantage) Router() http.Handler {
	r := chi.NewRouter()
	r.Get("/health", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})
	r.Get("/query", s.ServeHTTP)
	return r
}

// InjectNote makes the next n calls answer with the rate limit Note
func (s *AlphaVantage) InjectNote(n int) {
	s.inject(n, http.StatusOK, map[string]any{"Note": RateLimitNote})
}

// InjectInformation makes the next n calls answer with an Information body
func (s *AlphaVantage) InjectInformation(n int, msg string) {
	s.inject(n, http.StatusOK, map[string]any{"Information": msg})
}

// InjectStatus makes the next n calls answer with the given HTTP status
func (s *AlphaVantage) InjectStatus(n, status int) {
	s.inject(n, status, map[string]any{"message": http.StatusText(status)})
}

func (s *AlphaVantage) inject(n, status int, body map[string]any) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i := 0; i < n; i++ {
		s.injected = append(s.injected, injected{status: status, body: body})
	}
}

// Calls returns the number of requests served for function fn, or all
// requests when fn is empty
func (s *AlphaVantage) Calls(fn string) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	if fn != "" {
		return s.calls[fn]
	}
	n := 0
	for _, c := range s.calls {
		n += c
	}
	return n
}

// ServeHTTP answers a query request
func (s *AlphaVantage) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	fn := q.Get("function")
	symbol := strings.ToUpper(q.Get("symbol"))

	s.mu.Lock()
	s.calls[fn]++
	var inj *injected
	if len(s.injected) > 0 {
		inj = &s.injected[0]
		s.injected = s.injected[1:]
	}
	s.mu.Unlock()

	s.log.Debug().Str("function", fn).Str("symbol", symbol).Msg("Stub query")

	if inj != nil {
		writeJSON(w, inj.status, inj.body)
		return
	}
	if s.apiKey != "" && q.Get("apikey") != s.apiKey {
		writeJSON(w, http.StatusOK, map[string]any{
			"Error Message": "the parameter apikey is invalid or missing.",
		})
		return
	}

	body, ok := s.respond(fn, symbol, q.Get("interval"), q.Get("tickers"))
	if !ok {
		writeJSON(w, http.StatusOK, map[string]any{
			"Error Message": fmt.Sprintf("Invalid API call. Please retry or visit the documentation for %s.", fn),
		})
		return
	}
	writeJSON(w, http.StatusOK, body)
}

// respond builds the provider-shaped body for one function
func (s *AlphaVantage) respond(fn, symbol, interval, tickers string) (any, bool) {
	f := s.fixtures
	switch fn {
	case "GLOBAL_QUOTE":
		q, ok := f.Quotes[symbol]
		if !ok {
			return map[string]any{"Global Quote": map[string]string{}}, true
		}
		return map[string]any{"Global Quote": q}, true

	case "OVERVIEW":
		o, ok := f.Overviews[symbol]
		if !ok {
			return map[string]any{}, true
		}
		return o, true

	case "TIME_SERIES_INTRADAY", "TIME_SERIES_DAILY", "TIME_SERIES_WEEKLY", "TIME_SERIES_MONTHLY":
		bars, ok := f.Series[symbol]
		if !ok {
			return nil, false
		}
		body := map[string]any{"Meta Data": map[string]string{"2. Symbol": symbol}}
		body[seriesKey(fn, interval)] = bars
		return body, true

	case "INCOME_STATEMENT", "BALANCE_SHEET", "CASH_FLOW":
		st, ok := f.Statements[symbol][fn]
		if !ok {
			return map[string]any{}, true
		}
		return map[string]any{
			"symbol":           symbol,
			"annualReports":    st.Annual,
			"quarterlyReports": st.Quarterly,
		}, true

	case "EARNINGS":
		st, ok := f.Statements[symbol][fn]
		if !ok {
			return map[string]any{}, true
		}
		return map[string]any{
			"symbol":            symbol,
			"annualEarnings":    st.Annual,
			"quarterlyEarnings": st.Quarterly,
		}, true

	case "NEWS_SENTIMENT":
		feed := f.News
		if tickers != "" {
			feed = filterFeed(feed, strings.Split(strings.ToUpper(tickers), ","))
		}
		return map[string]any{
			"items":                      fmt.Sprintf("%d", len(feed)),
			"sentiment_score_definition": sentimentDefinition,
			"feed":                       feed,
		}, true
	}
	return nil, false
}

func seriesKey(fn, interval string) string {
	switch fn {
	case "TIME_SERIES_INTRADAY":
		if interval == "" {
			interval = "5min"
		}
		return "Time Series (" + interval + ")"
	case "TIME_SERIES_WEEKLY":
		return "Weekly Time Series"
	case "TIME_SERIES_MONTHLY":
		return "Monthly Time Series"
	default:
		return "Time Series (Daily)"
	}
}

func filterFeed(feed []NewsItem, tickers []string) []NewsItem {
	want := make(map[string]bool, len(tickers))
	for _, t := range tickers {
		want[strings.TrimSpace(t)] = true
	}
	out := make([]NewsItem, 0, len(feed))
	for _, item := range feed {
		for _, ts := range item.TickerSentiment {
			if want[ts.Ticker] {
				out = append(out, item)
				break
			}
		}
	}
	return out
}

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}
