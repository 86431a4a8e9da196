package upstream

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/Rajchodisetti/marketdata-gateway/internal/market"
	"github.com/Rajchodisetti/marketdata-gateway/internal/observ"
)

const (
	defaultBaseURL = "https://www.alphavantage.co/query"
	maxBodyBytes   = 16 << 20
	newsSort       = "LATEST"
)

// AlphaVantageConfig holds configuration for the Alpha Vantage client
type AlphaVantageConfig struct {
	APIKey         string
	BaseURL        string
	TimeoutSeconds int
	HTTPClient     *http.Client
	Logger         zerolog.Logger
}

// AlphaVantage implements Provider over the Alpha Vantage query API
type AlphaVantage struct {
	apiKey     string
	baseURL    string
	httpClient *http.Client
	health     *ProviderHealth
	log        zerolog.Logger
}

// NewAlphaVantage creates a new Alpha Vantage client
func NewAlphaVantage(config AlphaVantageConfig) (*AlphaVantage, error) {
	if config.APIKey == "" {
		return nil, fmt.Errorf("alpha vantage API key is required")
	}

	// Set defaults
	if config.BaseURL == "" {
		config.BaseURL = defaultBaseURL
	}
	if config.TimeoutSeconds <= 0 {
		config.TimeoutSeconds = 10
	}
	client := config.HTTPClient
	if client == nil {
		client = &http.Client{Timeout: time.Duration(config.TimeoutSeconds) * time.Second}
	}

	log := config.Logger.With().Str("component", "alphavantage").Logger()
	return &AlphaVantage{
		apiKey:     config.APIKey,
		baseURL:    config.BaseURL,
		httpClient: client,
		health:     NewProviderHealth("alphavantage", log),
		log:        log,
	}, nil
}

// Name implements Provider
func (av *AlphaVantage) Name() string { return "alphavantage" }

// Health exposes the provider health monitor
func (av *AlphaVantage) Health() *ProviderHealth { return av.health }

// Quote fetches GLOBAL_QUOTE for symbol
func (av *AlphaVantage) Quote(ctx context.Context, symbol string) (market.Quote, error) {
	body, err := av.query(ctx, FnGlobalQuote, symbol, url.Values{"symbol": {symbol}})
	if err != nil {
		return market.Quote{}, err
	}

	var raw map[string]string
	if err := decodeField(body, "Global Quote", &raw); err != nil {
		return market.Quote{}, av.fail(NewDecodeError(FnGlobalQuote, symbol, err))
	}
	if len(raw) == 0 {
		return market.Quote{}, av.fail(NewBadSymbolError(FnGlobalQuote, symbol, "no quote data returned"))
	}

	// Alpha Vantage uses numbered keys
	q := market.Quote{
		Symbol:           raw["01. symbol"],
		Open:             raw["02. open"],
		High:             raw["03. high"],
		Low:              raw["04. low"],
		Price:            raw["05. price"],
		Volume:           raw["06. volume"],
		LatestTradingDay: raw["07. latest trading day"],
		PreviousClose:    raw["08. previous close"],
		Change:           raw["09. change"],
		ChangePercent:    raw["10. change percent"],
	}
	if q.Symbol == "" {
		q.Symbol = symbol
	}
	return q, nil
}

// Overview fetches the company profile
func (av *AlphaVantage) Overview(ctx context.Context, symbol string) (market.Record, error) {
	body, err := av.query(ctx, FnOverview, symbol, url.Values{"symbol": {symbol}})
	if err != nil {
		return nil, err
	}

	var rec market.Record
	if err := json.Unmarshal(rawObject(body), &rec); err != nil {
		return nil, av.fail(NewDecodeError(FnOverview, symbol, err))
	}
	if s, _ := rec["Symbol"].(string); s == "" {
		return nil, av.fail(NewBadSymbolError(FnOverview, symbol, "no overview data returned"))
	}
	return rec, nil
}

// TimeSeries fetches a price series, ordered oldest-first
func (av *AlphaVantage) TimeSeries(ctx context.Context, symbol string, iv market.Interval, size market.OutputSize) (market.TimeSeries, error) {
	fn, key := SeriesFunction(iv)
	params := url.Values{"symbol": {symbol}, "outputsize": {string(size)}}
	if iv == market.IntervalIntraday {
		params.Set("interval", IntradayInterval)
	}

	body, err := av.query(ctx, fn, symbol, params)
	if err != nil {
		return market.TimeSeries{}, err
	}

	var bars map[string]map[string]string
	if err := decodeField(body, key, &bars); err != nil {
		return market.TimeSeries{}, av.fail(NewDecodeError(fn, symbol, err))
	}
	if len(bars) == 0 {
		return market.TimeSeries{}, av.fail(NewBadSymbolError(fn, symbol, "no series data returned"))
	}

	stamps := make([]string, 0, len(bars))
	for ts := range bars {
		stamps = append(stamps, ts)
	}
	sort.Strings(stamps)

	points := make([]market.TimeSeriesPoint, 0, len(stamps))
	for _, ts := range stamps {
		b := bars[ts]
		points = append(points, market.TimeSeriesPoint{
			Timestamp: ts,
			Open:      b["1. open"],
			High:      b["2. high"],
			Low:       b["3. low"],
			Close:     b["4. close"],
			Volume:    b["5. volume"],
		})
	}
	return market.TimeSeries{Symbol: symbol, Interval: iv, OutputSize: size, Points: points}, nil
}

// Financials fetches one statement family
func (av *AlphaVantage) Financials(ctx context.Context, symbol string, st market.Statement) (market.Financials, error) {
	fn := StatementFunction(st)
	body, err := av.query(ctx, fn, symbol, url.Values{"symbol": {symbol}})
	if err != nil {
		return market.Financials{}, err
	}

	var raw struct {
		AnnualReports     []market.Record `json:"annualReports"`
		QuarterlyReports  []market.Record `json:"quarterlyReports"`
		AnnualEarnings    []market.Record `json:"annualEarnings"`
		QuarterlyEarnings []market.Record `json:"quarterlyEarnings"`
	}
	if err := json.Unmarshal(rawObject(body), &raw); err != nil {
		return market.Financials{}, av.fail(NewDecodeError(fn, symbol, err))
	}

	f := market.Financials{Symbol: symbol, Statement: st}
	if st == market.StatementEarnings {
		if raw.AnnualEarnings == nil && raw.QuarterlyEarnings == nil {
			return market.Financials{}, av.fail(NewBadSymbolError(fn, symbol, "no earnings data returned"))
		}
		f.AnnualEarnings = raw.AnnualEarnings
		f.QuarterlyEarnings = raw.QuarterlyEarnings
		return f, nil
	}

	if raw.AnnualReports == nil && raw.QuarterlyReports == nil {
		return market.Financials{}, av.fail(NewBadSymbolError(fn, symbol, "no statement data returned"))
	}
	f.AnnualReports = raw.AnnualReports
	f.QuarterlyReports = raw.QuarterlyReports
	return f, nil
}

type newsItem struct {
	Title                 string   `json:"title"`
	URL                   string   `json:"url"`
	TimePublished         string   `json:"time_published"`
	Authors               []string `json:"authors"`
	Summary               string   `json:"summary"`
	BannerImage           string   `json:"banner_image"`
	Source                string   `json:"source"`
	SourceDomain          string   `json:"source_domain"`
	OverallSentimentScore any      `json:"overall_sentiment_score"`
	OverallSentimentLabel string   `json:"overall_sentiment_label"`
	Topics                []struct {
		Topic string `json:"topic"`
	} `json:"topics"`
	TickerSentiment []struct {
		Ticker         string `json:"ticker"`
		RelevanceScore any    `json:"relevance_score"`
		SentimentScore any    `json:"ticker_sentiment_score"`
		SentimentLabel string `json:"ticker_sentiment_label"`
	} `json:"ticker_sentiment"`
}

// News fetches the latest news and sentiment feed
func (av *AlphaVantage) News(ctx context.Context, req NewsRequest) ([]market.NewsArticle, error) {
	params := url.Values{"sort": {newsSort}}
	if req.Limit > 0 {
		params.Set("limit", strconv.Itoa(req.Limit))
	}
	if len(req.Tickers) > 0 {
		params.Set("tickers", strings.Join(req.Tickers, ","))
	}
	if len(req.Topics) > 0 {
		params.Set("topics", strings.Join(req.Topics, ","))
	}
	label := strings.Join(req.Tickers, ",")

	body, err := av.query(ctx, FnNewsSentiment, label, params)
	if err != nil {
		return nil, err
	}

	var feed []newsItem
	if err := decodeField(body, "feed", &feed); err != nil {
		return nil, av.fail(NewDecodeError(FnNewsSentiment, label, err))
	}

	articles := make([]market.NewsArticle, 0, len(feed))
	for _, it := range feed {
		a := market.NewsArticle{
			ID:                    it.URL,
			Title:                 it.Title,
			URL:                   it.URL,
			TimePublished:         it.TimePublished,
			Authors:               it.Authors,
			Summary:               it.Summary,
			BannerImage:           it.BannerImage,
			Source:                it.Source,
			SourceDomain:          it.SourceDomain,
			OverallSentimentScore: score(it.OverallSentimentScore),
			OverallSentimentLabel: it.OverallSentimentLabel,
		}
		for _, t := range it.Topics {
			a.Topics = append(a.Topics, t.Topic)
		}
		for _, ts := range it.TickerSentiment {
			a.Tickers = append(a.Tickers, market.TickerSentiment{
				Ticker:         ts.Ticker,
				RelevanceScore: score(ts.RelevanceScore),
				SentimentScore: score(ts.SentimentScore),
				SentimentLabel: ts.SentimentLabel,
			})
		}
		articles = append(articles, a)
	}
	return articles, nil
}

// query performs exactly one request and returns the top-level JSON object.
// HTTP 200 responses carrying Note, Information or Error Message are failures.
func (av *AlphaVantage) query(ctx context.Context, fn, symbol string, params url.Values) (map[string]json.RawMessage, error) {
	params.Set("function", fn)
	params.Set("apikey", av.apiKey)
	requestURL := av.baseURL + "?" + params.Encode()

	observ.IncCounter("gateway_upstream_call_total", map[string]string{"function": fn})
	start := time.Now()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, requestURL, nil)
	if err != nil {
		return nil, av.fail(NewNetworkError(fn, symbol, "failed to create request", err))
	}

	resp, err := av.httpClient.Do(req)
	if err != nil {
		return nil, av.fail(NewNetworkError(fn, symbol, "request failed", err))
	}
	defer resp.Body.Close()

	// Check for rate limiting
	if resp.StatusCode == http.StatusTooManyRequests {
		return nil, av.fail(NewRateLimitError(fn, symbol, "API rate limit exceeded"))
	}

	// Check for other HTTP errors
	if resp.StatusCode != http.StatusOK {
		snippet, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return nil, av.fail(NewProviderError(fn, symbol, fmt.Sprintf("HTTP %d: %s", resp.StatusCode, strings.TrimSpace(string(snippet))), nil))
	}

	raw, err := io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes))
	if err != nil {
		return nil, av.fail(NewNetworkError(fn, symbol, "failed to read response", err))
	}

	var body map[string]json.RawMessage
	if err := json.Unmarshal(raw, &body); err != nil {
		return nil, av.fail(NewDecodeError(fn, symbol, err))
	}

	// Check for API errors
	if msg := stringField(body, "Error Message"); msg != "" {
		return nil, av.fail(NewProviderError(fn, symbol, msg, nil))
	}
	if msg := stringField(body, "Note"); msg != "" {
		return nil, av.fail(NewRateLimitError(fn, symbol, msg))
	}
	if msg := stringField(body, "Information"); msg != "" {
		// Usually rate limit or API call frequency message
		return nil, av.fail(NewRateLimitError(fn, symbol, msg))
	}

	latency := time.Since(start)
	av.health.RecordSuccess(latency)
	av.log.Debug().
		Str("function", fn).
		Str("symbol", symbol).
		Dur("latency", latency).
		Msg("Upstream call succeeded")
	return body, nil
}

// fail records a failed attempt and returns err unchanged
func (av *AlphaVantage) fail(err *Error) error {
	observ.IncCounter("gateway_upstream_failure_total", map[string]string{
		"function": err.Function,
		"kind":     string(err.Kind),
	})
	observ.IncCounter("upstream_errors_by_kind", map[string]string{"kind": string(err.Kind)})
	av.health.RecordError(err)
	av.log.Warn().
		Str("function", err.Function).
		Str("symbol", err.Symbol).
		Str("kind", string(err.Kind)).
		Msg(err.Message)
	return err
}

func stringField(body map[string]json.RawMessage, key string) string {
	raw, ok := body[key]
	if !ok {
		return ""
	}
	var s string
	if err := json.Unmarshal(raw, &s); err != nil {
		return string(raw)
	}
	return strings.TrimSpace(s)
}

func decodeField(body map[string]json.RawMessage, key string, dst any) error {
	raw, ok := body[key]
	if !ok {
		return nil
	}
	return json.Unmarshal(raw, dst)
}

func rawObject(body map[string]json.RawMessage) []byte {
	b, _ := json.Marshal(body)
	return b
}

// score accepts the provider's mix of string and number scores
func score(v any) float64 {
	switch t := v.(type) {
	case float64:
		return t
	case string:
		f, err := strconv.ParseFloat(strings.TrimSpace(t), 64)
		if err != nil {
			return 0
		}
		return f
	}
	return 0
}
