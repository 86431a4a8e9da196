package market

// Record is a loosely typed upstream report: field name to value. Values are
// strings once normalized; nested objects stay as maps.
type Record map[string]any

// Quote mirrors the upstream GLOBAL_QUOTE fields. Values stay strings as the
// provider sends them.
type Quote struct {
	Symbol           string `json:"symbol"`
	Open             string `json:"open"`
	High             string `json:"high"`
	Low              string `json:"low"`
	Price            string `json:"price"`
	Volume           string `json:"volume"`
	LatestTradingDay string `json:"latestTradingDay"`
	PreviousClose    string `json:"previousClose"`
	Change           string `json:"change"`
	ChangePercent    string `json:"changePercent"`
}

// TimeSeriesPoint is one bar. Series are ordered oldest-first.
type TimeSeriesPoint struct {
	Timestamp string `json:"timestamp"`
	Open      string `json:"open"`
	High      string `json:"high"`
	Low       string `json:"low"`
	Close     string `json:"close"`
	Volume    string `json:"volume"`
}

// TimeSeries is the cached form of a series request.
type TimeSeries struct {
	Symbol     string            `json:"symbol"`
	Interval   Interval          `json:"interval"`
	OutputSize OutputSize        `json:"outputSize"`
	Points     []TimeSeriesPoint `json:"points"`
}

// Financials holds one statement family. Earnings use the *Earnings slices,
// the other statements use the *Reports slices.
type Financials struct {
	Symbol            string    `json:"symbol"`
	Statement         Statement `json:"statement"`
	AnnualReports     []Record  `json:"annualReports"`
	QuarterlyReports  []Record  `json:"quarterlyReports"`
	AnnualEarnings    []Record  `json:"annualEarnings,omitempty"`
	QuarterlyEarnings []Record  `json:"quarterlyEarnings,omitempty"`
}

// Overview is the company profile, keyed by the upstream field names.
type Overview = Record

// TickerSentiment is the per-ticker sentiment attached to a news article.
type TickerSentiment struct {
	Ticker         string  `json:"ticker"`
	RelevanceScore float64 `json:"relevanceScore"`
	SentimentScore float64 `json:"sentimentScore"`
	SentimentLabel string  `json:"sentimentLabel"`
}

// NewsArticle is one item of the news feed.
type NewsArticle struct {
	ID                    string            `json:"id"`
	Title                 string            `json:"title"`
	URL                   string            `json:"url"`
	TimePublished         string            `json:"timePublished"`
	Authors               []string          `json:"authors"`
	Summary               string            `json:"summary"`
	BannerImage           string            `json:"bannerImage,omitempty"`
	Source                string            `json:"source"`
	SourceDomain          string            `json:"sourceDomain"`
	Topics                []string          `json:"topics"`
	OverallSentimentScore float64           `json:"overallSentimentScore"`
	OverallSentimentLabel string            `json:"overallSentimentLabel"`
	Tickers               []TickerSentiment `json:"tickers"`
}

// NewsFilters narrows the cached feed per request.
type NewsFilters struct {
	Tickers      []string `json:"tickers,omitempty"`
	Topics       []string `json:"topics,omitempty"`
	Limit        int      `json:"limit"`
	Offset       int      `json:"offset"`
	SentimentMin float64  `json:"sentimentMin"`
	SentimentMax float64  `json:"sentimentMax"`
	HoursAgo     int      `json:"hoursAgo"`
}

// DefaultNewsFilters returns the unfiltered first page.
func DefaultNewsFilters() NewsFilters {
	return NewsFilters{Limit: 50, SentimentMin: -1, SentimentMax: 1, HoursAgo: 168}
}

// NewsFeed is a filtered page of the feed plus ticker mention counts.
type NewsFeed struct {
	Articles []NewsArticle `json:"articles"`
	Total    int           `json:"total"`
	Trending []TickerCount `json:"trending"`
}

// TickerCount is a ticker with the number of articles mentioning it.
type TickerCount struct {
	Ticker string `json:"ticker"`
	Count  int    `json:"count"`
}
