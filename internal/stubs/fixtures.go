package stubs

import (
	"encoding/json"
	"fmt"
	"os"
	"time"

	"github.com/shopspring/decimal"
)

// Statement is one report family in provider shape
type Statement struct {
	Annual    []map[string]string `json:"annual"`
	Quarterly []map[string]string `json:"quarterly"`
}

// TickerSentiment is the provider's per-ticker sentiment block. Scores are
// strings, as the provider sends them.
type TickerSentiment struct {
	Ticker         string `json:"ticker"`
	RelevanceScore string `json:"relevance_score"`
	SentimentScore string `json:"ticker_sentiment_score"`
	SentimentLabel string `json:"ticker_sentiment_label"`
}

// Topic is a feed topic with its relevance
type Topic struct {
	Topic          string `json:"topic"`
	RelevanceScore string `json:"relevance_score"`
}

// NewsItem is one feed entry in provider shape
type NewsItem struct {
	Title                 string            `json:"title"`
	URL                   string            `json:"url"`
	TimePublished         string            `json:"time_published"`
	Authors               []string          `json:"authors"`
	Summary               string            `json:"summary"`
	BannerImage           string            `json:"banner_image,omitempty"`
	Source                string            `json:"source"`
	SourceDomain          string            `json:"source_domain"`
	Topics                []Topic           `json:"topics"`
	OverallSentimentScore float64           `json:"overall_sentiment_score"`
	OverallSentimentLabel string            `json:"overall_sentiment_label"`
	TickerSentiment       []TickerSentiment `json:"ticker_sentiment"`
}

// Fixtures is the data set served by the stub, keyed by symbol
type Fixtures struct {
	Quotes     map[string]map[string]string            `json:"quotes"`
	Overviews  map[string]map[string]string            `json:"overviews"`
	Series     map[string]map[string]map[string]string `json:"series"`
	Statements map[string]map[string]Statement         `json:"statements"`
	News       []NewsItem                              `json:"news"`
}

// LoadFixtures reads fixtures from a JSON file
func LoadFixtures(path string) (Fixtures, error) {
	var f Fixtures
	b, err := os.ReadFile(path)
	if err != nil {
		return f, err
	}
	if err := json.Unmarshal(b, &f); err != nil {
		return f, fmt.Errorf("parse fixtures %s: %w", path, err)
	}
	return f, nil
}

// AAPL revenue by fiscal year, newest first as Alpha Vantage lists reports
var appleRevenue = []struct {
	year    int
	revenue int64
}{
	{2024, 391035000000},
	{2023, 383285000000},
	{2022, 394328000000},
	{2021, 365817000000},
	{2020, 274515000000},
}

// DefaultFixtures returns a small deterministic data set: AAPL is complete,
// MSFT has a quote and a series only.
func DefaultFixtures() Fixtures {
	f := Fixtures{
		Quotes: map[string]map[string]string{
			"AAPL": quote("AAPL", "189.84", "187.15", "49128408"),
			"MSFT": quote("MSFT", "374.51", "370.87", "21018640"),
		},
		Overviews: map[string]map[string]string{
			"AAPL": {
				"Symbol":               "AAPL",
				"AssetType":            "Common Stock",
				"Name":                 "Apple Inc",
				"CIK":                  "320193",
				"Exchange":             "NASDAQ",
				"Currency":             "USD",
				"Country":              "USA",
				"Sector":               "TECHNOLOGY",
				"Industry":             "ELECTRONIC COMPUTERS",
				"FiscalYearEnd":        "September",
				"MarketCapitalization": "2950000000000",
				"PERatio":              "30.9",
				"PEGRatio":             "None",
				"EPS":                  "6.13",
				"DividendYield":        "0.0051",
				"52WeekHigh":           "199.62",
				"52WeekLow":            "124.17",
			},
		},
		Series: map[string]map[string]map[string]string{
			"AAPL": bars("185.00", 10),
			"MSFT": bars("370.00", 10),
		},
		Statements: map[string]map[string]Statement{
			"AAPL": {
				"INCOME_STATEMENT": incomeStatements(),
				"BALANCE_SHEET":    balanceSheets(),
				"CASH_FLOW":        cashFlows(),
				"EARNINGS":         earnings(),
			},
		},
		News: []NewsItem{
			{
				Title:         "Apple unveils new chips for its laptop lineup",
				URL:           "https://www.example.com/news/apple-chips",
				TimePublished: "20240102T143000",
				Authors:       []string{"Jane Doe"},
				Summary:       "Apple introduced a new generation of processors.",
				Source:        "Example Business",
				SourceDomain:  "www.example.com",
				Topics: []Topic{
					{Topic: "Technology", RelevanceScore: "1.0"},
					{Topic: "Earnings", RelevanceScore: "0.31"},
				},
				OverallSentimentScore: 0.284,
				OverallSentimentLabel: "Somewhat-Bullish",
				TickerSentiment: []TickerSentiment{
					{Ticker: "AAPL", RelevanceScore: "0.912", SentimentScore: "0.401", SentimentLabel: "Bullish"},
				},
			},
			{
				Title:         "Software stocks mixed ahead of earnings",
				URL:           "https://www.example.com/news/software-mixed",
				TimePublished: "20240102T101500",
				Authors:       []string{},
				Summary:       "",
				Source:        "Example Markets",
				SourceDomain:  "www.example.com",
				Topics: []Topic{
					{Topic: "Financial Markets", RelevanceScore: "0.82"},
				},
				OverallSentimentScore: -0.051,
				OverallSentimentLabel: "Neutral",
				TickerSentiment: []TickerSentiment{
					{Ticker: "MSFT", RelevanceScore: "0.7", SentimentScore: "-0.12", SentimentLabel: "Neutral"},
					{Ticker: "AAPL", RelevanceScore: "0.2", SentimentScore: "0.05", SentimentLabel: "Neutral"},
				},
			},
		},
	}
	return f
}

func quote(symbol, price, prevClose, volume string) map[string]string {
	p := decimal.RequireFromString(price)
	prev := decimal.RequireFromString(prevClose)
	change := p.Sub(prev)
	return map[string]string{
		"01. symbol":             symbol,
		"02. open":               prev.StringFixed(4),
		"03. high":               decimal.Max(p, prev).StringFixed(4),
		"04. low":                decimal.Min(p, prev).StringFixed(4),
		"05. price":              p.StringFixed(4),
		"06. volume":             volume,
		"07. latest trading day": "2024-01-02",
		"08. previous close":     prev.StringFixed(4),
		"09. change":             change.StringFixed(4),
		"10. change percent":     change.Div(prev).Mul(decimal.NewFromInt(100)).StringFixed(4) + "%",
	}
}

// bars builds n daily bars ending 2024-01-12, newest last by date
func bars(start string, n int) map[string]map[string]string {
	base := decimal.RequireFromString(start)
	step := decimal.RequireFromString("0.75")
	day := time.Date(2024, 1, 12, 0, 0, 0, 0, time.UTC).AddDate(0, 0, -(n - 1))

	out := make(map[string]map[string]string, n)
	for i := 0; i < n; i++ {
		open := base.Add(step.Mul(decimal.NewFromInt(int64(i))))
		closing := open.Add(step)
		out[day.AddDate(0, 0, i).Format("2006-01-02")] = map[string]string{
			"1. open":   open.StringFixed(4),
			"2. high":   closing.Add(step).StringFixed(4),
			"3. low":    open.Sub(step).StringFixed(4),
			"4. close":  closing.StringFixed(4),
			"5. volume": fmt.Sprintf("%d", 40000000+i*250000),
		}
	}
	return out
}

func fiscalEnd(year int) string { return fmt.Sprintf("%d-09-30", year) }

func share(v int64, pct string) string {
	return decimal.NewFromInt(v).Mul(decimal.RequireFromString(pct)).Round(0).String()
}

func incomeStatements() Statement {
	var st Statement
	for _, y := range appleRevenue {
		st.Annual = append(st.Annual, map[string]string{
			"fiscalDateEnding":       fiscalEnd(y.year),
			"reportedCurrency":       "USD",
			"totalRevenue":           fmt.Sprintf("%d", y.revenue),
			"costOfRevenue":          share(y.revenue, "0.56"),
			"grossProfit":            share(y.revenue, "0.44"),
			"operatingIncome":        share(y.revenue, "0.30"),
			"netIncome":              share(y.revenue, "0.25"),
			"researchAndDevelopment": share(y.revenue, "0.08"),
			"ebitda":                 "None",
		})
	}
	last := appleRevenue[0]
	for q := 0; q < 4; q++ {
		rev := last.revenue / 4
		st.Quarterly = append(st.Quarterly, map[string]string{
			"fiscalDateEnding": time.Date(last.year, time.December, 31, 0, 0, 0, 0, time.UTC).AddDate(0, -3*q, 0).Format("2006-01-02"),
			"reportedCurrency": "USD",
			"totalRevenue":     fmt.Sprintf("%d", rev),
			"netIncome":        share(rev, "0.25"),
		})
	}
	return st
}

func balanceSheets() Statement {
	var st Statement
	for _, y := range appleRevenue {
		assets := y.revenue + y.revenue/10
		liabilities := assets * 4 / 5
		st.Annual = append(st.Annual, map[string]string{
			"fiscalDateEnding":       fiscalEnd(y.year),
			"reportedCurrency":       "USD",
			"totalAssets":            fmt.Sprintf("%d", assets),
			"totalLiabilities":       fmt.Sprintf("%d", liabilities),
			"totalShareholderEquity": fmt.Sprintf("%d", assets-liabilities),
		})
	}
	return st
}

func cashFlows() Statement {
	var st Statement
	for _, y := range appleRevenue {
		st.Annual = append(st.Annual, map[string]string{
			"fiscalDateEnding":    fiscalEnd(y.year),
			"reportedCurrency":    "USD",
			"operatingCashflow":   share(y.revenue, "0.29"),
			"capitalExpenditures": share(y.revenue, "0.03"),
			"dividendPayout":      share(y.revenue, "0.04"),
		})
	}
	return st
}

func earnings() Statement {
	eps := []string{"6.08", "6.13", "6.11", "5.61", "3.28"}
	var st Statement
	for i, y := range appleRevenue {
		st.Annual = append(st.Annual, map[string]string{
			"fiscalDateEnding": fiscalEnd(y.year),
			"reportedEPS":      eps[i],
		})
	}
	st.Quarterly = append(st.Quarterly, map[string]string{
		"fiscalDateEnding":   "2024-09-30",
		"reportedDate":       "2024-10-31",
		"reportedEPS":        "1.64",
		"estimatedEPS":       "1.6",
		"surprise":           "0.04",
		"surprisePercentage": "2.5",
		"reportTime":         "post-market",
	})
	return st
}
