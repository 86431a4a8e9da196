// Package normalize fills missing upstream fields with sentinels so that
// consumers never see null or empty values. Every function is pure and
// idempotent, and present values are never changed.
package normalize

import (
	"sort"
	"strings"

	"github.com/Rajchodisetti/marketdata-gateway/internal/market"
)

const (
	// NotAvailable replaces missing descriptive fields.
	NotAvailable = "N/A"
	// Zero replaces missing numeric fields.
	Zero = "0"
)

var descriptiveKeys = map[string]bool{
	"symbol":           true,
	"assettype":        true,
	"name":             true,
	"description":      true,
	"cik":              true,
	"exchange":         true,
	"currency":         true,
	"country":          true,
	"sector":           true,
	"industry":         true,
	"address":          true,
	"officialsite":     true,
	"fiscalyearend":    true,
	"latestquarter":    true,
	"fiscaldateending": true,
	"reportedcurrency": true,
	"reporttime":       true,
	"latesttradingday": true,
	"timestamp":        true,
	"title":            true,
	"summary":          true,
	"source":           true,
	"sourcedomain":     true,
	"url":              true,
	"ticker":           true,
	"sentimentlabel":   true,
}

// IsDescriptive reports whether a field is text rather than a number.
// Date-like fields count as descriptive.
func IsDescriptive(key string) bool {
	k := strings.ToLower(key)
	return descriptiveKeys[k] || strings.Contains(k, "date")
}

// Sentinel returns the placeholder for a missing value of key.
func Sentinel(key string) string {
	if IsDescriptive(key) {
		return NotAvailable
	}
	return Zero
}

func missing(v any) bool {
	if v == nil {
		return true
	}
	s, ok := v.(string)
	return ok && strings.TrimSpace(s) == ""
}

// Value normalizes v found under key. Maps and slices are walked; elements
// of a slice inherit the key of the slice.
func Value(key string, v any) any {
	if missing(v) {
		return Sentinel(key)
	}
	switch t := v.(type) {
	case map[string]any:
		return map[string]any(Record(t))
	case market.Record:
		return Record(t)
	case []any:
		out := make([]any, len(t))
		for i, e := range t {
			out[i] = Value(key, e)
		}
		return out
	}
	return v
}

// Record returns a normalized copy of r.
func Record(r map[string]any) market.Record {
	out := make(market.Record, len(r))
	for k, v := range r {
		out[k] = Value(k, v)
	}
	return out
}

// Records normalizes every report and never returns nil.
func Records(rs []market.Record) []market.Record {
	out := make([]market.Record, 0, len(rs))
	for _, r := range rs {
		out = append(out, Record(r))
	}
	return out
}

func text(key, v string) string {
	if strings.TrimSpace(v) == "" {
		return Sentinel(key)
	}
	return v
}

// Quote fills missing quote fields.
func Quote(q market.Quote) market.Quote {
	q.Symbol = text("symbol", q.Symbol)
	q.Open = text("open", q.Open)
	q.High = text("high", q.High)
	q.Low = text("low", q.Low)
	q.Price = text("price", q.Price)
	q.Volume = text("volume", q.Volume)
	q.LatestTradingDay = text("latestTradingDay", q.LatestTradingDay)
	q.PreviousClose = text("previousClose", q.PreviousClose)
	q.Change = text("change", q.Change)
	q.ChangePercent = text("changePercent", q.ChangePercent)
	return q
}

// TimeSeries fills missing bar fields and guarantees a non-nil series.
func TimeSeries(ts market.TimeSeries) market.TimeSeries {
	points := make([]market.TimeSeriesPoint, len(ts.Points))
	for i, p := range ts.Points {
		points[i] = market.TimeSeriesPoint{
			Timestamp: text("timestamp", p.Timestamp),
			Open:      text("open", p.Open),
			High:      text("high", p.High),
			Low:       text("low", p.Low),
			Close:     text("close", p.Close),
			Volume:    text("volume", p.Volume),
		}
	}
	ts.Points = points
	return ts
}

// Financials normalizes every report and orders each slice oldest first by
// fiscalDateEnding. Report slices are never nil; earnings slices are never
// nil for the earnings statement.
func Financials(f market.Financials) market.Financials {
	f.AnnualReports = byFiscalDate(Records(f.AnnualReports))
	f.QuarterlyReports = byFiscalDate(Records(f.QuarterlyReports))
	if f.Statement == market.StatementEarnings || f.AnnualEarnings != nil || f.QuarterlyEarnings != nil {
		f.AnnualEarnings = byFiscalDate(Records(f.AnnualEarnings))
		f.QuarterlyEarnings = byFiscalDate(Records(f.QuarterlyEarnings))
	}
	return f
}

// byFiscalDate sorts in place. ISO dates order as strings; reports without
// a usable date land last in their incoming order.
func byFiscalDate(rs []market.Record) []market.Record {
	sort.SliceStable(rs, func(i, j int) bool {
		a, b := fiscalDate(rs[i]), fiscalDate(rs[j])
		if a == "" || b == "" {
			return b == "" && a != ""
		}
		return a < b
	})
	return rs
}

func fiscalDate(r market.Record) string {
	s, _ := r["fiscalDateEnding"].(string)
	if s == NotAvailable {
		return ""
	}
	return s
}

// OverviewFields are the profile fields always present after normalization.
var OverviewFields = []string{
	"Symbol", "AssetType", "Name", "Description", "CIK", "Exchange", "Currency",
	"Country", "Sector", "Industry", "Address", "FiscalYearEnd", "LatestQuarter",
	"MarketCapitalization", "EBITDA", "PERatio", "PEGRatio", "BookValue",
	"DividendPerShare", "DividendYield", "EPS", "RevenuePerShareTTM",
	"ProfitMargin", "OperatingMarginTTM", "ReturnOnAssetsTTM", "ReturnOnEquityTTM",
	"RevenueTTM", "GrossProfitTTM", "DilutedEPSTTM", "QuarterlyEarningsGrowthYOY",
	"QuarterlyRevenueGrowthYOY", "AnalystTargetPrice", "TrailingPE", "ForwardPE",
	"PriceToSalesRatioTTM", "PriceToBookRatio", "EVToRevenue", "EVToEBITDA", "Beta",
	"52WeekHigh", "52WeekLow", "50DayMovingAverage", "200DayMovingAverage",
	"SharesOutstanding", "DividendDate", "ExDividendDate",
}

// Overview fills every profile field. Name, Currency and FiscalYearEnd get
// readable defaults instead of N/A.
func Overview(symbol string, in market.Record) market.Record {
	out := Record(in)
	for _, f := range OverviewFields {
		if _, ok := out[f]; !ok {
			out[f] = Sentinel(f)
		}
	}
	if out["Symbol"] == NotAvailable {
		out["Symbol"] = symbol
	}
	if out["Name"] == NotAvailable {
		out["Name"] = symbol + " Inc."
	}
	if out["Currency"] == NotAvailable {
		out["Currency"] = "USD"
	}
	if out["FiscalYearEnd"] == NotAvailable {
		out["FiscalYearEnd"] = "December"
	}
	return out
}

// News fills missing article text fields.
func News(articles []market.NewsArticle) []market.NewsArticle {
	out := make([]market.NewsArticle, len(articles))
	for i, a := range articles {
		a.Title = text("title", a.Title)
		a.Summary = text("summary", a.Summary)
		a.Source = text("source", a.Source)
		if a.ID == "" {
			a.ID = a.URL
		}
		if a.OverallSentimentLabel == "" {
			a.OverallSentimentLabel = "Neutral"
		}
		if a.Authors == nil {
			a.Authors = []string{}
		}
		if a.Topics == nil {
			a.Topics = []string{}
		}
		if a.Tickers == nil {
			a.Tickers = []market.TickerSentiment{}
		}
		out[i] = a
	}
	return out
}
