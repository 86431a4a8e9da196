// Package upstream talks to the market data provider. Each method performs
// exactly one attempt; retries, quota and throttling belong to the caller.
package upstream

import (
	"context"

	"github.com/Rajchodisetti/marketdata-gateway/internal/market"
)

// Provider is the upstream market data source.
type Provider interface {
	Name() string
	Quote(ctx context.Context, symbol string) (market.Quote, error)
	Overview(ctx context.Context, symbol string) (market.Record, error)
	TimeSeries(ctx context.Context, symbol string, iv market.Interval, size market.OutputSize) (market.TimeSeries, error)
	Financials(ctx context.Context, symbol string, st market.Statement) (market.Financials, error)
	News(ctx context.Context, req NewsRequest) ([]market.NewsArticle, error)
}

// NewsRequest selects the feed fetched from upstream.
type NewsRequest struct {
	Tickers []string
	Topics  []string
	Limit   int
}

// Function names of the Alpha Vantage query API.
const (
	FnGlobalQuote     = "GLOBAL_QUOTE"
	FnOverview        = "OVERVIEW"
	FnIntraday        = "TIME_SERIES_INTRADAY"
	FnDaily           = "TIME_SERIES_DAILY"
	FnWeekly          = "TIME_SERIES_WEEKLY"
	FnMonthly         = "TIME_SERIES_MONTHLY"
	FnIncomeStatement = "INCOME_STATEMENT"
	FnBalanceSheet    = "BALANCE_SHEET"
	FnCashFlow        = "CASH_FLOW"
	FnEarnings        = "EARNINGS"
	FnNewsSentiment   = "NEWS_SENTIMENT"
)

// IntradayInterval is the bar size requested for intraday series.
const IntradayInterval = "5min"

// SeriesFunction maps an interval to its query function and response key.
func SeriesFunction(iv market.Interval) (fn, key string) {
	switch iv {
	case market.IntervalIntraday:
		return FnIntraday, "Time Series (" + IntradayInterval + ")"
	case market.IntervalWeekly:
		return FnWeekly, "Weekly Time Series"
	case market.IntervalMonthly:
		return FnMonthly, "Monthly Time Series"
	default:
		return FnDaily, "Time Series (Daily)"
	}
}

// StatementFunction maps a statement to its query function.
func StatementFunction(st market.Statement) string {
	switch st {
	case market.StatementBalance:
		return FnBalanceSheet
	case market.StatementCashFlow:
		return FnCashFlow
	case market.StatementEarnings:
		return FnEarnings
	default:
		return FnIncomeStatement
	}
}
