package normalize

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/Rajchodisetti/marketdata-gateway/internal/market"
)

func TestRecordSentinels(t *testing.T) {
	in := map[string]any{
		"fiscalDateEnding":       "",
		"reportedCurrency":       nil,
		"totalRevenue":           nil,
		"netIncome":              "",
		"grossProfit":            "1200",
		"researchAndDevelopment": "None",
	}
	got := Record(in)

	assert.Equal(t, "N/A", got["fiscalDateEnding"])
	assert.Equal(t, "N/A", got["reportedCurrency"])
	assert.Equal(t, "0", got["totalRevenue"])
	assert.Equal(t, "0", got["netIncome"])
	assert.Equal(t, "1200", got["grossProfit"])
	assert.Equal(t, "None", got["researchAndDevelopment"], "present values are kept")
	assert.Equal(t, "", in["netIncome"], "input not mutated")
}

func TestNestedValues(t *testing.T) {
	got := Record(map[string]any{
		"ticker_sentiment": []any{
			map[string]any{"ticker": "", "relevance_score": nil},
		},
	})
	items := got["ticker_sentiment"].([]any)
	item := items[0].(map[string]any)
	assert.Equal(t, "N/A", item["ticker"])
	assert.Equal(t, "0", item["relevance_score"])
}

func TestIdempotent(t *testing.T) {
	rec := map[string]any{"Name": "", "PERatio": nil, "Sector": "Technology", "DividendDate": ""}
	once := Overview("AAPL", rec)
	twice := Overview("AAPL", once)
	assert.Equal(t, once, twice)

	fin := market.Financials{
		Symbol:    "AAPL",
		Statement: market.StatementEarnings,
		AnnualEarnings: []market.Record{
			{"fiscalDateEnding": "2023-09-30", "reportedEPS": ""},
		},
	}
	f1 := Financials(fin)
	assert.Equal(t, f1, Financials(f1))
	assert.NotNil(t, f1.AnnualReports)
	assert.NotNil(t, f1.QuarterlyEarnings)
	assert.Equal(t, "0", f1.AnnualEarnings[0]["reportedEPS"])

	q := Quote(market.Quote{Symbol: "AAPL", Price: "175.50"})
	assert.Equal(t, q, Quote(q))
	assert.Equal(t, "0", q.Open)
	assert.Equal(t, "N/A", q.LatestTradingDay)

	ts := TimeSeries(market.TimeSeries{Points: []market.TimeSeriesPoint{{Timestamp: "2024-01-02", Close: "10"}}})
	assert.Equal(t, ts, TimeSeries(ts))
	assert.Equal(t, "0", ts.Points[0].Volume)
}

func TestOverviewDefaults(t *testing.T) {
	got := Overview("TSLA", market.Record{"Description": "cars"})

	assert.Equal(t, "TSLA", got["Symbol"])
	assert.Equal(t, "TSLA Inc.", got["Name"])
	assert.Equal(t, "USD", got["Currency"])
	assert.Equal(t, "December", got["FiscalYearEnd"])
	assert.Equal(t, "cars", got["Description"])
	assert.Equal(t, "N/A", got["ExDividendDate"])
	assert.Equal(t, "0", got["MarketCapitalization"])
	for _, f := range OverviewFields {
		assert.Contains(t, got, f)
	}
}

func TestFinancialsOrderedOldestFirst(t *testing.T) {
	f := Financials(market.Financials{
		Symbol:    "AAPL",
		Statement: market.StatementIncome,
		AnnualReports: []market.Record{
			{"fiscalDateEnding": "2024-09-30"},
			{"totalRevenue": "1"},
			{"fiscalDateEnding": "2022-09-30"},
			{"fiscalDateEnding": "2023-09-30"},
		},
		QuarterlyReports: []market.Record{
			{"fiscalDateEnding": "2024-09-30"},
			{"fiscalDateEnding": "2024-06-30"},
		},
	})

	var annual []any
	for _, r := range f.AnnualReports {
		annual = append(annual, r["fiscalDateEnding"])
	}
	assert.Equal(t, []any{"2022-09-30", "2023-09-30", "2024-09-30", nil}, annual)
	assert.Equal(t, "2024-06-30", f.QuarterlyReports[0]["fiscalDateEnding"])
	assert.Equal(t, f, Financials(f))
}

func TestFinancialsNonEarningsKeepsEarningsNil(t *testing.T) {
	f := Financials(market.Financials{Symbol: "AAPL", Statement: market.StatementIncome})
	assert.NotNil(t, f.AnnualReports)
	assert.NotNil(t, f.QuarterlyReports)
	assert.Nil(t, f.AnnualEarnings)
}

func TestNewsDefaults(t *testing.T) {
	got := News([]market.NewsArticle{{URL: "https://example.com/a"}})
	assert.Equal(t, "https://example.com/a", got[0].ID)
	assert.Equal(t, "N/A", got[0].Title)
	assert.Equal(t, "Neutral", got[0].OverallSentimentLabel)
	assert.Equal(t, got, News(got))
}
