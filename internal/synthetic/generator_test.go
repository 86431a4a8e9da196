package synthetic

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Rajchodisetti/marketdata-gateway/internal/market"
)

func dec(t *testing.T, r market.Record, key string) decimal.Decimal {
	t.Helper()
	s, ok := r[key].(string)
	require.True(t, ok, "field %s missing", key)
	d, err := decimal.NewFromString(s)
	require.NoError(t, err, "field %s", key)
	return d
}

func TestFinancialsDeterministic(t *testing.T) {
	g := New(2024)
	for _, st := range []market.Statement{
		market.StatementIncome, market.StatementBalance, market.StatementCashFlow, market.StatementEarnings,
	} {
		for _, sym := range []string{"AAPL", "ZZZZ"} {
			assert.Equal(t, g.Financials(sym, st), New(2024).Financials(sym, st), "%s %s", sym, st)
		}
	}
}

func TestFinancialsFivePeriodsOldestFirst(t *testing.T) {
	f := New(2024).Financials("AAPL", market.StatementIncome)

	require.Len(t, f.AnnualReports, Periods)
	assert.Equal(t, "2020-12-31", f.AnnualReports[0]["fiscalDateEnding"])
	assert.Equal(t, "2024-12-31", f.AnnualReports[4]["fiscalDateEnding"])
	assert.Equal(t, "383285000000", f.AnnualReports[4]["totalRevenue"])

	for i := 1; i < len(f.AnnualReports); i++ {
		prev := dec(t, f.AnnualReports[i-1], "totalRevenue")
		cur := dec(t, f.AnnualReports[i], "totalRevenue")
		assert.True(t, cur.GreaterThan(prev), "revenue grows period over period")
	}

	require.Len(t, f.QuarterlyReports, 4)
	assert.Equal(t, "2024-03-31", f.QuarterlyReports[0]["fiscalDateEnding"])
}

func TestIncomeStatementConsistency(t *testing.T) {
	f := New(2024).Financials("MSFT", market.StatementIncome)
	for _, r := range f.AnnualReports {
		rev := dec(t, r, "totalRevenue")
		assert.True(t, dec(t, r, "grossProfit").Equal(rev.Sub(dec(t, r, "costOfRevenue"))))
		assert.True(t, dec(t, r, "netIncome").Equal(dec(t, r, "incomeBeforeTax").Sub(dec(t, r, "incomeTaxExpense"))))
	}
}

func TestBalanceSheetIdentity(t *testing.T) {
	g := New(2023)
	for _, sym := range []string{"AAPL", "GOOGL", "MSFT", "AMZN", "TSLA", "META", "NVDA", "NFLX", "AMD", "INTC", "XYZ", "BRK.B"} {
		f := g.Financials(sym, market.StatementBalance)
		reports := append(append([]market.Record{}, f.AnnualReports...), f.QuarterlyReports...)
		require.Len(t, reports, Periods+4)
		for _, r := range reports {
			assets := dec(t, r, "totalAssets")
			sum := dec(t, r, "totalLiabilities").Add(dec(t, r, "totalShareholderEquity"))
			assert.True(t, assets.Equal(sum), "%s %s: %s != %s", sym, r["fiscalDateEnding"], assets, sum)

			current := dec(t, r, "totalCurrentAssets").Add(dec(t, r, "totalNonCurrentAssets"))
			assert.True(t, assets.Equal(current))
		}
	}
}

func TestEarningsShape(t *testing.T) {
	f := New(2024).Financials("NVDA", market.StatementEarnings)
	require.Len(t, f.AnnualEarnings, Periods)
	require.Len(t, f.QuarterlyEarnings, 4)
	assert.Empty(t, f.AnnualReports)
	assert.Equal(t, "4.44", f.AnnualEarnings[4]["reportedEPS"])

	q := f.QuarterlyEarnings[0]
	reported := dec(t, q, "reportedEPS")
	estimated := dec(t, q, "estimatedEPS")
	assert.True(t, dec(t, q, "surprise").Equal(reported.Sub(estimated)))
	assert.Equal(t, "2024-04-30", q["reportedDate"])
}

func TestUnknownSymbolUsesStableDefault(t *testing.T) {
	assert.False(t, Known("QQQQ"))
	a := lookup("QQQQ")
	b := lookup("QQQQ")
	assert.Equal(t, a, b)
	assert.GreaterOrEqual(t, a.Revenue, int64(50000000000))
	assert.Less(t, a.Revenue, int64(150000000000))
}

func TestOverview(t *testing.T) {
	o := New(2024).Overview("AAPL")
	assert.Equal(t, "Apple Inc.", o["Name"])
	assert.Equal(t, "TECHNOLOGY", o["Sector"])
	assert.Equal(t, "3000000000000", o["MarketCapitalization"])
	assert.Equal(t, "2024-12-31", o["LatestQuarter"])

	assert.Equal(t, "XYZ Inc.", New(2024).Overview("XYZ")["Name"])
}
