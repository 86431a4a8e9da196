// Package synthetic produces deterministic placeholder data for symbols when
// the upstream cannot be reached. Output depends only on the symbol and the
// generator's latest fiscal year; there is no randomness.
package synthetic

import (
	"fmt"
	"time"

	"github.com/shopspring/decimal"

	"github.com/Rajchodisetti/marketdata-gateway/internal/market"
)

// Periods is the number of annual reports generated, oldest-first.
const Periods = 5

var (
	growth = decimal.RequireFromString("1.08")

	// seasonal share of annual revenue per quarter
	quarterWeights = []decimal.Decimal{
		decimal.RequireFromString("0.23"),
		decimal.RequireFromString("0.24"),
		decimal.RequireFromString("0.25"),
		decimal.RequireFromString("0.28"),
	}
	quarterEnds = []string{"03-31", "06-30", "09-30", "12-31"}
)

// Generator builds placeholder reports.
type Generator struct {
	latestYear int
}

// New creates a generator whose newest annual period is latestFiscalYear.
// Zero means the last completed calendar year.
func New(latestFiscalYear int) *Generator {
	if latestFiscalYear <= 0 {
		latestFiscalYear = time.Now().UTC().Year() - 1
	}
	return &Generator{latestYear: latestFiscalYear}
}

// LatestYear returns the newest fiscal year generated.
func (g *Generator) LatestYear() int { return g.latestYear }

type period struct {
	date    string
	revenue decimal.Decimal
	// fraction of the annual figure this period represents
	share decimal.Decimal
}

func (g *Generator) annualPeriods(p profile) []period {
	base := decimal.NewFromInt(p.Revenue)
	out := make([]period, 0, Periods)
	for i := 0; i < Periods; i++ {
		yearsBack := int64(Periods - 1 - i)
		rev := base.Div(growth.Pow(decimal.NewFromInt(yearsBack))).Round(0)
		out = append(out, period{
			date:    fmt.Sprintf("%d-12-31", g.latestYear-int(yearsBack)),
			revenue: rev,
			share:   decimal.NewFromInt(1),
		})
	}
	return out
}

func (g *Generator) quarterlyPeriods(p profile) []period {
	annual := decimal.NewFromInt(p.Revenue)
	out := make([]period, 0, len(quarterWeights))
	for i, w := range quarterWeights {
		out = append(out, period{
			date:    fmt.Sprintf("%d-%s", g.latestYear, quarterEnds[i]),
			revenue: annual.Mul(w).Round(0),
			share:   w,
		})
	}
	return out
}

// Financials returns a fully populated statement for symbol.
func (g *Generator) Financials(symbol string, st market.Statement) market.Financials {
	p := lookup(symbol)
	f := market.Financials{Symbol: symbol, Statement: st}

	if st == market.StatementEarnings {
		for _, per := range g.annualPeriods(p) {
			f.AnnualEarnings = append(f.AnnualEarnings, annualEarnings(p, per))
		}
		for i, per := range g.quarterlyPeriods(p) {
			f.QuarterlyEarnings = append(f.QuarterlyEarnings, quarterlyEarnings(p, per, i))
		}
		f.AnnualReports = []market.Record{}
		f.QuarterlyReports = []market.Record{}
		return f
	}

	build := statementBuilder(st)
	for _, per := range g.annualPeriods(p) {
		f.AnnualReports = append(f.AnnualReports, build(p, per))
	}
	for _, per := range g.quarterlyPeriods(p) {
		f.QuarterlyReports = append(f.QuarterlyReports, build(p, per))
	}
	return f
}

func statementBuilder(st market.Statement) func(profile, period) market.Record {
	switch st {
	case market.StatementBalance:
		return balanceSheet
	case market.StatementCashFlow:
		return cashFlow
	default:
		return incomeStatement
	}
}

func pct(v decimal.Decimal, p string) decimal.Decimal {
	return v.Mul(decimal.RequireFromString(p)).Round(0)
}

type income struct {
	revenue, cost, gross, rnd, sga, opex, opIncome       decimal.Decimal
	interestIncome, interestExpense, preTax, tax, netInc decimal.Decimal
	depreciation                                         decimal.Decimal
}

func incomeFigures(rev decimal.Decimal) income {
	in := income{revenue: rev}
	in.cost = pct(rev, "0.58")
	in.gross = rev.Sub(in.cost)
	in.rnd = pct(rev, "0.08")
	in.sga = pct(rev, "0.07")
	in.opex = in.rnd.Add(in.sga)
	in.opIncome = in.gross.Sub(in.opex)
	in.interestIncome = pct(rev, "0.01")
	in.interestExpense = pct(rev, "0.008")
	in.preTax = in.opIncome.Add(in.interestIncome).Sub(in.interestExpense)
	in.tax = pct(in.preTax, "0.16")
	in.netInc = in.preTax.Sub(in.tax)
	in.depreciation = pct(rev, "0.03")
	return in
}

func incomeStatement(_ profile, per period) market.Record {
	in := incomeFigures(per.revenue)
	return market.Record{
		"fiscalDateEnding":                  per.date,
		"reportedCurrency":                  "USD",
		"totalRevenue":                      in.revenue.String(),
		"costOfRevenue":                     in.cost.String(),
		"costofGoodsAndServicesSold":        in.cost.String(),
		"grossProfit":                       in.gross.String(),
		"researchAndDevelopment":            in.rnd.String(),
		"sellingGeneralAndAdministrative":   in.sga.String(),
		"operatingExpenses":                 in.opex.String(),
		"operatingIncome":                   in.opIncome.String(),
		"interestIncome":                    in.interestIncome.String(),
		"interestExpense":                   in.interestExpense.String(),
		"netInterestIncome":                 in.interestIncome.Sub(in.interestExpense).String(),
		"otherNonOperatingIncome":           "0",
		"depreciationAndAmortization":       in.depreciation.String(),
		"incomeBeforeTax":                   in.preTax.String(),
		"incomeTaxExpense":                  in.tax.String(),
		"netIncome":                         in.netInc.String(),
		"netIncomeFromContinuingOperations": in.netInc.String(),
		"ebit":                              in.opIncome.String(),
		"ebitda":                            in.opIncome.Add(in.depreciation).String(),
	}
}

// balanceSheet derives liabilities independently of assets and equity as
// their difference, so totalAssets = totalLiabilities + totalShareholderEquity
// holds exactly.
func balanceSheet(p profile, per period) market.Record {
	// balance sheet items are stocks, not flows: quarters use the annual scale
	rev := per.revenue
	if !per.share.Equal(decimal.NewFromInt(1)) {
		rev = per.revenue.Div(per.share).Round(0)
	}

	assets := pct(rev, "1.10")
	current := pct(assets, "0.40")
	nonCurrent := assets.Sub(current)
	cash := pct(current, "0.30")
	inventory := pct(current, "0.05")
	receivables := pct(current, "0.20")
	otherCurrent := current.Sub(cash).Sub(inventory).Sub(receivables)
	ppe := pct(nonCurrent, "0.25")
	longInvest := pct(nonCurrent, "0.60")
	otherNonCurrent := nonCurrent.Sub(ppe).Sub(longInvest)

	liabilities := pct(assets, "0.72")
	currentLiab := pct(liabilities, "0.48")
	nonCurrentLiab := liabilities.Sub(currentLiab)
	payables := pct(currentLiab, "0.45")
	shortDebt := pct(currentLiab, "0.08")
	otherCurrentLiab := currentLiab.Sub(payables).Sub(shortDebt)
	longDebt := pct(nonCurrentLiab, "0.70")
	otherNonCurrentLiab := nonCurrentLiab.Sub(longDebt)

	equity := assets.Sub(liabilities)
	retained := pct(equity, "0.60")
	common := equity.Sub(retained)

	return market.Record{
		"fiscalDateEnding":                      per.date,
		"reportedCurrency":                      "USD",
		"totalAssets":                           assets.String(),
		"totalCurrentAssets":                    current.String(),
		"cashAndCashEquivalentsAtCarryingValue": cash.String(),
		"cashAndShortTermInvestments":           cash.String(),
		"inventory":                             inventory.String(),
		"currentNetReceivables":                 receivables.String(),
		"otherCurrentAssets":                    otherCurrent.String(),
		"totalNonCurrentAssets":                 nonCurrent.String(),
		"propertyPlantEquipment":                ppe.String(),
		"longTermInvestments":                   longInvest.String(),
		"otherNonCurrentAssets":                 otherNonCurrent.String(),
		"totalLiabilities":                      liabilities.String(),
		"totalCurrentLiabilities":               currentLiab.String(),
		"currentAccountsPayable":                payables.String(),
		"shortTermDebt":                         shortDebt.String(),
		"otherCurrentLiabilities":               otherCurrentLiab.String(),
		"totalNonCurrentLiabilities":            nonCurrentLiab.String(),
		"longTermDebt":                          longDebt.String(),
		"otherNonCurrentLiabilities":            otherNonCurrentLiab.String(),
		"totalShareholderEquity":                equity.String(),
		"retainedEarnings":                      retained.String(),
		"commonStock":                           common.String(),
		"commonStockSharesOutstanding":          decimal.NewFromInt(p.Shares).String(),
	}
}

func cashFlow(_ profile, per period) market.Record {
	in := incomeFigures(per.revenue)

	operating := in.netInc.Add(in.depreciation).Add(pct(per.revenue, "0.02"))
	capex := pct(per.revenue, "0.03")
	investing := capex.Add(pct(per.revenue, "0.01")).Neg()
	dividends := pct(in.netInc, "0.15").Neg()
	buybacks := pct(in.netInc, "0.60").Neg()
	financing := dividends.Add(buybacks)

	return market.Record{
		"fiscalDateEnding":                     per.date,
		"reportedCurrency":                     "USD",
		"operatingCashflow":                    operating.String(),
		"depreciationDepletionAndAmortization": in.depreciation.String(),
		"capitalExpenditures":                  capex.String(),
		"profitLoss":                           in.netInc.String(),
		"cashflowFromInvestment":               investing.String(),
		"cashflowFromFinancing":                financing.String(),
		"dividendPayout":                       dividends.String(),
		"paymentsForRepurchaseOfCommonStock":   buybacks.String(),
		"changeInCashAndCashEquivalents":       operating.Add(investing).Add(financing).String(),
		"netIncome":                            in.netInc.String(),
	}
}

func epsFor(p profile, per period) decimal.Decimal {
	eps := decimal.RequireFromString(p.EPS)
	// scale by the period's revenue relative to the latest annual revenue
	ratio := per.revenue.Div(decimal.NewFromInt(p.Revenue))
	return eps.Mul(ratio).Round(2)
}

func annualEarnings(p profile, per period) market.Record {
	return market.Record{
		"fiscalDateEnding": per.date,
		"reportedEPS":      epsFor(p, per).StringFixed(2),
	}
}

func quarterlyEarnings(p profile, per period, q int) market.Record {
	reported := epsFor(p, per)
	estimated := reported.Mul(decimal.RequireFromString("0.98")).Round(2)
	surprise := reported.Sub(estimated)
	surprisePct := decimal.Zero
	if !estimated.IsZero() {
		surprisePct = surprise.Div(estimated).Mul(decimal.NewFromInt(100)).Round(2)
	}

	// reported 30 days after the quarter ends
	end, _ := time.Parse("2006-01-02", per.date)
	return market.Record{
		"fiscalDateEnding":   per.date,
		"reportedDate":       end.AddDate(0, 0, 30).Format("2006-01-02"),
		"reportedEPS":        reported.StringFixed(2),
		"estimatedEPS":       estimated.StringFixed(2),
		"surprise":           surprise.StringFixed(2),
		"surprisePercentage": surprisePct.StringFixed(2),
		"reportTime":         []string{"pre-market", "post-market"}[q%2],
	}
}

// Overview returns a placeholder company profile.
func (g *Generator) Overview(symbol string) market.Record {
	p := lookup(symbol)
	return market.Record{
		"Symbol":               symbol,
		"AssetType":            "Common Stock",
		"Name":                 p.Name,
		"Description":          p.Description,
		"CIK":                  p.CIK,
		"Exchange":             "NASDAQ",
		"Currency":             "USD",
		"Country":              "USA",
		"Sector":               p.Sector,
		"Industry":             p.Industry,
		"Address":              p.Address,
		"FiscalYearEnd":        "December",
		"LatestQuarter":        fmt.Sprintf("%d-12-31", g.latestYear),
		"MarketCapitalization": decimal.NewFromInt(p.MarketCap).String(),
		"EBITDA":               decimal.NewFromInt(p.EBITDA).String(),
		"PERatio":              p.PERatio,
		"EPS":                  p.EPS,
		"RevenueTTM":           decimal.NewFromInt(p.Revenue).String(),
		"52WeekHigh":           p.High52,
		"52WeekLow":            p.Low52,
		"SharesOutstanding":    decimal.NewFromInt(p.Shares).String(),
	}
}
