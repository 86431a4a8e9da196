package market

import (
	"fmt"
	"strings"
)

// DataType identifies the kind of payload cached for a symbol. The set is
// closed: only the constructors and ParseDataType produce valid values.
type DataType string

const (
	DataQuote    DataType = "quote"
	DataOverview DataType = "overview"
	DataNews     DataType = "news"
)

// Interval is the bar size of a time series.
type Interval string

const (
	IntervalIntraday Interval = "intraday"
	IntervalDaily    Interval = "daily"
	IntervalWeekly   Interval = "weekly"
	IntervalMonthly  Interval = "monthly"
)

// OutputSize selects how much history the upstream returns.
type OutputSize string

const (
	OutputCompact OutputSize = "compact"
	OutputFull    OutputSize = "full"
)

// Statement is one of the four financial statement families.
type Statement string

const (
	StatementIncome   Statement = "income_statement"
	StatementBalance  Statement = "balance_sheet"
	StatementCashFlow Statement = "cash_flow"
	StatementEarnings Statement = "earnings"
)

var (
	intervals  = []Interval{IntervalIntraday, IntervalDaily, IntervalWeekly, IntervalMonthly}
	sizes      = []OutputSize{OutputCompact, OutputFull}
	statements = []Statement{StatementIncome, StatementBalance, StatementCashFlow, StatementEarnings}
)

// ParseInterval accepts the interval names case-insensitively. Empty input
// means daily.
func ParseInterval(s string) (Interval, error) {
	s = strings.ToLower(strings.TrimSpace(s))
	if s == "" {
		return IntervalDaily, nil
	}
	for _, iv := range intervals {
		if string(iv) == s {
			return iv, nil
		}
	}
	return "", fmt.Errorf("unknown interval: %q", s)
}

// ParseOutputSize accepts compact or full. Empty input means compact.
func ParseOutputSize(s string) (OutputSize, error) {
	s = strings.ToLower(strings.TrimSpace(s))
	if s == "" {
		return OutputCompact, nil
	}
	for _, sz := range sizes {
		if string(sz) == s {
			return sz, nil
		}
	}
	return "", fmt.Errorf("unknown output size: %q", s)
}

// ParseStatement accepts full statement names and the short aliases used by
// the HTTP routes (income, balance, cashflow).
func ParseStatement(s string) (Statement, error) {
	s = strings.ToLower(strings.TrimSpace(s))
	switch s {
	case "income", "income_statement", "income-statement":
		return StatementIncome, nil
	case "balance", "balance_sheet", "balance-sheet":
		return StatementBalance, nil
	case "cashflow", "cash_flow", "cash-flow":
		return StatementCashFlow, nil
	case "earnings":
		return StatementEarnings, nil
	}
	return "", fmt.Errorf("unknown statement: %q", s)
}

// TimeSeriesType builds the data type for a series.
func TimeSeriesType(iv Interval, size OutputSize) (DataType, error) {
	if _, err := ParseInterval(string(iv)); err != nil || iv == "" {
		return "", fmt.Errorf("unknown interval: %q", iv)
	}
	if _, err := ParseOutputSize(string(size)); err != nil || size == "" {
		return "", fmt.Errorf("unknown output size: %q", size)
	}
	return DataType(fmt.Sprintf("timeseries_%s_%s", iv, size)), nil
}

// FinancialsType builds the data type for a statement.
func FinancialsType(st Statement) (DataType, error) {
	for _, s := range statements {
		if s == st {
			return DataType("financials_" + string(st)), nil
		}
	}
	return "", fmt.Errorf("unknown statement: %q", st)
}

// ParseDataType validates a serialized data type.
func ParseDataType(s string) (DataType, error) {
	switch dt := DataType(s); dt {
	case DataQuote, DataOverview, DataNews:
		return dt, nil
	}
	if rest, ok := strings.CutPrefix(s, "timeseries_"); ok {
		iv, size, found := strings.Cut(rest, "_")
		if found {
			return TimeSeriesType(Interval(iv), OutputSize(size))
		}
	}
	if rest, ok := strings.CutPrefix(s, "financials_"); ok {
		return FinancialsType(Statement(rest))
	}
	return "", fmt.Errorf("unknown data type: %q", s)
}

// IsTimeSeries reports whether dt is one of the timeseries_* types.
func (dt DataType) IsTimeSeries() bool {
	return strings.HasPrefix(string(dt), "timeseries_")
}

// IsFinancials reports whether dt is one of the financials_* types.
func (dt DataType) IsFinancials() bool {
	return strings.HasPrefix(string(dt), "financials_")
}

// Statement returns the statement of a financials type, or "".
func (dt DataType) Statement() Statement {
	if rest, ok := strings.CutPrefix(string(dt), "financials_"); ok {
		return Statement(rest)
	}
	return ""
}

func (dt DataType) String() string { return string(dt) }
