package cache

import (
	"time"

	"github.com/Rajchodisetti/marketdata-gateway/internal/market"
)

// TTL constants per data type.
const (
	TTLQuote      = 5 * time.Minute
	TTLOverview   = 15 * time.Minute
	TTLTimeSeries = 60 * time.Minute
	TTLFinancials = 24 * time.Hour
	TTLNews       = 60 * time.Minute
	TTLPrice      = 5 * time.Minute

	// Caller-supplied time series TTLs are clamped to this window.
	MinTimeSeriesTTL = 60 * time.Minute
	MaxTimeSeriesTTL = 24 * time.Hour
)

// TTLFor returns the freshness window of a data type. override only applies
// to time series and news; it is ignored when zero.
func TTLFor(dt market.DataType, override time.Duration) time.Duration {
	switch {
	case dt == market.DataQuote:
		return TTLQuote
	case dt == market.DataOverview:
		return TTLOverview
	case dt.IsFinancials():
		return TTLFinancials
	case dt.IsTimeSeries():
		if override == 0 {
			return TTLTimeSeries
		}
		return clamp(override, MinTimeSeriesTTL, MaxTimeSeriesTTL)
	case dt == market.DataNews:
		if override > 0 {
			return override
		}
		return TTLNews
	}
	return TTLQuote
}

func clamp(d, lo, hi time.Duration) time.Duration {
	if d < lo {
		return lo
	}
	if d > hi {
		return hi
	}
	return d
}
