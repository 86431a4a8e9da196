package gateway

import (
	"context"
	"time"

	"github.com/Rajchodisetti/marketdata-gateway/internal/cache"
	"github.com/Rajchodisetti/marketdata-gateway/internal/market"
	"github.com/Rajchodisetti/marketdata-gateway/internal/normalize"
)

// GetQuote returns the latest quote. With no data anywhere every field but
// the symbol carries its sentinel.
func (g *Gateway) GetQuote(ctx context.Context, symbol string) (Result[market.Quote], error) {
	sym, err := market.NormalizeSymbol(symbol)
	if err != nil {
		return Result[market.Quote]{}, invalid(err)
	}
	return fetch(ctx, g, request[market.Quote]{
		key: sym,
		dt:  market.DataQuote,
		ttl: cache.TTLFor(market.DataQuote, 0),
		call: func(ctx context.Context) (market.Quote, error) {
			return g.provider.Quote(ctx, sym)
		},
		normalize: normalize.Quote,
		fallback: func() (market.Quote, Source) {
			return normalize.Quote(market.Quote{Symbol: sym}), SourceNone
		},
	}), nil
}

// GetOverview returns the company profile, or a synthetic descriptive
// profile when nothing real is available.
func (g *Gateway) GetOverview(ctx context.Context, symbol string) (Result[market.Overview], error) {
	sym, err := market.NormalizeSymbol(symbol)
	if err != nil {
		return Result[market.Overview]{}, invalid(err)
	}
	return fetch(ctx, g, request[market.Overview]{
		key: sym,
		dt:  market.DataOverview,
		ttl: cache.TTLFor(market.DataOverview, 0),
		call: func(ctx context.Context) (market.Overview, error) {
			return g.provider.Overview(ctx, sym)
		},
		normalize: func(o market.Overview) market.Overview {
			return normalize.Overview(sym, o)
		},
		fallback: func() (market.Overview, Source) {
			return normalize.Overview(sym, g.gen.Overview(sym)), SourceFallback
		},
	}), nil
}

// GetTimeSeries returns a price series. ttlOverride, when non-zero, is
// clamped to one hour through one day. The fallback is an empty series:
// invented price history is never served.
func (g *Gateway) GetTimeSeries(ctx context.Context, symbol string, iv market.Interval, size market.OutputSize, ttlOverride time.Duration) (Result[market.TimeSeries], error) {
	sym, err := market.NormalizeSymbol(symbol)
	if err != nil {
		return Result[market.TimeSeries]{}, invalid(err)
	}
	if iv, err = market.ParseInterval(string(iv)); err != nil {
		return Result[market.TimeSeries]{}, invalid(err)
	}
	if size, err = market.ParseOutputSize(string(size)); err != nil {
		return Result[market.TimeSeries]{}, invalid(err)
	}
	dt, err := market.TimeSeriesType(iv, size)
	if err != nil {
		return Result[market.TimeSeries]{}, invalid(err)
	}
	if ttlOverride == 0 {
		ttlOverride = g.opts.TimeSeriesTTL
	}

	return fetch(ctx, g, request[market.TimeSeries]{
		key: sym,
		dt:  dt,
		ttl: cache.TTLFor(dt, ttlOverride),
		call: func(ctx context.Context) (market.TimeSeries, error) {
			return g.provider.TimeSeries(ctx, sym, iv, size)
		},
		normalize: normalize.TimeSeries,
		fallback: func() (market.TimeSeries, Source) {
			return market.TimeSeries{
				Symbol:     sym,
				Interval:   iv,
				OutputSize: size,
				Points:     []market.TimeSeriesPoint{},
			}, SourceNone
		},
	}), nil
}

// GetFinancials returns one statement family. The fallback is a fully
// populated synthetic report.
func (g *Gateway) GetFinancials(ctx context.Context, symbol string, st market.Statement) (Result[market.Financials], error) {
	sym, err := market.NormalizeSymbol(symbol)
	if err != nil {
		return Result[market.Financials]{}, invalid(err)
	}
	dt, err := market.FinancialsType(st)
	if err != nil {
		return Result[market.Financials]{}, invalid(err)
	}

	r := request[market.Financials]{
		key: sym,
		dt:  dt,
		ttl: cache.TTLFor(dt, 0),
		call: func(ctx context.Context) (market.Financials, error) {
			return g.provider.Financials(ctx, sym, st)
		},
		normalize: normalize.Financials,
		fallback: func() (market.Financials, Source) {
			return normalize.Financials(g.gen.Financials(sym, st)), SourceFallback
		},
	}
	if st == market.StatementEarnings {
		r.complete = hasEarnings
	}
	return fetch(ctx, g, r), nil
}

// hasEarnings rejects earnings entries written without their earnings arrays.
func hasEarnings(f market.Financials) bool {
	return f.AnnualEarnings != nil || f.QuarterlyEarnings != nil
}
