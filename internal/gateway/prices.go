package gateway

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/Rajchodisetti/marketdata-gateway/internal/market"
	"github.com/Rajchodisetti/marketdata-gateway/internal/observ"
)

// maxBatch bounds one price request.
const maxBatch = 100

// Prices is the answer to a batch price request.
type Prices struct {
	Quotes    map[string]market.Quote `json:"quotes"`
	Sources   map[string]Source       `json:"sources"`
	Missing   []string                `json:"missing"`
	Cached    int                     `json:"cached"`
	Timestamp time.Time               `json:"timestamp"`
}

// GetPrices serves a batch from the in-process price cache and sends each
// miss through the quote pipeline. Only quotes fresh from upstream enter the
// price cache. Symbols with no quote anywhere are
// listed in Missing; invalid entries are dropped.
func (g *Gateway) GetPrices(ctx context.Context, symbols []string) (Prices, error) {
	syms := market.NormalizeSymbols(symbols)
	if len(syms) == 0 {
		return Prices{}, invalid(errors.New("no valid tickers"))
	}
	if len(syms) > maxBatch {
		return Prices{}, invalid(fmt.Errorf("at most %d tickers per request", maxBatch))
	}

	found, misses := g.prices.GetMany(syms)
	out := Prices{
		Quotes:  found,
		Sources: make(map[string]Source, len(syms)),
		Missing: []string{},
		Cached:  len(found),
	}
	for sym := range found {
		out.Sources[sym] = SourceCache
	}

	for _, sym := range misses {
		res, err := g.GetQuote(ctx, sym)
		if err != nil || res.Fallback {
			out.Missing = append(out.Missing, sym)
			continue
		}
		// a store hit is already part way through its TTL
		if res.Source == SourceUpstream {
			g.prices.Set(sym, res.Data)
		}
		out.Quotes[sym] = res.Data
		out.Sources[sym] = res.Source
	}

	observ.IncCounterBy("gateway_price_batch_symbols_total", nil, float64(len(syms)))
	out.Timestamp = g.now().UTC()
	return out, nil
}
