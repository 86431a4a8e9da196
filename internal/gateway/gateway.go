// Package gateway mediates every market data request between callers and the
// upstream provider. A request goes cache, quota, throttle, upstream, in that
// order, and always ends in a Result: upstream or store trouble degrades to a
// fallback, never to an error.
package gateway

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/sync/singleflight"

	"github.com/Rajchodisetti/marketdata-gateway/internal/cache"
	"github.com/Rajchodisetti/marketdata-gateway/internal/config"
	"github.com/Rajchodisetti/marketdata-gateway/internal/market"
	"github.com/Rajchodisetti/marketdata-gateway/internal/quota"
	"github.com/Rajchodisetti/marketdata-gateway/internal/synthetic"
	"github.com/Rajchodisetti/marketdata-gateway/internal/throttle"
	"github.com/Rajchodisetti/marketdata-gateway/internal/upstream"
)

// Source tells the caller where a result came from.
type Source string

const (
	SourceCache    Source = "cache"
	SourceUpstream Source = "alpha_vantage"
	SourceFallback Source = "fallback"
	SourceNone     Source = "none"
)

// Result is the envelope of every fetch.
type Result[T any] struct {
	Data      T         `json:"data"`
	FromCache bool      `json:"fromCache"`
	Fallback  bool      `json:"fallback"`
	Source    Source    `json:"source"`
	Timestamp time.Time `json:"timestamp"`
}

// ErrInvalidInput wraps every caller input error. It is the only error
// gateway methods return.
var ErrInvalidInput = errors.New("invalid input")

func invalid(err error) error {
	return fmt.Errorf("%w: %v", ErrInvalidInput, err)
}

// Options tunes the fetch pipeline. Zero values take defaults.
type Options struct {
	MaxAttempts      int
	RetryDelay       time.Duration
	FetchTimeout     time.Duration
	CoalesceInFlight bool
	TimeSeriesTTL    time.Duration
	NewsTTL          time.Duration
	NewsFetchLimit   int
}

// OptionsFromConfig maps the fetch and cache sections of the config.
func OptionsFromConfig(cfg config.Root) Options {
	return Options{
		MaxAttempts:      cfg.Fetch.MaxAttempts,
		RetryDelay:       cfg.Fetch.RetryDelay(),
		FetchTimeout:     cfg.Fetch.Timeout(),
		CoalesceInFlight: cfg.Fetch.CoalesceInFlight,
		TimeSeriesTTL:    cfg.Cache.TimeSeriesTTL(),
		NewsTTL:          cfg.Cache.NewsTTL(),
	}
}

func (o *Options) applyDefaults() {
	if o.MaxAttempts <= 0 {
		o.MaxAttempts = 2
	}
	if o.RetryDelay <= 0 {
		o.RetryDelay = 600 * time.Millisecond
	}
	if o.FetchTimeout <= 0 {
		o.FetchTimeout = 20 * time.Second
	}
	if o.NewsFetchLimit <= 0 {
		o.NewsFetchLimit = 200
	}
}

// Deps are the collaborators of a Gateway. Store, Quota, Gate and Provider
// are required.
type Deps struct {
	Store     cache.Store
	Quota     quota.Tracker
	Gate      throttle.Gate
	Provider  upstream.Provider
	Prices    *cache.PriceCache
	Synthetic *synthetic.Generator
	Logger    zerolog.Logger
}

// Gateway is safe for concurrent use.
type Gateway struct {
	store    cache.Store
	quota    quota.Tracker
	gate     throttle.Gate
	provider upstream.Provider
	prices   *cache.PriceCache
	gen      *synthetic.Generator
	opts     Options
	log      zerolog.Logger
	flights  singleflight.Group
	now      func() time.Time
}

// New builds a gateway.
func New(d Deps, opts Options) *Gateway {
	opts.applyDefaults()
	if d.Gate == nil {
		d.Gate = throttle.Unlimited{}
	}
	if d.Prices == nil {
		d.Prices = cache.NewPriceCache(cache.TTLPrice)
	}
	if d.Synthetic == nil {
		d.Synthetic = synthetic.New(0)
	}
	return &Gateway{
		store:    d.Store,
		quota:    d.Quota,
		gate:     d.Gate,
		provider: d.Provider,
		prices:   d.Prices,
		gen:      d.Synthetic,
		opts:     opts,
		log:      d.Logger.With().Str("component", "gateway").Logger(),
		now:      time.Now,
	}
}

// WithClock replaces the time source of result timestamps and news windows.
func (g *Gateway) WithClock(now func() time.Time) *Gateway {
	g.now = now
	return g
}

// Prices exposes the in-process price cache for maintenance jobs.
func (g *Gateway) Prices() *cache.PriceCache { return g.prices }

// Usage returns today's quota counter. Errors come from the backend.
func (g *Gateway) Usage(ctx context.Context) (quota.Usage, error) {
	u, err := g.quota.Usage(ctx)
	if err != nil {
		return quota.Usage{}, err
	}
	quota.Publish(u)
	return u, nil
}

// Clear drops cached entries of symbol, all types when dt is empty, and the
// in-process price. It reports how many store entries were removed.
func (g *Gateway) Clear(ctx context.Context, symbol string, dt market.DataType) (int64, error) {
	sym, err := market.NormalizeSymbol(symbol)
	if err != nil {
		return 0, invalid(err)
	}
	if dt == "" || dt == market.DataQuote {
		g.prices.Delete(sym)
	}
	c, ok := g.store.(cache.Clearer)
	if !ok {
		return 0, fmt.Errorf("store %T does not support clear", g.store)
	}
	n, err := c.Clear(ctx, sym, dt)
	if err != nil {
		return 0, err
	}
	g.log.Info().Str("symbol", sym).Str("data_type", string(dt)).Int64("removed", n).Msg("Cache cleared")
	return n, nil
}
