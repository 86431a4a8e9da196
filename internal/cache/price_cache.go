package cache

import (
	"strings"
	"sync"
	"time"

	"github.com/Rajchodisetti/marketdata-gateway/internal/market"
	"github.com/Rajchodisetti/marketdata-gateway/internal/observ"
)

// PriceCache is the in-process cache behind batch price lookups. Expiry is
// lazy: a stale entry is removed by the Get that finds it, or by Sweep.
type PriceCache struct {
	mu      sync.Mutex
	quotes  map[string]cachedPrice
	ttl     time.Duration
	now     func() time.Time
	metrics PriceCacheMetrics
}

type cachedPrice struct {
	quote    market.Quote
	cachedAt time.Time
}

// PriceCacheMetrics tracks cache performance
type PriceCacheMetrics struct {
	Hits      int64 `json:"hits"`
	Misses    int64 `json:"misses"`
	Evictions int64 `json:"evictions"`
}

// PriceCacheStats is a point-in-time view of the cache contents.
type PriceCacheStats struct {
	Total   int               `json:"total"`
	Fresh   int               `json:"fresh"`
	Stale   int               `json:"stale"`
	TTL     string            `json:"ttl"`
	Metrics PriceCacheMetrics `json:"metrics"`
}

// NewPriceCache creates a price cache. A non-positive ttl uses TTLPrice.
func NewPriceCache(ttl time.Duration) *PriceCache {
	if ttl <= 0 {
		ttl = TTLPrice
	}
	return &PriceCache{
		quotes: make(map[string]cachedPrice),
		ttl:    ttl,
		now:    time.Now,
	}
}

// WithClock replaces the time source. Used by tests.
func (pc *PriceCache) WithClock(now func() time.Time) *PriceCache {
	pc.now = now
	return pc
}

// Get returns the cached quote for symbol if it is still fresh.
func (pc *PriceCache) Get(symbol string) (market.Quote, bool) {
	symbol = strings.ToUpper(symbol)

	pc.mu.Lock()
	defer pc.mu.Unlock()

	cached, ok := pc.quotes[symbol]
	if ok && pc.now().Sub(cached.cachedAt) >= pc.ttl {
		delete(pc.quotes, symbol)
		pc.metrics.Evictions++
		ok = false
	}
	if !ok {
		pc.metrics.Misses++
		observ.IncCounter("price_cache_miss_total", nil)
		return market.Quote{}, false
	}

	pc.metrics.Hits++
	observ.IncCounter("price_cache_hit_total", nil)
	return cached.quote, true
}

// Set stores a quote.
func (pc *PriceCache) Set(symbol string, q market.Quote) {
	symbol = strings.ToUpper(symbol)

	pc.mu.Lock()
	defer pc.mu.Unlock()
	pc.quotes[symbol] = cachedPrice{quote: q, cachedAt: pc.now()}
	observ.SetGauge("price_cache_size", float64(len(pc.quotes)), nil)
}

// GetMany splits symbols into cached quotes and the ones still missing.
func (pc *PriceCache) GetMany(symbols []string) (map[string]market.Quote, []string) {
	found := make(map[string]market.Quote, len(symbols))
	var missing []string
	for _, s := range symbols {
		if q, ok := pc.Get(s); ok {
			found[strings.ToUpper(s)] = q
			continue
		}
		missing = append(missing, s)
	}
	return found, missing
}

// Has reports whether a fresh quote is cached without counting a hit.
func (pc *PriceCache) Has(symbol string) bool {
	pc.mu.Lock()
	defer pc.mu.Unlock()
	cached, ok := pc.quotes[strings.ToUpper(symbol)]
	return ok && pc.now().Sub(cached.cachedAt) < pc.ttl
}

// Sweep removes stale entries and returns how many were evicted.
func (pc *PriceCache) Sweep() int {
	pc.mu.Lock()
	defer pc.mu.Unlock()

	now := pc.now()
	evicted := 0
	for symbol, cached := range pc.quotes {
		if now.Sub(cached.cachedAt) >= pc.ttl {
			delete(pc.quotes, symbol)
			evicted++
		}
	}
	pc.metrics.Evictions += int64(evicted)

	if evicted > 0 {
		observ.IncCounterBy("price_cache_evictions_total", nil, float64(evicted))
	}
	observ.SetGauge("price_cache_size", float64(len(pc.quotes)), nil)
	return evicted
}

// Delete drops one symbol.
func (pc *PriceCache) Delete(symbol string) {
	pc.mu.Lock()
	defer pc.mu.Unlock()
	delete(pc.quotes, strings.ToUpper(symbol))
	observ.SetGauge("price_cache_size", float64(len(pc.quotes)), nil)
}

// Clear drops every entry.
func (pc *PriceCache) Clear() {
	pc.mu.Lock()
	defer pc.mu.Unlock()
	pc.quotes = make(map[string]cachedPrice)
	observ.SetGauge("price_cache_size", 0, nil)
}

// Stats counts fresh and stale entries without evicting anything.
func (pc *PriceCache) Stats() PriceCacheStats {
	pc.mu.Lock()
	defer pc.mu.Unlock()

	now := pc.now()
	st := PriceCacheStats{Total: len(pc.quotes), TTL: pc.ttl.String(), Metrics: pc.metrics}
	for _, cached := range pc.quotes {
		if now.Sub(cached.cachedAt) < pc.ttl {
			st.Fresh++
		} else {
			st.Stale++
		}
	}
	return st
}
