package gateway

import (
	"context"
	"encoding/json"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/Rajchodisetti/marketdata-gateway/internal/market"
	"github.com/Rajchodisetti/marketdata-gateway/internal/observ"
	"github.com/Rajchodisetti/marketdata-gateway/internal/upstream"
)

// request describes one data type's variant of the pipeline.
// key is the store's symbol column; for news it is the feed key. complete,
// when set, rejects cached entries that decode but lack required parts.
type request[T any] struct {
	key       string
	dt        market.DataType
	ttl       time.Duration
	call      func(ctx context.Context) (T, error)
	normalize func(T) T
	complete  func(T) bool
	fallback  func() (T, Source)
}

// outcome tags the end of the attempt loop.
type outcome int

const (
	attemptOK outcome = iota
	attemptFailed
	exhausted
)

func labels(dt market.DataType) map[string]string {
	return map[string]string{"data_type": string(dt)}
}

// fetch runs CHECK_CACHE, CHECK_QUOTA, THROTTLE, CALL_UPSTREAM with retry,
// then NORMALIZE and CACHE_WRITE, or FALLBACK.
func fetch[T any](ctx context.Context, g *Gateway, r request[T]) Result[T] {
	start := time.Now()
	log := g.log.With().
		Str("trace_id", uuid.NewString()).
		Str("symbol", r.key).
		Str("data_type", string(r.dt)).
		Logger()

	ctx, cancel := context.WithTimeout(ctx, g.opts.FetchTimeout)
	defer cancel()

	res := resolve(ctx, g, r, log)

	observ.IncCounter("gateway_response_total", map[string]string{
		"data_type": string(r.dt),
		"source":    string(res.Source),
	})
	observ.RecordDuration("gateway_fetch_latency", time.Since(start), labels(r.dt))
	log.Debug().
		Str("source", string(res.Source)).
		Bool("fallback", res.Fallback).
		Dur("elapsed", time.Since(start)).
		Msg("Fetch finished")
	return res
}

func resolve[T any](ctx context.Context, g *Gateway, r request[T], log zerolog.Logger) Result[T] {
	if v, ok := readCache(ctx, g, r, log); ok {
		observ.IncCounter("gateway_cache_hit_total", labels(r.dt))
		return newResult(g, v, SourceCache)
	}
	observ.IncCounter("gateway_cache_miss_total", labels(r.dt))

	if !g.opts.CoalesceInFlight {
		return miss(ctx, g, r, log)
	}

	v, _, shared := g.flights.Do(r.key+"|"+string(r.dt), func() (any, error) {
		// a flight that landed just before this one may have filled the cache
		if v, ok := readCache(ctx, g, r, log); ok {
			return newResult(g, v, SourceCache), nil
		}
		return miss(ctx, g, r, log), nil
	})
	if shared {
		observ.IncCounter("gateway_coalesced_total", labels(r.dt))
	}
	return v.(Result[T])
}

// miss is everything after a cache miss.
func miss[T any](ctx context.Context, g *Gateway, r request[T], log zerolog.Logger) Result[T] {
	if !g.consumeQuota(ctx, r.dt, log) {
		return fallback(g, r)
	}

	v, out := attempt(ctx, g, r, log)
	if out != attemptOK {
		return fallback(g, r)
	}

	if r.normalize != nil {
		v = r.normalize(v)
	}
	writeCache(ctx, g, r, v, log)
	return newResult(g, v, SourceUpstream)
}

func fallback[T any](g *Gateway, r request[T]) Result[T] {
	observ.IncCounter("gateway_fallback_total", labels(r.dt))
	v, src := r.fallback()
	res := newResult(g, v, src)
	res.Fallback = true
	return res
}

func newResult[T any](g *Gateway, v T, src Source) Result[T] {
	return Result[T]{
		Data:      v,
		FromCache: src == SourceCache,
		Source:    src,
		Timestamp: g.now().UTC(),
	}
}

// readCache returns a fresh, decodable and complete entry.
func readCache[T any](ctx context.Context, g *Gateway, r request[T], log zerolog.Logger) (T, bool) {
	var zero T
	raw, ok, err := g.store.Get(ctx, r.key, r.dt)
	if err != nil {
		observ.IncCounter("gateway_store_error_total", map[string]string{"op": "get"})
		log.Warn().Err(err).Msg("Cache read failed; treating as miss")
		return zero, false
	}
	if !ok {
		return zero, false
	}

	var v T
	if err := json.Unmarshal(raw, &v); err != nil {
		log.Warn().Err(err).Msg("Cached entry undecodable; treating as miss")
		return zero, false
	}
	if r.complete != nil && !r.complete(v) {
		log.Warn().Msg("Cached entry incomplete; refetching")
		return zero, false
	}
	return v, true
}

func writeCache[T any](ctx context.Context, g *Gateway, r request[T], v T, log zerolog.Logger) {
	payload, err := json.Marshal(v)
	if err != nil {
		log.Error().Err(err).Msg("Failed to encode cache entry")
		return
	}
	if err := g.store.Set(ctx, r.key, r.dt, payload, r.ttl); err != nil {
		observ.IncCounter("gateway_store_error_total", map[string]string{"op": "set"})
		log.Warn().Err(err).Msg("Cache write failed")
	}
}

// consumeQuota reports whether one upstream call may be made. Backend
// errors deny the call. Trackers publish their own gauges.
func (g *Gateway) consumeQuota(ctx context.Context, dt market.DataType, log zerolog.Logger) bool {
	ok, err := g.quota.TryConsume(ctx)
	if err != nil {
		observ.IncCounter("gateway_store_error_total", map[string]string{"op": "quota"})
		log.Warn().Err(err).Msg("Quota check failed; denying upstream call")
		return false
	}
	if !ok {
		observ.IncCounter("gateway_quota_denied_total", labels(dt))
		log.Info().Msg("Daily quota exhausted; serving fallback")
	}
	return ok
}

// attempt runs the bounded retry loop. The quota unit consumed before the
// loop covers every attempt of it.
func attempt[T any](ctx context.Context, g *Gateway, r request[T], log zerolog.Logger) (T, outcome) {
	var zero T
	for n := 1; n <= g.opts.MaxAttempts; n++ {
		if n > 1 {
			t := time.NewTimer(g.opts.RetryDelay)
			select {
			case <-ctx.Done():
				t.Stop()
				log.Warn().Err(ctx.Err()).Msg("Fetch deadline reached during retry delay")
				return zero, exhausted
			case <-t.C:
			}
		}

		if err := g.gate.AwaitTurn(ctx); err != nil {
			log.Warn().Err(err).Msg("Fetch deadline reached while throttled")
			return zero, exhausted
		}

		v, err := r.call(ctx)
		if err == nil {
			return v, attemptOK
		}

		log.Warn().
			Err(err).
			Int("attempt", n).
			Str("kind", string(upstream.KindOf(err))).
			Msg("Upstream attempt failed")
		if ctx.Err() != nil {
			return zero, exhausted
		}
	}
	return zero, attemptFailed
}
