package jobs

import (
	"context"
	"time"

	"github.com/rs/zerolog"

	"github.com/Rajchodisetti/marketdata-gateway/internal/cache"
	"github.com/Rajchodisetti/marketdata-gateway/internal/observ"
)

// PriceSweep evicts stale quotes from the in-process price cache.
type PriceSweep struct {
	Prices *cache.PriceCache
	Log    zerolog.Logger
}

func (j PriceSweep) Name() string { return "price_sweep" }

func (j PriceSweep) Run() error {
	n := j.Prices.Sweep()
	if n > 0 {
		j.Log.Debug().Int("evicted", n).Msg("Price cache swept")
	}
	return nil
}

// ExpiredPurge deletes expired rows from a store that keeps them. Reads
// already ignore such rows; this only reclaims space.
type ExpiredPurge struct {
	Store   cache.Sweeper
	Timeout time.Duration
	Log     zerolog.Logger
}

func (j ExpiredPurge) Name() string { return "expired_purge" }

func (j ExpiredPurge) Run() error {
	timeout := j.Timeout
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()

	n, err := j.Store.DeleteExpired(ctx)
	if err != nil {
		return err
	}
	observ.IncCounterBy("cache_expired_purged_total", nil, float64(n))
	j.Log.Info().Int64("deleted", n).Msg("Expired cache entries purged")
	return nil
}

// Register adds the maintenance jobs that apply to store. Stores with
// native expiry get no purge job.
func Register(s *Scheduler, prices *cache.PriceCache, store cache.Store, sweepSpec, purgeSpec string, log zerolog.Logger) error {
	if err := s.AddJob(sweepSpec, PriceSweep{Prices: prices, Log: log}); err != nil {
		return err
	}
	if sw, ok := store.(cache.Sweeper); ok {
		return s.AddJob(purgeSpec, ExpiredPurge{Store: sw, Log: log})
	}
	return nil
}
