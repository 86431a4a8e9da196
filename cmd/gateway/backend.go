package main

import (
	"context"
	"fmt"

	"github.com/rs/zerolog"

	"github.com/Rajchodisetti/marketdata-gateway/internal/cache"
	"github.com/Rajchodisetti/marketdata-gateway/internal/config"
	"github.com/Rajchodisetti/marketdata-gateway/internal/gateway"
	"github.com/Rajchodisetti/marketdata-gateway/internal/quota"
	"github.com/Rajchodisetti/marketdata-gateway/internal/storage/postgres"
	"github.com/Rajchodisetti/marketdata-gateway/internal/storage/redis"
	"github.com/Rajchodisetti/marketdata-gateway/internal/storage/sqlite"
	"github.com/Rajchodisetti/marketdata-gateway/internal/throttle"
	"github.com/Rajchodisetti/marketdata-gateway/internal/upstream"
)

// backend is a cache store and the quota tracker sharing its connection.
type backend struct {
	store cache.Store
	quota quota.Tracker
	close func() error
}

func openBackend(ctx context.Context, cfg config.Store, limit int, log zerolog.Logger) (*backend, error) {
	log = log.With().Str("backend", cfg.Backend).Logger()

	switch cfg.Backend {
	case "memory":
		log.Warn().Msg("In-memory store: cache and quota are not shared between instances")
		return &backend{
			store: cache.NewMemory(),
			quota: quota.NewMemory(limit),
			close: func() error { return nil },
		}, nil

	case "sqlite":
		s, err := sqlite.Open(cfg.DSN, limit)
		if err != nil {
			return nil, err
		}
		log.Info().Str("path", cfg.DSN).Msg("SQLite store opened")
		return &backend{store: s, quota: s, close: s.Close}, nil

	case "postgres":
		s, err := postgres.Open(ctx, cfg.DSN, limit)
		if err != nil {
			return nil, err
		}
		if err := s.Migrate(ctx); err != nil {
			s.Close()
			return nil, err
		}
		log.Info().Msg("Postgres store opened")
		return &backend{store: s, quota: s, close: s.Close}, nil

	case "redis":
		s, err := redis.Open(ctx, redis.Options{
			Addr:     cfg.RedisAddr,
			Password: cfg.RedisPassword,
			DB:       cfg.RedisDB,
			Prefix:   cfg.KeyPrefix,
		}, limit)
		if err != nil {
			return nil, err
		}
		log.Info().Str("addr", cfg.RedisAddr).Msg("Redis store opened")
		return &backend{store: s, quota: s, close: s.Close}, nil
	}
	return nil, fmt.Errorf("unknown store backend %q", cfg.Backend)
}

// app is everything a command needs.
type app struct {
	cfg     config.Root
	log     zerolog.Logger
	backend *backend
	gw      *gateway.Gateway
}

func (a *app) Close() error { return a.backend.close() }

func buildApp(ctx context.Context, cfg config.Root, log zerolog.Logger) (*app, error) {
	b, err := openBackend(ctx, cfg.Store, cfg.Quota.DailyLimit, log)
	if err != nil {
		return nil, fmt.Errorf("open store: %w", err)
	}

	provider, err := upstream.New(cfg.Upstream, log)
	if err != nil {
		b.close()
		return nil, fmt.Errorf("upstream: %w", err)
	}

	var opts []throttle.Option
	if cfg.Throttle.PerMinute > 0 {
		opts = append(opts, throttle.WithPerMinute(cfg.Throttle.PerMinute))
	}

	gw := gateway.New(gateway.Deps{
		Store:    b.store,
		Quota:    b.quota,
		Gate:     throttle.NewInterval(cfg.Throttle.MinInterval(), opts...),
		Provider: provider,
		Prices:   cache.NewPriceCache(cfg.Cache.PriceTTL()),
		Logger:   log,
	}, gateway.OptionsFromConfig(cfg))

	log.Info().
		Str("provider", provider.Name()).
		Str("store", cfg.Store.Backend).
		Int("daily_limit", cfg.Quota.DailyLimit).
		Dur("min_interval", cfg.Throttle.MinInterval()).
		Bool("coalesce", cfg.Fetch.CoalesceInFlight).
		Msg("Gateway configured")

	return &app{cfg: cfg, log: log, backend: b, gw: gw}, nil
}
