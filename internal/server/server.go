// Package server exposes the gateway over HTTP.
package server

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/rs/zerolog"

	"github.com/Rajchodisetti/marketdata-gateway/internal/gateway"
	"github.com/Rajchodisetti/marketdata-gateway/internal/observ"
)

// Config holds server configuration
type Config struct {
	Port        int
	CORSOrigins []string
	Gateway     *gateway.Gateway
	Log         zerolog.Logger
}

// Server is the HTTP front of the gateway
type Server struct {
	router *chi.Mux
	server *http.Server
	gw     *gateway.Gateway
	log    zerolog.Logger
	port   int
}

// New creates a server with every route mounted
func New(cfg Config) *Server {
	s := &Server{
		router: chi.NewRouter(),
		gw:     cfg.Gateway,
		log:    cfg.Log.With().Str("component", "server").Logger(),
		port:   cfg.Port,
	}

	s.setupMiddleware(cfg.CORSOrigins)
	s.setupRoutes()

	// a fetch may wait on the throttle and retry once before answering
	s.server = &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.Port),
		Handler:           s.router,
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       15 * time.Second,
		WriteTimeout:      60 * time.Second,
		IdleTimeout:       60 * time.Second,
	}
	return s
}

// Handler returns the router, for tests and embedding
func (s *Server) Handler() http.Handler { return s.router }

func (s *Server) setupMiddleware(origins []string) {
	s.router.Use(middleware.Recoverer)
	s.router.Use(middleware.RequestID)
	s.router.Use(middleware.RealIP)
	s.router.Use(s.loggingMiddleware)

	s.router.Use(cors.Handler(cors.Options{
		AllowedOrigins: origins,
		AllowedMethods: []string{"GET", "POST", "DELETE", "OPTIONS"},
		AllowedHeaders: []string{"Accept", "Authorization", "Content-Type"},
		MaxAge:         300,
	}))
}

func (s *Server) setupRoutes() {
	s.router.Method(http.MethodGet, "/health", observ.HealthHandler())
	s.router.Method(http.MethodGet, "/healthz", observ.Health())
	s.router.Method(http.MethodGet, "/metrics", observ.Handler())

	s.router.Route("/api", func(r chi.Router) {
		r.Get("/quote/{symbol}", s.handleQuote)
		r.Get("/overview/{symbol}", s.handleOverview)
		r.Get("/timeseries/{symbol}", s.handleTimeSeries)
		r.Get("/financials/{symbol}/{statement}", s.handleFinancials)
		r.Get("/news", s.handleNews)
		r.Post("/prices", s.handlePrices)
		r.Get("/usage", s.handleUsage)
		r.Delete("/cache/{symbol}", s.handleClear)
	})
}

// Start serves until Shutdown
func (s *Server) Start() error {
	s.log.Info().Int("port", s.port).Msg("Starting HTTP server")
	if err := s.server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return err
	}
	return nil
}

// Shutdown gracefully shuts down the server
func (s *Server) Shutdown(ctx context.Context) error {
	s.log.Info().Msg("Shutting down HTTP server")
	return s.server.Shutdown(ctx)
}

func (s *Server) loggingMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()

		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		next.ServeHTTP(ww, r)

		observ.IncCounter("http_requests_total", map[string]string{
			"method": r.Method,
			"status": fmt.Sprintf("%d", ww.Status()),
		})
		s.log.Info().
			Str("method", r.Method).
			Str("path", r.URL.Path).
			Int("status", ww.Status()).
			Int("bytes", ww.BytesWritten()).
			Dur("duration_ms", time.Since(start)).
			Str("request_id", middleware.GetReqID(r.Context())).
			Msg("HTTP request")
	})
}
