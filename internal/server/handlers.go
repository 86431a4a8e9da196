package server

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/Rajchodisetti/marketdata-gateway/internal/gateway"
	"github.com/Rajchodisetti/marketdata-gateway/internal/market"
)

const maxBodyBytes = 64 << 10

type errorResponse struct {
	Error string `json:"error"`
}

func (s *Server) writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(body); err != nil {
		s.log.Warn().Err(err).Msg("Failed to encode response")
	}
}

// writeError maps invalid input to 400. Anything else reaching here is a
// backend read with no fallback.
func (s *Server) writeError(w http.ResponseWriter, err error) {
	status := http.StatusServiceUnavailable
	if errors.Is(err, gateway.ErrInvalidInput) {
		status = http.StatusBadRequest
	}
	s.writeJSON(w, status, errorResponse{Error: err.Error()})
}

func badRequest(format string, args ...any) error {
	return fmt.Errorf("%w: %s", gateway.ErrInvalidInput, fmt.Sprintf(format, args...))
}

func (s *Server) handleQuote(w http.ResponseWriter, r *http.Request) {
	res, err := s.gw.GetQuote(r.Context(), chi.URLParam(r, "symbol"))
	if err != nil {
		s.writeError(w, err)
		return
	}
	s.writeJSON(w, http.StatusOK, res)
}

func (s *Server) handleOverview(w http.ResponseWriter, r *http.Request) {
	res, err := s.gw.GetOverview(r.Context(), chi.URLParam(r, "symbol"))
	if err != nil {
		s.writeError(w, err)
		return
	}
	s.writeJSON(w, http.StatusOK, res)
}

func (s *Server) handleTimeSeries(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()

	var ttl time.Duration
	if v := q.Get("ttl_minutes"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 0 {
			s.writeError(w, badRequest("ttl_minutes must be a non-negative integer"))
			return
		}
		ttl = time.Duration(n) * time.Minute
	}

	res, err := s.gw.GetTimeSeries(r.Context(), chi.URLParam(r, "symbol"),
		market.Interval(q.Get("interval")), market.OutputSize(q.Get("outputsize")), ttl)
	if err != nil {
		s.writeError(w, err)
		return
	}
	s.writeJSON(w, http.StatusOK, res)
}

func (s *Server) handleFinancials(w http.ResponseWriter, r *http.Request) {
	st, err := market.ParseStatement(chi.URLParam(r, "statement"))
	if err != nil {
		s.writeError(w, badRequest("%v", err))
		return
	}
	res, err := s.gw.GetFinancials(r.Context(), chi.URLParam(r, "symbol"), st)
	if err != nil {
		s.writeError(w, err)
		return
	}
	s.writeJSON(w, http.StatusOK, res)
}

func (s *Server) handleNews(w http.ResponseWriter, r *http.Request) {
	f, err := parseNewsFilters(r)
	if err != nil {
		s.writeError(w, err)
		return
	}
	res, err := s.gw.GetNews(r.Context(), f)
	if err != nil {
		s.writeError(w, err)
		return
	}
	s.writeJSON(w, http.StatusOK, res)
}

func splitList(v string) []string {
	if v == "" {
		return nil
	}
	var out []string
	for _, p := range strings.Split(v, ",") {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}

func parseNewsFilters(r *http.Request) (market.NewsFilters, error) {
	q := r.URL.Query()
	f := market.DefaultNewsFilters()
	f.Tickers = splitList(q.Get("tickers"))
	f.Topics = splitList(q.Get("topics"))

	ints := []struct {
		name string
		dst  *int
	}{
		{"limit", &f.Limit},
		{"offset", &f.Offset},
		{"hours_ago", &f.HoursAgo},
	}
	for _, p := range ints {
		v := q.Get(p.name)
		if v == "" {
			continue
		}
		n, err := strconv.Atoi(v)
		if err != nil {
			return f, badRequest("%s must be an integer", p.name)
		}
		*p.dst = n
	}

	floats := []struct {
		name string
		dst  *float64
	}{
		{"sentiment_min", &f.SentimentMin},
		{"sentiment_max", &f.SentimentMax},
	}
	for _, p := range floats {
		v := q.Get(p.name)
		if v == "" {
			continue
		}
		x, err := strconv.ParseFloat(v, 64)
		if err != nil {
			return f, badRequest("%s must be a number", p.name)
		}
		*p.dst = x
	}
	return f, nil
}

type pricesRequest struct {
	Tickers []string `json:"tickers"`
}

func (s *Server) handlePrices(w http.ResponseWriter, r *http.Request) {
	var req pricesRequest
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	if err := dec.Decode(&req); err != nil {
		s.writeError(w, badRequest("invalid JSON body: %v", err))
		return
	}
	out, err := s.gw.GetPrices(r.Context(), req.Tickers)
	if err != nil {
		s.writeError(w, err)
		return
	}
	s.writeJSON(w, http.StatusOK, out)
}

func (s *Server) handleUsage(w http.ResponseWriter, r *http.Request) {
	u, err := s.gw.Usage(r.Context())
	if err != nil {
		s.log.Error().Err(err).Msg("Usage lookup failed")
		s.writeError(w, err)
		return
	}
	s.writeJSON(w, http.StatusOK, u)
}

func (s *Server) handleClear(w http.ResponseWriter, r *http.Request) {
	var dt market.DataType
	if v := r.URL.Query().Get("data_type"); v != "" {
		parsed, err := market.ParseDataType(v)
		if err != nil {
			s.writeError(w, badRequest("%v", err))
			return
		}
		dt = parsed
	}

	n, err := s.gw.Clear(r.Context(), chi.URLParam(r, "symbol"), dt)
	if err != nil {
		s.writeError(w, err)
		return
	}
	s.writeJSON(w, http.StatusOK, map[string]int64{"removed": n})
}
