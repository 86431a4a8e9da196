package observ

import (
	"encoding/json"
	"net/http"
	"sort"
	"strings"
	"sync"
	"time"
)

type registry struct {
	mu       sync.Mutex
	counters map[string]map[string]int64 // name -> labelsKey -> count
	gauges   map[string]map[string]float64 // name -> labelsKey -> value
	hist     map[string]map[string][]float64
}

var reg = &registry{
	counters: map[string]map[string]int64{},
	gauges:   map[string]map[string]float64{},
	hist:     map[string]map[string][]float64{},
}

// canonicalize label map so key order is stable
func canonLabels(lbl map[string]string) string {
	if len(lbl) == 0 {
		return ""
	}
	keys := make([]string, 0, len(lbl))
	for k := range lbl {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	var b strings.Builder
	for i, k := range keys {
		if i > 0 {
			b.WriteString(",")
		}
		b.WriteString(k)
		b.WriteString("=")
		b.WriteString(lbl[k])
	}
	return b.String()
}

func IncCounter(name string, labels map[string]string) {
	IncCounterBy(name, labels, 1.0)
}

func IncCounterBy(name string, labels map[string]string, value float64) {
	reg.mu.Lock()
	defer reg.mu.Unlock()
	m, ok := reg.counters[name]
	if !ok {
		m = map[string]int64{}
		reg.counters[name] = m
	}
	k := canonLabels(labels)
	m[k] += int64(value)
}

func SetGauge(name string, value float64, labels map[string]string) {
	reg.mu.Lock()
	defer reg.mu.Unlock()
	m, ok := reg.gauges[name]
	if !ok {
		m = map[string]float64{}
		reg.gauges[name] = m
	}
	k := canonLabels(labels)
	m[k] = value
}

func Observe(name string, value float64, labels map[string]string) {
	reg.mu.Lock()
	defer reg.mu.Unlock()
	m, ok := reg.hist[name]
	if !ok {
		m = map[string][]float64{}
		reg.hist[name] = m
	}
	k := canonLabels(labels)
	m[k] = append(m[k], value)
}

// RecordHistogram records a histogram observation
func RecordHistogram(name string, value float64, labels map[string]string) {
	Observe(name, value, labels)
}

// RecordGauge records a gauge value
func RecordGauge(name string, value float64, labels map[string]string) {
	SetGauge(name, value, labels)
}

// RecordDuration records a duration metric
func RecordDuration(name string, duration time.Duration, labels map[string]string) {
	Observe(name+"_ms", float64(duration.Milliseconds()), labels)
}

// Basic JSON dump for quick checks (not Prometheus format)
func Handler() http.Handler {
	type dump struct {
		Counters map[string]map[string]int64     `json:"counters"`
		Gauges   map[string]map[string]float64   `json:"gauges"`
		Hist     map[string]map[string][]float64 `json:"histograms"`
	}
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		reg.mu.Lock()
		defer reg.mu.Unlock()
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(dump{Counters: reg.counters, Gauges: reg.gauges, Hist: reg.hist})
	})
}

// CounterValue sums a counter across all label sets.
func CounterValue(name string) int64 {
	reg.mu.Lock()
	defer reg.mu.Unlock()
	return sumCounter(name)
}

// GaugeValue returns a gauge without labels, or any label set of it.
func GaugeValue(name string) (float64, bool) {
	reg.mu.Lock()
	defer reg.mu.Unlock()
	return firstGauge(name)
}

// Reset clears every metric. Used by tests.
func Reset() {
	reg.mu.Lock()
	defer reg.mu.Unlock()
	reg.counters = map[string]map[string]int64{}
	reg.gauges = map[string]map[string]float64{}
	reg.hist = map[string]map[string][]float64{}
}

func sumCounter(name string) int64 {
	var total int64
	for _, n := range reg.counters[name] {
		total += n
	}
	return total
}

func firstGauge(name string) (float64, bool) {
	for _, v := range reg.gauges[name] {
		return v, true
	}
	return 0, false
}

func p95(name string) int64 {
	var all []float64
	for _, samples := range reg.hist[name] {
		all = append(all, samples...)
	}
	if len(all) == 0 {
		return 0
	}
	sort.Float64s(all)
	idx := int(float64(len(all)) * 0.95)
	if idx >= len(all) {
		idx = len(all) - 1
	}
	return int64(all[idx])
}

// HealthStatus represents overall gateway health
type HealthStatus struct {
	Status    string         `json:"status"`    // "healthy", "degraded", "failed"
	Timestamp string         `json:"timestamp"` // ISO 8601
	Uptime    string         `json:"uptime"`
	Version   string         `json:"version"`
	Metrics   HealthMetrics  `json:"metrics"`
	Details   map[string]any `json:"details"`
}

// HealthMetrics holds the key gateway rates
type HealthMetrics struct {
	Requests         int64   `json:"requests"`
	CacheHitRate     float64 `json:"cache_hit_rate"`
	UpstreamCalls    int64   `json:"upstream_calls"`
	UpstreamFailRate float64 `json:"upstream_fail_rate"`
	FallbackRate     float64 `json:"fallback_rate"`
	FetchLatencyP95  int64   `json:"fetch_latency_p95_ms"`

	// Daily quota (from gauges)
	QuotaUsed         int     `json:"quota_used"`
	QuotaLimit        int     `json:"quota_limit"`
	QuotaRemainingPct float64 `json:"quota_remaining_pct"`
}

var (
	startTime = time.Now()
	version   = "dev" // Set via build flags
)

// SetVersion sets the version string for health reports
func SetVersion(v string) {
	version = v
}

// HealthHandler reports gateway health derived from the registry
func HealthHandler() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		reg.mu.Lock()
		metrics := calculateHealthMetrics()
		health := HealthStatus{
			Status:    overallStatus(metrics),
			Timestamp: time.Now().UTC().Format(time.RFC3339),
			Uptime:    time.Since(startTime).String(),
			Version:   version,
			Metrics:   metrics,
			Details:   gatherHealthDetails(),
		}
		reg.mu.Unlock()

		// degraded answers 200, only failed maps to 503
		statusCode := http.StatusOK
		if health.Status == "failed" {
			statusCode = http.StatusServiceUnavailable
		}

		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(statusCode)
		_ = json.NewEncoder(w).Encode(health)
	})
}

func calculateHealthMetrics() HealthMetrics {
	m := HealthMetrics{}

	hits := sumCounter("gateway_cache_hit_total")
	misses := sumCounter("gateway_cache_miss_total")
	m.Requests = hits + misses
	if m.Requests > 0 {
		m.CacheHitRate = float64(hits) / float64(m.Requests)
		m.FallbackRate = float64(sumCounter("gateway_fallback_total")) / float64(m.Requests)
	}

	m.UpstreamCalls = sumCounter("gateway_upstream_call_total")
	if m.UpstreamCalls > 0 {
		m.UpstreamFailRate = float64(sumCounter("gateway_upstream_failure_total")) / float64(m.UpstreamCalls)
	}
	m.FetchLatencyP95 = p95("gateway_fetch_latency_ms")

	if used, ok := firstGauge("gateway_quota_used"); ok {
		m.QuotaUsed = int(used)
	}
	if limit, ok := firstGauge("gateway_quota_limit"); ok {
		m.QuotaLimit = int(limit)
	}
	if m.QuotaLimit > 0 {
		m.QuotaRemainingPct = float64(m.QuotaLimit-m.QuotaUsed) / float64(m.QuotaLimit)
	}
	return m
}

func overallStatus(m HealthMetrics) string {
	// 0 = failed, 0.5 = degraded, 1 = healthy
	if status, ok := firstGauge("provider_status"); ok && status == 0 {
		return "degraded"
	}
	if m.UpstreamCalls > 20 && m.UpstreamFailRate > 0.5 {
		return "degraded"
	}
	// every lookup hitting a store error means the cache is down
	if storeErrs := sumCounter("gateway_store_error_total"); m.Requests > 10 && storeErrs >= m.Requests {
		return "failed"
	}
	return "healthy"
}

func gatherHealthDetails() map[string]any {
	details := map[string]any{}

	bySource := map[string]int64{}
	for labels, n := range reg.counters["gateway_response_total"] {
		bySource[labels] = n
	}
	details["responses"] = bySource

	if size, ok := firstGauge("price_cache_size"); ok {
		details["price_cache_size"] = int(size)
	}
	details["quota_denied"] = sumCounter("gateway_quota_denied_total")
	details["store_errors"] = sumCounter("gateway_store_error_total")

	if errs, ok := reg.counters["upstream_errors_by_kind"]; ok {
		type errorCount struct {
			Kind  string `json:"kind"`
			Count int64  `json:"count"`
		}
		var top []errorCount
		for kind, n := range errs {
			top = append(top, errorCount{Kind: kind, Count: n})
		}
		sort.Slice(top, func(i, j int) bool { return top[i].Count > top[j].Count })
		if len(top) > 5 {
			top = top[:5]
		}
		details["top_errors"] = top
	}
	return details
}

// Simple liveness handler
func Health() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})
}
