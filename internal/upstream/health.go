package upstream

import (
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/Rajchodisetti/marketdata-gateway/internal/observ"
)

// ProviderStatus represents the health state of the upstream
type ProviderStatus string

const (
	ProviderStatusHealthy  ProviderStatus = "healthy"
	ProviderStatusDegraded ProviderStatus = "degraded"
	ProviderStatusFailed   ProviderStatus = "failed"
)

// ProviderHealth tracks upstream reliability. It only informs /health and
// logs; the gateway still attempts every call it has quota for.
type ProviderHealth struct {
	mu                sync.RWMutex
	name              string
	status            ProviderStatus
	lastSuccessful    time.Time
	lastError         time.Time
	errorCount        int64
	successCount      int64
	consecutiveErrors int
	latencyAvg        time.Duration
	log               zerolog.Logger
	now               func() time.Time

	// Health thresholds
	degradedErrorRate    float64       // 0.20 = 20%
	maxConsecutiveErrors int           // 5
	recoveryWindow       time.Duration // 5 minutes
}

// NewProviderHealth creates a new provider health monitor
func NewProviderHealth(name string, log zerolog.Logger) *ProviderHealth {
	return &ProviderHealth{
		name:                 name,
		status:               ProviderStatusHealthy,
		degradedErrorRate:    0.20,
		maxConsecutiveErrors: 5,
		recoveryWindow:       5 * time.Minute,
		log:                  log.With().Str("component", "provider_health").Str("provider", name).Logger(),
		now:                  time.Now,
	}
}

// RecordSuccess records a successful call
func (ph *ProviderHealth) RecordSuccess(latency time.Duration) {
	ph.mu.Lock()
	defer ph.mu.Unlock()

	ph.lastSuccessful = ph.now()
	ph.successCount++
	ph.consecutiveErrors = 0
	ph.updateLatency(latency)

	if ph.status != ProviderStatusHealthy && ph.shouldRecover() {
		old := ph.status
		ph.status = ProviderStatusHealthy
		ph.log.Info().Str("from", string(old)).Msg("Provider recovered")
		observ.IncCounter("provider_status_change_total", map[string]string{
			"provider": ph.name,
			"from":     string(old),
			"to":       string(ProviderStatusHealthy),
		})
	}

	observ.IncCounter("provider_operations_total", map[string]string{
		"provider": ph.name,
		"result":   "success",
	})
	observ.SetGauge("provider_status", ph.statusToFloat(), map[string]string{"provider": ph.name})
}

// RecordError records a failed call
func (ph *ProviderHealth) RecordError(err error) {
	ph.mu.Lock()
	defer ph.mu.Unlock()

	ph.lastError = ph.now()
	ph.errorCount++
	ph.consecutiveErrors++

	old := ph.status
	ph.updateStatus()
	if old != ph.status {
		ph.log.Warn().
			Str("from", string(old)).
			Str("to", string(ph.status)).
			Int("consecutive_errors", ph.consecutiveErrors).
			Msg("Provider status changed")
		observ.IncCounter("provider_status_change_total", map[string]string{
			"provider": ph.name,
			"from":     string(old),
			"to":       string(ph.status),
		})
	}

	observ.IncCounter("provider_operations_total", map[string]string{
		"provider": ph.name,
		"result":   "error",
	})
	observ.SetGauge("provider_status", ph.statusToFloat(), map[string]string{"provider": ph.name})

	ph.log.Debug().Err(err).Int("consecutive_errors", ph.consecutiveErrors).Msg("Provider error")
}

// GetStatus returns the current provider status
func (ph *ProviderHealth) GetStatus() ProviderStatus {
	ph.mu.RLock()
	defer ph.mu.RUnlock()
	return ph.status
}

// GetMetrics returns current health metrics
func (ph *ProviderHealth) GetMetrics() map[string]any {
	ph.mu.RLock()
	defer ph.mu.RUnlock()

	total := ph.successCount + ph.errorCount
	errorRate := 0.0
	if total > 0 {
		errorRate = float64(ph.errorCount) / float64(total)
	}

	return map[string]any{
		"status":             string(ph.status),
		"error_rate":         errorRate,
		"consecutive_errors": ph.consecutiveErrors,
		"last_successful":    ph.lastSuccessful,
		"last_error":         ph.lastError,
		"latency_avg_ms":     ph.latencyAvg.Milliseconds(),
		"success_count":      ph.successCount,
		"error_count":        ph.errorCount,
	}
}

// updateStatus calculates new status based on error patterns
func (ph *ProviderHealth) updateStatus() {
	if ph.consecutiveErrors >= ph.maxConsecutiveErrors {
		ph.status = ProviderStatusFailed
		return
	}

	total := ph.successCount + ph.errorCount
	if total > 0 && float64(ph.errorCount)/float64(total) >= ph.degradedErrorRate {
		ph.status = ProviderStatusDegraded
	}
}

// shouldRecover requires a quiet recovery window since the last error
func (ph *ProviderHealth) shouldRecover() bool {
	if ph.now().Sub(ph.lastError) < ph.recoveryWindow {
		return false
	}
	return ph.consecutiveErrors == 0
}

// updateLatency keeps an exponential moving average
func (ph *ProviderHealth) updateLatency(latency time.Duration) {
	if ph.latencyAvg == 0 {
		ph.latencyAvg = latency
	} else {
		alpha := 0.1
		ph.latencyAvg = time.Duration(float64(ph.latencyAvg)*(1-alpha) + float64(latency)*alpha)
	}

	observ.RecordDuration("provider_latency", latency, map[string]string{
		"provider": ph.name,
	})
}

// statusToFloat converts status to numeric value for metrics
func (ph *ProviderHealth) statusToFloat() float64 {
	switch ph.status {
	case ProviderStatusHealthy:
		return 1.0
	case ProviderStatusDegraded:
		return 0.5
	case ProviderStatusFailed:
		return 0.0
	default:
		return -1.0
	}
}
