// Package throttle spaces outbound upstream calls process-wide.
package throttle

import (
	"context"
	"errors"
	"time"

	"golang.org/x/time/rate"

	"github.com/Rajchodisetti/marketdata-gateway/internal/observ"
)

// DefaultMinInterval is the spacing between two upstream calls.
const DefaultMinInterval = 1500 * time.Millisecond

// Gate admits one caller at a time. AwaitTurn only fails when ctx ends
// before the caller is admitted.
type Gate interface {
	AwaitTurn(ctx context.Context) error
}

// Interval guarantees that admissions are at least minInterval apart. The
// token is held across the check, the sleep and the update of lastCallAt, so
// every caller observes the previous caller's update.
type Interval struct {
	token       chan struct{}
	minInterval time.Duration
	limiter     *rate.Limiter
	lastCallAt  time.Time
	now         func() time.Time

	onAdmit func(time.Time)
}

// Option configures an Interval gate.
type Option func(*Interval)

// WithPerMinute adds a per-minute ceiling on top of the spacing.
func WithPerMinute(n int) Option {
	return func(g *Interval) {
		if n > 0 {
			g.limiter = rate.NewLimiter(rate.Limit(float64(n)/60), 1)
		}
	}
}

// NewInterval creates a gate. A negative minInterval is treated as zero.
func NewInterval(minInterval time.Duration, opts ...Option) *Interval {
	if minInterval < 0 {
		minInterval = 0
	}
	g := &Interval{
		token:       make(chan struct{}, 1),
		minInterval: minInterval,
		now:         time.Now,
	}
	for _, opt := range opts {
		opt(g)
	}
	return g
}

func (g *Interval) AwaitTurn(ctx context.Context) error {
	select {
	case g.token <- struct{}{}:
	case <-ctx.Done():
		return ctx.Err()
	}
	defer func() { <-g.token }()

	start := g.now()
	if wait := g.minInterval - start.Sub(g.lastCallAt); wait > 0 {
		timer := time.NewTimer(wait)
		select {
		case <-timer.C:
		case <-ctx.Done():
			timer.Stop()
			return ctx.Err()
		}
	}

	if g.limiter != nil {
		if err := g.limiter.Wait(ctx); err != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			// deadline too close for the next token
			return errors.Join(context.DeadlineExceeded, err)
		}
	}

	g.lastCallAt = g.now()
	observ.RecordDuration("throttle_wait", g.lastCallAt.Sub(start), nil)
	if g.onAdmit != nil {
		g.onAdmit(g.lastCallAt)
	}
	return nil
}

// Unlimited admits every caller immediately.
type Unlimited struct{}

func (Unlimited) AwaitTurn(ctx context.Context) error { return ctx.Err() }
