package ledger

import (
	"context"
	"errors"
	"fmt"
	"time"

	"timeclock/internal/models"

	"github.com/rs/zerolog"
	"github.com/sony/gobreaker"
)

// BreakerConfig tunes the circuit breaker in front of the ledger.
type BreakerConfig struct {
	MaxRequests         uint32
	Interval            time.Duration
	Timeout             time.Duration
	ConsecutiveFailures uint32
}

func DefaultBreakerConfig() BreakerConfig {
	return BreakerConfig{
		MaxRequests:         1,
		Interval:            60 * time.Second,
		Timeout:             30 * time.Second,
		ConsecutiveFailures: 3,
	}
}

// Breaker stops calling a failing ledger for a while, so scans go to the
// offline queue without waiting for timeouts.
type Breaker struct {
	next Gateway
	cb   *gobreaker.CircuitBreaker
}

func NewBreaker(next Gateway, cfg BreakerConfig, logger *zerolog.Logger) *Breaker {
	if cfg.ConsecutiveFailures == 0 {
		cfg.ConsecutiveFailures = DefaultBreakerConfig().ConsecutiveFailures
	}
	settings := gobreaker.Settings{
		Name:        "ledger",
		MaxRequests: cfg.MaxRequests,
		Interval:    cfg.Interval,
		Timeout:     cfg.Timeout,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= cfg.ConsecutiveFailures
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			logger.Warn().
				Str("breaker", name).
				Str("from", from.String()).
				Str("to", to.String()).
				Msg("ledger circuit breaker state changed")
		},
		IsSuccessful: func(err error) bool {
			return err == nil || errors.Is(err, ErrNotFound)
		},
	}
	return &Breaker{next: next, cb: gobreaker.NewCircuitBreaker(settings)}
}

// State reports the breaker state, for health checks.
func (b *Breaker) State() string {
	return b.cb.State().String()
}

func call[T any](cb *gobreaker.CircuitBreaker, fn func() (T, error)) (T, error) {
	out, err := cb.Execute(func() (interface{}, error) {
		return fn()
	})
	if err != nil {
		var zero T
		if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
			return zero, fmt.Errorf("%w: %v", ErrUnavailable, err)
		}
		return zero, err
	}
	return out.(T), nil
}

func (b *Breaker) FindEvents(ctx context.Context, subjectID string, date time.Time) ([]models.WorkEvent, error) {
	return call(b.cb, func() ([]models.WorkEvent, error) {
		return b.next.FindEvents(ctx, subjectID, date)
	})
}

func (b *Breaker) Append(ctx context.Context, event models.WorkEvent) error {
	_, err := call(b.cb, func() (struct{}, error) {
		return struct{}{}, b.next.Append(ctx, event)
	})
	return err
}

func (b *Breaker) Subjects(ctx context.Context) ([]models.Subject, error) {
	return call(b.cb, func() ([]models.Subject, error) {
		return b.next.Subjects(ctx)
	})
}

func (b *Breaker) Activities(ctx context.Context) ([]models.Activity, error) {
	return call(b.cb, func() ([]models.Activity, error) {
		return b.next.Activities(ctx)
	})
}

func (b *Breaker) Orders(ctx context.Context) ([]models.Order, error) {
	return call(b.cb, func() ([]models.Order, error) {
		return b.next.Orders(ctx)
	})
}
