package imagestore

import (
	"context"
	"errors"
	"time"

	"github.com/anonto42/nano-feed/backend/internal/apperr"
	"github.com/anonto42/nano-feed/backend/internal/metrics"
	"github.com/anonto42/nano-feed/backend/internal/models"
	"github.com/sirupsen/logrus"
	gobreaker "github.com/sony/gobreaker/v2"
)

// Guarded wraps a Store with a per-call timeout and a circuit breaker.
// Client errors such as an undecodable image do not count as failures.
type Guarded struct {
	next    Store
	timeout time.Duration
	cb      *gobreaker.CircuitBreaker[any]
	name    string
	logger  logrus.FieldLogger
}

func NewGuarded(next Store, timeout time.Duration, logger logrus.FieldLogger) *Guarded {
	name := "image-store"
	metrics.CircuitBreakerState.WithLabelValues(name).Set(0)

	cb := gobreaker.NewCircuitBreaker[any](gobreaker.Settings{
		Name:        name,
		MaxRequests: 2,
		Interval:    time.Minute,
		Timeout:     30 * time.Second,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= 5
		},
		IsSuccessful: func(err error) bool {
			return err == nil || isClientError(err)
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			logger.WithFields(logrus.Fields{
				"breaker": name,
				"from":    from.String(),
				"to":      to.String(),
			}).Warn("circuit breaker state transition")
			metrics.CircuitBreakerState.WithLabelValues(name).Set(stateToFloat(to))
			metrics.CircuitBreakerTransitions.WithLabelValues(name, from.String(), to.String()).Inc()
		},
	})

	return &Guarded{next: next, timeout: timeout, cb: cb, name: name, logger: logger}
}

func (g *Guarded) Put(ctx context.Context, upload models.NewImageUpload) (*models.Image, error) {
	res, err := g.execute(ctx, "put", func(ctx context.Context) (any, error) {
		return g.next.Put(ctx, upload)
	})
	if err != nil {
		return nil, err
	}
	return res.(*models.Image), nil
}

func (g *Guarded) Release(ctx context.Context, assetID string) error {
	_, err := g.execute(ctx, "release", func(ctx context.Context) (any, error) {
		return nil, g.next.Release(ctx, assetID)
	})
	return err
}

func (g *Guarded) execute(ctx context.Context, op string, fn func(context.Context) (any, error)) (any, error) {
	res, err := g.cb.Execute(func() (any, error) {
		callCtx, cancel := context.WithTimeout(ctx, g.timeout)
		defer cancel()
		return fn(callCtx)
	})
	switch {
	case err == nil:
		metrics.ImageStoreRequests.WithLabelValues(op, "success").Inc()
	case errors.Is(err, gobreaker.ErrOpenState), errors.Is(err, gobreaker.ErrTooManyRequests):
		metrics.ImageStoreRequests.WithLabelValues(op, "rejected").Inc()
		g.logger.WithError(err).WithField("operation", op).Warn("image store call rejected")
	default:
		metrics.ImageStoreRequests.WithLabelValues(op, "failure").Inc()
	}
	return res, err
}

func isClientError(err error) bool {
	return apperr.Is(err, apperr.KindBadRequest)
}

func stateToFloat(s gobreaker.State) float64 {
	switch s {
	case gobreaker.StateHalfOpen:
		return 1
	case gobreaker.StateOpen:
		return 2
	default:
		return 0
	}
}
