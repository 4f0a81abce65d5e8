package services

import (
	"context"
	"errors"
	"time"

	"github.com/anonto42/nano-feed/backend/internal/apperr"
	"github.com/anonto42/nano-feed/backend/internal/events"
	"github.com/anonto42/nano-feed/backend/internal/imagestore"
	"github.com/anonto42/nano-feed/backend/internal/metrics"
	"github.com/anonto42/nano-feed/backend/internal/repositories"
	"github.com/anonto42/nano-feed/backend/internal/retry"
	"github.com/sirupsen/logrus"
)

// DefaultMaxAttempts bounds how often a unit of work is re-run after
// transient storage conflicts.
const DefaultMaxAttempts = 3

// Coordinator performs every write to users and posts. Each operation runs
// as one transaction that is re-run from scratch on a transient conflict.
// Domain failures are never retried.
type Coordinator struct {
	tx            repositories.Transactor
	users         repositories.UserRepository
	posts         repositories.PostRepository
	images        imagestore.Store
	notifications *NotificationService
	publisher     events.Publisher
	trending      repositories.PageCache
	maxAttempts   int
	backoff       func(attempt int) time.Duration
	logger        logrus.FieldLogger
}

// CoordinatorDeps lists the collaborators of a Coordinator. Notifications,
// Publisher and Trending are optional.
type CoordinatorDeps struct {
	Transactor    repositories.Transactor
	Users         repositories.UserRepository
	Posts         repositories.PostRepository
	Images        imagestore.Store
	Notifications *NotificationService
	Publisher     events.Publisher
	Trending      repositories.PageCache
	MaxAttempts   int
	Backoff       func(attempt int) time.Duration
	Logger        logrus.FieldLogger
}

func NewCoordinator(d CoordinatorDeps) *Coordinator {
	if d.MaxAttempts < 1 {
		d.MaxAttempts = DefaultMaxAttempts
	}
	if d.Publisher == nil {
		d.Publisher = events.Nop{}
	}
	if d.Backoff == nil {
		d.Backoff = LinearBackoff(25 * time.Millisecond)
	}
	return &Coordinator{
		tx:            d.Transactor,
		users:         d.Users,
		posts:         d.Posts,
		images:        d.Images,
		notifications: d.Notifications,
		publisher:     d.Publisher,
		trending:      d.Trending,
		maxAttempts:   d.MaxAttempts,
		backoff:       d.Backoff,
		logger:        d.Logger,
	}
}

// LinearBackoff waits step, 2*step, ... before successive retries.
func LinearBackoff(step time.Duration) func(int) time.Duration {
	return func(attempt int) time.Duration {
		return time.Duration(attempt-1) * step
	}
}

func (c *Coordinator) policy(op string) retry.Policy {
	log := c.logger.WithField("operation", op)
	return retry.Policy{
		MaxAttempts: c.maxAttempts,
		IsTransient: apperr.IsTransient,
		Backoff:     c.backoff,
		OnTransition: func(attempt int, state retry.State, err error) {
			if state != retry.StateStarted {
				metrics.RecordMutationAttempt(op, state.String())
			}
			switch state {
			case retry.StateAbortedRetry:
				log.WithError(err).WithField("attempt", attempt).Warn("transient conflict, retrying")
			case retry.StateAbortedFatal:
				if errors.Is(err, retry.ErrExhausted) {
					log.WithError(err).WithField("attempt", attempt).Error("retries exhausted")
				}
			}
		},
	}
}

// mutate runs work inside a transaction under the retry policy and maps the
// outcome onto the error taxonomy. Exhausted retries become Internal.
func mutate[T any](ctx context.Context, c *Coordinator, op string, work func(ctx context.Context) (T, error)) (T, error) {
	start := time.Now()
	out, err := retry.DoValue(ctx, c.policy(op), func(ctx context.Context, _ int) (T, error) {
		var v T
		err := c.tx.WithinTransaction(ctx, func(ctx context.Context) error {
			var err error
			v, err = work(ctx)
			return err
		})
		return v, err
	})
	if errors.Is(err, retry.ErrExhausted) {
		err = apperr.Internal("Could not complete the request, please try again", err)
	}
	err = translate(err)
	metrics.RecordMutation(op, time.Since(start), err)
	return out, err
}

// afterCommit runs best-effort side effects of a committed mutation. They
// outlive the request context and never fail the mutation.
func (c *Coordinator) afterCommit(ctx context.Context, e events.Event, invalidateTrending bool) {
	ctx = context.WithoutCancel(ctx)
	log := c.logger.WithFields(logrus.Fields{"subject": e.Subject, "actor_id": e.ActorID, "target_id": e.TargetID})

	if err := c.publisher.Publish(ctx, e); err != nil {
		log.WithError(err).Warn("event publish failed")
	}
	if invalidateTrending && c.trending != nil {
		if err := c.trending.Invalidate(ctx); err != nil {
			log.WithError(err).Warn("trending cache invalidation failed")
		}
	}
}

// releaseImage deletes an asset without retrying; failures are logged only.
func (c *Coordinator) releaseImage(ctx context.Context, assetID, reason string) {
	if c.images == nil || assetID == "" {
		return
	}
	if err := c.images.Release(context.WithoutCancel(ctx), assetID); err != nil {
		c.logger.WithError(err).WithFields(logrus.Fields{
			"asset_id": assetID,
			"reason":   reason,
		}).Error("image release failed")
	}
}
