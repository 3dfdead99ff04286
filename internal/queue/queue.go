// Package queue is the print dispatch queue: producers enqueue encoded
// receipts per restaurant, tablets poll for pending jobs and acknowledge them.
package queue

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"print-bridge/internal/directory"
	"print-bridge/internal/models"
)

type Queue struct {
	store     Store
	dir       directory.Directory
	notifiers []Notifier
	now       func() time.Time
	newID     func() string
	log       zerolog.Logger
}

type Option func(*Queue)

func WithNotifier(n Notifier) Option {
	return func(q *Queue) { q.notifiers = append(q.notifiers, n) }
}

func WithClock(now func() time.Time) Option {
	return func(q *Queue) { q.now = now }
}

func WithIDGenerator(newID func() string) Option {
	return func(q *Queue) { q.newID = newID }
}

func WithLogger(l zerolog.Logger) Option {
	return func(q *Queue) { q.log = l }
}

func New(store Store, dir directory.Directory, opts ...Option) *Queue {
	q := &Queue{
		store: store,
		dir:   dir,
		now:   time.Now,
		newID: uuid.NewString,
		log:   log.With().Str("component", "queue").Logger(),
	}
	for _, opt := range opts {
		opt(q)
	}
	return q
}

// Enqueue stores job as pending for its restaurant. The id is generated when
// empty; status and timestamp are always set here.
func (q *Queue) Enqueue(ctx context.Context, job models.PrintJob) (models.PrintJob, error) {
	job.RestaurantID = strings.TrimSpace(job.RestaurantID)
	if job.RestaurantID == "" {
		return models.PrintJob{}, fmt.Errorf("%w: restaurantId is required", ErrInvalidJob)
	}
	if job.ReceiptData == "" {
		return models.PrintJob{}, fmt.Errorf("%w: receiptData is required", ErrInvalidJob)
	}
	if err := q.checkRestaurant(ctx, job.RestaurantID); err != nil {
		return models.PrintJob{}, err
	}

	if job.ID == "" {
		job.ID = q.newID()
	}
	if job.ReceiptEncoding == "" {
		job.ReceiptEncoding = models.ReceiptBase64
	}
	job.Status = models.JobPending
	job.Timestamp = q.now().UTC()
	job.CompletedAt = nil

	if err := q.store.Insert(ctx, job); err != nil {
		if errors.Is(err, ErrDuplicateJob) {
			return models.PrintJob{}, fmt.Errorf("%w: %s", ErrDuplicateJob, job.ID)
		}
		q.log.Error().Err(err).Str("job_id", job.ID).Msg("enqueue failed")
		return models.PrintJob{}, fmt.Errorf("%w: %w", ErrUnavailable, err)
	}

	q.log.Info().
		Str("job_id", job.ID).
		Str("restaurant_id", job.RestaurantID).
		Str("order_number", job.OrderData.OrderNumber).
		Msg("print job enqueued")

	for _, n := range q.notifiers {
		n.JobEnqueued(ctx, job)
	}
	return job, nil
}

// ListPending returns the restaurant's pending jobs, oldest first.
func (q *Queue) ListPending(ctx context.Context, restaurantID string) ([]models.PrintJob, error) {
	if err := q.checkRestaurant(ctx, restaurantID); err != nil {
		return nil, err
	}

	jobs, err := q.store.Pending(ctx, restaurantID)
	if err != nil {
		q.log.Error().Err(err).Str("restaurant_id", restaurantID).Msg("list pending failed")
		return nil, fmt.Errorf("%w: %w", ErrUnavailable, err)
	}

	q.log.Debug().Str("restaurant_id", restaurantID).Int("pending", len(jobs)).Msg("tablet polled queue")
	return jobs, nil
}

// Complete marks a pending job of restaurantID completed. Unknown, already
// completed and foreign ids report false without an error so tablets can
// retry acknowledgements freely.
func (q *Queue) Complete(ctx context.Context, restaurantID, jobID string) (bool, error) {
	if strings.TrimSpace(jobID) == "" || restaurantID == "" {
		return false, nil
	}

	at := q.now().UTC()
	ok, err := q.store.MarkCompleted(ctx, restaurantID, jobID, at)
	if err != nil {
		q.log.Error().Err(err).Str("job_id", jobID).Msg("complete failed")
		return false, fmt.Errorf("%w: %w", ErrUnavailable, err)
	}
	if !ok {
		q.log.Debug().Str("job_id", jobID).Str("restaurant_id", restaurantID).Msg("complete was a no-op")
		return false, nil
	}

	q.log.Info().Str("job_id", jobID).Str("restaurant_id", restaurantID).Msg("print job completed")
	for _, n := range q.notifiers {
		n.JobCompleted(ctx, jobID, at)
	}
	return true, nil
}

func (q *Queue) Stats(ctx context.Context) (models.QueueStats, error) {
	stats, err := q.store.Stats(ctx)
	if err != nil {
		return models.QueueStats{}, fmt.Errorf("%w: %w", ErrUnavailable, err)
	}
	return stats, nil
}

// PruneCompleted drops completed jobs older than retention.
func (q *Queue) PruneCompleted(ctx context.Context, retention time.Duration) (int, error) {
	n, err := q.store.PruneCompleted(ctx, q.now().UTC().Add(-retention))
	if err != nil {
		return 0, fmt.Errorf("%w: %w", ErrUnavailable, err)
	}
	return n, nil
}

func (q *Queue) Ping(ctx context.Context) error {
	if err := q.store.Ping(ctx); err != nil {
		return fmt.Errorf("%w: %w", ErrUnavailable, err)
	}
	return nil
}

func (q *Queue) checkRestaurant(ctx context.Context, restaurantID string) error {
	_, err := q.dir.Lookup(ctx, restaurantID)
	if err == nil {
		return nil
	}
	if errors.Is(err, directory.ErrNotFound) {
		return fmt.Errorf("%w: %s", ErrUnknownRestaurant, restaurantID)
	}
	return fmt.Errorf("%w: %w", ErrUnavailable, err)
}
