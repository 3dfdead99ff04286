package queue

import (
	"context"
	"errors"
	"time"

	"print-bridge/internal/models"
)

var (
	ErrUnknownRestaurant = errors.New("unknown restaurant")
	ErrDuplicateJob      = errors.New("print job id already exists")
	ErrInvalidJob        = errors.New("invalid print job")
	// ErrUnavailable marks a backing store failure; callers should retry.
	ErrUnavailable = errors.New("print queue unavailable")
)

// Store persists print jobs. Implementations serialize Insert and
// MarkCompleted against each other and never expose a half-written job.
type Store interface {
	// Insert appends a pending job, or returns ErrDuplicateJob.
	Insert(ctx context.Context, job models.PrintJob) error
	// Pending returns the restaurant's pending jobs, oldest first.
	Pending(ctx context.Context, restaurantID string) ([]models.PrintJob, error)
	// MarkCompleted flips a pending job of restaurantID to completed and
	// reports whether it did. A job owned by another restaurant is left alone.
	MarkCompleted(ctx context.Context, restaurantID, jobID string, at time.Time) (bool, error)
	Stats(ctx context.Context) (models.QueueStats, error)
	// PruneCompleted deletes completed jobs finished before the cutoff.
	PruneCompleted(ctx context.Context, before time.Time) (int, error)
	Ping(ctx context.Context) error
}

// Notifier is told about queue changes after they are stored. It must not block.
type Notifier interface {
	JobEnqueued(ctx context.Context, job models.PrintJob)
	JobCompleted(ctx context.Context, jobID string, at time.Time)
}
