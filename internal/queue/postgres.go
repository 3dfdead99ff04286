package queue

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"print-bridge/internal/models"
)

const postgresSchema = `
CREATE TABLE IF NOT EXISTS print_queue (
  seq BIGSERIAL PRIMARY KEY,
  job_id TEXT UNIQUE NOT NULL,
  restaurant_id TEXT NOT NULL,
  order_number TEXT NOT NULL DEFAULT '',
  order_data JSONB NOT NULL,
  receipt_data TEXT NOT NULL,
  receipt_encoding TEXT NOT NULL,
  status TEXT NOT NULL DEFAULT 'pending' CHECK (status IN ('pending', 'completed')),
  created_at TIMESTAMPTZ NOT NULL,
  completed_at TIMESTAMPTZ
);
CREATE INDEX IF NOT EXISTS idx_print_queue_pending ON print_queue (restaurant_id, seq) WHERE status = 'pending';
CREATE INDEX IF NOT EXISTS idx_print_queue_completed_at ON print_queue (completed_at) WHERE status = 'completed';
`

const pgUniqueViolation = "23505"

// PgxPool is the subset of *pgxpool.Pool used by PostgresStore.
type PgxPool interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
	Ping(ctx context.Context) error
}

// PostgresStore keeps jobs in the print_queue table.
type PostgresStore struct {
	pool PgxPool
}

func NewPostgresStore(pool PgxPool) *PostgresStore {
	return &PostgresStore{pool: pool}
}

func (s *PostgresStore) EnsureSchema(ctx context.Context) error {
	if _, err := s.pool.Exec(ctx, postgresSchema); err != nil {
		return fmt.Errorf("create print_queue table: %w", err)
	}
	return nil
}

func (s *PostgresStore) Insert(ctx context.Context, job models.PrintJob) error {
	const q = `
INSERT INTO print_queue (job_id, restaurant_id, order_number, order_data, receipt_data, receipt_encoding, status, created_at)
VALUES ($1, $2, $3, $4, $5, $6, 'pending', $7)`

	_, err := s.pool.Exec(ctx, q,
		job.ID, job.RestaurantID, job.OrderData.OrderNumber, job.OrderData,
		job.ReceiptData, string(job.ReceiptEncoding), job.Timestamp,
	)

	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == pgUniqueViolation {
		return ErrDuplicateJob
	}
	if err != nil {
		return fmt.Errorf("insert print job: %w", err)
	}
	return nil
}

func (s *PostgresStore) Pending(ctx context.Context, restaurantID string) ([]models.PrintJob, error) {
	const q = `
SELECT job_id, restaurant_id, order_data, receipt_data, receipt_encoding, status, created_at
FROM print_queue
WHERE restaurant_id = $1 AND status = 'pending'
ORDER BY seq ASC`

	rows, err := s.pool.Query(ctx, q, restaurantID)
	if err != nil {
		return nil, fmt.Errorf("query pending jobs: %w", err)
	}
	defer rows.Close()

	jobs := []models.PrintJob{}
	for rows.Next() {
		var job models.PrintJob
		var encoding, status string
		if err := rows.Scan(
			&job.ID,
			&job.RestaurantID,
			&job.OrderData,
			&job.ReceiptData,
			&encoding,
			&status,
			&job.Timestamp,
		); err != nil {
			return nil, fmt.Errorf("scan print job: %w", err)
		}
		job.ReceiptEncoding = models.ReceiptEncoding(encoding)
		job.Status = models.JobStatus(status)
		jobs = append(jobs, job)
	}
	return jobs, rows.Err()
}

func (s *PostgresStore) MarkCompleted(ctx context.Context, restaurantID, jobID string, at time.Time) (bool, error) {
	const q = `
UPDATE print_queue
SET status = 'completed', completed_at = $1
WHERE job_id = $2 AND restaurant_id = $3 AND status = 'pending'`

	tag, err := s.pool.Exec(ctx, q, at, jobID, restaurantID)
	if err != nil {
		return false, fmt.Errorf("complete print job: %w", err)
	}
	return tag.RowsAffected() == 1, nil
}

func (s *PostgresStore) Stats(ctx context.Context) (models.QueueStats, error) {
	const q = `
SELECT COUNT(*),
       COUNT(*) FILTER (WHERE status = 'pending'),
       COUNT(*) FILTER (WHERE status = 'completed')
FROM print_queue`

	var total, pending, completed int64
	if err := s.pool.QueryRow(ctx, q).Scan(&total, &pending, &completed); err != nil {
		return models.QueueStats{}, fmt.Errorf("query queue stats: %w", err)
	}
	return models.QueueStats{Total: int(total), Pending: int(pending), Completed: int(completed)}, nil
}

func (s *PostgresStore) PruneCompleted(ctx context.Context, before time.Time) (int, error) {
	tag, err := s.pool.Exec(ctx,
		"DELETE FROM print_queue WHERE status = 'completed' AND completed_at < $1",
		before,
	)
	if err != nil {
		return 0, fmt.Errorf("prune print jobs: %w", err)
	}
	return int(tag.RowsAffected()), nil
}

func (s *PostgresStore) Ping(ctx context.Context) error {
	return s.pool.Ping(ctx)
}
