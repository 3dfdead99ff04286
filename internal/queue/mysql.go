package queue

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/go-sql-driver/mysql"

	"print-bridge/internal/models"
)

const mysqlSchema = `
CREATE TABLE IF NOT EXISTS print_jobs (
  seq BIGINT AUTO_INCREMENT PRIMARY KEY,
  job_id VARCHAR(64) NOT NULL UNIQUE,
  restaurant_id VARCHAR(64) NOT NULL,
  order_number VARCHAR(64) NOT NULL DEFAULT '',
  order_data JSON NOT NULL,
  receipt_data MEDIUMTEXT NOT NULL,
  receipt_encoding VARCHAR(16) NOT NULL,
  status VARCHAR(16) NOT NULL DEFAULT 'pending',
  created_at DATETIME(6) NOT NULL,
  completed_at DATETIME(6) NULL,
  INDEX idx_print_jobs_pending (restaurant_id, status, seq),
  INDEX idx_print_jobs_completed (status, completed_at)
)`

const mysqlDuplicateEntry = 1062

// MySQLStore keeps jobs in the print_jobs table. The DSN must set parseTime=true.
type MySQLStore struct {
	db *sql.DB
}

func NewMySQLStore(db *sql.DB) *MySQLStore {
	return &MySQLStore{db: db}
}

func (s *MySQLStore) EnsureSchema(ctx context.Context) error {
	if _, err := s.db.ExecContext(ctx, mysqlSchema); err != nil {
		return fmt.Errorf("create print_jobs table: %w", err)
	}
	return nil
}

func (s *MySQLStore) Insert(ctx context.Context, job models.PrintJob) error {
	orderData, err := json.Marshal(job.OrderData)
	if err != nil {
		return fmt.Errorf("marshal order data: %w", err)
	}

	_, err = s.db.ExecContext(ctx, `
		INSERT INTO print_jobs
		(job_id, restaurant_id, order_number, order_data, receipt_data, receipt_encoding, status, created_at)
		VALUES (?, ?, ?, ?, ?, ?, 'pending', ?)
	`, job.ID, job.RestaurantID, job.OrderData.OrderNumber, orderData, job.ReceiptData, string(job.ReceiptEncoding), job.Timestamp)

	var myErr *mysql.MySQLError
	if errors.As(err, &myErr) && myErr.Number == mysqlDuplicateEntry {
		return ErrDuplicateJob
	}
	if err != nil {
		return fmt.Errorf("insert print job: %w", err)
	}
	return nil
}

func (s *MySQLStore) Pending(ctx context.Context, restaurantID string) ([]models.PrintJob, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT job_id, restaurant_id, order_data, receipt_data, receipt_encoding, status, created_at
		FROM print_jobs
		WHERE restaurant_id = ? AND status = 'pending'
		ORDER BY seq ASC
	`, restaurantID)
	if err != nil {
		return nil, fmt.Errorf("query pending jobs: %w", err)
	}
	defer rows.Close()

	jobs := []models.PrintJob{}
	for rows.Next() {
		var job models.PrintJob
		var orderData []byte
		if err := rows.Scan(
			&job.ID,
			&job.RestaurantID,
			&orderData,
			&job.ReceiptData,
			&job.ReceiptEncoding,
			&job.Status,
			&job.Timestamp,
		); err != nil {
			return nil, fmt.Errorf("scan print job: %w", err)
		}
		if err := json.Unmarshal(orderData, &job.OrderData); err != nil {
			return nil, fmt.Errorf("decode order data of %s: %w", job.ID, err)
		}
		jobs = append(jobs, job)
	}
	return jobs, rows.Err()
}

func (s *MySQLStore) MarkCompleted(ctx context.Context, restaurantID, jobID string, at time.Time) (bool, error) {
	res, err := s.db.ExecContext(ctx, `
		UPDATE print_jobs
		SET status = 'completed', completed_at = ?
		WHERE job_id = ? AND restaurant_id = ? AND status = 'pending'
	`, at, jobID, restaurantID)
	if err != nil {
		return false, fmt.Errorf("complete print job: %w", err)
	}

	n, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("complete print job: %w", err)
	}
	return n == 1, nil
}

func (s *MySQLStore) Stats(ctx context.Context) (models.QueueStats, error) {
	var stats models.QueueStats
	err := s.db.QueryRowContext(ctx, `
		SELECT COUNT(*),
		       COALESCE(SUM(status = 'pending'), 0),
		       COALESCE(SUM(status = 'completed'), 0)
		FROM print_jobs
	`).Scan(&stats.Total, &stats.Pending, &stats.Completed)
	if err != nil {
		return models.QueueStats{}, fmt.Errorf("query queue stats: %w", err)
	}
	return stats, nil
}

func (s *MySQLStore) PruneCompleted(ctx context.Context, before time.Time) (int, error) {
	res, err := s.db.ExecContext(ctx,
		"DELETE FROM print_jobs WHERE status = 'completed' AND completed_at < ?",
		before,
	)
	if err != nil {
		return 0, fmt.Errorf("prune print jobs: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("prune print jobs: %w", err)
	}
	return int(n), nil
}

func (s *MySQLStore) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}
