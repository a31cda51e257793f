// Package db is the external status store: a Postgres table keyed by job
// id that mirrors queue state for observers. The dispatch worker is the
// sole writer after submission metadata is recorded; writes are
// idempotent upserts so re-writing a status is harmless.
package db

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"mailspool/internal/models"
)

// ErrNotFound is returned when no status record exists for a job id.
var ErrNotFound = errors.New("db: job status not found")

// StatusRecord is what the status query boundary returns.
type StatusRecord struct {
	Status models.JobStatus `json:"status"`
	Error  string           `json:"error,omitempty"`
}

type Store struct {
	Pool *pgxpool.Pool
}

func New(ctx context.Context, conn string) (*Store, error) {
	pool, err := pgxpool.New(ctx, conn)
	if err != nil {
		return nil, err
	}
	return &Store{Pool: pool}, nil
}

func (s *Store) Close() {
	s.Pool.Close()
}

// Migrate creates the status table if missing.
func (s *Store) Migrate(ctx context.Context) error {
	_, err := s.Pool.Exec(ctx, `
		CREATE TABLE IF NOT EXISTS mail_job_status (
			job_id          TEXT PRIMARY KEY,
			sender_id       TEXT NOT NULL DEFAULT '',
			template_id     TEXT NOT NULL DEFAULT '',
			recipient_count INT  NOT NULL DEFAULT 0,
			status          TEXT NOT NULL,
			error_msg       TEXT NOT NULL DEFAULT '',
			created_at      TIMESTAMPTZ NOT NULL DEFAULT NOW(),
			updated_at      TIMESTAMPTZ NOT NULL DEFAULT NOW()
		)`)
	return err
}

// RecordSubmission writes the initial metadata row when a job is accepted.
func (s *Store) RecordSubmission(ctx context.Context, jobID, senderID, templateID string, recipientCount int) error {
	_, err := s.Pool.Exec(ctx,
		`INSERT INTO mail_job_status
		   (job_id, sender_id, template_id, recipient_count, status, created_at, updated_at)
		 VALUES ($1, $2, $3, $4, $5, NOW(), NOW())
		 ON CONFLICT (job_id) DO NOTHING`,
		jobID, senderID, templateID, recipientCount, models.StatusQueued,
	)
	return err
}

// SetStatus upserts the job status, clearing any previous error detail.
func (s *Store) SetStatus(ctx context.Context, jobID string, status models.JobStatus) error {
	_, err := s.Pool.Exec(ctx,
		`INSERT INTO mail_job_status (job_id, status, updated_at)
		 VALUES ($1, $2, NOW())
		 ON CONFLICT (job_id) DO UPDATE
		   SET status = EXCLUDED.status,
		       error_msg = '',
		       updated_at = NOW()`,
		jobID, status,
	)
	return err
}

// SetFailure marks the job failed with the transport error detail.
func (s *Store) SetFailure(ctx context.Context, jobID string, errMsg string) error {
	_, err := s.Pool.Exec(ctx,
		`INSERT INTO mail_job_status (job_id, status, error_msg, updated_at)
		 VALUES ($1, $2, $3, NOW())
		 ON CONFLICT (job_id) DO UPDATE
		   SET status = EXCLUDED.status,
		       error_msg = EXCLUDED.error_msg,
		       updated_at = NOW()`,
		jobID, models.StatusFailed, errMsg,
	)
	return err
}

// GetStatus reads the record for the status query boundary.
func (s *Store) GetStatus(ctx context.Context, jobID string) (StatusRecord, error) {
	var rec StatusRecord
	err := s.Pool.QueryRow(ctx,
		`SELECT status, error_msg FROM mail_job_status WHERE job_id = $1`,
		jobID,
	).Scan(&rec.Status, &rec.Error)
	if errors.Is(err, pgx.ErrNoRows) {
		return StatusRecord{}, ErrNotFound
	}
	if err != nil {
		return StatusRecord{}, err
	}
	return rec, nil
}
