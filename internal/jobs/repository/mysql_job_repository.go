package repository

import (
	"context"
	"database/sql"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/md-riaz/domaindesk/internal/database"
	apperrors "github.com/md-riaz/domaindesk/internal/errors"
	jobsDomain "github.com/md-riaz/domaindesk/internal/jobs/domain"
)

// MySQLJobRepository implements job persistence for MySQL 8.
type MySQLJobRepository struct {
	db *sql.DB
}

// NewMySQLJobRepository creates a new MySQL job repository.
func NewMySQLJobRepository(db *sql.DB) *MySQLJobRepository {
	return &MySQLJobRepository{db: db}
}

// Create inserts a pending job.
func (m *MySQLJobRepository) Create(ctx context.Context, job *jobsDomain.Job) error {
	querier := database.GetTx(ctx, m.db)

	id, err := job.ID.MarshalBinary()
	if err != nil {
		return apperrors.Wrap(err, "failed to marshal job id")
	}

	query := `INSERT INTO jobs (id, queue, type, payload, status, attempts, max_tries, timeout_seconds,
			  backoff_seconds, unique_key, available_at, created_at, updated_at)
			  VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`

	_, err = querier.ExecContext(
		ctx,
		query,
		id,
		job.Queue,
		job.Type,
		string(job.Payload),
		string(job.Status),
		job.Attempts,
		job.MaxTries,
		int64(job.Timeout.Seconds()),
		int64(job.Backoff.Seconds()),
		job.UniqueKey,
		job.AvailableAt,
		job.CreatedAt,
		job.UpdatedAt,
	)
	if err != nil {
		if database.IsUniqueViolation(err) {
			return jobsDomain.ErrDuplicateJob
		}
		return apperrors.Wrap(err, "failed to create job")
	}
	return nil
}

// Get retrieves a job by ID.
func (m *MySQLJobRepository) Get(ctx context.Context, id uuid.UUID) (*jobsDomain.Job, error) {
	querier := database.GetTx(ctx, m.db)

	idBytes, err := id.MarshalBinary()
	if err != nil {
		return nil, apperrors.Wrap(err, "failed to marshal job id")
	}

	query := `SELECT ` + jobColumns + ` FROM jobs WHERE id = ?`

	job, err := scanMySQLJob(querier.QueryRowContext(ctx, query, idBytes))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, jobsDomain.ErrJobNotFound
		}
		return nil, apperrors.Wrap(err, "failed to get job")
	}
	return job, nil
}

// Claim locks available jobs with SKIP LOCKED and marks them running. It must run
// inside a transaction so the row locks are held until the update commits.
func (m *MySQLJobRepository) Claim(
	ctx context.Context,
	queue string,
	limit int,
	now time.Time,
) ([]*jobsDomain.Job, error) {
	querier := database.GetTx(ctx, m.db)

	query := `SELECT ` + jobColumns + ` FROM jobs
			  WHERE queue = ? AND status = 'pending' AND available_at <= ?
			  ORDER BY available_at ASC, id ASC
			  LIMIT ?
			  FOR UPDATE SKIP LOCKED`

	rows, err := querier.QueryContext(ctx, query, queue, now, limit)
	if err != nil {
		return nil, apperrors.Wrap(err, "failed to select claimable jobs")
	}

	var jobs []*jobsDomain.Job
	for rows.Next() {
		job, err := scanMySQLJob(rows)
		if err != nil {
			_ = rows.Close()
			return nil, apperrors.Wrap(err, "failed to scan job")
		}
		jobs = append(jobs, job)
	}
	if err := rows.Err(); err != nil {
		_ = rows.Close()
		return nil, apperrors.Wrap(err, "failed to iterate claimable jobs")
	}
	_ = rows.Close()

	if len(jobs) == 0 {
		return nil, nil
	}

	placeholders := make([]string, len(jobs))
	args := []any{now, now}
	for i, job := range jobs {
		id, err := job.ID.MarshalBinary()
		if err != nil {
			return nil, apperrors.Wrap(err, "failed to marshal job id")
		}
		placeholders[i] = "?"
		args = append(args, id)
	}

	update := `UPDATE jobs SET status = 'running', attempts = attempts + 1, reserved_at = ?, updated_at = ?
			   WHERE id IN (` + strings.Join(placeholders, ", ") + `)`

	if _, err := querier.ExecContext(ctx, update, args...); err != nil {
		return nil, apperrors.Wrap(err, "failed to claim jobs")
	}

	for _, job := range jobs {
		reservedAt := now
		job.Status = jobsDomain.StatusRunning
		job.Attempts++
		job.ReservedAt = &reservedAt
		job.UpdatedAt = now
	}
	return jobs, nil
}

// Reclaim returns expired reservations to pending. A reservation lost on the last
// attempt is redelivered once more so its handler can settle the final attempt; only
// a job that already had that extra delivery is failed here.
func (m *MySQLJobRepository) Reclaim(ctx context.Context, now time.Time, grace time.Duration) (int64, error) {
	querier := database.GetTx(ctx, m.db)

	query := `UPDATE jobs
			  SET status = CASE WHEN attempts > max_tries THEN 'failed' ELSE 'pending' END,
			      failed_at = CASE WHEN attempts > max_tries THEN ? ELSE NULL END,
			      available_at = ?,
			      reserved_at = NULL,
			      last_error = ?,
			      updated_at = ?
			  WHERE status = 'running'
			    AND reserved_at + INTERVAL (timeout_seconds + ?) SECOND < ?`

	result, err := querier.ExecContext(ctx, query, now, now, reclaimedError, now, int64(grace.Seconds()), now)
	if err != nil {
		return 0, apperrors.Wrap(err, "failed to reclaim jobs")
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return 0, apperrors.Wrap(err, "failed to get rows affected")
	}
	return affected, nil
}

// Complete marks a job completed.
func (m *MySQLJobRepository) Complete(ctx context.Context, id uuid.UUID, now time.Time) error {
	query := `UPDATE jobs SET status = 'completed', completed_at = ?, reserved_at = NULL, updated_at = ?
			  WHERE id = ?`
	return m.settle(ctx, query, "failed to complete job", id, now, now)
}

// Release returns a job to pending.
func (m *MySQLJobRepository) Release(
	ctx context.Context,
	id uuid.UUID,
	availableAt time.Time,
	lastError string,
) error {
	query := `UPDATE jobs SET status = 'pending', available_at = ?, last_error = ?, reserved_at = NULL,
			  updated_at = ?
			  WHERE id = ?`
	return m.settle(ctx, query, "failed to release job", id, availableAt, lastError, time.Now().UTC())
}

// Fail marks a job failed.
func (m *MySQLJobRepository) Fail(ctx context.Context, id uuid.UUID, now time.Time, lastError string) error {
	query := `UPDATE jobs SET status = 'failed', failed_at = ?, last_error = ?, reserved_at = NULL, updated_at = ?
			  WHERE id = ?`
	return m.settle(ctx, query, "failed to fail job", id, now, lastError, now)
}

// settle runs query with args followed by the binary id.
func (m *MySQLJobRepository) settle(ctx context.Context, query, message string, id uuid.UUID, args ...any) error {
	querier := database.GetTx(ctx, m.db)

	idBytes, err := id.MarshalBinary()
	if err != nil {
		return apperrors.Wrap(err, "failed to marshal job id")
	}

	result, err := querier.ExecContext(ctx, query, append(args, idBytes)...)
	if err != nil {
		return apperrors.Wrap(err, message)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return apperrors.Wrap(err, "failed to get rows affected")
	}
	if affected == 0 {
		return jobsDomain.ErrJobNotFound
	}
	return nil
}

func scanMySQLJob(row rowScanner) (*jobsDomain.Job, error) {
	var (
		job jobsDomain.Job
		id  []byte
		n   jobNullables
	)

	err := row.Scan(
		&id,
		&job.Queue,
		&job.Type,
		&job.Payload,
		&n.status,
		&job.Attempts,
		&job.MaxTries,
		&n.timeoutSeconds,
		&n.backoffSeconds,
		&n.uniqueKey,
		&job.AvailableAt,
		&n.reservedAt,
		&n.lastError,
		&n.completedAt,
		&n.failedAt,
		&job.CreatedAt,
		&job.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}

	if err := job.ID.UnmarshalBinary(id); err != nil {
		return nil, apperrors.Wrap(err, "failed to unmarshal job id")
	}
	n.apply(&job)
	return &job, nil
}
