// Package repository implements job queue persistence.
//
// Claiming uses FOR UPDATE SKIP LOCKED so concurrent workers never receive the same
// job. A partial unique index (PostgreSQL) or a generated column (MySQL) keeps a
// single pending or running job per unique key.
package repository

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/google/uuid"

	"github.com/md-riaz/domaindesk/internal/database"
	apperrors "github.com/md-riaz/domaindesk/internal/errors"
	jobsDomain "github.com/md-riaz/domaindesk/internal/jobs/domain"
)

const jobColumns = `id, queue, type, payload, status, attempts, max_tries, timeout_seconds, backoff_seconds,
	unique_key, available_at, reserved_at, last_error, completed_at, failed_at, created_at, updated_at`

const reclaimedError = "reservation expired before the attempt settled"

// PostgreSQLJobRepository implements job persistence for PostgreSQL.
type PostgreSQLJobRepository struct {
	db *sql.DB
}

// NewPostgreSQLJobRepository creates a new PostgreSQL job repository.
func NewPostgreSQLJobRepository(db *sql.DB) *PostgreSQLJobRepository {
	return &PostgreSQLJobRepository{db: db}
}

// Create inserts a pending job.
func (p *PostgreSQLJobRepository) Create(ctx context.Context, job *jobsDomain.Job) error {
	querier := database.GetTx(ctx, p.db)

	query := `INSERT INTO jobs (id, queue, type, payload, status, attempts, max_tries, timeout_seconds,
			  backoff_seconds, unique_key, available_at, created_at, updated_at)
			  VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)`

	_, err := querier.ExecContext(
		ctx,
		query,
		job.ID,
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
func (p *PostgreSQLJobRepository) Get(ctx context.Context, id uuid.UUID) (*jobsDomain.Job, error) {
	querier := database.GetTx(ctx, p.db)

	query := `SELECT ` + jobColumns + ` FROM jobs WHERE id = $1`

	job, err := scanPostgreSQLJob(querier.QueryRowContext(ctx, query, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, jobsDomain.ErrJobNotFound
		}
		return nil, apperrors.Wrap(err, "failed to get job")
	}
	return job, nil
}

// Claim marks up to limit available jobs running and returns them.
func (p *PostgreSQLJobRepository) Claim(
	ctx context.Context,
	queue string,
	limit int,
	now time.Time,
) ([]*jobsDomain.Job, error) {
	querier := database.GetTx(ctx, p.db)

	query := `UPDATE jobs SET status = 'running', attempts = attempts + 1, reserved_at = $1, updated_at = $1
			  WHERE id IN (
			      SELECT id FROM jobs
			      WHERE queue = $2 AND status = 'pending' AND available_at <= $1
			      ORDER BY available_at ASC, id ASC
			      LIMIT $3
			      FOR UPDATE SKIP LOCKED
			  )
			  RETURNING ` + jobColumns

	rows, err := querier.QueryContext(ctx, query, now, queue, limit)
	if err != nil {
		return nil, apperrors.Wrap(err, "failed to claim jobs")
	}
	defer func() {
		_ = rows.Close()
	}()

	var jobs []*jobsDomain.Job
	for rows.Next() {
		job, err := scanPostgreSQLJob(rows)
		if err != nil {
			return nil, apperrors.Wrap(err, "failed to scan job")
		}
		jobs = append(jobs, job)
	}
	if err := rows.Err(); err != nil {
		return nil, apperrors.Wrap(err, "failed to iterate claimed jobs")
	}
	return jobs, nil
}

// Reclaim returns expired reservations to pending. A reservation lost on the last
// attempt is redelivered once more so its handler can settle the final attempt; only
// a job that already had that extra delivery is failed here.
func (p *PostgreSQLJobRepository) Reclaim(ctx context.Context, now time.Time, grace time.Duration) (int64, error) {
	querier := database.GetTx(ctx, p.db)

	query := `UPDATE jobs
			  SET status = CASE WHEN attempts > max_tries THEN 'failed' ELSE 'pending' END,
			      failed_at = CASE WHEN attempts > max_tries THEN $1::timestamptz ELSE NULL END,
			      available_at = $1::timestamptz,
			      reserved_at = NULL,
			      last_error = $2,
			      updated_at = $1::timestamptz
			  WHERE status = 'running'
			    AND reserved_at + make_interval(secs => timeout_seconds + $3::bigint) < $1::timestamptz`

	result, err := querier.ExecContext(ctx, query, now, reclaimedError, int64(grace.Seconds()))
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
func (p *PostgreSQLJobRepository) Complete(ctx context.Context, id uuid.UUID, now time.Time) error {
	query := `UPDATE jobs SET status = 'completed', completed_at = $1, reserved_at = NULL, updated_at = $1
			  WHERE id = $2`
	return p.settle(ctx, query, "failed to complete job", now, id)
}

// Release returns a job to pending.
func (p *PostgreSQLJobRepository) Release(
	ctx context.Context,
	id uuid.UUID,
	availableAt time.Time,
	lastError string,
) error {
	query := `UPDATE jobs SET status = 'pending', available_at = $1, last_error = $2, reserved_at = NULL,
			  updated_at = $3
			  WHERE id = $4`
	return p.settle(ctx, query, "failed to release job", availableAt, lastError, time.Now().UTC(), id)
}

// Fail marks a job failed.
func (p *PostgreSQLJobRepository) Fail(ctx context.Context, id uuid.UUID, now time.Time, lastError string) error {
	query := `UPDATE jobs SET status = 'failed', failed_at = $1, last_error = $2, reserved_at = NULL, updated_at = $1
			  WHERE id = $3`
	return p.settle(ctx, query, "failed to fail job", now, lastError, id)
}

func (p *PostgreSQLJobRepository) settle(ctx context.Context, query, message string, args ...any) error {
	querier := database.GetTx(ctx, p.db)

	result, err := querier.ExecContext(ctx, query, args...)
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

type rowScanner interface {
	Scan(dest ...any) error
}

type jobNullables struct {
	timeoutSeconds int64
	backoffSeconds int64
	uniqueKey      sql.NullString
	reservedAt     sql.NullTime
	lastError      sql.NullString
	completedAt    sql.NullTime
	failedAt       sql.NullTime
	status         string
}

func (n *jobNullables) apply(job *jobsDomain.Job) {
	job.Status = jobsDomain.Status(n.status)
	job.Timeout = time.Duration(n.timeoutSeconds) * time.Second
	job.Backoff = time.Duration(n.backoffSeconds) * time.Second
	if n.uniqueKey.Valid {
		job.UniqueKey = &n.uniqueKey.String
	}
	if n.reservedAt.Valid {
		job.ReservedAt = &n.reservedAt.Time
	}
	if n.lastError.Valid {
		job.LastError = &n.lastError.String
	}
	if n.completedAt.Valid {
		job.CompletedAt = &n.completedAt.Time
	}
	if n.failedAt.Valid {
		job.FailedAt = &n.failedAt.Time
	}
}

func scanPostgreSQLJob(row rowScanner) (*jobsDomain.Job, error) {
	var (
		job jobsDomain.Job
		n   jobNullables
	)

	err := row.Scan(
		&job.ID,
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

	n.apply(&job)
	return &job, nil
}
