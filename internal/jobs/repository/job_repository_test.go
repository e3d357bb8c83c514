package repository

import (
	"context"
	"database/sql"
	"regexp"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/go-sql-driver/mysql"
	"github.com/google/uuid"
	"github.com/lib/pq"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/md-riaz/domaindesk/internal/database"
	jobsDomain "github.com/md-riaz/domaindesk/internal/jobs/domain"
)

var jobColumnNames = []string{
	"id", "queue", "type", "payload", "status", "attempts", "max_tries", "timeout_seconds", "backoff_seconds",
	"unique_key", "available_at", "reserved_at", "last_error", "completed_at", "failed_at", "created_at", "updated_at",
}

func newMockDB(t *testing.T) (*sql.DB, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() {
		_ = db.Close()
	})
	return db, mock
}

func newTestJob(t *testing.T) *jobsDomain.Job {
	t.Helper()
	job, err := jobsDomain.NewJob(jobsDomain.EnqueueRequest{
		Type:      "domain.renewal",
		Payload:   map[string]string{"domain_id": "d-1"},
		MaxTries:  3,
		Timeout:   2 * time.Minute,
		Backoff:   30 * time.Second,
		UniqueKey: "domain.renewal:d-1",
	}, time.Date(2026, 5, 1, 9, 0, 0, 0, time.UTC))
	require.NoError(t, err)
	return job
}

func TestPostgreSQLJobRepository_Create(t *testing.T) {
	ctx := context.Background()

	t.Run("Inserts", func(t *testing.T) {
		db, mock := newMockDB(t)
		repo := NewPostgreSQLJobRepository(db)
		job := newTestJob(t)

		mock.ExpectExec(regexp.QuoteMeta("INSERT INTO jobs")).
			WithArgs(job.ID, "default", "domain.renewal", string(job.Payload), "pending", 0, 3,
				int64(120), int64(30), "domain.renewal:d-1", job.AvailableAt, job.CreatedAt, job.UpdatedAt).
			WillReturnResult(sqlmock.NewResult(0, 1))

		require.NoError(t, repo.Create(ctx, job))
		require.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("DuplicateUniqueKey", func(t *testing.T) {
		db, mock := newMockDB(t)
		repo := NewPostgreSQLJobRepository(db)

		mock.ExpectExec(regexp.QuoteMeta("INSERT INTO jobs")).
			WillReturnError(&pq.Error{Code: "23505"})

		err := repo.Create(ctx, newTestJob(t))
		assert.ErrorIs(t, err, jobsDomain.ErrDuplicateJob)
	})
}

func TestPostgreSQLJobRepository_Claim(t *testing.T) {
	ctx := context.Background()
	db, mock := newMockDB(t)
	repo := NewPostgreSQLJobRepository(db)
	txManager := database.NewTxManager(db)
	now := time.Date(2026, 5, 1, 9, 0, 0, 0, time.UTC)
	id := uuid.New()

	mock.ExpectBegin()
	mock.ExpectQuery(regexp.QuoteMeta("FOR UPDATE SKIP LOCKED")).
		WithArgs(now, "default", 5).
		WillReturnRows(sqlmock.NewRows(jobColumnNames).
			AddRow(id.String(), "default", "domain.registration", []byte(`{"x":1}`), "running", 1, 3, 120, 30,
				"domain.registration:d", now, now, nil, nil, nil, now, now))
	mock.ExpectCommit()

	var jobs []*jobsDomain.Job
	err := txManager.WithTx(ctx, func(ctx context.Context) error {
		var err error
		jobs, err = repo.Claim(ctx, "default", 5, now)
		return err
	})
	require.NoError(t, err)
	require.Len(t, jobs, 1)

	job := jobs[0]
	assert.Equal(t, id, job.ID)
	assert.Equal(t, jobsDomain.StatusRunning, job.Status)
	assert.Equal(t, 1, job.Attempts)
	assert.Equal(t, 2*time.Minute, job.Timeout)
	assert.Equal(t, 30*time.Second, job.Backoff)
	require.NotNil(t, job.ReservedAt)
	require.NotNil(t, job.UniqueKey)
	assert.Nil(t, job.LastError)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgreSQLJobRepository_Reclaim(t *testing.T) {
	ctx := context.Background()
	db, mock := newMockDB(t)
	repo := NewPostgreSQLJobRepository(db)
	now := time.Now().UTC()

	mock.ExpectExec(regexp.QuoteMeta("CASE WHEN attempts > max_tries THEN 'failed' ELSE 'pending' END")).
		WithArgs(now, reclaimedError, int64(60)).
		WillReturnResult(sqlmock.NewResult(0, 2))

	count, err := repo.Reclaim(ctx, now, time.Minute)
	require.NoError(t, err)
	assert.Equal(t, int64(2), count)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgreSQLJobRepository_Settle(t *testing.T) {
	ctx := context.Background()
	id := uuid.New()
	now := time.Now().UTC()

	t.Run("Complete", func(t *testing.T) {
		db, mock := newMockDB(t)
		repo := NewPostgreSQLJobRepository(db)

		mock.ExpectExec(regexp.QuoteMeta("SET status = 'completed'")).
			WithArgs(now, id).
			WillReturnResult(sqlmock.NewResult(0, 1))

		require.NoError(t, repo.Complete(ctx, id, now))
	})

	t.Run("ReleaseMissingJob", func(t *testing.T) {
		db, mock := newMockDB(t)
		repo := NewPostgreSQLJobRepository(db)

		mock.ExpectExec(regexp.QuoteMeta("SET status = 'pending'")).
			WithArgs(now, "boom", sqlmock.AnyArg(), id).
			WillReturnResult(sqlmock.NewResult(0, 0))

		assert.ErrorIs(t, repo.Release(ctx, id, now, "boom"), jobsDomain.ErrJobNotFound)
	})

	t.Run("Fail", func(t *testing.T) {
		db, mock := newMockDB(t)
		repo := NewPostgreSQLJobRepository(db)

		mock.ExpectExec(regexp.QuoteMeta("SET status = 'failed'")).
			WithArgs(now, "registrar down", id).
			WillReturnResult(sqlmock.NewResult(0, 1))

		require.NoError(t, repo.Fail(ctx, id, now, "registrar down"))
	})
}

func TestPostgreSQLJobRepository_Get(t *testing.T) {
	ctx := context.Background()
	db, mock := newMockDB(t)
	repo := NewPostgreSQLJobRepository(db)
	id := uuid.New()

	mock.ExpectQuery(regexp.QuoteMeta("FROM jobs WHERE id = $1")).
		WithArgs(id).
		WillReturnError(sql.ErrNoRows)

	_, err := repo.Get(ctx, id)
	assert.ErrorIs(t, err, jobsDomain.ErrJobNotFound)
}

func TestMySQLJobRepository_Create_Duplicate(t *testing.T) {
	ctx := context.Background()
	db, mock := newMockDB(t)
	repo := NewMySQLJobRepository(db)

	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO jobs")).
		WillReturnError(&mysql.MySQLError{Number: 1062, Message: "Duplicate entry"})

	err := repo.Create(ctx, newTestJob(t))
	assert.ErrorIs(t, err, jobsDomain.ErrDuplicateJob)
}

func TestMySQLJobRepository_Claim(t *testing.T) {
	ctx := context.Background()
	now := time.Date(2026, 5, 1, 9, 0, 0, 0, time.UTC)

	t.Run("SelectsThenMarksRunning", func(t *testing.T) {
		db, mock := newMockDB(t)
		repo := NewMySQLJobRepository(db)
		txManager := database.NewTxManager(db)
		first, second := uuid.New(), uuid.New()
		firstBytes, _ := first.MarshalBinary()
		secondBytes, _ := second.MarshalBinary()

		mock.ExpectBegin()
		mock.ExpectQuery(regexp.QuoteMeta("FOR UPDATE SKIP LOCKED")).
			WithArgs("default", now, 10).
			WillReturnRows(sqlmock.NewRows(jobColumnNames).
				AddRow(firstBytes, "default", "domain.renewal", []byte(`{}`), "pending", 0, 3, 120, 30,
					nil, now, nil, nil, nil, nil, now, now).
				AddRow(secondBytes, "default", "domain.renewal", []byte(`{}`), "pending", 1, 3, 120, 30,
					nil, now, nil, "timeout", nil, nil, now, now))
		mock.ExpectExec(regexp.QuoteMeta("WHERE id IN (?, ?)")).
			WithArgs(now, now, firstBytes, secondBytes).
			WillReturnResult(sqlmock.NewResult(0, 2))
		mock.ExpectCommit()

		var jobs []*jobsDomain.Job
		err := txManager.WithTx(ctx, func(ctx context.Context) error {
			var err error
			jobs, err = repo.Claim(ctx, "default", 10, now)
			return err
		})
		require.NoError(t, err)
		require.Len(t, jobs, 2)

		assert.Equal(t, first, jobs[0].ID)
		assert.Equal(t, jobsDomain.StatusRunning, jobs[0].Status)
		assert.Equal(t, 1, jobs[0].Attempts)
		assert.Equal(t, 2, jobs[1].Attempts)
		require.NotNil(t, jobs[1].LastError)
		assert.Equal(t, "timeout", *jobs[1].LastError)
		require.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("NothingAvailable", func(t *testing.T) {
		db, mock := newMockDB(t)
		repo := NewMySQLJobRepository(db)

		mock.ExpectQuery(regexp.QuoteMeta("FOR UPDATE SKIP LOCKED")).
			WillReturnRows(sqlmock.NewRows(jobColumnNames))

		jobs, err := repo.Claim(ctx, "default", 10, now)
		require.NoError(t, err)
		assert.Empty(t, jobs)
		require.NoError(t, mock.ExpectationsWereMet())
	})
}

func TestMySQLJobRepository_Reclaim(t *testing.T) {
	ctx := context.Background()
	db, mock := newMockDB(t)
	repo := NewMySQLJobRepository(db)
	now := time.Now().UTC()

	mock.ExpectExec(regexp.QuoteMeta("CASE WHEN attempts > max_tries THEN 'failed' ELSE 'pending' END")).
		WithArgs(now, now, reclaimedError, now, int64(90), now).
		WillReturnResult(sqlmock.NewResult(0, 1))

	count, err := repo.Reclaim(ctx, now, 90*time.Second)
	require.NoError(t, err)
	assert.Equal(t, int64(1), count)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestMySQLJobRepository_Complete(t *testing.T) {
	ctx := context.Background()
	db, mock := newMockDB(t)
	repo := NewMySQLJobRepository(db)
	id := uuid.New()
	idBytes, _ := id.MarshalBinary()
	now := time.Now().UTC()

	mock.ExpectExec(regexp.QuoteMeta("SET status = 'completed'")).
		WithArgs(now, now, idBytes).
		WillReturnResult(sqlmock.NewResult(0, 1))

	require.NoError(t, repo.Complete(ctx, id, now))
}
