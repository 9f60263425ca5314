// Package data provides the persistence layer for verification job records.
package data

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/jackc/pgerrcode"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/target/ekyc-verify/internal/domain/model"
)

// RepoConfig holds configuration options for the job repository.
type RepoConfig struct {
	Logger       *slog.Logger
	TimeProvider TimeProvider
}

// JobRepo provides postgres-backed operations for verification job records.
type JobRepo struct {
	DB           *sql.DB
	timeProvider TimeProvider
	logger       *slog.Logger
}

// NewJobRepo creates a new JobRepo instance with the given database connection and configuration.
func NewJobRepo(db *sql.DB, cfg RepoConfig) *JobRepo {
	tp := cfg.TimeProvider
	if tp == nil {
		tp = &RealTimeProvider{}
	}

	return &JobRepo{
		DB:           db,
		timeProvider: tp,
		logger:       cfg.Logger,
	}
}

const jobColumns = `
  user_id,
  request_id,
  status,
  name,
  date_of_birth,
  id_number,
  id_type,
  address,
  bucket,
  id_front,
  id_back,
  selfie,
  creation_time,
  update_time,
  complete,
  success,
  error
`

// Get returns the job stored under (userID, requestID).
func (r *JobRepo) Get(ctx context.Context, userID, requestID string) (*model.Job, error) {
	row := r.DB.QueryRowContext(ctx, `
		SELECT `+jobColumns+`
		FROM ekyc_jobs
		WHERE user_id = $1 AND request_id = $2
	`, userID, requestID)

	job, err := scanJob(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrJobNotFound
		}
		return nil, unavailable("get job", err)
	}
	return job, nil
}

// Put inserts a new job record. The (user_id, request_id) pair must not
// already exist; a collision surfaces as ErrJobExists.
func (r *JobRepo) Put(ctx context.Context, job *model.Job) error {
	if job == nil {
		return errors.New("job is required")
	}

	_, err := r.DB.ExecContext(ctx, `
		INSERT INTO ekyc_jobs (`+jobColumns+`)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17)
	`,
		job.UserID, job.RequestID, job.Status,
		job.Name, job.DateOfBirth, job.IDNumber, job.IDType, job.Address,
		job.Bucket, job.IDFront, job.IDBack, job.Selfie,
		job.CreationTime, job.UpdateTime,
		job.Complete, job.Success, job.Error,
	)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == pgerrcode.UniqueViolation {
			return ErrJobExists
		}
		return unavailable("put job", err)
	}
	return nil
}

// Update applies a partial merge to the stored record. Only fields named in
// upd change; update_time is always bumped and never decreases. Returns the
// fully merged record.
func (r *JobRepo) Update(
	ctx context.Context,
	userID, requestID string,
	upd model.JobUpdate,
) (*model.Job, error) {
	if upd.Empty() {
		return nil, ErrEmptyUpdate
	}

	setClause, args := buildUpdateSet(upd, EpochMillis(r.timeProvider.Now()))
	args = append(args, userID, requestID)

	query := fmt.Sprintf(`
		UPDATE ekyc_jobs
		SET %s
		WHERE user_id = $%d AND request_id = $%d
		RETURNING `+jobColumns,
		setClause, len(args)-1, len(args))

	job, err := scanJob(r.DB.QueryRowContext(ctx, query, args...))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrJobNotFound
		}
		return nil, unavailable("update job", err)
	}

	if r.logger != nil {
		r.logger.DebugContext(ctx, "job updated",
			"user_id", userID,
			"request_id", requestID,
			"status", job.Status,
		)
	}
	return job, nil
}

// buildUpdateSet renders the SET clause for a partial update. Placeholders
// are numbered from $1; callers append the key arguments after the returned
// ones. The update_time assignment uses GREATEST so a late writer can never
// move the clock backwards.
func buildUpdateSet(upd model.JobUpdate, nowMillis int64) (string, []any) {
	var (
		sets []string
		args []any
	)
	add := func(col string, v any) {
		args = append(args, v)
		sets = append(sets, fmt.Sprintf("%s = $%d", col, len(args)))
	}

	if upd.Status != nil {
		add("status", *upd.Status)
	}
	if upd.Error != nil {
		add("error", *upd.Error)
	}
	if upd.Complete != nil {
		add("complete", *upd.Complete)
	}
	if upd.Success != nil {
		add("success", *upd.Success)
	}

	args = append(args, nowMillis)
	sets = append(sets, fmt.Sprintf("update_time = GREATEST(update_time, $%d)", len(args)))

	return strings.Join(sets, ", "), args
}

// rowScanner abstracts *sql.Row and *sql.Rows for scanJob.
type rowScanner interface {
	Scan(dest ...any) error
}

func scanJob(row rowScanner) (*model.Job, error) {
	var job model.Job
	err := row.Scan(
		&job.UserID, &job.RequestID, &job.Status,
		&job.Name, &job.DateOfBirth, &job.IDNumber, &job.IDType, &job.Address,
		&job.Bucket, &job.IDFront, &job.IDBack, &job.Selfie,
		&job.CreationTime, &job.UpdateTime,
		&job.Complete, &job.Success, &job.Error,
	)
	if err != nil {
		return nil, err
	}
	return &job, nil
}

func unavailable(op string, err error) error {
	return fmt.Errorf("%s: %w", op, errors.Join(ErrStoreUnavailable, err))
}
