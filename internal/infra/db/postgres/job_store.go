package postgres

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"voxdub/internal/domain"
	"voxdub/internal/domain/model"
	"voxdub/internal/domain/ports/repository"

	"github.com/jackc/pgconn"
	"github.com/jackc/pgx/v4"
	"github.com/jackc/pgx/v4/pgxpool"
)

var _ repository.JobStore = (*JobStore)(nil)

// JobStore persists job records in Postgres. Row-level locking (SELECT ...
// FOR UPDATE) serializes concurrent patches for the same job id while leaving
// other rows untouched.
type JobStore struct {
	pool *pgxpool.Pool
}

func NewPgxPool(ctx context.Context, url string) (*pgxpool.Pool, error) {
	pool, err := pgxpool.Connect(ctx, url)
	if err != nil {
		return nil, err
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, err
	}
	return pool, nil
}

func NewJobStore(pool *pgxpool.Pool) *JobStore {
	return &JobStore{pool: pool}
}

const insertSQL = `
INSERT INTO dub_jobs (id, status, current_stage, progress, source_language, target_language,
                      provider_requested, provider_used, filename, artifact_paths, error,
                      created_at, updated_at, completed_at)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14);`

const selectSQL = `
SELECT id, status, current_stage, progress, source_language, target_language,
       provider_requested, provider_used, filename, artifact_paths, error,
       created_at, updated_at, completed_at
FROM dub_jobs `

const updateSQL = `
UPDATE dub_jobs SET status = $2, current_stage = $3, progress = $4, source_language = $5,
                    provider_used = $6, artifact_paths = $7, error = $8,
                    updated_at = $9, completed_at = $10
WHERE id = $1;`

func (s *JobStore) Create(ctx context.Context, job *model.Job) error {
	artifacts, jobErr, err := marshalJSON(job)
	if err != nil {
		return err
	}
	_, err = s.pool.Exec(ctx, insertSQL,
		job.ID, job.Status, job.CurrentStage, job.Progress, job.SourceLanguage, job.TargetLanguage,
		job.ProviderRequested, job.ProviderUsed, job.Filename, artifacts, jobErr,
		job.CreatedAt, job.UpdatedAt, job.CompletedAt)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" {
			return domain.ErrAlreadyExists
		}
		return err
	}
	return nil
}

func (s *JobStore) Get(ctx context.Context, id string) (*model.Job, error) {
	row := s.pool.QueryRow(ctx, selectSQL+`WHERE id = $1;`, id)
	return scanJob(row)
}

func (s *JobStore) Update(ctx context.Context, id string, patch func(*model.Job) error) (*model.Job, error) {
	var out *model.Job
	err := s.pool.BeginTxFunc(ctx, pgx.TxOptions{}, func(tx pgx.Tx) error {
		row := tx.QueryRow(ctx, selectSQL+`WHERE id = $1 FOR UPDATE;`, id)
		job, err := scanJob(row)
		if err != nil {
			return err
		}
		if err := patch(job); err != nil {
			return err
		}
		job.UpdatedAt = time.Now()
		artifacts, jobErr, err := marshalJSON(job)
		if err != nil {
			return err
		}
		_, err = tx.Exec(ctx, updateSQL,
			job.ID, job.Status, job.CurrentStage, job.Progress, job.SourceLanguage,
			job.ProviderUsed, artifacts, jobErr, job.UpdatedAt, job.CompletedAt)
		if err != nil {
			return err
		}
		out = job
		return nil
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

func (s *JobStore) List(ctx context.Context) ([]*model.Job, error) {
	rows, err := s.pool.Query(ctx, selectSQL+`ORDER BY created_at;`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []*model.Job
	for rows.Next() {
		job, err := scanJob(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, job)
	}
	return out, rows.Err()
}

func marshalJSON(job *model.Job) ([]byte, []byte, error) {
	artifacts, err := json.Marshal(job.ArtifactPaths)
	if err != nil {
		return nil, nil, err
	}
	var jobErr []byte
	if job.Error != nil {
		if jobErr, err = json.Marshal(job.Error); err != nil {
			return nil, nil, err
		}
	}
	return artifacts, jobErr, nil
}

func scanJob(row pgx.Row) (*model.Job, error) {
	var (
		job       model.Job
		statusStr string
		artifacts []byte
		jobErr    []byte
	)
	err := row.Scan(
		&job.ID, &statusStr, &job.CurrentStage, &job.Progress, &job.SourceLanguage, &job.TargetLanguage,
		&job.ProviderRequested, &job.ProviderUsed, &job.Filename, &artifacts, &jobErr,
		&job.CreatedAt, &job.UpdatedAt, &job.CompletedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		return nil, err
	}
	job.Status = model.JobStatus(statusStr)
	if len(artifacts) > 0 {
		if err := json.Unmarshal(artifacts, &job.ArtifactPaths); err != nil {
			return nil, err
		}
	}
	if job.ArtifactPaths == nil {
		job.ArtifactPaths = map[string]string{}
	}
	if len(jobErr) > 0 {
		var e model.JobError
		if err := json.Unmarshal(jobErr, &e); err != nil {
			return nil, err
		}
		job.Error = &e
	}
	return &job, nil
}
