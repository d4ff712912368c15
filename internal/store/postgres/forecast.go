package postgres

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	"quantplane/internal/store"

	"github.com/lib/pq"
)

// uniqueViolation is the postgres error code for unique constraint
// violations.
const uniqueViolation = "23505"

// CreateForecastJob inserts a new PENDING job. A lost race on the
// (tenant_id, idempotency_key) unique index surfaces as
// store.ErrDuplicateIdempotencyKey so the caller can return the
// winner's record.
func (s *Store) CreateForecastJob(ctx context.Context, job *store.ForecastJob) error {
	params, err := json.Marshal(job.Params)
	if err != nil {
		return fmt.Errorf("marshal params: %w", err)
	}

	query := `
		INSERT INTO forecast_jobs
			(id, tenant_id, dataset_version_id, idempotency_key, dedup_key,
			 model_type, params_json, horizon, status, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
	`
	_, err = s.db.ExecContext(ctx, query,
		job.ID, job.TenantID, job.DatasetVersionID, job.IdempotencyKey, job.DedupKey,
		job.ModelType, params, job.Horizon, job.Status, job.CreatedAt,
	)
	var pqErr *pq.Error
	if errors.As(err, &pqErr) && pqErr.Code == uniqueViolation {
		return store.ErrDuplicateIdempotencyKey
	}
	if err != nil {
		return fmt.Errorf("create forecast job: %w", err)
	}
	return nil
}

const forecastJobColumns = `
	id, tenant_id, dataset_version_id, idempotency_key, dedup_key, model_type,
	params_json, horizon, status, output_uri, error_message, created_at, started_at, finished_at
`

// GetForecastJob returns a job in the tenant's scope.
func (s *Store) GetForecastJob(ctx context.Context, tenantID, id string) (*store.ForecastJob, error) {
	query := "SELECT " + forecastJobColumns + " FROM forecast_jobs WHERE id = $1 AND tenant_id = $2"
	return scanForecastJob(s.db.QueryRowContext(ctx, query, id, tenantID))
}

// GetForecastJobByIdempotencyKey returns the job previously created
// with the given key.
func (s *Store) GetForecastJobByIdempotencyKey(ctx context.Context, tenantID, key string) (*store.ForecastJob, error) {
	query := "SELECT " + forecastJobColumns + " FROM forecast_jobs WHERE tenant_id = $1 AND idempotency_key = $2"
	return scanForecastJob(s.db.QueryRowContext(ctx, query, tenantID, key))
}

func scanForecastJob(row *sql.Row) (*store.ForecastJob, error) {
	var j store.ForecastJob
	var params []byte

	err := row.Scan(
		&j.ID, &j.TenantID, &j.DatasetVersionID, &j.IdempotencyKey, &j.DedupKey, &j.ModelType,
		&params, &j.Horizon, &j.Status, &j.OutputURI, &j.ErrorMessage, &j.CreatedAt, &j.StartedAt, &j.FinishedAt,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, store.ErrNotFound
	}
	if err != nil {
		return nil, err
	}

	if len(params) > 0 {
		if err := json.Unmarshal(params, &j.Params); err != nil {
			return nil, fmt.Errorf("decode params: %w", err)
		}
	}
	return &j, nil
}

// CompleteForecastJob records the terminal SUCCEEDED transition.
func (s *Store) CompleteForecastJob(ctx context.Context, id, outputURI string) error {
	query := `
		UPDATE forecast_jobs
		SET status = $1, output_uri = $2, finished_at = NOW()
		WHERE id = $3
	`
	_, err := s.db.ExecContext(ctx, query, store.RunStatusSucceeded, outputURI, id)
	return err
}

// FailForecastJob records the terminal FAILED transition.
func (s *Store) FailForecastJob(ctx context.Context, id, errMsg string) error {
	query := `
		UPDATE forecast_jobs
		SET status = $1, error_message = $2, finished_at = NOW()
		WHERE id = $3
	`
	_, err := s.db.ExecContext(ctx, query, store.RunStatusFailed, errMsg, id)
	return err
}
