package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"quantplane/internal/store"
)

// CreateStrategy inserts a new strategy row.
func (s *Store) CreateStrategy(ctx context.Context, st *store.Strategy) error {
	query := `
		INSERT INTO strategies (id, tenant_id, name, buy_above_pct, sell_below_pct, created_at)
		VALUES ($1, $2, $3, $4, $5, $6)
	`
	_, err := s.db.ExecContext(ctx, query, st.ID, st.TenantID, st.Name, st.BuyAbovePct, st.SellBelowPct, st.CreatedAt)
	if err != nil {
		return fmt.Errorf("create strategy: %w", err)
	}
	return nil
}

// GetStrategy returns a strategy in the tenant's scope.
func (s *Store) GetStrategy(ctx context.Context, tenantID, id string) (*store.Strategy, error) {
	query := `
		SELECT id, tenant_id, name, buy_above_pct, sell_below_pct, created_at
		FROM strategies WHERE id = $1 AND tenant_id = $2
	`
	var st store.Strategy
	err := s.db.QueryRowContext(ctx, query, id, tenantID).Scan(
		&st.ID, &st.TenantID, &st.Name, &st.BuyAbovePct, &st.SellBelowPct, &st.CreatedAt,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, store.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &st, nil
}

// CreateSignalRun inserts a new PENDING signal run.
func (s *Store) CreateSignalRun(ctx context.Context, r *store.SignalRun) error {
	query := `
		INSERT INTO signal_runs (id, tenant_id, forecast_job_id, strategy_id, status, created_at)
		VALUES ($1, $2, $3, $4, $5, $6)
	`
	_, err := s.db.ExecContext(ctx, query, r.ID, r.TenantID, r.ForecastJobID, r.StrategyID, r.Status, r.CreatedAt)
	if err != nil {
		return fmt.Errorf("create signal run: %w", err)
	}
	return nil
}

// GetSignalRun returns a run in the tenant's scope.
func (s *Store) GetSignalRun(ctx context.Context, tenantID, id string) (*store.SignalRun, error) {
	query := `
		SELECT id, tenant_id, forecast_job_id, strategy_id, status, output_uri,
		       error_message, created_at, started_at, finished_at
		FROM signal_runs WHERE id = $1 AND tenant_id = $2
	`
	var r store.SignalRun
	err := s.db.QueryRowContext(ctx, query, id, tenantID).Scan(
		&r.ID, &r.TenantID, &r.ForecastJobID, &r.StrategyID, &r.Status, &r.OutputURI,
		&r.ErrorMessage, &r.CreatedAt, &r.StartedAt, &r.FinishedAt,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, store.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &r, nil
}

// CompleteSignalRun records the terminal SUCCEEDED transition.
func (s *Store) CompleteSignalRun(ctx context.Context, id, outputURI string) error {
	query := `
		UPDATE signal_runs
		SET status = $1, output_uri = $2, finished_at = NOW()
		WHERE id = $3
	`
	_, err := s.db.ExecContext(ctx, query, store.RunStatusSucceeded, outputURI, id)
	return err
}

// FailSignalRun records the terminal FAILED transition.
func (s *Store) FailSignalRun(ctx context.Context, id, errMsg string) error {
	query := `
		UPDATE signal_runs
		SET status = $1, error_message = $2, finished_at = NOW()
		WHERE id = $3
	`
	_, err := s.db.ExecContext(ctx, query, store.RunStatusFailed, errMsg, id)
	return err
}
