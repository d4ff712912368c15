package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"quantplane/internal/store"
)

// CreateSimAccount inserts a new simulation account row.
func (s *Store) CreateSimAccount(ctx context.Context, a *store.SimAccount) error {
	query := `
		INSERT INTO sim_accounts (id, tenant_id, name, initial_cash, currency, created_at)
		VALUES ($1, $2, $3, $4, $5, $6)
	`
	_, err := s.db.ExecContext(ctx, query, a.ID, a.TenantID, a.Name, a.InitialCash, a.Currency, a.CreatedAt)
	if err != nil {
		return fmt.Errorf("create sim account: %w", err)
	}
	return nil
}

// GetSimAccount returns an account in the tenant's scope.
func (s *Store) GetSimAccount(ctx context.Context, tenantID, id string) (*store.SimAccount, error) {
	query := `
		SELECT id, tenant_id, name, initial_cash, currency, created_at
		FROM sim_accounts WHERE id = $1 AND tenant_id = $2
	`
	var a store.SimAccount
	err := s.db.QueryRowContext(ctx, query, id, tenantID).Scan(
		&a.ID, &a.TenantID, &a.Name, &a.InitialCash, &a.Currency, &a.CreatedAt,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, store.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &a, nil
}

// CreateTradeSimRun inserts a new PENDING trade simulation run.
func (s *Store) CreateTradeSimRun(ctx context.Context, r *store.TradeSimRun) error {
	query := `
		INSERT INTO trade_sim_runs (id, tenant_id, account_id, signal_run_id, exec_model, status, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
	`
	_, err := s.db.ExecContext(ctx, query, r.ID, r.TenantID, r.AccountID, r.SignalRunID, r.ExecModel, r.Status, r.CreatedAt)
	if err != nil {
		return fmt.Errorf("create trade sim run: %w", err)
	}
	return nil
}

// GetTradeSimRun returns a run in the tenant's scope.
func (s *Store) GetTradeSimRun(ctx context.Context, tenantID, id string) (*store.TradeSimRun, error) {
	query := `
		SELECT id, tenant_id, account_id, signal_run_id, exec_model, status,
		       output_uri, result_json, error_message, created_at, started_at, finished_at
		FROM trade_sim_runs WHERE id = $1 AND tenant_id = $2
	`
	var r store.TradeSimRun
	err := s.db.QueryRowContext(ctx, query, id, tenantID).Scan(
		&r.ID, &r.TenantID, &r.AccountID, &r.SignalRunID, &r.ExecModel, &r.Status,
		&r.OutputURI, &r.Result, &r.ErrorMessage, &r.CreatedAt, &r.StartedAt, &r.FinishedAt,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, store.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &r, nil
}

// CompleteTradeSimRun records the terminal SUCCEEDED transition with
// the inline result payload.
func (s *Store) CompleteTradeSimRun(ctx context.Context, id, outputURI string, result []byte) error {
	query := `
		UPDATE trade_sim_runs
		SET status = $1, output_uri = $2, result_json = $3, finished_at = NOW()
		WHERE id = $4
	`
	_, err := s.db.ExecContext(ctx, query, store.RunStatusSucceeded, outputURI, result, id)
	return err
}

// FailTradeSimRun records the terminal FAILED transition.
func (s *Store) FailTradeSimRun(ctx context.Context, id, errMsg string) error {
	query := `
		UPDATE trade_sim_runs
		SET status = $1, error_message = $2, finished_at = NOW()
		WHERE id = $3
	`
	_, err := s.db.ExecContext(ctx, query, store.RunStatusFailed, errMsg, id)
	return err
}
