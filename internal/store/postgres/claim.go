package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"quantplane/internal/store"
)

// workTable maps a work kind onto its table and state names. Dataset
// versions wait in VALIDATING rather than PENDING.
type workTable struct {
	table   string
	pending string
	running string
}

var workTables = map[store.WorkKind]workTable{
	store.WorkDatasetVersion: {
		table:   "dataset_versions",
		pending: string(store.VersionStatusValidating),
		running: string(store.VersionStatusRunning),
	},
	store.WorkForecastJob: {
		table:   "forecast_jobs",
		pending: string(store.RunStatusPending),
		running: string(store.RunStatusRunning),
	},
	store.WorkSignalRun: {
		table:   "signal_runs",
		pending: string(store.RunStatusPending),
		running: string(store.RunStatusRunning),
	},
	store.WorkTradeSimRun: {
		table:   "trade_sim_runs",
		pending: string(store.RunStatusPending),
		running: string(store.RunStatusRunning),
	},
}

// ClaimNext claims the oldest pending record of the given kind using
// SELECT ... FOR UPDATE SKIP LOCKED, then transitions it to RUNNING in
// the same transaction. The row lock makes the claim and the
// transition one atomic operation: a concurrent claimer skips the
// locked row and moves on to the next oldest.
func (s *Store) ClaimNext(ctx context.Context, kind store.WorkKind) (*store.WorkItem, error) {
	wt, ok := workTables[kind]
	if !ok {
		return nil, fmt.Errorf("unknown work kind %q", kind)
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, err
	}
	defer tx.Rollback()

	selectQuery := fmt.Sprintf(`
		SELECT id, tenant_id
		FROM %s
		WHERE status = $1
		ORDER BY created_at ASC
		LIMIT 1
		FOR UPDATE SKIP LOCKED
	`, wt.table)

	var id, tenantID string
	err = tx.QueryRowContext(ctx, selectQuery, wt.pending).Scan(&id, &tenantID)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, store.ErrNoWork
	}
	if err != nil {
		return nil, fmt.Errorf("claim select failed: %w", err)
	}

	updateQuery := fmt.Sprintf(`
		UPDATE %s
		SET status = $1, started_at = NOW(), error_message = NULL
		WHERE id = $2
	`, wt.table)

	if _, err := tx.ExecContext(ctx, updateQuery, wt.running, id); err != nil {
		return nil, fmt.Errorf("claim transition failed: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return nil, err
	}

	return &store.WorkItem{Kind: kind, ID: id, TenantID: tenantID}, nil
}

// CountPending reports how many records of the given kind are waiting
// to be claimed.
func (s *Store) CountPending(ctx context.Context, kind store.WorkKind) (int64, error) {
	wt, ok := workTables[kind]
	if !ok {
		return 0, fmt.Errorf("unknown work kind %q", kind)
	}

	query := fmt.Sprintf("SELECT COUNT(*) FROM %s WHERE status = $1", wt.table)

	var n int64
	if err := s.db.QueryRowContext(ctx, query, wt.pending).Scan(&n); err != nil {
		return 0, err
	}
	return n, nil
}
