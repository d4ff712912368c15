package postgres

import (
	"context"
	"errors"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"

	"quantplane/internal/store"
)

func newMockStore(t *testing.T) (*Store, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherRegexp))
	if err != nil {
		t.Fatalf("sqlmock.New: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	return &Store{db: db}, mock
}

func TestClaimNext_ClaimsAndTransitions(t *testing.T) {
	s, mock := newMockStore(t)

	mock.ExpectBegin()
	mock.ExpectQuery(`SELECT id, tenant_id\s+FROM forecast_jobs`).
		WithArgs("PENDING").
		WillReturnRows(sqlmock.NewRows([]string{"id", "tenant_id"}).AddRow("fc_123", "tn_1"))
	mock.ExpectExec(`UPDATE forecast_jobs\s+SET status = \$1, started_at = NOW\(\), error_message = NULL`).
		WithArgs("RUNNING", "fc_123").
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	item, err := s.ClaimNext(context.Background(), store.WorkForecastJob)
	if err != nil {
		t.Fatalf("ClaimNext: %v", err)
	}
	if item.ID != "fc_123" || item.TenantID != "tn_1" || item.Kind != store.WorkForecastJob {
		t.Errorf("unexpected work item: %+v", item)
	}

	if err := mock.ExpectationsWereMet(); err != nil {
		t.Errorf("unmet expectations: %v", err)
	}
}

func TestClaimNext_DatasetVersionsWaitInValidating(t *testing.T) {
	s, mock := newMockStore(t)

	mock.ExpectBegin()
	mock.ExpectQuery(`SELECT id, tenant_id\s+FROM dataset_versions`).
		WithArgs("VALIDATING").
		WillReturnRows(sqlmock.NewRows([]string{"id", "tenant_id"}).AddRow("dsv_1", "tn_1"))
	mock.ExpectExec(`UPDATE dataset_versions`).
		WithArgs("RUNNING", "dsv_1").
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	item, err := s.ClaimNext(context.Background(), store.WorkDatasetVersion)
	if err != nil {
		t.Fatalf("ClaimNext: %v", err)
	}
	if item.ID != "dsv_1" {
		t.Errorf("unexpected work item: %+v", item)
	}

	if err := mock.ExpectationsWereMet(); err != nil {
		t.Errorf("unmet expectations: %v", err)
	}
}

func TestClaimNext_EmptyQueue(t *testing.T) {
	s, mock := newMockStore(t)

	mock.ExpectBegin()
	mock.ExpectQuery(`SELECT id, tenant_id\s+FROM forecast_jobs`).
		WithArgs("PENDING").
		WillReturnRows(sqlmock.NewRows([]string{"id", "tenant_id"}))
	mock.ExpectRollback()

	_, err := s.ClaimNext(context.Background(), store.WorkForecastJob)
	if !errors.Is(err, store.ErrNoWork) {
		t.Errorf("expected ErrNoWork, got %v", err)
	}

	if err := mock.ExpectationsWereMet(); err != nil {
		t.Errorf("unmet expectations: %v", err)
	}
}

func TestClaimNext_UnknownKind(t *testing.T) {
	s, _ := newMockStore(t)

	_, err := s.ClaimNext(context.Background(), store.WorkKind("bogus"))
	if err == nil {
		t.Fatal("expected error for unknown work kind")
	}
}

func TestCountPending(t *testing.T) {
	s, mock := newMockStore(t)

	mock.ExpectQuery(`SELECT COUNT\(\*\) FROM signal_runs WHERE status = \$1`).
		WithArgs("PENDING").
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(7))

	n, err := s.CountPending(context.Background(), store.WorkSignalRun)
	if err != nil {
		t.Fatalf("CountPending: %v", err)
	}
	if n != 7 {
		t.Errorf("expected 7, got %d", n)
	}

	if err := mock.ExpectationsWereMet(); err != nil {
		t.Errorf("unmet expectations: %v", err)
	}
}
