package store

import (
	"context"
	"database/sql"
	"errors"
)

// Sentinel errors shared by all store backends.
var (
	// ErrNotFound is returned when an entity does not exist in the
	// caller's tenant scope.
	ErrNotFound = errors.New("store: not found")

	// ErrNoWork is returned by ClaimNext when no pending record of the
	// requested kind exists.
	ErrNoWork = errors.New("store: no pending work")

	// ErrDuplicateIdempotencyKey is returned when a forecast job insert
	// loses the race on the (tenant_id, idempotency_key) unique index.
	ErrDuplicateIdempotencyKey = errors.New("store: duplicate idempotency key")
)

// DBTransaction defines the methods shared by *sql.DB and *sql.Tx.
// This allows us to pass either a connection pool or an active
// transaction to the repository methods.
type DBTransaction interface {
	ExecContext(ctx context.Context, query string, args ...interface{}) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...interface{}) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...interface{}) *sql.Row
}

// TenantStore handles tenant provisioning and API-key lookup.
type TenantStore interface {
	// CreateTenant inserts a new tenant with its hashed API key.
	CreateTenant(ctx context.Context, tenant *Tenant, hashedKey string) error

	// GetTenantByAPIKeyHash returns a tenant by its API key hash.
	GetTenantByAPIKeyHash(ctx context.Context, hash string) (*Tenant, error)
}

// DatasetStore persists datasets and their versions.
type DatasetStore interface {
	CreateDataset(ctx context.Context, d *Dataset) error
	GetDataset(ctx context.Context, tenantID, id string) (*Dataset, error)

	CreateDatasetVersion(ctx context.Context, v *DatasetVersion) error
	GetDatasetVersion(ctx context.Context, tenantID, id string) (*DatasetVersion, error)

	// MarkDatasetVersionReady records the terminal READY transition with
	// the processed artifact reference, checksum and profile.
	MarkDatasetVersionReady(ctx context.Context, id, processedURI, checksum string, profile Profile) error

	// MarkDatasetVersionFailed records the terminal FAILED transition.
	MarkDatasetVersionFailed(ctx context.Context, id, errMsg string) error
}

// ForecastStore persists forecast jobs.
type ForecastStore interface {
	// CreateForecastJob inserts a new PENDING job. It returns
	// ErrDuplicateIdempotencyKey when the (tenant, idempotency key)
	// unique constraint is violated.
	CreateForecastJob(ctx context.Context, job *ForecastJob) error

	GetForecastJob(ctx context.Context, tenantID, id string) (*ForecastJob, error)

	// GetForecastJobByIdempotencyKey returns the job previously created
	// with the given key, or ErrNotFound.
	GetForecastJobByIdempotencyKey(ctx context.Context, tenantID, key string) (*ForecastJob, error)

	CompleteForecastJob(ctx context.Context, id, outputURI string) error
	FailForecastJob(ctx context.Context, id, errMsg string) error
}

// SignalStore persists strategies and signal runs.
type SignalStore interface {
	CreateStrategy(ctx context.Context, s *Strategy) error
	GetStrategy(ctx context.Context, tenantID, id string) (*Strategy, error)

	CreateSignalRun(ctx context.Context, r *SignalRun) error
	GetSignalRun(ctx context.Context, tenantID, id string) (*SignalRun, error)
	CompleteSignalRun(ctx context.Context, id, outputURI string) error
	FailSignalRun(ctx context.Context, id, errMsg string) error
}

// SimStore persists simulation accounts and trade sim runs.
type SimStore interface {
	CreateSimAccount(ctx context.Context, a *SimAccount) error
	GetSimAccount(ctx context.Context, tenantID, id string) (*SimAccount, error)

	CreateTradeSimRun(ctx context.Context, r *TradeSimRun) error
	GetTradeSimRun(ctx context.Context, tenantID, id string) (*TradeSimRun, error)
	CompleteTradeSimRun(ctx context.Context, id, outputURI string, result []byte) error
	FailTradeSimRun(ctx context.Context, id, errMsg string) error
}

// Store combines every repository plus the work queue. Both the
// postgres and the in-memory backend implement it.
type Store interface {
	TenantStore
	DatasetStore
	ForecastStore
	SignalStore
	SimStore
	WorkQueue

	Ping(ctx context.Context) error
}
