package pipeline

import (
	"context"
	"errors"
	"time"

	"quantplane/internal/dedup"
	"quantplane/internal/forecast"
	"quantplane/internal/store"
)

// Service implements the creation operations of the pipeline. Every
// guard clause here runs at creation time; a rejected request never
// creates a record.
type Service struct {
	store store.Store
}

// NewService creates a pipeline service over the given store backend.
func NewService(s store.Store) *Service {
	return &Service{store: s}
}

// CreateDataset registers a new logical dataset container.
func (s *Service) CreateDataset(ctx context.Context, tenantID, name string) (*store.Dataset, error) {
	if name == "" {
		return nil, Validationf("dataset name is required")
	}
	d := &store.Dataset{
		ID:        store.NewDatasetID(),
		TenantID:  tenantID,
		Name:      name,
		CreatedAt: time.Now().UTC(),
	}
	if err := s.store.CreateDataset(ctx, d); err != nil {
		return nil, err
	}
	return d, nil
}

// IngestVersion creates a new dataset version in VALIDATING state. The
// dataset worker picks it up from there.
func (s *Service) IngestVersion(ctx context.Context, tenantID, datasetID, rawURI string, mapping store.ColumnMapping) (*store.DatasetVersion, error) {
	if rawURI == "" {
		return nil, Validationf("rawUri is required")
	}
	if mapping.Timestamp == "" || mapping.Target == "" {
		return nil, Validationf("column mapping requires timestamp and target columns")
	}
	if _, err := s.store.GetDataset(ctx, tenantID, datasetID); err != nil {
		return nil, err
	}

	v := &store.DatasetVersion{
		ID:        store.NewDatasetVersionID(),
		DatasetID: datasetID,
		TenantID:  tenantID,
		RawURI:    rawURI,
		Mapping:   mapping,
		Status:    store.VersionStatusValidating,
		CreatedAt: time.Now().UTC(),
	}
	if err := s.store.CreateDatasetVersion(ctx, v); err != nil {
		return nil, err
	}
	return v, nil
}

// CreateStrategy registers a threshold strategy.
func (s *Service) CreateStrategy(ctx context.Context, tenantID, name string, buyAbovePct, sellBelowPct float64) (*store.Strategy, error) {
	if name == "" {
		return nil, Validationf("strategy name is required")
	}
	if buyAbovePct < 0 || sellBelowPct < 0 {
		return nil, Validationf("strategy thresholds must be non-negative")
	}
	st := &store.Strategy{
		ID:           store.NewStrategyID(),
		TenantID:     tenantID,
		Name:         name,
		BuyAbovePct:  buyAbovePct,
		SellBelowPct: sellBelowPct,
		CreatedAt:    time.Now().UTC(),
	}
	if err := s.store.CreateStrategy(ctx, st); err != nil {
		return nil, err
	}
	return st, nil
}

// CreateSimAccount registers a simulation account.
func (s *Service) CreateSimAccount(ctx context.Context, tenantID, name string, initialCash float64, currency string) (*store.SimAccount, error) {
	if initialCash <= 0 {
		return nil, Validationf("initialCash must be positive")
	}
	if currency == "" {
		currency = "USD"
	}
	a := &store.SimAccount{
		ID:          store.NewSimAccountID(),
		TenantID:    tenantID,
		Name:        name,
		InitialCash: initialCash,
		Currency:    currency,
		CreatedAt:   time.Now().UTC(),
	}
	if err := s.store.CreateSimAccount(ctx, a); err != nil {
		return nil, err
	}
	return a, nil
}

// ForecastRequest is the already-validated, typed input to
// CreateForecastJob.
type ForecastRequest struct {
	DatasetVersionID string
	IdempotencyKey   string
	ModelType        string
	Params           map[string]any
	Horizon          int
}

// CreateForecastJob creates a PENDING forecast job against a READY
// dataset version. When an idempotency key is supplied, a repeated
// call returns the original job; the response is identical whether
// this is the first or a repeated call.
func (s *Service) CreateForecastJob(ctx context.Context, tenantID string, req ForecastRequest) (*store.ForecastJob, error) {
	if req.ModelType == "" {
		return nil, Validationf("modelType is required")
	}
	if req.Horizon < 1 || req.Horizon > forecast.MaxHorizon {
		return nil, Validationf("horizon must be in 1..%d, got %d", forecast.MaxHorizon, req.Horizon)
	}
	if req.DatasetVersionID == "" {
		return nil, Validationf("datasetVersionId is required")
	}

	if req.IdempotencyKey != "" {
		existing, err := s.store.GetForecastJobByIdempotencyKey(ctx, tenantID, req.IdempotencyKey)
		if err == nil {
			return existing, nil
		}
		if !errors.Is(err, store.ErrNotFound) {
			return nil, err
		}
	}

	version, err := s.store.GetDatasetVersion(ctx, tenantID, req.DatasetVersionID)
	if err != nil {
		return nil, err
	}
	if version.Status != store.VersionStatusReady {
		return nil, Preconditionf("dataset version %s is not READY (status=%s)", version.ID, version.Status)
	}
	if version.Checksum == nil {
		return nil, Preconditionf("dataset version %s has no checksum", version.ID)
	}

	normalized, err := dedup.NormalizeParams(req.ModelType, req.Params)
	if err != nil {
		return nil, Validationf("%v", err)
	}
	key, err := dedup.DedupKey(*version.Checksum, req.ModelType, normalized, req.Horizon)
	if err != nil {
		return nil, err
	}

	job := &store.ForecastJob{
		ID:               store.NewForecastJobID(),
		TenantID:         tenantID,
		DatasetVersionID: version.ID,
		DedupKey:         key,
		ModelType:        req.ModelType,
		Params:           normalized,
		Horizon:          req.Horizon,
		Status:           store.RunStatusPending,
		CreatedAt:        time.Now().UTC(),
	}
	if req.IdempotencyKey != "" {
		k := req.IdempotencyKey
		job.IdempotencyKey = &k
	}

	err = s.store.CreateForecastJob(ctx, job)
	if errors.Is(err, store.ErrDuplicateIdempotencyKey) {
		// Lost the insert race; the winner's record is the canonical one.
		return s.store.GetForecastJobByIdempotencyKey(ctx, tenantID, req.IdempotencyKey)
	}
	if err != nil {
		return nil, err
	}
	return job, nil
}

// CreateSignalRun creates a PENDING signal run over a succeeded
// forecast job.
func (s *Service) CreateSignalRun(ctx context.Context, tenantID, forecastJobID, strategyID string) (*store.SignalRun, error) {
	if forecastJobID == "" || strategyID == "" {
		return nil, Validationf("forecastJobId and strategyId are required")
	}

	job, err := s.store.GetForecastJob(ctx, tenantID, forecastJobID)
	if err != nil {
		return nil, err
	}
	if job.Status != store.RunStatusSucceeded {
		return nil, Preconditionf("forecast job %s is not SUCCEEDED (status=%s)", job.ID, job.Status)
	}
	if job.OutputURI == nil || *job.OutputURI == "" {
		return nil, Preconditionf("forecast job %s has no output artifact", job.ID)
	}

	version, err := s.store.GetDatasetVersion(ctx, tenantID, job.DatasetVersionID)
	if err != nil {
		return nil, err
	}
	if version.ProcessedURI == nil || *version.ProcessedURI == "" {
		return nil, Preconditionf("dataset version %s has no processed artifact", version.ID)
	}

	if _, err := s.store.GetStrategy(ctx, tenantID, strategyID); err != nil {
		return nil, err
	}

	run := &store.SignalRun{
		ID:            store.NewSignalRunID(),
		TenantID:      tenantID,
		ForecastJobID: job.ID,
		StrategyID:    strategyID,
		Status:        store.RunStatusPending,
		CreatedAt:     time.Now().UTC(),
	}
	if err := s.store.CreateSignalRun(ctx, run); err != nil {
		return nil, err
	}
	return run, nil
}

// CreateTradeSimRun creates a PENDING trade simulation over a
// succeeded signal run.
func (s *Service) CreateTradeSimRun(ctx context.Context, tenantID, accountID, signalRunID, execModel string) (*store.TradeSimRun, error) {
	if accountID == "" || signalRunID == "" {
		return nil, Validationf("accountId and signalRunId are required")
	}
	if execModel == "" {
		execModel = "market"
	}

	run, err := s.store.GetSignalRun(ctx, tenantID, signalRunID)
	if err != nil {
		return nil, err
	}
	if run.Status != store.RunStatusSucceeded {
		return nil, Preconditionf("signal run %s is not SUCCEEDED (status=%s)", run.ID, run.Status)
	}
	if run.OutputURI == nil || *run.OutputURI == "" {
		return nil, Preconditionf("signal run %s has no output artifact", run.ID)
	}

	if _, err := s.store.GetSimAccount(ctx, tenantID, accountID); err != nil {
		return nil, err
	}

	sim := &store.TradeSimRun{
		ID:          store.NewTradeSimRunID(),
		TenantID:    tenantID,
		AccountID:   accountID,
		SignalRunID: run.ID,
		ExecModel:   execModel,
		Status:      store.RunStatusPending,
		CreatedAt:   time.Now().UTC(),
	}
	if err := s.store.CreateTradeSimRun(ctx, sim); err != nil {
		return nil, err
	}
	return sim, nil
}
