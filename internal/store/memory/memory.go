// Package memory is an in-memory store backend. It backs unit tests
// and local development; claim atomicity comes from a single mutex
// instead of row locks.
package memory

import (
	"context"
	"sync"
	"time"

	"quantplane/internal/store"
)

// Store is the in-memory implementation of store.Store.
type Store struct {
	mu sync.Mutex

	tenants   map[string]*store.Tenant
	keyHashes map[string]string // api key hash -> tenant id

	datasets  []*store.Dataset
	versions  []*store.DatasetVersion
	jobs      []*store.ForecastJob
	strats    []*store.Strategy
	sigRuns   []*store.SignalRun
	accounts  []*store.SimAccount
	simRuns   []*store.TradeSimRun
}

// New creates an empty in-memory store.
func New() *Store {
	return &Store{
		tenants:   make(map[string]*store.Tenant),
		keyHashes: make(map[string]string),
	}
}

func (s *Store) Ping(ctx context.Context) error { return nil }

// Tenants

func (s *Store) CreateTenant(ctx context.Context, t *store.Tenant, hashedKey string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	cp := *t
	s.tenants[t.ID] = &cp
	s.keyHashes[hashedKey] = t.ID
	return nil
}

func (s *Store) GetTenantByAPIKeyHash(ctx context.Context, hash string) (*store.Tenant, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	id, ok := s.keyHashes[hash]
	if !ok {
		return nil, store.ErrNotFound
	}
	cp := *s.tenants[id]
	return &cp, nil
}

// Datasets

func (s *Store) CreateDataset(ctx context.Context, d *store.Dataset) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	cp := *d
	s.datasets = append(s.datasets, &cp)
	return nil
}

func (s *Store) GetDataset(ctx context.Context, tenantID, id string) (*store.Dataset, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, d := range s.datasets {
		if d.ID == id && d.TenantID == tenantID {
			cp := *d
			return &cp, nil
		}
	}
	return nil, store.ErrNotFound
}

func (s *Store) CreateDatasetVersion(ctx context.Context, v *store.DatasetVersion) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	cp := *v
	s.versions = append(s.versions, &cp)
	return nil
}

func (s *Store) GetDatasetVersion(ctx context.Context, tenantID, id string) (*store.DatasetVersion, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	v := s.findVersion(id)
	if v == nil || v.TenantID != tenantID {
		return nil, store.ErrNotFound
	}
	cp := *v
	return &cp, nil
}

func (s *Store) MarkDatasetVersionReady(ctx context.Context, id, processedURI, checksum string, profile store.Profile) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	v := s.findVersion(id)
	if v == nil {
		return store.ErrNotFound
	}
	now := time.Now().UTC()
	p := profile
	v.ProcessedURI = &processedURI
	v.Checksum = &checksum
	v.Profile = &p
	v.Status = store.VersionStatusReady
	v.FinishedAt = &now
	return nil
}

func (s *Store) MarkDatasetVersionFailed(ctx context.Context, id, errMsg string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	v := s.findVersion(id)
	if v == nil {
		return store.ErrNotFound
	}
	now := time.Now().UTC()
	v.Status = store.VersionStatusFailed
	v.ErrorMessage = &errMsg
	v.FinishedAt = &now
	return nil
}

func (s *Store) findVersion(id string) *store.DatasetVersion {
	for _, v := range s.versions {
		if v.ID == id {
			return v
		}
	}
	return nil
}

// Forecast jobs

func (s *Store) CreateForecastJob(ctx context.Context, job *store.ForecastJob) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if job.IdempotencyKey != nil {
		for _, j := range s.jobs {
			if j.TenantID == job.TenantID && j.IdempotencyKey != nil && *j.IdempotencyKey == *job.IdempotencyKey {
				return store.ErrDuplicateIdempotencyKey
			}
		}
	}
	cp := *job
	s.jobs = append(s.jobs, &cp)
	return nil
}

func (s *Store) GetForecastJob(ctx context.Context, tenantID, id string) (*store.ForecastJob, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	j := s.findJob(id)
	if j == nil || j.TenantID != tenantID {
		return nil, store.ErrNotFound
	}
	cp := *j
	return &cp, nil
}

func (s *Store) GetForecastJobByIdempotencyKey(ctx context.Context, tenantID, key string) (*store.ForecastJob, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, j := range s.jobs {
		if j.TenantID == tenantID && j.IdempotencyKey != nil && *j.IdempotencyKey == key {
			cp := *j
			return &cp, nil
		}
	}
	return nil, store.ErrNotFound
}

func (s *Store) CompleteForecastJob(ctx context.Context, id, outputURI string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	j := s.findJob(id)
	if j == nil {
		return store.ErrNotFound
	}
	now := time.Now().UTC()
	j.Status = store.RunStatusSucceeded
	j.OutputURI = &outputURI
	j.FinishedAt = &now
	return nil
}

func (s *Store) FailForecastJob(ctx context.Context, id, errMsg string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	j := s.findJob(id)
	if j == nil {
		return store.ErrNotFound
	}
	now := time.Now().UTC()
	j.Status = store.RunStatusFailed
	j.ErrorMessage = &errMsg
	j.FinishedAt = &now
	return nil
}

func (s *Store) findJob(id string) *store.ForecastJob {
	for _, j := range s.jobs {
		if j.ID == id {
			return j
		}
	}
	return nil
}

// Strategies and signal runs

func (s *Store) CreateStrategy(ctx context.Context, st *store.Strategy) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	cp := *st
	s.strats = append(s.strats, &cp)
	return nil
}

func (s *Store) GetStrategy(ctx context.Context, tenantID, id string) (*store.Strategy, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, st := range s.strats {
		if st.ID == id && st.TenantID == tenantID {
			cp := *st
			return &cp, nil
		}
	}
	return nil, store.ErrNotFound
}

func (s *Store) CreateSignalRun(ctx context.Context, r *store.SignalRun) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	cp := *r
	s.sigRuns = append(s.sigRuns, &cp)
	return nil
}

func (s *Store) GetSignalRun(ctx context.Context, tenantID, id string) (*store.SignalRun, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	r := s.findSignalRun(id)
	if r == nil || r.TenantID != tenantID {
		return nil, store.ErrNotFound
	}
	cp := *r
	return &cp, nil
}

func (s *Store) CompleteSignalRun(ctx context.Context, id, outputURI string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	r := s.findSignalRun(id)
	if r == nil {
		return store.ErrNotFound
	}
	now := time.Now().UTC()
	r.Status = store.RunStatusSucceeded
	r.OutputURI = &outputURI
	r.FinishedAt = &now
	return nil
}

func (s *Store) FailSignalRun(ctx context.Context, id, errMsg string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	r := s.findSignalRun(id)
	if r == nil {
		return store.ErrNotFound
	}
	now := time.Now().UTC()
	r.Status = store.RunStatusFailed
	r.ErrorMessage = &errMsg
	r.FinishedAt = &now
	return nil
}

func (s *Store) findSignalRun(id string) *store.SignalRun {
	for _, r := range s.sigRuns {
		if r.ID == id {
			return r
		}
	}
	return nil
}

// Sim accounts and trade sim runs

func (s *Store) CreateSimAccount(ctx context.Context, a *store.SimAccount) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	cp := *a
	s.accounts = append(s.accounts, &cp)
	return nil
}

func (s *Store) GetSimAccount(ctx context.Context, tenantID, id string) (*store.SimAccount, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, a := range s.accounts {
		if a.ID == id && a.TenantID == tenantID {
			cp := *a
			return &cp, nil
		}
	}
	return nil, store.ErrNotFound
}

func (s *Store) CreateTradeSimRun(ctx context.Context, r *store.TradeSimRun) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	cp := *r
	s.simRuns = append(s.simRuns, &cp)
	return nil
}

func (s *Store) GetTradeSimRun(ctx context.Context, tenantID, id string) (*store.TradeSimRun, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	r := s.findSimRun(id)
	if r == nil || r.TenantID != tenantID {
		return nil, store.ErrNotFound
	}
	cp := *r
	return &cp, nil
}

func (s *Store) CompleteTradeSimRun(ctx context.Context, id, outputURI string, result []byte) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	r := s.findSimRun(id)
	if r == nil {
		return store.ErrNotFound
	}
	now := time.Now().UTC()
	r.Status = store.RunStatusSucceeded
	r.OutputURI = &outputURI
	r.Result = append([]byte(nil), result...)
	r.FinishedAt = &now
	return nil
}

func (s *Store) FailTradeSimRun(ctx context.Context, id, errMsg string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	r := s.findSimRun(id)
	if r == nil {
		return store.ErrNotFound
	}
	now := time.Now().UTC()
	r.Status = store.RunStatusFailed
	r.ErrorMessage = &errMsg
	r.FinishedAt = &now
	return nil
}

func (s *Store) findSimRun(id string) *store.TradeSimRun {
	for _, r := range s.simRuns {
		if r.ID == id {
			return r
		}
	}
	return nil
}

// Work queue

// ClaimNext finds the oldest pending record of the given kind and
// transitions it to RUNNING under the store mutex, so at most one
// caller ever claims a given record.
func (s *Store) ClaimNext(ctx context.Context, kind store.WorkKind) (*store.WorkItem, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := time.Now().UTC()

	switch kind {
	case store.WorkDatasetVersion:
		var oldest *store.DatasetVersion
		for _, v := range s.versions {
			if v.Status != store.VersionStatusValidating {
				continue
			}
			if oldest == nil || v.CreatedAt.Before(oldest.CreatedAt) {
				oldest = v
			}
		}
		if oldest == nil {
			return nil, store.ErrNoWork
		}
		oldest.Status = store.VersionStatusRunning
		oldest.ErrorMessage = nil
		oldest.StartedAt = &now
		return &store.WorkItem{Kind: kind, ID: oldest.ID, TenantID: oldest.TenantID}, nil

	case store.WorkForecastJob:
		var oldest *store.ForecastJob
		for _, j := range s.jobs {
			if j.Status != store.RunStatusPending {
				continue
			}
			if oldest == nil || j.CreatedAt.Before(oldest.CreatedAt) {
				oldest = j
			}
		}
		if oldest == nil {
			return nil, store.ErrNoWork
		}
		oldest.Status = store.RunStatusRunning
		oldest.ErrorMessage = nil
		oldest.StartedAt = &now
		return &store.WorkItem{Kind: kind, ID: oldest.ID, TenantID: oldest.TenantID}, nil

	case store.WorkSignalRun:
		var oldest *store.SignalRun
		for _, r := range s.sigRuns {
			if r.Status != store.RunStatusPending {
				continue
			}
			if oldest == nil || r.CreatedAt.Before(oldest.CreatedAt) {
				oldest = r
			}
		}
		if oldest == nil {
			return nil, store.ErrNoWork
		}
		oldest.Status = store.RunStatusRunning
		oldest.ErrorMessage = nil
		oldest.StartedAt = &now
		return &store.WorkItem{Kind: kind, ID: oldest.ID, TenantID: oldest.TenantID}, nil

	case store.WorkTradeSimRun:
		var oldest *store.TradeSimRun
		for _, r := range s.simRuns {
			if r.Status != store.RunStatusPending {
				continue
			}
			if oldest == nil || r.CreatedAt.Before(oldest.CreatedAt) {
				oldest = r
			}
		}
		if oldest == nil {
			return nil, store.ErrNoWork
		}
		oldest.Status = store.RunStatusRunning
		oldest.ErrorMessage = nil
		oldest.StartedAt = &now
		return &store.WorkItem{Kind: kind, ID: oldest.ID, TenantID: oldest.TenantID}, nil
	}

	return nil, store.ErrNoWork
}

func (s *Store) CountPending(ctx context.Context, kind store.WorkKind) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var n int64
	switch kind {
	case store.WorkDatasetVersion:
		for _, v := range s.versions {
			if v.Status == store.VersionStatusValidating {
				n++
			}
		}
	case store.WorkForecastJob:
		for _, j := range s.jobs {
			if j.Status == store.RunStatusPending {
				n++
			}
		}
	case store.WorkSignalRun:
		for _, r := range s.sigRuns {
			if r.Status == store.RunStatusPending {
				n++
			}
		}
	case store.WorkTradeSimRun:
		for _, r := range s.simRuns {
			if r.Status == store.RunStatusPending {
				n++
			}
		}
	}
	return n, nil
}
