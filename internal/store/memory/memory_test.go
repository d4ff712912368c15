package memory

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"quantplane/internal/store"
)

func TestClaimNext_OldestFirst(t *testing.T) {
	s := New()
	ctx := context.Background()

	base := time.Now().UTC()
	for i := 0; i < 3; i++ {
		job := &store.ForecastJob{
			ID:        fmt.Sprintf("fc_%d", i),
			TenantID:  "tn_1",
			Status:    store.RunStatusPending,
			CreatedAt: base.Add(time.Duration(2-i) * time.Minute), // fc_2 is oldest
		}
		if err := s.CreateForecastJob(ctx, job); err != nil {
			t.Fatalf("CreateForecastJob: %v", err)
		}
	}

	item, err := s.ClaimNext(ctx, store.WorkForecastJob)
	if err != nil {
		t.Fatalf("ClaimNext: %v", err)
	}
	if item.ID != "fc_2" {
		t.Errorf("expected oldest job fc_2, got %s", item.ID)
	}

	claimed, err := s.GetForecastJob(ctx, "tn_1", item.ID)
	if err != nil {
		t.Fatalf("GetForecastJob: %v", err)
	}
	if claimed.Status != store.RunStatusRunning {
		t.Errorf("claimed job should be RUNNING, got %s", claimed.Status)
	}
	if claimed.StartedAt == nil {
		t.Error("claimed job should have startedAt set")
	}
}

func TestClaimNext_NoWork(t *testing.T) {
	s := New()

	_, err := s.ClaimNext(context.Background(), store.WorkForecastJob)
	if !errors.Is(err, store.ErrNoWork) {
		t.Errorf("expected ErrNoWork on empty queue, got %v", err)
	}
}

func TestClaimNext_ExactlyOneWinner(t *testing.T) {
	s := New()
	ctx := context.Background()

	job := &store.ForecastJob{
		ID:        "fc_contended",
		TenantID:  "tn_1",
		Status:    store.RunStatusPending,
		CreatedAt: time.Now().UTC(),
	}
	if err := s.CreateForecastJob(ctx, job); err != nil {
		t.Fatalf("CreateForecastJob: %v", err)
	}

	const claimers = 32
	var wg sync.WaitGroup
	wins := make(chan string, claimers)

	for i := 0; i < claimers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			item, err := s.ClaimNext(ctx, store.WorkForecastJob)
			if err == nil {
				wins <- item.ID
			} else if !errors.Is(err, store.ErrNoWork) {
				t.Errorf("unexpected claim error: %v", err)
			}
		}()
	}
	wg.Wait()
	close(wins)

	won := 0
	for range wins {
		won++
	}
	if won != 1 {
		t.Errorf("expected exactly one winner for one pending record, got %d", won)
	}
}

func TestClaimNext_DatasetVersionUsesValidating(t *testing.T) {
	s := New()
	ctx := context.Background()

	v := &store.DatasetVersion{
		ID:        "dsv_1",
		DatasetID: "ds_1",
		TenantID:  "tn_1",
		Status:    store.VersionStatusValidating,
		CreatedAt: time.Now().UTC(),
	}
	if err := s.CreateDatasetVersion(ctx, v); err != nil {
		t.Fatalf("CreateDatasetVersion: %v", err)
	}

	item, err := s.ClaimNext(ctx, store.WorkDatasetVersion)
	if err != nil {
		t.Fatalf("ClaimNext: %v", err)
	}
	if item.ID != "dsv_1" || item.TenantID != "tn_1" {
		t.Errorf("unexpected work item: %+v", item)
	}

	got, _ := s.GetDatasetVersion(ctx, "tn_1", "dsv_1")
	if got.Status != store.VersionStatusRunning {
		t.Errorf("claimed version should be RUNNING, got %s", got.Status)
	}

	// Nothing left to claim.
	if _, err := s.ClaimNext(ctx, store.WorkDatasetVersion); !errors.Is(err, store.ErrNoWork) {
		t.Errorf("expected ErrNoWork after claim, got %v", err)
	}
}

func TestCountPending_PerKind(t *testing.T) {
	s := New()
	ctx := context.Background()

	for i := 0; i < 2; i++ {
		s.CreateForecastJob(ctx, &store.ForecastJob{
			ID: fmt.Sprintf("fc_%d", i), TenantID: "tn_1",
			Status: store.RunStatusPending, CreatedAt: time.Now().UTC(),
		})
	}
	s.CreateSignalRun(ctx, &store.SignalRun{
		ID: "sg_1", TenantID: "tn_1",
		Status: store.RunStatusPending, CreatedAt: time.Now().UTC(),
	})

	n, err := s.CountPending(ctx, store.WorkForecastJob)
	if err != nil {
		t.Fatalf("CountPending: %v", err)
	}
	if n != 2 {
		t.Errorf("expected 2 pending forecast jobs, got %d", n)
	}

	n, _ = s.CountPending(ctx, store.WorkSignalRun)
	if n != 1 {
		t.Errorf("expected 1 pending signal run, got %d", n)
	}

	n, _ = s.CountPending(ctx, store.WorkTradeSimRun)
	if n != 0 {
		t.Errorf("expected 0 pending sim runs, got %d", n)
	}
}

func TestCreateForecastJob_DuplicateIdempotencyKey(t *testing.T) {
	s := New()
	ctx := context.Background()

	key := "retry-1"
	first := &store.ForecastJob{
		ID: "fc_1", TenantID: "tn_1", IdempotencyKey: &key,
		Status: store.RunStatusPending, CreatedAt: time.Now().UTC(),
	}
	if err := s.CreateForecastJob(ctx, first); err != nil {
		t.Fatalf("first insert: %v", err)
	}

	dup := &store.ForecastJob{
		ID: "fc_2", TenantID: "tn_1", IdempotencyKey: &key,
		Status: store.RunStatusPending, CreatedAt: time.Now().UTC(),
	}
	err := s.CreateForecastJob(ctx, dup)
	if !errors.Is(err, store.ErrDuplicateIdempotencyKey) {
		t.Errorf("expected ErrDuplicateIdempotencyKey, got %v", err)
	}

	// Same key under a different tenant is a different scope.
	other := &store.ForecastJob{
		ID: "fc_3", TenantID: "tn_2", IdempotencyKey: &key,
		Status: store.RunStatusPending, CreatedAt: time.Now().UTC(),
	}
	if err := s.CreateForecastJob(ctx, other); err != nil {
		t.Errorf("cross-tenant insert should succeed: %v", err)
	}
}

func TestTenantIsolationOnReads(t *testing.T) {
	s := New()
	ctx := context.Background()

	s.CreateForecastJob(ctx, &store.ForecastJob{
		ID: "fc_1", TenantID: "tn_1",
		Status: store.RunStatusPending, CreatedAt: time.Now().UTC(),
	})

	if _, err := s.GetForecastJob(ctx, "tn_2", "fc_1"); err != store.ErrNotFound {
		t.Errorf("cross-tenant read should be ErrNotFound, got %v", err)
	}
}

func TestCompleteAndFailTransitions(t *testing.T) {
	s := New()
	ctx := context.Background()

	s.CreateForecastJob(ctx, &store.ForecastJob{
		ID: "fc_ok", TenantID: "tn_1",
		Status: store.RunStatusPending, CreatedAt: time.Now().UTC(),
	})
	s.CreateForecastJob(ctx, &store.ForecastJob{
		ID: "fc_bad", TenantID: "tn_1",
		Status: store.RunStatusPending, CreatedAt: time.Now().UTC(),
	})

	if err := s.CompleteForecastJob(ctx, "fc_ok", "fc_ok.json"); err != nil {
		t.Fatalf("CompleteForecastJob: %v", err)
	}
	ok, _ := s.GetForecastJob(ctx, "tn_1", "fc_ok")
	if ok.Status != store.RunStatusSucceeded || ok.OutputURI == nil || ok.FinishedAt == nil {
		t.Errorf("unexpected succeeded job state: %+v", ok)
	}

	if err := s.FailForecastJob(ctx, "fc_bad", "series too short"); err != nil {
		t.Fatalf("FailForecastJob: %v", err)
	}
	bad, _ := s.GetForecastJob(ctx, "tn_1", "fc_bad")
	if bad.Status != store.RunStatusFailed || bad.ErrorMessage == nil {
		t.Errorf("unexpected failed job state: %+v", bad)
	}
	if *bad.ErrorMessage != "series too short" {
		t.Errorf("unexpected error message: %s", *bad.ErrorMessage)
	}
}
