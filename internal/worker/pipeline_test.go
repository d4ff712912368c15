package worker

import (
	"context"
	"encoding/json"
	"fmt"
	"math"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"quantplane/internal/artifact"
	"quantplane/internal/sim"
	"quantplane/internal/store"
	"quantplane/internal/store/memory"
)

// writeRawSeries writes a 30-day descending daily price series and
// returns its path. Prices run 129 down to 100.
func writeRawSeries(t *testing.T, dir string) string {
	t.Helper()
	var b strings.Builder
	b.WriteString("date,close\n")
	start := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	for i := 0; i < 30; i++ {
		fmt.Fprintf(&b, "%s,%d\n", start.AddDate(0, 0, i).Format("2006-01-02"), 129-i)
	}
	path := filepath.Join(dir, "raw.csv")
	if err := os.WriteFile(path, []byte(b.String()), 0o644); err != nil {
		t.Fatalf("write raw series: %v", err)
	}
	return path
}

func claim(t *testing.T, s store.Store, kind store.WorkKind) *store.WorkItem {
	t.Helper()
	item, err := s.ClaimNext(context.Background(), kind)
	if err != nil {
		t.Fatalf("ClaimNext(%s): %v", kind, err)
	}
	return item
}

// TestPipelineEndToEnd drives one record through all four stages on
// the in-memory store: normalize, forecast, signal, simulate.
func TestPipelineEndToEnd(t *testing.T) {
	ctx := context.Background()
	s := memory.New()
	dir := t.TempDir()
	artifacts := artifact.New(filepath.Join(dir, "artifacts"))
	rawPath := writeRawSeries(t, dir)

	const tenantID = "tn_1"

	// Dataset stage.
	d := &store.Dataset{ID: store.NewDatasetID(), TenantID: tenantID, Name: "prices", CreatedAt: time.Now().UTC()}
	if err := s.CreateDataset(ctx, d); err != nil {
		t.Fatalf("CreateDataset: %v", err)
	}
	version := &store.DatasetVersion{
		ID:        store.NewDatasetVersionID(),
		DatasetID: d.ID,
		TenantID:  tenantID,
		RawURI:    rawPath,
		Mapping:   store.ColumnMapping{Timestamp: "date", Target: "close"},
		Status:    store.VersionStatusValidating,
		CreatedAt: time.Now().UTC(),
	}
	if err := s.CreateDatasetVersion(ctx, version); err != nil {
		t.Fatalf("CreateDatasetVersion: %v", err)
	}

	dsRunner := NewDatasetRunner(s, artifacts)
	if err := dsRunner.Process(ctx, claim(t, s, store.WorkDatasetVersion)); err != nil {
		t.Fatalf("dataset Process: %v", err)
	}

	ready, err := s.GetDatasetVersion(ctx, tenantID, version.ID)
	if err != nil {
		t.Fatalf("GetDatasetVersion: %v", err)
	}
	if ready.Status != store.VersionStatusReady {
		t.Fatalf("expected READY version, got %s (%v)", ready.Status, ready.ErrorMessage)
	}
	if ready.Profile == nil || ready.Profile.RowCount != 30 {
		t.Errorf("unexpected profile: %+v", ready.Profile)
	}
	if ready.Checksum == nil || !strings.HasPrefix(*ready.Checksum, "sha256:") {
		t.Errorf("unexpected checksum: %v", ready.Checksum)
	}

	// Forecast stage. With now inside the series range the prediction
	// dates land on existing price rows, so the simulation has fills.
	job := &store.ForecastJob{
		ID:               store.NewForecastJobID(),
		TenantID:         tenantID,
		DatasetVersionID: version.ID,
		DedupKey:         "dd_test",
		ModelType:        "moving_average",
		Params:           map[string]any{"window": 3},
		Horizon:          5,
		Status:           store.RunStatusPending,
		CreatedAt:        time.Now().UTC(),
	}
	if err := s.CreateForecastJob(ctx, job); err != nil {
		t.Fatalf("CreateForecastJob: %v", err)
	}

	fcRunner := NewForecastRunner(s, artifacts)
	fcRunner.now = func() time.Time { return time.Date(2024, 1, 20, 12, 0, 0, 0, time.UTC) }
	if err := fcRunner.Process(ctx, claim(t, s, store.WorkForecastJob)); err != nil {
		t.Fatalf("forecast Process: %v", err)
	}

	doneJob, _ := s.GetForecastJob(ctx, tenantID, job.ID)
	if doneJob.Status != store.RunStatusSucceeded {
		t.Fatalf("expected SUCCEEDED job, got %s (%v)", doneJob.Status, doneJob.ErrorMessage)
	}
	if doneJob.OutputURI == nil {
		t.Fatal("succeeded job has no output uri")
	}

	// Signal stage. The last observed price is 100 and the baseline is
	// the mean of {102,101,100}; a zero buy threshold turns every
	// prediction into a BUY.
	strategy := &store.Strategy{
		ID: store.NewStrategyID(), TenantID: tenantID, Name: "always-buy",
		BuyAbovePct: 0, SellBelowPct: 0.5, CreatedAt: time.Now().UTC(),
	}
	if err := s.CreateStrategy(ctx, strategy); err != nil {
		t.Fatalf("CreateStrategy: %v", err)
	}
	sigRun := &store.SignalRun{
		ID: store.NewSignalRunID(), TenantID: tenantID,
		ForecastJobID: job.ID, StrategyID: strategy.ID,
		Status: store.RunStatusPending, CreatedAt: time.Now().UTC(),
	}
	if err := s.CreateSignalRun(ctx, sigRun); err != nil {
		t.Fatalf("CreateSignalRun: %v", err)
	}

	sigRunner := NewSignalRunner(s, artifacts)
	if err := sigRunner.Process(ctx, claim(t, s, store.WorkSignalRun)); err != nil {
		t.Fatalf("signal Process: %v", err)
	}

	doneSig, _ := s.GetSignalRun(ctx, tenantID, sigRun.ID)
	if doneSig.Status != store.RunStatusSucceeded {
		t.Fatalf("expected SUCCEEDED signal run, got %s (%v)", doneSig.Status, doneSig.ErrorMessage)
	}

	// Simulation stage.
	account := &store.SimAccount{
		ID: store.NewSimAccountID(), TenantID: tenantID, Name: "paper",
		InitialCash: 1000, Currency: "USD", CreatedAt: time.Now().UTC(),
	}
	if err := s.CreateSimAccount(ctx, account); err != nil {
		t.Fatalf("CreateSimAccount: %v", err)
	}
	simRun := &store.TradeSimRun{
		ID: store.NewTradeSimRunID(), TenantID: tenantID,
		AccountID: account.ID, SignalRunID: sigRun.ID, ExecModel: "market",
		Status: store.RunStatusPending, CreatedAt: time.Now().UTC(),
	}
	if err := s.CreateTradeSimRun(ctx, simRun); err != nil {
		t.Fatalf("CreateTradeSimRun: %v", err)
	}

	simRunner := NewSimRunner(s, artifacts)
	if err := simRunner.Process(ctx, claim(t, s, store.WorkTradeSimRun)); err != nil {
		t.Fatalf("sim Process: %v", err)
	}

	doneSim, _ := s.GetTradeSimRun(ctx, tenantID, simRun.ID)
	if doneSim.Status != store.RunStatusSucceeded {
		t.Fatalf("expected SUCCEEDED sim run, got %s (%v)", doneSim.Status, doneSim.ErrorMessage)
	}
	if len(doneSim.Result) == 0 {
		t.Fatal("succeeded sim run has no inline result")
	}

	var result sim.Artifact
	if err := json.Unmarshal(doneSim.Result, &result); err != nil {
		t.Fatalf("decode sim result: %v", err)
	}
	if len(result.EquityCurve) != 5 {
		t.Errorf("expected 5 equity points, got %d", len(result.EquityCurve))
	}
	if len(result.Fills) == 0 {
		t.Error("expected at least one fill from BUY signals")
	}
	if math.IsNaN(result.Metrics.TotalReturn) {
		t.Error("total return should be a number")
	}
}

func TestDatasetRunner_MissingRawFileFails(t *testing.T) {
	ctx := context.Background()
	s := memory.New()
	artifacts := artifact.New(t.TempDir())

	version := &store.DatasetVersion{
		ID: store.NewDatasetVersionID(), DatasetID: "ds_1", TenantID: "tn_1",
		RawURI:  "/nonexistent/raw.csv",
		Mapping: store.ColumnMapping{Timestamp: "date", Target: "close"},
		Status:  store.VersionStatusValidating, CreatedAt: time.Now().UTC(),
	}
	s.CreateDatasetVersion(ctx, version)

	r := NewDatasetRunner(s, artifacts)
	if err := r.Process(ctx, claim(t, s, store.WorkDatasetVersion)); err != nil {
		t.Fatalf("Process should absorb the computation failure: %v", err)
	}

	got, _ := s.GetDatasetVersion(ctx, "tn_1", version.ID)
	if got.Status != store.VersionStatusFailed {
		t.Errorf("expected FAILED, got %s", got.Status)
	}
	if got.ErrorMessage == nil {
		t.Error("expected error message on failed version")
	}
}

func TestForecastRunner_ShortSeriesFailsJob(t *testing.T) {
	ctx := context.Background()
	s := memory.New()
	dir := t.TempDir()
	artifacts := artifact.New(filepath.Join(dir, "artifacts"))

	// Two observations cannot support a window of 20.
	raw := filepath.Join(dir, "raw.csv")
	os.WriteFile(raw, []byte("date,close\n2024-01-01,1\n2024-01-02,2\n"), 0o644)

	version := &store.DatasetVersion{
		ID: store.NewDatasetVersionID(), DatasetID: "ds_1", TenantID: "tn_1",
		RawURI:  raw,
		Mapping: store.ColumnMapping{Timestamp: "date", Target: "close"},
		Status:  store.VersionStatusValidating, CreatedAt: time.Now().UTC(),
	}
	s.CreateDatasetVersion(ctx, version)
	if err := NewDatasetRunner(s, artifacts).Process(ctx, claim(t, s, store.WorkDatasetVersion)); err != nil {
		t.Fatalf("dataset Process: %v", err)
	}

	job := &store.ForecastJob{
		ID: store.NewForecastJobID(), TenantID: "tn_1", DatasetVersionID: version.ID,
		DedupKey: "dd_test", ModelType: "moving_average", Horizon: 5,
		Status: store.RunStatusPending, CreatedAt: time.Now().UTC(),
	}
	s.CreateForecastJob(ctx, job)

	r := NewForecastRunner(s, artifacts)
	if err := r.Process(ctx, claim(t, s, store.WorkForecastJob)); err != nil {
		t.Fatalf("Process should absorb the kernel failure: %v", err)
	}

	got, _ := s.GetForecastJob(ctx, "tn_1", job.ID)
	if got.Status != store.RunStatusFailed {
		t.Errorf("expected FAILED job, got %s", got.Status)
	}
	if got.ErrorMessage == nil || !strings.Contains(*got.ErrorMessage, "too short") {
		t.Errorf("expected short-series error message, got %v", got.ErrorMessage)
	}
}

func TestForecastRunner_UnsupportedModelType(t *testing.T) {
	ctx := context.Background()
	s := memory.New()
	artifacts := artifact.New(t.TempDir())

	job := &store.ForecastJob{
		ID: store.NewForecastJobID(), TenantID: "tn_1", DatasetVersionID: "dsv_1",
		DedupKey: "dd_test", ModelType: "arima", Horizon: 5,
		Status: store.RunStatusPending, CreatedAt: time.Now().UTC(),
	}
	s.CreateForecastJob(ctx, job)

	r := NewForecastRunner(s, artifacts)
	if err := r.Process(ctx, claim(t, s, store.WorkForecastJob)); err != nil {
		t.Fatalf("Process: %v", err)
	}

	got, _ := s.GetForecastJob(ctx, "tn_1", job.ID)
	if got.Status != store.RunStatusFailed {
		t.Errorf("expected FAILED job for unsupported model, got %s", got.Status)
	}
}

func TestSignalRunner_MissingForecastArtifactFails(t *testing.T) {
	ctx := context.Background()
	s := memory.New()
	artifacts := artifact.New(t.TempDir())

	out := "/nonexistent/fc.json"
	job := &store.ForecastJob{
		ID: store.NewForecastJobID(), TenantID: "tn_1", DatasetVersionID: "dsv_1",
		DedupKey: "dd_test", ModelType: "moving_average", Horizon: 5,
		Status: store.RunStatusPending, CreatedAt: time.Now().UTC(),
	}
	s.CreateForecastJob(ctx, job)
	s.CompleteForecastJob(ctx, job.ID, out)

	s.CreateStrategy(ctx, &store.Strategy{
		ID: "st_1", TenantID: "tn_1", Name: "band", CreatedAt: time.Now().UTC(),
	})
	run := &store.SignalRun{
		ID: store.NewSignalRunID(), TenantID: "tn_1",
		ForecastJobID: job.ID, StrategyID: "st_1",
		Status: store.RunStatusPending, CreatedAt: time.Now().UTC(),
	}
	s.CreateSignalRun(ctx, run)

	r := NewSignalRunner(s, artifacts)
	if err := r.Process(ctx, claim(t, s, store.WorkSignalRun)); err != nil {
		t.Fatalf("Process: %v", err)
	}

	got, _ := s.GetSignalRun(ctx, "tn_1", run.ID)
	if got.Status != store.RunStatusFailed {
		t.Errorf("expected FAILED signal run, got %s", got.Status)
	}
}
