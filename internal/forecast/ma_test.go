package forecast

import (
	"math"
	"testing"
	"time"
)

func TestMovingAverage_BaselineAndRMSE(t *testing.T) {
	series := []float64{1, 2, 3, 4, 5, 6}
	now := time.Date(2024, 6, 1, 15, 30, 0, 0, time.UTC)

	art, err := MovingAverage(series, 3, 2, now)
	if err != nil {
		t.Fatalf("MovingAverage: %v", err)
	}

	// Mean of the last 3 observations {4,5,6}.
	if len(art.Predictions) != 2 {
		t.Fatalf("expected 2 predictions, got %d", len(art.Predictions))
	}
	for _, p := range art.Predictions {
		if p.Yhat != 5.0 {
			t.Errorf("expected flat baseline 5.0, got %v at %s", p.Yhat, p.Timestamp)
		}
	}

	// Backtest steps: predict 4 from {1,2,3}=2, 5 from {2,3,4}=3,
	// 6 from {3,4,5}=4. Errors are all 2, so RMSE is 2.
	if art.Metrics.RMSE == nil {
		t.Fatal("expected RMSE to be set")
	}
	if math.Abs(*art.Metrics.RMSE-2.0) > 1e-12 {
		t.Errorf("expected RMSE 2.0, got %v", *art.Metrics.RMSE)
	}

	if art.ModelArtifactVersion != ModelArtifactVersion {
		t.Errorf("unexpected model artifact version: %s", art.ModelArtifactVersion)
	}
}

func TestMovingAverage_TimestampsStartDayAfterNow(t *testing.T) {
	series := []float64{10, 10, 10, 10}
	now := time.Date(2024, 6, 1, 23, 59, 0, 0, time.UTC)

	art, err := MovingAverage(series, 2, 3, now)
	if err != nil {
		t.Fatalf("MovingAverage: %v", err)
	}

	want := []string{"2024-06-02", "2024-06-03", "2024-06-04"}
	for i, p := range art.Predictions {
		if p.Timestamp != want[i] {
			t.Errorf("prediction %d: expected %s, got %s", i, want[i], p.Timestamp)
		}
	}
}

func TestMovingAverage_WindowEqualsLength(t *testing.T) {
	// No backtest step exists when the window covers the whole series.
	_, err := MovingAverage([]float64{1, 2, 3}, 3, 1, time.Now())
	if err == nil {
		t.Fatal("expected error when window equals series length")
	}
}

func TestMovingAverage_SeriesTooShort(t *testing.T) {
	_, err := MovingAverage([]float64{1, 2}, 5, 1, time.Now())
	if err == nil {
		t.Fatal("expected error for short series")
	}
}

func TestMovingAverage_InvalidWindow(t *testing.T) {
	_, err := MovingAverage([]float64{1, 2, 3}, 0, 1, time.Now())
	if err == nil {
		t.Fatal("expected error for window 0")
	}
}

func TestMovingAverage_HorizonBounds(t *testing.T) {
	series := []float64{1, 2, 3, 4, 5}

	if _, err := MovingAverage(series, 2, 0, time.Now()); err == nil {
		t.Error("expected error for horizon 0")
	}
	if _, err := MovingAverage(series, 2, MaxHorizon+1, time.Now()); err == nil {
		t.Error("expected error for horizon above the cap")
	}
	if _, err := MovingAverage(series, 2, MaxHorizon, time.Now()); err != nil {
		t.Errorf("horizon at the cap should be accepted: %v", err)
	}
}
