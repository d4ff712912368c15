// Package forecast implements the moving-average baseline model with
// a walk-forward RMSE backtest.
package forecast

import (
	"fmt"
	"math"
	"time"
)

// ModelArtifactVersion tags every forecast artifact with the model
// implementation that produced it.
const ModelArtifactVersion = "ma-baseline:v0.1"

// MaxHorizon bounds the forecast horizon in days.
const MaxHorizon = 365

// Prediction is one forecast point.
type Prediction struct {
	Timestamp string  `json:"timestamp"`
	Yhat      float64 `json:"yhat"`
}

// Metrics carries the backtest error metric. RMSE is null when it
// cannot be computed.
type Metrics struct {
	RMSE *float64 `json:"rmse"`
}

// Artifact is the forecast output payload written to the blob store.
type Artifact struct {
	Predictions          []Prediction `json:"predictions"`
	Metrics              Metrics      `json:"metrics"`
	ModelArtifactVersion string       `json:"modelArtifactVersion"`
}

// MovingAverage produces a flat forecast of the mean of the last
// window observations, one point per day starting the day after now,
// plus the walk-forward RMSE over the history.
//
// The series must be strictly longer than window so at least one
// backtest step exists.
func MovingAverage(series []float64, window, horizon int, now time.Time) (*Artifact, error) {
	if window < 1 {
		return nil, fmt.Errorf("window must be >= 1, got %d", window)
	}
	if horizon < 1 || horizon > MaxHorizon {
		return nil, fmt.Errorf("horizon must be in 1..%d, got %d", MaxHorizon, horizon)
	}
	if len(series) < window {
		return nil, fmt.Errorf("series too short for baseline: need at least %d observations, got %d", window, len(series))
	}
	if len(series) <= window {
		return nil, fmt.Errorf("series too short for walk-forward RMSE: need more than %d observations, got %d", window, len(series))
	}

	baseline := mean(series[len(series)-window:])
	rmse := walkForwardRMSE(series, window)

	start := now.UTC().Truncate(24 * time.Hour)
	preds := make([]Prediction, 0, horizon)
	for i := 1; i <= horizon; i++ {
		preds = append(preds, Prediction{
			Timestamp: start.AddDate(0, 0, i).Format("2006-01-02"),
			Yhat:      baseline,
		})
	}

	return &Artifact{
		Predictions:          preds,
		Metrics:              Metrics{RMSE: &rmse},
		ModelArtifactVersion: ModelArtifactVersion,
	}, nil
}

// walkForwardRMSE predicts series[t] from the mean of the preceding
// window for every t in [window, len) and returns the root of the
// mean squared error. Population denominator, same window placement as
// the baseline.
func walkForwardRMSE(series []float64, window int) float64 {
	var sumSq float64
	n := 0
	for t := window; t < len(series); t++ {
		pred := mean(series[t-window : t])
		diff := pred - series[t]
		sumSq += diff * diff
		n++
	}
	return math.Sqrt(sumSq / float64(n))
}

func mean(xs []float64) float64 {
	var sum float64
	for _, x := range xs {
		sum += x
	}
	return sum / float64(len(xs))
}
