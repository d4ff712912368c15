// Package signals maps forecast points to BUY/SELL/HOLD actions using
// strategy thresholds.
package signals

import "quantplane/internal/forecast"

// Actions emitted per forecast point.
const (
	ActionBuy  = "BUY"
	ActionSell = "SELL"
	ActionHold = "HOLD"
)

// Reason tags carried on every signal for auditability.
const (
	ReasonThresholdUp   = "threshold_up"
	ReasonThresholdDown = "threshold_down"
	ReasonWithinBand    = "within_band"
)

// Signal is one emitted trading signal.
type Signal struct {
	Timestamp string `json:"timestamp"`
	Action    string `json:"action"`
	Reason    string `json:"reason"`
}

// Artifact is the signal output payload written to the blob store.
type Artifact struct {
	SignalRunID string   `json:"signalRunId"`
	Signals     []Signal `json:"signals"`
}

// Generate evaluates the threshold rule per prediction against the
// last known actual price. BUY is evaluated first, so a point sitting
// exactly on the buy threshold resolves to BUY and can never be both
// BUY and SELL.
func Generate(preds []forecast.Prediction, lastPrice, buyAbovePct, sellBelowPct float64) []Signal {
	out := make([]Signal, 0, len(preds))
	for _, p := range preds {
		action, reason := ActionHold, ReasonWithinBand
		switch {
		case p.Yhat >= lastPrice*(1+buyAbovePct):
			action, reason = ActionBuy, ReasonThresholdUp
		case p.Yhat <= lastPrice*(1-sellBelowPct):
			action, reason = ActionSell, ReasonThresholdDown
		}
		out = append(out, Signal{Timestamp: p.Timestamp, Action: action, Reason: reason})
	}
	return out
}
