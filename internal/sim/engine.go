// Package sim implements the sequential order/fill/equity trade
// simulation engine.
package sim

import (
	"math"

	"quantplane/internal/signals"
)

// buyFraction is the share of current cash invested on each BUY.
const buyFraction = 0.2

// Order is an instruction derived from a signal.
type Order struct {
	Timestamp string  `json:"timestamp"`
	Side      string  `json:"side"`
	Quantity  float64 `json:"quantity"`
	Price     float64 `json:"price"`
}

// Fill is the execution record of an order. The execution model here
// fills every order fully at the signal price.
type Fill struct {
	Timestamp string  `json:"timestamp"`
	Side      string  `json:"side"`
	Quantity  float64 `json:"quantity"`
	Price     float64 `json:"price"`
	Value     float64 `json:"value"`
}

// EquityPoint is one point of the portfolio value walk.
type EquityPoint struct {
	Timestamp string  `json:"timestamp"`
	Equity    float64 `json:"equity"`
}

// Metrics summarizes the simulation outcome.
type Metrics struct {
	TotalReturn float64 `json:"totalReturn"`
	MaxDrawdown float64 `json:"maxDrawdown"`
}

// Artifact is the trade simulation result payload.
type Artifact struct {
	Orders      []Order       `json:"orders"`
	Fills       []Fill        `json:"fills"`
	EquityCurve []EquityPoint `json:"equityCurve"`
	Metrics     Metrics       `json:"metrics"`
}

// Run walks the signals in order against the joined price series.
// A signal whose timestamp has no price row is silently skipped, as is
// any signal with a non-positive price. BUY invests 20% of current
// cash at integer quantity; SELL liquidates the whole position. Every
// priced signal contributes an equity point; if none do, a single
// synthetic point equal to the initial cash is emitted.
func Run(sigs []signals.Signal, prices map[string]float64, initialCash float64) *Artifact {
	cash := initialCash
	shares := 0.0

	out := &Artifact{
		Orders:      []Order{},
		Fills:       []Fill{},
		EquityCurve: []EquityPoint{},
	}

	for _, sig := range sigs {
		price, ok := prices[sig.Timestamp]
		if !ok || price <= 0 {
			continue
		}

		switch sig.Action {
		case signals.ActionBuy:
			if cash >= price {
				qty := math.Floor(buyFraction * cash / price)
				if qty > 0 {
					cost := qty * price
					cash -= cost
					shares += qty
					out.Orders = append(out.Orders, Order{Timestamp: sig.Timestamp, Side: "BUY", Quantity: qty, Price: price})
					out.Fills = append(out.Fills, Fill{Timestamp: sig.Timestamp, Side: "BUY", Quantity: qty, Price: price, Value: cost})
				}
			}
		case signals.ActionSell:
			if shares > 0 {
				proceeds := shares * price
				out.Orders = append(out.Orders, Order{Timestamp: sig.Timestamp, Side: "SELL", Quantity: shares, Price: price})
				out.Fills = append(out.Fills, Fill{Timestamp: sig.Timestamp, Side: "SELL", Quantity: shares, Price: price, Value: proceeds})
				cash += proceeds
				shares = 0
			}
		}

		out.EquityCurve = append(out.EquityCurve, EquityPoint{
			Timestamp: sig.Timestamp,
			Equity:    cash + shares*price,
		})
	}

	if len(out.EquityCurve) == 0 {
		ts := ""
		if len(sigs) > 0 {
			ts = sigs[0].Timestamp
		}
		out.EquityCurve = append(out.EquityCurve, EquityPoint{Timestamp: ts, Equity: initialCash})
	}

	final := out.EquityCurve[len(out.EquityCurve)-1].Equity
	out.Metrics = Metrics{
		TotalReturn: final/initialCash - 1,
		MaxDrawdown: maxDrawdown(out.EquityCurve),
	}
	return out
}

// maxDrawdown is the most negative equity/peak - 1 over the curve,
// with the running peak including the current point. Zero when the
// peak never goes positive.
func maxDrawdown(curve []EquityPoint) float64 {
	peak := math.Inf(-1)
	worst := 0.0
	for _, p := range curve {
		if p.Equity > peak {
			peak = p.Equity
		}
		if peak <= 0 {
			continue
		}
		if dd := p.Equity/peak - 1; dd < worst {
			worst = dd
		}
	}
	return worst
}
