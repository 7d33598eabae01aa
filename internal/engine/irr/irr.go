// Package irr solves the internal rate of return of a periodic cash-flow series.
package irr

import "math"

const (
	InitialGuess   = 0.10
	MaxIterations  = 50
	NPVTolerance   = 1.0
	SlopeTolerance = 0.0001
	MinRate        = -0.99
	MaxRate        = 5.0
)

// Result is the rate the solver landed on. Converged is false when the
// iteration budget ran out or the slope flattened before |NPV| < 1.
type Result struct {
	Rate       float64 `json:"rate"`
	Iterations int     `json:"iterations"`
	Converged  bool    `json:"converged"`
}

// NPV discounts flows at rate; flows[0] is undiscounted.
func NPV(rate float64, flows []float64) float64 {
	npv := 0.0
	for t, cf := range flows {
		npv += cf / math.Pow(1+rate, float64(t))
	}
	return npv
}

func dNPV(rate float64, flows []float64) float64 {
	d := 0.0
	for t, cf := range flows {
		if t == 0 {
			continue
		}
		d -= float64(t) * cf / math.Pow(1+rate, float64(t+1))
	}
	return d
}

// Solve runs Newton-Raphson from 10%, clamping every step to [-0.99, 5.0].
// It never fails; the best rate found within the budget is returned.
func Solve(flows []float64) Result {
	rate := InitialGuess
	if len(flows) < 2 {
		return Result{Rate: 0}
	}

	for i := 1; i <= MaxIterations; i++ {
		npv := NPV(rate, flows)
		if math.Abs(npv) < NPVTolerance {
			return Result{Rate: rate, Iterations: i, Converged: true}
		}
		slope := dNPV(rate, flows)
		if math.Abs(slope) < SlopeTolerance {
			return Result{Rate: rate, Iterations: i}
		}
		rate = clamp(rate - npv/slope)
	}
	return Result{Rate: rate, Iterations: MaxIterations, Converged: math.Abs(NPV(rate, flows)) < NPVTolerance}
}

func clamp(rate float64) float64 {
	if math.IsNaN(rate) {
		return MinRate
	}
	return math.Max(MinRate, math.Min(MaxRate, rate))
}
