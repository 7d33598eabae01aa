package economics

import (
	"math"

	"deal-compass-workers/internal/engine/feasibility"
	"deal-compass-workers/internal/engine/irr"
	"deal-compass-workers/internal/models"
)

// DebtServiceLoad models amortization on top of pure interest.
const DebtServiceLoad = 1.15

// Break-even clamps.
const (
	MaxBreakEvenOccupancy   = 0.99
	MaxBreakEvenADRMultiple = 5.0
)

// DebtTerms are the optional financing assumptions; the zero value means no debt.
type DebtTerms struct {
	Enabled      bool
	LTV          float64
	InterestRate float64
}

// DebtTermsFrom reads the financing assumptions off the inputs.
func DebtTermsFrom(in models.FeasibilityInputs) DebtTerms {
	return DebtTerms{Enabled: in.DebtEnabled, LTV: in.LTV, InterestRate: in.InterestRate}
}

// ComputeOwnerEconomics prices the owner's side: yield, coverage, exit and IRRs.
// minYieldOnCost is the segment hurdle the break-even solve targets.
func ComputeOwnerEconomics(in models.FeasibilityInputs, out models.FeasibilityOutputs, debt DebtTerms, capRate, minYieldOnCost float64) models.OwnerEconomics {
	oe := models.OwnerEconomics{
		TotalCapex:     out.TotalCapex,
		DebtEnabled:    debt.Enabled,
		MinYieldOnCost: minYieldOnCost,
	}

	stab, _ := out.StabilizedYear()
	oe.StabilizedNOI = stab.NOI

	if out.TotalCapex > 0 {
		oe.YieldOnCost = stab.NOI / out.TotalCapex
	}

	if debt.Enabled {
		oe.DebtAmount = math.Round(out.TotalCapex * debt.LTV)
		oe.AnnualDebtService = math.Round(oe.DebtAmount * debt.InterestRate * DebtServiceLoad)
	}
	oe.EquityAmount = out.TotalCapex - oe.DebtAmount

	if oe.AnnualDebtService > 0 {
		oe.DSCR = stab.NOI / oe.AnnualDebtService
	}
	if capRate > 0 {
		oe.ExitValue = math.Round(stab.NOI / capRate)
	}

	unlevered := irr.Solve(unleveredFlows(out, oe.ExitValue))
	oe.UnleveragedIRR = unlevered.Rate
	oe.UnleveragedConverged = unlevered.Converged

	if debt.Enabled {
		levered := irr.Solve(leveredFlows(out, oe))
		oe.LeveragedIRR = levered.Rate
		oe.LeveragedConverged = levered.Converged
	} else {
		oe.LeveragedIRR = oe.UnleveragedIRR
		oe.LeveragedConverged = oe.UnleveragedConverged
	}

	oe.BreakEvenOccupancy, oe.BreakEvenADR = breakEven(in, out.TotalCapex, minYieldOnCost)
	return oe
}

func unleveredFlows(out models.FeasibilityOutputs, exitValue float64) []float64 {
	flows := make([]float64, 0, len(out.Years)+1)
	flows = append(flows, -out.TotalCapex)
	for _, y := range out.Years {
		flows = append(flows, y.NOI)
	}
	if len(out.Years) > 0 {
		flows[len(flows)-1] += exitValue
	}
	return flows
}

func leveredFlows(out models.FeasibilityOutputs, oe models.OwnerEconomics) []float64 {
	flows := make([]float64, 0, len(out.Years)+1)
	flows = append(flows, -oe.EquityAmount)
	for _, y := range out.Years {
		flows = append(flows, y.NOI-oe.AnnualDebtService)
	}
	if len(out.Years) > 0 {
		flows[len(flows)-1] += oe.ExitValue - oe.DebtAmount
	}
	return flows
}

// breakEven back-solves the rooms revenue that yields minYield on totalCapex,
// then expresses it as an occupancy at input ADR and an ADR at input occupancy.
func breakEven(in models.FeasibilityInputs, totalCapex, minYield float64) (float64, float64) {
	maxADR := math.Max(in.ADR, 0) * MaxBreakEvenADRMultiple
	required := math.Max(minYield, 0) * math.Max(totalCapex, 0)
	if required == 0 {
		return 0, 0
	}

	noiPerRoomsRevenue := (1 + in.FnBRevenuePct + in.OtherRevenuePct) * (in.GOPMargin*(1-in.IncentiveFee) - in.BaseFee)
	if noiPerRoomsRevenue <= 0 {
		return MaxBreakEvenOccupancy, math.Round(maxADR)
	}
	roomsRevenue := required / noiPerRoomsRevenue
	capacity := float64(in.Rooms) * 365

	occupancy := MaxBreakEvenOccupancy
	if capacity*in.ADR > 0 {
		occupancy = clamp(roomsRevenue/(capacity*in.ADR), 0, MaxBreakEvenOccupancy)
	}

	adr := maxADR
	heldOccupancy := math.Min(in.Occupancy, feasibility.OccupancyCap)
	if capacity*heldOccupancy > 0 {
		adr = clamp(roomsRevenue/(capacity*heldOccupancy), 0, maxADR)
	}

	return math.Round(occupancy*10000) / 10000, math.Round(adr)
}

func clamp(v, lo, hi float64) float64 {
	return math.Max(lo, math.Min(hi, v))
}
