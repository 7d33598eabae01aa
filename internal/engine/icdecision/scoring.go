package icdecision

import (
	"math"

	"deal-compass-workers/internal/models"
)

// Rubric maxima.
const (
	MaxLocationMarket    = 25
	MaxDemandStrength    = 25
	MaxConversionEase    = 20
	MaxOwnerAssetQuality = 15
	MaxExecutionRisk     = 15

	externalScoreScale = 25.0
	neutralExternal    = 12.5
)

// Demand strength components.
const (
	demandOccupancyPoints = 12.0
	demandADRPoints       = 8.0
	demandNetFeePoints    = 5.0
)

// Conversion ease components.
const (
	existingStructurePoints = 8
	newStructurePoints      = 2
	roomFitPoints           = 5
	roomFitMultiple         = 4
	capexEfficientPoints    = 4
	capexWithinPoints       = 2
	capexEfficientRatio     = 0.80
	adrInRangePoints        = 3
)

// Owner/asset quality components.
const (
	yieldPoints     = 10.0
	strongDSCR      = 1.5
	breakEvenDSCR   = 1.0
	strongIRR       = 0.12
	acceptableIRR   = 0.08
	maxPlausibleIRR = 1.0
	bonusStrong     = 5
	bonusAcceptable = 3
	bonusWeak       = 1
)

func (ev evaluation) subScores() models.SubScores {
	return models.SubScores{
		LocationMarket:    ev.locationMarket(),
		DemandStrength:    ev.demandStrength(),
		ConversionEase:    ev.conversionEase(),
		OwnerAssetQuality: ev.ownerAssetQuality(),
		ExecutionRisk:     ev.executionRisk(),
	}
}

func (ev evaluation) locationMarket() int {
	loc := external(ev.in.Deal.LocationScore)
	return points(loc/externalScoreScale*MaxLocationMarket, MaxLocationMarket)
}

func (ev evaluation) demandStrength() int {
	p := ev.preset
	occ := demandOccupancyPoints * ratio(ev.in.Inputs.Occupancy, p.Occupancy.Mid())
	adr := demandADRPoints * ratio(ev.in.Inputs.ADR, p.ADR.Mid())

	fees := demandNetFeePoints
	if p.MinNetFeesUSD > 0 && ev.in.Brand.NetFeesUSD < p.MinNetFeesUSD {
		fees = demandNetFeePoints * math.Max(ev.in.Brand.NetFeesUSD, 0) / p.MinNetFeesUSD
	}
	return points(occ+adr+fees, MaxDemandStrength)
}

func (ev evaluation) conversionEase() int {
	p, in := ev.preset, ev.in.Inputs
	score := newStructurePoints
	if usesExistingStructure(in.OpeningType) {
		score = existingStructurePoints
	}
	if ev.rooms >= ev.minRooms && ev.rooms <= ev.minRooms*roomFitMultiple {
		score += roomFitPoints
	}
	switch {
	case in.CapexPerKey <= p.CapexPerKey.Max*capexEfficientRatio:
		score += capexEfficientPoints
	case in.CapexPerKey <= p.CapexPerKey.Max:
		score += capexWithinPoints
	}
	if p.ADR.Contains(in.ADR) {
		score += adrInRangePoints
	}
	return score
}

func (ev evaluation) ownerAssetQuality() int {
	o := ev.in.Owner
	minYield := ev.preset.MinYieldOnCost

	yield := 0.0
	switch {
	case minYield > 0:
		yield = yieldPoints * ratio(o.YieldOnCost, minYield)
	case o.YieldOnCost > 0:
		yield = yieldPoints
	}

	bonus := 0
	if o.DebtEnabled && o.AnnualDebtService > 0 {
		switch {
		case o.DSCR >= strongDSCR:
			bonus = bonusStrong
		case o.DSCR >= ev.th.MinDSCR:
			bonus = bonusAcceptable
		case o.DSCR >= breakEvenDSCR:
			bonus = bonusWeak
		}
	} else if plausibleIRR(o) {
		switch {
		case o.UnleveragedIRR >= strongIRR:
			bonus = bonusStrong
		case o.UnleveragedIRR >= acceptableIRR:
			bonus = bonusAcceptable
		default:
			bonus = bonusWeak
		}
	}
	return points(yield+float64(bonus), MaxOwnerAssetQuality)
}

// plausibleIRR rejects solver output that never converged or drifted to the
// search bounds; those rates earn no bonus.
func plausibleIRR(o models.OwnerEconomics) bool {
	return o.UnleveragedConverged && o.UnleveragedIRR > 0 && o.UnleveragedIRR < maxPlausibleIRR
}

func (ev evaluation) executionRisk() int {
	risk := external(ev.in.Deal.RiskScore)
	return points((1-risk/externalScoreScale)*MaxExecutionRisk, MaxExecutionRisk)
}

func usesExistingStructure(openingType string) bool {
	switch openingType {
	case models.OpeningConversion, models.OpeningRebrand, models.OpeningFranchiseTakeover:
		return true
	}
	return false
}

// external clamps a 0-25 market-research score; unknown scores sit at the midpoint.
func external(v *float64) float64 {
	if v == nil {
		return neutralExternal
	}
	return math.Max(0, math.Min(externalScoreScale, *v))
}

// ratio is v/target capped to [0, 1].
func ratio(v, target float64) float64 {
	if target <= 0 {
		return 0
	}
	return math.Max(0, math.Min(1, v/target))
}

func points(v float64, limit int) int {
	p := int(math.Round(v))
	if p < 0 {
		return 0
	}
	if p > limit {
		return limit
	}
	return p
}
