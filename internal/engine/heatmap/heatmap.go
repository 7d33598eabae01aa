// Package heatmap re-runs the projection over an occupancy x ADR grid and rates each cell.
package heatmap

import (
	"math"

	"deal-compass-workers/internal/engine/economics"
	"deal-compass-workers/internal/engine/feasibility"
	"deal-compass-workers/internal/engine/presets"
	"deal-compass-workers/internal/models"
)

const adrStep = 100

// OccupancyLevels are the grid rows.
func OccupancyLevels() []float64 {
	return []float64{0.50, 0.55, 0.60, 0.65, 0.70, 0.75, 0.80}
}

// ADRMultipliers scale the base ADR for the grid columns.
func ADRMultipliers() []float64 {
	return []float64{0.70, 0.80, 0.90, 1.00, 1.10, 1.20}
}

const baseMultiplierIndex = 3

type Generator struct {
	rubric *presets.Rubric
}

func New(r *presets.Rubric) *Generator {
	if r == nil {
		r = presets.Default()
	}
	return &Generator{rubric: r}
}

// Generate builds the 7x6 grid for metric (net_fees or yield_on_cost; anything else
// is treated as yield_on_cost).
func (g *Generator) Generate(in models.FeasibilityInputs, contractType, metric string) models.Heatmap {
	if metric != models.HeatmapMetricNetFees {
		metric = models.HeatmapMetricYieldOnCost
	}
	preset := g.rubric.Preset(in.Segment)

	occLevels := OccupancyLevels()
	adrLevels := ADRLevels(in.ADR)
	hm := models.Heatmap{
		Metric:          metric,
		Segment:         preset.Key,
		OccupancyLevels: occLevels,
		ADRLevels:       adrLevels,
		Cells:           make([][]models.HeatmapCell, len(occLevels)),
		BaseRow:         nearest(occLevels, in.Occupancy),
		BaseCol:         baseMultiplierIndex,
	}

	totalCapex := feasibility.TotalCapex(in)
	feePct := economics.TotalFeePct(in, contractType)

	for i, occ := range occLevels {
		row := make([]models.HeatmapCell, len(adrLevels))
		for j, adr := range adrLevels {
			years := feasibility.ComputeYears(in, feasibility.WithOccupancy(occ), feasibility.WithADR(adr))
			stab, _ := models.StabilizedYearOf(years)

			cell := models.HeatmapCell{Occupancy: occ, ADR: adr}
			if metric == models.HeatmapMetricNetFees {
				cell.Value = math.Round(stab.RoomsRevenue * feePct)
				cell.Tier = g.NetFeesTier(cell.Value, in.FXRate, preset)
			} else {
				cell.Value = YieldOnCost(stab.NOI, totalCapex)
				cell.Tier = g.YieldTier(cell.Value, preset)
			}
			row[j] = cell
		}
		hm.Cells[i] = row
	}
	return hm
}

// ADRLevels applies the multipliers to base and rounds to the nearest 100.
func ADRLevels(base float64) []float64 {
	mults := ADRMultipliers()
	levels := make([]float64, len(mults))
	for i, m := range mults {
		levels[i] = math.Round(base*m/adrStep) * adrStep
	}
	return levels
}

func YieldOnCost(noi, totalCapex float64) float64 {
	if totalCapex <= 0 {
		return 0
	}
	return noi / totalCapex
}

func (g *Generator) YieldTier(yield float64, p presets.SegmentPreset) string {
	return Tier(yield, p.MinYieldOnCost, g.rubric.Thresholds.YieldTiers)
}

// NetFeesTier rates local-currency fees against the segment's USD threshold.
func (g *Generator) NetFeesTier(fees, fxRate float64, p presets.SegmentPreset) string {
	usd := 0.0
	if fxRate > 0 {
		usd = fees / fxRate
	}
	return Tier(usd, p.MinNetFeesUSD, g.rubric.Thresholds.NetFeeTiers)
}

// Tier buckets v relative to threshold: strong, good (>= threshold), marginal, weak.
func Tier(v, threshold float64, c presets.TierCutoffs) string {
	switch {
	case v >= threshold*c.Strong:
		return models.TierStrong
	case v >= threshold:
		return models.TierGood
	case v >= threshold*c.Marginal:
		return models.TierMarginal
	default:
		return models.TierWeak
	}
}

func nearest(levels []float64, v float64) int {
	best := 0
	for i, l := range levels {
		if math.Abs(l-v) < math.Abs(levels[best]-v)-1e-12 {
			best = i
		}
	}
	return best
}
