package heatmap

import (
	"testing"

	"deal-compass-workers/internal/engine/economics"
	"deal-compass-workers/internal/engine/feasibility"
	"deal-compass-workers/internal/engine/presets"
	"deal-compass-workers/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func createBaselineInputs() models.FeasibilityInputs {
	return models.FeasibilityInputs{
		Rooms:        150,
		Segment:      "upscale",
		ADR:          3500,
		Occupancy:    0.65,
		RampUpYears:  2,
		CapexPerKey:  2_800_000,
		FFEPerKey:    450_000,
		BaseFee:      0.03,
		IncentiveFee: 0.08,
		GOPMargin:    0.38,
		FXRate:       17.5,
	}
}

func TestGenerate_GridShape(t *testing.T) {
	hm := New(nil).Generate(createBaselineInputs(), models.ContractManagement, models.HeatmapMetricYieldOnCost)

	require.Len(t, hm.Cells, 7)
	assert.Equal(t, []float64{0.50, 0.55, 0.60, 0.65, 0.70, 0.75, 0.80}, hm.OccupancyLevels)
	require.Len(t, hm.ADRLevels, 6)
	assert.Equal(t, 3500.0, hm.ADRLevels[hm.BaseCol])
	assert.Equal(t, 3, hm.BaseRow)
	assert.Equal(t, presets.SegmentUpscale, hm.Segment)

	for i, row := range hm.Cells {
		require.Len(t, row, 6)
		for j, cell := range row {
			assert.Equal(t, hm.OccupancyLevels[i], cell.Occupancy)
			assert.Equal(t, hm.ADRLevels[j], cell.ADR)
			assert.Contains(t, []string{models.TierStrong, models.TierGood, models.TierMarginal, models.TierWeak}, cell.Tier)
			if j > 0 {
				assert.GreaterOrEqual(t, cell.Value, row[j-1].Value)
			}
		}
	}
}

func TestADRLevels_RoundedToHundreds(t *testing.T) {
	for _, base := range []float64{3500, 1234, 8765} {
		levels := ADRLevels(base)
		require.Len(t, levels, 6)
		for i, l := range levels {
			assert.Zero(t, int(l)%100, "level %v", l)
			if i > 0 {
				assert.Greater(t, l, levels[i-1])
			}
		}
	}
}

func TestGenerate_BaseCellMatchesDirectYield(t *testing.T) {
	in := createBaselineInputs()
	g := New(presets.Default())

	hm := g.Generate(in, models.ContractManagement, models.HeatmapMetricYieldOnCost)
	base := hm.Cells[hm.BaseRow][hm.BaseCol]

	direct := in
	direct.Occupancy = hm.OccupancyLevels[hm.BaseRow]
	direct.ADR = hm.ADRLevels[hm.BaseCol]
	out := feasibility.ComputeFeasibility(direct)
	stab, ok := out.StabilizedYear()
	require.True(t, ok)

	yield := stab.NOI / out.TotalCapex
	preset := presets.Default().Preset(in.Segment)

	assert.InDelta(t, yield, base.Value, 1e-12)
	assert.Equal(t, Tier(yield, preset.MinYieldOnCost, presets.DefaultThresholds().YieldTiers), base.Tier)
	assert.Equal(t, models.TierMarginal, base.Tier)
}

func TestGenerate_BaseCellMatchesDirectNetFees(t *testing.T) {
	in := createBaselineInputs()
	g := New(nil)

	hm := g.Generate(in, models.ContractManagement, models.HeatmapMetricNetFees)
	base := hm.Cells[hm.BaseRow][hm.BaseCol]

	stab, _ := feasibility.ComputeFeasibility(in).StabilizedYear()
	fees := stab.RoomsRevenue * economics.TotalFeePct(in, models.ContractManagement)

	assert.InDelta(t, fees, base.Value, 0.5)
	assert.Equal(t, models.HeatmapMetricNetFees, hm.Metric)
	assert.Equal(t, models.TierStrong, base.Tier)
}

func TestGenerate_UnknownMetricDefaultsToYield(t *testing.T) {
	hm := New(nil).Generate(createBaselineInputs(), models.ContractFranchise, "irr")
	assert.Equal(t, models.HeatmapMetricYieldOnCost, hm.Metric)
}

func TestGenerate_BaseRowNearestOccupancy(t *testing.T) {
	in := createBaselineInputs()
	in.Occupancy = 0.68
	assert.Equal(t, 4, New(nil).Generate(in, "", "").BaseRow)

	in.Occupancy = 0.95
	assert.Equal(t, 6, New(nil).Generate(in, "", "").BaseRow)
}

func TestTier(t *testing.T) {
	c := presets.TierCutoffs{Strong: 1.25, Marginal: 0.75}
	tests := []struct {
		value    float64
		expected string
	}{
		{0.13, models.TierStrong},
		{0.10, models.TierGood},
		{0.08, models.TierMarginal},
		{0.05, models.TierWeak},
		{-0.02, models.TierWeak},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.expected, Tier(tt.value, 0.10, c), "value %v", tt.value)
	}
}

func TestGenerate_ZeroCapex(t *testing.T) {
	in := createBaselineInputs()
	in.CapexPerKey = 0
	in.FFEPerKey = 0

	hm := New(nil).Generate(in, models.ContractManagement, models.HeatmapMetricYieldOnCost)
	for _, row := range hm.Cells {
		for _, cell := range row {
			assert.Zero(t, cell.Value)
		}
	}
}
