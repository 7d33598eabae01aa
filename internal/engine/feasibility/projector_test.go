package feasibility

import (
	"encoding/json"
	"testing"

	"deal-compass-workers/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// ==========================
// Test Helper Functions
// ==========================

func createBaselineInputs() models.FeasibilityInputs {
	return models.FeasibilityInputs{
		Rooms:        150,
		Segment:      "upscale",
		OpeningType:  models.OpeningNewBuild,
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

// ==========================
// Projection Tests
// ==========================

func TestComputeYears_Baseline(t *testing.T) {
	years := ComputeYears(createBaselineInputs())
	require.Len(t, years, ProjectionYears)

	assert.Greater(t, years[0].Occupancy, 0.39)
	assert.Less(t, years[0].Occupancy, 0.65)
	assert.InDelta(t, 0.52, years[0].Occupancy, 1e-9)
	assert.Equal(t, 0.65, years[2].Occupancy)

	y3 := years[2]
	assert.Equal(t, 3, y3.Year)
	assert.Equal(t, 124_556_250.0, y3.RoomsRevenue)
	assert.Equal(t, y3.RoomsRevenue, y3.TotalRevenue)
	assert.InDelta(t, 47_331_375.0, y3.GOP, 1)
	assert.Equal(t, y3.GOP-y3.Fees, y3.NOI)

	for i, y := range years {
		assert.Equal(t, i+1, y.Year)
		for _, v := range []float64{y.RoomsRevenue, y.TotalRevenue, y.GOP, y.Fees, y.NOI} {
			assert.Equal(t, float64(int64(v)), v, "money must be whole units")
		}
	}
}

func TestComputeYears_AncillaryRevenue(t *testing.T) {
	in := createBaselineInputs()
	in.FnBRevenuePct = 0.25
	in.OtherRevenuePct = 0.05

	y3 := ComputeYears(in)[2]
	assert.InDelta(t, y3.RoomsRevenue*1.30, y3.TotalRevenue, 1)
}

func TestComputeYears_OccupancyCeiling(t *testing.T) {
	tests := []struct {
		name      string
		occupancy float64
		ramp      int
	}{
		{name: "full occupancy no ramp", occupancy: 1.0, ramp: 1},
		{name: "out of range occupancy", occupancy: 1.6, ramp: 3},
		{name: "exactly at cap", occupancy: 0.95, ramp: 1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			in := createBaselineInputs()
			in.Occupancy = tt.occupancy
			in.RampUpYears = tt.ramp
			for _, y := range ComputeYears(in) {
				assert.LessOrEqual(t, y.Occupancy, OccupancyCap)
			}
		})
	}
}

func TestComputeYears_Monotonicity(t *testing.T) {
	in := createBaselineInputs()
	prev := ComputeYears(in)
	for _, adr := range []float64{3600, 4000, 5200, 9000} {
		in.ADR = adr
		next := ComputeYears(in)
		for i := range next {
			assert.GreaterOrEqual(t, next[i].RoomsRevenue, prev[i].RoomsRevenue)
			assert.GreaterOrEqual(t, next[i].TotalRevenue, prev[i].TotalRevenue)
			assert.GreaterOrEqual(t, next[i].GOP, prev[i].GOP)
		}
		prev = next
	}

	in = createBaselineInputs()
	prev = ComputeYears(in)
	for _, occ := range []float64{0.66, 0.70, 0.80, 0.90} {
		in.Occupancy = occ
		next := ComputeYears(in)
		for i := range next {
			assert.GreaterOrEqual(t, next[i].RoomNights, prev[i].RoomNights)
		}
		prev = next
	}
}

func TestComputeYears_Overrides(t *testing.T) {
	in := createBaselineInputs()

	p := Project(in, WithADR(4000), WithOccupancy(0.70), WithFXRate(20))
	direct := in
	direct.ADR = 4000
	direct.Occupancy = 0.70

	assert.Equal(t, ComputeYears(direct), p.Years)
	assert.Equal(t, 20.0, p.FXRate)
	assert.Equal(t, in.FXRate, Project(in).FXRate)
}

func TestComputeYears_DegenerateInputs(t *testing.T) {
	in := createBaselineInputs()
	in.Rooms = 0
	in.RampUpYears = 0

	years := ComputeYears(in)
	require.Len(t, years, ProjectionYears)
	for _, y := range years {
		assert.Zero(t, y.RoomsRevenue)
		assert.Zero(t, y.NOI)
	}
}

// ==========================
// Feasibility Tests
// ==========================

func TestComputeFeasibility_Baseline(t *testing.T) {
	out := ComputeFeasibility(createBaselineInputs())

	assert.Equal(t, 487_500_000.0, out.TotalCapex)
	assert.Len(t, out.Years, ProjectionYears)
	assert.False(t, out.SimplePayback.IsInfinite())
	assert.InDelta(t, out.TotalCapex/out.AverageNOI, float64(out.SimplePayback), 1e-9)

	require.Len(t, out.Sensitivities, 5)
	for _, name := range []string{
		models.ScenarioOccupancyDown,
		models.ScenarioADRDown,
		models.ScenarioCapexUp,
		models.ScenarioFXUp,
		models.ScenarioSevere,
	} {
		s, ok := out.Sensitivities[name]
		require.True(t, ok, name)
		assert.Equal(t, name, s.Name)
		assert.Len(t, s.Years, ProjectionYears)
	}
}

func TestComputeFeasibility_Sensitivities(t *testing.T) {
	in := createBaselineInputs()
	out := ComputeFeasibility(in)

	capex := out.Sensitivities[models.ScenarioCapexUp]
	assert.Equal(t, out.Years, capex.Years)
	assert.Equal(t, 560_625_000.0, capex.TotalCapex)
	assert.Greater(t, float64(capex.SimplePayback), float64(out.SimplePayback))
	assert.Zero(t, capex.NOIDeltaPct)

	fx := out.Sensitivities[models.ScenarioFXUp]
	assert.Equal(t, out.Years, fx.Years)
	assert.InDelta(t, in.FXRate*FXShock, fx.FXRate, 1e-9)
	assert.Less(t, fx.AverageNOIUSD, out.Sensitivities[models.ScenarioCapexUp].AverageNOIUSD)

	occ := out.Sensitivities[models.ScenarioOccupancyDown]
	assert.Less(t, occ.Years[4].NOI, out.Years[4].NOI)
	assert.Less(t, occ.NOIDeltaPct, 0.0)

	severe := out.Sensitivities[models.ScenarioSevere]
	assert.Less(t, severe.AverageNOI, occ.AverageNOI)
	assert.Less(t, severe.AverageNOI, out.Sensitivities[models.ScenarioADRDown].AverageNOI)
}

func TestComputeFeasibility_InfinitePayback(t *testing.T) {
	in := createBaselineInputs()
	in.GOPMargin = 0
	in.BaseFee = 0
	in.IncentiveFee = 0

	out := ComputeFeasibility(in)

	assert.Zero(t, out.AverageNOI)
	assert.True(t, out.SimplePayback.IsInfinite())
	for _, s := range out.Sensitivities {
		assert.True(t, s.SimplePayback.IsInfinite(), s.Name)
	}

	data, err := json.Marshal(out)
	require.NoError(t, err)

	var back models.FeasibilityOutputs
	require.NoError(t, json.Unmarshal(data, &back))
	assert.True(t, back.SimplePayback.IsInfinite())
	assert.Equal(t, out.Years, back.Years)
}

func TestComputeFeasibility_NegativeNOI(t *testing.T) {
	in := createBaselineInputs()
	in.GOPMargin = 0.05
	in.BaseFee = 0.10

	out := ComputeFeasibility(in)
	assert.Less(t, out.AverageNOI, 0.0)
	assert.True(t, out.SimplePayback.IsInfinite())
}

func TestComputeFeasibility_Deterministic(t *testing.T) {
	in := createBaselineInputs()
	in.FnBRevenuePct = 0.18
	in.OtherRevenuePct = 0.04

	first, err := json.Marshal(ComputeFeasibility(in))
	require.NoError(t, err)
	second, err := json.Marshal(ComputeFeasibility(in))
	require.NoError(t, err)

	assert.Equal(t, first, second)
}

// ==========================
// Benchmark Tests
// ==========================

func BenchmarkComputeFeasibility(b *testing.B) {
	in := createBaselineInputs()
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		ComputeFeasibility(in)
	}
}
