// Package feasibility projects a five-year hotel P&L from a flat assumption set.
// Every function is pure; money is rounded to whole units as it is computed.
package feasibility

import (
	"math"

	"deal-compass-workers/internal/models"
)

const (
	ProjectionYears = 5
	OccupancyCap    = 0.95

	rampFloor = 0.6
	rampSpan  = 0.4
	nights    = 365
)

// Sensitivity multipliers.
const (
	OccupancyShock       = 0.90
	ADRShock             = 0.90
	CapexShock           = 1.15
	FXShock              = 1.15
	SevereOccupancyShock = 0.85
)

type overrides struct {
	adr       *float64
	occupancy *float64
	fxRate    *float64
}

// Option substitutes one assumption for a single projection run.
type Option func(*overrides)

func WithADR(adr float64) Option {
	return func(o *overrides) { o.adr = &adr }
}

func WithOccupancy(occupancy float64) Option {
	return func(o *overrides) { o.occupancy = &occupancy }
}

// WithFXRate changes the local/USD rate; yearly figures stay in local currency.
func WithFXRate(fx float64) Option {
	return func(o *overrides) { o.fxRate = &fx }
}

// Projection is a year sequence plus the FX rate it should be read at.
type Projection struct {
	Years  []models.FeasibilityYear
	FXRate float64
}

// Project runs the five-year projection with any overrides applied.
func Project(in models.FeasibilityInputs, opts ...Option) Projection {
	var ov overrides
	for _, opt := range opts {
		opt(&ov)
	}

	adr, occupancy, fx := in.ADR, in.Occupancy, in.FXRate
	if ov.adr != nil {
		adr = *ov.adr
	}
	if ov.occupancy != nil {
		occupancy = *ov.occupancy
	}
	if ov.fxRate != nil {
		fx = *ov.fxRate
	}

	years := make([]models.FeasibilityYear, 0, ProjectionYears)
	for y := 1; y <= ProjectionYears; y++ {
		occ := math.Min(occupancy*rampFactor(y, in.RampUpYears), OccupancyCap)
		roomNights := float64(in.Rooms) * nights * occ
		roomsRevenue := math.Round(roomNights * adr)
		totalRevenue := math.Round(roomsRevenue * (1 + in.FnBRevenuePct + in.OtherRevenuePct))
		gop := math.Round(totalRevenue * in.GOPMargin)
		fees := math.Round(totalRevenue*in.BaseFee + gop*in.IncentiveFee)

		years = append(years, models.FeasibilityYear{
			Year:         y,
			Occupancy:    occ,
			RoomNights:   roomNights,
			RoomsRevenue: roomsRevenue,
			TotalRevenue: totalRevenue,
			GOP:          gop,
			Fees:         fees,
			NOI:          gop - fees,
		})
	}
	return Projection{Years: years, FXRate: fx}
}

// ComputeYears returns only the year sequence of Project.
func ComputeYears(in models.FeasibilityInputs, opts ...Option) []models.FeasibilityYear {
	return Project(in, opts...).Years
}

func rampFactor(year, rampUpYears int) float64 {
	if year <= rampUpYears {
		return rampFloor + rampSpan*float64(year)/float64(rampUpYears)
	}
	return 1.0
}

// ComputeFeasibility projects the base case, headline CAPEX and payback, and the sensitivity set.
func ComputeFeasibility(in models.FeasibilityInputs) models.FeasibilityOutputs {
	base := Project(in)
	totalCapex := TotalCapex(in)
	avg := AverageNOI(base.Years)

	sens := map[string]models.Scenario{
		models.ScenarioOccupancyDown: scenario(models.ScenarioOccupancyDown,
			Project(in, WithOccupancy(in.Occupancy*OccupancyShock)), totalCapex, avg),
		models.ScenarioADRDown: scenario(models.ScenarioADRDown,
			Project(in, WithADR(in.ADR*ADRShock)), totalCapex, avg),
		models.ScenarioCapexUp: scenario(models.ScenarioCapexUp,
			base, math.Round(totalCapex*CapexShock), avg),
		models.ScenarioFXUp: scenario(models.ScenarioFXUp,
			Project(in, WithFXRate(in.FXRate*FXShock)), totalCapex, avg),
		models.ScenarioSevere: scenario(models.ScenarioSevere,
			Project(in, WithADR(in.ADR*ADRShock), WithOccupancy(in.Occupancy*SevereOccupancyShock)), totalCapex, avg),
	}

	return models.FeasibilityOutputs{
		Years:         base.Years,
		TotalCapex:    totalCapex,
		AverageNOI:    avg,
		SimplePayback: SimplePayback(totalCapex, avg),
		Sensitivities: sens,
	}
}

func TotalCapex(in models.FeasibilityInputs) float64 {
	return math.Round(float64(in.Rooms) * (in.CapexPerKey + in.FFEPerKey))
}

func AverageNOI(years []models.FeasibilityYear) float64 {
	if len(years) == 0 {
		return 0
	}
	sum := 0.0
	for _, y := range years {
		sum += y.NOI
	}
	return sum / float64(len(years))
}

// SimplePayback is infinite whenever average NOI is not positive.
func SimplePayback(totalCapex, averageNOI float64) models.Payback {
	if averageNOI <= 0 {
		return models.InfinitePayback()
	}
	return models.Payback(math.Max(totalCapex, 0) / averageNOI)
}

func scenario(name string, p Projection, totalCapex, baseAvg float64) models.Scenario {
	avg := AverageNOI(p.Years)
	s := models.Scenario{
		Name:          name,
		Years:         p.Years,
		TotalCapex:    totalCapex,
		SimplePayback: SimplePayback(totalCapex, avg),
		FXRate:        p.FXRate,
		AverageNOI:    avg,
	}
	if p.FXRate > 0 {
		s.AverageNOIUSD = math.Round(avg / p.FXRate)
	}
	if baseAvg != 0 {
		s.NOIDeltaPct = math.Round((avg-baseAvg)/math.Abs(baseAvg)*10000) / 100
	}
	return s
}
