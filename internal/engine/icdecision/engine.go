// Package icdecision turns projection, economics and completeness results into an
// investment-committee recommendation: hard gates, a 100-point rubric, remediation
// conditions, red flags, a confidence level and a templated narrative.
package icdecision

import (
	"fmt"
	"math"

	"deal-compass-workers/internal/engine/economics"
	"deal-compass-workers/internal/engine/presets"
	"deal-compass-workers/internal/models"

	"golang.org/x/text/language"
	"golang.org/x/text/message"
)

// Hard gate names.
const (
	GateDataCompleteness = "data_completeness"
	GateRoomCount        = "room_count"
	GateADRFloor         = "adr_floor"
	GateCapexCeiling     = "capex_ceiling"
)

// Input bundles everything one evaluation reads.
type Input struct {
	Deal         models.DealSnapshot
	Inputs       models.FeasibilityInputs
	Feasibility  models.FeasibilityOutputs
	Brand        models.BrandEconomics
	Owner        models.OwnerEconomics
	Completeness models.CompletenessScore
	ContractType string

	// Thresholds overrides the rubric thresholds for this call only.
	Thresholds *presets.Thresholds
}

type Engine struct {
	rubric *presets.Rubric
}

// New returns an engine bound to r; a nil rubric means presets.Default().
func New(r *presets.Rubric) *Engine {
	if r == nil {
		r = presets.Default()
	}
	return &Engine{rubric: r}
}

func (e *Engine) Rubric() *presets.Rubric {
	return e.rubric
}

// evaluation carries the resolved context shared by the scoring and text generators.
type evaluation struct {
	in       Input
	th       presets.Thresholds
	preset   presets.SegmentPreset
	contract string
	rooms    int
	minRooms int
	text     *message.Printer
}

// Evaluate classifies a deal. It is pure: identical input yields identical output.
func (e *Engine) Evaluate(in Input) models.ICDecision {
	rubric := e.rubric
	if in.Thresholds != nil {
		rubric = rubric.WithThresholds(*in.Thresholds)
	}

	segment := in.Inputs.Segment
	if segment == "" {
		segment = in.Deal.Segment
	}
	ev := evaluation{
		in:       in,
		th:       rubric.Thresholds,
		preset:   rubric.Preset(segment),
		contract: economics.NormalizeContractType(in.ContractType),
		rooms:    in.Deal.RoomsMax,
		minRooms: rubric.MinRooms(segment),
		text:     message.NewPrinter(language.English),
	}
	if ev.rooms <= 0 {
		ev.rooms = in.Inputs.Rooms
	}

	gates := ev.hardGates()
	sub := ev.subScores()

	d := models.ICDecision{
		ICScore:          sub.Total(),
		SubScores:        sub,
		HardGates:        gates,
		DataCompleteness: in.Completeness.Score,
		Segment:          ev.preset.Key,
		InputFlags:       rubric.RangeFlags(in.Inputs),
	}
	d.Decision = ev.classify(d.GatesPassed(), d.ICScore)
	d.Conditions = ev.conditions()
	d.RedFlags = ev.redFlags(gates)
	d.VolatilityRatio = volatility(in.Feasibility)
	d.Confidence = ev.confidence(d.VolatilityRatio)
	d.Narrative = ev.narrative(d)
	return d
}

func (ev evaluation) hardGates() []models.HardGate {
	th, p := ev.th, ev.preset
	completeness := ev.in.Completeness.Score
	adrFloor := p.ADR.Min * th.ADRFloorRatio
	capexCeiling := p.CapexPerKey.Max * th.CapexCeilingRatio

	return []models.HardGate{
		gate(GateDataCompleteness, completeness >= th.MinCompleteness,
			fmt.Sprintf("data completeness %d vs minimum %d", completeness, th.MinCompleteness)),
		gate(GateRoomCount, ev.rooms >= ev.minRooms,
			fmt.Sprintf("%d rooms vs %s minimum %d", ev.rooms, p.Label, ev.minRooms)),
		gate(GateADRFloor, ev.in.Inputs.ADR >= adrFloor,
			fmt.Sprintf("ADR %.0f vs floor %.0f (%.0f%% of %s minimum)", ev.in.Inputs.ADR, adrFloor, th.ADRFloorRatio*100, p.Label)),
		gate(GateCapexCeiling, ev.in.Inputs.CapexPerKey <= capexCeiling,
			fmt.Sprintf("CAPEX/key %.0f vs ceiling %.0f (%.0f%% of %s maximum)", ev.in.Inputs.CapexPerKey, capexCeiling, th.CapexCeilingRatio*100, p.Label)),
	}
}

func gate(name string, passed bool, detail string) models.HardGate {
	status := "passed"
	if !passed {
		status = "failed"
	}
	return models.HardGate{Name: name, Passed: passed, Reason: status + ": " + detail}
}

func (ev evaluation) classify(gatesPassed bool, score int) string {
	switch {
	case !gatesPassed || score < ev.th.NoGoScore:
		return models.DecisionNoGo
	case score >= ev.th.GoScore:
		return models.DecisionGo
	default:
		return models.DecisionGoWithConditions
	}
}

// volatility compares final-year NOI with the occupancy -10% scenario.
func volatility(out models.FeasibilityOutputs) float64 {
	if len(out.Years) == 0 {
		return 1
	}
	base := out.Years[len(out.Years)-1].NOI
	shocked, ok := out.Sensitivities[models.ScenarioOccupancyDown]
	if !ok || len(shocked.Years) == 0 || base == 0 {
		return 1
	}
	v := math.Abs(base-shocked.Years[len(shocked.Years)-1].NOI) / math.Abs(base)
	return math.Round(v*10000) / 10000
}

func (ev evaluation) confidence(vol float64) string {
	th := ev.th
	score := ev.in.Completeness.Score

	level := models.ConfidenceLow
	switch {
	case score >= th.HighConfidenceCompleteness && vol < th.HighConfidenceVolatility:
		level = models.ConfidenceHigh
	case score >= th.MedConfidenceCompleteness && vol < th.MedConfidenceVolatility:
		level = models.ConfidenceMedium
	}

	// a severe downside that turns NOI negative costs one level
	if severe, ok := ev.in.Feasibility.Sensitivities[models.ScenarioSevere]; ok && len(severe.Years) > 0 {
		if severe.Years[len(severe.Years)-1].NOI < 0 {
			switch level {
			case models.ConfidenceHigh:
				level = models.ConfidenceMedium
			case models.ConfidenceMedium:
				level = models.ConfidenceLow
			}
		}
	}
	return level
}
