// Package completeness scores how much of a deal record is filled in.
package completeness

import (
	"strings"

	"deal-compass-workers/internal/models"
)

const MaxScore = 100

// Check keys.
const (
	CheckLocation      = "location"
	CheckCoordinates   = "coordinates"
	CheckSegment       = "segment"
	CheckRoomRange     = "room_range"
	CheckOpeningType   = "opening_type"
	CheckStage         = "stage"
	CheckAddress       = "address"
	CheckQualification = "qualification_score"
	CheckFeasibility   = "feasibility_inputs"
	CheckContact       = "contact"
	CheckNextSteps     = "next_steps"
)

type facts struct {
	deal                 models.DealSnapshot
	hasFeasibilityInputs bool
	contactCount         int
}

type check struct {
	key    string
	label  string
	weight int
	passed func(f facts) bool
}

var checks = []check{
	{CheckLocation, "City and state", 10, func(f facts) bool {
		return present(f.deal.City) && present(f.deal.State)
	}},
	{CheckCoordinates, "Coordinates", 5, func(f facts) bool { return f.deal.HasCoordinates() }},
	{CheckSegment, "Segment", 10, func(f facts) bool { return present(f.deal.Segment) }},
	{CheckRoomRange, "Room range", 10, func(f facts) bool { return f.deal.RoomsMax > 0 }},
	{CheckOpeningType, "Opening type", 5, func(f facts) bool { return present(f.deal.OpeningType) }},
	{CheckStage, "Pipeline stage beyond lead", 5, func(f facts) bool {
		return present(f.deal.Stage) && !strings.EqualFold(strings.TrimSpace(f.deal.Stage), models.DefaultStage)
	}},
	{CheckAddress, "Address", 5, func(f facts) bool { return present(f.deal.Address) }},
	{CheckQualification, "Qualification score", 10, func(f facts) bool { return f.deal.QualificationScore > 0 }},
	{CheckFeasibility, "Feasibility inputs", 30, func(f facts) bool { return f.hasFeasibilityInputs }},
	{CheckContact, "Owner contact", 5, func(f facts) bool { return f.contactCount > 0 }},
	// TODO: wire to the deal task list once tasks are exposed on DealSnapshot.
	{CheckNextSteps, "Next steps", 5, func(facts) bool { return false }},
}

// ComputeCompleteness runs the weighted checklist. Missing labels follow table order.
func ComputeCompleteness(deal models.DealSnapshot, hasFeasibilityInputs bool, contactCount int) models.CompletenessScore {
	f := facts{deal: deal, hasFeasibilityInputs: hasFeasibilityInputs, contactCount: contactCount}

	score := models.CompletenessScore{
		Breakdown: make(map[string]models.CheckResult, len(checks)),
		Missing:   []string{},
	}
	for _, c := range checks {
		res := models.CheckResult{Label: c.label, Weight: c.weight}
		if c.passed(f) {
			res.Earned = c.weight
			score.Score += c.weight
		} else {
			score.Missing = append(score.Missing, c.label)
		}
		score.Breakdown[c.key] = res
	}
	if score.Score > MaxScore {
		score.Score = MaxScore
	}
	return score
}

func present(s string) bool {
	return strings.TrimSpace(s) != ""
}
