package icdecision

import (
	"fmt"
	"strings"

	"deal-compass-workers/internal/models"
)

const narrativeItems = 2

var decisionLabels = map[string]string{
	models.DecisionGo:               "GO",
	models.DecisionGoWithConditions: "GO WITH CONDITIONS",
	models.DecisionNoGo:             "NO-GO",
}

var contractLabels = map[string]string{
	models.ContractManagement: "management agreement",
	models.ContractFranchise:  "franchise agreement",
}

func conversionBucket(points int) string {
	switch {
	case points >= 15:
		return "high"
	case points >= 10:
		return "moderate"
	default:
		return "low"
	}
}

// narrative renders the fixed four-paragraph IC summary.
func (ev evaluation) narrative(d models.ICDecision) string {
	deal := ev.in.Deal
	name := strings.TrimSpace(deal.Name)
	if name == "" {
		name = "Unnamed deal"
	}
	city := strings.TrimSpace(deal.City)
	if city == "" {
		city = "location not set"
	}

	payback := "never, as average NOI is not positive"
	if pb := ev.in.Feasibility.SimplePayback; !pb.IsInfinite() {
		payback = fmt.Sprintf("%.1f years", float64(pb))
	}

	var b strings.Builder
	fmt.Fprintf(&b, "IC recommendation for %s (%s): %s with an IC score of %d/100 and %s confidence.",
		name, city, decisionLabels[d.Decision], d.ICScore, d.Confidence)
	if failed := countFailed(d.HardGates); failed > 0 {
		fmt.Fprintf(&b, " %d of %d hard gates failed, which forces a NO-GO regardless of score.", failed, len(d.HardGates))
	}

	b.WriteString("\n\n")
	b.WriteString(ev.text.Sprintf("The %s opportunity under a %s generates stabilized net fees of USD %.0f per year for the brand. ",
		ev.preset.Label, contractLabels[ev.contract], ev.in.Brand.NetFeesUSD))
	fmt.Fprintf(&b, "Owner yield on cost is %s against a %s hurdle, with a simple payback of %s. ",
		percent(ev.in.Owner.YieldOnCost), percent(ev.preset.MinYieldOnCost), payback)
	fmt.Fprintf(&b, "Conversion ease is %s (%d/%d).", conversionBucket(d.SubScores.ConversionEase), d.SubScores.ConversionEase, MaxConversionEase)

	b.WriteString("\n\nKey risks: ")
	b.WriteString(summarize(d.RedFlags, "none identified"))
	b.WriteString("\n\nConditions: ")
	b.WriteString(summarize(d.Conditions, "none"))
	return b.String()
}

func summarize(items []string, empty string) string {
	if len(items) == 0 {
		return empty + "."
	}
	if len(items) > narrativeItems {
		items = items[:narrativeItems]
	}
	return strings.Join(items, "; ") + "."
}

func countFailed(gates []models.HardGate) int {
	n := 0
	for _, g := range gates {
		if !g.Passed {
			n++
		}
	}
	return n
}
