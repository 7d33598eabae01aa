package icdecision

import (
	"fmt"
	"strings"

	"deal-compass-workers/internal/engine/presets"
	"deal-compass-workers/internal/models"
)

const missingDataListed = 3

// conditions lists remediation items, most significant first.
func (ev evaluation) conditions() []string {
	p, th := ev.preset, ev.th
	in, owner, brand := ev.in.Inputs, ev.in.Owner, ev.in.Brand
	out := []string{}

	if in.CapexPerKey > p.CapexPerKey.Max {
		out = append(out, ev.text.Sprintf("Reduce CAPEX/key from %.0f to at most %.0f (%s ceiling)",
			in.CapexPerKey, p.CapexPerKey.Max, p.Label))
	}
	if in.ADR < p.ADR.Min {
		out = append(out, ev.text.Sprintf("Validate ADR of %.0f against the %s floor of %.0f with an independent market study",
			in.ADR, p.Label, p.ADR.Min))
	}
	if owner.YieldOnCost < p.MinYieldOnCost {
		out = append(out, fmt.Sprintf("Lift yield on cost from %s to at least %s through cost or revenue improvements",
			percent(owner.YieldOnCost), percent(p.MinYieldOnCost)))
	}
	if ev.contract == models.ContractManagement && brand.NetFeesUSD < p.MinNetFeesUSD {
		out = append(out, ev.text.Sprintf("Renegotiate management fees: net fees of USD %.0f fall below the USD %.0f viability threshold",
			brand.NetFeesUSD, p.MinNetFeesUSD))
	}
	if owner.DebtEnabled && owner.DSCR < th.MinDSCR {
		out = append(out, fmt.Sprintf("Restructure debt to bring DSCR from %.2fx to at least %.2fx", owner.DSCR, th.MinDSCR))
	}
	if ev.in.Completeness.Score < th.ConditionCompleteness {
		missing := ev.in.Completeness.Missing
		if len(missing) > missingDataListed {
			missing = missing[:missingDataListed]
		}
		item := fmt.Sprintf("Raise data completeness from %d to at least %d", ev.in.Completeness.Score, th.ConditionCompleteness)
		if len(missing) > 0 {
			item += ": " + strings.ToLower(strings.Join(missing, ", "))
		}
		out = append(out, item)
	}
	if p.Tier == presets.TierEconomy && in.OpeningType == models.OpeningNewBuild {
		out = append(out, "Economy segment: pursue a conversion or rebrand instead of a new build")
	}
	return out
}

func (ev evaluation) redFlags(gates []models.HardGate) []string {
	p, th := ev.preset, ev.th
	in, owner := ev.in.Inputs, ev.in.Owner
	out := []string{}

	if in.GOPMargin < p.GOPMargin.Min*th.CriticalGOPRatio {
		out = append(out, fmt.Sprintf("GOP margin critically low at %s (%s minimum %s)",
			percent(in.GOPMargin), p.Label, percent(p.GOPMargin.Min)))
	}
	if ev.in.Completeness.Score < th.MinCompleteness {
		out = append(out, fmt.Sprintf("Data completeness at %d/100 is below %d", ev.in.Completeness.Score, th.MinCompleteness))
	}
	if ev.rooms < ev.minRooms {
		out = append(out, fmt.Sprintf("%d rooms is below the %s minimum of %d", ev.rooms, p.Label, ev.minRooms))
	}
	if payback := ev.in.Feasibility.SimplePayback; payback.IsInfinite() {
		out = append(out, "Investment never pays back: average NOI is not positive")
	} else if float64(payback) > th.MaxPaybackYears {
		out = append(out, fmt.Sprintf("Simple payback of %.1f years exceeds %.0f years", float64(payback), th.MaxPaybackYears))
	}
	if owner.YieldOnCost < p.MinYieldOnCost*th.YieldRedFlagRatio {
		out = append(out, fmt.Sprintf("Yield on cost of %s is below %.0f%% of the %s hurdle",
			percent(owner.YieldOnCost), th.YieldRedFlagRatio*100, percent(p.MinYieldOnCost)))
	}
	for _, g := range gates {
		if !g.Passed {
			out = append(out, fmt.Sprintf("Hard gate %s %s", g.Name, g.Reason))
		}
	}
	return out
}

func percent(v float64) string {
	return fmt.Sprintf("%.1f%%", v*100)
}
