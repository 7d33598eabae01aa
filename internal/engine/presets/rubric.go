package presets

import (
	"fmt"
	"math"

	"deal-compass-workers/internal/models"
)

// TierCutoffs are multiples of a segment threshold that bound the heatmap tiers.
type TierCutoffs struct {
	Strong   float64 `mapstructure:"strong" json:"strong"`
	Marginal float64 `mapstructure:"marginal" json:"marginal"`
}

// Thresholds parameterize the hard gates, scoring and flag triggers.
type Thresholds struct {
	GoScore                    int            `mapstructure:"go_score" json:"goScore"`
	NoGoScore                  int            `mapstructure:"no_go_score" json:"noGoScore"`
	MinCompleteness            int            `mapstructure:"min_completeness" json:"minCompleteness"`
	ConditionCompleteness      int            `mapstructure:"condition_completeness" json:"conditionCompleteness"`
	ADRFloorRatio              float64        `mapstructure:"adr_floor_ratio" json:"adrFloorRatio"`
	CapexCeilingRatio          float64        `mapstructure:"capex_ceiling_ratio" json:"capexCeilingRatio"`
	MinRooms                   map[string]int `mapstructure:"min_rooms" json:"minRooms"`
	MinDSCR                    float64        `mapstructure:"min_dscr" json:"minDscr"`
	MaxPaybackYears            float64        `mapstructure:"max_payback_years" json:"maxPaybackYears"`
	YieldRedFlagRatio          float64        `mapstructure:"yield_red_flag_ratio" json:"yieldRedFlagRatio"`
	CriticalGOPRatio           float64        `mapstructure:"critical_gop_ratio" json:"criticalGopRatio"`
	HighConfidenceCompleteness int            `mapstructure:"high_confidence_completeness" json:"highConfidenceCompleteness"`
	HighConfidenceVolatility   float64        `mapstructure:"high_confidence_volatility" json:"highConfidenceVolatility"`
	MedConfidenceCompleteness  int            `mapstructure:"medium_confidence_completeness" json:"mediumConfidenceCompleteness"`
	MedConfidenceVolatility    float64        `mapstructure:"medium_confidence_volatility" json:"mediumConfidenceVolatility"`
	YieldTiers                 TierCutoffs    `mapstructure:"yield_tiers" json:"yieldTiers"`
	NetFeeTiers                TierCutoffs    `mapstructure:"net_fee_tiers" json:"netFeeTiers"`
}

func DefaultThresholds() Thresholds {
	return Thresholds{
		GoScore:               72,
		NoGoScore:             55,
		MinCompleteness:       50,
		ConditionCompleteness: 70,
		ADRFloorRatio:         0.70,
		CapexCeilingRatio:     1.50,
		MinRooms: map[string]int{
			TierEconomy:  80,
			TierMidscale: 100,
			TierPremium:  120,
		},
		MinDSCR:                    1.25,
		MaxPaybackYears:            12,
		YieldRedFlagRatio:          0.70,
		CriticalGOPRatio:           0.80,
		HighConfidenceCompleteness: 80,
		HighConfidenceVolatility:   0.20,
		MedConfidenceCompleteness:  60,
		MedConfidenceVolatility:    0.35,
		YieldTiers:                 TierCutoffs{Strong: 1.25, Marginal: 0.75},
		NetFeeTiers:                TierCutoffs{Strong: 1.5, Marginal: 0.5},
	}
}

const (
	DefaultRampUpYears = 2
	DefaultFXRate      = 17.5
)

// Rubric is the read-only configuration handed to every engine component.
type Rubric struct {
	Segments       map[string]SegmentPreset
	Thresholds     Thresholds
	DefaultSegment string
	DefaultFXRate  float64
}

// Default returns the stock rubric.
func Default() *Rubric {
	return New(DefaultSegments(), DefaultThresholds())
}

// New builds a rubric, keeping the stock rows for any segment not supplied.
func New(segments map[string]SegmentPreset, th Thresholds) *Rubric {
	merged := DefaultSegments()
	for key, p := range segments {
		key = NormalizeSegmentKey(key)
		if p.Key == "" {
			p.Key = key
		}
		if p.Tier == "" {
			p.Tier = tierFor(key)
		}
		merged[key] = p
	}
	if len(th.MinRooms) == 0 {
		th.MinRooms = DefaultThresholds().MinRooms
	}
	return &Rubric{
		Segments:       merged,
		Thresholds:     th,
		DefaultSegment: SegmentMidscale,
		DefaultFXRate:  DefaultFXRate,
	}
}

// WithThresholds returns a copy of r using th.
func (r *Rubric) WithThresholds(th Thresholds) *Rubric {
	cp := *r
	if len(th.MinRooms) == 0 {
		th.MinRooms = r.Thresholds.MinRooms
	}
	cp.Thresholds = th
	return &cp
}

// Preset resolves a segment name, falling back to the default segment.
func (r *Rubric) Preset(segment string) SegmentPreset {
	if p, ok := r.Segments[NormalizeSegmentKey(segment)]; ok {
		return p
	}
	return r.Segments[r.DefaultSegment]
}

// Tier returns the normalized economy/midscale/premium tier of a segment.
func (r *Rubric) Tier(segment string) string {
	return r.Preset(segment).Tier
}

func (r *Rubric) MinRooms(segment string) int {
	return r.Thresholds.MinRooms[r.Tier(segment)]
}

func tierFor(key string) string {
	switch key {
	case SegmentEconomy:
		return TierEconomy
	case SegmentMidscale:
		return TierMidscale
	default:
		return TierPremium
	}
}

// FillDefaults returns a copy of in with unset assumptions taken from the segment preset.
func (r *Rubric) FillDefaults(in models.FeasibilityInputs) models.FeasibilityInputs {
	p := r.Preset(in.Segment)
	if in.Segment == "" {
		in.Segment = p.Key
	}
	if in.ADR <= 0 {
		in.ADR = math.Round(p.ADR.Mid())
	}
	if in.Occupancy <= 0 {
		in.Occupancy = p.Occupancy.Mid()
	}
	if in.GOPMargin <= 0 {
		in.GOPMargin = p.GOPMargin.Mid()
	}
	if in.CapexPerKey <= 0 {
		in.CapexPerKey = math.Round(p.CapexPerKey.Mid())
	}
	if in.FFEPerKey <= 0 {
		in.FFEPerKey = p.FFEPerKey
	}
	if in.FnBRevenuePct == 0 && in.OtherRevenuePct == 0 {
		in.FnBRevenuePct = p.FnBRevenuePct
		in.OtherRevenuePct = p.OtherRevenuePct
	}
	if in.BaseFee == 0 && in.IncentiveFee == 0 {
		in.BaseFee = p.BaseFee.Mid()
		in.IncentiveFee = p.IncentiveFee
	}
	if in.RoyaltyPct == 0 && in.MarketingPct == 0 && in.DistributionPct == 0 {
		in.RoyaltyPct = p.RoyaltyPct
		in.MarketingPct = p.MarketingPct
		in.DistributionPct = p.DistributionPct
	}
	if in.RampUpYears < 1 {
		in.RampUpYears = DefaultRampUpYears
	}
	if in.FXRate <= 0 {
		in.FXRate = r.DefaultFXRate
	}
	return in
}

// RangeFlags lists the assumptions that fall outside the segment's plausible ranges.
func (r *Rubric) RangeFlags(in models.FeasibilityInputs) []string {
	p := r.Preset(in.Segment)
	flags := []string{}
	if !p.ADR.Contains(in.ADR) {
		flags = append(flags, fmt.Sprintf("ADR %.0f outside %s range %.0f-%.0f", in.ADR, p.Label, p.ADR.Min, p.ADR.Max))
	}
	if !p.Occupancy.Contains(in.Occupancy) {
		flags = append(flags, fmt.Sprintf("Occupancy %.0f%% outside %s range %.0f%%-%.0f%%",
			in.Occupancy*100, p.Label, p.Occupancy.Min*100, p.Occupancy.Max*100))
	}
	if !p.GOPMargin.Contains(in.GOPMargin) {
		flags = append(flags, fmt.Sprintf("GOP margin %.0f%% outside %s range %.0f%%-%.0f%%",
			in.GOPMargin*100, p.Label, p.GOPMargin.Min*100, p.GOPMargin.Max*100))
	}
	if !p.CapexPerKey.Contains(in.CapexPerKey) {
		flags = append(flags, fmt.Sprintf("CAPEX/key %.0f outside %s range %.0f-%.0f",
			in.CapexPerKey, p.Label, p.CapexPerKey.Min, p.CapexPerKey.Max))
	}
	return flags
}
