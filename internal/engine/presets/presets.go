// Package presets holds the segment reference table and the IC rubric thresholds.
// A Rubric is built once from configuration and passed into the engine explicitly.
package presets

import (
	"strings"
)

// Normalized segment tiers used for room-count minimums.
const (
	TierEconomy  = "economy"
	TierMidscale = "midscale"
	TierPremium  = "premium"
)

const (
	SegmentEconomy      = "economy"
	SegmentMidscale     = "midscale"
	SegmentUpscale      = "upscale"
	SegmentUpperUpscale = "upper_upscale"
	SegmentLuxury       = "luxury"
	SegmentLifestyle    = "lifestyle"
)

type Range struct {
	Min float64 `mapstructure:"min" json:"min"`
	Max float64 `mapstructure:"max" json:"max"`
}

func (r Range) Mid() float64 {
	return (r.Min + r.Max) / 2
}

func (r Range) Contains(v float64) bool {
	return v >= r.Min && v <= r.Max
}

// SegmentPreset is one row of the segment reference table. Money is local currency.
type SegmentPreset struct {
	Key             string  `mapstructure:"key" json:"key"`
	Label           string  `mapstructure:"label" json:"label"`
	Tier            string  `mapstructure:"tier" json:"tier"`
	ADR             Range   `mapstructure:"adr" json:"adr"`
	Occupancy       Range   `mapstructure:"occupancy" json:"occupancy"`
	GOPMargin       Range   `mapstructure:"gop_margin" json:"gopMargin"`
	CapexPerKey     Range   `mapstructure:"capex_per_key" json:"capexPerKey"`
	FFEPerKey       float64 `mapstructure:"ffe_per_key" json:"ffePerKey"`
	BaseFee         Range   `mapstructure:"base_fee" json:"baseFee"`
	IncentiveFee    float64 `mapstructure:"incentive_fee" json:"incentiveFee"`
	RoyaltyPct      float64 `mapstructure:"royalty_pct" json:"royaltyPct"`
	MarketingPct    float64 `mapstructure:"marketing_pct" json:"marketingPct"`
	DistributionPct float64 `mapstructure:"distribution_pct" json:"distributionPct"`
	FnBRevenuePct   float64 `mapstructure:"fnb_revenue_pct" json:"fnbRevenuePct"`
	OtherRevenuePct float64 `mapstructure:"other_revenue_pct" json:"otherRevenuePct"`
	MinYieldOnCost  float64 `mapstructure:"min_yield_on_cost" json:"minYieldOnCost"`
	MinNetFeesUSD   float64 `mapstructure:"min_net_fees_usd" json:"minNetFeesUsd"`
}

// DefaultSegments returns the reference table for the Mexican market (MXN).
func DefaultSegments() map[string]SegmentPreset {
	return map[string]SegmentPreset{
		SegmentEconomy: {
			Key: SegmentEconomy, Label: "Economy", Tier: TierEconomy,
			ADR:             Range{Min: 900, Max: 1600},
			Occupancy:       Range{Min: 0.60, Max: 0.75},
			GOPMargin:       Range{Min: 0.35, Max: 0.45},
			CapexPerKey:     Range{Min: 900_000, Max: 1_500_000},
			FFEPerKey:       150_000,
			BaseFee:         Range{Min: 0.025, Max: 0.03},
			IncentiveFee:    0.06,
			RoyaltyPct:      0.05,
			MarketingPct:    0.02,
			DistributionPct: 0.01,
			FnBRevenuePct:   0.05,
			OtherRevenuePct: 0.02,
			MinYieldOnCost:  0.10,
			MinNetFeesUSD:   60_000,
		},
		SegmentMidscale: {
			Key: SegmentMidscale, Label: "Midscale", Tier: TierMidscale,
			ADR:             Range{Min: 1400, Max: 2500},
			Occupancy:       Range{Min: 0.62, Max: 0.75},
			GOPMargin:       Range{Min: 0.33, Max: 0.42},
			CapexPerKey:     Range{Min: 1_400_000, Max: 2_400_000},
			FFEPerKey:       250_000,
			BaseFee:         Range{Min: 0.025, Max: 0.035},
			IncentiveFee:    0.07,
			RoyaltyPct:      0.05,
			MarketingPct:    0.02,
			DistributionPct: 0.015,
			FnBRevenuePct:   0.12,
			OtherRevenuePct: 0.04,
			MinYieldOnCost:  0.095,
			MinNetFeesUSD:   100_000,
		},
		SegmentUpscale: {
			Key: SegmentUpscale, Label: "Upscale", Tier: TierPremium,
			ADR:             Range{Min: 2500, Max: 4500},
			Occupancy:       Range{Min: 0.60, Max: 0.72},
			GOPMargin:       Range{Min: 0.30, Max: 0.40},
			CapexPerKey:     Range{Min: 2_400_000, Max: 3_800_000},
			FFEPerKey:       450_000,
			BaseFee:         Range{Min: 0.03, Max: 0.035},
			IncentiveFee:    0.08,
			RoyaltyPct:      0.045,
			MarketingPct:    0.025,
			DistributionPct: 0.015,
			FnBRevenuePct:   0.25,
			OtherRevenuePct: 0.06,
			MinYieldOnCost:  0.09,
			MinNetFeesUSD:   180_000,
		},
		SegmentUpperUpscale: {
			Key: SegmentUpperUpscale, Label: "Upper Upscale", Tier: TierPremium,
			ADR:             Range{Min: 3800, Max: 6500},
			Occupancy:       Range{Min: 0.58, Max: 0.72},
			GOPMargin:       Range{Min: 0.28, Max: 0.38},
			CapexPerKey:     Range{Min: 3_500_000, Max: 5_500_000},
			FFEPerKey:       600_000,
			BaseFee:         Range{Min: 0.03, Max: 0.04},
			IncentiveFee:    0.08,
			RoyaltyPct:      0.05,
			MarketingPct:    0.025,
			DistributionPct: 0.02,
			FnBRevenuePct:   0.35,
			OtherRevenuePct: 0.08,
			MinYieldOnCost:  0.085,
			MinNetFeesUSD:   250_000,
		},
		SegmentLuxury: {
			Key: SegmentLuxury, Label: "Luxury", Tier: TierPremium,
			ADR:             Range{Min: 6000, Max: 15000},
			Occupancy:       Range{Min: 0.55, Max: 0.70},
			GOPMargin:       Range{Min: 0.25, Max: 0.35},
			CapexPerKey:     Range{Min: 5_500_000, Max: 11_000_000},
			FFEPerKey:       1_100_000,
			BaseFee:         Range{Min: 0.03, Max: 0.04},
			IncentiveFee:    0.10,
			RoyaltyPct:      0.055,
			MarketingPct:    0.025,
			DistributionPct: 0.02,
			FnBRevenuePct:   0.45,
			OtherRevenuePct: 0.12,
			MinYieldOnCost:  0.08,
			MinNetFeesUSD:   350_000,
		},
		SegmentLifestyle: {
			Key: SegmentLifestyle, Label: "Lifestyle", Tier: TierPremium,
			ADR:             Range{Min: 3000, Max: 5500},
			Occupancy:       Range{Min: 0.62, Max: 0.76},
			GOPMargin:       Range{Min: 0.30, Max: 0.40},
			CapexPerKey:     Range{Min: 2_800_000, Max: 4_500_000},
			FFEPerKey:       500_000,
			BaseFee:         Range{Min: 0.03, Max: 0.035},
			IncentiveFee:    0.08,
			RoyaltyPct:      0.05,
			MarketingPct:    0.025,
			DistributionPct: 0.015,
			FnBRevenuePct:   0.30,
			OtherRevenuePct: 0.08,
			MinYieldOnCost:  0.09,
			MinNetFeesUSD:   180_000,
		},
	}
}

var segmentAliases = map[string]string{
	"budget":         SegmentEconomy,
	"select_service": SegmentMidscale,
	"upper_midscale": SegmentMidscale,
	"premium":        SegmentUpscale,
	"full_service":   SegmentUpscale,
	"upperupscale":   SegmentUpperUpscale,
	"boutique":       SegmentLifestyle,
}

// NormalizeSegmentKey lowercases and snake-cases a free-form segment name and resolves aliases.
func NormalizeSegmentKey(segment string) string {
	key := strings.ToLower(strings.TrimSpace(segment))
	key = strings.NewReplacer(" ", "_", "-", "_").Replace(key)
	if alias, ok := segmentAliases[key]; ok {
		return alias
	}
	return key
}
