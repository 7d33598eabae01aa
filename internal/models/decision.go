// internal/models/decision.go
package models

const (
	DecisionGo               = "go"
	DecisionGoWithConditions = "go_with_conditions"
	DecisionNoGo             = "no_go"
)

const (
	ConfidenceHigh   = "high"
	ConfidenceMedium = "medium"
	ConfidenceLow    = "low"
)

type CheckResult struct {
	Label  string `json:"label"`
	Weight int    `json:"weight"`
	Earned int    `json:"earned"`
}

type CompletenessScore struct {
	Score     int                    `json:"score"`
	Breakdown map[string]CheckResult `json:"breakdown"`
	Missing   []string               `json:"missing"`
}

type HardGate struct {
	Name   string `json:"name"`
	Passed bool   `json:"passed"`
	Reason string `json:"reason"`
}

type SubScores struct {
	LocationMarket    int `json:"locationMarket"`
	DemandStrength    int `json:"demandStrength"`
	ConversionEase    int `json:"conversionEase"`
	OwnerAssetQuality int `json:"ownerAssetQuality"`
	ExecutionRisk     int `json:"executionRisk"`
}

func (s SubScores) Total() int {
	return s.LocationMarket + s.DemandStrength + s.ConversionEase + s.OwnerAssetQuality + s.ExecutionRisk
}

type ICDecision struct {
	Decision         string     `json:"decision"`
	ICScore          int        `json:"icScore"`
	SubScores        SubScores  `json:"subScores"`
	Confidence       string     `json:"confidence"`
	VolatilityRatio  float64    `json:"volatilityRatio"`
	HardGates        []HardGate `json:"hardGates"`
	Conditions       []string   `json:"conditions"`
	RedFlags         []string   `json:"redFlags"`
	InputFlags       []string   `json:"inputFlags"`
	Narrative        string     `json:"narrative"`
	DataCompleteness int        `json:"dataCompleteness"`
	Segment          string     `json:"segment"`
}

// GatesPassed reports whether every hard gate passed.
func (d ICDecision) GatesPassed() bool {
	for _, g := range d.HardGates {
		if !g.Passed {
			return false
		}
	}
	return true
}

const (
	TierStrong   = "strong"
	TierGood     = "good"
	TierMarginal = "marginal"
	TierWeak     = "weak"
)

const (
	HeatmapMetricNetFees     = "net_fees"
	HeatmapMetricYieldOnCost = "yield_on_cost"
)

type HeatmapCell struct {
	Occupancy float64 `json:"occupancy"`
	ADR       float64 `json:"adr"`
	Value     float64 `json:"value"`
	Tier      string  `json:"tier"`
}

// Heatmap rows are occupancy levels, columns are ADR levels.
type Heatmap struct {
	Metric          string          `json:"metric"`
	Segment         string          `json:"segment"`
	OccupancyLevels []float64       `json:"occupancyLevels"`
	ADRLevels       []float64       `json:"adrLevels"`
	Cells           [][]HeatmapCell `json:"cells"`
	BaseRow         int             `json:"baseRow"`
	BaseCol         int             `json:"baseCol"`
}
