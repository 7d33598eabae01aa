// internal/workers/feasibility/generate-sensitivity-heatmap/models.go
package generatesensitivityheatmap

import "deal-compass-workers/internal/models"

type Input struct {
	DealID       string                   `json:"dealId,omitempty"`
	ContractType string                   `json:"contractType"`
	Metric       string                   `json:"metric"` // net_fees | yield_on_cost
	Inputs       models.FeasibilityInputs `json:"inputs"`
}

type Output struct {
	Heatmap    models.Heatmap     `json:"heatmap"`
	BaseCell   models.HeatmapCell `json:"baseCell"`
	TierCounts map[string]int     `json:"tierCounts"`
}
