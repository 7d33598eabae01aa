// internal/workers/feasibility/evaluate-ic-decision/models.go
package evaluateicdecision

import (
	"encoding/json"

	"deal-compass-workers/internal/models"
)

// Input fields left nil are loaded from the deal store.
type Input struct {
	DealID       string                    `json:"dealId"`
	Deal         *models.DealSnapshot      `json:"deal,omitempty"`
	Inputs       *models.FeasibilityInputs `json:"inputs,omitempty"`
	ContractType string                    `json:"contractType"`
	ContactCount *int                      `json:"contactCount,omitempty"`
	// Thresholds overlays the configured thresholds key by key.
	Thresholds json.RawMessage `json:"thresholds,omitempty"`
	// RefreshCache drops cached deal rows before loading, for flows that just edited the deal.
	RefreshCache bool `json:"refreshCache,omitempty"`

	ProcessInstanceKey int64 `json:"-"`
}

type Output struct {
	DecisionID       string            `json:"decisionId"`
	DealID           string            `json:"dealId"`
	DealName         string            `json:"dealName"`
	City             string            `json:"city"`
	Decision         string            `json:"decision"`
	ICScore          int               `json:"icScore"`
	Confidence       string            `json:"confidence"`
	DataCompleteness int               `json:"dataCompleteness"`
	YieldOnCost      float64           `json:"yieldOnCost"`
	UnleveragedIRR   float64           `json:"unleveragedIrr"`
	DecidedAt        string            `json:"decidedAt"` // RFC3339
	PreviousDecision string            `json:"previousDecision,omitempty"`
	DecisionChanged  bool              `json:"decisionChanged"`
	ICDecision       models.ICDecision `json:"icDecision"`
}
