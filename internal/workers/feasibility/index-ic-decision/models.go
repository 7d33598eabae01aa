// internal/workers/feasibility/index-ic-decision/models.go
package indexicdecision

import "deal-compass-workers/internal/models"

// Input is the output of evaluate-ic-decision.
type Input struct {
	DecisionID     string            `json:"decisionId"`
	DealID         string            `json:"dealId"`
	DealName       string            `json:"dealName"`
	City           string            `json:"city"`
	YieldOnCost    float64           `json:"yieldOnCost"`
	UnleveragedIRR float64           `json:"unleveragedIrr"`
	DecidedAt      string            `json:"decidedAt"`
	ICDecision     models.ICDecision `json:"icDecision"`
}

// DecisionDocument is what the pipeline board searches. One document per deal.
type DecisionDocument struct {
	DecisionID       string   `json:"decisionId"`
	DealID           string   `json:"dealId"`
	DealName         string   `json:"dealName"`
	City             string   `json:"city"`
	Segment          string   `json:"segment"`
	Decision         string   `json:"decision"`
	Confidence       string   `json:"confidence"`
	ICScore          int      `json:"icScore"`
	DataCompleteness int      `json:"dataCompleteness"`
	VolatilityRatio  float64  `json:"volatilityRatio"`
	YieldOnCost      float64  `json:"yieldOnCost"`
	IRR              float64  `json:"irr"`
	RedFlags         []string `json:"redFlags"`
	Narrative        string   `json:"narrative"`
	DecidedAt        string   `json:"decidedAt"`
}

type Output struct {
	Indexed    bool   `json:"indexed"`
	Index      string `json:"index"`
	DocumentID string `json:"documentId"`
	Result     string `json:"result"` // created | updated
	Version    int64  `json:"version"`
}
