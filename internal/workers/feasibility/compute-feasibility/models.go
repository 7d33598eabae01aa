// internal/workers/feasibility/compute-feasibility/models.go
package computefeasibility

import "deal-compass-workers/internal/models"

type Input struct {
	DealID       string                   `json:"dealId,omitempty"`
	ContractType string                   `json:"contractType"`
	Inputs       models.FeasibilityInputs `json:"inputs"`
}

type Output struct {
	Inputs         models.FeasibilityInputs  `json:"inputs"` // after preset defaults
	Feasibility    models.FeasibilityOutputs `json:"feasibility"`
	BrandEconomics models.BrandEconomics     `json:"brandEconomics"`
	OwnerEconomics models.OwnerEconomics     `json:"ownerEconomics"`
	InputFlags     []string                  `json:"inputFlags"`
}
