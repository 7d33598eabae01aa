// internal/workers/feasibility/check-data-completeness/models.go
package checkdatacompleteness

import "deal-compass-workers/internal/models"

type Input struct {
	Deal                 models.DealSnapshot       `json:"deal"`
	HasFeasibilityInputs bool                      `json:"hasFeasibilityInputs"`
	Inputs               *models.FeasibilityInputs `json:"inputs,omitempty"` // when set, decides hasFeasibilityInputs
	ContactCount         int                       `json:"contactCount"`
}

type Output struct {
	models.CompletenessScore
	// ReadyForIC is true once the score clears the data completeness gate.
	ReadyForIC      bool `json:"readyForIC"`
	MinCompleteness int  `json:"minCompleteness"`
}
