// internal/workers/feasibility/notify-ic-decision/models.go
package notifyicdecision

import "deal-compass-workers/internal/models"

type Input struct {
	DecisionID     string            `json:"decisionId"`
	DealID         string            `json:"dealId"`
	DealName       string            `json:"dealName"`
	City           string            `json:"city"`
	YieldOnCost    float64           `json:"yieldOnCost"`
	UnleveragedIRR float64           `json:"unleveragedIrr"`
	ICDecision     models.ICDecision `json:"icDecision"`
	// Recipients replaces the configured IC distribution list when set.
	Recipients []string `json:"recipients,omitempty"`
}

type Output struct {
	NotificationID string `json:"notificationId"`
	Status         string `json:"status"`
	EmailStatus    string `json:"emailStatus"`
	SNSStatus      string `json:"snsStatus"`
	EmailMessageID string `json:"emailMessageId,omitempty"`
	SNSMessageID   string `json:"snsMessageId,omitempty"`
	SentAt         string `json:"sentAt"` // ISO 8601
}

// Statuses
const (
	StatusSent     = "sent"
	StatusDisabled = "disabled"
	StatusSkipped  = "skipped"
)
