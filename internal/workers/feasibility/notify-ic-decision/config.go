// internal/workers/feasibility/notify-ic-decision/config.go
package notifyicdecision

import (
	"time"

	"deal-compass-workers/internal/common/config"
)

type Config struct {
	EmailEnabled   bool
	SNSEnabled     bool
	FromEmail      string
	ICDistribution []string
	TopicARN       string
	BoardURL       string // {dealId} is substituted
	Timeout        time.Duration
}

func LoadConfig(n config.NotificationConfig) *Config {
	return &Config{
		EmailEnabled:   n.Email.Enabled,
		SNSEnabled:     n.SNS.Enabled,
		FromEmail:      n.Email.FromEmail,
		ICDistribution: n.Email.ICDistribution,
		TopicARN:       n.SNS.TopicARN,
		BoardURL:       n.BoardURL,
		Timeout:        30 * time.Second,
	}
}
