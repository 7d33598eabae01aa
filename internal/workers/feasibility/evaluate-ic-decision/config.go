// internal/workers/feasibility/evaluate-ic-decision/config.go
package evaluateicdecision

import "time"

type Config struct {
	Timeout time.Duration
}

func LoadConfig() *Config {
	return &Config{
		Timeout: 15 * time.Second,
	}
}
