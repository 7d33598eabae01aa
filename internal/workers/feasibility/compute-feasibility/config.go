// internal/workers/feasibility/compute-feasibility/config.go
package computefeasibility

import "time"

type Config struct {
	Timeout time.Duration
}

func LoadConfig() *Config {
	return &Config{
		Timeout: 10 * time.Second,
	}
}
