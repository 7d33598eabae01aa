// internal/workers/feasibility/check-data-completeness/config.go
package checkdatacompleteness

import "time"

type Config struct {
	Timeout time.Duration
}

func LoadConfig() *Config {
	return &Config{
		Timeout: 5 * time.Second,
	}
}
