// internal/workers/feasibility/generate-sensitivity-heatmap/config.go
package generatesensitivityheatmap

import "time"

type Config struct {
	Timeout time.Duration
}

func LoadConfig() *Config {
	return &Config{
		Timeout: 10 * time.Second,
	}
}
