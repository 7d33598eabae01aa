// internal/workers/feasibility/index-ic-decision/config.go
package indexicdecision

import "time"

type Config struct {
	Index   string
	Refresh string // "", "true", "false" or "wait_for"
	Timeout time.Duration
}

func LoadConfig(index string) *Config {
	if index == "" {
		index = "ic-decisions"
	}
	return &Config{
		Index:   index,
		Refresh: "false",
		Timeout: 10 * time.Second,
	}
}
