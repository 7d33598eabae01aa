// internal/common/config/config.go
package config

import (
	"fmt"

	"deal-compass-workers/internal/engine/presets"
)

// Config is the main application configuration struct.
type Config struct {
	App           AppConfig               `mapstructure:"app"`
	Camunda       CamundaConfig           `mapstructure:"camunda"`
	Database      DatabaseConfig          `mapstructure:"database"`
	Workers       map[string]WorkerConfig `mapstructure:"workers"`
	Logging       LoggingConfig           `mapstructure:"logging"`
	Notifications NotificationConfig      `mapstructure:"notifications"`
	Engine        EngineConfig            `mapstructure:"engine"`
}

// --- Core App/Infrastructure Config ---
type AppConfig struct {
	Name        string `mapstructure:"name"`
	Version     string `mapstructure:"version"`
	Environment string `mapstructure:"environment"`
	HTTPPort    int    `mapstructure:"http_port"`
}

type CamundaConfig struct {
	BrokerAddress  string `mapstructure:"broker_address"`
	MaxJobsActive  int    `mapstructure:"max_jobs_active"`
	Timeout        int    `mapstructure:"timeout"`         // milliseconds
	RequestTimeout int    `mapstructure:"request_timeout"` // milliseconds
	RetryAttempts  int    `mapstructure:"retry_attempts"`
	RetryBaseDelay int    `mapstructure:"retry_base_delay"` // milliseconds
	RetryMaxDelay  int    `mapstructure:"retry_max_delay"`  // milliseconds
}

type DatabaseConfig struct {
	Postgres      PostgresConfig      `mapstructure:"postgres"`
	Elasticsearch ElasticsearchConfig `mapstructure:"elasticsearch"`
	Redis         RedisConfig         `mapstructure:"redis"`
}

type PostgresConfig struct {
	Host           string `mapstructure:"host"`
	Port           int    `mapstructure:"port"`
	Database       string `mapstructure:"database"`
	User           string `mapstructure:"user"`
	Password       string `mapstructure:"password"`
	MaxConnections int    `mapstructure:"max_connections"`
	MaxIdle        int    `mapstructure:"max_idle"`
	SSLMode        string `mapstructure:"sslmode"`
}

// GetDSN returns the PostgreSQL connection string
func (p PostgresConfig) GetDSN() string {
	return fmt.Sprintf(
		"host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		p.Host, p.Port, p.User, p.Password, p.Database, p.SSLMode,
	)
}

type ElasticsearchConfig struct {
	Addresses     []string `mapstructure:"addresses"`
	Username      string   `mapstructure:"username"`
	Password      string   `mapstructure:"password"`
	DecisionIndex string   `mapstructure:"decision_index"`
}

type RedisConfig struct {
	Address  string `mapstructure:"address"`
	Password string `mapstructure:"password"`
	DB       int    `mapstructure:"db"`
}

// WorkerConfig holds the core settings applicable to every worker.
type WorkerConfig struct {
	Enabled       bool `mapstructure:"enabled"`
	MaxJobsActive int  `mapstructure:"max_jobs_active"`
	Timeout       int  `mapstructure:"timeout"`     // milliseconds
	MaxRetries    int  `mapstructure:"max_retries"` // For error handling
}

// NotificationConfig holds settings for the notify-ic-decision worker.
type NotificationConfig struct {
	AWS struct {
		Region string `mapstructure:"region"`
	} `mapstructure:"aws"`
	Email struct {
		Enabled        bool     `mapstructure:"enabled"`
		FromEmail      string   `mapstructure:"from_email"`
		ICDistribution []string `mapstructure:"ic_distribution"`
	} `mapstructure:"email"`
	SNS struct {
		Enabled  bool   `mapstructure:"enabled"`
		TopicARN string `mapstructure:"topic_arn"`
	} `mapstructure:"sns"`
	// BoardURL is linked from notification bodies; {dealId} is substituted.
	BoardURL string `mapstructure:"board_url"`
}

// LoggingConfig holds logging settings.
type LoggingConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
	Output string `mapstructure:"output"`
}

// EngineConfig tunes the feasibility and IC decision engine.
type EngineConfig struct {
	Thresholds       presets.Thresholds               `mapstructure:"thresholds"`
	Segments         map[string]presets.SegmentPreset `mapstructure:"segments"`
	DefaultFXRate    float64                          `mapstructure:"default_fx_rate"`
	DealCacheTTL     int                              `mapstructure:"deal_cache_ttl"`     // seconds
	DecisionCacheTTL int                              `mapstructure:"decision_cache_ttl"` // seconds
	BatchParallelism int                              `mapstructure:"batch_parallelism"`
}

// DefaultEngineConfig seeds unmarshalling so that only overridden keys change.
func DefaultEngineConfig() EngineConfig {
	return EngineConfig{
		Thresholds:       presets.DefaultThresholds(),
		DefaultFXRate:    presets.DefaultFXRate,
		DealCacheTTL:     900,
		DecisionCacheTTL: 86400,
		BatchParallelism: 8,
	}
}

// Rubric builds the engine rubric. Segment rows given in config replace the stock row whole.
func (e EngineConfig) Rubric() *presets.Rubric {
	r := presets.New(e.Segments, e.Thresholds)
	if e.DefaultFXRate > 0 {
		r.DefaultFXRate = e.DefaultFXRate
	}
	return r
}
