// internal/common/database/postgres.go
package database

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"deal-compass-workers/internal/common/config"

	_ "github.com/lib/pq"
)

// PostgresClient wraps the SQL database connection
type PostgresClient struct {
	DB *sql.DB
}

// NewPostgres opens a pooled lib/pq connection. It does not dial; call Ping.
func NewPostgres(cfg config.PostgresConfig) (*PostgresClient, error) {
	db, err := sql.Open("postgres", cfg.GetDSN())
	if err != nil {
		return nil, fmt.Errorf("failed to open postgres: %w", err)
	}

	db.SetMaxOpenConns(cfg.MaxConnections)
	db.SetMaxIdleConns(cfg.MaxIdle)
	db.SetConnMaxLifetime(5 * time.Minute)
	db.SetConnMaxIdleTime(5 * time.Minute)

	return &PostgresClient{DB: db}, nil
}

func (c *PostgresClient) Ping(ctx context.Context) error {
	return c.DB.PingContext(ctx)
}

func (c *PostgresClient) Close() error {
	if c.DB != nil {
		return c.DB.Close()
	}
	return nil
}

// Tables owned by this service. deals, deal_contacts and deal_feasibility_inputs
// belong to the pipeline CRM and are only read.
var ownedSchema = []string{
	`CREATE TABLE IF NOT EXISTS ic_decisions (
		id                   UUID PRIMARY KEY,
		deal_id              TEXT NOT NULL,
		decision             TEXT NOT NULL,
		ic_score             INTEGER NOT NULL,
		confidence           TEXT NOT NULL,
		payload              JSONB NOT NULL,
		process_instance_key BIGINT,
		created_at           TIMESTAMPTZ NOT NULL DEFAULT now()
	)`,
	`CREATE INDEX IF NOT EXISTS ic_decisions_deal_created_idx ON ic_decisions (deal_id, created_at DESC)`,
}

// EnsureSchema creates the decision history table when missing.
func (c *PostgresClient) EnsureSchema(ctx context.Context) error {
	for _, stmt := range ownedSchema {
		if _, err := c.DB.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("ensure schema: %w", err)
		}
	}
	return nil
}
