package database

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	_ "github.com/lib/pq"

	"insight-workers/internal/common/config"
)

type PostgresClient struct {
	DB *sql.DB
}

func NewPostgres(cfg config.PostgresConfig) (*PostgresClient, error) {
	dsn := cfg.GetDSN()

	db, err := sql.Open("postgres", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open postgres: %w", err)
	}

	db.SetMaxOpenConns(cfg.MaxConnections)
	db.SetMaxIdleConns(cfg.MaxIdle)
	db.SetConnMaxLifetime(5 * time.Minute)
	db.SetConnMaxIdleTime(5 * time.Minute)

	return &PostgresClient{DB: db}, nil
}

// NewPostgresFromDB wraps an already opened handle.
func NewPostgresFromDB(db *sql.DB) *PostgresClient {
	return &PostgresClient{DB: db}
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

func (c *PostgresClient) GetDB() *sql.DB {
	return c.DB
}

// schema is applied in order; every statement is idempotent.
var schema = []string{
	`CREATE TABLE IF NOT EXISTS rulesets (
		id                  TEXT PRIMARY KEY,
		display_name        TEXT NOT NULL,
		description         TEXT NOT NULL DEFAULT '',
		category            TEXT NOT NULL,
		template_id         TEXT NOT NULL,
		config_ref          TEXT NOT NULL,
		price_per_execution NUMERIC NOT NULL CHECK (price_per_execution > 0),
		creator_share       NUMERIC NOT NULL CHECK (creator_share > 0 AND creator_share <= 1),
		creator             TEXT NOT NULL,
		total_uses          BIGINT NOT NULL DEFAULT 0,
		rating              DOUBLE PRECISION NOT NULL DEFAULT 0,
		source              TEXT NOT NULL DEFAULT 'local',
		created_at          TIMESTAMPTZ NOT NULL DEFAULT now()
	)`,
	`CREATE INDEX IF NOT EXISTS idx_rulesets_category ON rulesets (category, created_at DESC)`,
	`CREATE TABLE IF NOT EXISTS execution_history (
		execution_id TEXT PRIMARY KEY,
		ruleset_id   TEXT NOT NULL REFERENCES rulesets (id),
		requester    TEXT NOT NULL,
		result       JSONB NOT NULL,
		recorded_at  TIMESTAMPTZ NOT NULL DEFAULT now()
	)`,
	`CREATE INDEX IF NOT EXISTS idx_execution_history_requester ON execution_history (requester, recorded_at)`,
}

// Migrate creates the catalog tables if they do not exist.
func (c *PostgresClient) Migrate(ctx context.Context) error {
	for _, stmt := range schema {
		if _, err := c.DB.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("migrate: %w", err)
		}
	}
	return nil
}
