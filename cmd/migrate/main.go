package main

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/dealpay/payment-service/internal/config"
	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/zap"
)

// Schema notes:
//   - payments is append-only; external_id is the idempotency key for
//     webhook redelivery
//   - the partial unique index on payment_intents enforces at most one
//     non-terminal intent per deal, closing the race the service-layer
//     pre-check cannot
var migrations = []string{
	`CREATE TABLE IF NOT EXISTS deals (
		id UUID PRIMARY KEY,
		status TEXT NOT NULL DEFAULT 'pending',
		amount_minor_units BIGINT NOT NULL CHECK (amount_minor_units > 0),
		currency CHAR(3) NOT NULL,
		created_at TIMESTAMPTZ NOT NULL DEFAULT now(),
		updated_at TIMESTAMPTZ NOT NULL DEFAULT now(),
		CONSTRAINT deals_status_check CHECK (status IN ('pending', 'completed', 'failed', 'canceled'))
	)`,

	`CREATE TABLE IF NOT EXISTS payment_intents (
		external_id TEXT PRIMARY KEY,
		deal_id UUID NOT NULL REFERENCES deals(id),
		amount_minor_units BIGINT NOT NULL CHECK (amount_minor_units > 0),
		currency CHAR(3) NOT NULL,
		status TEXT NOT NULL DEFAULT 'requires_payment',
		created_at TIMESTAMPTZ NOT NULL DEFAULT now(),
		updated_at TIMESTAMPTZ NOT NULL DEFAULT now(),
		CONSTRAINT payment_intents_status_check CHECK (
			status IN ('requires_payment', 'processing', 'succeeded', 'payment_failed', 'canceled')
		)
	)`,

	`CREATE UNIQUE INDEX IF NOT EXISTS payment_intents_one_active_per_deal
		ON payment_intents (deal_id)
		WHERE status NOT IN ('succeeded', 'payment_failed', 'canceled')`,

	`CREATE INDEX IF NOT EXISTS payment_intents_deal_id_idx
		ON payment_intents (deal_id)`,

	`CREATE TABLE IF NOT EXISTS payments (
		id UUID PRIMARY KEY,
		deal_id UUID NOT NULL REFERENCES deals(id),
		external_id TEXT NOT NULL UNIQUE,
		amount_minor_units BIGINT NOT NULL,
		status TEXT NOT NULL,
		recorded_at TIMESTAMPTZ NOT NULL DEFAULT now(),
		CONSTRAINT payments_status_check CHECK (status IN ('completed', 'failed'))
	)`,

	`CREATE INDEX IF NOT EXISTS payments_deal_id_idx
		ON payments (deal_id)`,
}

func main() {
	logger, err := zap.NewProduction()
	if err != nil {
		fmt.Fprintf(os.Stderr, "logger init error: %v\n", err)
		os.Exit(1)
	}
	defer logger.Sync() //nolint:errcheck

	dbCfg, err := config.LoadDatabaseFromEnv()
	if err != nil {
		logger.Fatal("Configuration error", zap.Error(err))
	}

	ctx, cancel := context.WithTimeout(context.Background(), 60*time.Second)
	defer cancel()

	pool, err := pgxpool.New(ctx, dbCfg.ConnectionString())
	if err != nil {
		logger.Fatal("Failed to connect to database", zap.Error(err))
	}
	defer pool.Close()

	for i, stmt := range migrations {
		if _, err := pool.Exec(ctx, stmt); err != nil {
			logger.Fatal("Migration failed",
				zap.Int("statement", i),
				zap.Error(err),
			)
		}
	}

	logger.Info("Migrations applied",
		zap.Int("statements", len(migrations)),
		zap.String("database", dbCfg.Database),
	)
}
