// Command backfill migrates legacy per-profile credit balances into wallets
// and repairs direction and running_balance on historical transactions. It is
// run once per environment and exits; re-running is harmless.
package main

import (
	"context"
	"log/slog"
	"os"

	"github.com/wantokjobs/wallet-service/internal/config"
	"github.com/wantokjobs/wallet-service/internal/logging"
	"github.com/wantokjobs/wallet-service/internal/repository"
	"github.com/wantokjobs/wallet-service/internal/service/backfill"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load config", "error", err)
		os.Exit(1)
	}

	logging.Init("wallet-backfill", cfg.LogLevel, cfg.AppEnv)

	ctx := context.Background()

	db, err := repository.NewPostgresDB(ctx, cfg.DatabaseURL, repository.PoolConfig{
		MaxOpenConns:     cfg.DBMaxOpenConns,
		MaxIdleConns:     cfg.DBMaxIdleConns,
		ConnMaxLifetimeS: cfg.DBConnMaxLifetimeS,
		ConnMaxIdleTimeS: cfg.DBConnMaxIdleTimeS,
	})
	if err != nil {
		slog.Error("failed to connect to database", "error", err)
		os.Exit(1)
	}
	defer db.Close()

	if err := repository.Migrate(ctx, db); err != nil {
		slog.Error("failed to run migrations", "error", err)
		os.Exit(1)
	}

	runner := backfill.NewRunner(
		repository.NewProfileRepository(db),
		repository.NewTransactionRepository(db),
		db,
	)

	result, err := runner.Run(ctx)
	if err != nil {
		slog.Error("backfill failed", "error", err)
		os.Exit(1)
	}

	slog.Info("backfill finished",
		"wallets_created", result.WalletsCreated,
		"directions_backfilled", result.DirectionsBackfilled,
		"transactions_recomputed", result.TransactionsRecomputed,
	)
}
