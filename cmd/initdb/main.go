// Command initdb drops, recreates and seeds the database schema. Running it
// against a live database erases all users.
package main

import (
	"context"
	"database/sql"
	"fmt"
	"os"

	_ "github.com/jackc/pgx/v5/stdlib"

	"github.com/stepwise-app/stepwise/internal/config"
	"github.com/stepwise-app/stepwise/internal/infra"
	"github.com/stepwise-app/stepwise/internal/logging"
	"github.com/stepwise-app/stepwise/internal/migrations"
	"github.com/stepwise-app/stepwise/internal/pages"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "load config: %v\n", err)
		os.Exit(1)
	}

	logger := logging.New(cfg.LogLevel, cfg.LogFormat)

	if cfg.DatabaseURL == "" {
		logger.Error("DATABASE_URL must be set to initialize a database")
		os.Exit(1)
	}

	ctx := context.Background()

	db, err := sql.Open("pgx", cfg.DatabaseURL)
	if err != nil {
		logger.Error("open postgres", "error", err)
		os.Exit(1)
	}
	if err := db.PingContext(ctx); err != nil {
		logger.Error("ping postgres", "error", err)
		os.Exit(1)
	}

	if err := migrations.Reset(ctx, db); err != nil {
		logger.Error("apply migrations", "error", err)
		os.Exit(1)
	}
	logger.Info("schema recreated")

	if err := db.Close(); err != nil {
		logger.Warn("close migration connection", "error", err)
	}

	pool, err := infra.NewPostgresPool(ctx, cfg.DatabaseURL, cfg.DBMaxConns)
	if err != nil {
		logger.Error("connect postgres", "error", err)
		os.Exit(1)
	}
	defer pool.Close()

	repo := pages.NewPostgresRepository(pool)
	if err := repo.EnsureDefault(ctx, pages.Default()); err != nil {
		logger.Error("seed default page config", "error", err)
		os.Exit(1)
	}
	logger.Info("default page config seeded")

	logger.Info("database initialized")
}
