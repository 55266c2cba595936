package main

import (
	"context"
	"os"
	"street-screens-service/internal/adapters/repositories"
	"street-screens-service/internal/config"
	"street-screens-service/internal/platform/db"
	"street-screens-service/internal/platform/logging"
)

// dbtool creates the schema and loads taxonomy seed data without starting
// the server. Connection settings and the seed file come from the same
// config as the server (DATABASE_URL, DB_DRIVER, SEED_PATH).
func main() {
	cfg, err := config.LoadDatabase()
	if err != nil {
		logging.Error().Err(err).Msg("load config")
		os.Exit(1)
	}
	logging.Init(logging.Config{Level: cfg.Logging.Level, Format: cfg.Logging.Format})

	if err := run(context.Background(), cfg); err != nil {
		logging.Error().Err(err).Msg("dbtool failed")
		os.Exit(1)
	}
}

func run(ctx context.Context, cfg *config.Config) error {
	sqlDB, dialect, err := db.Open(cfg.Database.Driver, cfg.Database.DSN)
	if err != nil {
		return err
	}
	defer sqlDB.Close()

	logging.Info().Str("driver", string(dialect)).Msg("initializing database schema")
	if err := repositories.InitSchema(ctx, sqlDB, dialect); err != nil {
		return err
	}
	logging.Info().Msg("schema ready")

	logging.Info().Str("path", cfg.Database.SeedPath).Msg("seeding database")
	if err := repositories.SeedFromJSON(ctx, sqlDB, dialect, cfg.Database.SeedPath); err != nil {
		return err
	}
	logging.Info().Msg("seeding complete")
	return nil
}
