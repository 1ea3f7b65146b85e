package main

import (
	"context"
	"flag"
	"os"

	"github.com/joho/godotenv"

	"github.com/naebak/naebak-auth-service/internal/reference"
	"github.com/naebak/naebak-auth-service/pkg/config"
	"github.com/naebak/naebak-auth-service/pkg/db"
	"github.com/naebak/naebak-auth-service/pkg/logger"
	"github.com/naebak/naebak-auth-service/pkg/migrate"
)

// seed loads the canonical governorates and parties. It is idempotent; with
// -force existing rows are reset to their canonical names.
func main() {
	force := flag.Bool("force", false, "overwrite existing reference rows")
	flag.Parse()

	logg := logger.New(logger.Options{ServiceName: "seed"})
	if err := godotenv.Load(); err != nil {
		logg.Warn(context.Background(), ".env file not found, relying on environment")
	}

	cfg, err := config.Load()
	if err != nil {
		logg.Error(context.Background(), "failed to load config", err)
		os.Exit(1)
	}
	logg = logger.New(logger.FromConfig("seed", cfg.App))
	ctx := logg.WithFields(context.Background(), map[string]any{"env": cfg.App.Env, "force": *force})

	dbClient, err := db.New(ctx, cfg.DB, logg)
	if err != nil {
		logg.Error(ctx, "failed to bootstrap database", err)
		os.Exit(1)
	}
	defer dbClient.Close()

	if err := migrate.MaybeRunDev(ctx, cfg, logg, dbClient); err != nil {
		logg.Error(ctx, "failed to run dev migrations", err)
		os.Exit(1)
	}

	res, err := reference.NewLoader(reference.NewRepository(dbClient.DB()), logg).Load(ctx, *force)
	if err != nil {
		logg.Error(ctx, "reference seed failed", err)
		os.Exit(1)
	}
	logg.Info(logg.WithFields(ctx, map[string]any{
		"governorates": res.Governorates,
		"parties":      res.Parties,
	}), "reference seed complete")
}
