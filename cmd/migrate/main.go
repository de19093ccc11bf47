package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"os"

	"github.com/joho/godotenv"

	"troop-cookies/internal/catalog"
	"troop-cookies/internal/config"
	"troop-cookies/internal/database"
	"troop-cookies/internal/database/migrations"
	"troop-cookies/internal/logger"
	"troop-cookies/internal/models"
)

func main() {
	down := flag.Bool("down", false, "roll back every migration instead of applying them")
	seed := flag.String("seed", "", "JSON file with the cookie variants of a season")
	year := flag.Int("year", 0, "program year the seed file belongs to (defaults to PROGRAM_YEAR)")
	flag.Parse()

	if err := godotenv.Load(); err != nil {
		fmt.Fprintln(os.Stderr, ".env file not found, using environment variables")
	}
	cfg := config.Load()

	logger, err := logger.New(logger.Options{Service: "troop-cookies-migrate", Dir: cfg.Log.Dir, Level: cfg.Log.Level})
	if err != nil {
		fmt.Fprintf(os.Stderr, "logger: %v\n", err)
		os.Exit(1)
	}
	defer logger.Close()
	if cfg.Database.Driver != "postgres" {
		logger.Fatal("CONFIG", fmt.Sprintf("migrations run against postgres only, DB_DRIVER is %q", cfg.Database.Driver))
	}

	runner := migrations.NewRunner(database.PostgresDSN(cfg.Database), cfg.Database.Schema, logger)
	defer runner.Close()

	if *down {
		if err := runner.MigrateDown(); err != nil {
			logger.Fatal("MIGRATE", err.Error())
		}
		logger.Info("MIGRATE", "✅ All migrations rolled back")
		return
	}

	if err := runner.MigrateUp(); err != nil {
		logger.Fatal("MIGRATE", err.Error())
	}
	logger.Info("MIGRATE", "✅ Migrations applied")

	if *seed == "" {
		return
	}

	programYear := *year
	if programYear == 0 {
		programYear = cfg.Season.ProgramYear
	}

	raw, err := os.ReadFile(*seed)
	if err != nil {
		logger.Fatal("SEED", fmt.Sprintf("Failed to read %s: %v", *seed, err))
	}
	var variants []models.CookieVariant
	if err := json.Unmarshal(raw, &variants); err != nil {
		logger.Fatal("SEED", fmt.Sprintf("Failed to parse %s: %v", *seed, err))
	}

	ctx := context.Background()
	bunDB, err := database.Connect(ctx, cfg.Database, logger)
	if err != nil {
		logger.Fatal("DATABASE", err.Error())
	}
	defer bunDB.Close()

	store := &catalog.DB{Bun: bunDB}
	if err := store.ReplaceSeason(ctx, programYear, variants); err != nil {
		logger.Fatal("SEED", fmt.Sprintf("Failed to seed %d catalog: %v", programYear, err))
	}
	logger.Info("SEED", fmt.Sprintf("✅ Seeded %d cookie variants for %d", len(variants), programYear))
}
