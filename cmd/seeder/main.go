package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"time"

	"github.com/locvowork/employee_migration/internal/config"
	"github.com/locvowork/employee_migration/internal/database"
	"github.com/locvowork/employee_migration/internal/logger"
)

func main() {
	// Define flags
	envPath := flag.String("env", ".env", "Path to an optional .env file")
	action := flag.String("action", "seed", "Action to perform: seed, clear")
	preset := flag.String("preset", "medium", "Data preset: small, medium, large")
	employees := flag.Int("employees", 0, "Number of employees (overrides preset)")
	seed := flag.Int64("seed", 1, "Random seed; the same seed always produces the same dataset")
	random := flag.Bool("random", false, "Use a time based seed instead of -seed")

	flag.Parse()

	ctx := context.Background()

	cfg, err := config.Load(*envPath)
	if err != nil {
		log.Fatal(err)
	}
	if cfg.SourceDriver == config.DriverPostgres {
		log.Fatal("the seeder supports mysql and sqlite sources only")
	}

	logg, closer, err := logger.New(logger.Options{Level: cfg.LogLevel, FilePath: cfg.LogFilePath})
	if err != nil {
		log.Fatal(err)
	}
	defer closer.Close()

	db, err := database.NewSQLDB(ctx, database.SourceConfig(cfg), logg)
	if err != nil {
		log.Fatal(err)
	}
	defer db.Close()

	if *random {
		*seed = time.Now().UnixNano()
	}
	logg.Info().Int64("seed", *seed).Msg("seeding source")
	seeder := database.NewSourceSeeder(db, logg, *seed)

	// Execute action
	switch *action {
	case "seed":
		n := *employees
		if n <= 0 {
			n = database.GetPresetConfig(database.SeedPreset(*preset))
		}
		stats, err := seeder.SeedData(ctx, n)
		if err != nil {
			log.Fatalf("seeding failed: %v", err)
		}
		fmt.Printf("seeded %v\n", stats)

	case "clear":
		if err := seeder.ClearData(ctx); err != nil {
			log.Fatalf("clear failed: %v", err)
		}

	default:
		fmt.Printf("unknown action: %s\n", *action)
		flag.PrintDefaults()
	}
}
