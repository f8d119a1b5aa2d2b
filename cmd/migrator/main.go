package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/locvowork/employee_migration/internal/bootstrap"
)

func main() {
	// Define flags
	envPath := flag.String("env", ".env", "Path to an optional .env file")
	tablesPath := flag.String("tables", "", "YAML file overriding source table names, columns and ordering")
	dest := flag.String("dest", "", "Destination store: mongo, elastic, datastore, memory (overrides DEST_KIND)")
	batchSize := flag.Int("batch-size", 0, "Documents per insert batch (overrides BATCH_SIZE)")
	clearOnEmpty := flag.Bool("clear-on-empty", false, "Clear a destination collection even when there is nothing to insert (overrides CLEAR_ON_EMPTY)")

	flag.Parse()

	overrides := bootstrap.Overrides{
		EnvPath:    *envPath,
		TablesPath: *tablesPath,
		DestKind:   *dest,
		BatchSize:  *batchSize,
	}
	flag.Visit(func(f *flag.Flag) {
		if f.Name == "clear-on-empty" {
			overrides.ClearOnEmpty = clearOnEmpty
		}
	})

	os.Exit(run(overrides))
}

func run(overrides bootstrap.Overrides) int {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// Initialize app
	app := bootstrap.NewApp()
	if err := app.Initialize(ctx, overrides); err != nil {
		fmt.Fprintf(os.Stderr, "failed to initialize application: %v\n", err)
		return 1
	}
	defer app.Close()

	if _, err := app.Run(ctx); err != nil {
		return 1
	}
	return 0
}
