// Command etl runs the full extraction-transformation-aggregation pipeline:
// it loads the operator registry, retrieves the recent statement archives,
// transforms and enriches the records and writes the consolidated and
// aggregated output files.
package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"anscli/internal/archive"
	"anscli/internal/config"
	"anscli/internal/exporter"
	"anscli/internal/infrastructure"
	"anscli/internal/pipeline"
	"anscli/internal/registry"
	"anscli/internal/scraper"
)

func main() {
	dataDir := flag.String("data", "", "directory for extracted and output files (defaults to config)")
	maxPeriods := flag.Int("max-periods", 0, "number of recent period directories to walk (defaults to config)")
	maxFiles := flag.Int("max-files", 0, "global extraction budget across all periods (defaults to config)")
	flag.Parse()

	cfg, err := config.Load()
	if err != nil {
		fmt.Printf("Warning: failed to load config, using defaults: %v\n", err)
		cfg = config.Default()
	}

	if *dataDir != "" {
		cfg.Paths.DataDir = *dataDir
	}
	if *maxPeriods > 0 {
		cfg.Retrieval.MaxPeriods = *maxPeriods
	}
	if *maxFiles > 0 {
		cfg.Retrieval.MaxFiles = *maxFiles
	}

	logger, err := infrastructure.InitializeLogger(cfg.Logging)
	if err != nil {
		fmt.Printf("Warning: failed to initialize logger, using default: %v\n", err)
		logger = slog.Default()
	}
	defer infrastructure.CloseLogFile()

	if err := cfg.EnsureDirectories(); err != nil {
		logger.Error("failed to create required directories", slog.String("error", err.Error()))
		os.Exit(1)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	client := scraper.NewClient(cfg.Source, logger)
	manager := pipeline.NewManager(logger,
		pipeline.NewRegistryStep(registry.NewLoader(client, cfg.Source.RegistryURL, logger), logger),
		pipeline.NewRetrieveStep(archive.NewRetriever(client, cfg.Retrieval, cfg.Source.StatementsURL, cfg.GetDataDir(), logger)),
		pipeline.NewTransformStep(logger),
		pipeline.NewAggregateStep(),
		pipeline.NewExportStep(exporter.NewWriter(logger), cfg),
	)

	if _, err := manager.Run(ctx); err != nil {
		logger.Error("pipeline failed", slog.String("error", err.Error()))
		os.Exit(1)
	}

	logger.Info("pipeline succeeded",
		slog.String("consolidated", cfg.ConsolidatedCSVPath()),
		slog.String("aggregated", cfg.AggregatedCSVPath()))
}
