// Command histload copies the CSV material histories into ClickHouse.
package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"time"

	"CostCast/internal/di"
	"CostCast/internal/domain/models"
	"CostCast/internal/repository"
	"CostCast/pkg/config"
	applogger "CostCast/pkg/logger"
)

func main() {
	configPath := flag.String("config", "config/config.yaml", "config file path")
	dataDir := flag.String("data", "", "CSV directory (defaults to history.data_dir)")
	flag.Parse()

	cfg, err := config.LoadWithEnv(*configPath)
	if err != nil {
		log.Fatalf("config load failed: %v", err)
	}
	if *dataDir == "" {
		*dataDir = cfg.History.DataDir
	}

	l, err := applogger.New(&applogger.Config{Level: cfg.Logging.Level, Format: cfg.Logging.Format})
	if err != nil {
		log.Fatalf("logger: %v", err)
	}

	if err := run(cfg, *dataDir, l); err != nil {
		l.Error("history import failed", applogger.Error(err))
		os.Exit(1)
	}
}

func run(cfg *config.Config, dataDir string, l *applogger.Logger) error {
	// The ClickHouse provider only connects when it backs history.
	cfg.History.Backend = "clickhouse"
	ch, err := di.ProvideClickHouseClient(cfg)
	if err != nil {
		return err
	}
	defer ch.Close()

	store := repository.NewCHHistoryStore(ch, cfg.History.Table, l)
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Minute)
	defer cancel()

	failed := 0
	for _, spec := range models.Catalog() {
		n, err := importDataset(ctx, store, filepath.Join(dataDir, spec.Dataset+".csv"), spec.Dataset)
		if err != nil {
			l.Error("dataset not imported", applogger.String("dataset", spec.Dataset), applogger.Error(err))
			failed++
			continue
		}
		l.Info("dataset imported", applogger.String("dataset", spec.Dataset), applogger.Int("rows", n))
	}
	if failed > 0 {
		return fmt.Errorf("%d datasets failed", failed)
	}
	return nil
}

func importDataset(ctx context.Context, store *repository.CHHistoryStore, path, dataset string) (int, error) {
	f, err := os.Open(path)
	if err != nil {
		return 0, err
	}
	defer f.Close()

	series, err := repository.ParseHistoryCSV(f)
	if err != nil {
		return 0, fmt.Errorf("parse %s: %w", path, err)
	}
	if err := store.Import(ctx, dataset, series); err != nil {
		return 0, err
	}
	return len(series), nil
}
