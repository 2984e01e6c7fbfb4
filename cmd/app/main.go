// Command app serves the product cost forecast API.
package main

import (
	"flag"
	"fmt"
	"os"

	"CostCast/internal/di"
	"CostCast/pkg/config"
)

func main() {
	configPath := flag.String("config", "config/config.yaml", "path to the YAML config")
	flag.Parse()

	if err := run(*configPath); err != nil {
		fmt.Fprintln(os.Stderr, "costcast:", err)
		os.Exit(1)
	}
}

func run(configPath string) error {
	cfg, err := config.LoadWithEnv(configPath)
	if err != nil {
		return err
	}
	app, err := di.InitializeApp(cfg)
	if err != nil {
		return fmt.Errorf("initialize: %w", err)
	}
	// Blocks until SIGINT or SIGTERM.
	return app.Run()
}
