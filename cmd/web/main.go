package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"

	"featurepipe/internal/app"
	"featurepipe/internal/config"
	"featurepipe/internal/infrastructure"
)

func main() {
	configPath := flag.String("config", "", "path to config.yaml (defaults to ./config.yaml when present)")
	port := flag.Int("port", 0, "listen port (overrides server.port)")
	flag.Parse()

	if err := run(*configPath, *port); err != nil {
		slog.Error("Application error", slog.String("error", err.Error()))
		os.Exit(1)
	}
}

func run(configPath string, port int) error {
	cfg, err := config.Load(configPath)
	if err != nil {
		return fmt.Errorf("failed to load configuration: %w", err)
	}
	if port != 0 {
		cfg.Server.Port = port
	}

	logger, err := infrastructure.InitializeLogger(cfg.Logging)
	if err != nil {
		slog.Warn("Failed to initialize logger, using default", slog.String("error", err.Error()))
		logger = slog.Default()
	}
	defer infrastructure.CloseLogFile()

	application, err := app.NewApplication(cfg, logger)
	if err != nil {
		return fmt.Errorf("failed to initialize application: %w", err)
	}
	return application.Run(context.Background())
}
