package main

import (
	"context"
	"log/slog"
	"os"

	_ "github.com/oakdale/lessongo/docs"
	"github.com/oakdale/lessongo/internal/app"
	"github.com/oakdale/lessongo/internal/config"
)

// @title Lessongo API
// @version 1.0
// @description After-school lesson catalog and booking service.
// @host localhost:3000
// @BasePath /
func main() {
	logger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelInfo}))

	cfg, err := config.New()
	if err != nil {
		logger.Error("failed to load config", "error", err)
		os.Exit(1)
	}

	application, err := app.New(cfg, logger)
	if err != nil {
		logger.Error("failed to create application", "error", err)
		os.Exit(1)
	}

	if err := application.Run(context.Background()); err != nil {
		logger.Error("application finished with error", "error", err)
		os.Exit(1)
	}
}
