package main

import (
	"context"
	"errors"
	"os"

	"github.com/sagebrushdata/nvenr/internal/enrollment"
	"github.com/sagebrushdata/nvenr/internal/providers"
	"github.com/sagebrushdata/nvenr/internal/shared"
	"github.com/urfave/cli/v3"
)

func main() {
	logger := shared.NewLogger(nil)

	configPath := "config.toml"
	config := shared.DefaultConfig()
	if _, err := os.Stat(configPath); err == nil {
		if loadedConfig, err := shared.LoadConfig(configPath); err == nil {
			config = loadedConfig
		}
	}

	provider, err := providers.NewReportCardService(config.Provider, nil)
	if err != nil {
		logger.Fatalf("failed to initialize provider: %v", err)
	}

	runner := NewRunner(RunnerOpts{
		Config:     config,
		ConfigPath: configPath,
		Service:    enrollment.NewService(provider),
		Logger:     logger,
	})

	app := &cli.Command{
		Name:     "nvenr",
		Usage:    "Fetch and reshape Nevada school enrollment data",
		Version:  enrollment.Version,
		Commands: runner.register(),
	}

	if err := app.Run(context.Background(), os.Args); err != nil {
		err_ := errors.Unwrap(err)
		if errors.Is(err_, shared.ErrNotImplemented) {
			logger.Warn("not implemented")
			os.Exit(0)
		} else {
			logger.Fatalf("application error: %v", err)
		}
	}
}
