package main

import (
	"context"
	"errors"
	"net/http"
	"os"

	"github.com/urfave/cli/v3"

	"github.com/desertthunder/pictag/internal/services"
	"github.com/desertthunder/pictag/internal/shared"
)

func main() {
	logger := shared.NewLogger(nil)

	config := shared.DefaultConfig()
	if _, err := os.Stat("config.toml"); err == nil {
		if loadedConfig, err := shared.LoadConfig("config.toml"); err == nil {
			config = loadedConfig
		}
	}

	httpClient := &http.Client{Timeout: config.Backend.Timeout()}
	backend := services.NewBackendClient(config.Backend.BaseURL, httpClient)
	ollama := services.NewOllamaClient(config.Backend.OllamaURL, httpClient)

	runner := NewRunner(RunnerOpts{
		Config:  config,
		Backend: backend,
		Ollama:  ollama,
		Logger:  logger,
	})

	app := &cli.Command{
		Name:     "pictag",
		Usage:    "Session gateway & batch image tagging for the media backend",
		Version:  "0.3.0",
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
