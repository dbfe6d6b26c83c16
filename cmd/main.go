package main

import (
	"context"
	"os"

	"github.com/urfave/cli/v3"

	"github.com/20uf/tidy-ur-spotify/internal/shared"
)

const version = "0.1.0"

func main() {
	logger := shared.NewLogger(nil)

	config := shared.DefaultConfig()
	configPath := "config.toml"
	if _, err := os.Stat(configPath); err == nil {
		if loadedConfig, err := shared.LoadConfig(configPath); err == nil {
			config = loadedConfig
		} else {
			logger.Warnf("failed to load %s, using defaults: %v", configPath, err)
		}
	}

	runner := NewRunner(RunnerOpts{
		Config:     config,
		ConfigPath: configPath,
		Logger:     logger,
	})

	app := &cli.Command{
		Name:     "tidy",
		Usage:    "Sort your Spotify liked songs into themed playlists",
		Version:  version,
		Commands: runner.register(),
	}

	if err := app.Run(context.Background(), os.Args); err != nil {
		logger.Fatalf("application error: %v", err)
	}
}
