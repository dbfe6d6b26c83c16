package main

import (
	"context"
	"fmt"
	"os"

	"github.com/urfave/cli/v3"

	"github.com/20uf/tidy-ur-spotify/internal/services"
	"github.com/20uf/tidy-ur-spotify/internal/shared"
)

// setupCommand handles first-run initialization.
func setupCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "setup",
		Usage: "Create the config file and initialize the local database",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "config",
				Aliases: []string{"c"},
				Usage:   "Path to configuration file",
				Value:   "config.toml",
			},
		},
		Action: r.Setup,
	}
}

// Setup writes the example config (if absent) and runs database migrations.
func (r *Runner) Setup(ctx context.Context, cmd *cli.Command) error {
	configPath := cmd.String("config")

	var config *shared.Config
	if _, err := os.Stat(configPath); err == nil {
		r.logger.Info("config file already exists", "path", configPath)
		if config, err = shared.LoadConfig(configPath); err != nil {
			return fmt.Errorf("failed to load config: %w", err)
		}
	} else {
		if err := shared.CreateConfigFile(configPath); err != nil {
			return fmt.Errorf("failed to create config file: %w", err)
		}
		r.logger.Info("config file created", "path", configPath)
		if config, err = shared.LoadConfig(configPath); err != nil {
			return fmt.Errorf("failed to load created config: %w", err)
		}
	}

	r.logger.Info("initializing database", "path", config.Database.Path)
	db, err := r.openDatabase(config)
	if err != nil {
		return err
	}
	defer db.Close()

	r.writePlain("✓ Config ready at %s\n", configPath)
	r.writePlain("✓ Database ready at %s\n", config.Database.Path)
	r.writePlainln("Next steps:")
	r.writePlain("1. Add your Spotify client_id and client_secret to %s\n", configPath)
	r.writePlain("2. Add an LLM api_key (supported providers below)\n")
	for _, info := range services.Providers {
		r.writePlain("   - %s (%s): %s\n", info.Name, info.DefaultModel, info.KeysURL)
	}
	r.writePlain("3. Run 'tidy auth' to connect your Spotify account\n")
	r.writePlain("4. Run 'tidy classify' to start sorting your liked songs\n")

	return nil
}
