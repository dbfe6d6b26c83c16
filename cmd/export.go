package main

import (
	"context"
	"fmt"

	"github.com/urfave/cli/v3"

	"github.com/20uf/tidy-ur-spotify/internal/formatter"
	"github.com/20uf/tidy-ur-spotify/internal/repositories"
	"github.com/20uf/tidy-ur-spotify/internal/shared"
)

// exportCommand writes session decisions to CSV on demand.
func exportCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "export",
		Usage: "Export session decisions to CSV",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "config",
				Aliases: []string{"c"},
				Usage:   "Path to configuration file",
				Value:   "config.toml",
			},
			&cli.StringFlag{
				Name:    "output",
				Aliases: []string{"o"},
				Usage:   "Output file path (defaults to session.export_path)",
			},
		},
		Action: r.Export,
	}
}

// Export loads the saved session and writes its decisions as CSV.
func (r *Runner) Export(ctx context.Context, cmd *cli.Command) error {
	config, _, err := r.loadConfig(cmd)
	if err != nil {
		return err
	}

	progress := repositories.NewProgressStore(config.Session.ProgressPath)
	session, err := progress.Load()
	if err != nil {
		return fmt.Errorf("failed to load session: %w", err)
	}
	if session == nil {
		return fmt.Errorf("%w: nothing to export", shared.ErrNoSession)
	}

	outputPath := cmd.String("output")
	if outputPath == "" {
		outputPath = config.Session.ExportPath
	}

	path, err := formatter.CSVExporter{}.ExportDecisions(session.Decisions, outputPath)
	if err != nil {
		return fmt.Errorf("failed to export decisions: %w", err)
	}

	r.writePlain("✓ Exported %d decision(s) to %s\n", len(session.Decisions), path)
	return nil
}
