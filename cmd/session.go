package main

import (
	"context"
	"fmt"

	"github.com/urfave/cli/v3"

	"github.com/20uf/tidy-ur-spotify/internal/models"
	"github.com/20uf/tidy-ur-spotify/internal/repositories"
	"github.com/20uf/tidy-ur-spotify/internal/shared"
)

// sessionCommand inspects and resets the saved classification session.
func sessionCommand(r *Runner) *cli.Command {
	configFlag := &cli.StringFlag{
		Name:    "config",
		Aliases: []string{"c"},
		Usage:   "Path to configuration file",
		Value:   "config.toml",
	}
	return &cli.Command{
		Name:  "session",
		Usage: "Manage the saved classification session",
		Commands: []*cli.Command{
			{
				Name:   "status",
				Usage:  "Show the saved session's progress",
				Flags:  []cli.Flag{configFlag},
				Action: r.SessionStatus,
			},
			{
				Name:   "clear",
				Usage:  "Discard the saved session",
				Flags:  []cli.Flag{configFlag},
				Action: r.SessionClear,
			},
		},
	}
}

// SessionStatus prints the cursor position and decision counts.
func (r *Runner) SessionStatus(ctx context.Context, cmd *cli.Command) error {
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
		return fmt.Errorf("%w: run 'tidy classify' to start one", shared.ErrNoSession)
	}

	decided, skipped := 0, 0
	for _, d := range session.Decisions {
		if d.Skipped {
			skipped++
		} else {
			decided++
		}
	}

	r.writePlain("State: %s\n", session.State())
	r.writePlain("Progress: %d/%d\n", session.CurrentIndex, len(session.TrackIDs))
	r.writePlain("Classified: %d\n", decided)
	r.writePlain("Skipped: %d\n", skipped)
	if session.State() != models.Complete {
		r.writePlain("\nRun 'tidy classify' to continue where you left off.\n")
	}
	return nil
}

// SessionClear removes the saved progress file.
func (r *Runner) SessionClear(ctx context.Context, cmd *cli.Command) error {
	config, _, err := r.loadConfig(cmd)
	if err != nil {
		return err
	}

	progress := repositories.NewProgressStore(config.Session.ProgressPath)
	if !progress.Exists() {
		r.writePlain("No saved session.\n")
		return nil
	}
	if err := progress.Clear(); err != nil {
		return fmt.Errorf("failed to clear session: %w", err)
	}

	r.logger.Info("session cleared", "path", config.Session.ProgressPath)
	r.writePlain("✓ Session cleared. The next 'tidy classify' starts fresh.\n")
	return nil
}
