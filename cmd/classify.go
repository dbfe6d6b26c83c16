package main

import (
	"context"
	"fmt"
	"io"
	"os"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/urfave/cli/v3"

	"github.com/20uf/tidy-ur-spotify/internal/formatter"
	"github.com/20uf/tidy-ur-spotify/internal/models"
	"github.com/20uf/tidy-ur-spotify/internal/repositories"
	"github.com/20uf/tidy-ur-spotify/internal/services"
	"github.com/20uf/tidy-ur-spotify/internal/shared"
	"github.com/20uf/tidy-ur-spotify/internal/tasks"
	"github.com/20uf/tidy-ur-spotify/internal/ui"
)

// classifyCommand launches the interactive classification session.
func classifyCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "classify",
		Usage: "Classify liked songs into themed playlists",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "config",
				Aliases: []string{"c"},
				Usage:   "Path to configuration file",
				Value:   "config.toml",
			},
			&cli.BoolFlag{
				Name:    "audit",
				Aliases: []string{"a"},
				Usage:   "Dry run: record playlist changes without applying them",
			},
			&cli.BoolFlag{
				Name:  "offline",
				Usage: "Replay the locally cached track snapshot instead of fetching",
			},
		},
		Action: r.Classify,
	}
}

// Classify wires the session engine, classifier, and sync worker together
// and hands control to the TUI.
func (r *Runner) Classify(ctx context.Context, cmd *cli.Command) error {
	config, configPath, err := r.loadConfig(cmd)
	if err != nil {
		return err
	}
	if err := config.Validate(); err != nil {
		return err
	}
	if !config.IsConfigured() {
		return fmt.Errorf("%w: fill in %s and run 'tidy auth' first", shared.ErrMissingCredentials, configPath)
	}

	audit := cmd.Bool("audit") || config.Session.SimulationMode || simulationModeEnv()
	offline := cmd.Bool("offline")

	db, err := r.openDatabase(config)
	if err != nil {
		return err
	}
	defer db.Close()
	trackRepo := repositories.NewTrackRepository(db)

	// The TUI owns the terminal, so logs go to a file for the duration.
	fileLogger, err := shared.NewFileLogger("tidy.log")
	if err != nil {
		r.logger.Warnf("failed to open log file: %v", err)
		fileLogger = shared.NewLogger(io.Discard)
	}

	var spotify *services.SpotifyService
	if !offline || !audit {
		if spotify, err = r.newSpotify(config); err != nil {
			return err
		}
		if err := spotify.Authenticate(ctx, config.Credentials.Spotify.Map()); err != nil {
			return fmt.Errorf("%w (run 'tidy auth' to refresh tokens)", err)
		}
	}

	var loader ui.TrackLoader
	if offline {
		loader = func(ctx context.Context) ([]models.Track, error) {
			tracks, err := trackRepo.ListByPosition()
			if err != nil {
				return nil, err
			}
			if len(tracks) == 0 {
				return nil, fmt.Errorf("%w: no cached tracks, run 'tidy classify' without --offline first", shared.ErrInvalidArgument)
			}
			fileLogger.Info("replaying cached snapshot", "tracks", len(tracks))
			return tracks, nil
		}
	} else {
		loader = func(ctx context.Context) ([]models.Track, error) {
			tracks, err := spotify.FetchAll(ctx)
			if err != nil {
				return nil, err
			}
			if err := trackRepo.ReplaceAll(tracks); err != nil {
				fileLogger.Warn("failed to cache tracks locally", "error", err)
			}
			return tracks, nil
		}
	}

	provider, err := services.NewProvider(config.LLM)
	if err != nil {
		return err
	}
	store := repositories.NewPersistentSuggestionCache(config.Classifier.CachePath)
	classifier := tasks.NewClassifier(provider, config.Themes, store, config.Classifier.BatchSize, fileLogger)

	var syncer tasks.Syncer
	var dryRun *tasks.DryRunSyncer
	if audit {
		dryRun = tasks.NewDryRunSyncer()
		syncer = dryRun
	} else {
		syncer = tasks.NewSpotifySyncer(spotify, config.Themes, config.Session.PlaylistPrefix, fileLogger)
	}

	worker := tasks.NewSyncWorker(syncer, 0, fileLogger)
	worker.Start(ctx)
	defer worker.Close()

	progress := repositories.NewProgressStore(config.Session.ProgressPath)
	engine := tasks.NewEngine(progress, worker, formatter.CSVExporter{}, config.Session.ExportPath, fileLogger)

	model := ui.NewModel(ctx, loader, engine, classifier, worker, config.Themes, config.Classifier.Lookahead)
	final, err := tea.NewProgram(model, tea.WithAltScreen()).Run()
	if err != nil {
		return fmt.Errorf("TUI error: %w", err)
	}
	if m, ok := final.(*ui.Model); ok && m.Err() != nil {
		return m.Err()
	}

	// Flush queued playlist mutations before reporting.
	worker.Close()

	if dryRun != nil {
		r.reportDryRun(config, dryRun)
	}

	return nil
}

// reportDryRun prints the playlist changes an audit run would have applied.
func (r *Runner) reportDryRun(config *shared.Config, dryRun *tasks.DryRunSyncer) {
	added := dryRun.Added()
	removed := dryRun.Removed()

	r.writePlainln("Audit mode: no playlist changes were applied.")
	r.writePlain("Planned additions: %d\n", len(added))
	for _, op := range added {
		r.writePlain("  + %s → %s\n", op.TrackID, r.themeName(config, op.ThemeKey))
	}
	if len(removed) > 0 {
		r.writePlain("Planned removals: %d\n", len(removed))
		for _, op := range removed {
			r.writePlain("  - %s ← %s\n", op.TrackID, r.themeName(config, op.ThemeKey))
		}
	}
}

func (r *Runner) themeName(config *shared.Config, key string) string {
	if theme, err := config.ThemeByKey(key); err == nil {
		return theme.Name
	}
	return key
}

func simulationModeEnv() bool {
	switch os.Getenv("TIDY_SIMULATION_MODE") {
	case "1", "true", "yes":
		return true
	}
	return false
}
