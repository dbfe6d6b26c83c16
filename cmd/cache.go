package main

import (
	"context"
	"fmt"
	"time"

	"github.com/urfave/cli/v3"

	"github.com/20uf/tidy-ur-spotify/internal/repositories"
)

// cacheCommand inspects and clears the local caches: the LLM suggestion
// cache and the liked-songs snapshot.
func cacheCommand(r *Runner) *cli.Command {
	configFlag := &cli.StringFlag{
		Name:    "config",
		Aliases: []string{"c"},
		Usage:   "Path to configuration file",
		Value:   "config.toml",
	}
	return &cli.Command{
		Name:  "cache",
		Usage: "Manage local caches (suggestions and track snapshot)",
		Commands: []*cli.Command{
			{
				Name:   "status",
				Usage:  "Report cache sizes and snapshot age",
				Flags:  []cli.Flag{configFlag},
				Action: r.CacheStatus,
			},
			{
				Name:  "clear",
				Usage: "Clear caches",
				Flags: []cli.Flag{
					configFlag,
					&cli.BoolFlag{
						Name:  "suggestions",
						Usage: "Clear only the suggestion cache",
					},
					&cli.BoolFlag{
						Name:  "tracks",
						Usage: "Clear only the track snapshot",
					},
				},
				Action: r.CacheClear,
			},
		},
	}
}

// CacheStatus reports suggestion cache entries and the track snapshot size.
func (r *Runner) CacheStatus(ctx context.Context, cmd *cli.Command) error {
	config, _, err := r.loadConfig(cmd)
	if err != nil {
		return err
	}

	suggestions := repositories.NewPersistentSuggestionCache(config.Classifier.CachePath)
	r.writePlain("Suggestion cache: %d entrie(s) in %s\n", suggestions.Len(), config.Classifier.CachePath)

	db, err := r.openDatabase(config)
	if err != nil {
		return err
	}
	defer db.Close()

	trackRepo := repositories.NewTrackRepository(db)
	count, err := trackRepo.Count()
	if err != nil {
		return fmt.Errorf("failed to count cached tracks: %w", err)
	}
	r.writePlain("Track snapshot: %d track(s) in %s\n", count, config.Database.Path)

	if count > 0 {
		fetchedAt, err := trackRepo.FetchedAt()
		if err != nil {
			return fmt.Errorf("failed to read snapshot age: %w", err)
		}
		if !fetchedAt.IsZero() {
			r.writePlain("Fetched: %s (%s ago)\n", fetchedAt.Format(time.RFC3339), time.Since(fetchedAt).Round(time.Minute))
		}
	}

	return nil
}

// CacheClear clears the selected caches; with no selector flags it clears both.
func (r *Runner) CacheClear(ctx context.Context, cmd *cli.Command) error {
	config, _, err := r.loadConfig(cmd)
	if err != nil {
		return err
	}

	clearSuggestions := cmd.Bool("suggestions")
	clearTracks := cmd.Bool("tracks")
	if !clearSuggestions && !clearTracks {
		clearSuggestions = true
		clearTracks = true
	}

	if clearSuggestions {
		suggestions := repositories.NewPersistentSuggestionCache(config.Classifier.CachePath)
		if err := suggestions.Clear(); err != nil {
			return fmt.Errorf("failed to clear suggestion cache: %w", err)
		}
		r.writePlain("✓ Suggestion cache cleared\n")
	}

	if clearTracks {
		db, err := r.openDatabase(config)
		if err != nil {
			return err
		}
		defer db.Close()

		if err := repositories.NewTrackRepository(db).Clear(); err != nil {
			return fmt.Errorf("failed to clear track snapshot: %w", err)
		}
		r.writePlain("✓ Track snapshot cleared\n")
	}

	return nil
}
