package main

import (
	"context"

	"github.com/urfave/cli/v3"

	"github.com/20uf/tidy-ur-spotify/internal/services"
)

// updateCommand checks GitHub releases for a newer version.
func updateCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:   "update",
		Usage:  "Check for a newer release",
		Action: r.Update,
	}
}

// Update queries the latest GitHub release and compares it to the running version.
func (r *Runner) Update(ctx context.Context, cmd *cli.Command) error {
	r.logger.Info("checking for updates", "current", version)

	info := services.NewGitHubClient().CheckLatestRelease(ctx, version)
	if info == nil {
		r.writePlain("✓ tidy %s is up to date\n", version)
		return nil
	}

	r.writePlain("A newer version is available: %s (current: %s)\n", info.Latest, info.Current)
	r.writePlain("Download: %s\n", info.DownloadURL)
	r.writePlain("Release notes: %s\n", info.ReleaseURL)
	return nil
}
