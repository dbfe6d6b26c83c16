package tasks

import (
	"context"
	"fmt"
	"sync"

	"github.com/charmbracelet/log"
	"golang.org/x/time/rate"

	"github.com/20uf/tidy-ur-spotify/internal/models"
	"github.com/20uf/tidy-ur-spotify/internal/services"
	"github.com/20uf/tidy-ur-spotify/internal/shared"
)

// Syncer maintains playlist membership for theme assignments. Both
// implementations are idempotent: adding the same track twice results in
// one membership, and removing under a never-resolved theme is a no-op.
type Syncer interface {
	// AddTrack resolves or creates the theme's playlist and appends the
	// track unless it is already a member.
	AddTrack(ctx context.Context, themeKey, trackID string) error

	// RemoveTrack removes all occurrences of the track from the theme's
	// playlist. A theme that was never resolved in this process has had
	// nothing added, so there is nothing to remove.
	RemoveTrack(ctx context.Context, themeKey, trackID string) error
}

// SpotifySyncer implements [Syncer] against the live playlist API.
// Playlist ids are cached per theme for the process lifetime; a rate
// limiter spaces out the membership scans and mutations.
type SpotifySyncer struct {
	api     services.PlaylistAPI
	themes  []models.Theme
	prefix  string
	limiter *rate.Limiter
	logger  *log.Logger

	mu          sync.Mutex
	playlistIDs map[string]string // theme key -> playlist id
}

// NewSpotifySyncer creates a syncer naming playlists prefix + theme name.
func NewSpotifySyncer(api services.PlaylistAPI, themes []models.Theme, prefix string, logger *log.Logger) *SpotifySyncer {
	return &SpotifySyncer{
		api:         api,
		themes:      themes,
		prefix:      prefix,
		limiter:     rate.NewLimiter(rate.Limit(4), 4),
		logger:      shared.WithLogger(logger, "component", "syncer"),
		playlistIDs: map[string]string{},
	}
}

// themeByKey looks up a theme in the fixed set.
func (s *SpotifySyncer) themeByKey(key string) (models.Theme, error) {
	for _, theme := range s.themes {
		if theme.Key == key {
			return theme, nil
		}
	}
	return models.Theme{}, fmt.Errorf("%w: %q", shared.ErrUnknownTheme, key)
}

// PlaylistName returns the remote playlist name for a theme.
func (s *SpotifySyncer) PlaylistName(theme models.Theme) string {
	return s.prefix + theme.Name
}

// resolvePlaylist returns the cached playlist id for a theme, searching
// by exact name and creating the playlist when absent.
func (s *SpotifySyncer) resolvePlaylist(ctx context.Context, themeKey string) (string, error) {
	s.mu.Lock()
	if id, ok := s.playlistIDs[themeKey]; ok {
		s.mu.Unlock()
		return id, nil
	}
	s.mu.Unlock()

	theme, err := s.themeByKey(themeKey)
	if err != nil {
		return "", err
	}

	name := s.PlaylistName(theme)

	id, err := s.api.FindPlaylistByName(ctx, name)
	if err != nil {
		return "", fmt.Errorf("failed to search playlists: %w", err)
	}

	if id == "" {
		id, err = s.api.CreatePlaylist(ctx, name, theme.Description)
		if err != nil {
			return "", fmt.Errorf("failed to create playlist %q: %w", name, err)
		}
		s.logger.Info("created playlist", "name", name, "id", id)
	}

	s.mu.Lock()
	s.playlistIDs[themeKey] = id
	s.mu.Unlock()

	return id, nil
}

// AddTrack appends a track to a theme's playlist. The membership
// pre-check makes a repeated call a no-op rather than a duplicate.
func (s *SpotifySyncer) AddTrack(ctx context.Context, themeKey, trackID string) error {
	if err := s.limiter.Wait(ctx); err != nil {
		return err
	}

	playlistID, err := s.resolvePlaylist(ctx, themeKey)
	if err != nil {
		return err
	}

	present, err := s.api.PlaylistContainsTrack(ctx, playlistID, trackID)
	if err != nil {
		return fmt.Errorf("failed to check membership: %w", err)
	}
	if present {
		s.logger.Debug("track already in playlist", "theme", themeKey, "track", trackID)
		return nil
	}

	if err := s.api.AddTrackToPlaylist(ctx, playlistID, trackID); err != nil {
		return fmt.Errorf("failed to add track: %w", err)
	}

	s.logger.Info("track added", "theme", themeKey, "track", trackID)
	return nil
}

// RemoveTrack reverses a prior add. Unknown themes have never been added
// to this process, so nothing needs undoing.
func (s *SpotifySyncer) RemoveTrack(ctx context.Context, themeKey, trackID string) error {
	s.mu.Lock()
	playlistID, resolved := s.playlistIDs[themeKey]
	s.mu.Unlock()

	if !resolved {
		return nil
	}

	if err := s.limiter.Wait(ctx); err != nil {
		return err
	}

	if err := s.api.RemoveTrackFromPlaylist(ctx, playlistID, trackID); err != nil {
		return fmt.Errorf("failed to remove track: %w", err)
	}

	s.logger.Info("track removed", "theme", themeKey, "track", trackID)
	return nil
}

// SyncOp is one recorded dry-run mutation.
type SyncOp struct {
	ThemeKey string
	TrackID  string
}

// DryRunSyncer implements [Syncer] without remote calls, recording what a
// live run would have done. Used for audit/simulation sessions.
type DryRunSyncer struct {
	mu      sync.Mutex
	added   []SyncOp
	removed []SyncOp
}

// NewDryRunSyncer creates an empty recorder.
func NewDryRunSyncer() *DryRunSyncer {
	return &DryRunSyncer{}
}

// AddTrack records the membership unless the same pair is already present.
func (d *DryRunSyncer) AddTrack(ctx context.Context, themeKey, trackID string) error {
	d.mu.Lock()
	defer d.mu.Unlock()

	op := SyncOp{ThemeKey: themeKey, TrackID: trackID}
	for _, existing := range d.added {
		if existing == op {
			return nil
		}
	}
	d.added = append(d.added, op)
	return nil
}

// RemoveTrack drops a recorded add; a theme with no recorded adds is a no-op.
func (d *DryRunSyncer) RemoveTrack(ctx context.Context, themeKey, trackID string) error {
	d.mu.Lock()
	defer d.mu.Unlock()

	op := SyncOp{ThemeKey: themeKey, TrackID: trackID}
	kept := d.added[:0]
	dropped := false
	for _, existing := range d.added {
		if existing == op {
			dropped = true
			continue
		}
		kept = append(kept, existing)
	}
	d.added = kept

	if dropped {
		d.removed = append(d.removed, op)
	}
	return nil
}

// Added returns the recorded memberships in insertion order.
func (d *DryRunSyncer) Added() []SyncOp {
	d.mu.Lock()
	defer d.mu.Unlock()
	return append([]SyncOp(nil), d.added...)
}

// Removed returns the recorded removals in insertion order.
func (d *DryRunSyncer) Removed() []SyncOp {
	d.mu.Lock()
	defer d.mu.Unlock()
	return append([]SyncOp(nil), d.removed...)
}
