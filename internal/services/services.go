// package services defines interfaces for the external HTTP APIs the
// classification workflow talks to
//
// Spotify, OpenAI, Anthropic, GitHub releases
package services

import (
	"context"

	"golang.org/x/oauth2"

	"github.com/20uf/tidy-ur-spotify/internal/models"
)

// TrackSource fetches the user's liked songs, fully paginated internally.
// Called once per run.
type TrackSource interface {
	FetchAll(ctx context.Context) ([]models.Track, error)
}

// PlaylistAPI is the narrow surface of the Spotify client that the playlist
// synchronizer depends on.
type PlaylistAPI interface {
	// FindPlaylistByName scans the user's playlists for an exact name match.
	// Returns an empty id (and nil error) when no playlist matches.
	FindPlaylistByName(ctx context.Context, name string) (string, error)

	// CreatePlaylist creates a new private playlist and returns its id.
	CreatePlaylist(ctx context.Context, name, description string) (string, error)

	// PlaylistContainsTrack checks membership by paginated scan.
	PlaylistContainsTrack(ctx context.Context, playlistID, trackID string) (bool, error)

	// AddTrackToPlaylist appends a track to a playlist.
	AddTrackToPlaylist(ctx context.Context, playlistID, trackID string) error

	// RemoveTrackFromPlaylist removes all occurrences of a track from a playlist.
	RemoveTrackFromPlaylist(ctx context.Context, playlistID, trackID string) error
}

// OAuthService is implemented by services that authenticate via the
// server-side OAuth2 authorization code flow.
type OAuthService interface {
	// Authenticate installs credentials. Expects either an "access_token"
	// (with optional "refresh_token") or an "auth_code" to exchange.
	Authenticate(ctx context.Context, credentials map[string]string) error

	// GetAuthURL returns the authorization URL for user login.
	GetAuthURL(state string) string

	// GetOAuthConfig exposes the underlying OAuth2 config for callback handling.
	GetOAuthConfig() *oauth2.Config
}

// Provider is a single-call LLM completion client. Implementations are
// selected once at startup from configuration.
type Provider interface {
	// Complete sends one system+user prompt pair and returns the raw
	// response text.
	Complete(ctx context.Context, system, user string) (string, error)

	// ID returns the stable provider identifier ("openai", "anthropic").
	ID() string

	// Model returns the model identifier in use.
	Model() string
}
