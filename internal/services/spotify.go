// Spotify API implementation of [TrackSource] and [PlaylistAPI]
//
// Spotify API response types based on https://developer.spotify.com/documentation/web-api/reference/
package services

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"

	"golang.org/x/oauth2"

	"github.com/20uf/tidy-ur-spotify/internal/models"
	"github.com/20uf/tidy-ur-spotify/internal/shared"
)

const (
	spotifyAuthURL  = "https://accounts.spotify.com/authorize"
	spotifyTokenURL = "https://accounts.spotify.com/api/token"
	spotifyBaseURL  = "https://api.spotify.com/v1"
)

// SpotifyUser represents the authenticated user's profile.
type SpotifyUser struct {
	ID          string `json:"id"`
	DisplayName string `json:"display_name"`
	Email       string `json:"email"`
}

// SpotifyImage represents an image resource.
type SpotifyImage struct {
	URL    string `json:"url"`
	Height int    `json:"height"`
	Width  int    `json:"width"`
}

// SpotifyArtist represents a Spotify artist.
type SpotifyArtist struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

// SpotifyAlbum represents a Spotify album.
type SpotifyAlbum struct {
	ID          string         `json:"id"`
	Name        string         `json:"name"`
	ReleaseDate string         `json:"release_date"`
	Images      []SpotifyImage `json:"images"`
}

// SpotifyTrack represents a Spotify track.
type SpotifyTrack struct {
	ID         string          `json:"id"`
	Name       string          `json:"name"`
	Artists    []SpotifyArtist `json:"artists"`
	Album      SpotifyAlbum    `json:"album"`
	DurationMS int             `json:"duration_ms"`
	Explicit   bool            `json:"explicit"`
	Popularity *int            `json:"popularity"`
	PreviewURL string          `json:"preview_url"`
	URI        string          `json:"uri"`
}

// SpotifySavedTrack represents a track saved in the user's library.
type SpotifySavedTrack struct {
	AddedAt string       `json:"added_at"`
	Track   SpotifyTrack `json:"track"`
}

// SpotifyPaginatedTracks represents a paginated response of saved tracks.
type SpotifyPaginatedTracks struct {
	Items  []SpotifySavedTrack `json:"items"`
	Total  int                 `json:"total"`
	Limit  int                 `json:"limit"`
	Offset int                 `json:"offset"`
	Next   *string             `json:"next"`
}

// SpotifySimplePlaylist represents a simplified playlist object (used in lists).
type SpotifySimplePlaylist struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	Description string `json:"description"`
}

// SpotifyPaginatedPlaylists represents a paginated response of playlists.
type SpotifyPaginatedPlaylists struct {
	Items  []SpotifySimplePlaylist `json:"items"`
	Total  int                     `json:"total"`
	Limit  int                     `json:"limit"`
	Offset int                     `json:"offset"`
	Next   *string                 `json:"next"`
}

type spotifyPlaylistItem struct {
	Track SpotifyTrack `json:"track"`
}

// SpotifyPaginatedPlaylistItems represents a paginated response of playlist tracks.
type SpotifyPaginatedPlaylistItems struct {
	Items  []spotifyPlaylistItem `json:"items"`
	Total  int                   `json:"total"`
	Limit  int                   `json:"limit"`
	Offset int                   `json:"offset"`
	Next   *string               `json:"next"`
}

// SpotifyService implements [TrackSource], [PlaylistAPI], and [OAuthService]
// against the Spotify Web API. Uses [oauth2] for authentication.
type SpotifyService struct {
	config     *oauth2.Config
	token      *oauth2.Token
	httpClient *http.Client
	userID     string
}

// NewSpotifyService creates a new Spotify service with the given OAuth2 credentials.
func NewSpotifyService(credentials map[string]string) (*SpotifyService, error) {
	clientID, ok := credentials["client_id"]
	if !ok || clientID == "" {
		return nil, fmt.Errorf("%w: missing client_id", shared.ErrMissingCredentials)
	}

	clientSecret, ok := credentials["client_secret"]
	if !ok || clientSecret == "" {
		return nil, fmt.Errorf("%w: missing client_secret", shared.ErrMissingCredentials)
	}

	redirectURI, ok := credentials["redirect_uri"]
	if !ok || redirectURI == "" {
		redirectURI = "http://localhost:8888/callback"
	}

	config := &oauth2.Config{
		ClientID:     clientID,
		ClientSecret: clientSecret,
		RedirectURL:  redirectURI,
		Scopes: []string{
			"user-library-read",
			"playlist-read-private",
			"playlist-modify-public",
			"playlist-modify-private",
		},
		Endpoint: oauth2.Endpoint{
			AuthURL:  spotifyAuthURL,
			TokenURL: spotifyTokenURL,
		},
	}

	return &SpotifyService{
		config:     config,
		httpClient: http.DefaultClient,
	}, nil
}

// Authenticate performs OAuth2 authentication with Spotify.
// Expects either an "access_token" (with optional "refresh_token") or an "auth_code" in credentials.
func (s *SpotifyService) Authenticate(ctx context.Context, credentials map[string]string) error {
	if accessToken, ok := credentials["access_token"]; ok && accessToken != "" {
		s.token = &oauth2.Token{
			AccessToken:  accessToken,
			RefreshToken: credentials["refresh_token"],
		}
		s.httpClient = s.config.Client(ctx, s.token)
		return nil
	}

	if authCode, ok := credentials["auth_code"]; ok && authCode != "" {
		token, err := s.config.Exchange(ctx, authCode)
		if err != nil {
			return fmt.Errorf("%w: code exchange: %v", shared.ErrAuthFailed, err)
		}
		s.token = token
		s.httpClient = s.config.Client(ctx, s.token)
		return nil
	}

	return fmt.Errorf("%w: missing access_token or auth_code", shared.ErrMissingCredentials)
}

// GetAuthURL returns the OAuth2 authorization URL for user login.
func (s *SpotifyService) GetAuthURL(state string) string {
	return s.config.AuthCodeURL(state, oauth2.AccessTypeOffline)
}

// GetOAuthConfig exposes the OAuth2 config for the callback server.
func (s *SpotifyService) GetOAuthConfig() *oauth2.Config {
	return s.config
}

// doRequest performs an authenticated HTTP request to the Spotify API.
// A non-nil body is marshalled to JSON; a non-nil result is decoded from the response.
func (s *SpotifyService) doRequest(ctx context.Context, method, endpoint string, body any, result any) error {
	if s.token == nil {
		return fmt.Errorf("%w: call Authenticate first", shared.ErrNotAuthenticated)
	}

	apiURL := spotifyBaseURL + endpoint

	var reader *bytes.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("failed to marshal request body: %w", err)
		}
		reader = bytes.NewReader(data)
	} else {
		reader = bytes.NewReader(nil)
	}

	req, err := http.NewRequestWithContext(ctx, method, apiURL, reader)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}

	req.Header.Set("Authorization", "Bearer "+s.token.AccessToken)
	req.Header.Set("Content-Type", "application/json")

	resp, err := s.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("%w: %v", shared.ErrAPIRequest, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusUnauthorized {
		return fmt.Errorf("%w: status 401", shared.ErrTokenExpired)
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return fmt.Errorf("%w: spotify status %d", shared.ErrAPIRequest, resp.StatusCode)
	}

	if result != nil {
		if err := json.NewDecoder(resp.Body).Decode(result); err != nil {
			return fmt.Errorf("failed to decode response: %w", err)
		}
	}

	return nil
}

// UserProfile retrieves the current authenticated user's profile.
func (s *SpotifyService) UserProfile(ctx context.Context) (*SpotifyUser, error) {
	var user SpotifyUser
	if err := s.doRequest(ctx, http.MethodGet, "/me", nil, &user); err != nil {
		return nil, err
	}
	return &user, nil
}

// SavedTracks retrieves one page of the user's saved tracks.
func (s *SpotifyService) SavedTracks(ctx context.Context, limit, offset int) (*SpotifyPaginatedTracks, error) {
	if limit <= 0 {
		limit = 20
	}
	if limit > 50 {
		limit = 50
	}

	endpoint := fmt.Sprintf("/me/tracks?limit=%d&offset=%d", limit, offset)

	var response SpotifyPaginatedTracks
	if err := s.doRequest(ctx, http.MethodGet, endpoint, nil, &response); err != nil {
		return nil, err
	}

	return &response, nil
}

// UserPlaylists retrieves one page of the current user's playlists.
func (s *SpotifyService) UserPlaylists(ctx context.Context, limit, offset int) (*SpotifyPaginatedPlaylists, error) {
	if limit <= 0 {
		limit = 20
	}
	if limit > 50 {
		limit = 50
	}

	endpoint := fmt.Sprintf("/me/playlists?limit=%d&offset=%d", limit, offset)

	var response SpotifyPaginatedPlaylists
	if err := s.doRequest(ctx, http.MethodGet, endpoint, nil, &response); err != nil {
		return nil, err
	}

	return &response, nil
}

// PlaylistItems retrieves one page of a playlist's tracks.
func (s *SpotifyService) PlaylistItems(ctx context.Context, playlistID string, limit, offset int) (*SpotifyPaginatedPlaylistItems, error) {
	if limit <= 0 || limit > 100 {
		limit = 100
	}

	endpoint := fmt.Sprintf("/playlists/%s/tracks?limit=%d&offset=%d", playlistID, limit, offset)

	var response SpotifyPaginatedPlaylistItems
	if err := s.doRequest(ctx, http.MethodGet, endpoint, nil, &response); err != nil {
		return nil, err
	}

	return &response, nil
}

// TrackSource interface implementation

// FetchAll retrieves every liked song in library order.
func (s *SpotifyService) FetchAll(ctx context.Context) ([]models.Track, error) {
	var tracks []models.Track
	limit := 50
	offset := 0

	for {
		page, err := s.SavedTracks(ctx, limit, offset)
		if err != nil {
			return nil, err
		}

		for _, item := range page.Items {
			tracks = append(tracks, mapSpotifyTrack(item.Track))
		}

		if page.Next == nil || len(page.Items) == 0 {
			break
		}
		offset += limit
	}

	return tracks, nil
}

// mapSpotifyTrack converts a Spotify API track to the domain record.
func mapSpotifyTrack(t SpotifyTrack) models.Track {
	names := make([]string, 0, len(t.Artists))
	for _, a := range t.Artists {
		names = append(names, a.Name)
	}

	coverURL := ""
	if len(t.Album.Images) > 0 {
		coverURL = t.Album.Images[0].URL
	}

	return models.Track{
		ID:          t.ID,
		Name:        t.Name,
		Artist:      strings.Join(names, ", "),
		Album:       t.Album.Name,
		Popularity:  t.Popularity,
		DurationMS:  t.DurationMS,
		ReleaseDate: t.Album.ReleaseDate,
		Explicit:    t.Explicit,
		CoverURL:    coverURL,
		PreviewURL:  t.PreviewURL,
	}
}

// PlaylistAPI interface implementation

// FindPlaylistByName scans the user's playlists for an exact name match.
func (s *SpotifyService) FindPlaylistByName(ctx context.Context, name string) (string, error) {
	limit := 50
	offset := 0

	for {
		page, err := s.UserPlaylists(ctx, limit, offset)
		if err != nil {
			return "", err
		}

		for _, pl := range page.Items {
			if pl.Name == name {
				return pl.ID, nil
			}
		}

		if page.Next == nil || len(page.Items) == 0 {
			return "", nil
		}
		offset += limit
	}
}

// CreatePlaylist creates a new private playlist for the current user.
func (s *SpotifyService) CreatePlaylist(ctx context.Context, name, description string) (string, error) {
	userID, err := s.currentUserID(ctx)
	if err != nil {
		return "", err
	}

	body := map[string]any{
		"name":        name,
		"description": description,
		"public":      false,
	}

	var created SpotifySimplePlaylist
	endpoint := fmt.Sprintf("/users/%s/playlists", userID)
	if err := s.doRequest(ctx, http.MethodPost, endpoint, body, &created); err != nil {
		return "", err
	}

	return created.ID, nil
}

// PlaylistContainsTrack checks playlist membership by paginated scan.
func (s *SpotifyService) PlaylistContainsTrack(ctx context.Context, playlistID, trackID string) (bool, error) {
	limit := 100
	offset := 0

	for {
		page, err := s.PlaylistItems(ctx, playlistID, limit, offset)
		if err != nil {
			return false, err
		}

		for _, item := range page.Items {
			if item.Track.ID == trackID {
				return true, nil
			}
		}

		if page.Next == nil || len(page.Items) == 0 {
			return false, nil
		}
		offset += limit
	}
}

// AddTrackToPlaylist appends a track to a playlist.
func (s *SpotifyService) AddTrackToPlaylist(ctx context.Context, playlistID, trackID string) error {
	body := map[string]any{
		"uris": []string{trackURI(trackID)},
	}
	endpoint := fmt.Sprintf("/playlists/%s/tracks", playlistID)
	return s.doRequest(ctx, http.MethodPost, endpoint, body, nil)
}

// RemoveTrackFromPlaylist removes all occurrences of a track from a playlist.
func (s *SpotifyService) RemoveTrackFromPlaylist(ctx context.Context, playlistID, trackID string) error {
	body := map[string]any{
		"tracks": []map[string]string{{"uri": trackURI(trackID)}},
	}
	endpoint := fmt.Sprintf("/playlists/%s/tracks", playlistID)
	return s.doRequest(ctx, http.MethodDelete, endpoint, body, nil)
}

// currentUserID resolves and caches the authenticated user's id.
func (s *SpotifyService) currentUserID(ctx context.Context) (string, error) {
	if s.userID != "" {
		return s.userID, nil
	}

	user, err := s.UserProfile(ctx)
	if err != nil {
		return "", err
	}

	s.userID = user.ID
	return s.userID, nil
}

func trackURI(trackID string) string {
	return "spotify:track:" + trackID
}
