// Package services holds the outward-facing clients: the Spotify Web API,
// the LLM completion providers, and the GitHub release checker.
//
// # Spotify
//
// [SpotifyService] implements [TrackSource], [PlaylistAPI], and
// [OAuthService] against the Spotify Web API. Authentication uses OAuth2
// with automatic token refresh via [oauth2.Config.Client]; all endpoint
// calls flow through a single typed doRequest helper.
//
// [TrackSource.FetchAll] pages through /me/tracks and maps the saved-track
// payloads to [models.Track]. The playlist operations are deliberately
// narrow: find by exact name, create private, membership check, add,
// remove. Higher-level idempotence (create-once, add-once) lives in the
// tasks package, built on these primitives.
//
// # LLM Providers
//
// [Provider] abstracts a chat completion call down to a single
// system+user prompt pair returning raw text. [OpenAIProvider] and
// [AnthropicProvider] implement it over plain HTTP; [NewProvider] selects
// one from config. Response parsing and prompt construction belong to the
// classifier, not here.
//
// # Updates
//
// [GitHubClient.CheckLatestRelease] polls the public releases API and
// compares semver tags. It returns nil on any failure so a flaky network
// never blocks startup.
//
// # Error Handling
//
// Services use typed errors from the shared package:
//   - [shared.ErrMissingCredentials] : required credential absent
//   - [shared.ErrNotAuthenticated] : Authenticate() not called
//   - [shared.ErrTokenExpired] : OAuth token expired, reauthorization needed
//   - [shared.ErrAPIRequest] : HTTP request failed
//   - [shared.ErrUnknownProvider] : LLM provider id not recognized
package services
