package shared

import "fmt"

var (
	// Configuration errors
	ErrMissingConfig      = fmt.Errorf("configuration not found")
	ErrInvalidConfig      = fmt.Errorf("invalid configuration")
	ErrMissingCredentials = fmt.Errorf("missing credentials")
	ErrUnknownProvider    = fmt.Errorf("unknown LLM provider")
	ErrUnknownTheme       = fmt.Errorf("unknown theme key")

	// Authentication errors
	ErrAuthFailed       = fmt.Errorf("authentication failed")
	ErrNotAuthenticated = fmt.Errorf("not authenticated")
	ErrTokenExpired     = fmt.Errorf("access token expired")
	ErrTimeout          = fmt.Errorf("operation timed out")

	// API and service errors
	ErrAPIRequest         = fmt.Errorf("API request failed")
	ErrServiceUnavailable = fmt.Errorf("service unavailable")
	ErrPlaylistNotFound   = fmt.Errorf("playlist not found")

	// Session errors
	ErrNoSession      = fmt.Errorf("no saved session")
	ErrSessionRunning = fmt.Errorf("session already in progress")

	// Input validation errors
	ErrInvalidArgument = fmt.Errorf("invalid argument")
)
