// package server hosts the temporary HTTP surface for the Spotify OAuth flow
package server

import (
	"net/http"
)

// Middleware wraps an http.Handler and returns a new http.Handler with additional behavior.
type Middleware func(http.Handler) http.Handler

// Handler is an http.Handler that knows which paths it serves, so the
// router can register it without external route tables.
type Handler interface {
	http.Handler
	Routes() []string
}

// Router registers handlers and middleware and serves the result.
type Router interface {
	Use(middleware ...Middleware)
	Handle(method, path string, handler http.Handler)
	Handler(handler Handler)
	ServeHTTP(w http.ResponseWriter, r *http.Request)
}
