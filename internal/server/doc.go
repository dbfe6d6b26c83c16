// Package server hosts the short-lived HTTP server backing the Spotify
// OAuth authorization-code flow.
//
// # Router
//
// [BasicRouter] wraps [http.ServeMux] with a middleware stack and method
// filtering. [RequestLogger] is the only middleware in use; the callback
// server carries a single route and shuts down as soon as the flow
// completes.
//
// # OAuth Callback
//
// [OAuthHandler] validates the state parameter, exchanges the
// authorization code for tokens, and delivers exactly one [OAuthResult]
// on a channel. Repeat callbacks are rejected so a replayed redirect
// cannot overwrite a completed flow. The auth command starts the server
// on the configured host/port, opens the browser, and waits on
// [OAuthHandler.Result] with a timeout.
package server
