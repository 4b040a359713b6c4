// Package server provides local HTTP plumbing: routing with middleware,
// the OAuth login callback, and hosting for the mock review backend.
//
// # Router Infrastructure
//
// The [Router] interface defines HTTP routing with middleware support.
//
// [Middleware] wraps handlers in reverse order (last added executes first), following the standard Go pattern.
//
// The [BasicRouter] implementation uses [http.ServeMux] with stdlib
// "METHOD /path/{param}" patterns.
//
// # Login Callback Handler
//
// [LoginHandler] implements the OAuth2 authorization code callback flow.
//
// The handler validates the state parameter (CSRF protection), exchanges the authorization code for a token,
// and sends the result through a channel.
//
// It only processes one callback to prevent replay attacks.
//
// When the operator runs `screener session login`, a temporary HTTP server
// starts on the configured redirect port, handles the callback, and shuts
// down after delivering the token to the session store.
//
// # Mock Backend Hosting
//
// The mockapi package registers its endpoint handlers on a [BasicRouter]
// for `screener mock serve` and for integration tests that need a real
// HTTP listener in front of the in-memory store.
package server
