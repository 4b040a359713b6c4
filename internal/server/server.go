package server

import (
	"net/http"
)

// Middleware wraps an http.Handler and returns a new http.Handler with additional behavior.
type Middleware func(http.Handler) http.Handler

// Handler defines the interface for HTTP request handlers hosted by the
// client: the OAuth login callback and the mock review backend.
type Handler interface {
	http.Handler       // ServeHTTP handles the HTTP request and writes the response
	Patterns() []string // Patterns returns the "METHOD /path" patterns this handler serves
}

// Router registers handlers and middleware for a local HTTP server.
type Router interface {
	Use(middleware ...Middleware)                     // Use adds middleware to the router's middleware stack
	Handle(pattern string, handler http.Handler)      // Handle registers a handler for a "METHOD /path" pattern
	Handler(handler Handler)                          // Handler registers a custom Handler implementation
	ServeHTTP(w http.ResponseWriter, r *http.Request) // ServeHTTP implements http.Handler for the entire router
}
