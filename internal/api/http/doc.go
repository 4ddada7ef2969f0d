// Package http provides the HTTP handlers and routing for the tutor REST API.
//
// Every endpoint goes through the session coordinator; handlers never touch
// session state directly.
//
// Endpoints:
//   - Health: /health, /stats
//   - Catalog: /practicals, /practicals/:id, /tutor, /quickref
//   - Session: /session and everything under it
//
// Errors are JSON objects with an "error" message and a machine-readable
// "kind" (bad_request, content_not_found, empty_input, busy, plot_invalid).
//
// Example Usage:
//
//	handlers := http.NewHandlers(coordinator, http.WithExecutorStatus(client))
//	handlers.Register(router)
package http
