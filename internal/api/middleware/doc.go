// Package middleware provides the HTTP middleware stack for the tutor API.
//
// Middleware stack includes:
//   - CORS: cross-origin resource sharing with configurable origins
//   - RateLimit: per-IP token bucket rate limiting with idle client eviction
//   - RequestID: request correlation ids and structured access logs
//
// Example Usage:
//
//	router.Use(middleware.RequestID(logger))
//	router.Use(middleware.CORS(middleware.DefaultCORSConfig()))
//	router.Use(middleware.RateLimit(middleware.DefaultRateLimitConfig()))
package middleware
