// Package main is the entry point for the labmat API server.
//
// The server hosts one tutor session and exposes it to a browser front end:
//
//	Browser → labmat server → execution service (MATLAB-compatible runner)
//
// The server provides:
//   - REST API for the practical catalog, tutor and session operations
//   - WebSocket stream of session state and notifications
//   - Prometheus metrics at /metrics
//
// Configuration:
//   - Environment variables (12-factor)
//   - CLI flags (override env vars)
//
// Usage:
//
//	./server -port 8000 -executor http://localhost:5000/api/run
//
// Signals:
//   - SIGINT, SIGTERM: Graceful shutdown
package main
