// Package ws streams session events to browser clients over WebSocket.
//
// Each connection subscribes to the session event bus. State changes are
// pushed with a fresh snapshot so clients never poll; notifications are
// pushed as they are raised.
//
// Message Types (Client → Server):
//   - ping: keep-alive ping
//   - snapshot: request the current session snapshot
//
// Message Types (Server → Client):
//   - system: welcome frame carrying the connection id and a snapshot
//   - state: session state changed
//   - notification: user-visible notification
//   - snapshot: reply to a snapshot request
//   - pong: reply to ping
//   - error: malformed or unknown client message
//
// Example Usage:
//
//	handler := ws.NewHandler(coordinator, ws.WithObserver(metrics))
//	router.GET("/stream", handler.HandleConnection)
package ws
