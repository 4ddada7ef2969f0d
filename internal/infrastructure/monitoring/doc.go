/*
Package monitoring collects Prometheus metrics for the tutor server.

Every Metrics value owns a private registry. Tests and multiple servers in
one process never collide on global registration.

Tracked:
  - HTTP requests by route template, status and duration
  - execution outcomes, durations and pre-flight rejections
  - executor circuit breaker state
  - notifications by level and Escape dismissals by surface
  - catalog size and WebSocket connections

# Usage

	metrics := monitoring.NewMetrics()
	router.Use(monitoring.Middleware(metrics))
	router.GET("/metrics", gin.WrapH(metrics.Handler()))

	pipeline := execution.NewPipeline(client, log, execution.WithRecorder(metrics))
*/
package monitoring
