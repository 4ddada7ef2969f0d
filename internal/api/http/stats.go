package http

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
)

// StatsSnapshot summarizes server activity.
type StatsSnapshot struct {
	Timestamp time.Time    `json:"timestamp"`
	Summary   StatsSummary `json:"summary"`
	Executor  gin.H        `json:"executor,omitempty"`
}

// StatsSummary holds derived rates.
type StatsSummary struct {
	TotalRequests  int64   `json:"totalRequests"`
	ErrorRate      float64 `json:"errorRate"`
	Runs           int64   `json:"runs"`
	RunFailureRate float64 `json:"runFailureRate"`
	Rejections     int64   `json:"rejections"`
	WSConnections  int64   `json:"wsConnections"`
	UptimeSeconds  float64 `json:"uptimeSeconds"`
}

// Stats returns running totals and derived rates.
func (h *Handlers) Stats(c *gin.Context) {
	if h.metrics == nil {
		c.AbortWithStatusJSON(http.StatusNotFound, gin.H{"error": "metrics disabled", "kind": KindContentNotFound})
		return
	}

	snap := h.metrics.Snapshot()
	summary := StatsSummary{
		TotalRequests: snap.Requests,
		Runs:          snap.Runs,
		Rejections:    snap.Rejections,
		WSConnections: snap.WSConnections,
		UptimeSeconds: snap.UptimeSeconds,
	}
	if snap.Requests > 0 {
		summary.ErrorRate = float64(snap.Errors) / float64(snap.Requests)
	}
	if snap.Runs > 0 {
		summary.RunFailureRate = float64(snap.RunFailures) / float64(snap.Runs)
	}

	out := StatsSnapshot{Timestamp: time.Now(), Summary: summary}
	if h.executor != nil {
		out.Executor = gin.H{
			"url":     h.executor.URL(),
			"breaker": h.executor.Breaker(),
		}
	}
	c.JSON(http.StatusOK, out)
}
