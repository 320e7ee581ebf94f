package http

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
)

// MetricsReport is the JSON rendering of the service counters, for clients
// that do not scrape Prometheus.
type MetricsReport struct {
	Timestamp time.Time      `json:"timestamp"`
	Summary   MetricsSummary `json:"summary"`
	Chat      ChatReport     `json:"chat"`
}

// MetricsSummary provides high-level metrics
type MetricsSummary struct {
	TotalRequests     int64   `json:"total_requests"`
	AverageLatencyMs  float64 `json:"average_latency_ms"`
	ErrorRate         float64 `json:"error_rate"`
	ActiveConnections int64   `json:"active_connections"`
	UptimeSeconds     float64 `json:"uptime_seconds"`
}

// ChatReport summarizes the relay side of the service
type ChatReport struct {
	TotalTurns      int64  `json:"total_turns"`
	UpstreamEnabled bool   `json:"upstream_enabled"`
	UpstreamModel   string `json:"upstream_model,omitempty"`
	BreakerState    string `json:"breaker_state,omitempty"`
}

// MetricsJSON returns a snapshot of the service counters
func (h *Handlers) MetricsJSON(c *gin.Context) {
	snapshot := h.metrics.Snapshot()

	var errorRate float64
	if snapshot.TotalRequests > 0 {
		errorRate = float64(snapshot.TotalErrors) / float64(snapshot.TotalRequests)
	}

	report := MetricsReport{
		Timestamp: time.Now(),
		Summary: MetricsSummary{
			TotalRequests:     snapshot.TotalRequests,
			AverageLatencyMs:  h.metrics.AverageLatency() * 1000,
			ErrorRate:         errorRate,
			ActiveConnections: snapshot.ActiveConnections,
			UptimeSeconds:     h.metrics.UptimeSeconds(),
		},
		Chat: ChatReport{
			TotalTurns:      snapshot.TotalTurns,
			UpstreamEnabled: h.upstream != nil,
		},
	}
	if h.upstream != nil {
		report.Chat.UpstreamModel = h.model
		report.Chat.BreakerState = h.breaker.State().String()
	}

	c.JSON(http.StatusOK, report)
}
