package http

import (
	"time"

	"github.com/gungunsaluja/FileView/internal/infrastructure/monitoring"
)

// HandlerMetrics wraps handlers with metrics tracking
type HandlerMetrics struct {
	metrics *monitoring.Metrics
}

// NewHandlerMetrics creates a metrics wrapper
func NewHandlerMetrics(metrics *monitoring.Metrics) *HandlerMetrics {
	return &HandlerMetrics{metrics: metrics}
}

// TrackFilesOperation tracks workspace viewer operations
func (hm *HandlerMetrics) TrackFilesOperation(operation string) func() {
	start := time.Now()
	return func() {
		duration := time.Since(start)
		hm.metrics.RecordServiceCall("files", operation, "success", duration)
	}
}

// TrackChatOperation tracks one-shot generation operations
func (hm *HandlerMetrics) TrackChatOperation(operation string) func() {
	start := time.Now()
	return func() {
		duration := time.Since(start)
		hm.metrics.RecordServiceCall("chat", operation, "success", duration)
	}
}
