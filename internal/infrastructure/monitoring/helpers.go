package monitoring

import "time"

// Snapshot returns a copy of the current metric values for the JSON API.
func (m *Metrics) Snapshot() MetricsSnapshot {
	m.mu.RLock()
	defer m.mu.RUnlock()

	return m.snapshot
}

// AverageLatency returns the mean HTTP request duration in seconds.
func (m *Metrics) AverageLatency() float64 {
	m.mu.RLock()
	defer m.mu.RUnlock()

	if m.snapshot.RequestCount == 0 {
		return 0
	}
	return m.snapshot.TotalDuration / float64(m.snapshot.RequestCount)
}

// UptimeSeconds returns how long the collector has been running.
func (m *Metrics) UptimeSeconds() float64 {
	return time.Since(m.startTime).Seconds()
}
