/*
Package monitoring provides performance monitoring and metrics collection.

# Overview

This package implements Prometheus-based metrics collection for the relay
server, tracking HTTP requests, WebSocket traffic, chat turns, and upstream
generation calls.

# Features

- HTTP request metrics (latency, throughput, size)
- Service call metrics (duration, errors)
- WebSocket connection and message metrics
- Chat turn metrics (outcome, duration, source)
- Upstream call and circuit breaker metrics
- System metrics (uptime)

# Usage

	// Create metrics collector
	metrics := monitoring.NewMetrics()

	// Add middleware to Gin router
	router.Use(monitoring.Middleware(metrics))

	// Record chat activity
	metrics.RecordTurn(monitoring.OutcomeDone, monitoring.SourceFallback, elapsed)
	metrics.IncFallback()

	// Time operations
	timer := monitoring.NewTimer(metrics, "files", "tree")
	// ... perform operation ...
	timer.Stop("success")

# Metrics Endpoint

Expose metrics via the standard Prometheus endpoint:

	import "github.com/prometheus/client_golang/prometheus/promhttp"
	router.GET("/metrics", gin.WrapH(promhttp.Handler()))
*/
package monitoring
