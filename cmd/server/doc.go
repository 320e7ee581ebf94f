// Package main is the entry point for the FileView server.
//
// The server relays chat prompts to a generative model over WebSocket,
// streaming reply fragments back token by token, and serves a read-only
// view of a workspace directory over REST. When no model API key is
// configured, a deterministic fallback generator answers instead.
//
// The server provides:
//   - WebSocket streaming at /stream
//   - Workspace browsing under /api/files
//   - One-shot generation at /api/generate
//   - Prometheus metrics at /metrics, JSON counters at /metrics/json
//
// Configuration:
//   - Environment variables (12-factor)
//   - CLI flags (override env vars)
//   - Defaults for development
//
// Usage:
//
//	# Serve the current directory
//	./server -port 8000
//
//	# Development mode (colored logs, debug level)
//	./server -dev -workspace ~/projects/demo
//
// Signals:
//   - SIGINT, SIGTERM: Graceful shutdown
package main
