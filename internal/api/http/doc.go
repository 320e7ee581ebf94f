// Package http provides HTTP handlers and routing for the FileView REST API.
//
// This package implements all HTTP endpoints using the Gin framework,
// covering health checks, workspace browsing, and one-shot generation.
//
// Endpoints:
//   - Health: / and /health
//   - Files: /api/files, /api/files/stat, /api/files/content, /api/files/preview
//   - Chat: /api/generate
//   - Metrics: /metrics/json
//
// Features:
//   - JSON request/response handling
//   - Proper HTTP status codes
//   - Error response formatting
//   - Request validation
//   - ETag support on file contents
//
// Example Usage:
//
//	handlers := http.NewHandlers(http.Config{Files: svc, Metrics: metrics})
//	router.GET("/health", handlers.Health)
//	router.GET("/api/files", handlers.ListFiles)
package http
