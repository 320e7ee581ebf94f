// Package logging provides structured logging using uber/zap.
//
// This package offers production-ready logging with two modes:
//   - Production: JSON output for machine parsing
//   - Development: Colored console output for human readability
//
// Correlation:
//   - WithSession attaches session_id for socket lifecycles
//   - WithRequest attaches request_id for HTTP requests
//
// Features:
//   - Zero-allocation logging in production
//   - Structured fields for context
//   - Configurable output paths
//
// Example Usage:
//
//	logger := logging.NewDefault()
//	logger.Info("Server starting", zap.String("port", "8000"))
//	logger.WithSession(sessionID).Warn("dropping malformed frame", zap.Error(err))
package logging
