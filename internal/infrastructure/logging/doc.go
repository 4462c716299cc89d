// Package logging provides structured logging using uber/zap.
//
// Two output modes are supported:
//   - Production: JSON output for machine parsing
//   - Development: Colored console output for human readability
//
// Components take a *Logger and derive a named child so every line carries
// its origin (terminal, ws, http, shutdown).
//
// Example Usage:
//
//	logger := logging.NewFromLevel("debug", true)
//	log := logger.Named("terminal")
//	log.Info("Session started", zap.String("session_id", id))
//	log.Warn("Tree kill incomplete", zap.Error(err))
package logging
