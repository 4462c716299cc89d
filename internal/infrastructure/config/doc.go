// Package config provides 12-factor configuration management for termhub.
//
// Configuration is layered: built-in defaults, then an optional TOML or YAML
// file, then environment variables. CLI flags in cmd/termhub pick the file.
//
// Configuration Sections:
//   - Server: HTTP listener and shutdown grace period
//   - Terminal: shell override, TERM name, initial geometry and cleanup bounds
//   - Logging: Log level and output format
//   - RateLimit: Per-IP rate limiting configuration
//   - CORS: Allowed browser origins
//
// Example Usage:
//
//	cfg, err := config.LoadFile("termhub.toml")
//	if err != nil {
//		return err
//	}
//	fmt.Printf("listening on %s:%s\n", cfg.Server.Host, cfg.Server.Port)
//
// Environment Variables:
//   - PORT, HOST, SHUTDOWN_GRACE
//   - TERMHUB_SHELL, TERMHUB_TERM, TERMHUB_COLS, TERMHUB_ROWS
//   - TERMHUB_KILL_TIMEOUT, TERMHUB_SHUTDOWN_TIMEOUT, TERMHUB_DRAIN_TIMEOUT
//   - TERMHUB_SUBSCRIBER_BUFFER
//   - LOG_LEVEL, LOG_DEV
//   - RATE_LIMIT_RPS, RATE_LIMIT_BURST, RATE_LIMIT_ENABLED
//   - CORS_ORIGINS (comma separated)
package config
