// Package main is the termhub command.
//
// termhub serve runs the daemon: a registry of PTY shell sessions keyed by
// caller-chosen ids, exposed over REST under /terminal/sessions and as a
// WebSocket event stream at /terminal/stream.
//
// The remaining subcommands are a thin client for a running daemon.
//
// Configuration:
//   - Defaults for local development
//   - A TOML or YAML file passed with --config
//   - Environment variables (override the file)
//   - CLI flags (override everything)
//
// Usage:
//
//	termhub serve --config termhub.toml
//	termhub health --wait
//	termhub sessions list
//	termhub sessions kill term_01J...
//
// Signals:
//   - SIGINT, SIGTERM: every session and its descendants are killed, then
//     the HTTP server drains
package main
