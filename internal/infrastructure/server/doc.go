// Package server assembles the termhub daemon: configuration, logging,
// metrics, the session manager, the REST API and the WebSocket bridge.
package server
