// Package client is a small REST client for a running termhub daemon, used
// by the termhub command line to inspect and kill sessions.
package client
