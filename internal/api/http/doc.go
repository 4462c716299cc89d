// Package http provides the REST surface of the termhub server.
//
// Routes:
//   - GET /, GET /health: Liveness and summary
//   - GET /terminal/sessions: List live sessions
//   - POST /terminal/sessions: Start a session under a generated id
//   - GET /terminal/sessions/:id: Describe one session
//   - POST /terminal/sessions/:id/init: Start a session (idempotent)
//   - POST /terminal/sessions/:id/write: Send input
//   - POST /terminal/sessions/:id/resize: Change geometry
//   - DELETE /terminal/sessions/:id: Kill a session and its descendants
//   - GET /services, POST /services/execute: Tool-style dispatch
//   - GET /metrics/json: Metrics snapshot
package http
