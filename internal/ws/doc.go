// Package ws bridges terminal sessions to displays over WebSocket.
//
// Every connection subscribes to session events and may send commands for
// any session id. Output and exit notifications are pushed as they happen.
//
// Message Types (Client → Server):
//   - init: Start a session for id in cwd
//   - write: Send data to a session
//   - resize: Change a session's cols and rows
//   - kill: Terminate a session and its descendants
//   - ping: Keep-alive ping
//
// Message Types (Server → Client):
//   - system: Connected, carries the connection id
//   - data: Session output
//   - exit: Session ended, carries the exit code
//   - result: Outcome of init or kill
//   - pong: Reply to ping
//   - error: Malformed or unknown command
//
// Example Usage:
//
//	handler := ws.NewHandler(manager, logger, metrics, cfg.CORS.Origins)
//	router.GET("/terminal/stream", handler.HandleConnection)
package ws
