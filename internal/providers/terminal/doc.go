// Package terminal manages interactive shell sessions backed by pseudo-terminals.
//
// Each session is identified by a caller-chosen id. The Manager keeps at most
// one live session per id and serializes Init and Kill for the same id, so
// rapid duplicate requests never spawn two shells.
//
// Architecture:
//   - Session owns one shell process and the master side of its pty
//   - A reader goroutine per session streams output as EventData
//   - A watcher goroutine per session reaps the shell, purges it from the
//     Manager and publishes EventExit followed by an exit banner
//   - Hub fans events out to subscribers without ever blocking a session
//   - Coordinator terminates every session concurrently at process exit
//
// Kill terminates the whole process tree of a session before the pty wrapper,
// so background jobs started from the shell do not outlive it.
//
// Tools:
//   - terminal.init: Start a session for an id (idempotent)
//   - terminal.write: Send input to a session
//   - terminal.resize: Change terminal dimensions
//   - terminal.kill: Terminate a session and its descendants
//   - terminal.list: List live sessions
//   - terminal.get: Describe one session
package terminal
