package terminal

import (
	"context"
	"math"
	"os"
	"time"
)

// EventType distinguishes session output from session termination.
type EventType string

const (
	EventData EventType = "data"
	EventExit EventType = "exit"
)

// Event is one notification from a session. Data is set for EventData,
// ExitCode for EventExit.
type Event struct {
	Type      EventType
	SessionID string
	Data      []byte
	ExitCode  int
}

// SessionInfo is the public representation of a session
type SessionInfo struct {
	ID         string    `json:"id"`
	Shell      string    `json:"shell"`
	WorkingDir string    `json:"working_dir"`
	PID        int       `json:"pid"`
	Cols       int       `json:"cols"`
	Rows       int       `json:"rows"`
	StartedAt  time.Time `json:"started_at"`
	Active     bool      `json:"active"`
}

// TreeKiller terminates a process and all of its descendants.
type TreeKiller interface {
	KillTree(ctx context.Context, pid int) error
}

// TreeKillFunc adapts a function to TreeKiller.
type TreeKillFunc func(ctx context.Context, pid int) error

// KillTree calls f(ctx, pid).
func (f TreeKillFunc) KillTree(ctx context.Context, pid int) error {
	return f(ctx, pid)
}

// Options tunes spawning and cleanup. Zero values are replaced by defaults.
type Options struct {
	Term             string
	Cols             int
	Rows             int
	KillTimeout      time.Duration
	DrainTimeout     time.Duration
	SubscriberBuffer int

	// AllowedDirs restricts the requested working directory to paths matching
	// one of these doublestar patterns. A directory outside the list is
	// treated like a missing one. Empty allows any directory.
	AllowedDirs []string

	// DirExists and HomeDir are the filesystem collaborators used to resolve
	// the working directory; nil means the real filesystem.
	DirExists func(path string) bool
	HomeDir   func() (string, error)
}

// DefaultOptions returns the settings used when none are configured.
func DefaultOptions() Options {
	return Options{
		Term:             "xterm-256color",
		Cols:             80,
		Rows:             24,
		KillTimeout:      5 * time.Second,
		DrainTimeout:     500 * time.Millisecond,
		SubscriberBuffer: 256,
		DirExists:        dirExists,
		HomeDir:          os.UserHomeDir,
	}
}

func (o Options) withDefaults() Options {
	def := DefaultOptions()
	if o.Term == "" {
		o.Term = def.Term
	}
	if o.Cols <= 0 || o.Cols > math.MaxUint16 {
		o.Cols = def.Cols
	}
	if o.Rows <= 0 || o.Rows > math.MaxUint16 {
		o.Rows = def.Rows
	}
	if o.KillTimeout <= 0 {
		o.KillTimeout = def.KillTimeout
	}
	if o.DrainTimeout <= 0 {
		o.DrainTimeout = def.DrainTimeout
	}
	if o.SubscriberBuffer <= 0 {
		o.SubscriberBuffer = def.SubscriberBuffer
	}
	if o.DirExists == nil {
		o.DirExists = def.DirExists
	}
	if o.HomeDir == nil {
		o.HomeDir = def.HomeDir
	}
	return o
}

func dirExists(path string) bool {
	info, err := os.Stat(path)
	return err == nil && info.IsDir()
}
