package terminal

import (
	"errors"
	"fmt"
	"math"
	"os"
	"os/exec"
	"sync"
	"sync/atomic"
	"syscall"
	"time"
	"unicode/utf8"

	"github.com/creack/pty"

	"github.com/GriffinCanCode/termhub/internal/infrastructure/monitoring"
)

// ErrSpawn wraps every failure to launch a session's shell.
var ErrSpawn = errors.New("terminal: spawn failed")

const readBufferSize = 4096

// Session is one pty-backed shell process. The Manager that created it is its
// only owner.
type Session struct {
	ID         string
	Shell      string
	WorkingDir string
	StartedAt  time.Time

	// Process management
	cmd  *exec.Cmd
	ptmx *os.File

	mu    sync.RWMutex
	cols  int
	rows  int
	alive bool

	// emitMu orders output against the final exit notification; once
	// finished is set nothing more is emitted.
	emitMu   sync.Mutex
	finished bool

	// stopReason is set when the exit was requested (kill or shutdown).
	stopReason atomic.Value

	closeOnce  sync.Once
	readerDone chan struct{}
	done       chan struct{}
}

// startSession spawns shell in a new pty rooted at dir.
func startSession(id string, policy ShellPolicy, dir string, opts Options) (*Session, error) {
	cmd := exec.Command(policy.Program, policy.Args...)
	cmd.Dir = dir
	cmd.Env = append(os.Environ(), "TERM="+opts.Term)

	ptmx, err := pty.StartWithSize(cmd, &pty.Winsize{
		Rows: uint16(opts.Rows),
		Cols: uint16(opts.Cols),
	})
	if err != nil {
		return nil, fmt.Errorf("%w: %s in %s: %w", ErrSpawn, policy.Program, dir, err)
	}

	return &Session{
		ID:         id,
		Shell:      policy.Program,
		WorkingDir: dir,
		StartedAt:  time.Now(),
		cmd:        cmd,
		ptmx:       ptmx,
		cols:       opts.Cols,
		rows:       opts.Rows,
		alive:      true,
		readerDone: make(chan struct{}),
		done:       make(chan struct{}),
	}, nil
}

// PID returns the shell's process id.
func (s *Session) PID() int {
	if s.cmd.Process == nil {
		return 0
	}
	return s.cmd.Process.Pid
}

// Done is closed once the shell has exited and its exit was reported.
func (s *Session) Done() <-chan struct{} {
	return s.done
}

// Info returns a snapshot of the session.
func (s *Session) Info() SessionInfo {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return SessionInfo{
		ID:         s.ID,
		Shell:      s.Shell,
		WorkingDir: s.WorkingDir,
		PID:        s.PID(),
		Cols:       s.cols,
		Rows:       s.rows,
		StartedAt:  s.StartedAt,
		Active:     s.alive,
	}
}

func (s *Session) requestStop(reason string) {
	s.stopReason.Store(reason)
}

// exitReason is the metrics label for how this session ended.
func (s *Session) exitReason() string {
	if reason, ok := s.stopReason.Load().(string); ok {
		return reason
	}
	return monitoring.ReasonExit
}

func (s *Session) write(data []byte) error {
	_, err := s.ptmx.Write(data)
	return err
}

func (s *Session) resize(cols, rows int) error {
	if cols <= 0 || rows <= 0 || cols > math.MaxUint16 || rows > math.MaxUint16 {
		return fmt.Errorf("invalid geometry %dx%d", cols, rows)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if err := pty.Setsize(s.ptmx, &pty.Winsize{Rows: uint16(rows), Cols: uint16(cols)}); err != nil {
		return err
	}
	s.cols = cols
	s.rows = rows
	return nil
}

// terminate kills the wrapper: the pty master is closed and the shell process
// itself is killed. Already-dead is not an error.
func (s *Session) terminate() error {
	var errs []error
	s.closePTY()
	if s.cmd.Process != nil {
		if err := s.cmd.Process.Kill(); err != nil && !errors.Is(err, os.ErrProcessDone) {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

func (s *Session) closePTY() {
	s.closeOnce.Do(func() {
		_ = s.ptmx.Close()
	})
}

// pump copies pty output to emit until the master reports an error. Chunks
// never end inside a UTF-8 sequence; a partial rune is carried into the
// next read.
func (s *Session) pump(emit func(Event)) {
	defer close(s.readerDone)

	buf := make([]byte, readBufferSize)
	var pending []byte
	for {
		n, err := s.ptmx.Read(buf)
		if n > 0 {
			chunk := make([]byte, 0, len(pending)+n)
			chunk = append(chunk, pending...)
			chunk = append(chunk, buf[:n]...)

			complete, rest := splitIncompleteRune(chunk)
			pending = append(pending[:0:0], rest...)
			if len(complete) > 0 {
				s.emit(emit, Event{Type: EventData, SessionID: s.ID, Data: complete})
			}
		}
		if err != nil {
			if len(pending) > 0 {
				s.emit(emit, Event{Type: EventData, SessionID: s.ID, Data: pending})
			}
			return
		}
	}
}

func (s *Session) emit(emit func(Event), ev Event) {
	s.emitMu.Lock()
	defer s.emitMu.Unlock()

	if s.finished {
		return
	}
	emit(ev)
}

// finish publishes the exit notification followed by the exit banner and
// stops any further output for this session.
func (s *Session) finish(emit func(Event), code int) {
	s.emitMu.Lock()
	s.finished = true
	emit(Event{Type: EventExit, SessionID: s.ID, ExitCode: code})
	emit(Event{Type: EventData, SessionID: s.ID, Data: []byte(exitBanner(code))})
	s.emitMu.Unlock()

	s.mu.Lock()
	s.alive = false
	s.mu.Unlock()
	close(s.done)
}

func exitBanner(code int) string {
	return fmt.Sprintf("\r\n\x1b[31mSession ended (Code %d). Reload to restart.\x1b[0m\r\n", code)
}

// exitCodeOf maps a Wait result to a shell-style exit code; death by signal
// is reported as 128+signal.
func exitCodeOf(state *os.ProcessState, waitErr error) int {
	if state == nil {
		if waitErr != nil {
			return -1
		}
		return 0
	}
	if ws, ok := state.Sys().(syscall.WaitStatus); ok && ws.Signaled() {
		return 128 + int(ws.Signal())
	}
	return state.ExitCode()
}

// splitIncompleteRune separates a trailing, not yet complete UTF-8 sequence
// from p. Invalid bytes are left in complete; only a valid prefix of a
// multi-byte rune is held back.
func splitIncompleteRune(p []byte) (complete, rest []byte) {
	start := len(p) - utf8.UTFMax + 1
	if start < 0 {
		start = 0
	}
	for i := len(p) - 1; i >= start; i-- {
		if !utf8.RuneStart(p[i]) {
			continue
		}
		if !utf8.FullRune(p[i:]) {
			return p[:i], p[i:]
		}
		break
	}
	return p, nil
}
