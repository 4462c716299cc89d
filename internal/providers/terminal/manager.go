package terminal

import (
	"context"
	"errors"
	"sort"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/GriffinCanCode/termhub/internal/infrastructure/logging"
	"github.com/GriffinCanCode/termhub/internal/infrastructure/monitoring"
	"github.com/GriffinCanCode/termhub/internal/shared/proctree"
)

// ErrClosing is logged when Init is refused because shutdown has begun.
var ErrClosing = errors.New("terminal: manager is shutting down")

// Manager is the session registry. It owns every live Session, allows at most
// one per id, and serializes Init and Kill per id.
type Manager struct {
	policy  ShellPolicy
	opts    Options
	killer  TreeKiller
	hub     *Hub
	logger  *logging.Logger
	metrics *monitoring.Metrics

	mu       sync.RWMutex
	sessions map[string]*Session
	closing  bool

	locks keyedMutex
}

// NewManager creates a session manager
func NewManager(policy ShellPolicy, opts Options, logger *logging.Logger) *Manager {
	opts = opts.withDefaults()
	if logger == nil {
		logger = logging.NewNop()
	}
	return &Manager{
		policy:   policy,
		opts:     opts,
		killer:   TreeKillFunc(proctree.Kill),
		hub:      NewHub(opts.SubscriberBuffer),
		logger:   logger.Named("terminal"),
		sessions: make(map[string]*Session),
	}
}

// WithMetrics attaches a metrics collector.
func (m *Manager) WithMetrics(metrics *monitoring.Metrics) *Manager {
	m.metrics = metrics
	return m
}

// WithKiller replaces the process-tree termination primitive.
func (m *Manager) WithKiller(killer TreeKiller) *Manager {
	m.killer = killer
	return m
}

// Policy returns the shell policy sessions are spawned with.
func (m *Manager) Policy() ShellPolicy {
	return m.policy
}

// Subscribe returns a stream of session events; see Hub.Subscribe.
func (m *Manager) Subscribe(ids ...string) *Subscription {
	return m.hub.Subscribe(ids...)
}

// Init starts a shell for id rooted at cwd. It is idempotent: an id that
// already has a live session reports true without spawning. It returns false
// only when the shell could not be launched.
func (m *Manager) Init(id, cwd string) bool {
	unlock := m.locks.Lock(id)
	defer unlock()

	m.mu.RLock()
	_, exists := m.sessions[id]
	closing := m.closing
	m.mu.RUnlock()

	if exists {
		return true
	}
	if closing {
		m.logger.Warn("Refusing init", zap.String("session_id", id), zap.Error(ErrClosing))
		return false
	}

	dir, substituted := resolveWorkingDir(cwd, m.usableDir, m.opts.HomeDir)
	if substituted && cwd != "" {
		m.logger.Warn("Working directory unavailable, falling back to home",
			zap.String("session_id", id),
			zap.String("requested", cwd),
			zap.String("dir", dir),
		)
	}

	s, err := startSession(id, m.policy, dir, m.opts)
	if err != nil {
		m.logger.Error("Failed to start session", zap.String("session_id", id), zap.Error(err))
		m.recordSpawn(false)
		return false
	}
	m.recordSpawn(true)

	m.mu.Lock()
	if m.closing {
		m.mu.Unlock()
		// Shutdown began while the shell was spawning and its drain cannot
		// see this session, so it is torn down here.
		m.discard(s)
		m.logger.Warn("Refusing init", zap.String("session_id", id), zap.Error(ErrClosing))
		return false
	}
	m.sessions[id] = s
	count := len(m.sessions)
	m.mu.Unlock()
	m.setActive(count)

	m.logger.Info("Session started",
		zap.String("session_id", id),
		zap.String("shell", s.Shell),
		zap.String("dir", dir),
		zap.Int("pid", s.PID()),
	)

	go s.pump(m.emit)
	go m.watch(s)
	return true
}

// discard kills a session that was spawned but never registered and reaps
// its shell, bounded by KillTimeout.
func (m *Manager) discard(s *Session) {
	s.requestStop(monitoring.ReasonShutdown)

	ctx, cancel := context.WithTimeout(context.Background(), m.opts.KillTimeout)
	defer cancel()

	m.killTree(ctx, s)
	if err := s.terminate(); err != nil {
		m.logger.Debug("Wrapper termination failed", zap.String("session_id", s.ID), zap.Error(err))
	}

	reaped := make(chan struct{})
	go func() {
		_ = s.cmd.Wait()
		close(reaped)
	}()
	select {
	case <-reaped:
	case <-ctx.Done():
		m.logger.Warn("Discarded shell not reaped before deadline",
			zap.String("session_id", s.ID),
			zap.Int("pid", s.PID()),
		)
	}
	m.recordExit(monitoring.ReasonShutdown)
}

// Write forwards input to the session's shell. Unknown ids and I/O failures
// are ignored.
func (m *Manager) Write(id string, data []byte) {
	s, ok := m.lookup(id)
	if !ok {
		return
	}
	if err := s.write(data); err != nil {
		m.logger.Warn("Failed to write to session", zap.String("session_id", id), zap.Error(err))
	}
}

// Resize changes the session's terminal geometry. Unknown ids and failures
// are ignored.
func (m *Manager) Resize(id string, cols, rows int) {
	s, ok := m.lookup(id)
	if !ok {
		return
	}
	if err := s.resize(cols, rows); err != nil {
		m.logger.Warn("Failed to resize session",
			zap.String("session_id", id),
			zap.Int("cols", cols),
			zap.Int("rows", rows),
			zap.Error(err),
		)
	}
}

// Kill terminates the session's whole process tree, then the pty wrapper,
// then drops the session. It always reports true.
func (m *Manager) Kill(id string) bool {
	unlock := m.locks.Lock(id)
	defer unlock()

	s, ok := m.lookup(id)
	if !ok {
		return true
	}

	s.requestStop(monitoring.ReasonKill)

	ctx, cancel := context.WithTimeout(context.Background(), m.opts.KillTimeout)
	defer cancel()

	// Descendants first: killing the wrapper first can detach them from the
	// terminal without ending them.
	m.killTree(ctx, s)

	if err := s.terminate(); err != nil {
		m.logger.Debug("Wrapper termination failed", zap.String("session_id", id), zap.Error(err))
	}

	select {
	case <-s.Done():
	case <-ctx.Done():
		m.logger.Warn("Session did not report exit before kill deadline", zap.String("session_id", id))
	}

	if m.purge(s) {
		m.recordExit(monitoring.ReasonKill)
	}
	m.logger.Info("Session killed", zap.String("session_id", id))
	return true
}

// Get returns a snapshot of the session for id.
func (m *Manager) Get(id string) (SessionInfo, bool) {
	s, ok := m.lookup(id)
	if !ok {
		return SessionInfo{}, false
	}
	return s.Info(), true
}

// List returns snapshots of all live sessions ordered by id.
func (m *Manager) List() []SessionInfo {
	m.mu.RLock()
	infos := make([]SessionInfo, 0, len(m.sessions))
	for _, s := range m.sessions {
		infos = append(infos, s.Info())
	}
	m.mu.RUnlock()

	sort.Slice(infos, func(i, j int) bool { return infos[i].ID < infos[j].ID })
	return infos
}

// Len returns the number of live sessions.
func (m *Manager) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.sessions)
}

func (m *Manager) lookup(id string) (*Session, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	s, ok := m.sessions[id]
	return s, ok
}

// purge removes s if it is still the registered session for its id. Only one
// caller per session ever gets true.
func (m *Manager) purge(s *Session) bool {
	m.mu.Lock()
	cur, ok := m.sessions[s.ID]
	if !ok || cur != s {
		m.mu.Unlock()
		return false
	}
	delete(m.sessions, s.ID)
	count := len(m.sessions)
	m.mu.Unlock()

	m.setActive(count)
	return true
}

// watch waits for the shell to exit on its own (or after a kill), purges it
// and reports the exit.
func (m *Manager) watch(s *Session) {
	waitErr := s.cmd.Wait()
	code := exitCodeOf(s.cmd.ProcessState, waitErr)

	// Let the pump flush what the shell wrote before exiting. A descendant
	// still holding the pty open would keep it reading forever.
	select {
	case <-s.readerDone:
	case <-time.After(m.opts.DrainTimeout):
	}
	s.closePTY()

	if m.purge(s) {
		m.recordExit(s.exitReason())
	}
	s.finish(m.emit, code)

	m.logger.Info("Session ended", zap.String("session_id", s.ID), zap.Int("exit_code", code))
}

func (m *Manager) killTree(ctx context.Context, s *Session) {
	pid := s.PID()
	if pid <= 0 {
		return
	}

	var timer *monitoring.Timer
	if m.metrics != nil {
		timer = monitoring.NewTreeKillTimer(m.metrics)
	}
	err := m.killer.KillTree(ctx, pid)
	status := "success"
	if err != nil {
		status = "failure"
		m.logger.Warn("Process tree termination incomplete",
			zap.String("session_id", s.ID),
			zap.Int("pid", pid),
			zap.Error(err),
		)
	}
	if timer != nil {
		timer.Stop(status)
	}
}

// emit is the single path from sessions to subscribers.
func (m *Manager) emit(ev Event) {
	if ev.Type == EventData && m.metrics != nil {
		m.metrics.AddOutputBytes(len(ev.Data))
	}
	m.hub.Publish(ev)
}

// usableDir reports whether a requested working directory may be used as is.
func (m *Manager) usableDir(dir string) bool {
	return dirAllowed(m.opts.AllowedDirs, dir) && m.opts.DirExists(dir)
}

func (m *Manager) recordSpawn(ok bool) {
	if m.metrics != nil {
		m.metrics.RecordSpawn(ok)
	}
}

func (m *Manager) recordExit(reason string) {
	if m.metrics != nil {
		m.metrics.RecordSessionExit(reason)
	}
}

func (m *Manager) setActive(count int) {
	if m.metrics != nil {
		m.metrics.SetSessionsActive(count)
	}
}

// beginShutdown refuses further Init calls and returns the live sessions.
func (m *Manager) beginShutdown() []*Session {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.closing = true
	sessions := make([]*Session, 0, len(m.sessions))
	for _, s := range m.sessions {
		s.requestStop(monitoring.ReasonShutdown)
		sessions = append(sessions, s)
	}
	return sessions
}

// clear drops every remaining session after a bulk shutdown.
func (m *Manager) clear() {
	m.mu.Lock()
	n := len(m.sessions)
	m.sessions = make(map[string]*Session)
	m.mu.Unlock()

	for i := 0; i < n; i++ {
		m.recordExit(monitoring.ReasonShutdown)
	}
	m.setActive(0)
}

// keyedMutex provides one mutex per key, freed when no longer referenced.
type keyedMutex struct {
	mu    sync.Mutex
	locks map[string]*refMutex
}

type refMutex struct {
	sync.Mutex
	refs int
}

// Lock acquires the mutex for key and returns its release function.
func (k *keyedMutex) Lock(key string) func() {
	k.mu.Lock()
	if k.locks == nil {
		k.locks = make(map[string]*refMutex)
	}
	l, ok := k.locks[key]
	if !ok {
		l = &refMutex{}
		k.locks[key] = l
	}
	l.refs++
	k.mu.Unlock()

	l.Lock()
	return func() {
		l.Unlock()
		k.mu.Lock()
		l.refs--
		if l.refs == 0 {
			delete(k.locks, key)
		}
		k.mu.Unlock()
	}
}
