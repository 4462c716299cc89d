// Package proctree terminates a process together with every process it spawned.
//
// A shell running inside a pseudo-terminal frequently forks long-lived children
// (dev servers, watchers) that survive a plain kill of the shell. Kill walks the
// descendant tree before signalling so those children are not orphaned.
//
// Platform support:
//   - Linux: descendants discovered through /proc (prometheus/procfs)
//   - Other unix: descendants discovered with pgrep -P
//   - Windows: delegated to taskkill /T /F
//
// Example Usage:
//
//	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
//	defer cancel()
//	if err := proctree.Kill(ctx, cmd.Process.Pid); err != nil {
//		logger.Warn("tree kill incomplete", zap.Error(err))
//	}
package proctree

import (
	"context"
	"errors"
	"fmt"
	"time"
)

var (
	// ErrTimeout is returned when processes were signalled but did not exit
	// before the context was done.
	ErrTimeout = errors.New("proctree: processes still alive at deadline")

	// ErrInvalidPID is returned for pids that can never name a real process tree.
	ErrInvalidPID = errors.New("proctree: invalid pid")
)

// pollInterval is how often liveness is re-checked while waiting for exit.
const pollInterval = 20 * time.Millisecond

// Kill forcefully terminates pid and all of its descendants, then waits until
// every signalled process is gone or ctx is done. Processes that are already
// gone count as terminated.
func Kill(ctx context.Context, pid int) error {
	if pid <= 1 {
		return fmt.Errorf("%w: %d", ErrInvalidPID, pid)
	}
	return killTree(ctx, pid)
}

// Descendants returns every live descendant of pid, deepest first.
func Descendants(pid int) ([]int, error) {
	if pid <= 1 {
		return nil, fmt.Errorf("%w: %d", ErrInvalidPID, pid)
	}
	return descendants(pid)
}

// Alive reports whether pid names a running (non-zombie) process.
func Alive(pid int) bool {
	if pid <= 0 {
		return false
	}
	return alive(pid)
}

// walk expands a child lookup into a deepest-first descendant list.
func walk(root int, children func(int) ([]int, error)) ([]int, error) {
	var (
		result  []int
		visited = map[int]bool{root: true}
		visit   func(pid int) error
	)
	visit = func(pid int) error {
		kids, err := children(pid)
		if err != nil {
			return err
		}
		for _, kid := range kids {
			if visited[kid] {
				continue
			}
			visited[kid] = true
			if err := visit(kid); err != nil {
				return err
			}
			result = append(result, kid)
		}
		return nil
	}
	if err := visit(root); err != nil {
		return result, err
	}
	return result, nil
}

// waitGone polls until none of pids is alive.
func waitGone(ctx context.Context, pids []int) error {
	ticker := time.NewTicker(pollInterval)
	defer ticker.Stop()

	for {
		remaining := pids[:0:0]
		for _, pid := range pids {
			if alive(pid) {
				remaining = append(remaining, pid)
			}
		}
		if len(remaining) == 0 {
			return nil
		}
		pids = remaining

		select {
		case <-ctx.Done():
			return fmt.Errorf("%w: %v", ErrTimeout, pids)
		case <-ticker.C:
		}
	}
}
