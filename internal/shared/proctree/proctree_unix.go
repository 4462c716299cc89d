//go:build unix

package proctree

import (
	"context"
	"errors"
	"fmt"

	"golang.org/x/sys/unix"
)

func killTree(ctx context.Context, pid int) error {
	// Snapshot before signalling: once the root dies its children are
	// reparented and can no longer be found through it.
	targets, walkErr := descendants(pid)
	targets = append(targets, pid)

	var errs []error
	if walkErr != nil {
		errs = append(errs, fmt.Errorf("list descendants of %d: %w", pid, walkErr))
	}
	for _, target := range targets {
		if err := unix.Kill(target, unix.SIGKILL); err != nil && !errors.Is(err, unix.ESRCH) {
			errs = append(errs, fmt.Errorf("signal %d: %w", target, err))
		}
	}

	if err := waitGone(ctx, targets); err != nil {
		errs = append(errs, err)
	}
	return errors.Join(errs...)
}
