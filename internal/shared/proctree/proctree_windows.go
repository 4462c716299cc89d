//go:build windows

package proctree

import (
	"context"
	"errors"
	"fmt"
	"os/exec"
	"strconv"

	"golang.org/x/sys/windows"
)

// taskkill exits 128 when the pid does not exist.
const taskkillNotFound = 128

func killTree(ctx context.Context, pid int) error {
	cmd := exec.CommandContext(ctx, "taskkill", "/PID", strconv.Itoa(pid), "/T", "/F")
	if err := cmd.Run(); err != nil {
		var exitErr *exec.ExitError
		if errors.As(err, &exitErr) && exitErr.ExitCode() == taskkillNotFound {
			return nil
		}
		if ctx.Err() != nil {
			return fmt.Errorf("%w: %d", ErrTimeout, pid)
		}
		return fmt.Errorf("taskkill %d: %w", pid, err)
	}
	return nil
}

// descendants is not needed on Windows; taskkill /T walks the tree itself.
func descendants(int) ([]int, error) {
	return nil, nil
}

// stillActive is the exit code GetExitCodeProcess reports for a process that
// has not exited.
const stillActive = 259

func alive(pid int) bool {
	h, err := windows.OpenProcess(windows.PROCESS_QUERY_LIMITED_INFORMATION, false, uint32(pid))
	if err != nil {
		// The process exists but belongs to someone we may not query.
		return errors.Is(err, windows.ERROR_ACCESS_DENIED)
	}
	defer windows.CloseHandle(h)

	var code uint32
	if err := windows.GetExitCodeProcess(h, &code); err != nil {
		return false
	}
	return code == stillActive
}
