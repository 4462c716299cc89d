//go:build windows

package proctree

import (
	"context"
	"os/exec"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAliveTracksExit(t *testing.T) {
	cmd := exec.Command("ping", "-n", "30", "127.0.0.1")
	require.NoError(t, cmd.Start())
	pid := cmd.Process.Pid

	assert.True(t, Alive(pid))

	require.NoError(t, Kill(context.Background(), pid))
	_ = cmd.Wait()

	assert.Eventually(t, func() bool {
		return !Alive(pid)
	}, 5*time.Second, 50*time.Millisecond)
}
