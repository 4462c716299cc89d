//go:build unix

package proctree

import (
	"context"
	"os/exec"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func startTree(t *testing.T) *exec.Cmd {
	t.Helper()

	cmd := exec.Command("/bin/sh", "-c", "sleep 30 & sleep 30 & wait")
	require.NoError(t, cmd.Start())

	waited := make(chan struct{})
	go func() {
		_ = cmd.Wait()
		close(waited)
	}()
	t.Cleanup(func() {
		_ = cmd.Process.Kill()
		<-waited
	})
	return cmd
}

func TestKillTerminatesDescendants(t *testing.T) {
	cmd := startTree(t)
	pid := cmd.Process.Pid

	var kids []int
	require.Eventually(t, func() bool {
		var err error
		kids, err = Descendants(pid)
		return err == nil && len(kids) >= 2
	}, 5*time.Second, 20*time.Millisecond)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	require.NoError(t, Kill(ctx, pid))

	assert.False(t, Alive(pid))
	for _, kid := range kids {
		assert.False(t, Alive(kid), "descendant %d survived", kid)
	}
}

func TestKillAlreadyGone(t *testing.T) {
	cmd := exec.Command("/bin/sh", "-c", "exit 0")
	require.NoError(t, cmd.Run())

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	assert.NoError(t, Kill(ctx, cmd.Process.Pid))
}

func TestKillRejectsInvalidPID(t *testing.T) {
	for _, pid := range []int{-1, 0, 1} {
		err := Kill(context.Background(), pid)
		assert.ErrorIs(t, err, ErrInvalidPID)
	}
}

func TestWalkDeepestFirst(t *testing.T) {
	tree := map[int][]int{
		10: {11, 12},
		11: {13},
		13: {10}, // cycle back to root must not loop
	}
	got, err := walk(10, func(pid int) ([]int, error) { return tree[pid], nil })
	require.NoError(t, err)
	assert.Equal(t, []int{13, 11, 12}, got)
}
