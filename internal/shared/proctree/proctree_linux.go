//go:build linux

package proctree

import (
	"github.com/prometheus/procfs"
)

func descendants(pid int) ([]int, error) {
	fs, err := procfs.NewDefaultFS()
	if err != nil {
		return nil, err
	}
	procs, err := fs.AllProcs()
	if err != nil {
		return nil, err
	}

	tree := make(map[int][]int, len(procs))
	for _, p := range procs {
		stat, err := p.Stat()
		if err != nil {
			// Exited between listing and reading.
			continue
		}
		if isDead(stat.State) {
			continue
		}
		tree[stat.PPID] = append(tree[stat.PPID], stat.PID)
	}

	return walk(pid, func(parent int) ([]int, error) {
		return tree[parent], nil
	})
}

func alive(pid int) bool {
	p, err := procfs.NewProc(pid)
	if err != nil {
		return false
	}
	stat, err := p.Stat()
	if err != nil {
		return false
	}
	return !isDead(stat.State)
}

// isDead treats zombies as gone: they hold no resources beyond a table slot
// and are reaped by whoever owns them.
func isDead(state string) bool {
	return state == "Z" || state == "X" || state == "x"
}
