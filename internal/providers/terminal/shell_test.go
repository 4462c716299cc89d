package terminal

import (
	"errors"
	"os"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestResolveShellPolicy(t *testing.T) {
	env := func(vars map[string]string) func(string) string {
		return func(k string) string { return vars[k] }
	}

	tests := []struct {
		name     string
		goos     string
		override string
		env      map[string]string
		want     string
	}{
		{"override wins", "linux", "/bin/zsh", map[string]string{"SHELL": "/bin/fish"}, "/bin/zsh"},
		{"windows uses powershell", "windows", "", map[string]string{"SHELL": "/bin/bash"}, "powershell.exe"},
		{"unix uses SHELL", "darwin", "", map[string]string{"SHELL": "/bin/zsh"}, "/bin/zsh"},
		{"unix falls back to bash", "linux", "", nil, "/bin/bash"},
		{"blank override ignored", "linux", "  ", map[string]string{"SHELL": "/bin/dash"}, "/bin/dash"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			policy := ResolveShellPolicy(tt.goos, tt.override, env(tt.env))
			assert.Equal(t, tt.want, policy.Program)
		})
	}
}

func TestResolveWorkingDir(t *testing.T) {
	exists := func(p string) bool { return p == "/work" }
	home := func() (string, error) { return "/home/me", nil }

	dir, substituted := resolveWorkingDir("/work", exists, home)
	assert.Equal(t, "/work", dir)
	assert.False(t, substituted)

	dir, substituted = resolveWorkingDir("/missing", exists, home)
	assert.Equal(t, "/home/me", dir)
	assert.True(t, substituted)

	dir, substituted = resolveWorkingDir("", exists, home)
	assert.Equal(t, "/home/me", dir)
	assert.True(t, substituted)

	noHome := func() (string, error) { return "", errors.New("no home") }
	dir, _ = resolveWorkingDir("/missing", exists, noHome)
	assert.Equal(t, os.TempDir(), dir)
}

func TestDirAllowed(t *testing.T) {
	tests := []struct {
		name     string
		patterns []string
		dir      string
		want     bool
	}{
		{"no patterns", nil, "/anywhere", true},
		{"exact", []string{"/srv/work"}, "/srv/work", true},
		{"trailing slash cleaned", []string{"/srv/work"}, "/srv/work/", true},
		{"double star", []string{"/home/*/projects/**"}, "/home/ana/projects/api/src", true},
		{"single star is one segment", []string{"/home/*"}, "/home/ana/projects", false},
		{"outside", []string{"/srv/**"}, "/etc", false},
		{"dot dot cleaned", []string{"/srv/**"}, "/srv/../etc", false},
		{"any of several", []string{"/tmp/**", "/srv/**"}, "/srv/x", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, dirAllowed(tt.patterns, tt.dir))
		})
	}
}

func TestSplitIncompleteRune(t *testing.T) {
	euro := []byte("€") // 3 bytes

	tests := []struct {
		name         string
		in           []byte
		wantComplete string
		wantRest     []byte
	}{
		{"ascii", []byte("abc"), "abc", nil},
		{"complete rune", append([]byte("a"), euro...), "a€", nil},
		{"one byte of three", append([]byte("a"), euro[0]), "a", euro[:1]},
		{"two bytes of three", append([]byte("a"), euro[:2]...), "a", euro[:2]},
		{"lone continuation byte", []byte{'a', 0x80}, "a\x80", nil},
		{"empty", nil, "", nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			complete, rest := splitIncompleteRune(tt.in)
			assert.Equal(t, tt.wantComplete, string(complete))
			assert.Equal(t, tt.wantRest, rest)
		})
	}
}

func TestExitBanner(t *testing.T) {
	assert.Equal(t, "\r\n\x1b[31mSession ended (Code 0). Reload to restart.\x1b[0m\r\n", exitBanner(0))
	assert.Contains(t, exitBanner(137), "Code 137")
}

func TestOptionsDefaults(t *testing.T) {
	opts := Options{Cols: 132}.withDefaults()

	assert.Equal(t, 132, opts.Cols)
	assert.Equal(t, 24, opts.Rows)
	assert.Equal(t, "xterm-256color", opts.Term)
	assert.Equal(t, 5*time.Second, opts.KillTimeout)
	assert.NotNil(t, opts.DirExists)
	assert.NotNil(t, opts.HomeDir)

	opts = Options{Cols: 70000, Rows: -1}.withDefaults()
	assert.Equal(t, 80, opts.Cols)
	assert.Equal(t, 24, opts.Rows)
}

func TestKeyedMutexSerializesPerKey(t *testing.T) {
	var k keyedMutex
	var mu sync.Mutex
	active, peak := 0, 0

	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			unlock := k.Lock("same")
			defer unlock()

			mu.Lock()
			active++
			if active > peak {
				peak = active
			}
			mu.Unlock()

			time.Sleep(time.Millisecond)

			mu.Lock()
			active--
			mu.Unlock()
		}()
	}
	wg.Wait()

	assert.Equal(t, 1, peak)
	assert.Empty(t, k.locks)
}

func TestKeyedMutexIndependentKeys(t *testing.T) {
	var k keyedMutex

	unlockA := k.Lock("a")
	done := make(chan struct{})
	go func() {
		unlockB := k.Lock("b")
		unlockB()
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("lock on b blocked behind a")
	}
	unlockA()
}
