package terminal

import (
	"os"
	"path/filepath"
	"runtime"
	"strings"

	"github.com/bmatcuk/doublestar/v4"
)

const (
	windowsShell      = "powershell.exe"
	fallbackUnixShell = "/bin/bash"
)

// ShellPolicy decides which program a new session runs. It is resolved once
// at startup and handed to the Manager.
type ShellPolicy struct {
	Program string
	Args    []string
}

// ResolveShellPolicy picks the shell for goos. An explicit override wins;
// otherwise Windows gets PowerShell and everything else gets $SHELL with a
// /bin/bash fallback.
func ResolveShellPolicy(goos, override string, getenv func(string) string) ShellPolicy {
	if override = strings.TrimSpace(override); override != "" {
		return ShellPolicy{Program: override}
	}
	if goos == "windows" {
		return ShellPolicy{Program: windowsShell}
	}
	if shell := strings.TrimSpace(getenv("SHELL")); shell != "" {
		return ShellPolicy{Program: shell}
	}
	return ShellPolicy{Program: fallbackUnixShell}
}

// DefaultShellPolicy resolves the policy for the running platform.
func DefaultShellPolicy(override string) ShellPolicy {
	return ResolveShellPolicy(runtime.GOOS, override, os.Getenv)
}

// resolveWorkingDir returns cwd when it names an existing directory, the home
// directory otherwise. substituted reports whether the fallback was taken.
func resolveWorkingDir(cwd string, exists func(string) bool, home func() (string, error)) (dir string, substituted bool) {
	if strings.TrimSpace(cwd) != "" && exists(cwd) {
		return cwd, false
	}
	if h, err := home(); err == nil && h != "" {
		return h, true
	}
	return os.TempDir(), true
}

// dirAllowed reports whether dir matches one of patterns. Patterns use
// doublestar syntax against the cleaned, slash-separated path, so
// "/home/*/projects/**" admits any directory below each user's projects.
func dirAllowed(patterns []string, dir string) bool {
	if len(patterns) == 0 {
		return true
	}
	path := filepath.ToSlash(filepath.Clean(dir))
	for _, pattern := range patterns {
		if ok, err := doublestar.Match(filepath.ToSlash(pattern), path); err == nil && ok {
			return true
		}
	}
	return false
}
