package config

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
)

const envHome = "KEEP_RUNNER_HOME"

var (
	homeOnce sync.Once
	homeDir  string
)

// GetHome returns the keep-runner home directory, which holds browser profiles.
//
// Resolution order:
//  1. $KEEP_RUNNER_HOME
//  2. Parent of the binary's directory, when the binary sits in <home>/bin/
//  3. Current working directory
func GetHome() string {
	homeOnce.Do(func() {
		homeDir = resolveHome()
	})
	return homeDir
}

func resolveHome() string {
	if env := os.Getenv(envHome); env != "" {
		return env
	}
	if execPath, err := os.Executable(); err == nil {
		if resolved, err := filepath.EvalSymlinks(execPath); err == nil {
			execPath = resolved
		}
		if binDir := filepath.Dir(execPath); filepath.Base(binDir) == "bin" {
			return filepath.Dir(binDir)
		}
	}
	if cwd, err := os.Getwd(); err == nil {
		return cwd
	}
	return "."
}

// ResetHome resets the cached home directory (for testing).
func ResetHome() {
	homeOnce = sync.Once{}
	homeDir = ""
}

func profilesDir() string {
	return filepath.Join(GetHome(), "profiles")
}

// GetProfileDir returns <home>/profiles/<name>, a persistent browser profile.
// A signed-in profile lets scenarios skip the login page.
func GetProfileDir(name string) string {
	return filepath.Join(profilesDir(), name)
}

// EnsureProfileDir validates name and creates its profile directory.
func EnsureProfileDir(name string) (string, error) {
	if name == "" || name == "." || name == ".." || strings.ContainsAny(name, `/\`) {
		return "", fmt.Errorf("invalid profile name %q", name)
	}
	dir := GetProfileDir(name)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("create profile %s: %w", name, err)
	}
	return dir, nil
}

// ListProfiles returns the names of existing profiles, sorted.
func ListProfiles() ([]string, error) {
	entries, err := os.ReadDir(profilesDir())
	if os.IsNotExist(err) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	var names []string
	for _, e := range entries {
		if e.IsDir() {
			names = append(names, e.Name())
		}
	}
	sort.Strings(names)
	return names, nil
}
