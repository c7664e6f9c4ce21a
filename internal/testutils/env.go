// Package testutils holds helpers shared by package tests.
package testutils

import (
	"os"
	"path/filepath"
	"testing"
)

// SetEnv sets the given environment variables and returns a function that
// restores their previous values.
func SetEnv(t *testing.T, env map[string]string) func() {
	t.Helper()

	type saved struct {
		value string
		ok    bool
	}
	previous := make(map[string]saved, len(env))
	for k, v := range env {
		old, ok := os.LookupEnv(k)
		previous[k] = saved{value: old, ok: ok}
		if err := os.Setenv(k, v); err != nil {
			t.Fatalf("failed to set %s: %v", k, err)
		}
	}

	return func() {
		for k, p := range previous {
			if p.ok {
				os.Setenv(k, p.value)
			} else {
				os.Unsetenv(k)
			}
		}
	}
}

// WriteFile writes content to name inside a fresh temp directory and returns its path
func WriteFile(t *testing.T, name, content string) string {
	t.Helper()

	path := filepath.Join(t.TempDir(), name)
	if err := os.WriteFile(path, []byte(content), 0600); err != nil {
		t.Fatalf("failed to write %s: %v", path, err)
	}
	return path
}
