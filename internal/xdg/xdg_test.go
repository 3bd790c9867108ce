// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 HoloMUSH Contributors

package xdg

import (
	"os"
	"path/filepath"
	"testing"
)

func TestDirs(t *testing.T) {
	tests := []struct {
		name     string
		env      string
		fn       func() string
		override string
		fallback string
	}{
		{"config", "XDG_CONFIG_HOME", ConfigDir, "/custom/config/frameguard", "/home/testuser/.config/frameguard"},
		{"data", "XDG_DATA_HOME", DataDir, "/custom/data/frameguard", "/home/testuser/.local/share/frameguard"},
		{"state", "XDG_STATE_HOME", StateDir, "/custom/state/frameguard", "/home/testuser/.local/state/frameguard"},
	}
	for _, tt := range tests {
		t.Run(tt.name+"/env", func(t *testing.T) {
			t.Setenv(tt.env, filepath.Dir(tt.override))
			if got := tt.fn(); got != tt.override {
				t.Errorf("got %q, want %q", got, tt.override)
			}
		})
		t.Run(tt.name+"/default", func(t *testing.T) {
			t.Setenv(tt.env, "")
			t.Setenv("HOME", "/home/testuser")
			if got := tt.fn(); got != tt.fallback {
				t.Errorf("got %q, want %q", got, tt.fallback)
			}
		})
	}
}

func TestDefaultFiles(t *testing.T) {
	t.Setenv("XDG_CONFIG_HOME", "/cfg")
	t.Setenv("XDG_DATA_HOME", "/data")

	if got, want := ConfigFile(), "/cfg/frameguard/config.yaml"; got != want {
		t.Errorf("ConfigFile() = %q, want %q", got, want)
	}
	if got, want := DatabaseFile(), "/data/frameguard/frameguard.db"; got != want {
		t.Errorf("DatabaseFile() = %q, want %q", got, want)
	}
}

func TestEnsureDir(t *testing.T) {
	path := filepath.Join(t.TempDir(), "a", "b")
	if err := EnsureDir(path); err != nil {
		t.Fatalf("EnsureDir() error = %v", err)
	}
	info, err := os.Stat(path)
	if err != nil {
		t.Fatalf("stat: %v", err)
	}
	if !info.IsDir() {
		t.Errorf("%s is not a directory", path)
	}
	if perm := info.Mode().Perm(); perm != 0o700 {
		t.Errorf("perm = %o, want 700", perm)
	}
}
