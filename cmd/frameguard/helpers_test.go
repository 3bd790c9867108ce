// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 HoloMUSH Contributors

package main

import (
	"bytes"
	"context"
	"io"
	"path/filepath"
	"testing"
)

// isolate points every XDG lookup at a fresh directory so no user config
// leaks into a test.
func isolate(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	t.Setenv("XDG_CONFIG_HOME", filepath.Join(dir, "config"))
	t.Setenv("XDG_DATA_HOME", filepath.Join(dir, "data"))
	return dir
}

func quietDeps() *Deps {
	return &Deps{
		Getenv:    func(string) string { return "" },
		LogOutput: io.Discard,
	}
}

func execute(deps *Deps, args ...string) (string, error) {
	return executeContext(context.Background(), deps, args...)
}

func executeContext(ctx context.Context, deps *Deps, args ...string) (string, error) {
	cmd := newRootCmd(deps)
	buf := new(bytes.Buffer)
	cmd.SetOut(buf)
	cmd.SetErr(buf)
	cmd.SetArgs(args)
	err := cmd.ExecuteContext(ctx)
	return buf.String(), err
}
