// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 HoloMUSH Contributors

package errutil_test

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"testing"

	"github.com/samber/oops"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/holomush/frameguard/pkg/errutil"
)

func decode(t *testing.T, buf *bytes.Buffer) map[string]any {
	t.Helper()
	var entry map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &entry))
	return entry
}

func TestLogError_WithOopsError(t *testing.T) {
	var buf bytes.Buffer
	logger := slog.New(slog.NewJSONHandler(&buf, nil))

	err := oops.Code("STORAGE_TIMEOUT").
		With("operation", "is protected").
		Errorf("deadline exceeded")

	errutil.LogError(logger, "storage operation failed", err, "world", "overworld")

	entry := decode(t, &buf)
	assert.Equal(t, "ERROR", entry["level"])
	assert.Equal(t, "storage operation failed", entry["msg"])
	assert.Equal(t, "STORAGE_TIMEOUT", entry["code"])
	assert.Equal(t, "overworld", entry["world"])
	ctx, ok := entry["context"].(map[string]any)
	require.True(t, ok)
	assert.Equal(t, "is protected", ctx["operation"])
}

func TestLogError_WithStandardError(t *testing.T) {
	var buf bytes.Buffer
	logger := slog.New(slog.NewJSONHandler(&buf, nil))

	errutil.LogError(logger, "operation failed", errors.New("standard error"))

	entry := decode(t, &buf)
	assert.Equal(t, "ERROR", entry["level"])
	assert.Contains(t, entry["error"], "standard error")
	assert.NotContains(t, entry, "code")
}

func TestLogWarn(t *testing.T) {
	var buf bytes.Buffer
	logger := slog.New(slog.NewJSONHandler(&buf, nil))

	errutil.LogWarn(logger, "lock rejected", oops.Code("ALREADY_PROTECTED").Errorf("taken"), "actor", "steve")

	entry := decode(t, &buf)
	assert.Equal(t, "WARN", entry["level"])
	assert.Equal(t, "ALREADY_PROTECTED", entry["code"])
	assert.Equal(t, "steve", entry["actor"])
}

type ctxKey struct{}

// ctxHandler copies a context value into every record it handles.
type ctxHandler struct{ slog.Handler }

func (h ctxHandler) Handle(ctx context.Context, r slog.Record) error {
	if v, ok := ctx.Value(ctxKey{}).(string); ok {
		r.AddAttrs(slog.String("from_ctx", v))
	}
	return h.Handler.Handle(ctx, r)
}

func TestLogErrorContext_PassesContextToHandler(t *testing.T) {
	var buf bytes.Buffer
	logger := slog.New(ctxHandler{slog.NewJSONHandler(&buf, nil)})
	ctx := context.WithValue(context.Background(), ctxKey{}, "decision-1")

	errutil.LogErrorContext(ctx, logger, "mediation failed closed", oops.Code("STORAGE_TIMEOUT").Errorf("slow"))

	entry := decode(t, &buf)
	assert.Equal(t, "decision-1", entry["from_ctx"])
	assert.Equal(t, "STORAGE_TIMEOUT", entry["code"])
}
