// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 HoloMUSH Contributors

// Package errutil holds helpers for logging and asserting oops errors.
package errutil

import (
	"context"
	"log/slog"

	"github.com/samber/oops"
)

// LogError logs err at error level. Oops errors contribute their code and
// context as structured attributes; extra attrs are appended as given.
func LogError(logger *slog.Logger, msg string, err error, attrs ...any) {
	LogErrorContext(context.Background(), logger, msg, err, attrs...)
}

// LogErrorContext is LogError with ctx passed to the handler, so trace
// correlation applies.
func LogErrorContext(ctx context.Context, logger *slog.Logger, msg string, err error, attrs ...any) {
	out := make([]any, 0, len(attrs)+6)
	if oopsErr, ok := oops.AsOops(err); ok {
		out = append(out, "error", oopsErr.Error())
		if code := oopsErr.Code(); code != nil && code != "" {
			out = append(out, "code", code)
		}
		if ctx := oopsErr.Context(); len(ctx) > 0 {
			out = append(out, "context", ctx)
		}
	} else {
		out = append(out, "error", err)
	}
	logger.ErrorContext(ctx, msg, append(out, attrs...)...)
}

// LogWarn is LogError at warn level, for failures the caller recovers from.
func LogWarn(logger *slog.Logger, msg string, err error, attrs ...any) {
	out := []any{"error", err.Error()}
	if oopsErr, ok := oops.AsOops(err); ok {
		if code := oopsErr.Code(); code != nil && code != "" {
			out = append(out, "code", code)
		}
	}
	logger.Warn(msg, append(out, attrs...)...)
}
