// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 HoloMUSH Contributors

package errutil

import (
	"errors"
	"testing"

	"github.com/samber/oops"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// AssertErrorCode asserts that err carries the oops code. The deepest code
// in the chain wins, as with oops itself.
func AssertErrorCode(t testing.TB, err error, code string) {
	t.Helper()
	oopsErr, ok := oops.AsOops(err)
	require.True(t, ok, "expected oops error, got %T: %v", err, err)
	got, _ := oopsErr.Code().(string)
	assert.Equal(t, code, got)
}

// AssertDomainError asserts both the oops code and the sentinel of a
// protection outcome such as NOT_OWNER or ALREADY_PROTECTED.
func AssertDomainError(t testing.TB, err error, code string, sentinel error) {
	t.Helper()
	require.Error(t, err)
	AssertErrorCode(t, err, code)
	assert.True(t, errors.Is(err, sentinel), "expected %v in chain of %v", sentinel, err)
}

// AssertErrorContext asserts that err carries key=value in its oops context.
func AssertErrorContext(t testing.TB, err error, key string, value any) {
	t.Helper()
	oopsErr, ok := oops.AsOops(err)
	require.True(t, ok, "expected oops error, got %T: %v", err, err)
	ctx := oopsErr.Context()
	require.Contains(t, ctx, key)
	assert.Equal(t, value, ctx[key])
}
