// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 HoloMUSH Contributors

package protect

import (
	"context"
	"errors"

	"github.com/samber/oops"
)

// Error codes attached to every error leaving the store or the engine.
const (
	CodeNotFound           = "PROTECTION_NOT_FOUND"
	CodeAlreadyProtected   = "ALREADY_PROTECTED"
	CodeInvalidAnchor      = "INVALID_ANCHOR"
	CodeTargetInLiquid     = "TARGET_IN_LIQUID"
	CodeNotOwner           = "NOT_OWNER"
	CodeInvalidLocation    = "INVALID_LOCATION"
	CodeStorageUnavailable = "STORAGE_UNAVAILABLE"
	CodeStorageTimeout     = "STORAGE_TIMEOUT"
	CodeInvalidArgument    = "INVALID_ARGUMENT"
)

// Sentinel errors wrapped by the coded errors above.
var (
	ErrNotFound           = errors.New("protection not found")
	ErrAlreadyProtected   = errors.New("location already protected")
	ErrInvalidAnchor      = errors.New("anchor block is air or liquid")
	ErrTargetInLiquid     = errors.New("decoration is inside a liquid")
	ErrNotOwner           = errors.New("actor does not own the protection")
	ErrInvalidLocation    = errors.New("invalid location")
	ErrStorageUnavailable = errors.New("storage unavailable")
	ErrStorageTimeout     = errors.New("storage timeout")
)

// StorageError converts a raw driver error into the storage taxonomy. A
// context deadline becomes STORAGE_TIMEOUT, anything else STORAGE_UNAVAILABLE.
func StorageError(operation string, err error) error {
	if errors.Is(err, context.DeadlineExceeded) {
		StorageFailures.WithLabelValues(operation, CodeStorageTimeout).Inc()
		return oops.Code(CodeStorageTimeout).
			With("operation", operation).
			Wrapf(ErrStorageTimeout, "%s: %v", operation, err)
	}
	StorageFailures.WithLabelValues(operation, CodeStorageUnavailable).Inc()
	return oops.Code(CodeStorageUnavailable).
		With("operation", operation).
		Wrapf(ErrStorageUnavailable, "%s: %v", operation, err)
}

// IsStorageError reports whether err belongs to the storage part of the
// taxonomy, i.e. the caller must fail closed.
func IsStorageError(err error) bool {
	return errors.Is(err, ErrStorageUnavailable) || errors.Is(err, ErrStorageTimeout)
}

// Code returns the oops code carried by err, or "" when there is none.
func Code(err error) string {
	oopsErr, ok := oops.AsOops(err)
	if !ok {
		return ""
	}
	code, _ := any(oopsErr.Code()).(string)
	return code
}
