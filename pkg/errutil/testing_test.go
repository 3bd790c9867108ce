// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 HoloMUSH Contributors

package errutil_test

import (
	"errors"
	"testing"

	"github.com/samber/oops"

	"github.com/holomush/frameguard/pkg/errutil"
)

var errNotOwner = errors.New("not the owner")

func TestAssertErrorCode_MatchingCode(t *testing.T) {
	err := oops.Code("NOT_OWNER").Errorf("someone else's frame")
	errutil.AssertErrorCode(t, err, "NOT_OWNER")
}

func TestAssertDomainError_CodeAndSentinel(t *testing.T) {
	err := oops.Code("NOT_OWNER").With("pos", "1,65,1").Wrapf(errNotOwner, "unlock")
	errutil.AssertDomainError(t, err, "NOT_OWNER", errNotOwner)
}

func TestAssertErrorContext_MatchingKeyValue(t *testing.T) {
	err := oops.With("world", "overworld").Errorf("test error")
	errutil.AssertErrorContext(t, err, "world", "overworld")
}
