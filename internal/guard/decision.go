// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 HoloMUSH Contributors

package guard

import (
	"github.com/oklog/ulid/v2"

	"github.com/holomush/frameguard/internal/messages"
	"github.com/holomush/frameguard/internal/protect"
)

// Verdict tells the host whether to let a mutation proceed. The zero value
// is Deny.
type Verdict int

// Verdicts.
const (
	Deny Verdict = iota
	Allow
)

func (v Verdict) String() string {
	if v == Allow {
		return "allow"
	}
	return "deny"
}

// Reason codes attached to decisions.
const (
	ReasonUnprotected     = "unprotected"
	ReasonIgnoredWorld    = "ignored_world"
	ReasonNotDecoration   = "not_decoration"
	ReasonOwner           = "owner"
	ReasonProtected       = "protected"
	ReasonAnchor          = "anchor"
	ReasonNotOwner        = "not_owner"
	ReasonIntent          = "intent"
	ReasonRestored        = "restored"
	ReasonEmptyVacated    = "vacated_empty"
	ReasonStorageError    = "storage_error"
	ReasonInvalidLocation = "invalid_location"
	ReasonGeometryError   = "geometry_error"
)

// Notice is a message the host should show an actor.
type Notice struct {
	ActorUUID string
	Key       messages.Key
	Text      string
}

// BlockWrite is a block change the host must apply to restore the world.
type BlockWrite struct {
	World    string
	Pos      protect.BlockPos
	Material protect.Material
}

// Decision is the engine's answer to one Notification.
type Decision struct {
	ID       ulid.ULID
	Kind     Kind
	Verdict  Verdict
	Reason   string
	Notices  []Notice
	Rewrites []BlockWrite
}

// Denied reports whether the host must cancel the mutation. Only an
// explicit Allow lets it proceed.
func (d Decision) Denied() bool {
	return d.Verdict != Allow
}

func (d *Decision) allow(reason string) {
	d.Verdict = Allow
	d.Reason = reason
}

func (d *Decision) deny(reason string) {
	d.Verdict = Deny
	d.Reason = reason
}
