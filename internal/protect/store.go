// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 HoloMUSH Contributors

package protect

import (
	"context"
	"time"
)

// Normalizer maps host identities to internal ids.
//
// The Resolve methods are idempotent upserts and may create rows. The Lookup
// methods never write; they report ok=false when no row exists.
type Normalizer interface {
	ResolveWorld(ctx context.Context, name string) (WorldID, error)
	ResolveActor(ctx context.Context, uuid, displayName string) (ActorID, error)
	LookupWorld(ctx context.Context, name string) (id WorldID, ok bool, err error)
	LookupActor(ctx context.Context, uuid string) (id ActorID, ok bool, err error)
}

// Store is the durable protection table plus its world/actor masters.
//
// All errors are coded (see errors.go); driver errors never escape.
type Store interface {
	Normalizer

	IsProtected(ctx context.Context, world WorldID, pos BlockPos) (bool, error)
	// IsAnchor reports whether pos is the recorded anchor block of some record.
	IsAnchor(ctx context.Context, world WorldID, pos BlockPos) (bool, error)
	OwnerOf(ctx context.Context, world WorldID, pos BlockPos) (owner ActorID, ok bool, err error)
	IsOwnedBy(ctx context.Context, world WorldID, pos BlockPos, actor ActorID) (bool, error)
	AnchorInfo(ctx context.Context, world WorldID, pos BlockPos) (info AnchorInfo, ok bool, err error)
	ActorName(ctx context.Context, actor ActorID) (string, error)

	// Create fails with ALREADY_PROTECTED when a record exists at the location.
	Create(ctx context.Context, rec NewRecord) error
	// Remove fails with PROTECTION_NOT_FOUND when nothing is stored at the
	// location. The owning actor and world are cascaded afterwards.
	Remove(ctx context.Context, world WorldID, pos BlockPos) error
	// PurgeOlderThan deletes records created before now minus ageDays and
	// cascades every world and actor they referenced.
	PurgeOlderThan(ctx context.Context, ageDays int) (int64, error)
	// Cascade deletes the given worlds and actors if no record references them.
	Cascade(ctx context.Context, worlds []WorldID, actors []ActorID) error

	WorldExists(ctx context.Context, world WorldID) (bool, error)
	ActorExists(ctx context.Context, actor ActorID) (bool, error)

	Ping(ctx context.Context) error
	Close()
}

// Cutoff returns the creation time before which records are older than
// ageDays at now. Days are calendar days, so the result never overflows into
// the future.
func Cutoff(now time.Time, ageDays int) time.Time {
	return now.AddDate(0, 0, -ageDays)
}

// Distinct returns the input ids with duplicates removed, keeping first
// occurrence order.
func Distinct[T comparable](ids []T) []T {
	seen := make(map[T]struct{}, len(ids))
	out := make([]T, 0, len(ids))
	for _, id := range ids {
		if _, dup := seen[id]; dup {
			continue
		}
		seen[id] = struct{}{}
		out = append(out, id)
	}
	return out
}
