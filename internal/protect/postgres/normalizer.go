// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 HoloMUSH Contributors

package postgres

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/samber/oops"

	"github.com/holomush/frameguard/internal/protect"
)

// ResolveWorld returns the id of the named world, inserting it if absent.
func (s *Store) ResolveWorld(ctx context.Context, name string) (protect.WorldID, error) {
	if err := protect.ValidateWorldName(name); err != nil {
		return 0, err
	}
	ctx, cancel := s.bounded(ctx)
	defer cancel()

	var id int64
	err := s.pool.QueryRow(ctx, `
		INSERT INTO worlds (name, created_at) VALUES ($1, $2)
		ON CONFLICT (name) DO NOTHING
		RETURNING id
	`, name, s.clock().UTC()).Scan(&id)
	if err == nil {
		return protect.WorldID(id), nil
	}
	// No row back means another writer owns the name; so does a unique
	// violation that slipped past ON CONFLICT. Both re-read.
	if !errors.Is(err, pgx.ErrNoRows) && !isUniqueViolation(err) {
		return 0, s.fail("resolve world", err, "world", name)
	}

	err = s.pool.QueryRow(ctx, `SELECT id FROM worlds WHERE name = $1`, name).Scan(&id)
	if errors.Is(err, pgx.ErrNoRows) {
		return 0, oops.Code(protect.CodeStorageUnavailable).
			With("operation", "resolve world").
			With("world", name).
			Wrapf(protect.ErrStorageUnavailable, "world %q vanished during resolve", name)
	}
	if err != nil {
		return 0, s.fail("resolve world", err, "world", name)
	}
	return protect.WorldID(id), nil
}

// ResolveActor returns the id of the actor with uuid, inserting it if absent.
// The stored display name is refreshed to displayName.
func (s *Store) ResolveActor(ctx context.Context, uuid, displayName string) (protect.ActorID, error) {
	if uuid == "" {
		return 0, oops.Code("INVALID_ACTOR").Errorf("actor uuid is empty")
	}
	ctx, cancel := s.bounded(ctx)
	defer cancel()

	var id int64
	err := s.pool.QueryRow(ctx, `
		INSERT INTO actors (uuid, display_name, created_at) VALUES ($1, $2, $3)
		ON CONFLICT (uuid) DO UPDATE SET display_name = EXCLUDED.display_name
		RETURNING id
	`, uuid, displayName, s.clock().UTC()).Scan(&id)
	if err == nil {
		return protect.ActorID(id), nil
	}
	if !isUniqueViolation(err) {
		return 0, s.fail("resolve actor", err, "actor_uuid", uuid)
	}

	err = s.pool.QueryRow(ctx, `SELECT id FROM actors WHERE uuid = $1`, uuid).Scan(&id)
	if err != nil {
		return 0, s.fail("resolve actor", err, "actor_uuid", uuid)
	}
	return protect.ActorID(id), nil
}

// LookupWorld returns the id of the named world without creating it.
func (s *Store) LookupWorld(ctx context.Context, name string) (protect.WorldID, bool, error) {
	ctx, cancel := s.bounded(ctx)
	defer cancel()

	var id int64
	err := s.pool.QueryRow(ctx, `SELECT id FROM worlds WHERE name = $1`, name).Scan(&id)
	if errors.Is(err, pgx.ErrNoRows) {
		return 0, false, nil
	}
	if err != nil {
		return 0, false, s.fail("lookup world", err, "world", name)
	}
	return protect.WorldID(id), true, nil
}

// LookupActor returns the id of the actor with uuid without creating it.
func (s *Store) LookupActor(ctx context.Context, uuid string) (protect.ActorID, bool, error) {
	ctx, cancel := s.bounded(ctx)
	defer cancel()

	var id int64
	err := s.pool.QueryRow(ctx, `SELECT id FROM actors WHERE uuid = $1`, uuid).Scan(&id)
	if errors.Is(err, pgx.ErrNoRows) {
		return 0, false, nil
	}
	if err != nil {
		return 0, false, s.fail("lookup actor", err, "actor_uuid", uuid)
	}
	return protect.ActorID(id), true, nil
}

// ActorName returns the last seen display name of an actor.
func (s *Store) ActorName(ctx context.Context, actor protect.ActorID) (string, error) {
	ctx, cancel := s.bounded(ctx)
	defer cancel()

	var name string
	err := s.pool.QueryRow(ctx, `SELECT display_name FROM actors WHERE id = $1`, int64(actor)).Scan(&name)
	if errors.Is(err, pgx.ErrNoRows) {
		return "", oops.Code(protect.CodeNotFound).With("actor_id", int64(actor)).Wrapf(protect.ErrNotFound, "actor %d", actor)
	}
	if err != nil {
		return "", s.fail("actor name", err, "actor_id", int64(actor))
	}
	return name, nil
}

// WorldExists reports whether the world row is present.
func (s *Store) WorldExists(ctx context.Context, world protect.WorldID) (bool, error) {
	return s.exists(ctx, "world exists", `SELECT EXISTS(SELECT 1 FROM worlds WHERE id = $1)`, int64(world))
}

// ActorExists reports whether the actor row is present.
func (s *Store) ActorExists(ctx context.Context, actor protect.ActorID) (bool, error) {
	return s.exists(ctx, "actor exists", `SELECT EXISTS(SELECT 1 FROM actors WHERE id = $1)`, int64(actor))
}

func (s *Store) exists(ctx context.Context, operation, query string, args ...any) (bool, error) {
	ctx, cancel := s.bounded(ctx)
	defer cancel()

	var ok bool
	if err := s.pool.QueryRow(ctx, query, args...).Scan(&ok); err != nil {
		return false, s.fail(operation, err)
	}
	return ok, nil
}
