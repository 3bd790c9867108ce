// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 HoloMUSH Contributors

package sqlite

import (
	"context"
	"database/sql"
	"errors"

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
	err := s.db.QueryRowContext(ctx, `
		INSERT INTO worlds (name, created_at) VALUES (?, ?)
		ON CONFLICT (name) DO NOTHING
		RETURNING id
	`, name, s.now()).Scan(&id)
	if errors.Is(err, sql.ErrNoRows) {
		err = s.db.QueryRowContext(ctx, `SELECT id FROM worlds WHERE name = ?`, name).Scan(&id)
	}
	if err != nil {
		return 0, s.fail("resolve world", err, "world", name)
	}
	return protect.WorldID(id), nil
}

// ResolveActor returns the id of the actor with uuid, inserting it if absent
// and refreshing its display name.
func (s *Store) ResolveActor(ctx context.Context, uuid, displayName string) (protect.ActorID, error) {
	if uuid == "" {
		return 0, oops.Code("INVALID_ACTOR").Errorf("actor uuid is empty")
	}
	ctx, cancel := s.bounded(ctx)
	defer cancel()

	var id int64
	err := s.db.QueryRowContext(ctx, `
		INSERT INTO actors (uuid, display_name, created_at) VALUES (?, ?, ?)
		ON CONFLICT (uuid) DO UPDATE SET display_name = excluded.display_name
		RETURNING id
	`, uuid, displayName, s.now()).Scan(&id)
	if err != nil {
		return 0, s.fail("resolve actor", err, "actor_uuid", uuid)
	}
	return protect.ActorID(id), nil
}

// LookupWorld returns the id of the named world without creating it.
func (s *Store) LookupWorld(ctx context.Context, name string) (protect.WorldID, bool, error) {
	id, ok, err := s.lookupID(ctx, "lookup world", `SELECT id FROM worlds WHERE name = ?`, name)
	return protect.WorldID(id), ok, err
}

// LookupActor returns the id of the actor with uuid without creating it.
func (s *Store) LookupActor(ctx context.Context, uuid string) (protect.ActorID, bool, error) {
	id, ok, err := s.lookupID(ctx, "lookup actor", `SELECT id FROM actors WHERE uuid = ?`, uuid)
	return protect.ActorID(id), ok, err
}

// ActorName returns the stored display name of actor.
func (s *Store) ActorName(ctx context.Context, actor protect.ActorID) (string, error) {
	ctx, cancel := s.bounded(ctx)
	defer cancel()

	var name string
	err := s.db.QueryRowContext(ctx, `SELECT display_name FROM actors WHERE id = ?`, int64(actor)).Scan(&name)
	if errors.Is(err, sql.ErrNoRows) {
		return "", oops.Code(protect.CodeNotFound).With("actor_id", int64(actor)).Wrapf(protect.ErrNotFound, "actor %d", actor)
	}
	if err != nil {
		return "", s.fail("actor name", err, "actor_id", int64(actor))
	}
	return name, nil
}

// WorldExists reports whether the world row is present.
func (s *Store) WorldExists(ctx context.Context, world protect.WorldID) (bool, error) {
	return s.exists(ctx, "world exists", `SELECT EXISTS(SELECT 1 FROM worlds WHERE id = ?)`, int64(world))
}

// ActorExists reports whether the actor row is present.
func (s *Store) ActorExists(ctx context.Context, actor protect.ActorID) (bool, error) {
	return s.exists(ctx, "actor exists", `SELECT EXISTS(SELECT 1 FROM actors WHERE id = ?)`, int64(actor))
}

// IsProtected reports whether a record exists at pos.
func (s *Store) IsProtected(ctx context.Context, world protect.WorldID, pos protect.BlockPos) (bool, error) {
	return s.exists(ctx, "is protected",
		`SELECT EXISTS(SELECT 1 FROM protections WHERE world_id = ? AND x = ? AND y = ? AND z = ?)`,
		int64(world), pos.X, pos.Y, pos.Z)
}

// IsAnchor reports whether pos is the recorded anchor of some record.
func (s *Store) IsAnchor(ctx context.Context, world protect.WorldID, pos protect.BlockPos) (bool, error) {
	return s.exists(ctx, "is anchor",
		`SELECT EXISTS(SELECT 1 FROM protections WHERE world_id = ? AND anchor_x = ? AND anchor_y = ? AND anchor_z = ?)`,
		int64(world), pos.X, pos.Y, pos.Z)
}

// OwnerOf returns the owner of the record at pos.
func (s *Store) OwnerOf(ctx context.Context, world protect.WorldID, pos protect.BlockPos) (protect.ActorID, bool, error) {
	id, ok, err := s.lookupID(ctx, "owner of",
		`SELECT actor_id FROM protections WHERE world_id = ? AND x = ? AND y = ? AND z = ?`,
		int64(world), pos.X, pos.Y, pos.Z)
	return protect.ActorID(id), ok, err
}

// IsOwnedBy reports whether the record at pos belongs to actor.
func (s *Store) IsOwnedBy(ctx context.Context, world protect.WorldID, pos protect.BlockPos, actor protect.ActorID) (bool, error) {
	return s.exists(ctx, "is owned by",
		`SELECT EXISTS(SELECT 1 FROM protections WHERE world_id = ? AND x = ? AND y = ? AND z = ? AND actor_id = ?)`,
		int64(world), pos.X, pos.Y, pos.Z, int64(actor))
}

// AnchorInfo returns the recorded anchor of the record at pos.
func (s *Store) AnchorInfo(ctx context.Context, world protect.WorldID, pos protect.BlockPos) (protect.AnchorInfo, bool, error) {
	ctx, cancel := s.bounded(ctx)
	defer cancel()

	var (
		info           protect.AnchorInfo
		material, face string
	)
	err := s.db.QueryRowContext(ctx, `
		SELECT anchor_x, anchor_y, anchor_z, anchor_material, face
		FROM protections WHERE world_id = ? AND x = ? AND y = ? AND z = ?
	`, int64(world), pos.X, pos.Y, pos.Z).Scan(&info.Anchor.X, &info.Anchor.Y, &info.Anchor.Z, &material, &face)
	if errors.Is(err, sql.ErrNoRows) {
		return protect.AnchorInfo{}, false, nil
	}
	if err != nil {
		return protect.AnchorInfo{}, false, s.fail("anchor info", err, "pos", pos.String())
	}
	info.Material = protect.Material(material)
	info.Face = protect.Face(face)
	return info, true, nil
}

// Create inserts a record, failing with ALREADY_PROTECTED when the location
// is taken.
func (s *Store) Create(ctx context.Context, rec protect.NewRecord) error {
	ctx, cancel := s.bounded(ctx)
	defer cancel()

	res, err := s.db.ExecContext(ctx, `
		INSERT INTO protections (actor_id, world_id, x, y, z, face, anchor_x, anchor_y, anchor_z, anchor_material, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT (world_id, x, y, z) DO NOTHING
	`, int64(rec.Owner), int64(rec.World), rec.Pos.X, rec.Pos.Y, rec.Pos.Z, string(rec.Face),
		rec.Anchor.X, rec.Anchor.Y, rec.Anchor.Z, string(rec.AnchorMaterial), s.now())
	if err != nil {
		return s.fail("create", err, "pos", rec.Pos.String())
	}
	n, err := res.RowsAffected()
	if err != nil {
		return s.fail("create", err, "pos", rec.Pos.String())
	}
	if n == 0 {
		return oops.Code(protect.CodeAlreadyProtected).
			With("world_id", int64(rec.World)).
			With("pos", rec.Pos.String()).
			Wrapf(protect.ErrAlreadyProtected, "create at %s", rec.Pos)
	}
	return nil
}

// Remove deletes the record at pos and cascades its world and owner.
func (s *Store) Remove(ctx context.Context, world protect.WorldID, pos protect.BlockPos) error {
	owner, ok, err := s.lookupID(ctx, "remove",
		`DELETE FROM protections WHERE world_id = ? AND x = ? AND y = ? AND z = ? RETURNING actor_id`,
		int64(world), pos.X, pos.Y, pos.Z)
	if err != nil {
		return err
	}
	if !ok {
		return oops.Code(protect.CodeNotFound).
			With("world_id", int64(world)).
			With("pos", pos.String()).
			Wrapf(protect.ErrNotFound, "remove at %s", pos)
	}
	return s.Cascade(ctx, []protect.WorldID{world}, []protect.ActorID{protect.ActorID(owner)})
}

// Cascade deletes each given world and actor that no record references.
func (s *Store) Cascade(ctx context.Context, worlds []protect.WorldID, actors []protect.ActorID) error {
	for _, id := range protect.Distinct(worlds) {
		if err := s.execOne(ctx, "cascade world",
			`DELETE FROM worlds WHERE id = ?1 AND NOT EXISTS (SELECT 1 FROM protections WHERE world_id = ?1)`,
			int64(id)); err != nil {
			return err
		}
	}
	for _, id := range protect.Distinct(actors) {
		if err := s.execOne(ctx, "cascade actor",
			`DELETE FROM actors WHERE id = ?1 AND NOT EXISTS (SELECT 1 FROM protections WHERE actor_id = ?1)`,
			int64(id)); err != nil {
			return err
		}
	}
	return nil
}

// PurgeOlderThan deletes records created more than ageDays ago and cascades
// the worlds and actors they referenced.
func (s *Store) PurgeOlderThan(ctx context.Context, ageDays int) (int64, error) {
	if err := protect.ValidateAgeDays(ageDays); err != nil {
		return 0, err
	}
	cutoff := protect.Cutoff(s.clock(), ageDays).UTC().Unix()

	worlds, actors, err := s.deleteBefore(ctx, cutoff)
	if err != nil {
		return 0, err
	}
	if err := s.Cascade(ctx, worlds, actors); err != nil {
		return int64(len(worlds)), err
	}
	s.logger.Info("purged protections", "max_age_days", ageDays, "removed", len(worlds))
	return int64(len(worlds)), nil
}

func (s *Store) deleteBefore(ctx context.Context, cutoff int64) ([]protect.WorldID, []protect.ActorID, error) {
	ctx, cancel := s.bounded(ctx)
	defer cancel()

	rows, err := s.db.QueryContext(ctx,
		`DELETE FROM protections WHERE created_at < ? RETURNING world_id, actor_id`, cutoff)
	if err != nil {
		return nil, nil, s.fail("purge", err)
	}
	defer func() { _ = rows.Close() }()

	var (
		worlds []protect.WorldID
		actors []protect.ActorID
	)
	for rows.Next() {
		var w, a int64
		if err := rows.Scan(&w, &a); err != nil {
			return nil, nil, s.fail("purge", err)
		}
		worlds = append(worlds, protect.WorldID(w))
		actors = append(actors, protect.ActorID(a))
	}
	if err := rows.Err(); err != nil {
		return nil, nil, s.fail("purge", err)
	}
	return worlds, actors, nil
}

func (s *Store) lookupID(ctx context.Context, operation, query string, args ...any) (int64, bool, error) {
	ctx, cancel := s.bounded(ctx)
	defer cancel()

	var id int64
	err := s.db.QueryRowContext(ctx, query, args...).Scan(&id)
	if errors.Is(err, sql.ErrNoRows) {
		return 0, false, nil
	}
	if err != nil {
		return 0, false, s.fail(operation, err)
	}
	return id, true, nil
}

func (s *Store) exists(ctx context.Context, operation, query string, args ...any) (bool, error) {
	ctx, cancel := s.bounded(ctx)
	defer cancel()

	var ok bool
	if err := s.db.QueryRowContext(ctx, query, args...).Scan(&ok); err != nil {
		return false, s.fail(operation, err)
	}
	return ok, nil
}

func (s *Store) execOne(ctx context.Context, operation, query string, args ...any) error {
	ctx, cancel := s.bounded(ctx)
	defer cancel()

	if _, err := s.db.ExecContext(ctx, query, args...); err != nil {
		return s.fail(operation, err)
	}
	return nil
}
