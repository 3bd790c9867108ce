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

// IsProtected reports whether a record exists at pos.
func (s *Store) IsProtected(ctx context.Context, world protect.WorldID, pos protect.BlockPos) (bool, error) {
	return s.exists(ctx, "is protected", `
		SELECT EXISTS(SELECT 1 FROM protections WHERE world_id = $1 AND x = $2 AND y = $3 AND z = $4)
	`, int64(world), pos.X, pos.Y, pos.Z)
}

// IsAnchor reports whether pos is the recorded anchor of some record.
func (s *Store) IsAnchor(ctx context.Context, world protect.WorldID, pos protect.BlockPos) (bool, error) {
	return s.exists(ctx, "is anchor", `
		SELECT EXISTS(SELECT 1 FROM protections WHERE world_id = $1 AND anchor_x = $2 AND anchor_y = $3 AND anchor_z = $4)
	`, int64(world), pos.X, pos.Y, pos.Z)
}

// OwnerOf returns the owner of the record at pos.
func (s *Store) OwnerOf(ctx context.Context, world protect.WorldID, pos protect.BlockPos) (protect.ActorID, bool, error) {
	ctx, cancel := s.bounded(ctx)
	defer cancel()

	var owner int64
	err := s.pool.QueryRow(ctx, `
		SELECT actor_id FROM protections WHERE world_id = $1 AND x = $2 AND y = $3 AND z = $4
	`, int64(world), pos.X, pos.Y, pos.Z).Scan(&owner)
	if errors.Is(err, pgx.ErrNoRows) {
		return 0, false, nil
	}
	if err != nil {
		return 0, false, s.fail("owner of", err, "world_id", int64(world), "pos", pos.String())
	}
	return protect.ActorID(owner), true, nil
}

// IsOwnedBy reports whether the record at pos belongs to actor.
func (s *Store) IsOwnedBy(ctx context.Context, world protect.WorldID, pos protect.BlockPos, actor protect.ActorID) (bool, error) {
	return s.exists(ctx, "is owned by", `
		SELECT EXISTS(SELECT 1 FROM protections WHERE world_id = $1 AND x = $2 AND y = $3 AND z = $4 AND actor_id = $5)
	`, int64(world), pos.X, pos.Y, pos.Z, int64(actor))
}

// AnchorInfo returns the recorded anchor of the record at pos.
func (s *Store) AnchorInfo(ctx context.Context, world protect.WorldID, pos protect.BlockPos) (protect.AnchorInfo, bool, error) {
	ctx, cancel := s.bounded(ctx)
	defer cancel()

	var (
		info     protect.AnchorInfo
		material string
		face     string
	)
	err := s.pool.QueryRow(ctx, `
		SELECT anchor_x, anchor_y, anchor_z, anchor_material, face
		FROM protections WHERE world_id = $1 AND x = $2 AND y = $3 AND z = $4
	`, int64(world), pos.X, pos.Y, pos.Z).Scan(&info.Anchor.X, &info.Anchor.Y, &info.Anchor.Z, &material, &face)
	if errors.Is(err, pgx.ErrNoRows) {
		return protect.AnchorInfo{}, false, nil
	}
	if err != nil {
		return protect.AnchorInfo{}, false, s.fail("anchor info", err, "world_id", int64(world), "pos", pos.String())
	}
	info.Material = protect.Material(material)
	info.Face = protect.Face(face)
	return info, true, nil
}

// Create inserts a record. The unique location constraint makes concurrent
// creates at one location admit exactly one winner.
func (s *Store) Create(ctx context.Context, rec protect.NewRecord) error {
	ctx, cancel := s.bounded(ctx)
	defer cancel()

	_, err := s.pool.Exec(ctx, `
		INSERT INTO protections (actor_id, world_id, x, y, z, face, anchor_x, anchor_y, anchor_z, anchor_material, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
	`, int64(rec.Owner), int64(rec.World), rec.Pos.X, rec.Pos.Y, rec.Pos.Z, string(rec.Face),
		rec.Anchor.X, rec.Anchor.Y, rec.Anchor.Z, string(rec.AnchorMaterial), s.clock().UTC())
	if isUniqueViolation(err) {
		return oops.Code(protect.CodeAlreadyProtected).
			With("world_id", int64(rec.World)).
			With("pos", rec.Pos.String()).
			Wrapf(protect.ErrAlreadyProtected, "create at %s", rec.Pos)
	}
	if err != nil {
		return s.fail("create", err, "world_id", int64(rec.World), "pos", rec.Pos.String())
	}
	return nil
}

// Remove deletes the record at pos and cascades its world and owner.
func (s *Store) Remove(ctx context.Context, world protect.WorldID, pos protect.BlockPos) error {
	owner, err := s.deleteAt(ctx, world, pos)
	if err != nil {
		return err
	}
	return s.Cascade(ctx, []protect.WorldID{world}, []protect.ActorID{owner})
}

func (s *Store) deleteAt(ctx context.Context, world protect.WorldID, pos protect.BlockPos) (protect.ActorID, error) {
	ctx, cancel := s.bounded(ctx)
	defer cancel()

	var owner int64
	err := s.pool.QueryRow(ctx, `
		DELETE FROM protections WHERE world_id = $1 AND x = $2 AND y = $3 AND z = $4
		RETURNING actor_id
	`, int64(world), pos.X, pos.Y, pos.Z).Scan(&owner)
	if errors.Is(err, pgx.ErrNoRows) {
		return 0, oops.Code(protect.CodeNotFound).
			With("world_id", int64(world)).
			With("pos", pos.String()).
			Wrapf(protect.ErrNotFound, "remove at %s", pos)
	}
	if err != nil {
		return 0, s.fail("remove", err, "world_id", int64(world), "pos", pos.String())
	}
	return protect.ActorID(owner), nil
}
