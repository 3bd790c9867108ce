// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 HoloMUSH Contributors

package postgres

import (
	"context"
	"time"

	"github.com/holomush/frameguard/internal/protect"
)

// Cascade deletes each world and actor no record references. The reference
// check and the delete are one statement, so a concurrent Create that
// committed first keeps its master rows.
func (s *Store) Cascade(ctx context.Context, worlds []protect.WorldID, actors []protect.ActorID) error {
	for _, id := range protect.Distinct(worlds) {
		if err := s.cascadeOne(ctx, "cascade world", `
			DELETE FROM worlds WHERE id = $1
			AND NOT EXISTS (SELECT 1 FROM protections WHERE world_id = $1)
		`, int64(id)); err != nil {
			return err
		}
	}
	for _, id := range protect.Distinct(actors) {
		if err := s.cascadeOne(ctx, "cascade actor", `
			DELETE FROM actors WHERE id = $1
			AND NOT EXISTS (SELECT 1 FROM protections WHERE actor_id = $1)
		`, int64(id)); err != nil {
			return err
		}
	}
	return nil
}

func (s *Store) cascadeOne(ctx context.Context, operation, query string, id int64) error {
	ctx, cancel := s.bounded(ctx)
	defer cancel()

	tag, err := s.pool.Exec(ctx, query, id)
	if err != nil {
		return s.fail(operation, err, "id", id)
	}
	if tag.RowsAffected() > 0 {
		s.logger.Debug("master row removed", "operation", operation, "id", id)
	}
	return nil
}

// PurgeOlderThan deletes every record created more than ageDays ago, then
// cascades the worlds and actors those records referenced.
func (s *Store) PurgeOlderThan(ctx context.Context, ageDays int) (int64, error) {
	if err := protect.ValidateAgeDays(ageDays); err != nil {
		return 0, err
	}
	cutoff := protect.Cutoff(s.clock(), ageDays).UTC()

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

// deleteBefore removes the old records in one statement and returns the
// world and actor id of every removed row.
func (s *Store) deleteBefore(ctx context.Context, cutoff time.Time) ([]protect.WorldID, []protect.ActorID, error) {
	ctx, cancel := s.bounded(ctx)
	defer cancel()

	rows, err := s.pool.Query(ctx, `
		DELETE FROM protections WHERE created_at < $1
		RETURNING world_id, actor_id
	`, cutoff)
	if err != nil {
		return nil, nil, s.fail("purge", err)
	}
	defer rows.Close()

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
