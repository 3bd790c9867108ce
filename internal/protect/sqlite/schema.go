// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 HoloMUSH Contributors

package sqlite

var pragmas = []string{
	"PRAGMA journal_mode=WAL;",
	"PRAGMA synchronous=NORMAL;",
	"PRAGMA foreign_keys=ON;",
	"PRAGMA busy_timeout=5000;",
}

// created_at columns hold unix seconds.
var schema = []string{
	`CREATE TABLE IF NOT EXISTS worlds (
		id         INTEGER PRIMARY KEY AUTOINCREMENT,
		name       TEXT    NOT NULL UNIQUE,
		created_at INTEGER NOT NULL
	);`,
	`CREATE TABLE IF NOT EXISTS actors (
		id           INTEGER PRIMARY KEY AUTOINCREMENT,
		uuid         TEXT    NOT NULL UNIQUE,
		display_name TEXT    NOT NULL DEFAULT '',
		created_at   INTEGER NOT NULL
	);`,
	`CREATE TABLE IF NOT EXISTS protections (
		id              INTEGER PRIMARY KEY AUTOINCREMENT,
		actor_id        INTEGER NOT NULL REFERENCES actors (id),
		world_id        INTEGER NOT NULL REFERENCES worlds (id),
		x               INTEGER NOT NULL,
		y               INTEGER NOT NULL,
		z               INTEGER NOT NULL,
		face            TEXT    NOT NULL,
		anchor_x        INTEGER NOT NULL,
		anchor_y        INTEGER NOT NULL,
		anchor_z        INTEGER NOT NULL,
		anchor_material TEXT    NOT NULL,
		created_at      INTEGER NOT NULL,
		UNIQUE (world_id, x, y, z)
	);`,
	`CREATE INDEX IF NOT EXISTS idx_protections_anchor ON protections (world_id, anchor_x, anchor_y, anchor_z);`,
	`CREATE INDEX IF NOT EXISTS idx_protections_created_at ON protections (created_at);`,
	`CREATE INDEX IF NOT EXISTS idx_protections_owner ON protections (actor_id, world_id, x, y, z);`,
	`CREATE INDEX IF NOT EXISTS idx_actors_display_name ON actors (display_name);`,
}
