// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 HoloMUSH Contributors

// Package protect defines the protection ownership model: worlds, actors,
// protection records and the store contract the mediation engine relies on.
package protect

import (
	"fmt"
	"strings"
	"time"
)

// WorldID is the internal numeric id of a world row.
type WorldID int64

// ActorID is the internal numeric id of an actor row.
type ActorID int64

// BlockPos is an integer block coordinate. It is only meaningful together
// with the world it belongs to.
type BlockPos struct {
	X, Y, Z int
}

// Add returns the position shifted by the given deltas.
func (p BlockPos) Add(dx, dy, dz int) BlockPos {
	return BlockPos{X: p.X + dx, Y: p.Y + dy, Z: p.Z + dz}
}

// Relative returns the neighbouring position in direction f.
func (p BlockPos) Relative(f Face) BlockPos {
	dx, dy, dz := f.Offset()
	return p.Add(dx, dy, dz)
}

// String renders the position as "x,y,z".
func (p BlockPos) String() string {
	return fmt.Sprintf("%d,%d,%d", p.X, p.Y, p.Z)
}

// Face is a block face / cardinal direction.
type Face string

// Faces understood by the store. Values match the host's enum names so they
// can be persisted verbatim.
const (
	FaceNorth Face = "NORTH"
	FaceEast  Face = "EAST"
	FaceSouth Face = "SOUTH"
	FaceWest  Face = "WEST"
	FaceUp    Face = "UP"
	FaceDown  Face = "DOWN"
)

// HorizontalFaces lists the four horizontal directions in the order the
// engine checks them.
var HorizontalFaces = [...]Face{FaceNorth, FaceEast, FaceSouth, FaceWest}

// ParseFace parses a face name case-insensitively.
func ParseFace(s string) (Face, error) {
	f := Face(strings.ToUpper(strings.TrimSpace(s)))
	if err := ValidateFace(f); err != nil {
		return "", err
	}
	return f, nil
}

// Valid reports whether f is one of the six known faces.
func (f Face) Valid() bool {
	switch f {
	case FaceNorth, FaceEast, FaceSouth, FaceWest, FaceUp, FaceDown:
		return true
	default:
		return false
	}
}

// Offset returns the unit vector of the face. North is -Z, east is +X.
func (f Face) Offset() (dx, dy, dz int) {
	switch f {
	case FaceNorth:
		return 0, 0, -1
	case FaceSouth:
		return 0, 0, 1
	case FaceEast:
		return 1, 0, 0
	case FaceWest:
		return -1, 0, 0
	case FaceUp:
		return 0, 1, 0
	case FaceDown:
		return 0, -1, 0
	default:
		return 0, 0, 0
	}
}

// Opposite returns the face pointing the other way.
func (f Face) Opposite() Face {
	switch f {
	case FaceNorth:
		return FaceSouth
	case FaceSouth:
		return FaceNorth
	case FaceEast:
		return FaceWest
	case FaceWest:
		return FaceEast
	case FaceUp:
		return FaceDown
	case FaceDown:
		return FaceUp
	default:
		return f
	}
}

// Material is a host block material name, e.g. "OAK_PLANKS".
type Material string

// Air is the material of an empty block.
const Air Material = "AIR"

// Record is a stored protection. The decoration sits at Pos and hangs on the
// Face side of the Anchor block.
type Record struct {
	ID             int64
	Owner          ActorID
	World          WorldID
	Pos            BlockPos
	Face           Face
	Anchor         BlockPos
	AnchorMaterial Material
	CreatedAt      time.Time
}

// NewRecord carries the already-normalized fields needed to create a record.
type NewRecord struct {
	Owner          ActorID
	World          WorldID
	Pos            BlockPos
	Face           Face
	Anchor         BlockPos
	AnchorMaterial Material
}

// AnchorInfo is the recorded supporting block of a protected decoration.
type AnchorInfo struct {
	Anchor   BlockPos
	Material Material
	Face     Face
}
