// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 HoloMUSH Contributors

package guard

import (
	"github.com/holomush/frameguard/internal/protect"
)

// Kind identifies the world mutation a Notification describes.
type Kind int

// Notification kinds.
const (
	BlockBreak Kind = iota + 1
	BlockBurn
	BlockFade
	BlockPlace
	PistonExtend
	PistonRetract
	DecorationDamage
	// DecorationBreak is a decoration destroyed by a non-actor cause such as
	// its anchor disappearing or an explosion.
	DecorationBreak
	DecorationBreakByEntity
	DecorationInteract
	DecorationPlace
)

var kindNames = map[Kind]string{
	BlockBreak:              "block_break",
	BlockBurn:               "block_burn",
	BlockFade:               "block_fade",
	BlockPlace:              "block_place",
	PistonExtend:            "piston_extend",
	PistonRetract:           "piston_retract",
	DecorationDamage:        "decoration_damage",
	DecorationBreak:         "decoration_break",
	DecorationBreakByEntity: "decoration_break_by_entity",
	DecorationInteract:      "decoration_interact",
	DecorationPlace:         "decoration_place",
}

// String returns the snake_case name used in logs and metric labels.
func (k Kind) String() string {
	if name, ok := kindNames[k]; ok {
		return name
	}
	return "unknown"
}

// IsDecoration reports whether k concerns a decoration entity rather than a
// block.
func (k Kind) IsDecoration() bool {
	return k >= DecorationDamage && k <= DecorationPlace
}

// Actor is the player behind a mutation.
type Actor struct {
	UUID  string
	Name  string
	Admin bool
}

// Decoration is the hanging entity a decoration event is about.
type Decoration struct {
	// Type is the host entity type, e.g. "ITEM_FRAME".
	Type string
	// Pos is the block the decoration occupies.
	Pos protect.BlockPos
	// Facing is the direction the decoration faces, away from its anchor.
	Facing protect.Face
}

// Anchor returns the position of the block the decoration hangs on.
func (d Decoration) Anchor() protect.BlockPos {
	return d.Pos.Relative(d.Facing.Opposite())
}

// Notification is one mutation attempt delivered by the host before it is
// applied.
type Notification struct {
	Kind  Kind
	World string
	// Actor is nil when the cause is not a player.
	Actor *Actor

	// Target is the affected block for block events and the piston block for
	// piston events.
	Target protect.BlockPos
	// Direction is the piston direction.
	Direction protect.Face
	// Moved lists the blocks a piston extension pushes.
	Moved []protect.BlockPos

	Decoration Decoration
}

// Block is the host's view of a world block.
type Block struct {
	Material protect.Material
	Empty    bool
	Liquid   bool
}

// Geometry reads blocks from the host world. It must not mutate the world.
type Geometry interface {
	Block(world string, pos protect.BlockPos) (Block, error)
}
