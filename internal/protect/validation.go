// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 HoloMUSH Contributors

package protect

import (
	"github.com/samber/oops"
)

// MaxWorldNameLength is the maximum length of a world name in bytes.
const MaxWorldNameLength = 255

// MaxAgeDays is the longest accepted purge horizon, one century.
const MaxAgeDays = 36_500

// ValidateAgeDays rejects purge horizons outside 0..MaxAgeDays.
func ValidateAgeDays(days int) error {
	if days < 0 || days > MaxAgeDays {
		return oops.Code(CodeInvalidArgument).
			With("days", days).
			Errorf("days must be between 0 and %d, got %d", MaxAgeDays, days)
	}
	return nil
}

// Bounds limits the coordinates accepted by the store.
type Bounds struct {
	MinY          int
	MaxY          int
	MaxHorizontal int
}

// DefaultBounds matches a vanilla overworld.
func DefaultBounds() Bounds {
	return Bounds{MinY: -64, MaxY: 320, MaxHorizontal: 30_000_000}
}

// ValidateWorldName rejects empty and over-long world names.
func ValidateWorldName(name string) error {
	if name == "" {
		return oops.Code(CodeInvalidLocation).Wrapf(ErrInvalidLocation, "world name is empty")
	}
	if len(name) > MaxWorldNameLength {
		return oops.Code(CodeInvalidLocation).
			With("length", len(name)).
			Wrapf(ErrInvalidLocation, "world name exceeds %d bytes", MaxWorldNameLength)
	}
	return nil
}

// Validate checks pos against the bounds.
func (b Bounds) Validate(pos BlockPos) error {
	if pos.Y < b.MinY || pos.Y > b.MaxY {
		return oops.Code(CodeInvalidLocation).
			With("y", pos.Y).
			Wrapf(ErrInvalidLocation, "y=%d outside build height %d..%d", pos.Y, b.MinY, b.MaxY)
	}
	if abs(pos.X) > b.MaxHorizontal || abs(pos.Z) > b.MaxHorizontal {
		return oops.Code(CodeInvalidLocation).
			With("x", pos.X).
			With("z", pos.Z).
			Wrapf(ErrInvalidLocation, "position %s outside world border", pos)
	}
	return nil
}

// ValidateFace rejects anything but the six block faces. An unknown face has
// no offset, so a position relative to it is the position itself.
func ValidateFace(f Face) error {
	if !f.Valid() {
		return oops.Code(CodeInvalidLocation).
			With("face", string(f)).
			Wrapf(ErrInvalidLocation, "unknown block face %q", string(f))
	}
	return nil
}

// ValidateLocation checks both the world name and the position.
func (b Bounds) ValidateLocation(world string, pos BlockPos) error {
	if err := ValidateWorldName(world); err != nil {
		return err
	}
	return b.Validate(pos)
}

func abs(v int) int {
	if v < 0 {
		return -v
	}
	return v
}
