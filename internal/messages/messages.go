// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 HoloMUSH Contributors

// Package messages holds the actor-facing texts for protection outcomes.
// Templates may use the {owner} and {days} placeholders.
package messages

import (
	"slices"
	"strconv"
	"strings"

	"github.com/samber/oops"
)

// Key identifies a message.
type Key string

// Message keys.
const (
	Locked             Key = "locked"
	AlreadyLocked      Key = "already-locked"
	Unlocked           Key = "unlocked"
	LockedBy           Key = "lock-by-player"
	NoLockInformation  Key = "no-lock-information"
	CannotLockInLiquid Key = "can-not-lock-in-liquids"
	InvalidAnchor      Key = "can-not-lock-hanging-place-is-liquid-or-air"
	NotOwner           Key = "not-owner"
	BlockIsLocked      Key = "block-is-locked"
	BlockHoldsLocked   Key = "block-has-locked-wall-hanging"
	DecorationLocked   Key = "decoration-is-locked"
	PunchTheTarget     Key = "please-punch-the-target"
	PurgedData         Key = "purge-the-data"
	InvalidLocation    Key = "invalid-location"
	StorageError       Key = "storage-error"
)

var defaults = map[Key]string{
	Locked:             "Locked.",
	AlreadyLocked:      "That is already locked.",
	Unlocked:           "Unlocked.",
	LockedBy:           "Locked by {owner}.",
	NoLockInformation:  "There is no lock here.",
	CannotLockInLiquid: "You can not lock a decoration inside a liquid.",
	InvalidAnchor:      "You can not lock a decoration hanging on liquid or air.",
	NotOwner:           "You do not own that lock.",
	BlockIsLocked:      "This block is locked.",
	BlockHoldsLocked:   "This block holds a locked decoration.",
	DecorationLocked:   "This decoration is locked.",
	PunchTheTarget:     "Punch the target decoration.",
	PurgedData:         "Purged locks older than {days} days.",
	InvalidLocation:    "You can not lock anything at this location.",
	StorageError:       "Locks are unavailable right now, try again later.",
}

// Keys returns every known key in sorted order.
func Keys() []Key {
	keys := make([]Key, 0, len(defaults))
	for k := range defaults {
		keys = append(keys, k)
	}
	slices.Sort(keys)
	return keys
}

// Default returns the built-in template for key.
func Default(key Key) string {
	return defaults[key]
}

// Vars are the placeholder values substituted by Render.
type Vars struct {
	Owner string
	Days  int
}

// Catalog renders messages from the built-in templates and any overrides.
type Catalog struct {
	templates map[Key]string
}

// New creates a Catalog. Overrides replace the built-in template of their
// key; unknown keys are rejected.
func New(overrides map[string]string) (*Catalog, error) {
	templates := make(map[Key]string, len(defaults))
	for k, v := range defaults {
		templates[k] = v
	}
	for k, v := range overrides {
		if _, ok := defaults[Key(k)]; !ok {
			return nil, oops.Code("CONFIG_INVALID").With("key", k).Errorf("unknown message key %q", k)
		}
		templates[Key(k)] = v
	}
	return &Catalog{templates: templates}, nil
}

// DefaultCatalog is a Catalog with only the built-in templates.
func DefaultCatalog() *Catalog {
	c, _ := New(nil) //nolint:errcheck // no overrides cannot fail
	return c
}

// Render returns the message for key with placeholders filled in. An
// unknown key renders as the key itself.
func (c *Catalog) Render(key Key, vars Vars) string {
	tmpl, ok := c.templates[key]
	if !ok {
		return string(key)
	}
	return strings.NewReplacer(
		"{owner}", vars.Owner,
		"{days}", strconv.Itoa(vars.Days),
	).Replace(tmpl)
}
