// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 HoloMUSH Contributors

package guard

import (
	"context"
	"errors"

	"github.com/samber/oops"

	"github.com/holomush/frameguard/internal/intent"
	"github.com/holomush/frameguard/internal/messages"
	"github.com/holomush/frameguard/internal/protect"
	"github.com/holomush/frameguard/pkg/errutil"
)

// consume spends the actor's pending intent on the decoration in n. It
// reports false when there was nothing to consume. A consumed intent always
// denies the triggering mutation.
func (e *Engine) consume(ctx context.Context, n Notification, d *Decision) bool {
	if n.Actor == nil {
		return false
	}
	kind, ok := e.intents.Take(n.Actor.UUID)
	if !ok {
		return false
	}

	key, vars, err := e.perform(ctx, kind, n.World, n.Decoration, *n.Actor)
	if err != nil {
		key = outcomeKey(err)
	}
	Effects.WithLabelValues(kind.String(), string(key)).Inc()

	if err != nil && isFault(err) {
		e.failClosed(ctx, n, d, err)
	} else {
		d.deny(ReasonIntent)
	}
	e.notify(d, n.Actor, key, vars)
	return true
}

func (e *Engine) perform(ctx context.Context, kind intent.Kind, world string, deco Decoration, actor Actor) (messages.Key, messages.Vars, error) {
	switch kind {
	case intent.Lock:
		if err := e.lock(ctx, world, deco, actor); err != nil {
			return "", messages.Vars{}, err
		}
		return messages.Locked, messages.Vars{}, nil
	case intent.Unlock:
		if err := e.unlock(ctx, world, deco.Pos, actor); err != nil {
			return "", messages.Vars{}, err
		}
		return messages.Unlocked, messages.Vars{}, nil
	case intent.Info:
		name, err := e.QueryOwner(ctx, world, deco.Pos)
		if errors.Is(err, protect.ErrNotFound) {
			return messages.NoLockInformation, messages.Vars{}, nil
		}
		if err != nil {
			return "", messages.Vars{}, err
		}
		return messages.LockedBy, messages.Vars{Owner: name}, nil
	default:
		return "", messages.Vars{}, oops.Code("UNKNOWN_INTENT").With("intent", int(kind)).Wrap(errUnknownKind)
	}
}

// outcomeKey maps an effect error to the message the actor sees.
func outcomeKey(err error) messages.Key {
	switch {
	case errors.Is(err, protect.ErrAlreadyProtected):
		return messages.AlreadyLocked
	case errors.Is(err, protect.ErrTargetInLiquid):
		return messages.CannotLockInLiquid
	case errors.Is(err, protect.ErrInvalidAnchor):
		return messages.InvalidAnchor
	case errors.Is(err, protect.ErrNotFound):
		return messages.NoLockInformation
	case errors.Is(err, protect.ErrNotOwner):
		return messages.NotOwner
	case errors.Is(err, protect.ErrInvalidLocation):
		return messages.InvalidLocation
	default:
		return messages.StorageError
	}
}

// lock creates a protection for deco owned by actor.
func (e *Engine) lock(ctx context.Context, world string, deco Decoration, actor Actor) error {
	if err := protect.ValidateFace(deco.Facing); err != nil {
		return err
	}
	anchorPos := deco.Anchor()
	if err := e.bounds.ValidateLocation(world, deco.Pos); err != nil {
		return err
	}
	if err := e.bounds.Validate(anchorPos); err != nil {
		return err
	}

	target, err := e.block(world, deco.Pos)
	if err != nil {
		return err
	}
	if target.Liquid {
		return oops.Code(protect.CodeTargetInLiquid).
			With("pos", deco.Pos.String()).
			Wrapf(protect.ErrTargetInLiquid, "lock at %s", deco.Pos)
	}
	anchor, err := e.block(world, anchorPos)
	if err != nil {
		return err
	}
	if anchor.Empty || anchor.Liquid {
		return oops.Code(protect.CodeInvalidAnchor).
			With("anchor", anchorPos.String()).
			With("material", string(anchor.Material)).
			Wrapf(protect.ErrInvalidAnchor, "lock at %s", deco.Pos)
	}

	// Read-only pre-check so a rejected lock creates no master rows.
	existing, known, err := e.store.LookupWorld(ctx, world)
	if err != nil {
		return err
	}
	if known {
		taken, err := e.store.IsProtected(ctx, existing, deco.Pos)
		if err != nil {
			return err
		}
		if taken {
			return oops.Code(protect.CodeAlreadyProtected).
				With("pos", deco.Pos.String()).
				Wrapf(protect.ErrAlreadyProtected, "lock at %s", deco.Pos)
		}
	}

	worldID, err := e.store.ResolveWorld(ctx, world)
	if err != nil {
		return err
	}
	actorID, err := e.store.ResolveActor(ctx, actor.UUID, actor.Name)
	if err != nil {
		return err
	}
	err = e.store.Create(ctx, protect.NewRecord{
		Owner:          actorID,
		World:          worldID,
		Pos:            deco.Pos,
		Face:           deco.Facing,
		Anchor:         anchorPos,
		AnchorMaterial: anchor.Material,
	})
	if errors.Is(err, protect.ErrAlreadyProtected) {
		// Lost a race: the rows resolved above may be orphans.
		if cerr := e.store.Cascade(ctx, []protect.WorldID{worldID}, []protect.ActorID{actorID}); cerr != nil {
			errutil.LogWarn(e.logger, "cascade after lost lock race", cerr, "world", world)
		}
		return err
	}
	if err != nil {
		return err
	}
	e.logger.InfoContext(ctx, "decoration locked",
		"world", world, "pos", deco.Pos.String(), "actor_uuid", actor.UUID, "type", deco.Type)
	return nil
}

// unlock removes the protection at pos. Administrators may remove any
// protection, everyone else only their own.
func (e *Engine) unlock(ctx context.Context, world string, pos protect.BlockPos, actor Actor) error {
	if err := e.bounds.ValidateLocation(world, pos); err != nil {
		return err
	}
	notFound := oops.Code(protect.CodeNotFound).With("pos", pos.String()).Wrapf(protect.ErrNotFound, "unlock at %s", pos)

	worldID, known, err := e.store.LookupWorld(ctx, world)
	if err != nil {
		return err
	}
	if !known {
		return notFound
	}
	if !actor.Admin {
		protected, err := e.store.IsProtected(ctx, worldID, pos)
		if err != nil {
			return err
		}
		if !protected {
			return notFound
		}
		actorID, seen, err := e.store.LookupActor(ctx, actor.UUID)
		if err != nil {
			return err
		}
		owned := false
		if seen {
			if owned, err = e.store.IsOwnedBy(ctx, worldID, pos, actorID); err != nil {
				return err
			}
		}
		if !owned {
			return oops.Code(protect.CodeNotOwner).
				With("pos", pos.String()).
				With("actor_uuid", actor.UUID).
				Wrapf(protect.ErrNotOwner, "unlock at %s", pos)
		}
	}

	if err := e.store.Remove(ctx, worldID, pos); err != nil {
		return err
	}
	e.logger.InfoContext(ctx, "decoration unlocked",
		"world", world, "pos", pos.String(), "actor_uuid", actor.UUID, "admin", actor.Admin)
	return nil
}
