// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 HoloMUSH Contributors

package guard

import (
	"context"

	"github.com/samber/oops"

	"github.com/holomush/frameguard/internal/intent"
	"github.com/holomush/frameguard/internal/messages"
	"github.com/holomush/frameguard/internal/protect"
)

// RequestLock arms a lock for the actor's next decoration punch.
func (e *Engine) RequestLock(actor Actor) Notice {
	return e.request(actor, intent.Lock)
}

// RequestUnlock arms an unlock for the actor's next decoration punch.
func (e *Engine) RequestUnlock(actor Actor) Notice {
	return e.request(actor, intent.Unlock)
}

// RequestInfo arms an owner query for the actor's next decoration punch.
func (e *Engine) RequestInfo(actor Actor) Notice {
	return e.request(actor, intent.Info)
}

func (e *Engine) request(actor Actor, kind intent.Kind) Notice {
	e.intents.Set(actor.UUID, kind)
	if e.debug {
		e.logger.Debug("intent armed", "actor_uuid", actor.UUID, "intent", kind.String())
	}
	return Notice{
		ActorUUID: actor.UUID,
		Key:       messages.PunchTheTarget,
		Text:      e.catalog.Render(messages.PunchTheTarget, messages.Vars{}),
	}
}

// ActorDisconnected drops any pending intent of the actor.
func (e *Engine) ActorDisconnected(actorUUID string) {
	e.intents.Drop(actorUUID)
}

// Pending reports whether the actor has an armed intent.
func (e *Engine) Pending(actorUUID string) bool {
	return e.intents.Has(actorUUID)
}

// QueryOwner returns the display name of the owner of the protection at pos.
// It fails with PROTECTION_NOT_FOUND when nothing is protected there.
func (e *Engine) QueryOwner(ctx context.Context, world string, pos protect.BlockPos) (string, error) {
	if err := e.bounds.ValidateLocation(world, pos); err != nil {
		return "", err
	}
	p, err := e.probe(ctx, world)
	if err != nil {
		return "", err
	}
	name, ok, err := p.ownerName(pos)
	if err != nil {
		return "", err
	}
	if !ok {
		return "", oops.Code(protect.CodeNotFound).
			With("world", world).
			With("pos", pos.String()).
			Wrapf(protect.ErrNotFound, "owner of %s", pos)
	}
	return name, nil
}
