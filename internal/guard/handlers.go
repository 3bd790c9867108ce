// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 HoloMUSH Contributors

package guard

import (
	"context"

	"github.com/holomush/frameguard/internal/messages"
	"github.com/holomush/frameguard/internal/protect"
)

func (e *Engine) onBlockBreak(ctx context.Context, n Notification, d *Decision) error {
	p, err := e.probe(ctx, n.World)
	if err != nil {
		return err
	}
	protected, err := p.protected(n.Target)
	if err != nil {
		return err
	}
	if protected {
		d.deny(ReasonProtected)
		e.notify(d, n.Actor, messages.BlockIsLocked, messages.Vars{})
		return nil
	}
	anchor, err := p.anchor(n.Target)
	if err != nil {
		return err
	}
	if anchor {
		d.deny(ReasonAnchor)
		e.notify(d, n.Actor, messages.BlockHoldsLocked, messages.Vars{})
		return nil
	}
	d.allow(ReasonUnprotected)
	return nil
}

// onBlockChange covers burn, fade and place: only the target itself matters.
func (e *Engine) onBlockChange(ctx context.Context, n Notification, d *Decision) error {
	p, err := e.probe(ctx, n.World)
	if err != nil {
		return err
	}
	protected, err := p.protected(n.Target)
	if err != nil {
		return err
	}
	if !protected {
		d.allow(ReasonUnprotected)
		return nil
	}
	d.deny(ReasonProtected)
	if n.Kind == BlockPlace {
		e.notify(d, n.Actor, messages.BlockIsLocked, messages.Vars{})
	}
	return nil
}

func (e *Engine) onPistonExtend(ctx context.Context, n Notification, d *Decision) error {
	p, err := e.probe(ctx, n.World)
	if err != nil {
		return err
	}
	if hit, err := p.protected(n.Target.Relative(n.Direction)); err != nil || hit {
		d.deny(ReasonProtected)
		return err
	}
	for _, moved := range n.Moved {
		candidates := append(horizontalNeighbours(moved), moved.Relative(n.Direction))
		if hit, err := p.anyProtected(candidates...); err != nil || hit {
			d.deny(ReasonProtected)
			return err
		}
		if hit, err := p.anchor(moved); err != nil || hit {
			d.deny(ReasonAnchor)
			return err
		}
	}
	d.allow(ReasonUnprotected)
	return nil
}

// onPistonRetract checks only the four horizontal neighbours of the block the
// retraction vacates.
func (e *Engine) onPistonRetract(ctx context.Context, n Notification, d *Decision) error {
	vacated := n.Target.Relative(n.Direction)
	b, err := e.block(n.World, vacated)
	if err != nil {
		return err
	}
	if b.Empty || b.Liquid {
		d.allow(ReasonEmptyVacated)
		return nil
	}
	p, err := e.probe(ctx, n.World)
	if err != nil {
		return err
	}
	if hit, err := p.anyProtected(horizontalNeighbours(vacated)...); err != nil || hit {
		d.deny(ReasonProtected)
		return err
	}
	d.allow(ReasonUnprotected)
	return nil
}

func (e *Engine) onDecorationDamage(ctx context.Context, n Notification, d *Decision) error {
	if e.consume(ctx, n, d) {
		return nil
	}
	p, err := e.probe(ctx, n.World)
	if err != nil {
		return err
	}
	pos := n.Decoration.Pos
	protected, err := p.protected(pos)
	if err != nil {
		return err
	}
	if !protected {
		d.allow(ReasonUnprotected)
		return nil
	}
	if n.Actor == nil {
		d.deny(ReasonProtected)
		return nil
	}
	owner, err := p.ownedBy(pos, n.Actor)
	if err != nil {
		return err
	}
	if owner {
		d.allow(ReasonOwner)
		return nil
	}
	d.deny(ReasonNotOwner)
	return e.notifyOwner(p, d, n.Actor, pos)
}

// onDecorationBreak restores a protected decoration destroyed without an
// actor. The decoration block is cleared so the host can re-hang it and its
// anchor is put back to the recorded material.
func (e *Engine) onDecorationBreak(ctx context.Context, n Notification, d *Decision) error {
	p, err := e.probe(ctx, n.World)
	if err != nil {
		return err
	}
	pos := n.Decoration.Pos
	if err := e.bounds.Validate(pos); err != nil {
		return err
	}
	if !p.known {
		d.allow(ReasonUnprotected)
		return nil
	}
	info, ok, err := e.store.AnchorInfo(ctx, p.id, pos)
	if err != nil {
		return err
	}
	if !ok {
		d.allow(ReasonUnprotected)
		return nil
	}

	current, err := e.block(n.World, pos)
	if err != nil {
		return err
	}
	if current.Material != protect.Air {
		d.Rewrites = append(d.Rewrites, BlockWrite{World: n.World, Pos: pos, Material: protect.Air})
	}
	anchor, err := e.block(n.World, info.Anchor)
	if err != nil {
		return err
	}
	if anchor.Material != info.Material {
		d.Rewrites = append(d.Rewrites, BlockWrite{World: n.World, Pos: info.Anchor, Material: info.Material})
	}

	if info.Face == n.Decoration.Facing {
		d.deny(ReasonRestored)
	} else {
		d.allow(ReasonRestored)
	}
	return nil
}

// onDecorationBreakByEntity denies every removal of a protected decoration,
// the owner's included; owners unlock first.
func (e *Engine) onDecorationBreakByEntity(ctx context.Context, n Notification, d *Decision) error {
	if e.consume(ctx, n, d) {
		return nil
	}
	p, err := e.probe(ctx, n.World)
	if err != nil {
		return err
	}
	pos := n.Decoration.Pos
	protected, err := p.protected(pos)
	if err != nil {
		return err
	}
	if !protected {
		d.allow(ReasonUnprotected)
		return nil
	}
	d.deny(ReasonProtected)
	if n.Actor == nil {
		return nil
	}
	return e.notifyOwner(p, d, n.Actor, pos)
}

// onDecorationUse handles right-click interaction and placement.
func (e *Engine) onDecorationUse(ctx context.Context, n Notification, d *Decision) error {
	if e.consume(ctx, n, d) {
		return nil
	}
	p, err := e.probe(ctx, n.World)
	if err != nil {
		return err
	}
	pos := n.Decoration.Pos
	protected, err := p.protected(pos)
	if err != nil {
		return err
	}
	if !protected {
		d.allow(ReasonUnprotected)
		return nil
	}
	if n.Actor == nil {
		d.deny(ReasonProtected)
		return nil
	}
	owner, err := p.ownedBy(pos, n.Actor)
	if err != nil {
		return err
	}
	if owner {
		d.allow(ReasonOwner)
		return nil
	}
	d.deny(ReasonNotOwner)
	e.notify(d, n.Actor, messages.DecorationLocked, messages.Vars{})
	return nil
}

func (e *Engine) notifyOwner(p *probe, d *Decision, actor *Actor, pos protect.BlockPos) error {
	name, ok, err := p.ownerName(pos)
	if err != nil {
		return err
	}
	if !ok {
		e.notify(d, actor, messages.NoLockInformation, messages.Vars{})
		return nil
	}
	e.notify(d, actor, messages.LockedBy, messages.Vars{Owner: name})
	return nil
}
