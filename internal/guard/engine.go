// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 HoloMUSH Contributors

// Package guard decides whether world mutations touching protected
// decorations may proceed, and performs the lock, unlock and info effects
// of pending intents.
//
// The engine fails closed: any storage, geometry or validation failure
// while deciding yields Deny.
package guard

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"time"

	"github.com/gobwas/glob"
	"github.com/samber/oops"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/holomush/frameguard/internal/intent"
	"github.com/holomush/frameguard/internal/messages"
	"github.com/holomush/frameguard/internal/protect"
	"github.com/holomush/frameguard/pkg/errutil"
)

// CodeGeometryUnavailable marks a failed read through Geometry.
const CodeGeometryUnavailable = "GEOMETRY_UNAVAILABLE"

// ErrGeometryUnavailable is wrapped by errors from Geometry reads.
var ErrGeometryUnavailable = errors.New("world geometry unavailable")

var errUnknownKind = errors.New("unknown notification kind")

// tracerName is the instrumentation scope of decision spans.
const tracerName = "frameguard/guard"

// DefaultDecorations are the entity types protected when none are configured.
var DefaultDecorations = []string{"ITEM_FRAME", "PAINTING"}

// Options configures an Engine.
type Options struct {
	// Decorations lists the protectable entity types.
	Decorations []string
	// IgnoredWorlds are glob patterns of worlds that are never mediated.
	IgnoredWorlds []string
	Bounds        protect.Bounds
	// Debug logs every decision.
	Debug   bool
	Logger  *slog.Logger
	Catalog *messages.Catalog
	// TracerProvider supplies the decision tracer. Default: the global
	// otel provider.
	TracerProvider trace.TracerProvider
}

// Engine mediates notifications against the protection store.
type Engine struct {
	store       protect.Store
	geometry    Geometry
	intents     *intent.Tracker
	decorations map[string]struct{}
	ignored     []glob.Glob
	bounds      protect.Bounds
	debug       bool
	logger      *slog.Logger
	catalog     *messages.Catalog
	tracer      trace.Tracer
}

// New creates an Engine. It fails only when an ignored-world pattern does
// not compile.
func New(store protect.Store, geometry Geometry, intents *intent.Tracker, opts Options) (*Engine, error) {
	e := &Engine{
		store:       store,
		geometry:    geometry,
		intents:     intents,
		decorations: make(map[string]struct{}),
		bounds:      opts.Bounds,
		debug:       opts.Debug,
		logger:      opts.Logger,
		catalog:     opts.Catalog,
	}
	if e.bounds == (protect.Bounds{}) {
		e.bounds = protect.DefaultBounds()
	}
	if e.logger == nil {
		e.logger = slog.Default()
	}
	e.logger = e.logger.With("component", "guard")
	if e.catalog == nil {
		e.catalog = messages.DefaultCatalog()
	}
	if e.intents == nil {
		e.intents = intent.NewTracker()
	}
	tp := opts.TracerProvider
	if tp == nil {
		tp = otel.GetTracerProvider()
	}
	e.tracer = tp.Tracer(tracerName)

	decorations := opts.Decorations
	if len(decorations) == 0 {
		decorations = DefaultDecorations
	}
	for _, d := range decorations {
		e.decorations[strings.ToUpper(d)] = struct{}{}
	}

	for _, pattern := range opts.IgnoredWorlds {
		g, err := glob.Compile(pattern)
		if err != nil {
			return nil, oops.Code("CONFIG_INVALID").With("pattern", pattern).Wrapf(err, "ignored world pattern")
		}
		e.ignored = append(e.ignored, g)
	}
	return e, nil
}

// Decide returns the verdict for n. It never returns an error: failures are
// logged and turn into Deny.
func (e *Engine) Decide(ctx context.Context, n Notification) Decision {
	start := time.Now()
	d := Decision{ID: newDecisionID(), Kind: n.Kind}

	ctx, span := e.tracer.Start(ctx, "guard.decide",
		trace.WithAttributes(
			attribute.String("decision.id", d.ID.String()),
			attribute.String("notification.kind", n.Kind.String()),
			attribute.String("world", n.World),
		),
	)
	defer span.End()

	switch {
	case e.ignoredWorld(n.World):
		d.allow(ReasonIgnoredWorld)
	case n.Kind.IsDecoration() && !e.protectable(n.Decoration.Type):
		d.allow(ReasonNotDecoration)
	default:
		if err := e.dispatch(ctx, n, &d); err != nil {
			e.failClosed(ctx, n, &d, err)
		}
	}

	span.SetAttributes(
		attribute.String("decision.verdict", d.Verdict.String()),
		attribute.String("decision.reason", d.Reason),
	)
	recordDecision(d, time.Since(start))
	if e.debug {
		e.logger.DebugContext(ctx, "decision",
			"decision_id", d.ID.String(),
			"kind", n.Kind.String(),
			"world", n.World,
			"verdict", d.Verdict.String(),
			"reason", d.Reason,
			"rewrites", len(d.Rewrites),
		)
	}
	return d
}

func (e *Engine) dispatch(ctx context.Context, n Notification, d *Decision) error {
	if err := checkFaces(n); err != nil {
		return err
	}
	switch n.Kind {
	case BlockBreak:
		return e.onBlockBreak(ctx, n, d)
	case BlockBurn, BlockFade, BlockPlace:
		return e.onBlockChange(ctx, n, d)
	case PistonExtend:
		return e.onPistonExtend(ctx, n, d)
	case PistonRetract:
		return e.onPistonRetract(ctx, n, d)
	case DecorationDamage:
		return e.onDecorationDamage(ctx, n, d)
	case DecorationBreak:
		return e.onDecorationBreak(ctx, n, d)
	case DecorationBreakByEntity:
		return e.onDecorationBreakByEntity(ctx, n, d)
	case DecorationInteract, DecorationPlace:
		return e.onDecorationUse(ctx, n, d)
	default:
		return oops.Code("UNKNOWN_NOTIFICATION").With("kind", int(n.Kind)).Wrap(errUnknownKind)
	}
}

// checkFaces rejects a decoration facing or piston direction that is not a
// block face.
func checkFaces(n Notification) error {
	switch {
	case n.Kind.IsDecoration():
		return protect.ValidateFace(n.Decoration.Facing)
	case n.Kind == PistonExtend, n.Kind == PistonRetract:
		return protect.ValidateFace(n.Direction)
	default:
		return nil
	}
}

// failClosed turns err into a Deny, logs it and marks the span as failed.
func (e *Engine) failClosed(ctx context.Context, n Notification, d *Decision, err error) {
	d.deny(faultReason(err))
	span := trace.SpanFromContext(ctx)
	span.RecordError(err)
	span.SetStatus(codes.Error, err.Error())
	errutil.LogErrorContext(ctx, e.logger, "mediation failed closed", err,
		"decision_id", d.ID.String(),
		"kind", n.Kind.String(),
		"world", n.World,
	)
}

func faultReason(err error) string {
	switch {
	case errors.Is(err, protect.ErrInvalidLocation):
		return ReasonInvalidLocation
	case errors.Is(err, ErrGeometryUnavailable):
		return ReasonGeometryError
	default:
		return ReasonStorageError
	}
}

// isFault reports whether err is an infrastructure failure rather than a
// domain outcome such as NOT_OWNER.
func isFault(err error) bool {
	return protect.IsStorageError(err) ||
		errors.Is(err, ErrGeometryUnavailable) ||
		errors.Is(err, protect.ErrInvalidLocation) ||
		errors.Is(err, errUnknownKind)
}

func (e *Engine) ignoredWorld(world string) bool {
	for _, g := range e.ignored {
		if g.Match(world) {
			return true
		}
	}
	return false
}

func (e *Engine) protectable(entityType string) bool {
	_, ok := e.decorations[strings.ToUpper(entityType)]
	return ok
}

func (e *Engine) block(world string, pos protect.BlockPos) (Block, error) {
	b, err := e.geometry.Block(world, pos)
	if err != nil {
		return Block{}, oops.Code(CodeGeometryUnavailable).
			With("world", world).
			With("pos", pos.String()).
			Wrapf(ErrGeometryUnavailable, "read block: %v", err)
	}
	return b, nil
}

func (e *Engine) notify(d *Decision, actor *Actor, key messages.Key, vars messages.Vars) {
	if actor == nil {
		return
	}
	d.Notices = append(d.Notices, Notice{
		ActorUUID: actor.UUID,
		Key:       key,
		Text:      e.catalog.Render(key, vars),
	})
}

// probe answers read-only protection questions about one world. Looking up
// a world that has no row never creates one.
type probe struct {
	e     *Engine
	ctx   context.Context
	world string
	id    protect.WorldID
	known bool
}

func (e *Engine) probe(ctx context.Context, world string) (*probe, error) {
	if err := protect.ValidateWorldName(world); err != nil {
		return nil, err
	}
	id, known, err := e.store.LookupWorld(ctx, world)
	if err != nil {
		return nil, err
	}
	return &probe{e: e, ctx: ctx, world: world, id: id, known: known}, nil
}

func (p *probe) protected(pos protect.BlockPos) (bool, error) {
	if err := p.e.bounds.Validate(pos); err != nil {
		return false, err
	}
	if !p.known {
		return false, nil
	}
	return p.e.store.IsProtected(p.ctx, p.id, pos)
}

func (p *probe) anyProtected(positions ...protect.BlockPos) (bool, error) {
	for _, pos := range positions {
		ok, err := p.protected(pos)
		if err != nil || ok {
			return ok, err
		}
	}
	return false, nil
}

func (p *probe) anchor(pos protect.BlockPos) (bool, error) {
	if err := p.e.bounds.Validate(pos); err != nil {
		return false, err
	}
	if !p.known {
		return false, nil
	}
	return p.e.store.IsAnchor(p.ctx, p.id, pos)
}

// ownedBy reports whether actor owns the record at pos. An actor the store
// has never seen owns nothing.
func (p *probe) ownedBy(pos protect.BlockPos, actor *Actor) (bool, error) {
	if !p.known {
		return false, nil
	}
	id, ok, err := p.e.store.LookupActor(p.ctx, actor.UUID)
	if err != nil || !ok {
		return false, err
	}
	return p.e.store.IsOwnedBy(p.ctx, p.id, pos, id)
}

// ownerName returns the display name of the owner of pos.
func (p *probe) ownerName(pos protect.BlockPos) (string, bool, error) {
	if !p.known {
		return "", false, nil
	}
	owner, ok, err := p.e.store.OwnerOf(p.ctx, p.id, pos)
	if err != nil || !ok {
		return "", false, err
	}
	name, err := p.e.store.ActorName(p.ctx, owner)
	if err != nil {
		return "", false, err
	}
	return name, true, nil
}

func horizontalNeighbours(pos protect.BlockPos) []protect.BlockPos {
	out := make([]protect.BlockPos, 0, len(protect.HorizontalFaces))
	for _, f := range protect.HorizontalFaces {
		out = append(out, pos.Relative(f))
	}
	return out
}
