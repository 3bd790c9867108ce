// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 HoloMUSH Contributors

package guard_test

import (
	"context"
	"io"
	"log/slog"
	"sync"

	"github.com/samber/oops"

	"github.com/holomush/frameguard/internal/guard"
	"github.com/holomush/frameguard/internal/intent"
	"github.com/holomush/frameguard/internal/protect"
)

type recKey struct {
	world protect.WorldID
	pos   protect.BlockPos
}

// memStore is an in-memory protect.Store with per-method fault injection.
type memStore struct {
	mu      sync.Mutex
	next    int64
	worlds  map[string]protect.WorldID
	actors  map[string]protect.ActorID
	names   map[protect.ActorID]string
	records map[recKey]protect.Record
	faults  map[string]error
	writes  int
}

var _ protect.Store = (*memStore)(nil)

func newMemStore() *memStore {
	return &memStore{
		worlds:  make(map[string]protect.WorldID),
		actors:  make(map[string]protect.ActorID),
		names:   make(map[protect.ActorID]string),
		records: make(map[recKey]protect.Record),
		faults:  make(map[string]error),
	}
}

func (s *memStore) failWith(method string, err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.faults[method] = err
}

func (s *memStore) fault(method string) error {
	if err, ok := s.faults[method]; ok {
		return err
	}
	if err, ok := s.faults["*"]; ok {
		return err
	}
	return nil
}

func (s *memStore) id() int64 {
	s.next++
	return s.next
}

func (s *memStore) ResolveWorld(_ context.Context, name string) (protect.WorldID, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.fault("ResolveWorld"); err != nil {
		return 0, err
	}
	if id, ok := s.worlds[name]; ok {
		return id, nil
	}
	s.writes++
	id := protect.WorldID(s.id())
	s.worlds[name] = id
	return id, nil
}

func (s *memStore) ResolveActor(_ context.Context, uuid, displayName string) (protect.ActorID, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.fault("ResolveActor"); err != nil {
		return 0, err
	}
	id, ok := s.actors[uuid]
	if !ok {
		s.writes++
		id = protect.ActorID(s.id())
		s.actors[uuid] = id
	}
	s.names[id] = displayName
	return id, nil
}

func (s *memStore) LookupWorld(_ context.Context, name string) (protect.WorldID, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.fault("LookupWorld"); err != nil {
		return 0, false, err
	}
	id, ok := s.worlds[name]
	return id, ok, nil
}

func (s *memStore) LookupActor(_ context.Context, uuid string) (protect.ActorID, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.fault("LookupActor"); err != nil {
		return 0, false, err
	}
	id, ok := s.actors[uuid]
	return id, ok, nil
}

func (s *memStore) IsProtected(_ context.Context, world protect.WorldID, pos protect.BlockPos) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.fault("IsProtected"); err != nil {
		return false, err
	}
	_, ok := s.records[recKey{world, pos}]
	return ok, nil
}

func (s *memStore) IsAnchor(_ context.Context, world protect.WorldID, pos protect.BlockPos) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.fault("IsAnchor"); err != nil {
		return false, err
	}
	for k, r := range s.records {
		if k.world == world && r.Anchor == pos {
			return true, nil
		}
	}
	return false, nil
}

func (s *memStore) OwnerOf(_ context.Context, world protect.WorldID, pos protect.BlockPos) (protect.ActorID, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.fault("OwnerOf"); err != nil {
		return 0, false, err
	}
	r, ok := s.records[recKey{world, pos}]
	return r.Owner, ok, nil
}

func (s *memStore) IsOwnedBy(_ context.Context, world protect.WorldID, pos protect.BlockPos, actor protect.ActorID) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.fault("IsOwnedBy"); err != nil {
		return false, err
	}
	r, ok := s.records[recKey{world, pos}]
	return ok && r.Owner == actor, nil
}

func (s *memStore) AnchorInfo(_ context.Context, world protect.WorldID, pos protect.BlockPos) (protect.AnchorInfo, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.fault("AnchorInfo"); err != nil {
		return protect.AnchorInfo{}, false, err
	}
	r, ok := s.records[recKey{world, pos}]
	if !ok {
		return protect.AnchorInfo{}, false, nil
	}
	return protect.AnchorInfo{Anchor: r.Anchor, Material: r.AnchorMaterial, Face: r.Face}, true, nil
}

func (s *memStore) ActorName(_ context.Context, actor protect.ActorID) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.fault("ActorName"); err != nil {
		return "", err
	}
	name, ok := s.names[actor]
	if !ok {
		return "", oops.Code(protect.CodeNotFound).Wrap(protect.ErrNotFound)
	}
	return name, nil
}

func (s *memStore) Create(_ context.Context, rec protect.NewRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.fault("Create"); err != nil {
		return err
	}
	k := recKey{rec.World, rec.Pos}
	if _, ok := s.records[k]; ok {
		return oops.Code(protect.CodeAlreadyProtected).Wrap(protect.ErrAlreadyProtected)
	}
	s.writes++
	s.records[k] = protect.Record{
		ID: s.id(), Owner: rec.Owner, World: rec.World, Pos: rec.Pos, Face: rec.Face,
		Anchor: rec.Anchor, AnchorMaterial: rec.AnchorMaterial,
	}
	return nil
}

func (s *memStore) Remove(ctx context.Context, world protect.WorldID, pos protect.BlockPos) error {
	s.mu.Lock()
	if err := s.fault("Remove"); err != nil {
		s.mu.Unlock()
		return err
	}
	k := recKey{world, pos}
	r, ok := s.records[k]
	if !ok {
		s.mu.Unlock()
		return oops.Code(protect.CodeNotFound).Wrap(protect.ErrNotFound)
	}
	delete(s.records, k)
	s.writes++
	s.mu.Unlock()
	return s.Cascade(ctx, []protect.WorldID{world}, []protect.ActorID{r.Owner})
}

func (s *memStore) PurgeOlderThan(context.Context, int) (int64, error) {
	return 0, nil
}

func (s *memStore) Cascade(_ context.Context, worlds []protect.WorldID, actors []protect.ActorID) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.fault("Cascade"); err != nil {
		return err
	}
	for _, w := range worlds {
		if !s.worldReferenced(w) {
			for name, id := range s.worlds {
				if id == w {
					delete(s.worlds, name)
				}
			}
		}
	}
	for _, a := range actors {
		if !s.actorReferenced(a) {
			for uuid, id := range s.actors {
				if id == a {
					delete(s.actors, uuid)
					delete(s.names, id)
				}
			}
		}
	}
	return nil
}

func (s *memStore) worldReferenced(w protect.WorldID) bool {
	for k := range s.records {
		if k.world == w {
			return true
		}
	}
	return false
}

func (s *memStore) actorReferenced(a protect.ActorID) bool {
	for _, r := range s.records {
		if r.Owner == a {
			return true
		}
	}
	return false
}

func (s *memStore) WorldExists(_ context.Context, world protect.WorldID) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, id := range s.worlds {
		if id == world {
			return true, nil
		}
	}
	return false, nil
}

func (s *memStore) ActorExists(_ context.Context, actor protect.ActorID) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, id := range s.actors {
		if id == actor {
			return true, nil
		}
	}
	return false, nil
}

func (s *memStore) Ping(context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.fault("Ping")
}

func (s *memStore) Close() {}

func (s *memStore) recordCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.records)
}

func (s *memStore) writeCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.writes
}

// world is a fake Geometry. Unset positions are air.
type world struct {
	mu     sync.Mutex
	blocks map[protect.BlockPos]guard.Block
	err    error
}

func newWorld() *world {
	return &world{blocks: make(map[protect.BlockPos]guard.Block)}
}

func (w *world) set(pos protect.BlockPos, material protect.Material) {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.blocks[pos] = guard.Block{Material: material}
}

func (w *world) clear(pos protect.BlockPos) {
	w.mu.Lock()
	defer w.mu.Unlock()
	delete(w.blocks, pos)
}

func (w *world) setLiquid(pos protect.BlockPos) {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.blocks[pos] = guard.Block{Material: "WATER", Liquid: true}
}

func (w *world) Block(_ string, pos protect.BlockPos) (guard.Block, error) {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.err != nil {
		return guard.Block{}, w.err
	}
	if b, ok := w.blocks[pos]; ok {
		return b, nil
	}
	return guard.Block{Material: protect.Air, Empty: true}, nil
}

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func newEngine(store protect.Store, geo guard.Geometry, opts guard.Options) *guard.Engine {
	if opts.Logger == nil {
		opts.Logger = discardLogger()
	}
	e, err := guard.New(store, geo, intent.NewTracker(), opts)
	if err != nil {
		panic(err)
	}
	return e
}
