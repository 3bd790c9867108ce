// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 HoloMUSH Contributors

package main

import (
	"errors"

	"github.com/holomush/frameguard/internal/guard"
	"github.com/holomush/frameguard/internal/intent"
	"github.com/holomush/frameguard/internal/messages"
	"github.com/holomush/frameguard/internal/protect"
)

var errNoWorld = errors.New("no world attached to this process")

// detached is the Geometry of a process that runs outside the game server.
// Every read fails, so mediation here fails closed.
type detached struct{}

func (detached) Block(string, protect.BlockPos) (guard.Block, error) {
	return guard.Block{}, errNoWorld
}

func (e *env) newEngine(store protect.Store) (*guard.Engine, *messages.Catalog, error) {
	catalog, err := messages.New(e.cfg.Messages)
	if err != nil {
		return nil, nil, err
	}
	engine, err := guard.New(store, detached{}, intent.NewTracker(), guard.Options{
		Decorations:   e.cfg.Protection.Decorations,
		IgnoredWorlds: e.cfg.Protection.IgnoredWorlds,
		Bounds:        e.cfg.Bounds(),
		Debug:         e.cfg.Debug,
		Logger:        e.logger,
		Catalog:       catalog,
	})
	if err != nil {
		return nil, nil, err
	}
	return engine, catalog, nil
}
