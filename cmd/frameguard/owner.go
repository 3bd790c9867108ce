// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 HoloMUSH Contributors

package main

import (
	"errors"

	"github.com/samber/oops"
	"github.com/spf13/cobra"

	"github.com/holomush/frameguard/internal/messages"
	"github.com/holomush/frameguard/internal/protect"
)

type ownerArgs struct {
	world   string
	x, y, z int
}

// NewOwnerCmd creates the owner command.
func NewOwnerCmd(deps *Deps) *cobra.Command {
	args := &ownerArgs{}
	cmd := &cobra.Command{
		Use:   "owner",
		Short: "Show who owns the lock at a location",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			for _, name := range []string{"world", "x", "y", "z"} {
				if !cmd.Flags().Changed(name) {
					return oops.Code("INVALID_ARGUMENT").Errorf("--%s is required", name)
				}
			}
			return runOwner(cmd, deps, args)
		},
	}
	cmd.Flags().StringVar(&args.world, "world", "", "world name")
	cmd.Flags().IntVar(&args.x, "x", 0, "block X")
	cmd.Flags().IntVar(&args.y, "y", 0, "block Y")
	cmd.Flags().IntVar(&args.z, "z", 0, "block Z")
	return cmd
}

func runOwner(cmd *cobra.Command, deps *Deps, args *ownerArgs) error {
	e, err := prepare(cmd, deps)
	if err != nil {
		return err
	}
	store, err := e.openStore(cmd.Context())
	if err != nil {
		return err
	}
	defer store.Close()

	engine, catalog, err := e.newEngine(store)
	if err != nil {
		return err
	}
	pos := protect.BlockPos{X: args.x, Y: args.y, Z: args.z}
	name, err := engine.QueryOwner(cmd.Context(), args.world, pos)
	switch {
	case errors.Is(err, protect.ErrNotFound):
		cmd.Println(catalog.Render(messages.NoLockInformation, messages.Vars{}))
		return nil
	case err != nil:
		return err
	}
	cmd.Println(catalog.Render(messages.LockedBy, messages.Vars{Owner: name}))
	return nil
}
