// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 HoloMUSH Contributors

package main

import (
	"github.com/samber/oops"
	"github.com/spf13/cobra"

	"github.com/holomush/frameguard/internal/messages"
	"github.com/holomush/frameguard/internal/protect"
	"github.com/holomush/frameguard/internal/retention"
)

// NewPurgeCmd creates the purge command.
func NewPurgeCmd(deps *Deps) *cobra.Command {
	var days int
	cmd := &cobra.Command{
		Use:   "purge",
		Short: "Remove locks older than a number of days",
		Long: `Remove every lock created more than --days days ago, together with the
world and player rows no remaining lock refers to.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if !cmd.Flags().Changed("days") {
				return oops.Code("INVALID_ARGUMENT").Errorf("--days is required")
			}
			if err := protect.ValidateAgeDays(days); err != nil {
				return err
			}
			return runPurge(cmd, deps, days)
		},
	}
	cmd.Flags().IntVar(&days, "days", 0, "age in days beyond which locks are removed")
	return cmd
}

func runPurge(cmd *cobra.Command, deps *Deps, days int) error {
	e, err := prepare(cmd, deps)
	if err != nil {
		return err
	}
	catalog, err := messages.New(e.cfg.Messages)
	if err != nil {
		return err
	}
	store, err := e.openStore(cmd.Context())
	if err != nil {
		return err
	}
	defer store.Close()

	sweeper := retention.NewSweeper(e.cfg.RetentionConfig(), store, e.logger)
	removed, err := sweeper.Purge(cmd.Context(), days)
	if err != nil {
		return err
	}
	cmd.Println(catalog.Render(messages.PurgedData, messages.Vars{Days: days}))
	cmd.Printf("Removed %d locks\n", removed)
	return nil
}
