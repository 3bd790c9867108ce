// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 HoloMUSH Contributors

package main

import (
	"github.com/spf13/cobra"

	"github.com/holomush/frameguard/internal/config"
)

// Global flags available to all subcommands.
var configFile string

// NewRootCmd creates the root command for the frameguard CLI.
func NewRootCmd() *cobra.Command {
	return newRootCmd(nil)
}

func newRootCmd(deps *Deps) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "frameguard",
		Short: "frameguard - ownership locks for item frames and paintings",
		Long: `frameguard keeps player-owned locks on hanging decorations and the
blocks they hang on. This command manages the lock database: schema
migrations, retention purges, owner lookups and the metrics sidecar.`,
		SilenceUsage: true,
	}

	cmd.PersistentFlags().StringVar(&configFile, "config", "", "config file path (default $XDG_CONFIG_HOME/frameguard/config.yaml)")
	config.BindFlags(cmd.PersistentFlags())

	cmd.AddCommand(NewMigrateCmd(deps))
	cmd.AddCommand(NewPurgeCmd(deps))
	cmd.AddCommand(NewOwnerCmd(deps))
	cmd.AddCommand(NewServeCmd(deps))
	cmd.AddCommand(NewConfigCmd(deps))

	return cmd
}
