// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 HoloMUSH Contributors

package main

import (
	"os"

	"github.com/samber/oops"
	"github.com/spf13/cobra"

	"github.com/holomush/frameguard/internal/config"
)

// NewConfigCmd creates the config command group.
func NewConfigCmd(deps *Deps) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "config",
		Short: "Inspect and check configuration files",
	}
	cmd.AddCommand(&cobra.Command{
		Use:   "schema",
		Short: "Print the JSON Schema of the config file",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			data, err := config.GenerateSchema()
			if err != nil {
				return err
			}
			cmd.Println(string(data))
			return nil
		},
	})
	cmd.AddCommand(&cobra.Command{
		Use:   "validate FILE",
		Short: "Check a config file against the schema and the runtime rules",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runConfigValidate(cmd, deps, args[0])
		},
	})
	return cmd
}

func runConfigValidate(cmd *cobra.Command, deps *Deps, path string) error {
	data, err := os.ReadFile(path) //nolint:gosec // the operator names the file
	if err != nil {
		return oops.Code(config.CodeInvalid).With("path", path).Wrap(err)
	}
	if err := config.ValidateFile(data); err != nil {
		return err
	}
	if _, err := config.Load(config.LoadOptions{Path: path, Getenv: withDefaults(deps).Getenv}); err != nil {
		return err
	}
	cmd.Printf("%s is valid\n", path)
	return nil
}
