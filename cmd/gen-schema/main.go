// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 HoloMUSH Contributors

// Command gen-schema writes the config file JSON Schema. With --check it
// fails instead when the file on disk is stale.
package main

import (
	"bytes"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/samber/oops"
	"github.com/spf13/pflag"

	"github.com/holomush/frameguard/internal/config"
)

const defaultOut = "schemas/config.schema.json"

func main() {
	if err := run(os.Args[1:], os.Stdout); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func run(args []string, out io.Writer) error {
	fs := pflag.NewFlagSet("gen-schema", pflag.ContinueOnError)
	fs.SetOutput(io.Discard)
	outPath := fs.StringP("out", "o", defaultOut, "schema file to write")
	check := fs.Bool("check", false, "fail if the schema file is out of date")
	if err := fs.Parse(args); err != nil {
		return oops.Code("INVALID_ARGUMENT").Wrap(err)
	}

	schema, err := config.GenerateSchema()
	if err != nil {
		return err
	}
	schema = append(schema, '\n')

	if *check {
		current, err := os.ReadFile(*outPath)
		if err != nil {
			return oops.Code("SCHEMA_READ_FAILED").With("path", *outPath).Wrap(err)
		}
		if !bytes.Equal(current, schema) {
			return oops.Code("SCHEMA_STALE").With("path", *outPath).
				Errorf("%s is out of date, run gen-schema", *outPath)
		}
		fmt.Fprintf(out, "%s is up to date\n", *outPath)
		return nil
	}

	if err := os.MkdirAll(filepath.Dir(*outPath), 0o750); err != nil {
		return oops.Code("DIR_CREATE_FAILED").With("path", *outPath).Wrap(err)
	}
	if err := os.WriteFile(*outPath, schema, 0o600); err != nil {
		return oops.Code("SCHEMA_WRITE_FAILED").With("path", *outPath).Wrap(err)
	}
	fmt.Fprintf(out, "Generated %s\n", *outPath)
	return nil
}
