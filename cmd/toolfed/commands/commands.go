// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

// Package commands builds the toolfed CLI command tree.
//
// "serve" and "export" host a federation System in-process; every
// other command is a client of a running server's control socket.
package commands

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/bureau-foundation/toolfed/cmd/toolfed/cli"
	"github.com/bureau-foundation/toolfed/lib/version"
)

// Root builds and returns the complete toolfed command tree.
func Root() *cli.Command {
	return &cli.Command{
		Name: "toolfed",
		Description: `toolfed: federated tool namespaces.

Run independently built tool programs, each in its own filesystem
namespace, as if they shared one filesystem and one command line.`,
		Subcommands: []*cli.Command{
			serveCommand(),
			execCommand(),
			toolsCommand(),
			mountCommand(),
			catCommand(),
			lsCommand(),
			cdCommand(),
			pwdCommand(),
			reinitCommand(),
			callCommand(),
			exportCommand(),
			{
				Name:    "version",
				Summary: "Print version information",
				Run: func(_ context.Context, args []string, _ *slog.Logger) error {
					fmt.Printf("toolfed %s\n", version.Full())
					return nil
				},
			},
		},
		Examples: []cli.Example{
			{
				Description: "Start a server from a config file",
				Command:     "toolfed serve --config toolfed.yaml",
			},
			{
				Description: "Mount an input and run a tool on it",
				Command:     "toolfed mount reads.sam && toolfed exec samtools view reads.sam",
			},
		},
	}
}
