// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package commands

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/spf13/pflag"

	"github.com/bureau-foundation/toolfed/api"
	"github.com/bureau-foundation/toolfed/cmd/toolfed/cli"
)

func execCommand() *cli.Command {
	var conn connection
	var output cli.JSONOutput
	return &cli.Command{
		Name:    "exec",
		Summary: "Run a tool command",
		Description: `Run a program in the federation and print its output. The
program is matched exactly against each tool's effective program name;
a lazy tool is activated on first use.

Flags after the program name are passed to the tool. A tool fault
prints the fault message and exits 1.`,
		Usage: "toolfed exec [--socket PATH] [--json] <program> [args...]",
		Examples: []cli.Example{
			{
				Description: "Print the samtools version",
				Command:     "toolfed exec samtools --version",
			},
			{
				Description: "View a mounted alignment file",
				Command:     "toolfed exec samtools view -h reads.sam",
			},
		},
		Flags: func() *pflag.FlagSet {
			flagSet := pflag.NewFlagSet("exec", pflag.ContinueOnError)
			flagSet.SetInterspersed(false)
			conn.addFlags(flagSet)
			output.AddFlag(flagSet)
			return flagSet
		},
		Run: func(ctx context.Context, args []string, logger *slog.Logger) error {
			if len(args) == 0 {
				return fmt.Errorf("program is required")
			}
			client, err := conn.client()
			if err != nil {
				return err
			}
			result, err := client.ExecArgs(ctx, args[0], args[1:])
			if err != nil {
				return err
			}
			if done, err := output.EmitJSON(result); done {
				if err == nil && result.Fault != "" {
					err = &cli.ExitError{Code: 1}
				}
				return err
			}
			return printResult(os.Stdout, os.Stderr, result, cli.NewStyles(os.Stderr))
		},
	}
}

// printResult writes a tool's captured streams to the terminal. A
// fault is reported last and turned into exit code 1.
func printResult(stdout, stderr io.Writer, result api.ExecResponse, styles cli.Styles) error {
	if _, err := io.WriteString(stdout, result.Stdout); err != nil {
		return err
	}
	if _, err := io.WriteString(stderr, styles.Stderr(result.Stderr)); err != nil {
		return err
	}
	if result.Fault == "" {
		return nil
	}
	fmt.Fprintln(stderr, styles.Fault("fault: "+result.Fault))
	return &cli.ExitError{Code: 1}
}
