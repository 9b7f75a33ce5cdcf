// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package commands

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"text/tabwriter"

	"github.com/spf13/pflag"

	"github.com/bureau-foundation/toolfed/api"
	"github.com/bureau-foundation/toolfed/cmd/toolfed/cli"
	"github.com/bureau-foundation/toolfed/federation"
	"github.com/bureau-foundation/toolfed/lib/assets"
)

func toolsCommand() *cli.Command {
	var conn connection
	var output cli.JSONOutput
	return &cli.Command{
		Name:    "tools",
		Summary: "List tools and their state",
		Usage:   "toolfed tools [--socket PATH] [--json]",
		Flags: func() *pflag.FlagSet {
			flagSet := pflag.NewFlagSet("tools", pflag.ContinueOnError)
			conn.addFlags(flagSet)
			output.AddFlag(flagSet)
			return flagSet
		},
		Run: func(ctx context.Context, args []string, _ *slog.Logger) error {
			client, err := conn.client()
			if err != nil {
				return err
			}
			tools, err := client.Tools(ctx)
			if err != nil {
				return err
			}
			if done, err := output.EmitJSON(tools); done {
				return err
			}
			return printTools(os.Stdout, tools)
		},
	}
}

func printTools(w io.Writer, tools []federation.ToolStatus) error {
	tw := tabwriter.NewWriter(w, 2, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "TOOL\tVERSION\tPROGRAM\tLOADING\tSTATE\tCWD")
	for _, tool := range tools {
		cwd := tool.Cwd
		if cwd == "" {
			cwd = "-"
		}
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\t%s\n",
			tool.Tool, tool.Version, tool.Program, tool.Loading, tool.State, cwd)
	}
	return tw.Flush()
}

func mountCommand() *cli.Command {
	var conn connection
	var blobs []string
	var urls []string
	return &cli.Command{
		Name:    "mount",
		Summary: "Mount inputs into the shared data directory",
		Description: `Make files visible to every tool under the shared data directory.

Positional arguments are host files read by the server. --blob sends a
local file's bytes under a chosen name, for servers on another
filesystem. --url mounts a remote file fetched by range on demand.`,
		Usage: "toolfed mount [--blob NAME=FILE]... [--url URL]... [FILE...]",
		Examples: []cli.Example{
			{
				Description: "Mount a host file",
				Command:     "toolfed mount /data/run7/reads.sam",
			},
			{
				Description: "Mount a remote reference lazily",
				Command:     "toolfed mount --url https://data.example.org/genomes/chr20.fa",
			},
		},
		Flags: func() *pflag.FlagSet {
			flagSet := pflag.NewFlagSet("mount", pflag.ContinueOnError)
			conn.addFlags(flagSet)
			flagSet.StringArrayVar(&blobs, "blob", nil, "send FILE's content as NAME")
			flagSet.StringArrayVar(&urls, "url", nil, "mount a remote http(s) file")
			return flagSet
		},
		Run: func(ctx context.Context, args []string, _ *slog.Logger) error {
			inputs, err := mountInputs(args, blobs, urls, os.ReadFile)
			if err != nil {
				return err
			}
			if len(inputs) == 0 {
				return fmt.Errorf("nothing to mount")
			}
			client, err := conn.client()
			if err != nil {
				return err
			}
			paths, err := client.Mount(ctx, inputs...)
			if err != nil {
				return err
			}
			for _, path := range paths {
				fmt.Println(path)
			}
			return nil
		},
	}
}

// mountInputs builds wire inputs from the mount command line. Host
// file paths are made absolute because the server resolves them.
func mountInputs(files, blobs, urls []string, readFile func(string) ([]byte, error)) ([]api.MountInput, error) {
	var inputs []api.MountInput
	for _, url := range urls {
		if !assets.IsRemote(url) {
			return nil, fmt.Errorf("--url %q: want an http or https URL", url)
		}
		inputs = append(inputs, api.URLInput(url))
	}
	for _, blob := range blobs {
		name, file, ok := strings.Cut(blob, "=")
		if !ok || name == "" || file == "" {
			return nil, fmt.Errorf("--blob %q: want NAME=FILE", blob)
		}
		data, err := readFile(file)
		if err != nil {
			return nil, fmt.Errorf("--blob %s: %w", name, err)
		}
		inputs = append(inputs, api.BlobInput(name, data))
	}
	for _, file := range files {
		absolute, err := filepath.Abs(file)
		if err != nil {
			return nil, err
		}
		inputs = append(inputs, api.FileInput(absolute))
	}
	return inputs, nil
}

func catCommand() *cli.Command {
	var conn connection
	return &cli.Command{
		Name:    "cat",
		Summary: "Print a file from the primary tool's namespace",
		Usage:   "toolfed cat [--socket PATH] <path>",
		Flags: func() *pflag.FlagSet {
			flagSet := pflag.NewFlagSet("cat", pflag.ContinueOnError)
			conn.addFlags(flagSet)
			return flagSet
		},
		Run: func(ctx context.Context, args []string, _ *slog.Logger) error {
			if len(args) != 1 {
				return fmt.Errorf("want exactly one path, got %d", len(args))
			}
			client, err := conn.client()
			if err != nil {
				return err
			}
			text, found, err := client.Cat(ctx, args[0])
			if err != nil {
				return err
			}
			if !found {
				return fmt.Errorf("%s: no such file", args[0])
			}
			_, err = io.WriteString(os.Stdout, text)
			return err
		},
	}
}

func lsCommand() *cli.Command {
	var conn connection
	var output cli.JSONOutput
	return &cli.Command{
		Name:    "ls",
		Summary: "List a directory in the primary tool's namespace",
		Usage:   "toolfed ls [--socket PATH] [--json] [path]",
		Flags: func() *pflag.FlagSet {
			flagSet := pflag.NewFlagSet("ls", pflag.ContinueOnError)
			conn.addFlags(flagSet)
			output.AddFlag(flagSet)
			return flagSet
		},
		Run: func(ctx context.Context, args []string, _ *slog.Logger) error {
			if len(args) > 1 {
				return fmt.Errorf("want at most one path, got %d", len(args))
			}
			path := "."
			if len(args) == 1 {
				path = args[0]
			}
			client, err := conn.client()
			if err != nil {
				return err
			}
			listing, err := client.Ls(ctx, path)
			if err != nil {
				return err
			}
			if !listing.Found {
				return fmt.Errorf("%s: no such file or directory", path)
			}
			if done, err := output.EmitJSON(listing); done {
				return err
			}
			if listing.File != nil {
				fmt.Printf("%s\t%d\n", listing.File.Name, listing.File.Size)
				return nil
			}
			for _, name := range listing.Names {
				fmt.Println(name)
			}
			return nil
		},
	}
}

func cdCommand() *cli.Command {
	var conn connection
	return &cli.Command{
		Name:    "cd",
		Summary: "Change the shared working directory",
		Usage:   "toolfed cd [--socket PATH] <path>",
		Flags: func() *pflag.FlagSet {
			flagSet := pflag.NewFlagSet("cd", pflag.ContinueOnError)
			conn.addFlags(flagSet)
			return flagSet
		},
		Run: func(ctx context.Context, args []string, _ *slog.Logger) error {
			if len(args) != 1 {
				return fmt.Errorf("want exactly one path, got %d", len(args))
			}
			client, err := conn.client()
			if err != nil {
				return err
			}
			cwd, err := client.Cd(ctx, args[0])
			if err != nil {
				return err
			}
			fmt.Println(cwd)
			return nil
		},
	}
}

func pwdCommand() *cli.Command {
	var conn connection
	return &cli.Command{
		Name:    "pwd",
		Summary: "Print the shared working directory",
		Flags: func() *pflag.FlagSet {
			flagSet := pflag.NewFlagSet("pwd", pflag.ContinueOnError)
			conn.addFlags(flagSet)
			return flagSet
		},
		Run: func(ctx context.Context, args []string, _ *slog.Logger) error {
			client, err := conn.client()
			if err != nil {
				return err
			}
			cwd, err := client.Pwd(ctx)
			if err != nil {
				return err
			}
			fmt.Println(cwd)
			return nil
		},
	}
}

func reinitCommand() *cli.Command {
	var conn connection
	return &cli.Command{
		Name:    "reinit",
		Summary: "Rebuild a tool from scratch",
		Usage:   "toolfed reinit [--socket PATH] <tool>",
		Flags: func() *pflag.FlagSet {
			flagSet := pflag.NewFlagSet("reinit", pflag.ContinueOnError)
			conn.addFlags(flagSet)
			return flagSet
		},
		Run: func(ctx context.Context, args []string, logger *slog.Logger) error {
			if len(args) != 1 {
				return fmt.Errorf("want exactly one tool, got %d", len(args))
			}
			client, err := conn.client()
			if err != nil {
				return err
			}
			if err := client.Reinit(ctx, args[0]); err != nil {
				return err
			}
			logger.Info("tool reinitialized", "tool", args[0])
			return nil
		},
	}
}
