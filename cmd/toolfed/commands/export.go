// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package commands

import (
	"context"
	"fmt"
	"log/slog"
	"os/signal"
	"syscall"

	"github.com/spf13/pflag"

	"github.com/bureau-foundation/toolfed/cmd/toolfed/cli"
	"github.com/bureau-foundation/toolfed/lib/nsfuse"
)

func exportCommand() *cli.Command {
	var configPath, tool, root string
	var allowOther bool
	return &cli.Command{
		Name:    "export",
		Summary: "Mount a tool namespace on the host with FUSE",
		Description: `Start a federation from the config, activate its eager tools, and
mount one tool's namespace read-only at MOUNTPOINT until interrupted.

The default tool is the primary tool. Requires /dev/fuse.`,
		Usage: "toolfed export [--config FILE] [--tool NAME] [--root PATH] <mountpoint>",
		Examples: []cli.Example{
			{
				Description: "Browse what samtools sees, sample data from other tools included",
				Command:     "toolfed export --tool samtools /tmp/samtools-view",
			},
		},
		Flags: func() *pflag.FlagSet {
			flagSet := pflag.NewFlagSet("export", pflag.ContinueOnError)
			flagSet.StringVarP(&configPath, "config", "c", "", "config file (default $TOOLFED_CONFIG)")
			flagSet.StringVarP(&tool, "tool", "t", "", "tool whose namespace to export (default the primary)")
			flagSet.StringVar(&root, "root", "/", "namespace directory to export")
			flagSet.BoolVar(&allowOther, "allow-other", false, "let other users read the mount")
			return flagSet
		},
		Run: func(ctx context.Context, args []string, _ *slog.Logger) error {
			if len(args) != 1 {
				return fmt.Errorf("want exactly one mountpoint, got %d", len(args))
			}
			cfg, err := loadConfig(configPath)
			if err != nil {
				return err
			}
			logger := serverLogger(cfg, "export")
			if tool == "" {
				tool = cfg.Tools[1].Tool
			}

			ctx, stop := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
			defer stop()

			system, err := newSystem(cfg, logger)
			if err != nil {
				return err
			}
			if err := initSystem(ctx, system, cfg.Tools[1].Tool, logger); err != nil {
				return err
			}
			ns, ok := system.Namespace(tool)
			if !ok {
				return fmt.Errorf("tool %q is not configured or not active", tool)
			}

			server, err := nsfuse.Mount(nsfuse.Options{
				Mountpoint: args[0],
				Source:     ns,
				Root:       root,
				AllowOther: allowOther,
				Logger:     logger,
			})
			if err != nil {
				return err
			}
			<-ctx.Done()
			logger.Info("unmounting", "mountpoint", args[0])
			return server.Unmount()
		},
	}
}
