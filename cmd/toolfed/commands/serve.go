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

	"github.com/bureau-foundation/toolfed/api"
	"github.com/bureau-foundation/toolfed/cmd/toolfed/cli"
	"github.com/bureau-foundation/toolfed/federation"
	"github.com/bureau-foundation/toolfed/lib/service"
	"github.com/bureau-foundation/toolfed/lib/version"
)

func serveCommand() *cli.Command {
	var configPath, socketPath string
	return &cli.Command{
		Name:    "serve",
		Summary: "Run the federation server",
		Description: `Load the tool list, activate the eager tools, and serve the
federation on a Unix control socket until interrupted.

The config file is --config, or the file named by TOOLFED_CONFIG.`,
		Usage: "toolfed serve [--config FILE] [--socket PATH]",
		Flags: func() *pflag.FlagSet {
			flagSet := pflag.NewFlagSet("serve", pflag.ContinueOnError)
			flagSet.StringVarP(&configPath, "config", "c", "", "config file (default $TOOLFED_CONFIG)")
			flagSet.StringVar(&socketPath, "socket", "", "control socket path (overrides socket_path)")
			return flagSet
		},
		Run: func(ctx context.Context, args []string, _ *slog.Logger) error {
			if len(args) != 0 {
				return fmt.Errorf("unexpected arguments: %v", args)
			}
			cfg, err := loadConfig(configPath)
			if err != nil {
				return err
			}
			if socketPath != "" {
				cfg.SocketPath = socketPath
			}
			logger := serverLogger(cfg, "serve")

			ctx, stop := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
			defer stop()

			system, err := newSystem(cfg, logger)
			if err != nil {
				return err
			}
			if err := initSystem(ctx, system, cfg.Tools[1].Tool, logger); err != nil {
				return err
			}

			server := service.NewSocketServer(cfg.SocketPath, logger)
			api.NewHandler(system, logger).Register(server)
			logger.Info("serving",
				"socket", cfg.SocketPath,
				"version", version.Info(),
				"tools", len(cfg.Tools),
				"actions", len(server.Actions()),
			)
			return server.Serve(ctx)
		},
	}
}

// initSystem runs Init. Failures of tools other than the root and the
// primary are logged and the System is still usable.
func initSystem(ctx context.Context, system *federation.System, primary string, logger *slog.Logger) error {
	err := system.Init(ctx)
	if err == nil {
		return nil
	}
	if _, ok := system.Namespace(primary); !ok {
		return fmt.Errorf("initializing tools: %w", err)
	}
	logger.Warn("some tools failed to activate", "error", err)
	return nil
}
