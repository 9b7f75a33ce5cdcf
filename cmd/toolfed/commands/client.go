// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package commands

import (
	"os"

	"github.com/spf13/pflag"

	"github.com/bureau-foundation/toolfed/api"
	"github.com/bureau-foundation/toolfed/lib/config"
)

// EnvironmentSocket overrides the control socket path for client
// commands.
const EnvironmentSocket = "TOOLFED_SOCKET"

// connection holds the flags shared by commands that talk to a
// running server.
type connection struct {
	socketPath string
}

func (c *connection) addFlags(flagSet *pflag.FlagSet) {
	flagSet.StringVar(&c.socketPath, "socket", "", "server control socket (default $TOOLFED_SOCKET or the config default)")
}

// path resolves the socket: --socket, then TOOLFED_SOCKET, then the
// socket_path of the TOOLFED_CONFIG file, then the built-in default.
func (c *connection) path() string {
	if c.socketPath != "" {
		return c.socketPath
	}
	if value := os.Getenv(EnvironmentSocket); value != "" {
		return value
	}
	if cfg, err := config.Load(); err == nil {
		return cfg.SocketPath
	}
	return config.DefaultSocketPath()
}

func (c *connection) client() (*api.Client, error) {
	return api.NewClient(c.path())
}
