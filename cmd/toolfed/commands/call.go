// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package commands

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"strings"

	"github.com/spf13/pflag"

	"github.com/bureau-foundation/toolfed/cmd/toolfed/cli"
	"github.com/bureau-foundation/toolfed/lib/service"
)

func callCommand() *cli.Command {
	var conn connection
	return &cli.Command{
		Name:    "call",
		Summary: "Send a raw action to the server",
		Description: `Send one action to the control socket and print the response
data as JSON.

Fields are key=value for strings or key:=JSON for any other value.`,
		Usage: "toolfed call [--socket PATH] <action> [key=value | key:=json]...",
		Examples: []cli.Example{
			{
				Description: "Read the first 64 bytes of a file",
				Command:     "toolfed call read path=reads.sam offset:=0 length:=64",
			},
			{
				Description: "List mounted input files",
				Command:     "toolfed call mounts",
			},
		},
		Flags: func() *pflag.FlagSet {
			flagSet := pflag.NewFlagSet("call", pflag.ContinueOnError)
			conn.addFlags(flagSet)
			return flagSet
		},
		Run: func(ctx context.Context, args []string, _ *slog.Logger) error {
			if len(args) == 0 {
				return fmt.Errorf("action is required")
			}
			fields, err := parseFields(args[1:])
			if err != nil {
				return err
			}
			var result any
			if err := service.NewClient(conn.path()).Call(ctx, args[0], fields, &result); err != nil {
				return err
			}
			if result == nil {
				return nil
			}
			return cli.WriteJSON(os.Stdout, result)
		},
	}
}

// parseFields turns key=value and key:=json arguments into request
// fields.
func parseFields(args []string) (map[string]any, error) {
	fields := make(map[string]any, len(args))
	for _, arg := range args {
		if strings.HasPrefix(arg, "action=") || strings.HasPrefix(arg, "action:=") {
			return nil, fmt.Errorf("field %q: action is the first argument", arg)
		}
		if key, raw, ok := strings.Cut(arg, ":="); ok && key != "" && !strings.Contains(key, "=") {
			var value any
			if err := json.Unmarshal([]byte(raw), &value); err != nil {
				return nil, fmt.Errorf("field %s: %w", key, err)
			}
			fields[key] = value
			continue
		}
		key, value, ok := strings.Cut(arg, "=")
		if !ok || key == "" {
			return nil, fmt.Errorf("field %q: want key=value or key:=json", arg)
		}
		fields[key] = value
	}
	return fields, nil
}
