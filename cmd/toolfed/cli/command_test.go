// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package cli

import (
	"bytes"
	"context"
	"log/slog"
	"strings"
	"testing"

	"github.com/spf13/pflag"
)

func TestCommand_Execute_DispatchesToSubcommand(t *testing.T) {
	var called string

	root := &Command{
		Name: "toolfed",
		Subcommands: []*Command{
			{
				Name: "version",
				Run: func(_ context.Context, args []string, _ *slog.Logger) error {
					called = "version"
					return nil
				},
			},
			{
				Name: "exec",
				Run: func(_ context.Context, args []string, _ *slog.Logger) error {
					called = "exec"
					return nil
				},
			},
		},
	}

	if err := root.Execute(context.Background(), []string{"exec"}); err != nil {
		t.Fatalf("Execute() error: %v", err)
	}
	if called != "exec" {
		t.Errorf("dispatched to %q, want %q", called, "exec")
	}
}

func TestCommand_Execute_FlagParsing(t *testing.T) {
	var socketPath string
	var receivedArgs []string

	command := &Command{
		Name: "exec",
		Flags: func() *pflag.FlagSet {
			flagSet := pflag.NewFlagSet("exec", pflag.ContinueOnError)
			flagSet.StringVar(&socketPath, "socket", "/default.sock", "socket path")
			flagSet.SetInterspersed(false)
			return flagSet
		},
		Run: func(_ context.Context, args []string, _ *slog.Logger) error {
			receivedArgs = args
			return nil
		},
	}

	args := []string{"--socket", "/custom.sock", "samtools", "view", "-h", "toy.sam"}
	if err := command.Execute(context.Background(), args); err != nil {
		t.Fatalf("Execute() error: %v", err)
	}
	if socketPath != "/custom.sock" {
		t.Errorf("socketPath = %q, want %q", socketPath, "/custom.sock")
	}
	// Flags after the program belong to the tool.
	if strings.Join(receivedArgs, " ") != "samtools view -h toy.sam" {
		t.Errorf("args = %v", receivedArgs)
	}
}

func TestCommand_Execute_UnknownFlagSuggestion(t *testing.T) {
	command := &Command{
		Name: "serve",
		Flags: func() *pflag.FlagSet {
			flagSet := pflag.NewFlagSet("serve", pflag.ContinueOnError)
			flagSet.String("config", "", "config file")
			flagSet.String("socket", "/default.sock", "socket path")
			return flagSet
		},
		Run: func(context.Context, []string, *slog.Logger) error { return nil },
	}

	err := command.Execute(context.Background(), []string{"--cofnig", "x.yaml"})
	if err == nil {
		t.Fatal("Execute() = nil, want error for unknown flag")
	}
	errStr := err.Error()
	if !strings.Contains(errStr, "did you mean --config") {
		t.Errorf("error = %q, want suggestion for '--config'", errStr)
	}
	if !strings.Contains(errStr, "--help") {
		t.Errorf("error = %q, should point to --help", errStr)
	}
}

func TestCommand_Execute_UnknownSubcommand(t *testing.T) {
	root := &Command{
		Name: "toolfed",
		Subcommands: []*Command{
			{Name: "serve"},
			{Name: "exec"},
			{Name: "version"},
		},
	}

	err := root.Execute(context.Background(), []string{"serv"})
	if err == nil || !strings.Contains(err.Error(), `did you mean "serve"`) {
		t.Errorf("error = %v, want suggestion for 'serve'", err)
	}

	err = root.Execute(context.Background(), []string{"zzzzzzz"})
	if err == nil || strings.Contains(err.Error(), "did you mean") {
		t.Errorf("error = %v, want no suggestion for distant input", err)
	}
}

func TestCommand_Execute_HelpFlag(t *testing.T) {
	for _, helpArg := range []string{"-h", "--help", "help"} {
		t.Run(helpArg, func(t *testing.T) {
			root := &Command{
				Name:    "toolfed",
				Summary: "Federated tool namespaces",
				Subcommands: []*Command{
					{Name: "serve", Summary: "Run the server"},
				},
			}
			if err := root.Execute(context.Background(), []string{helpArg}); err != nil {
				t.Errorf("Execute(%q) error: %v", helpArg, err)
			}
		})
	}
}

func TestCommand_Execute_NoArgsShowsHelp(t *testing.T) {
	root := &Command{
		Name:        "toolfed",
		Subcommands: []*Command{{Name: "serve"}},
	}
	err := root.Execute(context.Background(), nil)
	if err == nil || !strings.Contains(err.Error(), "subcommand required") {
		t.Errorf("error = %v, want 'subcommand required'", err)
	}
}

func TestCommand_PrintHelp(t *testing.T) {
	command := &Command{
		Name:        "toolfed",
		Description: "Federated tool namespaces.",
		Subcommands: []*Command{
			{Name: "serve", Summary: "Run the federation server"},
			{Name: "exec", Summary: "Run a tool command"},
		},
		Examples: []Example{
			{
				Description: "Show the samtools version",
				Command:     "toolfed exec samtools --version",
			},
		},
		Flags: func() *pflag.FlagSet {
			flagSet := pflag.NewFlagSet("toolfed", pflag.ContinueOnError)
			flagSet.String("socket", "/tmp/toolfed.sock", "server socket")
			return flagSet
		},
	}

	var buffer bytes.Buffer
	command.PrintHelp(&buffer)
	output := buffer.String()

	for _, want := range []string{
		"Federated tool namespaces.",
		"Usage:",
		"toolfed <command> [flags]",
		"Commands:",
		"Run the federation server",
		"Flags:",
		"--socket",
		"Examples:",
		"# Show the samtools version",
		"toolfed exec samtools --version",
		"Run 'toolfed <command> --help'",
	} {
		if !strings.Contains(output, want) {
			t.Errorf("help output missing %q\n\nFull output:\n%s", want, output)
		}
	}
}

func TestCommand_Names(t *testing.T) {
	root := &Command{Name: "toolfed"}
	exec := &Command{Name: "exec", parent: root}
	nested := &Command{Name: "ls", parent: exec}

	if got := nested.fullName(); got != "toolfed exec ls" {
		t.Errorf("fullName() = %q", got)
	}
	if got := exec.path(); got != "exec" {
		t.Errorf("exec.path() = %q", got)
	}
	if got := nested.path(); got != "exec/ls" {
		t.Errorf("nested.path() = %q", got)
	}
}
