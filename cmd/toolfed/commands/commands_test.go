// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package commands

import (
	"bytes"
	"errors"
	"os"
	"path/filepath"
	"reflect"
	"strings"
	"testing"

	"github.com/bureau-foundation/toolfed/api"
	"github.com/bureau-foundation/toolfed/cmd/toolfed/cli"
	"github.com/bureau-foundation/toolfed/federation"
	"github.com/bureau-foundation/toolfed/lib/config"
)

func writeConfig(t *testing.T, text string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "toolfed.yaml")
	if err := os.WriteFile(path, []byte(text), 0o644); err != nil {
		t.Fatal(err)
	}
	return path
}

const validConfig = `
url_cdn: /srv/tools
tools:
  - tool: base
    version: 1.0.0
  - tool: samtools
    version: "1.10"
  - tool: bcftools
    version: "1.10"
    loading: lazy
    features:
      simd: true
`

func TestLoadConfig(t *testing.T) {
	cfg, err := loadConfig(writeConfig(t, validConfig))
	if err != nil {
		t.Fatalf("loadConfig: %v", err)
	}
	if len(cfg.Tools) != 3 || cfg.Tools[1].Tool != "samtools" {
		t.Errorf("tools = %+v", cfg.Tools)
	}

	_, err = loadConfig(writeConfig(t, "tools:\n  - tool: base\n"))
	if err == nil || !strings.HasPrefix(err.Error(), "invalid config") {
		t.Errorf("single-tool config error = %v", err)
	}
	_, err = loadConfig(filepath.Join(t.TempDir(), "absent.yaml"))
	if !errors.Is(err, os.ErrNotExist) {
		t.Errorf("missing file error = %v, want ErrNotExist", err)
	}
}

func TestToolConfigs(t *testing.T) {
	cfg, err := config.Parse([]byte(validConfig))
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	tools, err := toolConfigs(cfg)
	if err != nil {
		t.Fatalf("toolConfigs: %v", err)
	}
	if tools[0].Loading != federation.LoadingEager || tools[0].Features != nil {
		t.Errorf("root = %+v", tools[0])
	}
	want := federation.ToolConfig{
		Tool:     "bcftools",
		Version:  "1.10",
		Loading:  federation.LoadingLazy,
		Features: &federation.Features{WideVector: true},
	}
	if !reflect.DeepEqual(tools[2], want) {
		t.Errorf("bcftools = %+v, want %+v", tools[2], want)
	}

	cfg.Tools[1].Loading = "sometimes"
	if _, err := toolConfigs(cfg); err == nil || !strings.HasPrefix(err.Error(), "tools[1]") {
		t.Errorf("bad loading error = %v", err)
	}
}

func TestConnectionPath(t *testing.T) {
	configPath := writeConfig(t, "socket_path: /run/from-config.sock\n")

	t.Setenv(EnvironmentSocket, "")
	t.Setenv(config.EnvironmentVariable, "")
	t.Setenv("XDG_RUNTIME_DIR", "/run/user/1000")
	if got := (&connection{}).path(); got != "/run/user/1000/toolfed.sock" {
		t.Errorf("default path = %q", got)
	}

	t.Setenv(config.EnvironmentVariable, configPath)
	if got := (&connection{}).path(); got != "/run/from-config.sock" {
		t.Errorf("config path = %q", got)
	}

	t.Setenv(EnvironmentSocket, "/run/from-env.sock")
	if got := (&connection{}).path(); got != "/run/from-env.sock" {
		t.Errorf("environment path = %q", got)
	}

	if got := (&connection{socketPath: "/run/flag.sock"}).path(); got != "/run/flag.sock" {
		t.Errorf("flag path = %q", got)
	}
}

func TestMountInputs(t *testing.T) {
	files := map[string][]byte{"/tmp/local.fa": []byte(">chr1\n")}
	readFile := func(path string) ([]byte, error) {
		data, ok := files[path]
		if !ok {
			return nil, os.ErrNotExist
		}
		return data, nil
	}

	inputs, err := mountInputs(
		[]string{"reads.sam"},
		[]string{"ref.fa=/tmp/local.fa"},
		[]string{"https://data.test/chr20.fa"},
		readFile,
	)
	if err != nil {
		t.Fatalf("mountInputs: %v", err)
	}
	absolute, _ := filepath.Abs("reads.sam")
	want := []api.MountInput{
		api.URLInput("https://data.test/chr20.fa"),
		api.BlobInput("ref.fa", []byte(">chr1\n")),
		api.FileInput(absolute),
	}
	if !reflect.DeepEqual(inputs, want) {
		t.Errorf("inputs = %+v, want %+v", inputs, want)
	}

	tests := []struct {
		name  string
		blobs []string
		urls  []string
		want  string
	}{
		{"ftp url", nil, []string{"ftp://data.test/a"}, "--url"},
		{"blob without name", []string{"=/tmp/local.fa"}, nil, "want NAME=FILE"},
		{"blob without file", []string{"ref.fa"}, nil, "want NAME=FILE"},
		{"unreadable blob", []string{"x=/tmp/absent"}, nil, "--blob x"},
	}
	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			_, err := mountInputs(nil, test.blobs, test.urls, readFile)
			if err == nil || !strings.Contains(err.Error(), test.want) {
				t.Errorf("error = %v, want it to mention %q", err, test.want)
			}
		})
	}
}

func TestPrintResult(t *testing.T) {
	var stdout, stderr bytes.Buffer
	err := printResult(&stdout, &stderr, api.ExecResponse{Stdout: "1.10\n", Stderr: "warn\n"}, cli.Styles{})
	if err != nil {
		t.Fatalf("printResult: %v", err)
	}
	if stdout.String() != "1.10\n" || stderr.String() != "warn\n" {
		t.Errorf("stdout %q, stderr %q", stdout.String(), stderr.String())
	}

	stdout.Reset()
	stderr.Reset()
	err = printResult(&stdout, &stderr, api.ExecResponse{Stderr: "bad input\n", Fault: "exit status 2"}, cli.Styles{})
	var exitErr *cli.ExitError
	if !errors.As(err, &exitErr) || exitErr.Code != 1 {
		t.Fatalf("fault error = %v, want ExitError 1", err)
	}
	if stderr.String() != "bad input\nfault: exit status 2\n" {
		t.Errorf("stderr = %q", stderr.String())
	}
}

func TestPrintTools(t *testing.T) {
	var buffer bytes.Buffer
	err := printTools(&buffer, []federation.ToolStatus{
		{Tool: "base", Version: "1.0.0", Program: "base", Loading: "eager", State: "ready", Cwd: "/data"},
		{Tool: "bcftools", Version: "1.10", Program: "bcftools", Loading: "lazy", State: "not-loaded"},
	})
	if err != nil {
		t.Fatalf("printTools: %v", err)
	}
	lines := strings.Split(strings.TrimSpace(buffer.String()), "\n")
	if len(lines) != 3 {
		t.Fatalf("output = %q", buffer.String())
	}
	if fields := strings.Fields(lines[0]); !reflect.DeepEqual(fields, []string{"TOOL", "VERSION", "PROGRAM", "LOADING", "STATE", "CWD"}) {
		t.Errorf("header = %q", lines[0])
	}
	if fields := strings.Fields(lines[2]); fields[len(fields)-1] != "-" || fields[4] != "not-loaded" {
		t.Errorf("inactive row = %q", lines[2])
	}
}

func TestParseFields(t *testing.T) {
	fields, err := parseFields([]string{
		"path=reads.sam",
		"offset:=7",
		"truncate:=true",
		"note=a=b",
	})
	if err != nil {
		t.Fatalf("parseFields: %v", err)
	}
	want := map[string]any{
		"path":     "reads.sam",
		"offset":   float64(7),
		"truncate": true,
		"note":     "a=b",
	}
	if !reflect.DeepEqual(fields, want) {
		t.Errorf("fields = %v, want %v", fields, want)
	}

	for _, bad := range []string{"noequals", "=value", "length:=abc", "action=exec"} {
		if _, err := parseFields([]string{bad}); err == nil {
			t.Errorf("parseFields(%q) succeeded", bad)
		}
	}
}

func TestRootCommandTree(t *testing.T) {
	root := Root()
	names := map[string]bool{}
	for _, command := range root.Subcommands {
		names[command.Name] = true
	}
	for _, name := range []string{"serve", "exec", "tools", "mount", "cat", "ls", "cd", "pwd", "reinit", "call", "export", "version"} {
		if !names[name] {
			t.Errorf("missing subcommand %q", name)
		}
	}
}
