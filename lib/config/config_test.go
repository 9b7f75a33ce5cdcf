// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

const sampleConfig = `
socket_path: ${HOME}/run/toolfed.sock
url_cdn: https://bundles.example.org/v3
print_interleaved: true
tools:
  - tool: base
    version: "1.0.0"
  - tool: samtools
    version: "1.10"
  - tool: bowtie2
    version: "2.4.2"
    loading: lazy
    reinit: true
    features:
      simd: false
      threads: true
`

func TestParse(t *testing.T) {
	t.Setenv("HOME", "/home/analyst")

	cfg, err := Parse([]byte(sampleConfig))
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if err := cfg.Validate(); err != nil {
		t.Fatalf("Validate: %v", err)
	}
	if cfg.SocketPath != "/home/analyst/run/toolfed.sock" {
		t.Errorf("socket_path = %q", cfg.SocketPath)
	}
	if cfg.DirData != "data" || cfg.DirMounted != "mnt" || cfg.DirShared != "shared" {
		t.Errorf("directory defaults lost: %+v", cfg)
	}
	if !cfg.PrintInterleaved || cfg.Strict {
		t.Errorf("flags = interleaved %v strict %v", cfg.PrintInterleaved, cfg.Strict)
	}
	if len(cfg.Tools) != 3 {
		t.Fatalf("tools = %d", len(cfg.Tools))
	}
	bowtie := cfg.Tools[2]
	if bowtie.Loading != "lazy" || !bowtie.Reinit || bowtie.Features == nil || !bowtie.Features.Threads || bowtie.Features.SIMD {
		t.Errorf("bowtie2 = %+v", bowtie)
	}
}

func TestParseRejectsUnknownKeys(t *testing.T) {
	_, err := Parse([]byte("url_cdn: x\nurl_cnd: y\n"))
	if err == nil || !strings.Contains(err.Error(), "url_cnd") {
		t.Errorf("Parse error = %v, want unknown key reported", err)
	}
}

func TestLoadRequiresEnvironment(t *testing.T) {
	t.Setenv(EnvironmentVariable, "")
	_, err := Load()
	if err == nil || !strings.HasPrefix(err.Error(), EnvironmentVariable) {
		t.Errorf("Load error = %v", err)
	}
}

func TestLoadFromEnvironment(t *testing.T) {
	path := filepath.Join(t.TempDir(), "toolfed.yaml")
	if err := os.WriteFile(path, []byte(sampleConfig), 0o644); err != nil {
		t.Fatal(err)
	}
	t.Setenv(EnvironmentVariable, path)

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.URLCDN != "https://bundles.example.org/v3" {
		t.Errorf("url_cdn = %q", cfg.URLCDN)
	}
}

func TestExpandVars(t *testing.T) {
	t.Setenv("TOOLFED_TEST_SET", "/srv/bundles")
	t.Setenv("TOOLFED_TEST_EMPTY", "")
	vars := map[string]string{"HOME": "/home/analyst"}

	tests := []struct {
		input string
		want  string
	}{
		{"${HOME}/toolfed.sock", "/home/analyst/toolfed.sock"},
		{"${TOOLFED_TEST_SET}/v3", "/srv/bundles/v3"},
		{"${TOOLFED_TEST_EMPTY:-/tmp}/x", "/tmp/x"},
		{"${TOOLFED_TEST_UNSET}", ""},
		{"no variables", "no variables"},
	}
	for _, test := range tests {
		if got := expandVars(test.input, vars); got != test.want {
			t.Errorf("expandVars(%q) = %q, want %q", test.input, got, test.want)
		}
	}
}

func TestDefaultSocketPath(t *testing.T) {
	t.Setenv("XDG_RUNTIME_DIR", "/run/user/1000")
	if got := DefaultSocketPath(); got != "/run/user/1000/toolfed.sock" {
		t.Errorf("DefaultSocketPath = %q", got)
	}
	t.Setenv("XDG_RUNTIME_DIR", "")
	if got := DefaultSocketPath(); got != "/tmp/toolfed.sock" {
		t.Errorf("DefaultSocketPath without XDG_RUNTIME_DIR = %q", got)
	}
}

func TestValidate(t *testing.T) {
	valid := func() *Config {
		cfg := Default()
		cfg.SocketPath = "/tmp/toolfed.sock"
		cfg.URLCDN = "/srv/bundles"
		cfg.Tools = []ToolConfig{{Tool: "base"}, {Tool: "samtools"}}
		return cfg
	}
	if err := valid().Validate(); err != nil {
		t.Fatalf("valid config rejected: %v", err)
	}

	tests := []struct {
		name   string
		modify func(*Config)
		want   string
	}{
		{"no socket", func(c *Config) { c.SocketPath = "" }, "socket_path"},
		{"nested dir", func(c *Config) { c.DirShared = "a/b" }, "dir_shared"},
		{"same dirs", func(c *Config) { c.DirMounted = c.DirData }, "must differ"},
		{"one tool", func(c *Config) { c.Tools = c.Tools[:1] }, "at least one more"},
		{"duplicate", func(c *Config) { c.Tools[1].Tool = "base" }, "listed twice"},
		{"bad loading", func(c *Config) { c.Tools[1].Loading = "deferred" }, "loading"},
		{"root reinit", func(c *Config) { c.Tools[0].Reinit = true }, "root tool"},
		{"no bundle location", func(c *Config) { c.URLCDN = "" }, "url_prefix"},
	}
	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			cfg := valid()
			test.modify(cfg)
			err := cfg.Validate()
			if err == nil || !strings.Contains(err.Error(), test.want) {
				t.Errorf("Validate error = %v, want mention of %q", err, test.want)
			}
		})
	}
}
