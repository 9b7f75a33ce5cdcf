// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package config

import (
	"errors"
	"fmt"
	"os"
	"regexp"
	"strings"

	"gopkg.in/yaml.v3"
)

// EnvironmentVariable names the config file for Load.
const EnvironmentVariable = "TOOLFED_CONFIG"

// Config is the complete toolfed configuration.
type Config struct {
	// SocketPath is where "toolfed serve" listens and where client
	// commands connect.
	SocketPath string `yaml:"socket_path"`

	// Directory names inside the root tool's namespace.
	DirData    string `yaml:"dir_data"`
	DirMounted string `yaml:"dir_mounted"`
	DirShared  string `yaml:"dir_shared"`

	// URLCDN is the base location of tool bundles: an http(s) URL or
	// a local directory. Required unless every tool sets url_prefix.
	URLCDN string `yaml:"url_cdn"`

	// PrintInterleaved merges tool stderr into stdout.
	PrintInterleaved bool `yaml:"print_interleaved"`

	// Debug enables debug-level logging.
	Debug bool `yaml:"debug"`

	// Strict makes exec report tool faults as errors.
	Strict bool `yaml:"strict"`

	// Tools lists the federated tools. The first is the root tool,
	// the second the primary tool.
	Tools []ToolConfig `yaml:"tools"`
}

// ToolConfig describes one tool.
type ToolConfig struct {
	Tool      string `yaml:"tool"`
	Version   string `yaml:"version"`
	Program   string `yaml:"program"`
	URLPrefix string `yaml:"url_prefix"`

	// Loading is "eager" (default) or "lazy".
	Loading string `yaml:"loading"`

	Reinit bool `yaml:"reinit"`

	// Features pins the selected build and skips capability
	// detection.
	Features *FeaturesConfig `yaml:"features,omitempty"`
}

type FeaturesConfig struct {
	SIMD    bool `yaml:"simd"`
	Threads bool `yaml:"threads"`
}

const defaultSocketPath = "${XDG_RUNTIME_DIR:-/tmp}/toolfed.sock"

// DefaultSocketPath is the expanded default control socket path.
func DefaultSocketPath() string {
	return expandVars(defaultSocketPath, nil)
}

// Default returns the values a config file starts from.
func Default() *Config {
	return &Config{
		SocketPath: defaultSocketPath,
		DirData:    "data",
		DirMounted: "mnt",
		DirShared:  "shared",
	}
}

// Load loads the file named by TOOLFED_CONFIG.
func Load() (*Config, error) {
	configPath := os.Getenv(EnvironmentVariable)
	if configPath == "" {
		return nil, fmt.Errorf("%s environment variable not set; "+
			"set it to the path of your toolfed.yaml config file, or use --config flag", EnvironmentVariable)
	}
	return LoadFile(configPath)
}

// LoadFile loads configuration from path over the defaults and
// expands variables. It does not validate.
func LoadFile(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	return Parse(data)
}

// Parse decodes YAML configuration over the defaults. Unknown keys are
// rejected.
func Parse(data []byte) (*Config, error) {
	cfg := Default()
	decoder := yaml.NewDecoder(strings.NewReader(string(data)))
	decoder.KnownFields(true)
	if err := decoder.Decode(cfg); err != nil {
		return nil, fmt.Errorf("parsing config: %w", err)
	}
	cfg.expandVariables()
	return cfg, nil
}

func (c *Config) expandVariables() {
	vars := map[string]string{
		"HOME": os.Getenv("HOME"),
	}
	c.SocketPath = expandVars(c.SocketPath, vars)
	c.URLCDN = expandVars(c.URLCDN, vars)
	for index := range c.Tools {
		c.Tools[index].URLPrefix = expandVars(c.Tools[index].URLPrefix, vars)
	}
}

// varPattern matches ${VAR} and ${VAR:-default}.
var varPattern = regexp.MustCompile(`\$\{([^}:]+)(?::-([^}]*))?\}`)

func expandVars(s string, vars map[string]string) string {
	return varPattern.ReplaceAllStringFunc(s, func(match string) string {
		parts := varPattern.FindStringSubmatch(match)
		if len(parts) < 2 {
			return match
		}

		name := parts[1]
		defaultValue := ""
		if len(parts) >= 3 {
			defaultValue = parts[2]
		}

		if value, ok := vars[name]; ok && value != "" {
			return value
		}
		if value := os.Getenv(name); value != "" {
			return value
		}
		return defaultValue
	})
}

// Validate reports every problem in the configuration.
func (c *Config) Validate() error {
	var errs []error

	if c.SocketPath == "" {
		errs = append(errs, errors.New("socket_path is required"))
	}
	for key, value := range map[string]string{
		"dir_data": c.DirData, "dir_mounted": c.DirMounted, "dir_shared": c.DirShared,
	} {
		if !validFolder(value) {
			errs = append(errs, fmt.Errorf("%s must be a single directory name, got %q", key, value))
		}
	}
	if c.DirData == c.DirMounted && c.DirData != "" {
		errs = append(errs, fmt.Errorf("dir_data and dir_mounted must differ, both are %q", c.DirData))
	}

	if len(c.Tools) < 2 {
		errs = append(errs, fmt.Errorf("tools needs a root tool and at least one more, got %d", len(c.Tools)))
	}
	seen := make(map[string]bool, len(c.Tools))
	for index, tool := range c.Tools {
		if !validFolder(tool.Tool) {
			errs = append(errs, fmt.Errorf("tools[%d].tool must be a single directory name, got %q", index, tool.Tool))
		} else if seen[tool.Tool] {
			errs = append(errs, fmt.Errorf("tools[%d]: tool %q listed twice", index, tool.Tool))
		}
		seen[tool.Tool] = true
		switch strings.ToLower(tool.Loading) {
		case "", "eager", "lazy":
		default:
			errs = append(errs, fmt.Errorf("tools[%d].loading must be eager or lazy, got %q", index, tool.Loading))
		}
		if tool.URLPrefix == "" && c.URLCDN == "" {
			errs = append(errs, fmt.Errorf("tools[%d]: url_prefix is required when url_cdn is not set", index))
		}
	}
	if len(c.Tools) > 0 && c.Tools[0].Reinit {
		errs = append(errs, fmt.Errorf("tools[0] is the root tool and cannot set reinit"))
	}

	return errors.Join(errs...)
}

func validFolder(name string) bool {
	return name != "" && name != "." && name != ".." && !strings.ContainsAny(name, "/ ")
}
