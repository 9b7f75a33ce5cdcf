// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package commands

import (
	"fmt"
	"log/slog"

	"github.com/bureau-foundation/toolfed/cmd/toolfed/cli"
	"github.com/bureau-foundation/toolfed/federation"
	"github.com/bureau-foundation/toolfed/lib/assets"
	"github.com/bureau-foundation/toolfed/lib/config"
	"github.com/bureau-foundation/toolfed/lib/hwcaps"
	"github.com/bureau-foundation/toolfed/lib/jsmodule"
)

// loadConfig reads path, or the file named by TOOLFED_CONFIG when path
// is empty, and validates it.
func loadConfig(path string) (*config.Config, error) {
	var cfg *config.Config
	var err error
	if path != "" {
		cfg, err = config.LoadFile(path)
	} else {
		cfg, err = config.Load()
	}
	if err != nil {
		return nil, fmt.Errorf("loading config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	return cfg, nil
}

// serverLogger is the logger for a process hosting a System.
func serverLogger(cfg *config.Config, command string) *slog.Logger {
	level := slog.LevelInfo
	if cfg.Debug {
		level = slog.LevelDebug
	}
	return cli.NewCommandLogger(level).With("command", command)
}

// toolConfigs converts the configured tool list.
func toolConfigs(cfg *config.Config) ([]federation.ToolConfig, error) {
	tools := make([]federation.ToolConfig, len(cfg.Tools))
	for index, tool := range cfg.Tools {
		loading, err := federation.ParseLoading(tool.Loading)
		if err != nil {
			return nil, fmt.Errorf("tools[%d]: %w", index, err)
		}
		tools[index] = federation.ToolConfig{
			Tool:      tool.Tool,
			Version:   tool.Version,
			Program:   tool.Program,
			URLPrefix: tool.URLPrefix,
			Loading:   loading,
			Reinit:    tool.Reinit,
		}
		if tool.Features != nil {
			tools[index].Features = &federation.Features{
				WideVector: tool.Features.SIMD,
				Threads:    tool.Features.Threads,
			}
		}
	}
	return tools, nil
}

// newSystem wires a System to the asset fetcher, the JavaScript module
// runtime, and host capability detection.
func newSystem(cfg *config.Config, logger *slog.Logger) (*federation.System, error) {
	tools, err := toolConfigs(cfg)
	if err != nil {
		return nil, err
	}
	fetcher := assets.NewFetcher(assets.Options{Logger: logger})
	runtime, err := jsmodule.New(jsmodule.Options{Fetcher: fetcher, Logger: logger})
	if err != nil {
		return nil, err
	}
	return federation.NewSystem(federation.Options{
		Runtime:          runtime,
		Configs:          fetcher,
		Ranges:           fetcher,
		Capabilities:     hwcaps.Default(),
		DirData:          cfg.DirData,
		DirMounted:       cfg.DirMounted,
		DirShared:        cfg.DirShared,
		URLCDN:           cfg.URLCDN,
		PrintInterleaved: cfg.PrintInterleaved,
		Strict:           cfg.Strict,
		Logger:           logger,
	}, tools)
}
