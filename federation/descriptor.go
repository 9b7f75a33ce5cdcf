// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package federation

import (
	"fmt"
	"strings"
	"sync"

	"github.com/bureau-foundation/toolfed/lib/module"
	"github.com/bureau-foundation/toolfed/lib/namespace"
)

// Loading selects when a tool is activated.
type Loading uint8

const (
	// LoadingEager tools are activated by Init.
	LoadingEager Loading = iota

	// LoadingLazy tools are activated by the first Exec naming
	// their program.
	LoadingLazy
)

func (l Loading) String() string {
	switch l {
	case LoadingEager:
		return "eager"
	case LoadingLazy:
		return "lazy"
	default:
		return fmt.Sprintf("loading(%d)", l)
	}
}

// ParseLoading parses "eager", "lazy", or "" (eager).
func ParseLoading(value string) (Loading, error) {
	switch strings.ToLower(value) {
	case "", "eager":
		return LoadingEager, nil
	case "lazy":
		return LoadingLazy, nil
	default:
		return 0, fmt.Errorf("unknown loading mode %q (want eager or lazy)", value)
	}
}

// State is a tool's activation state.
type State uint8

const (
	StateNotLoaded State = iota
	StateActivating
	StateReady
)

func (s State) String() string {
	switch s {
	case StateNotLoaded:
		return "not-loaded"
	case StateActivating:
		return "activating"
	case StateReady:
		return "ready"
	default:
		return fmt.Sprintf("state(%d)", s)
	}
}

// Features records which optional capabilities a tool's selected build
// uses.
type Features struct {
	WideVector bool `json:"wide_vector"`
	Threads    bool `json:"threads"`
}

// ToolConfig is the caller-supplied description of one tool.
type ToolConfig struct {
	// Tool is the tool's identity and the name of its sample-data
	// folder. Required and unique.
	Tool string

	Version string

	// Program is the entry point name. Defaults to Tool.
	Program string

	// URLPrefix is the origin of the tool's bundle. Defaults to
	// <URLCDN>/<Tool>/<Version>.
	URLPrefix string

	Loading Loading

	// Reinit rebuilds the tool after every run, for programs whose
	// global state cannot be reused.
	Reinit bool

	// Features, when set, skips feature resolution and keeps
	// Program as given.
	Features *Features
}

// descriptor is the System's mutable record of one tool.
type descriptor struct {
	ToolConfig

	state    State
	instance module.Instance
	ns       namespace.Namespace

	// saved is the configuration as first seen by activation.
	saved *ToolConfig

	output output
}

// output holds the lines a tool printed during its current run.
type output struct {
	mu     sync.Mutex
	stdout strings.Builder
	stderr strings.Builder
}

func (o *output) appendStdout(line string) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.stdout.WriteString(line)
	o.stdout.WriteByte('\n')
}

func (o *output) appendStderr(line string) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.stderr.WriteString(line)
	o.stderr.WriteByte('\n')
}

func (o *output) reset() {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.stdout.Reset()
	o.stderr.Reset()
}

func (o *output) snapshot() (string, string) {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.stdout.String(), o.stderr.String()
}

// ToolStatus is a point-in-time view of one tool.
type ToolStatus struct {
	Tool      string    `json:"tool"`
	Version   string    `json:"version,omitempty"`
	Program   string    `json:"program"`
	URLPrefix string    `json:"url_prefix"`
	Loading   string    `json:"loading"`
	State     string    `json:"state"`
	Reinit    bool      `json:"reinit,omitempty"`
	Features  *Features `json:"features,omitempty"`

	// Cwd is the working directory, set only for ready tools.
	Cwd string `json:"cwd,omitempty"`
}

func (d *descriptor) status() ToolStatus {
	status := ToolStatus{
		Tool:      d.Tool,
		Version:   d.Version,
		Program:   d.Program,
		URLPrefix: d.URLPrefix,
		Loading:   d.Loading.String(),
		State:     d.state.String(),
		Reinit:    d.Reinit,
	}
	if d.Features != nil {
		features := *d.Features
		status.Features = &features
	}
	if d.state == StateReady {
		status.Cwd = d.ns.Getwd()
	}
	return status
}

// validateTools checks the invariants a tool list must satisfy before
// a System can be built from it.
func validateTools(tools []ToolConfig) error {
	if len(tools) < 2 {
		return fmt.Errorf("%w: need a root tool and at least one more, got %d", ErrConfiguration, len(tools))
	}
	seen := make(map[string]bool, len(tools))
	for index, tool := range tools {
		if tool.Tool == "" {
			return fmt.Errorf("%w: tool %d has no name", ErrConfiguration, index)
		}
		if strings.ContainsAny(tool.Tool, "/ ") || tool.Tool == "." || tool.Tool == ".." {
			return fmt.Errorf("%w: tool name %q is not a valid folder name", ErrConfiguration, tool.Tool)
		}
		if seen[tool.Tool] {
			return fmt.Errorf("%w: tool %q configured twice", ErrConfiguration, tool.Tool)
		}
		seen[tool.Tool] = true
	}
	if tools[0].Reinit {
		return fmt.Errorf("%w: root tool %q cannot be reinitialized", ErrConfiguration, tools[0].Tool)
	}
	return nil
}
