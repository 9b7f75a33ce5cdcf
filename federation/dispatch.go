// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package federation

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/bureau-foundation/toolfed/lib/namespace"
)

// Result is the captured output of one command. With PrintInterleaved
// set, Stderr is empty and Stdout holds both streams in order.
//
// Output is captured line by line, and every line ends in a newline.
// A final line the tool wrote without one is flushed when the streams
// close after the run and gains a newline too.
type Result struct {
	Stdout string     `json:"stdout"`
	Stderr string     `json:"stderr"`
	Fault  *ToolFault `json:"-"`
}

// Exec runs a whitespace-separated command line. The first word is the
// program.
func (s *System) Exec(ctx context.Context, command string) (Result, error) {
	fields := strings.Fields(command)
	if len(fields) == 0 {
		return Result{}, fmt.Errorf("%w: empty command", ErrCommandNotFound)
	}
	return s.ExecArgs(ctx, fields[0], fields[1:])
}

// ExecArgs runs program with args in the one tool whose effective
// program name matches exactly. A lazy tool is activated first. A
// fault inside the tool is reported in Result.Fault and, in strict
// mode, also returned as the error; otherwise it does not fail the
// call. Tools configured with Reinit are rebuilt before ExecArgs
// returns.
func (s *System) ExecArgs(ctx context.Context, program string, args []string) (Result, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.requireReady(); err != nil {
		return Result{}, err
	}

	d, err := s.findProgram(program)
	if err != nil {
		return Result{}, err
	}
	if d.state != StateReady {
		if err := s.forceActivate(ctx, d); err != nil {
			return Result{}, err
		}
	}

	d.output.reset()
	fault := s.runMain(d, args)
	for _, fd := range []int{namespace.Stdout, namespace.Stderr} {
		if err := d.ns.CloseStream(fd); err != nil && !errors.Is(err, namespace.ErrBadStream) {
			s.logger.Warn("closing stream failed", "tool", d.Tool, "fd", fd, "error", err)
		}
		if err := d.ns.OpenStream(fd); err != nil {
			s.logger.Warn("reopening stream failed", "tool", d.Tool, "fd", fd, "error", err)
		}
	}

	var result Result
	result.Stdout, result.Stderr = d.output.snapshot()
	if fault != nil {
		result.Fault = fault
		s.logger.Warn("tool fault",
			"tool", d.Tool,
			"program", d.Program,
			"error", fault.Err,
		)
	}

	if d.Reinit {
		if err := s.reinit(ctx, d); err != nil {
			return result, err
		}
	}
	if fault != nil && s.options.Strict {
		return result, fault
	}
	return result, nil
}

// findProgram returns the single tool whose program is program.
func (s *System) findProgram(program string) (*descriptor, error) {
	var match *descriptor
	for _, d := range s.tools {
		if d.Program != program {
			continue
		}
		if match != nil {
			return nil, fmt.Errorf("%w: %q is provided by both %s and %s", ErrCommandNotFound, program, match.Tool, d.Tool)
		}
		match = d
	}
	if match == nil {
		return nil, fmt.Errorf("%w: %q", ErrCommandNotFound, program)
	}
	return match, nil
}

// forceActivate promotes a lazy tool to eager and runs a full
// activation pass, so any other pending eager tools come up too.
func (s *System) forceActivate(ctx context.Context, d *descriptor) error {
	d.Loading = LoadingEager
	s.logger.Info("activating lazy tool", "tool", d.Tool, "program", d.Program)
	err := s.activatePending(ctx)
	if federateErr := s.federate(); federateErr != nil {
		s.logger.Warn("federation pass incomplete", "error", federateErr)
	}
	if d.state != StateReady {
		if err == nil {
			err = fmt.Errorf("%w: %s did not become ready", ErrActivation, d.Tool)
		}
		return err
	}
	if err != nil {
		s.logger.Warn("activation pass incomplete", "error", err)
	}
	return nil
}

// runMain calls the tool's entry point, converting an error or a panic
// into a ToolFault.
func (s *System) runMain(d *descriptor, args []string) (fault *ToolFault) {
	defer func() {
		if recovered := recover(); recovered != nil {
			fault = &ToolFault{Tool: d.Tool, Program: d.Program, Err: fmt.Errorf("panic: %v", recovered)}
		}
	}()
	if err := d.instance.Main(args); err != nil {
		return &ToolFault{Tool: d.Tool, Program: d.Program, Err: err}
	}
	return nil
}

// Reinit rebuilds a tool as if its configured Reinit ran after a
// command. The root tool cannot be reinitialized.
func (s *System) Reinit(ctx context.Context, tool string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.requireReady(); err != nil {
		return err
	}
	for index, d := range s.tools {
		if d.Tool != tool {
			continue
		}
		if index == 0 {
			return fmt.Errorf("%w: root tool %q cannot be reinitialized", ErrConfiguration, tool)
		}
		if d.state != StateReady {
			return fmt.Errorf("%w: %s is not ready", ErrActivation, tool)
		}
		return s.reinit(ctx, d)
	}
	return fmt.Errorf("%w: unknown tool %q", ErrConfiguration, tool)
}

// reinit discards d's instance and activates a fresh one from the
// saved configuration, keeping the resolved build and the loading mode
// the tool has now. The federation pass is rerun and d, and only d,
// returns to the directory it was in.
func (s *System) reinit(ctx context.Context, d *descriptor) error {
	cwd := d.ns.Getwd()

	restored := *d.saved
	restored.Program = d.Program
	restored.Features = d.Features
	restored.URLPrefix = d.URLPrefix
	restored.Loading = d.Loading
	d.ToolConfig = restored

	s.unbridge(d)
	d.state = StateNotLoaded
	d.instance, d.ns = nil, nil
	if err := s.activate(ctx, d); err != nil {
		return err
	}
	if err := s.federate(); err != nil {
		s.logger.Warn("federation pass incomplete after reinit", "tool", d.Tool, "error", err)
	}
	if err := d.ns.Chdir(cwd); err != nil {
		s.logger.Warn("restoring working directory failed",
			"tool", d.Tool,
			"path", cwd,
			"error", err,
		)
	}
	s.logger.Debug("reinitialized tool", "tool", d.Tool, "cwd", d.ns.Getwd())
	return nil
}
