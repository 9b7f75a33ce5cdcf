// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package federation

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/bureau-foundation/toolfed/lib/module"
	"github.com/bureau-foundation/toolfed/lib/namespace"
)

// activate brings d from NotLoaded to Ready. A lazy descriptor only
// gets its defaults and features resolved and stays NotLoaded. On
// failure d is left NotLoaded and no other tool is touched.
func (s *System) activate(ctx context.Context, d *descriptor) error {
	if d.saved == nil {
		saved := d.ToolConfig
		d.saved = &saved
	}
	if d.URLPrefix == "" {
		d.URLPrefix = strings.TrimSuffix(s.options.URLCDN, "/") + "/" + d.Tool + "/" + d.Version
	}
	if d.Program == "" {
		d.Program = d.Tool
	}
	isRoot := d == s.tools[0]
	if !isRoot {
		if err := s.resolveFeatures(ctx, d); err != nil {
			s.logger.Error("activation failed", "tool", d.Tool, "error", err)
			return err
		}
	}
	if d.Loading == LoadingLazy {
		return nil
	}

	d.state = StateActivating
	if err := s.instantiate(ctx, d, isRoot); err != nil {
		d.state = StateNotLoaded
		d.instance, d.ns = nil, nil
		err = fmt.Errorf("%w: %s: %w", ErrActivation, d.Tool, err)
		s.logger.Error("activation failed", "tool", d.Tool, "program", d.Program, "error", err)
		return err
	}
	d.output.reset()
	d.state = StateReady
	s.logger.Info("tool ready",
		"tool", d.Tool,
		"program", d.Program,
		"cwd", d.ns.Getwd(),
	)
	return nil
}

// instantiate creates d's module instance and prepares its namespace.
func (s *System) instantiate(ctx context.Context, d *descriptor, isRoot bool) error {
	prefix := strings.TrimSuffix(d.URLPrefix, "/")
	stderr := d.output.appendStderr
	if s.options.PrintInterleaved {
		stderr = d.output.appendStdout
	}
	instance, err := s.options.Runtime.Instantiate(ctx, module.Options{
		Program: d.Program,
		Locate:  func(path string) string { return prefix + "/" + path },
		Stdout:  d.output.appendStdout,
		Stderr:  stderr,
	})
	if err != nil {
		return fmt.Errorf("instantiating %s: %w", d.Program, err)
	}
	ns := instance.Namespace()

	if isRoot {
		for _, dir := range []string{s.rootData(), s.rootMounted()} {
			if err := mkdirIfAbsent(ns, dir); err != nil {
				return err
			}
		}
		if err := ns.Chdir(s.rootData()); err != nil {
			return err
		}
		s.root = ns
	} else {
		if err := mkdirIfAbsent(ns, s.sharedRoot()); err != nil {
			return err
		}
		if !ns.IsMounted(s.sharedRoot()) {
			if err := ns.Mount(namespace.NewBridge(s.root, "/"), s.sharedRoot()); err != nil {
				return fmt.Errorf("mounting shared root: %w", err)
			}
		}
		if err := ns.Chdir(s.startDirectory(d, ns)); err != nil {
			return err
		}
	}

	d.instance = instance
	d.ns = ns
	return nil
}

// startDirectory is where a freshly activated non-root tool begins:
// the shared data directory for the primary, the primary's current
// directory for everyone else. A directory the new tool cannot see yet
// (a sample folder not bridged until the federation pass) falls back
// to the shared data directory.
func (s *System) startDirectory(d *descriptor, ns namespace.Namespace) string {
	primary := s.primary()
	if d == primary || primary.state != StateReady {
		return s.sharedData()
	}
	cwd := primary.ns.Getwd()
	if info := ns.Analyze(cwd); !info.Exists || info.Kind != namespace.KindDir {
		s.logger.Debug("primary directory not visible, starting in shared data",
			"tool", d.Tool,
			"path", cwd,
		)
		return s.sharedData()
	}
	return cwd
}

func mkdirIfAbsent(ns namespace.Namespace, dir string) error {
	if err := ns.Mkdir(dir); err != nil && !errors.Is(err, namespace.ErrExist) {
		return err
	}
	return nil
}
