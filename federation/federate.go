// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package federation

import (
	"errors"
	"fmt"

	"github.com/bureau-foundation/toolfed/lib/namespace"
)

// Federate runs the federation pass: every ready non-root tool's
// "/<tool>" folder is bridged into every other ready non-root tool
// that lacks it. Repeating the pass adds only missing bridges.
func (s *System) Federate() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.requireReady(); err != nil {
		return err
	}
	return s.federate()
}

func (s *System) federate() error {
	var ready []*descriptor
	for _, d := range s.tools[1:] {
		if d.state == StateReady {
			ready = append(ready, d)
		}
	}

	var errs []error
	for _, source := range ready {
		folder := "/" + source.Tool
		if info := source.ns.Analyze(folder); !info.Exists || info.Kind != namespace.KindDir {
			continue
		}
		for _, target := range ready {
			if target == source || target.ns.IsMounted(folder) {
				continue
			}
			if target.ns.Analyze(folder).Exists {
				continue
			}
			if err := bridge(source.ns, target.ns, folder); err != nil {
				errs = append(errs, fmt.Errorf("bridging %s into %s: %w", folder, target.Tool, err))
				continue
			}
			s.logger.Debug("bridged sample data",
				"source", source.Tool,
				"target", target.Tool,
				"path", folder,
			)
		}
	}
	return errors.Join(errs...)
}

func bridge(source, target namespace.Namespace, folder string) error {
	if err := mkdirIfAbsent(target, folder); err != nil {
		return err
	}
	return target.Mount(namespace.NewBridge(source, folder), folder)
}

// unbridge removes bridges into the folder of d from every other ready
// tool, so the next federation pass points them at d's current
// namespace.
func (s *System) unbridge(d *descriptor) {
	folder := "/" + d.Tool
	for _, other := range s.tools[1:] {
		if other == d || other.state != StateReady || !other.ns.IsMounted(folder) {
			continue
		}
		if err := other.ns.Unmount(folder); err != nil {
			s.logger.Warn("removing stale bridge failed",
				"tool", other.Tool,
				"path", folder,
				"error", err,
			)
			continue
		}
		// The empty mount point directory goes too, or the next pass
		// would take it for the tool's own folder.
		if err := other.ns.Unlink(folder); err != nil {
			s.logger.Debug("removing mount point failed", "tool", other.Tool, "path", folder, "error", err)
		}
	}
}
