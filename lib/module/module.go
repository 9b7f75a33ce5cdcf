// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

// Package module defines the contract between the federation core and
// a module runtime: the component that turns a tool program into a
// running instance with its own filesystem namespace.
//
// The core never inspects how a program is loaded or executed. It asks
// a [Runtime] for an [Instance], calls [Instance.Main] with an argument
// vector, and manipulates the instance's namespace through the
// [namespace.Namespace] interface. Output written by the instance to
// descriptors 1 and 2 arrives line by line through the callbacks in
// [Options].
package module

import (
	"context"
	"fmt"

	"github.com/bureau-foundation/toolfed/lib/namespace"
)

// Locator maps a path relative to a tool's asset bundle to a location
// the runtime can fetch (a URL or a local path).
type Locator func(path string) string

// Options configures one instantiation.
type Options struct {
	// Program is the entry point name, after any feature suffixes.
	Program string

	// Locate resolves asset paths such as "<program>.js" against the
	// tool's bundle origin.
	Locate Locator

	// Stdout and Stderr receive each complete output line.
	Stdout func(line string)
	Stderr func(line string)
}

// Validate checks that the options name a program and an asset
// locator.
func (o Options) Validate() error {
	if o.Program == "" {
		return fmt.Errorf("program is required")
	}
	if o.Locate == nil {
		return fmt.Errorf("asset locator is required for program %q", o.Program)
	}
	return nil
}

// Runtime instantiates tool programs.
type Runtime interface {
	Instantiate(ctx context.Context, options Options) (Instance, error)
}

// Instance is one running tool program.
type Instance interface {
	// Main runs the program's entry point to completion with args
	// (which exclude the program name). A non-nil error is a fault
	// inside the tool, not a failure of the runtime.
	Main(args []string) error

	// Namespace is the instance's private filesystem.
	Namespace() namespace.Namespace
}

// RuntimeFunc adapts a function to the Runtime interface.
type RuntimeFunc func(ctx context.Context, options Options) (Instance, error)

func (f RuntimeFunc) Instantiate(ctx context.Context, options Options) (Instance, error) {
	return f(ctx, options)
}
