// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package federation

import (
	"errors"
	"fmt"
)

// Error categories. Returned errors wrap one of these; test with
// errors.Is.
var (
	// ErrConfiguration reports an unusable tool list or option set.
	ErrConfiguration = errors.New("configuration error")

	// ErrActivation reports that a tool could not be brought up:
	// its bundle configuration or program could not be fetched, or
	// the runtime failed to instantiate it.
	ErrActivation = errors.New("activation error")

	// ErrMount reports a mount input of an unusable shape. Nothing
	// from the rejected call is mounted.
	ErrMount = errors.New("mount error")

	// ErrCommandNotFound reports that no single tool's program
	// matches a command.
	ErrCommandNotFound = errors.New("command not found")

	// ErrNotReady reports an operation issued before Init
	// succeeded, or a file operation while the primary tool is down
	// after a failed reinit.
	ErrNotReady = errors.New("system not ready")

	// ErrRange reports a byte range that is negative or larger than
	// one transfer allows.
	ErrRange = errors.New("invalid byte range")
)

// ToolFault is a failure inside a tool's own execution. Exec reports it
// in the Result rather than as an error unless strict mode is on.
type ToolFault struct {
	Tool    string
	Program string
	Err     error
}

func (f *ToolFault) Error() string {
	return fmt.Sprintf("%s (%s): %v", f.Program, f.Tool, f.Err)
}

func (f *ToolFault) Unwrap() error { return f.Err }
