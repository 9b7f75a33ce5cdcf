// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package cli

import "fmt"

// ExitError signals a non-zero exit code without printing an extra
// error message. "toolfed exec" returns one when the tool faulted:
// the tool's output is already on the terminal.
type ExitError struct {
	Code int
}

func (e *ExitError) Error() string {
	return fmt.Sprintf("exit code %d", e.Code)
}

// ExitCode returns the exit code, satisfying process.ExitCoder.
func (e *ExitError) ExitCode() int {
	return e.Code
}
