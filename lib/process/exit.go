// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package process

import (
	"errors"
	"fmt"
	"os"
)

// ExitCoder is implemented by errors that carry a process exit code.
// Commands return one when they have already written their own output.
type ExitCoder interface {
	ExitCode() int
}

// Fatal exits the process for err. An ExitCoder in err's chain sets
// the exit code and suppresses the message; anything else prints
// "error: err" to stderr and exits 1.
func Fatal(err error) {
	os.Exit(Report(err))
}

// Report writes err to stderr unless it carries an exit code, and
// returns the code the process should exit with.
func Report(err error) int {
	var coder ExitCoder
	if errors.As(err, &coder) {
		return coder.ExitCode()
	}
	fmt.Fprintf(os.Stderr, "error: %v\n", err)
	return 1
}
