// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package clock

import "time"

// Clock abstracts the current time for testability.
type Clock interface {
	// Now returns the current time.
	Now() time.Time
}

// OrReal returns c, or the real clock when c is nil. Constructors use
// it so that a zero-valued options struct gets wall-clock time.
func OrReal(c Clock) Clock {
	if c == nil {
		return Real()
	}
	return c
}
