// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

// Package clock provides an injectable time source.
//
// Components that stamp data with the current time (namespace file
// modification times, blob creation times) accept a Clock instead of
// calling time.Now directly. Production code passes Real(); tests pass
// Fake() so stamped values are deterministic and can be compared
// exactly.
//
//	ns := namespace.New(namespace.Options{Clock: clock.Fake(epoch)})
package clock
