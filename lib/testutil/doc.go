// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

// Package testutil provides shared test helpers.
//
// [SocketDir] creates a short temporary directory for Unix sockets,
// whose paths are limited to 108 bytes. [RequireReceive] and
// [RequireClosed] wrap the select-with-timeout pattern so tests never
// block forever on a channel.
//
// Helpers call t.Fatalf on failure.
package testutil
