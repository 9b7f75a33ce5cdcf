// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

// Package nsfuse exports a tool namespace onto the host as a read-only
// FUSE filesystem, so host programs can inspect what a tool sees:
// its own files, the shared data directory, mounted inputs, and the
// sample-data folders bridged in from other tools.
//
// Symbolic links are presented as the entries they resolve to. Link
// targets are namespace paths and would point at the wrong place if
// the kernel resolved them against the host root. A dangling link is
// omitted from listings.
//
// Every lookup and read goes to the live namespace, so files mounted
// or written after the export appear without remounting, subject to
// the kernel's entry and attribute timeouts.
//
// All mutation operations return EROFS.
package nsfuse
