// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

// Package namespace defines the filesystem namespace owned by one tool
// instance and provides the in-memory reference implementation.
//
// A [Namespace] is a private directory tree with a mount table, a
// current working directory, and the tool's standard output streams.
// [FS] implements it on top of a hierarchical read-write [Store] at
// "/", with additional [Backend] values mounted at arbitrary paths:
//
//   - [Store]: read-write hierarchical tree (the default root backend).
//   - [Overlay]: read-only flat directory assembled from named byte
//     entries. An overlay cannot gain entries once built; callers add
//     files by unmounting and remounting a new overlay with the full
//     set.
//   - [LazyFile]: a single read-only file whose bytes live behind a
//     URL and are fetched in fixed-size ranges on first read.
//   - [Bridge]: a subtree of another Namespace exposed read-write.
//
// # Path Resolution
//
// Backends never follow symbolic links. FS walks a path one component
// at a time, asking the backend that owns each prefix for an Lstat,
// and restarts resolution whenever it meets a link. Link targets are
// therefore always interpreted in the namespace doing the lookup, even
// when the link itself is stored in another namespace reached through
// a Bridge. This is what lets a link written through a bridge as
// "/shared/mnt/x" resolve correctly in every tool that mounts the
// shared root at "/shared".
//
// # Locking
//
// FS holds its own lock only while reading or changing its mount table
// and working directory, never across a backend call. A Bridge call
// into another FS therefore cannot deadlock against that FS calling
// back.
//
// # Standard Streams
//
// File descriptors 1 and 2 are line-buffered [Stream] values. Partial
// lines stay in the buffer until a newline arrives or the stream is
// closed, mirroring stdio's behavior when output is not a terminal.
// Closing and reopening a stream is the supported way to flush it.
package namespace
