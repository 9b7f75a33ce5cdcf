// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

// Package federation makes a set of independently instantiated tools,
// each with a private filesystem namespace, behave as one system with
// a shared filesystem and a single command surface.
//
// A [System] owns an ordered list of tool descriptors. The first tool
// is the root: its namespace holds the shared data directory and the
// read-only overlay of user uploads, and it is never bridged into
// another namespace. The second tool is the primary: it is always
// activated at [System.Init] and its working directory is the one the
// other tools follow. Every non-root tool mounts a bridge of the root
// namespace at "/<shared>", so "/<shared>/<data>" is the same directory
// in all of them.
//
// # Lifecycle
//
// Init activates the root and the primary in order, then every other
// eager tool concurrently, then runs the federation pass. Lazy tools
// stay dormant until [System.Exec] names their program. Tools
// configured with Reinit are torn down and rebuilt after each run.
//
// # Mounts
//
// [System.Mount] accepts [LocalFile], [NamedBlob], and [RemoteURL]
// inputs. Files and blobs are added to a cumulative record and the
// overlay at "/<mounted>" is rebuilt from the full record, then a
// writable link "<shared>/<data>/<name>" pointing at the overlay copy
// is (re)created in the primary namespace. URLs become lazily fetched
// files in the data directory.
//
// # Federation pass
//
// For every ordered pair of ready non-root tools, a tool's "/<tool>"
// sample-data folder is bridged into the other tool at the same path
// unless that path already exists there. The pass consults each
// namespace's mount index first, so repeating it is cheap and never
// double-mounts.
//
// # Concurrency
//
// Public methods serialize on one mutex. Only the bring-up fan-out
// runs activations in parallel, and each of those touches only its own
// descriptor and namespace.
package federation
