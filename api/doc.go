// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

// Package api exposes a federation System on the control socket and
// provides a typed client for it.
//
// Every System operation maps to one action:
//
//	init tools mount mounts exec reinit federate
//	cd pwd mkdir cat ls download blob read write
//
// Request and response types carry json tags so the CLI can print them
// with --json; the socket encodes them as CBOR.
package api
