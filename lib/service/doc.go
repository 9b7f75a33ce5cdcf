// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

// Package service implements the toolfed control socket: a CBOR
// request-response protocol on a Unix socket.
//
// Each connection carries exactly one request and one response. The
// request is a CBOR map with an "action" field naming the handler; the
// remaining fields are handler-specific. The response is a [Response]
// envelope: {ok: true, data: ...} on success, {ok: false, error: "..."}
// on failure.
//
// Access control is the socket file's permissions. The server creates
// the socket with mode 0600.
package service
