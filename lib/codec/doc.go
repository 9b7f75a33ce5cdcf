// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

// Package codec holds the CBOR configuration shared by the toolfed
// control socket and its clients.
//
// JSON is used where humans or browsers look at data (CLI --json
// output, tool bundle config.json). CBOR is used on the control socket,
// where requests carry raw file bytes that JSON would have to
// base64-encode.
//
// The encoder uses Core Deterministic Encoding (RFC 8949 §4.2), so the
// same value always encodes to the same bytes.
//
//	data, err := codec.Marshal(value)
//	err = codec.Unmarshal(data, &value)
//
//	encoder := codec.NewEncoder(conn)
//	decoder := codec.NewDecoder(conn)
//
// # Struct tags
//
// Types that only travel over the socket use `cbor` tags. Types that
// also appear in JSON output use `json` tags only; fxamacker/cbor reads
// them when no `cbor` tag is present. Never put both on one field.
package codec
