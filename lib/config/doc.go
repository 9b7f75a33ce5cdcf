// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

// Package config loads the toolfed YAML configuration.
//
// The file is named by the TOOLFED_CONFIG environment variable (via
// [Load]) or a --config flag (via [LoadFile]). There is no discovery
// and no environment override of individual values; the file is the
// single source of truth.
//
// After loading, ${HOME}, ${XDG_RUNTIME_DIR}, and ${VAR:-default}
// patterns are expanded in the socket path and in bundle locations.
//
// This package depends on no other toolfed packages. The command layer
// converts a [Config] into federation options.
package config
