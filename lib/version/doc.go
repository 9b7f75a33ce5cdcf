// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

// Package version reports build information for the toolfed binary.
//
// The variables are injected with -ldflags -X:
//
//	go build -ldflags "-X github.com/bureau-foundation/toolfed/lib/version.GitCommit=$(git rev-parse --short HEAD)"
//
// Development builds report "unknown" and "0.1.0-dev".
package version
