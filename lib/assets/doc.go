// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

// Package assets fetches tool bundle assets: program sources, sample
// data archives, and the bundle's config.json.
//
// A location is an http or https URL, a file:// URL, or a plain host
// path. [Fetcher.Fetch] returns the full content and transparently
// decompresses zstd and lz4 frames, recognized by their magic bytes, so
// bundles can be published compressed without the runtime knowing.
// [Fetcher] also implements [namespace.RangeFetcher] for lazily
// mounted URL files, using HEAD and Range requests over HTTP and
// positional reads for local files. Ranged reads never decompress.
//
// [ParseToolConfig] reads the bundle configuration, which is JSON with
// comments and trailing commas allowed.
package assets
