// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package assets

import (
	"encoding/json"
	"fmt"
	"slices"

	"github.com/tidwall/jsonc"
)

// Optional module features a bundle can declare in "wasm-features".
const (
	FeatureSIMD    = "simd"
	FeatureThreads = "threads"
)

// ToolConfig is a tool bundle's config.json.
type ToolConfig struct {
	// Features lists optional capabilities the bundle ships
	// alternative builds for. When the host lacks one, the runtime
	// loads the build carrying the matching suffix.
	Features []string `json:"wasm-features"`
}

// Declares reports whether the bundle lists feature.
func (c ToolConfig) Declares(feature string) bool {
	return slices.Contains(c.Features, feature)
}

// ParseToolConfig strips JSONC comments and trailing commas from data
// and decodes the result.
func ParseToolConfig(data []byte) (ToolConfig, error) {
	var config ToolConfig
	if err := json.Unmarshal(jsonc.ToJSON(data), &config); err != nil {
		return ToolConfig{}, fmt.Errorf("parsing tool config: %w", err)
	}
	return config, nil
}
