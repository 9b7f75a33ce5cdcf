// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package federation

import (
	"context"
	"fmt"

	"github.com/bureau-foundation/toolfed/lib/assets"
)

// Program suffixes selecting builds without an optional feature.
const (
	SuffixNoSIMD    = "-nosimd"
	SuffixNoThreads = "-nothreads"
)

// resolveFeatures picks the build of d matching the host. It fetches
// the bundle's config.json once, asks the capability detector about
// each feature the bundle declares, and appends a suffix to Program
// for each declared feature the host lacks. A descriptor whose
// Features are already set is left alone. On failure nothing on d
// changes.
func (s *System) resolveFeatures(ctx context.Context, d *descriptor) error {
	if d.Features != nil {
		return nil
	}
	config, err := s.options.Configs.FetchToolConfig(ctx, d.URLPrefix)
	if err != nil {
		return fmt.Errorf("%w: %s: fetching bundle config: %w", ErrActivation, d.Tool, err)
	}

	features := &Features{}
	program := d.Program
	if config.Declares(assets.FeatureSIMD) {
		if s.options.Capabilities.WideVector() {
			features.WideVector = true
		} else {
			program += SuffixNoSIMD
		}
	}
	if config.Declares(assets.FeatureThreads) {
		if s.options.Capabilities.Threads() {
			features.Threads = true
		} else {
			program += SuffixNoThreads
		}
	}

	d.Program = program
	d.Features = features
	s.logger.Debug("resolved features",
		"tool", d.Tool,
		"program", program,
		"wide_vector", features.WideVector,
		"threads", features.Threads,
	)
	return nil
}
