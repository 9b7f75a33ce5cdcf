// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package namespace

import (
	"path"
	"strings"
	"time"

	"github.com/bureau-foundation/toolfed/lib/clock"
)

// splitRel splits a backend-relative path into its directory and final
// name. The directory of a top-level name is "".
func splitRel(rel string) (string, string) {
	if i := strings.LastIndexByte(rel, '/'); i >= 0 {
		return rel[:i], rel[i+1:]
	}
	return "", rel
}

func baseName(rel string) string {
	_, name := splitRel(rel)
	return name
}

// joinRel joins a backend-relative directory and name.
func joinRel(dir, name string) string {
	if dir == "" {
		return name
	}
	if name == "" {
		return dir
	}
	return dir + "/" + name
}

// components splits a cleaned absolute path into its names. "/" has
// none.
func components(abs string) []string {
	trimmed := strings.TrimPrefix(abs, "/")
	if trimmed == "" {
		return nil
	}
	return strings.Split(trimmed, "/")
}

// relTo returns abs relative to the mount point mp, which must be abs
// or one of its ancestors.
func relTo(mp, abs string) string {
	if mp == "/" {
		return strings.TrimPrefix(abs, "/")
	}
	return strings.TrimPrefix(strings.TrimPrefix(abs, mp), "/")
}

// Clean returns the cleaned absolute form of p, joined onto cwd when
// p is relative.
func Clean(cwd, p string) string {
	if !path.IsAbs(p) {
		p = path.Join(cwd, p)
	}
	return path.Clean(p)
}

func stamp(c clock.Clock) time.Time {
	return c.Now().UTC()
}
