// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package namespace

import (
	"io"
	"sort"
	"time"
)

// OverlayEntry is one named file in an Overlay.
type OverlayEntry struct {
	Name    string
	Data    []byte
	ModTime time.Time
}

// Overlay is a read-only, flat directory of named files. Its contents
// are fixed at construction: adding a file means building a new
// Overlay with the complete set and remounting it.
type Overlay struct {
	files map[string]OverlayEntry
	names []string
}

// NewOverlay builds an overlay from entries. When two entries share a
// name the later one is visible, so appending to a cumulative entry
// list and rebuilding never fails.
func NewOverlay(entries []OverlayEntry) *Overlay {
	overlay := &Overlay{files: make(map[string]OverlayEntry, len(entries))}
	for _, entry := range entries {
		if _, seen := overlay.files[entry.Name]; !seen {
			overlay.names = append(overlay.names, entry.Name)
		}
		overlay.files[entry.Name] = entry
	}
	sort.Strings(overlay.names)
	return overlay
}

var _ Backend = (*Overlay)(nil)

func (o *Overlay) Type() string { return "overlay" }
func (o *Overlay) Root() Kind   { return KindDir }

// Len returns the number of distinct visible names.
func (o *Overlay) Len() int { return len(o.names) }

func (o *Overlay) entry(op, rel string) (OverlayEntry, error) {
	entry, ok := o.files[rel]
	if !ok {
		return OverlayEntry{}, pathError(op, rel, ErrNotExist)
	}
	return entry, nil
}

func (o *Overlay) Lstat(rel string) (FileInfo, error) {
	if rel == "" {
		return FileInfo{Kind: KindDir, ReadOnly: true}, nil
	}
	entry, err := o.entry("lstat", rel)
	if err != nil {
		return FileInfo{}, err
	}
	return entry.info(), nil
}

func (o *Overlay) ReadDir(rel string) ([]FileInfo, error) {
	if rel != "" {
		if _, err := o.entry("readdir", rel); err != nil {
			return nil, err
		}
		return nil, pathError("readdir", rel, ErrNotDir)
	}
	entries := make([]FileInfo, 0, len(o.names))
	for _, name := range o.names {
		entries = append(entries, o.files[name].info())
	}
	return entries, nil
}

func (o *Overlay) ReadAt(rel string, p []byte, off int64) (int, error) {
	if rel == "" {
		return 0, pathError("read", rel, ErrIsDir)
	}
	entry, err := o.entry("read", rel)
	if err != nil {
		return 0, err
	}
	if off < 0 {
		return 0, pathError("read", rel, ErrInvalid)
	}
	if off >= int64(len(entry.Data)) {
		return 0, io.EOF
	}
	n := copy(p, entry.Data[off:])
	if n < len(p) {
		return n, io.EOF
	}
	return n, nil
}

func (o *Overlay) WriteAt(rel string, p []byte, off int64) (int, error) {
	return 0, pathError("write", rel, ErrReadOnly)
}

func (o *Overlay) Truncate(rel string, size int64) error {
	return pathError("truncate", rel, ErrReadOnly)
}

func (o *Overlay) Create(rel string) error {
	return pathError("create", rel, ErrReadOnly)
}

func (o *Overlay) Mkdir(rel string) error {
	return pathError("mkdir", rel, ErrReadOnly)
}

func (o *Overlay) Symlink(target, rel string) error {
	return pathError("symlink", rel, ErrReadOnly)
}

func (o *Overlay) Remove(rel string) error {
	return pathError("remove", rel, ErrReadOnly)
}

func (e OverlayEntry) info() FileInfo {
	return FileInfo{
		Name:     e.Name,
		Kind:     KindFile,
		Size:     int64(len(e.Data)),
		ModTime:  e.ModTime,
		ReadOnly: true,
	}
}
