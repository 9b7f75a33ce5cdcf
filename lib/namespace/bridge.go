// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package namespace

import "path"

// Bridge exposes the subtree of another namespace rooted at Root. Reads
// and writes pass straight through, so both namespaces observe the
// same storage. Links met inside the subtree are returned unresolved
// and are followed by the namespace doing the lookup.
type Bridge struct {
	target Namespace
	root   string
}

// NewBridge exposes target's subtree at root (an absolute path in
// target).
func NewBridge(target Namespace, root string) *Bridge {
	return &Bridge{target: target, root: path.Clean("/" + root)}
}

var _ Backend = (*Bridge)(nil)

func (b *Bridge) Type() string { return "bridge" }
func (b *Bridge) Root() Kind   { return KindDir }

// Target returns the namespace the bridge reaches into and the subtree
// root within it.
func (b *Bridge) Target() (Namespace, string) { return b.target, b.root }

func (b *Bridge) full(rel string) string {
	return path.Join(b.root, rel)
}

func (b *Bridge) Lstat(rel string) (FileInfo, error) {
	info, err := b.target.Lstat(b.full(rel))
	if err != nil {
		return FileInfo{}, err
	}
	if rel == "" {
		info.Name = ""
	}
	return info, nil
}

func (b *Bridge) ReadDir(rel string) ([]FileInfo, error) {
	return b.target.ReadDir(b.full(rel))
}

func (b *Bridge) ReadAt(rel string, p []byte, off int64) (int, error) {
	return b.target.ReadAt(b.full(rel), p, off)
}

func (b *Bridge) WriteAt(rel string, p []byte, off int64) (int, error) {
	return b.target.WriteAt(b.full(rel), p, off)
}

func (b *Bridge) Truncate(rel string, size int64) error {
	return b.target.Truncate(b.full(rel), size)
}

func (b *Bridge) Create(rel string) error {
	return b.target.Create(b.full(rel))
}

func (b *Bridge) Mkdir(rel string) error {
	return b.target.Mkdir(b.full(rel))
}

func (b *Bridge) Symlink(target, rel string) error {
	return b.target.Symlink(target, b.full(rel))
}

func (b *Bridge) Remove(rel string) error {
	return b.target.Unlink(b.full(rel))
}
