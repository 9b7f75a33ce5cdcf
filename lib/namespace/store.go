// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package namespace

import (
	"io"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/bureau-foundation/toolfed/lib/clock"
)

// Store is the read-write hierarchical backend. Every FS has one at
// "/"; it can also be mounted elsewhere as a scratch tree.
type Store struct {
	mu    sync.RWMutex
	clock clock.Clock
	root  *storeNode
}

type storeNode struct {
	kind     Kind
	data     []byte
	target   string
	children map[string]*storeNode
	modTime  time.Time
}

// NewStore creates an empty store. A nil clock uses wall-clock time.
func NewStore(c clock.Clock) *Store {
	c = clock.OrReal(c)
	return &Store{
		clock: c,
		root:  &storeNode{kind: KindDir, children: map[string]*storeNode{}, modTime: stamp(c)},
	}
}

var _ Backend = (*Store)(nil)

func (s *Store) Type() string { return "store" }
func (s *Store) Root() Kind   { return KindDir }

// lookup walks rel from the root. Callers hold s.mu.
func (s *Store) lookup(rel string) (*storeNode, error) {
	node := s.root
	if rel == "" {
		return node, nil
	}
	for _, name := range strings.Split(rel, "/") {
		if node.kind != KindDir {
			return nil, ErrNotDir
		}
		child, ok := node.children[name]
		if !ok {
			return nil, ErrNotExist
		}
		node = child
	}
	return node, nil
}

// parent returns the directory that holds rel and rel's final name.
// Callers hold s.mu.
func (s *Store) parent(rel string) (*storeNode, string, error) {
	if rel == "" {
		return nil, "", ErrExist
	}
	dir, name := splitRel(rel)
	node, err := s.lookup(dir)
	if err != nil {
		return nil, "", err
	}
	if node.kind != KindDir {
		return nil, "", ErrNotDir
	}
	return node, name, nil
}

func (s *Store) Lstat(rel string) (FileInfo, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	node, err := s.lookup(rel)
	if err != nil {
		return FileInfo{}, pathError("lstat", rel, err)
	}
	return node.info(baseName(rel)), nil
}

func (s *Store) ReadDir(rel string) ([]FileInfo, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	node, err := s.lookup(rel)
	if err != nil {
		return nil, pathError("readdir", rel, err)
	}
	if node.kind != KindDir {
		return nil, pathError("readdir", rel, ErrNotDir)
	}
	entries := make([]FileInfo, 0, len(node.children))
	for name, child := range node.children {
		entries = append(entries, child.info(name))
	}
	sort.Slice(entries, func(i, j int) bool { return entries[i].Name < entries[j].Name })
	return entries, nil
}

func (s *Store) ReadAt(rel string, p []byte, off int64) (int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	node, err := s.lookup(rel)
	if err != nil {
		return 0, pathError("read", rel, err)
	}
	if node.kind == KindDir {
		return 0, pathError("read", rel, ErrIsDir)
	}
	if off < 0 {
		return 0, pathError("read", rel, ErrInvalid)
	}
	if off >= int64(len(node.data)) {
		return 0, io.EOF
	}
	n := copy(p, node.data[off:])
	if n < len(p) {
		return n, io.EOF
	}
	return n, nil
}

func (s *Store) WriteAt(rel string, p []byte, off int64) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	node, err := s.lookup(rel)
	if err != nil {
		return 0, pathError("write", rel, err)
	}
	if node.kind == KindDir {
		return 0, pathError("write", rel, ErrIsDir)
	}
	if off < 0 {
		return 0, pathError("write", rel, ErrInvalid)
	}
	end := off + int64(len(p))
	if end > int64(len(node.data)) {
		grown := make([]byte, end)
		copy(grown, node.data)
		node.data = grown
	}
	copy(node.data[off:], p)
	node.modTime = stamp(s.clock)
	return len(p), nil
}

func (s *Store) Truncate(rel string, size int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	node, err := s.lookup(rel)
	if err != nil {
		return pathError("truncate", rel, err)
	}
	if node.kind == KindDir {
		return pathError("truncate", rel, ErrIsDir)
	}
	if size < 0 {
		return pathError("truncate", rel, ErrInvalid)
	}
	if size <= int64(len(node.data)) {
		node.data = node.data[:size:size]
	} else {
		grown := make([]byte, size)
		copy(grown, node.data)
		node.data = grown
	}
	node.modTime = stamp(s.clock)
	return nil
}

// Create makes an empty file at rel. An existing file is left alone.
func (s *Store) Create(rel string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	dir, name, err := s.parent(rel)
	if err != nil {
		return pathError("create", rel, err)
	}
	if existing, ok := dir.children[name]; ok {
		if existing.kind == KindDir {
			return pathError("create", rel, ErrIsDir)
		}
		return nil
	}
	dir.children[name] = &storeNode{kind: KindFile, modTime: stamp(s.clock)}
	dir.modTime = stamp(s.clock)
	return nil
}

func (s *Store) Mkdir(rel string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	dir, name, err := s.parent(rel)
	if err != nil {
		return pathError("mkdir", rel, err)
	}
	if _, ok := dir.children[name]; ok {
		return pathError("mkdir", rel, ErrExist)
	}
	dir.children[name] = &storeNode{kind: KindDir, children: map[string]*storeNode{}, modTime: stamp(s.clock)}
	dir.modTime = stamp(s.clock)
	return nil
}

func (s *Store) Symlink(target, rel string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	dir, name, err := s.parent(rel)
	if err != nil {
		return pathError("symlink", rel, err)
	}
	if _, ok := dir.children[name]; ok {
		return pathError("symlink", rel, ErrExist)
	}
	dir.children[name] = &storeNode{kind: KindSymlink, target: target, modTime: stamp(s.clock)}
	dir.modTime = stamp(s.clock)
	return nil
}

func (s *Store) Remove(rel string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	dir, name, err := s.parent(rel)
	if err != nil {
		if rel == "" {
			return pathError("remove", rel, ErrBusy)
		}
		return pathError("remove", rel, err)
	}
	node, ok := dir.children[name]
	if !ok {
		return pathError("remove", rel, ErrNotExist)
	}
	if node.kind == KindDir && len(node.children) > 0 {
		return pathError("remove", rel, ErrNotEmpty)
	}
	delete(dir.children, name)
	dir.modTime = stamp(s.clock)
	return nil
}

func (n *storeNode) info(name string) FileInfo {
	info := FileInfo{Name: name, Kind: n.kind, ModTime: n.modTime}
	switch n.kind {
	case KindFile:
		info.Size = int64(len(n.data))
	case KindSymlink:
		info.Target = n.target
		info.Size = int64(len(n.target))
	}
	return info
}
