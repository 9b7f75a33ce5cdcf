// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package namespace

import "time"

// Kind is the type of a namespace entry.
type Kind uint8

const (
	KindFile Kind = iota + 1
	KindDir
	KindSymlink
)

func (k Kind) String() string {
	switch k {
	case KindFile:
		return "file"
	case KindDir:
		return "dir"
	case KindSymlink:
		return "symlink"
	default:
		return "unknown"
	}
}

// FileInfo describes one entry. It is plain data so it can cross the
// RPC boundary unchanged.
type FileInfo struct {
	Name     string    `json:"name"`
	Kind     Kind      `json:"kind"`
	Size     int64     `json:"size"`
	ModTime  time.Time `json:"mod_time"`
	ReadOnly bool      `json:"read_only,omitempty"`

	// Target is the link text for symlinks, empty otherwise.
	Target string `json:"target,omitempty"`
}

// IsDir reports whether the entry is a directory.
func (i FileInfo) IsDir() bool { return i.Kind == KindDir }

// PathInfo is the result of Analyze: existence and kind of a path
// after following links.
type PathInfo struct {
	Exists bool
	Kind   Kind

	// Path is the fully resolved absolute path. Set only when Exists.
	Path string
}

// Backend is a mountable filesystem implementation. All paths are
// relative to the backend root, slash-separated, cleaned, and never
// begin with "/". The empty string names the backend root. Backends do
// not follow symlinks; Lstat reports a link and the caller resolves it.
type Backend interface {
	// Type names the backend implementation ("store", "overlay",
	// "lazy", "bridge") for diagnostics.
	Type() string

	// Root is the kind of the backend root: KindDir for tree-shaped
	// backends, KindFile for single-file backends.
	Root() Kind

	Lstat(rel string) (FileInfo, error)
	ReadDir(rel string) ([]FileInfo, error)
	ReadAt(rel string, p []byte, off int64) (int, error)
	WriteAt(rel string, p []byte, off int64) (int, error)
	Truncate(rel string, size int64) error
	Create(rel string) error
	Mkdir(rel string) error
	Symlink(target, rel string) error
	Remove(rel string) error
}

// Namespace is the filesystem surface a module instance exposes to the
// orchestrator. Relative paths resolve against the working directory.
type Namespace interface {
	Mkdir(path string) error
	Chdir(path string) error
	Getwd() string
	Symlink(target, link string) error
	Readlink(path string) (string, error)
	Unlink(path string) error

	Mount(backend Backend, mountpoint string) error
	Unmount(mountpoint string) error
	// IsMounted reports whether a backend is mounted exactly at
	// mountpoint. It consults the mount index only and never touches
	// a backend.
	IsMounted(mountpoint string) bool
	// Mounts returns the mount table sorted by path.
	Mounts() []MountInfo

	Analyze(path string) PathInfo
	Stat(path string) (FileInfo, error)
	Lstat(path string) (FileInfo, error)
	ReadDir(path string) ([]FileInfo, error)
	ReadFile(path string) ([]byte, error)
	WriteFile(path string, data []byte) error
	ReadAt(path string, p []byte, off int64) (int, error)
	WriteAt(path string, p []byte, off int64) (int, error)
	Truncate(path string, size int64) error
	Create(path string) error

	// OpenStream and CloseStream manage the standard output streams
	// (descriptor 1 for stdout, 2 for stderr). Closing flushes any
	// buffered partial line.
	OpenStream(fd int) error
	CloseStream(fd int) error
}
