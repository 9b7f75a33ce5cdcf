// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package namespace

import (
	"errors"
	"io"
	"io/fs"
	"path"
	"sort"
	"sync"

	"github.com/bureau-foundation/toolfed/lib/clock"
)

// maxLinks bounds symlink expansion during one resolution.
const maxLinks = 40

// Options configures New.
type Options struct {
	// Clock stamps modification times. Nil uses wall-clock time.
	Clock clock.Clock

	// Stdout and Stderr receive complete lines written to descriptors
	// 1 and 2. Either may be nil and set later with SetOutput.
	Stdout func(line string)
	Stderr func(line string)
}

// FS is the in-memory Namespace implementation.
type FS struct {
	clock clock.Clock
	root  *Store

	mu     sync.RWMutex
	mounts map[string]Backend
	cwd    string

	streams [3]*Stream
}

// MountInfo describes one entry of the mount table.
type MountInfo struct {
	Path string `json:"path"`
	Type string `json:"type"`
}

// New creates a namespace with an empty Store at "/" and the working
// directory at "/".
func New(options Options) *FS {
	c := clock.OrReal(options.Clock)
	f := &FS{
		clock:  c,
		root:   NewStore(c),
		mounts: make(map[string]Backend),
		cwd:    "/",
	}
	f.streams[Stdout] = newStream(options.Stdout)
	f.streams[Stderr] = newStream(options.Stderr)
	return f
}

var _ Namespace = (*FS)(nil)

// SetOutput replaces the line sinks of the standard streams.
func (f *FS) SetOutput(stdout, stderr func(line string)) {
	f.streams[Stdout].setSink(stdout)
	f.streams[Stderr].setSink(stderr)
}

// Stream returns the writer for descriptor 1 or 2.
func (f *FS) Stream(fd int) (*Stream, error) {
	if fd != Stdout && fd != Stderr {
		return nil, ErrBadStream
	}
	return f.streams[fd], nil
}

func (f *FS) OpenStream(fd int) error {
	stream, err := f.Stream(fd)
	if err != nil {
		return err
	}
	stream.reopen()
	return nil
}

func (f *FS) CloseStream(fd int) error {
	stream, err := f.Stream(fd)
	if err != nil {
		return err
	}
	return stream.close()
}

func (f *FS) Mounts() []MountInfo {
	f.mu.RLock()
	defer f.mu.RUnlock()
	table := make([]MountInfo, 0, len(f.mounts))
	for mountpoint, backend := range f.mounts {
		table = append(table, MountInfo{Path: mountpoint, Type: backend.Type()})
	}
	sort.Slice(table, func(i, j int) bool { return table[i].Path < table[j].Path })
	return table
}

func (f *FS) Getwd() string {
	f.mu.RLock()
	defer f.mu.RUnlock()
	return f.cwd
}

func (f *FS) abs(p string) string {
	return Clean(f.Getwd(), p)
}

// backendFor returns the backend owning abs, the path relative to that
// backend, and whether abs is itself a mount point.
func (f *FS) backendFor(abs string) (Backend, string, bool) {
	f.mu.RLock()
	defer f.mu.RUnlock()
	for candidate := abs; ; candidate = path.Dir(candidate) {
		if backend, ok := f.mounts[candidate]; ok {
			return backend, relTo(candidate, abs), candidate == abs
		}
		if candidate == "/" {
			return f.root, relTo("/", abs), false
		}
	}
}

// resolved is the outcome of walking a path.
type resolved struct {
	abs     string
	backend Backend
	rel     string
	info    FileInfo
}

// cause strips the outermost PathError so the namespace can report
// the caller's path instead of a backend-relative one.
func cause(err error) error {
	var pathErr *fs.PathError
	if errors.As(err, &pathErr) {
		return pathErr.Err
	}
	return err
}

// walk resolves p component by component, following every link in
// intermediate components and, when follow is set, in the final one.
func (f *FS) walk(op, p string, follow bool) (resolved, error) {
	abs := f.abs(p)
	for links := 0; ; links++ {
		if links > maxLinks {
			return resolved{}, pathError(op, p, ErrLoop)
		}
		result, next, err := f.walkOnce(abs, follow)
		if err != nil {
			return resolved{}, pathError(op, p, cause(err))
		}
		if next == "" {
			return result, nil
		}
		abs = next
	}
}

// walkOnce walks abs until it reaches the end or meets a link that
// must be followed. In the second case it returns the path to restart
// from.
func (f *FS) walkOnce(abs string, follow bool) (resolved, string, error) {
	names := components(abs)
	current := "/"
	if len(names) == 0 {
		backend, rel, _ := f.backendFor(current)
		info, err := backend.Lstat(rel)
		if err != nil {
			return resolved{}, "", err
		}
		info.Name = "/"
		return resolved{abs: current, backend: backend, rel: rel, info: info}, "", nil
	}
	for i, name := range names {
		next := path.Join(current, name)
		backend, rel, _ := f.backendFor(next)
		info, err := backend.Lstat(rel)
		if err != nil {
			return resolved{}, "", err
		}
		last := i == len(names)-1
		if info.Kind == KindSymlink && (!last || follow) {
			target := info.Target
			if !path.IsAbs(target) {
				target = path.Join(current, target)
			}
			rest := append([]string{target}, names[i+1:]...)
			return resolved{}, path.Clean(path.Join(rest...)), nil
		}
		if !last && info.Kind != KindDir {
			return resolved{}, "", ErrNotDir
		}
		if last {
			if info.Name == "" {
				info.Name = name
			}
			return resolved{abs: next, backend: backend, rel: rel, info: info}, "", nil
		}
		current = next
	}
	panic("unreachable")
}

// entry resolves the parent of p and returns where p itself lives,
// without touching p. Used by operations that create or remove p.
func (f *FS) entry(op, p string) (Backend, string, string, bool, error) {
	abs := f.abs(p)
	if abs == "/" {
		return nil, "", "", false, pathError(op, p, ErrBusy)
	}
	dir, name := path.Split(abs)
	parent, err := f.walk(op, dir, true)
	if err != nil {
		return nil, "", "", false, err
	}
	if parent.info.Kind != KindDir {
		return nil, "", "", false, pathError(op, p, ErrNotDir)
	}
	full := path.Join(parent.abs, name)
	backend, rel, isMount := f.backendFor(full)
	return backend, rel, full, isMount, nil
}

func (f *FS) Mkdir(p string) error {
	backend, rel, _, isMount, err := f.entry("mkdir", p)
	if err != nil {
		return err
	}
	if isMount {
		return pathError("mkdir", p, ErrExist)
	}
	if err := backend.Mkdir(rel); err != nil {
		return pathError("mkdir", p, cause(err))
	}
	return nil
}

func (f *FS) Chdir(p string) error {
	result, err := f.walk("chdir", p, true)
	if err != nil {
		return err
	}
	if result.info.Kind != KindDir {
		return pathError("chdir", p, ErrNotDir)
	}
	f.mu.Lock()
	f.cwd = result.abs
	f.mu.Unlock()
	return nil
}

func (f *FS) Symlink(target, link string) error {
	backend, rel, _, isMount, err := f.entry("symlink", link)
	if err != nil {
		return err
	}
	if isMount {
		return pathError("symlink", link, ErrExist)
	}
	if err := backend.Symlink(target, rel); err != nil {
		return pathError("symlink", link, cause(err))
	}
	return nil
}

func (f *FS) Readlink(p string) (string, error) {
	result, err := f.walk("readlink", p, false)
	if err != nil {
		return "", err
	}
	if result.info.Kind != KindSymlink {
		return "", pathError("readlink", p, ErrNotLink)
	}
	return result.info.Target, nil
}

func (f *FS) Unlink(p string) error {
	backend, rel, _, isMount, err := f.entry("unlink", p)
	if err != nil {
		return err
	}
	if isMount {
		return pathError("unlink", p, ErrBusy)
	}
	if err := backend.Remove(rel); err != nil {
		return pathError("unlink", p, cause(err))
	}
	return nil
}

// Mount attaches backend at mountpoint. Directory backends need an
// existing directory; single-file backends need a free name in an
// existing directory.
func (f *FS) Mount(backend Backend, mountpoint string) error {
	var target string
	if backend.Root() == KindDir {
		result, err := f.walk("mount", mountpoint, true)
		if err != nil {
			return err
		}
		if result.info.Kind != KindDir {
			return pathError("mount", mountpoint, ErrNotDir)
		}
		target = result.abs
	} else {
		owner, rel, full, isMount, err := f.entry("mount", mountpoint)
		if err != nil {
			return err
		}
		if isMount {
			return pathError("mount", mountpoint, ErrBusy)
		}
		if _, err := owner.Lstat(rel); err == nil {
			return pathError("mount", mountpoint, ErrExist)
		} else if !errors.Is(err, ErrNotExist) {
			return pathError("mount", mountpoint, cause(err))
		}
		target = full
	}
	if target == "/" {
		return pathError("mount", mountpoint, ErrBusy)
	}

	f.mu.Lock()
	defer f.mu.Unlock()
	if _, exists := f.mounts[target]; exists {
		return pathError("mount", mountpoint, ErrBusy)
	}
	f.mounts[target] = backend
	return nil
}

func (f *FS) Unmount(mountpoint string) error {
	target := f.abs(mountpoint)
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, exists := f.mounts[target]; !exists {
		return pathError("unmount", mountpoint, ErrNotMounted)
	}
	for other := range f.mounts {
		if isBeneath(target, other) {
			return pathError("unmount", mountpoint, ErrBusy)
		}
	}
	delete(f.mounts, target)
	return nil
}

// isBeneath reports whether p lies strictly inside dir.
func isBeneath(dir, p string) bool {
	if dir == "/" {
		return p != "/"
	}
	return len(p) > len(dir) && p[:len(dir)] == dir && p[len(dir)] == '/'
}

func (f *FS) IsMounted(mountpoint string) bool {
	target := f.abs(mountpoint)
	f.mu.RLock()
	defer f.mu.RUnlock()
	_, exists := f.mounts[target]
	return exists
}

func (f *FS) Analyze(p string) PathInfo {
	result, err := f.walk("analyze", p, true)
	if err != nil {
		return PathInfo{}
	}
	return PathInfo{Exists: true, Kind: result.info.Kind, Path: result.abs}
}

func (f *FS) Stat(p string) (FileInfo, error) {
	result, err := f.walk("stat", p, true)
	if err != nil {
		return FileInfo{}, err
	}
	return result.info, nil
}

func (f *FS) Lstat(p string) (FileInfo, error) {
	result, err := f.walk("lstat", p, false)
	if err != nil {
		return FileInfo{}, err
	}
	return result.info, nil
}

// ReadDir lists a directory, including entries contributed by mounts
// directly beneath it.
func (f *FS) ReadDir(p string) ([]FileInfo, error) {
	result, err := f.walk("readdir", p, true)
	if err != nil {
		return nil, err
	}
	if result.info.Kind != KindDir {
		return nil, pathError("readdir", p, ErrNotDir)
	}
	entries, err := result.backend.ReadDir(result.rel)
	if err != nil {
		return nil, pathError("readdir", p, cause(err))
	}

	byName := make(map[string]int, len(entries))
	for i, entry := range entries {
		byName[entry.Name] = i
	}
	f.mu.RLock()
	var children []string
	for mountpoint := range f.mounts {
		if mountpoint != result.abs && path.Dir(mountpoint) == result.abs {
			children = append(children, mountpoint)
		}
	}
	f.mu.RUnlock()
	for _, mountpoint := range children {
		backend, _, _ := f.backendFor(mountpoint)
		info, err := backend.Lstat("")
		if err != nil {
			continue
		}
		info.Name = path.Base(mountpoint)
		if i, ok := byName[info.Name]; ok {
			entries[i] = info
		} else {
			entries = append(entries, info)
		}
	}
	sort.Slice(entries, func(i, j int) bool { return entries[i].Name < entries[j].Name })
	return entries, nil
}

func (f *FS) ReadFile(p string) ([]byte, error) {
	result, err := f.walk("read", p, true)
	if err != nil {
		return nil, err
	}
	if result.info.Kind == KindDir {
		return nil, pathError("read", p, ErrIsDir)
	}
	data := make([]byte, result.info.Size)
	n, err := result.backend.ReadAt(result.rel, data, 0)
	if err != nil && !(errors.Is(err, io.EOF) && int64(n) == result.info.Size) {
		return nil, pathError("read", p, cause(err))
	}
	return data[:n], nil
}

// Create makes an empty file at p unless a file already exists there.
func (f *FS) Create(p string) error {
	result, err := f.walk("create", p, true)
	if err == nil {
		if result.info.Kind == KindDir {
			return pathError("create", p, ErrIsDir)
		}
		return nil
	}
	if !errors.Is(err, ErrNotExist) {
		return err
	}
	backend, rel, _, isMount, err := f.entry("create", p)
	if err != nil {
		return err
	}
	if isMount {
		return pathError("create", p, ErrBusy)
	}
	if err := backend.Create(rel); err != nil {
		return pathError("create", p, cause(err))
	}
	return nil
}

// WriteFile replaces the content of p, creating it if needed.
func (f *FS) WriteFile(p string, data []byte) error {
	if err := f.Create(p); err != nil {
		return err
	}
	if err := f.Truncate(p, 0); err != nil {
		return err
	}
	if len(data) == 0 {
		return nil
	}
	_, err := f.WriteAt(p, data, 0)
	return err
}

func (f *FS) ReadAt(p string, buffer []byte, off int64) (int, error) {
	result, err := f.walk("read", p, true)
	if err != nil {
		return 0, err
	}
	n, err := result.backend.ReadAt(result.rel, buffer, off)
	if err != nil && !errors.Is(err, io.EOF) {
		return n, pathError("read", p, cause(err))
	}
	return n, err
}

func (f *FS) WriteAt(p string, buffer []byte, off int64) (int, error) {
	result, err := f.walk("write", p, true)
	if err != nil {
		return 0, err
	}
	n, err := result.backend.WriteAt(result.rel, buffer, off)
	if err != nil {
		return n, pathError("write", p, cause(err))
	}
	return n, nil
}

func (f *FS) Truncate(p string, size int64) error {
	result, err := f.walk("truncate", p, true)
	if err != nil {
		return err
	}
	if err := result.backend.Truncate(result.rel, size); err != nil {
		return pathError("truncate", p, cause(err))
	}
	return nil
}
