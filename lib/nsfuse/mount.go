// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package nsfuse

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path"
	"syscall"
	"time"

	gofuse "github.com/hanwen/go-fuse/v2/fs"
	"github.com/hanwen/go-fuse/v2/fuse"

	"github.com/bureau-foundation/toolfed/lib/namespace"
)

// Source is the part of a namespace the export reads. Every
// namespace.Namespace satisfies it.
type Source interface {
	Stat(path string) (namespace.FileInfo, error)
	ReadDir(path string) ([]namespace.FileInfo, error)
	ReadAt(path string, p []byte, off int64) (int, error)
}

// Options configures the FUSE mount.
type Options struct {
	// Mountpoint is the host directory where the namespace appears.
	// It is created if it does not exist.
	Mountpoint string

	// Source is the namespace to export.
	Source Source

	// Root is the namespace directory shown at the mountpoint. Empty
	// exports "/".
	Root string

	// AllowOther permits other users to access the mount. Requires
	// user_allow_other in /etc/fuse.conf.
	AllowOther bool

	// Logger receives diagnostic messages. If nil, a no-op logger
	// is used.
	Logger *slog.Logger
}

// Mount exports the namespace at the configured mountpoint. The caller
// must call Unmount on the returned Server when done.
func Mount(options Options) (*fuse.Server, error) {
	if options.Mountpoint == "" {
		return nil, fmt.Errorf("mountpoint is required")
	}
	if options.Source == nil {
		return nil, fmt.Errorf("source namespace is required")
	}
	if options.Root == "" {
		options.Root = "/"
	}
	if options.Logger == nil {
		options.Logger = slog.New(slog.DiscardHandler)
	}

	info, err := options.Source.Stat(options.Root)
	if err != nil {
		return nil, fmt.Errorf("exporting %s: %w", options.Root, err)
	}
	if info.Kind != namespace.KindDir {
		return nil, fmt.Errorf("exporting %s: %w", options.Root, namespace.ErrNotDir)
	}

	if err := os.MkdirAll(options.Mountpoint, 0o755); err != nil {
		return nil, fmt.Errorf("creating mountpoint %s: %w", options.Mountpoint, err)
	}

	root := &node{options: &options, path: path.Clean(options.Root)}

	entryTimeout := 1 * time.Second
	attrTimeout := 1 * time.Second
	negativeTimeout := 100 * time.Millisecond

	server, err := gofuse.Mount(options.Mountpoint, root, &gofuse.Options{
		EntryTimeout:    &entryTimeout,
		AttrTimeout:     &attrTimeout,
		NegativeTimeout: &negativeTimeout,
		MountOptions: fuse.MountOptions{
			FsName:     "toolfed",
			Name:       "toolfed",
			AllowOther: options.AllowOther,
		},
	})
	if err != nil {
		return nil, fmt.Errorf("mounting FUSE filesystem at %s: %w", options.Mountpoint, err)
	}

	options.Logger.Info("namespace exported",
		"mountpoint", options.Mountpoint,
		"root", options.Root,
	)
	return server, nil
}

// node is one namespace path. Directories and files share the type;
// the kernel only calls the methods that fit the inode mode.
type node struct {
	gofuse.Inode
	options *Options
	path    string
}

var _ gofuse.InodeEmbedder = (*node)(nil)
var _ gofuse.NodeLookuper = (*node)(nil)
var _ gofuse.NodeReaddirer = (*node)(nil)
var _ gofuse.NodeGetattrer = (*node)(nil)
var _ gofuse.NodeOpener = (*node)(nil)
var _ gofuse.NodeReader = (*node)(nil)

func (n *node) Lookup(ctx context.Context, name string, out *fuse.EntryOut) (*gofuse.Inode, syscall.Errno) {
	childPath := path.Join(n.path, name)
	info, err := n.options.Source.Stat(childPath)
	if err != nil {
		return nil, n.errno("lookup", childPath, err)
	}
	fillAttr(&out.Attr, info)
	child := n.NewInode(ctx, &node{options: n.options, path: childPath}, gofuse.StableAttr{Mode: fileType(info.Kind)})
	return child, 0
}

func (n *node) Readdir(ctx context.Context) (gofuse.DirStream, syscall.Errno) {
	entries, err := n.options.Source.ReadDir(n.path)
	if err != nil {
		return nil, n.errno("readdir", n.path, err)
	}
	result := make([]fuse.DirEntry, 0, len(entries))
	for _, entry := range entries {
		kind := entry.Kind
		if kind == namespace.KindSymlink {
			resolved, err := n.options.Source.Stat(path.Join(n.path, entry.Name))
			if err != nil {
				continue
			}
			kind = resolved.Kind
		}
		result = append(result, fuse.DirEntry{Name: entry.Name, Mode: fileType(kind)})
	}
	return gofuse.NewListDirStream(result), 0
}

func (n *node) Getattr(ctx context.Context, f gofuse.FileHandle, out *fuse.AttrOut) syscall.Errno {
	info, err := n.options.Source.Stat(n.path)
	if err != nil {
		return n.errno("getattr", n.path, err)
	}
	fillAttr(&out.Attr, info)
	return 0
}

func (n *node) Open(ctx context.Context, flags uint32) (gofuse.FileHandle, uint32, syscall.Errno) {
	if flags&(syscall.O_WRONLY|syscall.O_RDWR|syscall.O_TRUNC) != 0 {
		return nil, 0, syscall.EROFS
	}
	// Namespace files change under tools, so the page cache is not
	// kept across opens.
	return nil, fuse.FOPEN_DIRECT_IO, 0
}

func (n *node) Read(ctx context.Context, f gofuse.FileHandle, dest []byte, off int64) (fuse.ReadResult, syscall.Errno) {
	count, err := n.options.Source.ReadAt(n.path, dest, off)
	if err != nil && count == 0 && !errors.Is(err, io.EOF) {
		return nil, n.errno("read", n.path, err)
	}
	return fuse.ReadResultData(dest[:count]), 0
}

// errno maps a namespace error to the errno the kernel expects,
// logging anything unexpected.
func (n *node) errno(op, target string, err error) syscall.Errno {
	switch {
	case errors.Is(err, namespace.ErrNotExist), errors.Is(err, namespace.ErrLoop):
		return syscall.ENOENT
	case errors.Is(err, namespace.ErrNotDir):
		return syscall.ENOTDIR
	case errors.Is(err, namespace.ErrIsDir):
		return syscall.EISDIR
	case errors.Is(err, namespace.ErrReadOnly):
		return syscall.EROFS
	}
	n.options.Logger.Error("namespace operation failed",
		"op", op,
		"path", target,
		"error", err,
	)
	return syscall.EIO
}

func fileType(kind namespace.Kind) uint32 {
	if kind == namespace.KindDir {
		return syscall.S_IFDIR
	}
	return syscall.S_IFREG
}

func fillAttr(out *fuse.Attr, info namespace.FileInfo) {
	if info.Kind == namespace.KindDir {
		out.Mode = syscall.S_IFDIR | 0o555
	} else {
		out.Mode = syscall.S_IFREG | 0o444
		out.Size = uint64(info.Size)
		out.Blocks = (out.Size + 511) / 512
	}
	mtime := info.ModTime
	out.SetTimes(nil, &mtime, &mtime)
}
