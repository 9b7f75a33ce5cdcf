// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package namespace

import (
	"context"
	"fmt"
	"io"
	"sync"
	"time"
)

// DefaultChunkSize is the range size LazyFile fetches per request.
const DefaultChunkSize = 1 << 20

// RangeFetcher retrieves metadata and byte ranges of remote files.
type RangeFetcher interface {
	// Size returns the total length of the resource at url.
	Size(ctx context.Context, url string) (int64, error)

	// FetchRange returns length bytes starting at offset. It may
	// return fewer bytes only at the end of the resource.
	FetchRange(ctx context.Context, url string, offset, length int64) ([]byte, error)
}

// LazyFile is a read-only single-file backend whose content lives
// behind a URL. Nothing is fetched when the file is created or
// mounted. The size is fetched on first Lstat or read and byte ranges
// are fetched chunk by chunk as reads touch them. Fetch failures are
// not cached; the next access retries.
type LazyFile struct {
	ctx       context.Context
	url       string
	fetcher   RangeFetcher
	chunkSize int64
	modTime   time.Time

	mu     sync.Mutex
	size   int64
	sized  bool
	chunks map[int64][]byte
}

// LazyFileOptions configures NewLazyFile.
type LazyFileOptions struct {
	// Context bounds every fetch. Nil means context.Background().
	Context context.Context

	// ChunkSize overrides DefaultChunkSize.
	ChunkSize int64

	// ModTime is reported by Lstat.
	ModTime time.Time
}

// NewLazyFile creates a lazy backend for url.
func NewLazyFile(url string, fetcher RangeFetcher, options LazyFileOptions) *LazyFile {
	if options.Context == nil {
		options.Context = context.Background()
	}
	if options.ChunkSize <= 0 {
		options.ChunkSize = DefaultChunkSize
	}
	return &LazyFile{
		ctx:       options.Context,
		url:       url,
		fetcher:   fetcher,
		chunkSize: options.ChunkSize,
		modTime:   options.ModTime,
		chunks:    make(map[int64][]byte),
	}
}

var _ Backend = (*LazyFile)(nil)

func (l *LazyFile) Type() string { return "lazy" }
func (l *LazyFile) Root() Kind   { return KindFile }

// URL returns the remote location backing the file.
func (l *LazyFile) URL() string { return l.url }

// FetchedChunks reports how many chunks have been retrieved so far.
func (l *LazyFile) FetchedChunks() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.chunks)
}

// totalSize returns the resource size. Callers hold l.mu.
func (l *LazyFile) totalSize() (int64, error) {
	if l.sized {
		return l.size, nil
	}
	size, err := l.fetcher.Size(l.ctx, l.url)
	if err != nil {
		return 0, fmt.Errorf("fetching size of %s: %w", l.url, err)
	}
	l.size, l.sized = size, true
	return size, nil
}

// chunk returns the chunk starting at index*chunkSize. Callers hold
// l.mu.
func (l *LazyFile) chunk(index, size int64) ([]byte, error) {
	if data, ok := l.chunks[index]; ok {
		return data, nil
	}
	offset := index * l.chunkSize
	length := min(l.chunkSize, size-offset)
	data, err := l.fetcher.FetchRange(l.ctx, l.url, offset, length)
	if err != nil {
		return nil, fmt.Errorf("fetching %s bytes %d-%d: %w", l.url, offset, offset+length-1, err)
	}
	if int64(len(data)) != length {
		return nil, fmt.Errorf("fetching %s bytes %d-%d: got %d bytes", l.url, offset, offset+length-1, len(data))
	}
	l.chunks[index] = data
	return data, nil
}

func (l *LazyFile) Lstat(rel string) (FileInfo, error) {
	if rel != "" {
		return FileInfo{}, pathError("lstat", rel, ErrNotDir)
	}
	l.mu.Lock()
	defer l.mu.Unlock()
	size, err := l.totalSize()
	if err != nil {
		return FileInfo{}, pathError("lstat", l.url, err)
	}
	return FileInfo{Kind: KindFile, Size: size, ModTime: l.modTime, ReadOnly: true}, nil
}

func (l *LazyFile) ReadDir(rel string) ([]FileInfo, error) {
	return nil, pathError("readdir", rel, ErrNotDir)
}

func (l *LazyFile) ReadAt(rel string, p []byte, off int64) (int, error) {
	if rel != "" {
		return 0, pathError("read", rel, ErrNotDir)
	}
	if off < 0 {
		return 0, pathError("read", l.url, ErrInvalid)
	}
	l.mu.Lock()
	defer l.mu.Unlock()
	size, err := l.totalSize()
	if err != nil {
		return 0, pathError("read", l.url, err)
	}
	if off >= size {
		return 0, io.EOF
	}
	read := 0
	for read < len(p) && off < size {
		index := off / l.chunkSize
		data, err := l.chunk(index, size)
		if err != nil {
			return read, pathError("read", l.url, err)
		}
		n := copy(p[read:], data[off-index*l.chunkSize:])
		read += n
		off += int64(n)
	}
	if read < len(p) {
		return read, io.EOF
	}
	return read, nil
}

func (l *LazyFile) WriteAt(rel string, p []byte, off int64) (int, error) {
	return 0, pathError("write", rel, ErrReadOnly)
}

func (l *LazyFile) Truncate(rel string, size int64) error {
	return pathError("truncate", rel, ErrReadOnly)
}

func (l *LazyFile) Create(rel string) error {
	return pathError("create", rel, ErrReadOnly)
}

func (l *LazyFile) Mkdir(rel string) error {
	return pathError("mkdir", rel, ErrReadOnly)
}

func (l *LazyFile) Symlink(target, rel string) error {
	return pathError("symlink", rel, ErrReadOnly)
}

func (l *LazyFile) Remove(rel string) error {
	return pathError("remove", rel, ErrReadOnly)
}
