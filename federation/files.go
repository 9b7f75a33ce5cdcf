// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package federation

import (
	"errors"
	"fmt"
	"io"

	"github.com/bureau-foundation/toolfed/lib/namespace"
)

// The helpers below act on the primary tool's namespace, so relative
// paths resolve against the shared working directory. Cat, Ls, and
// Download report a missing path with ok=false rather than an error.

// Cat returns the content of a file as text.
func (s *System) Cat(path string) (string, bool) {
	data, ok := s.readPrimary(path)
	return string(data), ok
}

// Listing is the result of Ls: the entry names of a directory, or the
// description of a single file.
type Listing struct {
	Names []string            `json:"names,omitempty"`
	File  *namespace.FileInfo `json:"file,omitempty"`
}

// Ls lists a directory, or describes path when it is a file.
func (s *System) Ls(path string) (Listing, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	ns, err := s.primaryNamespace()
	if err != nil {
		return Listing{}, false
	}
	info := ns.Analyze(path)
	if !info.Exists {
		return Listing{}, false
	}
	if info.Kind != namespace.KindDir {
		stat, err := ns.Stat(path)
		if err != nil {
			return Listing{}, false
		}
		return Listing{File: &stat}, true
	}
	entries, err := ns.ReadDir(path)
	if err != nil {
		return Listing{}, false
	}
	names := make([]string, len(entries))
	for index, entry := range entries {
		names[index] = entry.Name
	}
	return Listing{Names: names}, true
}

// Download stores the content of a file in the blob store and returns
// a blob URL for it.
func (s *System) Download(path string) (string, bool) {
	data, ok := s.readPrimary(path)
	if !ok {
		return "", false
	}
	return s.options.Blobs.Put(data), true
}

// Blob returns the content behind a URL returned by Download.
func (s *System) Blob(url string) ([]byte, bool) {
	return s.options.Blobs.Get(url)
}

func (s *System) readPrimary(path string) ([]byte, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	ns, err := s.primaryNamespace()
	if err != nil {
		return nil, false
	}
	if info := ns.Analyze(path); !info.Exists || info.Kind == namespace.KindDir {
		return nil, false
	}
	data, err := ns.ReadFile(path)
	if err != nil {
		s.logger.Debug("read failed", "path", path, "error", err)
		return nil, false
	}
	return data, true
}

// Pwd returns the primary tool's working directory.
func (s *System) Pwd() (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	ns, err := s.primaryNamespace()
	if err != nil {
		return "", err
	}
	return ns.Getwd(), nil
}

// Cd moves every ready non-root tool to path, resolved against the
// primary's working directory. The primary goes first and its failure
// aborts the call; failures in other tools are returned after all
// tools were tried.
func (s *System) Cd(path string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	ns, err := s.primaryNamespace()
	if err != nil {
		return err
	}
	target := namespace.Clean(ns.Getwd(), path)
	if err := ns.Chdir(target); err != nil {
		return err
	}
	var errs []error
	for _, d := range s.tools[2:] {
		if d.state != StateReady {
			continue
		}
		if err := d.ns.Chdir(target); err != nil {
			s.logger.Warn("cd failed", "tool", d.Tool, "path", target, "error", err)
			errs = append(errs, fmt.Errorf("%s: %w", d.Tool, err))
		}
	}
	return errors.Join(errs...)
}

// Mkdir creates a directory in the primary namespace.
func (s *System) Mkdir(path string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	ns, err := s.primaryNamespace()
	if err != nil {
		return err
	}
	return ns.Mkdir(path)
}

// MaxTransfer bounds the bytes one Read returns and the offset a
// Write may start at. It matches the socket's message limit.
const MaxTransfer = 256 << 20

// ReadRequest selects a byte range of a file. A negative Length reads
// to the end.
type ReadRequest struct {
	Path   string
	Offset int64
	Length int64
}

// Read returns the requested bytes of a file in the primary namespace.
// Reading past the end returns the bytes that exist.
func (s *System) Read(request ReadRequest) ([]byte, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	ns, err := s.primaryNamespace()
	if err != nil {
		return nil, err
	}
	if request.Offset < 0 {
		return nil, fmt.Errorf("%w: read %s: negative offset %d", ErrRange, request.Path, request.Offset)
	}
	if request.Length < -1 || request.Length > MaxTransfer {
		return nil, fmt.Errorf("%w: read %s: length %d outside [-1, %d]", ErrRange, request.Path, request.Length, MaxTransfer)
	}
	length := request.Length
	if length < 0 {
		info, err := ns.Stat(request.Path)
		if err != nil {
			return nil, err
		}
		length = max(info.Size-request.Offset, 0)
		if length > MaxTransfer {
			return nil, fmt.Errorf("%w: read %s: %d bytes to the end exceed %d", ErrRange, request.Path, length, MaxTransfer)
		}
	}
	buffer := make([]byte, length)
	n, err := ns.ReadAt(request.Path, buffer, request.Offset)
	if err != nil && !errors.Is(err, io.EOF) {
		return nil, err
	}
	return buffer[:n], nil
}

// WriteRequest writes Data at Offset, creating the file if needed.
// Truncate first empties the file.
type WriteRequest struct {
	Path     string
	Offset   int64
	Data     []byte
	Truncate bool
}

// Write applies a WriteRequest in the primary namespace.
func (s *System) Write(request WriteRequest) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	ns, err := s.primaryNamespace()
	if err != nil {
		return err
	}
	if request.Offset < 0 || request.Offset > MaxTransfer {
		return fmt.Errorf("%w: write %s: offset %d outside [0, %d]", ErrRange, request.Path, request.Offset, MaxTransfer)
	}
	if err := ns.Create(request.Path); err != nil {
		return err
	}
	if request.Truncate {
		if err := ns.Truncate(request.Path, 0); err != nil {
			return err
		}
	}
	if len(request.Data) == 0 {
		return nil
	}
	_, err = ns.WriteAt(request.Path, request.Data, request.Offset)
	return err
}
