// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package federation

import (
	"context"
	"errors"
	"fmt"
	"path"
	"path/filepath"
	"strings"

	"github.com/bureau-foundation/toolfed/lib/namespace"
)

// MountInput is one item to mount: a LocalFile, NamedBlob, or
// RemoteURL.
type MountInput interface {
	mountInput()
}

// LocalFile is a file on the host, read at mount time and exposed
// under its base name.
type LocalFile struct {
	Path string
}

// NamedBlob is in-memory content exposed under Name.
type NamedBlob struct {
	Name string
	Data []byte
}

// RemoteURL is an http or https resource exposed as a lazily fetched
// file.
type RemoteURL struct {
	URL string
}

func (LocalFile) mountInput() {}
func (NamedBlob) mountInput() {}
func (RemoteURL) mountInput() {}

// mountRecord is the cumulative set of overlay entries. Entries are
// only ever appended; the overlay is rebuilt from the whole list.
type mountRecord struct {
	files []namespace.OverlayEntry
	urls  []string
}

// MountedFiles returns the names of all file and blob entries mounted
// so far, in mount order and including repeats.
func (s *System) MountedFiles() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	names := make([]string, len(s.record.files))
	for index, entry := range s.record.files {
		names[index] = entry.Name
	}
	return names
}

// SafeName derives the data-directory file name for a URL: the scheme
// is dropped and every "/" becomes "-".
func SafeName(url string) string {
	if _, rest, found := strings.Cut(url, "://"); found {
		url = rest
	}
	return strings.ReplaceAll(url, "/", "-")
}

func validName(name string) bool {
	return name != "" && name != "." && name != ".." && !strings.Contains(name, "/")
}

// Mount exposes inputs to every tool. Files and blobs are added to the
// overlay at "/<mounted>" of the root namespace, which is rebuilt from
// the full cumulative record, and a link "<shared>/<data>/<name>" to
// each is (re)created through the primary tool so tools can write
// derived files next to read-only inputs. URLs are mounted once each
// as lazily fetched files in the data directory. The returned paths
// name every input in the shared data directory, URLs first.
//
// Every input is validated and read before anything is mounted; an
// unusable input fails the whole call with ErrMount.
func (s *System) Mount(ctx context.Context, inputs ...MountInput) ([]string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, err := s.primaryNamespace(); err != nil {
		return nil, err
	}

	var files []namespace.OverlayEntry
	var urls []string
	now := s.options.Clock.Now().UTC()
	for index, input := range inputs {
		switch input := input.(type) {
		case LocalFile:
			name := filepath.Base(input.Path)
			if input.Path == "" || !validName(name) {
				return nil, fmt.Errorf("%w: input %d: invalid file path %q", ErrMount, index, input.Path)
			}
			data, err := s.options.ReadHostFile(input.Path)
			if err != nil {
				return nil, fmt.Errorf("%w: input %d: %w", ErrMount, index, err)
			}
			files = append(files, namespace.OverlayEntry{Name: name, Data: data, ModTime: now})
		case NamedBlob:
			if !validName(input.Name) {
				return nil, fmt.Errorf("%w: input %d: invalid blob name %q", ErrMount, index, input.Name)
			}
			files = append(files, namespace.OverlayEntry{Name: input.Name, Data: input.Data, ModTime: now})
		case RemoteURL:
			if !strings.HasPrefix(input.URL, "http://") && !strings.HasPrefix(input.URL, "https://") {
				return nil, fmt.Errorf("%w: input %d: %q is not an http or https URL", ErrMount, index, input.URL)
			}
			if !validName(SafeName(input.URL)) {
				return nil, fmt.Errorf("%w: input %d: no file name in %q", ErrMount, index, input.URL)
			}
			if s.options.Ranges == nil {
				return nil, fmt.Errorf("%w: input %d: no range fetcher configured for URL mounts", ErrMount, index)
			}
			urls = append(urls, input.URL)
		default:
			return nil, fmt.Errorf("%w: input %d: unsupported input %T", ErrMount, index, input)
		}
	}

	var paths []string
	for _, url := range urls {
		name := SafeName(url)
		if err := s.mountURL(ctx, url, name); err != nil {
			return paths, err
		}
		paths = append(paths, path.Join(s.sharedData(), name))
	}

	if len(files) > 0 {
		if err := s.remountOverlay(files); err != nil {
			return paths, err
		}
		for _, entry := range files {
			link, err := s.linkMounted(entry.Name)
			if err != nil {
				return paths, err
			}
			paths = append(paths, link)
		}
	}
	return paths, nil
}

// mountURL mounts url as a lazy file at /<data>/<name> in the root
// namespace unless it is already mounted there.
func (s *System) mountURL(ctx context.Context, url, name string) error {
	mountpoint := path.Join(s.rootData(), name)
	if s.root.IsMounted(mountpoint) {
		return nil
	}
	lazy := namespace.NewLazyFile(url, s.options.Ranges, namespace.LazyFileOptions{
		Context: context.WithoutCancel(ctx),
		ModTime: s.options.Clock.Now().UTC(),
	})
	if err := s.root.Mount(lazy, mountpoint); err != nil {
		return fmt.Errorf("%w: mounting %s: %w", ErrMount, url, err)
	}
	s.record.urls = append(s.record.urls, url)
	s.logger.Info("mounted url", "url", url, "path", mountpoint)
	return nil
}

// remountOverlay appends files to the record and replaces the overlay
// with one built from the complete record.
func (s *System) remountOverlay(files []namespace.OverlayEntry) error {
	s.record.files = append(s.record.files, files...)
	mountpoint := s.rootMounted()
	if err := s.root.Unmount(mountpoint); err != nil && !errors.Is(err, namespace.ErrNotMounted) {
		return fmt.Errorf("%w: unmounting overlay: %w", ErrMount, err)
	}
	overlay := namespace.NewOverlay(s.record.files)
	if err := s.root.Mount(overlay, mountpoint); err != nil {
		return fmt.Errorf("%w: mounting overlay: %w", ErrMount, err)
	}
	s.logger.Info("remounted overlay",
		"path", mountpoint,
		"entries", len(s.record.files),
		"names", overlay.Len(),
	)
	return nil
}

// linkMounted replaces <shared>/<data>/<name> in the primary namespace
// with a link to the overlay copy and returns the link path.
func (s *System) linkMounted(name string) (string, error) {
	primary := s.primary().ns
	link := path.Join(s.sharedData(), name)
	target := path.Join(s.sharedMounted(), name)
	if err := primary.Unlink(link); err != nil && !errors.Is(err, namespace.ErrNotExist) {
		return "", fmt.Errorf("%w: replacing %s: %w", ErrMount, link, err)
	}
	if err := primary.Symlink(target, link); err != nil {
		return "", fmt.Errorf("%w: linking %s: %w", ErrMount, link, err)
	}
	return link, nil
}
