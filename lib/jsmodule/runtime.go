// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package jsmodule

import (
	"archive/tar"
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"path"
	"strings"

	"github.com/dop251/goja"

	"github.com/bureau-foundation/toolfed/lib/assets"
	"github.com/bureau-foundation/toolfed/lib/clock"
	"github.com/bureau-foundation/toolfed/lib/module"
	"github.com/bureau-foundation/toolfed/lib/namespace"
)

// Fetcher retrieves asset bytes by location.
type Fetcher interface {
	Fetch(ctx context.Context, location string) ([]byte, error)
}

// Options configures a Runtime.
type Options struct {
	// Fetcher loads program sources and data archives. Required.
	Fetcher Fetcher

	// Clock stamps namespace modification times. Nil uses wall-clock
	// time.
	Clock clock.Clock

	// Logger receives instantiation diagnostics. Nil discards.
	Logger *slog.Logger
}

// Runtime instantiates JavaScript tool programs.
type Runtime struct {
	fetcher Fetcher
	clock   clock.Clock
	logger  *slog.Logger
}

// New creates a Runtime.
func New(options Options) (*Runtime, error) {
	if options.Fetcher == nil {
		return nil, errors.New("jsmodule: fetcher is required")
	}
	if options.Logger == nil {
		options.Logger = slog.New(slog.DiscardHandler)
	}
	return &Runtime{
		fetcher: options.Fetcher,
		clock:   clock.OrReal(options.Clock),
		logger:  options.Logger,
	}, nil
}

var _ module.Runtime = (*Runtime)(nil)

// Instantiate loads <program>.js, preloads <program>.data when the
// bundle has one, and evaluates the program's top level.
func (r *Runtime) Instantiate(ctx context.Context, options module.Options) (module.Instance, error) {
	if err := options.Validate(); err != nil {
		return nil, fmt.Errorf("jsmodule: %w", err)
	}

	sourceName := options.Program + ".js"
	source, err := r.fetcher.Fetch(ctx, options.Locate(sourceName))
	if err != nil {
		return nil, fmt.Errorf("loading %s: %w", sourceName, err)
	}
	program, err := goja.Compile(sourceName, string(source), false)
	if err != nil {
		return nil, fmt.Errorf("compiling %s: %w", sourceName, err)
	}

	fs := namespace.New(namespace.Options{
		Clock:  r.clock,
		Stdout: options.Stdout,
		Stderr: options.Stderr,
	})

	dataName := options.Program + ".data"
	archive, err := r.fetcher.Fetch(ctx, options.Locate(dataName))
	switch {
	case errors.Is(err, assets.ErrNotFound):
	case err != nil:
		return nil, fmt.Errorf("loading %s: %w", dataName, err)
	default:
		count, err := extractArchive(fs, archive)
		if err != nil {
			return nil, fmt.Errorf("preloading %s: %w", dataName, err)
		}
		r.logger.Debug("preloaded sample data",
			"program", options.Program,
			"entries", count,
		)
	}

	instance := &Instance{
		program: options.Program,
		fs:      fs,
		vm:      goja.New(),
	}
	if err := instance.bind(); err != nil {
		return nil, fmt.Errorf("binding %s: %w", options.Program, err)
	}
	if err := instance.run(func() error {
		_, err := instance.vm.RunProgram(program)
		return err
	}); err != nil {
		return nil, fmt.Errorf("evaluating %s: %w", sourceName, err)
	}
	return instance, nil
}

// extractArchive unpacks a tar archive into fs at "/", returning the
// number of entries written.
func extractArchive(fs *namespace.FS, archive []byte) (int, error) {
	reader := tar.NewReader(bytes.NewReader(archive))
	count := 0
	for {
		header, err := reader.Next()
		if errors.Is(err, io.EOF) {
			return count, nil
		}
		if err != nil {
			return count, err
		}
		name := path.Clean("/" + strings.TrimPrefix(header.Name, "./"))
		if name == "/" {
			continue
		}
		if err := mkdirAll(fs, path.Dir(name)); err != nil {
			return count, err
		}
		switch header.Typeflag {
		case tar.TypeDir:
			err = mkdirAll(fs, name)
		case tar.TypeReg:
			var content []byte
			content, err = io.ReadAll(reader)
			if err == nil {
				err = fs.WriteFile(name, content)
			}
		case tar.TypeSymlink:
			err = fs.Symlink(header.Linkname, name)
		default:
			continue
		}
		if err != nil {
			return count, err
		}
		count++
	}
}

func mkdirAll(fs namespace.Namespace, dir string) error {
	current := "/"
	for _, name := range strings.Split(strings.TrimPrefix(dir, "/"), "/") {
		if name == "" {
			continue
		}
		current = path.Join(current, name)
		err := fs.Mkdir(current)
		if err != nil && !errors.Is(err, namespace.ErrExist) {
			return err
		}
	}
	return nil
}
