// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package federation

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path"
	"sync"

	"golang.org/x/sync/errgroup"

	"github.com/bureau-foundation/toolfed/lib/assets"
	"github.com/bureau-foundation/toolfed/lib/blobstore"
	"github.com/bureau-foundation/toolfed/lib/clock"
	"github.com/bureau-foundation/toolfed/lib/hwcaps"
	"github.com/bureau-foundation/toolfed/lib/module"
	"github.com/bureau-foundation/toolfed/lib/namespace"
)

// Default directory names.
const (
	DefaultDirData    = "data"
	DefaultDirMounted = "mnt"
	DefaultDirShared  = "shared"
)

// ConfigSource fetches a tool bundle's configuration from its URL
// prefix.
type ConfigSource interface {
	FetchToolConfig(ctx context.Context, prefix string) (assets.ToolConfig, error)
}

// Options configures a System.
type Options struct {
	// Runtime instantiates tool programs. Required.
	Runtime module.Runtime

	// Configs fetches bundle config.json files for feature
	// resolution. Required.
	Configs ConfigSource

	// Capabilities answers feature questions. Nil uses the
	// process-wide host detector.
	Capabilities hwcaps.Detector

	// Ranges backs lazily mounted URL files. Required for RemoteURL
	// mounts.
	Ranges namespace.RangeFetcher

	// Blobs holds files materialized by Download. Nil creates a
	// private store.
	Blobs *blobstore.Store

	// ReadHostFile reads LocalFile mount inputs. Nil uses
	// os.ReadFile.
	ReadHostFile func(path string) ([]byte, error)

	// Directory names, without slashes. Empty values use the
	// defaults.
	DirData    string
	DirMounted string
	DirShared  string

	// URLCDN is the base for default tool URL prefixes.
	URLCDN string

	// PrintInterleaved routes tool stderr into the stdout buffer.
	PrintInterleaved bool

	// Strict makes Exec return tool faults as errors.
	Strict bool

	Clock  clock.Clock
	Logger *slog.Logger
}

func (o *Options) applyDefaults() {
	if o.Capabilities == nil {
		o.Capabilities = hwcaps.Default()
	}
	if o.Blobs == nil {
		o.Blobs = blobstore.New()
	}
	if o.ReadHostFile == nil {
		o.ReadHostFile = os.ReadFile
	}
	if o.DirData == "" {
		o.DirData = DefaultDirData
	}
	if o.DirMounted == "" {
		o.DirMounted = DefaultDirMounted
	}
	if o.DirShared == "" {
		o.DirShared = DefaultDirShared
	}
	o.Clock = clock.OrReal(o.Clock)
	if o.Logger == nil {
		o.Logger = slog.New(slog.DiscardHandler)
	}
}

func (o *Options) validate() error {
	var errs []error
	if o.Runtime == nil {
		errs = append(errs, errors.New("runtime is required"))
	}
	if o.Configs == nil {
		errs = append(errs, errors.New("config source is required"))
	}
	for name, dir := range map[string]string{
		"data": o.DirData, "mounted": o.DirMounted, "shared": o.DirShared,
	} {
		if path.Base(dir) != dir || dir == "." || dir == ".." {
			errs = append(errs, fmt.Errorf("%s directory %q must be a single path element", name, dir))
		}
	}
	if len(errs) > 0 {
		return fmt.Errorf("%w: %w", ErrConfiguration, errors.Join(errs...))
	}
	return nil
}

// System is the federation context: the tool descriptors, the root
// namespace, and the mount record.
type System struct {
	options Options
	logger  *slog.Logger

	mu          sync.Mutex
	tools       []*descriptor
	root        namespace.Namespace
	record      mountRecord
	initialized bool
}

// NewSystem validates options and the tool list. tools[0] is the root
// tool and tools[1] the primary tool.
func NewSystem(options Options, tools []ToolConfig) (*System, error) {
	options.applyDefaults()
	if err := options.validate(); err != nil {
		return nil, err
	}
	if err := validateTools(tools); err != nil {
		return nil, err
	}
	system := &System{
		options: options,
		logger:  options.Logger,
		tools:   make([]*descriptor, len(tools)),
	}
	for index, tool := range tools {
		if tool.Features != nil {
			features := *tool.Features
			tool.Features = &features
		}
		system.tools[index] = &descriptor{ToolConfig: tool}
	}
	return system, nil
}

// Paths of the shared directories as seen from the root namespace and
// from a non-root namespace.
func (s *System) rootData() string      { return "/" + s.options.DirData }
func (s *System) rootMounted() string   { return "/" + s.options.DirMounted }
func (s *System) sharedRoot() string    { return "/" + s.options.DirShared }
func (s *System) sharedData() string    { return path.Join(s.sharedRoot(), s.options.DirData) }
func (s *System) sharedMounted() string { return path.Join(s.sharedRoot(), s.options.DirMounted) }

func (s *System) primary() *descriptor { return s.tools[1] }

// Init activates the root and primary tools, then all other eager
// tools concurrently, then runs the federation pass. The root and the
// primary are always activated whatever their configured loading mode.
// Calling Init again activates any eager tools still pending.
func (s *System) Init(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.tools[0].Loading = LoadingEager
	s.tools[1].Loading = LoadingEager
	for _, d := range s.tools[:2] {
		if d.state == StateReady {
			continue
		}
		if err := s.activate(ctx, d); err != nil {
			return err
		}
	}
	s.initialized = true

	err := s.activatePending(ctx)
	if federateErr := s.federate(); federateErr != nil {
		err = errors.Join(err, federateErr)
	}
	if err != nil {
		return err
	}
	s.logger.Info("federation ready", "tools", len(s.tools))
	return nil
}

// activatePending runs activation for every non-root tool that is not
// yet ready. A primary left down by a failed reinit comes back first,
// since the others start in its directory. Lazy tools only get their
// defaults and features resolved. The remaining activations run
// concurrently; each touches only its own descriptor.
func (s *System) activatePending(ctx context.Context) error {
	var primaryErr error
	if primary := s.primary(); primary.state != StateReady {
		primaryErr = s.activate(ctx, primary)
	}
	var group errgroup.Group
	for _, d := range s.tools[2:] {
		if d.state == StateReady {
			continue
		}
		group.Go(func() error {
			return s.activate(ctx, d)
		})
	}
	return errors.Join(primaryErr, group.Wait())
}

func (s *System) requireReady() error {
	if !s.initialized {
		return ErrNotReady
	}
	return nil
}

// primaryNamespace is the namespace the file helpers work in. A
// primary whose reinit failed has none until Exec brings it back.
func (s *System) primaryNamespace() (namespace.Namespace, error) {
	if err := s.requireReady(); err != nil {
		return nil, err
	}
	primary := s.primary()
	if primary.state != StateReady {
		return nil, fmt.Errorf("%w: primary tool %s is %s", ErrNotReady, primary.Tool, primary.state)
	}
	return primary.ns, nil
}

// Tools returns the status of every tool in configuration order.
func (s *System) Tools() []ToolStatus {
	s.mu.Lock()
	defer s.mu.Unlock()
	statuses := make([]ToolStatus, len(s.tools))
	for index, d := range s.tools {
		statuses[index] = d.status()
	}
	return statuses
}

// Root returns the root namespace, or nil before Init.
func (s *System) Root() namespace.Namespace {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.root
}

// Namespace returns the namespace of a ready tool.
func (s *System) Namespace(tool string) (namespace.Namespace, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, d := range s.tools {
		if d.Tool == tool && d.state == StateReady {
			return d.ns, true
		}
	}
	return nil, false
}
