// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

// Package hwcaps answers the two capability questions that select a
// tool build: does the host support wide-vector (SIMD) instructions,
// and can it run multi-threaded builds. Each answer is computed once
// per [Host] and cached.
package hwcaps

import (
	"runtime"
	"sync"

	"golang.org/x/sys/cpu"
)

// Detector reports host capabilities.
type Detector interface {
	WideVector() bool
	Threads() bool
}

// Host detects capabilities of the machine the process runs on.
type Host struct {
	wideVector func() bool
	threads    func() bool
}

// NewHost returns a detector for the current machine.
func NewHost() *Host {
	return &Host{
		wideVector: sync.OnceValue(detectWideVector),
		threads:    sync.OnceValue(detectThreads),
	}
}

var defaultHost = sync.OnceValue(NewHost)

// Default returns the process-wide Host, so every caller shares one
// detection result.
func Default() *Host { return defaultHost() }

// WideVector reports 128-bit vector support: SSE4.1 on amd64, Advanced
// SIMD on arm64.
func (h *Host) WideVector() bool { return h.wideVector() }

// Threads reports whether more than one CPU is available to the
// process.
func (h *Host) Threads() bool { return h.threads() }

func detectWideVector() bool {
	switch runtime.GOARCH {
	case "amd64", "386":
		return cpu.X86.HasSSE41
	case "arm64":
		return cpu.ARM64.HasASIMD
	default:
		return false
	}
}

func detectThreads() bool {
	return runtime.GOMAXPROCS(0) > 1
}

// Static is a Detector with fixed answers.
type Static struct {
	SIMD        bool
	Concurrency bool
}

func (s Static) WideVector() bool { return s.SIMD }
func (s Static) Threads() bool    { return s.Concurrency }

// Counting wraps a Detector and records how often each question was
// asked.
type Counting struct {
	Detector Detector

	mu                 sync.Mutex
	wideVector, thread int
}

func (c *Counting) WideVector() bool {
	c.mu.Lock()
	c.wideVector++
	c.mu.Unlock()
	return c.Detector.WideVector()
}

func (c *Counting) Threads() bool {
	c.mu.Lock()
	c.thread++
	c.mu.Unlock()
	return c.Detector.Threads()
}

// Counts returns the number of WideVector and Threads queries.
func (c *Counting) Counts() (wideVector, threads int) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.wideVector, c.thread
}
