// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package namespace

import (
	"bytes"
	"sync"
)

// Standard stream descriptors.
const (
	Stdout = 1
	Stderr = 2
)

// Stream is a line-buffered output stream. Complete lines are handed
// to the sink without their trailing newline as soon as they are
// written; a trailing partial line waits for the next newline or for
// Close.
type Stream struct {
	mu     sync.Mutex
	sink   func(line string)
	buffer []byte
	open   bool
}

func newStream(sink func(string)) *Stream {
	return &Stream{sink: sink, open: true}
}

// Write buffers p and emits every complete line.
func (s *Stream) Write(p []byte) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.open {
		return 0, ErrBadStream
	}
	s.buffer = append(s.buffer, p...)
	for {
		i := bytes.IndexByte(s.buffer, '\n')
		if i < 0 {
			break
		}
		s.emit(string(s.buffer[:i]))
		s.buffer = s.buffer[i+1:]
	}
	return len(p), nil
}

// Pending returns the buffered partial line.
func (s *Stream) Pending() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return string(s.buffer)
}

func (s *Stream) close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.open {
		return ErrBadStream
	}
	if len(s.buffer) > 0 {
		s.emit(string(s.buffer))
		s.buffer = nil
	}
	s.open = false
	return nil
}

func (s *Stream) reopen() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.open = true
	s.buffer = nil
}

func (s *Stream) setSink(sink func(string)) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.sink = sink
}

// emit delivers one line. Callers hold s.mu.
func (s *Stream) emit(line string) {
	if s.sink != nil {
		s.sink(line)
	}
}
