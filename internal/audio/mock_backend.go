/*
 * This file is part of mixcore (https://github.com/fadergrid/mixcore).
 * Copyright (C) 2026 Fadergrid Audio
 *
 * This program is free software: you can redistribute it and/or modify
 * it under the terms of the GNU Affero General Public License as published by
 * the Free Software Foundation, either version 3 of the License, or
 * (at your option) any later version.
 *
 * This program is distributed in the hope that it will be useful,
 * but WITHOUT ANY WARRANTY; without even the implied warranty of
 * MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE. See the
 * GNU Affero General Public License for more details.
 *
 * You should have received a copy of the GNU Affero General Public License
 * along with this program. If not, see <https://www.gnu.org/licenses/>.
 */

package audio

import (
	"fmt"
	"sync"
)

// MockBackend implements Backend for testing without hardware dependencies
type MockBackend struct {
	mu                sync.Mutex
	initialized       bool
	initError         error
	createStreamError error
	streams           []*MockStream
}

// NewMockBackend creates a new mock audio backend
func NewMockBackend() *MockBackend {
	return &MockBackend{}
}

// SetInitError configures the backend to return an error on Initialize()
func (m *MockBackend) SetInitError(err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.initError = err
}

// SetCreateStreamError configures the backend to return an error on stream creation
func (m *MockBackend) SetCreateStreamError(err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.createStreamError = err
}

// Initialize initializes the mock audio subsystem
func (m *MockBackend) Initialize() error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.initError != nil {
		return m.initError
	}
	m.initialized = true
	return nil
}

// Terminate terminates the mock audio subsystem
func (m *MockBackend) Terminate() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.initialized = false
	return nil
}

// CreateOutputStream creates a mock output stream
func (m *MockBackend) CreateOutputStream(sampleRate float64, channels, framesPerBuffer int) (Stream, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if !m.initialized {
		return nil, fmt.Errorf("mock backend not initialized")
	}
	if m.createStreamError != nil {
		return nil, m.createStreamError
	}

	stream := &MockStream{
		channels:        channels,
		framesPerBuffer: framesPerBuffer,
	}
	m.streams = append(m.streams, stream)
	return stream, nil
}

// Streams returns every stream the backend has created
func (m *MockBackend) Streams() []*MockStream {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]*MockStream(nil), m.streams...)
}

// MockStream implements Stream, recording everything written to it
type MockStream struct {
	mu              sync.Mutex
	channels        int
	framesPerBuffer int
	started         bool
	closed          bool
	writeError      error
	written         [][]float32
}

// SetWriteError configures the stream to return an error on the next Write
func (s *MockStream) SetWriteError(err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.writeError = err
}

// Start starts the mock stream
func (s *MockStream) Start() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return fmt.Errorf("stream is closed")
	}
	s.started = true
	return nil
}

// Stop stops the mock stream
func (s *MockStream) Stop() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.started = false
	return nil
}

// Close closes the mock stream
func (s *MockStream) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.started = false
	s.closed = true
	return nil
}

// Write records a copy of the buffer
func (s *MockStream) Write(buf []float32) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.writeError != nil {
		err := s.writeError
		s.writeError = nil
		return err
	}
	if !s.started {
		return fmt.Errorf("stream not started")
	}

	cp := make([]float32, len(buf))
	copy(cp, buf)
	s.written = append(s.written, cp)
	return nil
}

// Written returns all buffers written so far
func (s *MockStream) Written() [][]float32 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([][]float32(nil), s.written...)
}

// IsStarted reports whether the stream is currently started
func (s *MockStream) IsStarted() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.started
}

// IsClosed reports whether the stream has been closed
func (s *MockStream) IsClosed() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.closed
}
