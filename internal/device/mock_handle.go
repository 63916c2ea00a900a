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

package device

import (
	"os"
	"sync"
)

// MockHandle implements DeviceHandle for hardware-independent tests. Read
// blocks like a real character device until bytes are queued, an error is
// injected, or the handle is closed.
type MockHandle struct {
	pending   chan []byte
	errs      chan error
	closed    chan struct{}
	closeOnce sync.Once

	mu         sync.Mutex
	closeCount int
}

// NewMockHandle creates an open mock device handle.
func NewMockHandle() *MockHandle {
	return &MockHandle{
		pending: make(chan []byte, 64),
		errs:    make(chan error, 4),
		closed:  make(chan struct{}),
	}
}

// QueueBytes makes the next Read return a copy of b. Queueing an empty
// slice produces a zero-byte read.
func (h *MockHandle) QueueBytes(b []byte) {
	cp := make([]byte, len(b))
	copy(cp, b)
	h.pending <- cp
}

// FailRead makes a pending or future Read return err.
func (h *MockHandle) FailRead(err error) {
	h.errs <- err
}

// Read blocks until data, an injected error, or Close.
func (h *MockHandle) Read(p []byte) (int, error) {
	select {
	case <-h.closed:
		return 0, os.ErrClosed
	default:
	}
	select {
	case b := <-h.pending:
		return copy(p, b), nil
	case err := <-h.errs:
		return 0, err
	case <-h.closed:
		return 0, os.ErrClosed
	}
}

// Close unblocks any Read in progress, like *os.File on a polled fd.
func (h *MockHandle) Close() error {
	h.mu.Lock()
	h.closeCount++
	h.mu.Unlock()
	h.closeOnce.Do(func() { close(h.closed) })
	return nil
}

// CloseCount reports how many times Close was called.
func (h *MockHandle) CloseCount() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.closeCount
}
