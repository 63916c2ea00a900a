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
	"fmt"
	"io"
	"log"
	"os"
	"path/filepath"
	"sync"
	"sync/atomic"

	"github.com/fadergrid/mixcore/internal/control"
)

// ossReadBufferSize is the fixed transfer unit for raw MIDI character
// devices; one blocking read fills at most this many bytes per iteration.
const ossReadBufferSize = 128

// DeviceHandle is the blocking-read primitive a session loops on. Close
// must unblock a Read in progress; *os.File does this through the runtime
// poller for character devices.
type DeviceHandle interface {
	io.ReadCloser
}

// HandleOpener resolves a device identifier to a handle. Injectable so
// tests run without hardware.
type HandleOpener func(identifier string) (DeviceHandle, error)

func openCharDevice(identifier string) (DeviceHandle, error) {
	return os.OpenFile(identifier, os.O_RDONLY, 0)
}

// OSSSession reads a raw MIDI character device (e.g. /dev/midi00). Decoded
// events land in the registry under the group "[<device base name>]"; the
// per-session "status" entry goes to 1.0 on a terminal read failure.
//
// Other backends may substitute event-driven reads as long as they keep
// the same state machine and registry-write behavior.
type OSSSession struct {
	registry   *control.Registry
	reporter   StatusReporter
	sink       EventSink
	openHandle HandleOpener

	mu       sync.Mutex // serializes lifecycle calls
	state    atomic.Int32
	stopping atomic.Bool
	done     chan struct{}

	id     string
	group  string
	handle DeviceHandle
	buf    []byte
	status *control.ControlValue
}

// NewOSSSession creates a session that opens real character devices.
func NewOSSSession(reg *control.Registry) *OSSSession {
	return NewOSSSessionWithOpener(reg, openCharDevice)
}

// NewOSSSessionWithOpener creates a session with an injected handle opener
// (for testing).
func NewOSSSessionWithOpener(reg *control.Registry, open HandleOpener) *OSSSession {
	return &OSSSession{
		registry:   reg,
		openHandle: open,
	}
}

// SetStatusReporter installs the out-of-band failure channel. Call before
// Start.
func (s *OSSSession) SetStatusReporter(r StatusReporter) {
	s.reporter = r
}

// SetEventSink installs an observer for decoded control events. Call
// before Start.
func (s *OSSSession) SetEventSink(sink EventSink) {
	s.sink = sink
}

// State returns the current lifecycle state.
func (s *OSSSession) State() State {
	return State(s.state.Load())
}

// Open acquires the device handle and allocates the read buffer,
// transitioning Closed → Opening. On failure the session stays Closed and
// the error wraps ErrDeviceUnavailable.
func (s *OSSSession) Open(identifier string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if st := s.State(); st != Closed {
		return fmt.Errorf("open %s: session is %s, want closed", identifier, st)
	}
	s.state.Store(int32(Opening))

	handle, err := s.openHandle(identifier)
	if err != nil {
		s.state.Store(int32(Closed))
		return fmt.Errorf("%w: %s: %v", ErrDeviceUnavailable, identifier, err)
	}

	s.id = identifier
	s.group = "[" + filepath.Base(identifier) + "]"
	s.handle = handle
	s.buf = make([]byte, ossReadBufferSize)
	s.status = s.registry.Resolve(s.group, "status")
	s.status.Set(0.0)

	log.Printf("🎛️ device %s: opened", s.id)
	return nil
}

// Start spawns the background reader, transitioning Opening → Running.
func (s *OSSSession) Start() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if st := s.State(); st != Opening {
		return fmt.Errorf("start %s: session is %s, want opening", s.id, st)
	}

	s.stopping.Store(false)
	s.done = make(chan struct{})
	s.state.Store(int32(Running))
	go s.readLoop()

	log.Printf("🎛️ device %s: reader started", s.id)
	return nil
}

// Stop signals the reader to exit, joins it, then releases the handle and
// buffer, ending at Closed. Safe from any state; a Closed session is a
// no-op.
func (s *OSSSession) Stop() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	switch s.State() {
	case Closed:
		return nil
	case Opening:
		// No reader yet; just release.
		s.release()
		s.state.Store(int32(Closed))
		return nil
	}

	s.stopping.Store(true)
	s.state.Store(int32(Stopping))
	if s.handle != nil {
		// Unblocks a Read in progress. Double close after a failed read
		// is harmless.
		_ = s.handle.Close()
	}
	<-s.done

	s.release()
	s.state.Store(int32(Closed))
	log.Printf("🎛️ device %s: stopped", s.id)
	return nil
}

// Close is the full-teardown alias: stop plus handle release.
func (s *OSSSession) Close() error {
	return s.Stop()
}

// release drops the handle and buffer. Caller holds mu and has joined the
// reader (or knows none is running).
func (s *OSSSession) release() {
	if s.handle != nil {
		_ = s.handle.Close()
		s.handle = nil
	}
	s.buf = nil
}

func (s *OSSSession) readLoop() {
	defer close(s.done)

	dec := NewDecoder(s.registry, s.group, s.sink)
	for {
		n, err := s.handle.Read(s.buf)
		if s.stopping.Load() {
			return
		}
		if err != nil || n == 0 {
			s.fail(err)
			return
		}
		dec.Feed(s.buf[:n])
	}
}

// fail handles a terminal read error: status signal fires exactly once,
// then the session self-transitions toward Closed. The owner finishes
// teardown with Stop or Close.
func (s *OSSSession) fail(err error) {
	if err == nil {
		err = io.EOF
	}
	log.Printf("⚠️ device %s: read failed, ending session: %v", s.id, err)
	s.status.Set(1.0)
	if s.reporter != nil {
		s.reporter.DeviceFailed(s.id, err)
	}
	s.state.Store(int32(Stopping))
}
