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

// Package device manages connections to physical control surfaces. Each
// session owns one background goroutine that blocks on device reads and
// republishes decoded control events into the shared control registry;
// the audio graph and the UI consume the same registry entries. Sessions
// and the audio path share no locks.
package device

import "errors"

// State is the lifecycle state of a device session. Transitions go
// Closed → Opening → Running → Stopping → Closed; Closed is both initial
// and terminal.
type State int32

const (
	Closed State = iota
	Opening
	Running
	Stopping
)

func (s State) String() string {
	switch s {
	case Closed:
		return "closed"
	case Opening:
		return "opening"
	case Running:
		return "running"
	case Stopping:
		return "stopping"
	default:
		return "unknown"
	}
}

// ErrDeviceUnavailable is returned by Open when the device identifier
// cannot be resolved or the handle cannot be acquired (missing hardware,
// busy, permission denied). The session stays Closed.
var ErrDeviceUnavailable = errors.New("device unavailable")

// Session is one lifecycle-managed connection to a physical control
// surface. Open, Start, Stop and Close must be serialized by the owning
// application goroutine; the background reader is internal to the session.
//
// Stop joins the reader goroutine before returning, so once it returns no
// further registry writes can come from this session. Stop and Close are
// no-ops on a Closed session.
type Session interface {
	Open(identifier string) error
	Start() error
	Stop() error
	Close() error
	State() State
}

// StatusReporter receives exactly one notification per terminal session
// failure. Read errors inside the background loop have no synchronous
// caller to report to, so they surface here instead of as a return value.
type StatusReporter interface {
	DeviceFailed(deviceID string, err error)
}

// EventSink optionally observes every decoded control event, after it has
// been written to the registry. Called on the device goroutine, which may
// block; implementations must not be shared with the audio path.
type EventSink interface {
	ControlChanged(group, name string, value float64)
}
