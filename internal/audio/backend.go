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

// Package audio drives the processing graph: it owns the periodic invoker
// that pumps the engine chain once per buffer period and hands the result
// to an output device. The device sits behind an interface so tests run
// without hardware.
package audio

// Backend provides an abstraction layer for the audio subsystem.
// This enables dependency injection and makes testing hardware-independent.
type Backend interface {
	// Initialize the audio subsystem
	Initialize() error

	// Terminate the audio subsystem
	Terminate() error

	// CreateOutputStream creates an output stream for playback
	CreateOutputStream(sampleRate float64, channels, framesPerBuffer int) (Stream, error)
}

// Stream abstracts one open audio output stream.
type Stream interface {
	// Start the audio stream
	Start() error

	// Stop the audio stream
	Stop() error

	// Close the audio stream and release resources
	Close() error

	// Write one period of interleaved samples; blocks until the device
	// has accepted them, pacing the caller to the callback period
	Write(buf []float32) error
}
