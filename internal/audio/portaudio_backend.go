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

	"github.com/gordonklaus/portaudio"
)

// PortAudioBackend implements Backend using the real PortAudio library
type PortAudioBackend struct {
	initialized bool
}

// NewPortAudioBackend creates a new PortAudio backend
func NewPortAudioBackend() *PortAudioBackend {
	return &PortAudioBackend{}
}

// Initialize initializes the PortAudio subsystem
func (p *PortAudioBackend) Initialize() error {
	if p.initialized {
		return nil
	}

	if err := portaudio.Initialize(); err != nil {
		return fmt.Errorf("failed to initialize PortAudio: %w", err)
	}

	p.initialized = true
	return nil
}

// Terminate terminates the PortAudio subsystem
func (p *PortAudioBackend) Terminate() error {
	if !p.initialized {
		return nil
	}

	err := portaudio.Terminate()
	p.initialized = false
	return err
}

// CreateOutputStream creates an output stream for playback
func (p *PortAudioBackend) CreateOutputStream(sampleRate float64, channels, framesPerBuffer int) (Stream, error) {
	if !p.initialized {
		return nil, fmt.Errorf("PortAudio not initialized")
	}

	outputBuffer := make([]float32, framesPerBuffer*channels)

	stream, err := portaudio.OpenDefaultStream(
		0,        // input channels (none for output stream)
		channels, // output channels
		sampleRate,
		framesPerBuffer,
		outputBuffer,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to open output stream: %w", err)
	}

	return &PortAudioStream{
		stream:       stream,
		outputBuffer: outputBuffer,
	}, nil
}

// PortAudioStream implements Stream using PortAudio's blocking write API
type PortAudioStream struct {
	stream       *portaudio.Stream
	outputBuffer []float32
}

// Start starts the audio stream
func (p *PortAudioStream) Start() error {
	if p.stream == nil {
		return fmt.Errorf("stream is nil")
	}
	return p.stream.Start()
}

// Stop stops the audio stream
func (p *PortAudioStream) Stop() error {
	if p.stream == nil {
		return fmt.Errorf("stream is nil")
	}
	return p.stream.Stop()
}

// Close closes the audio stream
func (p *PortAudioStream) Close() error {
	if p.stream == nil {
		return fmt.Errorf("stream is nil")
	}
	return p.stream.Close()
}

// Write writes one period of interleaved samples to the device
func (p *PortAudioStream) Write(buf []float32) error {
	if p.stream == nil {
		return fmt.Errorf("stream is nil")
	}

	copy(p.outputBuffer, buf)
	return p.stream.Write()
}
