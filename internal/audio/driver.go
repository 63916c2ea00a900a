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
	"log"
	"sync/atomic"

	"github.com/fadergrid/mixcore/internal/engine"
)

// Source fills buf with frames*channels interleaved input samples for one
// period. It runs on the driver goroutine under the same real-time rules
// as the chain: no allocation, no blocking.
type Source func(buf []float32, frames int)

// Silence is the source used when the graph has no upstream input.
func Silence(buf []float32, frames int) {
	for i := range buf {
		buf[i] = 0
	}
}

// Driver is the periodic invoker of the processing graph. Each period it
// pulls input from the source, folds it through the chain and hands the
// result to the output stream, whose blocking Write paces the loop.
//
// The period buffer is allocated once at construction and reused for
// every invocation; frame count never exceeds the chain's maximum.
type Driver struct {
	backend    Backend
	chain      *engine.Chain
	source     Source
	sampleRate float64

	buf      []float32
	stream   Stream
	stopping atomic.Bool
	done     chan struct{}
}

// NewDriver creates a driver over the given backend and chain. The buffer
// geometry comes from the chain; source may be nil for silence.
func NewDriver(backend Backend, chain *engine.Chain, source Source, sampleRate float64) *Driver {
	if source == nil {
		source = Silence
	}
	return &Driver{
		backend:    backend,
		chain:      chain,
		source:     source,
		sampleRate: sampleRate,
		buf:        make([]float32, chain.MaxFrames()*chain.Channels()),
	}
}

// Start opens the output stream and begins pumping the chain.
func (d *Driver) Start() error {
	if d.stream != nil {
		return fmt.Errorf("driver already started")
	}

	stream, err := d.backend.CreateOutputStream(d.sampleRate, d.chain.Channels(), d.chain.MaxFrames())
	if err != nil {
		return fmt.Errorf("failed to create output stream: %w", err)
	}
	if err := stream.Start(); err != nil {
		_ = stream.Close()
		return fmt.Errorf("failed to start output stream: %w", err)
	}

	d.stream = stream
	d.stopping.Store(false)
	d.done = make(chan struct{})
	go d.run()

	log.Printf("🔊 driver: started (%.0f Hz, %d ch, %d frames)",
		d.sampleRate, d.chain.Channels(), d.chain.MaxFrames())
	return nil
}

func (d *Driver) run() {
	defer close(d.done)

	frames := d.chain.MaxFrames()
	for !d.stopping.Load() {
		d.source(d.buf, frames)
		out := d.chain.Process(d.buf, frames)
		if err := d.stream.Write(out); err != nil {
			if !d.stopping.Load() {
				log.Printf("⚠️ driver: output write failed, stopping: %v", err)
			}
			return
		}
	}
}

// Stop halts the pump loop, joins it and closes the stream. No-op if the
// driver never started.
func (d *Driver) Stop() error {
	if d.stream == nil {
		return nil
	}

	d.stopping.Store(true)
	<-d.done

	err := d.stream.Stop()
	if cerr := d.stream.Close(); err == nil {
		err = cerr
	}
	d.stream = nil

	log.Printf("🔊 driver: stopped")
	return err
}
