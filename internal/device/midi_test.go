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
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/fadergrid/mixcore/internal/control"
)

type recordedEvent struct {
	group, name string
	value       float64
}

type recordingSink struct {
	mu     sync.Mutex
	events []recordedEvent
}

func (r *recordingSink) ControlChanged(group, name string, value float64) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, recordedEvent{group, name, value})
}

func (r *recordingSink) all() []recordedEvent {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]recordedEvent(nil), r.events...)
}

func TestDecoderVoiceMessages(t *testing.T) {
	tests := []struct {
		name  string
		raw   []byte
		key   string
		value float64
	}{
		{"control_change", []byte{0xb0, 7, 127}, "ch1.cc7", 1.0},
		{"control_change_midpoint", []byte{0xb0, 7, 64}, "ch1.cc7", 0.5},
		{"control_change_channel", []byte{0xb9, 20, 0}, "ch10.cc20", 0.0},
		{"note_on", []byte{0x90, 60, 127}, "ch1.note60", 1.0},
		{"note_on_velocity_zero_is_off", []byte{0x90, 60, 0}, "ch1.note60", 0.0},
		{"note_off", []byte{0x80, 60, 100}, "ch1.note60", 0.0},
		{"channel_pressure", []byte{0xd0, 64}, "ch1.pressure", 0.5},
		{"pitch_bend_center", []byte{0xe0, 0x00, 0x40}, "ch1.pitch", 0.0},
		{"pitch_bend_min", []byte{0xe0, 0x00, 0x00}, "ch1.pitch", -1.0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			reg := control.NewRegistry()
			dec := NewDecoder(reg, "[midi00]", nil)
			dec.Feed(tt.raw)
			assert.Equal(t, tt.value, reg.Get("[midi00]", tt.key))
		})
	}
}

func TestDecoderRunningStatus(t *testing.T) {
	reg := control.NewRegistry()
	sink := &recordingSink{}
	dec := NewDecoder(reg, "[midi00]", sink)

	// One status byte, two CC messages.
	dec.Feed([]byte{0xb0, 7, 127, 8, 64})

	assert.Equal(t, 1.0, reg.Get("[midi00]", "ch1.cc7"))
	assert.Equal(t, 0.5, reg.Get("[midi00]", "ch1.cc8"))
	assert.Len(t, sink.all(), 2)
}

func TestDecoderMessageSplitAcrossReads(t *testing.T) {
	reg := control.NewRegistry()
	dec := NewDecoder(reg, "[midi00]", nil)

	dec.Feed([]byte{0xb0})
	dec.Feed([]byte{7})
	assert.Equal(t, 0.0, reg.Get("[midi00]", "ch1.cc7"), "incomplete message must not emit")
	dec.Feed([]byte{127})
	assert.Equal(t, 1.0, reg.Get("[midi00]", "ch1.cc7"))
}

func TestDecoderRealTimeBytesDoNotDisturbState(t *testing.T) {
	reg := control.NewRegistry()
	dec := NewDecoder(reg, "[midi00]", nil)

	// Clock (0xf8) interleaved mid-message.
	dec.Feed([]byte{0xb0, 0xf8, 7, 0xfe, 127})
	assert.Equal(t, 1.0, reg.Get("[midi00]", "ch1.cc7"))
}

func TestDecoderSysexCancelsRunningStatus(t *testing.T) {
	reg := control.NewRegistry()
	sink := &recordingSink{}
	dec := NewDecoder(reg, "[midi00]", sink)

	// Sysex payload bytes must not be decoded as CC data for the stale
	// running status.
	dec.Feed([]byte{0xb0, 7, 127})
	dec.Feed([]byte{0xf0, 0x7e, 0x01, 0xf7})
	dec.Feed([]byte{12, 99})

	assert.Len(t, sink.all(), 1, "orphan data bytes after sysex must be dropped")
}

func TestDecoderStrayDataBytesIgnored(t *testing.T) {
	reg := control.NewRegistry()
	sink := &recordingSink{}
	dec := NewDecoder(reg, "[midi00]", sink)

	dec.Feed([]byte{12, 34, 56})
	assert.Empty(t, sink.all())
}

func TestDecoderProgramChangeIgnoredButConsumed(t *testing.T) {
	reg := control.NewRegistry()
	sink := &recordingSink{}
	dec := NewDecoder(reg, "[midi00]", sink)

	// Program change is one data byte; the CC after it must decode cleanly.
	dec.Feed([]byte{0xc0, 5, 0xb0, 7, 64})

	events := sink.all()
	assert.Len(t, events, 1)
	assert.Equal(t, recordedEvent{"[midi00]", "ch1.cc7", 0.5}, events[0])
}

func TestNormalize7Mapping(t *testing.T) {
	tests := []struct {
		in   byte
		want float64
	}{
		{0, 0},
		{32, 0.25},
		{64, 0.5},
		{127, 1},
		{96, float64(95) / 126},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, normalize7(tt.in), "normalize7(%d)", tt.in)
	}
}
