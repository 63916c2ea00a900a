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

	"github.com/fadergrid/mixcore/internal/control"
)

const (
	midiStatusNoteOff         = 0x80
	midiStatusNoteOn          = 0x90
	midiStatusPolyAftertouch  = 0xa0
	midiStatusControlChange   = 0xb0
	midiStatusProgramChange   = 0xc0
	midiStatusChannelPressure = 0xd0
	midiStatusPitchBend       = 0xe0

	midiStatusCodeMask = 0xf0
	midiChannelMask    = 0x0f

	midiSystemCommonFloor = 0xf0
	midiRealTimeFloor     = 0xf8

	pitchBendCenter = 0x2000
)

// Decoder converts a raw MIDI byte stream into control registry writes.
// It is incremental: messages may arrive split across reads, and running
// status is honored. Registry names derive from the event's channel and
// logical control index:
//
//	control change   ch<N>.cc<controller>
//	note on/off      ch<N>.note<key>
//	channel pressure ch<N>.pressure
//	pitch bend       ch<N>.pitch
//
// 7-bit values map to [0,1] with 64 landing exactly on 0.5; pitch bend
// maps to [-1,1] with 0x2000 on 0.
type Decoder struct {
	registry *control.Registry
	group    string
	sink     EventSink

	running byte
	data    [2]byte
	have    int
}

// NewDecoder creates a decoder writing under the given registry group.
// sink may be nil.
func NewDecoder(reg *control.Registry, group string, sink EventSink) *Decoder {
	return &Decoder{
		registry: reg,
		group:    group,
		sink:     sink,
	}
}

// Feed consumes one chunk of raw device bytes, emitting zero or more
// registry writes.
func (d *Decoder) Feed(raw []byte) {
	for _, b := range raw {
		switch {
		case b >= midiRealTimeFloor:
			// System real-time bytes may interleave anywhere and must not
			// disturb decoder state.
		case b >= midiSystemCommonFloor:
			// System common (incl. sysex) cancels running status; payload
			// bytes get dropped below until the next voice status.
			d.running = 0
			d.have = 0
		case b >= 0x80:
			d.running = b
			d.have = 0
		default:
			if d.running == 0 {
				continue
			}
			d.data[d.have] = b
			d.have++
			if d.have == voiceDataBytes(d.running) {
				d.emit()
				d.have = 0
			}
		}
	}
}

func voiceDataBytes(status byte) int {
	switch status & midiStatusCodeMask {
	case midiStatusProgramChange, midiStatusChannelPressure:
		return 1
	default:
		return 2
	}
}

func (d *Decoder) emit() {
	ch := int(d.running&midiChannelMask) + 1

	var name string
	var value float64
	switch d.running & midiStatusCodeMask {
	case midiStatusControlChange:
		name = fmt.Sprintf("ch%d.cc%d", ch, d.data[0])
		value = normalize7(d.data[1])
	case midiStatusNoteOn:
		name = fmt.Sprintf("ch%d.note%d", ch, d.data[0])
		// Velocity 0 is a note off by convention.
		value = normalize7(d.data[1])
	case midiStatusNoteOff:
		name = fmt.Sprintf("ch%d.note%d", ch, d.data[0])
		value = 0
	case midiStatusChannelPressure:
		name = fmt.Sprintf("ch%d.pressure", ch)
		value = normalize7(d.data[0])
	case midiStatusPitchBend:
		name = fmt.Sprintf("ch%d.pitch", ch)
		raw := int(d.data[1])<<7 | int(d.data[0])
		value = float64(raw-pitchBendCenter) / float64(pitchBendCenter)
	default:
		// Program change and poly aftertouch carry no continuous control.
		return
	}

	d.registry.Set(d.group, name, value)
	if d.sink != nil {
		d.sink.ControlChanged(d.group, name, value)
	}
}

// normalize7 maps a 7-bit controller value onto [0,1] such that the
// hardware midpoint 64 reads exactly 0.5 and the endpoints are exact.
func normalize7(v byte) float64 {
	switch {
	case v == 0:
		return 0
	case v == 64:
		return 0.5
	case v == 127:
		return 1
	case v < 64:
		return float64(v) / 128
	default:
		return float64(v-1) / 126
	}
}
