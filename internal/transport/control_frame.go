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

// Package transport defines the compact binary frame carrying control
// events between mixcore and remote consumers. Control surfaces emit
// hundreds of events per second while a fader moves; the fixed layout
// keeps the per-event cost flat for subscribers that cannot afford JSON.
package transport

import (
	"encoding/binary"
	"fmt"
	"math"
	"time"
)

// EventType represents the type of control event being transmitted
type EventType uint8

const (
	EventControlChange EventType = 0x01
	EventDeviceStatus  EventType = 0x02
)

const (
	// Magic number for frame validation, "MXFR" in big-endian
	FrameMagic = 0x4d584652

	// HeaderSize is the fixed frame header size:
	// magic(4) type(1) reserved(1) groupLen(1) nameLen(1) seq(4) timestamp(8)
	HeaderSize = 20

	// ValueSize is the float64 payload after group and name
	ValueSize = 8

	// MaxFrameSize caps a whole frame; registry keys are short strings
	MaxFrameSize = 512

	// MaxKeyLen bounds group and name, each length-prefixed with one byte
	MaxKeyLen = 255
)

// ControlEvent is one decoded control-event frame.
type ControlEvent struct {
	Type      EventType
	Sequence  uint32
	Timestamp uint64 // unix microseconds
	Group     string
	Name      string
	Value     float64
}

// NewControlChange builds a control-change event stamped with the current
// time.
func NewControlChange(sequence uint32, group, name string, value float64) *ControlEvent {
	return &ControlEvent{
		Type:      EventControlChange,
		Sequence:  sequence,
		Timestamp: uint64(time.Now().UnixMicro()),
		Group:     group,
		Name:      name,
		Value:     value,
	}
}

// NewDeviceStatus builds a device-status event; group carries the device
// identifier and name the failure description.
func NewDeviceStatus(sequence uint32, deviceID, detail string, value float64) *ControlEvent {
	return &ControlEvent{
		Type:      EventDeviceStatus,
		Sequence:  sequence,
		Timestamp: uint64(time.Now().UnixMicro()),
		Group:     deviceID,
		Name:      detail,
		Value:     value,
	}
}

// Validate checks the event against protocol constraints.
func (e *ControlEvent) Validate() error {
	if e.Type != EventControlChange && e.Type != EventDeviceStatus {
		return fmt.Errorf("invalid event type: 0x%02x", uint8(e.Type))
	}
	if len(e.Group) == 0 {
		return fmt.Errorf("empty group")
	}
	if len(e.Group) > MaxKeyLen {
		return fmt.Errorf("group too long: %d bytes (max %d)", len(e.Group), MaxKeyLen)
	}
	if len(e.Name) > MaxKeyLen {
		return fmt.Errorf("name too long: %d bytes (max %d)", len(e.Name), MaxKeyLen)
	}
	if HeaderSize+len(e.Group)+len(e.Name)+ValueSize > MaxFrameSize {
		return fmt.Errorf("frame exceeds max size %d", MaxFrameSize)
	}
	return nil
}

// Encode serializes the event into a frame.
func (e *ControlEvent) Encode() ([]byte, error) {
	if err := e.Validate(); err != nil {
		return nil, fmt.Errorf("invalid control event: %w", err)
	}

	frame := make([]byte, HeaderSize+len(e.Group)+len(e.Name)+ValueSize)
	binary.BigEndian.PutUint32(frame[0:4], FrameMagic)
	frame[4] = uint8(e.Type)
	frame[5] = 0 // reserved
	frame[6] = uint8(len(e.Group))
	frame[7] = uint8(len(e.Name))
	binary.BigEndian.PutUint32(frame[8:12], e.Sequence)
	binary.BigEndian.PutUint64(frame[12:20], e.Timestamp)

	off := HeaderSize
	off += copy(frame[off:], e.Group)
	off += copy(frame[off:], e.Name)
	binary.BigEndian.PutUint64(frame[off:], math.Float64bits(e.Value))

	return frame, nil
}

// DecodeControlEvent parses and validates one frame.
func DecodeControlEvent(data []byte) (*ControlEvent, error) {
	if len(data) < HeaderSize+ValueSize {
		return nil, fmt.Errorf("frame too short: %d bytes", len(data))
	}
	if len(data) > MaxFrameSize {
		return nil, fmt.Errorf("frame exceeds max size %d", MaxFrameSize)
	}
	if magic := binary.BigEndian.Uint32(data[0:4]); magic != FrameMagic {
		return nil, fmt.Errorf("invalid frame magic: 0x%08x", magic)
	}

	groupLen := int(data[6])
	nameLen := int(data[7])
	want := HeaderSize + groupLen + nameLen + ValueSize
	if len(data) != want {
		return nil, fmt.Errorf("frame length mismatch: got %d, want %d", len(data), want)
	}

	off := HeaderSize
	e := &ControlEvent{
		Type:      EventType(data[4]),
		Sequence:  binary.BigEndian.Uint32(data[8:12]),
		Timestamp: binary.BigEndian.Uint64(data[12:20]),
		Group:     string(data[off : off+groupLen]),
		Name:      string(data[off+groupLen : off+groupLen+nameLen]),
		Value:     math.Float64frombits(binary.BigEndian.Uint64(data[off+groupLen+nameLen:])),
	}
	if err := e.Validate(); err != nil {
		return nil, fmt.Errorf("invalid control event: %w", err)
	}
	return e, nil
}
