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

// Package nats bridges the control registry onto NATS. Remote peers (the
// UI, other machines) write controls by publishing to the set subject;
// hardware control moves mirror outward as binary control-event frames,
// and terminal device failures surface as status messages. The bridge
// never runs on the audio callback; it talks to the registry the same way
// a device session does.
package nats

import (
	"encoding/json"
	"fmt"
	"log"
	"sync/atomic"
	"time"

	"github.com/nats-io/nats.go"

	"github.com/fadergrid/mixcore/internal/control"
	"github.com/fadergrid/mixcore/internal/transport"
)

const (
	// SubjectControlSet carries JSON ControlSetMessage payloads inbound.
	SubjectControlSet = "mixcore.control.set"

	// SubjectControlEvents carries binary control-event frames outbound.
	SubjectControlEvents = "mixcore.control.events"

	// SubjectDeviceStatus carries JSON DeviceStatusMessage payloads
	// outbound, one per terminal session failure.
	SubjectDeviceStatus = "mixcore.device.status"
)

// ControlSetMessage is a remote write into the control registry.
type ControlSetMessage struct {
	Group string  `json:"group"`
	Name  string  `json:"name"`
	Value float64 `json:"value"`
}

// DeviceStatusMessage reports a terminal device session failure.
type DeviceStatusMessage struct {
	DeviceID string `json:"device_id"`
	Error    string `json:"error"`
	Time     int64  `json:"time"` // unix microseconds
}

// Connection is the subset of *nats.Conn the bridge uses, for dependency
// injection.
type Connection interface {
	Subscribe(subject string, cb nats.MsgHandler) (*nats.Subscription, error)
	Publish(subject string, data []byte) error
	Close()
}

// ConnAdapter adapts *nats.Conn to the Connection interface.
type ConnAdapter struct {
	conn *nats.Conn
}

func NewConnAdapter(conn *nats.Conn) *ConnAdapter {
	return &ConnAdapter{conn: conn}
}

func (a *ConnAdapter) Subscribe(subject string, cb nats.MsgHandler) (*nats.Subscription, error) {
	return a.conn.Subscribe(subject, cb)
}

func (a *ConnAdapter) Publish(subject string, data []byte) error {
	return a.conn.Publish(subject, data)
}

func (a *ConnAdapter) Close() {
	a.conn.Close()
}

// ControlBridge connects the registry to NATS. It satisfies the device
// package's EventSink and StatusReporter contracts, so a session wired
// with the bridge mirrors hardware moves and failures to remote peers.
type ControlBridge struct {
	conn     Connection
	registry *control.Registry
	sequence atomic.Uint32
}

// NewControlBridge connects to NATS with retry and returns a bridge over
// the registry.
func NewControlBridge(natsURL string, registry *control.Registry) (*ControlBridge, error) {
	var nc *nats.Conn
	var err error

	for i := 0; i < 5; i++ {
		nc, err = nats.Connect(natsURL)
		if err == nil {
			break
		}
		log.Printf("⚠️ failed to connect to NATS (attempt %d/5): %v", i+1, err)
		time.Sleep(2 * time.Second)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to connect to NATS after 5 attempts: %w", err)
	}

	log.Printf("✅ connected to NATS at %s", natsURL)
	return NewControlBridgeWithConnection(NewConnAdapter(nc), registry), nil
}

// NewControlBridgeWithConnection creates a bridge over an existing
// connection (for testing).
func NewControlBridgeWithConnection(conn Connection, registry *control.Registry) *ControlBridge {
	return &ControlBridge{
		conn:     conn,
		registry: registry,
	}
}

// Start subscribes to the inbound control subject.
func (b *ControlBridge) Start() error {
	if _, err := b.conn.Subscribe(SubjectControlSet, b.handleControlSet); err != nil {
		return fmt.Errorf("failed to subscribe to %s: %w", SubjectControlSet, err)
	}
	log.Printf("🎚️ control bridge listening on %s", SubjectControlSet)
	return nil
}

func (b *ControlBridge) handleControlSet(msg *nats.Msg) {
	var set ControlSetMessage
	if err := json.Unmarshal(msg.Data, &set); err != nil {
		log.Printf("❌ failed to unmarshal control set message: %v", err)
		return
	}
	if set.Group == "" || set.Name == "" {
		log.Printf("❌ control set message missing group or name")
		return
	}
	b.registry.Set(set.Group, set.Name, set.Value)
}

// ControlChanged mirrors one hardware control event outward as a binary
// frame. Called on a device session's reader goroutine.
func (b *ControlBridge) ControlChanged(group, name string, value float64) {
	event := transport.NewControlChange(b.sequence.Add(1), group, name, value)
	frame, err := event.Encode()
	if err != nil {
		log.Printf("❌ failed to encode control event %s %s: %v", group, name, err)
		return
	}
	if err := b.conn.Publish(SubjectControlEvents, frame); err != nil {
		log.Printf("⚠️ failed to publish control event: %v", err)
	}
}

// DeviceFailed publishes one status message for a terminal session
// failure.
func (b *ControlBridge) DeviceFailed(deviceID string, err error) {
	payload, merr := json.Marshal(DeviceStatusMessage{
		DeviceID: deviceID,
		Error:    err.Error(),
		Time:     time.Now().UnixMicro(),
	})
	if merr != nil {
		log.Printf("❌ failed to marshal device status: %v", merr)
		return
	}
	if perr := b.conn.Publish(SubjectDeviceStatus, payload); perr != nil {
		log.Printf("⚠️ failed to publish device status: %v", perr)
	}
}

// Close closes the NATS connection.
func (b *ControlBridge) Close() {
	if b.conn != nil {
		b.conn.Close()
		log.Println("🔌 NATS connection closed")
	}
}
