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

package control

import (
	"math"
	"sync"
	"sync/atomic"
)

// Key identifies a control value by its (group, name) pair, e.g.
// ("[Master]", "clipping") or ("[midi]", "ch1.cc7").
type Key struct {
	Group string
	Name  string
}

// ControlValue is a single named float64 shared between the audio callback,
// device reader goroutines and the UI. Reads and writes are atomic,
// last-write-wins; there is no ordering guarantee across distinct values.
//
// Each value has one logical writer at a time by convention. The registry
// does not enforce this.
type ControlValue struct {
	key  Key
	bits atomic.Uint64
}

// Get returns the current value. Safe from any goroutine, never blocks.
func (cv *ControlValue) Get() float64 {
	return math.Float64frombits(cv.bits.Load())
}

// Set stores a new value. Safe from any goroutine, never blocks.
func (cv *ControlValue) Set(v float64) {
	cv.bits.Store(math.Float64bits(v))
}

// Group returns the group half of the value's key.
func (cv *ControlValue) Group() string { return cv.key.Group }

// Name returns the name half of the value's key.
func (cv *ControlValue) Name() string { return cv.key.Name }

// Registry is the process-wide control value store bridging hardware
// sessions, the audio graph and the UI. Values register lazily on first
// access, initialized to 0, and live for the process lifetime.
//
// Resolve does a map lookup, so callers on the audio callback must resolve
// their handles at construction time and hold the *ControlValue; Get and
// Set on a resolved handle are a single atomic load/store.
type Registry struct {
	values sync.Map // Key -> *ControlValue
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{}
}

// Resolve returns the ControlValue for (group, name), registering it on
// first use.
func (r *Registry) Resolve(group, name string) *ControlValue {
	key := Key{Group: group, Name: name}
	if v, ok := r.values.Load(key); ok {
		return v.(*ControlValue)
	}
	v, _ := r.values.LoadOrStore(key, &ControlValue{key: key})
	return v.(*ControlValue)
}

// Get returns the current value for (group, name), 0 if never written.
func (r *Registry) Get(group, name string) float64 {
	return r.Resolve(group, name).Get()
}

// Set stores value under (group, name).
func (r *Registry) Set(group, name string, value float64) {
	r.Resolve(group, name).Set(value)
}

// Range calls fn for every registered value until fn returns false.
// Intended for diagnostics and UI enumeration, not the audio path.
func (r *Registry) Range(fn func(cv *ControlValue) bool) {
	r.values.Range(func(_, v any) bool {
		return fn(v.(*ControlValue))
	})
}
