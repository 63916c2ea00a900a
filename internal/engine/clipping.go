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

package engine

import (
	"github.com/fadergrid/mixcore/internal/control"
)

// ClippingCeiling is the representable amplitude limit in normalized units.
const ClippingCeiling float32 = 1.0

// ClippingNode clamps out-of-range samples to the ceiling and drives a
// "clipping" indicator control so the UI can light an over warning. It is
// typically the last stage before output.
//
// The indicator is memoryless: each Process call sets it to 1.0 if that
// call clamped at least one sample and back to 0.0 otherwise, so the
// warning extinguishes as soon as clean audio resumes.
type ClippingNode struct {
	bulb     *control.ControlValue
	channels int
}

// NewClippingNode creates a clipping stage for the given group. The
// indicator registers as (group, "clipping"). channels is the interleaved
// channel count of the buffers the node will see.
func NewClippingNode(reg *control.Registry, group string, channels int) *ClippingNode {
	return &ClippingNode{
		bulb:     reg.Resolve(group, "clipping"),
		channels: channels,
	}
}

// Notify is a no-op; no control affects clipping behavior.
func (n *ClippingNode) Notify(float64) {}

// Process clamps buf in place and returns it. Samples with magnitude above
// the ceiling clamp to sign(x)*ceiling; NaN sanitizes to 0. Samples beyond
// frames*channels are never touched.
func (n *ClippingNode) Process(buf []float32, frames int) []float32 {
	clipped := false
	samples := frames * n.channels
	for i := 0; i < samples; i++ {
		s := buf[i]
		switch {
		case s != s: // NaN
			buf[i] = 0
			clipped = true
		case s > ClippingCeiling:
			buf[i] = ClippingCeiling
			clipped = true
		case s < -ClippingCeiling:
			buf[i] = -ClippingCeiling
			clipped = true
		}
	}
	if clipped {
		n.bulb.Set(1.0)
	} else {
		n.bulb.Set(0.0)
	}
	return buf
}
