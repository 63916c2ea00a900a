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
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/fadergrid/mixcore/internal/control"
)

// gainNode scales every sample by a fixed factor, for chain-order tests.
type gainNode struct {
	gain     float32
	notified []float64
}

func (g *gainNode) Notify(v float64) { g.notified = append(g.notified, v) }

func (g *gainNode) Process(buf []float32, frames int) []float32 {
	for i := 0; i < frames; i++ {
		buf[i] *= g.gain
	}
	return buf
}

func TestChainProcessesNodesInOrder(t *testing.T) {
	reg := control.NewRegistry()
	boost := &gainNode{gain: 4}
	clip := NewClippingNode(reg, "[Master]", 1)
	chain := NewChain(1, 8, boost, clip)

	// Gain first, clipping last: 0.3*4 = 1.2 clamps, 0.1*4 = 0.4 passes.
	buf := []float32{0.3, 0.1}
	out := chain.Process(buf, 2)

	assert.Equal(t, []float32{1.0, 0.4}, out)
	assert.Equal(t, 1.0, reg.Get("[Master]", "clipping"))
}

func TestChainNotifyFansOut(t *testing.T) {
	a := &gainNode{gain: 1}
	b := &gainNode{gain: 1}
	chain := NewChain(1, 8, a, b)

	chain.Notify(0.5)
	chain.Notify(1.0)

	assert.Equal(t, []float64{0.5, 1.0}, a.notified)
	assert.Equal(t, []float64{0.5, 1.0}, b.notified)
}

func TestChainGeometry(t *testing.T) {
	chain := NewChain(2, 1024)
	assert.Equal(t, 2, chain.Channels())
	assert.Equal(t, 1024, chain.MaxFrames())

	// An empty chain passes the buffer through unchanged.
	buf := []float32{0.1, -0.2}
	out := chain.Process(buf, 1)
	assert.Equal(t, &buf[0], &out[0])
}
