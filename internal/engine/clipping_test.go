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
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fadergrid/mixcore/internal/control"
)

func newTestClipping(t *testing.T) (*ClippingNode, *control.Registry) {
	t.Helper()
	reg := control.NewRegistry()
	return NewClippingNode(reg, "[Master]", 1), reg
}

func TestClippingClampBehavior(t *testing.T) {
	tests := []struct {
		name      string
		input     []float32
		want      []float32
		indicator float64
	}{
		{
			name:      "all_in_range_untouched",
			input:     []float32{0.0, 0.5, -0.5, 1.0, -1.0},
			want:      []float32{0.0, 0.5, -0.5, 1.0, -1.0},
			indicator: 0.0,
		},
		{
			name:      "positive_overshoot_clamps_to_ceiling",
			input:     []float32{1.5},
			want:      []float32{1.0},
			indicator: 1.0,
		},
		{
			name:      "negative_overshoot_preserves_sign",
			input:     []float32{-2.25},
			want:      []float32{-1.0},
			indicator: 1.0,
		},
		{
			name:      "mixed_buffer",
			input:     []float32{0.5, -1.5, 0.9, 1.2},
			want:      []float32{0.5, -1.0, 0.9, 1.0},
			indicator: 1.0,
		},
		{
			name:      "nan_sanitized_to_zero",
			input:     []float32{float32(math.NaN()), 0.3},
			want:      []float32{0.0, 0.3},
			indicator: 1.0,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			node, reg := newTestClipping(t)
			out := node.Process(tt.input, len(tt.input))
			assert.Equal(t, tt.want, out)
			assert.Equal(t, tt.indicator, reg.Get("[Master]", "clipping"))
		})
	}
}

func TestClippingReturnsSameBuffer(t *testing.T) {
	node, _ := newTestClipping(t)
	buf := []float32{0.5, -1.5}
	out := node.Process(buf, len(buf))
	require.Equal(t, &buf[0], &out[0], "clamping happens in place, no copy")
}

// The indicator reflects only the most recent invocation: clamp-then-clean
// must show 1.0 then 0.0.
func TestClippingIndicatorIsMemoryless(t *testing.T) {
	node, reg := newTestClipping(t)

	node.Process([]float32{0.5, -1.5, 0.9, 1.2}, 4)
	assert.Equal(t, 1.0, reg.Get("[Master]", "clipping"))

	node.Process([]float32{0.1, -0.2}, 2)
	assert.Equal(t, 0.0, reg.Get("[Master]", "clipping"))
}

func TestClippingLeavesFramesBeyondCountUntouched(t *testing.T) {
	node, _ := newTestClipping(t)
	buf := []float32{1.5, 1.5, 1.5, 1.5}
	node.Process(buf, 2)
	assert.Equal(t, []float32{1.0, 1.0, 1.5, 1.5}, buf)
}

func TestClippingInterleavedChannels(t *testing.T) {
	reg := control.NewRegistry()
	node := NewClippingNode(reg, "[Master]", 2)

	// 3 frames, 2 channels: all 6 samples scanned, the rest untouched.
	buf := []float32{0.5, -1.5, 0.9, 1.2, -0.1, 1.01, 9.0, 9.0}
	node.Process(buf, 3)
	assert.Equal(t, []float32{0.5, -1.0, 0.9, 1.0, -0.1, 1.0, 9.0, 9.0}, buf)
	assert.Equal(t, 1.0, reg.Get("[Master]", "clipping"))
}

func TestClippingProcessDoesNotAllocate(t *testing.T) {
	node, _ := newTestClipping(t)
	buf := make([]float32, 512)
	for i := range buf {
		buf[i] = 1.5
	}

	allocs := testing.AllocsPerRun(100, func() {
		node.Process(buf, len(buf))
	})
	assert.Zero(t, allocs, "Process must not allocate on the audio path")
}

func TestClippingNotifyIsNoop(t *testing.T) {
	node, reg := newTestClipping(t)
	node.Notify(0.7)
	assert.Equal(t, 0.0, reg.Get("[Master]", "clipping"))
}
