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

// Package engine contains the real-time processing graph: the Node contract
// every stage satisfies and the concrete stages built into mixcore.
//
// Everything in this package that runs on the audio callback obeys the
// real-time rules: no allocation, no blocking, no I/O, no error returns.
// Bad input is sanitized in place; the chain never halts mid-stream.
package engine

// Node is one stage of the processing graph.
//
// Process transforms exactly frames*channels interleaved samples, in place
// or into a scratch buffer owned by the node, and returns the resulting
// buffer. It must complete in time proportional to frames, must not
// allocate, and must not block on any lock a non-real-time goroutine could
// hold. frames never exceeds the maximum agreed at graph construction.
// The returned slice is only valid until the next Process call; no node
// may retain a reference to its input beyond the call.
//
// Notify informs the node that an upstream control changed. It runs on the
// audio callback too and obeys the same rules. Nodes with no reactive
// state ignore it.
type Node interface {
	Notify(value float64)
	Process(buf []float32, frames int) []float32
}

// Chain is an ordered sequence of nodes. The external audio driver invokes
// Process once per callback period; each node's output feeds the next
// node's input. The chain itself satisfies Node so graphs can nest.
type Chain struct {
	nodes     []Node
	channels  int
	maxFrames int
}

// NewChain builds a chain over the given nodes. channels and maxFrames fix
// the buffer geometry for the life of the graph.
func NewChain(channels, maxFrames int, nodes ...Node) *Chain {
	return &Chain{
		nodes:     nodes,
		channels:  channels,
		maxFrames: maxFrames,
	}
}

// Channels returns the interleaved channel count the chain was built for.
func (c *Chain) Channels() int { return c.channels }

// MaxFrames returns the per-period frame ceiling agreed at construction.
func (c *Chain) MaxFrames() int { return c.maxFrames }

// Process folds buf through every node in order and returns the final
// buffer. Runs on the audio callback.
func (c *Chain) Process(buf []float32, frames int) []float32 {
	for _, n := range c.nodes {
		buf = n.Process(buf, frames)
	}
	return buf
}

// Notify forwards a control change to every node.
func (c *Chain) Notify(value float64) {
	for _, n := range c.nodes {
		n.Notify(value)
	}
}
