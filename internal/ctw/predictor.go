// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

// Package ctw implements a Context Tree Weighting predictor: an
// action-conditional binary sequence model supporting incremental
// learning, exact one-step rollback, and probabilistic sampling of
// future symbols. It is the Bayesian mixture model the agent package
// uses both to learn from real percepts and to simulate hypothetical
// ones during planning.
package ctw

import (
	"fmt"
	"math"

	"github.com/moridinamael/mc-aixi/internal/bitcodec"
	"github.com/moridinamael/mc-aixi/internal/rng"
)

// Predictor is a depth-bounded Context Tree Weighting model over a
// binary history.
//
// A Predictor is not safe for concurrent use; it is owned exclusively by
// a single agent and touched only from that agent's cycle loop, per the
// module's single-threaded cooperative scheduling model.
type Predictor struct {
	root    *node
	depth   int
	history []bitcodec.Symbol
	scratch []*node // length depth+1; scratch[0] is root, scratch[depth] the context leaf.
}

// NewPredictor constructs an empty predictor with the given maximum
// context depth. depth must be a positive integer (the CTW depth is a
// required, validated configuration value, not a runtime input).
func NewPredictor(depth int) (*Predictor, error) {
	if depth <= 0 {
		return nil, fmt.Errorf("ctw: depth must be > 0, got %d", depth)
	}
	return &Predictor{
		root:    newNode(),
		depth:   depth,
		history: make([]bitcodec.Symbol, 0, 256),
		scratch: make([]*node, depth+1),
	}, nil
}

// Depth returns the predictor's configured maximum context depth.
func (p *Predictor) Depth() int {
	return p.depth
}

// HistorySize returns the number of symbols recorded in history.
func (p *Predictor) HistorySize() int {
	return len(p.history)
}

// Size returns the number of nodes currently allocated in the tree.
func (p *Predictor) Size() int {
	return p.root.size()
}

// LogBlockProbability returns the log of the CTW-weighted probability of
// the entire history observed so far.
func (p *Predictor) LogBlockProbability() float64 {
	return p.root.logProb
}

// Clear resets the tree and history to their just-constructed state.
func (p *Predictor) Clear() {
	p.root = newNode()
	p.history = p.history[:0]
}

// walkContext fills scratch[0..depth] with the nodes on the current
// context path, computed from the depth most recent history symbols
// (most recent first). When create is true, missing children are
// allocated as the walk descends, as happens during a learning update;
// when false (during revert) the path is assumed already present,
// since revert always follows a matching prior update.
func (p *Predictor) walkContext(create bool) {
	n := p.root
	p.scratch[0] = n
	h := len(p.history)
	for i := 0; i < p.depth; i++ {
		s := p.history[h-1-i]
		c := n.child[s]
		if c == nil {
			if !create {
				panic("ctw: revert walked into a missing context node")
			}
			c = newNode()
			n.child[s] = c
		}
		p.scratch[i+1] = c
		n = c
	}
}

// Update folds a single observed symbol into the tree (if the history is
// already at least depth symbols long) and appends it to history.
func (p *Predictor) Update(s bitcodec.Symbol) {
	if len(p.history) >= p.depth {
		p.walkContext(true)
		for i := p.depth; i >= 0; i-- {
			p.scratch[i].update(s)
		}
	}
	p.history = append(p.history, s)
}

// UpdateSequence calls Update once per symbol, in order.
func (p *Predictor) UpdateSequence(seq []bitcodec.Symbol) {
	for _, s := range seq {
		p.Update(s)
	}
}

// UpdateHistory appends s to history without touching the tree. Used for
// self-produced symbols (the agent's own actions) that are not modeled
// as random events drawn from the environment.
func (p *Predictor) UpdateHistory(s bitcodec.Symbol) {
	p.history = append(p.history, s)
}

// UpdateHistorySequence appends seq to history without touching the tree.
func (p *Predictor) UpdateHistorySequence(seq []bitcodec.Symbol) {
	p.history = append(p.history, seq...)
}

// Revert undoes the most recent Update call. A no-op on empty history:
// this mirrors the original implementation's behavior and is preserved
// intentionally rather than treated as a precondition violation.
func (p *Predictor) Revert() {
	if len(p.history) == 0 {
		return
	}
	s := p.history[len(p.history)-1]
	p.history = p.history[:len(p.history)-1]
	if len(p.history) >= p.depth {
		p.walkContext(false)
		for i := p.depth; i >= 0; i-- {
			p.scratch[i].revert(s)
		}
	}
}

// RevertN calls Revert n times.
func (p *Predictor) RevertN(n int) {
	for i := 0; i < n; i++ {
		p.Revert()
	}
}

// RevertHistory shrinks history by n symbols without touching the tree.
// Precondition: 0 <= n <= HistorySize().
func (p *Predictor) RevertHistory(n int) {
	if n < 0 || n > len(p.history) {
		panic(fmt.Sprintf("ctw: RevertHistory(%d) out of range for history of length %d", n, len(p.history)))
	}
	p.history = p.history[:len(p.history)-n]
}

// Predict returns the conditional probability of symbol s given the
// current history. Below the configured depth the tree has no opinion
// and returns the uniform prior of 0.5.
func (p *Predictor) Predict(s bitcodec.Symbol) float64 {
	if len(p.history) < p.depth {
		return 0.5
	}
	before := p.LogBlockProbability()
	p.Update(s)
	after := p.LogBlockProbability()
	p.Revert()
	return math.Exp(after - before)
}

// PredictSequence returns the conditional probability of an entire
// sequence of symbols given the current history.
func (p *Predictor) PredictSequence(seq []bitcodec.Symbol) float64 {
	if len(p.history)+len(seq) <= p.depth {
		return math.Pow(0.5, float64(len(seq)))
	}
	before := p.LogBlockProbability()
	p.UpdateSequence(seq)
	after := p.LogBlockProbability()
	p.RevertN(len(seq))
	return math.Exp(after - before)
}

// GenRandomSymbolsAndUpdate samples bits symbols sequentially from the
// tree's own predictive distribution, learning from each sampled symbol
// as it goes (the tree's state after the call reflects having observed
// the sampled sequence).
func (p *Predictor) GenRandomSymbolsAndUpdate(r *rng.Source, bits int) []bitcodec.Symbol {
	out := make([]bitcodec.Symbol, 0, bits)
	for i := 0; i < bits; i++ {
		s := bitcodec.Symbol(0)
		if r.Float64() < p.Predict(bitcodec.One) {
			s = bitcodec.One
		}
		p.Update(s)
		out = append(out, s)
	}
	return out
}

// GenRandomSymbols samples bits symbols the same way as
// GenRandomSymbolsAndUpdate, then reverts the learning so the predictor's
// state is exactly what it was before the call.
func (p *Predictor) GenRandomSymbols(r *rng.Source, bits int) []bitcodec.Symbol {
	out := p.GenRandomSymbolsAndUpdate(r, bits)
	p.RevertN(bits)
	return out
}
