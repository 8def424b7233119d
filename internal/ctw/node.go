// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package ctw

import "github.com/moridinamael/mc-aixi/internal/bitcodec"

// node is a single vertex of the context-weighting suffix tree. It holds a
// log-domain KT estimate, the cached log weighted ("CTW") probability for
// the subtree rooted here, per-symbol visit counts, and the two children
// routed to by the next symbol of context.
//
// A node is never touched by more than one goroutine: the CTW predictor
// that owns the tree is itself single-threaded per the agent's
// cooperative scheduling model, so unlike this codebase's other tree
// structures, node carries no locks or atomics.
type node struct {
	logKT   float64
	logProb float64
	count   [2]uint64
	child   [2]*node
}

func newNode() *node {
	return &node{}
}

func (n *node) visits() uint64 {
	return n.count[0] + n.count[1]
}

func (n *node) isLeaf() bool {
	return n.child[0] == nil && n.child[1] == nil
}

// logKTMultiplier returns the log of the KT update factor for observing
// symbol s next, given the counts currently recorded at n.
func (n *node) logKTMultiplier(s bitcodec.Symbol) float64 {
	numerator := float64(n.count[s]) + 0.5
	denominator := float64(n.visits()) + 1.0
	return logDiv(numerator, denominator)
}

// update folds a newly observed symbol into this node's estimates. The
// multiplier is evaluated against the counts as they stand before this
// call increments them; recomputing logProb and then bumping the count
// afterward keeps update and revert exact inverses of one another.
func (n *node) update(s bitcodec.Symbol) {
	n.logKT += n.logKTMultiplier(s)
	n.updateLogProbability()
	n.count[s]++
}

// revert undoes the most recent update(s) at this node. Any child whose
// own visit count has dropped back to zero is pruned; the multiplier
// subtracted here is evaluated after the count decrement, so it sees
// exactly the counts update saw before incrementing them. A node left
// with no visits gets logKT reset to exactly 0 (the KT estimate of an
// empty count), so no floating-point residue survives a full rollback.
func (n *node) revert(s bitcodec.Symbol) {
	n.count[s]--
	for i, c := range n.child {
		if c != nil && c.visits() == 0 {
			n.child[i] = nil
		}
	}
	if n.visits() == 0 {
		n.logKT = 0
	} else {
		n.logKT -= n.logKTMultiplier(s)
	}
	n.updateLogProbability()
}

// updateLogProbability recomputes logProb from logKT and the children's
// cached logProb values. A leaf's weighted probability is just its KT
// estimate; an internal node's is an even mixture of its own KT estimate
// and the product of its children's weighted probabilities.
func (n *node) updateLogProbability() {
	if n.isLeaf() {
		n.logProb = n.logKT
		return
	}
	var childSum float64
	if n.child[0] != nil {
		childSum += n.child[0].logProb
	}
	if n.child[1] != nil {
		childSum += n.child[1].logProb
	}
	n.logProb = combineLogProb(n.logKT, childSum)
}

// size returns the number of nodes in the subtree rooted at n, including
// n itself. Recursion depth is bounded by the tree's configured maximum
// depth, which is always a small constant relative to history length.
func (n *node) size() int {
	total := 1
	if n.child[0] != nil {
		total += n.child[0].size()
	}
	if n.child[1] != nil {
		total += n.child[1].size()
	}
	return total
}
