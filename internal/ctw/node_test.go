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

import (
	"math"
	"testing"

	"github.com/moridinamael/mc-aixi/internal/bitcodec"
)

// logKTClosedForm computes the KT estimator in closed form,
// log(Gamma(a+1/2)*Gamma(b+1/2) / (Gamma(1/2)^2 * Gamma(a+b+1))), for
// integer a, b using math.Lgamma (which returns log|Gamma(x)|, exact
// here since all arguments are positive).
func logKTClosedForm(a, b int) float64 {
	lgA, _ := math.Lgamma(float64(a) + 0.5)
	lgB, _ := math.Lgamma(float64(b) + 0.5)
	lgHalf, _ := math.Lgamma(0.5)
	lgTotal, _ := math.Lgamma(float64(a+b) + 1)
	return lgA + lgB - 2*lgHalf - lgTotal
}

// TestKTIdentity is property 1: log_kt matches the KT closed form for
// any interleaving of observed zeros and ones.
func TestKTIdentity(t *testing.T) {
	interleavings := [][]int{
		{0, 0, 0, 1, 1, 1},
		{1, 0, 1, 0, 1, 0},
		{1, 1, 1, 1, 0},
		{0},
		{1},
		{},
	}
	for _, seq := range interleavings {
		n := newNode()
		zeros, ones := 0, 0
		for _, s := range seq {
			n.update(bitcodec.Symbol(s))
			if s == 0 {
				zeros++
			} else {
				ones++
			}
		}
		want := logKTClosedForm(zeros, ones)
		if math.Abs(n.logKT-want) > 1e-9 {
			t.Errorf("seq %v: log_kt = %v, want %v", seq, n.logKT, want)
		}
	}
}

// TestWeightedProbabilityInvariant is property 2: at every node, after
// every update, log_prob equals the combiner applied to log_kt and the
// children's log_prob (0 if absent).
func TestWeightedProbabilityInvariant(t *testing.T) {
	root := newNode()
	root.child[0] = newNode()
	root.child[0].child[1] = newNode()

	leaf := root.child[0].child[1]
	leaf.update(bitcodec.One)
	leaf.update(bitcodec.Zero)

	mid := root.child[0]
	mid.logKT = -0.3
	mid.updateLogProbability()
	wantMid := combineLogProb(mid.logKT, leaf.logProb)
	if math.Abs(mid.logProb-wantMid) > 1e-12 {
		t.Errorf("mid log_prob = %v, want %v", mid.logProb, wantMid)
	}

	root.logKT = -0.7
	root.updateLogProbability()
	wantRoot := combineLogProb(root.logKT, mid.logProb)
	if math.Abs(root.logProb-wantRoot) > 1e-12 {
		t.Errorf("root log_prob = %v, want %v", root.logProb, wantRoot)
	}
}

// TestLeafLogProbEqualsLogKT checks the base case of the invariant: a
// leaf's log_prob is exactly its log_kt.
func TestLeafLogProbEqualsLogKT(t *testing.T) {
	n := newNode()
	n.update(bitcodec.One)
	n.update(bitcodec.One)
	n.update(bitcodec.Zero)
	if n.logProb != n.logKT {
		t.Errorf("leaf log_prob = %v, want log_kt = %v", n.logProb, n.logKT)
	}
}

// TestNodeUpdateRevertInverse checks that revert(s) exactly undoes the
// most recent update(s) at the node level, regardless of interleaving.
func TestNodeUpdateRevertInverse(t *testing.T) {
	n := newNode()
	n.update(bitcodec.Zero)
	n.update(bitcodec.One)
	n.update(bitcodec.One)

	before := *n
	n.update(bitcodec.Zero)
	n.revert(bitcodec.Zero)

	if n.logKT != before.logKT {
		t.Errorf("log_kt not restored: got %v, want %v", n.logKT, before.logKT)
	}
	if n.logProb != before.logProb {
		t.Errorf("log_prob not restored: got %v, want %v", n.logProb, before.logProb)
	}
	if n.count != before.count {
		t.Errorf("count not restored: got %v, want %v", n.count, before.count)
	}
}

// TestChildPrunedWhenEmptiedByRevert checks the lifecycle rule: a child
// is deleted by revert once its own visit count drops back to zero.
func TestChildPrunedWhenEmptiedByRevert(t *testing.T) {
	root := newNode()
	root.count[1] = 1
	root.child[1] = newNode() // a child with zero visits of its own

	root.revert(bitcodec.One)

	if root.child[1] != nil {
		t.Error("child with zero visits should have been pruned by revert")
	}
}

// TestSizeCountsAllDescendants checks node.size() against a hand-built
// tree shape.
func TestSizeCountsAllDescendants(t *testing.T) {
	root := newNode()
	if root.size() != 1 {
		t.Fatalf("size of lone root = %d, want 1", root.size())
	}
	root.child[0] = newNode()
	root.child[1] = newNode()
	root.child[0].child[0] = newNode()
	if got := root.size(); got != 4 {
		t.Errorf("size = %d, want 4", got)
	}
}
