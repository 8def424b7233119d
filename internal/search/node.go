// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

// Package search implements rhoUCT: a Monte-Carlo tree search whose
// chance-node outcomes are drawn from a learned environment model (the
// ctw package, via the Simulator interface below) and whose decision
// nodes are chosen by a UCB1 variant biased by the agent's horizon and
// maximum reward.
package search

import "math"

// explorationConstant is the UCB1 constant C in the priority formula
// mean + exploreBias * sqrt(C * ln(visits) / childVisits).
const explorationConstant = 2.0

// unexploredBias is the fixed priority assigned to an action whose child
// is absent or has never been visited, guaranteeing every action is
// tried at least once before the UCB term is consulted.
const unexploredBias = 1e9

// Kind distinguishes decision nodes (the agent chooses an action) from
// chance nodes (a percept is drawn from the environment model).
type Kind int

// The two node kinds.
const (
	Decision Kind = iota
	Chance
)

// Simulator is the subset of agent behavior a search tree needs to run
// simulations: sampling percepts from the learned model, advancing the
// model with a chosen action, and falling back to a random playout
// beyond the tree's frontier. agent.Agent implements this interface;
// defining it here (rather than importing the agent package) keeps
// search free of a dependency cycle.
type Simulator interface {
	MaxAction() int
	Horizon() int
	MaxReward() float64
	RandomFloat() float64
	ModelUpdateAction(action int)
	GenPerceptAndUpdate() (observation int, reward float64)
	Playout(horizon int) float64
}

// Node is a single vertex of the search tree: either a decision node
// (children keyed by action) or a chance node (children keyed by
// observation). A tree is built fresh for each planning call and
// discarded afterward; nodes are never shared or reused across calls.
type Node struct {
	kind     Kind
	mean     float64
	visits   int
	children map[int]*Node
}

// NewNode constructs an empty node of the given kind.
func NewNode(kind Kind) *Node {
	return &Node{kind: kind, children: make(map[int]*Node)}
}

// Mean returns the node's running mean of sampled future reward.
func (n *Node) Mean() float64 {
	return n.mean
}

// Visits returns the number of times this node has been sampled.
func (n *Node) Visits() int {
	return n.visits
}

// Child returns the child at idx, or nil if absent.
func (n *Node) Child(idx int) *Node {
	return n.children[idx]
}

func (n *Node) updateStats(reward float64) {
	v := float64(n.visits)
	n.mean = (reward + v*n.mean) / (v + 1)
	n.visits++
}

// selectAction chooses the next action to sample from a decision node,
// using a UCB1 rule biased by the simulator's horizon and maximum
// reward. Ties (including the common case of several still-unexplored
// actions) are broken by a small uniform random perturbation.
func (n *Node) selectAction(sim Simulator) int {
	exploreBias := float64(sim.Horizon()) * sim.MaxReward()
	logVisits := math.Log(float64(n.visits))

	bestAction := 0
	bestPriority := math.Inf(-1)
	for a := 0; a <= sim.MaxAction(); a++ {
		c := n.children[a]
		var priority float64
		if c == nil || c.visits == 0 {
			priority = unexploredBias
		} else {
			priority = c.mean + exploreBias*math.Sqrt(explorationConstant*logVisits/float64(c.visits))
		}
		if priority > bestPriority+sim.RandomFloat()*1e-3 {
			bestPriority = priority
			bestAction = a
		}
	}
	return bestAction
}

// Sample runs one simulated rollout step starting at n, recursing down
// the tree (creating children as the frontier is reached) until the
// horizon is exhausted, and returns the total reward accumulated from n
// downward.
//
// The horizon is decremented only on the chance-node edge: one "horizon
// unit" corresponds to one simulated percept, not to one action, so a
// decision node and the chance node it leads to together consume a
// single unit of horizon. This asymmetry is intentional and preserved
// from the reference implementation.
func (n *Node) Sample(sim Simulator, horizon int) float64 {
	if horizon == 0 {
		return 0
	}

	var reward float64
	switch n.kind {
	case Chance:
		o, r := sim.GenPerceptAndUpdate()
		child := n.children[o]
		if child == nil {
			child = NewNode(Decision)
			n.children[o] = child
		}
		reward = r + child.Sample(sim, horizon-1)
	default: // Decision
		if n.visits == 0 {
			reward = sim.Playout(horizon)
		} else {
			a := n.selectAction(sim)
			sim.ModelUpdateAction(a)
			child := n.children[a]
			if child == nil {
				child = NewNode(Chance)
				n.children[a] = child
			}
			reward = child.Sample(sim, horizon)
		}
	}

	n.updateStats(reward)
	return reward
}
