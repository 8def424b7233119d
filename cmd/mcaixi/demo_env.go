// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package main

import "math/rand"

// coinGuessEnv is a minimal environment used only by `mcaixi agent info` to
// demonstrate that the agent core, config, and observability packages wire
// together end to end. It is deliberately not one of the full toy
// environments (coin-flip, biased rock-paper-scissors, tiger variants, Kuhn
// poker, tictactoe, maze, PacMan) the core specification names as external
// collaborators: those implement a richer contract (perform_action,
// is_finished, a printable state) that this demo does not attempt.
//
// Each cycle the environment flips a coin biased toward 1 and rewards the
// agent's previous guess for having predicted it.
type coinGuessEnv struct {
	bias float64
	rng  *rand.Rand
	coin int
}

func newCoinGuessEnv(bias float64, seed int64) *coinGuessEnv {
	return &coinGuessEnv{bias: bias, rng: rand.New(rand.NewSource(seed))}
}

func (e *coinGuessEnv) MaxAction() int      { return 1 }
func (e *coinGuessEnv) MaxObservation() int { return 1 }
func (e *coinGuessEnv) MaxReward() int      { return 1 }
func (e *coinGuessEnv) MinAction() int      { return 0 }
func (e *coinGuessEnv) MinObservation() int { return 0 }
func (e *coinGuessEnv) MinReward() int      { return 0 }

func (e *coinGuessEnv) IsValidAction(action int) bool {
	return action == 0 || action == 1
}

// flip draws and records the next coin outcome, returned as the
// observation the agent will receive this cycle.
func (e *coinGuessEnv) flip() int {
	e.coin = 0
	if e.rng.Float64() < e.bias {
		e.coin = 1
	}
	return e.coin
}

// reward reports whether guess matched the most recently flipped coin.
func (e *coinGuessEnv) reward(guess int) int {
	if guess == e.coin {
		return 1
	}
	return 0
}
