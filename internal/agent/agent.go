// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

// Package agent binds a CTW predictor and a rhoUCT search tree to an
// Environment descriptor, orchestrating the learn/plan/act cycle of a
// general reinforcement-learning agent (MC-AIXI-CTW).
package agent

import (
	"errors"
	"fmt"

	"github.com/moridinamael/mc-aixi/internal/bitcodec"
	"github.com/moridinamael/mc-aixi/internal/ctw"
	"github.com/moridinamael/mc-aixi/internal/rng"
	"github.com/moridinamael/mc-aixi/internal/search"
)

// ErrInvalidConfig is returned by NewAgent when a configuration value is
// missing or out of range. This is the one error category the CORE
// reports to its caller rather than treating as an unrecoverable
// assertion, since it is detected entirely at initialization time.
var ErrInvalidConfig = errors.New("agent: invalid configuration")

// ErrInvalidAction is the error text of the panic ModelUpdateAction
// raises when asked to record an action the environment does not
// consider valid.
var ErrInvalidAction = errors.New("agent: invalid action")

// UpdateKind tracks whether the agent's last model update recorded an
// action or a percept; the two must strictly alternate.
type UpdateKind int

// The two update kinds.
const (
	UpdateAction UpdateKind = iota
	UpdatePercept
)

// Config holds the CORE's four configuration keys. Ambient concerns
// (logging, tracing, the RNG seed used to construct the agent) live one
// layer up in internal/config and internal/observability.
type Config struct {
	// CTDepth is the CTW predictor's maximum context depth D.
	CTDepth int
	// Horizon is the planning horizon, in simulated percepts, used by
	// rhoUCT during search.
	Horizon int
	// MCSimulations is the number of rollouts performed per decision.
	MCSimulations int
	// LearningPeriod, if > 0, stops the CTW from learning from real
	// percepts once Age exceeds it; 0 means unlimited learning.
	LearningPeriod int
}

// Validate checks that c's required fields are present and in range.
func (c Config) Validate() error {
	if c.CTDepth <= 0 {
		return fmt.Errorf("%w: ct-depth must be > 0, got %d", ErrInvalidConfig, c.CTDepth)
	}
	if c.Horizon <= 0 {
		return fmt.Errorf("%w: agent-horizon must be > 0, got %d", ErrInvalidConfig, c.Horizon)
	}
	if c.MCSimulations <= 0 {
		return fmt.Errorf("%w: mc-simulations must be > 0, got %d", ErrInvalidConfig, c.MCSimulations)
	}
	if c.LearningPeriod < 0 {
		return fmt.Errorf("%w: learning-period must be >= 0, got %d", ErrInvalidConfig, c.LearningPeriod)
	}
	return nil
}

// ModelUndo is a snapshot of the agent's bookkeeping taken before a
// planning call, used to restore it after each simulated rollout.
type ModelUndo struct {
	Age            int64
	TotalReward    float64
	HistorySize    int
	LastUpdateKind UpdateKind
}

// Agent is the MC-AIXI-CTW façade: it owns a CTW predictor, builds a
// fresh rhoUCT search tree for each planning call, and tracks the
// bookkeeping (age, total reward, last update kind) the two subsystems
// need to cooperate.
//
// An Agent is not safe for concurrent use; it is driven serially by a
// single cycle loop, per the module's concurrency model.
type Agent struct {
	predictor *ctw.Predictor
	env       Environment
	rng       *rng.Source
	cfg       Config

	actionBits int
	obsBits    int
	rewardBits int

	age         int64
	totalReward float64
	lastUpdate  UpdateKind
}

// NewAgent constructs an Agent bound to env, using rngSrc as its sole
// source of randomness. Returns ErrInvalidConfig if cfg fails
// validation.
func NewAgent(env Environment, cfg Config, rngSrc *rng.Source) (*Agent, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	predictor, err := ctw.NewPredictor(cfg.CTDepth)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidConfig, err)
	}
	return &Agent{
		predictor:  predictor,
		env:        env,
		rng:        rngSrc,
		cfg:        cfg,
		actionBits: bitcodec.BitsRequired(env.MaxAction()),
		obsBits:    bitcodec.BitsRequired(env.MaxObservation()),
		rewardBits: bitcodec.BitsRequired(env.MaxReward()),
		lastUpdate: UpdateAction,
	}, nil
}

// Age returns the number of action/percept cycles completed so far.
func (a *Agent) Age() int64 {
	return a.age
}

// TotalReward returns the cumulative reward received so far.
func (a *Agent) TotalReward() float64 {
	return a.totalReward
}

// AverageReward returns TotalReward() / Age(), or 0 before the first
// cycle completes.
func (a *Agent) AverageReward() float64 {
	if a.age == 0 {
		return 0
	}
	return a.totalReward / float64(a.age)
}

// ModelSize returns the number of nodes currently allocated in the CTW
// tree, the "model_size" field of the per-cycle log record.
func (a *Agent) ModelSize() int {
	return a.predictor.Size()
}

// MaxBitsNeeded returns the larger of the action and percept bit widths.
func (a *Agent) MaxBitsNeeded() int {
	perceptBits := a.rewardBits + a.obsBits
	if a.actionBits > perceptBits {
		return a.actionBits
	}
	return perceptBits
}

// MaxAction, Horizon, MaxReward and RandomFloat implement
// search.Simulator.
func (a *Agent) MaxAction() int       { return a.env.MaxAction() }
func (a *Agent) Horizon() int         { return a.cfg.Horizon }
func (a *Agent) MaxReward() float64   { return float64(a.env.MaxReward()) }
func (a *Agent) RandomFloat() float64 { return a.rng.Float64() }

// Reset clears the CTW model and all bookkeeping, leaving the agent as
// if freshly constructed. last_update is set to UpdateAction so the
// very next call must be a percept update, matching an environment that
// supplies an initial percept before any action is taken.
func (a *Agent) Reset() {
	a.predictor.Clear()
	a.age = 0
	a.totalReward = 0
	a.lastUpdate = UpdateAction
}

func (a *Agent) snapshot() ModelUndo {
	return ModelUndo{
		Age:            a.age,
		TotalReward:    a.totalReward,
		HistorySize:    a.predictor.HistorySize(),
		LastUpdateKind: a.lastUpdate,
	}
}

func (a *Agent) encodeAction(action int) []bitcodec.Symbol {
	return bitcodec.Encode(nil, uint64(action), a.actionBits)
}

func (a *Agent) encodePercept(observation, reward int) []bitcodec.Symbol {
	p := bitcodec.Encode(nil, uint64(reward), a.rewardBits)
	return bitcodec.Encode(p, uint64(observation), a.obsBits)
}

func (a *Agent) decodePercept(syms []bitcodec.Symbol) (observation, reward int) {
	reward = int(bitcodec.Decode(syms[:a.rewardBits], a.rewardBits))
	observation = int(bitcodec.Decode(syms, a.obsBits))
	return observation, reward
}

func (a *Agent) decodeAction(syms []bitcodec.Symbol) int {
	decoded := bitcodec.Decode(syms, a.actionBits)
	return int(decoded % uint64(a.env.MaxAction()+1))
}

// ModelUpdatePercept records a real (observation, reward) percept
// received from the environment. Precondition: the last update was an
// action update (wrong ordering is a contract violation and panics).
func (a *Agent) ModelUpdatePercept(observation, reward int) {
	if a.lastUpdate != UpdateAction {
		panic("agent: ModelUpdatePercept called out of order, expected a prior action update")
	}
	syms := a.encodePercept(observation, reward)
	if a.cfg.LearningPeriod > 0 && a.age > int64(a.cfg.LearningPeriod) {
		a.predictor.UpdateHistorySequence(syms)
	} else {
		a.predictor.UpdateSequence(syms)
	}
	a.totalReward += float64(reward)
	a.lastUpdate = UpdatePercept
}

// ModelUpdateAction records that the agent took action. Actions are
// appended to history but never learned from directly, since they are
// self-produced rather than drawn from the environment. Precondition:
// the last update was a percept update and action is valid in env; both
// violations are contract errors.
func (a *Agent) ModelUpdateAction(action int) {
	if a.lastUpdate != UpdatePercept {
		panic("agent: ModelUpdateAction called out of order, expected a prior percept update")
	}
	if !a.env.IsValidAction(action) {
		panic(fmt.Sprintf("%v: %d", ErrInvalidAction, action))
	}
	a.predictor.UpdateHistorySequence(a.encodeAction(action))
	a.age++
	a.lastUpdate = UpdateAction
}

// ModelRevert restores the agent (and its CTW history) to the state
// recorded in mu, unwinding whatever action/percept updates have
// happened since the snapshot was taken.
func (a *Agent) ModelRevert(mu ModelUndo) {
	perceptBits := a.rewardBits + a.obsBits
	for a.predictor.HistorySize() > mu.HistorySize {
		if a.lastUpdate == UpdatePercept {
			a.predictor.RevertN(perceptBits)
			a.lastUpdate = UpdateAction
		} else {
			a.predictor.RevertHistory(a.actionBits)
			a.lastUpdate = UpdatePercept
		}
	}
	a.age = mu.Age
	a.totalReward = mu.TotalReward
	a.lastUpdate = mu.LastUpdateKind
}

// GenRandomAction draws an action uniformly from [0, MaxAction()].
func (a *Agent) GenRandomAction() int {
	return a.rng.IntN(a.env.MaxAction() + 1)
}

// GenAction samples an action from the CTW's own predictive
// distribution over the agent's action history. Precondition: the last
// update was a percept update.
func (a *Agent) GenAction() int {
	if a.lastUpdate != UpdatePercept {
		panic("agent: GenAction called out of order, expected a prior percept update")
	}
	syms := a.predictor.GenRandomSymbols(a.rng, a.actionBits)
	return a.decodeAction(syms)
}

// GenPercept samples a (observation, reward) percept from the CTW's own
// predictive distribution, without updating the model or any
// bookkeeping.
func (a *Agent) GenPercept() (observation, reward int) {
	syms := a.predictor.GenRandomSymbols(a.rng, a.rewardBits+a.obsBits)
	return a.decodePercept(syms)
}

// GenPerceptAndUpdate samples a percept the same way as GenPercept, but
// lets the CTW learn from the sampled symbols, adds the sampled reward
// to total reward, and marks the last update as a percept update. This
// is how the search tree's chance nodes draw simulated percepts.
func (a *Agent) GenPerceptAndUpdate() (observation int, reward float64) {
	syms := a.predictor.GenRandomSymbolsAndUpdate(a.rng, a.rewardBits+a.obsBits)
	o, r := a.decodePercept(syms)
	a.totalReward += float64(r)
	a.lastUpdate = UpdatePercept
	return o, float64(r)
}

// PredictedActionProb returns the CTW's probability of selecting action
// according to the agent's own behavioral history.
func (a *Agent) PredictedActionProb(action int) float64 {
	return a.predictor.PredictSequence(a.encodeAction(action))
}

// PerceptProbability returns the CTW's probability of the percept
// (observation, reward) given the current history.
func (a *Agent) PerceptProbability(observation, reward int) float64 {
	return a.predictor.PredictSequence(a.encodePercept(observation, reward))
}

// Playout implements the agent's default rollout policy beyond the
// search tree's frontier: horizon cycles of a uniformly random action
// followed by a percept sampled (and learned) from the CTW, accumulating
// reward along the way.
func (a *Agent) Playout(horizon int) float64 {
	var total float64
	for i := 0; i < horizon; i++ {
		action := a.GenRandomAction()
		a.ModelUpdateAction(action)
		_, reward := a.GenPerceptAndUpdate()
		total += reward
	}
	return total
}

// Search runs rhoUCT planning: MCSimulations rollouts of depth Horizon
// from a fresh decision-node search tree, each rollout reverted back to
// the pre-search state before the next begins, then returns the action
// whose child carries the highest mean simulated reward (breaking ties
// with a small random perturbation, and falling back to a uniformly
// random action if no child was ever explored).
func (a *Agent) Search() int {
	snapshot := a.snapshot()
	root := search.NewNode(search.Decision)

	for t := 0; t < a.cfg.MCSimulations; t++ {
		root.Sample(a, a.cfg.Horizon)
		a.ModelRevert(snapshot)
	}

	bestAction := a.GenRandomAction()
	bestMean := -1.0
	for action := 0; action <= a.env.MaxAction(); action++ {
		child := root.Child(action)
		if child == nil {
			continue
		}
		mean := child.Mean() + a.rng.Float64()*1e-4
		if mean > bestMean {
			bestMean = mean
			bestAction = action
		}
	}
	return bestAction
}
