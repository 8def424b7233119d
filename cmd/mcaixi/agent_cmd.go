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

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/spf13/cobra"

	"github.com/moridinamael/mc-aixi/internal/agent"
	"github.com/moridinamael/mc-aixi/internal/config"
	"github.com/moridinamael/mc-aixi/internal/observability"
	"github.com/moridinamael/mc-aixi/internal/rng"
	"github.com/moridinamael/mc-aixi/pkg/logging"
)

// demoCycles is the small fixed number of cycles `agent info` runs to
// prove the core wires together; it is not meant to be a meaningful
// training run (see E1 in the core specification for that).
const demoCycles = 20

// demoCoinBias matches the specification's E1 scenario (a coin biased
// 0.7 toward 1).
const demoCoinBias = 0.7

var agentCmd = &cobra.Command{
	Use:   "agent",
	Short: "Run the agent core against the built-in demonstration environment",
}

var agentInfoCmd = &cobra.Command{
	Use:   "info <path>",
	Short: "Load a configuration file, run a short demonstration episode, and print the per-cycle log records",
	Args:  cobra.ExactArgs(1),
	RunE:  runAgentInfo,
}

func init() {
	agentCmd.AddCommand(agentInfoCmd)
}

func levelFromString(s string) logging.Level {
	switch s {
	case "debug":
		return logging.LevelDebug
	case "warn":
		return logging.LevelWarn
	case "error":
		return logging.LevelError
	default:
		return logging.LevelInfo
	}
}

func runAgentInfo(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load(args[0])
	if err != nil {
		return err
	}

	logger := consoleLogger(levelFromString(cfg.LogLevel))
	defer logger.Close()

	tracer := observability.NewTracer(logger, cfg.TracingEnabled)
	var metrics *observability.Metrics
	if cfg.MetricsEnabled {
		metrics = observability.NewMetrics(prometheus.NewRegistry(), cfg.ServiceName)
	}

	env := newCoinGuessEnv(demoCoinBias, cfg.Seed)
	agentRNG := rng.New(cfg.Seed)
	ag, err := agent.NewAgent(env, agent.Config{
		CTDepth:        cfg.CTDepth,
		Horizon:        cfg.Horizon,
		MCSimulations:  cfg.MCSimulations,
		LearningPeriod: cfg.LearningPeriod,
	}, agentRNG)
	if err != nil {
		return fmt.Errorf("construct agent: %w", err)
	}

	// The agent's lastUpdate starts at UpdateAction, so it expects an
	// initial percept before its first action, matching an environment
	// that supplies one at episode start.
	ag.ModelUpdatePercept(env.flip(), 0)

	ctx := context.Background()
	records := make([]observability.CycleRecord, 0, demoCycles)
	exploredCycles := 0

	for cycle := int64(1); cycle <= demoCycles; cycle++ {
		start := time.Now()
		cycleCtx, cycleSpan := tracer.StartCycle(ctx, cycle)

		_, searchSpan := tracer.StartSearch(cycleCtx, uuid.New())
		action := ag.Search()
		tracer.EndSearch(searchSpan, action)

		ag.ModelUpdateAction(action)
		observation := env.flip()
		reward := env.reward(action)
		ag.ModelUpdatePercept(observation, reward)

		// A model that has not yet accumulated ct-depth bits of history
		// has no opinion beyond the uniform prior (§4.3's Predict), so
		// its search is effectively exploring blind; once the history
		// passes that depth, the tree is acting on a genuinely learned
		// model.
		explored := ag.ModelSize() > 1
		if explored {
			exploredCycles++
		}

		rec := observability.CycleRecord{
			Cycle:         cycle,
			Observation:   observation,
			Reward:        reward,
			Action:        action,
			Explored:      explored,
			ExploreRate:   float64(exploredCycles) / float64(cycle),
			TotalReward:   ag.TotalReward(),
			AverageReward: ag.AverageReward(),
			CycleWallTime: time.Since(start),
			ModelSize:     ag.ModelSize(),
		}
		tracer.EndCycle(cycleCtx, cycleSpan, rec, nil)
		if metrics != nil {
			metrics.Observe(rec)
		}
		records = append(records, rec)
	}

	out, err := json.MarshalIndent(records, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal cycle records: %w", err)
	}
	fmt.Fprintln(cmd.OutOrStdout(), string(out))
	return nil
}
