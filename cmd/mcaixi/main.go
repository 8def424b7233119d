// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

// Command mcaixi is a small batch CLI around the MC-AIXI-CTW agent
// CORE. It does not implement the interactive main loop, episode
// replay, or any of the full toy environments (coin-flip, biased
// rock-paper-scissors, tiger variants, Kuhn poker, tictactoe, maze,
// PacMan) — those remain external collaborators. It exists to prove
// the CORE, config, and observability packages wire together.
//
// Usage:
//
//	mcaixi config validate agent.yaml
//	mcaixi agent info agent.yaml
package main

import (
	"log"
	"os"

	"github.com/mattn/go-isatty"
	"github.com/spf13/cobra"

	"github.com/moridinamael/mc-aixi/pkg/logging"
)

var rootCmd = &cobra.Command{
	Use:   "mcaixi",
	Short: "A small CLI around the MC-AIXI-CTW reinforcement-learning agent core",
	Long: `mcaixi wires the CTW predictor, the rhoUCT search tree, and the
agent orchestration layer together behind a configuration file, without
implementing any of the full toy environments or the interactive main
loop that normally drive it.`,
}

func init() {
	rootCmd.AddCommand(configCmd)
	rootCmd.AddCommand(agentCmd)
}

// consoleLogger returns a logger that emits human-readable text when
// stdout is a terminal and JSON otherwise, matching how this codebase's
// other cmd/ entrypoints format console output for pipelines vs.
// interactive shells.
func consoleLogger(level logging.Level) *logging.Logger {
	return logging.New(logging.Config{
		Level:   level,
		Service: "mcaixi",
		JSON:    !isatty.IsTerminal(os.Stdout.Fd()),
	})
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		log.Fatalf("mcaixi: %v", err)
	}
}
