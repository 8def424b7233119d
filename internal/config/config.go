// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

// Package config loads the agent's configuration: the four CORE keys
// (ct-depth, agent-horizon, mc-simulations, learning-period) plus the
// ambient knobs (RNG seed, log level, tracing/metrics toggles, service
// name) that belong to the hosting CLI, not the CORE itself.
package config

import (
	"fmt"
	"os"
	"strconv"

	"gopkg.in/yaml.v3"
)

// Config is the full agent configuration: the CORE's four keys (three
// required, learning-period optional) plus the ambient observability knobs this layer owns.
type Config struct {
	// CTDepth is the CTW predictor's maximum context depth D.
	CTDepth int `json:"ct_depth" yaml:"ct-depth"`
	// Horizon is the planning horizon, in simulated percepts.
	Horizon int `json:"agent_horizon" yaml:"agent-horizon"`
	// MCSimulations is the number of rollouts performed per decision.
	MCSimulations int `json:"mc_simulations" yaml:"mc-simulations"`
	// LearningPeriod, if > 0, stops the CTW from learning from real
	// percepts once age exceeds it; 0 means unlimited learning.
	LearningPeriod int `json:"learning_period" yaml:"learning-period"`
	// Seed seeds the single RNG stream shared by the CTW predictor, the
	// search tree, and the agent's own action/playout sampling.
	Seed int64 `json:"seed" yaml:"seed"`

	// LogLevel is one of "debug", "info", "warn", "error".
	LogLevel string `json:"log_level" yaml:"log-level"`
	// TracingEnabled toggles the internal/observability.Tracer spans.
	TracingEnabled bool `json:"tracing_enabled" yaml:"tracing-enabled"`
	// MetricsEnabled toggles the Prometheus collector set.
	MetricsEnabled bool `json:"metrics_enabled" yaml:"metrics-enabled"`
	// ServiceName identifies this agent instance in logs, traces, and
	// metrics.
	ServiceName string `json:"service_name" yaml:"service-name"`
}

// DefaultConfig returns the configuration used when no file or
// environment override is present. The four CORE keys default to
// values drawn from the distilled spec's E1 scenario (biased coin);
// they are not meaningful defaults for every environment and are
// expected to be overridden per-environment in practice.
func DefaultConfig() Config {
	return Config{
		CTDepth:        30,
		Horizon:        5,
		MCSimulations:  300,
		LearningPeriod: 0,
		Seed:           0,
		LogLevel:       "info",
		TracingEnabled: true,
		MetricsEnabled: true,
		ServiceName:    "mcaixi-agent",
	}
}

// Load builds a Config with priority defaults < file < environment,
// then validates the result. path may be empty, in which case only
// defaults and environment overrides apply; a path that does not exist
// is treated the same as an empty path rather than an error, since a
// missing optional config file is not itself a configuration error.
func Load(path string) (Config, error) {
	cfg := DefaultConfig()

	if path != "" {
		if err := loadFile(path, &cfg); err != nil {
			return cfg, fmt.Errorf("config: load file: %w", err)
		}
	}

	loadEnv(&cfg)

	if err := cfg.Validate(); err != nil {
		return cfg, err
	}
	return cfg, nil
}

func loadFile(path string, cfg *Config) error {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return err
	}
	return yaml.Unmarshal(data, cfg)
}

func loadEnv(cfg *Config) {
	if v := os.Getenv("MCAIXI_CT_DEPTH"); v != "" {
		if i, err := strconv.Atoi(v); err == nil {
			cfg.CTDepth = i
		}
	}
	if v := os.Getenv("MCAIXI_AGENT_HORIZON"); v != "" {
		if i, err := strconv.Atoi(v); err == nil {
			cfg.Horizon = i
		}
	}
	if v := os.Getenv("MCAIXI_MC_SIMULATIONS"); v != "" {
		if i, err := strconv.Atoi(v); err == nil {
			cfg.MCSimulations = i
		}
	}
	if v := os.Getenv("MCAIXI_LEARNING_PERIOD"); v != "" {
		if i, err := strconv.Atoi(v); err == nil {
			cfg.LearningPeriod = i
		}
	}
	if v := os.Getenv("MCAIXI_SEED"); v != "" {
		if i, err := strconv.ParseInt(v, 10, 64); err == nil {
			cfg.Seed = i
		}
	}
	if v := os.Getenv("MCAIXI_LOG_LEVEL"); v != "" {
		cfg.LogLevel = v
	}
	if v := os.Getenv("MCAIXI_TRACING_ENABLED"); v != "" {
		cfg.TracingEnabled = v == "true" || v == "1"
	}
	if v := os.Getenv("MCAIXI_METRICS_ENABLED"); v != "" {
		cfg.MetricsEnabled = v == "true" || v == "1"
	}
	if v := os.Getenv("MCAIXI_SERVICE_NAME"); v != "" {
		cfg.ServiceName = v
	}
}

// Validate checks the four CORE keys and the ambient knobs
// this layer owns. A missing or out-of-range required key is a
// configuration error, reported to the caller as an initialization
// failure rather than a contract-violation panic (§7 of the CORE
// specification draws exactly this line).
func (c Config) Validate() error {
	if c.CTDepth <= 0 {
		return fmt.Errorf("config: ct-depth must be > 0, got %d", c.CTDepth)
	}
	if c.Horizon <= 0 {
		return fmt.Errorf("config: agent-horizon must be > 0, got %d", c.Horizon)
	}
	if c.MCSimulations <= 0 {
		return fmt.Errorf("config: mc-simulations must be > 0, got %d", c.MCSimulations)
	}
	if c.LearningPeriod < 0 {
		return fmt.Errorf("config: learning-period must be >= 0, got %d", c.LearningPeriod)
	}
	switch c.LogLevel {
	case "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("config: log-level must be one of debug/info/warn/error, got %q", c.LogLevel)
	}
	return nil
}
