// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

// Package observability wraps the agent's learn/plan/act cycle with
// tracing, metrics, and structured logging. None of this is imported
// by the CORE packages (internal/bitcodec, internal/ctw, internal/search,
// internal/agent); it exists purely for the hosting CLI to observe an
// agent from the outside.
package observability

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"go.opentelemetry.io/otel/trace/noop"

	"github.com/moridinamael/mc-aixi/pkg/logging"
)

const tracerName = "mcaixi.agent"

// CycleRecord carries the per-cycle log fields named by the CORE
// specification: cycle, observation, reward, action, explored,
// explore_rate, total_reward, average_reward, cycle_wall_time, and
// model_size.
type CycleRecord struct {
	Cycle         int64
	Observation   int
	Reward        int
	Action        int
	Explored      bool
	ExploreRate   float64
	TotalReward   float64
	AverageReward float64
	CycleWallTime time.Duration
	ModelSize     int
}

// Tracer wraps one OpenTelemetry span per agent cycle (mcaixi.cycle) and
// one per Search call (mcaixi.search), and emits one structured log line
// per cycle carrying CycleRecord's fields.
//
// Thread Safety: safe for concurrent use, since a Tracer does not hold
// any mutable state of its own beyond the (already concurrency-safe)
// tracer and logger it wraps. Nothing requires this: per the CORE's
// concurrency model a single agent is never driven from more than one
// goroutine, but a hosting process may run several independent agents
// concurrently, each with its own Tracer.
type Tracer struct {
	tracer  trace.Tracer
	logger  *logging.Logger
	enabled bool
}

// NewTracer constructs a Tracer. A nil logger falls back to
// logging.Default(). enabled mirrors Config.TracingEnabled; when false,
// span creation is skipped entirely in favor of noop.Span, matching the
// disabled-tracing fallback the teacher's MCTSTracer uses.
func NewTracer(logger *logging.Logger, enabled bool) *Tracer {
	if logger == nil {
		logger = logging.Default()
	}
	return &Tracer{
		tracer:  otel.Tracer(tracerName),
		logger:  logger,
		enabled: enabled,
	}
}

// StartCycle starts the span for one agent cycle.
func (t *Tracer) StartCycle(ctx context.Context, cycle int64) (context.Context, trace.Span) {
	if !t.enabled {
		return ctx, noop.Span{}
	}
	return t.tracer.Start(ctx, "mcaixi.cycle",
		trace.WithAttributes(attribute.Int64("mcaixi.cycle", cycle)),
		trace.WithSpanKind(trace.SpanKindInternal),
	)
}

// EndCycle completes a cycle span, attaches the per-cycle fields as span
// attributes, and emits the structured log line for the cycle.
func (t *Tracer) EndCycle(ctx context.Context, span trace.Span, rec CycleRecord, err error) {
	if span != nil {
		if err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, err.Error())
		} else {
			span.SetStatus(codes.Ok, "")
		}
		span.SetAttributes(
			attribute.Int("mcaixi.observation", rec.Observation),
			attribute.Int("mcaixi.reward", rec.Reward),
			attribute.Int("mcaixi.action", rec.Action),
			attribute.Bool("mcaixi.explored", rec.Explored),
			attribute.Float64("mcaixi.explore_rate", rec.ExploreRate),
			attribute.Float64("mcaixi.total_reward", rec.TotalReward),
			attribute.Float64("mcaixi.average_reward", rec.AverageReward),
			attribute.String("mcaixi.cycle_wall_time", rec.CycleWallTime.String()),
			attribute.Int("mcaixi.model_size", rec.ModelSize),
		)
		span.End()
	}

	logFn := t.logger.Info
	if err != nil {
		logFn = t.logger.Error
	}
	logFn("agent cycle completed",
		"cycle", rec.Cycle,
		"observation", rec.Observation,
		"reward", rec.Reward,
		"action", rec.Action,
		"explored", rec.Explored,
		"explore_rate", rec.ExploreRate,
		"total_reward", rec.TotalReward,
		"average_reward", rec.AverageReward,
		"cycle_wall_time", rec.CycleWallTime.String(),
		"model_size", rec.ModelSize,
	)
}

// StartSearch starts the span for one Search() planning call, tagged
// with a UUID correlation id the caller can also attach to its own logs.
func (t *Tracer) StartSearch(ctx context.Context, runID uuid.UUID) (context.Context, trace.Span) {
	if !t.enabled {
		return ctx, noop.Span{}
	}
	return t.tracer.Start(ctx, "mcaixi.search",
		trace.WithAttributes(attribute.String("mcaixi.run_id", runID.String())),
	)
}

// EndSearch completes a search span with the action it chose.
func (t *Tracer) EndSearch(span trace.Span, chosenAction int) {
	if span == nil {
		return
	}
	span.SetAttributes(attribute.Int("mcaixi.chosen_action", chosenAction))
	span.End()
}

// Metrics is the small Prometheus collector set the hosting CLI
// registers with its own registry. The package never reaches for the
// global default registry itself, so an embedder can run several
// independently-registered agents without metric collisions.
type Metrics struct {
	CycleCount    prometheus.Counter
	AverageReward prometheus.Gauge
	ModelSize     prometheus.Gauge
	CycleWallTime prometheus.Histogram
}

// NewMetrics constructs a Metrics set labeled with serviceName and
// registers it with reg, unless reg is nil (useful in tests that only
// want the Observe bookkeeping, not registration).
func NewMetrics(reg prometheus.Registerer, serviceName string) *Metrics {
	constLabels := prometheus.Labels{"service": serviceName}
	m := &Metrics{
		CycleCount: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace:   "mcaixi",
			Name:        "cycles_total",
			Help:        "Total number of agent action/percept cycles completed.",
			ConstLabels: constLabels,
		}),
		AverageReward: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace:   "mcaixi",
			Name:        "average_reward",
			Help:        "Running average reward per cycle.",
			ConstLabels: constLabels,
		}),
		ModelSize: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace:   "mcaixi",
			Name:        "model_size_nodes",
			Help:        "Number of nodes currently allocated in the CTW tree.",
			ConstLabels: constLabels,
		}),
		CycleWallTime: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace:   "mcaixi",
			Name:        "cycle_wall_time_seconds",
			Help:        "Wall-clock time spent per agent cycle, including planning.",
			ConstLabels: constLabels,
			Buckets:     prometheus.DefBuckets,
		}),
	}
	if reg != nil {
		reg.MustRegister(m.CycleCount, m.AverageReward, m.ModelSize, m.CycleWallTime)
	}
	return m
}

// Observe folds one CycleRecord into the collector set.
func (m *Metrics) Observe(rec CycleRecord) {
	m.CycleCount.Inc()
	m.AverageReward.Set(rec.AverageReward)
	m.ModelSize.Set(float64(rec.ModelSize))
	m.CycleWallTime.Observe(rec.CycleWallTime.Seconds())
}
