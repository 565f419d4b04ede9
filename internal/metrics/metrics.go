// SPDX-License-Identifier: MIT
// Copyright (c) 2025 Vladyslav Kazantsev

// Package metrics exposes Prometheus instrumentation for pipeline runs.
package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/specialistvlad/stagegrid/internal/table"
)

// Run outcomes recorded by ObserveRun.
const (
	OutcomeOK          = "ok"
	OutcomeConfigError = "config_error"
	OutcomeError       = "error"
)

// Metrics holds all Prometheus collectors of one application instance. Each
// instance owns its registry, so several apps (or tests) never collide.
type Metrics struct {
	registry *prometheus.Registry

	RecordsCommitted *prometheus.CounterVec
	GateWakeups      *prometheus.CounterVec
	GateBlocked      *prometheus.CounterVec
	RunDuration      prometheus.Histogram
	RunsTotal        *prometheus.CounterVec
}

// New creates and registers every collector.
func New() *Metrics {
	reg := prometheus.NewRegistry()
	m := &Metrics{
		registry: reg,
		RecordsCommitted: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "stagegrid_records_committed_total",
				Help: "Derived fields written, by stage",
			},
			[]string{"stage"},
		),
		GateWakeups: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "stagegrid_gate_wakeups_total",
				Help: "Wakeups observed by the consumer while waiting on an upstream stage",
			},
			[]string{"stage"},
		),
		GateBlocked: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "stagegrid_gate_blocked_total",
				Help: "Consumer waits that had to block at least once, by upstream stage",
			},
			[]string{"stage"},
		),
		RunDuration: prometheus.NewHistogram(
			prometheus.HistogramOpts{
				Name:    "stagegrid_run_duration_seconds",
				Help:    "Wall time of a pipeline run",
				Buckets: prometheus.ExponentialBuckets(0.001, 4, 8),
			},
		),
		RunsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "stagegrid_runs_total",
				Help: "Pipeline runs, by outcome",
			},
			[]string{"outcome"},
		),
	}
	reg.MustRegister(
		m.RecordsCommitted,
		m.GateWakeups,
		m.GateBlocked,
		m.RunDuration,
		m.RunsTotal,
		collectors.NewGoCollector(),
	)
	return m
}

// Committed implements pipeline.Observer.
func (m *Metrics) Committed(stage table.Stage, _ int) {
	m.RecordsCommitted.WithLabelValues(stage.String()).Inc()
}

// Waited implements pipeline.Observer.
func (m *Metrics) Waited(upstream table.Stage, _ int, wakes int) {
	if wakes == 0 {
		return
	}
	label := upstream.String()
	m.GateBlocked.WithLabelValues(label).Inc()
	m.GateWakeups.WithLabelValues(label).Add(float64(wakes))
}

// ObserveRun records the outcome and duration of one run.
func (m *Metrics) ObserveRun(outcome string, elapsed time.Duration) {
	m.RunsTotal.WithLabelValues(outcome).Inc()
	m.RunDuration.Observe(elapsed.Seconds())
}

// Registry returns the registry backing these metrics.
func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}

// Handler serves the registry in the Prometheus exposition format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{Registry: m.registry})
}
