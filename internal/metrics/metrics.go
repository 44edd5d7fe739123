// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package metrics exposes Prometheus instrumentation for the attempt log,
// the rejection listener and whitelist mutations.
//
// All collectors are registered on the Registerer passed to New so tests can
// use a private registry. A nil *Metrics is valid and records nothing.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const namespace = "wlctl"

// Mutation results used for the whitelist_mutations_total "result" label.
const (
	ResultChanged   = "changed"
	ResultUnchanged = "unchanged"
	ResultError     = "error"
)

// Metrics holds every collector used by wlctl.
type Metrics struct {
	AttemptsRecorded  prometheus.Counter
	AttemptsEvicted   prometheus.Counter
	AttemptsPending   prometheus.Gauge
	PersistFailures   prometheus.Counter
	RejectionsIgnored prometheus.Counter
	RejectionsDropped prometheus.Counter
	Mutations         *prometheus.CounterVec
	LogEvents         *prometheus.CounterVec
}

// New creates and registers all collectors on reg. A nil reg uses the
// default Prometheus registerer.
func New(reg prometheus.Registerer) *Metrics {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	f := promauto.With(reg)

	return &Metrics{
		AttemptsRecorded: f.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "attempts_recorded_total",
			Help:      "Total number of rejected connection attempts recorded",
		}),
		AttemptsEvicted: f.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "attempts_evicted_total",
			Help:      "Total number of attempts evicted to stay within capacity",
		}),
		AttemptsPending: f.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "attempts_pending",
			Help:      "Current number of attempts held in the log",
		}),
		PersistFailures: f.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "attempts_persist_failures_total",
			Help:      "Total number of failed attempt log saves",
		}),
		RejectionsIgnored: f.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "rejections_ignored_total",
			Help:      "Rejections whose reason is not whitelist related",
		}),
		RejectionsDropped: f.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "rejections_throttled_total",
			Help:      "Whitelist rejections dropped by the ingest rate limit",
		}),
		Mutations: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "whitelist_mutations_total",
			Help:      "Whitelist mutations by operation and result",
		}, []string{"op", "result"}),
		LogEvents: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "hostlog_events_total",
			Help:      "Server log events parsed by kind",
		}, []string{"kind"}),
	}
}

// RecordAttempt counts a stored attempt.
func (m *Metrics) RecordAttempt() {
	if m == nil {
		return
	}
	m.AttemptsRecorded.Inc()
}

// RecordEvictions counts records dropped for capacity.
func (m *Metrics) RecordEvictions(n int) {
	if m == nil || n <= 0 {
		return
	}
	m.AttemptsEvicted.Add(float64(n))
}

// SetPending updates the pending attempt gauge.
func (m *Metrics) SetPending(n int) {
	if m == nil {
		return
	}
	m.AttemptsPending.Set(float64(n))
}

// RecordPersistFailure counts a failed save.
func (m *Metrics) RecordPersistFailure() {
	if m == nil {
		return
	}
	m.PersistFailures.Inc()
}

// RecordIgnored counts a rejection with an unrelated reason.
func (m *Metrics) RecordIgnored() {
	if m == nil {
		return
	}
	m.RejectionsIgnored.Inc()
}

// RecordThrottled counts a rejection dropped by the rate limit.
func (m *Metrics) RecordThrottled() {
	if m == nil {
		return
	}
	m.RejectionsDropped.Inc()
}

// RecordMutation counts a whitelist operation ("add", "remove", "toggle").
func (m *Metrics) RecordMutation(op, result string) {
	if m == nil {
		return
	}
	m.Mutations.WithLabelValues(op, result).Inc()
}

// RecordLogEvent counts a parsed server log line.
func (m *Metrics) RecordLogEvent(kind string) {
	if m == nil {
		return
	}
	m.LogEvents.WithLabelValues(kind).Inc()
}
