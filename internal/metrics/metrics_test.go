// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package metrics

import (
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
)

func TestMetrics_Counters(t *testing.T) {
	m := New(prometheus.NewRegistry())

	m.RecordAttempt()
	m.RecordAttempt()
	m.RecordEvictions(3)
	m.RecordEvictions(0)
	m.SetPending(7)
	m.RecordPersistFailure()
	m.RecordIgnored()
	m.RecordThrottled()
	m.RecordMutation("add", ResultChanged)
	m.RecordMutation("add", ResultChanged)
	m.RecordMutation("remove", ResultUnchanged)
	m.RecordLogEvent("join")

	assert.Equal(t, 2.0, testutil.ToFloat64(m.AttemptsRecorded))
	assert.Equal(t, 3.0, testutil.ToFloat64(m.AttemptsEvicted))
	assert.Equal(t, 7.0, testutil.ToFloat64(m.AttemptsPending))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.PersistFailures))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.RejectionsIgnored))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.RejectionsDropped))
	assert.Equal(t, 2.0, testutil.ToFloat64(m.Mutations.WithLabelValues("add", ResultChanged)))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.Mutations.WithLabelValues("remove", ResultUnchanged)))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.LogEvents.WithLabelValues("join")))
}

func TestMetrics_NilSafe(t *testing.T) {
	var m *Metrics
	assert.NotPanics(t, func() {
		m.RecordAttempt()
		m.RecordEvictions(1)
		m.SetPending(1)
		m.RecordPersistFailure()
		m.RecordIgnored()
		m.RecordThrottled()
		m.RecordMutation("toggle", ResultError)
		m.RecordLogEvent("reject")
	})
}

func TestNew_SeparateRegistries(t *testing.T) {
	assert.NotPanics(t, func() {
		New(prometheus.NewRegistry())
		New(prometheus.NewRegistry())
	})
}
