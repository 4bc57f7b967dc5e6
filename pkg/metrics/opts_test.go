// Copyright (C) 2025-2026, Advanced Micro Devices, Inc. All rights reserved.
// See LICENSE for license information.

package metrics

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestOptsNamingConventions(t *testing.T) {
	opt := &mOpts{name: "jobs_processed", help: "jobs taken off the queue"}

	counter := opt.GetCounterOpts()
	assert.Equal(t, "jobs_processed_c", counter.Name)
	assert.Equal(t, DefaultMetricsNamespace, counter.Namespace)
	assert.Equal(t, "jobs taken off the queue (counters)", counter.Help)

	gauge := opt.GetGaugeOpts()
	assert.Equal(t, "jobs_processed_g", gauge.Name)
	assert.Equal(t, "jobs taken off the queue (gauge)", gauge.Help)

	histogram := opt.GetHistogramOpts()
	assert.Equal(t, "jobs_processed_h", histogram.Name)

	summary := opt.GetSummaryOpts()
	assert.Equal(t, "jobs_processed_s", summary.Name)
}

func TestOptsFunctions(t *testing.T) {
	opt := &mOpts{name: "lease_sweeps", help: ""}
	for _, fn := range []OptsFunc{
		WithNamespace("janitor"),
		WithBuckets([]float64{1, 5, 10}),
		WithLabels(map[string]string{"component": "queue"}),
		WithQuantile(map[float64]float64{0.5: 0.05}),
		WithFullOnly(),
	} {
		fn(opt)
	}

	require.NotNil(t, opt.namespace)
	histogram := opt.GetHistogramOpts()
	assert.Equal(t, "janitor", histogram.Namespace)
	assert.Equal(t, []float64{1, 5, 10}, histogram.Buckets)
	assert.Equal(t, map[string]string{"component": "queue"}, map[string]string(histogram.ConstLabels))
	assert.Equal(t, map[float64]float64{0.5: 0.05}, opt.GetSummaryOpts().Objectives)
	assert.True(t, opt.fullOnly)

	// Empty help falls back to the metric name.
	assert.Equal(t, "lease_sweeps (counters)", opt.GetCounterOpts().Help)
}

func TestWithoutSuffixKeepsRawName(t *testing.T) {
	opt := &mOpts{name: "up", help: "instance liveness"}
	WithoutSuffix()(opt)
	assert.Equal(t, "up", opt.GetGaugeOpts().Name)
	assert.Equal(t, "up", opt.GetCounterOpts().Name)
}

func TestOptsEnabledByMode(t *testing.T) {
	defer SetMode(ModeBasic)

	plain := &mOpts{name: "m"}
	fullOnly := &mOpts{name: "m", fullOnly: true}

	SetMode(ModeOff)
	assert.False(t, plain.enabled())
	assert.False(t, fullOnly.enabled())

	SetMode(ModeBasic)
	assert.True(t, plain.enabled())
	assert.False(t, fullOnly.enabled())

	SetMode(ModeFull)
	assert.True(t, plain.enabled())
	assert.True(t, fullOnly.enabled())
}
