// Copyright (C) 2025-2026, Advanced Micro Devices, Inc. All rights reserved.
// See LICENSE for license information.

package metrics

import (
	"sync"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func gatherGauge(t *testing.T, family string) map[string]float64 {
	t.Helper()
	mfs, err := prometheus.DefaultGatherer.Gather()
	require.NoError(t, err)
	values := map[string]float64{}
	for _, mf := range mfs {
		if mf.GetName() != family {
			continue
		}
		for _, m := range mf.GetMetric() {
			key := ""
			for _, label := range m.GetLabel() {
				key += label.GetValue() + ","
			}
			values[key] = m.GetGauge().GetValue()
		}
	}
	return values
}

func TestGaugeVecRegistersLazily(t *testing.T) {
	gauge := NewGaugeVec("test_gauge_lazy", "lazy registration", []string{"tenant"})
	assert.Nil(t, gauge.gauges, "nothing registered until first use")

	gauge.Set(3, "acme")
	require.NotNil(t, gauge.gauges)
	values := gatherGauge(t, "voyant_test_gauge_lazy_g")
	assert.Equal(t, float64(3), values["acme,"])
}

func TestGaugeVecArithmetic(t *testing.T) {
	gauge := NewGaugeVec("test_gauge_arith", "arithmetic ops", []string{"tenant"})

	gauge.Set(10, "acme")
	gauge.Inc("acme")
	gauge.Add(4.5, "acme")
	gauge.Dec("acme")
	gauge.Sub(2.5, "acme")
	gauge.Inc("globex")

	values := gatherGauge(t, "voyant_test_gauge_arith_g")
	assert.InDelta(t, 12.0, values["acme,"], 0.001)
	assert.Equal(t, float64(1), values["globex,"])
}

func TestGaugeVecDelete(t *testing.T) {
	gauge := NewGaugeVec("test_gauge_del", "label deletion", []string{"tenant"})
	gauge.Set(1, "acme")
	gauge.Set(2, "globex")

	gauge.Delete("globex")

	values := gatherGauge(t, "voyant_test_gauge_del_g")
	assert.Contains(t, values, "acme,")
	assert.NotContains(t, values, "globex,")
}

func TestGaugeVecMultipleLabels(t *testing.T) {
	gauge := NewGaugeVec("test_gauge_pair", "two labels", []string{"tenant", "state"})
	gauge.Set(5, "acme", "queued")
	gauge.Set(2, "acme", "running")

	values := gatherGauge(t, "voyant_test_gauge_pair_g")
	assert.Equal(t, float64(5), values["acme,queued,"])
	assert.Equal(t, float64(2), values["acme,running,"])
}

// A vector built at package init honors the mode configured later,
// as long as it is set before the first recording.
func TestGaugeVecHonorsModeSetAfterConstruction(t *testing.T) {
	defer SetMode(ModeBasic)

	gauge := NewGaugeVec("test_gauge_mode_late", "mode after init", []string{"tenant"})
	SetMode(ModeOff)
	gauge.Set(7, "acme")

	assert.Nil(t, gauge.gauges)
	assert.Empty(t, gatherGauge(t, "voyant_test_gauge_mode_late_g"))

	// The gating decision sticks once taken.
	SetMode(ModeBasic)
	gauge.Set(7, "acme")
	assert.Nil(t, gauge.gauges)
}

func TestGaugeVecConcurrentFirstUse(t *testing.T) {
	gauge := NewGaugeVec("test_gauge_racefree", "concurrent init", []string{"tenant"})

	var wg sync.WaitGroup
	for i := 0; i < 10; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < 100; j++ {
				gauge.Inc("acme")
			}
		}()
	}
	wg.Wait()

	values := gatherGauge(t, "voyant_test_gauge_racefree_g")
	assert.Equal(t, float64(1000), values["acme,"])
}
