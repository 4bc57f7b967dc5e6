// Copyright (C) 2025-2026, Advanced Micro Devices, Inc. All rights reserved.
// See LICENSE for license information.

package metrics

import (
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

var (
	defaultTimerBuckets = []float64{.0001, .0005, .001, .005, .01, .025, .05, .1, .5, 1, 2.5, 5, 10, 60, 600, 3600}
	defaultTimerQuantiles = map[float64]float64{
		0.5:  0.05,
		0.9:  0.01,
		0.99: 0.001,
	}
)

// Timer records durations into a paired summary and histogram.
type Timer struct {
	opt    *mOpts
	labels []string

	once       sync.Once
	summaries  *prometheus.SummaryVec
	histograms *prometheus.HistogramVec
}

func NewTimer(metricsName, help string, labels []string, opts ...OptsFunc) *Timer {
	opt := &mOpts{
		name:     metricsName,
		help:     help,
		buckets:  defaultTimerBuckets,
		quantile: defaultTimerQuantiles,
	}
	for _, optsFunc := range opts {
		optsFunc(opt)
	}
	return &Timer{opt: opt, labels: labels}
}

func (self *Timer) vecs() (*prometheus.SummaryVec, *prometheus.HistogramVec) {
	self.once.Do(func() {
		if !self.opt.enabled() {
			return
		}
		sc := prometheus.NewSummaryVec(self.opt.GetSummaryOpts(), self.labels)
		hc := prometheus.NewHistogramVec(self.opt.GetHistogramOpts(), self.labels)
		self.summaries = register(sc).(*prometheus.SummaryVec)
		self.histograms = register(hc).(*prometheus.HistogramVec)
	})
	return self.summaries, self.histograms
}

// Timer starts a measurement. The returned function stops it and
// records the elapsed seconds under the given label values.
func (self *Timer) Timer() func(labels ...string) {
	start := time.Now()
	return func(labels ...string) {
		self.Observe(time.Since(start).Seconds(), labels...)
	}
}

func (self *Timer) Observe(seconds float64, labels ...string) {
	summaries, histograms := self.vecs()
	if summaries == nil {
		return
	}
	summaries.WithLabelValues(labels...).Observe(seconds)
	histograms.WithLabelValues(labels...).Observe(seconds)
}
