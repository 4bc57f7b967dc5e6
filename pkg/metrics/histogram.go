// Copyright (C) 2025-2026, Advanced Micro Devices, Inc. All rights reserved.
// See LICENSE for license information.

package metrics

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"
)

type HistogramVec struct {
	opt    *mOpts
	labels []string

	once      sync.Once
	histogram *prometheus.HistogramVec
}

func NewHistogramVec(metricsName, help string, labels []string, opts ...OptsFunc) *HistogramVec {
	opt := &mOpts{
		name:    metricsName,
		help:    help,
		buckets: defaultTimerBuckets,
	}
	for _, optsFunc := range opts {
		optsFunc(opt)
	}
	return &HistogramVec{opt: opt, labels: labels}
}

func (self *HistogramVec) vec() *prometheus.HistogramVec {
	self.once.Do(func() {
		if !self.opt.enabled() {
			return
		}
		cc := prometheus.NewHistogramVec(self.opt.GetHistogramOpts(), self.labels)
		self.histogram = register(cc).(*prometheus.HistogramVec)
	})
	return self.histogram
}

func (self *HistogramVec) Observe(v float64, labels ...string) {
	if h := self.vec(); h != nil {
		h.WithLabelValues(labels...).Observe(v)
	}
}

func (self *HistogramVec) Delete(labels ...string) {
	if h := self.vec(); h != nil {
		h.DeleteLabelValues(labels...)
	}
}
