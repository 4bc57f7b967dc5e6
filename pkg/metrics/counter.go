// Copyright (C) 2025-2026, Advanced Micro Devices, Inc. All rights reserved.
// See LICENSE for license information.

package metrics

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"
)

type CounterVec struct {
	opt    *mOpts
	labels []string

	once     sync.Once
	counters *prometheus.CounterVec
}

func NewCounterVec(metricsName, help string, labels []string, opts ...OptsFunc) *CounterVec {
	opt := &mOpts{
		name: metricsName,
		help: help,
	}
	for _, optsFunc := range opts {
		optsFunc(opt)
	}
	return &CounterVec{opt: opt, labels: labels}
}

// vec registers the collector on first use so the gating decision sees
// the mode configured at startup, not the package-init default.
func (self *CounterVec) vec() *prometheus.CounterVec {
	self.once.Do(func() {
		if !self.opt.enabled() {
			return
		}
		cc := prometheus.NewCounterVec(self.opt.GetCounterOpts(), self.labels)
		self.counters = register(cc).(*prometheus.CounterVec)
	})
	return self.counters
}

func (self *CounterVec) Inc(labels ...string) {
	if c := self.vec(); c != nil {
		c.WithLabelValues(labels...).Inc()
	}
}

func (self *CounterVec) Add(count float64, labels ...string) {
	if c := self.vec(); c != nil {
		c.WithLabelValues(labels...).Add(count)
	}
}

func (self *CounterVec) Delete(labels ...string) {
	if c := self.vec(); c != nil {
		c.DeleteLabelValues(labels...)
	}
}
