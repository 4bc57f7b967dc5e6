// Copyright (C) 2025-2026, Advanced Micro Devices, Inc. All rights reserved.
// See LICENSE for license information.

package metrics

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"
)

type GaugeVec struct {
	opt    *mOpts
	labels []string

	once   sync.Once
	gauges *prometheus.GaugeVec
}

func NewGaugeVec(metricsName, help string, labels []string, opts ...OptsFunc) *GaugeVec {
	opt := &mOpts{
		name: metricsName,
		help: help,
	}
	for _, optsFunc := range opts {
		optsFunc(opt)
	}
	return &GaugeVec{opt: opt, labels: labels}
}

func (self *GaugeVec) vec() *prometheus.GaugeVec {
	self.once.Do(func() {
		if !self.opt.enabled() {
			return
		}
		cc := prometheus.NewGaugeVec(self.opt.GetGaugeOpts(), self.labels)
		self.gauges = register(cc).(*prometheus.GaugeVec)
	})
	return self.gauges
}

func (self *GaugeVec) Inc(labels ...string) {
	if g := self.vec(); g != nil {
		g.WithLabelValues(labels...).Inc()
	}
}

func (self *GaugeVec) Add(v float64, labels ...string) {
	if g := self.vec(); g != nil {
		g.WithLabelValues(labels...).Add(v)
	}
}

func (self *GaugeVec) Dec(labels ...string) {
	if g := self.vec(); g != nil {
		g.WithLabelValues(labels...).Dec()
	}
}

func (self *GaugeVec) Sub(v float64, labels ...string) {
	if g := self.vec(); g != nil {
		g.WithLabelValues(labels...).Sub(v)
	}
}

func (self *GaugeVec) Set(v float64, labels ...string) {
	if g := self.vec(); g != nil {
		g.WithLabelValues(labels...).Set(v)
	}
}

func (self *GaugeVec) Delete(labels ...string) {
	if g := self.vec(); g != nil {
		g.DeleteLabelValues(labels...)
	}
}
