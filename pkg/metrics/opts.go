// Copyright (C) 2025-2026, Advanced Micro Devices, Inc. All rights reserved.
// See LICENSE for license information.

package metrics

import (
	"fmt"

	"github.com/prometheus/client_golang/prometheus"
)

const DefaultMetricsNamespace = "voyant"

type mOpts struct {
	name          string
	help          string
	namespace     *string
	buckets       []float64
	labels        map[string]string
	quantile      map[float64]float64
	withoutSuffix bool
	fullOnly      bool
}

type OptsFunc func(*mOpts)

func WithNamespace(namespace string) OptsFunc {
	return func(o *mOpts) {
		o.namespace = &namespace
	}
}

func WithBuckets(buckets []float64) OptsFunc {
	return func(o *mOpts) {
		o.buckets = buckets
	}
}

func WithLabels(labels map[string]string) OptsFunc {
	return func(o *mOpts) {
		o.labels = labels
	}
}

func WithQuantile(quantile map[float64]float64) OptsFunc {
	return func(o *mOpts) {
		o.quantile = quantile
	}
}

func WithoutSuffix() OptsFunc {
	return func(o *mOpts) {
		o.withoutSuffix = true
	}
}

// WithFullOnly marks a metric family that is only registered when the
// metrics mode is "full".
func WithFullOnly() OptsFunc {
	return func(o *mOpts) {
		o.fullOnly = true
	}
}

func (o *mOpts) metricName(suffix string) string {
	if o.withoutSuffix {
		return o.name
	}
	return o.name + suffix
}

func (o *mOpts) metricNamespace() string {
	if o.namespace != nil {
		return *o.namespace
	}
	return DefaultMetricsNamespace
}

func (o *mOpts) metricHelp(kind string) string {
	help := o.help
	if help == "" {
		help = o.name
	}
	return fmt.Sprintf("%s (%s)", help, kind)
}

func (o *mOpts) constLabels() prometheus.Labels {
	if o.labels == nil {
		return nil
	}
	return prometheus.Labels(o.labels)
}

func (o *mOpts) GetCounterOpts() prometheus.CounterOpts {
	return prometheus.CounterOpts{
		Namespace:   o.metricNamespace(),
		Name:        o.metricName("_c"),
		Help:        o.metricHelp("counters"),
		ConstLabels: o.constLabels(),
	}
}

func (o *mOpts) GetGaugeOpts() prometheus.GaugeOpts {
	return prometheus.GaugeOpts{
		Namespace:   o.metricNamespace(),
		Name:        o.metricName("_g"),
		Help:        o.metricHelp("gauge"),
		ConstLabels: o.constLabels(),
	}
}

func (o *mOpts) GetHistogramOpts() prometheus.HistogramOpts {
	return prometheus.HistogramOpts{
		Namespace:   o.metricNamespace(),
		Name:        o.metricName("_h"),
		Help:        o.metricHelp("histogram"),
		ConstLabels: o.constLabels(),
		Buckets:     o.buckets,
	}
}

func (o *mOpts) GetSummaryOpts() prometheus.SummaryOpts {
	return prometheus.SummaryOpts{
		Namespace:   o.metricNamespace(),
		Name:        o.metricName("_s"),
		Help:        o.metricHelp("summary"),
		ConstLabels: o.constLabels(),
		Objectives:  o.quantile,
	}
}
