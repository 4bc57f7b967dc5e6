// Copyright (C) 2025-2026, Advanced Micro Devices, Inc. All rights reserved.
// See LICENSE for license information.

package metrics

import (
	"sync/atomic"

	"github.com/prometheus/client_golang/prometheus"
)

type Mode int32

const (
	ModeOff Mode = iota
	ModeBasic
	ModeFull
)

var currentMode atomic.Int32

func init() {
	currentMode.Store(int32(ModeBasic))
}

// SetMode selects which metric families are live. Vectors consult the
// mode lazily on first use, so package-level vectors built at init
// still honor the mode configured during startup. A vector that has
// already recorded keeps its gating decision.
func SetMode(mode Mode) {
	currentMode.Store(int32(mode))
}

func ParseMode(s string) Mode {
	switch s {
	case "off":
		return ModeOff
	case "full":
		return ModeFull
	default:
		return ModeBasic
	}
}

func CurrentMode() Mode {
	return Mode(currentMode.Load())
}

func (o *mOpts) enabled() bool {
	switch CurrentMode() {
	case ModeOff:
		return false
	case ModeBasic:
		return !o.fullOnly
	default:
		return true
	}
}

// register tolerates re-registration so that tests constructing the
// same vectors repeatedly reuse the live collector.
func register(c prometheus.Collector) prometheus.Collector {
	if err := prometheus.Register(c); err != nil {
		if are, ok := err.(prometheus.AlreadyRegisteredError); ok {
			return are.ExistingCollector
		}
		panic(err)
	}
	return c
}
