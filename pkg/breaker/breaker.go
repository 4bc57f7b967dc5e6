// Copyright (C) 2025-2026, Advanced Micro Devices, Inc. All rights reserved.
// See LICENSE for license information.

// Package breaker guards calls to external collaborators. Each named
// breaker walks closed -> open -> half_open -> closed and keeps a short
// log of its transitions for the debug surface.
package breaker

import (
	"context"
	"sync"
	"time"

	"github.com/AMD-AGI/voyant/pkg/errors"
	"github.com/AMD-AGI/voyant/pkg/idgen"
	"github.com/AMD-AGI/voyant/pkg/metrics"
)

type State string

const (
	StateClosed   State = "closed"
	StateOpen     State = "open"
	StateHalfOpen State = "half_open"
)

const transitionLogSize = 10

var (
	transitionCounter = metrics.NewCounterVec("breaker_transitions", "breaker state transitions", []string{"breaker", "to"})
	stateGauge        = metrics.NewGaugeVec("breaker_state", "breaker state (0 closed, 1 open, 2 half_open)", []string{"breaker"})
)

type Config struct {
	FailureThreshold int
	OpenTimeout      time.Duration
	SuccessThreshold int
}

func DefaultConfig() Config {
	return Config{
		FailureThreshold: 5,
		OpenTimeout:      30 * time.Second,
		SuccessThreshold: 2,
	}
}

type Transition struct {
	From State
	To   State
	At   time.Time
}

type Breaker struct {
	name  string
	cfg   Config
	clock idgen.Clock

	mu           sync.Mutex
	state        State
	failureCount int
	successCount int
	probes       int
	openedAt     time.Time
	transitions  []Transition
}

func New(name string, cfg Config, clock idgen.Clock) *Breaker {
	if cfg.FailureThreshold <= 0 {
		cfg.FailureThreshold = DefaultConfig().FailureThreshold
	}
	if cfg.OpenTimeout <= 0 {
		cfg.OpenTimeout = DefaultConfig().OpenTimeout
	}
	if cfg.SuccessThreshold <= 0 {
		cfg.SuccessThreshold = DefaultConfig().SuccessThreshold
	}
	if clock == nil {
		clock = idgen.RealClock{}
	}
	return &Breaker{
		name:  name,
		cfg:   cfg,
		clock: clock,
		state: StateClosed,
	}
}

func (b *Breaker) Name() string {
	return b.name
}

// State reports the current state, lazily moving open to half_open
// once the open timeout has elapsed.
func (b *Breaker) State() State {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.refreshLocked()
	return b.state
}

func (b *Breaker) refreshLocked() {
	if b.state == StateOpen && b.clock.Now().Sub(b.openedAt) >= b.cfg.OpenTimeout {
		b.transitionLocked(StateHalfOpen)
	}
}

// Allow reports whether a call may proceed right now. Half_open admits
// at most SuccessThreshold probes in flight; each recorded outcome
// frees its slot.
func (b *Breaker) Allow() error {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.refreshLocked()
	switch b.state {
	case StateOpen:
		return errors.NewCircuitOpenError(b.name)
	case StateHalfOpen:
		if b.probes >= b.cfg.SuccessThreshold {
			return errors.NewCircuitOpenError(b.name)
		}
		b.probes++
	}
	return nil
}

func (b *Breaker) RecordSuccess() {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.refreshLocked()
	switch b.state {
	case StateClosed:
		b.failureCount = 0
	case StateHalfOpen:
		if b.probes > 0 {
			b.probes--
		}
		b.successCount++
		if b.successCount >= b.cfg.SuccessThreshold {
			b.transitionLocked(StateClosed)
		}
	}
}

func (b *Breaker) RecordFailure() {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.refreshLocked()
	switch b.state {
	case StateClosed:
		b.failureCount++
		if b.failureCount >= b.cfg.FailureThreshold {
			b.transitionLocked(StateOpen)
		}
	case StateHalfOpen:
		if b.probes > 0 {
			b.probes--
		}
		// A single probe failure reopens immediately.
		b.transitionLocked(StateOpen)
	}
}

// Execute runs fn under the breaker. The call itself happens outside
// the lock.
func (b *Breaker) Execute(ctx context.Context, fn func(ctx context.Context) error) error {
	if err := b.Allow(); err != nil {
		return err
	}
	err := fn(ctx)
	if err != nil {
		b.RecordFailure()
		return err
	}
	b.RecordSuccess()
	return nil
}

// Reset forces the breaker back to closed and clears all counters.
func (b *Breaker) Reset() {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.state != StateClosed {
		b.transitionLocked(StateClosed)
	} else {
		b.failureCount = 0
		b.successCount = 0
	}
}

// Transitions returns the most recent transitions, oldest first.
func (b *Breaker) Transitions() []Transition {
	b.mu.Lock()
	defer b.mu.Unlock()
	out := make([]Transition, len(b.transitions))
	copy(out, b.transitions)
	return out
}

func (b *Breaker) transitionLocked(to State) {
	from := b.state
	b.state = to
	b.failureCount = 0
	b.successCount = 0
	b.probes = 0
	if to == StateOpen {
		b.openedAt = b.clock.Now()
	}
	b.transitions = append(b.transitions, Transition{From: from, To: to, At: b.clock.Now()})
	if len(b.transitions) > transitionLogSize {
		b.transitions = b.transitions[len(b.transitions)-transitionLogSize:]
	}
	transitionCounter.Inc(b.name, string(to))
	stateGauge.Set(stateValue(to), b.name)
}

func stateValue(s State) float64 {
	switch s {
	case StateOpen:
		return 1
	case StateHalfOpen:
		return 2
	default:
		return 0
	}
}
