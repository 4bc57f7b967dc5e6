// Copyright (C) 2025-2026, Advanced Micro Devices, Inc. All rights reserved.
// See LICENSE for license information.

package breaker

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/AMD-AGI/voyant/pkg/errors"
	"github.com/AMD-AGI/voyant/pkg/idgen"
)

func newTestBreaker(name string) (*Breaker, *idgen.FakeClock) {
	clock := idgen.NewFakeClock(time.Date(2026, 4, 1, 9, 0, 0, 0, time.UTC))
	b := New(name, Config{
		FailureThreshold: 3,
		OpenTimeout:      10 * time.Second,
		SuccessThreshold: 2,
	}, clock)
	return b, clock
}

func TestBreakerOpensAtFailureThreshold(t *testing.T) {
	b, _ := newTestBreaker("llm")

	b.RecordFailure()
	b.RecordFailure()
	assert.Equal(t, StateClosed, b.State())

	b.RecordFailure()
	assert.Equal(t, StateOpen, b.State())
	assert.True(t, errors.IsCircuitOpen(b.Allow()))
}

func TestBreakerSuccessResetsFailureStreak(t *testing.T) {
	b, _ := newTestBreaker("llm")

	b.RecordFailure()
	b.RecordFailure()
	b.RecordSuccess()
	b.RecordFailure()
	b.RecordFailure()
	assert.Equal(t, StateClosed, b.State(), "non-consecutive failures must not open the breaker")
}

func TestBreakerHalfOpenProbeCycle(t *testing.T) {
	b, clock := newTestBreaker("scraper")

	for i := 0; i < 3; i++ {
		b.RecordFailure()
	}
	require.Equal(t, StateOpen, b.State())

	// Before the timeout elapses calls stay blocked.
	clock.Advance(9 * time.Second)
	assert.Error(t, b.Allow())

	clock.Advance(time.Second)
	assert.NoError(t, b.Allow(), "first call after timeout passes through")
	assert.Equal(t, StateHalfOpen, b.State())

	b.RecordSuccess()
	assert.Equal(t, StateHalfOpen, b.State())
	b.RecordSuccess()
	assert.Equal(t, StateClosed, b.State())
}

func TestBreakerHalfOpenBoundsInFlightProbes(t *testing.T) {
	b, clock := newTestBreaker("scraper")

	for i := 0; i < 3; i++ {
		b.RecordFailure()
	}
	clock.Advance(10 * time.Second)
	require.Equal(t, StateHalfOpen, b.State())

	// SuccessThreshold probes may be in flight; the rest are rejected
	// until an outcome frees a slot.
	assert.NoError(t, b.Allow())
	assert.NoError(t, b.Allow())
	assert.True(t, errors.IsCircuitOpen(b.Allow()), "a stampede must not reach the recovering service")

	b.RecordSuccess()
	assert.NoError(t, b.Allow())
	assert.Equal(t, StateHalfOpen, b.State())
}

func TestBreakerHalfOpenFailureReopens(t *testing.T) {
	b, clock := newTestBreaker("scraper")

	for i := 0; i < 3; i++ {
		b.RecordFailure()
	}
	clock.Advance(10 * time.Second)
	require.Equal(t, StateHalfOpen, b.State())

	b.RecordFailure()
	assert.Equal(t, StateOpen, b.State())

	// The reopen restarts the open timeout.
	clock.Advance(5 * time.Second)
	assert.Error(t, b.Allow())
	clock.Advance(5 * time.Second)
	assert.NoError(t, b.Allow())
}

func TestBreakerManualReset(t *testing.T) {
	b, _ := newTestBreaker("db")
	for i := 0; i < 3; i++ {
		b.RecordFailure()
	}
	require.Equal(t, StateOpen, b.State())

	b.Reset()
	assert.Equal(t, StateClosed, b.State())
	assert.NoError(t, b.Allow())
}

func TestBreakerTransitionLogBounded(t *testing.T) {
	b, clock := newTestBreaker("flappy")

	// Drive many full cycles so the log wraps.
	for cycle := 0; cycle < 8; cycle++ {
		for i := 0; i < 3; i++ {
			b.RecordFailure()
		}
		clock.Advance(10 * time.Second)
		require.Equal(t, StateHalfOpen, b.State())
		b.RecordSuccess()
		b.RecordSuccess()
		require.Equal(t, StateClosed, b.State())
	}

	transitions := b.Transitions()
	assert.Len(t, transitions, 10)
	for i := 1; i < len(transitions); i++ {
		assert.False(t, transitions[i].At.Before(transitions[i-1].At))
		assert.Equal(t, transitions[i-1].To, transitions[i].From, "transition chain must be contiguous")
	}
}

func TestBreakerExecute(t *testing.T) {
	b, _ := newTestBreaker("api")
	ctx := context.Background()

	boom := fmt.Errorf("boom")
	for i := 0; i < 3; i++ {
		err := b.Execute(ctx, func(ctx context.Context) error { return boom })
		assert.Equal(t, boom, err)
	}

	err := b.Execute(ctx, func(ctx context.Context) error { return nil })
	assert.True(t, errors.IsCircuitOpen(err), "call while open is rejected without running fn")
}

func TestRegistryCreatesPerName(t *testing.T) {
	clock := idgen.NewFakeClock(time.Now())
	reg := NewRegistry(DefaultConfig(), clock)

	a := reg.Get("llm")
	b := reg.Get("scraper")
	assert.NotSame(t, a, b)
	assert.Same(t, a, reg.Get("llm"))
	assert.Equal(t, []string{"llm", "scraper"}, reg.Names())
}

func TestRegistryConfigure(t *testing.T) {
	clock := idgen.NewFakeClock(time.Now())
	reg := NewRegistry(DefaultConfig(), clock)
	reg.Configure("fragile", Config{FailureThreshold: 1, OpenTimeout: time.Minute, SuccessThreshold: 1})

	b := reg.Get("fragile")
	b.RecordFailure()
	assert.Equal(t, StateOpen, b.State())

	reg.ResetAll()
	assert.Equal(t, StateClosed, b.State())
}
