// Copyright (C) 2025-2026, Advanced Micro Devices, Inc. All rights reserved.
// See LICENSE for license information.

package activity

import (
	"context"
	"sync"
	"time"

	"github.com/cenkalti/backoff/v4"

	"github.com/AMD-AGI/voyant/pkg/breaker"
	"github.com/AMD-AGI/voyant/pkg/errors"
	"github.com/AMD-AGI/voyant/pkg/logger/log"
	"github.com/AMD-AGI/voyant/pkg/metrics"
)

var (
	invocationCounter = metrics.NewCounterVec("activity_invocations", "activity attempts by outcome", []string{"activity", "outcome"})
	durationTimer     = metrics.NewTimer("activity_duration_seconds", "activity attempt wall time", []string{"activity"}, metrics.WithFullOnly())
)

// DefaultHeartbeatTimeout is how stale a heartbeat may be before the
// attempt is failed.
const DefaultHeartbeatTimeout = 60 * time.Second

// Executor invokes registered activities with retry, timeout,
// heartbeat supervision and per-service circuit breaking.
type Executor struct {
	registry         *Registry
	breakers         *breaker.Registry
	heartbeatTimeout time.Duration

	mu      sync.Mutex
	history map[string][]*Invocation
}

func NewExecutor(registry *Registry, breakers *breaker.Registry, heartbeatTimeout time.Duration) *Executor {
	if heartbeatTimeout <= 0 {
		heartbeatTimeout = DefaultHeartbeatTimeout
	}
	return &Executor{
		registry:         registry,
		breakers:         breakers,
		heartbeatTimeout: heartbeatTimeout,
		history:          map[string][]*Invocation{},
	}
}

// Execute runs the named activity until it succeeds, exhausts its
// retry policy, or hits a non-retryable failure. Cancellation is
// delivered between attempts and through the attempt context.
func (e *Executor) Execute(ctx context.Context, jobID, name string, input map[string]interface{}) (map[string]interface{}, error) {
	def, err := e.registry.Get(name)
	if err != nil {
		return nil, err
	}
	policy := def.Policy
	if policy == nil {
		policy = DefaultRetryPolicy()
	}

	wait := backoff.NewExponentialBackOff()
	wait.InitialInterval = policy.InitialInterval
	wait.MaxInterval = policy.MaxInterval
	wait.Multiplier = policy.Multiplier
	wait.MaxElapsedTime = 0

	var lastErr error
	for attempt := 1; attempt <= policy.MaxAttempts; attempt++ {
		inv := &Invocation{
			JobID:        jobID,
			ActivityName: name,
			Attempt:      attempt,
			StartedAt:    time.Now(),
			InputHash:    HashInput(input),
			Status:       InvocationRunning,
			Input:        input,
		}
		e.record(inv)

		output, err := e.runAttempt(ctx, def, inv)
		if err == nil {
			inv.Status = InvocationCompleted
			invocationCounter.Inc(name, "completed")
			return output, nil
		}
		lastErr = err
		switch {
		case errors.IsTimeout(err):
			inv.Status = InvocationTimedOut
		case errors.IsCancelled(err):
			inv.Status = InvocationCancelled
		default:
			inv.Status = InvocationFailed
		}
		invocationCounter.Inc(name, inv.Status)

		if !retryable(err, policy) || attempt == policy.MaxAttempts {
			break
		}
		log.Warnf("activity %s attempt %d/%d failed, retrying: %v", name, attempt, policy.MaxAttempts, err)
		select {
		case <-ctx.Done():
			return nil, errors.NewCancelledError("activity " + name)
		case <-time.After(wait.NextBackOff()):
		}
	}
	return nil, lastErr
}

func (e *Executor) runAttempt(ctx context.Context, def *Definition, inv *Invocation) (map[string]interface{}, error) {
	var guard *breaker.Breaker
	if def.Service != "" && e.breakers != nil {
		guard = e.breakers.Get(def.Service)
		if err := guard.Allow(); err != nil {
			return nil, err
		}
	}

	attemptCtx := ctx
	cancel := context.CancelFunc(func() {})
	if def.StartToClose > 0 {
		attemptCtx, cancel = context.WithTimeout(ctx, def.StartToClose)
	} else {
		attemptCtx, cancel = context.WithCancel(ctx)
	}
	defer cancel()

	stop := durationTimer.Timer()
	output, err := e.supervise(attemptCtx, cancel, def, inv)
	stop(def.Name)

	if guard != nil {
		if err != nil {
			guard.RecordFailure()
		} else {
			guard.RecordSuccess()
		}
	}
	return output, err
}

type attemptResult struct {
	output map[string]interface{}
	err    error
}

// supervise runs the activity body and watches the attempt context
// and, for heartbeating activities, heartbeat staleness.
func (e *Executor) supervise(ctx context.Context, cancel context.CancelFunc, def *Definition, inv *Invocation) (map[string]interface{}, error) {
	done := make(chan attemptResult, 1)
	go func() {
		output, err := def.Fn(ctx, inv)
		done <- attemptResult{output: output, err: err}
	}()

	var watchdog <-chan time.Time
	var ticker *time.Ticker
	if def.Heartbeats {
		ticker = time.NewTicker(e.heartbeatTimeout / 4)
		defer ticker.Stop()
		watchdog = ticker.C
	}

	for {
		select {
		case result := <-done:
			if result.err != nil {
				return nil, e.classify(ctx, def, result.err)
			}
			return result.output, nil
		case <-watchdog:
			if time.Since(inv.LastHeartbeat()) > e.heartbeatTimeout {
				cancel()
				e.awaitExit(done)
				return nil, errors.NewTimeoutError("activity " + def.Name + " heartbeat")
			}
		case <-ctx.Done():
			// Bounded grace for the cooperative cleanup path.
			select {
			case result := <-done:
				if result.err == nil {
					return result.output, nil
				}
				return nil, e.classify(ctx, def, result.err)
			case <-time.After(cancelGrace):
				return nil, e.classify(ctx, def, ctx.Err())
			}
		}
	}
}

// cancelGrace bounds how long a cancelled activity may run its
// cleanup path before the executor stops waiting for it.
const cancelGrace = 5 * time.Second

// historyLimit caps how many invocation records a single job retains.
// A scrape over thousands of URLs would otherwise hold every attempt
// in memory until release.
const historyLimit = 500

// awaitExit drains the body's result without blocking past the grace
// period. The done channel is buffered, so a late finisher does not
// leak either way.
func (e *Executor) awaitExit(done <-chan attemptResult) {
	select {
	case <-done:
	case <-time.After(cancelGrace):
	}
}

func (e *Executor) classify(ctx context.Context, def *Definition, err error) error {
	if errors.CodeOf(err) != "" {
		return err
	}
	switch ctx.Err() {
	case context.DeadlineExceeded:
		return errors.NewTimeoutError("activity " + def.Name)
	case context.Canceled:
		return errors.NewCancelledError("activity " + def.Name)
	}
	return err
}

func retryable(err error, policy *RetryPolicy) bool {
	code := errors.CodeOf(err)
	for _, blocked := range policy.NonRetryableCodes {
		if code == blocked {
			return false
		}
	}
	return errors.IsRetryable(err)
}

func (e *Executor) record(inv *Invocation) {
	e.mu.Lock()
	defer e.mu.Unlock()
	records := append(e.history[inv.JobID], inv)
	if len(records) > historyLimit {
		records = records[len(records)-historyLimit:]
	}
	e.history[inv.JobID] = records
}

// History returns the most recent invocation records for a job, oldest
// first. Older records past the retention cap are dropped.
func (e *Executor) History(jobID string) []*Invocation {
	e.mu.Lock()
	defer e.mu.Unlock()
	return append([]*Invocation{}, e.history[jobID]...)
}

// ClearHistory drops a job's invocation records after release.
func (e *Executor) ClearHistory(jobID string) {
	e.mu.Lock()
	defer e.mu.Unlock()
	delete(e.history, jobID)
}
