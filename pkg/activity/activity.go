// Copyright (C) 2025-2026, Advanced Micro Devices, Inc. All rights reserved.
// See LICENSE for license information.

// Package activity runs the non-deterministic side-effectful units a
// workflow sequences. Every invocation gets a start-to-close timeout,
// a retry policy with jittered backoff and, when the activity names
// an external service, a circuit breaker around the call.
package activity

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"sync"
	"time"
)

// Func is the activity body. Implementations read their input from
// the invocation and call Heartbeat on long stretches of work.
type Func func(ctx context.Context, inv *Invocation) (map[string]interface{}, error)

// Definition declares an activity to the registry.
type Definition struct {
	Name string
	// Service names the circuit breaker guarding the external call.
	// Empty means the activity touches no external service.
	Service string
	// StartToClose bounds a single attempt. Zero means no timeout.
	StartToClose time.Duration
	// Heartbeats enables the stale-heartbeat watchdog.
	Heartbeats bool
	Policy     *RetryPolicy
	Fn         Func
}

// RetryPolicy controls re-invocation after retryable failures.
type RetryPolicy struct {
	InitialInterval   time.Duration
	MaxInterval       time.Duration
	MaxAttempts       int
	Multiplier        float64
	NonRetryableCodes []string
}

func DefaultRetryPolicy() *RetryPolicy {
	return &RetryPolicy{
		InitialInterval: time.Second,
		MaxInterval:     time.Minute,
		MaxAttempts:     3,
		Multiplier:      2.0,
	}
}

// Invocation statuses.
const (
	InvocationRunning   = "running"
	InvocationCompleted = "completed"
	InvocationFailed    = "failed"
	InvocationTimedOut  = "timed_out"
	InvocationCancelled = "cancelled"
)

// Invocation is the per-attempt record the executor keeps. It is
// handed to the activity body for input access and heartbeating.
type Invocation struct {
	JobID        string                 `json:"job_id"`
	ActivityName string                 `json:"activity_name"`
	Attempt      int                    `json:"attempt"`
	StartedAt    time.Time              `json:"started_at"`
	InputHash    string                 `json:"input_hash"`
	Status       string                 `json:"status"`
	Input        map[string]interface{} `json:"-"`

	mu          sync.Mutex
	heartbeatAt time.Time
}

// Heartbeat marks the invocation alive. Activities doing long work
// call this at checkpoints; a heartbeat older than the configured
// timeout fails the attempt.
func (inv *Invocation) Heartbeat() {
	inv.mu.Lock()
	inv.heartbeatAt = time.Now()
	inv.mu.Unlock()
}

// LastHeartbeat returns the most recent heartbeat, or StartedAt when
// none has been recorded.
func (inv *Invocation) LastHeartbeat() time.Time {
	inv.mu.Lock()
	defer inv.mu.Unlock()
	if inv.heartbeatAt.IsZero() {
		return inv.StartedAt
	}
	return inv.heartbeatAt
}

// HashInput fingerprints the activity input so repeated attempts of
// the same logical call are recognizable in the invocation history.
func HashInput(input map[string]interface{}) string {
	raw, err := json.Marshal(input)
	if err != nil {
		return ""
	}
	sum := sha256.Sum256(raw)
	return hex.EncodeToString(sum[:])
}
