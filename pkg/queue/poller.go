// Copyright (C) 2025-2026, Advanced Micro Devices, Inc. All rights reserved.
// See LICENSE for license information.

package queue

import (
	"context"
	"time"

	"github.com/AMD-AGI/voyant/pkg/errors"
)

// Poller waits for jobs to reach a terminal status. Synchronous
// callers of the admission API use it instead of re-polling the
// status endpoint themselves.
type Poller struct {
	queue  *Queue
	config *PollerConfig
}

type PollerConfig struct {
	InitialInterval time.Duration
	MaxInterval     time.Duration
	Multiplier      float64
	DefaultTimeout  time.Duration
}

func DefaultPollerConfig() *PollerConfig {
	return &PollerConfig{
		InitialInterval: 100 * time.Millisecond,
		MaxInterval:     5 * time.Second,
		Multiplier:      1.5,
		DefaultTimeout:  5 * time.Minute,
	}
}

func NewPoller(queue *Queue, config *PollerConfig) *Poller {
	if config == nil {
		config = DefaultPollerConfig()
	}
	return &Poller{queue: queue, config: config}
}

// WaitForTerminal polls until the job reaches a terminal status or
// the default timeout passes, and returns the final snapshot.
func (p *Poller) WaitForTerminal(ctx context.Context, jobID string) (*Job, error) {
	return p.WaitForTerminalWithTimeout(ctx, jobID, p.config.DefaultTimeout)
}

// WaitForTerminalWithTimeout polls with a caller-supplied timeout. The
// poll interval grows by the configured multiplier up to MaxInterval.
func (p *Poller) WaitForTerminalWithTimeout(ctx context.Context, jobID string, timeout time.Duration) (*Job, error) {
	deadline := time.Now().Add(timeout)
	interval := p.config.InitialInterval

	for {
		if time.Now().After(deadline) {
			return nil, errors.NewTimeoutError("waiting for job " + jobID)
		}
		job, ok := p.queue.Get(jobID)
		if !ok {
			return nil, errors.NewNotFoundError("job", jobID)
		}
		if job.Status.IsTerminal() {
			return job, nil
		}
		select {
		case <-ctx.Done():
			return nil, errors.NewCancelledError("waiting for job " + jobID)
		case <-time.After(interval):
		}
		interval = time.Duration(float64(interval) * p.config.Multiplier)
		if interval > p.config.MaxInterval {
			interval = p.config.MaxInterval
		}
	}
}

// WaitForMany waits for a set of jobs and returns whichever terminal
// snapshots were reached before the timeout, keyed by job id.
func (p *Poller) WaitForMany(ctx context.Context, jobIDs []string, timeout time.Duration) (map[string]*Job, error) {
	deadline := time.Now().Add(timeout)
	results := make(map[string]*Job)
	pending := make(map[string]bool, len(jobIDs))
	for _, id := range jobIDs {
		pending[id] = true
	}
	interval := p.config.InitialInterval

	for len(pending) > 0 {
		if time.Now().After(deadline) {
			return results, errors.NewTimeoutError("waiting for jobs")
		}
		for jobID := range pending {
			job, ok := p.queue.Get(jobID)
			if !ok {
				delete(pending, jobID)
				continue
			}
			if job.Status.IsTerminal() {
				results[jobID] = job
				delete(pending, jobID)
			}
		}
		if len(pending) == 0 {
			break
		}
		select {
		case <-ctx.Done():
			return results, errors.NewCancelledError("waiting for jobs")
		case <-time.After(interval):
		}
		interval = time.Duration(float64(interval) * p.config.Multiplier)
		if interval > p.config.MaxInterval {
			interval = p.config.MaxInterval
		}
	}
	return results, nil
}
