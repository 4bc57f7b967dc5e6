// Copyright (C) 2025-2026, Advanced Micro Devices, Inc. All rights reserved.
// See LICENSE for license information.

// Package scheduler runs the periodic maintenance loops. Jobs are
// chained with SkipIfStillRunning so a slow sweep is skipped, never
// stacked.
package scheduler

import (
	"context"
	"sync"
	"time"

	"github.com/robfig/cron/v3"

	"github.com/AMD-AGI/voyant/pkg/errors"
	"github.com/AMD-AGI/voyant/pkg/logger/log"
	"github.com/AMD-AGI/voyant/pkg/metrics"
)

var tickCounter = metrics.NewCounterVec("scheduler_ticks", "scheduled job runs", []string{"job"})

type Scheduler struct {
	cron *cron.Cron

	mu      sync.Mutex
	baseCtx context.Context
	started bool
}

func New() *Scheduler {
	return &Scheduler{
		cron: cron.New(cron.WithChain(
			cron.SkipIfStillRunning(cron.DiscardLogger),
		)),
		baseCtx: context.Background(),
	}
}

// constantDelay fires every d exactly. The cron "@every" spec floors
// sub-second intervals to one second; scheduling directly keeps short
// sweep intervals honest.
type constantDelay time.Duration

func (d constantDelay) Next(t time.Time) time.Time {
	return t.Add(time.Duration(d))
}

// AddEvery schedules fn at a fixed interval. Must be called before
// Start.
func (s *Scheduler) AddEvery(name string, interval time.Duration, fn func(ctx context.Context)) error {
	if interval <= 0 {
		return errors.NewValidationError("scheduler job " + name + " needs a positive interval")
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.started {
		return errors.WrapMessage("scheduler already started", errors.CodeConflict)
	}
	s.cron.Schedule(constantDelay(interval), cron.FuncJob(func() {
		tickCounter.Inc(name)
		defer func() {
			if r := recover(); r != nil {
				log.Errorf("scheduled job %s panicked: %v", name, r)
			}
		}()
		fn(s.context())
	}))
	return nil
}

func (s *Scheduler) context() context.Context {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.baseCtx
}

func (s *Scheduler) Start(ctx context.Context) {
	s.mu.Lock()
	s.baseCtx = ctx
	s.started = true
	s.mu.Unlock()
	s.cron.Start()
}

// Stop halts scheduling and waits for running jobs to finish.
func (s *Scheduler) Stop() {
	<-s.cron.Stop().Done()
	s.mu.Lock()
	s.started = false
	s.mu.Unlock()
}
