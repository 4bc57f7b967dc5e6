// Copyright (C) 2025-2026, Advanced Micro Devices, Inc. All rights reserved.
// See LICENSE for license information.

// Package worker runs the pull loop: round-robin over tenants with
// queued work, quota-gated acquire, lease renewal while the workflow
// runs.
package worker

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	"github.com/AMD-AGI/voyant/pkg/errors"
	"github.com/AMD-AGI/voyant/pkg/eventbus"
	"github.com/AMD-AGI/voyant/pkg/eventschema"
	"github.com/AMD-AGI/voyant/pkg/idgen"
	"github.com/AMD-AGI/voyant/pkg/logger/log"
	"github.com/AMD-AGI/voyant/pkg/metrics"
	"github.com/AMD-AGI/voyant/pkg/queue"
	"github.com/AMD-AGI/voyant/pkg/quota"
	"github.com/AMD-AGI/voyant/pkg/workflow"
)

var (
	processedCounter = metrics.NewCounterVec("worker_jobs_processed", "jobs taken off the queue", []string{"tenant"})
	busyGauge        = metrics.NewGaugeVec("worker_busy", "workers currently running a job", []string{})
)

type Config struct {
	Workers      int
	PollInterval time.Duration
	// RenewInterval is how often a running job's lease is extended.
	// Defaults to a third of the queue's lease TTL.
	RenewInterval time.Duration
	// MaxConcurrent caps per-tenant concurrency when the tenant's tier
	// carries no explicit limit.
	MaxConcurrent int
}

func DefaultConfig(leaseTTL time.Duration) Config {
	return Config{
		Workers:       4,
		PollInterval:  250 * time.Millisecond,
		RenewInterval: leaseTTL / 3,
		MaxConcurrent: 2,
	}
}

type Pool struct {
	cfg    Config
	queue  *queue.Queue
	engine *workflow.Engine
	quotas *quota.Manager
	bus    *eventbus.Bus

	next uint64
	wg   sync.WaitGroup
	stop chan struct{}
	once sync.Once
}

func NewPool(cfg Config, q *queue.Queue, engine *workflow.Engine, quotas *quota.Manager, bus *eventbus.Bus) *Pool {
	if cfg.Workers <= 0 {
		cfg.Workers = 1
	}
	if cfg.PollInterval <= 0 {
		cfg.PollInterval = 250 * time.Millisecond
	}
	if cfg.MaxConcurrent <= 0 {
		cfg.MaxConcurrent = 2
	}
	return &Pool{
		cfg:    cfg,
		queue:  q,
		engine: engine,
		quotas: quotas,
		bus:    bus,
		stop:   make(chan struct{}),
	}
}

func (p *Pool) Start(ctx context.Context) {
	for i := 0; i < p.cfg.Workers; i++ {
		workerID := idgen.NewWorkerID()
		p.wg.Add(1)
		go p.run(ctx, workerID)
	}
}

func (p *Pool) Stop() {
	p.once.Do(func() { close(p.stop) })
	p.wg.Wait()
}

func (p *Pool) run(ctx context.Context, workerID string) {
	defer p.wg.Done()
	for {
		select {
		case <-ctx.Done():
			return
		case <-p.stop:
			return
		default:
		}
		if !p.tick(ctx, workerID) {
			select {
			case <-ctx.Done():
				return
			case <-p.stop:
				return
			case <-time.After(p.cfg.PollInterval):
			}
		}
	}
}

// tick tries each tenant with queued work once, starting from the
// shared round-robin cursor. Returns true when a job was processed.
func (p *Pool) tick(ctx context.Context, workerID string) bool {
	tenants := p.queue.Tenants()
	if len(tenants) == 0 {
		return false
	}
	start := int(atomic.AddUint64(&p.next, 1))
	for i := 0; i < len(tenants); i++ {
		tenantID := tenants[(start+i)%len(tenants)]
		if p.processOne(ctx, workerID, tenantID) {
			return true
		}
	}
	return false
}

// concurrencyCap prefers the tenant's tier limit; the configured
// fallback covers tiers with no explicit one.
func (p *Pool) concurrencyCap(tier quota.Tier) int {
	if tier.MaxConcurrentJobs > 0 {
		return tier.MaxConcurrentJobs
	}
	return p.cfg.MaxConcurrent
}

func (p *Pool) processOne(ctx context.Context, workerID, tenantID string) bool {
	tier := p.quotas.TierOf(tenantID)
	job, err := p.queue.AcquireNext(ctx, tenantID, workerID, p.concurrencyCap(tier))
	if err != nil {
		log.Errorf("acquire for tenant %s: %v", tenantID, err)
		return false
	}
	if job == nil {
		return false
	}

	if !p.quotas.RecordJobStart(tenantID) {
		// Lost the race against the daily budget between admission and
		// start. Fail the job rather than run over quota.
		usage := p.quotas.Usage(tenantID)
		p.queue.Release(ctx, job.JobID, queue.StatusFailed, nil,
			errors.CodeQuotaExceeded, "daily job quota exhausted before start")
		if p.bus != nil {
			p.bus.Emit(ctx, workflow.Topic, &eventbus.Event{
				EventType: eventschema.EventQuotaExceeded,
				TenantID:  tenantID,
				Payload: map[string]interface{}{
					"tenant_id":  tenantID,
					"limit_name": quota.LimitJobsPerDay,
					"current":    usage.JobsToday,
					"max":        tier.MaxJobsPerDay,
				},
			})
		}
		return true
	}

	busyGauge.Inc()
	processedCounter.Inc(tenantID)
	renewDone := p.startRenewal(ctx, job.JobID)
	p.engine.Run(ctx, job)
	close(renewDone)
	busyGauge.Dec()
	p.quotas.RecordJobEnd(tenantID)
	return true
}

// startRenewal keeps the lease alive while the workflow runs.
func (p *Pool) startRenewal(ctx context.Context, jobID string) chan struct{} {
	done := make(chan struct{})
	interval := p.cfg.RenewInterval
	if interval <= 0 {
		return done
	}
	go func() {
		ticker := time.NewTicker(interval)
		defer ticker.Stop()
		for {
			select {
			case <-done:
				return
			case <-ctx.Done():
				return
			case <-ticker.C:
				if !p.queue.RenewLease(ctx, jobID) {
					return
				}
			}
		}
	}()
	return done
}
