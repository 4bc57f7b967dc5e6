// Copyright (C) 2025-2026, Advanced Micro Devices, Inc. All rights reserved.
// See LICENSE for license information.

// Package queue implements the per-tenant priority job queue with
// worker leases. The in-memory structures are authoritative; every
// state transition is written through to the store.
package queue

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/AMD-AGI/voyant/pkg/errors"
	"github.com/AMD-AGI/voyant/pkg/idgen"
	"github.com/AMD-AGI/voyant/pkg/logger/log"
	"github.com/AMD-AGI/voyant/pkg/metrics"
)

var (
	enqueuedCounter = metrics.NewCounterVec("queue_enqueued", "jobs enqueued", []string{"tenant", "type"})
	releasedCounter = metrics.NewCounterVec("queue_released", "jobs released by terminal status", []string{"tenant", "status"})
	requeueCounter  = metrics.NewCounterVec("queue_lease_requeues", "jobs requeued after lease expiry", []string{"tenant"})
	depthGauge      = metrics.NewGaugeVec("queue_depth", "queued jobs per tenant", []string{"tenant"})
	runningGauge    = metrics.NewGaugeVec("queue_running", "running jobs per tenant", []string{"tenant"})
)

type tenantQueue struct {
	pending []*Job
	running map[string]*Job
}

type Stats struct {
	Queued           int      `json:"queued"`
	Running          int      `json:"running"`
	OldestAgeSeconds float64  `json:"oldest_age_seconds"`
	RunningJobIDs    []string `json:"running_job_ids"`
}

type Queue struct {
	mu       sync.Mutex
	clock    idgen.Clock
	leaseTTL time.Duration
	store    Store
	tenants  map[string]*tenantQueue
	jobs     map[string]*Job
	onCancel map[string]context.CancelFunc
}

func New(store Store, leaseTTL time.Duration, clock idgen.Clock) *Queue {
	if store == nil {
		store = NopStore{}
	}
	if clock == nil {
		clock = idgen.RealClock{}
	}
	return &Queue{
		clock:    clock,
		leaseTTL: leaseTTL,
		store:    store,
		tenants:  map[string]*tenantQueue{},
		jobs:     map[string]*Job{},
		onCancel: map[string]context.CancelFunc{},
	}
}

// Recover reloads queued and running jobs from the store after a
// restart. Expired leases are picked up by the next sweep.
func (q *Queue) Recover(ctx context.Context) error {
	jobs, err := q.store.LoadActive(ctx)
	if err != nil {
		return err
	}
	q.mu.Lock()
	defer q.mu.Unlock()
	for _, job := range jobs {
		q.jobs[job.JobID] = job
		tq := q.tenantLocked(job.TenantID)
		switch job.Status {
		case StatusQueued:
			tq.pending = append(tq.pending, job)
		case StatusRunning:
			tq.running[job.JobID] = job
		}
	}
	for tenant, tq := range q.tenants {
		sort.Slice(tq.pending, func(i, j int) bool { return tq.pending[i].before(tq.pending[j]) })
		depthGauge.Set(float64(len(tq.pending)), tenant)
		runningGauge.Set(float64(len(tq.running)), tenant)
	}
	return nil
}

func (q *Queue) tenantLocked(tenantID string) *tenantQueue {
	tq, ok := q.tenants[tenantID]
	if !ok {
		tq = &tenantQueue{running: map[string]*Job{}}
		q.tenants[tenantID] = tq
	}
	return tq
}

// Enqueue inserts the job in (priority, created_at, job_id) order and
// returns its 0-based queue position at insertion time.
func (q *Queue) Enqueue(ctx context.Context, job *Job) (int, error) {
	if job.TenantID == "" {
		return 0, errors.NewValidationError("job tenant_id is required")
	}
	if job.Type == "" {
		return 0, errors.NewValidationError("job type is required")
	}
	if job.JobID == "" {
		job.JobID = idgen.NewJobID()
	}
	if job.CreatedAt.IsZero() {
		job.CreatedAt = q.clock.Now().UTC()
	}
	job.Status = StatusQueued

	q.mu.Lock()
	defer q.mu.Unlock()
	if _, exists := q.jobs[job.JobID]; exists {
		return 0, errors.WrapMessage("job "+job.JobID+" already enqueued", errors.CodeConflict)
	}
	tq := q.tenantLocked(job.TenantID)
	idx := sort.Search(len(tq.pending), func(i int) bool { return job.before(tq.pending[i]) })
	tq.pending = append(tq.pending, nil)
	copy(tq.pending[idx+1:], tq.pending[idx:])
	tq.pending[idx] = job
	q.jobs[job.JobID] = job

	if err := q.store.SaveJob(ctx, job); err != nil {
		// Roll back the insert; the caller sees the storage failure.
		tq.pending = append(tq.pending[:idx], tq.pending[idx+1:]...)
		delete(q.jobs, job.JobID)
		return 0, err
	}
	enqueuedCounter.Inc(job.TenantID, job.Type)
	depthGauge.Set(float64(len(tq.pending)), job.TenantID)
	return idx, nil
}

// AcquireNext leases the head job for the tenant, or returns nil when
// the queue is empty or the tenant is already at maxConcurrent.
func (q *Queue) AcquireNext(ctx context.Context, tenantID, workerID string, maxConcurrent int) (*Job, error) {
	q.mu.Lock()
	defer q.mu.Unlock()
	tq, ok := q.tenants[tenantID]
	if !ok || len(tq.pending) == 0 {
		return nil, nil
	}
	if maxConcurrent > 0 && len(tq.running) >= maxConcurrent {
		return nil, nil
	}
	job := tq.pending[0]
	tq.pending = tq.pending[1:]
	job.Status = StatusRunning
	job.WorkerID = workerID
	lease := q.clock.Now().Add(q.leaseTTL)
	job.LeaseExpiresAt = &lease
	tq.running[job.JobID] = job

	if err := q.store.SaveJob(ctx, job); err != nil {
		job.Status = StatusQueued
		job.WorkerID = ""
		job.LeaseExpiresAt = nil
		delete(tq.running, job.JobID)
		tq.pending = append([]*Job{job}, tq.pending...)
		return nil, err
	}
	depthGauge.Set(float64(len(tq.pending)), tenantID)
	runningGauge.Set(float64(len(tq.running)), tenantID)
	return job.clone(), nil
}

// RenewLease extends a running job's lease. Returns false for jobs
// that are not running anymore.
func (q *Queue) RenewLease(ctx context.Context, jobID string) bool {
	q.mu.Lock()
	defer q.mu.Unlock()
	job, ok := q.jobs[jobID]
	if !ok || job.Status != StatusRunning {
		return false
	}
	lease := q.clock.Now().Add(q.leaseTTL)
	job.LeaseExpiresAt = &lease
	if err := q.store.SaveJob(ctx, job); err != nil {
		log.Errorf("persist lease renewal for %s: %v", jobID, err)
	}
	return true
}

// Release moves a job to a terminal status. The first release wins;
// re-releasing a terminal job is a no-op returning true. Lease and
// worker are always cleared on the terminal record.
func (q *Queue) Release(ctx context.Context, jobID string, status JobStatus, summary map[string]interface{}, errCode, errMessage string) bool {
	if !status.IsTerminal() {
		return false
	}
	q.mu.Lock()
	defer q.mu.Unlock()
	job, ok := q.jobs[jobID]
	if !ok {
		return false
	}
	if job.Status.IsTerminal() {
		return true
	}
	tq := q.tenantLocked(job.TenantID)
	if job.Status == StatusQueued {
		tq.pending = removeJob(tq.pending, jobID)
	}
	delete(tq.running, jobID)
	delete(q.onCancel, jobID)

	job.Status = status
	job.LeaseExpiresAt = nil
	job.WorkerID = ""
	job.ResultSummary = summary
	job.ErrorCode = errCode
	job.ErrorMessage = errors.MaskSensitive(errMessage)

	if err := q.store.SaveJob(ctx, job); err != nil {
		log.Errorf("persist release of %s: %v", jobID, err)
	}
	releasedCounter.Inc(job.TenantID, string(status))
	depthGauge.Set(float64(len(tq.pending)), job.TenantID)
	runningGauge.Set(float64(len(tq.running)), job.TenantID)
	return true
}

// Cancel removes a queued job immediately. For a running job it flags
// the record and fires the registered cancel func; the runtime
// performs the terminal release. Returns false for unknown or already
// terminal jobs.
func (q *Queue) Cancel(ctx context.Context, jobID string) bool {
	q.mu.Lock()
	job, ok := q.jobs[jobID]
	if !ok || job.Status.IsTerminal() {
		q.mu.Unlock()
		return false
	}
	if job.Status == StatusQueued {
		tq := q.tenantLocked(job.TenantID)
		tq.pending = removeJob(tq.pending, jobID)
		job.Status = StatusCancelled
		job.LeaseExpiresAt = nil
		job.WorkerID = ""
		if err := q.store.SaveJob(ctx, job); err != nil {
			log.Errorf("persist cancel of %s: %v", jobID, err)
		}
		releasedCounter.Inc(job.TenantID, string(StatusCancelled))
		depthGauge.Set(float64(len(tq.pending)), job.TenantID)
		q.mu.Unlock()
		return true
	}
	job.cancelRequested = true
	cancel := q.onCancel[jobID]
	q.mu.Unlock()
	if cancel != nil {
		cancel()
	}
	return true
}

// RegisterCancel wires the context cancellation for a running job.
func (q *Queue) RegisterCancel(jobID string, cancel context.CancelFunc) {
	q.mu.Lock()
	defer q.mu.Unlock()
	q.onCancel[jobID] = cancel
}

func (q *Queue) UnregisterCancel(jobID string) {
	q.mu.Lock()
	defer q.mu.Unlock()
	delete(q.onCancel, jobID)
}

// RequeueExpiredLeases returns every running job whose lease has
// passed back to the front of its tenant queue with retry_count
// incremented.
func (q *Queue) RequeueExpiredLeases(ctx context.Context) int {
	q.mu.Lock()
	defer q.mu.Unlock()
	now := q.clock.Now()
	requeued := 0
	for tenantID, tq := range q.tenants {
		for jobID, job := range tq.running {
			if job.LeaseExpiresAt == nil || job.LeaseExpiresAt.After(now) {
				continue
			}
			delete(tq.running, jobID)
			delete(q.onCancel, jobID)
			job.Status = StatusQueued
			job.LeaseExpiresAt = nil
			job.WorkerID = ""
			job.RetryCount++
			tq.pending = append([]*Job{job}, tq.pending...)
			if err := q.store.SaveJob(ctx, job); err != nil {
				log.Errorf("persist requeue of %s: %v", jobID, err)
			}
			requeueCounter.Inc(tenantID)
			requeued++
		}
		depthGauge.Set(float64(len(tq.pending)), tenantID)
		runningGauge.Set(float64(len(tq.running)), tenantID)
	}
	return requeued
}

// Get returns a snapshot of the job.
func (q *Queue) Get(jobID string) (*Job, bool) {
	q.mu.Lock()
	defer q.mu.Unlock()
	job, ok := q.jobs[jobID]
	if !ok {
		return nil, false
	}
	return job.clone(), true
}

// Position returns the job's 0-based place in its tenant queue, or -1
// when it is not queued.
func (q *Queue) Position(jobID string) int {
	q.mu.Lock()
	defer q.mu.Unlock()
	job, ok := q.jobs[jobID]
	if !ok || job.Status != StatusQueued {
		return -1
	}
	tq := q.tenants[job.TenantID]
	for i, pending := range tq.pending {
		if pending.JobID == jobID {
			return i
		}
	}
	return -1
}

func (q *Queue) Stats(tenantID string) Stats {
	q.mu.Lock()
	defer q.mu.Unlock()
	stats := Stats{}
	tq, ok := q.tenants[tenantID]
	if !ok {
		return stats
	}
	stats.Queued = len(tq.pending)
	stats.Running = len(tq.running)
	if len(tq.pending) > 0 {
		oldest := tq.pending[0].CreatedAt
		for _, job := range tq.pending[1:] {
			if job.CreatedAt.Before(oldest) {
				oldest = job.CreatedAt
			}
		}
		stats.OldestAgeSeconds = q.clock.Now().Sub(oldest).Seconds()
	}
	for jobID := range tq.running {
		stats.RunningJobIDs = append(stats.RunningJobIDs, jobID)
	}
	sort.Strings(stats.RunningJobIDs)
	return stats
}

// Tenants lists tenants that currently have queued work, sorted for
// deterministic round-robin traversal.
func (q *Queue) Tenants() []string {
	q.mu.Lock()
	defer q.mu.Unlock()
	tenants := make([]string, 0, len(q.tenants))
	for tenantID, tq := range q.tenants {
		if len(tq.pending) > 0 {
			tenants = append(tenants, tenantID)
		}
	}
	sort.Strings(tenants)
	return tenants
}

func removeJob(jobs []*Job, jobID string) []*Job {
	for i, job := range jobs {
		if job.JobID == jobID {
			return append(jobs[:i], jobs[i+1:]...)
		}
	}
	return jobs
}
