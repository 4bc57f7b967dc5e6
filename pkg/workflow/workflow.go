// Copyright (C) 2025-2026, Advanced Micro Devices, Inc. All rights reserved.
// See LICENSE for license information.

// Package workflow drives a job through its activities: it sequences
// the registered workflow for the job type, emits lifecycle events,
// and releases the job with the structured outcome.
package workflow

import (
	"context"
	"sync"
	"time"

	"github.com/AMD-AGI/voyant/pkg/activity"
	"github.com/AMD-AGI/voyant/pkg/errors"
	"github.com/AMD-AGI/voyant/pkg/eventbus"
	"github.com/AMD-AGI/voyant/pkg/eventschema"
	"github.com/AMD-AGI/voyant/pkg/logger/log"
	"github.com/AMD-AGI/voyant/pkg/metrics"
	"github.com/AMD-AGI/voyant/pkg/pipeline"
	"github.com/AMD-AGI/voyant/pkg/plugin"
	"github.com/AMD-AGI/voyant/pkg/queue"
)

// Topic is the durable topic all lifecycle events go to.
const Topic = "jobs"

var (
	runCounter = metrics.NewCounterVec("workflow_runs", "workflow runs by outcome", []string{"type", "outcome"})
	runTimer   = metrics.NewTimer("workflow_duration_seconds", "workflow wall time", []string{"type"}, metrics.WithFullOnly())
)

// Outcome is the structured summary a workflow returns; the engine
// persists it into the job's result_summary.
type Outcome map[string]interface{}

// Func is a workflow body: a deterministic sequence of activity
// invocations over immutable parameters.
type Func func(ctx context.Context, run *Run) (Outcome, error)

// Engine owns the workflow table and the collaborators every run
// needs.
type registration struct {
	fn Func
	// timeout bounds the whole run when positive; activity-level
	// StartToClose limits still apply inside it.
	timeout time.Duration
}

type Engine struct {
	mu        sync.RWMutex
	workflows map[string]registration

	executor *activity.Executor
	runner   *pipeline.Runner
	bus      *eventbus.Bus
	queue    *queue.Queue
	// Settings supplies the feature flags consulted by pipelines and
	// workflows at run time.
	settings func() map[string]interface{}
}

func NewEngine(executor *activity.Executor, runner *pipeline.Runner, bus *eventbus.Bus, q *queue.Queue, settings func() map[string]interface{}) *Engine {
	if settings == nil {
		settings = func() map[string]interface{} { return map[string]interface{}{} }
	}
	return &Engine{
		workflows: map[string]registration{},
		executor:  executor,
		runner:    runner,
		bus:       bus,
		queue:     q,
		settings:  settings,
	}
}

// Register binds a workflow to a job type. Last registration wins;
// startup wiring is the only caller.
func (e *Engine) Register(jobType string, fn Func) {
	e.RegisterWithTimeout(jobType, fn, 0)
}

// RegisterWithTimeout binds a workflow and caps its total wall time.
// A run that outlives the cap fails with a timeout code.
func (e *Engine) RegisterWithTimeout(jobType string, fn Func, timeout time.Duration) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.workflows[jobType] = registration{fn: fn, timeout: timeout}
}

// Has reports whether a workflow is registered for the job type.
// Admission uses it to reject unknown types before enqueueing.
func (e *Engine) Has(jobType string) bool {
	e.mu.RLock()
	defer e.mu.RUnlock()
	_, ok := e.workflows[jobType]
	return ok
}

func (e *Engine) lookup(jobType string) (registration, error) {
	e.mu.RLock()
	defer e.mu.RUnlock()
	reg, ok := e.workflows[jobType]
	if !ok {
		return registration{}, errors.NewNotFoundError("workflow", jobType)
	}
	return reg, nil
}

// Run executes the workflow for an acquired job and releases it with
// the terminal status. Cancellation arrives through the job context
// registered with the queue and through the cancel flag checked
// between activities.
func (e *Engine) Run(ctx context.Context, job *queue.Job) {
	reg, err := e.lookup(job.Type)
	if err != nil {
		e.finish(ctx, job, nil, err, time.Now())
		return
	}

	runCtx, cancel := context.WithCancel(ctx)
	if reg.timeout > 0 {
		runCtx, cancel = context.WithTimeout(ctx, reg.timeout)
	}
	defer cancel()
	e.queue.RegisterCancel(job.JobID, cancel)
	defer e.queue.UnregisterCancel(job.JobID)

	started := time.Now()
	e.emitJobEvent(runCtx, eventschema.EventJobStarted, job, map[string]interface{}{
		"worker_id": job.WorkerID,
	})

	stop := runTimer.Timer()
	outcome, err := reg.fn(runCtx, e.newRun(job))
	stop(job.Type)

	if err != nil && runCtx.Err() == context.DeadlineExceeded {
		err = errors.NewTimeoutError("workflow " + job.Type + " exceeded " + reg.timeout.String())
	}
	e.finish(ctx, job, outcome, err, started)
	e.executor.ClearHistory(job.JobID)
}

func (e *Engine) finish(ctx context.Context, job *queue.Job, outcome Outcome, err error, started time.Time) {
	duration := time.Since(started).Seconds()
	switch {
	case err == nil:
		e.queue.Release(ctx, job.JobID, queue.StatusCompleted, outcome, "", "")
		runCounter.Inc(job.Type, "completed")
		e.emitJobEvent(ctx, eventschema.EventJobCompleted, job, map[string]interface{}{
			"duration_seconds": duration,
			"result_summary":   map[string]interface{}(outcome),
		})
	case e.cancelled(job, err):
		e.queue.Release(ctx, job.JobID, queue.StatusCancelled, outcome, errors.CodeCancelled, "")
		runCounter.Inc(job.Type, "cancelled")
		e.emitJobEvent(ctx, eventschema.EventJobCancelled, job, nil)
	default:
		code := errors.CodeOf(err)
		if code == "" {
			code = errors.CodeInternalError
		}
		log.Errorf("workflow %s for job %s failed: %v", job.Type, job.JobID, err)
		e.queue.Release(ctx, job.JobID, queue.StatusFailed, outcome, code, err.Error())
		runCounter.Inc(job.Type, "failed")
		e.emitJobEvent(ctx, eventschema.EventJobFailed, job, map[string]interface{}{
			"error_code":    code,
			"error_message": errors.MaskSensitive(err.Error()),
			"retry_count":   job.RetryCount,
		})
	}
}

func (e *Engine) cancelled(job *queue.Job, err error) bool {
	if errors.IsCancelled(err) {
		return true
	}
	current, ok := e.queue.Get(job.JobID)
	return ok && current.CancelRequested()
}

func (e *Engine) emitJobEvent(ctx context.Context, eventType string, job *queue.Job, extra map[string]interface{}) {
	if e.bus == nil {
		return
	}
	payload := map[string]interface{}{
		"job_id":    job.JobID,
		"tenant_id": job.TenantID,
		"type":      job.Type,
		"priority":  job.Priority,
	}
	for key, value := range extra {
		payload[key] = value
	}
	e.bus.Emit(ctx, Topic, &eventbus.Event{
		EventType: eventType,
		TenantID:  job.TenantID,
		Payload:   payload,
	})
}

// Run is the handle a workflow body works through: activity
// invocation, pipeline execution, event emission, cancellation.
type Run struct {
	Job    *queue.Job
	engine *Engine
}

func (e *Engine) newRun(job *queue.Job) *Run {
	return &Run{Job: job, engine: e}
}

// Settings snapshots the runtime feature flags.
func (r *Run) Settings() map[string]interface{} {
	return r.engine.settings()
}

// Cancelled reports whether a cancel arrived for this job. Workflows
// check it between activities.
func (r *Run) Cancelled() bool {
	current, ok := r.engine.queue.Get(r.Job.JobID)
	return ok && current.CancelRequested()
}

// Execute invokes an activity, refusing to start one once the job has
// been cancelled.
func (r *Run) Execute(ctx context.Context, name string, input map[string]interface{}) (map[string]interface{}, error) {
	if r.Cancelled() {
		return nil, errors.NewCancelledError("job " + r.Job.JobID)
	}
	return r.engine.executor.Execute(ctx, r.Job.JobID, name, input)
}

// RunContext builds the plugin payload for this job.
func (r *Run) RunContext(data map[string]interface{}) *plugin.RunContext {
	sourceID, _ := r.Job.Parameters["source_id"].(string)
	return &plugin.RunContext{
		TenantID:  r.Job.TenantID,
		JobID:     r.Job.JobID,
		SourceID:  sourceID,
		Data:      data,
		Artifacts: map[string]string{},
	}
}

// Generators runs the generator pipeline under the current settings.
func (r *Run) Generators(ctx context.Context, rc *plugin.RunContext) *pipeline.GeneratorResult {
	return r.engine.runner.RunGenerators(ctx, rc, r.Settings())
}

// Analyzers runs the analyzer pipeline over data.
func (r *Run) Analyzers(ctx context.Context, rc *plugin.RunContext, data map[string]interface{}) (map[string]interface{}, error) {
	return r.engine.runner.RunAnalyzers(ctx, rc, data)
}

// Emit publishes an event stamped with the job's tenant.
func (r *Run) Emit(ctx context.Context, eventType string, payload map[string]interface{}) bool {
	if r.engine.bus == nil {
		return false
	}
	return r.engine.bus.Emit(ctx, Topic, &eventbus.Event{
		EventType: eventType,
		TenantID:  r.Job.TenantID,
		Payload:   payload,
	})
}
