// Copyright (C) 2025-2026, Advanced Micro Devices, Inc. All rights reserved.
// See LICENSE for license information.

// Package core is the admission surface the HTTP layer calls into:
// submit, status, cancel, artifact listing, recent events and usage.
// It owns none of the mechanics; it validates, checks quota and
// delegates to the queue, engine and artifact manager.
package core

import (
	"context"
	"strings"
	"time"

	"github.com/AMD-AGI/voyant/pkg/artifact"
	"github.com/AMD-AGI/voyant/pkg/database/model"
	"github.com/AMD-AGI/voyant/pkg/errors"
	"github.com/AMD-AGI/voyant/pkg/eventbus"
	"github.com/AMD-AGI/voyant/pkg/eventschema"
	"github.com/AMD-AGI/voyant/pkg/idgen"
	"github.com/AMD-AGI/voyant/pkg/metrics"
	"github.com/AMD-AGI/voyant/pkg/namespace"
	"github.com/AMD-AGI/voyant/pkg/queue"
	"github.com/AMD-AGI/voyant/pkg/quota"
	"github.com/AMD-AGI/voyant/pkg/workflow"
)

var submitCounter = metrics.NewCounterVec("core_submits", "job submissions by outcome", []string{"tenant", "outcome"})

type Core struct {
	queue     *queue.Queue
	quotas    *quota.Manager
	engine    *workflow.Engine
	bus       *eventbus.Bus
	artifacts *artifact.Manager
	clock     idgen.Clock

	// synchronous makes Submit drive the job to a terminal status
	// inline instead of leaving it for the worker pool. Tests and
	// single-shot CLI use run this way.
	synchronous bool
}

type Option func(*Core)

// WithSynchronousRuntime runs every admitted job to completion inside
// Submit. No worker pool is needed in this mode.
func WithSynchronousRuntime() Option {
	return func(c *Core) { c.synchronous = true }
}

func WithClock(clock idgen.Clock) Option {
	return func(c *Core) { c.clock = clock }
}

func New(q *queue.Queue, quotas *quota.Manager, engine *workflow.Engine, bus *eventbus.Bus, artifacts *artifact.Manager, opts ...Option) *Core {
	c := &Core{
		queue:     q,
		quotas:    quotas,
		engine:    engine,
		bus:       bus,
		artifacts: artifacts,
		clock:     idgen.RealClock{},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

type SubmitRequest struct {
	JobType  string                 `json:"job_type"`
	TenantID string                 `json:"tenant_id"`
	Priority int                    `json:"priority"`
	Params   map[string]interface{} `json:"params,omitempty"`
}

type SubmitResult struct {
	JobID    string `json:"job_id"`
	Position int    `json:"position"`
}

// Submit admits a job: field validation, daily quota check, persist,
// enqueue, job.created event. The returned position is the 0-based
// place in the tenant's queue at insertion time.
func (c *Core) Submit(ctx context.Context, req *SubmitRequest) (*SubmitResult, error) {
	if err := c.validate(req); err != nil {
		submitCounter.Inc(req.TenantID, "rejected")
		return nil, err
	}

	if allowed, _ := c.quotas.Check(req.TenantID, quota.LimitJobsPerDay); !allowed {
		submitCounter.Inc(req.TenantID, "quota_denied")
		tier := c.quotas.TierOf(req.TenantID)
		usage := c.quotas.Usage(req.TenantID)
		c.emitQuotaExceeded(ctx, req.TenantID, usage.JobsToday, tier.MaxJobsPerDay)
		return nil, errors.NewQuotaExceededError(quota.LimitJobsPerDay, req.TenantID,
			int64(usage.JobsToday), int64(tier.MaxJobsPerDay)).
			WithDetail("retry_after", untilNextUTCDay(c.clock.Now()).String())
	}

	job := &queue.Job{
		JobID:      idgen.NewJobID(),
		TenantID:   req.TenantID,
		Type:       req.JobType,
		Priority:   req.Priority,
		Parameters: req.Params,
		CreatedAt:  c.clock.Now().UTC(),
	}
	position, err := c.queue.Enqueue(ctx, job)
	if err != nil {
		submitCounter.Inc(req.TenantID, "error")
		return nil, err
	}
	submitCounter.Inc(req.TenantID, "accepted")

	if c.bus != nil {
		c.bus.Emit(ctx, workflow.Topic, &eventbus.Event{
			EventType: eventschema.EventJobCreated,
			TenantID:  req.TenantID,
			Payload: map[string]interface{}{
				"job_id":    job.JobID,
				"tenant_id": job.TenantID,
				"type":      job.Type,
				"priority":  job.Priority,
			},
		})
	}

	if c.synchronous {
		c.runInline(ctx, req.TenantID, job.JobID)
	}
	return &SubmitResult{JobID: job.JobID, Position: position}, nil
}

func (c *Core) validate(req *SubmitRequest) error {
	var missing []string
	if req.TenantID == "" {
		missing = append(missing, "tenant_id")
	}
	if req.JobType == "" {
		missing = append(missing, "job_type")
	}
	if len(missing) > 0 {
		return errors.NewValidationError("missing required fields").
			WithDetail("fields", strings.Join(missing, ","))
	}
	if err := namespace.ValidateTenantID(req.TenantID); err != nil {
		return errors.NewValidationError("malformed tenant id").
			WithDetail("field", "tenant_id")
	}
	if !c.engine.Has(req.JobType) {
		return errors.NewValidationError("unknown job type " + req.JobType).
			WithDetail("field", "job_type")
	}
	return nil
}

func (c *Core) emitQuotaExceeded(ctx context.Context, tenantID string, current, max int) {
	if c.bus == nil {
		return
	}
	c.bus.Emit(ctx, workflow.Topic, &eventbus.Event{
		EventType: eventschema.EventQuotaExceeded,
		TenantID:  tenantID,
		Payload: map[string]interface{}{
			"tenant_id":  tenantID,
			"limit_name": quota.LimitJobsPerDay,
			"current":    current,
			"max":        max,
		},
	})
}

func untilNextUTCDay(now time.Time) time.Duration {
	now = now.UTC()
	next := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.UTC).Add(24 * time.Hour)
	return next.Sub(now).Truncate(time.Second)
}

// ErrorInfo is the user-facing failure shape on a status snapshot.
type ErrorInfo struct {
	Kind    string `json:"kind"`
	Code    string `json:"code"`
	Message string `json:"message"`
}

type JobSnapshot struct {
	JobID         string                 `json:"job_id"`
	TenantID      string                 `json:"tenant_id"`
	Type          string                 `json:"type"`
	Priority      int                    `json:"priority"`
	Status        queue.JobStatus        `json:"status"`
	CreatedAt     time.Time              `json:"created_at"`
	RetryCount    int                    `json:"retry_count"`
	Position      *int                   `json:"position,omitempty"`
	ResultSummary map[string]interface{} `json:"result_summary,omitempty"`
	Error         *ErrorInfo             `json:"error,omitempty"`
}

// Status returns the job snapshot, including the queue position while
// the job is still queued.
func (c *Core) Status(jobID string) (*JobSnapshot, error) {
	job, ok := c.queue.Get(jobID)
	if !ok {
		return nil, errors.NewNotFoundError("job", jobID)
	}
	snap := &JobSnapshot{
		JobID:         job.JobID,
		TenantID:      job.TenantID,
		Type:          job.Type,
		Priority:      job.Priority,
		Status:        job.Status,
		CreatedAt:     job.CreatedAt,
		RetryCount:    job.RetryCount,
		ResultSummary: job.ResultSummary,
	}
	if job.Status == queue.StatusQueued {
		if pos := c.queue.Position(jobID); pos >= 0 {
			snap.Position = &pos
		}
	}
	if job.ErrorCode != "" {
		snap.Error = &ErrorInfo{
			Kind:    KindOf(job.ErrorCode),
			Code:    job.ErrorCode,
			Message: job.ErrorMessage,
		}
	}
	return snap, nil
}

// Cancel requests cancellation. Queued jobs terminate immediately;
// running jobs are flagged and stop at the next activity boundary.
func (c *Core) Cancel(ctx context.Context, jobID string) bool {
	return c.queue.Cancel(ctx, jobID)
}

func (c *Core) ListArtifacts(ctx context.Context, jobID string) ([]*model.Artifact, error) {
	if c.artifacts == nil {
		return nil, nil
	}
	return c.artifacts.ListByJob(ctx, jobID)
}

// RecentEvents returns the last emitted events, newest first.
func (c *Core) RecentEvents(limit int) []*eventbus.Event {
	if c.bus == nil {
		return nil
	}
	return c.bus.RecentEvents(limit)
}

func (c *Core) Usage(tenantID string) quota.Snapshot {
	return c.quotas.Usage(tenantID)
}

// KindOf maps a stable error code to its abstract kind token.
func KindOf(code string) string {
	switch code {
	case errors.CodeValidationError, errors.CodeInvalidSchema, errors.CodeInvalidEvent,
		errors.CodeInvalidArtifactKey, errors.CodeInvalidNamespace:
		return "validation"
	case errors.CodeUnauthorized:
		return "unauthorized"
	case errors.CodeForbidden:
		return "forbidden"
	case errors.CodeNotFound, errors.CodeUnknownTenant, errors.CodeUnknownTier:
		return "not_found"
	case errors.CodeConflict, errors.CodeDuplicatePlugin:
		return "conflict"
	case errors.CodeQuotaExceeded:
		return "quota_exceeded"
	case errors.CodeCircuitOpen:
		return "circuit_open"
	case errors.CodeTransientExternal:
		return "transient_external"
	case errors.CodeTimeout:
		return "timeout"
	case errors.CodeCancelled:
		return "cancelled"
	default:
		return "internal"
	}
}
