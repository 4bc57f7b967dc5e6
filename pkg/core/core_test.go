// Copyright (C) 2025-2026, Advanced Micro Devices, Inc. All rights reserved.
// See LICENSE for license information.

package core

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/AMD-AGI/voyant/pkg/activity"
	"github.com/AMD-AGI/voyant/pkg/breaker"
	"github.com/AMD-AGI/voyant/pkg/errors"
	"github.com/AMD-AGI/voyant/pkg/eventbus"
	"github.com/AMD-AGI/voyant/pkg/eventschema"
	"github.com/AMD-AGI/voyant/pkg/pipeline"
	"github.com/AMD-AGI/voyant/pkg/plugin"
	"github.com/AMD-AGI/voyant/pkg/queue"
	"github.com/AMD-AGI/voyant/pkg/quota"
	"github.com/AMD-AGI/voyant/pkg/workflow"
)

type fixture struct {
	core   *Core
	queue  *queue.Queue
	bus    *eventbus.Bus
	quotas *quota.Manager
}

func newFixture(t *testing.T, opts ...Option) *fixture {
	t.Helper()
	schemas := eventschema.NewRegistry()
	require.NoError(t, eventschema.RegisterCanonical(schemas))
	bus := eventbus.New(schemas, eventbus.NopPublisher{})

	activities := activity.NewRegistry()
	require.NoError(t, activities.Register(&activity.Definition{
		Name:   "run_ingestion",
		Policy: &activity.RetryPolicy{InitialInterval: time.Millisecond, MaxInterval: time.Millisecond, MaxAttempts: 1, Multiplier: 2},
		Fn: func(ctx context.Context, inv *activity.Invocation) (map[string]interface{}, error) {
			return map[string]interface{}{"rows_ingested": 7}, nil
		},
	}))
	executor := activity.NewExecutor(activities, breaker.NewRegistry(breaker.DefaultConfig(), nil), time.Minute)
	runner := pipeline.NewRunner(plugin.NewRegistry())

	q := queue.New(queue.NopStore{}, 300*time.Second, nil)
	quotas := quota.NewManager(nil)
	engine := workflow.NewEngine(executor, runner, bus, q, nil)
	workflow.RegisterBuiltins(engine)

	c := New(q, quotas, engine, bus, nil, opts...)
	return &fixture{core: c, queue: q, bus: bus, quotas: quotas}
}

func TestSubmitSynchronousRunsToCompletion(t *testing.T) {
	f := newFixture(t, WithSynchronousRuntime())

	res, err := f.core.Submit(context.Background(), &SubmitRequest{
		JobType:  workflow.TypeIngest,
		TenantID: "acme",
		Priority: 5,
		Params:   map[string]interface{}{"source_id": "src-1"},
	})
	require.NoError(t, err)
	assert.Regexp(t, `^j-`, res.JobID)
	assert.Equal(t, 0, res.Position)

	snap, err := f.core.Status(res.JobID)
	require.NoError(t, err)
	assert.Equal(t, queue.StatusCompleted, snap.Status)
	assert.Nil(t, snap.Position)
	assert.Equal(t, 7, snap.ResultSummary["rows_ingested"])

	types := []string{}
	for _, e := range f.core.RecentEvents(0) {
		types = append(types, e.EventType)
	}
	assert.Equal(t, []string{
		eventschema.EventJobCompleted,
		eventschema.EventJobStarted,
		eventschema.EventJobCreated,
	}, types)

	usage := f.core.Usage("acme")
	assert.Equal(t, 1, usage.JobsToday)
	assert.Equal(t, 0, usage.Concurrent)
}

func TestSubmitValidation(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	_, err := f.core.Submit(ctx, &SubmitRequest{})
	require.Equal(t, errors.CodeValidationError, errors.CodeOf(err))
	var coded *errors.Error
	require.ErrorAs(t, err, &coded)
	assert.Equal(t, "tenant_id,job_type", coded.Detail("fields"))

	_, err = f.core.Submit(ctx, &SubmitRequest{JobType: workflow.TypeIngest, TenantID: "Bad Tenant"})
	assert.Equal(t, errors.CodeValidationError, errors.CodeOf(err))

	_, err = f.core.Submit(ctx, &SubmitRequest{JobType: "preset_unknown", TenantID: "acme"})
	assert.Equal(t, errors.CodeValidationError, errors.CodeOf(err))
}

func TestSubmitQuotaDenied(t *testing.T) {
	f := newFixture(t)
	tier := f.quotas.TierOf("acme")
	for i := 0; i < tier.MaxJobsPerDay; i++ {
		require.True(t, f.quotas.RecordJobStart("acme"))
		f.quotas.RecordJobEnd("acme")
	}

	_, err := f.core.Submit(context.Background(), &SubmitRequest{
		JobType: workflow.TypeIngest, TenantID: "acme",
	})
	require.Equal(t, errors.CodeQuotaExceeded, errors.CodeOf(err))
	var coded *errors.Error
	require.ErrorAs(t, err, &coded)
	assert.NotEmpty(t, coded.Detail("retry_after"))

	events := f.core.RecentEvents(1)
	require.Len(t, events, 1)
	assert.Equal(t, eventschema.EventQuotaExceeded, events[0].EventType)
}

func TestStatusAndCancelQueuedJob(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	res, err := f.core.Submit(ctx, &SubmitRequest{JobType: workflow.TypeIngest, TenantID: "acme"})
	require.NoError(t, err)

	snap, err := f.core.Status(res.JobID)
	require.NoError(t, err)
	assert.Equal(t, queue.StatusQueued, snap.Status)
	require.NotNil(t, snap.Position)
	assert.Equal(t, 0, *snap.Position)
	assert.Nil(t, snap.Error)

	assert.True(t, f.core.Cancel(ctx, res.JobID))
	snap, err = f.core.Status(res.JobID)
	require.NoError(t, err)
	assert.Equal(t, queue.StatusCancelled, snap.Status)

	_, err = f.core.Status("j-missing")
	assert.Equal(t, errors.CodeNotFound, errors.CodeOf(err))
}

func TestStatusExposesErrorInfo(t *testing.T) {
	f := newFixture(t, WithSynchronousRuntime())
	ctx := context.Background()

	// The profile workflow needs profile_data; leaving it unregistered
	// fails the run with NotFound.
	res, err := f.core.Submit(ctx, &SubmitRequest{
		JobType:  workflow.TypeProfile,
		TenantID: "acme",
		Params:   map[string]interface{}{"source_id": "src-1"},
	})
	require.NoError(t, err)

	snap, err := f.core.Status(res.JobID)
	require.NoError(t, err)
	assert.Equal(t, queue.StatusFailed, snap.Status)
	require.NotNil(t, snap.Error)
	assert.Equal(t, "not_found", snap.Error.Kind)
	assert.Equal(t, errors.CodeNotFound, snap.Error.Code)
	assert.NotEmpty(t, snap.Error.Message)
}

func TestKindOf(t *testing.T) {
	assert.Equal(t, "validation", KindOf(errors.CodeValidationError))
	assert.Equal(t, "quota_exceeded", KindOf(errors.CodeQuotaExceeded))
	assert.Equal(t, "circuit_open", KindOf(errors.CodeCircuitOpen))
	assert.Equal(t, "cancelled", KindOf(errors.CodeCancelled))
	assert.Equal(t, "internal", KindOf(errors.CodeDatabaseError))
	assert.Equal(t, "internal", KindOf(""))
}
