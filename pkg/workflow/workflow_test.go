// Copyright (C) 2025-2026, Advanced Micro Devices, Inc. All rights reserved.
// See LICENSE for license information.

package workflow

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
)

type harness struct {
	engine     *Engine
	queue      *queue.Queue
	bus        *eventbus.Bus
	activities *activity.Registry
	plugins    *plugin.Registry
}

func newHarness(t *testing.T) *harness {
	t.Helper()
	schemas := eventschema.NewRegistry()
	require.NoError(t, eventschema.RegisterCanonical(schemas))
	bus := eventbus.New(schemas, eventbus.NopPublisher{})

	activities := activity.NewRegistry()
	breakers := breaker.NewRegistry(breaker.DefaultConfig(), nil)
	executor := activity.NewExecutor(activities, breakers, time.Minute)

	plugins := plugin.NewRegistry()
	runner := pipeline.NewRunner(plugins)

	q := queue.New(queue.NopStore{}, 300*time.Second, nil)
	engine := NewEngine(executor, runner, bus, q, nil)
	RegisterBuiltins(engine)
	return &harness{engine: engine, queue: q, bus: bus, activities: activities, plugins: plugins}
}

func (h *harness) stubActivity(t *testing.T, name string, fn func(input map[string]interface{}) (map[string]interface{}, error)) {
	t.Helper()
	require.NoError(t, h.activities.Register(&activity.Definition{
		Name:   name,
		Policy: &activity.RetryPolicy{InitialInterval: time.Millisecond, MaxInterval: time.Millisecond, MaxAttempts: 1, Multiplier: 2},
		Fn: func(ctx context.Context, inv *activity.Invocation) (map[string]interface{}, error) {
			return fn(inv.Input)
		},
	}))
}

func (h *harness) runJob(t *testing.T, jobType string, params map[string]interface{}) *queue.Job {
	t.Helper()
	ctx := context.Background()
	_, err := h.queue.Enqueue(ctx, &queue.Job{JobID: "j-1", TenantID: "acme", Type: jobType, Priority: 5, Parameters: params})
	require.NoError(t, err)
	job, err := h.queue.AcquireNext(ctx, "acme", "w-1", 0)
	require.NoError(t, err)
	require.NotNil(t, job)
	h.engine.Run(ctx, job)
	released, ok := h.queue.Get("j-1")
	require.True(t, ok)
	return released
}

func eventTypes(bus *eventbus.Bus) []string {
	var types []string
	for _, e := range bus.RecentEvents(0) {
		types = append(types, e.EventType)
	}
	return types
}

func TestIngestWorkflowCompletes(t *testing.T) {
	h := newHarness(t)
	var ingestInput map[string]interface{}
	h.stubActivity(t, "run_ingestion", func(input map[string]interface{}) (map[string]interface{}, error) {
		ingestInput = input
		return map[string]interface{}{"rows_ingested": 128}, nil
	})

	job := h.runJob(t, TypeIngest, map[string]interface{}{"source_id": "src-1"})
	assert.Equal(t, queue.StatusCompleted, job.Status)
	assert.Equal(t, 128, job.ResultSummary["rows_ingested"].(int))

	// Tenant-scoped stores behind the activity need the owner stamped in.
	assert.Equal(t, "acme", ingestInput["tenant_id"])
	assert.Equal(t, "src-1", ingestInput["source_id"])

	// Newest first: terminal after started.
	assert.Equal(t, []string{eventschema.EventJobCompleted, eventschema.EventJobStarted}, eventTypes(h.bus))
}

func TestWorkflowFailureReleasesFailed(t *testing.T) {
	h := newHarness(t)
	h.stubActivity(t, "run_ingestion", func(input map[string]interface{}) (map[string]interface{}, error) {
		return nil, errors.NewValidationError("bad credentials for eve@example.com")
	})

	job := h.runJob(t, TypeIngest, nil)
	assert.Equal(t, queue.StatusFailed, job.Status)
	assert.Equal(t, errors.CodeValidationError, job.ErrorCode)
	assert.NotContains(t, job.ErrorMessage, "eve@example.com")

	types := eventTypes(h.bus)
	require.Len(t, types, 2)
	assert.Equal(t, eventschema.EventJobFailed, types[0])
}

func TestUnknownJobTypeFails(t *testing.T) {
	h := newHarness(t)
	job := h.runJob(t, "preset_unknown", nil)
	assert.Equal(t, queue.StatusFailed, job.Status)
	assert.Equal(t, errors.CodeNotFound, job.ErrorCode)
}

func TestWorkflowTimeoutFailsJob(t *testing.T) {
	h := newHarness(t)
	h.engine.RegisterWithTimeout("slow_report", func(ctx context.Context, run *Run) (Outcome, error) {
		<-ctx.Done()
		return nil, ctx.Err()
	}, 20*time.Millisecond)

	job := h.runJob(t, "slow_report", nil)
	assert.Equal(t, queue.StatusFailed, job.Status)
	assert.Equal(t, errors.CodeTimeout, job.ErrorCode)
	assert.Contains(t, job.ErrorMessage, "slow_report")
}

func TestCancelMidWorkflow(t *testing.T) {
	h := newHarness(t)
	h.stubActivity(t, "fetch_page", func(input map[string]interface{}) (map[string]interface{}, error) {
		// A cancel lands while the first page is in flight.
		h.queue.Cancel(context.Background(), "j-1")
		return map[string]interface{}{"content": "<html/>"}, nil
	})
	h.stubActivity(t, "extract_basic", func(input map[string]interface{}) (map[string]interface{}, error) {
		return map[string]interface{}{"text": "x"}, nil
	})

	job := h.runJob(t, TypeScrape, map[string]interface{}{
		"urls": []interface{}{"https://a.example", "https://b.example"},
	})
	assert.Equal(t, queue.StatusCancelled, job.Status)
	assert.Equal(t, []string{eventschema.EventJobCancelled, eventschema.EventJobStarted}, eventTypes(h.bus))
}

func TestProfileWorkflowEmitsLineage(t *testing.T) {
	h := newHarness(t)
	h.stubActivity(t, "profile_data", func(input map[string]interface{}) (map[string]interface{}, error) {
		return map[string]interface{}{"columns": 12}, nil
	})

	job := h.runJob(t, TypeProfile, map[string]interface{}{
		"source_id": "src-9", "emit_lineage": true,
	})
	assert.Equal(t, queue.StatusCompleted, job.Status)

	types := eventTypes(h.bus)
	assert.Contains(t, types, eventschema.EventLineageEdge)
}

func TestProfileWorkflowTracksSchema(t *testing.T) {
	h := newHarness(t)
	h.stubActivity(t, "profile_data", func(input map[string]interface{}) (map[string]interface{}, error) {
		return map[string]interface{}{
			"columns": 2,
			"schema":  map[string]interface{}{"id": "INTEGER", "name": "TEXT"},
		}, nil
	})
	var tracked map[string]interface{}
	h.stubActivity(t, "track_schema", func(input map[string]interface{}) (map[string]interface{}, error) {
		tracked = input
		return map[string]interface{}{"version": 1, "drifted": false}, nil
	})

	job := h.runJob(t, TypeProfile, map[string]interface{}{"source_id": "src-9"})
	assert.Equal(t, queue.StatusCompleted, job.Status)
	require.NotNil(t, tracked)
	assert.Equal(t, "src-9", tracked["source_id"])
	assert.Equal(t, "acme", tracked["tenant_id"])
	assert.Equal(t, 1, job.ResultSummary["schema_version"])
	assert.Equal(t, false, job.ResultSummary["schema_drifted"])
}

func TestAnalyzeWorkflowSections(t *testing.T) {
	h := newHarness(t)
	h.stubActivity(t, "profile_data", func(input map[string]interface{}) (map[string]interface{}, error) {
		return map[string]interface{}{"columns": 3}, nil
	})
	h.stubActivity(t, "fetch_sample", func(input map[string]interface{}) (map[string]interface{}, error) {
		assert.Equal(t, "acme", input["tenant_id"])
		return map[string]interface{}{"sample": map[string]interface{}{"col_a": []interface{}{1, 2, 3}}}, nil
	})
	require.NoError(t, h.plugins.Register(&plugin.Descriptor{
		Name: "stats", Kind: plugin.KindAnalyzer, IsCore: true, Order: 10,
		Analyzer: func(ctx context.Context, rc *plugin.RunContext, data map[string]interface{}) (map[string]interface{}, error) {
			return map[string]interface{}{"mean": 2.0}, nil
		},
	}))
	require.NoError(t, h.plugins.Register(&plugin.Descriptor{
		Name: "profiler", Kind: plugin.KindGenerator, IsCore: true, Order: 10,
		Generator: func(ctx context.Context, rc *plugin.RunContext, settings map[string]interface{}) (map[string]string, error) {
			return map[string]string{"profile.json": "local://profile"}, nil
		},
	}))

	job := h.runJob(t, TypeAnalyze, map[string]interface{}{"source_id": "src-2"})
	require.Equal(t, queue.StatusCompleted, job.Status)

	assert.NotNil(t, job.ResultSummary["profile"])
	analysis := job.ResultSummary["analysis"].(map[string]interface{})
	assert.Equal(t, 2.0, analysis["stats"].(map[string]interface{})["mean"])
	artifacts := job.ResultSummary["artifacts"].(map[string]string)
	assert.Equal(t, "local://profile", artifacts["profile.json"])
	_, hasKPIs := job.ResultSummary["kpis"]
	assert.False(t, hasKPIs, "kpis section skipped with no kpi definitions")
}

func TestAnalyzeCoreGeneratorFailureFailsJob(t *testing.T) {
	h := newHarness(t)
	h.stubActivity(t, "profile_data", func(input map[string]interface{}) (map[string]interface{}, error) {
		return map[string]interface{}{}, nil
	})
	h.stubActivity(t, "fetch_sample", func(input map[string]interface{}) (map[string]interface{}, error) {
		return map[string]interface{}{}, nil
	})
	require.NoError(t, h.plugins.Register(&plugin.Descriptor{
		Name: "profiler", Kind: plugin.KindGenerator, IsCore: true, Order: 10,
		Generator: func(ctx context.Context, rc *plugin.RunContext, settings map[string]interface{}) (map[string]string, error) {
			return nil, errors.WrapMessage("render crash", errors.CodeInternalError)
		},
	}))

	job := h.runJob(t, TypeAnalyze, nil)
	assert.Equal(t, queue.StatusFailed, job.Status)
	assert.Contains(t, job.ErrorMessage, "profiler")
}

func TestScrapeCollectsPerURLFailures(t *testing.T) {
	h := newHarness(t)
	h.stubActivity(t, "fetch_page", func(input map[string]interface{}) (map[string]interface{}, error) {
		if input["url"] == "https://bad.example" {
			return nil, errors.WrapMessage("503 from upstream", errors.CodeTransientExternal)
		}
		return map[string]interface{}{"content": "<html/>"}, nil
	})
	h.stubActivity(t, "extract_basic", func(input map[string]interface{}) (map[string]interface{}, error) {
		return map[string]interface{}{"text": "hello"}, nil
	})
	h.stubActivity(t, "store_artifact", func(input map[string]interface{}) (map[string]interface{}, error) {
		return map[string]interface{}{"uri": "local://" + input["url"].(string)}, nil
	})
	h.stubActivity(t, "finalize_job", func(input map[string]interface{}) (map[string]interface{}, error) {
		return map[string]interface{}{}, nil
	})

	job := h.runJob(t, TypeScrape, map[string]interface{}{
		"urls": []interface{}{"https://good.example", "https://bad.example"},
	})
	require.Equal(t, queue.StatusCompleted, job.Status, "per-URL failures never abort the workflow")
	assert.Equal(t, 1, job.ResultSummary["urls_scraped"])
	assert.Equal(t, 2, job.ResultSummary["urls_total"])
	scrapeErrors := job.ResultSummary["_errors"].([]string)
	require.Len(t, scrapeErrors, 1)
	assert.Contains(t, scrapeErrors[0], "bad.example")
}
