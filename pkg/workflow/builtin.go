// Copyright (C) 2025-2026, Advanced Micro Devices, Inc. All rights reserved.
// See LICENSE for license information.

package workflow

import (
	"context"
	"fmt"

	"github.com/AMD-AGI/voyant/pkg/errors"
	"github.com/AMD-AGI/voyant/pkg/eventschema"
)

// Job types the core ships workflows for.
const (
	TypeIngest  = "ingest"
	TypeProfile = "profile"
	TypeAnalyze = "analyze"
	TypeScrape  = "scrape"
)

// RegisterBuiltins wires the core workflow table.
func RegisterBuiltins(e *Engine) {
	e.Register(TypeIngest, IngestData)
	e.Register(TypeProfile, Profile)
	e.Register(TypeAnalyze, Analyze)
	e.Register(TypeScrape, Scrape)
}

// withTenant copies params and stamps the owning tenant so activities
// backed by tenant-scoped stores know whose namespace to touch.
func withTenant(params map[string]interface{}, tenantID string) map[string]interface{} {
	in := make(map[string]interface{}, len(params)+1)
	for k, v := range params {
		in[k] = v
	}
	in["tenant_id"] = tenantID
	return in
}

// IngestData runs the single long ingestion activity.
func IngestData(ctx context.Context, run *Run) (Outcome, error) {
	output, err := run.Execute(ctx, "run_ingestion", withTenant(run.Job.Parameters, run.Job.TenantID))
	if err != nil {
		return nil, err
	}
	return Outcome(output), nil
}

// Profile profiles the source, records its observed schema for drift
// detection when the profiler reports one, and optionally records
// lineage from the source to the produced profile.
func Profile(ctx context.Context, run *Run) (Outcome, error) {
	output, err := run.Execute(ctx, "profile_data", run.Job.Parameters)
	if err != nil {
		return nil, err
	}
	outcome := Outcome{"profile": output}
	if schema, ok := output["schema"].(map[string]interface{}); ok && len(schema) > 0 {
		sourceID, _ := run.Job.Parameters["source_id"].(string)
		drift, err := run.Execute(ctx, "track_schema", map[string]interface{}{
			"tenant_id": run.Job.TenantID,
			"source_id": sourceID,
			"schema":    schema,
		})
		if err != nil {
			return nil, err
		}
		outcome["schema_version"] = drift["version"]
		outcome["schema_drifted"] = drift["drifted"]
	}
	if emit, _ := run.Job.Parameters["emit_lineage"].(bool); emit {
		sourceID, _ := run.Job.Parameters["source_id"].(string)
		run.Emit(ctx, eventschema.EventLineageEdge, map[string]interface{}{
			"tenant_id": run.Job.TenantID,
			"job_id":    run.Job.JobID,
			"from_node": sourceID,
			"to_node":   "profile",
		})
	}
	return outcome, nil
}

// Analyze runs the full pipeline: profile, sample, analyzers, KPIs,
// generators. Sections with empty inputs are skipped rather than
// failed.
func Analyze(ctx context.Context, run *Run) (Outcome, error) {
	params := run.Job.Parameters
	outcome := Outcome{}

	profile, err := run.Execute(ctx, "profile_data", params)
	if err != nil {
		return nil, err
	}
	outcome["profile"] = profile

	sampleOut, err := run.Execute(ctx, "fetch_sample", withTenant(params, run.Job.TenantID))
	if err != nil {
		return outcome, err
	}
	sample, _ := sampleOut["sample"].(map[string]interface{})

	rc := run.RunContext(sample)
	if len(sample) > 0 {
		analysis, err := run.Analyzers(ctx, rc, sample)
		if err != nil {
			return outcome, err
		}
		outcome["analysis"] = analysis
	}

	if kpis, ok := params["kpis"].([]interface{}); ok && len(kpis) > 0 {
		kpiOut, err := run.Execute(ctx, "run_kpis", params)
		if err != nil {
			return outcome, err
		}
		outcome["kpis"] = kpiOut
	}

	generated := run.Generators(ctx, rc)
	outcome["artifacts"] = generated.Artifacts
	if len(generated.Errors) > 0 {
		outcome["_errors"] = generated.Errors
	}
	if len(generated.Skipped) > 0 {
		outcome["skipped"] = generated.Skipped
	}
	if !generated.Success {
		return outcome, errors.WrapMessage(
			"core generator "+generated.FailedCore+" failed", errors.CodeInternalError)
	}
	return outcome, nil
}

// Scrape fetches and extracts each URL independently. Per-URL
// failures are collected; the workflow succeeds with errors rather
// than aborting on a single URL.
func Scrape(ctx context.Context, run *Run) (Outcome, error) {
	params := run.Job.Parameters
	rawURLs, _ := params["urls"].([]interface{})
	useLLM, _ := params["use_llm"].(bool)

	artifacts := map[string]interface{}{}
	var scrapeErrors []string
	scraped := 0

	for _, raw := range rawURLs {
		url, ok := raw.(string)
		if !ok {
			continue
		}
		if run.Cancelled() {
			return nil, errors.NewCancelledError("job " + run.Job.JobID)
		}

		page, err := run.Execute(ctx, "fetch_page", map[string]interface{}{"url": url})
		if err != nil {
			if errors.IsCancelled(err) {
				return nil, err
			}
			scrapeErrors = append(scrapeErrors, fmt.Sprintf("%s: %v", url, errors.MaskSensitive(err.Error())))
			continue
		}

		extractor := "extract_basic"
		if useLLM {
			extractor = "extract_with_llm"
		}
		extracted, err := run.Execute(ctx, extractor, map[string]interface{}{
			"url": url, "content": page["content"],
		})
		if err != nil {
			if errors.IsCancelled(err) {
				return nil, err
			}
			scrapeErrors = append(scrapeErrors, fmt.Sprintf("%s: %v", url, errors.MaskSensitive(err.Error())))
			continue
		}

		if wantOCR, _ := params["process_ocr"].(bool); wantOCR {
			if _, err := run.Execute(ctx, "process_ocr", extracted); err != nil {
				scrapeErrors = append(scrapeErrors, fmt.Sprintf("%s: ocr: %v", url, errors.MaskSensitive(err.Error())))
			}
		}
		if wantMedia, _ := params["process_media"].(bool); wantMedia {
			if _, err := run.Execute(ctx, "process_media", extracted); err != nil {
				scrapeErrors = append(scrapeErrors, fmt.Sprintf("%s: media: %v", url, errors.MaskSensitive(err.Error())))
			}
		}

		stored, err := run.Execute(ctx, "store_artifact", map[string]interface{}{
			"url": url, "extracted": extracted,
		})
		if err != nil {
			if errors.IsCancelled(err) {
				return nil, err
			}
			scrapeErrors = append(scrapeErrors, fmt.Sprintf("%s: %v", url, errors.MaskSensitive(err.Error())))
			continue
		}
		if uri, ok := stored["uri"].(string); ok {
			artifacts[url] = uri
		}
		scraped++
	}

	outcome := Outcome{
		"urls_total":   len(rawURLs),
		"urls_scraped": scraped,
		"artifacts":    artifacts,
	}
	if len(scrapeErrors) > 0 {
		outcome["_errors"] = scrapeErrors
	}
	if _, err := run.Execute(ctx, "finalize_job", map[string]interface{}{
		"scraped": scraped, "errors": len(scrapeErrors),
	}); err != nil {
		return outcome, err
	}
	return outcome, nil
}
