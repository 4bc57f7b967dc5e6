// Copyright (C) 2025-2026, Advanced Micro Devices, Inc. All rights reserved.
// See LICENSE for license information.

// Package pipeline runs the registered generators and analyzers in
// order. Core stage failures stop the run; extended failures are
// isolated into the _errors list and the run continues.
package pipeline

import (
	"context"
	"fmt"

	"github.com/AMD-AGI/voyant/pkg/errors"
	"github.com/AMD-AGI/voyant/pkg/logger/log"
	"github.com/AMD-AGI/voyant/pkg/metrics"
	"github.com/AMD-AGI/voyant/pkg/plugin"
)

// ErrorsKey is where extended-stage failures land in analyzer results
// and generator result maps.
const ErrorsKey = "_errors"

var (
	stageCounter = metrics.NewCounterVec("pipeline_stages", "pipeline stage outcomes", []string{"kind", "plugin", "outcome"})
	stageTimer   = metrics.NewTimer("pipeline_stage_seconds", "pipeline stage wall time", []string{"kind", "plugin"}, metrics.WithFullOnly())
)

// GeneratorResult is the outcome of one generator pipeline run.
type GeneratorResult struct {
	Success    bool              `json:"success"`
	FailedCore string            `json:"failed_core,omitempty"`
	Artifacts  map[string]string `json:"artifacts"`
	Errors     []string          `json:"_errors,omitempty"`
	Skipped    []string          `json:"skipped,omitempty"`
}

type Runner struct {
	registry *plugin.Registry
}

func NewRunner(registry *plugin.Registry) *Runner {
	return &Runner{registry: registry}
}

// flagEnabled treats a missing flag as enabled; only an explicit
// false in settings disables the plugin.
func flagEnabled(settings map[string]interface{}, flag string) bool {
	if flag == "" {
		return true
	}
	value, ok := settings[flag]
	if !ok {
		return true
	}
	enabled, isBool := value.(bool)
	return !isBool || enabled
}

// RunGenerators executes every registered generator in order. A core
// generator failure stops the pipeline immediately with the partial
// artifact map; extended failures are recorded and skipped over.
func (r *Runner) RunGenerators(ctx context.Context, rc *plugin.RunContext, settings map[string]interface{}) *GeneratorResult {
	result := &GeneratorResult{Success: true, Artifacts: map[string]string{}}
	if rc.Artifacts == nil {
		rc.Artifacts = map[string]string{}
	}

	for _, d := range r.registry.Generators() {
		if !flagEnabled(settings, d.FeatureFlag) {
			result.Skipped = append(result.Skipped, d.Name)
			stageCounter.Inc("generator", d.Name, "skipped")
			continue
		}

		stop := stageTimer.Timer()
		produced, err := d.Generator(ctx, rc, settings)
		stop("generator", d.Name)

		if err != nil {
			if d.IsCore {
				stageCounter.Inc("generator", d.Name, "failed_core")
				log.Errorf("core generator %s failed: %v", d.Name, err)
				result.Success = false
				result.FailedCore = d.Name
				return result
			}
			stageCounter.Inc("generator", d.Name, "failed_extended")
			log.Warnf("extended generator %s failed: %v", d.Name, err)
			result.Errors = append(result.Errors, fmt.Sprintf("%s: %v", d.Name, errors.MaskSensitive(err.Error())))
			continue
		}

		stageCounter.Inc("generator", d.Name, "completed")
		for key, uri := range produced {
			result.Artifacts[key] = uri
			rc.Artifacts[key] = uri
		}
	}
	return result
}

// RunAnalyzers executes every registered analyzer in order, merging
// each analyzer's results under its name. A core analyzer failure
// aborts with a non-retryable error; extended failures are captured
// into the _errors entry.
func (r *Runner) RunAnalyzers(ctx context.Context, rc *plugin.RunContext, data map[string]interface{}) (map[string]interface{}, error) {
	results := map[string]interface{}{}
	var collected []string

	for _, d := range r.registry.Analyzers() {
		stop := stageTimer.Timer()
		output, err := d.Analyzer(ctx, rc, data)
		stop("analyzer", d.Name)

		if err != nil {
			if d.IsCore {
				stageCounter.Inc("analyzer", d.Name, "failed_core")
				return results, errors.WrapError(err,
					"core analyzer "+d.Name+" failed", errors.CodeInternalError)
			}
			stageCounter.Inc("analyzer", d.Name, "failed_extended")
			log.Warnf("extended analyzer %s failed: %v", d.Name, err)
			collected = append(collected, fmt.Sprintf("%s: %v", d.Name, errors.MaskSensitive(err.Error())))
			continue
		}
		stageCounter.Inc("analyzer", d.Name, "completed")
		results[d.Name] = output
	}
	if len(collected) > 0 {
		results[ErrorsKey] = collected
	}
	return results, nil
}
