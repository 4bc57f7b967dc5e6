// Copyright (C) 2025-2026, Advanced Micro Devices, Inc. All rights reserved.
// See LICENSE for license information.

// Package plugin holds the process-global registry of generators and
// analyzers. Registration happens once at startup, before the queue
// is served; descriptors are immutable afterwards.
package plugin

import "context"

type Kind string

const (
	KindGenerator Kind = "generator"
	KindAnalyzer  Kind = "analyzer"
)

type Category string

const (
	CategoryVisualization Category = "visualization"
	CategoryReport        Category = "report"
	CategorySecurity      Category = "security"
	CategoryStatistics    Category = "statistics"
	CategoryNarrative     Category = "narrative"
)

// RunContext is the per-job payload handed to every plugin: the data
// under analysis plus the artifact map accumulated so far.
type RunContext struct {
	TenantID  string
	JobID     string
	SourceID  string
	Data      map[string]interface{}
	Artifacts map[string]string
}

// GeneratorFunc produces artifacts and returns artifact_key -> uri.
type GeneratorFunc func(ctx context.Context, rc *RunContext, settings map[string]interface{}) (map[string]string, error)

// AnalyzerFunc computes results merged into the job's result payload.
type AnalyzerFunc func(ctx context.Context, rc *RunContext, data map[string]interface{}) (map[string]interface{}, error)

// Descriptor declares a plugin to the registry. Exactly one of
// Generator or Analyzer must be set, matching Kind. Lower Order runs
// first. A FeatureFlag names the settings key that can disable the
// plugin at run time. Outputs advertises the artifact keys the plugin
// produces; they must fit the canonical taxonomy.
type Descriptor struct {
	Name        string
	Kind        Kind
	Category    Category
	Version     string
	IsCore      bool
	Order       int
	FeatureFlag string
	Outputs     []string
	Generator   GeneratorFunc
	Analyzer    AnalyzerFunc
}
