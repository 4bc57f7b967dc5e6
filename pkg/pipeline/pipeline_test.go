// Copyright (C) 2025-2026, Advanced Micro Devices, Inc. All rights reserved.
// See LICENSE for license information.

package pipeline

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/AMD-AGI/voyant/pkg/errors"
	"github.com/AMD-AGI/voyant/pkg/plugin"
)

func generatorOf(key, uri string) plugin.GeneratorFunc {
	return func(ctx context.Context, rc *plugin.RunContext, settings map[string]interface{}) (map[string]string, error) {
		return map[string]string{key: uri}, nil
	}
}

func failingGenerator(msg string) plugin.GeneratorFunc {
	return func(ctx context.Context, rc *plugin.RunContext, settings map[string]interface{}) (map[string]string, error) {
		return nil, errors.WrapMessage(msg, errors.CodeInternalError)
	}
}

func newRunner(t *testing.T, descriptors ...*plugin.Descriptor) *Runner {
	t.Helper()
	registry := plugin.NewRegistry()
	for _, d := range descriptors {
		require.NoError(t, registry.Register(d))
	}
	return NewRunner(registry)
}

func TestCoreGeneratorFailureStopsPipeline(t *testing.T) {
	invokedC := false
	runner := newRunner(t,
		&plugin.Descriptor{Name: "A", Kind: plugin.KindGenerator, IsCore: true, Order: 10,
			Generator: generatorOf("profile.json", "s3://a")},
		&plugin.Descriptor{Name: "B", Kind: plugin.KindGenerator, IsCore: true, Order: 20,
			Generator: failingGenerator("boom")},
		&plugin.Descriptor{Name: "C", Kind: plugin.KindGenerator, Order: 30,
			Generator: func(ctx context.Context, rc *plugin.RunContext, settings map[string]interface{}) (map[string]string, error) {
				invokedC = true
				return map[string]string{"kpis.json": "s3://c"}, nil
			}},
	)

	result := runner.RunGenerators(context.Background(), &plugin.RunContext{TenantID: "T1"}, nil)
	assert.False(t, result.Success)
	assert.Equal(t, "B", result.FailedCore)
	assert.Equal(t, map[string]string{"profile.json": "s3://a"}, result.Artifacts)
	assert.False(t, invokedC, "stages after the failed core stage never run")
}

func TestExtendedGeneratorFailureIsIsolated(t *testing.T) {
	runner := newRunner(t,
		&plugin.Descriptor{Name: "A", Kind: plugin.KindGenerator, IsCore: true, Order: 10,
			Generator: generatorOf("profile.json", "s3://a")},
		&plugin.Descriptor{Name: "B", Kind: plugin.KindGenerator, Order: 20,
			Generator: failingGenerator("boom")},
		&plugin.Descriptor{Name: "C", Kind: plugin.KindGenerator, Order: 30,
			Generator: generatorOf("kpis.json", "s3://c")},
	)

	result := runner.RunGenerators(context.Background(), &plugin.RunContext{TenantID: "T1"}, nil)
	assert.True(t, result.Success)
	assert.Empty(t, result.FailedCore)
	assert.Equal(t, map[string]string{"profile.json": "s3://a", "kpis.json": "s3://c"}, result.Artifacts)
	require.Len(t, result.Errors, 1)
	assert.Contains(t, result.Errors[0], "B")
}

func TestFeatureFlagSkipsGenerator(t *testing.T) {
	runner := newRunner(t,
		&plugin.Descriptor{Name: "charts", Kind: plugin.KindGenerator, Order: 10, FeatureFlag: "enable_charts",
			Generator: generatorOf("chart_histogram.png", "s3://h")},
		&plugin.Descriptor{Name: "narrative", Kind: plugin.KindGenerator, Order: 20, FeatureFlag: "enable_narrative",
			Generator: generatorOf("narrative.md", "s3://n")},
	)

	settings := map[string]interface{}{"enable_charts": false, "enable_narrative": true}
	result := runner.RunGenerators(context.Background(), &plugin.RunContext{}, settings)

	assert.True(t, result.Success)
	assert.Equal(t, []string{"charts"}, result.Skipped)
	assert.Equal(t, map[string]string{"narrative.md": "s3://n"}, result.Artifacts)
}

func TestGeneratorsSeeAccumulatedArtifacts(t *testing.T) {
	runner := newRunner(t,
		&plugin.Descriptor{Name: "profiler", Kind: plugin.KindGenerator, Order: 10,
			Generator: generatorOf("profile.json", "s3://p")},
		&plugin.Descriptor{Name: "manifest", Kind: plugin.KindGenerator, Order: 20,
			Generator: func(ctx context.Context, rc *plugin.RunContext, settings map[string]interface{}) (map[string]string, error) {
				assert.Equal(t, "s3://p", rc.Artifacts["profile.json"])
				return map[string]string{"manifest.json": "s3://m"}, nil
			}},
	)

	result := runner.RunGenerators(context.Background(), &plugin.RunContext{}, nil)
	assert.True(t, result.Success)
	assert.Len(t, result.Artifacts, 2)
}

func TestCoreAnalyzerFailureAborts(t *testing.T) {
	runner := newRunner(t,
		&plugin.Descriptor{Name: "stats", Kind: plugin.KindAnalyzer, IsCore: true, Order: 10,
			Analyzer: func(ctx context.Context, rc *plugin.RunContext, data map[string]interface{}) (map[string]interface{}, error) {
				return nil, errors.WrapMessage("bad input", errors.CodeValidationError)
			}},
		&plugin.Descriptor{Name: "anomaly", Kind: plugin.KindAnalyzer, Order: 20,
			Analyzer: func(ctx context.Context, rc *plugin.RunContext, data map[string]interface{}) (map[string]interface{}, error) {
				t.Fatal("must not run after core analyzer failure")
				return nil, nil
			}},
	)

	_, err := runner.RunAnalyzers(context.Background(), &plugin.RunContext{}, nil)
	require.Error(t, err)
	assert.Equal(t, errors.CodeInternalError, errors.CodeOf(err))
	assert.False(t, errors.IsRetryable(err))
}

func TestExtendedAnalyzerFailureCollected(t *testing.T) {
	runner := newRunner(t,
		&plugin.Descriptor{Name: "stats", Kind: plugin.KindAnalyzer, IsCore: true, Order: 10,
			Analyzer: func(ctx context.Context, rc *plugin.RunContext, data map[string]interface{}) (map[string]interface{}, error) {
				return map[string]interface{}{"rows": 100}, nil
			}},
		&plugin.Descriptor{Name: "anomaly", Kind: plugin.KindAnalyzer, Order: 20,
			Analyzer: func(ctx context.Context, rc *plugin.RunContext, data map[string]interface{}) (map[string]interface{}, error) {
				return nil, errors.WrapMessage("series too short", errors.CodeValidationError)
			}},
	)

	results, err := runner.RunAnalyzers(context.Background(), &plugin.RunContext{}, nil)
	require.NoError(t, err)
	assert.Equal(t, map[string]interface{}{"rows": 100}, results["stats"])
	collected, ok := results[ErrorsKey].([]string)
	require.True(t, ok)
	require.Len(t, collected, 1)
	assert.Contains(t, collected[0], "anomaly")
}

func TestErrorMessagesAreMasked(t *testing.T) {
	runner := newRunner(t,
		&plugin.Descriptor{Name: "leaky", Kind: plugin.KindGenerator, Order: 10,
			Generator: failingGenerator("auth failed for bob@example.com")},
	)
	result := runner.RunGenerators(context.Background(), &plugin.RunContext{}, nil)
	require.Len(t, result.Errors, 1)
	assert.NotContains(t, result.Errors[0], "bob@example.com")
	assert.Contains(t, result.Errors[0], "[email]")
}
