// Copyright (C) 2025-2026, Advanced Micro Devices, Inc. All rights reserved.
// See LICENSE for license information.

package config

import (
	"time"

	"github.com/spf13/viper"
)

// Flat runtime settings. These are read through viper so that tests
// and operators can override single keys without a full config file.
const (
	KeyMetricsMode             = "metrics_mode"
	KeyEnableQuality           = "enable_quality"
	KeyEnableCharts            = "enable_charts"
	KeyEnableNarrative         = "enable_narrative"
	KeyMaxConcurrentJobs       = "max_concurrent_jobs"
	KeyLeaseTTLSeconds         = "lease_ttl_seconds"
	KeyHeartbeatTimeoutSeconds = "heartbeat_timeout_seconds"
	KeyPruneIntervalSeconds    = "prune_interval_seconds"
	KeyArtifactRetentionDays   = "artifact_retention_days"
	KeyTenantHeaderName        = "tenant_header_name"
	KeyWorkerCount             = "worker_count"
	KeyEventRingSize           = "event_ring_size"
	KeyEventPublishAttempts    = "event_publish_attempts"
)

func LoadSettings(path string) error {
	if path == "" {
		return nil
	}
	viper.SetConfigFile(path)
	return viper.ReadInConfig()
}

// SetValue overrides a single runtime setting. Intended for tests.
func SetValue(key string, value interface{}) {
	viper.Set(key, value)
}

// ResetSettings clears all overrides. Intended for tests.
func ResetSettings() {
	viper.Reset()
}

func getString(key, def string) string {
	if viper.IsSet(key) {
		return viper.GetString(key)
	}
	return def
}

func getBool(key string, def bool) bool {
	if viper.IsSet(key) {
		return viper.GetBool(key)
	}
	return def
}

func getInt(key string, def int) int {
	if viper.IsSet(key) {
		return viper.GetInt(key)
	}
	return def
}

func GetMetricsMode() string {
	return getString(KeyMetricsMode, "basic")
}

func IsQualityEnabled() bool {
	return getBool(KeyEnableQuality, true)
}

func IsChartsEnabled() bool {
	return getBool(KeyEnableCharts, true)
}

func IsNarrativeEnabled() bool {
	return getBool(KeyEnableNarrative, false)
}

func GetMaxConcurrentJobs() int {
	return getInt(KeyMaxConcurrentJobs, 2)
}

func GetLeaseTTL() time.Duration {
	return time.Duration(getInt(KeyLeaseTTLSeconds, 300)) * time.Second
}

func GetHeartbeatTimeout() time.Duration {
	return time.Duration(getInt(KeyHeartbeatTimeoutSeconds, 60)) * time.Second
}

func GetPruneInterval() time.Duration {
	return time.Duration(getInt(KeyPruneIntervalSeconds, 30)) * time.Second
}

func GetArtifactRetentionDays() int {
	return getInt(KeyArtifactRetentionDays, 30)
}

func GetTenantHeaderName() string {
	return getString(KeyTenantHeaderName, "X-Voyant-Tenant")
}

func GetWorkerCount() int {
	return getInt(KeyWorkerCount, 4)
}

func GetEventRingSize() int {
	return getInt(KeyEventRingSize, 256)
}

func GetEventPublishAttempts() int {
	return getInt(KeyEventPublishAttempts, 3)
}
