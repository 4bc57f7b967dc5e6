// Copyright (C) 2025-2026, Advanced Micro Devices, Inc. All rights reserved.
// See LICENSE for license information.

package quota

// Tier bundles the limits applied to a tenant.
type Tier struct {
	Name              string `json:"name"`
	MaxJobsPerDay     int    `json:"max_jobs_per_day"`
	MaxConcurrentJobs int    `json:"max_concurrent_jobs"`
	MaxSources        int    `json:"max_sources"`
	MaxArtifactBytes  int64  `json:"max_artifact_bytes"`
}

const (
	TierFree         = "free"
	TierStarter      = "starter"
	TierProfessional = "professional"
	TierEnterprise   = "enterprise"
)

const (
	mib = int64(1) << 20
	gib = int64(1) << 30
)

// BuiltinTiers returns the four stock tiers. SetTier accepts only
// these names unless custom tiers are installed.
func BuiltinTiers() map[string]Tier {
	return map[string]Tier{
		TierFree: {
			Name:              TierFree,
			MaxJobsPerDay:     10,
			MaxConcurrentJobs: 1,
			MaxSources:        3,
			MaxArtifactBytes:  100 * mib,
		},
		TierStarter: {
			Name:              TierStarter,
			MaxJobsPerDay:     100,
			MaxConcurrentJobs: 2,
			MaxSources:        10,
			MaxArtifactBytes:  1 * gib,
		},
		TierProfessional: {
			Name:              TierProfessional,
			MaxJobsPerDay:     1000,
			MaxConcurrentJobs: 5,
			MaxSources:        50,
			MaxArtifactBytes:  10 * gib,
		},
		TierEnterprise: {
			Name:              TierEnterprise,
			MaxJobsPerDay:     10000,
			MaxConcurrentJobs: 20,
			MaxSources:        500,
			MaxArtifactBytes:  100 * gib,
		},
	}
}
