// Copyright (C) 2025-2026, Advanced Micro Devices, Inc. All rights reserved.
// See LICENSE for license information.

// Package quota enforces per-tenant tier limits. Daily counters roll
// over lazily at UTC midnight on first touch.
package quota

import (
	"sync"
	"time"

	gocache "github.com/patrickmn/go-cache"

	"github.com/AMD-AGI/voyant/pkg/errors"
	"github.com/AMD-AGI/voyant/pkg/idgen"
	"github.com/AMD-AGI/voyant/pkg/metrics"
)

const (
	LimitJobsPerDay     = "jobs_per_day"
	LimitConcurrentJobs = "concurrent_jobs"
	LimitSources        = "sources"
	LimitArtifactBytes  = "artifact_bytes"
)

var denialCounter = metrics.NewCounterVec("quota_denials", "quota check denials", []string{"tenant", "limit"})

// usage is one tenant's consumption bucket. Only JobsToday is
// time-bounded; the other counters track live state.
type usage struct {
	mu            sync.Mutex
	day           string
	jobsToday     int
	concurrent    int
	sources       int
	artifactBytes int64
}

type Snapshot struct {
	Tier          string `json:"tier"`
	Day           string `json:"day"`
	JobsToday     int    `json:"jobs_today"`
	Concurrent    int    `json:"concurrent_jobs"`
	Sources       int    `json:"sources"`
	ArtifactBytes int64  `json:"artifact_bytes"`
}

type Manager struct {
	mu         sync.Mutex
	tiers      map[string]Tier
	tenantTier map[string]string
	buckets    *gocache.Cache
	clock      idgen.Clock
}

func NewManager(clock idgen.Clock) *Manager {
	if clock == nil {
		clock = idgen.RealClock{}
	}
	return &Manager{
		tiers:      BuiltinTiers(),
		tenantTier: map[string]string{},
		// Buckets idle for two days have rolled over anyway.
		buckets: gocache.New(48*time.Hour, time.Hour),
		clock:   clock,
	}
}

// SetTier assigns a tier to a tenant. Unknown tier names are rejected
// and the previous assignment stands.
func (m *Manager) SetTier(tenantID, tierName string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.tiers[tierName]; !ok {
		return errors.WrapMessage("unknown tier "+tierName, errors.CodeUnknownTier)
	}
	m.tenantTier[tenantID] = tierName
	return nil
}

// TierOf returns the tenant's tier, defaulting to free.
func (m *Manager) TierOf(tenantID string) Tier {
	m.mu.Lock()
	defer m.mu.Unlock()
	name, ok := m.tenantTier[tenantID]
	if !ok {
		name = TierFree
	}
	return m.tiers[name]
}

func (m *Manager) bucket(tenantID string) *usage {
	m.mu.Lock()
	defer m.mu.Unlock()
	if cached, ok := m.buckets.Get(tenantID); ok {
		return cached.(*usage)
	}
	u := &usage{day: m.today()}
	m.buckets.Set(tenantID, u, gocache.DefaultExpiration)
	return u
}

func (m *Manager) today() string {
	return m.clock.Now().UTC().Format("2006-01-02")
}

// rollover resets the daily counter when the UTC day has changed.
// Caller holds u.mu.
func (m *Manager) rollover(u *usage) {
	today := m.today()
	if u.day != today {
		u.day = today
		u.jobsToday = 0
	}
}

// Check reports whether the named limit currently has headroom. It
// does not reserve anything.
func (m *Manager) Check(tenantID, limitName string) (bool, string) {
	tier := m.TierOf(tenantID)
	u := m.bucket(tenantID)
	u.mu.Lock()
	defer u.mu.Unlock()
	m.rollover(u)

	allowed, reason := true, ""
	switch limitName {
	case LimitJobsPerDay:
		if u.jobsToday >= tier.MaxJobsPerDay {
			allowed, reason = false, "daily job limit reached"
		}
	case LimitConcurrentJobs:
		if u.concurrent >= tier.MaxConcurrentJobs {
			allowed, reason = false, "concurrent job limit reached"
		}
	case LimitSources:
		if u.sources >= tier.MaxSources {
			allowed, reason = false, "source limit reached"
		}
	case LimitArtifactBytes:
		if u.artifactBytes >= tier.MaxArtifactBytes {
			allowed, reason = false, "artifact storage limit reached"
		}
	default:
		allowed, reason = false, "unknown limit "+limitName
	}
	if !allowed {
		denialCounter.Inc(tenantID, limitName)
	}
	return allowed, reason
}

// RecordJobStart atomically checks both job limits and increments
// them. Returns false and changes nothing when either is exhausted.
func (m *Manager) RecordJobStart(tenantID string) bool {
	tier := m.TierOf(tenantID)
	u := m.bucket(tenantID)
	u.mu.Lock()
	defer u.mu.Unlock()
	m.rollover(u)
	if u.jobsToday >= tier.MaxJobsPerDay {
		denialCounter.Inc(tenantID, LimitJobsPerDay)
		return false
	}
	if u.concurrent >= tier.MaxConcurrentJobs {
		denialCounter.Inc(tenantID, LimitConcurrentJobs)
		return false
	}
	u.jobsToday++
	u.concurrent++
	return true
}

// RecordJobEnd releases a concurrency slot. The daily count is not
// decremented; a started job consumes its daily budget for good.
func (m *Manager) RecordJobEnd(tenantID string) {
	u := m.bucket(tenantID)
	u.mu.Lock()
	defer u.mu.Unlock()
	if u.concurrent > 0 {
		u.concurrent--
	}
}

func (m *Manager) RecordSourceAdded(tenantID string) bool {
	tier := m.TierOf(tenantID)
	u := m.bucket(tenantID)
	u.mu.Lock()
	defer u.mu.Unlock()
	if u.sources >= tier.MaxSources {
		denialCounter.Inc(tenantID, LimitSources)
		return false
	}
	u.sources++
	return true
}

func (m *Manager) RecordSourceRemoved(tenantID string) {
	u := m.bucket(tenantID)
	u.mu.Lock()
	defer u.mu.Unlock()
	if u.sources > 0 {
		u.sources--
	}
}

// RecordArtifactBytes adjusts the tenant's stored byte count; delta
// may be negative after pruning.
func (m *Manager) RecordArtifactBytes(tenantID string, delta int64) {
	u := m.bucket(tenantID)
	u.mu.Lock()
	defer u.mu.Unlock()
	u.artifactBytes += delta
	if u.artifactBytes < 0 {
		u.artifactBytes = 0
	}
}

func (m *Manager) Usage(tenantID string) Snapshot {
	tier := m.TierOf(tenantID)
	u := m.bucket(tenantID)
	u.mu.Lock()
	defer u.mu.Unlock()
	m.rollover(u)
	return Snapshot{
		Tier:          tier.Name,
		Day:           u.day,
		JobsToday:     u.jobsToday,
		Concurrent:    u.concurrent,
		Sources:       u.sources,
		ArtifactBytes: u.artifactBytes,
	}
}
