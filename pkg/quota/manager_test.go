// Copyright (C) 2025-2026, Advanced Micro Devices, Inc. All rights reserved.
// See LICENSE for license information.

package quota

import (
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/AMD-AGI/voyant/pkg/errors"
	"github.com/AMD-AGI/voyant/pkg/idgen"
)

func newTestManager() (*Manager, *idgen.FakeClock) {
	clock := idgen.NewFakeClock(time.Date(2026, 4, 1, 12, 0, 0, 0, time.UTC))
	return NewManager(clock), clock
}

func TestSetTierUnknownRejected(t *testing.T) {
	m, _ := newTestManager()
	require.NoError(t, m.SetTier("acme", TierStarter))

	err := m.SetTier("acme", "platinum")
	assert.Equal(t, errors.CodeUnknownTier, errors.CodeOf(err))
	// Previous assignment stands.
	assert.Equal(t, TierStarter, m.TierOf("acme").Name)
}

func TestTierDefaultsToFree(t *testing.T) {
	m, _ := newTestManager()
	tier := m.TierOf("stranger")
	assert.Equal(t, TierFree, tier.Name)
	assert.Equal(t, 10, tier.MaxJobsPerDay)
	assert.Equal(t, 1, tier.MaxConcurrentJobs)
}

func TestRecordJobStartDailyLimitBoundary(t *testing.T) {
	m, _ := newTestManager()
	require.NoError(t, m.SetTier("acme", TierFree))

	// Free tier: 10 jobs/day, 1 concurrent. Run them sequentially.
	for i := 0; i < 10; i++ {
		require.True(t, m.RecordJobStart("acme"), "job %d should start", i)
		m.RecordJobEnd("acme")
	}
	assert.False(t, m.RecordJobStart("acme"), "11th job must be denied")

	usage := m.Usage("acme")
	assert.Equal(t, 10, usage.JobsToday)
	assert.Equal(t, 0, usage.Concurrent)
}

func TestRecordJobStartConcurrencyLimit(t *testing.T) {
	m, _ := newTestManager()
	require.NoError(t, m.SetTier("acme", TierStarter))

	assert.True(t, m.RecordJobStart("acme"))
	assert.True(t, m.RecordJobStart("acme"))
	assert.False(t, m.RecordJobStart("acme"), "starter tier allows 2 concurrent")

	m.RecordJobEnd("acme")
	assert.True(t, m.RecordJobStart("acme"))
}

func TestDailyRolloverAtUTCMidnight(t *testing.T) {
	m, clock := newTestManager()
	require.NoError(t, m.SetTier("acme", TierFree))

	for i := 0; i < 10; i++ {
		require.True(t, m.RecordJobStart("acme"))
		m.RecordJobEnd("acme")
	}
	require.False(t, m.RecordJobStart("acme"))

	// Cross UTC midnight; the daily counter resets lazily.
	clock.Advance(13 * time.Hour)
	assert.True(t, m.RecordJobStart("acme"))

	usage := m.Usage("acme")
	assert.Equal(t, "2026-04-02", usage.Day)
	assert.Equal(t, 1, usage.JobsToday)
	assert.Equal(t, 1, usage.Concurrent, "concurrency survives rollover")
}

func TestCheckDoesNotReserve(t *testing.T) {
	m, _ := newTestManager()
	for i := 0; i < 20; i++ {
		allowed, reason := m.Check("acme", LimitJobsPerDay)
		assert.True(t, allowed)
		assert.Empty(t, reason)
	}
	usage := m.Usage("acme")
	assert.Equal(t, 0, usage.JobsToday)
}

func TestCheckDenialReasons(t *testing.T) {
	m, _ := newTestManager()
	require.True(t, m.RecordJobStart("acme")) // free tier: 1 concurrent

	allowed, reason := m.Check("acme", LimitConcurrentJobs)
	assert.False(t, allowed)
	assert.Equal(t, "concurrent job limit reached", reason)

	allowed, reason = m.Check("acme", "widgets")
	assert.False(t, allowed)
	assert.Contains(t, reason, "unknown limit")
}

func TestSourceLimits(t *testing.T) {
	m, _ := newTestManager()
	for i := 0; i < 3; i++ {
		assert.True(t, m.RecordSourceAdded("acme"))
	}
	assert.False(t, m.RecordSourceAdded("acme"), "free tier allows 3 sources")

	m.RecordSourceRemoved("acme")
	assert.True(t, m.RecordSourceAdded("acme"))
}

func TestArtifactBytes(t *testing.T) {
	m, _ := newTestManager()
	m.RecordArtifactBytes("acme", 90*mib)

	allowed, _ := m.Check("acme", LimitArtifactBytes)
	assert.True(t, allowed)

	m.RecordArtifactBytes("acme", 10*mib)
	allowed, _ = m.Check("acme", LimitArtifactBytes)
	assert.False(t, allowed, "free tier caps at 100 MiB")

	m.RecordArtifactBytes("acme", -200*mib)
	assert.Equal(t, int64(0), m.Usage("acme").ArtifactBytes, "byte count floors at zero")
}

func TestRecordJobStartConcurrentCallers(t *testing.T) {
	m, _ := newTestManager()
	require.NoError(t, m.SetTier("acme", TierEnterprise))

	var wg sync.WaitGroup
	var mu sync.Mutex
	started := 0
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if m.RecordJobStart("acme") {
				mu.Lock()
				started++
				mu.Unlock()
			}
		}()
	}
	wg.Wait()
	assert.Equal(t, 20, started, "enterprise tier allows 20 concurrent")
	assert.Equal(t, 20, m.Usage("acme").Concurrent)
}
