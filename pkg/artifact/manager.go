// Copyright (C) 2025-2026, Advanced Micro Devices, Inc. All rights reserved.
// See LICENSE for license information.

package artifact

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"path"
	"time"

	"github.com/AMD-AGI/voyant/pkg/database"
	"github.com/AMD-AGI/voyant/pkg/database/model"
	"github.com/AMD-AGI/voyant/pkg/errors"
	"github.com/AMD-AGI/voyant/pkg/eventbus"
	"github.com/AMD-AGI/voyant/pkg/eventschema"
	"github.com/AMD-AGI/voyant/pkg/idgen"
	"github.com/AMD-AGI/voyant/pkg/metrics"
	"github.com/AMD-AGI/voyant/pkg/plugin"
	"github.com/AMD-AGI/voyant/pkg/quota"
)

var (
	savedCounter = metrics.NewCounterVec("artifacts_saved", "artifacts written to the store", []string{"tenant"})
	bytesCounter = metrics.NewCounterVec("artifact_bytes_written", "artifact bytes written", []string{"tenant"})
)

// Manager couples the byte store with the artifacts table, the tenant
// byte counters and the artifact.created event.
type Manager struct {
	store  Store
	facade database.ArtifactFacadeInterface
	quotas *quota.Manager
	bus    *eventbus.Bus
	clock  idgen.Clock
}

func NewManager(store Store, facade database.ArtifactFacadeInterface, quotas *quota.Manager, bus *eventbus.Bus, clock idgen.Clock) *Manager {
	if clock == nil {
		clock = idgen.RealClock{}
	}
	return &Manager{store: store, facade: facade, quotas: quotas, bus: bus, clock: clock}
}

// Save stores the bytes and records the artifact reference. The key
// must fit the canonical taxonomy; tenants at their storage cap are
// refused before any bytes are written.
func (m *Manager) Save(ctx context.Context, tenantID, jobID, key, format string, data []byte) (*model.Artifact, error) {
	if err := plugin.CheckArtifactKey(key); err != nil {
		return nil, err
	}
	if m.quotas != nil {
		if allowed, _ := m.quotas.Check(tenantID, quota.LimitArtifactBytes); !allowed {
			tier := m.quotas.TierOf(tenantID)
			usage := m.quotas.Usage(tenantID)
			return nil, errors.NewQuotaExceededError(quota.LimitArtifactBytes, tenantID,
				usage.ArtifactBytes, tier.MaxArtifactBytes)
		}
	}

	uri, err := m.store.Put(ctx, path.Join(tenantID, jobID, key), data)
	if err != nil {
		return nil, err
	}
	sum := sha256.Sum256(data)
	ref := &model.Artifact{
		ArtifactID: idgen.NewArtifactID(),
		JobID:      jobID,
		TenantID:   tenantID,
		Key:        key,
		Format:     format,
		URI:        uri,
		SizeBytes:  int64(len(data)),
		Checksum:   hex.EncodeToString(sum[:]),
		CreatedAt:  m.clock.Now().UTC(),
	}
	if m.facade != nil {
		if err := m.facade.CreateArtifact(ctx, ref); err != nil {
			return nil, err
		}
	}
	if m.quotas != nil {
		m.quotas.RecordArtifactBytes(tenantID, ref.SizeBytes)
	}
	savedCounter.Inc(tenantID)
	bytesCounter.Add(float64(ref.SizeBytes), tenantID)
	if m.bus != nil {
		m.bus.Emit(ctx, "artifacts", &eventbus.Event{
			EventType: eventschema.EventArtifactCreated,
			TenantID:  tenantID,
			Payload: map[string]interface{}{
				"artifact_id": ref.ArtifactID,
				"job_id":      jobID,
				"tenant_id":   tenantID,
				"key":         key,
				"uri":         uri,
				"size_bytes":  int(ref.SizeBytes),
			},
		})
	}
	return ref, nil
}

// Fetch resolves an artifact URI back to its bytes.
func (m *Manager) Fetch(ctx context.Context, uri string) ([]byte, error) {
	return m.store.Fetch(ctx, uri)
}

// ListByJob returns the artifact references linked to a job.
func (m *Manager) ListByJob(ctx context.Context, jobID string) ([]*model.Artifact, error) {
	if m.facade == nil {
		return nil, nil
	}
	return m.facade.ListByJob(ctx, jobID)
}

// PruneOlderThan drops artifact rows past the retention window and
// returns the number deleted. Byte counters are resynced per tenant
// through SyncTenantUsage.
func (m *Manager) PruneOlderThan(ctx context.Context, retention time.Duration) (int64, error) {
	if m.facade == nil {
		return 0, nil
	}
	cutoff := m.clock.Now().Add(-retention)
	return m.facade.DeleteOlderThan(ctx, cutoff)
}

// SyncTenantUsage re-derives the tenant's artifact byte counter from
// the artifacts table after pruning or drift.
func (m *Manager) SyncTenantUsage(ctx context.Context, tenantID string) error {
	if m.facade == nil || m.quotas == nil {
		return nil
	}
	sum, err := m.facade.SumSizeByTenant(ctx, tenantID)
	if err != nil {
		return err
	}
	current := m.quotas.Usage(tenantID).ArtifactBytes
	m.quotas.RecordArtifactBytes(tenantID, sum-current)
	return nil
}
