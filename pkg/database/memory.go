// Copyright (C) 2025-2026, Advanced Micro Devices, Inc. All rights reserved.
// See LICENSE for license information.

package database

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/AMD-AGI/voyant/pkg/database/model"
	"github.com/AMD-AGI/voyant/pkg/errors"
)

// In-memory facades backing single-node deployments and tests. They
// honor the same ordering contracts as the gorm facades.

type MemoryJobFacade struct {
	mu   sync.RWMutex
	jobs map[string]*model.Job
}

func NewMemoryJobFacade() *MemoryJobFacade {
	return &MemoryJobFacade{jobs: map[string]*model.Job{}}
}

func (f *MemoryJobFacade) CreateJob(ctx context.Context, job *model.Job) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, ok := f.jobs[job.JobID]; ok {
		return errors.WrapMessage("job already exists", errors.CodeConflict)
	}
	clone := *job
	f.jobs[job.JobID] = &clone
	return nil
}

func (f *MemoryJobFacade) SaveJob(ctx context.Context, job *model.Job) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	clone := *job
	f.jobs[job.JobID] = &clone
	return nil
}

func (f *MemoryJobFacade) GetJob(ctx context.Context, jobID string) (*model.Job, error) {
	f.mu.RLock()
	defer f.mu.RUnlock()
	job, ok := f.jobs[jobID]
	if !ok {
		return nil, errors.NewNotFoundError("job", jobID)
	}
	clone := *job
	return &clone, nil
}

func (f *MemoryJobFacade) ListJobs(ctx context.Context, filter *JobFilter) ([]*model.Job, error) {
	f.mu.RLock()
	defer f.mu.RUnlock()
	result := make([]*model.Job, 0)
	for _, job := range f.jobs {
		if filter != nil {
			if filter.TenantID != nil && job.TenantID != *filter.TenantID {
				continue
			}
			if filter.Status != nil && job.Status != *filter.Status {
				continue
			}
			if filter.Type != nil && job.Type != *filter.Type {
				continue
			}
		}
		clone := *job
		result = append(result, &clone)
	}
	sortJobs(result)
	if filter != nil && filter.Limit > 0 && len(result) > filter.Limit {
		result = result[:filter.Limit]
	}
	return result, nil
}

func (f *MemoryJobFacade) ListActiveJobs(ctx context.Context) ([]*model.Job, error) {
	f.mu.RLock()
	defer f.mu.RUnlock()
	result := make([]*model.Job, 0)
	for _, job := range f.jobs {
		if job.Status == "queued" || job.Status == "running" {
			clone := *job
			result = append(result, &clone)
		}
	}
	sortJobs(result)
	return result, nil
}

func (f *MemoryJobFacade) DeleteTerminalBefore(ctx context.Context, cutoff time.Time) (int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var removed int64
	for id, job := range f.jobs {
		switch job.Status {
		case "completed", "failed", "cancelled":
			if job.CreatedAt.Before(cutoff) {
				delete(f.jobs, id)
				removed++
			}
		}
	}
	return removed, nil
}

func sortJobs(jobs []*model.Job) {
	sort.Slice(jobs, func(i, j int) bool {
		if jobs[i].Priority != jobs[j].Priority {
			return jobs[i].Priority < jobs[j].Priority
		}
		if !jobs[i].CreatedAt.Equal(jobs[j].CreatedAt) {
			return jobs[i].CreatedAt.Before(jobs[j].CreatedAt)
		}
		return jobs[i].JobID < jobs[j].JobID
	})
}

type MemoryArtifactFacade struct {
	mu        sync.RWMutex
	artifacts []*model.Artifact
}

func NewMemoryArtifactFacade() *MemoryArtifactFacade {
	return &MemoryArtifactFacade{}
}

func (f *MemoryArtifactFacade) CreateArtifact(ctx context.Context, artifact *model.Artifact) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	clone := *artifact
	f.artifacts = append(f.artifacts, &clone)
	return nil
}

func (f *MemoryArtifactFacade) ListByJob(ctx context.Context, jobID string) ([]*model.Artifact, error) {
	f.mu.RLock()
	defer f.mu.RUnlock()
	result := make([]*model.Artifact, 0)
	for _, artifact := range f.artifacts {
		if artifact.JobID == jobID {
			clone := *artifact
			result = append(result, &clone)
		}
	}
	return result, nil
}

func (f *MemoryArtifactFacade) SumSizeByTenant(ctx context.Context, tenantID string) (int64, error) {
	f.mu.RLock()
	defer f.mu.RUnlock()
	var total int64
	for _, artifact := range f.artifacts {
		if artifact.TenantID == tenantID {
			total += artifact.SizeBytes
		}
	}
	return total, nil
}

func (f *MemoryArtifactFacade) DeleteOlderThan(ctx context.Context, cutoff time.Time) (int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	kept := f.artifacts[:0]
	var removed int64
	for _, artifact := range f.artifacts {
		if artifact.CreatedAt.Before(cutoff) {
			removed++
			continue
		}
		kept = append(kept, artifact)
	}
	f.artifacts = kept
	return removed, nil
}

type MemoryEventFacade struct {
	mu     sync.RWMutex
	events []*model.EventRecord
}

func NewMemoryEventFacade() *MemoryEventFacade {
	return &MemoryEventFacade{}
}

func (f *MemoryEventFacade) CreateEvent(ctx context.Context, event *model.EventRecord) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	clone := *event
	f.events = append(f.events, &clone)
	return nil
}

func (f *MemoryEventFacade) ListRecent(ctx context.Context, limit int) ([]*model.EventRecord, error) {
	f.mu.RLock()
	defer f.mu.RUnlock()
	result := make([]*model.EventRecord, 0, len(f.events))
	for _, event := range f.events {
		clone := *event
		result = append(result, &clone)
	}
	sort.Slice(result, func(i, j int) bool {
		if !result[i].Timestamp.Equal(result[j].Timestamp) {
			return result[i].Timestamp.After(result[j].Timestamp)
		}
		return result[i].EventID > result[j].EventID
	})
	if limit > 0 && len(result) > limit {
		result = result[:limit]
	}
	return result, nil
}

type MemorySchemaVersionFacade struct {
	mu      sync.RWMutex
	records map[string][]*model.SchemaVersion
}

func NewMemorySchemaVersionFacade() *MemorySchemaVersionFacade {
	return &MemorySchemaVersionFacade{records: map[string][]*model.SchemaVersion{}}
}

func (f *MemorySchemaVersionFacade) CreateSchemaVersion(ctx context.Context, record *model.SchemaVersion) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	existing := f.records[record.SourceID]
	if record.Version == 0 {
		record.Version = len(existing) + 1
	}
	clone := *record
	f.records[record.SourceID] = append(existing, &clone)
	return nil
}

func (f *MemorySchemaVersionFacade) GetLatest(ctx context.Context, sourceID string) (*model.SchemaVersion, error) {
	f.mu.RLock()
	defer f.mu.RUnlock()
	records := f.records[sourceID]
	if len(records) == 0 {
		return nil, errors.NewNotFoundError("schema version", sourceID)
	}
	latest := records[0]
	for _, record := range records[1:] {
		if record.Version > latest.Version {
			latest = record
		}
	}
	clone := *latest
	return &clone, nil
}

func (f *MemorySchemaVersionFacade) ListBySource(ctx context.Context, sourceID string) ([]*model.SchemaVersion, error) {
	f.mu.RLock()
	defer f.mu.RUnlock()
	records := f.records[sourceID]
	result := make([]*model.SchemaVersion, 0, len(records))
	for _, record := range records {
		clone := *record
		result = append(result, &clone)
	}
	sort.Slice(result, func(i, j int) bool { return result[i].Version < result[j].Version })
	return result, nil
}
