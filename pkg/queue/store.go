// Copyright (C) 2025-2026, Advanced Micro Devices, Inc. All rights reserved.
// See LICENSE for license information.

package queue

import (
	"context"

	"github.com/AMD-AGI/voyant/pkg/database"
	"github.com/AMD-AGI/voyant/pkg/errors"
)

// Store is the write-through persistence behind the in-memory queue.
type Store interface {
	SaveJob(ctx context.Context, job *Job) error
	LoadActive(ctx context.Context) ([]*Job, error)
}

// FacadeStore persists through the jobs facade.
type FacadeStore struct {
	facade database.JobFacadeInterface
}

func NewFacadeStore(facade database.JobFacadeInterface) *FacadeStore {
	return &FacadeStore{facade: facade}
}

func (s *FacadeStore) SaveJob(ctx context.Context, job *Job) error {
	row := job.ToModel()
	err := s.facade.SaveJob(ctx, row)
	if errors.IsNotFound(err) {
		return s.facade.CreateJob(ctx, row)
	}
	return err
}

func (s *FacadeStore) LoadActive(ctx context.Context) ([]*Job, error) {
	rows, err := s.facade.ListActiveJobs(ctx)
	if err != nil {
		return nil, err
	}
	jobs := make([]*Job, 0, len(rows))
	for _, row := range rows {
		jobs = append(jobs, FromModel(row))
	}
	return jobs, nil
}

// NopStore backs single-node runs without a database.
type NopStore struct{}

func (NopStore) SaveJob(ctx context.Context, job *Job) error {
	return nil
}

func (NopStore) LoadActive(ctx context.Context) ([]*Job, error) {
	return nil, nil
}
