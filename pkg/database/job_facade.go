// Copyright (C) 2025-2026, Advanced Micro Devices, Inc. All rights reserved.
// See LICENSE for license information.

package database

import (
	"context"
	"time"

	"gorm.io/gorm"

	"github.com/AMD-AGI/voyant/pkg/database/model"
	"github.com/AMD-AGI/voyant/pkg/errors"
	"github.com/AMD-AGI/voyant/pkg/sql"
)

type JobFilter struct {
	TenantID *string
	Status   *string
	Type     *string
	Limit    int
}

type JobFacadeInterface interface {
	CreateJob(ctx context.Context, job *model.Job) error
	SaveJob(ctx context.Context, job *model.Job) error
	GetJob(ctx context.Context, jobID string) (*model.Job, error)
	ListJobs(ctx context.Context, filter *JobFilter) ([]*model.Job, error)
	ListActiveJobs(ctx context.Context) ([]*model.Job, error)
	DeleteTerminalBefore(ctx context.Context, cutoff time.Time) (int64, error)
}

type JobFacade struct {
	BaseFacade
}

func NewJobFacade() JobFacadeInterface {
	return &JobFacade{}
}

func NewJobFacadeWithDB(db *gorm.DB) JobFacadeInterface {
	return &JobFacade{BaseFacade{db: db}}
}

func (f *JobFacade) CreateJob(ctx context.Context, job *model.Job) error {
	return sql.CheckErr(f.getDB().WithContext(ctx).Create(job).Error, false)
}

// SaveJob writes the full row; the in-memory queue is authoritative
// and persists state transitions through here.
func (f *JobFacade) SaveJob(ctx context.Context, job *model.Job) error {
	return sql.CheckErr(f.getDB().WithContext(ctx).Save(job).Error, false)
}

func (f *JobFacade) GetJob(ctx context.Context, jobID string) (*model.Job, error) {
	job := &model.Job{}
	err := f.getDB().WithContext(ctx).Where("job_id = ?", jobID).First(job).Error
	if err == gorm.ErrRecordNotFound {
		return nil, errors.NewNotFoundError("job", jobID)
	}
	if err != nil {
		return nil, sql.CheckErr(err, false)
	}
	return job, nil
}

func (f *JobFacade) ListJobs(ctx context.Context, filter *JobFilter) ([]*model.Job, error) {
	db := f.getDB().WithContext(ctx).Model(&model.Job{})
	if filter != nil {
		if filter.TenantID != nil {
			db = db.Where("tenant_id = ?", *filter.TenantID)
		}
		if filter.Status != nil {
			db = db.Where("status = ?", *filter.Status)
		}
		if filter.Type != nil {
			db = db.Where("type = ?", *filter.Type)
		}
		if filter.Limit > 0 {
			db = db.Limit(filter.Limit)
		}
	}
	var jobs []*model.Job
	err := db.Order("priority ASC, created_at ASC, job_id ASC").Find(&jobs).Error
	return jobs, sql.CheckErr(err, false)
}

// ListActiveJobs returns queued and running jobs for queue recovery
// after a restart.
func (f *JobFacade) ListActiveJobs(ctx context.Context) ([]*model.Job, error) {
	var jobs []*model.Job
	err := f.getDB().WithContext(ctx).
		Where("status IN ?", []string{"queued", "running"}).
		Order("priority ASC, created_at ASC, job_id ASC").
		Find(&jobs).Error
	return jobs, sql.CheckErr(err, false)
}

func (f *JobFacade) DeleteTerminalBefore(ctx context.Context, cutoff time.Time) (int64, error) {
	result := f.getDB().WithContext(ctx).
		Where("status IN ? AND created_at < ?", []string{"completed", "failed", "cancelled"}, cutoff).
		Delete(&model.Job{})
	return result.RowsAffected, sql.CheckErr(result.Error, false)
}
