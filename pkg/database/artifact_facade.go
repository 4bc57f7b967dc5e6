// Copyright (C) 2025-2026, Advanced Micro Devices, Inc. All rights reserved.
// See LICENSE for license information.

package database

import (
	"context"
	"time"

	"gorm.io/gorm"

	"github.com/AMD-AGI/voyant/pkg/database/model"
	"github.com/AMD-AGI/voyant/pkg/sql"
)

type ArtifactFacadeInterface interface {
	CreateArtifact(ctx context.Context, artifact *model.Artifact) error
	ListByJob(ctx context.Context, jobID string) ([]*model.Artifact, error)
	SumSizeByTenant(ctx context.Context, tenantID string) (int64, error)
	DeleteOlderThan(ctx context.Context, cutoff time.Time) (int64, error)
}

type ArtifactFacade struct {
	BaseFacade
}

func NewArtifactFacade() ArtifactFacadeInterface {
	return &ArtifactFacade{}
}

func NewArtifactFacadeWithDB(db *gorm.DB) ArtifactFacadeInterface {
	return &ArtifactFacade{BaseFacade{db: db}}
}

func (f *ArtifactFacade) CreateArtifact(ctx context.Context, artifact *model.Artifact) error {
	return sql.CheckErr(f.getDB().WithContext(ctx).Create(artifact).Error, false)
}

func (f *ArtifactFacade) ListByJob(ctx context.Context, jobID string) ([]*model.Artifact, error) {
	var artifacts []*model.Artifact
	err := f.getDB().WithContext(ctx).
		Where("job_id = ?", jobID).
		Order("created_at ASC, artifact_id ASC").
		Find(&artifacts).Error
	return artifacts, sql.CheckErr(err, false)
}

func (f *ArtifactFacade) SumSizeByTenant(ctx context.Context, tenantID string) (int64, error) {
	var total int64
	err := f.getDB().WithContext(ctx).Model(&model.Artifact{}).
		Where("tenant_id = ?", tenantID).
		Select("COALESCE(SUM(size_bytes), 0)").
		Scan(&total).Error
	return total, sql.CheckErr(err, false)
}

func (f *ArtifactFacade) DeleteOlderThan(ctx context.Context, cutoff time.Time) (int64, error) {
	result := f.getDB().WithContext(ctx).
		Where("created_at < ?", cutoff).
		Delete(&model.Artifact{})
	return result.RowsAffected, sql.CheckErr(result.Error, false)
}
