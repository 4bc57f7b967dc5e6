// Copyright (C) 2025-2026, Advanced Micro Devices, Inc. All rights reserved.
// See LICENSE for license information.

package database

import (
	"context"

	"gorm.io/gorm"

	"github.com/AMD-AGI/voyant/pkg/database/model"
	"github.com/AMD-AGI/voyant/pkg/errors"
	"github.com/AMD-AGI/voyant/pkg/sql"
)

type SchemaVersionFacadeInterface interface {
	CreateSchemaVersion(ctx context.Context, record *model.SchemaVersion) error
	GetLatest(ctx context.Context, sourceID string) (*model.SchemaVersion, error)
	ListBySource(ctx context.Context, sourceID string) ([]*model.SchemaVersion, error)
}

type SchemaVersionFacade struct {
	BaseFacade
}

func NewSchemaVersionFacade() SchemaVersionFacadeInterface {
	return &SchemaVersionFacade{}
}

func NewSchemaVersionFacadeWithDB(db *gorm.DB) SchemaVersionFacadeInterface {
	return &SchemaVersionFacade{BaseFacade{db: db}}
}

// CreateSchemaVersion assigns the next version number for the source
// when the record carries none.
func (f *SchemaVersionFacade) CreateSchemaVersion(ctx context.Context, record *model.SchemaVersion) error {
	if record.Version == 0 {
		latest, err := f.GetLatest(ctx, record.SourceID)
		if err != nil && !errors.IsNotFound(err) {
			return err
		}
		if latest != nil {
			record.Version = latest.Version + 1
		} else {
			record.Version = 1
		}
	}
	return sql.CheckErr(f.getDB().WithContext(ctx).Create(record).Error, false)
}

func (f *SchemaVersionFacade) GetLatest(ctx context.Context, sourceID string) (*model.SchemaVersion, error) {
	record := &model.SchemaVersion{}
	err := f.getDB().WithContext(ctx).
		Where("source_id = ?", sourceID).
		Order("version DESC").
		First(record).Error
	if err == gorm.ErrRecordNotFound {
		return nil, errors.NewNotFoundError("schema version", sourceID)
	}
	if err != nil {
		return nil, sql.CheckErr(err, false)
	}
	return record, nil
}

func (f *SchemaVersionFacade) ListBySource(ctx context.Context, sourceID string) ([]*model.SchemaVersion, error) {
	var records []*model.SchemaVersion
	err := f.getDB().WithContext(ctx).
		Where("source_id = ?", sourceID).
		Order("version ASC").
		Find(&records).Error
	return records, sql.CheckErr(err, false)
}
