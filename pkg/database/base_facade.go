// Copyright (C) 2025-2026, Advanced Micro Devices, Inc. All rights reserved.
// See LICENSE for license information.

package database

import (
	"gorm.io/gorm"

	"github.com/AMD-AGI/voyant/pkg/database/model"
	"github.com/AMD-AGI/voyant/pkg/sql"
)

// BaseFacade is the base structure for all Facades, providing DB access capability
type BaseFacade struct {
	db *gorm.DB
}

// getDB returns the injected handle, falling back to the default pool
func (f *BaseFacade) getDB() *gorm.DB {
	if f.db != nil {
		return f.db
	}
	return sql.GetDefaultDB()
}

// Migrate creates or updates all tables owned by the execution core.
func Migrate(db *gorm.DB) error {
	return db.AutoMigrate(
		&model.Job{},
		&model.Artifact{},
		&model.SchemaVersion{},
		&model.EventRecord{},
	)
}
