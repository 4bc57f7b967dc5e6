// Copyright (C) 2025-2026, Advanced Micro Devices, Inc. All rights reserved.
// See LICENSE for license information.

package model

import (
	"encoding/json"
	"time"
)

const TableNameSchemaVersion = "schema_versions"

// SchemaVersion mapped from table <schema_versions>
type SchemaVersion struct {
	ID                  int64           `gorm:"column:id;primaryKey;autoIncrement" json:"id"`
	SourceID            string          `gorm:"column:source_id;not null;size:128;index:idx_schema_source_version,priority:1" json:"source_id"`
	Version             int             `gorm:"column:version;not null;index:idx_schema_source_version,priority:2" json:"version"`
	CreatedAt           time.Time       `gorm:"column:created_at;not null;default:now()" json:"created_at"`
	Description         string          `gorm:"column:description;size:512" json:"description,omitempty"`
	Schema              json.RawMessage `gorm:"column:schema;type:jsonb" json:"schema"`
	ChangesFromPrevious json.RawMessage `gorm:"column:changes_from_previous;type:jsonb" json:"changes_from_previous,omitempty"`
}

// TableName SchemaVersion's table name
func (*SchemaVersion) TableName() string {
	return TableNameSchemaVersion
}
