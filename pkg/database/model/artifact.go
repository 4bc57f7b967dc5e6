// Copyright (C) 2025-2026, Advanced Micro Devices, Inc. All rights reserved.
// See LICENSE for license information.

package model

import "time"

const TableNameArtifact = "artifacts"

// Artifact mapped from table <artifacts>
type Artifact struct {
	ArtifactID string    `gorm:"column:artifact_id;primaryKey;size:64" json:"artifact_id"`
	JobID      string    `gorm:"column:job_id;not null;size:64;index" json:"job_id"`
	TenantID   string    `gorm:"column:tenant_id;not null;size:128;index" json:"tenant_id"`
	Key        string    `gorm:"column:key;not null;size:256" json:"key"`
	Format     string    `gorm:"column:format;size:32" json:"format"`
	URI        string    `gorm:"column:uri;not null;size:1024" json:"uri"`
	SizeBytes  int64     `gorm:"column:size_bytes;default:0" json:"size_bytes"`
	Checksum   string    `gorm:"column:checksum;size:128" json:"checksum,omitempty"`
	CreatedAt  time.Time `gorm:"column:created_at;not null;default:now();index" json:"created_at"`
}

// TableName Artifact's table name
func (*Artifact) TableName() string {
	return TableNameArtifact
}
