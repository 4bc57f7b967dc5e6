// Copyright (C) 2025-2026, Advanced Micro Devices, Inc. All rights reserved.
// See LICENSE for license information.

package model

import (
	"encoding/json"
	"time"
)

const TableNameJob = "jobs"

// Job mapped from table <jobs>
type Job struct {
	JobID          string          `gorm:"column:job_id;primaryKey;size:64" json:"job_id"`
	TenantID       string          `gorm:"column:tenant_id;not null;size:128;index:idx_jobs_tenant_status,priority:1" json:"tenant_id"`
	Type           string          `gorm:"column:type;not null;size:64" json:"type"`
	Priority       int             `gorm:"column:priority;default:0" json:"priority"`
	Status         string          `gorm:"column:status;not null;size:32;default:'queued';index:idx_jobs_tenant_status,priority:2" json:"status"`
	CreatedAt      time.Time       `gorm:"column:created_at;not null;default:now()" json:"created_at"`
	LeaseExpiresAt *time.Time      `gorm:"column:lease_expires_at;index" json:"lease_expires_at,omitempty"`
	WorkerID       string          `gorm:"column:worker_id;size:64" json:"worker_id,omitempty"`
	RetryCount     int             `gorm:"column:retry_count;default:0" json:"retry_count"`
	Parameters     json.RawMessage `gorm:"column:parameters;type:jsonb" json:"parameters,omitempty"`
	ResultSummary  json.RawMessage `gorm:"column:result_summary;type:jsonb" json:"result_summary,omitempty"`
	ErrorCode      string          `gorm:"column:error_code;size:32" json:"error_code,omitempty"`
	ErrorMessage   string          `gorm:"column:error_message;size:1024" json:"error_message,omitempty"`
}

// TableName Job's table name
func (*Job) TableName() string {
	return TableNameJob
}
