// Copyright (C) 2025-2026, Advanced Micro Devices, Inc. All rights reserved.
// See LICENSE for license information.

package queue

import (
	"encoding/json"
	"time"

	"github.com/AMD-AGI/voyant/pkg/database/model"
)

type JobStatus string

const (
	StatusQueued    JobStatus = "queued"
	StatusRunning   JobStatus = "running"
	StatusCompleted JobStatus = "completed"
	StatusFailed    JobStatus = "failed"
	StatusCancelled JobStatus = "cancelled"
)

func (s JobStatus) IsTerminal() bool {
	switch s {
	case StatusCompleted, StatusFailed, StatusCancelled:
		return true
	}
	return false
}

// Job is the in-memory queue record. Lower Priority values run first.
type Job struct {
	JobID          string                 `json:"job_id"`
	TenantID       string                 `json:"tenant_id"`
	Type           string                 `json:"type"`
	Priority       int                    `json:"priority"`
	Status         JobStatus              `json:"status"`
	CreatedAt      time.Time              `json:"created_at"`
	LeaseExpiresAt *time.Time             `json:"lease_expires_at,omitempty"`
	WorkerID       string                 `json:"worker_id,omitempty"`
	RetryCount     int                    `json:"retry_count"`
	Parameters     map[string]interface{} `json:"parameters,omitempty"`
	ResultSummary  map[string]interface{} `json:"result_summary,omitempty"`
	ErrorCode      string                 `json:"error_code,omitempty"`
	ErrorMessage   string                 `json:"error_message,omitempty"`

	cancelRequested bool
}

// CancelRequested reports whether a cancel arrived while the job was
// running. The workflow runtime polls this between activities.
func (j *Job) CancelRequested() bool {
	return j.cancelRequested
}

func (j *Job) clone() *Job {
	clone := *j
	if j.LeaseExpiresAt != nil {
		lease := *j.LeaseExpiresAt
		clone.LeaseExpiresAt = &lease
	}
	return &clone
}

// before orders jobs by (priority, created_at, job_id).
func (j *Job) before(other *Job) bool {
	if j.Priority != other.Priority {
		return j.Priority < other.Priority
	}
	if !j.CreatedAt.Equal(other.CreatedAt) {
		return j.CreatedAt.Before(other.CreatedAt)
	}
	return j.JobID < other.JobID
}

// ToModel converts the runtime record into its persistence row.
func (j *Job) ToModel() *model.Job {
	row := &model.Job{
		JobID:          j.JobID,
		TenantID:       j.TenantID,
		Type:           j.Type,
		Priority:       j.Priority,
		Status:         string(j.Status),
		CreatedAt:      j.CreatedAt,
		LeaseExpiresAt: j.LeaseExpiresAt,
		WorkerID:       j.WorkerID,
		RetryCount:     j.RetryCount,
		ErrorCode:      j.ErrorCode,
		ErrorMessage:   j.ErrorMessage,
	}
	if j.Parameters != nil {
		row.Parameters, _ = json.Marshal(j.Parameters)
	}
	if j.ResultSummary != nil {
		row.ResultSummary, _ = json.Marshal(j.ResultSummary)
	}
	return row
}

// FromModel rebuilds the runtime record from a persistence row.
func FromModel(row *model.Job) *Job {
	job := &Job{
		JobID:          row.JobID,
		TenantID:       row.TenantID,
		Type:           row.Type,
		Priority:       row.Priority,
		Status:         JobStatus(row.Status),
		CreatedAt:      row.CreatedAt,
		LeaseExpiresAt: row.LeaseExpiresAt,
		WorkerID:       row.WorkerID,
		RetryCount:     row.RetryCount,
		ErrorCode:      row.ErrorCode,
		ErrorMessage:   row.ErrorMessage,
	}
	if len(row.Parameters) > 0 {
		_ = json.Unmarshal(row.Parameters, &job.Parameters)
	}
	if len(row.ResultSummary) > 0 {
		_ = json.Unmarshal(row.ResultSummary, &job.ResultSummary)
	}
	return job
}
