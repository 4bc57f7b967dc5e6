// Copyright (C) 2025-2026, Advanced Micro Devices, Inc. All rights reserved.
// See LICENSE for license information.

package eventschema

// Canonical event types emitted by the execution core.
const (
	EventJobCreated        = "job.created"
	EventJobStarted        = "job.started"
	EventJobCompleted      = "job.completed"
	EventJobFailed         = "job.failed"
	EventJobCancelled      = "job.cancelled"
	EventArtifactCreated   = "artifact.created"
	EventQuotaExceeded     = "quota.exceeded"
	EventBreakerTransition = "breaker.transition"
	EventSchemaDrift       = "schema.drift"
	EventQualityAlert      = "quality.alert"
	EventBillingUsage      = "billing.usage"
	EventLineageEdge       = "lineage.edge"
)

// RegisterCanonical installs version 1.0.0 of every core event schema.
func RegisterCanonical(r *Registry) error {
	jobFields := []Field{
		{Name: "job_id", Type: TypeString, Required: true},
		{Name: "tenant_id", Type: TypeString, Required: true},
		{Name: "type", Type: TypeString, Required: true},
		{Name: "priority", Type: TypeInt, Required: false, Default: 5},
	}
	schemas := []*Schema{
		{Name: EventJobCreated, Version: "1.0.0", Fields: jobFields},
		{Name: EventJobStarted, Version: "1.0.0", Fields: append(append([]Field{}, jobFields...),
			Field{Name: "worker_id", Type: TypeString, Required: true},
		)},
		{Name: EventJobCompleted, Version: "1.0.0", Fields: append(append([]Field{}, jobFields...),
			Field{Name: "duration_seconds", Type: TypeFloat, Required: false},
			Field{Name: "result_summary", Type: TypeObject, Required: false},
		), AdditionalProperties: true},
		{Name: EventJobFailed, Version: "1.0.0", Fields: append(append([]Field{}, jobFields...),
			Field{Name: "error_code", Type: TypeString, Required: true},
			Field{Name: "error_message", Type: TypeString, Required: false},
			Field{Name: "retry_count", Type: TypeInt, Required: false},
		)},
		{Name: EventJobCancelled, Version: "1.0.0", Fields: jobFields},
		{Name: EventArtifactCreated, Version: "1.0.0", Fields: []Field{
			{Name: "artifact_id", Type: TypeString, Required: true},
			{Name: "job_id", Type: TypeString, Required: true},
			{Name: "tenant_id", Type: TypeString, Required: true},
			{Name: "key", Type: TypeString, Required: true},
			{Name: "uri", Type: TypeString, Required: true},
			{Name: "size_bytes", Type: TypeInt, Required: false},
		}},
		{Name: EventQuotaExceeded, Version: "1.0.0", Fields: []Field{
			{Name: "tenant_id", Type: TypeString, Required: true},
			{Name: "limit_name", Type: TypeString, Required: true, Enum: []string{
				"jobs_per_day", "concurrent_jobs", "sources", "artifact_bytes",
			}},
			{Name: "current", Type: TypeInt, Required: true},
			{Name: "max", Type: TypeInt, Required: true},
		}},
		{Name: EventBreakerTransition, Version: "1.0.0", Fields: []Field{
			{Name: "breaker", Type: TypeString, Required: true},
			{Name: "from", Type: TypeString, Required: true, Enum: []string{"closed", "open", "half_open"}},
			{Name: "to", Type: TypeString, Required: true, Enum: []string{"closed", "open", "half_open"}},
			{Name: "at", Type: TypeDatetime, Required: true},
		}},
		{Name: EventSchemaDrift, Version: "1.0.0", Fields: []Field{
			{Name: "source_id", Type: TypeString, Required: true},
			{Name: "tenant_id", Type: TypeString, Required: true},
			{Name: "from_version", Type: TypeInt, Required: true},
			{Name: "to_version", Type: TypeInt, Required: true},
			{Name: "changes", Type: TypeObject, Required: false},
		}},
		{Name: EventQualityAlert, Version: "1.0.0", Fields: []Field{
			{Name: "tenant_id", Type: TypeString, Required: true},
			{Name: "source_id", Type: TypeString, Required: true},
			{Name: "dimension", Type: TypeString, Required: true, Enum: []string{
				"completeness", "uniqueness", "validity", "consistency",
			}},
			{Name: "score", Type: TypeFloat, Required: true},
			{Name: "threshold", Type: TypeFloat, Required: false, Default: 0.8},
		}},
		{Name: EventBillingUsage, Version: "1.0.0", Fields: []Field{
			{Name: "tenant_id", Type: TypeString, Required: true},
			{Name: "jobs_today", Type: TypeInt, Required: true},
			{Name: "artifact_bytes", Type: TypeInt, Required: true},
			{Name: "day", Type: TypeString, Required: true},
		}, AdditionalProperties: true},
		{Name: EventLineageEdge, Version: "1.0.0", Fields: []Field{
			{Name: "tenant_id", Type: TypeString, Required: true},
			{Name: "job_id", Type: TypeString, Required: true},
			{Name: "from_node", Type: TypeString, Required: true},
			{Name: "to_node", Type: TypeString, Required: true},
			{Name: "edge_type", Type: TypeString, Required: false, Default: "derived_from"},
		}},
	}
	for _, schema := range schemas {
		if err := r.Register(schema); err != nil {
			return err
		}
	}
	return nil
}
