// Copyright (C) 2025-2026, Advanced Micro Devices, Inc. All rights reserved.
// See LICENSE for license information.

package model

import (
	"encoding/json"
	"time"
)

const TableNameEventRecord = "events"

// EventRecord mapped from table <events>; the durable event topic.
type EventRecord struct {
	EventID   string          `gorm:"column:event_id;primaryKey;size:64" json:"event_id"`
	EventType string          `gorm:"column:event_type;not null;size:64;index" json:"event_type"`
	TenantID  string          `gorm:"column:tenant_id;size:128;index" json:"tenant_id,omitempty"`
	Timestamp time.Time       `gorm:"column:timestamp;not null;default:now();index" json:"timestamp"`
	Payload   json.RawMessage `gorm:"column:payload;type:jsonb" json:"payload"`
}

// TableName EventRecord's table name
func (*EventRecord) TableName() string {
	return TableNameEventRecord
}
