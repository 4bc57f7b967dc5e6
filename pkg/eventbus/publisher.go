// Copyright (C) 2025-2026, Advanced Micro Devices, Inc. All rights reserved.
// See LICENSE for license information.

package eventbus

import (
	"context"
	"encoding/json"

	"github.com/AMD-AGI/voyant/pkg/database"
	"github.com/AMD-AGI/voyant/pkg/database/model"
)

// Publisher writes events to the durable topic.
type Publisher interface {
	Publish(ctx context.Context, topic string, event *Event) error
}

// DatabasePublisher appends events to the events table through the
// facade. The table is the durable topic; tenant_id is the partition
// key preserving per-tenant order.
type DatabasePublisher struct {
	facade database.EventFacadeInterface
}

func NewDatabasePublisher(facade database.EventFacadeInterface) *DatabasePublisher {
	return &DatabasePublisher{facade: facade}
}

func (p *DatabasePublisher) Publish(ctx context.Context, topic string, event *Event) error {
	payload, err := json.Marshal(event.Payload)
	if err != nil {
		return err
	}
	return p.facade.CreateEvent(ctx, &model.EventRecord{
		EventID:   event.EventID,
		EventType: event.EventType,
		TenantID:  event.TenantID,
		Timestamp: event.Timestamp,
		Payload:   payload,
	})
}

// NopPublisher backs tests and single-node runs without a database.
type NopPublisher struct{}

func (NopPublisher) Publish(ctx context.Context, topic string, event *Event) error {
	return nil
}
