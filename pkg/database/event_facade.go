// Copyright (C) 2025-2026, Advanced Micro Devices, Inc. All rights reserved.
// See LICENSE for license information.

package database

import (
	"context"

	"gorm.io/gorm"

	"github.com/AMD-AGI/voyant/pkg/database/model"
	"github.com/AMD-AGI/voyant/pkg/sql"
)

type EventFacadeInterface interface {
	CreateEvent(ctx context.Context, event *model.EventRecord) error
	ListRecent(ctx context.Context, limit int) ([]*model.EventRecord, error)
}

type EventFacade struct {
	BaseFacade
}

func NewEventFacade() EventFacadeInterface {
	return &EventFacade{}
}

func NewEventFacadeWithDB(db *gorm.DB) EventFacadeInterface {
	return &EventFacade{BaseFacade{db: db}}
}

func (f *EventFacade) CreateEvent(ctx context.Context, event *model.EventRecord) error {
	return sql.CheckErr(f.getDB().WithContext(ctx).Create(event).Error, false)
}

func (f *EventFacade) ListRecent(ctx context.Context, limit int) ([]*model.EventRecord, error) {
	var events []*model.EventRecord
	err := f.getDB().WithContext(ctx).
		Order("timestamp DESC, event_id DESC").
		Limit(limit).
		Find(&events).Error
	return events, sql.CheckErr(err, false)
}
