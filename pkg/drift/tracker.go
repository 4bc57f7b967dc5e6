// Copyright (C) 2025-2026, Advanced Micro Devices, Inc. All rights reserved.
// See LICENSE for license information.

// Package drift versions the observed schema of external data sources
// and emits schema.drift events when a newly observed schema differs
// from the last recorded version.
package drift

import (
	"context"
	"encoding/json"

	"github.com/AMD-AGI/voyant/pkg/database"
	"github.com/AMD-AGI/voyant/pkg/database/model"
	"github.com/AMD-AGI/voyant/pkg/errors"
	"github.com/AMD-AGI/voyant/pkg/eventbus"
	"github.com/AMD-AGI/voyant/pkg/eventschema"
	"github.com/AMD-AGI/voyant/pkg/idgen"
	"github.com/AMD-AGI/voyant/pkg/metrics"
)

// Topic is where drift events are published.
const Topic = "sources"

var driftCounter = metrics.NewCounterVec("schema_drifts", "schema drift detections", []string{"source"})

// Changes describes how one schema version differs from its
// predecessor. Keys are column names, values column types.
type Changes struct {
	Added   map[string]string `json:"added,omitempty"`
	Removed map[string]string `json:"removed,omitempty"`
	Changed map[string]string `json:"changed,omitempty"`
}

func (c *Changes) empty() bool {
	return len(c.Added) == 0 && len(c.Removed) == 0 && len(c.Changed) == 0
}

type Tracker struct {
	facade database.SchemaVersionFacadeInterface
	bus    *eventbus.Bus
	clock  idgen.Clock
}

func NewTracker(facade database.SchemaVersionFacadeInterface, bus *eventbus.Bus, clock idgen.Clock) *Tracker {
	if clock == nil {
		clock = idgen.RealClock{}
	}
	return &Tracker{facade: facade, bus: bus, clock: clock}
}

// Record compares the observed column-to-type schema against the latest
// stored version for the source. The first observation creates version
// 1 silently; a changed schema creates the next version, records the
// diff and emits schema.drift. An unchanged schema records nothing.
// Returns the current version row and whether drift was detected.
func (t *Tracker) Record(ctx context.Context, tenantID, sourceID, description string, schema map[string]string) (*model.SchemaVersion, bool, error) {
	if sourceID == "" {
		return nil, false, errors.NewValidationError("source_id is required")
	}
	if len(schema) == 0 {
		return nil, false, errors.NewValidationError("schema must not be empty")
	}
	blob, err := json.Marshal(schema)
	if err != nil {
		return nil, false, errors.WrapError(err, "marshal schema", errors.CodeInternalError)
	}

	latest, err := t.facade.GetLatest(ctx, sourceID)
	if err != nil && !errors.IsNotFound(err) {
		return nil, false, err
	}
	if latest == nil {
		record := &model.SchemaVersion{
			SourceID:    sourceID,
			CreatedAt:   t.clock.Now().UTC(),
			Description: description,
			Schema:      blob,
		}
		if err := t.facade.CreateSchemaVersion(ctx, record); err != nil {
			return nil, false, err
		}
		return record, false, nil
	}

	var previous map[string]string
	if err := json.Unmarshal(latest.Schema, &previous); err != nil {
		return nil, false, errors.WrapError(err, "unmarshal stored schema for "+sourceID, errors.CodeInternalError)
	}
	changes := diff(previous, schema)
	if changes.empty() {
		return latest, false, nil
	}

	changesBlob, _ := json.Marshal(changes)
	record := &model.SchemaVersion{
		SourceID:            sourceID,
		Version:             latest.Version + 1,
		CreatedAt:           t.clock.Now().UTC(),
		Description:         description,
		Schema:              blob,
		ChangesFromPrevious: changesBlob,
	}
	if err := t.facade.CreateSchemaVersion(ctx, record); err != nil {
		return nil, false, err
	}
	driftCounter.Inc(sourceID)
	t.emit(ctx, tenantID, sourceID, latest.Version, record.Version, changes)
	return record, true, nil
}

// History returns all recorded versions for a source, oldest first.
func (t *Tracker) History(ctx context.Context, sourceID string) ([]*model.SchemaVersion, error) {
	return t.facade.ListBySource(ctx, sourceID)
}

func diff(previous, current map[string]string) *Changes {
	changes := &Changes{
		Added:   map[string]string{},
		Removed: map[string]string{},
		Changed: map[string]string{},
	}
	for col, typ := range current {
		prevType, ok := previous[col]
		switch {
		case !ok:
			changes.Added[col] = typ
		case prevType != typ:
			changes.Changed[col] = typ
		}
	}
	for col, typ := range previous {
		if _, ok := current[col]; !ok {
			changes.Removed[col] = typ
		}
	}
	return changes
}

func (t *Tracker) emit(ctx context.Context, tenantID, sourceID string, from, to int, changes *Changes) {
	if t.bus == nil {
		return
	}
	t.bus.Emit(ctx, Topic, &eventbus.Event{
		EventType: eventschema.EventSchemaDrift,
		TenantID:  tenantID,
		Payload: map[string]interface{}{
			"source_id":    sourceID,
			"tenant_id":    tenantID,
			"from_version": from,
			"to_version":   to,
			"changes": map[string]interface{}{
				"added":   changes.Added,
				"removed": changes.Removed,
				"changed": changes.Changed,
			},
		},
	})
}
