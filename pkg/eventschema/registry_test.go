// Copyright (C) 2025-2026, Advanced Micro Devices, Inc. All rights reserved.
// See LICENSE for license information.

package eventschema

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/AMD-AGI/voyant/pkg/errors"
)

func newTestRegistry(t *testing.T) *Registry {
	r := NewRegistry()
	require.NoError(t, RegisterCanonical(r))
	return r
}

func TestRegisterCanonical(t *testing.T) {
	r := newTestRegistry(t)
	for _, name := range []string{
		EventJobCreated, EventJobStarted, EventJobCompleted,
		EventJobFailed, EventJobCancelled, EventArtifactCreated,
		EventQuotaExceeded, EventBreakerTransition, EventSchemaDrift,
	} {
		schema, err := r.Current(name)
		require.NoError(t, err, name)
		assert.Equal(t, "1.0.0", schema.Version)
	}
}

func TestRegisterDuplicateVersion(t *testing.T) {
	r := newTestRegistry(t)
	err := r.Register(&Schema{Name: EventJobCreated, Version: "1.0.0"})
	assert.True(t, errors.IsConflict(err))
}

func TestCurrentFollowsHighestVersion(t *testing.T) {
	r := NewRegistry()
	require.NoError(t, r.Register(&Schema{Name: "demo", Version: "1.0.0"}))
	require.NoError(t, r.Register(&Schema{Name: "demo", Version: "1.2.0"}))
	require.NoError(t, r.Register(&Schema{Name: "demo", Version: "1.1.5"}))

	current, err := r.Current("demo")
	require.NoError(t, err)
	assert.Equal(t, "1.2.0", current.Version)
}

func TestRetireCurrentFallsBack(t *testing.T) {
	r := NewRegistry()
	require.NoError(t, r.Register(&Schema{Name: "demo", Version: "1.0.0"}))
	require.NoError(t, r.Register(&Schema{Name: "demo", Version: "2.0.0"}))

	require.NoError(t, r.Retire("demo", "2.0.0"))
	current, err := r.Current("demo")
	require.NoError(t, err)
	assert.Equal(t, "1.0.0", current.Version)
}

func TestSchemaValidation(t *testing.T) {
	tests := []struct {
		name    string
		schema  *Schema
		wantErr bool
	}{
		{"valid", &Schema{Name: "s", Version: "1.0.0", Fields: []Field{{Name: "a", Type: TypeString}}}, false},
		{"bad version", &Schema{Name: "s", Version: "1.0"}, true},
		{"empty name", &Schema{Version: "1.0.0"}, true},
		{"duplicate field", &Schema{Name: "s", Version: "1.0.0", Fields: []Field{
			{Name: "a", Type: TypeString}, {Name: "a", Type: TypeInt},
		}}, true},
		{"unknown type", &Schema{Name: "s", Version: "1.0.0", Fields: []Field{{Name: "a", Type: "blob"}}}, true},
		{"enum on int", &Schema{Name: "s", Version: "1.0.0", Fields: []Field{
			{Name: "a", Type: TypeInt, Enum: []string{"x"}},
		}}, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.schema.Validate()
			if tt.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestValidatePayload(t *testing.T) {
	r := newTestRegistry(t)

	t.Run("valid payload", func(t *testing.T) {
		result := r.ValidatePayload(EventJobCreated, map[string]interface{}{
			"job_id": "j-1", "tenant_id": "acme", "type": "analyze", "priority": 3,
		})
		assert.True(t, result.Valid)
		assert.Empty(t, result.Errors)
	})

	t.Run("missing required field", func(t *testing.T) {
		result := r.ValidatePayload(EventJobCreated, map[string]interface{}{
			"job_id": "j-1", "type": "analyze",
		})
		assert.False(t, result.Valid)
		assert.Contains(t, result.Errors[0], "tenant_id")
	})

	t.Run("wrong type", func(t *testing.T) {
		result := r.ValidatePayload(EventJobCreated, map[string]interface{}{
			"job_id": "j-1", "tenant_id": "acme", "type": "analyze", "priority": "high",
		})
		assert.False(t, result.Valid)
	})

	t.Run("default applied", func(t *testing.T) {
		payload := map[string]interface{}{
			"job_id": "j-1", "tenant_id": "acme", "type": "analyze",
		}
		result := r.ValidatePayload(EventJobCreated, payload)
		assert.True(t, result.Valid)
		assert.Equal(t, 5, payload["priority"])
	})

	t.Run("enum violation", func(t *testing.T) {
		result := r.ValidatePayload(EventQuotaExceeded, map[string]interface{}{
			"tenant_id": "acme", "limit_name": "widgets", "current": 1, "max": 1,
		})
		assert.False(t, result.Valid)
	})

	t.Run("unknown field rejected when strict", func(t *testing.T) {
		result := r.ValidatePayload(EventJobCreated, map[string]interface{}{
			"job_id": "j-1", "tenant_id": "acme", "type": "analyze", "surprise": true,
		})
		assert.False(t, result.Valid)
	})

	t.Run("unknown field warns when additional allowed", func(t *testing.T) {
		result := r.ValidatePayload(EventJobCompleted, map[string]interface{}{
			"job_id": "j-1", "tenant_id": "acme", "type": "analyze", "extra": "ok",
		})
		assert.True(t, result.Valid)
		assert.NotEmpty(t, result.Warnings)
	})

	t.Run("unregistered event type", func(t *testing.T) {
		result := r.ValidatePayload("ghost.event", map[string]interface{}{})
		assert.False(t, result.Valid)
	})

	t.Run("json numbers accepted as int", func(t *testing.T) {
		result := r.ValidatePayload(EventJobCreated, map[string]interface{}{
			"job_id": "j-1", "tenant_id": "acme", "type": "analyze", "priority": float64(2),
		})
		assert.True(t, result.Valid)
	})
}

func TestSchemaMarshalRoundTrip(t *testing.T) {
	r := newTestRegistry(t)
	schema, err := r.Current(EventQuotaExceeded)
	require.NoError(t, err)

	data, err := schema.Marshal()
	require.NoError(t, err)
	decoded, err := Unmarshal(data)
	require.NoError(t, err)
	assert.Equal(t, schema.Name, decoded.Name)
	assert.Equal(t, schema.Version, decoded.Version)
	assert.Len(t, decoded.Fields, len(schema.Fields))
}
