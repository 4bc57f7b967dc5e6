// Copyright (C) 2025-2026, Advanced Micro Devices, Inc. All rights reserved.
// See LICENSE for license information.

package namespace

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/AMD-AGI/voyant/pkg/errors"
)

func TestTableName(t *testing.T) {
	tests := []struct {
		name     string
		tenant   string
		table    string
		expected string
		wantErr  bool
	}{
		{"simple", "acme", "orders", "t_acme__orders", false},
		{"tenant with dash", "acme-corp", "user_events", "t_acme-corp__user_events", false},
		{"empty tenant", "", "orders", "", true},
		{"uppercase tenant", "Acme", "orders", "", true},
		{"table with dash", "acme", "user-events", "", true},
		{"sql injection attempt", "acme", "orders; drop table jobs", "", true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := TableName(tt.tenant, tt.table)
			if tt.wantErr {
				assert.Error(t, err)
				assert.Equal(t, errors.CodeInvalidNamespace, errors.CodeOf(err))
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.expected, got)
		})
	}
}

func TestParseRoundTrip(t *testing.T) {
	name, err := TableName("acme", "orders")
	require.NoError(t, err)
	tenant, table, err := Parse(name)
	require.NoError(t, err)
	assert.Equal(t, "acme", tenant)
	assert.Equal(t, "orders", table)
}

func TestParseRejectsUnqualified(t *testing.T) {
	for _, identifier := range []string{"orders", "t_acme_orders", "tacme__orders", ""} {
		_, _, err := Parse(identifier)
		assert.Error(t, err, "identifier %q", identifier)
	}
}

func TestCheckOwnership(t *testing.T) {
	assert.NoError(t, CheckOwnership("t_acme__orders", "acme"))

	err := CheckOwnership("t_other__orders", "acme")
	require.Error(t, err)
	assert.Equal(t, errors.CodeForbidden, errors.CodeOf(err))

	err = CheckOwnership("orders", "acme")
	require.Error(t, err)
	assert.Equal(t, errors.CodeInvalidNamespace, errors.CodeOf(err))
}

func TestIsQualified(t *testing.T) {
	assert.True(t, IsQualified("t_acme__orders"))
	assert.False(t, IsQualified("orders"))
	assert.False(t, IsQualified("t_acme_orders"))
}
