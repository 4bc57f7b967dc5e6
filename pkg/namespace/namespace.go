// Copyright (C) 2025-2026, Advanced Micro Devices, Inc. All rights reserved.
// See LICENSE for license information.

// Package namespace enforces the tenant table naming contract used by
// the embedded analytical store: every physical table is named
// t_<tenant>__<table>, and no statement may touch a table outside the
// calling tenant's prefix.
package namespace

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/AMD-AGI/voyant/pkg/errors"
)

var (
	tenantIDPattern  = regexp.MustCompile(`^[a-z0-9][a-z0-9-]*$`)
	tableNamePattern = regexp.MustCompile(`^[a-z0-9][a-z0-9_]*$`)
	qualifiedPattern = regexp.MustCompile(`^t_([a-z0-9][a-z0-9-]*)__([a-z0-9][a-z0-9_]*)$`)
)

func ValidateTenantID(tenantID string) error {
	if !tenantIDPattern.MatchString(tenantID) {
		return errors.WrapMessage(fmt.Sprintf("invalid tenant id %q", tenantID), errors.CodeInvalidNamespace)
	}
	return nil
}

// TableName builds the physical identifier for a tenant's table.
func TableName(tenantID, table string) (string, error) {
	if err := ValidateTenantID(tenantID); err != nil {
		return "", err
	}
	if !tableNamePattern.MatchString(table) {
		return "", errors.WrapMessage(fmt.Sprintf("invalid table name %q", table), errors.CodeInvalidNamespace)
	}
	return fmt.Sprintf("t_%s__%s", tenantID, table), nil
}

// Parse splits a physical identifier back into tenant and table.
func Parse(identifier string) (tenantID, table string, err error) {
	m := qualifiedPattern.FindStringSubmatch(identifier)
	if m == nil {
		return "", "", errors.WrapMessage(fmt.Sprintf("identifier %q is not tenant-qualified", identifier), errors.CodeInvalidNamespace)
	}
	return m[1], m[2], nil
}

// CheckOwnership rejects any identifier that is unqualified or belongs
// to a different tenant.
func CheckOwnership(identifier, tenantID string) error {
	owner, _, err := Parse(identifier)
	if err != nil {
		return err
	}
	if owner != tenantID {
		return errors.WrapMessage(
			fmt.Sprintf("identifier %q does not belong to tenant %q", identifier, tenantID),
			errors.CodeForbidden)
	}
	return nil
}

// IsQualified reports whether the identifier carries the t_ prefix at
// all; used to distinguish misnamed tables from foreign ones.
func IsQualified(identifier string) bool {
	return strings.HasPrefix(identifier, "t_") && qualifiedPattern.MatchString(identifier)
}
