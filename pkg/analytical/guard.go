// Copyright (C) 2025-2026, Advanced Micro Devices, Inc. All rights reserved.
// See LICENSE for license information.

package analytical

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/AMD-AGI/voyant/pkg/errors"
	"github.com/AMD-AGI/voyant/pkg/namespace"
)

var (
	columnNamePattern = regexp.MustCompile(`^[a-z_][a-z0-9_]*$`)

	// Table positions in user SQL. Anything after FROM or JOIN must be
	// a tenant-qualified identifier.
	tableRefPattern = regexp.MustCompile(`(?i)\b(?:from|join)\s+([A-Za-z_][A-Za-z0-9_.-]*)`)

	// Any identifier that looks tenant-qualified, wherever it appears.
	qualifiedRefPattern = regexp.MustCompile(`\bt_[a-z0-9][a-z0-9-]*__[a-z0-9][a-z0-9_]*\b`)
)

// guardQuery admits a single SELECT statement whose every table
// reference belongs to the tenant. Writes and DDL go through the
// typed Store methods, never through raw SQL.
func guardQuery(tenantID, rawSQL string) error {
	if err := namespace.ValidateTenantID(tenantID); err != nil {
		return err
	}
	stmt := strings.TrimSpace(rawSQL)
	stmt = strings.TrimSuffix(stmt, ";")
	if strings.Contains(stmt, ";") {
		return errors.NewValidationError("analytical queries must be a single statement")
	}
	head := strings.ToUpper(stmt)
	if !strings.HasPrefix(head, "SELECT") && !strings.HasPrefix(head, "WITH") {
		return errors.WrapMessage("analytical queries must be read-only", errors.CodeForbidden)
	}

	for _, m := range tableRefPattern.FindAllStringSubmatch(stmt, -1) {
		ref := strings.TrimSuffix(m[1], ".")
		if !namespace.IsQualified(ref) {
			return errors.WrapMessage(
				fmt.Sprintf("table %q is not tenant-qualified", ref), errors.CodeInvalidNamespace)
		}
	}
	for _, ref := range qualifiedRefPattern.FindAllString(stmt, -1) {
		if err := namespace.CheckOwnership(ref, tenantID); err != nil {
			return err
		}
	}
	return nil
}
