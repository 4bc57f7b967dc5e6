// Copyright (C) 2025-2026, Advanced Micro Devices, Inc. All rights reserved.
// See LICENSE for license information.

package plugin

import (
	"regexp"

	"github.com/AMD-AGI/voyant/pkg/errors"
)

// Canonical artifact key taxonomy. Registrations advertising keys
// outside this set are rejected; plugins producing chart variants use
// the chart_<name> or charts/<name> forms.
var artifactKeyPatterns = []*regexp.Regexp{
	regexp.MustCompile(`^profile\.(html|json)$`),
	regexp.MustCompile(`^quality\.(html|json)$`),
	regexp.MustCompile(`^drift\.(html|json)$`),
	regexp.MustCompile(`^kpis\.json$`),
	regexp.MustCompile(`^chart_[a-z0-9_]+\.(html|png)$`),
	regexp.MustCompile(`^charts/[a-z0-9_]+\.(html|png)$`),
	regexp.MustCompile(`^sufficiency\.json$`),
	regexp.MustCompile(`^narrative\.(txt|md)$`),
	regexp.MustCompile(`^manifest\.json$`),
}

// ValidArtifactKey reports whether key fits the canonical taxonomy.
func ValidArtifactKey(key string) bool {
	for _, pattern := range artifactKeyPatterns {
		if pattern.MatchString(key) {
			return true
		}
	}
	return false
}

// CheckArtifactKey returns an InvalidArtifactKey error for keys
// outside the taxonomy.
func CheckArtifactKey(key string) error {
	if !ValidArtifactKey(key) {
		return errors.WrapMessage("artifact key "+key+" outside the canonical taxonomy", errors.CodeInvalidArtifactKey)
	}
	return nil
}
