// Copyright (C) 2025-2026, Advanced Micro Devices, Inc. All rights reserved.
// See LICENSE for license information.

package idgen

import (
	"fmt"
	"strings"

	"github.com/google/uuid"
)

// NewID returns a 32-character identifier whose lexicographic order
// follows creation time: a fixed-width hex millisecond prefix followed
// by random uuid material.
func NewID() string {
	return NewIDAt(RealClock{})
}

func NewIDAt(clock Clock) string {
	random := strings.ReplaceAll(uuid.NewString(), "-", "")
	return fmt.Sprintf("%012x%s", clock.Now().UTC().UnixMilli(), random[:20])
}

func NewJobID() string {
	return "j-" + NewID()
}

func NewEventID() string {
	return "e-" + NewID()
}

func NewArtifactID() string {
	return "a-" + NewID()
}

// NewWorkerID returns a short worker handle like "w-1a2b3c4d".
func NewWorkerID() string {
	return "w-" + strings.ReplaceAll(uuid.NewString(), "-", "")[:8]
}
