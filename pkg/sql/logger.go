// Copyright (C) 2025-2026, Advanced Micro Devices, Inc. All rights reserved.
// See LICENSE for license information.

package sql

import (
	"context"
	"time"

	gormlogger "gorm.io/gorm/logger"

	"github.com/AMD-AGI/voyant/pkg/logger/log"
)

const slowQueryThreshold = 5 * time.Second

// NullLogger silences gorm's per-query logging. Slow queries are
// still surfaced at warn level.
type NullLogger struct{}

func (NullLogger) LogMode(gormlogger.LogLevel) gormlogger.Interface {
	return NullLogger{}
}

func (NullLogger) Info(ctx context.Context, msg string, args ...interface{}) {
}

func (NullLogger) Warn(ctx context.Context, msg string, args ...interface{}) {
}

func (NullLogger) Error(ctx context.Context, msg string, args ...interface{}) {
}

func (NullLogger) Trace(ctx context.Context, begin time.Time, fc func() (string, int64), err error) {
	elapsed := time.Since(begin)
	if elapsed > slowQueryThreshold && fc != nil {
		query, rows := fc()
		log.Warnf("slow query (%s, %d rows): %s", elapsed, rows, query)
	}
}
