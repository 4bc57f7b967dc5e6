// Copyright (C) 2025-2026, Advanced Micro Devices, Inc. All rights reserved.
// See LICENSE for license information.

package core

import (
	"context"

	"github.com/AMD-AGI/voyant/pkg/errors"
	"github.com/AMD-AGI/voyant/pkg/idgen"
	"github.com/AMD-AGI/voyant/pkg/logger/log"
	"github.com/AMD-AGI/voyant/pkg/queue"
)

// runInline drains the tenant's queue until the submitted job reaches
// a terminal status. It applies the same quota discipline as the
// worker pool: a job that loses the daily-budget race after acquire is
// failed with QuotaExceeded, not silently dropped.
func (c *Core) runInline(ctx context.Context, tenantID, jobID string) {
	workerID := idgen.NewWorkerID()
	for {
		job, ok := c.queue.Get(jobID)
		if !ok || job.Status.IsTerminal() {
			return
		}
		tier := c.quotas.TierOf(tenantID)
		next, err := c.queue.AcquireNext(ctx, tenantID, workerID, tier.MaxConcurrentJobs)
		if err != nil {
			log.Errorf("inline acquire for tenant %s: %v", tenantID, err)
			return
		}
		if next == nil {
			return
		}
		if !c.quotas.RecordJobStart(tenantID) {
			c.queue.Release(ctx, next.JobID, queue.StatusFailed, nil,
				errors.CodeQuotaExceeded, "daily job quota exhausted before start")
			continue
		}
		c.engine.Run(ctx, next)
		c.quotas.RecordJobEnd(tenantID)
	}
}
