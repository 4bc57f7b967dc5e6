// Copyright (C) 2025-2026, Advanced Micro Devices, Inc. All rights reserved.
// See LICENSE for license information.

package queue

import (
	"context"
	"time"

	"github.com/AMD-AGI/voyant/pkg/database"
	"github.com/AMD-AGI/voyant/pkg/logger/log"
)

// Janitor runs the queue maintenance sweeps: requeueing expired
// leases and pruning terminal jobs past retention.
type Janitor struct {
	queue     *Queue
	facade    database.JobFacadeInterface
	retention time.Duration
}

// DefaultRetention is how long terminal jobs stay queryable.
const DefaultRetention = 7 * 24 * time.Hour

func NewJanitor(queue *Queue, facade database.JobFacadeInterface, retention time.Duration) *Janitor {
	if retention <= 0 {
		retention = DefaultRetention
	}
	return &Janitor{queue: queue, facade: facade, retention: retention}
}

// SweepLeases requeues every job whose lease has expired. Returns the
// number of jobs moved.
func (j *Janitor) SweepLeases(ctx context.Context) int {
	requeued := j.queue.RequeueExpiredLeases(ctx)
	if requeued > 0 {
		log.Infof("requeued %d jobs with expired leases", requeued)
	}
	return requeued
}

// PruneTerminal drops terminal jobs older than the retention window
// from memory and from the store.
func (j *Janitor) PruneTerminal(ctx context.Context) (int, error) {
	cutoff := j.queue.clock.Now().Add(-j.retention)
	pruned := j.queue.dropTerminalBefore(cutoff)
	var stored int64
	if j.facade != nil {
		var err error
		stored, err = j.facade.DeleteTerminalBefore(ctx, cutoff)
		if err != nil {
			return pruned, err
		}
	}
	if pruned > 0 || stored > 0 {
		log.Infof("pruned %d terminal jobs (%d stored rows) older than %s",
			pruned, stored, cutoff.Format(time.RFC3339))
	}
	return pruned, nil
}

// dropTerminalBefore removes terminal jobs created before cutoff from
// the in-memory index.
func (q *Queue) dropTerminalBefore(cutoff time.Time) int {
	q.mu.Lock()
	defer q.mu.Unlock()
	dropped := 0
	for jobID, job := range q.jobs {
		if job.Status.IsTerminal() && job.CreatedAt.Before(cutoff) {
			delete(q.jobs, jobID)
			dropped++
		}
	}
	return dropped
}
