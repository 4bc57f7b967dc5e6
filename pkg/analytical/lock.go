// Copyright (C) 2025-2026, Advanced Micro Devices, Inc. All rights reserved.
// See LICENSE for license information.

package analytical

import (
	"context"
	"sync"

	"github.com/AMD-AGI/voyant/pkg/errors"
	"github.com/AMD-AGI/voyant/pkg/metrics"
)

var waitersGauge = metrics.NewGaugeVec("analytical_waiters", "callers queued behind the analytical connection", nil)

// fifoLock serializes access to the shared analytical connection.
// Waiters are granted strictly in arrival order and the queue depth is
// exported so contention shows up on a dashboard before it shows up as
// latency.
type fifoLock struct {
	mu      sync.Mutex
	busy    bool
	waiters []chan struct{}
}

func (l *fifoLock) Acquire(ctx context.Context) error {
	l.mu.Lock()
	if !l.busy {
		l.busy = true
		l.mu.Unlock()
		return nil
	}
	ch := make(chan struct{})
	l.waiters = append(l.waiters, ch)
	waitersGauge.Set(float64(len(l.waiters)))
	l.mu.Unlock()

	select {
	case <-ch:
		return nil
	case <-ctx.Done():
		l.mu.Lock()
		for i, w := range l.waiters {
			if w == ch {
				l.waiters = append(l.waiters[:i], l.waiters[i+1:]...)
				waitersGauge.Set(float64(len(l.waiters)))
				l.mu.Unlock()
				return errors.WrapError(ctx.Err(), "waiting for analytical store", errors.CodeTimeout)
			}
		}
		l.mu.Unlock()
		// The grant raced the cancellation; we own the lock now.
		<-ch
		return nil
	}
}

func (l *fifoLock) Release() {
	l.mu.Lock()
	if len(l.waiters) > 0 {
		next := l.waiters[0]
		l.waiters = l.waiters[1:]
		waitersGauge.Set(float64(len(l.waiters)))
		l.mu.Unlock()
		close(next)
		return
	}
	l.busy = false
	l.mu.Unlock()
}

func (l *fifoLock) Waiters() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.waiters)
}
