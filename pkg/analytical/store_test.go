// Copyright (C) 2025-2026, Advanced Micro Devices, Inc. All rights reserved.
// See LICENSE for license information.

package analytical

import (
	"context"
	"testing"
	"time"

	sqrl "github.com/Masterminds/squirrel"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/AMD-AGI/voyant/pkg/errors"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()
	store, err := Open(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { _ = store.Close() })
	return store
}

func seedOrders(t *testing.T, store *Store, tenantID string) {
	t.Helper()
	ctx := context.Background()
	require.NoError(t, store.CreateTable(ctx, tenantID, "orders", []Column{
		{Name: "id", Type: "INTEGER"},
		{Name: "amount", Type: "REAL"},
		{Name: "region", Type: "TEXT"},
	}))
	n, err := store.Insert(ctx, tenantID, "orders", []map[string]interface{}{
		{"id": 1, "amount": 10.5, "region": "emea"},
		{"id": 2, "amount": 99.0, "region": "apac"},
		{"id": 3, "amount": 7.25, "region": "emea"},
	})
	require.NoError(t, err)
	assert.Equal(t, int64(3), n)
}

func TestSelectBuilderScopedToTenant(t *testing.T) {
	store := newTestStore(t)
	seedOrders(t, store, "acme")

	rows, err := store.Select(context.Background(), "acme", "orders",
		sqrl.Eq{"region": "emea"}, []string{"id DESC"}, 0)
	require.NoError(t, err)
	require.Len(t, rows, 2)
	assert.EqualValues(t, 3, rows[0]["id"])
	assert.EqualValues(t, 1, rows[1]["id"])
}

func TestRawQueryChecksOwnership(t *testing.T) {
	store := newTestStore(t)
	seedOrders(t, store, "acme")

	rows, err := store.Query(context.Background(), "acme",
		"SELECT region, COUNT(*) AS n FROM t_acme__orders GROUP BY region ORDER BY region")
	require.NoError(t, err)
	require.Len(t, rows, 2)
	assert.Equal(t, "apac", rows[0]["region"])

	_, err = store.Query(context.Background(), "acme", "SELECT * FROM t_rival__orders")
	assert.Equal(t, errors.CodeForbidden, errors.CodeOf(err))

	_, err = store.Query(context.Background(), "acme", "SELECT * FROM orders")
	assert.Equal(t, errors.CodeInvalidNamespace, errors.CodeOf(err))

	_, err = store.Query(context.Background(), "acme", "DELETE FROM t_acme__orders")
	assert.Equal(t, errors.CodeForbidden, errors.CodeOf(err))

	_, err = store.Query(context.Background(), "acme",
		"SELECT 1; DROP TABLE t_acme__orders")
	assert.Equal(t, errors.CodeValidationError, errors.CodeOf(err))
}

func TestCreateTableValidation(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	err := store.CreateTable(ctx, "acme", "orders", nil)
	assert.Equal(t, errors.CodeValidationError, errors.CodeOf(err))

	err = store.CreateTable(ctx, "acme", "orders", []Column{{Name: "id", Type: "UUID"}})
	assert.Equal(t, errors.CodeValidationError, errors.CodeOf(err))

	err = store.CreateTable(ctx, "acme", "orders", []Column{{Name: "drop table", Type: "TEXT"}})
	assert.Equal(t, errors.CodeValidationError, errors.CodeOf(err))

	err = store.CreateTable(ctx, "Bad Tenant", "orders", []Column{{Name: "id", Type: "INTEGER"}})
	assert.Equal(t, errors.CodeInvalidNamespace, errors.CodeOf(err))
}

func TestTablesAndDropTenant(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()
	seedOrders(t, store, "acme")
	require.NoError(t, store.CreateTable(ctx, "acme", "events", []Column{{Name: "id", Type: "INTEGER"}}))
	require.NoError(t, store.CreateTable(ctx, "rival", "orders", []Column{{Name: "id", Type: "INTEGER"}}))

	tables, err := store.Tables(ctx, "acme")
	require.NoError(t, err)
	assert.Equal(t, []string{"events", "orders"}, tables)

	dropped, err := store.DropTenant(ctx, "acme")
	require.NoError(t, err)
	assert.Equal(t, 2, dropped)

	tables, err = store.Tables(ctx, "rival")
	require.NoError(t, err)
	assert.Equal(t, []string{"orders"}, tables, "other tenants are untouched")
}

func TestFIFOLockGrantsInArrivalOrder(t *testing.T) {
	var l fifoLock
	require.NoError(t, l.Acquire(context.Background()))

	order := make(chan int, 3)
	for i := 1; i <= 3; i++ {
		i := i
		go func() {
			_ = l.Acquire(context.Background())
			order <- i
			l.Release()
		}()
		// queue up one at a time so arrival order is fixed
		require.Eventually(t, func() bool { return l.Waiters() == i }, 2*time.Second, time.Millisecond)
	}
	l.Release()

	for want := 1; want <= 3; want++ {
		select {
		case got := <-order:
			assert.Equal(t, want, got)
		case <-time.After(2 * time.Second):
			t.Fatal("waiter never woke")
		}
	}
}

func TestLockAcquireHonorsContext(t *testing.T) {
	var l fifoLock
	require.NoError(t, l.Acquire(context.Background()))

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	err := l.Acquire(ctx)
	assert.Equal(t, errors.CodeTimeout, errors.CodeOf(err))
	assert.Equal(t, 0, l.Waiters(), "cancelled waiter is removed from the queue")

	l.Release()
	require.NoError(t, l.Acquire(context.Background()))
	l.Release()
}
