// Copyright (C) 2025-2026, Advanced Micro Devices, Inc. All rights reserved.
// See LICENSE for license information.

// Package analytical embeds a shared sqlite connection for activities
// that need columnar scratch space. All physical tables carry the
// t_<tenant>__<table> prefix and every statement is checked against
// the calling tenant before it reaches the connection.
package analytical

import (
	"context"
	"fmt"
	"sort"
	"strings"

	sqrl "github.com/Masterminds/squirrel"
	"github.com/jmoiron/sqlx"
	_ "github.com/mattn/go-sqlite3"

	"github.com/AMD-AGI/voyant/pkg/errors"
	"github.com/AMD-AGI/voyant/pkg/logger/log"
	"github.com/AMD-AGI/voyant/pkg/namespace"
)

type Column struct {
	Name string
	Type string
}

var columnTypes = map[string]bool{
	"TEXT":      true,
	"INTEGER":   true,
	"REAL":      true,
	"BLOB":      true,
	"NUMERIC":   true,
	"BOOLEAN":   true,
	"TIMESTAMP": true,
}

// Store owns the single analytical connection. Access is serialized
// through a FIFO lock rather than sql.DB pooling so slow scans cannot
// starve later arrivals of their turn.
type Store struct {
	db   *sqlx.DB
	lock fifoLock
}

// Open connects to the sqlite file at path, or an in-memory database
// when path is ":memory:".
func Open(path string) (*Store, error) {
	db, err := sqlx.Connect("sqlite3", path)
	if err != nil {
		return nil, errors.WrapError(err, "open analytical store "+path, errors.CodeInitializeError)
	}
	db.SetMaxOpenConns(1)
	return &Store{db: db}, nil
}

func (s *Store) Close() error {
	return s.db.Close()
}

// Waiters reports the current depth of the serialization queue.
func (s *Store) Waiters() int {
	return s.lock.Waiters()
}

func (s *Store) CreateTable(ctx context.Context, tenantID, table string, cols []Column) error {
	name, err := namespace.TableName(tenantID, table)
	if err != nil {
		return err
	}
	if len(cols) == 0 {
		return errors.NewValidationError("table " + table + " needs at least one column")
	}
	defs := make([]string, 0, len(cols))
	for _, c := range cols {
		typ := strings.ToUpper(c.Type)
		if !columnTypes[typ] {
			return errors.NewValidationError(fmt.Sprintf("unsupported column type %q for %s", c.Type, c.Name))
		}
		if !columnNamePattern.MatchString(c.Name) {
			return errors.NewValidationError(fmt.Sprintf("invalid column name %q", c.Name))
		}
		defs = append(defs, fmt.Sprintf("%s %s", c.Name, typ))
	}

	if err := s.lock.Acquire(ctx); err != nil {
		return err
	}
	defer s.lock.Release()
	stmt := fmt.Sprintf("CREATE TABLE IF NOT EXISTS %s (%s)", name, strings.Join(defs, ", "))
	if _, err := s.db.ExecContext(ctx, stmt); err != nil {
		return errors.WrapError(err, "create table "+name, errors.CodeDatabaseError)
	}
	return nil
}

func (s *Store) DropTable(ctx context.Context, tenantID, table string) error {
	name, err := namespace.TableName(tenantID, table)
	if err != nil {
		return err
	}
	if err := s.lock.Acquire(ctx); err != nil {
		return err
	}
	defer s.lock.Release()
	if _, err := s.db.ExecContext(ctx, "DROP TABLE IF EXISTS "+name); err != nil {
		return errors.WrapError(err, "drop table "+name, errors.CodeDatabaseError)
	}
	return nil
}

// Insert appends rows to a tenant table. Column order is taken from
// the first row; every row must carry the same columns.
func (s *Store) Insert(ctx context.Context, tenantID, table string, rows []map[string]interface{}) (int64, error) {
	name, err := namespace.TableName(tenantID, table)
	if err != nil {
		return 0, err
	}
	if len(rows) == 0 {
		return 0, nil
	}
	cols := make([]string, 0, len(rows[0]))
	for c := range rows[0] {
		cols = append(cols, c)
	}
	sort.Strings(cols)

	builder := sqrl.Insert(name).Columns(cols...)
	for _, row := range rows {
		if len(row) != len(cols) {
			return 0, errors.NewValidationError("insert rows must share one column set")
		}
		vals := make([]interface{}, 0, len(cols))
		for _, c := range cols {
			v, ok := row[c]
			if !ok {
				return 0, errors.NewValidationError("insert row missing column " + c)
			}
			vals = append(vals, v)
		}
		builder = builder.Values(vals...)
	}
	stmt, args, err := builder.ToSql()
	if err != nil {
		return 0, errors.WrapError(err, "build insert for "+name, errors.CodeInternalError)
	}

	if err := s.lock.Acquire(ctx); err != nil {
		return 0, err
	}
	defer s.lock.Release()
	res, err := s.db.ExecContext(ctx, stmt, args...)
	if err != nil {
		return 0, errors.WrapError(err, "insert into "+name, errors.CodeDatabaseError)
	}
	n, _ := res.RowsAffected()
	return n, nil
}

// Select runs a builder-composed query against one tenant table.
func (s *Store) Select(ctx context.Context, tenantID, table string, where sqrl.Sqlizer, orderBy []string, limit uint64) ([]map[string]interface{}, error) {
	name, err := namespace.TableName(tenantID, table)
	if err != nil {
		return nil, err
	}
	builder := sqrl.Select("*").From(name)
	if where != nil {
		builder = builder.Where(where)
	}
	if len(orderBy) > 0 {
		builder = builder.OrderBy(orderBy...)
	}
	if limit > 0 {
		builder = builder.Limit(limit)
	}
	stmt, args, err := builder.ToSql()
	if err != nil {
		return nil, errors.WrapError(err, "build select for "+name, errors.CodeInternalError)
	}
	return s.query(ctx, stmt, args...)
}

// Query runs tenant-supplied SQL. Only single SELECT statements are
// accepted and every referenced table must belong to the tenant.
func (s *Store) Query(ctx context.Context, tenantID, rawSQL string, args ...interface{}) ([]map[string]interface{}, error) {
	if err := guardQuery(tenantID, rawSQL); err != nil {
		return nil, err
	}
	return s.query(ctx, rawSQL, args...)
}

func (s *Store) query(ctx context.Context, stmt string, args ...interface{}) ([]map[string]interface{}, error) {
	if err := s.lock.Acquire(ctx); err != nil {
		return nil, err
	}
	defer s.lock.Release()

	rows, err := s.db.QueryxContext(ctx, stmt, args...)
	if err != nil {
		return nil, errors.WrapError(err, "analytical query", errors.CodeDatabaseError)
	}
	defer rows.Close()

	var out []map[string]interface{}
	for rows.Next() {
		row := map[string]interface{}{}
		if err := rows.MapScan(row); err != nil {
			return nil, errors.WrapError(err, "scan analytical row", errors.CodeDatabaseError)
		}
		out = append(out, row)
	}
	if err := rows.Err(); err != nil {
		return nil, errors.WrapError(err, "analytical query", errors.CodeDatabaseError)
	}
	return out, nil
}

// Tables lists the tenant's logical table names.
func (s *Store) Tables(ctx context.Context, tenantID string) ([]string, error) {
	if err := namespace.ValidateTenantID(tenantID); err != nil {
		return nil, err
	}
	rows, err := s.query(ctx,
		"SELECT name FROM sqlite_master WHERE type = 'table' AND name LIKE ?",
		fmt.Sprintf("t_%s__%%", tenantID))
	if err != nil {
		return nil, err
	}
	tables := make([]string, 0, len(rows))
	for _, row := range rows {
		physical, _ := row["name"].(string)
		owner, table, err := namespace.Parse(physical)
		if err != nil || owner != tenantID {
			// LIKE is broader than the contract; t_a__x matches t_a%
			// patterns for tenant "a" prefixes such as "a-b".
			continue
		}
		tables = append(tables, table)
	}
	sort.Strings(tables)
	return tables, nil
}

// DropTenant removes every table owned by the tenant and returns how
// many were dropped.
func (s *Store) DropTenant(ctx context.Context, tenantID string) (int, error) {
	tables, err := s.Tables(ctx, tenantID)
	if err != nil {
		return 0, err
	}
	for _, table := range tables {
		if err := s.DropTable(ctx, tenantID, table); err != nil {
			return 0, err
		}
	}
	if len(tables) > 0 {
		log.Infof("dropped %d analytical tables for tenant %s", len(tables), tenantID)
	}
	return len(tables), nil
}
