// Copyright (C) 2025-2026, Advanced Micro Devices, Inc. All rights reserved.
// See LICENSE for license information.

package sql

import (
	goerrors "errors"

	"github.com/lib/pq"
	"gorm.io/gorm"

	"github.com/AMD-AGI/voyant/pkg/errors"
	"github.com/AMD-AGI/voyant/pkg/metrics"
)

var sqlErrorCounter = metrics.NewCounterVec("sql_errors", "database errors by table", []string{"table"})

// CheckErr normalizes a gorm error into a coded error. Record-not-found
// passes through untouched when allowNotExist is set; callers that need
// the miss map it to their own not-found code.
func CheckErr(err error, allowNotExist bool) error {
	if err == nil {
		return nil
	}
	if goerrors.Is(err, gorm.ErrRecordNotFound) {
		if allowNotExist {
			return nil
		}
		return err
	}
	return MapError(err)
}

// MapError wraps a driver error with CodeDatabaseError, keeping the
// postgres message when one is present.
func MapError(err error) error {
	var pqErr *pq.Error
	if goerrors.As(err, &pqErr) {
		return errors.NewError().WithError(err).WithCode(errors.CodeDatabaseError).WithMessage(pqErr.Message)
	}
	return errors.NewError().WithError(err).WithCode(errors.CodeDatabaseError)
}

// RegisterErrorCallbacks installs an after-operation hook that converts
// raw driver errors into coded errors and counts them per table.
func RegisterErrorCallbacks(db *gorm.DB) {
	solve := func(db *gorm.DB) {
		if db.Error == nil || goerrors.Is(db.Error, gorm.ErrRecordNotFound) {
			return
		}
		tableName := "unknown"
		if db.Statement != nil && db.Statement.Table != "" {
			tableName = db.Statement.Table
		}
		sqlErrorCounter.Inc(tableName)
		db.Error = MapError(db.Error)
	}
	_ = db.Callback().Create().After("gorm:create").Register("voyant:error_create", solve)
	_ = db.Callback().Query().After("gorm:query").Register("voyant:error_query", solve)
	_ = db.Callback().Update().After("gorm:update").Register("voyant:error_update", solve)
	_ = db.Callback().Delete().After("gorm:delete").Register("voyant:error_delete", solve)
	_ = db.Callback().Row().After("gorm:row").Register("voyant:error_row", solve)
}
