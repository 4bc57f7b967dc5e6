// Copyright (C) 2025-2026, Advanced Micro Devices, Inc. All rights reserved.
// See LICENSE for license information.

package sql

import (
	"fmt"

	"gorm.io/driver/postgres"
	"gorm.io/gorm"
)

const (
	DriverNamePostgres = "postgres"
)

func getDialector(conf DatabaseConfig) gorm.Dialector {
	sslMode := conf.SSLMode
	if sslMode == "" {
		sslMode = "disable"
	}
	dsn := fmt.Sprintf("host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		conf.Host, conf.Port, conf.UserName, conf.Password, conf.DBName, sslMode)
	if conf.TimeZone != "" {
		dsn = fmt.Sprintf("%s TimeZone=%s", dsn, conf.TimeZone)
	}
	return postgres.Open(dsn)
}
