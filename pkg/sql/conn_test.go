// Copyright (C) 2025-2026, Advanced Micro Devices, Inc. All rights reserved.
// See LICENSE for license information.

package sql

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

func resetConnPools() {
	connPoolLock.Lock()
	defer connPoolLock.Unlock()
	connPools = map[string]*gorm.DB{}
}

func TestDatabaseConfigValidate(t *testing.T) {
	tests := []struct {
		name    string
		config  DatabaseConfig
		wantErr bool
	}{
		{"valid", DatabaseConfig{Host: "localhost", Port: 5432, DBName: "voyant"}, false},
		{"missing host", DatabaseConfig{Port: 5432, DBName: "voyant"}, true},
		{"missing port", DatabaseConfig{Host: "localhost", DBName: "voyant"}, true},
		{"missing db name", DatabaseConfig{Host: "localhost", Port: 5432}, true},
		{"full config", DatabaseConfig{
			Host: "db.internal", Port: 5432, DBName: "voyant",
			UserName: "svc", Password: "secret", SSLMode: "require",
			Driver: DriverNamePostgres, TimeZone: "UTC",
			MaxIdleConn: 5, MaxOpenConn: 50,
		}, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.config.Validate()
			if tt.wantErr {
				assert.Equal(t, errInvalidConfig, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestMultiDatabaseConfigValidates(t *testing.T) {
	conf := MultiDatabaseConfig{
		dbKeyDefault: {Host: "localhost", Port: 5432, DBName: "voyant"},
		"reporting":  {Host: "localhost", Port: 5433, DBName: "reports"},
	}
	for key, c := range conf {
		require.NoError(t, c.Validate(), key)
	}
}

func TestGetDBUnknownKeyIsNil(t *testing.T) {
	resetConnPools()
	assert.Nil(t, GetDB("nonexistent"))
	assert.Nil(t, GetDefaultDB())
}

func TestSetDefaultDB(t *testing.T) {
	resetConnPools()

	db := &gorm.DB{}
	SetDefaultDB(db)
	assert.Same(t, db, GetDefaultDB())

	SetDefaultDB(nil)
	assert.Nil(t, GetDefaultDB())
}

func TestConnPoolConcurrentReads(t *testing.T) {
	resetConnPools()
	SetDefaultDB(&gorm.DB{})
	defer SetDefaultDB(nil)

	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_ = GetDB("other")
			_ = GetDefaultDB()
		}()
	}
	wg.Wait()
}

func TestInitGormDBRejectsInvalidConfig(t *testing.T) {
	resetConnPools()
	_, err := InitDefault(DatabaseConfig{Host: "localhost"})
	assert.Equal(t, errInvalidConfig, err)
}
