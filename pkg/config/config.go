// Copyright (C) 2025-2026, Advanced Micro Devices, Inc. All rights reserved.
// See LICENSE for license information.

package config

import (
	"os"

	"gopkg.in/yaml.v2"

	"github.com/AMD-AGI/voyant/pkg/errors"
	"github.com/AMD-AGI/voyant/pkg/logger/conf"
)

const (
	EnvConfigPath     = "CONFIG_PATH"
	defaultConfigPath = "/etc/voyant/config.yaml"
)

type Config struct {
	HttpPort int `yaml:"httpPort"`

	Database   DatabaseConfig  `yaml:"database"`
	Analytical AnalyticalStore `yaml:"analytical"`
	Artifact   ArtifactConfig  `yaml:"artifact"`
	Log        *conf.LogConfig `yaml:"log,omitempty"`

	// Path of the flat runtime settings file loaded through viper.
	// Optional; defaults apply when absent.
	SettingsPath string `yaml:"settingsPath,omitempty"`
}

type DatabaseConfig struct {
	Host        string `yaml:"host"`
	Port        int    `yaml:"port"`
	UserName    string `yaml:"username"`
	Password    string `yaml:"password"`
	DBName      string `yaml:"dbname"`
	SSLMode     string `yaml:"sslmode"`
	LogMode     bool   `yaml:"logMode"`
	MaxIdleConn int    `yaml:"maxIdleConn"`
	MaxOpenConn int    `yaml:"maxOpenConn"`
}

type AnalyticalStore struct {
	Path string `yaml:"path"`
}

type ArtifactConfig struct {
	// backend is "s3" or "local"
	Backend  string `yaml:"backend"`
	Bucket   string `yaml:"bucket"`
	Endpoint string `yaml:"endpoint"`
	Region   string `yaml:"region"`
	LocalDir string `yaml:"localDir"`
}

func LoadConfig() (*Config, error) {
	path := os.Getenv(EnvConfigPath)
	if path == "" {
		path = defaultConfigPath
	}
	return LoadConfigFromFile(path)
}

func LoadConfigFromFile(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.WrapError(err, "read config file", errors.CodeInitializeError)
	}
	cfg := &Config{}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, errors.WrapError(err, "parse config file", errors.CodeInitializeError)
	}
	cfg.applyDefaults()
	return cfg, nil
}

func (c *Config) applyDefaults() {
	if c.HttpPort == 0 {
		c.HttpPort = 8080
	}
	if c.Database.Port == 0 {
		c.Database.Port = 5432
	}
	if c.Database.SSLMode == "" {
		c.Database.SSLMode = "disable"
	}
	if c.Analytical.Path == "" {
		c.Analytical.Path = "voyant-analytical.db"
	}
	if c.Artifact.Backend == "" {
		c.Artifact.Backend = "local"
	}
	if c.Artifact.LocalDir == "" {
		c.Artifact.LocalDir = "artifacts"
	}
	if c.Log == nil {
		c.Log = conf.DefaultConfig()
	}
}
