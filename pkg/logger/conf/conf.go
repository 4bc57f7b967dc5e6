// Copyright (C) 2025-2026, Advanced Micro Devices, Inc. All rights reserved.
// See LICENSE for license information.

package conf

type Level uint32

const (
	FatalLevel Level = iota
	ErrorLevel
	WarnLevel
	InfoLevel
	DebugLevel
	TraceLevel
)

type LogConfig struct {
	Core      string      `yaml:"core" json:"core"`
	Level     Level       `yaml:"level" json:"level"`
	Formatter Formatter   `yaml:"formatter" json:"formatter"`
	File      *FileConfig `yaml:"file,omitempty" json:"file,omitempty"`
}

// FileConfig enables rotated file output in addition to stdout.
type FileConfig struct {
	Path       string `yaml:"path" json:"path"`
	MaxSizeMB  int    `yaml:"maxSizeMB" json:"maxSizeMB"`
	MaxBackups int    `yaml:"maxBackups" json:"maxBackups"`
	MaxAgeDays int    `yaml:"maxAgeDays" json:"maxAgeDays"`
	Compress   bool   `yaml:"compress" json:"compress"`
}

func DefaultConfig() *LogConfig {
	return &LogConfig{
		Core:      "logrus",
		Level:     InfoLevel,
		Formatter: ConsoleFormater,
	}
}

func (c *LogConfig) Validate() bool {
	return isValidFormatter(c.Formatter)
}
