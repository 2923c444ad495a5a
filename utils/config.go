package utils

import (
	"errors"
	"fmt"
	"path/filepath"
	"runtime"

	"gopkg.in/yaml.v2"
)

const (
	defaultDispatchWindow = 128
	defaultLogLevel       = "info"
)

// Config is the parsed tidemark YAML configuration.
type Config struct {
	// RootDirectory holds the table directories (one per table id).
	RootDirectory string
	// WALDirectory holds the commit log segments. Defaults to
	// "<RootDirectory>/wal".
	WALDirectory string
	// Shards is the number of shard executors. Defaults to the
	// number of CPUs.
	Shards int
	// DispatchWindow bounds the number of in-flight cross-shard
	// applies per source shard.
	DispatchWindow int
	LogLevel       string
}

type aux struct {
	RootDirectory  string `yaml:"root_directory"`
	WALDirectory   string `yaml:"wal_directory"`
	Shards         int    `yaml:"shards"`
	DispatchWindow int    `yaml:"dispatch_window"`
	LogLevel       string `yaml:"log_level"`
}

// ParseConfig loads a Config from YAML data and applies defaults.
func ParseConfig(data []byte) (*Config, error) {
	a := aux{}
	if err := yaml.Unmarshal(data, &a); err != nil {
		return nil, fmt.Errorf("failed to parse yaml config: %w", err)
	}
	if a.RootDirectory == "" {
		return nil, errors.New("invalid root directory")
	}
	c := &Config{
		RootDirectory:  a.RootDirectory,
		WALDirectory:   a.WALDirectory,
		Shards:         a.Shards,
		DispatchWindow: a.DispatchWindow,
		LogLevel:       a.LogLevel,
	}
	if c.WALDirectory == "" {
		c.WALDirectory = filepath.Join(c.RootDirectory, "wal")
	}
	if c.Shards == 0 {
		c.Shards = runtime.NumCPU()
	}
	if c.Shards < 0 {
		return nil, fmt.Errorf("invalid shard count: %d", c.Shards)
	}
	if c.DispatchWindow == 0 {
		c.DispatchWindow = defaultDispatchWindow
	}
	if c.DispatchWindow < 0 {
		return nil, fmt.Errorf("invalid dispatch window: %d", c.DispatchWindow)
	}
	if c.LogLevel == "" {
		c.LogLevel = defaultLogLevel
	}
	return c, nil
}
