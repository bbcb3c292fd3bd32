package main

import (
	"errors"
	"fmt"
	"io/fs"
	"os"

	"github.com/charmbracelet/log"
	"gopkg.in/yaml.v3"

	"github.com/TrevorS/pointindex"
)

// FileConfig is the YAML configuration file. Zero values fall back to
// pointindex.DefaultConfig.
type FileConfig struct {
	Dims       int    `yaml:"dims"`
	MinEntries int    `yaml:"min_entries"`
	MaxEntries int    `yaml:"max_entries"`
	Metric     string `yaml:"metric"`
	Workers    int    `yaml:"workers"`
	LogLevel   string `yaml:"log_level"`
}

// loadFileConfig reads path. A missing file is not an error when optional
// is set, so the default config path may be absent.
func loadFileConfig(path string, optional bool) (FileConfig, error) {
	var fc FileConfig
	data, err := os.ReadFile(path)
	if err != nil {
		if optional && errors.Is(err, fs.ErrNotExist) {
			return fc, nil
		}
		return fc, fmt.Errorf("read config: %w", err)
	}
	if err := yaml.Unmarshal(data, &fc); err != nil {
		return fc, fmt.Errorf("parse config %s: %w", path, err)
	}
	return fc, nil
}

// IndexConfig translates the file settings, attaching logger.
func (fc FileConfig) IndexConfig(logger *log.Logger) (pointindex.Config, error) {
	cfg := pointindex.DefaultConfig()
	if fc.Dims != 0 {
		cfg.Dims = fc.Dims
	}
	if fc.MinEntries != 0 {
		cfg.MinEntries = fc.MinEntries
	}
	if fc.MaxEntries != 0 {
		cfg.MaxEntries = fc.MaxEntries
	}
	if fc.Metric != "" {
		m, err := pointindex.MetricByName(fc.Metric)
		if err != nil {
			return cfg, err
		}
		cfg.Metric = m
	}
	cfg.Workers = fc.Workers
	cfg.Logger = logger
	return cfg, nil
}

func newLogger(level string) (*log.Logger, error) {
	logger := log.NewWithOptions(os.Stderr, log.Options{
		ReportTimestamp: true,
		Prefix:          "spatialq",
	})
	if level == "" {
		level = "info"
	}
	lvl, err := log.ParseLevel(level)
	if err != nil {
		return nil, fmt.Errorf("log level: %w", err)
	}
	logger.SetLevel(lvl)
	return logger, nil
}
