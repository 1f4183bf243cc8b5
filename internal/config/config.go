// SPDX-License-Identifier: MPL-2.0
/*
 * Copyright (C) 2025 The eegprep Authors.
 *
 * This Source Code Form is subject to the terms of the Mozilla Public
 * License, v. 2.0. If a copy of the MPL was not distributed with this
 * file, You can obtain one at http://mozilla.org/MPL/2.0/.
 */

// Package config holds the preprocessing pipeline parameters, read from a
// YAML file so no path or threshold is hard-coded into the analysis code.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

const (
	// DefaultConfigFilename is the default filename for pipeline settings.
	DefaultConfigFilename = "eegprep.yaml"

	// DefaultFilePermissions is the default file permission for config files.
	DefaultFilePermissions = 0o644
)

var (
	// errConfigIsNotSet is returned when a nil configuration is provided.
	errConfigIsNotSet = errors.New("configuration is not set")
	// errDataDirRequired is returned when the data directory is missing.
	errDataDirRequired = errors.New("data directory must be provided")
)

// Group describes one participant group of the study.
type Group struct {
	// Name identifies the group (e.g. "adults", "infants").
	Name string `yaml:"name"`
	// EEGSystem is the acquisition hardware for this group.
	EEGSystem string `yaml:"eeg_system"`
	// Subjects is the number of recorded subjects.
	Subjects int `yaml:"n_subjects"`
}

// Config holds every parameter of the preprocessing pipeline.
type Config struct {
	// DataDir is the root of the study data tree.
	DataDir string `yaml:"data_dir"`
	// RawDir is the BIDS-style raw data directory. Defaults to
	// DataDir/raw.
	RawDir string `yaml:"raw_dir"`
	// PreprocDir receives the preprocessed outputs. Defaults to
	// DataDir/preprocessed.
	PreprocDir string `yaml:"preproc_dir"`

	// HighPass is the high-pass filter cutoff in Hz, removing slow drifts.
	HighPass float64 `yaml:"highpass"`
	// LowPass is the low-pass filter cutoff in Hz, removing
	// high-frequency noise.
	LowPass float64 `yaml:"lowpass"`
	// Downsample is the target sampling rate in Hz after epoching; 0
	// disables downsampling.
	Downsample float64 `yaml:"downsample"`

	// StatusChannel is the label of the hardware trigger line.
	StatusChannel string `yaml:"status_channel"`
	// TriggerDelta is the discrete-difference value that marks a genuine
	// stimulus trigger on the status line.
	TriggerDelta float64 `yaml:"trigger_delta"`
	// TriggerTolerance is the inter-event gap excess in seconds that
	// signals a dropped trigger.
	TriggerTolerance float64 `yaml:"trigger_tolerance"`
	// MaxMissing is the number of missing triggers at which repair is
	// refused.
	MaxMissing int `yaml:"max_missing_triggers"`

	// EpochTmin and EpochTmax bound the epoch window around each onset,
	// in seconds.
	EpochTmin float64 `yaml:"epoch_tmin"`
	EpochTmax float64 `yaml:"epoch_tmax"`
	// StimulusDuration is the presentation duration recorded in the
	// aligned event table, in seconds.
	StimulusDuration float64 `yaml:"stimulus_duration"`

	// Groups lists the participant groups of the study.
	Groups []Group `yaml:"participant_groups"`
	// Overwrite controls whether existing outputs are regenerated.
	Overwrite bool `yaml:"overwrite"`
}

// Default returns the study's standard configuration rooted at dataDir.
func Default(dataDir string) *Config {
	cfg := &Config{DataDir: dataDir}
	cfg.applyDefaults()
	cfg.Groups = []Group{
		{Name: "adults", EEGSystem: "BioSemi", Subjects: 20},
		{Name: "infants", EEGSystem: "BrainVision", Subjects: 0},
	}
	return cfg
}

// applyDefaults fills zero-valued fields with the study's standard
// parameters.
func (c *Config) applyDefaults() {
	if c.RawDir == "" && c.DataDir != "" {
		c.RawDir = filepath.Join(c.DataDir, "raw")
	}
	if c.PreprocDir == "" && c.DataDir != "" {
		c.PreprocDir = filepath.Join(c.DataDir, "preprocessed")
	}
	if c.HighPass == 0 {
		c.HighPass = 0.1
	}
	if c.LowPass == 0 {
		c.LowPass = 100
	}
	if c.Downsample == 0 {
		c.Downsample = 200
	}
	if c.StatusChannel == "" {
		c.StatusChannel = "Status"
	}
	if c.TriggerDelta == 0 {
		c.TriggerDelta = 13824
	}
	if c.TriggerTolerance == 0 {
		c.TriggerTolerance = 0.11
	}
	if c.MaxMissing == 0 {
		c.MaxMissing = 100
	}
	if c.EpochTmin == 0 && c.EpochTmax == 0 {
		c.EpochTmin = -0.1
		c.EpochTmax = 0.8
	}
	if c.StimulusDuration == 0 {
		c.StimulusDuration = 0.2
	}
}

// Load reads configuration from the provided path, applies defaults and
// validates essential fields.
func Load(path string) (*Config, error) {
	if path == "" {
		path = DefaultConfigFilename
	}

	contents, err := os.ReadFile(filepath.Clean(path))
	if err != nil {
		return nil, fmt.Errorf("read settings: %w", err)
	}

	var cfg Config
	if err := yaml.Unmarshal(contents, &cfg); err != nil {
		return nil, fmt.Errorf("unmarshal settings: %w", err)
	}

	if err := Validate(&cfg); err != nil {
		return nil, err
	}

	return &cfg, nil
}

// Save writes the configuration to the provided path.
func Save(path string, cfg *Config) error {
	if cfg == nil {
		return errConfigIsNotSet
	}

	if path == "" {
		path = DefaultConfigFilename
	}

	if err := Validate(cfg); err != nil {
		return err
	}

	data, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("marshal settings: %w", err)
	}

	if err := os.WriteFile(filepath.Clean(path), data, DefaultFilePermissions); err != nil {
		return fmt.Errorf("write settings: %w", err)
	}

	return nil
}

// Validate checks the provided settings for required fields, applying
// defaults for unset parameters.
func Validate(cfg *Config) error {
	if cfg == nil {
		return errConfigIsNotSet
	}

	if cfg.DataDir == "" {
		return errDataDirRequired
	}

	cfg.applyDefaults()

	if cfg.EpochTmax <= cfg.EpochTmin {
		return fmt.Errorf("invalid epoch window [%g, %g]", cfg.EpochTmin, cfg.EpochTmax)
	}
	if cfg.LowPass > 0 && cfg.HighPass >= cfg.LowPass {
		return fmt.Errorf("high-pass cutoff %g Hz must be below low-pass cutoff %g Hz", cfg.HighPass, cfg.LowPass)
	}
	if cfg.TriggerTolerance <= 0 {
		return fmt.Errorf("trigger tolerance must be positive, got %g", cfg.TriggerTolerance)
	}
	if cfg.MaxMissing <= 0 {
		return fmt.Errorf("max missing triggers must be positive, got %d", cfg.MaxMissing)
	}

	return nil
}

// Group returns the participant group with the given name.
func (c *Config) Group(name string) (Group, error) {
	for _, g := range c.Groups {
		if g.Name == name {
			return g, nil
		}
	}
	return Group{}, fmt.Errorf("participant group %q not found in configuration", name)
}
