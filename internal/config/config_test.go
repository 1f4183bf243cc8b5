// SPDX-License-Identifier: MPL-2.0
/*
 * Copyright (C) 2025 The eegprep Authors.
 *
 * This Source Code Form is subject to the terms of the Mozilla Public
 * License, v. 2.0. If a copy of the MPL was not distributed with this
 * file, You can obtain one at http://mozilla.org/MPL/2.0/.
 */

package config_test

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/eegtools/eegprep/internal/config"
)

func TestDefault(t *testing.T) {
	cfg := config.Default("/data/viewpoints")

	require.Equal(t, filepath.Join("/data/viewpoints", "raw"), cfg.RawDir)
	require.Equal(t, filepath.Join("/data/viewpoints", "preprocessed"), cfg.PreprocDir)
	require.Equal(t, 0.1, cfg.HighPass)
	require.Equal(t, 100.0, cfg.LowPass)
	require.Equal(t, 13824.0, cfg.TriggerDelta)
	require.Equal(t, 0.11, cfg.TriggerTolerance)
	require.Equal(t, 100, cfg.MaxMissing)
	require.Equal(t, "Status", cfg.StatusChannel)
	require.Equal(t, -0.1, cfg.EpochTmin)
	require.Equal(t, 0.8, cfg.EpochTmax)
	require.NoError(t, config.Validate(cfg))
}

func TestSaveLoadRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), config.DefaultConfigFilename)

	cfg := config.Default("/data/viewpoints")
	cfg.Downsample = 128
	cfg.Overwrite = true
	require.NoError(t, config.Save(path, cfg))

	loaded, err := config.Load(path)
	require.NoError(t, err)
	require.Equal(t, cfg, loaded)
}

func TestLoadAppliesDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "minimal.yaml")
	require.NoError(t, os.WriteFile(path, []byte("data_dir: /data/study\n"), 0o644))

	cfg, err := config.Load(path)
	require.NoError(t, err)
	require.Equal(t, filepath.Join("/data/study", "raw"), cfg.RawDir)
	require.Equal(t, 200.0, cfg.Downsample)
	require.Equal(t, 13824.0, cfg.TriggerDelta)
}

func TestValidateErrors(t *testing.T) {
	require.Error(t, config.Validate(nil))
	require.Error(t, config.Validate(&config.Config{}))

	bad := config.Default("/data/study")
	bad.EpochTmin = 1
	bad.EpochTmax = 0.5
	require.Error(t, config.Validate(bad))

	bad = config.Default("/data/study")
	bad.HighPass = 120
	require.Error(t, config.Validate(bad))

	bad = config.Default("/data/study")
	bad.TriggerTolerance = -1
	require.Error(t, config.Validate(bad))
}

func TestLoadMissingFile(t *testing.T) {
	_, err := config.Load(filepath.Join(t.TempDir(), "absent.yaml"))
	require.Error(t, err)
}

func TestGroupLookup(t *testing.T) {
	cfg := config.Default("/data/study")

	g, err := cfg.Group("adults")
	require.NoError(t, err)
	require.Equal(t, "BioSemi", g.EEGSystem)
	require.Equal(t, 20, g.Subjects)

	_, err = cfg.Group("teens")
	require.Error(t, err)
}
