// SPDX-License-Identifier: MPL-2.0
/*
 * Copyright (C) 2025 The eegprep Authors.
 *
 * This Source Code Form is subject to the terms of the Mozilla Public
 * License, v. 2.0. If a copy of the MPL was not distributed with this
 * file, You can obtain one at http://mozilla.org/MPL/2.0/.
 */

package edf_test

import (
	"io"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/eegtools/eegprep/edf"
)

func TestReaderBDF(t *testing.T) {
	f, err := os.OpenFile(filepath.Join(t.TempDir(), "test.bdf"), os.O_RDWR|os.O_CREATE, 0o644)
	require.NoError(t, err)
	t.Cleanup(func() {
		require.NoError(t, f.Close())
	})

	// A BioSemi-style recording: one EEG channel plus the Status trigger
	// line, with matching physical and digital ranges so the trigger codes
	// survive the round trip exactly.
	hdr := edf.Header{
		Format:             edf.FormatBDF,
		Version:            edf.VersionBDF,
		PatientID:          "sub-01",
		RecordingID:        "task-targets",
		StartTime:          time.Date(2025, time.March, 3, 10, 30, 0, 0, time.UTC),
		DataRecordDuration: time.Second,
		SignalCount:        2,
		Signals: []edf.Signal{
			{
				Label:             "A1",
				TransducerType:    "Active electrode",
				PhysicalDimension: "uV",
				PhysicalMin:       -262144,
				PhysicalMax:       262143,
				DigitalMin:        -8388608,
				DigitalMax:        8388607,
				SamplesPerRecord:  256,
			},
			{
				Label:             "Status",
				PhysicalDimension: "Boolean",
				PhysicalMin:       -8388608,
				PhysicalMax:       8388607,
				DigitalMin:        -8388608,
				DigitalMax:        8388607,
				SamplesPerRecord:  256,
			},
		},
	}

	ew, err := edf.Create(f, hdr)
	require.NoError(t, err)

	eeg := make([]float64, 256)
	status := make([]float64, 256)
	for i := range eeg {
		// Values well outside the 16-bit range to exercise the 24-bit path.
		eeg[i] = float64(100000 + i)
	}
	// A trigger pulse partway through the record.
	for i := 100; i < 110; i++ {
		status[i] = 13824
	}

	require.NoError(t, ew.WriteRecord([][]float64{eeg, status}))
	require.NoError(t, ew.Close())

	_, err = f.Seek(0, io.SeekStart)
	require.NoError(t, err)

	er, err := edf.Open(f)
	require.NoError(t, err)

	got := er.Header()
	require.Equal(t, edf.FormatBDF, got.Format)
	require.Equal(t, edf.VersionBDF, got.Version)
	require.Equal(t, "sub-01", got.PatientID)
	require.Equal(t, 1, got.DataRecords)
	require.InDelta(t, 256.0, got.SampleRate(0), 1e-9)

	// Look up the trigger line by label.
	idx, err := got.SignalIndex("Status")
	require.NoError(t, err)
	require.Equal(t, 1, idx)

	_, err = got.SignalIndex("nonexistent")
	require.Error(t, err)

	sr, err := er.SignalByLabel("Status")
	require.NoError(t, err)

	samples := make([]float64, 256)
	n, err := sr.Read(samples)
	require.NoError(t, err)
	require.Equal(t, 256, n)

	// Unity gain means the trigger codes come back bit-exact.
	assert.Equal(t, 0.0, samples[99])
	assert.Equal(t, 13824.0, samples[100])
	assert.Equal(t, 13824.0, samples[109])
	assert.Equal(t, 0.0, samples[110])

	sr, err = er.Signal(0)
	require.NoError(t, err)
	n, err = sr.Read(samples)
	require.NoError(t, err)
	require.Equal(t, 256, n)
	for i := range samples {
		assert.InDelta(t, float64(100000+i), samples[i], 1.0)
	}
}
