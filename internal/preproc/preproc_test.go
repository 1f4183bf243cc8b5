// SPDX-License-Identifier: MPL-2.0
/*
 * Copyright (C) 2025 The eegprep Authors.
 *
 * This Source Code Form is subject to the terms of the Mozilla Public
 * License, v. 2.0. If a copy of the MPL was not distributed with this
 * file, You can obtain one at http://mozilla.org/MPL/2.0/.
 */

package preproc

import (
	"context"
	"fmt"
	"math"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/eegtools/eegprep/edf"
	"github.com/eegtools/eegprep/internal/config"
	"github.com/eegtools/eegprep/internal/events"
)

const (
	testRate    = 256.0
	testRecords = 10
)

// writeTestRecording builds a small BioSemi-style recording: two EEG
// channels plus the Status line, with trigger pulses at the given onset
// samples.
func writeTestRecording(t *testing.T, path string, onsets []int) {
	t.Helper()

	n := testRecords * int(testRate)
	a1 := make([]float64, n)
	a2 := make([]float64, n)
	status := make([]float64, n)
	for i := 0; i < n; i++ {
		a1[i] = 50 * math.Sin(2*math.Pi*10*float64(i)/testRate)
		a2[i] = 30 * math.Cos(2*math.Pi*7*float64(i)/testRate)
	}
	for _, onset := range onsets {
		for i := onset + 1; i <= onset+10; i++ {
			status[i] = 13824
		}
	}

	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	f, err := os.OpenFile(path, os.O_RDWR|os.O_CREATE, 0o644)
	require.NoError(t, err)

	eegSignal := func(label string) edf.Signal {
		return edf.Signal{
			Label:             label,
			PhysicalDimension: "uV",
			PhysicalMin:       -500,
			PhysicalMax:       500,
			DigitalMin:        -8388608,
			DigitalMax:        8388607,
			SamplesPerRecord:  int(testRate),
		}
	}

	w, err := edf.Create(f, edf.Header{
		Format:             edf.FormatBDF,
		Version:            edf.VersionBDF,
		PatientID:          "sub-01",
		RecordingID:        "task-targets",
		StartTime:          time.Date(2025, time.March, 3, 10, 0, 0, 0, time.UTC),
		DataRecordDuration: time.Second,
		SignalCount:        3,
		Signals: []edf.Signal{
			eegSignal("A1"),
			eegSignal("A2"),
			{
				Label:             "Status",
				PhysicalDimension: "Boolean",
				PhysicalMin:       -8388608,
				PhysicalMax:       8388607,
				DigitalMin:        -8388608,
				DigitalMax:        8388607,
				SamplesPerRecord:  int(testRate),
			},
		},
	})
	require.NoError(t, err)

	rec := int(testRate)
	for r := 0; r < testRecords; r++ {
		require.NoError(t, w.WriteRecord([][]float64{
			a1[r*rec : (r+1)*rec],
			a2[r*rec : (r+1)*rec],
			status[r*rec : (r+1)*rec],
		}))
	}
	require.NoError(t, w.Close())
	require.NoError(t, f.Close())
}

func writeTestEvents(t *testing.T, path string, stimOn []float64) {
	t.Helper()

	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	content := "trial,stimulus,category,time_stimon\n"
	for i, on := range stimOn {
		content += fmt.Sprintf("%d,stim%d,cat%d,%g\n", i+1, i+1, i%2, on)
	}
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
}

func testConfig(t *testing.T) *config.Config {
	t.Helper()

	cfg := config.Default(t.TempDir())
	cfg.Downsample = 64
	require.NoError(t, config.Validate(cfg))
	return cfg
}

func TestRunSubject(t *testing.T) {
	cfg := testConfig(t)
	group := config.Group{Name: "adults", EEGSystem: "BioSemi", Subjects: 1}
	p := newSubjectPaths(cfg, group.Name, 1)

	// The 3s trigger is dropped from the recording; reconciliation must
	// reconstruct it at sample 768.
	writeTestRecording(t, p.sourceEEG, []int{256, 512, 1024})
	writeTestEvents(t, p.sourceEvents, []float64{1, 2, 3, 4})

	require.NoError(t, RunSubject(context.Background(), cfg, group, 1))

	// Source files were staged into the raw layout.
	require.NoFileExists(t, p.sourceEEG)
	require.FileExists(t, p.rawEEG)

	// The aligned table carries the reconstructed onset.
	aligned, err := events.ReadFile(p.alignedEvents)
	require.NoError(t, err)
	require.Equal(t, 4, aligned.Len())
	require.Equal(t, []string{"onset", "duration", "onsetsample", "eventnumber", "subjectnr",
		"trial", "stimulus", "category", "time_stimon"}, aligned.Columns)
	require.Equal(t, "768", aligned.Records[2][2])
	require.Equal(t, "3", aligned.Records[2][0]) // onset = 768/256
	require.FileExists(t, p.alignedCSV)

	// The epoched output has one data record per trial, EEG channels only.
	f, err := os.Open(p.outEpochs)
	require.NoError(t, err)
	t.Cleanup(func() { require.NoError(t, f.Close()) })

	er, err := edf.Open(f)
	require.NoError(t, err)
	hdr := er.Header()
	require.Equal(t, edf.FormatBDF, hdr.Format)
	require.Equal(t, 4, hdr.DataRecords)
	require.Equal(t, 2, hdr.SignalCount)
	require.Equal(t, "A1", hdr.Signals[0].Label)
	// Downsampled from 256 Hz to 64 Hz.
	require.InDelta(t, 64.0, hdr.SampleRate(0), 1e-6)

	samples := make([]float64, hdr.Signals[0].SamplesPerRecord)
	sr, err := er.Signal(0)
	require.NoError(t, err)
	n, err := sr.Read(samples)
	require.NoError(t, err)
	require.Equal(t, len(samples), n)
}

func TestRunSubjectSkipsExisting(t *testing.T) {
	cfg := testConfig(t)
	group := config.Group{Name: "adults"}
	p := newSubjectPaths(cfg, group.Name, 2)

	// Only the output exists; without overwrite the subject is skipped
	// before any input is touched.
	require.NoError(t, os.MkdirAll(p.outDir, 0o755))
	require.NoError(t, os.WriteFile(p.outEpochs, []byte("placeholder"), 0o644))

	require.NoError(t, RunSubject(context.Background(), cfg, group, 2))

	cfg.Overwrite = true
	require.Error(t, RunSubject(context.Background(), cfg, group, 2))
}

func TestRunSubjectMissingFiles(t *testing.T) {
	cfg := testConfig(t)
	group := config.Group{Name: "adults"}

	err := RunSubject(context.Background(), cfg, group, 3)
	require.Error(t, err)
	require.Contains(t, err.Error(), "behavioral file")
}

func TestRunSubjectTooManyCandidates(t *testing.T) {
	cfg := testConfig(t)
	group := config.Group{Name: "adults"}
	p := newSubjectPaths(cfg, group.Name, 4)

	// Five pulses but only four trials: the recording is rejected.
	writeTestRecording(t, p.sourceEEG, []int{256, 512, 768, 1024, 1280})
	writeTestEvents(t, p.sourceEvents, []float64{1, 2, 3, 4})

	err := RunSubject(context.Background(), cfg, group, 4)
	require.Error(t, err)
	require.Contains(t, err.Error(), "reconcile triggers")
}

func TestRunBatchContinuesAfterFailure(t *testing.T) {
	cfg := testConfig(t)
	group := config.Group{Name: "adults", EEGSystem: "BioSemi", Subjects: 2}
	cfg.Groups = []config.Group{group}

	// Subject 1 is complete; subject 2 has no data at all.
	p := newSubjectPaths(cfg, group.Name, 1)
	writeTestRecording(t, p.sourceEEG, []int{256, 512, 768, 1024})
	writeTestEvents(t, p.sourceEvents, []float64{1, 2, 3, 4})

	cfgPath := filepath.Join(cfg.DataDir, "eegprep.yaml")
	require.NoError(t, config.Save(cfgPath, cfg))

	err := Run(context.Background(), &Options{ConfigPath: cfgPath, Group: "adults"})
	require.Error(t, err)
	require.Contains(t, err.Error(), "1 of 2 subjects failed")

	// The good subject still produced its output.
	require.FileExists(t, p.outEpochs)
}

func TestSubjectPathsLayout(t *testing.T) {
	cfg := config.Default("/data/study")
	p := newSubjectPaths(cfg, "adults", 7)

	require.Equal(t, filepath.Join("/data/study", "sourcedata", "sub-07_task-targets_eeg.bdf"), p.sourceEEG)
	require.Equal(t, filepath.Join("/data/study", "raw", "adults", "sub-07", "eeg", "sub-07_task-targets_eeg.bdf"), p.rawEEG)
	require.Equal(t, filepath.Join("/data/study", "preprocessed", "adults", "sub-07", "sub-07_task-targets_epo.bdf"), p.outEpochs)
}
