// SPDX-License-Identifier: MPL-2.0
/*
 * Copyright (C) 2025 The eegprep Authors.
 *
 * This Source Code Form is subject to the terms of the Mozilla Public
 * License, v. 2.0. If a copy of the MPL was not distributed with this
 * file, You can obtain one at http://mozilla.org/MPL/2.0/.
 */

// Package preproc orchestrates per-subject EEG preprocessing: staging the
// acquired files into the raw layout, reconstructing dropped stimulus
// triggers against the behavioral log, filtering and epoching the
// continuous signal, and writing the aligned event table and epoched data.
package preproc

import (
	"context"
	"errors"
	"fmt"
	"io"
	"math"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/eegtools/eegprep/edf"
	"github.com/eegtools/eegprep/internal/config"
	"github.com/eegtools/eegprep/internal/epoch"
	"github.com/eegtools/eegprep/internal/events"
	"github.com/eegtools/eegprep/internal/logger"
	"github.com/eegtools/eegprep/internal/trigger"
)

// Options controls a preprocessing batch.
type Options struct {
	// ConfigPath specifies the path to the settings YAML file.
	ConfigPath string
	// Group is the participant group to process.
	Group string
	// Subjects lists the subject numbers to process; empty means every
	// subject in the group.
	Subjects []int
	// Overwrite regenerates outputs that already exist.
	Overwrite bool
}

// Run executes the preprocessing batch one subject at a time. A failed
// subject is logged with its violated invariant and the batch continues
// with the next recording.
func Run(ctx context.Context, opts *Options) error {
	ctx = logger.WithName(ctx, "preproc")

	cfg, err := config.Load(opts.ConfigPath)
	if err != nil {
		return fmt.Errorf("load settings: %w", err)
	}
	if opts.Overwrite {
		cfg.Overwrite = true
	}

	groupName := opts.Group
	if groupName == "" {
		groupName = "adults"
	}
	group, err := cfg.Group(groupName)
	if err != nil {
		return err
	}

	subjects := opts.Subjects
	if len(subjects) == 0 {
		for s := 1; s <= group.Subjects; s++ {
			subjects = append(subjects, s)
		}
	}

	logger.InfoKV(ctx, "Starting preprocessing batch",
		"group", group.Name, "eeg_system", group.EEGSystem, "subjects", len(subjects))

	var failed int
	for _, subject := range subjects {
		if err := ctx.Err(); err != nil {
			return err
		}

		if err := RunSubject(ctx, cfg, group, subject); err != nil {
			failed++
			logger.ErrorKV(ctx, "Subject failed", "subject", subject, "error", err)
		}
	}

	if failed > 0 {
		return fmt.Errorf("%d of %d subjects failed", failed, len(subjects))
	}
	return nil
}

// RunSubject preprocesses a single recording. Every fatal condition aborts
// this recording only; the error carries the violated invariant for manual
// inspection.
func RunSubject(ctx context.Context, cfg *config.Config, group config.Group, subject int) error {
	ctx = logger.WithName(ctx, fmt.Sprintf("sub-%02d", subject))
	p := newSubjectPaths(cfg, group.Name, subject)

	if !cfg.Overwrite {
		if _, err := os.Stat(p.outEpochs); err == nil {
			logger.InfoKV(ctx, "Output exists, skipping", "path", p.outEpochs)
			return nil
		}
	}

	behavPath, err := p.stageEvents(ctx)
	if err != nil {
		return fmt.Errorf("behavioral file: %w", err)
	}
	eegPath, err := p.stageEEG(ctx)
	if err != nil {
		return fmt.Errorf("eeg file: %w", err)
	}

	f, err := os.Open(eegPath)
	if err != nil {
		return fmt.Errorf("open recording: %w", err)
	}
	defer f.Close()

	r, err := edf.Open(f)
	if err != nil {
		return fmt.Errorf("parse recording: %w", err)
	}
	hdr := r.Header()

	statusIdx, err := hdr.SignalIndex(cfg.StatusChannel)
	if err != nil {
		return fmt.Errorf("status channel: %w", err)
	}
	sfreq := hdr.SampleRate(statusIdx)
	logger.InfoKV(ctx, "Recording loaded",
		"format", hdr.Format.String(), "signals", hdr.SignalCount, "sfreq", sfreq)

	table, err := events.ReadFile(behavPath)
	if err != nil {
		return err
	}

	status, err := readSignal(r, statusIdx)
	if err != nil {
		return fmt.Errorf("read status channel: %w", err)
	}

	candidates := trigger.Detect(status, cfg.TriggerDelta)
	logger.InfoKV(ctx, "Detected triggers", "count", len(candidates), "expected", table.Len())
	if missing := table.Len() - len(candidates); missing > 0 {
		logger.WarnKV(ctx, "Reconstructing missing triggers", "missing", missing)
	}

	rec := &trigger.Reconciler{
		SampleRate: sfreq,
		Tolerance:  cfg.TriggerTolerance,
		MaxMissing: cfg.MaxMissing,
	}
	samples, err := rec.Reconcile(candidates, table.StimOn)
	if err != nil {
		return fmt.Errorf("reconcile triggers: %w", err)
	}

	aligned, err := events.Align(table, samples, sfreq, subject, cfg.StimulusDuration)
	if err != nil {
		return err
	}
	if err := aligned.WriteFile(p.alignedEvents); err != nil {
		return err
	}
	if err := aligned.WriteFile(p.alignedCSV); err != nil {
		return err
	}
	logger.InfoKV(ctx, "Aligned event table written", "path", p.alignedEvents, "events", aligned.Len())

	data, labels, err := readEEGChannels(r, cfg.StatusChannel)
	if err != nil {
		return err
	}
	labels = epoch.RenameBiosemi(labels)

	epoch.AverageReference(data)
	for _, ch := range data {
		epoch.Bandpass(ch, sfreq, cfg.HighPass, cfg.LowPass)
	}

	ep, err := epoch.Extract(data, samples, epoch.Params{
		SampleRate: sfreq,
		Tmin:       cfg.EpochTmin,
		Tmax:       cfg.EpochTmax,
		Baseline:   true,
	})
	if err != nil {
		return fmt.Errorf("epoch recording: %w", err)
	}
	if len(ep.Dropped) > 0 {
		logger.WarnKV(ctx, "Epoch windows outside recording dropped", "events", ep.Dropped)
	}
	if len(ep.Data) == 0 {
		return errors.New("no epochs extracted")
	}

	if cfg.Downsample > 0 && cfg.Downsample < sfreq {
		factor := int(math.Round(sfreq / cfg.Downsample))
		ep.Decimate(factor)
		logger.InfoKV(ctx, "Resampled epochs", "sfreq", ep.SampleRate)
	}

	if err := writeEpochs(p.outEpochs, hdr, labels, ep); err != nil {
		return err
	}
	logger.InfoKV(ctx, "Done", "path", p.outEpochs, "epochs", len(ep.Data), "samples", ep.Samples())
	return nil
}

// readSignal reads the full continuous data of one signal.
func readSignal(r *edf.Reader, index int) ([]float64, error) {
	hdr := r.Header()
	sr, err := r.Signal(index)
	if err != nil {
		return nil, err
	}

	data := make([]float64, hdr.DataRecords*hdr.Signals[index].SamplesPerRecord)
	if _, err := sr.Read(data); err != nil && !errors.Is(err, io.EOF) {
		return nil, err
	}
	return data, nil
}

// readEEGChannels reads every EEG signal, skipping the trigger line and the
// external electrode channels.
func readEEGChannels(r *edf.Reader, statusLabel string) ([][]float64, []string, error) {
	hdr := r.Header()

	var (
		data   [][]float64
		labels []string
	)
	for i, sig := range hdr.Signals {
		if sig.Label == statusLabel || strings.HasPrefix(sig.Label, "EXG") {
			continue
		}
		ch, err := readSignal(r, i)
		if err != nil {
			return nil, nil, fmt.Errorf("read channel %s: %w", sig.Label, err)
		}
		data = append(data, ch)
		labels = append(labels, sig.Label)
	}
	if len(data) == 0 {
		return nil, nil, errors.New("recording has no EEG channels")
	}
	return data, labels, nil
}

// writeEpochs stores the epoched data in the source dialect, one data
// record per epoch.
func writeEpochs(path string, src *edf.Header, labels []string, ep *epoch.Epochs) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("create output directory: %w", err)
	}

	pmin, pmax := physicalRange(ep)
	dmin, dmax := -32768, 32767
	if src.Format == edf.FormatBDF {
		dmin, dmax = -8388608, 8388607
	}

	signals := make([]edf.Signal, len(labels))
	for i, label := range labels {
		signals[i] = edf.Signal{
			Label:             label,
			PhysicalDimension: "uV",
			PhysicalMin:       pmin,
			PhysicalMax:       pmax,
			DigitalMin:        dmin,
			DigitalMax:        dmax,
			SamplesPerRecord:  ep.Samples(),
		}
	}

	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create epochs file: %w", err)
	}

	w, err := edf.Create(f, edf.Header{
		Format:             src.Format,
		Version:            src.Version,
		PatientID:          src.PatientID,
		RecordingID:        src.RecordingID + " epoched",
		StartTime:          src.StartTime,
		DataRecordDuration: time.Duration(ep.Duration() * float64(time.Second)),
		SignalCount:        len(signals),
		Signals:            signals,
	})
	if err != nil {
		f.Close()
		return err
	}

	for _, trial := range ep.Data {
		if err := w.WriteRecord(trial); err != nil {
			f.Close()
			return fmt.Errorf("write epoch: %w", err)
		}
	}
	if err := w.Close(); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}

// physicalRange returns a calibration range covering every sample, padded
// so flat data does not collapse the gain to zero.
func physicalRange(ep *epoch.Epochs) (float64, float64) {
	pmin, pmax := math.Inf(1), math.Inf(-1)
	for _, trial := range ep.Data {
		for _, ch := range trial {
			for _, v := range ch {
				pmin = math.Min(pmin, v)
				pmax = math.Max(pmax, v)
			}
		}
	}
	if pmin >= pmax {
		pmin, pmax = pmin-1, pmax+1
	}
	return pmin, pmax
}
