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
	"os"
	"path/filepath"

	"github.com/eegtools/eegprep/internal/config"
	"github.com/eegtools/eegprep/internal/logger"
)

// subjectPaths resolves the BIDS-style layout for one subject. Freshly
// acquired files land flat in sourcedata and are staged into the raw tree
// on first use.
type subjectPaths struct {
	sourceEEG    string
	sourceEvents string

	rawEEG    string
	rawEvents string // extension varies; resolved by stageEvents

	outDir        string
	outEpochs     string
	alignedEvents string
	alignedCSV    string
}

func newSubjectPaths(cfg *config.Config, group string, subject int) subjectPaths {
	sub := fmt.Sprintf("sub-%02d", subject)
	rawDir := filepath.Join(cfg.RawDir, group, sub, "eeg")
	outDir := filepath.Join(cfg.PreprocDir, group, sub)

	return subjectPaths{
		sourceEEG:    filepath.Join(cfg.DataDir, "sourcedata", sub+"_task-targets_eeg.bdf"),
		sourceEvents: filepath.Join(cfg.DataDir, "sourcedata", sub+"_task-targets_events.csv"),

		rawEEG:    filepath.Join(rawDir, sub+"_task-targets_eeg.bdf"),
		rawEvents: filepath.Join(rawDir, sub+"_task-targets_events"),

		outDir:        outDir,
		outEpochs:     filepath.Join(outDir, sub+"_task-targets_epo.bdf"),
		alignedEvents: filepath.Join(outDir, sub+"_task-targets_desc-aligned_events.tsv"),
		alignedCSV:    filepath.Join(outDir, sub+"_task-targets_desc-aligned_events.csv"),
	}
}

// stage makes sure a file is present at raw, moving it from source when it
// only exists in sourcedata. Returns the path to use.
func stage(ctx context.Context, raw, source string) (string, error) {
	if _, err := os.Stat(raw); err == nil {
		return raw, nil
	}

	if _, err := os.Stat(source); err != nil {
		return "", fmt.Errorf("file not found in raw (%s) or sourcedata (%s)", raw, source)
	}

	if err := os.MkdirAll(filepath.Dir(raw), 0o755); err != nil {
		return "", fmt.Errorf("create raw directory: %w", err)
	}
	if err := os.Rename(source, raw); err != nil {
		return "", fmt.Errorf("move %s into raw layout: %w", source, err)
	}

	logger.InfoKV(ctx, "Staged file from sourcedata", "from", source, "to", raw)
	return raw, nil
}

// stageEvents locates the behavioral file, preferring a table already in
// the raw tree (tsv or csv) before staging the sourcedata csv.
func (p subjectPaths) stageEvents(ctx context.Context) (string, error) {
	for _, ext := range []string{".tsv", ".csv"} {
		if _, err := os.Stat(p.rawEvents + ext); err == nil {
			return p.rawEvents + ext, nil
		}
	}
	return stage(ctx, p.rawEvents+".csv", p.sourceEvents)
}

// stageEEG locates the EEG recording, staging it from sourcedata if needed.
func (p subjectPaths) stageEEG(ctx context.Context) (string, error) {
	return stage(ctx, p.rawEEG, p.sourceEEG)
}
