// SPDX-License-Identifier: MPL-2.0
/*
 * Copyright (C) 2025 The eegprep Authors.
 *
 * This Source Code Form is subject to the terms of the Mozilla Public
 * License, v. 2.0. If a copy of the MPL was not distributed with this
 * file, You can obtain one at http://mozilla.org/MPL/2.0/.
 */

package events

import (
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
)

// Aligned is the behavioral table annotated with the final trigger timing,
// one row per trial. Onset is always OnsetSample divided by the sampling
// rate, so the two columns round-trip exactly.
type Aligned struct {
	Table       *Table
	Onset       []float64 // final onset times, seconds
	OnsetSample []int     // final onset sample indices
	EventNumber []int     // zero-based event numbers
	Duration    float64   // stimulus duration, seconds
	SubjectNr   int
}

// Align attaches reconciled trigger samples to the behavioral table. The
// output has exactly one row per trial; a length mismatch here is a caller
// bug, not a recording defect.
func Align(t *Table, samples []int, sampleRate float64, subject int, duration float64) (*Aligned, error) {
	if len(samples) != t.Len() {
		return nil, fmt.Errorf("aligned table must have one row per trial: %d triggers for %d trials", len(samples), t.Len())
	}

	a := &Aligned{
		Table:       t,
		Onset:       make([]float64, len(samples)),
		OnsetSample: make([]int, len(samples)),
		EventNumber: make([]int, len(samples)),
		Duration:    duration,
		SubjectNr:   subject,
	}
	for i, s := range samples {
		a.Onset[i] = float64(s) / sampleRate
		a.OnsetSample[i] = s
		a.EventNumber[i] = i
	}

	return a, nil
}

// Len returns the number of trials.
func (a *Aligned) Len() int {
	return len(a.OnsetSample)
}

// Write renders the aligned table with the timing columns first, followed
// by every original behavioral column.
func (a *Aligned) Write(w io.Writer, comma rune) error {
	cw := csv.NewWriter(w)
	cw.Comma = comma

	header := append([]string{"onset", "duration", "onsetsample", "eventnumber", "subjectnr"}, a.Table.Columns...)
	if err := cw.Write(header); err != nil {
		return fmt.Errorf("write header: %w", err)
	}

	for i := range a.OnsetSample {
		row := []string{
			strconv.FormatFloat(a.Onset[i], 'g', -1, 64),
			strconv.FormatFloat(a.Duration, 'g', -1, 64),
			strconv.Itoa(a.OnsetSample[i]),
			strconv.Itoa(a.EventNumber[i]),
			strconv.Itoa(a.SubjectNr),
		}
		row = append(row, a.Table.Records[i]...)
		if err := cw.Write(row); err != nil {
			return fmt.Errorf("write row %d: %w", i, err)
		}
	}

	cw.Flush()
	return cw.Error()
}

// WriteFile writes the aligned table to path, choosing the separator from
// the extension as ReadFile does.
func (a *Aligned) WriteFile(path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("create output directory: %w", err)
	}

	f, err := os.Create(filepath.Clean(path))
	if err != nil {
		return fmt.Errorf("create aligned table: %w", err)
	}

	if err := a.Write(f, SeparatorFor(path)); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}
