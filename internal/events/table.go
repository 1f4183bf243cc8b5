// SPDX-License-Identifier: MPL-2.0
/*
 * Copyright (C) 2025 The eegprep Authors.
 *
 * This Source Code Form is subject to the terms of the Mozilla Public
 * License, v. 2.0. If a copy of the MPL was not distributed with this
 * file, You can obtain one at http://mozilla.org/MPL/2.0/.
 */

// Package events handles the behavioral event tables of a recording
// session: the expected onsets logged by the presentation software and the
// aligned table produced once the hardware triggers have been reconciled.
package events

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"
)

// StimOnColumn is the required column carrying the expected stimulus-onset
// time in seconds.
const StimOnColumn = "time_stimon"

// ErrNoStimOnColumn indicates a behavioral file without the expected-onset
// column.
var ErrNoStimOnColumn = errors.New("behavioral table has no " + StimOnColumn + " column")

// Table is a behavioral event log in presentation order: row i corresponds
// to trial i. Beyond the parsed onset column the cells are kept verbatim so
// condition labels and trial identifiers survive into the aligned output.
type Table struct {
	Columns []string   // column names in file order
	Records [][]string // raw cell values, one row per trial
	StimOn  []float64  // parsed time_stimon values, seconds
}

// Len returns the number of trials.
func (t *Table) Len() int {
	return len(t.Records)
}

// ReadTable parses a behavioral event table from r using the given field
// separator.
func ReadTable(r io.Reader, comma rune) (*Table, error) {
	cr := csv.NewReader(r)
	cr.Comma = comma
	cr.TrimLeadingSpace = true

	rows, err := cr.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("read behavioral table: %w", err)
	}
	if len(rows) == 0 {
		return nil, errors.New("behavioral table is empty")
	}

	header := rows[0]
	stimOnIdx := -1
	for i, name := range header {
		if strings.TrimSpace(name) == StimOnColumn {
			stimOnIdx = i
			break
		}
	}
	if stimOnIdx < 0 {
		return nil, ErrNoStimOnColumn
	}

	t := &Table{
		Columns: header,
		Records: rows[1:],
		StimOn:  make([]float64, len(rows)-1),
	}
	for i, rec := range t.Records {
		v, err := strconv.ParseFloat(strings.TrimSpace(rec[stimOnIdx]), 64)
		if err != nil {
			return nil, fmt.Errorf("line %d: invalid %s value %q: %w", i+2, StimOnColumn, rec[stimOnIdx], err)
		}
		t.StimOn[i] = v
	}

	return t, nil
}

// ReadFile parses a behavioral event table from path, choosing the field
// separator from the extension (.tsv is tab-separated, anything else
// comma-separated).
func ReadFile(path string) (*Table, error) {
	f, err := os.Open(filepath.Clean(path))
	if err != nil {
		return nil, fmt.Errorf("open behavioral table: %w", err)
	}
	defer f.Close()

	return ReadTable(f, SeparatorFor(path))
}

// SeparatorFor returns the field separator implied by a file extension.
func SeparatorFor(path string) rune {
	if strings.EqualFold(filepath.Ext(path), ".tsv") {
		return '\t'
	}
	return ','
}
