// SPDX-License-Identifier: MPL-2.0
/*
 * Copyright (C) 2025 The eegprep Authors.
 *
 * This Source Code Form is subject to the terms of the Mozilla Public
 * License, v. 2.0. If a copy of the MPL was not distributed with this
 * file, You can obtain one at http://mozilla.org/MPL/2.0/.
 */

package edf

import (
	"fmt"
	"time"
)

// Format identifies the on-disk dialect of a recording.
type Format int

const (
	// FormatEDF is the 16-bit EDF/EDF+ format.
	FormatEDF Format = iota
	// FormatBDF is the 24-bit BioSemi BDF format.
	FormatBDF
)

// SampleSize returns the number of bytes used to store a single sample.
func (f Format) SampleSize() int {
	if f == FormatBDF {
		return 3
	}
	return 2
}

func (f Format) String() string {
	if f == FormatBDF {
		return "BDF"
	}
	return "EDF"
}

type Version string

const (
	// Version0 represents the version of the EDF/EDF+ standard.
	Version0 Version = "0"
	// VersionBDF is the version field of BioSemi BDF files (0xFF "BIOSEMI").
	VersionBDF Version = "\xffBIOSEMI"
)

// Header represents the EDF/EDF+/BDF file header.
type Header struct {
	Format             Format        // On-disk dialect (EDF or BDF)
	Version            Version       // Version field of the standard
	PatientID          string        // Identification of the patient
	RecordingID        string        // Identification of the recording session
	StartTime          time.Time     // Start date of the recording
	HeaderBytes        int           // Number of bytes in the header
	DataRecordDuration time.Duration // Duration of a single data record
	DataRecords        int           // Number of data records, -1 if unknown
	SignalCount        int           // Number of signals in each data record
	Signals            []Signal      // Details of each signal
}

// SampleRate returns the sampling rate in Hz of the given signal.
func (h *Header) SampleRate(signalIndex int) float64 {
	if signalIndex < 0 || signalIndex >= len(h.Signals) {
		return 0
	}
	return float64(h.Signals[signalIndex].SamplesPerRecord) / h.DataRecordDuration.Seconds()
}

// SignalIndex returns the index of the first signal with the given label.
func (h *Header) SignalIndex(label string) (int, error) {
	for i, sig := range h.Signals {
		if sig.Label == label {
			return i, nil
		}
	}
	return 0, fmt.Errorf("no signal labelled %q", label)
}

// Signal represents the characteristics of each signal in the file.
type Signal struct {
	Label             string  // Label of the signal (e.g., EEG Fpz-Cz, Status)
	TransducerType    string  // Type of transducer used
	PhysicalDimension string  // Physical dimension (e.g., uV, mV)
	PhysicalMin       float64 // Minimum physical value
	PhysicalMax       float64 // Maximum physical value
	DigitalMin        int     // Minimum digital value (16-bit for EDF, 24-bit for BDF)
	DigitalMax        int     // Maximum digital value
	Prefiltering      string  // Pre-filtering information
	SamplesPerRecord  int     // Number of samples in each data record for this signal
	Reserved          string  // Reserved for future use
}
