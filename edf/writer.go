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
	"bufio"
	"encoding/binary"
	"fmt"
	"io"
	"math"
	"strconv"
	"strings"
)

// Writer writes EDF and BDF files.
type Writer struct {
	w           io.WriteSeeker
	hdr         *Header
	dataRecords int // Number of data records written so far.
}

// Create creates a new writer that writes to the given writer. The dialect
// is taken from hdr.Format.
func Create(w io.WriteSeeker, hdr Header) (*Writer, error) {
	hdr.DataRecords = -1 // Unknown number of data records (at this time).

	ew := &Writer{w: w, hdr: &hdr}

	// Write the initial header
	if err := ew.writeHeader(); err != nil {
		return nil, fmt.Errorf("error writing header: %w", err)
	}

	return ew, nil
}

// Close finalizes the file by updating the header with the total number of data records.
func (ew *Writer) Close() error {
	// Finalize the header with the actual number of data records
	ew.hdr.DataRecords = ew.dataRecords
	if err := ew.writeHeader(); err != nil {
		return fmt.Errorf("error writing header: %w", err)
	}

	return nil
}

// WriteRecord writes a single data record to the file.
func (ew *Writer) WriteRecord(signals [][]float64) error {
	if len(signals) != ew.hdr.SignalCount {
		return fmt.Errorf("expected %d signals, got %d", ew.hdr.SignalCount, len(signals))
	}

	var totalSamples int
	for _, signal := range signals {
		totalSamples += len(signal)
	}

	sampleSize := ew.hdr.Format.SampleSize()

	// As recommended by the EDF standard.
	if totalSamples*sampleSize > 61440 {
		return fmt.Errorf("data record too large: %d bytes, max is 61440 bytes", totalSamples*sampleSize)
	}

	writer := bufio.NewWriter(ew.w)

	// Write each signal's data
	for i := 0; i < ew.hdr.SignalCount; i++ {
		signal := ew.hdr.Signals[i]
		for _, sample := range signals[i] {
			digitalValue := convertPhysicalToDigital(sample, signal.PhysicalMin, signal.PhysicalMax, signal.DigitalMin, signal.DigitalMax)
			if err := encodeDigital(writer, digitalValue, ew.hdr.Format); err != nil {
				return err
			}
		}
	}

	// Ensure all data is flushed to the underlying writer
	if err := writer.Flush(); err != nil {
		return err
	}

	ew.dataRecords++
	return nil
}

// encodeDigital writes one little-endian sample: 16-bit for EDF, 24-bit
// for BDF.
func encodeDigital(w *bufio.Writer, digital int, format Format) error {
	if format == FormatBDF {
		_, err := w.Write([]byte{byte(digital), byte(digital >> 8), byte(digital >> 16)})
		return err
	}
	return binary.Write(w, binary.LittleEndian, int16(digital))
}

// writeHeader writes the file header to the underlying writer.
func (ew *Writer) writeHeader() error {
	// Rewind to the beginning of the file.
	_, err := ew.w.Seek(0, io.SeekStart)
	if err != nil {
		return err
	}

	writer := bufio.NewWriter(ew.w)

	// Write the version field. BDF uses a 0xFF byte followed by "BIOSEMI".
	if ew.hdr.Format == FormatBDF {
		if _, err := writer.Write([]byte{0xFF}); err != nil {
			return err
		}
		if _, err := writer.WriteString(fmt.Sprintf("%-7s", "BIOSEMI")); err != nil {
			return err
		}
	} else {
		if _, err := writer.WriteString(fmt.Sprintf("%-8s", Version0)); err != nil {
			return err
		}
	}

	// Write patient and recording IDs
	_, err = writer.WriteString(fmt.Sprintf("%-80s", ew.hdr.PatientID))
	if err != nil {
		return err
	}
	_, err = writer.WriteString(fmt.Sprintf("%-80s", ew.hdr.RecordingID))
	if err != nil {
		return err
	}

	// Write start date and time
	dateStr := ew.hdr.StartTime.Format("02.01.06")
	timeStr := ew.hdr.StartTime.Format("15.04.05")
	_, err = writer.WriteString(fmt.Sprintf("%-8s", dateStr))
	if err != nil {
		return err
	}
	_, err = writer.WriteString(fmt.Sprintf("%-8s", timeStr))
	if err != nil {
		return err
	}

	// Write header bytes, data records, etc.
	ew.hdr.HeaderBytes = 256 + (ew.hdr.SignalCount * 256)
	_, err = writer.WriteString(fmt.Sprintf("%-8d", ew.hdr.HeaderBytes))
	if err != nil {
		return err
	}

	// Write 44 reserved bytes. BDF files mark the 24-bit encoding here.
	reserved := ""
	if ew.hdr.Format == FormatBDF {
		reserved = "24BIT"
	}
	_, err = writer.WriteString(fmt.Sprintf("%-44s", reserved))
	if err != nil {
		return err
	}

	// Write the number of data records.
	_, err = writer.WriteString(fmt.Sprintf("%-8d", ew.hdr.DataRecords))
	if err != nil {
		return err
	}

	// Write data record duration
	_, err = writer.WriteString(formatRecordDuration(ew.hdr.DataRecordDuration.Seconds()))
	if err != nil {
		return err
	}

	// Write signal count
	_, err = writer.WriteString(fmt.Sprintf("%-4d", ew.hdr.SignalCount))
	if err != nil {
		return err
	}

	// Write signal details
	for _, signal := range ew.hdr.Signals {
		_, err = writer.WriteString(fmt.Sprintf("%-16s", signal.Label))
		if err != nil {
			return err
		}
	}

	for _, signal := range ew.hdr.Signals {
		_, err = writer.WriteString(fmt.Sprintf("%-80s", signal.TransducerType))
		if err != nil {
			return err
		}
	}

	for _, signal := range ew.hdr.Signals {
		_, err = writer.WriteString(fmt.Sprintf("%-8s", signal.PhysicalDimension))
		if err != nil {
			return err
		}
	}

	for _, signal := range ew.hdr.Signals {
		_, err = writer.WriteString(formatPhysicalValue(signal.PhysicalMin))
		if err != nil {
			return err
		}
	}

	for _, signal := range ew.hdr.Signals {
		_, err = writer.WriteString(formatPhysicalValue(signal.PhysicalMax))
		if err != nil {
			return err
		}
	}

	for _, signal := range ew.hdr.Signals {
		_, err = writer.WriteString(fmt.Sprintf("%-8d", signal.DigitalMin))
		if err != nil {
			return err
		}
	}

	for _, signal := range ew.hdr.Signals {
		_, err = writer.WriteString(fmt.Sprintf("%-8d", signal.DigitalMax))
		if err != nil {
			return err
		}
	}

	for _, signal := range ew.hdr.Signals {
		_, err = writer.WriteString(fmt.Sprintf("%-80s", signal.Prefiltering))
		if err != nil {
			return err
		}
	}

	for _, signal := range ew.hdr.Signals {
		_, err = writer.WriteString(fmt.Sprintf("%-8d", signal.SamplesPerRecord))
		if err != nil {
			return err
		}
	}

	// Reserved for future use
	for range ew.hdr.Signals {
		_, err = writer.WriteString(fmt.Sprintf("%-32s", ""))
		if err != nil {
			return err
		}
	}

	// Ensure all data is flushed to the underlying writer
	return writer.Flush()
}

// convertPhysicalToDigital converts a physical value to a digital value using the calibration factors.
func convertPhysicalToDigital(physical float64, pmin, pmax float64, dmin, dmax int) int {
	if pmax == pmin {
		return 0 // Avoid division by zero
	}
	digital := ((physical - pmin) * (float64(dmax - dmin)) / (pmax - pmin)) + float64(dmin)
	return int(digital)
}

func formatPhysicalValue(val float64) string {
	// Try with 2 decimal places
	s := fmt.Sprintf("%.2f", val)
	if len(s) > 8 {
		// Fall back to no decimal
		s = fmt.Sprintf("%.0f", val)
	}
	return fmt.Sprintf("%-8s", s)
}

// formatRecordDuration renders a data record duration in seconds into the
// 8-byte ASCII field, keeping fractional durations (epoched files have
// sub-second records).
func formatRecordDuration(seconds float64) string {
	if seconds == math.Trunc(seconds) {
		return fmt.Sprintf("%-8d", int(seconds))
	}
	s := strconv.FormatFloat(seconds, 'f', -1, 64)
	if len(s) > 8 {
		s = strconv.FormatFloat(seconds, 'f', 6, 64)[:8]
		s = strings.TrimRight(s, "0")
	}
	return fmt.Sprintf("%-8s", s)
}
