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
	"strconv"
	"strings"
	"time"
)

// Reader reads EDF/EDF+ and BioSemi BDF files.
type Reader struct {
	r   io.ReadSeeker
	hdr *Header
}

// Open opens an EDF/EDF+/BDF file for reading. The dialect is detected from
// the 8-byte version field: BDF files start with 0xFF followed by "BIOSEMI".
func Open(r io.ReadSeeker) (*Reader, error) {
	reader := bufio.NewReader(r)

	b := make([]byte, 256)
	if _, err := io.ReadFull(reader, b); err != nil {
		return nil, fmt.Errorf("error reading header: %w", err)
	}

	// Parse fields based on the EDF/BDF specifications
	hdr := &Header{}
	if b[0] == 0xFF && strings.TrimSpace(string(b[1:8])) == "BIOSEMI" {
		hdr.Format = FormatBDF
		hdr.Version = VersionBDF
	} else {
		hdr.Format = FormatEDF
		hdr.Version = Version(strings.TrimSpace(string(b[0:8])))
	}
	hdr.PatientID = strings.TrimSpace(string(b[8:88]))
	hdr.RecordingID = strings.TrimSpace(string(b[88:168]))
	dateStr := strings.TrimSpace(string(b[168:176]))
	timeStr := strings.TrimSpace(string(b[176:184]))

	// Parse start date and time
	var err error
	startDate, err := time.Parse("02.01.06", dateStr)
	if err != nil {
		return nil, fmt.Errorf("error parsing start date: %w", err)
	}
	startTime, err := time.Parse("15.04.05", timeStr)
	if err != nil {
		return nil, fmt.Errorf("error parsing start time: %w", err)
	}
	hdr.StartTime = time.Date(startDate.Year(), startDate.Month(), startDate.Day(),
		startTime.Hour(), startTime.Minute(), startTime.Second(), 0, time.UTC)

	// Continue reading header to get number of data records, duration of data records, etc.
	headerBytes, err := strconv.Atoi(strings.TrimSpace(string(b[184:192])))
	if err != nil {
		return nil, fmt.Errorf("error parsing header bytes: %w", err)
	}
	hdr.HeaderBytes = headerBytes

	numDataRecords, err := strconv.Atoi(strings.TrimSpace(string(b[236:244])))
	if err != nil {
		return nil, fmt.Errorf("error parsing number of data records: %w", err)
	}
	hdr.DataRecords = numDataRecords

	hdr.DataRecordDuration, err = time.ParseDuration(fmt.Sprintf("%ss", strings.TrimSpace(string(b[244:252]))))
	if err != nil {
		return nil, fmt.Errorf("error parsing data record duration: %w", err)
	}

	signalCount, err := strconv.Atoi(strings.TrimSpace(string(b[252:256])))
	if err != nil {
		return nil, fmt.Errorf("error parsing signal count: %w", err)
	}
	hdr.SignalCount = signalCount

	// Read the per-signal header fields, each stored as one fixed-width
	// ASCII block per signal.
	hdr.Signals = make([]Signal, signalCount)

	readField := func(size int, set func(i int, s string)) error {
		buf := make([]byte, size)
		for i := 0; i < signalCount; i++ {
			if _, err := io.ReadFull(reader, buf); err != nil {
				return fmt.Errorf("error reading signal headers: %w", err)
			}
			set(i, strings.TrimSpace(string(buf)))
		}
		return nil
	}

	fields := []struct {
		size int
		set  func(i int, s string)
	}{
		{16, func(i int, s string) { hdr.Signals[i].Label = s }},
		{80, func(i int, s string) { hdr.Signals[i].TransducerType = s }},
		{8, func(i int, s string) { hdr.Signals[i].PhysicalDimension = s }},
		{8, func(i int, s string) { hdr.Signals[i].PhysicalMin = parseFloat(s) }},
		{8, func(i int, s string) { hdr.Signals[i].PhysicalMax = parseFloat(s) }},
		{8, func(i int, s string) { hdr.Signals[i].DigitalMin = parseInt(s) }},
		{8, func(i int, s string) { hdr.Signals[i].DigitalMax = parseInt(s) }},
		{80, func(i int, s string) { hdr.Signals[i].Prefiltering = s }},
		{8, func(i int, s string) { hdr.Signals[i].SamplesPerRecord = parseInt(s) }},
		{32, func(i int, s string) { hdr.Signals[i].Reserved = s }},
	}
	for _, f := range fields {
		if err := readField(f.size, f.set); err != nil {
			return nil, err
		}
	}

	return &Reader{
		r:   r,
		hdr: hdr,
	}, nil
}

// Header returns the parsed file header.
func (er *Reader) Header() *Header {
	return er.hdr
}

// SignalReader reads continuous signal data from an EDF/BDF file.
type SignalReader struct {
	r                io.ReadSeeker
	hdr              *Header
	signalIndex      int // Index of the signal to read
	currentRecord    int // Current record being processed
	currentSample    int // Current sample in the record
	recordSize       int // Total size of one data record
	signalOffset     int // Byte offset of the signal in a record
	samplesPerRecord int // Number of samples per record for the signal
}

// Signal creates a new SignalReader for a specified signal index.
func (er *Reader) Signal(signalIndex int) (*SignalReader, error) {
	if signalIndex < 0 || signalIndex >= len(er.hdr.Signals) {
		return nil, fmt.Errorf("signal index out of range")
	}

	sampleSize := er.hdr.Format.SampleSize()
	signal := er.hdr.Signals[signalIndex]
	recordSize := 0
	signalOffset := 0
	for i, sig := range er.hdr.Signals {
		if i < signalIndex {
			signalOffset += sig.SamplesPerRecord * sampleSize
		}
		recordSize += sig.SamplesPerRecord * sampleSize
	}

	return &SignalReader{
		r:                er.r,
		hdr:              er.hdr,
		signalIndex:      signalIndex,
		recordSize:       recordSize,
		signalOffset:     signalOffset,
		samplesPerRecord: signal.SamplesPerRecord,
	}, nil
}

// SignalByLabel creates a new SignalReader for the first signal with the
// given label.
func (er *Reader) SignalByLabel(label string) (*SignalReader, error) {
	idx, err := er.hdr.SignalIndex(label)
	if err != nil {
		return nil, err
	}
	return er.Signal(idx)
}

// Read fills the provided float64 slice with the physical values from the signal.
func (sr *SignalReader) Read(data []float64) (int, error) {
	sampleSize := sr.hdr.Format.SampleSize()
	buf := make([]byte, sampleSize)

	n := 0
	for n < len(data) {
		if sr.currentRecord >= sr.hdr.DataRecords {
			return n, io.EOF // End of data records
		}

		// Calculate position to read the digital sample from
		pos := int64(sr.hdr.HeaderBytes) + int64(sr.currentRecord)*int64(sr.recordSize) + int64(sr.signalOffset) + int64(sr.currentSample*sampleSize)
		if _, err := sr.r.Seek(pos, io.SeekStart); err != nil {
			return n, fmt.Errorf("error seeking to position: %w", err)
		}

		// Read the digital sample
		if _, err := io.ReadFull(sr.r, buf); err != nil {
			return n, fmt.Errorf("error reading sample data: %w", err)
		}
		digitalValue := decodeDigital(buf, sr.hdr.Format)
		signal := sr.hdr.Signals[sr.signalIndex]
		data[n] = convertDigitalToPhysical(digitalValue, signal.DigitalMin, signal.DigitalMax, signal.PhysicalMin, signal.PhysicalMax)

		n++

		// Move to the next sample
		sr.currentSample++
		if sr.currentSample >= sr.samplesPerRecord {
			sr.currentSample = 0
			sr.currentRecord++
		}
	}

	return n, nil
}

// decodeDigital decodes one little-endian sample: 16-bit for EDF, 24-bit
// sign-extended for BDF.
func decodeDigital(buf []byte, format Format) int {
	if format == FormatBDF {
		v := int32(buf[0]) | int32(buf[1])<<8 | int32(buf[2])<<16
		if v&0x800000 != 0 {
			v -= 1 << 24
		}
		return int(v)
	}
	return int(int16(binary.LittleEndian.Uint16(buf)))
}

// convertDigitalToPhysical converts a digital value from the data record to a physical value using the calibration factors.
func convertDigitalToPhysical(digital int, dmin, dmax int, pmin, pmax float64) float64 {
	if dmax == dmin {
		return 0 // Avoid division by zero
	}
	return pmin + (float64(digital)-float64(dmin))*(pmax-pmin)/float64(dmax-dmin)
}

func parseFloat(s string) float64 {
	f, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0.0
	}
	return f
}

func parseInt(s string) int {
	i, err := strconv.Atoi(s)
	if err != nil {
		return 0
	}
	return i
}
