// SPDX-License-Identifier: MPL-2.0
/*
 * Copyright (C) 2025 The eegprep Authors.
 *
 * This Source Code Form is subject to the terms of the Mozilla Public
 * License, v. 2.0. If a copy of the MPL was not distributed with this
 * file, You can obtain one at http://mozilla.org/MPL/2.0/.
 */

// Package epoch turns continuous multi-channel EEG into trial-windowed
// data: common-average referencing, zero-phase band-pass filtering, window
// extraction around stimulus onsets with baseline correction, and
// decimation.
package epoch

import (
	"errors"
	"fmt"
	"math"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"
)

// Params controls epoch extraction.
type Params struct {
	SampleRate float64
	Tmin       float64 // window start relative to onset, seconds (negative)
	Tmax       float64 // window end relative to onset, seconds
	Baseline   bool    // subtract the mean of [Tmin, 0) per channel
}

// Epochs holds trial-windowed data indexed [trial][channel][sample].
type Epochs struct {
	Data       [][][]float64
	Dropped    []int // event numbers whose window fell outside the recording
	SampleRate float64
	Tmin       float64
}

// Samples returns the number of samples per epoch, or zero when every
// window was dropped.
func (e *Epochs) Samples() int {
	if len(e.Data) == 0 || len(e.Data[0]) == 0 {
		return 0
	}
	return len(e.Data[0][0])
}

// Duration returns the epoch length in seconds.
func (e *Epochs) Duration() float64 {
	return float64(e.Samples()) / e.SampleRate
}

// Extract slices a fixed window around each onset sample. data is indexed
// [channel][sample] and all channels must be the same length. Onsets whose
// window runs past either end of the recording are dropped and reported in
// Dropped rather than failing the whole recording.
func Extract(data [][]float64, onsets []int, p Params) (*Epochs, error) {
	if len(data) == 0 {
		return nil, errors.New("no channels to epoch")
	}
	if p.Tmax <= p.Tmin {
		return nil, fmt.Errorf("invalid epoch window [%g, %g]", p.Tmin, p.Tmax)
	}

	nsamples := len(data[0])
	offset := int(math.Round(p.Tmin * p.SampleRate))
	length := int(math.Round((p.Tmax-p.Tmin)*p.SampleRate)) + 1
	baselineLen := 0
	if p.Baseline && p.Tmin < 0 {
		baselineLen = -offset
	}

	e := &Epochs{
		SampleRate: p.SampleRate,
		Tmin:       p.Tmin,
	}
	for evt, onset := range onsets {
		start := onset + offset
		if start < 0 || start+length > nsamples {
			e.Dropped = append(e.Dropped, evt)
			continue
		}

		trial := make([][]float64, len(data))
		for ch := range data {
			seg := make([]float64, length)
			copy(seg, data[ch][start:start+length])
			if baselineLen > 0 {
				floats.AddConst(-stat.Mean(seg[:baselineLen], nil), seg)
			}
			trial[ch] = seg
		}
		e.Data = append(e.Data, trial)
	}

	return e, nil
}

// Decimate reduces the sampling rate by an integer factor, replacing each
// group of factor samples with its mean. A trailing partial group is
// discarded.
func (e *Epochs) Decimate(factor int) {
	if factor <= 1 {
		return
	}

	for _, trial := range e.Data {
		for ch, seg := range trial {
			n := len(seg) / factor
			out := make([]float64, n)
			for i := 0; i < n; i++ {
				out[i] = stat.Mean(seg[i*factor:(i+1)*factor], nil)
			}
			trial[ch] = out
		}
	}
	e.SampleRate /= float64(factor)
}

// AverageReference re-references every channel to the common average,
// subtracting the across-channel mean at each sample.
func AverageReference(data [][]float64) {
	if len(data) == 0 {
		return
	}

	nchan := float64(len(data))
	for s := range data[0] {
		var sum float64
		for ch := range data {
			sum += data[ch][s]
		}
		mean := sum / nchan
		for ch := range data {
			data[ch][s] -= mean
		}
	}
}
