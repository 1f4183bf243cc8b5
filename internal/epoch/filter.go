// SPDX-License-Identifier: MPL-2.0
/*
 * Copyright (C) 2025 The eegprep Authors.
 *
 * This Source Code Form is subject to the terms of the Mozilla Public
 * License, v. 2.0. If a copy of the MPL was not distributed with this
 * file, You can obtain one at http://mozilla.org/MPL/2.0/.
 */

package epoch

import (
	"math"

	"gonum.org/v1/gonum/floats"
)

// biquad is a second-order IIR section in direct form 1, normalized so
// a0 == 1.
type biquad struct {
	b0, b1, b2 float64
	a1, a2     float64
}

// apply filters x in place, forward only.
func (f biquad) apply(x []float64) {
	var x1, x2, y1, y2 float64
	for i, x0 := range x {
		y0 := f.b0*x0 + f.b1*x1 + f.b2*x2 - f.a1*y1 - f.a2*y2
		x2, x1 = x1, x0
		y2, y1 = y1, y0
		x[i] = y0
	}
}

// filtfilt applies the filter forward and backward so the pass introduces
// no phase shift.
func filtfilt(f biquad, x []float64) {
	f.apply(x)
	floats.Reverse(x)
	f.apply(x)
	floats.Reverse(x)
}

// butterworthQ gives a maximally flat passband for a single section.
const butterworthQ = math.Sqrt2 / 2

func newLowpass(cutoff, sampleRate float64) biquad {
	w0 := 2 * math.Pi * cutoff / sampleRate
	alpha := math.Sin(w0) / (2 * butterworthQ)
	cosw0 := math.Cos(w0)
	a0 := 1 + alpha
	return biquad{
		b0: (1 - cosw0) / 2 / a0,
		b1: (1 - cosw0) / a0,
		b2: (1 - cosw0) / 2 / a0,
		a1: -2 * cosw0 / a0,
		a2: (1 - alpha) / a0,
	}
}

func newHighpass(cutoff, sampleRate float64) biquad {
	w0 := 2 * math.Pi * cutoff / sampleRate
	alpha := math.Sin(w0) / (2 * butterworthQ)
	cosw0 := math.Cos(w0)
	a0 := 1 + alpha
	return biquad{
		b0: (1 + cosw0) / 2 / a0,
		b1: -(1 + cosw0) / a0,
		b2: (1 + cosw0) / 2 / a0,
		a1: -2 * cosw0 / a0,
		a2: (1 - alpha) / a0,
	}
}

// Bandpass applies a zero-phase band-pass to x in place. highpass removes
// slow drifts, lowpass removes high-frequency noise; either cutoff can be
// zero to skip that stage, and a lowpass at or above Nyquist is skipped.
func Bandpass(x []float64, sampleRate, highpass, lowpass float64) {
	if highpass > 0 {
		filtfilt(newHighpass(highpass, sampleRate), x)
	}
	if lowpass > 0 && lowpass < sampleRate/2 {
		filtfilt(newLowpass(lowpass, sampleRate), x)
	}
}
