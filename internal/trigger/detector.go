// SPDX-License-Identifier: MPL-2.0
/*
 * Copyright (C) 2025 The eegprep Authors.
 *
 * This Source Code Form is subject to the terms of the Mozilla Public
 * License, v. 2.0. If a copy of the MPL was not distributed with this
 * file, You can obtain one at http://mozilla.org/MPL/2.0/.
 */

// Package trigger recovers stimulus-onset events from the hardware trigger
// line of an EEG recording. Detection finds the rising edges the acquisition
// system wrote to the Status channel; reconciliation repairs the edges the
// hardware dropped by comparing their spacing against the behavioral event
// log, refusing to guess when the damage is too large to repair reliably.
package trigger

import "gonum.org/v1/gonum/floats"

// DefaultDelta is the discrete-difference value a BioSemi Status line jumps
// by when a stimulus trigger fires in this study's coding scheme.
const DefaultDelta = 13824

// Detect locates stimulus onsets in a marker channel. It returns the sample
// indices i where signal[i+1]-signal[i] equals delta, in ascending order.
// An empty result is not an error; shortfalls are reported by the
// Reconciler.
func Detect(signal []float64, delta float64) []int {
	if len(signal) < 2 {
		return nil
	}

	diff := make([]float64, len(signal)-1)
	floats.SubTo(diff, signal[1:], signal[:len(signal)-1])

	var onsets []int
	for i, d := range diff {
		if d == delta {
			onsets = append(onsets, i)
		}
	}
	return onsets
}
