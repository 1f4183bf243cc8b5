// SPDX-License-Identifier: MPL-2.0
/*
 * Copyright (C) 2025 The eegprep Authors.
 *
 * This Source Code Form is subject to the terms of the Mozilla Public
 * License, v. 2.0. If a copy of the MPL was not distributed with this
 * file, You can obtain one at http://mozilla.org/MPL/2.0/.
 */

package trigger

import (
	"math"

	"gonum.org/v1/gonum/floats"
)

const (
	// DefaultTolerance is the inter-event gap excess, in seconds, that
	// signals a dropped trigger. It also bounds the final consistency
	// check.
	DefaultTolerance = 0.11

	// DefaultMaxMissing is the number of missing triggers at which repair
	// is refused.
	DefaultMaxMissing = 100
)

// Reconciler repairs dropped hardware triggers against the behavioral event
// log. It is a pure computation over in-memory sequences: independent
// recordings can be reconciled concurrently by the caller.
type Reconciler struct {
	SampleRate float64 // Hz
	Tolerance  float64 // seconds
	MaxMissing int
}

// NewReconciler returns a Reconciler for the given sampling rate with the
// study's thresholds.
func NewReconciler(sampleRate float64) *Reconciler {
	return &Reconciler{
		SampleRate: sampleRate,
		Tolerance:  DefaultTolerance,
		MaxMissing: DefaultMaxMissing,
	}
}

// Reconcile returns exactly one trigger sample index per expected trial,
// synthesizing entries where the hardware dropped a trigger. expected holds
// the behavioral onset times in seconds, in presentation order. When no
// triggers are missing the candidates are returned as-is.
//
// The repair assumes drops occur in isolation: a single synthesized onset
// per over-threshold gap. Runs of isolated drops are still repaired because
// the walk re-evaluates the same candidate after each synthesis. Failure
// modes are fatal for the recording and carry their diagnostics; no retry
// or partial result is produced.
func (r *Reconciler) Reconcile(candidates []int, expected []float64) ([]int, error) {
	missing := len(expected) - len(candidates)
	if missing >= r.MaxMissing {
		return nil, &TooManyMissingError{
			Expected: len(expected),
			Detected: len(candidates),
			Limit:    r.MaxMissing,
		}
	}

	final := candidates
	if missing > 0 && len(candidates) > 0 {
		final = r.repair(candidates, expected)
	}

	if len(final) != len(expected) {
		return nil, &CountError{Expected: len(expected), Got: len(final)}
	}

	onsets := make([]float64, len(final))
	for i, s := range final {
		onsets[i] = float64(s) / r.SampleRate
	}
	if err := r.Validate(onsets, expected); err != nil {
		return nil, err
	}

	return final, nil
}

// repair walks the detected and expected onset sequences in lock step,
// synthesizing a trigger whenever the recorded gap exceeds the behavioral
// gap by more than the tolerance. The output is built append-only; detected
// candidates are never shifted in place.
func (r *Reconciler) repair(candidates []int, expected []float64) []int {
	samples := make([]int, 0, len(expected))
	times := make([]float64, 0, len(expected))
	samples = append(samples, candidates[0])
	times = append(times, float64(candidates[0])/r.SampleRate)

	for i := 1; i < len(candidates); {
		j := len(times)
		if j >= len(expected) {
			// No expected slots left; keep the surplus candidates and
			// let the count check report the overflow.
			samples = append(samples, candidates[i])
			times = append(times, float64(candidates[i])/r.SampleRate)
			i++
			continue
		}

		da := float64(candidates[i])/r.SampleRate - times[j-1]
		db := expected[j] - expected[j-1]
		if da-db > r.Tolerance {
			// One trigger dropped immediately before this position.
			t := times[j-1] + db
			samples = append(samples, int(math.Round(r.SampleRate*t)))
			times = append(times, t)
			continue
		}

		samples = append(samples, candidates[i])
		times = append(times, float64(candidates[i])/r.SampleRate)
		i++
	}

	return samples
}

// Validate checks that consecutive onset gaps track the behavioral log.
// The check is one-sided: a gap may run short (a trigger firing early) but
// never exceed its expected value by the tolerance or more.
func (r *Reconciler) Validate(onsets, expected []float64) error {
	if len(onsets) < 2 || len(expected) < len(onsets) {
		return nil
	}

	n := len(onsets) - 1
	dev := make([]float64, n)
	exp := make([]float64, n)
	floats.SubTo(dev, onsets[1:], onsets[:n])
	floats.SubTo(exp, expected[1:len(onsets)], expected[:n])
	floats.Sub(dev, exp)

	j := floats.MaxIdx(dev)
	if dev[j] >= r.Tolerance {
		return &ToleranceError{Index: j + 1, Deviation: dev[j], Tolerance: r.Tolerance}
	}
	return nil
}
