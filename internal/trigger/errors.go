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
	"errors"
	"fmt"
)

var (
	// ErrTooManyEvents indicates more reconciled triggers than behavioral
	// trials.
	ErrTooManyEvents = errors.New("found too many events")
	// ErrNotEnoughEvents indicates fewer reconciled triggers than
	// behavioral trials.
	ErrNotEnoughEvents = errors.New("found not enough events")
)

// TooManyMissingError reports a recording missing so many triggers that
// heuristic repair is not trustworthy. The recording is structurally broken
// rather than suffering a handful of drops.
type TooManyMissingError struct {
	Expected int // trials in the behavioral event table
	Detected int // candidate triggers found in the marker channel
	Limit    int // configured repair limit
}

func (e *TooManyMissingError) Error() string {
	return fmt.Sprintf("too many missing triggers: %d of %d expected triggers missing, repair limit is %d",
		e.Expected-e.Detected, e.Expected, e.Limit)
}

// CountError reports a reconciled trigger count that does not match the
// behavioral event table. It unwraps to ErrTooManyEvents or
// ErrNotEnoughEvents.
type CountError struct {
	Expected int
	Got      int
}

func (e *CountError) Error() string {
	return fmt.Sprintf("%v: %d triggers for %d trials", e.Unwrap(), e.Got, e.Expected)
}

func (e *CountError) Unwrap() error {
	if e.Got > e.Expected {
		return ErrTooManyEvents
	}
	return ErrNotEnoughEvents
}

// ToleranceError reports aligned onsets whose spacing deviates from the
// behavioral log by at least the tolerance. Index is the consecutive pair
// with the largest deviation.
type ToleranceError struct {
	Index     int
	Deviation float64 // observed minus expected gap, seconds
	Tolerance float64
}

func (e *ToleranceError) Error() string {
	return fmt.Sprintf("event times do not match: gap before event %d deviates by %.3fs (tolerance %.3fs)",
		e.Index, e.Deviation, e.Tolerance)
}
