// SPDX-License-Identifier: MPL-2.0
/*
 * Copyright (C) 2025 The eegprep Authors.
 *
 * This Source Code Form is subject to the terms of the Mozilla Public
 * License, v. 2.0. If a copy of the MPL was not distributed with this
 * file, You can obtain one at http://mozilla.org/MPL/2.0/.
 */

package epoch

// BiosemiMontage64 lists the 10-20 electrode names of the standard BioSemi
// 64-channel cap, in the A1..A32, B1..B32 amplifier order the hardware
// writes them.
var BiosemiMontage64 = []string{
	"Fp1", "AF7", "AF3", "F1", "F3", "F5", "F7", "FT7",
	"FC5", "FC3", "FC1", "C1", "C3", "C5", "T7", "TP7",
	"CP5", "CP3", "CP1", "P1", "P3", "P5", "P7", "P9",
	"PO7", "PO3", "O1", "Iz", "Oz", "POz", "Pz", "CPz",
	"Fpz", "Fp2", "AF8", "AF4", "AFz", "Fz", "F2", "F4",
	"F6", "F8", "FT8", "FC6", "FC4", "FC2", "FCz", "Cz",
	"C2", "C4", "C6", "T8", "TP8", "CP6", "CP4", "CP2",
	"P2", "P4", "P6", "P8", "P10", "PO8", "PO4", "O2",
}

// RenameBiosemi maps amplifier labels (A1..A32, B1..B32) to their 10-20
// names. Labels are returned unchanged when the channel count does not
// match the 64-channel cap, so reduced test montages pass through.
func RenameBiosemi(labels []string) []string {
	if len(labels) != len(BiosemiMontage64) {
		return labels
	}

	renamed := make([]string, len(labels))
	copy(renamed, BiosemiMontage64)
	return renamed
}
