// SPDX-License-Identifier: MPL-2.0
/*
 * Copyright (C) 2025 The eegprep Authors.
 *
 * This Source Code Form is subject to the terms of the Mozilla Public
 * License, v. 2.0. If a copy of the MPL was not distributed with this
 * file, You can obtain one at http://mozilla.org/MPL/2.0/.
 */

package main

import "github.com/eegtools/eegprep/cmd/eegprep/cmd"

func main() {
	cmd.Execute()
}
