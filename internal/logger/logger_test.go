// SPDX-License-Identifier: MPL-2.0
/*
 * Copyright (C) 2025 The eegprep Authors.
 *
 * This Source Code Form is subject to the terms of the Mozilla Public
 * License, v. 2.0. If a copy of the MPL was not distributed with this
 * file, You can obtain one at http://mozilla.org/MPL/2.0/.
 */

package logger_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zapcore"

	"github.com/eegtools/eegprep/internal/logger"
)

func TestParseLogLevel(t *testing.T) {
	level, ok := logger.ParseLogLevel("DEBUG")
	require.True(t, ok)
	require.Equal(t, zapcore.DebugLevel, level)

	level, ok = logger.ParseLogLevel(" warn ")
	require.True(t, ok)
	require.Equal(t, zapcore.WarnLevel, level)

	level, ok = logger.ParseLogLevel("verbose")
	require.False(t, ok)
	require.Equal(t, zapcore.InfoLevel, level)
}

func TestFromContext(t *testing.T) {
	ctx := context.Background()
	require.NotNil(t, logger.FromContext(ctx))

	named := logger.WithName(ctx, "preproc")
	require.NotNil(t, logger.FromContext(named))
	require.NotSame(t, logger.FromContext(ctx), logger.FromContext(named))
}
