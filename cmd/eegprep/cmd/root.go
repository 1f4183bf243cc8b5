// SPDX-License-Identifier: MPL-2.0
/*
 * Copyright (C) 2025 The eegprep Authors.
 *
 * This Source Code Form is subject to the terms of the Mozilla Public
 * License, v. 2.0. If a copy of the MPL was not distributed with this
 * file, You can obtain one at http://mozilla.org/MPL/2.0/.
 */

package cmd

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/eegtools/eegprep/internal/config"
	"github.com/eegtools/eegprep/internal/logger"
	"github.com/eegtools/eegprep/internal/preproc"
	"github.com/eegtools/eegprep/internal/version"
)

var (
	// configPath to the configuration YAML file.
	configPath string
	// logLevel for the whole run.
	logLevel string
	// group is the participant group to process.
	group string
	// subjects to process; empty means all subjects in the group.
	subjects []int
	// overwrite regenerates outputs that already exist.
	overwrite bool

	// rootCmd represents the base command of the preprocessing toolkit.
	rootCmd = &cobra.Command{
		Use:   "eegprep",
		Short: "Preprocess EEG recordings into analysis-ready epoched data.",
		PersistentPreRun: func(_ *cobra.Command, _ []string) {
			if level, ok := logger.ParseLogLevel(logLevel); ok {
				logger.SetLevel(level)
			}
		},
	}

	// preprocessCmd runs the batch preprocessing pipeline.
	preprocessCmd = &cobra.Command{
		Use:   "preprocess",
		Short: "Reconstruct triggers, align events and epoch raw recordings.",
		Long: `Runs the preprocessing pipeline for one participant group.

For each subject the raw recording and behavioral event table are staged
into the raw data layout, stimulus triggers are detected on the hardware
status line and reconciled against the behavioral log (reconstructing
dropped triggers), and the continuous signal is referenced, filtered and
epoched around the aligned onsets. A failed subject is logged and the
batch continues with the next recording.`,
		Args: cobra.NoArgs,
		RunE: func(_ *cobra.Command, _ []string) error {
			// Setup graceful shutdown handling.
			ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGTERM, syscall.SIGINT)
			defer stop()

			options := &preproc.Options{
				ConfigPath: configPath,
				Group:      group,
				Subjects:   subjects,
				Overwrite:  overwrite,
			}

			return preproc.Run(ctx, options)
		},
	}
)

// Execute runs the eegprep CLI and exits with non-zero status on error.
func Execute() {
	version.AttachCobraVersionCommand(rootCmd)

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

//nolint:gochecknoinits // Required by Cobra CLI framework architecture.
func init() {
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "info", "log level (debug, info, warn, error)")

	preprocessCmd.Flags().StringVarP(&configPath, "config", "c", config.DefaultConfigFilename, "path to configuration file")
	preprocessCmd.Flags().StringVarP(&group, "group", "g", "adults", "participant group to process")
	preprocessCmd.Flags().IntSliceVarP(&subjects, "subjects", "s", nil, "subject numbers to process (default all in group)")
	preprocessCmd.Flags().BoolVar(&overwrite, "overwrite", false, "regenerate outputs that already exist")

	rootCmd.AddCommand(preprocessCmd)
}
