// SPDX-License-Identifier: AGPL-3.0-or-later

// Package commands wires the stepguard command tree. Every subcommand is a
// thin shell over the internal packages: resolve the target, run the engine,
// render the outcome, translate a blocked verdict into exit code 2.
package commands

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/stepguard/stepguard/internal/logging"
)

// exitBlocked is the process exit code for a BLOCKED outcome. Operational
// errors keep the default code 1.
const exitBlocked = 2

var logger *zap.Logger

// log returns the process logger, falling back to a no-op logger when a
// command runs without the root's PersistentPreRunE (as in tests).
func log() *zap.Logger {
	if logger == nil {
		return zap.NewNop()
	}
	return logger
}

// NewRootCmd constructs the stepguard root command.
func NewRootCmd() *cobra.Command {
	version := os.Getenv("STEPGUARD_VERSION")
	if version == "" {
		version = "0.0.0-dev"
	}

	var verbose bool

	cmd := &cobra.Command{
		Use:           "stepguard",
		Short:         "Stepguard - scenario integrity and step quality verification",
		Long:          "Stepguard canonicalizes behavioral scenario corpora, verifies their integrity against stored digests and history anchors, checks step coverage via framework dry-runs, and statically analyzes step-binding quality.",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			var err error
			logger, err = logging.New(verbose)
			return err
		},
		PersistentPostRun: func(cmd *cobra.Command, args []string) {
			if logger != nil {
				_ = logger.Sync()
			}
		},
	}

	cmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "enable verbose output")

	cmd.AddCommand(&cobra.Command{
		Use:   "version",
		Short: "Print the version number of stepguard",
		Run: func(cmd *cobra.Command, args []string) {
			_, _ = fmt.Fprintf(cmd.OutOrStdout(), "stepguard version %s\n", version)
		},
	})

	cmd.AddCommand(NewHashCmd())
	cmd.AddCommand(NewVerifyCmd())
	cmd.AddCommand(NewAnchorCmd())
	cmd.AddCommand(NewCoverageCmd())
	cmd.AddCommand(NewQualityCmd())
	cmd.AddCommand(NewCheckCmd())
	cmd.AddCommand(NewHistoryCmd())

	return cmd
}
