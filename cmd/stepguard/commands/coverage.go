// SPDX-License-Identifier: AGPL-3.0-or-later
package commands

import (
	"github.com/spf13/cobra"

	"github.com/stepguard/stepguard/cmd/stepguard/internal/clierr"
	"github.com/stepguard/stepguard/internal/corpus"
	"github.com/stepguard/stepguard/internal/coverage"
	"github.com/stepguard/stepguard/internal/framework"
)

// NewCoverageCmd reconciles the declared step corpus against discovered
// bindings by running the ecosystem's test tool in dry-run mode.
func NewCoverageCmd() *cobra.Command {
	var (
		rootFlag string
		stepsDir string
		language string
		asJSON   bool
	)

	cmd := &cobra.Command{
		Use:   "coverage <path>",
		Short: "Verify that every declared step resolves to an implementation binding",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			src, root, err := resolveTarget(args[0], rootFlag)
			if err != nil {
				return err
			}
			c, err := corpus.Extract(src)
			if err != nil {
				return err
			}

			if stepsDir == "" {
				stepsDir = root
			}
			profile := framework.Detect(language, stepsDir)

			res := coverage.New(log()).Run(cmd.Context(), len(c.Lines), root, profile)

			out := cmd.OutOrStdout()
			if asJSON {
				if err := printJSON(out, res); err != nil {
					return err
				}
			} else {
				renderCoverage(out, res)
			}

			if res.Status == coverage.StatusBlocked {
				return clierr.New(exitBlocked, res.Details)
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&rootFlag, "root", "", "feature artifact root (default: derived from <path>)")
	cmd.Flags().StringVar(&stepsDir, "steps", "", "step-binding directory (default: the artifact root)")
	cmd.Flags().StringVar(&language, "language", "", "target language or framework token (default: sniffed from bindings)")
	cmd.Flags().BoolVar(&asJSON, "json", false, "emit machine-parseable JSON")
	return cmd
}
