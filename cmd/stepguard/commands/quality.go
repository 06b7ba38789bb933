// SPDX-License-Identifier: AGPL-3.0-or-later
package commands

import (
	"github.com/spf13/cobra"

	"github.com/stepguard/stepguard/cmd/stepguard/internal/clierr"
	"github.com/stepguard/stepguard/internal/framework"
	"github.com/stepguard/stepguard/internal/quality"
)

// NewQualityCmd statically classifies step-binding bodies against the defect
// taxonomy.
func NewQualityCmd() *cobra.Command {
	var (
		language string
		keywords []string
		asJSON   bool
	)

	cmd := &cobra.Command{
		Use:   "quality <steps-dir>",
		Short: "Analyze step-binding bodies for empty, tautological or assertion-free implementations",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if language == "" {
				if p := framework.Detect("", args[0]); p != nil {
					language = p.Language
				}
			}

			res, err := quality.NewAnalyzer(log(), keywords).AnalyzeDir(cmd.Context(), args[0], language)
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			if asJSON {
				if err := printJSON(out, res); err != nil {
					return err
				}
			} else {
				renderQuality(out, res)
			}

			if res.Status == quality.StatusBlocked {
				return clierr.Newf(exitBlocked, "%d step binding(s) fail quality checks", res.QualityFail)
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&language, "language", "", "step-binding language (default: sniffed from the directory)")
	cmd.Flags().StringSliceVar(&keywords, "assert-keywords", nil, "assertion keyword set for the NO_ASSERTION check")
	cmd.Flags().BoolVar(&asJSON, "json", false, "emit machine-parseable JSON")
	return cmd
}
