// SPDX-License-Identifier: AGPL-3.0-or-later
package commands

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/stepguard/stepguard/internal/ledger"
)

// NewHistoryCmd lists recent enforcement verdicts from the run ledger.
func NewHistoryCmd() *cobra.Command {
	var (
		rootFlag string
		limit    int
		asJSON   bool
	)

	cmd := &cobra.Command{
		Use:   "history [path]",
		Short: "List recent enforcement verdicts",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			root := rootFlag
			if len(args) == 1 {
				_, r, err := resolveTarget(args[0], rootFlag)
				if err != nil {
					return err
				}
				root = r
			}

			entries, err := ledger.RecentAt(root, limit)
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			if asJSON {
				return printJSON(out, entries)
			}
			if len(entries) == 0 {
				fmt.Fprintln(out, "no recorded runs")
				return nil
			}
			for _, e := range entries {
				line := fmt.Sprintf("%s  %-7s  policy=%s  %s",
					e.RecordedAt.Format("2006-01-02 15:04:05"), e.Verdict.Overall, e.Policy, e.Source)
				if e.Verdict.Reason != "" {
					line += "  (" + e.Verdict.Reason + ")"
				}
				fmt.Fprintln(out, line)
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&rootFlag, "root", ".", "feature artifact root holding the ledger")
	cmd.Flags().IntVar(&limit, "limit", 10, "maximum number of runs to list (0 for all)")
	cmd.Flags().BoolVar(&asJSON, "json", false, "emit machine-parseable JSON")
	return cmd
}
