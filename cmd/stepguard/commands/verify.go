// SPDX-License-Identifier: AGPL-3.0-or-later
package commands

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/stepguard/stepguard/cmd/stepguard/internal/clierr"
	"github.com/stepguard/stepguard/internal/corpus"
	"github.com/stepguard/stepguard/internal/gitio"
	"github.com/stepguard/stepguard/internal/integrity"
)

type verifyReport struct {
	Record integrity.VerifyStatus `json:"record"`
	Anchor integrity.VerifyStatus `json:"anchor,omitempty"`
	Drift  integrity.DriftStatus  `json:"drift,omitempty"`
	Notes  []string               `json:"notes,omitempty"`
}

// NewVerifyCmd recomputes the corpus digest and compares it against the
// stored record, optionally against the history anchor and working-tree state.
func NewVerifyCmd() *cobra.Command {
	var (
		rootFlag   string
		checkAnchr bool
		checkDrift bool
		asJSON     bool
	)

	cmd := &cobra.Command{
		Use:   "verify <path>",
		Short: "Verify a scenario corpus against its stored integrity record",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			src, root, err := resolveTarget(args[0], rootFlag)
			if err != nil {
				return err
			}

			var report verifyReport
			report.Record, err = integrity.NewStore(root).Verify(args[0])
			if err != nil {
				return err
			}

			if checkAnchr || checkDrift {
				repo := gitio.New(repoDir(src))

				if checkAnchr {
					c, err := corpus.Extract(src)
					if err != nil {
						return err
					}
					report.Anchor, err = integrity.VerifyAnchor(ctx, repo, c)
					if errors.Is(err, gitio.ErrNoHistory) {
						report.Anchor = integrity.StatusMissing
						report.Notes = append(report.Notes, "no version history; anchor is unverifiable")
					} else if err != nil {
						return err
					}
				}

				if checkDrift {
					if repo.HasHistory(ctx) {
						report.Drift, err = integrity.CheckDrift(ctx, repo, args[0])
						if err != nil {
							return err
						}
					} else {
						report.Notes = append(report.Notes, "no version history; drift is unverifiable")
					}
				}
			}

			out := cmd.OutOrStdout()
			if asJSON {
				if err := printJSON(out, report); err != nil {
					return err
				}
			} else {
				fmt.Fprintf(out, "record: %s\n", report.Record)
				if checkAnchr {
					fmt.Fprintf(out, "anchor: %s\n", report.Anchor)
				}
				if checkDrift && report.Drift != "" {
					fmt.Fprintf(out, "drift: %s\n", report.Drift)
				}
				for _, n := range report.Notes {
					fmt.Fprintf(out, "note: %s\n", n)
				}
			}

			switch {
			case report.Record == integrity.StatusInvalid || report.Anchor == integrity.StatusInvalid:
				return clierr.New(exitBlocked, "assertions modified since verification")
			case report.Drift == integrity.DriftModified:
				return clierr.New(exitBlocked, "uncommitted changes to assertions")
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&rootFlag, "root", "", "feature artifact root (default: derived from <path>)")
	cmd.Flags().BoolVar(&checkAnchr, "anchor", false, "also verify the history anchor")
	cmd.Flags().BoolVar(&checkDrift, "drift", false, "also check working-tree drift of step lines")
	cmd.Flags().BoolVar(&asJSON, "json", false, "emit machine-parseable JSON")
	return cmd
}
