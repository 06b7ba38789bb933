// SPDX-License-Identifier: AGPL-3.0-or-later
package commands

import (
	"fmt"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/stepguard/stepguard/internal/corpus"
	"github.com/stepguard/stepguard/internal/integrity"
)

// NewHashCmd computes the canonical corpus digest and stores the integrity
// record next to the feature's other artifacts.
func NewHashCmd() *cobra.Command {
	var rootFlag string

	cmd := &cobra.Command{
		Use:   "hash <path>",
		Short: "Canonicalize a scenario corpus and store its integrity record",
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

			rec, err := integrity.NewStore(root).Write(c)
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "digest: %s\n", rec.Digest)
			fmt.Fprintf(out, "steps: %d\n", len(c.Lines))
			fmt.Fprintf(out, "record: %s\n", filepath.Join(root, integrity.RecordFile))
			return nil
		},
	}

	cmd.Flags().StringVar(&rootFlag, "root", "", "feature artifact root (default: derived from <path>)")
	return cmd
}
