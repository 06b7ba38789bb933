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

// NewAnchorCmd writes the secondary integrity anchor: a note on the current
// revision in the reserved notes namespace.
func NewAnchorCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "anchor <path>",
		Short: "Anchor the corpus digest to the current history revision",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			src, err := corpus.Resolve(args[0])
			if err != nil {
				return err
			}
			c, err := corpus.Extract(src)
			if err != nil {
				return err
			}

			repo := gitio.New(repoDir(src))
			digest, err := integrity.WriteAnchor(cmd.Context(), repo, c)
			if errors.Is(err, gitio.ErrNoHistory) {
				return clierr.Wrap(1, "cannot anchor without version history", err)
			}
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "digest: %s\n", digest)
			fmt.Fprintf(out, "ref: refs/notes/%s\n", integrity.NotesRef)
			return nil
		},
	}
	return cmd
}
