// SPDX-License-Identifier: AGPL-3.0-or-later
package commands

import (
	"encoding/json"
	"io"
	"path/filepath"

	"github.com/stepguard/stepguard/internal/artifacts"
	"github.com/stepguard/stepguard/internal/corpus"
)

// resolveTarget classifies the scenario source and computes the feature
// artifact root, honoring an explicit --root override.
func resolveTarget(path, rootFlag string) (corpus.Source, string, error) {
	src, err := corpus.Resolve(path)
	if err != nil {
		return corpus.Source{}, "", err
	}
	root := rootFlag
	if root == "" {
		root = artifacts.OwnerRoot(src)
	}
	return src, root, nil
}

// repoDir is the working directory git commands run from for a source.
func repoDir(src corpus.Source) string {
	if src.Kind == corpus.SourceDir {
		return src.Path
	}
	return filepath.Dir(src.Path)
}

func printJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
