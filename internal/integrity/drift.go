// SPDX-License-Identifier: AGPL-3.0-or-later
package integrity

import (
	"context"
	"fmt"
	"strings"

	"github.com/sourcegraph/go-diff/diff"

	"github.com/stepguard/stepguard/internal/corpus"
	"github.com/stepguard/stepguard/internal/gitio"
)

// DriftStatus classifies working-tree changes to scenario sources.
type DriftStatus string

const (
	// DriftClean means no change, or only changes that do not touch step lines.
	DriftClean DriftStatus = "clean"
	// DriftModified means at least one changed line is itself a step line.
	DriftModified DriftStatus = "modified"
	// DriftUntracked means the path was never recorded in history, so it
	// cannot have drifted yet. Reported separately from modified.
	DriftUntracked DriftStatus = "untracked"
)

// CheckDrift compares path against its last committed state. Only diffs whose
// added or removed lines are step lines count as modified; formatting-only
// diffs are clean.
//
// The hunk scan is deliberately conservative: a step line dragged into a hunk
// by the diff context window can flag modified even when only its surroundings
// changed. False positives are safer than false negatives here.
func CheckDrift(ctx context.Context, repo *gitio.Repo, path string) (DriftStatus, error) {
	if !repo.IsTracked(ctx, path) {
		return DriftUntracked, nil
	}

	out, err := repo.DiffFile(ctx, path)
	if err != nil {
		return DriftClean, fmt.Errorf("diffing %s: %w", path, err)
	}
	if strings.TrimSpace(out) == "" {
		return DriftClean, nil
	}

	fileDiffs, err := diff.ParseMultiFileDiff([]byte(out))
	if err != nil {
		// An unparseable diff still proves the file changed somehow.
		return DriftModified, nil
	}

	for _, fd := range fileDiffs {
		for _, hunk := range fd.Hunks {
			if hunkTouchesStepLine(hunk) {
				return DriftModified, nil
			}
		}
	}
	return DriftClean, nil
}

func hunkTouchesStepLine(hunk *diff.Hunk) bool {
	for _, line := range strings.Split(string(hunk.Body), "\n") {
		if len(line) == 0 {
			continue
		}
		marker, content := line[0], line[1:]
		if marker != '+' && marker != '-' {
			continue
		}
		if corpus.IsStepLine(content) {
			return true
		}
	}
	return false
}
