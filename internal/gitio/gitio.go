// SPDX-License-Identifier: AGPL-3.0-or-later

// Package gitio wraps the git subprocess invocations this engine relies on:
// history anchoring via notes, working-tree diffs, and tracked-file checks.
package gitio

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os/exec"
	"strings"
)

// ErrNoHistory is returned when the path is not inside a git repository or
// the repository has no commits yet. Callers treat it as "unverifiable",
// never as tamper evidence.
var ErrNoHistory = errors.New("no version history available")

// ErrNoNote is returned when the notes ref carries no note for HEAD.
var ErrNoNote = errors.New("no note recorded for current revision")

// Repo runs git commands rooted at a working directory.
type Repo struct {
	dir string
}

// New creates a Repo for the given working directory.
func New(dir string) *Repo {
	return &Repo{dir: dir}
}

// run executes git with args and returns trimmed stdout.
func (r *Repo) run(ctx context.Context, args ...string) (string, error) {
	cmd := exec.CommandContext(ctx, "git", args...)
	cmd.Dir = r.dir
	var stderr bytes.Buffer
	cmd.Stderr = &stderr
	out, err := cmd.Output()
	if err != nil {
		msg := strings.TrimSpace(stderr.String())
		if msg == "" {
			msg = err.Error()
		}
		return "", fmt.Errorf("git %s: %s", args[0], msg)
	}
	return strings.TrimRight(string(out), "\n"), nil
}

// HasHistory reports whether the directory is inside a git repository with at
// least one commit.
func (r *Repo) HasHistory(ctx context.Context) bool {
	_, err := r.run(ctx, "rev-parse", "--verify", "HEAD")
	return err == nil
}

// Head returns the current HEAD revision.
func (r *Repo) Head(ctx context.Context) (string, error) {
	rev, err := r.run(ctx, "rev-parse", "--verify", "HEAD")
	if err != nil {
		return "", ErrNoHistory
	}
	return rev, nil
}

// AddNote attaches (or replaces) a note on HEAD under the given notes ref.
func (r *Repo) AddNote(ctx context.Context, ref, message string) error {
	if !r.HasHistory(ctx) {
		return ErrNoHistory
	}
	if _, err := r.run(ctx, "notes", "--ref="+ref, "add", "-f", "-m", message, "HEAD"); err != nil {
		return fmt.Errorf("writing note on %s: %w", ref, err)
	}
	return nil
}

// ShowNote reads the note attached to HEAD under the given notes ref.
func (r *Repo) ShowNote(ctx context.Context, ref string) (string, error) {
	if !r.HasHistory(ctx) {
		return "", ErrNoHistory
	}
	out, err := r.run(ctx, "notes", "--ref="+ref, "show", "HEAD")
	if err != nil {
		return "", ErrNoNote
	}
	return out, nil
}

// DiffFile returns the unified diff of path against its last committed state.
// An empty string means no difference.
func (r *Repo) DiffFile(ctx context.Context, path string) (string, error) {
	out, err := r.run(ctx, "diff", "-U3", "--", path)
	if err != nil {
		return "", err
	}
	return out, nil
}

// IsTracked reports whether path is tracked by git.
func (r *Repo) IsTracked(ctx context.Context, path string) bool {
	_, err := r.run(ctx, "ls-files", "--error-unmatch", "--", path)
	return err == nil
}
