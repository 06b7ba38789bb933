// SPDX-License-Identifier: AGPL-3.0-or-later
package integrity

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/stepguard/stepguard/internal/corpus"
	"github.com/stepguard/stepguard/internal/gitio"
)

// NotesRef is the reserved notes namespace for integrity anchors.
// Notes live in refs/notes/<NotesRef>, so altering an anchor after the fact
// requires rewriting history rather than editing a working file.
const NotesRef = "stepguard"

// Anchor is the parsed secondary integrity anchor payload.
type Anchor struct {
	Digest      string
	GeneratedAt string
	Source      string
}

// WriteAnchor computes the corpus digest and attaches it as a note on the
// current revision. Returns gitio.ErrNoHistory when there is no history to
// anchor to.
func WriteAnchor(ctx context.Context, repo *gitio.Repo, c *corpus.Corpus) (string, error) {
	d := Digest(c)
	payload := fmt.Sprintf("digest: %s\ngenerated_at: %s\nsource: %s\n",
		d, time.Now().UTC().Format(time.RFC3339), c.Source.Path)
	if err := repo.AddNote(ctx, NotesRef, payload); err != nil {
		return "", err
	}
	return d, nil
}

// VerifyAnchor recomputes the corpus digest and compares it to the anchored
// one. A missing note is StatusMissing; a missing history is an error
// (gitio.ErrNoHistory) so callers can distinguish "nothing anchored yet"
// from "anchoring is impossible here".
func VerifyAnchor(ctx context.Context, repo *gitio.Repo, c *corpus.Corpus) (VerifyStatus, error) {
	note, err := repo.ShowNote(ctx, NotesRef)
	if err != nil {
		if err == gitio.ErrNoNote {
			return StatusMissing, nil
		}
		return StatusMissing, err
	}

	anchor := parseAnchor(note)
	if anchor.Digest == "" {
		return StatusMissing, nil
	}
	if anchor.Digest == Digest(c) {
		return StatusValid, nil
	}
	return StatusInvalid, nil
}

// parseAnchor reads the line-oriented key: value payload. Unknown keys are
// ignored so the payload can grow without breaking old readers.
func parseAnchor(note string) Anchor {
	var a Anchor
	for _, line := range strings.Split(note, "\n") {
		key, value, ok := strings.Cut(line, ":")
		if !ok {
			continue
		}
		value = strings.TrimSpace(value)
		switch strings.TrimSpace(key) {
		case "digest":
			a.Digest = value
		case "generated_at":
			a.GeneratedAt = value
		case "source":
			a.Source = value
		}
	}
	return a
}
