// SPDX-License-Identifier: AGPL-3.0-or-later

// Package corpus extracts the canonical ordered step-text corpus from
// scenario files. Canonicalization is a pure function of file contents:
// re-indenting a file or inserting blank lines never changes the result.
package corpus

import (
	"bufio"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"regexp"
	"sort"
	"strings"
)

// Corpus is the ordered sequence of canonicalized step-text lines.
// An empty corpus is a valid, non-error result.
type Corpus struct {
	Source Source
	Lines  []string
	// FileCount is the number of scenario files that contributed lines
	// (including files that contributed none). Zero for non-directory sources.
	FileCount int
}

var stepKeywords = []string{"Given", "When", "Then", "And", "But", "*"}

var legacyMarkerRe = regexp.MustCompile(`\*\*(Given|When|Then|And|But)\*\*\s*(.*)`)

// IsStepLine reports whether the (raw) line is a step-keyword line.
// Keywords are case-sensitive, matching Gherkin conventions.
func IsStepLine(line string) bool {
	trimmed := strings.TrimSpace(line)
	for _, kw := range stepKeywords {
		if trimmed == kw {
			return true
		}
		if strings.HasPrefix(trimmed, kw+" ") || strings.HasPrefix(trimmed, kw+"\t") {
			return true
		}
	}
	return false
}

// Normalize strips leading/trailing whitespace and collapses internal
// whitespace runs to a single space.
func Normalize(line string) string {
	return strings.Join(strings.Fields(line), " ")
}

// Load resolves path and extracts its corpus in one call.
func Load(path string) (*Corpus, error) {
	src, err := Resolve(path)
	if err != nil {
		return nil, err
	}
	return Extract(src)
}

// Extract builds the corpus for a resolved source.
//
// Directory sources enumerate *.feature files in lexicographic path order and
// concatenate per-file step lines in document order; lines are never re-sorted
// across files. Legacy documents instead sort extracted lines lexicographically,
// since a prose document carries no stable natural ordering guarantee.
func Extract(src Source) (*Corpus, error) {
	switch src.Kind {
	case SourceDir:
		return extractDirectory(src)
	case SourceFeatureFile:
		lines, err := extractFeatureFile(src.Path)
		if err != nil {
			return nil, err
		}
		return &Corpus{Source: src, Lines: lines}, nil
	case SourceLegacyDoc:
		lines, err := extractLegacyDoc(src.Path)
		if err != nil {
			return nil, err
		}
		return &Corpus{Source: src, Lines: lines}, nil
	default:
		return nil, fmt.Errorf("unknown source kind %q", src.Kind)
	}
}

// Joined returns the newline-joined corpus text that digests are computed over.
func (c *Corpus) Joined() string {
	return strings.Join(c.Lines, "\n")
}

// Empty reports whether the corpus contains no step lines.
func (c *Corpus) Empty() bool {
	return len(c.Lines) == 0
}

func extractDirectory(src Source) (*Corpus, error) {
	var files []string
	err := filepath.WalkDir(src.Path, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			return nil
		}
		if strings.EqualFold(filepath.Ext(path), ".feature") {
			files = append(files, path)
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("scanning scenario directory %s: %w", src.Path, err)
	}
	sort.Strings(files)

	c := &Corpus{Source: src, FileCount: len(files)}
	for _, f := range files {
		lines, err := extractFeatureFile(f)
		if err != nil {
			return nil, err
		}
		c.Lines = append(c.Lines, lines...)
	}
	return c, nil
}

func extractFeatureFile(path string) ([]string, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("reading scenario file %s: %w", path, err)
	}
	defer func() { _ = f.Close() }()

	var lines []string
	sc := bufio.NewScanner(f)
	for sc.Scan() {
		if IsStepLine(sc.Text()) {
			lines = append(lines, Normalize(sc.Text()))
		}
	}
	if err := sc.Err(); err != nil {
		return nil, fmt.Errorf("reading scenario file %s: %w", path, err)
	}
	return lines, nil
}

func extractLegacyDoc(path string) ([]string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading legacy document %s: %w", path, err)
	}

	var lines []string
	for _, raw := range strings.Split(string(data), "\n") {
		m := legacyMarkerRe.FindStringSubmatch(raw)
		if m == nil {
			continue
		}
		lines = append(lines, Normalize(m[1]+" "+m[2]))
	}
	sort.Strings(lines)
	return lines, nil
}
