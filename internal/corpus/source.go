// SPDX-License-Identifier: AGPL-3.0-or-later
package corpus

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// SourceKind identifies the shape of a scenario input path.
type SourceKind string

const (
	// SourceDir is a directory of .feature files.
	SourceDir SourceKind = "directory"
	// SourceFeatureFile is a single .feature file.
	SourceFeatureFile SourceKind = "feature-file"
	// SourceLegacyDoc is a markdown document using inline **Given**/**When**/**Then** markers.
	SourceLegacyDoc SourceKind = "legacy-document"
)

// Source is the resolved input shape. It is computed exactly once at the
// canonicalizer boundary; downstream components only ever see the Corpus.
type Source struct {
	Kind SourceKind
	Path string
}

// Resolve inspects path and classifies it into one of the three source kinds.
func Resolve(path string) (Source, error) {
	info, err := os.Stat(path)
	if err != nil {
		return Source{}, fmt.Errorf("resolving scenario source %s: %w", path, err)
	}

	if info.IsDir() {
		return Source{Kind: SourceDir, Path: path}, nil
	}

	if strings.EqualFold(filepath.Ext(path), ".feature") {
		return Source{Kind: SourceFeatureFile, Path: path}, nil
	}

	return Source{Kind: SourceLegacyDoc, Path: path}, nil
}
