// SPDX-License-Identifier: AGPL-3.0-or-later

// Package artifacts locates the feature artifact directory that owns a
// scenario source and provides atomic writes for the documents stored there.
package artifacts

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/stepguard/stepguard/internal/corpus"
)

// OwnerRoot computes the feature artifact directory owning a scenario source.
// It is computed once by the caller and threaded explicitly into the
// integrity store, so the store itself never walks the filesystem.
//
// Layout contract:
//
//	<root>/gherkin/features/*.feature   directory input: up two levels
//	<root>/gherkin/features/x.feature   single file: up three levels
//	<root>/gherkin/spec.md              legacy document: up two levels
func OwnerRoot(src corpus.Source) string {
	abs, err := filepath.Abs(src.Path)
	if err != nil {
		abs = src.Path
	}
	switch src.Kind {
	case corpus.SourceFeatureFile:
		return filepath.Dir(filepath.Dir(filepath.Dir(abs)))
	default:
		return filepath.Dir(filepath.Dir(abs))
	}
}

// AtomicWrite writes content to path by writing a temp file in the target
// directory and renaming it over the destination, so concurrent readers
// never observe a partial write.
func AtomicWrite(path string, content []byte) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("creating directory %s: %w", dir, err)
	}

	tmp, err := os.CreateTemp(dir, ".stepguard-tmp-*")
	if err != nil {
		return fmt.Errorf("creating temp file: %w", err)
	}
	defer func() { _ = os.Remove(tmp.Name()) }()

	if _, err := tmp.Write(content); err != nil {
		_ = tmp.Close()
		return fmt.Errorf("writing content: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("closing temp file: %w", err)
	}

	if err := os.Rename(tmp.Name(), path); err != nil {
		return fmt.Errorf("moving temp file to %s: %w", path, err)
	}
	return nil
}
