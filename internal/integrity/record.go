// SPDX-License-Identifier: AGPL-3.0-or-later
package integrity

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/stepguard/stepguard/internal/artifacts"
	"github.com/stepguard/stepguard/internal/corpus"
)

// RecordFile is the structured document holding the integrity record,
// colocated with the feature's other artifacts.
const RecordFile = "verification.yaml"

// recordKey is the reserved top-level key inside RecordFile. Other keys in
// the document belong to other tools and are preserved on write.
const recordKey = "scenario_integrity"

// VerifyStatus is the outcome of comparing a recomputed digest to a stored one.
type VerifyStatus string

const (
	StatusValid   VerifyStatus = "valid"
	StatusInvalid VerifyStatus = "invalid"
	StatusMissing VerifyStatus = "missing"
)

// Record is the persisted integrity record for a scenario corpus.
type Record struct {
	Digest      string `yaml:"digest" json:"digest"`
	GeneratedAt string `yaml:"generated_at" json:"generated_at"`
	// Exactly one of the source fields is set, mirroring the input shape.
	SourceDirectory string `yaml:"source_directory,omitempty" json:"source_directory,omitempty"`
	FileCount       int    `yaml:"file_count,omitempty" json:"file_count,omitempty"`
	SourceDocument  string `yaml:"source_document,omitempty" json:"source_document,omitempty"`
}

// Store reads and writes integrity records under an explicit artifact root.
// The root is computed once by the caller (artifacts.OwnerRoot); the store
// never walks the filesystem itself.
type Store struct {
	root string
	now  func() time.Time
}

// NewStore creates a Store rooted at the feature artifact directory.
func NewStore(root string) *Store {
	return &Store{root: root, now: time.Now}
}

func (s *Store) recordPath() string {
	return filepath.Join(s.root, RecordFile)
}

// Write computes the corpus digest and merges the resulting record into the
// record file atomically. Unrelated top-level keys survive the merge.
func (s *Store) Write(c *corpus.Corpus) (Record, error) {
	rec := Record{
		Digest:      Digest(c),
		GeneratedAt: s.now().UTC().Format(time.RFC3339),
	}

	rel := s.relSource(c.Source.Path)
	switch c.Source.Kind {
	case corpus.SourceDir:
		rec.SourceDirectory = rel
		rec.FileCount = c.FileCount
	default:
		rec.SourceDocument = rel
	}

	doc := s.readDocument()
	doc[recordKey] = rec

	data, err := yaml.Marshal(doc)
	if err != nil {
		return Record{}, fmt.Errorf("encoding record document: %w", err)
	}
	if err := artifacts.AtomicWrite(s.recordPath(), data); err != nil {
		return Record{}, fmt.Errorf("writing record document: %w", err)
	}
	return rec, nil
}

// Read returns the stored record, or ok=false when the file or the reserved
// key is absent. Absence is "missing", never an error.
func (s *Store) Read() (Record, bool, error) {
	data, err := os.ReadFile(s.recordPath())
	if err != nil {
		if os.IsNotExist(err) {
			return Record{}, false, nil
		}
		return Record{}, false, fmt.Errorf("reading record document: %w", err)
	}

	var doc map[string]yaml.Node
	if err := yaml.Unmarshal(data, &doc); err != nil {
		// A corrupt document cannot attest anything; treat as missing.
		return Record{}, false, nil
	}
	node, ok := doc[recordKey]
	if !ok {
		return Record{}, false, nil
	}

	var rec Record
	if err := node.Decode(&rec); err != nil {
		return Record{}, false, nil
	}
	return rec, true, nil
}

// Verify recomputes the digest for path and compares it to the stored record.
//
// When path is a single scenario file but the stored record was computed over
// a whole directory, the digest is recomputed over that directory instead: a
// file-level invocation must not produce spurious mismatches against a
// directory-level hash.
func (s *Store) Verify(path string) (VerifyStatus, error) {
	rec, ok, err := s.Read()
	if err != nil {
		return StatusMissing, err
	}
	if !ok {
		return StatusMissing, nil
	}

	src, err := corpus.Resolve(path)
	if err != nil {
		return StatusMissing, err
	}
	if src.Kind == corpus.SourceFeatureFile && rec.SourceDirectory != "" {
		src, err = corpus.Resolve(filepath.Join(s.root, rec.SourceDirectory))
		if err != nil {
			return StatusMissing, err
		}
	}

	c, err := corpus.Extract(src)
	if err != nil {
		return StatusMissing, err
	}

	if Digest(c) == rec.Digest {
		return StatusValid, nil
	}
	return StatusInvalid, nil
}

// readDocument loads the existing record document, or an empty one when the
// file is absent or unparseable.
func (s *Store) readDocument() map[string]any {
	doc := map[string]any{}
	data, err := os.ReadFile(s.recordPath())
	if err != nil {
		return doc
	}
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return map[string]any{}
	}
	return doc
}

// relSource stores source paths relative to the artifact root so records stay
// valid when the repository is checked out elsewhere.
func (s *Store) relSource(path string) string {
	abs, err := filepath.Abs(path)
	if err != nil {
		return path
	}
	rootAbs, err := filepath.Abs(s.root)
	if err != nil {
		return path
	}
	rel, err := filepath.Rel(rootAbs, abs)
	if err != nil {
		return path
	}
	return filepath.ToSlash(rel)
}
