// SPDX-License-Identifier: AGPL-3.0-or-later

// Package integrity computes and persists tamper-evident digests of the
// scenario corpus through two independent channels: a YAML record colocated
// with the feature's artifacts and a note attached to version history.
package integrity

import (
	"crypto/sha256"
	"encoding/hex"

	"github.com/stepguard/stepguard/internal/corpus"
)

// EmptyCorpusDigest is the reserved sentinel for an empty corpus. An empty
// corpus is never hashed; hashing the empty string would make "no scenarios"
// indistinguishable from a real (if degenerate) corpus.
const EmptyCorpusDigest = "no-scenarios"

// Digest returns the sha256 hex digest over the UTF-8 bytes of the
// newline-joined corpus, or EmptyCorpusDigest for an empty corpus.
func Digest(c *corpus.Corpus) string {
	if c.Empty() {
		return EmptyCorpusDigest
	}
	sum := sha256.Sum256([]byte(c.Joined()))
	return hex.EncodeToString(sum[:])
}
