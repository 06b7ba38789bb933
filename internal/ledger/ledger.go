// SPDX-License-Identifier: AGPL-3.0-or-later

// Package ledger keeps an append-only history of enforcement verdicts in an
// embedded bbolt database colocated with the feature's other artifacts.
package ledger

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"
	bolt "go.etcd.io/bbolt"

	"github.com/stepguard/stepguard/internal/verdict"
)

const (
	dirName  = ".stepguard"
	fileName = "ledger.db"

	bucketRuns = "runs"
)

// Entry is one recorded enforcement run.
type Entry struct {
	ID         string          `json:"id"`
	RecordedAt time.Time       `json:"recorded_at"`
	Source     string          `json:"source"`
	Policy     string          `json:"policy"`
	Verdict    verdict.Verdict `json:"verdict"`
}

// Ledger is a bbolt-backed verdict history.
type Ledger struct {
	db  *bolt.DB
	now func() time.Time
}

// Path returns the ledger location under the given artifact root.
func Path(root string) string {
	return filepath.Join(root, dirName, fileName)
}

// Open opens or creates the ledger under root.
func Open(root string) (*Ledger, error) {
	path := Path(root)
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("creating ledger directory: %w", err)
	}
	db, err := bolt.Open(path, 0o600, &bolt.Options{Timeout: 1 * time.Second})
	if err != nil {
		return nil, fmt.Errorf("opening ledger: %w", err)
	}

	err = db.Update(func(tx *bolt.Tx) error {
		_, err := tx.CreateBucketIfNotExists([]byte(bucketRuns))
		return err
	})
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("initializing ledger: %w", err)
	}

	return &Ledger{db: db, now: time.Now}, nil
}

// Append records one verdict. The key sorts chronologically so bucket order
// is run order; the uuid suffix keeps same-instant runs distinct.
func (l *Ledger) Append(source, policy string, v verdict.Verdict) (Entry, error) {
	e := Entry{
		ID:         uuid.NewString(),
		RecordedAt: l.now().UTC(),
		Source:     source,
		Policy:     policy,
		Verdict:    v,
	}

	key := e.RecordedAt.Format(time.RFC3339Nano) + "/" + e.ID
	data, err := json.Marshal(e)
	if err != nil {
		return Entry{}, fmt.Errorf("encoding ledger entry: %w", err)
	}

	err = l.db.Update(func(tx *bolt.Tx) error {
		return tx.Bucket([]byte(bucketRuns)).Put([]byte(key), data)
	})
	if err != nil {
		return Entry{}, fmt.Errorf("appending ledger entry: %w", err)
	}
	return e, nil
}

// Recent returns up to limit entries, newest first. limit <= 0 means all.
func (l *Ledger) Recent(limit int) ([]Entry, error) {
	var entries []Entry
	err := l.db.View(func(tx *bolt.Tx) error {
		c := tx.Bucket([]byte(bucketRuns)).Cursor()
		for k, v := c.Last(); k != nil; k, v = c.Prev() {
			if limit > 0 && len(entries) >= limit {
				break
			}
			var e Entry
			if err := json.Unmarshal(v, &e); err != nil {
				return fmt.Errorf("decoding ledger entry %s: %w", string(k), err)
			}
			entries = append(entries, e)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return entries, nil
}

func (l *Ledger) Close() error {
	return l.db.Close()
}

// RecentAt reads recent entries without requiring the ledger to exist. A
// missing database yields an empty history, not an error.
func RecentAt(root string, limit int) ([]Entry, error) {
	if _, err := os.Stat(Path(root)); os.IsNotExist(err) {
		return nil, nil
	}
	l, err := Open(root)
	if err != nil {
		return nil, err
	}
	defer l.Close()
	return l.Recent(limit)
}
