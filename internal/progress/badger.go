// SPDX-License-Identifier: MIT

package progress

import (
	"encoding/json"
	"fmt"

	badger "github.com/dgraph-io/badger/v4"
)

const badgerKeyPrefix = "progress/"

// badgerBackend stores one record per key in a badger database. Suited for
// deployments where the progress list must survive restarts without NFS-unsafe
// snapshot rewrites.
type badgerBackend struct {
	db *badger.DB
}

// NewBadgerBackend opens (or creates) a badger database at dir.
func NewBadgerBackend(dir string) (Backend, error) {
	opts := badger.DefaultOptions(dir).WithLogger(nil)
	db, err := badger.Open(opts)
	if err != nil {
		return nil, fmt.Errorf("open badger at %s: %w", dir, err)
	}
	return &badgerBackend{db: db}, nil
}

func (b *badgerBackend) Load() ([]WatchProgress, error) {
	var entries []WatchProgress
	err := b.db.View(func(txn *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.Prefix = []byte(badgerKeyPrefix)
		it := txn.NewIterator(opts)
		defer it.Close()

		for it.Rewind(); it.Valid(); it.Next() {
			err := it.Item().Value(func(val []byte) error {
				var p WatchProgress
				if err := json.Unmarshal(val, &p); err != nil {
					return err
				}
				entries = append(entries, p)
				return nil
			})
			if err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return sortedByRecency(entries), nil
}

func (b *badgerBackend) Put(p WatchProgress) error {
	raw, err := json.Marshal(p)
	if err != nil {
		return err
	}
	return b.db.Update(func(txn *badger.Txn) error {
		return txn.Set([]byte(badgerKeyPrefix+p.Key.String()), raw)
	})
}

func (b *badgerBackend) Remove(k Key) error {
	return b.db.Update(func(txn *badger.Txn) error {
		return txn.Delete([]byte(badgerKeyPrefix + k.String()))
	})
}

func (b *badgerBackend) Close() error {
	return b.db.Close()
}
