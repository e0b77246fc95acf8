// Copyright (c) 2025 Sonic Operations Ltd
//
// Use of this software is governed by the Business Source License included
// in the LICENSE file and at soniclabs.com/bsl11.
//
// Change Date: 2028-4-16
//
// On the date above, in accordance with the Business Source License, use of
// this software will be governed by the GNU Lesser General Public License v3.

package store

import (
	"github.com/syndtr/goleveldb/leveldb"
	"github.com/syndtr/goleveldb/leveldb/opt"
)

// Options tune the LevelDB backend.
type Options struct {
	// CacheBytes is the memory budget for block cache and write buffer; zero
	// uses the LevelDB defaults.
	CacheBytes int
	ReadOnly   bool
}

// OpenLevelDb opens or creates a LevelDB backed store in the given directory.
func OpenLevelDb(path string, options Options) (Store, error) {
	db, err := newLevelDbStore(path, options)
	if err != nil {
		return nil, err
	}
	return &snapshotStore{db: db}, nil
}

type levelDbStore struct {
	db *leveldb.DB
}

func newLevelDbStore(path string, options Options) (*levelDbStore, error) {
	opts := &opt.Options{ReadOnly: options.ReadOnly}
	if options.CacheBytes > 0 {
		opts.BlockCacheCapacity = options.CacheBytes / 2
		opts.WriteBuffer = options.CacheBytes / 4
	}
	db, err := leveldb.OpenFile(path, opts)
	if err != nil {
		return nil, err
	}
	return &levelDbStore{db: db}, nil
}

func (s *levelDbStore) Get(key []byte) ([]byte, error) {
	data, err := s.db.Get(key, &opt.ReadOptions{})
	if err == leveldb.ErrNotFound {
		return nil, ErrNotFound
	}
	return data, err
}

func (s *levelDbStore) Write(entries []entry) error {
	batch := new(leveldb.Batch)
	for _, cur := range entries {
		batch.Put(cur.key, cur.value)
	}
	return s.db.Write(batch, &opt.WriteOptions{Sync: true})
}

func (s *levelDbStore) Close() error {
	return s.db.Close()
}
