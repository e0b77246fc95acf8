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

import "bytes"

// NewInMemory creates a store keeping all data in memory. It is intended for
// tests and for running a host without a data directory.
func NewInMemory() Store {
	return &snapshotStore{db: newMemoryDbStore()}
}

type memoryDbStore struct {
	store map[string][]byte
}

func newMemoryDbStore() *memoryDbStore {
	return &memoryDbStore{store: make(map[string][]byte)}
}

func (s *memoryDbStore) Get(key []byte) ([]byte, error) {
	value, ok := s.store[string(key)]
	if !ok {
		return nil, ErrNotFound
	}
	return bytes.Clone(value), nil
}

func (s *memoryDbStore) Write(entries []entry) error {
	for _, cur := range entries {
		s.store[string(cur.key)] = bytes.Clone(cur.value)
	}
	return nil
}

func (s *memoryDbStore) Close() error {
	return nil
}
