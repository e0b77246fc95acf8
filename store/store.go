// Copyright (c) 2025 Sonic Operations Ltd
//
// Use of this software is governed by the Business Source License included
// in the LICENSE file and at soniclabs.com/bsl11.
//
// Change Date: 2028-4-16
//
// On the date above, in accordance with the Business Source License, use of
// this software will be governed by the GNU Lesser General Public License v3.

// Package store persists the state of an auction host. A State consists of
// the snapshots of the auction and the bank; both are always committed
// together in a single atomic write.
package store

//go:generate mockgen -source store.go -destination store_mocks.go -package store

import (
	"errors"
	"fmt"

	"github.com/0xsoniclabs/blindauction/auction"
	"github.com/0xsoniclabs/blindauction/bank"
	"github.com/0xsoniclabs/blindauction/common"
)

const (
	ErrNotFound = common.ConstError("not found")
)

// State is the unit of persistence.
type State struct {
	Auction *auction.Snapshot
	Bank    *bank.Snapshot
}

// Store is the persistence interface used by the host.
type Store interface {
	// Load returns the last committed state, or ErrNotFound if nothing was
	// committed so far.
	Load() (*State, error)
	// Commit atomically replaces the persisted state.
	Commit(state *State) error
	Close() error
}

var (
	auctionKey = []byte("auction")
	bankKey    = []byte("bank")
)

type entry struct {
	key   []byte
	value []byte
}

// kvStore is the key-value backend of a snapshot store.
type kvStore interface {
	Get(key []byte) ([]byte, error)
	// Write applies all entries atomically.
	Write(entries []entry) error
	Close() error
}

// snapshotStore implements Store on top of a key-value backend.
type snapshotStore struct {
	db kvStore
}

func (s *snapshotStore) Load() (*State, error) {
	auctionData, err := s.db.Get(auctionKey)
	if err != nil {
		return nil, err
	}
	bankData, err := s.db.Get(bankKey)
	if errors.Is(err, ErrNotFound) {
		return nil, fmt.Errorf("auction state without bank state")
	}
	if err != nil {
		return nil, err
	}

	res := &State{Auction: &auction.Snapshot{}, Bank: &bank.Snapshot{}}
	if err := decode(auctionData, res.Auction); err != nil {
		return nil, fmt.Errorf("failed to decode auction state: %w", err)
	}
	if err := decode(bankData, res.Bank); err != nil {
		return nil, fmt.Errorf("failed to decode bank state: %w", err)
	}
	return res, nil
}

func (s *snapshotStore) Commit(state *State) error {
	if state == nil || state.Auction == nil || state.Bank == nil {
		return fmt.Errorf("incomplete state")
	}
	auctionData, err := encode(state.Auction)
	if err != nil {
		return fmt.Errorf("failed to encode auction state: %w", err)
	}
	bankData, err := encode(state.Bank)
	if err != nil {
		return fmt.Errorf("failed to encode bank state: %w", err)
	}
	return s.db.Write([]entry{
		{key: auctionKey, value: auctionData},
		{key: bankKey, value: bankData},
	})
}

func (s *snapshotStore) Close() error {
	return s.db.Close()
}
