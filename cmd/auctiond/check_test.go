// Copyright (c) 2025 Sonic Operations Ltd
//
// Use of this software is governed by the Business Source License included
// in the LICENSE file and at soniclabs.com/bsl11.
//
// Change Date: 2028-4-16
//
// On the date above, in accordance with the Business Source License, use of
// this software will be governed by the GNU Lesser General Public License v3.

package main

import (
	"log/slog"
	"path/filepath"
	"testing"

	"github.com/0xsoniclabs/blindauction/auction"
	"github.com/0xsoniclabs/blindauction/bank"
	"github.com/0xsoniclabs/blindauction/common"
	"github.com/0xsoniclabs/blindauction/common/amount"
	"github.com/0xsoniclabs/blindauction/host"
	"github.com/0xsoniclabs/blindauction/store"
	"github.com/ethereum/go-ethereum/log"
	"github.com/stretchr/testify/require"
)

type fixedClock uint64

func (c fixedClock) Now() uint64 {
	return uint64(c)
}

func TestCheckDataDir_AcceptsConsistentState(t *testing.T) {
	require := require.New(t)
	dir := t.TempDir()
	db, err := store.OpenLevelDb(filepath.Join(dir, "state"), store.Options{})
	require.NoError(err)

	bidder := common.Address{0xa1}
	h, err := host.Open(host.Options{
		Config: auction.Config{Beneficiary: common.Address{0xbe}, BiddingEnd: 100, RevealEnd: 200},
		Store:  db,
		Clock:  fixedClock(10),
		Logger: log.NewLogger(slog.DiscardHandler),
	})
	require.NoError(err)
	require.NoError(h.Fund(bidder, amount.New(5)))
	require.NoError(h.PlaceBid(bidder, common.Hash{1}, amount.New(5)))
	require.NoError(h.Close())

	require.NoError(checkDataDir(dir))
}

func TestCheckDataDir_FailsWithoutState(t *testing.T) {
	require.Error(t, checkDataDir(filepath.Join(t.TempDir(), "missing")))
}

func TestCheckDataDir_DetectsCorruptedBalances(t *testing.T) {
	require := require.New(t)
	dir := t.TempDir()
	db, err := store.OpenLevelDb(filepath.Join(dir, "state"), store.Options{})
	require.NoError(err)

	b := bank.New()
	require.NoError(b.Fund(common.Address{0xa1}, amount.New(5)))
	a, err := auction.New(
		auction.Config{Beneficiary: common.Address{0xbe}, BiddingEnd: 100, RevealEnd: 200},
		auction.Environment{Ledger: b, Logger: log.NewLogger(slog.DiscardHandler)},
	)
	require.NoError(err)

	auctionSnapshot := a.Snapshot()
	bankSnapshot := b.Snapshot()
	bankSnapshot.Custody = amount.New(3) // nothing was deposited
	require.NoError(db.Commit(&store.State{Auction: auctionSnapshot, Bank: bankSnapshot}))
	require.NoError(db.Close())

	require.Error(checkDataDir(dir))
}
