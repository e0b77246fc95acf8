// Copyright (c) 2025 Sonic Operations Ltd
//
// Use of this software is governed by the Business Source License included
// in the LICENSE file and at soniclabs.com/bsl11.
//
// Change Date: 2028-4-16
//
// On the date above, in accordance with the Business Source License, use of
// this software will be governed by the GNU Lesser General Public License v3.

package host

import (
	"errors"
	"log/slog"
	"sync"
	"testing"

	"github.com/0xsoniclabs/blindauction/auction"
	"github.com/0xsoniclabs/blindauction/bank"
	"github.com/0xsoniclabs/blindauction/common"
	"github.com/0xsoniclabs/blindauction/common/amount"
	"github.com/0xsoniclabs/blindauction/store"
	"github.com/ethereum/go-ethereum/log"
	"github.com/holiman/uint256"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"
)

var (
	beneficiary = common.Address{0xbe}
	alice       = common.Address{0xa1}
	bob         = common.Address{0xb0}

	testConfig = auction.Config{
		Beneficiary: beneficiary,
		BiddingEnd:  100,
		RevealEnd:   200,
	}
)

type testClock struct {
	mu  sync.Mutex
	now uint64
}

func (c *testClock) Now() uint64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *testClock) Set(now uint64) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = now
}

func openTestHost(t *testing.T, db store.Store, observer auction.Observer) (*Host, *testClock) {
	t.Helper()
	clock := &testClock{}
	host, err := Open(Options{
		Config:   testConfig,
		Store:    db,
		Clock:    clock,
		Observer: observer,
		Logger:   log.NewLogger(slog.DiscardHandler),
	})
	require.NoError(t, err)
	return host, clock
}

func blind(value uint64, s string) common.Hash {
	return auction.BlindBid(amount.New(value), false, auction.SecretHash([]byte(s)))
}

func claim(value uint64, s string) auction.Claim {
	return auction.Claim{Value: amount.New(value), SecretHash: auction.SecretHash([]byte(s))}
}

func TestHost_RunsCompleteAuction(t *testing.T) {
	require := require.New(t)
	host, clock := openTestHost(t, store.NewInMemory(), nil)

	require.NoError(host.Fund(alice, amount.New(100)))
	require.NoError(host.Fund(bob, amount.New(100)))

	clock.Set(50)
	require.NoError(host.PlaceBid(alice, blind(50, "s1"), amount.New(60)))
	require.NoError(host.PlaceBid(bob, blind(70, "s2"), amount.New(70)))
	require.Equal(amount.New(40), host.Account(alice).Balance)
	require.Equal(amount.New(30), host.Account(bob).Balance)

	clock.Set(150)
	_, err := host.Reveal(alice, []auction.Claim{claim(50, "s1")})
	require.NoError(err)
	results, err := host.Reveal(bob, []auction.Claim{claim(70, "s2")})
	require.NoError(err)
	require.Equal(auction.Leading, results[0].Outcome)

	status := host.Status()
	require.Equal(auction.RevealPhase, status.Phase)
	require.Equal(&bob, status.HighestBidder)
	require.Equal(amount.New(70), status.HighestBid)

	clock.Set(250)
	require.NoError(host.Finalize())
	paid, err := host.Withdraw(alice)
	require.NoError(err)
	require.Equal(amount.New(60), paid)

	require.Equal(amount.New(100), host.Account(alice).Balance)
	require.Equal(amount.New(30), host.Account(bob).Balance)
	require.Equal(amount.New(70), host.Account(beneficiary).Balance)
	require.True(host.Status().Ended)
	require.NoError(host.Check())
}

func TestHost_BidWithoutFundsHasNoEffect(t *testing.T) {
	require := require.New(t)
	host, clock := openTestHost(t, store.NewInMemory(), nil)
	require.NoError(host.Fund(alice, amount.New(5)))

	clock.Set(50)
	require.ErrorIs(host.PlaceBid(alice, blind(1, "s"), amount.New(6)), bank.ErrInsufficientFunds)
	require.Empty(host.Account(alice).Commitments)
	require.Equal(amount.New(5), host.Account(alice).Balance)
	require.NoError(host.Check())
}

func TestHost_RejectedBidReturnsEscrowedDeposit(t *testing.T) {
	require := require.New(t)
	host, clock := openTestHost(t, store.NewInMemory(), nil)
	require.NoError(host.Fund(alice, amount.New(5)))

	clock.Set(150)
	require.ErrorIs(host.PlaceBid(alice, blind(1, "s"), amount.New(5)), auction.ErrWrongPhase)
	require.Equal(amount.New(5), host.Account(alice).Balance)
	require.True(host.Status().Accounts.Deposited.IsZero())
	require.NoError(host.Check())
}

func TestHost_StateSurvivesReopening(t *testing.T) {
	require := require.New(t)
	dir := t.TempDir()

	db, err := store.OpenLevelDb(dir, store.Options{})
	require.NoError(err)
	host, clock := openTestHost(t, db, nil)
	require.NoError(host.Fund(alice, amount.New(10)))
	clock.Set(50)
	require.NoError(host.PlaceBid(alice, blind(7, "s"), amount.New(10)))
	require.NoError(host.Close())

	db, err = store.OpenLevelDb(dir, store.Options{})
	require.NoError(err)
	host, clock = openTestHost(t, db, nil)
	clock.Set(150)
	results, err := host.Reveal(alice, []auction.Claim{claim(7, "s")})
	require.NoError(err)
	require.Equal(auction.Leading, results[0].Outcome)
	require.Equal(amount.New(3), host.Account(alice).Refund)
	require.NoError(host.Check())
	require.NoError(host.Close())
}

func TestHost_StoredAuctionTakesPrecedenceOverConfig(t *testing.T) {
	require := require.New(t)
	db := store.NewInMemory()
	host, _ := openTestHost(t, db, nil)
	require.NoError(host.Fund(alice, amount.New(1)))

	restarted, err := Open(Options{
		Config: auction.Config{Beneficiary: bob, BiddingEnd: 1, RevealEnd: 2},
		Store:  db,
		Clock:  &testClock{},
		Logger: log.NewLogger(slog.DiscardHandler),
	})
	require.NoError(err)
	require.Equal(testConfig, restarted.Status().Config)
	require.Equal(amount.New(1), restarted.Account(alice).Balance)
}

func TestOpen_RejectsInvalidConfigForNewAuction(t *testing.T) {
	_, err := Open(Options{Config: auction.Config{}, Store: store.NewInMemory()})
	require.ErrorIs(t, err, auction.ErrInvalidConfig)

	_, err = Open(Options{Config: testConfig})
	require.Error(t, err)
}

func TestHost_FailedCommitRollsBackOperation(t *testing.T) {
	require := require.New(t)
	ctrl := gomock.NewController(t)
	db := store.NewMockStore(ctrl)
	observer := auction.NewMockObserver(ctrl)

	injected := errors.New("injected error")
	db.EXPECT().Load().Return(nil, store.ErrNotFound)
	gomock.InOrder(
		db.EXPECT().Commit(gomock.Any()).Return(nil), // initial state
		db.EXPECT().Commit(gomock.Any()).Return(nil), // fund
		db.EXPECT().Commit(gomock.Any()).Return(injected),
	)
	observer.EXPECT().OnEvent(gomock.Any()).Times(0)

	host, clock := openTestHost(t, db, observer)
	require.NoError(host.Fund(alice, amount.New(10)))

	clock.Set(50)
	require.ErrorIs(host.PlaceBid(alice, blind(1, "s"), amount.New(10)), injected)

	account := host.Account(alice)
	require.Equal(amount.New(10), account.Balance)
	require.Empty(account.Commitments)
	require.True(host.Status().Accounts.Deposited.IsZero())
	require.NoError(host.Check())
}

func TestHost_ForwardsEventsAfterCommit(t *testing.T) {
	require := require.New(t)
	ctrl := gomock.NewController(t)
	observer := auction.NewMockObserver(ctrl)
	host, clock := openTestHost(t, store.NewInMemory(), observer)
	require.NoError(host.Fund(alice, amount.New(10)))

	gomock.InOrder(
		observer.EXPECT().OnEvent(auction.Event{Kind: auction.BidPlaced, Account: alice, Amount: amount.New(10)}),
		observer.EXPECT().OnEvent(auction.Event{Kind: auction.HighestBidIncreased, Account: alice, Amount: amount.New(4)}),
		observer.EXPECT().OnEvent(auction.Event{Kind: auction.ClaimProcessed, Account: alice, Outcome: auction.Leading, Amount: amount.New(6)}),
	)

	clock.Set(50)
	require.NoError(host.PlaceBid(alice, blind(4, "s"), amount.New(10)))

	// rejected operations do not produce events
	require.ErrorIs(host.Finalize(), auction.ErrWrongPhase)

	clock.Set(150)
	_, err := host.Reveal(alice, []auction.Claim{claim(4, "s")})
	require.NoError(err)
}

func TestHost_OverflowingFundHasNoEffect(t *testing.T) {
	require := require.New(t)
	db := store.NewInMemory()
	host, _ := openTestHost(t, db, nil)
	largest := amount.NewFromUint256(new(uint256.Int).SetAllOne())

	require.NoError(host.Fund(alice, largest))
	require.ErrorIs(host.Fund(bob, amount.New(1)), bank.ErrOverflow)
	require.True(host.Account(bob).Balance.IsZero())
	require.NoError(host.Check())

	// later operations commit a consistent state that can be opened again
	require.NoError(host.Fund(bob, amount.New(0)))
	restarted, _ := openTestHost(t, db, nil)
	require.Equal(largest, restarted.Account(alice).Balance)
	require.True(restarted.Account(bob).Balance.IsZero())
	require.NoError(restarted.Check())
}

func TestHost_PanickingOperationIsRolledBack(t *testing.T) {
	require := require.New(t)
	ctrl := gomock.NewController(t)
	observer := auction.NewMockObserver(ctrl)
	host, _ := openTestHost(t, store.NewInMemory(), observer)
	require.NoError(host.Fund(alice, amount.New(10)))

	err := host.apply("test", func() error {
		require.NoError(host.bank.Fund(bob, amount.New(5)))
		panic("half applied")
	})
	require.ErrorIs(err, ErrOperationPanicked)
	require.True(host.Account(bob).Balance.IsZero())
	require.NoError(host.Check())

	// the host remains usable
	require.NoError(host.Fund(bob, amount.New(1)))
	require.Equal(amount.New(1), host.Account(bob).Balance)
}

func TestOpen_FundsAllocationsOfNewAuction(t *testing.T) {
	require := require.New(t)
	db := store.NewInMemory()
	allocations := []bank.Allocation{
		{Address: alice, Amount: amount.New(100)},
		{Address: bob, Amount: amount.New(50)},
	}
	host, err := Open(Options{
		Config:      testConfig,
		Store:       db,
		Clock:       &testClock{now: 50},
		Logger:      log.NewLogger(slog.DiscardHandler),
		Allocations: allocations,
	})
	require.NoError(err)
	require.Equal(amount.New(100), host.Account(alice).Balance)
	require.NoError(host.PlaceBid(alice, blind(40, "s"), amount.New(60)))

	// allocations are not granted again on restart
	restarted, err := Open(Options{
		Config:      testConfig,
		Store:       db,
		Logger:      log.NewLogger(slog.DiscardHandler),
		Allocations: allocations,
	})
	require.NoError(err)
	require.Equal(amount.New(40), restarted.Account(alice).Balance)
	require.Equal(amount.New(50), restarted.Account(bob).Balance)
	require.NoError(restarted.Check())
}

func TestOpen_RejectsOverflowingAllocations(t *testing.T) {
	largest := amount.NewFromUint256(new(uint256.Int).SetAllOne())
	_, err := Open(Options{
		Config: testConfig,
		Store:  store.NewInMemory(),
		Logger: log.NewLogger(slog.DiscardHandler),
		Allocations: []bank.Allocation{
			{Address: alice, Amount: largest},
			{Address: bob, Amount: amount.New(1)},
		},
	})
	require.ErrorIs(t, err, bank.ErrOverflow)
}

func TestHost_ConcurrentOperationsAreSerialized(t *testing.T) {
	require := require.New(t)
	host, clock := openTestHost(t, store.NewInMemory(), nil)
	clock.Set(50)

	const numBidders = 16
	var wg sync.WaitGroup
	for i := range numBidders {
		wg.Add(1)
		go func() {
			defer wg.Done()
			bidder := common.Address{byte(i + 1)}
			require.NoError(host.Fund(bidder, amount.New(5)))
			require.NoError(host.PlaceBid(bidder, blind(uint64(i), "s"), amount.New(5)))
			_ = host.Status()
		}()
	}
	wg.Wait()

	require.Equal(amount.New(5*numBidders), host.Status().Accounts.Deposited)
	require.NoError(host.Check())
}
