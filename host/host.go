// Copyright (c) 2025 Sonic Operations Ltd
//
// Use of this software is governed by the Business Source License included
// in the LICENSE file and at soniclabs.com/bsl11.
//
// Change Date: 2028-4-16
//
// On the date above, in accordance with the Business Source License, use of
// this software will be governed by the GNU Lesser General Public License v3.

// Package host provides the execution environment of a single auction. The
// host serializes all operations, supplies caller identities and the current
// time, moves deposits between bank accounts and the auction, and persists the
// resulting state. Every operation is atomic: either all of its effects are
// committed to the store, or none of them are visible afterwards.
package host

import (
	"errors"
	"fmt"
	"sync"

	"github.com/0xsoniclabs/blindauction/auction"
	"github.com/0xsoniclabs/blindauction/bank"
	"github.com/0xsoniclabs/blindauction/common"
	"github.com/0xsoniclabs/blindauction/common/amount"
	"github.com/0xsoniclabs/blindauction/store"
	"github.com/ethereum/go-ethereum/log"
)

const ErrOperationPanicked = common.ConstError("operation panicked")

// Options configure a host. Store and Config are required.
type Options struct {
	Config   auction.Config
	Store    store.Store
	Clock    auction.Clock    // defaults to the system clock
	Observer auction.Observer // receives events of committed operations
	Logger   log.Logger

	// Allocations fund bank accounts when a new auction is started. They
	// are ignored when the state is restored from the store.
	Allocations []bank.Allocation
}

type Host struct {
	mu sync.Mutex

	auction *auction.Auction
	bank    *bank.Bank

	store    store.Store
	clock    auction.Clock
	observer auction.Observer
	logger   log.Logger // passed on to the auction
	log      log.Logger

	// events of the operation in progress, forwarded after the commit
	pending []auction.Event
}

// Open restores the host state from the store, or starts a new auction with
// the configured parameters if the store is empty. A stored auction takes
// precedence over the configuration.
func Open(opts Options) (*Host, error) {
	if opts.Store == nil {
		return nil, fmt.Errorf("host requires a store")
	}
	if opts.Clock == nil {
		opts.Clock = auction.SystemClock{}
	}
	if opts.Logger == nil {
		opts.Logger = log.Root()
	}
	h := &Host{
		store:    opts.Store,
		clock:    opts.Clock,
		observer: opts.Observer,
		logger:   opts.Logger,
		log:      opts.Logger.New("module", "host"),
	}

	state, err := opts.Store.Load()
	if errors.Is(err, store.ErrNotFound) {
		h.auction, err = auction.New(opts.Config, h.environment())
		if err != nil {
			return nil, err
		}
		h.bank = bank.New()
		if err := h.bank.Allocate(opts.Allocations); err != nil {
			return nil, fmt.Errorf("invalid allocations: %w", err)
		}
		if err := h.commit(); err != nil {
			return nil, fmt.Errorf("failed to commit initial state: %w", err)
		}
		h.log.Info("Started new auction",
			"beneficiary", opts.Config.Beneficiary,
			"biddingEnd", opts.Config.BiddingEnd,
			"revealEnd", opts.Config.RevealEnd,
			"allocations", len(opts.Allocations),
		)
		return h, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load state: %w", err)
	}

	if err := h.restore(state); err != nil {
		return nil, err
	}
	if stored := h.auction.Config(); stored != opts.Config {
		h.log.Warn("Stored auction differs from configuration, using stored one",
			"biddingEnd", stored.BiddingEnd,
			"revealEnd", stored.RevealEnd,
			"beneficiary", stored.Beneficiary,
		)
	}
	h.log.Info("Restored auction", "phase", h.auction.Phase(), "ended", h.auction.Ended())
	return h, nil
}

// --- Operations ---

// PlaceBid escrows the deposit from the caller's account and records the
// blinded bid.
func (h *Host) PlaceBid(caller common.Address, digest common.Hash, deposit amount.Amount) error {
	return h.apply("bid", func() error {
		if err := h.bank.Escrow(caller, deposit); err != nil {
			return err
		}
		return h.auction.Bid(caller, digest, deposit)
	})
}

func (h *Host) Reveal(caller common.Address, claims []auction.Claim) ([]auction.ClaimResult, error) {
	var res []auction.ClaimResult
	err := h.apply("reveal", func() error {
		var err error
		res, err = h.auction.Reveal(caller, claims)
		return err
	})
	if err != nil {
		return nil, err
	}
	return res, nil
}

func (h *Host) Withdraw(caller common.Address) (amount.Amount, error) {
	var res amount.Amount
	err := h.apply("withdraw", func() error {
		var err error
		res, err = h.auction.Withdraw(caller)
		return err
	})
	if err != nil {
		return amount.Amount{}, err
	}
	return res, nil
}

func (h *Host) Finalize() error {
	return h.apply("finalize", func() error {
		return h.auction.Finalize()
	})
}

// Fund credits the given account with new value.
func (h *Host) Fund(addr common.Address, value amount.Amount) error {
	return h.apply("fund", func() error {
		if err := h.bank.Fund(addr, value); err != nil {
			return err
		}
		h.log.Info("Account funded", "account", addr, "value", value)
		return nil
	})
}

// --- Views ---

// Status summarizes the public state of the auction.
type Status struct {
	Config        auction.Config
	Now           uint64
	Phase         auction.Phase
	HighestBidder *common.Address // nil while there is no leader
	HighestBid    amount.Amount
	Ended         bool
	Accounts      auction.Accounting
}

func (h *Host) Status() Status {
	h.mu.Lock()
	defer h.mu.Unlock()
	res := Status{
		Config:     h.auction.Config(),
		Now:        h.clock.Now(),
		Phase:      h.auction.Phase(),
		HighestBid: h.auction.HighestBid(),
		Ended:      h.auction.Ended(),
		Accounts:   h.auction.Accounts(),
	}
	if leader, found := h.auction.HighestBidder(); found {
		res.HighestBidder = &leader
	}
	return res
}

// Account is the view of a single participant.
type Account struct {
	Address     common.Address
	Balance     amount.Amount
	Refund      amount.Amount
	Commitments []auction.Commitment
}

func (h *Host) Account(addr common.Address) Account {
	h.mu.Lock()
	defer h.mu.Unlock()
	return Account{
		Address:     addr,
		Balance:     h.bank.Balance(addr),
		Refund:      h.auction.RefundBalance(addr),
		Commitments: h.auction.Commitments(addr),
	}
}

// Check verifies the invariants of the auction and the bank, and that the
// bank's custody matches the value held by the auction.
func (h *Host) Check() error {
	h.mu.Lock()
	defer h.mu.Unlock()
	errs := []error{h.auction.Check(), h.bank.Check()}
	if held, custody := h.auction.Accounts().Held(), h.bank.Custody(); held != custody {
		errs = append(errs, fmt.Errorf("custody of %v does not match value held by auction %v", custody, held))
	}
	return errors.Join(errs...)
}

// Close releases the store.
func (h *Host) Close() error {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.store.Close()
}

// --- utility functions ---

// apply runs the given operation atomically. On failure of the operation or
// of the commit, the state before the operation is restored and no events
// are forwarded.
func (h *Host) apply(name string, op func() error) error {
	h.mu.Lock()
	defer h.mu.Unlock()

	before := &store.State{Auction: h.auction.Snapshot(), Bank: h.bank.Snapshot()}
	h.pending = h.pending[:0]

	err := run(op)
	if err == nil {
		if err = h.commit(); err != nil {
			h.log.Error("Failed to commit state", "operation", name, "err", err)
		}
	}
	if err != nil {
		if restoreErr := h.restore(before); restoreErr != nil {
			h.log.Error("Failed to roll back state", "operation", name, "err", restoreErr)
			return errors.Join(err, restoreErr)
		}
		return err
	}

	if h.observer != nil {
		for _, event := range h.pending {
			h.observer.OnEvent(event)
		}
	}
	return nil
}

// run executes op and converts a panic into an error, so that apply can roll
// back a half-applied operation.
func run(op func() error) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("%w: %v", ErrOperationPanicked, r)
		}
	}()
	return op()
}

func (h *Host) commit() error {
	return h.store.Commit(&store.State{
		Auction: h.auction.Snapshot(),
		Bank:    h.bank.Snapshot(),
	})
}

func (h *Host) restore(state *store.State) error {
	restoredBank, err := bank.Restore(state.Bank)
	if err != nil {
		return fmt.Errorf("failed to restore bank: %w", err)
	}
	restoredAuction, err := auction.Restore(state.Auction, h.environment())
	if err != nil {
		return fmt.Errorf("failed to restore auction: %w", err)
	}
	h.bank = restoredBank
	h.auction = restoredAuction
	return nil
}

func (h *Host) environment() auction.Environment {
	return auction.Environment{
		Ledger:   bankLedger{h},
		Clock:    h.clock,
		Observer: eventBuffer{h},
		Logger:   h.logger,
	}
}

// bankLedger routes auction payouts to the host's current bank, which is
// replaced on every rollback.
type bankLedger struct {
	h *Host
}

func (l bankLedger) Transfer(to common.Address, value amount.Amount) error {
	return l.h.bank.Transfer(to, value)
}

type eventBuffer struct {
	h *Host
}

func (b eventBuffer) OnEvent(event auction.Event) {
	b.h.pending = append(b.h.pending, event)
}
