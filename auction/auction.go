// Copyright (c) 2025 Sonic Operations Ltd
//
// Use of this software is governed by the Business Source License included
// in the LICENSE file and at soniclabs.com/bsl11.
//
// Change Date: 2028-4-16
//
// On the date above, in accordance with the Business Source License, use of
// this software will be governed by the GNU Lesser General Public License v3.

package auction

import (
	"fmt"

	"github.com/0xsoniclabs/blindauction/common"
	"github.com/0xsoniclabs/blindauction/common/amount"
	"github.com/ethereum/go-ethereum/log"
)

const (
	ErrWrongPhase       = common.ConstError("operation not allowed in current phase")
	ErrAlreadyFinalized = common.ConstError("auction already finalized")
	ErrTransferFailed   = common.ConstError("transfer failed")
	ErrInvalidConfig    = common.ConstError("invalid auction configuration")
)

// Environment bundles the capabilities an auction needs from its host.
type Environment struct {
	Ledger   Ledger     // required
	Clock    Clock      // defaults to the system clock
	Observer Observer   // optional
	Logger   log.Logger // defaults to the root logger
}

// Auction is the controller of a single sealed-bid auction. It is the only
// entry point for mutating the commitment ledger, the ranking and the refund
// ledger. An Auction is not safe for concurrent use.
type Auction struct {
	config Config

	ledger   Ledger
	clock    Clock
	observer Observer
	log      log.Logger

	bidders map[common.Address]*bidder

	// Ranking; hasLeader is false only while highestBid is zero.
	highestBidder common.Address
	hasLeader     bool
	highestBid    amount.Amount
	ended         bool

	// Value flow, see Accounts.
	deposited amount.Amount
	forfeited amount.Amount
	withdrawn amount.Amount
	paid      amount.Amount
}

// New creates an auction with the given configuration, in the bidding phase
// until config.BiddingEnd.
func New(config Config, env Environment) (*Auction, error) {
	if err := config.Validate(); err != nil {
		return nil, err
	}
	if env.Ledger == nil {
		return nil, fmt.Errorf("auction requires a ledger")
	}
	if env.Clock == nil {
		env.Clock = SystemClock{}
	}
	if env.Observer == nil {
		env.Observer = noopObserver{}
	}
	if env.Logger == nil {
		env.Logger = log.Root()
	}
	return &Auction{
		config:   config,
		ledger:   env.Ledger,
		clock:    env.Clock,
		observer: env.Observer,
		log:      env.Logger.New("module", "auction"),
		bidders:  map[common.Address]*bidder{},
	}, nil
}

// --- Phase-gated operations ---

// Bid records a blinded bid of the caller. The deposit is the value that
// accompanied the call; it is held by the auction from now on. Only allowed
// during the bidding phase.
func (a *Auction) Bid(caller common.Address, digest common.Hash, deposit amount.Amount) error {
	if err := a.requirePhase(BiddingPhase); err != nil {
		a.log.Warn("Rejected bid", "bidder", caller, "err", err)
		return err
	}
	b := a.getOrCreateBidder(caller)
	index := b.commit(digest, deposit)
	a.deposited = a.deposited.Add(deposit)

	a.log.Info("Bid placed", "bidder", caller, "slot", index, "deposit", deposit)
	a.observer.OnEvent(Event{Kind: BidPlaced, Account: caller, Index: index, Amount: deposit})
	return nil
}

// Reveal opens the caller's commitments. The i-th claim is matched against
// the caller's i-th commitment. Claims that can not be applied are skipped
// and reported in the result; the call only fails outside the reveal phase.
func (a *Auction) Reveal(caller common.Address, claims []Claim) ([]ClaimResult, error) {
	if err := a.requirePhase(RevealPhase); err != nil {
		a.log.Warn("Rejected reveal", "bidder", caller, "err", err)
		return nil, err
	}
	b := a.bidders[caller]
	results := make([]ClaimResult, 0, len(claims))
	for i, claim := range claims {
		res := a.processClaim(caller, b, i, claim)
		results = append(results, res)
		if res.Outcome == Skipped {
			a.log.Debug("Skipped claim", "bidder", caller, "slot", i)
			continue
		}
		a.log.Debug("Processed claim", "bidder", caller, "slot", i, "outcome", res.Outcome, "refund", res.Refund)
		a.observer.OnEvent(Event{Kind: ClaimProcessed, Account: caller, Index: i, Outcome: res.Outcome, Amount: res.Refund})
	}
	a.log.Info("Bids revealed", "bidder", caller, "claims", len(claims), "highest", a.highestBid)
	return results, nil
}

// Withdraw pays out the caller's refund balance and returns the paid amount.
// Withdrawing a zero balance is a successful no-op. Allowed in every phase.
func (a *Auction) Withdraw(caller common.Address) (amount.Amount, error) {
	b := a.bidders[caller]
	if b == nil || b.refund.IsZero() {
		return amount.Amount{}, nil
	}

	// The balance is cleared before the transfer so a ledger calling back
	// into the auction can not withdraw it a second time.
	value := b.debitAll()
	a.withdrawn = a.withdrawn.Add(value)
	if err := a.ledger.Transfer(caller, value); err != nil {
		b.credit(value)
		a.withdrawn = a.withdrawn.Sub(value)
		a.log.Warn("Withdrawal failed", "bidder", caller, "value", value, "err", err)
		return amount.Amount{}, fmt.Errorf("%w: withdrawal of %v to %v: %w", ErrTransferFailed, value, caller, err)
	}

	a.log.Info("Refund withdrawn", "bidder", caller, "value", value)
	a.observer.OnEvent(Event{Kind: Withdrawn, Account: caller, Amount: value})
	return value, nil
}

// Finalize ends the auction and pays the winning bid, together with any
// forfeited deposits, to the beneficiary. It is only allowed once the reveal
// phase is over, and only once.
func (a *Auction) Finalize() error {
	if err := a.requirePhase(EndedPhase); err != nil {
		a.log.Warn("Rejected finalization", "err", err)
		return err
	}
	if a.ended {
		return ErrAlreadyFinalized
	}

	forfeited := a.forfeited
	payout := a.highestBid.Add(forfeited)
	a.ended = true
	a.forfeited = amount.Amount{}
	a.paid = payout
	if !payout.IsZero() {
		if err := a.ledger.Transfer(a.config.Beneficiary, payout); err != nil {
			a.ended = false
			a.forfeited = forfeited
			a.paid = amount.Amount{}
			a.log.Warn("Finalization failed", "beneficiary", a.config.Beneficiary, "value", payout, "err", err)
			return fmt.Errorf("%w: payout of %v to beneficiary: %w", ErrTransferFailed, payout, err)
		}
	}

	a.log.Info("Auction ended", "winner", a.highestBidder, "bid", a.highestBid, "forfeited", forfeited)
	a.observer.OnEvent(Event{Kind: AuctionEnded, Account: a.highestBidder, Amount: a.highestBid})
	return nil
}

// --- Read-only views ---

func (a *Auction) Config() Config {
	return a.config
}

func (a *Auction) BiddingEnd() uint64 {
	return a.config.BiddingEnd
}

func (a *Auction) RevealEnd() uint64 {
	return a.config.RevealEnd
}

// Phase returns the phase according to the auction's clock.
func (a *Auction) Phase() Phase {
	return PhaseAt(a.config, a.clock.Now())
}

// HighestBidder returns the current leader. The boolean result is false as
// long as no bid with a positive value has been revealed.
func (a *Auction) HighestBidder() (common.Address, bool) {
	return a.highestBidder, a.hasLeader
}

func (a *Auction) HighestBid() amount.Amount {
	return a.highestBid
}

func (a *Auction) Ended() bool {
	return a.ended
}

// RefundBalance returns the amount the given account could withdraw now.
func (a *Auction) RefundBalance(addr common.Address) amount.Amount {
	if b := a.bidders[addr]; b != nil {
		return b.refund
	}
	return amount.Amount{}
}

// Commitments returns a copy of the commitments of the given account, in
// submission order.
func (a *Auction) Commitments(addr common.Address) []Commitment {
	if b := a.bidders[addr]; b != nil {
		return append([]Commitment(nil), b.commitments...)
	}
	return nil
}

// --- utility functions ---

func (a *Auction) requirePhase(want Phase) error {
	now := a.clock.Now()
	if got := PhaseAt(a.config, now); got != want {
		return fmt.Errorf("%w: requires %v phase, auction is in %v phase at time %d", ErrWrongPhase, want, got, now)
	}
	return nil
}

func (a *Auction) getOrCreateBidder(addr common.Address) *bidder {
	b, found := a.bidders[addr]
	if !found {
		b = &bidder{}
		a.bidders[addr] = b
	}
	return b
}
