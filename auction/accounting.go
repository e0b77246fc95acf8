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
	"errors"
	"fmt"

	"github.com/0xsoniclabs/blindauction/common/amount"
)

// Accounting is a breakdown of all value an auction ever received. For a
// consistent auction, Deposited equals the sum of all other fields.
type Accounting struct {
	Deposited  amount.Amount // received with bids
	Unrevealed amount.Amount // deposits of unconsumed commitments
	Refundable amount.Amount // credited to refund balances, not yet withdrawn
	Leading    amount.Amount // the highest bid, held until finalization
	Forfeited  amount.Amount // mismatched deposits, held until finalization
	Withdrawn  amount.Amount // paid out to bidders
	Paid       amount.Amount // paid out to the beneficiary
}

// Held is the value currently in the auction's custody.
func (a Accounting) Held() amount.Amount {
	return amount.Sum(a.Unrevealed, a.Refundable, a.Leading, a.Forfeited)
}

// Balanced reports whether no value has been created or destroyed.
func (a Accounting) Balanced() bool {
	return a.Deposited == amount.Sum(a.Held(), a.Withdrawn, a.Paid)
}

// Accounts computes the current value breakdown of the auction.
func (a *Auction) Accounts() Accounting {
	res := Accounting{
		Deposited: a.deposited,
		Forfeited: a.forfeited,
		Withdrawn: a.withdrawn,
		Paid:      a.paid,
	}
	if !a.ended {
		res.Leading = a.highestBid
	}
	for _, b := range a.bidders {
		res.Unrevealed = res.Unrevealed.Add(b.unrevealed())
		res.Refundable = res.Refundable.Add(b.refund)
	}
	return res
}

// Check verifies the internal invariants of the auction: conservation of
// value, consistency of the ranking, and that the auction did not end early.
func (a *Auction) Check() error {
	var errs []error

	if accounts := a.Accounts(); !accounts.Balanced() {
		errs = append(errs, fmt.Errorf(
			"value not conserved: deposited %v, held %v, withdrawn %v, paid %v",
			accounts.Deposited, accounts.Held(), accounts.Withdrawn, accounts.Paid,
		))
	}

	if a.hasLeader == a.highestBid.IsZero() {
		errs = append(errs, fmt.Errorf(
			"inconsistent ranking: leader present %t, highest bid %v",
			a.hasLeader, a.highestBid,
		))
	}
	if a.hasLeader {
		if _, found := a.bidders[a.highestBidder]; !found {
			errs = append(errs, fmt.Errorf("highest bidder %v has no bidder record", a.highestBidder))
		}
	}

	if a.ended {
		if now := a.clock.Now(); now < a.config.RevealEnd {
			errs = append(errs, fmt.Errorf("auction ended at %d, before reveal end %d", now, a.config.RevealEnd))
		}
		if !a.forfeited.IsZero() {
			errs = append(errs, fmt.Errorf("ended auction still holds forfeited deposits of %v", a.forfeited))
		}
	}

	return errors.Join(errs...)
}
