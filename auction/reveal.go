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
)

// Claim is the plaintext of a blinded bid as presented during the reveal
// phase.
type Claim struct {
	Value      amount.Amount
	Fake       bool
	SecretHash common.Hash
}

// Digest recomputes the commitment digest of the claim.
func (c Claim) Digest() common.Hash {
	return BlindBid(c.Value, c.Fake, c.SecretHash)
}

// Outcome classifies the effect of a single reveal claim.
type Outcome uint8

const (
	// Skipped: the slot does not exist or was consumed before; no effect.
	Skipped Outcome = iota
	// Mismatch: the claim does not open the commitment; the slot is consumed
	// and its deposit is handled according to the ForfeitPolicy.
	Mismatch
	// Invalid: the claim opens the commitment but is a decoy or exceeds its
	// deposit; the deposit is refunded.
	Invalid
	// Outbid: a valid bid not exceeding the highest bid; the deposit is
	// refunded.
	Outbid
	// Leading: a valid bid that became the highest bid; the deposit exceeding
	// the bid is refunded.
	Leading
)

func (o Outcome) String() string {
	switch o {
	case Skipped:
		return "skipped"
	case Mismatch:
		return "mismatch"
	case Invalid:
		return "invalid"
	case Outbid:
		return "outbid"
	case Leading:
		return "leading"
	default:
		return fmt.Sprintf("Outcome(%d)", uint8(o))
	}
}

// ClaimResult reports what a reveal did with the claim at Index.
type ClaimResult struct {
	Index   int
	Outcome Outcome
	Refund  amount.Amount // credited to the revealing bidder for this claim
}

// processClaim applies a single claim to the commitment at the same index.
// The bidder may be nil if the caller never placed a bid.
func (a *Auction) processClaim(caller common.Address, b *bidder, index int, claim Claim) ClaimResult {
	res := ClaimResult{Index: index, Outcome: Skipped}
	slot, ok := b.consume(index)
	if !ok {
		return res
	}

	if claim.Digest() != slot.Digest {
		res.Outcome = Mismatch
		if a.config.ForfeitPolicy == ForfeitRefund {
			b.credit(slot.Deposit)
			res.Refund = slot.Deposit
		} else {
			a.forfeited = a.forfeited.Add(slot.Deposit)
		}
		return res
	}

	if claim.Fake || claim.Value.Cmp(slot.Deposit) > 0 {
		res.Outcome = Invalid
		b.credit(slot.Deposit)
		res.Refund = slot.Deposit
		return res
	}

	if claim.Value.Cmp(a.highestBid) <= 0 {
		res.Outcome = Outbid
		b.credit(slot.Deposit)
		res.Refund = slot.Deposit
		return res
	}

	// The claim becomes the new highest bid; the displaced leader gets the
	// full amount it was holding back.
	if a.hasLeader {
		previous := a.bidders[a.highestBidder]
		previous.credit(a.highestBid)
		a.log.Debug("Leader displaced", "bidder", a.highestBidder, "refund", a.highestBid)
	}
	a.highestBidder = caller
	a.hasLeader = true
	a.highestBid = claim.Value
	excess := slot.Deposit.Sub(claim.Value)
	b.credit(excess)

	res.Outcome = Leading
	res.Refund = excess
	a.log.Info("Highest bid increased", "bidder", caller, "bid", claim.Value)
	a.observer.OnEvent(Event{Kind: HighestBidIncreased, Account: caller, Amount: claim.Value})
	return res
}
