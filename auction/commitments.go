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
	"github.com/0xsoniclabs/blindauction/common"
	"github.com/0xsoniclabs/blindauction/common/amount"
)

// Commitment is a sealed bid slot. Commitments are never removed; a slot is
// retired by setting Consumed, which happens at most once.
type Commitment struct {
	Digest   common.Hash
	Deposit  amount.Amount
	Consumed bool
}

// bidder is the per-account record of an auction: the commitments in
// submission order and the balance owed back to the account.
type bidder struct {
	commitments []Commitment
	refund      amount.Amount
}

// commit appends a new unconsumed commitment and returns its slot index.
func (b *bidder) commit(digest common.Hash, deposit amount.Amount) int {
	b.commitments = append(b.commitments, Commitment{
		Digest:  digest,
		Deposit: deposit,
	})
	return len(b.commitments) - 1
}

// consume retires the commitment at the given slot and returns it. The
// boolean result is false if the slot does not exist or has been consumed
// before, in which case nothing is changed.
func (b *bidder) consume(index int) (Commitment, bool) {
	if b == nil || index < 0 || index >= len(b.commitments) {
		return Commitment{}, false
	}
	slot := &b.commitments[index]
	if slot.Consumed {
		return Commitment{}, false
	}
	slot.Consumed = true
	return *slot, true
}

// unrevealed sums up the deposits of all unconsumed commitments.
func (b *bidder) unrevealed() amount.Amount {
	res := amount.Amount{}
	for _, cur := range b.commitments {
		if !cur.Consumed {
			res = res.Add(cur.Deposit)
		}
	}
	return res
}
